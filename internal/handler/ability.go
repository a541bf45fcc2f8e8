package handler

import (
	"go.uber.org/zap"

	"github.com/prisonforge/server/internal/core/event"
	"github.com/prisonforge/server/internal/net"
	"github.com/prisonforge/server/internal/net/packet"
	"github.com/prisonforge/server/internal/world"
)

// HandleAbility processes C_ABILITY: a player asked for an ability by name.
func HandleAbility(_ *net.Session, r *packet.Reader, deps *Deps) {
	actor := world.ActorID(r.ReadQ())
	kind := r.ReadS()
	if r.Short() || kind == "" {
		return
	}
	event.Emit(deps.Bus, event.AbilityRequested{Actor: actor, Kind: kind})
}

// HandleDisable processes C_DISABLE: the host is unloading the plugin.
func HandleDisable(sess *net.Session, _ *packet.Reader, deps *Deps) {
	deps.Log.Info("host disabling engine", zap.Uint64("session", sess.ID), zap.String("host", sess.HostName))
	event.Emit(deps.Bus, event.PluginDisabled{})
}
