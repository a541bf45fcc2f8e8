package handler

import (
	"go.uber.org/zap"

	"github.com/prisonforge/server/internal/core/event"
	"github.com/prisonforge/server/internal/net"
	"github.com/prisonforge/server/internal/net/packet"
	"github.com/prisonforge/server/internal/world"
)

// HandleBlockBreak processes C_BLOCK_BREAK: a player broke a block on the
// host. The mirror is updated and the break may proc an ability next tick.
func HandleBlockBreak(_ *net.Session, r *packet.Reader, deps *Deps) {
	actor := world.ActorID(r.ReadQ())
	at := r.ReadCoord()
	was := world.Material(r.ReadS())
	if r.Short() {
		return
	}
	if err := deps.World.Blocks.SetBlock(at, world.Air); err != nil {
		deps.Log.Debug("block break outside store", zap.Stringer("at", at), zap.Error(err))
		return
	}
	event.Emit(deps.Bus, event.BlockBroken{Actor: actor, At: at, Was: was})
}

// HandleBlockSet processes C_BLOCK_SET: the host changed a block for its own
// reasons (mine reset, builds). Not echoed back.
func HandleBlockSet(_ *net.Session, r *packet.Reader, deps *Deps) {
	at := r.ReadCoord()
	m := world.Material(r.ReadS())
	if r.Short() {
		return
	}
	if err := deps.World.Blocks.SetBlock(at, m); err != nil {
		deps.Log.Debug("block set outside store", zap.Stringer("at", at), zap.Error(err))
	}
}
