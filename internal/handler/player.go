package handler

import (
	"go.uber.org/zap"

	"github.com/prisonforge/server/internal/core/event"
	"github.com/prisonforge/server/internal/net"
	"github.com/prisonforge/server/internal/net/packet"
	"github.com/prisonforge/server/internal/world"
)

// HandleJoin processes C_JOIN. The player is online as soon as the frame is
// handled; subscribers hear about it on the next tick.
func HandleJoin(sess *net.Session, r *packet.Reader, deps *Deps) {
	actor := world.ActorID(r.ReadQ())
	name := r.ReadS()
	worldName := r.ReadS()
	pos := r.ReadVec()
	if r.Short() || actor == 0 || worldName == "" {
		return
	}

	ws := deps.World
	if p := ws.Get(actor); p != nil {
		p.Name = name
		ws.MovePlayer(actor, worldName, pos)
	} else {
		ws.AddPlayer(&world.PlayerInfo{
			ID:     actor,
			Name:   name,
			World:  worldName,
			Pos:    pos,
			Facing: world.Vec3{Z: 1},
		})
	}
	deps.Roster.Add(sess.ID, actor)
	event.Emit(deps.Bus, event.PlayerJoined{Actor: actor, Name: name, At: pos, World: worldName})

	deps.Log.Info("player joined",
		zap.Uint64("actor", uint64(actor)),
		zap.String("name", name),
		zap.Uint64("session", sess.ID),
	)
}

// HandleQuit processes C_QUIT. The player leaves the world immediately; the
// disconnect event lets the engine abort whatever the player had running.
func HandleQuit(_ *net.Session, r *packet.Reader, deps *Deps) {
	actor := world.ActorID(r.ReadQ())
	if r.Short() {
		return
	}
	deps.Roster.Remove(actor)
	if deps.World.RemovePlayer(actor) == nil {
		return
	}
	event.Emit(deps.Bus, event.PlayerDisconnected{Actor: actor})
	deps.Log.Info("player left", zap.Uint64("actor", uint64(actor)))
}

// HandleMove processes C_MOVE. The host is authoritative for positions.
func HandleMove(_ *net.Session, r *packet.Reader, deps *Deps) {
	actor := world.ActorID(r.ReadQ())
	worldName := r.ReadS()
	pos := r.ReadVec()
	facing := r.ReadVec()
	if r.Short() || worldName == "" {
		return
	}
	p := deps.World.Get(actor)
	if p == nil {
		return
	}
	deps.World.MovePlayer(actor, worldName, pos)
	if facing.Len() > 0 {
		p.Facing = facing.Normalize()
	}
}

// HandlePermission processes C_PERMISSION: grant or revoke one node.
func HandlePermission(_ *net.Session, r *packet.Reader, deps *Deps) {
	actor := world.ActorID(r.ReadQ())
	node := r.ReadS()
	granted := r.ReadBool()
	if r.Short() || node == "" {
		return
	}
	p := deps.World.Get(actor)
	if p == nil {
		return
	}
	if granted {
		p.Perms[node] = true
	} else {
		delete(p.Perms, node)
	}
}

// HandleBalance processes C_BALANCE: the host sets an absolute balance,
// usually right after join.
func HandleBalance(_ *net.Session, r *packet.Reader, deps *Deps) {
	actor := world.ActorID(r.ReadQ())
	kind := r.ReadS()
	amount := r.ReadF()
	if r.Short() || kind == "" || amount < 0 {
		return
	}
	if p := deps.World.Get(actor); p != nil {
		p.Balances[kind] = amount
	}
}

// HandleBooster processes C_BOOSTER: a timed reward multiplier bought or
// granted on the host.
func HandleBooster(_ *net.Session, r *packet.Reader, deps *Deps) {
	actor := world.ActorID(r.ReadQ())
	kind := r.ReadS()
	factor := r.ReadF()
	ticks := r.ReadD()
	if r.Short() || deps.Boosters == nil || ticks <= 0 {
		return
	}
	if !deps.World.Online(actor) {
		return
	}
	if !deps.Boosters.Grant(actor, kind, factor, uint64(ticks)) {
		deps.Log.Debug("booster refused", zap.Uint64("actor", uint64(actor)), zap.Float64("factor", factor))
		return
	}
	deps.Log.Info("booster granted",
		zap.Uint64("actor", uint64(actor)),
		zap.String("kind", kind),
		zap.Float64("factor", factor),
		zap.Int32("ticks", ticks),
	)
}
