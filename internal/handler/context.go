package handler

import (
	"go.uber.org/zap"

	"github.com/prisonforge/server/internal/config"
	"github.com/prisonforge/server/internal/core/event"
	"github.com/prisonforge/server/internal/economy"
	"github.com/prisonforge/server/internal/net"
	"github.com/prisonforge/server/internal/net/packet"
	"github.com/prisonforge/server/internal/world"
)

// Deps holds everything the frame handlers touch. Handlers run on the game
// loop goroutine.
type Deps struct {
	Config *config.Config
	Log    *zap.Logger
	World  *world.State
	Bus    *event.Bus
	Roster *Roster

	Boosters *economy.Boosters
}

// RegisterAll registers every host frame handler.
func RegisterAll(reg *packet.Registry, deps *Deps) {
	reg.Register(packet.C_OPCODE_HELLO,
		[]packet.SessionState{packet.StateHandshake},
		func(sess any, r *packet.Reader) {
			HandleHello(sess.(*net.Session), r, deps)
		},
	)

	ready := []packet.SessionState{packet.StateReady}

	reg.Register(packet.C_OPCODE_JOIN, ready, func(sess any, r *packet.Reader) {
		HandleJoin(sess.(*net.Session), r, deps)
	})
	reg.Register(packet.C_OPCODE_QUIT, ready, func(sess any, r *packet.Reader) {
		HandleQuit(sess.(*net.Session), r, deps)
	})
	reg.Register(packet.C_OPCODE_MOVE, ready, func(sess any, r *packet.Reader) {
		HandleMove(sess.(*net.Session), r, deps)
	})
	reg.Register(packet.C_OPCODE_PERMISSION, ready, func(sess any, r *packet.Reader) {
		HandlePermission(sess.(*net.Session), r, deps)
	})
	reg.Register(packet.C_OPCODE_BALANCE, ready, func(sess any, r *packet.Reader) {
		HandleBalance(sess.(*net.Session), r, deps)
	})
	reg.Register(packet.C_OPCODE_BOOSTER, ready, func(sess any, r *packet.Reader) {
		HandleBooster(sess.(*net.Session), r, deps)
	})
	reg.Register(packet.C_OPCODE_BLOCK_BREAK, ready, func(sess any, r *packet.Reader) {
		HandleBlockBreak(sess.(*net.Session), r, deps)
	})
	reg.Register(packet.C_OPCODE_BLOCK_SET, ready, func(sess any, r *packet.Reader) {
		HandleBlockSet(sess.(*net.Session), r, deps)
	})
	reg.Register(packet.C_OPCODE_ABILITY, ready, func(sess any, r *packet.Reader) {
		HandleAbility(sess.(*net.Session), r, deps)
	})
	reg.Register(packet.C_OPCODE_DISABLE, ready, func(sess any, r *packet.Reader) {
		HandleDisable(sess.(*net.Session), r, deps)
	})
}

// InitFrame builds the S_INIT frame every host receives on connect.
func InitFrame(cfg *config.Config) []byte {
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_INIT)
	w.WriteD(packet.ProtocolVersion)
	w.WriteS(cfg.Server.Name)
	w.WriteD(int32(cfg.Server.TickRate.Milliseconds()))
	return w.Bytes()
}
