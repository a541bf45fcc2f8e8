package handler

import (
	"go.uber.org/zap"

	"github.com/prisonforge/server/internal/net"
	"github.com/prisonforge/server/internal/net/packet"
)

// HandleHello processes C_HELLO. A host speaking another protocol version is
// told why and disconnected; otherwise the session becomes Ready.
func HandleHello(sess *net.Session, r *packet.Reader, deps *Deps) {
	version := r.ReadD()
	name := r.ReadS()

	if version != packet.ProtocolVersion {
		deps.Log.Warn("host protocol mismatch",
			zap.Uint64("session", sess.ID),
			zap.Int32("version", version),
			zap.Int32("want", packet.ProtocolVersion),
		)
		w := packet.NewWriterWithOpcode(packet.S_OPCODE_DISCONNECT)
		w.WriteS("protocol version mismatch")
		sess.Send(w.Bytes())
		sess.FlushOutput()
		sess.Close()
		return
	}

	sess.HostName = name
	sess.SetState(packet.StateReady)
	deps.Log.Info("host ready", zap.Uint64("session", sess.ID), zap.String("host", name))
}
