package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/prisonforge/server/internal/core/event"
	coresys "github.com/prisonforge/server/internal/core/system"
	"github.com/prisonforge/server/internal/handler"
	"github.com/prisonforge/server/internal/net"
	"github.com/prisonforge/server/internal/net/packet"
	"github.com/prisonforge/server/internal/world"
)

// SessionSource hands over newly accepted host sessions.
type SessionSource interface {
	NewSessions() <-chan *net.Session
}

// InputSystem drains frame queues from every host session and dispatches
// them through the frame registry. Phase 0 (Input).
type InputSystem struct {
	source     SessionSource
	registry   *packet.Registry
	store      *net.SessionStore
	roster     *handler.Roster
	world      *world.State
	bus        *event.Bus
	maxPerTick int
	log        *zap.Logger
}

func NewInputSystem(
	source SessionSource,
	registry *packet.Registry,
	store *net.SessionStore,
	roster *handler.Roster,
	ws *world.State,
	bus *event.Bus,
	maxPerTick int,
	log *zap.Logger,
) *InputSystem {
	return &InputSystem{
		source:     source,
		registry:   registry,
		store:      store,
		roster:     roster,
		world:      ws,
		bus:        bus,
		maxPerTick: maxPerTick,
		log:        log,
	}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	for {
		select {
		case sess := <-s.source.NewSessions():
			s.store.Add(sess)
		default:
			goto accepted
		}
	}
accepted:

	s.store.ForEach(func(sess *net.Session) {
		// A closed session still gets its queued frames handled, so a quit
		// sent just before the socket dropped is not lost.
		s.drain(sess)
		if sess.IsClosed() {
			s.handleDisconnect(sess)
			s.store.Remove(sess.ID)
		}
	})
}

func (s *InputSystem) drain(sess *net.Session) {
	for i := 0; i < s.maxPerTick; i++ {
		select {
		case data := <-sess.InQueue:
			if err := s.registry.Dispatch(sess, sess.State(), data); err != nil {
				s.log.Debug("frame dispatch error",
					zap.Uint64("session", sess.ID),
					zap.Error(err),
				)
			}
		default:
			return
		}
	}
}

// handleDisconnect takes every player the host announced offline.
func (s *InputSystem) handleDisconnect(sess *net.Session) {
	actors := s.roster.DropSession(sess.ID)
	for _, a := range actors {
		if s.world.RemovePlayer(a) != nil {
			event.Emit(s.bus, event.PlayerDisconnected{Actor: a})
		}
	}
	s.log.Info("host disconnected",
		zap.Uint64("session", sess.ID),
		zap.String("host", sess.HostName),
		zap.Int("players", len(actors)),
	)
}
