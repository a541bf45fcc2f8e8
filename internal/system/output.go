package system

import (
	"time"

	coresys "github.com/prisonforge/server/internal/core/system"
	"github.com/prisonforge/server/internal/net"
	"github.com/prisonforge/server/internal/net/packet"
)

// HostGauge is told how many hosts are ready after every flush.
type HostGauge interface {
	SetHosts(n int)
}

// OutputSystem hands every frame buffered this tick to the session writers.
// Phase 4 (Output).
type OutputSystem struct {
	store *net.SessionStore
	gauge HostGauge
}

func NewOutputSystem(store *net.SessionStore, gauge HostGauge) *OutputSystem {
	return &OutputSystem{store: store, gauge: gauge}
}

func (s *OutputSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *OutputSystem) Update(_ time.Duration) {
	ready := 0
	s.store.ForEach(func(sess *net.Session) {
		sess.FlushOutput()
		if sess.State() == packet.StateReady {
			ready++
		}
	})
	if s.gauge != nil {
		s.gauge.SetHosts(ready)
	}
}
