package system

import (
	"time"

	coresys "github.com/prisonforge/server/internal/core/system"
)

// GroundExpirer ages spilled items by one tick.
type GroundExpirer interface {
	ExpireGround() int
}

// GroundItemSystem removes spilled items whose time is up. Phase 3
// (PostUpdate).
type GroundItemSystem struct {
	ground GroundExpirer
}

func NewGroundItemSystem(ground GroundExpirer) *GroundItemSystem {
	return &GroundItemSystem{ground: ground}
}

func (s *GroundItemSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *GroundItemSystem) Update(_ time.Duration) {
	s.ground.ExpireGround()
}
