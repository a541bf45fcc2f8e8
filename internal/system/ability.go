package system

import (
	"time"

	"github.com/prisonforge/server/internal/ability"
	coresys "github.com/prisonforge/server/internal/core/system"
)

// TickSource is the scheduler's tick counter.
type TickSource interface {
	Now() uint64
}

// AbilitySystem advances every in-flight activation once per tick.
// Phase 2 (Update).
type AbilitySystem struct {
	engine *ability.Engine
	clock  TickSource
}

func NewAbilitySystem(engine *ability.Engine, clock TickSource) *AbilitySystem {
	return &AbilitySystem{engine: engine, clock: clock}
}

func (s *AbilitySystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *AbilitySystem) Update(_ time.Duration) {
	s.engine.Tick(s.clock.Now())
}
