package system

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/prisonforge/server/internal/ability"
	coresys "github.com/prisonforge/server/internal/core/system"
	"github.com/prisonforge/server/internal/economy"
)

// BoosterSystem expires reward boosters and tells their owners.
// Phase 3 (PostUpdate).
type BoosterSystem struct {
	boosters  *economy.Boosters
	presenter ability.Presenter
	log       *zap.Logger
}

func NewBoosterSystem(boosters *economy.Boosters, presenter ability.Presenter, log *zap.Logger) *BoosterSystem {
	return &BoosterSystem{boosters: boosters, presenter: presenter, log: log}
}

func (s *BoosterSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *BoosterSystem) Update(_ time.Duration) {
	for _, b := range s.boosters.Expire() {
		s.presenter.Message(b.Actor, fmt.Sprintf("Your %s booster (x%.2f) has expired", boosterLabel(b.Kind), b.Factor))
		s.log.Debug("booster expired",
			zap.Uint64("actor", uint64(b.Actor)),
			zap.String("kind", b.Kind),
			zap.Float64("factor", b.Factor),
		)
	}
}

func boosterLabel(kind string) string {
	if kind == economy.AnyKind {
		return "reward"
	}
	return kind
}
