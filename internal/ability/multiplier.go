package ability

import (
	"math"

	"github.com/prisonforge/server/internal/world"
)

// Multipliers composes every active multiplier source into one factor.
type Multipliers struct {
	sources []MultiplierSource
}

func NewMultipliers(sources ...MultiplierSource) *Multipliers {
	m := &Multipliers{}
	for _, s := range sources {
		if s != nil {
			m.sources = append(m.sources, s)
		}
	}
	return m
}

// Compose returns the product of all sources. Sources reporting a
// non-positive or non-finite value are treated as 1.
func (m *Multipliers) Compose(actor world.ActorID, rewardKind string) float64 {
	f := 1.0
	for _, s := range m.sources {
		v := s.CurrentMultiplier(actor, rewardKind)
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		f *= v
	}
	return f
}

// Apply multiplies base by the composed factor and rounds once, to cents.
func (m *Multipliers) Apply(actor world.ActorID, rewardKind string, base float64) float64 {
	return roundCents(base * m.Compose(actor, rewardKind))
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
