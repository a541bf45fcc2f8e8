package scripting

import (
	"sort"

	"github.com/prisonforge/server/internal/world"
)

// Multiplier exposes the scripted formula as a reward multiplier source.
type Multiplier struct {
	engine  *Engine
	players *world.State
}

func NewMultiplier(engine *Engine, players *world.State) *Multiplier {
	return &Multiplier{engine: engine, players: players}
}

func (m *Multiplier) CurrentMultiplier(actor world.ActorID, rewardKind string) float64 {
	p := m.players.Get(actor)
	if p == nil {
		return 1
	}
	perms := make([]string, 0, len(p.Perms))
	for node, ok := range p.Perms {
		if ok {
			perms = append(perms, node)
		}
	}
	sort.Strings(perms)
	return m.engine.RewardMultiplier(RewardContext{
		Actor:      uint64(actor),
		RewardKind: rewardKind,
		RawBlocks:  p.RawBlocks,
		Balance:    p.Balance(rewardKind),
		Perms:      perms,
	})
}
