package ability

import (
	"time"

	"github.com/prisonforge/server/internal/config"
	"github.com/prisonforge/server/internal/world"
)

// Default reward currency for sell and shatter rewards.
const DefaultRewardKind = "money"

// TokenKind is the currency activation costs are paid in.
const TokenKind = "tokens"

// Permission nodes that unlock pipeline steps and procs.
const (
	PermAutoSell    = "prisonforge.autosell"
	PermAutoCollect = "prisonforge.autocollect"
	permProcPrefix  = "prisonforge.ability."
)

// Settings is the immutable tunable set of one activation. The engine copies
// it at admission; reloading config never changes a running activation.
type Settings struct {
	Enabled bool

	Radius      int
	Height      int
	ProbeHeight int

	BlocksPerTick int
	TickBudget    time.Duration // 0 disables the wall-clock ceiling

	CountdownTicks   int
	FreezeDelayTicks int
	MarkerMaterial   world.Material

	BurstCount         int
	BurstSpacing       int
	BurstIntervalTicks int

	MaxActors          int
	SpawnPerTick       int
	SpawnIntervalTicks int
	AnimationTicks     int
	MaxTicks           int // vortex hard ceiling

	RewardPerBlock float64
	RewardKind     string
	Cost           float64

	AutoSell    bool
	AutoCollect bool
	ProcChance  float64
}

// SettingsFromConfig builds the per-kind settings table. Unknown kinds in
// the config file are kept; the engine refuses them at admission.
func SettingsFromConfig(cfg *config.Config) map[Kind]Settings {
	out := make(map[Kind]Settings, len(cfg.Abilities))
	for name, a := range cfg.Abilities {
		s := Settings{
			Enabled:            a.Enabled,
			Radius:             a.Radius,
			Height:             a.Height,
			ProbeHeight:        a.ProbeHeight,
			BlocksPerTick:      a.BlocksPerTick,
			TickBudget:         a.TickBudget,
			CountdownTicks:     a.CountdownTicks,
			FreezeDelayTicks:   a.FreezeDelayTicks,
			MarkerMaterial:     world.Material(cfg.Engine.MarkerMaterial),
			BurstCount:         a.BurstCount,
			BurstSpacing:       a.BurstSpacing,
			BurstIntervalTicks: a.BurstIntervalTicks,
			MaxActors:          a.MaxActors,
			SpawnPerTick:       a.SpawnPerTick,
			SpawnIntervalTicks: a.SpawnIntervalTicks,
			AnimationTicks:     a.AnimationTicks,
			MaxTicks:           cfg.Engine.VortexHardTickLimit,
			RewardPerBlock:     a.RewardPerBlock,
			RewardKind:         a.RewardKind,
			Cost:               a.Cost,
			AutoSell:           a.AutoSell,
			AutoCollect:        a.AutoCollect,
			ProcChance:         a.ProcChance,
		}
		if s.RewardKind == "" {
			s.RewardKind = DefaultRewardKind
		}
		out[Kind(name)] = s
	}
	return out
}

// validate reports the first setting that makes kind impossible to run.
func (s Settings) validate(kind Kind) string {
	if s.BlocksPerTick <= 0 {
		return "blocks_per_tick"
	}
	switch kind {
	case KindExplosive, KindSurface, KindNuke, KindBurst:
		if s.Radius < 0 {
			return "radius"
		}
	case KindFreeze:
		if s.MarkerMaterial == "" || s.MarkerMaterial == world.Air {
			return "marker_material"
		}
	case KindVortex:
		if s.MaxActors <= 0 || s.SpawnPerTick <= 0 || s.AnimationTicks <= 0 || s.MaxTicks <= 0 {
			return "max_actors/spawn_per_tick/animation_ticks"
		}
	}
	if kind == KindBurst && s.BurstCount <= 0 {
		return "burst_count"
	}
	return ""
}
