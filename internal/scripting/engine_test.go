package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/prisonforge/server/internal/world"
)

func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()
	sub := filepath.Join(dir, "reward")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, name), []byte(body), 0o644))
}

func TestShippedRewardFormula(t *testing.T) {
	e, err := NewEngine(filepath.Join("..", "..", "scripts"), zap.NewNop())
	require.NoError(t, err)
	defer e.Close()

	tests := []struct {
		name string
		ctx  RewardContext
		want float64
	}{
		{"fresh player", RewardContext{RewardKind: "money"}, 1.0},
		{"two prestige tiers", RewardContext{RewardKind: "money", RawBlocks: 25_000}, 1.10},
		{"tiers are capped", RewardContext{RewardKind: "money", RawBlocks: 5_000_000}, 1.50},
		{"donor bonus", RewardContext{RewardKind: "money", Perms: []string{"prisonforge.donor"}}, 1.25},
		{"other currencies are flat", RewardContext{RewardKind: "tokens", RawBlocks: 25_000}, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, e.RewardMultiplier(tt.ctx), 1e-9)
		})
	}
}

func TestRewardMultiplierFallsBackToOne(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{"function missing", `x = 1`},
		{"runtime error", `function calc_reward_multiplier(ctx) error("boom") end`},
		{"non-number result", `function calc_reward_multiplier(ctx) return "lots" end`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeScript(t, dir, "m.lua", tt.script)
			e, err := NewEngine(dir, zap.NewNop())
			require.NoError(t, err)
			defer e.Close()

			assert.Equal(t, 1.0, e.RewardMultiplier(RewardContext{RewardKind: "money"}))
		})
	}
}

func TestNewEngineRejectsBrokenScript(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "bad.lua", `function calc_reward_multiplier(`)

	_, err := NewEngine(dir, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load reward scripts")
}

func TestMultiplierReadsPlayerRecord(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "m.lua", `function calc_reward_multiplier(ctx)
  return 1 + ctx.raw_blocks / 100 + ctx.balance / 1000
end`)
	e, err := NewEngine(dir, zap.NewNop())
	require.NoError(t, err)
	defer e.Close()

	state := world.NewState(world.NewBlockStore(0, 16))
	state.AddPlayer(&world.PlayerInfo{ID: 4, World: "mine", RawBlocks: 50, Balances: map[string]float64{"money": 500}})
	m := NewMultiplier(e, state)

	assert.InDelta(t, 2.0, m.CurrentMultiplier(4, "money"), 1e-9)
	assert.Equal(t, 1.0, m.CurrentMultiplier(9, "money"), "unknown actor")
}
