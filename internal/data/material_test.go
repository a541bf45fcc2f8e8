package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prisonforge/server/internal/world"
)

const materialYAML = `
materials:
  - id: STONE
    price: 0.5
    drops:
      - item: COBBLESTONE
        count: 1
  - id: DIAMOND_ORE
    price: 12.25
  - id: BEDROCK
    protected: true
`

func writeTemp(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "material_list.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMaterialTable(t *testing.T) {
	tbl, err := LoadMaterialTable(writeTemp(t, materialYAML))
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.Count())

	price, ok := tbl.SellPrice("DIAMOND_ORE")
	assert.True(t, ok)
	assert.InDelta(t, 12.25, price, 1e-9)

	_, ok = tbl.SellPrice("BEDROCK")
	assert.False(t, ok)

	assert.Equal(t, []world.ItemStack{{Item: "COBBLESTONE", Count: 1}}, tbl.Drops("STONE"))
	assert.Equal(t, []world.ItemStack{{Item: "DIRT", Count: 1}}, tbl.Drops("DIRT"), "unknown materials drop themselves")

	assert.True(t, tbl.Protected("BEDROCK"))
	assert.True(t, tbl.Protected(world.Air))
	assert.False(t, tbl.Protected("STONE"))
}

func TestLoadMaterialTableRejectsBadEntries(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty id", "materials:\n  - price: 1\n"},
		{"negative price", "materials:\n  - id: STONE\n    price: -1\n"},
		{"bad yaml", "materials: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadMaterialTable(writeTemp(t, tt.body))
			assert.Error(t, err)
		})
	}
}
