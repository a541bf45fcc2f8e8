package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockStoreNegativeCoordinates(t *testing.T) {
	s := NewBlockStore(-64, 255)
	c := Coord{World: "mine", X: -1, Y: -3, Z: -17}
	assert.Equal(t, Air, s.Block(c))

	require.NoError(t, s.SetBlock(c, "STONE"))
	assert.Equal(t, Material("STONE"), s.Block(c))
	assert.Equal(t, Air, s.Block(c.Add(1, 0, 0)))
	assert.Equal(t, Air, s.Block(Coord{World: "other", X: -1, Y: -3, Z: -17}))

	err := s.SetBlock(Coord{World: "mine", Y: 300}, "STONE")
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestBlockStoreFill(t *testing.T) {
	s := NewBlockStore(0, 64)
	n := s.Fill(Coord{World: "mine", X: 2, Y: 2, Z: 2}, Coord{World: "mine", X: 0, Y: 0, Z: 0}, "DIRT")
	assert.Equal(t, 27, n)
	assert.Equal(t, Material("DIRT"), s.Block(Coord{World: "mine", X: 1, Y: 1, Z: 1}))
}

func TestInventoryOverflow(t *testing.T) {
	inv := NewInventory(2)
	overflow := inv.AddAll([]ItemStack{{Item: "COAL", Count: 100}, {Item: "IRON", Count: 40}})
	assert.Equal(t, []ItemStack{{Item: "IRON", Count: 40}}, overflow)
	assert.Equal(t, 100, inv.Count("COAL"))
	assert.False(t, inv.IsFull(), "second COAL stack holds 36")

	assert.Equal(t, 0, inv.Add(ItemStack{Item: "COAL", Count: 28}))
	assert.True(t, inv.IsFull())
}

func TestPlayerWildcardPermission(t *testing.T) {
	p := &PlayerInfo{Perms: map[string]bool{"prisonforge.ability.*": true}}
	assert.True(t, p.HasPermission("prisonforge.ability.autosell"))
	assert.False(t, p.HasPermission("prisonforge.admin"))
}

func TestStateNearbyPlayers(t *testing.T) {
	s := NewState(NewBlockStore(0, 64))
	s.AddPlayer(&PlayerInfo{ID: 2, World: "mine", Pos: Vec3{X: 10, Y: 5, Z: 10}})
	s.AddPlayer(&PlayerInfo{ID: 1, World: "mine", Pos: Vec3{X: 0, Y: 5, Z: 0}})
	s.AddPlayer(&PlayerInfo{ID: 3, World: "mine", Pos: Vec3{X: 500, Y: 5, Z: 0}})

	near := s.NearbyPlayers(Coord{World: "mine", X: 0, Y: 5, Z: 0}, 32)
	require.Len(t, near, 2)
	assert.Equal(t, ActorID(1), near[0].ID)

	s.RemovePlayer(1)
	assert.False(t, s.Online(1))
	assert.Len(t, s.NearbyPlayers(Coord{World: "mine", Y: 5}, 32), 1)
}
