package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prisonforge/server/internal/region"
	"github.com/prisonforge/server/internal/world"
)

type protectAir struct{}

func (protectAir) Protected(m world.Material) bool { return m == world.Air || m == "BEDROCK" }

type markSet map[world.Coord]bool

func (m markSet) Marked(c world.Coord) bool { return m[c] }

type allowAll struct{}

func (allowAll) EffectAllowed(world.Coord) bool { return true }

func stoneCube(t *testing.T, half int) (*world.BlockStore, world.Coord) {
	t.Helper()
	s := world.NewBlockStore(0, 128)
	origin := world.Coord{World: "mine", X: 0, Y: 64, Z: 0}
	s.Fill(origin.Add(-half, -half, -half), origin.Add(half, half, half), "STONE")
	return s, origin
}

func TestSphereRadiusTwoExcludingOrigin(t *testing.T) {
	blocks, origin := stoneCube(t, 4)
	pred := NewMutability(blocks, protectAir{}, markSet{}, allowAll{})

	got := Scan(origin, Sphere{Radius: 2}, pred)

	assert.Len(t, got, 32, "33 lattice points within radius 2, minus the origin")
	assert.NotContains(t, got, origin)

	withOrigin := Scan(origin, Sphere{Radius: 2, IncludeOrigin: true}, pred)
	assert.Len(t, withOrigin, 33)
}

func TestScansStayInsideShapeAndSatisfyPredicate(t *testing.T) {
	blocks, origin := stoneCube(t, 6)
	marks := markSet{origin.Add(1, 0, 0): true}
	require.NoError(t, blocks.SetBlock(origin.Add(0, 1, 0), "BEDROCK"))
	pred := NewMutability(blocks, protectAir{}, marks, allowAll{})

	for r := 0; r <= 5; r++ {
		for _, c := range Scan(origin, Sphere{Radius: r, IncludeOrigin: true}, pred) {
			dx, dy, dz := c.X-origin.X, c.Y-origin.Y, c.Z-origin.Z
			assert.LessOrEqual(t, dx*dx+dy*dy+dz*dz, r*r)
			assert.True(t, pred.Mutable(c))
		}
		for _, c := range Scan(origin, Cylinder{Radius: r, HalfHeight: 2}, pred) {
			dx, dy, dz := c.X-origin.X, c.Y-origin.Y, c.Z-origin.Z
			assert.LessOrEqual(t, dx*dx+dz*dz, r*r)
			assert.LessOrEqual(t, dy*dy, 4)
			assert.True(t, pred.Mutable(c))
		}
	}
}

func TestScanOrderIsTopDownThenRowMajor(t *testing.T) {
	blocks, origin := stoneCube(t, 3)
	pred := NewMutability(blocks, protectAir{}, nil, nil)

	got := Scan(origin, Cylinder{Radius: 1, HalfHeight: 1}, pred)
	require.Len(t, got, 15)
	assert.Equal(t, origin.Add(-1, 1, 0), got[0])
	assert.Equal(t, origin.Add(0, 1, -1), got[1])
	assert.Equal(t, origin.Add(1, -1, 0), got[14])

	assert.Equal(t, got, Scan(origin, Cylinder{Radius: 1, HalfHeight: 1}, pred), "deterministic")
}

func TestNegativeRadiusAndEmptyWorld(t *testing.T) {
	blocks := world.NewBlockStore(0, 128)
	pred := NewMutability(blocks, protectAir{}, nil, nil)
	origin := world.Coord{World: "mine", Y: 10}

	assert.Empty(t, Scan(origin, Sphere{Radius: -1}, pred))
	assert.Empty(t, Scan(origin, Sphere{Radius: 3}, pred), "all air")
}

func TestTopSurfaceFindsFirstSolidPerColumn(t *testing.T) {
	blocks := world.NewBlockStore(0, 128)
	origin := world.Coord{World: "mine", X: 0, Y: 70, Z: 0}
	blocks.Fill(world.Coord{World: "mine", X: -1, Y: 50, Z: -1}, world.Coord{World: "mine", X: 1, Y: 60, Z: 1}, "STONE")
	require.NoError(t, blocks.SetBlock(world.Coord{World: "mine", X: 0, Y: 62, Z: 0}, "DIRT"))
	pred := NewMutability(blocks, protectAir{}, nil, nil)

	got := Scan(origin, TopSurface{Radius: 1, Top: 80, Bottom: 40}, pred)

	require.Len(t, got, 5)
	for _, c := range got {
		if c.X == 0 && c.Z == 0 {
			assert.Equal(t, 62, c.Y)
		} else {
			assert.Equal(t, 60, c.Y)
		}
	}
}

func TestRegionLayerDeduplicatesOverlappingBounds(t *testing.T) {
	blocks, origin := stoneCube(t, 5)
	pred := NewMutability(blocks, protectAir{}, nil, nil)
	a := region.NewBounds(world.Coord{World: "mine", X: -2, Y: 0, Z: -2}, world.Coord{World: "mine", X: 1, Y: 100, Z: 1})
	b := region.NewBounds(world.Coord{World: "mine", X: 0, Y: 0, Z: 0}, world.Coord{World: "mine", X: 2, Y: 100, Z: 2})
	elsewhere := region.NewBounds(world.Coord{World: "lobby", X: 0, Y: 0, Z: 0}, world.Coord{World: "lobby", X: 2, Y: 100, Z: 2})

	got := Scan(origin, RegionLayer{Y: origin.Y, Bounds: []region.Bounds{a, b, elsewhere}}, pred)

	assert.Len(t, got, 16+9-4)
	for _, c := range got {
		assert.Equal(t, origin.Y, c.Y)
	}
}

func TestExtraPredicate(t *testing.T) {
	blocks, origin := stoneCube(t, 2)
	require.NoError(t, blocks.SetBlock(origin.Add(1, 0, 0), "GOLD_ORE"))
	pred := NewMutability(blocks, protectAir{}, nil, nil)

	got := Scan(origin, Sphere{Radius: 2}, pred, Matching(blocks, "GOLD_ORE"))
	assert.Equal(t, []world.Coord{origin.Add(1, 0, 0)}, got)
}
