package world

import "math"

// AOIGrid implements a cell-based Area of Interest system over the x/z plane.
// Cell size is chosen so that a 3x3 neighbourhood of cells fully covers
// the effect broadcast range (48 blocks).
// Accessed only from the game loop goroutine, no locks.

const cellSize = 48

type cellKey struct {
	world string
	cx    int
	cz    int
}

// AOIGrid tracks which actors are in which cells.
type AOIGrid struct {
	cells map[cellKey]map[ActorID]struct{}
}

func NewAOIGrid() *AOIGrid {
	return &AOIGrid{
		cells: make(map[cellKey]map[ActorID]struct{}),
	}
}

func (g *AOIGrid) key(world string, x, z float64) cellKey {
	return cellKey{world: world, cx: floorDiv(int(math.Floor(x)), cellSize), cz: floorDiv(int(math.Floor(z)), cellSize)}
}

// Add places an actor into the grid.
func (g *AOIGrid) Add(id ActorID, world string, pos Vec3) {
	k := g.key(world, pos.X, pos.Z)
	cell := g.cells[k]
	if cell == nil {
		cell = make(map[ActorID]struct{})
		g.cells[k] = cell
	}
	cell[id] = struct{}{}
}

// Remove takes an actor out of the grid.
func (g *AOIGrid) Remove(id ActorID, world string, pos Vec3) {
	k := g.key(world, pos.X, pos.Z)
	cell := g.cells[k]
	if cell != nil {
		delete(cell, id)
		if len(cell) == 0 {
			delete(g.cells, k)
		}
	}
}

// Move updates an actor's cell when its position changes.
func (g *AOIGrid) Move(id ActorID, oldWorld string, oldPos Vec3, newWorld string, newPos Vec3) {
	if g.key(oldWorld, oldPos.X, oldPos.Z) == g.key(newWorld, newPos.X, newPos.Z) {
		return
	}
	g.Remove(id, oldWorld, oldPos)
	g.Add(id, newWorld, newPos)
}

// GetNearby returns all actors in a 3x3 neighbourhood of cells around the
// block. Caller does fine-grained distance filtering.
func (g *AOIGrid) GetNearby(c Coord) []ActorID {
	center := g.key(c.World, float64(c.X), float64(c.Z))
	var result []ActorID
	for dx := -1; dx <= 1; dx++ {
		for dz := -1; dz <= 1; dz++ {
			k := cellKey{world: c.World, cx: center.cx + dx, cz: center.cz + dz}
			for id := range g.cells[k] {
				result = append(result, id)
			}
		}
	}
	return result
}
