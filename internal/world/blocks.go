package world

import (
	"errors"
	"fmt"
)

// ErrOutOfBounds is returned when writing outside the store's height range.
var ErrOutOfBounds = errors.New("coordinate out of bounds")

const chunkSize = 16

type chunkKey struct {
	world  string
	cx, cz int
}

// section is one 16x16x16 cube of palette indices. Index 0 is always Air.
type section [chunkSize * chunkSize * chunkSize]uint16

type chunk struct {
	sections map[int]*section
}

// BlockStore is a sparse chunked block store. Unwritten blocks read as Air.
// Accessed only from the game loop goroutine, no locks.
type BlockStore struct {
	minY, maxY int
	palette    []Material
	index      map[Material]uint16
	chunks     map[chunkKey]*chunk
}

// NewBlockStore creates a store for heights in [minY, maxY].
func NewBlockStore(minY, maxY int) *BlockStore {
	return &BlockStore{
		minY:    minY,
		maxY:    maxY,
		palette: []Material{Air},
		index:   map[Material]uint16{Air: 0},
		chunks:  make(map[chunkKey]*chunk),
	}
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

func (s *BlockStore) MinY() int { return s.minY }
func (s *BlockStore) MaxY() int { return s.maxY }

func (s *BlockStore) InBounds(c Coord) bool {
	return c.Y >= s.minY && c.Y <= s.maxY
}

func (s *BlockStore) locate(c Coord) (chunkKey, int, int) {
	k := chunkKey{world: c.World, cx: floorDiv(c.X, chunkSize), cz: floorDiv(c.Z, chunkSize)}
	sy := floorDiv(c.Y, chunkSize)
	i := mod(c.X, chunkSize) + mod(c.Z, chunkSize)*chunkSize + mod(c.Y, chunkSize)*chunkSize*chunkSize
	return k, sy, i
}

// Block returns the material at c.
func (s *BlockStore) Block(c Coord) Material {
	if !s.InBounds(c) {
		return Air
	}
	k, sy, i := s.locate(c)
	ch := s.chunks[k]
	if ch == nil {
		return Air
	}
	sec := ch.sections[sy]
	if sec == nil {
		return Air
	}
	return s.palette[sec[i]]
}

// SetBlock writes m at c.
func (s *BlockStore) SetBlock(c Coord, m Material) error {
	if !s.InBounds(c) {
		return fmt.Errorf("set %s: %w", c, ErrOutOfBounds)
	}
	if m == "" {
		m = Air
	}
	id, ok := s.index[m]
	if !ok {
		id = uint16(len(s.palette))
		s.palette = append(s.palette, m)
		s.index[m] = id
	}
	k, sy, i := s.locate(c)
	ch := s.chunks[k]
	if ch == nil {
		if id == 0 {
			return nil
		}
		ch = &chunk{sections: make(map[int]*section)}
		s.chunks[k] = ch
	}
	sec := ch.sections[sy]
	if sec == nil {
		if id == 0 {
			return nil
		}
		sec = new(section)
		ch.sections[sy] = sec
	}
	sec[i] = id
	return nil
}

// Fill writes m into every block of the inclusive box [from, to].
// Both corners must be in the same world. Returns the number of blocks written.
func (s *BlockStore) Fill(from, to Coord, m Material) int {
	x0, x1 := minmax(from.X, to.X)
	y0, y1 := minmax(from.Y, to.Y)
	z0, z1 := minmax(from.Z, to.Z)
	n := 0
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			for z := z0; z <= z1; z++ {
				if s.SetBlock(Coord{World: from.World, X: x, Y: y, Z: z}, m) == nil {
					n++
				}
			}
		}
	}
	return n
}

func minmax(a, b int) (int, int) {
	if a > b {
		return b, a
	}
	return a, b
}
