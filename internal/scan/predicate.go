package scan

import "github.com/prisonforge/server/internal/world"

// Predicate decides whether a coordinate may be affected. Implementations
// must be side-effect free: scanners call them once per candidate.
type Predicate interface {
	Mutable(c world.Coord) bool
}

// PredicateFunc adapts a function to Predicate.
type PredicateFunc func(world.Coord) bool

func (f PredicateFunc) Mutable(c world.Coord) bool { return f(c) }

// BlockReader reads the current material of a block.
type BlockReader interface {
	Block(c world.Coord) world.Material
}

// MaterialPolicy knows which materials are never affected.
type MaterialPolicy interface {
	Protected(m world.Material) bool
}

// Reservations reports coordinates currently held by an in-flight activation.
type Reservations interface {
	Marked(c world.Coord) bool
}

// PermissionOracle decides where effects are allowed.
type PermissionOracle interface {
	EffectAllowed(c world.Coord) bool
}

// Mutability is the composite legality check: material denylist, then
// processing marks, then region permission (the most expensive, last).
type Mutability struct {
	blocks    BlockReader
	materials MaterialPolicy
	marks     Reservations
	regions   PermissionOracle
}

func NewMutability(blocks BlockReader, materials MaterialPolicy, marks Reservations, regions PermissionOracle) *Mutability {
	return &Mutability{blocks: blocks, materials: materials, marks: marks, regions: regions}
}

func (m *Mutability) Mutable(c world.Coord) bool {
	if m.materials.Protected(m.blocks.Block(c)) {
		return false
	}
	if m.marks != nil && m.marks.Marked(c) {
		return false
	}
	return m.regions == nil || m.regions.EffectAllowed(c)
}

// Matching accepts only blocks currently holding material m.
func Matching(blocks BlockReader, m world.Material) Predicate {
	return PredicateFunc(func(c world.Coord) bool { return blocks.Block(c) == m })
}
