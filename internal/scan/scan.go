// Package scan enumerates candidate block coordinates for area effects.
//
// Every shape visits candidates in a fixed order (top layer first, then x,
// then z) and silently drops coordinates the predicate rejects. An empty
// result is a normal outcome.
package scan

import (
	"github.com/prisonforge/server/internal/region"
	"github.com/prisonforge/server/internal/world"
)

// Shape produces candidate coordinates around an origin.
type Shape interface {
	collect(origin world.Coord, ok func(world.Coord) bool, out []world.Coord) []world.Coord
}

// Scan returns every coordinate of shape around origin accepted by pred and
// all extra predicates.
func Scan(origin world.Coord, shape Shape, pred Predicate, extra ...Predicate) []world.Coord {
	ok := func(c world.Coord) bool {
		if pred != nil && !pred.Mutable(c) {
			return false
		}
		for _, p := range extra {
			if p != nil && !p.Mutable(c) {
				return false
			}
		}
		return true
	}
	return shape.collect(origin, ok, nil)
}

// Sphere is a filled ball of integer offsets with dx²+dy²+dz² ≤ r².
type Sphere struct {
	Radius        int
	IncludeOrigin bool
}

func (s Sphere) collect(o world.Coord, ok func(world.Coord) bool, out []world.Coord) []world.Coord {
	r := s.Radius
	if r < 0 {
		return out
	}
	r2 := r * r
	for dy := r; dy >= -r; dy-- {
		for dx := -r; dx <= r; dx++ {
			for dz := -r; dz <= r; dz++ {
				if dx*dx+dy*dy+dz*dz > r2 {
					continue
				}
				if dx == 0 && dy == 0 && dz == 0 && !s.IncludeOrigin {
					continue
				}
				if c := o.Add(dx, dy, dz); ok(c) {
					out = append(out, c)
				}
			}
		}
	}
	return out
}

// Cylinder is a vertical cylinder: dx²+dz² ≤ r² and |dy| ≤ HalfHeight.
type Cylinder struct {
	Radius     int
	HalfHeight int
}

func (s Cylinder) collect(o world.Coord, ok func(world.Coord) bool, out []world.Coord) []world.Coord {
	r, h := s.Radius, s.HalfHeight
	if r < 0 || h < 0 {
		return out
	}
	r2 := r * r
	for dy := h; dy >= -h; dy-- {
		for dx := -r; dx <= r; dx++ {
			for dz := -r; dz <= r; dz++ {
				if dx*dx+dz*dz > r2 {
					continue
				}
				if c := o.Add(dx, dy, dz); ok(c) {
					out = append(out, c)
				}
			}
		}
	}
	return out
}

// TopSurface picks, for every column within Radius of the origin, the first
// acceptable block scanning down from Top to Bottom (absolute heights).
// Columns are visited row-major.
type TopSurface struct {
	Radius int
	Top    int
	Bottom int
}

func (s TopSurface) collect(o world.Coord, ok func(world.Coord) bool, out []world.Coord) []world.Coord {
	r := s.Radius
	if r < 0 || s.Top < s.Bottom {
		return out
	}
	r2 := r * r
	for dx := -r; dx <= r; dx++ {
		for dz := -r; dz <= r; dz++ {
			if dx*dx+dz*dz > r2 {
				continue
			}
			for y := s.Top; y >= s.Bottom; y-- {
				c := world.Coord{World: o.World, X: o.X + dx, Y: y, Z: o.Z + dz}
				if ok(c) {
					out = append(out, c)
					break
				}
			}
		}
	}
	return out
}

// RegionLayer visits every column of each bound at height Y. Bounds in other
// worlds or not spanning Y are skipped; overlapping bounds yield each
// coordinate once.
type RegionLayer struct {
	Y      int
	Bounds []region.Bounds
}

func (s RegionLayer) collect(o world.Coord, ok func(world.Coord) bool, out []world.Coord) []world.Coord {
	seen := make(map[world.Coord]struct{})
	for _, b := range s.Bounds {
		if b.World != o.World || s.Y < b.MinY || s.Y > b.MaxY {
			continue
		}
		for x := b.MinX; x <= b.MaxX; x++ {
			for z := b.MinZ; z <= b.MaxZ; z++ {
				c := world.Coord{World: o.World, X: x, Y: s.Y, Z: z}
				if _, dup := seen[c]; dup {
					continue
				}
				seen[c] = struct{}{}
				if ok(c) {
					out = append(out, c)
				}
			}
		}
	}
	return out
}
