// Package region implements the permission oracle that decides where area
// effects may mutate blocks. Regions are axis-aligned boxes loaded from YAML;
// where regions overlap, the highest priority wins.
package region

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/prisonforge/server/internal/world"
)

// Bounds is an inclusive axis-aligned box in one world.
type Bounds struct {
	World            string
	MinX, MinY, MinZ int
	MaxX, MaxY, MaxZ int
}

// NewBounds normalizes two corners into Bounds.
func NewBounds(a, b world.Coord) Bounds {
	return Bounds{
		World: a.World,
		MinX:  min(a.X, b.X),
		MinY:  min(a.Y, b.Y),
		MinZ:  min(a.Z, b.Z),
		MaxX:  max(a.X, b.X),
		MaxY:  max(a.Y, b.Y),
		MaxZ:  max(a.Z, b.Z),
	}
}

func (b Bounds) Contains(c world.Coord) bool {
	return c.World == b.World &&
		c.X >= b.MinX && c.X <= b.MaxX &&
		c.Y >= b.MinY && c.Y <= b.MaxY &&
		c.Z >= b.MinZ && c.Z <= b.MaxZ
}

// Flags are the per-region permission flags relevant to abilities.
type Flags struct {
	AllowAbilities bool `yaml:"allow_abilities"`
	AllowBreak     bool `yaml:"allow_break"`
}

// Region is a named protected area.
type Region struct {
	ID       string
	Priority int
	Bounds   Bounds
	Flags    Flags
}

func (r *Region) allowsEffects() bool {
	return r.Flags.AllowAbilities && r.Flags.AllowBreak
}

// Oracle answers permission queries. Accessed only from the game loop.
type Oracle struct {
	regions      []*Region // priority desc, then id asc
	defaultAllow bool
}

// NewOracle builds an oracle. defaultAllow applies to coordinates outside
// every region.
func NewOracle(regions []*Region, defaultAllow bool) *Oracle {
	sorted := append([]*Region(nil), regions...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority != sorted[j].Priority {
			return sorted[i].Priority > sorted[j].Priority
		}
		return sorted[i].ID < sorted[j].ID
	})
	return &Oracle{regions: sorted, defaultAllow: defaultAllow}
}

// Count returns the number of regions.
func (o *Oracle) Count() int { return len(o.regions) }

// EffectAllowed reports whether an area effect may mutate c.
func (o *Oracle) EffectAllowed(c world.Coord) bool {
	for _, r := range o.regions {
		if r.Bounds.Contains(c) {
			return r.allowsEffects()
		}
	}
	return o.defaultAllow
}

// BoundsContaining returns the bounds of every effect-permitting region that
// contains c, in priority order.
func (o *Oracle) BoundsContaining(c world.Coord) []Bounds {
	var out []Bounds
	for _, r := range o.regions {
		if r.Bounds.Contains(c) && r.allowsEffects() {
			out = append(out, r.Bounds)
		}
	}
	return out
}

type regionYAML struct {
	ID       string `yaml:"id"`
	World    string `yaml:"world"`
	Min      [3]int `yaml:"min"`
	Max      [3]int `yaml:"max"`
	Priority int    `yaml:"priority"`
	Flags    Flags  `yaml:"flags"`
}

type regionListFile struct {
	DefaultAllow bool         `yaml:"default_allow"`
	Regions      []regionYAML `yaml:"regions"`
}

// Load reads a region list from a YAML file.
func Load(path string) (*Oracle, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read region_list: %w", err)
	}
	var f regionListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse region_list: %w", err)
	}
	regions := make([]*Region, 0, len(f.Regions))
	seen := make(map[string]bool, len(f.Regions))
	for _, e := range f.Regions {
		if e.ID == "" || e.World == "" {
			return nil, fmt.Errorf("parse region_list: region needs id and world")
		}
		if seen[e.ID] {
			return nil, fmt.Errorf("parse region_list: duplicate region %q", e.ID)
		}
		seen[e.ID] = true
		regions = append(regions, &Region{
			ID:       e.ID,
			Priority: e.Priority,
			Flags:    e.Flags,
			Bounds: NewBounds(
				world.Coord{World: e.World, X: e.Min[0], Y: e.Min[1], Z: e.Min[2]},
				world.Coord{World: e.World, X: e.Max[0], Y: e.Max[1], Z: e.Max[2]},
			),
		})
	}
	return NewOracle(regions, f.DefaultAllow), nil
}
