package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/prisonforge/server/internal/world"
)

// DropEntry is one item stack a broken block yields.
type DropEntry struct {
	Item  string `yaml:"item"`
	Count int    `yaml:"count"`
}

// MaterialDef describes how area effects treat one block material.
type MaterialDef struct {
	ID        string      `yaml:"id"`
	Price     float64     `yaml:"price"`     // sell value per dropped item (0 = unsellable)
	Protected bool        `yaml:"protected"` // never affected by abilities (bedrock, chests, signs)
	Drops     []DropEntry `yaml:"drops"`     // empty = drops itself once
}

type materialListFile struct {
	Materials []MaterialDef `yaml:"materials"`
}

// MaterialTable holds material definitions indexed by id.
type MaterialTable struct {
	defs map[world.Material]*MaterialDef
}

// NewMaterialTable builds a table from definitions. Later duplicates win.
func NewMaterialTable(defs []MaterialDef) *MaterialTable {
	t := &MaterialTable{defs: make(map[world.Material]*MaterialDef, len(defs))}
	for i := range defs {
		d := defs[i]
		t.defs[world.Material(d.ID)] = &d
	}
	return t
}

// Get returns a definition, or nil if the material is unknown.
func (t *MaterialTable) Get(m world.Material) *MaterialDef {
	return t.defs[m]
}

// Count returns the number of materials loaded.
func (t *MaterialTable) Count() int {
	return len(t.defs)
}

// Protected reports whether m is on the denylist. Air is always protected:
// there is nothing to affect.
func (t *MaterialTable) Protected(m world.Material) bool {
	if m == world.Air || m == "" {
		return true
	}
	d := t.defs[m]
	return d != nil && d.Protected
}

// SellPrice returns the per-item sale value of a material's drops.
func (t *MaterialTable) SellPrice(m world.Material) (float64, bool) {
	d := t.defs[m]
	if d == nil || d.Price <= 0 {
		return 0, false
	}
	return d.Price, true
}

// Drops returns the item stacks breaking m yields.
func (t *MaterialTable) Drops(m world.Material) []world.ItemStack {
	d := t.defs[m]
	if d == nil || len(d.Drops) == 0 {
		return []world.ItemStack{{Item: m, Count: 1}}
	}
	out := make([]world.ItemStack, 0, len(d.Drops))
	for _, e := range d.Drops {
		if e.Count <= 0 {
			continue
		}
		out = append(out, world.ItemStack{Item: world.Material(e.Item), Count: e.Count})
	}
	return out
}

// LoadMaterialTable loads material data from a YAML file.
func LoadMaterialTable(path string) (*MaterialTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read material_list: %w", err)
	}
	var f materialListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse material_list: %w", err)
	}
	for i, d := range f.Materials {
		if d.ID == "" {
			return nil, fmt.Errorf("parse material_list: entry %d has empty id", i)
		}
		if d.Price < 0 {
			return nil, fmt.Errorf("parse material_list: %s has negative price", d.ID)
		}
	}
	return NewMaterialTable(f.Materials), nil
}
