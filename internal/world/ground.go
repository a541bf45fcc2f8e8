package world

import "sort"

// DefaultGroundTTL is how long spilled items stay on the ground, in ticks
// (5 minutes at 20 ticks per second).
const DefaultGroundTTL = 6000

// GroundItem is an item stack lying in the world, usually inventory
// overflow spilled by an ability. Not persisted.
type GroundItem struct {
	ID    int64
	Stack ItemStack
	At    Coord
	Owner ActorID // 0 = anyone can pick up
	TTL   int     // ticks remaining until auto-delete (0 = permanent)
}

// GroundItems tracks spilled item stacks.
type GroundItems struct {
	items  map[int64]*GroundItem
	nextID int64
}

func NewGroundItems() *GroundItems {
	return &GroundItems{items: make(map[int64]*GroundItem)}
}

// Spill drops stacks at a coordinate on behalf of owner.
func (g *GroundItems) Spill(at Coord, owner ActorID, stacks []ItemStack) []*GroundItem {
	out := make([]*GroundItem, 0, len(stacks))
	for _, st := range stacks {
		if st.Count <= 0 {
			continue
		}
		g.nextID++
		gi := &GroundItem{ID: g.nextID, Stack: st, At: at, Owner: owner, TTL: DefaultGroundTTL}
		g.items[gi.ID] = gi
		out = append(out, gi)
	}
	return out
}

// Len returns the number of ground items.
func (g *GroundItems) Len() int { return len(g.items) }

// At returns the items lying on a coordinate, oldest first.
func (g *GroundItems) At(c Coord) []*GroundItem {
	var out []*GroundItem
	for _, gi := range g.items {
		if gi.At == c {
			out = append(out, gi)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Tick decrements TTLs and removes expired items, returning them.
func (g *GroundItems) Tick() []*GroundItem {
	var expired []*GroundItem
	for id, gi := range g.items {
		if gi.TTL <= 0 {
			continue
		}
		gi.TTL--
		if gi.TTL == 0 {
			expired = append(expired, gi)
			delete(g.items, id)
		}
	}
	return expired
}
