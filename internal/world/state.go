package world

import (
	"sort"
	"strings"
)

// PlayerInfo holds in-memory data for a player currently known to the server.
// Accessed only from the game loop goroutine, no locks needed.
type PlayerInfo struct {
	ID     ActorID
	Name   string
	World  string
	Pos    Vec3
	Facing Vec3 // unit look direction, used by line effects

	Online bool

	Inv      *Inventory
	Balances map[string]float64 // currency kind → amount
	Perms    map[string]bool

	RawBlocks int64 // blocks mined without sell/collect
}

// HasPermission reports whether the player holds node. Nodes are matched
// exactly or by a "prefix.*" wildcard grant.
func (p *PlayerInfo) HasPermission(node string) bool {
	if p.Perms[node] {
		return true
	}
	for granted, ok := range p.Perms {
		if !ok || !strings.HasSuffix(granted, ".*") {
			continue
		}
		if strings.HasPrefix(node, strings.TrimSuffix(granted, "*")) {
			return true
		}
	}
	return false
}

// Balance returns the amount held of a currency kind.
func (p *PlayerInfo) Balance(kind string) float64 {
	return p.Balances[kind]
}

// State is the process-wide world: blocks, players and ground items.
type State struct {
	Blocks *BlockStore
	Ground *GroundItems

	players map[ActorID]*PlayerInfo
	aoi     *AOIGrid
}

func NewState(blocks *BlockStore) *State {
	return &State{
		Blocks:  blocks,
		Ground:  NewGroundItems(),
		players: make(map[ActorID]*PlayerInfo),
		aoi:     NewAOIGrid(),
	}
}

// AddPlayer registers an online player.
func (s *State) AddPlayer(p *PlayerInfo) {
	if p.Inv == nil {
		p.Inv = NewInventory(DefaultInventorySlots)
	}
	if p.Balances == nil {
		p.Balances = make(map[string]float64)
	}
	if p.Perms == nil {
		p.Perms = make(map[string]bool)
	}
	p.Online = true
	s.players[p.ID] = p
	s.aoi.Add(p.ID, p.World, p.Pos)
}

// RemovePlayer marks the player offline and forgets it. Returns the removed
// player or nil.
func (s *State) RemovePlayer(id ActorID) *PlayerInfo {
	p := s.players[id]
	if p == nil {
		return nil
	}
	p.Online = false
	s.aoi.Remove(id, p.World, p.Pos)
	delete(s.players, id)
	return p
}

// Get returns a player or nil.
func (s *State) Get(id ActorID) *PlayerInfo {
	return s.players[id]
}

// Online reports whether the actor is currently reachable.
func (s *State) Online(id ActorID) bool {
	p := s.players[id]
	return p != nil && p.Online
}

// Position returns the current position and world of an online player.
func (s *State) Position(id ActorID) (Vec3, string, bool) {
	p := s.players[id]
	if p == nil || !p.Online {
		return Vec3{}, "", false
	}
	return p.Pos, p.World, true
}

// MovePlayer updates a player's position and AOI cell.
func (s *State) MovePlayer(id ActorID, world string, pos Vec3) {
	p := s.players[id]
	if p == nil {
		return
	}
	s.aoi.Move(id, p.World, p.Pos, world, pos)
	p.World = world
	p.Pos = pos
}

// NearbyPlayers returns online players within radius blocks of c, ascending by id.
func (s *State) NearbyPlayers(c Coord, radius float64) []*PlayerInfo {
	center := c.Center()
	var out []*PlayerInfo
	for _, id := range s.aoi.GetNearby(c) {
		p := s.players[id]
		if p == nil || !p.Online || p.World != c.World {
			continue
		}
		if p.Pos.Sub(center).Len() <= radius {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// TryAddItems adds stacks to an online player's inventory and returns what
// did not fit. An unknown or offline player receives nothing.
func (s *State) TryAddItems(id ActorID, stacks []ItemStack) []ItemStack {
	p := s.players[id]
	if p == nil || !p.Online {
		return stacks
	}
	return p.Inv.AddAll(stacks)
}
