package presentation

import (
	"sort"

	"github.com/prisonforge/server/internal/net/packet"
	"github.com/prisonforge/server/internal/world"
)

// WorldSync mirrors engine-made world changes to the host. Changes the host
// reports itself go straight to the store and are not echoed back.
type WorldSync struct {
	blocks *world.BlockStore
	ground *world.GroundItems
	out    Outbox
}

func NewWorldSync(blocks *world.BlockStore, ground *world.GroundItems, out Outbox) *WorldSync {
	return &WorldSync{blocks: blocks, ground: ground, out: out}
}

func (s *WorldSync) Block(c world.Coord) world.Material {
	return s.blocks.Block(c)
}

// SetBlock writes the store and tells the host. A rejected write sends
// nothing.
func (s *WorldSync) SetBlock(c world.Coord, m world.Material) error {
	if err := s.blocks.SetBlock(c, m); err != nil {
		return err
	}
	if m == "" {
		m = world.Air
	}
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_BLOCK_SET)
	w.WriteCoord(c)
	w.WriteS(string(m))
	s.out.Broadcast(w.Bytes())
	return nil
}

// Spill drops the stacks and announces each ground item.
func (s *WorldSync) Spill(at world.Coord, owner world.ActorID, stacks []world.ItemStack) []*world.GroundItem {
	items := s.ground.Spill(at, owner, stacks)
	for _, gi := range items {
		w := packet.NewWriterWithOpcode(packet.S_OPCODE_DROP)
		w.WriteQ(uint64(gi.ID))
		w.WriteQ(uint64(gi.Owner))
		w.WriteCoord(gi.At)
		w.WriteS(string(gi.Stack.Item))
		w.WriteD(int32(gi.Stack.Count))
		s.out.Broadcast(w.Bytes())
	}
	return items
}

// ExpireGround ages the ground items by one tick and tells the host which
// ones are gone. Returns the number expired.
func (s *WorldSync) ExpireGround() int {
	expired := s.ground.Tick()
	sort.Slice(expired, func(i, j int) bool { return expired[i].ID < expired[j].ID })
	for _, gi := range expired {
		w := packet.NewWriterWithOpcode(packet.S_OPCODE_DROP_EXPIRE)
		w.WriteQ(uint64(gi.ID))
		s.out.Broadcast(w.Bytes())
	}
	return len(expired)
}
