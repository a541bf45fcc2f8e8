// Package presentation turns ability feedback into bridge frames for the
// host. Per-player feedback is addressed to the actor; positional effects
// carry the list of players close enough to see them.
package presentation

import (
	"go.uber.org/zap"

	"github.com/prisonforge/server/internal/ability"
	"github.com/prisonforge/server/internal/core/ecs"
	"github.com/prisonforge/server/internal/net/packet"
	"github.com/prisonforge/server/internal/world"
)

// Outbox delivers encoded frames to the host.
type Outbox interface {
	Broadcast(frame []byte)
}

// Audience finds the players near a coordinate.
type Audience interface {
	NearbyPlayers(c world.Coord, radius float64) []*world.PlayerInfo
}

// Hub implements ability.Presenter. Game loop only.
type Hub struct {
	out  Outbox
	near Audience
	view float64
	log  *zap.Logger

	nextBar ability.BarID
	bars    map[ability.BarID]world.ActorID
	floats  map[ecs.EntityID]struct{}
	prints  map[string]struct{}
}

func NewHub(out Outbox, near Audience, viewDistance float64, log *zap.Logger) *Hub {
	return &Hub{
		out:    out,
		near:   near,
		view:   viewDistance,
		log:    log,
		bars:   make(map[ability.BarID]world.ActorID),
		floats: make(map[ecs.EntityID]struct{}),
		prints: make(map[string]struct{}),
	}
}

// OpenBars returns the number of bars shown and not yet removed.
func (h *Hub) OpenBars() int { return len(h.bars) }

// Floating returns the number of floating blocks the host is displaying.
func (h *Hub) Floating() int { return len(h.floats) }

func (h *Hub) ShowBar(actor world.ActorID, title string, progress float64) ability.BarID {
	h.nextBar++
	id := h.nextBar
	h.bars[id] = actor

	w := packet.NewWriterWithOpcode(packet.S_OPCODE_BAR_SHOW)
	w.WriteQ(uint64(id))
	w.WriteQ(uint64(actor))
	w.WriteS(title)
	w.WriteF(clamp01(progress))
	h.out.Broadcast(w.Bytes())
	return id
}

func (h *Hub) UpdateBar(id ability.BarID, title string, progress float64) {
	if _, ok := h.bars[id]; !ok {
		h.log.Debug("update for unknown bar", zap.Uint64("bar", uint64(id)))
		return
	}
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_BAR_UPDATE)
	w.WriteQ(uint64(id))
	w.WriteS(title)
	w.WriteF(clamp01(progress))
	h.out.Broadcast(w.Bytes())
}

func (h *Hub) RemoveBar(id ability.BarID) {
	if _, ok := h.bars[id]; !ok {
		return
	}
	delete(h.bars, id)
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_BAR_REMOVE)
	w.WriteQ(uint64(id))
	h.out.Broadcast(w.Bytes())
}

func (h *Hub) Title(actor world.ActorID, title, subtitle string) {
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_TITLE)
	w.WriteQ(uint64(actor))
	w.WriteS(title)
	w.WriteS(subtitle)
	h.out.Broadcast(w.Bytes())
}

func (h *Hub) Message(actor world.ActorID, text string) {
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_MESSAGE)
	w.WriteQ(uint64(actor))
	w.WriteS(text)
	h.out.Broadcast(w.Bytes())
}

// Sound plays at a block for everyone within view distance. Nothing is sent
// when nobody is close enough to hear it.
func (h *Hub) Sound(at world.Coord, sound string) {
	ids := h.audience(at)
	if len(ids) == 0 {
		return
	}
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_SOUND)
	w.WriteAudience(ids)
	w.WriteCoord(at)
	w.WriteS(sound)
	h.out.Broadcast(w.Bytes())
}

func (h *Hub) Particle(at world.Coord, particle string, count int) {
	ids := h.audience(at)
	if len(ids) == 0 {
		return
	}
	if count < 1 {
		count = 1
	}
	if count > 0xFFFF {
		count = 0xFFFF
	}
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_PARTICLE)
	w.WriteAudience(ids)
	w.WriteCoord(at)
	w.WriteS(particle)
	w.WriteH(uint16(count))
	h.out.Broadcast(w.Bytes())
}

func (h *Hub) SpawnFloating(id ecs.EntityID, m world.Material, from world.Coord) {
	h.floats[id] = struct{}{}
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_FLOAT_SPAWN)
	w.WriteQ(uint64(id))
	w.WriteCoord(from)
	w.WriteS(string(m))
	h.out.Broadcast(w.Bytes())
}

func (h *Hub) MoveFloating(id ecs.EntityID, at world.Vec3, yaw float64) {
	if _, ok := h.floats[id]; !ok {
		return
	}
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_FLOAT_MOVE)
	w.WriteQ(uint64(id))
	w.WriteVec(at)
	w.WriteF(yaw)
	h.out.Broadcast(w.Bytes())
}

func (h *Hub) RemoveFloating(id ecs.EntityID) {
	if _, ok := h.floats[id]; !ok {
		return
	}
	delete(h.floats, id)
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_FLOAT_REMOVE)
	w.WriteQ(uint64(id))
	h.out.Broadcast(w.Bytes())
}

func (h *Hub) ShowFootprint(key string, center world.Coord, radius int) {
	h.prints[key] = struct{}{}
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_FOOTPRINT_SHOW)
	w.WriteS(key)
	w.WriteCoord(center)
	w.WriteD(int32(radius))
	h.out.Broadcast(w.Bytes())
}

func (h *Hub) HideFootprint(key string) {
	if _, ok := h.prints[key]; !ok {
		return
	}
	delete(h.prints, key)
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_FOOTPRINT_HIDE)
	w.WriteS(key)
	h.out.Broadcast(w.Bytes())
}

func (h *Hub) audience(at world.Coord) []world.ActorID {
	players := h.near.NearbyPlayers(at, h.view)
	ids := make([]world.ActorID, len(players))
	for i, p := range players {
		ids[i] = p.ID
	}
	return ids
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
