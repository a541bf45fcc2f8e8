package packet

import "github.com/prisonforge/server/internal/world"

// WriteCoord writes a block coordinate as S world, D x, D y, D z.
func (w *Writer) WriteCoord(c world.Coord) {
	w.WriteS(c.World)
	w.WriteD(int32(c.X))
	w.WriteD(int32(c.Y))
	w.WriteD(int32(c.Z))
}

// WriteVec writes three doubles.
func (w *Writer) WriteVec(v world.Vec3) {
	w.WriteF(v.X)
	w.WriteF(v.Y)
	w.WriteF(v.Z)
}

// WriteAudience writes a player count followed by their ids.
func (w *Writer) WriteAudience(ids []world.ActorID) {
	w.WriteH(uint16(len(ids)))
	for _, id := range ids {
		w.WriteQ(uint64(id))
	}
}

func (r *Reader) ReadCoord() world.Coord {
	name := r.ReadS()
	x := r.ReadD()
	y := r.ReadD()
	z := r.ReadD()
	return world.Coord{World: name, X: int(x), Y: int(y), Z: int(z)}
}

func (r *Reader) ReadVec() world.Vec3 {
	x := r.ReadF()
	y := r.ReadF()
	z := r.ReadF()
	return world.Vec3{X: x, Y: y, Z: z}
}

func (r *Reader) ReadAudience() []world.ActorID {
	n := int(r.ReadH())
	if n > r.Remaining()/8 {
		r.short = true
		return nil
	}
	ids := make([]world.ActorID, n)
	for i := range ids {
		ids[i] = world.ActorID(r.ReadQ())
	}
	return ids
}
