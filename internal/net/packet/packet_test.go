package packet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/prisonforge/server/internal/world"
)

func TestWriterReaderFields(t *testing.T) {
	w := NewWriterWithOpcode(S_OPCODE_PARTICLE)
	w.WriteAudience([]world.ActorID{3, 9})
	w.WriteCoord(world.Coord{World: "mine", X: -4, Y: 60, Z: 12})
	w.WriteS("explosion")
	w.WriteH(40)
	w.WriteF(-0.25)
	w.WriteBool(true)

	r := NewReader(w.Bytes())
	assert.Equal(t, S_OPCODE_PARTICLE, r.Opcode())
	assert.Equal(t, []world.ActorID{3, 9}, r.ReadAudience())
	assert.Equal(t, world.Coord{World: "mine", X: -4, Y: 60, Z: 12}, r.ReadCoord())
	assert.Equal(t, "explosion", r.ReadS())
	assert.Equal(t, uint16(40), r.ReadH())
	assert.Equal(t, -0.25, r.ReadF())
	assert.True(t, r.ReadBool())
	assert.Zero(t, r.Remaining())
	assert.False(t, r.Short())
}

func TestWriteSDropsEmbeddedNul(t *testing.T) {
	w := NewWriter()
	w.WriteS("a\x00b")
	assert.Equal(t, []byte{'a', 'b', 0}, w.Bytes())
}

func TestReaderPastEndIsShort(t *testing.T) {
	r := NewReader([]byte{C_OPCODE_QUIT, 1, 2})
	assert.Zero(t, r.ReadQ())
	assert.True(t, r.Short())

	r = NewReader([]byte{C_OPCODE_ABILITY, 'n', 'u'})
	assert.Equal(t, "nu", r.ReadS())
	assert.True(t, r.Short())

	r = NewReader([]byte{S_OPCODE_SOUND, 0xFF, 0x00})
	assert.Nil(t, r.ReadAudience(), "count larger than the frame")
	assert.True(t, r.Short())
}

func TestRegistryDispatch(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	var got []uint64
	reg.Register(C_OPCODE_QUIT, []SessionState{StateReady}, func(_ any, r *Reader) {
		got = append(got, r.ReadQ())
	})
	reg.Register(C_OPCODE_DISABLE, []SessionState{StateReady}, func(any, *Reader) {
		panic("boom")
	})

	quit := NewWriterWithOpcode(C_OPCODE_QUIT)
	quit.WriteQ(42)

	require.NoError(t, reg.Dispatch(nil, StateReady, quit.Bytes()))
	assert.Equal(t, []uint64{42}, got)

	err := reg.Dispatch(nil, StateHandshake, quit.Bytes())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not allowed")

	assert.NoError(t, reg.Dispatch(nil, StateReady, []byte{0xEE}), "unknown opcodes are ignored")
	assert.Error(t, reg.Dispatch(nil, StateReady, nil))

	err = reg.Dispatch(nil, StateReady, []byte{C_OPCODE_DISABLE})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic")

	err = reg.Dispatch(nil, StateReady, []byte{C_OPCODE_QUIT, 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "truncated C_QUIT")
}
