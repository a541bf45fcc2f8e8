package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flight struct{ progress float64 }

func TestWorldDestroyIsIdempotent(t *testing.T) {
	w := NewWorld()
	store := NewStore[flight](4)
	w.Registry().Register(store)

	var destroyed []EntityID
	w.Registry().OnDestroy(func(id EntityID) { destroyed = append(destroyed, id) })

	id := w.CreateEntity()
	require.False(t, id.IsZero())
	store.Attach(id, &flight{})
	assert.Equal(t, 1, w.Live())

	w.MarkForDestruction(id)
	w.MarkForDestruction(id)
	w.Destroy(id)
	w.FlushDestroyQueue()

	assert.Equal(t, []EntityID{id}, destroyed)
	assert.False(t, store.Carries(id))
	assert.Zero(t, w.Live())
}

func TestEntityPoolReusesIndexWithNewGeneration(t *testing.T) {
	p := NewEntityPool()
	a := p.Create()
	require.True(t, p.Destroy(a))
	assert.False(t, p.Destroy(a), "stale id")

	b := p.Create()
	assert.Equal(t, a.Index(), b.Index())
	assert.NotEqual(t, a.Generation(), b.Generation())
	assert.False(t, p.Alive(a))
	assert.True(t, p.Alive(b))
}
