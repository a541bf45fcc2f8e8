package ability

import (
	"sort"

	"github.com/oklog/ulid/v2"

	"github.com/prisonforge/server/internal/world"
)

type registryKey struct {
	actor world.ActorID
	kind  Kind
}

// Registry records which exclusive activations are running, one per
// (actor, kind). Its methods are the only mutation points; state machines
// hold a reference and re-check membership every tick.
type Registry struct {
	active map[registryKey]ulid.ULID
}

func NewRegistry() *Registry {
	return &Registry{active: make(map[registryKey]ulid.ULID)}
}

// TryAcquire claims (actor, kind) for activation id. Returns false if the
// slot is held by any activation.
func (r *Registry) TryAcquire(actor world.ActorID, kind Kind, id ulid.ULID) bool {
	k := registryKey{actor, kind}
	if _, held := r.active[k]; held {
		return false
	}
	r.active[k] = id
	return true
}

// Release frees (actor, kind) only if id still holds it.
func (r *Registry) Release(actor world.ActorID, kind Kind, id ulid.ULID) bool {
	k := registryKey{actor, kind}
	if cur, ok := r.active[k]; !ok || cur != id {
		return false
	}
	delete(r.active, k)
	return true
}

// Remove frees (actor, kind) regardless of holder. The holding state
// machine notices on its next tick and aborts.
func (r *Registry) Remove(actor world.ActorID, kind Kind) bool {
	k := registryKey{actor, kind}
	if _, ok := r.active[k]; !ok {
		return false
	}
	delete(r.active, k)
	return true
}

// RemoveActor frees every slot held by actor.
func (r *Registry) RemoveActor(actor world.ActorID) int {
	n := 0
	for k := range r.active {
		if k.actor == actor {
			delete(r.active, k)
			n++
		}
	}
	return n
}

// Holds reports whether id is the current holder of (actor, kind).
func (r *Registry) Holds(actor world.ActorID, kind Kind, id ulid.ULID) bool {
	cur, ok := r.active[registryKey{actor, kind}]
	return ok && cur == id
}

// Active reports whether any activation holds (actor, kind).
func (r *Registry) Active(actor world.ActorID, kind Kind) bool {
	_, ok := r.active[registryKey{actor, kind}]
	return ok
}

// Kinds returns the kinds actor currently holds, sorted.
func (r *Registry) Kinds(actor world.ActorID) []Kind {
	var out []Kind
	for k := range r.active {
		if k.actor == actor {
			out = append(out, k.kind)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (r *Registry) Len() int { return len(r.active) }
