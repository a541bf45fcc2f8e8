package ability

import (
	"github.com/oklog/ulid/v2"

	"github.com/prisonforge/server/internal/world"
)

// Kind names an ability. Values match the [abilities.<kind>] config tables.
type Kind string

const (
	KindExplosive Kind = "explosive" // sphere around the broken block
	KindLayer     Kind = "layer"     // one y-layer of every allowed region at the origin
	KindSurface   Kind = "surface"   // top block of every column in a radius
	KindNuke      Kind = "nuke"      // countdown, then a large sphere at the actor
	KindFreeze    Kind = "freeze"    // freeze a cylinder, then shatter it
	KindBurst     Kind = "burst"     // spheres spaced along the actor's facing
	KindVortex    Kind = "vortex"    // animated collection toward a point
)

// Kinds lists every kind in proc-roll order.
var Kinds = []Kind{KindExplosive, KindLayer, KindSurface, KindBurst, KindFreeze, KindNuke, KindVortex}

// Exclusive reports whether the kind is long-running and admitted through
// the Registry. Other kinds are limited to one in-flight activation per
// (actor, kind) by a check of the running tasks.
func (k Kind) Exclusive() bool {
	return k == KindNuke || k == KindVortex
}

// Grounded reports whether a manual trigger anchors on the block the actor
// stands on instead of the air block at its feet.
func (k Kind) Grounded() bool {
	return k == KindSurface || k == KindLayer
}

// State is the lifecycle state of an Activation.
type State int

const (
	StateRunning State = iota
	StateCompleting
	StateAborted
	StateDone
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateCompleting:
		return "completing"
	case StateAborted:
		return "aborted"
	case StateDone:
		return "done"
	}
	return "unknown"
}

// Terminal reports whether no further work will happen.
func (s State) Terminal() bool { return s == StateAborted || s == StateDone }

// Totals are the running results of one activation. They only grow.
type Totals struct {
	Processed int // coordinates popped from the queue
	Sold      int
	Collected int
	Counted   int
	Ignored   int
	Failed    int

	Value float64 // sum of Result.Value
	Items int     // sum of Result.Items
}

// Add folds one pipeline result into the totals.
func (t *Totals) Add(r Result) {
	t.Processed++
	switch r.Outcome {
	case Sold:
		t.Sold++
	case Collected:
		t.Collected++
	case Counted:
		t.Counted++
	case Ignored:
		t.Ignored++
	case Failed:
		t.Failed++
	}
	t.Value += r.Value
	t.Items += r.Items
}

// Affected is the number of blocks actually mutated.
func (t Totals) Affected() int { return t.Sold + t.Collected + t.Counted }

// Activation is one firing of one ability by one actor. It is owned by the
// task that drives it and is never shared across actors.
type Activation struct {
	ID       ulid.ULID
	Actor    world.ActorID
	Kind     Kind
	Origin   world.Coord
	Settings Settings // snapshot taken at admission
	State    State
	Totals   Totals
	Started  uint64 // tick of admission

	queue []world.Coord
	head  int
	seen  map[world.Coord]struct{}
}

func newActivation(actor world.ActorID, kind Kind, origin world.Coord, s Settings, now uint64) *Activation {
	return &Activation{
		ID:       ulid.Make(),
		Actor:    actor,
		Kind:     kind,
		Origin:   origin,
		Settings: s,
		Started:  now,
		seen:     make(map[world.Coord]struct{}),
	}
}

// child creates a sub-activation that shares the parent's seen set, so a
// coordinate queued by one sub-burst is never queued again by a sibling.
func (a *Activation) child(origin world.Coord, now uint64) *Activation {
	c := newActivation(a.Actor, a.Kind, origin, a.Settings, now)
	c.seen = a.seen
	return c
}

// Enqueue appends coordinates in order, dropping any this activation has
// already queued. Returns the number accepted.
func (a *Activation) Enqueue(cs ...world.Coord) int {
	n := 0
	for _, c := range cs {
		if _, dup := a.seen[c]; dup {
			continue
		}
		a.seen[c] = struct{}{}
		a.queue = append(a.queue, c)
		n++
	}
	return n
}

// Pending returns the number of queued coordinates not yet popped.
func (a *Activation) Pending() int { return len(a.queue) - a.head }

func (a *Activation) pop() (world.Coord, bool) {
	if a.head >= len(a.queue) {
		return world.Coord{}, false
	}
	c := a.queue[a.head]
	a.head++
	if a.head == len(a.queue) {
		a.queue = a.queue[:0]
		a.head = 0
	}
	return c, true
}

func (a *Activation) drain() {
	a.queue = nil
	a.head = 0
}
