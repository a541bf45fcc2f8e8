package ability

import (
	"github.com/prisonforge/server/internal/scan"
	"github.com/prisonforge/server/internal/world"
)

// Burst fires BurstCount small spheres spaced along a direction, one every
// BurstIntervalTicks. Each sub-burst runs its own batch; the parent stops
// spawning at the configured count whether or not earlier ones finished.
type Burst struct {
	act      *Activation
	rt       *runtime
	start    world.Vec3
	world    string
	dir      world.Vec3
	spawned  int
	cooldown int
	children []*Batch
	onDone   func(*Activation)
	onAbort  func(*Activation, string)
}

func newBurst(act *Activation, rt *runtime, facing world.Vec3, onDone func(*Activation), onAbort func(*Activation, string)) *Burst {
	dir := world.Vec3{X: facing.X, Z: facing.Z}.Normalize()
	if dir.Len() == 0 {
		dir = world.Vec3{Z: 1}
	}
	return &Burst{
		act:     act,
		rt:      rt,
		start:   act.Origin.Center(),
		world:   act.Origin.World,
		dir:     dir,
		onDone:  onDone,
		onAbort: onAbort,
	}
}

func (b *Burst) Activation() *Activation { return b.act }

// Spawned returns how many sub-bursts have fired.
func (b *Burst) Spawned() int { return b.spawned }

// Running returns how many sub-bursts are still processing.
func (b *Burst) Running() int { return len(b.children) }

func (b *Burst) Advance(now uint64) bool {
	if b.act.State.Terminal() {
		return true
	}
	if !b.rt.players.Online(b.act.Actor) {
		b.Abort("actor offline")
		return true
	}

	if b.spawned < b.act.Settings.BurstCount {
		if b.cooldown > 0 {
			b.cooldown--
		} else {
			b.spawn(now)
			b.cooldown = max(b.act.Settings.BurstIntervalTicks-1, 0)
		}
	}

	live := b.children[:0]
	for _, child := range b.children {
		if !child.Advance(now) {
			live = append(live, child)
		}
	}
	b.children = live

	if b.spawned < b.act.Settings.BurstCount || len(b.children) > 0 {
		return false
	}
	b.act.State = StateDone
	if b.onDone != nil {
		b.onDone(b.act)
	}
	return true
}

func (b *Burst) spawn(now uint64) {
	s := &b.act.Settings
	b.spawned++
	step := float64(s.BurstSpacing * b.spawned)
	center := b.start.Add(b.dir.Scale(step)).Block(b.world)

	sub := b.act.child(center, now)
	sub.Enqueue(scan.Scan(center, scan.Sphere{Radius: s.Radius, IncludeOrigin: true}, b.rt.pred)...)
	b.rt.presenter.Particle(center, "explosion", 1)
	b.children = append(b.children, newBatch(sub, b.rt, b.absorb, nil))
}

// absorb folds a finished sub-burst's totals into the parent.
func (b *Burst) absorb(sub *Activation) {
	t := &b.act.Totals
	t.Processed += sub.Totals.Processed
	t.Sold += sub.Totals.Sold
	t.Collected += sub.Totals.Collected
	t.Counted += sub.Totals.Counted
	t.Ignored += sub.Totals.Ignored
	t.Failed += sub.Totals.Failed
	t.Value += sub.Totals.Value
	t.Items += sub.Totals.Items
}

// Abort stops spawning and aborts every running sub-burst.
func (b *Burst) Abort(reason string) {
	if b.act.State.Terminal() {
		return
	}
	for _, child := range b.children {
		child.Abort(reason)
	}
	b.children = nil
	b.act.State = StateAborted
	b.act.drain()
	if b.onAbort != nil {
		b.onAbort(b.act, reason)
	}
}
