package ability

import (
	"math"
	"math/rand"

	"github.com/prisonforge/server/internal/core/ecs"
	"github.com/prisonforge/server/internal/scan"
	"github.com/prisonforge/server/internal/world"
)

// flight is the component of one animated actor: a cosmetic block moving
// from where it was mined to the collection point.
type flight struct {
	start    world.Vec3
	target   world.Vec3
	progress float64 // 0..1, only grows
	age      int
	frames   int
	arc      float64 // peak height of the path above the straight line
	spin     float64 // total yaw turned over the flight, degrees
	result   Result
}

// position returns the eased point on the arc at the current progress.
func (f *flight) position() (world.Vec3, float64) {
	t := easeInOutCubic(f.progress)
	p := f.start.Lerp(f.target, t)
	p.Y += f.arc * math.Sin(math.Pi*t)
	return p, f.spin * t
}

func easeInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	u := -2*t + 2
	return 1 - u*u*u/2
}

// Vortex pulls blocks toward a point above the origin. Each admitted block
// is processed immediately and replaced by an animated actor; the
// activation completes when nothing is queued and nothing is in flight, or
// when MaxTicks is reached.
type Vortex struct {
	act      *Activation
	rt       *runtime
	ents     *ecs.World
	flights  *ecs.Store[flight]
	rng      *rand.Rand
	target   world.Vec3
	key      string
	inFlight []ecs.EntityID
	retiring []ecs.EntityID // arrived this tick, destroyed at cleanup
	cooldown int
	ticks    int

	footprint bool
	peak      int
	onDone    func(*Activation)
	onAbort   func(*Activation, string)
}

func newVortex(act *Activation, rt *runtime, ents *ecs.World, flights *ecs.Store[flight], seed int64, onDone func(*Activation), onAbort func(*Activation, string)) *Vortex {
	s := act.Settings
	v := &Vortex{
		act:     act,
		rt:      rt,
		ents:    ents,
		flights: flights,
		rng:     rand.New(rand.NewSource(seed)),
		target:  act.Origin.Center().Add(world.Vec3{Y: float64(s.Height + 2)}),
		key:     "vortex:" + act.ID.String(),
		onDone:  onDone,
		onAbort: onAbort,
	}
	coords := scan.Scan(act.Origin, scan.Cylinder{Radius: s.Radius, HalfHeight: s.Height}, rt.pred)
	act.Enqueue(coords...)
	return v
}

func (v *Vortex) Activation() *Activation { return v.act }

// InFlight returns the number of animated actors currently moving.
func (v *Vortex) InFlight() int { return len(v.inFlight) }

// PeakInFlight returns the highest in-flight count seen at any tick.
func (v *Vortex) PeakInFlight() int { return v.peak }

// FootprintShown reports whether the area footprint is currently displayed.
func (v *Vortex) FootprintShown() bool { return v.footprint }

func (v *Vortex) Advance(now uint64) bool {
	if v.act.State.Terminal() {
		return true
	}
	if !v.rt.players.Online(v.act.Actor) {
		v.Abort("actor offline")
		return true
	}
	if !v.rt.registry.Holds(v.act.Actor, v.act.Kind, v.act.ID) {
		v.Abort("removed from registry")
		return true
	}
	v.retiring = v.retiring[:0]
	v.ticks++

	v.showFootprint()
	v.admit(now)
	if n := len(v.inFlight); n > v.peak {
		v.peak = n
	}
	v.animate()

	if v.ticks >= v.act.Settings.MaxTicks {
		v.finish()
		return true
	}
	if v.act.Pending() > 0 {
		return false
	}
	if len(v.inFlight) > 0 {
		v.act.State = StateCompleting
		return false
	}
	v.finish()
	return true
}

func (v *Vortex) showFootprint() {
	if v.footprint {
		return
	}
	v.footprint = true
	v.rt.presenter.ShowFootprint(v.key, v.act.Origin, v.act.Settings.Radius)
}

func (v *Vortex) hideFootprint() {
	if !v.footprint {
		return
	}
	v.footprint = false
	v.rt.presenter.HideFootprint(v.key)
}

// admit processes up to SpawnPerTick queued blocks, never exceeding
// MaxActors in flight. The next batch comes SpawnIntervalTicks ticks later.
func (v *Vortex) admit(now uint64) {
	if v.cooldown > 0 {
		v.cooldown--
		return
	}
	s := &v.act.Settings
	room := s.MaxActors - len(v.inFlight)
	if room > s.SpawnPerTick {
		room = s.SpawnPerTick
	}
	if room <= 0 {
		return
	}
	bud := newBudget(s, v.rt.clock)
	bud.limit = room
	admitted := 0
	for v.act.Pending() > 0 && bud.ok() {
		c, _ := v.act.pop()
		if !v.rt.pred.Mutable(c) {
			v.act.Totals.Add(Result{Outcome: Ignored})
			v.rt.rec.BlockProcessed(v.act.Kind, Ignored)
			continue
		}
		v.rt.marks.Mark(c, now)
		res := v.rt.pipeline.Process(v.act.Actor, c, s)
		v.rt.rec.BlockProcessed(v.act.Kind, res.Outcome)
		if res.Outcome == Ignored || res.Outcome == Failed {
			v.act.Totals.Add(res)
			continue
		}
		v.spawn(c, res)
		admitted++
		bud.spend()
	}
	if bud.timedOut && v.act.Pending() > 0 {
		v.rt.rec.BudgetYield(v.act.Kind)
	}
	if admitted > 0 {
		v.cooldown = max(s.SpawnIntervalTicks-1, 0)
	}
}

func (v *Vortex) spawn(c world.Coord, res Result) {
	id := v.ents.CreateEntity()
	f := &flight{
		start:  c.Center(),
		target: v.target,
		frames: v.act.Settings.AnimationTicks,
		arc:    0.5 + v.rng.Float64()*1.5,
		spin:   (v.rng.Float64()*2 - 1) * 360,
		result: res,
	}
	v.flights.Attach(id, f)
	v.inFlight = append(v.inFlight, id)
	v.rt.presenter.SpawnFloating(id, res.Material, c)
}

// animate moves every actor one step and credits the ones that arrive.
func (v *Vortex) animate() {
	live := v.inFlight[:0]
	for _, id := range v.inFlight {
		f, ok := v.flights.Lookup(id)
		if !ok {
			continue
		}
		f.age++
		f.progress = math.Min(1, float64(f.age)/float64(f.frames))
		pos, yaw := f.position()
		v.rt.presenter.MoveFloating(id, pos, yaw)
		if f.progress < 1 {
			live = append(live, id)
			continue
		}
		v.act.Totals.Add(f.result)
		v.ents.MarkForDestruction(id)
		v.retiring = append(v.retiring, id)
	}
	v.inFlight = live
}

// finish credits anything still in flight and completes. Used both for the
// normal end and for the hard tick ceiling.
func (v *Vortex) finish() {
	for _, id := range v.inFlight {
		if f, ok := v.flights.Lookup(id); ok {
			v.act.Totals.Add(f.result)
		}
		v.ents.Destroy(id)
	}
	v.inFlight = nil
	v.act.drain()
	v.hideFootprint()
	v.act.State = StateDone
	if v.onDone != nil {
		v.onDone(v.act)
	}
}

// Abort destroys every animated actor and removes the footprint. Safe to
// call repeatedly from both the quit and shutdown paths.
func (v *Vortex) Abort(reason string) {
	v.destroyActors()
	v.hideFootprint()
	if v.act.State.Terminal() {
		return
	}
	v.act.State = StateAborted
	v.act.drain()
	if v.onAbort != nil {
		v.onAbort(v.act, reason)
	}
}

func (v *Vortex) destroyActors() {
	for _, id := range v.inFlight {
		v.ents.Destroy(id)
	}
	for _, id := range v.retiring {
		v.ents.Destroy(id)
	}
	v.inFlight = nil
	v.retiring = nil
}
