package ability

import (
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/prisonforge/server/internal/core/ecs"
	"github.com/prisonforge/server/internal/region"
	"github.com/prisonforge/server/internal/scan"
	"github.com/prisonforge/server/internal/world"
)

// Deps wires the engine to its collaborators. Clock, Recorder, Rand,
// Entities and Log may be left nil.
type Deps struct {
	Players     Players
	Blocks      Blocks
	Materials   Materials
	Regions     RegionOracle
	Economy     Economy
	Inventory   InventorySink
	Ground      GroundSink
	Ledger      PersistenceSink
	Presenter   Presenter
	Timers      Timers
	Multipliers []MultiplierSource

	Entities *ecs.World
	Clock    Clock
	Recorder Recorder
	Rand     *rand.Rand
	OnBreak  BreakFunc
	Log      *zap.Logger

	RewardFlushTicks uint64
}

// Engine admits ability activations and drives them once per tick.
type Engine struct {
	players   Players
	regions   RegionOracle
	economy   Economy
	presenter Presenter
	timers    Timers

	rt       *runtime
	ents     *ecs.World
	flights  *ecs.Store[flight]
	rng      *rand.Rand
	log      *zap.Logger
	settings map[Kind]Settings

	tasks    []Task
	incoming []Task // admitted since the last tick
	stopped  bool
}

func NewEngine(d Deps, settings map[Kind]Settings) *Engine {
	if d.Clock == nil {
		d.Clock = SystemClock
	}
	if d.Recorder == nil {
		d.Recorder = nopRecorder{}
	}
	if d.Rand == nil {
		d.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if d.Entities == nil {
		d.Entities = ecs.NewWorld()
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}

	marks := NewMarks()
	rewards := NewRewards(d.Timers, d.Players, d.Presenter, d.RewardFlushTicks, d.Log)
	mult := NewMultipliers(d.Multipliers...)
	pipeline := &Pipeline{
		blocks:      d.Blocks,
		materials:   d.Materials,
		economy:     d.Economy,
		inventory:   d.Inventory,
		ground:      d.Ground,
		ledger:      d.Ledger,
		rewards:     rewards,
		multipliers: mult,
		onBreak:     d.OnBreak,
		log:         d.Log,
	}

	e := &Engine{
		players:   d.Players,
		regions:   d.Regions,
		economy:   d.Economy,
		presenter: d.Presenter,
		timers:    d.Timers,
		ents:      d.Entities,
		flights:   ecs.NewStore[flight](64),
		rng:       d.Rand,
		log:       d.Log,
		settings:  settings,
	}
	e.rt = &runtime{
		players:   d.Players,
		blocks:    d.Blocks,
		regions:   d.Regions,
		presenter: d.Presenter,
		economy:   d.Economy,
		pipeline:  pipeline,
		pred:      scan.NewMutability(d.Blocks, d.Materials, marks, d.Regions),
		marks:     marks,
		registry:  NewRegistry(),
		rewards:   rewards,
		mult:      mult,
		clock:     d.Clock,
		rec:       d.Recorder,
		log:       d.Log,
	}

	e.ents.Registry().Register(e.flights)
	e.ents.Registry().OnDestroy(func(id ecs.EntityID) {
		if e.flights.Carries(id) {
			e.presenter.RemoveFloating(id)
		}
	})
	return e
}

func (e *Engine) Registry() *Registry { return e.rt.registry }
func (e *Engine) Marks() *Marks       { return e.rt.marks }
func (e *Engine) Rewards() *Rewards   { return e.rt.rewards }

// Predicate is the mutability check every activation scans with.
func (e *Engine) Predicate() scan.Predicate { return e.rt.pred }

// Tasks returns the in-flight tasks, including ones admitted this tick.
func (e *Engine) Tasks() []Task {
	out := make([]Task, 0, len(e.tasks)+len(e.incoming))
	out = append(out, e.tasks...)
	return append(out, e.incoming...)
}

// AnimatedActors returns the number of live vortex actors.
func (e *Engine) AnimatedActors() int { return e.flights.Len() }

// Reload swaps the settings table. Running activations keep their snapshot.
func (e *Engine) Reload(settings map[Kind]Settings) {
	e.settings = settings
	e.log.Info("ability settings reloaded", zap.Int("kinds", len(settings)))
}

// Trigger activates kind at the actor's current position.
func (e *Engine) Trigger(actor world.ActorID, kind Kind) (*Activation, error) {
	return e.admit(actor, kind, nil, true)
}

// TriggerAt activates kind at a specific block.
func (e *Engine) TriggerAt(actor world.ActorID, kind Kind, at world.Coord) (*Activation, error) {
	return e.admit(actor, kind, &at, true)
}

// admit runs every admission check before anything is started. A refused
// activation leaves no trace: no registry entry, no cost, no task.
func (e *Engine) admit(actor world.ActorID, kind Kind, at *world.Coord, notify bool) (*Activation, error) {
	act, err := e.tryAdmit(actor, kind, at)
	if err != nil {
		code := RefusalCode(err)
		e.rt.rec.ActivationRefused(kind, code)
		if code == CodeConfigMissing {
			e.log.Warn("ability refused", zap.String("kind", string(kind)), zap.Error(err))
		}
		if notify && code != CodeActorOffline {
			e.presenter.Message(actor, RefusalMessage(err))
		}
		return nil, err
	}
	return act, nil
}

func (e *Engine) tryAdmit(actor world.ActorID, kind Kind, at *world.Coord) (*Activation, error) {
	if e.stopped {
		return nil, refuse(CodeDisabled, kind, "engine is shut down")
	}
	s, ok := e.settings[kind]
	if !ok || !knownKind(kind) {
		return nil, refuse(CodeConfigMissing, kind, "no settings for ability %q", kind)
	}
	if !s.Enabled {
		return nil, refuse(CodeDisabled, kind, "ability %q is disabled", kind)
	}
	if field := s.validate(kind); field != "" {
		return nil, refuse(CodeConfigMissing, kind, "ability %q has invalid %s", kind, field)
	}

	p := e.players.Get(actor)
	if p == nil || !p.Online {
		return nil, refuse(CodeActorOffline, kind, "actor %d is offline", actor)
	}
	origin := p.Pos.Block(p.World)
	if at != nil {
		origin = *at
	} else if kind.Grounded() {
		origin = origin.Add(0, -1, 0)
	}
	if e.regions != nil && !e.regions.EffectAllowed(origin) {
		return nil, refuse(CodeNotPermitted, kind, "effects not allowed at %s", origin)
	}
	if e.running(actor, kind) {
		return nil, refuse(CodeAlreadyActive, kind, "actor %d already running %s", actor, kind)
	}

	s.AutoSell = s.AutoSell && p.HasPermission(PermAutoSell)
	s.AutoCollect = s.AutoCollect && p.HasPermission(PermAutoCollect)
	act := newActivation(actor, kind, origin, s, e.timers.Now())

	if kind.Exclusive() && !e.rt.registry.TryAcquire(actor, kind, act.ID) {
		return nil, refuse(CodeAlreadyActive, kind, "actor %d already holds %s", actor, kind)
	}
	if s.Cost > 0 && !e.economy.Withdraw(actor, TokenKind, s.Cost) {
		e.rt.registry.Release(actor, kind, act.ID)
		return nil, refuse(CodeInsufficientFunds, kind, "actor %d cannot pay %.2f %s", actor, s.Cost, TokenKind)
	}

	e.incoming = append(e.incoming, e.build(act, p))
	e.log.Info("ability activated",
		zap.Uint64("actor", uint64(actor)),
		zap.String("kind", string(kind)),
		zap.Stringer("origin", origin),
		zap.String("id", act.ID.String()),
	)
	return act, nil
}

func knownKind(kind Kind) bool {
	for _, k := range Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// running reports whether actor has an unfinished activation of kind.
func (e *Engine) running(actor world.ActorID, kind Kind) bool {
	if e.rt.registry.Active(actor, kind) {
		return true
	}
	for _, t := range e.tasks {
		if a := t.Activation(); a.Actor == actor && a.Kind == kind && !a.State.Terminal() {
			return true
		}
	}
	for _, t := range e.incoming {
		if a := t.Activation(); a.Actor == actor && a.Kind == kind && !a.State.Terminal() {
			return true
		}
	}
	return false
}

// build scans (where the kind scans up front) and wraps the activation in
// its driver.
func (e *Engine) build(act *Activation, p *world.PlayerInfo) Task {
	s := act.Settings
	o := act.Origin
	switch act.Kind {
	case KindExplosive:
		act.Enqueue(scan.Scan(o, scan.Sphere{Radius: s.Radius}, e.rt.pred)...)
	case KindSurface:
		act.Enqueue(scan.Scan(o, scan.TopSurface{Radius: s.Radius, Top: o.Y + s.ProbeHeight, Bottom: o.Y - s.Height}, e.rt.pred)...)
	case KindLayer:
		var bounds []region.Bounds
		if e.regions != nil {
			bounds = e.regions.BoundsContaining(o)
		}
		act.Enqueue(scan.Scan(o, scan.RegionLayer{Y: o.Y, Bounds: bounds}, e.rt.pred)...)
	case KindNuke:
		return newCountdown(act, e.rt, e.complete, e.aborted)
	case KindFreeze:
		return newFreeze(act, e.rt, e.complete, e.aborted)
	case KindBurst:
		return newBurst(act, e.rt, p.Facing, e.complete, e.aborted)
	case KindVortex:
		return newVortex(act, e.rt, e.ents, e.flights, e.rng.Int63(), e.complete, e.aborted)
	}
	return newBatch(act, e.rt, e.complete, e.aborted)
}

// complete is every activation's completion callback.
func (e *Engine) complete(act *Activation) {
	e.rt.registry.Release(act.Actor, act.Kind, act.ID)
	e.rt.rewards.FlushNow(act.Actor)
	if n := act.Totals.Affected(); n > 0 {
		e.presenter.Title(act.Actor, title(act.Kind), fmt.Sprintf("%d blocks", n))
	}
	e.rt.rec.ActivationFinished(act.Kind, StateDone)
	e.log.Debug("ability finished",
		zap.Uint64("actor", uint64(act.Actor)),
		zap.String("kind", string(act.Kind)),
		zap.Int("affected", act.Totals.Affected()),
		zap.Int("ignored", act.Totals.Ignored),
		zap.Int("failed", act.Totals.Failed),
		zap.Float64("value", act.Totals.Value),
	)
}

func (e *Engine) aborted(act *Activation, reason string) {
	e.rt.registry.Release(act.Actor, act.Kind, act.ID)
	e.rt.rec.ActivationFinished(act.Kind, StateAborted)
	e.log.Info("ability aborted",
		zap.Uint64("actor", uint64(act.Actor)),
		zap.String("kind", string(act.Kind)),
		zap.String("reason", reason),
	)
}

func title(k Kind) string {
	switch k {
	case KindExplosive:
		return "Explosive"
	case KindLayer:
		return "Layer Clear"
	case KindSurface:
		return "Surface Sweep"
	case KindNuke:
		return "Nuke"
	case KindFreeze:
		return "Shatter"
	case KindBurst:
		return "Barrage"
	case KindVortex:
		return "Vortex"
	}
	return string(k)
}

// Tick sweeps expired marks, then advances every task once. Tasks admitted
// during the tick start advancing on the next one.
func (e *Engine) Tick(now uint64) {
	e.rt.marks.Sweep(now)
	if len(e.incoming) > 0 {
		e.tasks = append(e.tasks, e.incoming...)
		e.incoming = nil
	}
	live := e.tasks[:0]
	for _, t := range e.tasks {
		if !t.Advance(now) {
			live = append(live, t)
		}
	}
	for i := len(live); i < len(e.tasks); i++ {
		e.tasks[i] = nil
	}
	e.tasks = live
	e.rt.rec.AnimatedActors(e.flights.Len())
}

// Cancel removes (actor, kind) from the registry. The owning state machine
// aborts on its next tick.
func (e *Engine) Cancel(actor world.ActorID, kind Kind) bool {
	return e.rt.registry.Remove(actor, kind)
}

// OnQuit aborts everything the actor has in flight and drops its pending
// reward summary. Idempotent.
func (e *Engine) OnQuit(actor world.ActorID) int {
	n := 0
	abort := func(ts []Task) []Task {
		live := ts[:0]
		for _, t := range ts {
			a := t.Activation()
			if a.Actor != actor {
				live = append(live, t)
				continue
			}
			if !a.State.Terminal() {
				n++
			}
			t.Abort("actor quit")
		}
		return live
	}
	e.tasks = abort(e.tasks)
	e.incoming = abort(e.incoming)
	e.rt.registry.RemoveActor(actor)
	e.rt.rewards.Discard(actor)
	return n
}

// Shutdown aborts every activation, reverting temporary blocks and removing
// animated actors, and refuses new ones. Idempotent.
func (e *Engine) Shutdown() {
	for _, t := range e.Tasks() {
		t.Abort("shutdown")
	}
	e.tasks = nil
	e.incoming = nil
	e.ents.FlushDestroyQueue()
	if !e.stopped {
		e.log.Info("ability engine stopped")
	}
	e.stopped = true
}

// OnBlockBroken rolls every enabled ability's proc chance for a block the
// actor broke. Blocks broken by an activation carry a processing mark and
// never proc. At most one ability procs per block.
func (e *Engine) OnBlockBroken(actor world.ActorID, at world.Coord) {
	if e.stopped || e.rt.marks.Marked(at) {
		return
	}
	p := e.players.Get(actor)
	if p == nil || !p.Online {
		return
	}
	for _, kind := range Kinds {
		s, ok := e.settings[kind]
		if !ok || !s.Enabled || s.ProcChance <= 0 {
			continue
		}
		if !p.HasPermission(permProcPrefix + string(kind)) {
			continue
		}
		if e.rng.Float64() >= s.ProcChance {
			continue
		}
		if _, err := e.admit(actor, kind, &at, false); err == nil {
			return
		}
	}
}
