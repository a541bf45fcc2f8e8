package ability

import (
	"time"

	"go.uber.org/zap"

	"github.com/prisonforge/server/internal/scan"
)

// Task is one in-flight activation driver. The engine calls Advance exactly
// once per tick until it returns true.
type Task interface {
	Activation() *Activation
	Advance(now uint64) (finished bool)
	Abort(reason string)
}

// runtime is the shared machinery every task is built on.
type runtime struct {
	players   Players
	blocks    Blocks
	regions   RegionOracle
	presenter Presenter
	economy   Economy
	pipeline  *Pipeline
	pred      scan.Predicate
	marks     *Marks
	registry  *Registry
	rewards   *Rewards
	mult      *Multipliers
	clock     Clock
	rec       Recorder
	log       *zap.Logger
}

// budget enforces the per-tick block and wall-clock ceilings.
type budget struct {
	limit    int
	used     int
	deadline time.Time
	timed    bool
	clock    Clock
	timedOut bool
}

func newBudget(s *Settings, clock Clock) *budget {
	b := &budget{limit: s.BlocksPerTick, clock: clock}
	if s.TickBudget > 0 {
		b.timed = true
		b.deadline = clock.Now().Add(s.TickBudget)
	}
	return b
}

func (b *budget) ok() bool {
	if b.used >= b.limit {
		return false
	}
	if b.timed && !b.clock.Now().Before(b.deadline) {
		b.timedOut = true
		return false
	}
	return true
}

func (b *budget) spend() { b.used++ }

// Batch drains an activation's queue through the pipeline under the
// per-tick budget.
type Batch struct {
	act     *Activation
	rt      *runtime
	ticks   int
	onDone  func(*Activation)
	onAbort func(*Activation, string)
}

func newBatch(act *Activation, rt *runtime, onDone func(*Activation), onAbort func(*Activation, string)) *Batch {
	return &Batch{act: act, rt: rt, onDone: onDone, onAbort: onAbort}
}

func (b *Batch) Activation() *Activation { return b.act }

// Ticks returns how many ticks the batch has run.
func (b *Batch) Ticks() int { return b.ticks }

func (b *Batch) Advance(now uint64) bool {
	if b.act.State.Terminal() {
		return true
	}
	if !b.rt.players.Online(b.act.Actor) {
		b.Abort("actor offline")
		return true
	}
	b.ticks++
	b.step(now)
	if b.act.Pending() > 0 {
		return false
	}
	b.act.State = StateDone
	if b.onDone != nil {
		b.onDone(b.act)
	}
	return true
}

// step processes queued coordinates until the queue or the budget runs out.
func (b *Batch) step(now uint64) {
	s := &b.act.Settings
	bud := newBudget(s, b.rt.clock)
	for b.act.Pending() > 0 && bud.ok() {
		c, _ := b.act.pop()
		if !b.rt.pred.Mutable(c) {
			b.act.Totals.Add(Result{Outcome: Ignored})
			b.rt.rec.BlockProcessed(b.act.Kind, Ignored)
			continue
		}
		b.rt.marks.Mark(c, now)
		res := b.rt.pipeline.Process(b.act.Actor, c, s)
		b.act.Totals.Add(res)
		b.rt.rec.BlockProcessed(b.act.Kind, res.Outcome)
		bud.spend()
	}
	if bud.timedOut && b.act.Pending() > 0 {
		b.rt.rec.BudgetYield(b.act.Kind)
	}
}

// Abort stops the batch without running the completion callback. Safe to
// call more than once.
func (b *Batch) Abort(reason string) {
	if b.act.State.Terminal() {
		return
	}
	b.act.State = StateAborted
	b.act.drain()
	if b.onAbort != nil {
		b.onAbort(b.act, reason)
	}
}
