package ability

import (
	"go.uber.org/zap"

	"github.com/prisonforge/server/internal/scan"
	"github.com/prisonforge/server/internal/world"
)

type freezePhase int

const (
	phaseFreezing freezePhase = iota
	phaseWaiting
	phaseShattering
	phaseRewarding
	phaseThawed
)

type frozenBlock struct {
	at       world.Coord
	original world.Material
	attempts int
	done     bool // shattered or reverted
}

// Freeze replaces a cylinder with the marker material, waits, then breaks
// whatever is still frozen. The reward counts only blocks actually
// shattered, so blocks mined by hand during the wait earn nothing.
type Freeze struct {
	act       *Activation
	rt        *runtime
	phase     freezePhase
	frozen    []frozenBlock
	cursor    int
	retry     []int // indexes into frozen whose thaw write failed
	wait      int
	shattered int
	onDone    func(*Activation)
	onAbort   func(*Activation, string)
}

func newFreeze(act *Activation, rt *runtime, onDone func(*Activation), onAbort func(*Activation, string)) *Freeze {
	f := &Freeze{act: act, rt: rt, onDone: onDone, onAbort: onAbort}
	s := act.Settings
	coords := scan.Scan(act.Origin, scan.Cylinder{Radius: s.Radius, HalfHeight: s.Height}, rt.pred)
	act.Enqueue(coords...)
	return f
}

func (f *Freeze) Activation() *Activation { return f.act }

// Frozen returns the number of blocks currently holding the marker.
func (f *Freeze) Frozen() int {
	n := 0
	for _, b := range f.frozen {
		if !b.done {
			n++
		}
	}
	return n
}

// Shattered returns the number of blocks broken by the shatter phase.
func (f *Freeze) Shattered() int { return f.shattered }

func (f *Freeze) Advance(now uint64) bool {
	if f.act.State.Terminal() {
		return true
	}
	if !f.rt.players.Online(f.act.Actor) {
		f.Abort("actor offline")
		return true
	}
	switch f.phase {
	case phaseFreezing:
		f.freeze()
		if f.act.Pending() > 0 {
			return false
		}
		f.rt.presenter.Sound(f.act.Origin, "block.glass.place")
		f.wait = f.act.Settings.FreezeDelayTicks
		f.phase = phaseWaiting
		return false
	case phaseWaiting:
		if f.wait > 0 {
			f.wait--
		}
		if f.wait > 0 {
			return false
		}
		f.phase = phaseShattering
		f.cursor = 0
		fallthrough
	case phaseShattering:
		if !f.shatter(now) {
			return false
		}
		f.phase = phaseRewarding
		f.act.State = StateCompleting
		fallthrough
	case phaseRewarding:
		f.reward()
		f.phase = phaseThawed
		f.act.State = StateDone
		if f.onDone != nil {
			f.onDone(f.act)
		}
	}
	return true
}

// freeze swaps queued blocks to the marker under the tick budget, holding
// each coordinate so no other activation touches it.
func (f *Freeze) freeze() {
	s := &f.act.Settings
	bud := newBudget(s, f.rt.clock)
	for f.act.Pending() > 0 && bud.ok() {
		c, _ := f.act.pop()
		if !f.rt.pred.Mutable(c) {
			continue
		}
		orig := f.rt.blocks.Block(c)
		if err := f.rt.blocks.SetBlock(c, s.MarkerMaterial); err != nil {
			f.rt.log.Warn("freeze block failed", zap.Stringer("coord", c), zap.Error(err))
			continue
		}
		f.rt.marks.Hold(c)
		f.frozen = append(f.frozen, frozenBlock{at: c, original: orig})
		bud.spend()
	}
}

// maxThawAttempts bounds how often a block that fails to thaw is retried
// before its hold is dropped.
const maxThawAttempts = 5

// shatter restores and breaks frozen blocks still holding the marker. A
// block whose thaw write fails keeps its hold and is retried on a later
// tick. Returns true once every frozen block has been settled.
func (f *Freeze) shatter(now uint64) bool {
	bud := newBudget(&f.act.Settings, f.rt.clock)
	if f.cursor == len(f.frozen) {
		pending := f.retry
		f.retry = nil
		for n, i := range pending {
			if !bud.ok() {
				f.retry = append(f.retry, pending[n:]...)
				break
			}
			f.thaw(i, now, bud)
		}
	}
	for f.cursor < len(f.frozen) && bud.ok() {
		f.cursor++
		f.thaw(f.cursor-1, now, bud)
	}
	if f.cursor < len(f.frozen) || len(f.retry) > 0 {
		return false
	}
	f.rt.presenter.Sound(f.act.Origin, "block.glass.break")
	return true
}

func (f *Freeze) thaw(i int, now uint64, bud *budget) {
	s := &f.act.Settings
	b := &f.frozen[i]
	if b.done {
		return
	}
	if f.rt.blocks.Block(b.at) != s.MarkerMaterial {
		f.settle(b)
		f.act.Totals.Add(Result{Outcome: Ignored})
		f.rt.rec.BlockProcessed(f.act.Kind, Ignored)
		return
	}
	if err := f.rt.blocks.SetBlock(b.at, b.original); err != nil {
		b.attempts++
		if b.attempts < maxThawAttempts {
			f.rt.log.Warn("thaw block failed, retrying",
				zap.Stringer("coord", b.at),
				zap.Int("attempt", b.attempts),
				zap.Error(err),
			)
			f.retry = append(f.retry, i)
			return
		}
		f.rt.log.Error("thaw block abandoned", zap.Stringer("coord", b.at), zap.Error(err))
		f.settle(b)
		f.act.Totals.Add(Result{Outcome: Failed, Material: b.original})
		f.rt.rec.BlockProcessed(f.act.Kind, Failed)
		return
	}
	f.settle(b)
	f.rt.marks.Mark(b.at, now)
	res := f.rt.pipeline.Process(f.act.Actor, b.at, s)
	f.act.Totals.Add(res)
	f.rt.rec.BlockProcessed(f.act.Kind, res.Outcome)
	if res.Outcome != Ignored && res.Outcome != Failed {
		f.shattered++
	}
	bud.spend()
}

func (f *Freeze) settle(b *frozenBlock) {
	b.done = true
	f.rt.marks.Unhold(b.at)
}

// reward pays RewardPerBlock for every block actually shattered.
func (f *Freeze) reward() {
	s := &f.act.Settings
	if f.shattered == 0 || s.RewardPerBlock <= 0 {
		return
	}
	value := f.rt.mult.Apply(f.act.Actor, s.RewardKind, float64(f.shattered)*s.RewardPerBlock)
	if value <= 0 {
		return
	}
	if !f.rt.economy.Deposit(f.act.Actor, s.RewardKind, value) {
		f.rt.log.Warn("shatter reward deposit refused",
			zap.Uint64("actor", uint64(f.act.Actor)),
			zap.Float64("value", value),
		)
		return
	}
	f.act.Totals.Value += value
	f.rt.rewards.Contribute(f.act.Actor, Contribution{Value: value})
}

// Abort reverts every block still frozen to its original material.
func (f *Freeze) Abort(reason string) {
	if f.act.State.Terminal() {
		return
	}
	f.revert()
	f.phase = phaseThawed
	f.act.State = StateAborted
	f.act.drain()
	if f.onAbort != nil {
		f.onAbort(f.act, reason)
	}
}

func (f *Freeze) revert() {
	marker := f.act.Settings.MarkerMaterial
	for i := range f.frozen {
		b := &f.frozen[i]
		if b.done {
			continue
		}
		b.done = true
		f.rt.marks.Unhold(b.at)
		if f.rt.blocks.Block(b.at) != marker {
			continue
		}
		if err := f.rt.blocks.SetBlock(b.at, b.original); err != nil {
			f.rt.log.Warn("revert frozen block failed", zap.Stringer("coord", b.at), zap.Error(err))
		}
	}
}
