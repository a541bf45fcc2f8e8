package ability

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/prisonforge/server/internal/scan"
)

// TicksPerSecond is the host tick rate the countdown signals are paced by.
const TicksPerSecond = 20

type countdownPhase int

const (
	phaseCountdown countdownPhase = iota
	phaseExploding
	phaseScanning
	phaseBatchRunning
	phaseFinished
)

// Countdown warns the actor for a number of ticks, then detonates a sphere
// at wherever the actor is standing and processes it as a batch.
type Countdown struct {
	act       *Activation
	rt        *runtime
	phase     countdownPhase
	remaining int
	bar       BarID
	barShown  bool
	batch     *Batch
	onDone    func(*Activation)
	onAbort   func(*Activation, string)
}

func newCountdown(act *Activation, rt *runtime, onDone func(*Activation), onAbort func(*Activation, string)) *Countdown {
	c := &Countdown{
		act:       act,
		rt:        rt,
		remaining: act.Settings.CountdownTicks,
		onDone:    onDone,
		onAbort:   onAbort,
	}
	c.bar = rt.presenter.ShowBar(act.Actor, c.barTitle(), 1)
	c.barShown = true
	return c
}

func (c *Countdown) Activation() *Activation { return c.act }

// Phase names the current state for logs and tests.
func (c *Countdown) Phase() string {
	switch c.phase {
	case phaseCountdown:
		return "countdown"
	case phaseExploding:
		return "exploding"
	case phaseScanning:
		return "scanning"
	case phaseBatchRunning:
		return "batch"
	}
	return "finished"
}

func (c *Countdown) Advance(now uint64) bool {
	if c.act.State.Terminal() {
		return true
	}
	if !c.rt.players.Online(c.act.Actor) {
		c.Abort("actor offline")
		return true
	}
	if !c.rt.registry.Holds(c.act.Actor, c.act.Kind, c.act.ID) {
		c.Abort("removed from registry")
		return true
	}

	switch c.phase {
	case phaseCountdown:
		if c.remaining > 0 {
			c.remaining--
		}
		if c.remaining > 0 {
			if c.remaining%TicksPerSecond == 0 {
				c.signal()
			}
			return false
		}
		c.phase = phaseExploding
		fallthrough
	case phaseExploding:
		if !c.detonate() {
			return true
		}
		c.phase = phaseScanning
		fallthrough
	case phaseScanning:
		c.scan()
		c.phase = phaseBatchRunning
		return false
	case phaseBatchRunning:
		if c.batch.Advance(now) {
			c.phase = phaseFinished
			return true
		}
		return false
	}
	return true
}

func (c *Countdown) barTitle() string {
	secs := (c.remaining + TicksPerSecond - 1) / TicksPerSecond
	return fmt.Sprintf("Detonation in %ds", secs)
}

// signal fires the once-per-second progress cue.
func (c *Countdown) signal() {
	total := c.act.Settings.CountdownTicks
	progress := 0.0
	if total > 0 {
		progress = float64(c.remaining) / float64(total)
	}
	c.rt.presenter.UpdateBar(c.bar, c.barTitle(), progress)
	if pos, w, ok := c.rt.players.Position(c.act.Actor); ok {
		c.rt.presenter.Sound(pos.Block(w), "block.note_block.hat")
	}
}

// detonate moves the origin to the actor's current position. Returns false
// if the actor vanished between checks.
func (c *Countdown) detonate() bool {
	c.releaseBar()
	pos, w, ok := c.rt.players.Position(c.act.Actor)
	if !ok {
		c.Abort("actor offline")
		return false
	}
	c.act.Origin = pos.Block(w)
	c.rt.presenter.Particle(c.act.Origin, "explosion_emitter", 1)
	c.rt.presenter.Sound(c.act.Origin, "entity.generic.explode")
	return true
}

func (c *Countdown) scan() {
	coords := scan.Scan(c.act.Origin, scan.Sphere{Radius: c.act.Settings.Radius}, c.rt.pred)
	c.act.Enqueue(coords...)
	c.rt.log.Debug("countdown detonated",
		zap.Uint64("actor", uint64(c.act.Actor)),
		zap.Stringer("origin", c.act.Origin),
		zap.Int("candidates", len(coords)),
	)
	c.batch = newBatch(c.act, c.rt, c.onDone, c.onAbort)
}

func (c *Countdown) releaseBar() {
	if !c.barShown {
		return
	}
	c.barShown = false
	c.rt.presenter.RemoveBar(c.bar)
}

// Abort cancels the countdown from any phase. The progress bar is removed
// exactly once no matter how many times Abort runs.
func (c *Countdown) Abort(reason string) {
	if c.act.State.Terminal() {
		return
	}
	c.releaseBar()
	c.phase = phaseFinished
	if c.batch != nil {
		c.batch.Abort(reason)
		return
	}
	c.act.State = StateAborted
	c.act.drain()
	if c.onAbort != nil {
		c.onAbort(c.act, reason)
	}
}
