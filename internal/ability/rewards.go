package ability

import (
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/prisonforge/server/internal/core/sched"
	"github.com/prisonforge/server/internal/world"
)

// Contribution is one pipeline outcome's share of a reward summary.
type Contribution struct {
	Value  float64
	Items  int
	Blocks int
}

func (c Contribution) empty() bool {
	return c.Value == 0 && c.Items == 0 && c.Blocks == 0
}

// Rewards buffers per-actor contributions and shows one summary per delay
// window instead of a message per block.
type Rewards struct {
	timers    Timers
	players   Players
	presenter Presenter
	delay     uint64
	printer   *message.Printer
	log       *zap.Logger

	summaries map[world.ActorID]*Contribution
	pending   map[world.ActorID]sched.Timer
}

func NewRewards(timers Timers, players Players, presenter Presenter, delay uint64, log *zap.Logger) *Rewards {
	return &Rewards{
		timers:    timers,
		players:   players,
		presenter: presenter,
		delay:     delay,
		printer:   message.NewPrinter(language.English),
		log:       log,
		summaries: make(map[world.ActorID]*Contribution),
		pending:   make(map[world.ActorID]sched.Timer),
	}
}

// Contribute adds to actor's summary. The first contribution since the last
// flush schedules the flush; later ones only accumulate.
func (r *Rewards) Contribute(actor world.ActorID, c Contribution) {
	if c.empty() {
		return
	}
	s := r.summaries[actor]
	if s == nil {
		s = &Contribution{}
		r.summaries[actor] = s
	}
	s.Value += c.Value
	s.Items += c.Items
	s.Blocks += c.Blocks

	if _, scheduled := r.pending[actor]; scheduled {
		return
	}
	r.pending[actor] = r.timers.After(r.delay, func() { r.flush(actor) })
}

// FlushNow shows actor's summary immediately, cancelling the pending timer.
func (r *Rewards) FlushNow(actor world.ActorID) {
	if t, ok := r.pending[actor]; ok {
		r.timers.Cancel(t)
	}
	r.flush(actor)
}

// Discard drops actor's summary without showing it.
func (r *Rewards) Discard(actor world.ActorID) {
	if t, ok := r.pending[actor]; ok {
		r.timers.Cancel(t)
		delete(r.pending, actor)
	}
	delete(r.summaries, actor)
}

// Pending reports whether a flush is scheduled for actor.
func (r *Rewards) Pending(actor world.ActorID) bool {
	_, ok := r.pending[actor]
	return ok
}

// Summary returns a copy of actor's unflushed totals.
func (r *Rewards) Summary(actor world.ActorID) Contribution {
	if s := r.summaries[actor]; s != nil {
		return *s
	}
	return Contribution{}
}

func (r *Rewards) flush(actor world.ActorID) {
	delete(r.pending, actor)
	s := r.summaries[actor]
	delete(r.summaries, actor)
	if s == nil || s.empty() {
		return
	}
	if !r.players.Online(actor) {
		r.log.Debug("reward summary discarded, actor offline", zap.Uint64("actor", uint64(actor)))
		return
	}
	r.presenter.Message(actor, r.format(*s))
}

func (r *Rewards) format(s Contribution) string {
	if s.Value > 0 {
		return r.printer.Sprintf("+$%.2f from %d blocks (%d items sold)", s.Value, s.Blocks, s.Items)
	}
	if s.Items > 0 {
		return r.printer.Sprintf("%d blocks mined, %d items collected", s.Blocks, s.Items)
	}
	return r.printer.Sprintf("%d blocks mined", s.Blocks)
}
