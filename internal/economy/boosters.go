package economy

import (
	"sort"

	"github.com/prisonforge/server/internal/world"
)

// AnyKind is the reward kind of a booster that applies to every currency.
const AnyKind = ""

// TickSource reports the current tick.
type TickSource interface {
	Now() uint64
}

// Booster is one timed reward multiplier.
type Booster struct {
	Actor   world.ActorID
	Kind    string
	Factor  float64
	Expires uint64 // tick after which the booster no longer applies
}

type boosterKey struct {
	actor world.ActorID
	kind  string
}

// Boosters grants temporary multipliers. A player holds at most one booster
// per reward kind; granting again replaces it.
type Boosters struct {
	clock  TickSource
	active map[boosterKey]Booster
}

func NewBoosters(clock TickSource) *Boosters {
	return &Boosters{clock: clock, active: make(map[boosterKey]Booster)}
}

// Grant activates factor for ticks ticks. Factors <= 1 and zero durations
// are ignored.
func (b *Boosters) Grant(actor world.ActorID, kind string, factor float64, ticks uint64) bool {
	if factor <= 1 || ticks == 0 {
		return false
	}
	b.active[boosterKey{actor, kind}] = Booster{
		Actor:   actor,
		Kind:    kind,
		Factor:  factor,
		Expires: b.clock.Now() + ticks,
	}
	return true
}

// CurrentMultiplier is the product of the actor's kind-specific booster and
// its any-kind booster.
func (b *Boosters) CurrentMultiplier(actor world.ActorID, rewardKind string) float64 {
	now := b.clock.Now()
	f := 1.0
	for _, k := range []string{AnyKind, rewardKind} {
		if bo, ok := b.active[boosterKey{actor, k}]; ok && now <= bo.Expires {
			f *= bo.Factor
		}
		if rewardKind == AnyKind {
			break
		}
	}
	return f
}

// Expire drops every booster past its end tick and returns them ordered by
// actor then kind.
func (b *Boosters) Expire() []Booster {
	now := b.clock.Now()
	var out []Booster
	for k, bo := range b.active {
		if now > bo.Expires {
			out = append(out, bo)
			delete(b.active, k)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Actor != out[j].Actor {
			return out[i].Actor < out[j].Actor
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

// Revoke drops every booster the actor holds.
func (b *Boosters) Revoke(actor world.ActorID) int {
	n := 0
	for k := range b.active {
		if k.actor == actor {
			delete(b.active, k)
			n++
		}
	}
	return n
}

func (b *Boosters) Len() int { return len(b.active) }
