package ability

import (
	"math"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"

	"github.com/prisonforge/server/internal/world"
)

func TestRegistryAdmitsOnePerActorAndKind(t *testing.T) {
	r := NewRegistry()
	first, second := ulid.Make(), ulid.Make()

	assert.True(t, r.TryAcquire(alice, KindNuke, first))
	assert.False(t, r.TryAcquire(alice, KindNuke, second), "second nuke for the same actor is rejected")
	assert.True(t, r.TryAcquire(alice, KindVortex, second), "different kind is independent")
	assert.True(t, r.TryAcquire(bob, KindNuke, second), "different actor is independent")
	assert.Equal(t, []Kind{KindNuke, KindVortex}, r.Kinds(alice))

	assert.False(t, r.Release(alice, KindNuke, second), "only the holder releases")
	assert.True(t, r.Holds(alice, KindNuke, first))
	assert.True(t, r.Release(alice, KindNuke, first))
	assert.False(t, r.Active(alice, KindNuke))

	assert.True(t, r.Remove(bob, KindNuke))
	assert.False(t, r.Remove(bob, KindNuke))
	assert.Equal(t, 1, r.RemoveActor(alice))
	assert.Zero(t, r.Len())
}

func TestMarksExpireOneTickLater(t *testing.T) {
	m := NewMarks()
	a := world.Coord{World: mine, X: 1, Y: 2, Z: 3}
	b := a.Add(1, 0, 0)

	m.Mark(a, 5)
	m.Hold(b)
	assert.Zero(t, m.Sweep(5), "a mark survives the tick it was set in")
	assert.True(t, m.Marked(a))

	assert.Equal(t, 1, m.Sweep(6))
	assert.False(t, m.Marked(a))
	assert.True(t, m.Marked(b), "holds ignore the sweep")

	m.Unhold(a)
	m.Mark(b, 6)
	m.Unhold(b)
	assert.True(t, m.Marked(b), "a short mark replaces the hold and is left to the sweep")
	m.Sweep(7)
	assert.Zero(t, m.Len())
}

func TestMultipliersComposeThenRoundOnce(t *testing.T) {
	m := NewMultipliers(fixedMultiplier(1.5), nil, fixedMultiplier(1.5), fixedMultiplier(-1), fixedMultiplier(math.NaN()))
	reversed := NewMultipliers(fixedMultiplier(1.5), fixedMultiplier(1.5))

	assert.InDelta(t, 2.25, m.Compose(alice, DefaultRewardKind), 1e-12)
	assert.Equal(t, 2.26, m.Apply(alice, DefaultRewardKind, 1.005))
	assert.Equal(t, m.Apply(alice, DefaultRewardKind, 7.77), reversed.Apply(alice, DefaultRewardKind, 7.77))
	assert.Equal(t, 10.0, NewMultipliers().Apply(alice, DefaultRewardKind, 10))
}

func TestRefusalMessages(t *testing.T) {
	assert.Equal(t, "area not permitted here", RefusalMessage(refuse(CodeNotPermitted, KindExplosive, "no")))
	assert.Equal(t, "not enough tokens", RefusalMessage(refuse(CodeInsufficientFunds, KindNuke, "no")))
	assert.Equal(t, CodeAlreadyActive, RefusalCode(refuse(CodeAlreadyActive, KindVortex, "busy")))
	assert.Equal(t, "", RefusalCode(assert.AnError))
	assert.Equal(t, "that ability could not be used", RefusalMessage(assert.AnError))
	assert.Equal(t, "", RefusalMessage(nil))
}
