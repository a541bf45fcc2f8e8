package ability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/prisonforge/server/internal/core/sched"
	"github.com/prisonforge/server/internal/world"
)

func newTestRewards(t *testing.T, delay uint64) (*Rewards, *sched.Scheduler, *world.State, *fakePresenter) {
	t.Helper()
	s := sched.New()
	state := world.NewState(world.NewBlockStore(0, 16))
	state.AddPlayer(&world.PlayerInfo{ID: alice, World: mine})
	pres := newFakePresenter()
	return NewRewards(s, state, pres, delay, zap.NewNop()), s, state, pres
}

func TestRewardsFlushOncePerWindow(t *testing.T) {
	r, s, _, pres := newTestRewards(t, 3)

	r.Contribute(alice, Contribution{Value: 1000, Items: 600, Blocks: 1200})
	r.Contribute(alice, Contribution{Value: 234.5, Items: 34, Blocks: 34})
	r.Contribute(alice, Contribution{})
	assert.True(t, r.Pending(alice))
	assert.Equal(t, 1, s.Pending(), "re-entrant contributions do not schedule a second flush")

	s.Advance()
	s.Advance()
	assert.Empty(t, pres.messages[alice])
	s.Advance()

	require.Len(t, pres.messages[alice], 1)
	msg := pres.messages[alice][0]
	assert.Contains(t, msg, "234.50")
	assert.Contains(t, msg, "1,234 blocks")
	assert.False(t, r.Pending(alice))
	assert.Equal(t, Contribution{}, r.Summary(alice))

	r.Contribute(alice, Contribution{Blocks: 2})
	assert.True(t, r.Pending(alice), "a contribution after the flush starts a new window")
	for i := 0; i < 3; i++ {
		s.Advance()
	}
	require.Len(t, pres.messages[alice], 2)
	assert.Equal(t, "2 blocks mined", pres.messages[alice][1])
}

func TestRewardsDiscardedWhenActorOffline(t *testing.T) {
	r, s, state, pres := newTestRewards(t, 2)
	r.Contribute(alice, Contribution{Items: 5, Blocks: 5})
	state.RemovePlayer(alice)

	s.Advance()
	s.Advance()

	assert.Empty(t, pres.messages[alice])
	assert.False(t, r.Pending(alice))
	assert.Equal(t, Contribution{}, r.Summary(alice))
}

func TestRewardsFlushNowAndDiscard(t *testing.T) {
	r, s, _, pres := newTestRewards(t, 50)

	r.Contribute(alice, Contribution{Items: 3, Blocks: 3})
	r.FlushNow(alice)
	assert.Equal(t, []string{"3 blocks mined, 3 items collected"}, pres.messages[alice])
	assert.Zero(t, s.Pending(), "the scheduled flush was cancelled")

	r.Contribute(alice, Contribution{Blocks: 1})
	r.Discard(alice)
	for i := 0; i < 60; i++ {
		s.Advance()
	}
	assert.Len(t, pres.messages[alice], 1)
}
