// Package sched provides one-shot tick timers for the game loop.
//
// Waiting is never blocking: a caller that needs "N ticks from now" schedules
// a callback and returns. The Scheduler is itself a tick system and must be
// advanced exactly once per tick from the game loop goroutine.
package sched

import (
	"container/heap"
	"time"

	coresys "github.com/prisonforge/server/internal/core/system"
)

// Timer identifies a scheduled callback.
type Timer uint64

type entry struct {
	due   uint64
	timer Timer
	fn    func()
}

type queue []entry

func (q queue) Len() int { return len(q) }
func (q queue) Less(i, j int) bool {
	if q[i].due != q[j].due {
		return q[i].due < q[j].due
	}
	return q[i].timer < q[j].timer
}
func (q queue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *queue) Push(x any)   { *q = append(*q, x.(entry)) }
func (q *queue) Pop() any {
	old := *q
	e := old[len(old)-1]
	*q = old[:len(old)-1]
	return e
}

type Scheduler struct {
	now       uint64
	next      Timer
	q         queue
	cancelled map[Timer]struct{}
}

func New() *Scheduler {
	return &Scheduler{cancelled: make(map[Timer]struct{})}
}

// Now returns the current tick number. Tick 0 is before the first Advance.
func (s *Scheduler) Now() uint64 { return s.now }

// After schedules fn to run on the tick that is ticks ahead of Now.
// A delay of 0 is treated as 1: callbacks never run in the tick that
// scheduled them.
func (s *Scheduler) After(ticks uint64, fn func()) Timer {
	if ticks == 0 {
		ticks = 1
	}
	s.next++
	heap.Push(&s.q, entry{due: s.now + ticks, timer: s.next, fn: fn})
	return s.next
}

// Cancel prevents a pending timer from firing. Returns false if it already
// fired or was never scheduled.
func (s *Scheduler) Cancel(t Timer) bool {
	for _, e := range s.q {
		if e.timer == t {
			s.cancelled[t] = struct{}{}
			return true
		}
	}
	return false
}

// Pending returns the number of timers that will still fire.
func (s *Scheduler) Pending() int { return len(s.q) - len(s.cancelled) }

// Advance moves to the next tick and fires every timer due at or before it,
// in due order then scheduling order. Timers scheduled by a firing callback
// run on a later tick.
func (s *Scheduler) Advance() {
	s.now++
	for len(s.q) > 0 && s.q[0].due <= s.now {
		e := heap.Pop(&s.q).(entry)
		if _, ok := s.cancelled[e.timer]; ok {
			delete(s.cancelled, e.timer)
			continue
		}
		e.fn()
	}
}

func (s *Scheduler) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *Scheduler) Update(_ time.Duration) { s.Advance() }
