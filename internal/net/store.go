package net

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prisonforge/server/internal/net/packet"
)

// SessionStore holds the live host sessions. Game loop only.
type SessionStore struct {
	sessions map[uint64]*Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[uint64]*Session)}
}

func (st *SessionStore) Add(s *Session)         { st.sessions[s.ID] = s }
func (st *SessionStore) Remove(id uint64)       { delete(st.sessions, id) }
func (st *SessionStore) Get(id uint64) *Session { return st.sessions[id] }
func (st *SessionStore) Len() int               { return len(st.sessions) }

// ForEach visits sessions in ascending id order.
func (st *SessionStore) ForEach(fn func(*Session)) {
	ids := make([]uint64, 0, len(st.sessions))
	for id := range st.sessions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		fn(st.sessions[id])
	}
}

// Broadcast buffers a frame on every session that finished its handshake.
func (st *SessionStore) Broadcast(frame []byte) {
	for _, s := range st.sessions {
		if s.State() == packet.StateReady {
			s.Send(frame)
		}
	}
}

// DrainAll drains every session in parallel, giving each up to timeout to
// write its queued frames. Returns how many were cut off with frames unsent.
func (st *SessionStore) DrainAll(timeout time.Duration) int {
	var wg sync.WaitGroup
	var cut atomic.Int32
	for _, s := range st.sessions {
		wg.Add(1)
		go func(s *Session) {
			defer wg.Done()
			if !s.Drain(timeout) {
				cut.Add(1)
			}
		}(s)
	}
	wg.Wait()
	return int(cut.Load())
}
