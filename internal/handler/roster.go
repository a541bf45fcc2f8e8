package handler

import (
	"sort"

	"github.com/prisonforge/server/internal/world"
)

// Roster remembers which host session announced which players, so a dropped
// host takes its players offline with it.
type Roster struct {
	bySession map[uint64]map[world.ActorID]struct{}
	owner     map[world.ActorID]uint64
}

func NewRoster() *Roster {
	return &Roster{
		bySession: make(map[uint64]map[world.ActorID]struct{}),
		owner:     make(map[world.ActorID]uint64),
	}
}

// Add records actor under session, moving it if another session owned it.
func (r *Roster) Add(session uint64, actor world.ActorID) {
	r.Remove(actor)
	set := r.bySession[session]
	if set == nil {
		set = make(map[world.ActorID]struct{})
		r.bySession[session] = set
	}
	set[actor] = struct{}{}
	r.owner[actor] = session
}

func (r *Roster) Remove(actor world.ActorID) {
	session, ok := r.owner[actor]
	if !ok {
		return
	}
	delete(r.owner, actor)
	set := r.bySession[session]
	delete(set, actor)
	if len(set) == 0 {
		delete(r.bySession, session)
	}
}

// Owner returns the session that announced actor.
func (r *Roster) Owner(actor world.ActorID) (uint64, bool) {
	s, ok := r.owner[actor]
	return s, ok
}

// DropSession forgets a session and returns its actors in ascending order.
func (r *Roster) DropSession(session uint64) []world.ActorID {
	set := r.bySession[session]
	out := make([]world.ActorID, 0, len(set))
	for a := range set {
		out = append(out, a)
		delete(r.owner, a)
	}
	delete(r.bySession, session)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
