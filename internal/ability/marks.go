package ability

import (
	"math"

	"github.com/prisonforge/server/internal/world"
)

const holdForever = math.MaxUint64

// Marks is the set of coordinates reserved by in-flight activations. A
// processing mark set on tick T suppresses re-entry until the sweep at the
// start of T+1's ability phase, which runs after that tick's event dispatch.
// Holds last until released and cover blocks an activation has temporarily
// replaced (frozen blocks).
type Marks struct {
	expiry map[world.Coord]uint64
}

func NewMarks() *Marks {
	return &Marks{expiry: make(map[world.Coord]uint64)}
}

// Mark reserves c for the current tick.
func (m *Marks) Mark(c world.Coord, now uint64) {
	m.expiry[c] = now + 1
}

// Hold reserves c until Unhold or a later Mark.
func (m *Marks) Hold(c world.Coord) {
	m.expiry[c] = holdForever
}

// Unhold drops a hold. Short-lived marks are left to the sweep.
func (m *Marks) Unhold(c world.Coord) {
	if m.expiry[c] == holdForever {
		delete(m.expiry, c)
	}
}

func (m *Marks) Marked(c world.Coord) bool {
	_, ok := m.expiry[c]
	return ok
}

// Sweep clears marks that expire at or before now. Returns how many.
func (m *Marks) Sweep(now uint64) int {
	n := 0
	for c, exp := range m.expiry {
		if exp <= now {
			delete(m.expiry, c)
			n++
		}
	}
	return n
}

func (m *Marks) Len() int { return len(m.expiry) }
