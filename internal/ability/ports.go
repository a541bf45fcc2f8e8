package ability

import (
	"time"

	"github.com/prisonforge/server/internal/core/ecs"
	"github.com/prisonforge/server/internal/core/sched"
	"github.com/prisonforge/server/internal/region"
	"github.com/prisonforge/server/internal/world"
)

// Collaborators the engine consumes. Everything here is called from the
// game loop goroutine only.

// Players answers reachability questions about actors.
type Players interface {
	Get(id world.ActorID) *world.PlayerInfo
	Online(id world.ActorID) bool
	Position(id world.ActorID) (world.Vec3, string, bool)
}

// Blocks reads and writes world blocks.
type Blocks interface {
	Block(c world.Coord) world.Material
	SetBlock(c world.Coord, m world.Material) error
}

// Materials is the static material table.
type Materials interface {
	Protected(m world.Material) bool
	Drops(m world.Material) []world.ItemStack
}

// RegionOracle decides where effects are allowed.
type RegionOracle interface {
	EffectAllowed(c world.Coord) bool
	BoundsContaining(c world.Coord) []region.Bounds
}

// Economy prices and pays out.
type Economy interface {
	SellPrice(m world.Material) (float64, bool)
	Deposit(actor world.ActorID, kind string, value float64) bool
	Withdraw(actor world.ActorID, kind string, value float64) bool
}

// InventorySink stores collected items and returns what did not fit.
type InventorySink interface {
	TryAddItems(actor world.ActorID, items []world.ItemStack) []world.ItemStack
}

// GroundSink drops items into the world.
type GroundSink interface {
	Spill(at world.Coord, owner world.ActorID, items []world.ItemStack) []*world.GroundItem
}

// PersistenceSink records profile deltas. Fire-and-forget.
type PersistenceSink interface {
	AddRawBlockCount(actor world.ActorID, delta int64)
	AddCurrency(actor world.ActorID, kind string, delta float64)
}

// BarID identifies a progress bar shown to one actor.
type BarID uint64

// Presenter renders feedback. Best-effort: implementations log their own
// failures and never report them back.
type Presenter interface {
	ShowBar(actor world.ActorID, title string, progress float64) BarID
	UpdateBar(id BarID, title string, progress float64)
	RemoveBar(id BarID)

	Title(actor world.ActorID, title, subtitle string)
	Message(actor world.ActorID, text string)
	Sound(at world.Coord, sound string)
	Particle(at world.Coord, particle string, count int)

	SpawnFloating(id ecs.EntityID, m world.Material, from world.Coord)
	MoveFloating(id ecs.EntityID, at world.Vec3, yaw float64)
	RemoveFloating(id ecs.EntityID)

	ShowFootprint(key string, center world.Coord, radius int)
	HideFootprint(key string)
}

// MultiplierSource is one independently owned reward multiplier.
type MultiplierSource interface {
	CurrentMultiplier(actor world.ActorID, rewardKind string) float64
}

// Timers schedules one-shot callbacks in ticks.
type Timers interface {
	Now() uint64
	After(ticks uint64, fn func()) sched.Timer
	Cancel(t sched.Timer) bool
}

// Clock is the wall clock used for per-tick budgets.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock reads time.Now.
var SystemClock Clock = systemClock{}

// Recorder receives engine measurements. A nil Recorder is allowed.
type Recorder interface {
	BlockProcessed(kind Kind, outcome Outcome)
	ActivationFinished(kind Kind, state State)
	ActivationRefused(kind Kind, code string)
	BudgetYield(kind Kind)
	AnimatedActors(n int)
}

type nopRecorder struct{}

func (nopRecorder) BlockProcessed(Kind, Outcome)   {}
func (nopRecorder) ActivationFinished(Kind, State) {}
func (nopRecorder) ActivationRefused(Kind, string) {}
func (nopRecorder) BudgetYield(Kind)               {}
func (nopRecorder) AnimatedActors(int)             {}
