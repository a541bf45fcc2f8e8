package ability

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/prisonforge/server/internal/core/ecs"
	"github.com/prisonforge/server/internal/core/sched"
	"github.com/prisonforge/server/internal/data"
	"github.com/prisonforge/server/internal/region"
	"github.com/prisonforge/server/internal/world"
)

const (
	mine  = "mine"
	alice = world.ActorID(1)
	bob   = world.ActorID(2)
)

// fakePresenter records everything shown to players.
type fakePresenter struct {
	nextBar     BarID
	bars        map[BarID]world.ActorID
	barRemovals map[BarID]int
	barUpdates  int
	messages    map[world.ActorID][]string
	titles      map[world.ActorID][]string
	sounds      []string
	particles   []string
	floating    map[ecs.EntityID]world.Vec3
	spawned     int
	footShows   int
	footHides   int
	footprints  map[string]bool
}

func newFakePresenter() *fakePresenter {
	return &fakePresenter{
		bars:        make(map[BarID]world.ActorID),
		barRemovals: make(map[BarID]int),
		messages:    make(map[world.ActorID][]string),
		titles:      make(map[world.ActorID][]string),
		floating:    make(map[ecs.EntityID]world.Vec3),
		footprints:  make(map[string]bool),
	}
}

func (p *fakePresenter) ShowBar(actor world.ActorID, _ string, _ float64) BarID {
	p.nextBar++
	p.bars[p.nextBar] = actor
	return p.nextBar
}

func (p *fakePresenter) UpdateBar(BarID, string, float64) { p.barUpdates++ }

func (p *fakePresenter) RemoveBar(id BarID) {
	p.barRemovals[id]++
	delete(p.bars, id)
}

func (p *fakePresenter) Title(actor world.ActorID, title, subtitle string) {
	p.titles[actor] = append(p.titles[actor], title+": "+subtitle)
}

func (p *fakePresenter) Message(actor world.ActorID, text string) {
	p.messages[actor] = append(p.messages[actor], text)
}

func (p *fakePresenter) Sound(_ world.Coord, sound string) { p.sounds = append(p.sounds, sound) }

func (p *fakePresenter) Particle(_ world.Coord, particle string, _ int) {
	p.particles = append(p.particles, particle)
}

func (p *fakePresenter) SpawnFloating(id ecs.EntityID, _ world.Material, from world.Coord) {
	p.spawned++
	p.floating[id] = from.Center()
}

func (p *fakePresenter) MoveFloating(id ecs.EntityID, at world.Vec3, _ float64) { p.floating[id] = at }
func (p *fakePresenter) RemoveFloating(id ecs.EntityID)                         { delete(p.floating, id) }

func (p *fakePresenter) ShowFootprint(key string, _ world.Coord, _ int) {
	p.footShows++
	p.footprints[key] = true
}

func (p *fakePresenter) HideFootprint(key string) {
	p.footHides++
	delete(p.footprints, key)
}

// fakeEconomy keeps balances on the player records and prices from the
// material table.
type fakeEconomy struct {
	state     *world.State
	materials *data.MaterialTable
	refuse    bool
	panicOn   world.Material
	deposits  float64
}

func (e *fakeEconomy) SellPrice(m world.Material) (float64, bool) {
	if m == e.panicOn && m != "" {
		panic("price service exploded")
	}
	return e.materials.SellPrice(m)
}

func (e *fakeEconomy) Deposit(actor world.ActorID, kind string, value float64) bool {
	p := e.state.Get(actor)
	if e.refuse || p == nil {
		return false
	}
	p.Balances[kind] += value
	e.deposits += value
	return true
}

func (e *fakeEconomy) Withdraw(actor world.ActorID, kind string, value float64) bool {
	p := e.state.Get(actor)
	if p == nil || p.Balances[kind] < value {
		return false
	}
	p.Balances[kind] -= value
	return true
}

type fakeLedger struct {
	raw map[world.ActorID]int64
}

func (l *fakeLedger) AddRawBlockCount(actor world.ActorID, delta int64) { l.raw[actor] += delta }
func (l *fakeLedger) AddCurrency(world.ActorID, string, float64)        {}

type fixedMultiplier float64

func (m fixedMultiplier) CurrentMultiplier(world.ActorID, string) float64 { return float64(m) }

// stepClock advances by step every time it is read.
type stepClock struct {
	t    time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	t := c.t
	c.t = c.t.Add(c.step)
	return t
}

type frozenClock struct{ t time.Time }

func (c frozenClock) Now() time.Time { return c.t }

// failingBlocks refuses writes to one coordinate.
type failingBlocks struct {
	*world.BlockStore
	bad world.Coord
}

func (b failingBlocks) SetBlock(c world.Coord, m world.Material) error {
	if c == b.bad {
		return errors.New("chunk unloaded")
	}
	return b.BlockStore.SetBlock(c, m)
}

type countingRecorder struct {
	outcomes map[Outcome]int
	finished map[State]int
	refused  map[string]int
	yields   int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{
		outcomes: make(map[Outcome]int),
		finished: make(map[State]int),
		refused:  make(map[string]int),
	}
}

func (r *countingRecorder) BlockProcessed(_ Kind, o Outcome)      { r.outcomes[o]++ }
func (r *countingRecorder) ActivationFinished(_ Kind, s State)    { r.finished[s]++ }
func (r *countingRecorder) ActivationRefused(_ Kind, code string) { r.refused[code]++ }
func (r *countingRecorder) BudgetYield(Kind)                      { r.yields++ }
func (r *countingRecorder) AnimatedActors(int)                    {}

var testMaterials = []data.MaterialDef{
	{ID: "STONE", Price: 1.5},
	{ID: "COBBLESTONE", Price: 0.5},
	{ID: "DIAMOND_ORE", Price: 10, Drops: []data.DropEntry{{Item: "DIAMOND", Count: 2}}},
	{ID: "BEDROCK", Protected: true},
	{ID: "PACKED_ICE", Protected: true},
}

type testEnv struct {
	t         *testing.T
	state     *world.State
	materials *data.MaterialTable
	sched     *sched.Scheduler
	ents      *ecs.World
	pres      *fakePresenter
	econ      *fakeEconomy
	ledger    *fakeLedger
	rec       *countingRecorder
	engine    *Engine
	broken    []world.Coord
}

type envOption func(*Deps)

func withClock(c Clock) envOption          { return func(d *Deps) { d.Clock = c } }
func withRegions(r RegionOracle) envOption { return func(d *Deps) { d.Regions = r } }
func withBlocks(b Blocks) envOption        { return func(d *Deps) { d.Blocks = b } }
func withMultipliers(m ...MultiplierSource) envOption {
	return func(d *Deps) { d.Multipliers = m }
}

// newTestEnv builds an engine over a solid stone mine spanning x,z -20..20
// and y 40..64, with alice online standing on top of it.
func newTestEnv(t *testing.T, settings map[Kind]Settings, opts ...envOption) *testEnv {
	t.Helper()
	blocks := world.NewBlockStore(0, 128)
	blocks.Fill(world.Coord{World: mine, X: -20, Y: 40, Z: -20}, world.Coord{World: mine, X: 20, Y: 64, Z: 20}, "STONE")

	env := &testEnv{
		t:         t,
		state:     world.NewState(blocks),
		materials: data.NewMaterialTable(testMaterials),
		sched:     sched.New(),
		ents:      ecs.NewWorld(),
		pres:      newFakePresenter(),
		ledger:    &fakeLedger{raw: make(map[world.ActorID]int64)},
		rec:       newCountingRecorder(),
	}
	env.econ = &fakeEconomy{state: env.state, materials: env.materials}
	env.addPlayer(alice, world.Vec3{X: 0.5, Y: 65, Z: 0.5})

	d := Deps{
		Players:          env.state,
		Blocks:           blocks,
		Materials:        env.materials,
		Regions:          region.NewOracle(nil, true),
		Economy:          env.econ,
		Inventory:        env.state,
		Ground:           env.state.Ground,
		Ledger:           env.ledger,
		Presenter:        env.pres,
		Timers:           env.sched,
		Entities:         env.ents,
		Clock:            frozenClock{t: time.Unix(1_700_000_000, 0)},
		Recorder:         env.rec,
		Rand:             rand.New(rand.NewSource(7)),
		RewardFlushTicks: 10,
		OnBreak: func(_ world.ActorID, c world.Coord, _ world.Material) {
			env.broken = append(env.broken, c)
		},
	}
	for _, o := range opts {
		o(&d)
	}
	env.engine = NewEngine(d, settings)
	return env
}

func (e *testEnv) addPlayer(id world.ActorID, pos world.Vec3) *world.PlayerInfo {
	p := &world.PlayerInfo{ID: id, Name: "player", World: mine, Pos: pos, Facing: world.Vec3{X: 1}}
	e.state.AddPlayer(p)
	return p
}

// tick runs one game-loop tick in phase order: timers, abilities, cleanup.
func (e *testEnv) tick() {
	e.sched.Advance()
	e.engine.Tick(e.sched.Now())
	e.ents.FlushDestroyQueue()
}

// runUntilIdle ticks until no task is in flight, failing after limit ticks.
func (e *testEnv) runUntilIdle(limit int) int {
	e.t.Helper()
	for i := 1; i <= limit; i++ {
		e.tick()
		if len(e.engine.Tasks()) == 0 {
			return i
		}
	}
	require.FailNow(e.t, "tasks still running", "after %d ticks", limit)
	return limit
}

func (e *testEnv) at(x, y, z int) world.Coord {
	return world.Coord{World: mine, X: x, Y: y, Z: z}
}

func (e *testEnv) runtime() *runtime { return e.engine.rt }

func baseSettings() Settings {
	return Settings{
		Enabled:        true,
		BlocksPerTick:  1000,
		RewardKind:     DefaultRewardKind,
		MarkerMaterial: "PACKED_ICE",
		MaxTicks:       1200,
	}
}
