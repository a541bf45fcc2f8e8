package system

import (
	"context"
	"errors"
	gonet "net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/prisonforge/server/internal/ability"
	"github.com/prisonforge/server/internal/config"
	"github.com/prisonforge/server/internal/core/ecs"
	"github.com/prisonforge/server/internal/core/event"
	"github.com/prisonforge/server/internal/core/sched"
	"github.com/prisonforge/server/internal/economy"
	"github.com/prisonforge/server/internal/handler"
	"github.com/prisonforge/server/internal/net"
	"github.com/prisonforge/server/internal/net/packet"
	"github.com/prisonforge/server/internal/world"
)

type chanSource chan *net.Session

func (c chanSource) NewSessions() <-chan *net.Session { return c }

func pipeSession(t *testing.T, id uint64) *net.Session {
	t.Helper()
	server, client := gonet.Pipe()
	t.Cleanup(func() { client.Close(); server.Close() })
	return net.NewSession(server, id, 8, 2, 0, zap.NewNop())
}

type inputHarness struct {
	input  *InputSystem
	source chanSource
	store  *net.SessionStore
	world  *world.State
	bus    *event.Bus
	quits  []world.ActorID
}

func newInputHarness(t *testing.T) *inputHarness {
	t.Helper()
	h := &inputHarness{
		source: make(chanSource, 4),
		store:  net.NewSessionStore(),
		world:  world.NewState(world.NewBlockStore(0, 255)),
		bus:    event.NewBus(),
	}
	deps := &handler.Deps{
		Config: &config.Config{Server: config.ServerConfig{Name: "test", TickRate: 50 * time.Millisecond}},
		Log:    zap.NewNop(),
		World:  h.world,
		Bus:    h.bus,
		Roster: handler.NewRoster(),
	}
	reg := packet.NewRegistry(zap.NewNop())
	handler.RegisterAll(reg, deps)
	event.Subscribe(h.bus, func(e event.PlayerDisconnected) { h.quits = append(h.quits, e.Actor) })
	h.input = NewInputSystem(h.source, reg, h.store, deps.Roster, h.world, h.bus, 16, zap.NewNop())
	return h
}

func (h *inputHarness) deliver() {
	h.bus.SwapBuffers()
	h.bus.DispatchAll()
}

func helloFrame() []byte {
	w := packet.NewWriterWithOpcode(packet.C_OPCODE_HELLO)
	w.WriteD(packet.ProtocolVersion)
	w.WriteS("paper-1")
	return w.Bytes()
}

func joinFrame(actor uint64) []byte {
	w := packet.NewWriterWithOpcode(packet.C_OPCODE_JOIN)
	w.WriteQ(actor)
	w.WriteS("p")
	w.WriteS("mine")
	w.WriteVec(world.Vec3{})
	return w.Bytes()
}

func TestInputAcceptsAndDispatches(t *testing.T) {
	h := newInputHarness(t)
	sess := pipeSession(t, 1)
	h.source <- sess
	sess.InQueue <- helloFrame()
	sess.InQueue <- joinFrame(7)

	h.input.Update(0)

	assert.Equal(t, 1, h.store.Len())
	assert.Equal(t, packet.StateReady, sess.State())
	assert.True(t, h.world.Online(7))
}

func TestInputDrainsClosedSessionBeforeDisconnect(t *testing.T) {
	h := newInputHarness(t)
	sess := pipeSession(t, 1)
	h.source <- sess
	sess.InQueue <- helloFrame()
	sess.InQueue <- joinFrame(7)
	sess.InQueue <- joinFrame(8)
	h.input.Update(0)
	h.deliver()

	quit := packet.NewWriterWithOpcode(packet.C_OPCODE_QUIT)
	quit.WriteQ(7)
	sess.InQueue <- quit.Bytes()
	sess.Close()

	h.input.Update(0)
	h.deliver()

	assert.Zero(t, h.store.Len())
	assert.False(t, h.world.Online(7))
	assert.False(t, h.world.Online(8))
	assert.Equal(t, []world.ActorID{7, 8}, h.quits, "the quit frame first, then the rest of the roster")
}

func TestInputRespectsFrameLimit(t *testing.T) {
	h := newInputHarness(t)
	h.input.maxPerTick = 2
	sess := pipeSession(t, 1)
	h.source <- sess
	sess.InQueue <- helloFrame()
	sess.InQueue <- joinFrame(1)
	sess.InQueue <- joinFrame(2)

	h.input.Update(0)
	assert.True(t, h.world.Online(1))
	assert.False(t, h.world.Online(2))

	h.input.Update(0)
	assert.True(t, h.world.Online(2))
}

type hostGauge struct{ n int }

func (g *hostGauge) SetHosts(n int) { g.n = n }

func TestOutputFlushesAndCountsReadyHosts(t *testing.T) {
	store := net.NewSessionStore()
	ready := pipeSession(t, 1)
	ready.SetState(packet.StateReady)
	pending := pipeSession(t, 2)
	store.Add(ready)
	store.Add(pending)

	store.Broadcast([]byte{packet.S_OPCODE_MESSAGE})
	require.Equal(t, 1, ready.Buffered())
	require.Zero(t, pending.Buffered())

	gauge := &hostGauge{}
	NewOutputSystem(store, gauge).Update(0)

	assert.Zero(t, ready.Buffered())
	assert.Len(t, ready.OutQueue, 1)
	assert.Equal(t, 1, gauge.n)
}

func TestEventDispatchDeliversLastTick(t *testing.T) {
	bus := event.NewBus()
	var got []world.ActorID
	event.Subscribe(bus, func(e event.PlayerJoined) { got = append(got, e.Actor) })
	sys := NewEventDispatchSystem(bus)

	event.Emit(bus, event.PlayerJoined{Actor: 3})
	assert.Empty(t, got)
	sys.Update(0)
	assert.Equal(t, []world.ActorID{3}, got)
	sys.Update(0)
	assert.Len(t, got, 1)
}

type messages struct {
	ability.Presenter
	sent map[world.ActorID][]string
}

func (m *messages) Message(actor world.ActorID, text string) {
	if m.sent == nil {
		m.sent = make(map[world.ActorID][]string)
	}
	m.sent[actor] = append(m.sent[actor], text)
}

func TestBoosterSystemAnnouncesExpiry(t *testing.T) {
	clock := sched.New()
	boosters := economy.NewBoosters(clock)
	require.True(t, boosters.Grant(1, "money", 2, 2))
	require.True(t, boosters.Grant(1, economy.AnyKind, 1.5, 5))

	pres := &messages{}
	sys := NewBoosterSystem(boosters, pres, zap.NewNop())
	for i := 0; i < 3; i++ {
		clock.Advance()
		sys.Update(0)
	}
	assert.Equal(t, []string{"Your money booster (x2.00) has expired"}, pres.sent[1])

	for i := 0; i < 3; i++ {
		clock.Advance()
		sys.Update(0)
	}
	assert.Equal(t, "Your reward booster (x1.50) has expired", pres.sent[1][1])
	assert.Zero(t, boosters.Len())
}

type fakeFlusher struct {
	pending int
	calls   int
	err     error
}

func (f *fakeFlusher) Flush(context.Context) (int, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	n := f.pending
	f.pending = 0
	return n, nil
}

func (f *fakeFlusher) Pending() int { return f.pending }

type flushGauge struct {
	results []error
	pending int
}

func (g *flushGauge) LedgerFlushed(err error, pending int) {
	g.results = append(g.results, err)
	g.pending = pending
}

func TestPersistenceFlushesOnInterval(t *testing.T) {
	ledger := &fakeFlusher{}
	gauge := &flushGauge{}
	sys := NewPersistenceSystem(ledger, gauge, zap.NewNop(), 3)

	for i := 0; i < 3; i++ {
		sys.Update(0)
	}
	assert.Zero(t, ledger.calls, "an empty ledger is never flushed")

	ledger.pending = 4
	sys.Update(0)
	sys.Update(0)
	assert.Zero(t, ledger.calls)
	sys.Update(0)
	assert.Equal(t, 1, ledger.calls)
	assert.Zero(t, ledger.pending)
	assert.Equal(t, []error{nil}, gauge.results)
}

func TestPersistenceKeepsDeltasOnFailure(t *testing.T) {
	ledger := &fakeFlusher{pending: 2, err: errors.New("db down")}
	gauge := &flushGauge{}
	sys := NewPersistenceSystem(ledger, gauge, zap.NewNop(), 1)

	sys.Update(0)
	assert.Equal(t, 2, gauge.pending)
	assert.EqualError(t, sys.FlushNow(), "db down")

	ledger.err = nil
	require.NoError(t, sys.FlushNow())
	assert.Equal(t, 3, ledger.calls)
	assert.Zero(t, gauge.pending)
}

type groundCounter struct{ calls int }

func (g *groundCounter) ExpireGround() int {
	g.calls++
	return 0
}

func TestCleanupAndGround(t *testing.T) {
	ents := ecs.NewWorld()
	id := ents.CreateEntity()
	ents.MarkForDestruction(id)
	require.True(t, ents.Alive(id))
	NewCleanupSystem(ents).Update(0)
	assert.False(t, ents.Alive(id))

	g := &groundCounter{}
	NewGroundItemSystem(g).Update(0)
	assert.Equal(t, 1, g.calls)
}
