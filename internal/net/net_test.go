package net

import (
	"bytes"
	gonet "net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/prisonforge/server/internal/config"
	"github.com/prisonforge/server/internal/net/packet"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, []byte{packet.C_OPCODE_DISABLE}))
	assert.Equal(t, []byte{3, 0, packet.C_OPCODE_DISABLE}, buf.Bytes())

	got, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{packet.C_OPCODE_DISABLE}, got)
}

func TestFrameErrors(t *testing.T) {
	assert.Error(t, WriteFrame(&bytes.Buffer{}, nil))
	assert.Error(t, WriteFrame(&bytes.Buffer{}, make([]byte, MaxPayload+1)))

	_, err := ReadFrame(bytes.NewReader([]byte{2, 0}))
	assert.ErrorContains(t, err, "invalid frame length")

	_, err = ReadFrame(bytes.NewReader([]byte{10, 0, 1, 2}))
	assert.ErrorContains(t, err, "read frame payload")
}

func testNetworkConfig() config.NetworkConfig {
	return config.NetworkConfig{
		Enabled:      true,
		BindAddress:  "127.0.0.1:0",
		InQueueSize:  8,
		OutQueueSize: 8,
		WriteTimeout: time.Second,
	}
}

func TestServerSessionLifecycle(t *testing.T) {
	init := packet.NewWriterWithOpcode(packet.S_OPCODE_INIT)
	init.WriteD(packet.ProtocolVersion)

	srv, err := NewServer(testNetworkConfig(), init.Bytes(), zap.NewNop())
	require.NoError(t, err)
	defer srv.Shutdown()
	go srv.AcceptLoop()

	conn, err := gonet.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))

	first, err := ReadFrame(conn)
	require.NoError(t, err)
	assert.Equal(t, init.Bytes(), first)

	var sess *Session
	select {
	case sess = <-srv.NewSessions():
	case <-time.After(5 * time.Second):
		t.Fatal("no session")
	}
	assert.Equal(t, packet.StateHandshake, sess.State())

	require.NoError(t, WriteFrame(conn, []byte{packet.C_OPCODE_DISABLE}))
	select {
	case in := <-sess.InQueue:
		assert.Equal(t, []byte{packet.C_OPCODE_DISABLE}, in)
	case <-time.After(5 * time.Second):
		t.Fatal("frame not queued")
	}

	store := NewSessionStore()
	store.Add(sess)
	store.Broadcast([]byte{packet.S_OPCODE_BAR_REMOVE})
	assert.Zero(t, sess.Buffered(), "handshaking sessions receive no broadcasts")

	sess.SetState(packet.StateReady)
	store.Broadcast([]byte{packet.S_OPCODE_BAR_REMOVE})
	sess.FlushOutput()
	out, err := ReadFrame(conn)
	require.NoError(t, err)
	assert.Equal(t, []byte{packet.S_OPCODE_BAR_REMOVE}, out)

	conn.Close()
	assert.Eventually(t, sess.IsClosed, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, packet.StateDisconnecting, sess.State())
	sess.Send([]byte{packet.S_OPCODE_BAR_REMOVE})
	assert.Zero(t, sess.Buffered())
}

func TestSlowHostIsDropped(t *testing.T) {
	server, client := gonet.Pipe()
	defer client.Close()
	sess := NewSession(server, 1, 1, 1, 0, zap.NewNop())
	sess.SetState(packet.StateReady)

	for i := 0; i < 3; i++ {
		sess.Send([]byte{packet.S_OPCODE_BAR_REMOVE})
	}
	sess.FlushOutput()

	assert.True(t, sess.IsClosed())
	assert.Zero(t, sess.Buffered())
}

func TestDrainWritesQueuedFrames(t *testing.T) {
	server, client := gonet.Pipe()
	defer client.Close()
	sess := NewSession(server, 1, 1, 4, time.Second, zap.NewNop())

	got := make(chan [][]byte, 1)
	go func() {
		var frames [][]byte
		for {
			f, err := ReadFrame(client)
			if err != nil {
				got <- frames
				return
			}
			frames = append(frames, f)
		}
	}()

	init := []byte{packet.S_OPCODE_INIT}
	sess.Start(init)
	sess.SetState(packet.StateReady)
	for i := byte(0); i < 3; i++ {
		sess.Send([]byte{packet.S_OPCODE_MESSAGE, i})
	}
	sess.FlushOutput()

	assert.True(t, sess.Drain(5*time.Second))
	assert.True(t, sess.IsClosed())
	select {
	case frames := <-got:
		assert.Equal(t, [][]byte{
			init,
			{packet.S_OPCODE_MESSAGE, 0},
			{packet.S_OPCODE_MESSAGE, 1},
			{packet.S_OPCODE_MESSAGE, 2},
		}, frames)
	case <-time.After(5 * time.Second):
		t.Fatal("connection not closed after drain")
	}
}

func TestDrainAllCutsOffStalledHosts(t *testing.T) {
	server, client := gonet.Pipe()
	defer client.Close()
	stalled := NewSession(server, 1, 1, 4, 0, zap.NewNop())
	go ReadFrame(client)
	stalled.Start([]byte{packet.S_OPCODE_INIT})
	stalled.Send([]byte{packet.S_OPCODE_MESSAGE})
	stalled.Send([]byte{packet.S_OPCODE_MESSAGE})
	stalled.FlushOutput()

	idleServer, idleClient := gonet.Pipe()
	defer idleClient.Close()
	idle := NewSession(idleServer, 2, 1, 4, 0, zap.NewNop())

	store := NewSessionStore()
	store.Add(stalled)
	store.Add(idle)

	assert.Equal(t, 1, store.DrainAll(50*time.Millisecond))
	assert.True(t, stalled.IsClosed())
	assert.True(t, idle.IsClosed())
}
