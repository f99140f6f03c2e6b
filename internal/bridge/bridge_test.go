package bridge_test

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"dam/internal/bridge"
	"dam/internal/draughts"
	"dam/internal/engine"
	"dam/internal/hub"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const recvTimeout = 10 * time.Second

// newTestBridge returns a started bridge with its sink wired to a channel.
// The startup wait line is already consumed.
func newTestBridge(t *testing.T) (*bridge.Bridge, chan string) {
	t.Helper()
	b := bridge.New(engine.New(engine.Config{}), zerolog.Nop())
	msgs := make(chan string, 256)
	b.SetMessageSink(func(line string) { msgs <- line })

	require.NoError(t, b.Init())
	require.NoError(t, b.Start())
	t.Cleanup(b.Shutdown)

	require.Equal(t, "wait", recv(t, msgs))
	return b, msgs
}

func recv(t *testing.T, msgs chan string) string {
	t.Helper()
	select {
	case m := <-msgs:
		return m
	case <-time.After(recvTimeout):
		t.Fatal("timed out waiting for sink message")
		return ""
	}
}

// recvUntil collects sink lines up to and including the first line for
// which stop returns true.
func recvUntil(t *testing.T, msgs chan string, stop func(string) bool) []string {
	t.Helper()
	var lines []string
	for {
		line := recv(t, msgs)
		lines = append(lines, line)
		if stop(line) {
			return lines
		}
	}
}

func assertSilent(t *testing.T, msgs chan string) {
	t.Helper()
	select {
	case m := <-msgs:
		t.Fatalf("unexpected message %q", m)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestLifecycle(t *testing.T) {
	b := bridge.New(engine.New(engine.Config{}), zerolog.Nop())
	assert.Equal(t, bridge.StatusStopped, b.Status())
	assert.False(t, b.IsReady())

	require.NoError(t, b.Init())
	assert.Equal(t, bridge.StatusReady, b.Status())

	require.NoError(t, b.Start())
	t.Cleanup(b.Shutdown)
	assert.True(t, b.IsReady())
	assert.True(t, b.WaitReady(time.Second))
}

func TestInitTwice(t *testing.T) {
	b := bridge.New(engine.New(engine.Config{}), zerolog.Nop())
	require.NoError(t, b.Init())
	assert.ErrorIs(t, b.Init(), bridge.ErrAlreadyRunning)
	assert.Equal(t, bridge.StatusReady, b.Status())
}

func TestSendCommandWhileStopped(t *testing.T) {
	b := bridge.New(engine.New(engine.Config{}), zerolog.Nop())
	assert.ErrorIs(t, b.SendCommand("ping"), bridge.ErrNotInitialized)
}

func TestSendCommandEmpty(t *testing.T) {
	b, _ := newTestBridge(t)
	assert.ErrorIs(t, b.SendCommand(""), bridge.ErrInvalidCommand)
}

func TestPingPong(t *testing.T) {
	b, msgs := newTestBridge(t)
	require.NoError(t, b.SendCommand("ping"))
	assert.Equal(t, "pong", recv(t, msgs))
}

func TestWhitespaceLineMissingCommand(t *testing.T) {
	b, msgs := newTestBridge(t)
	require.NoError(t, b.SendCommand("   "))
	assert.Equal(t, `error message="missing command"`, recv(t, msgs))
}

func TestUnknownCommand(t *testing.T) {
	b, msgs := newTestBridge(t)
	require.NoError(t, b.SendCommand("bogus"))
	assert.Equal(t, `error message="unknown command: bogus"`, recv(t, msgs))
}

func TestHubAdvertisement(t *testing.T) {
	b, msgs := newTestBridge(t)
	require.NoError(t, b.SendCommand("hub"))

	lines := recvUntil(t, msgs, func(l string) bool { return l == "wait" })
	require.GreaterOrEqual(t, len(lines), 3)

	id, err := hub.Parse(lines[0])
	require.NoError(t, err)
	assert.Equal(t, "id", id.Command)
	name, _ := id.Get("name")
	assert.Equal(t, "dam", name)

	// One param line per tunable between id and wait.
	params := lines[1 : len(lines)-1]
	assert.Len(t, params, 7)
	for _, l := range params {
		m, err := hub.Parse(l)
		require.NoError(t, err)
		assert.Equal(t, "param", m.Command)
	}
}

func TestSetParamReflectedInAdvertisement(t *testing.T) {
	b, msgs := newTestBridge(t)
	require.NoError(t, b.SendCommand("set-param name=variant value=frisian"))
	require.NoError(t, b.SendCommand("hub"))

	lines := recvUntil(t, msgs, func(l string) bool { return l == "wait" })
	found := false
	for _, l := range lines {
		m, err := hub.Parse(l)
		require.NoError(t, err)
		if name, _ := m.Get("name"); m.Command == "param" && name == "variant" {
			value, _ := m.Get("value")
			assert.Equal(t, "frisian", value)
			found = true
		}
	}
	assert.True(t, found, "no variant param line in %v", lines)
}

func TestSetParamErrors(t *testing.T) {
	b, msgs := newTestBridge(t)

	require.NoError(t, b.SendCommand("set-param value=1"))
	assert.Equal(t, `error message="missing parameter name"`, recv(t, msgs))

	require.NoError(t, b.SendCommand("set-param name=variant value=checkers"))
	assert.Contains(t, recv(t, msgs), "invalid parameter")
}

func TestInitDisablesMissingBook(t *testing.T) {
	b, msgs := newTestBridge(t)

	// No book or bitbase files are configured, so init disables both and
	// still reports ready.
	require.NoError(t, b.SendCommand("init"))
	assert.Equal(t, "ready", recv(t, msgs))

	require.NoError(t, b.SendCommand("hub"))
	lines := recvUntil(t, msgs, func(l string) bool { return l == "wait" })
	for _, l := range lines {
		m, err := hub.Parse(l)
		require.NoError(t, err)
		if name, _ := m.Get("name"); m.Command == "param" && name == "book" {
			value, _ := m.Get("value")
			assert.Equal(t, "false", value)
		}
		if name, _ := m.Get("name"); m.Command == "param" && name == "bb-size" {
			value, _ := m.Get("value")
			assert.Equal(t, "0", value)
		}
	}
}

func TestGoProducesLegalMove(t *testing.T) {
	b, msgs := newTestBridge(t)

	require.NoError(t, b.SendCommand(`pos start moves="32-28 19-23"`))
	require.NoError(t, b.SendCommand("level depth=4"))
	require.NoError(t, b.SendCommand("go think"))

	lines := recvUntil(t, msgs, func(l string) bool { return strings.HasPrefix(l, "done") })
	done, err := hub.Parse(lines[len(lines)-1])
	require.NoError(t, err)

	moveText, ok := done.Get("move")
	require.True(t, ok, "done line without move: %v", lines)

	want := draughts.Start()
	for _, text := range []string{"32-28", "19-23"} {
		m, err := draughts.ParseMove(text, want)
		require.NoError(t, err)
		want = draughts.Apply(want, m)
	}
	_, err = draughts.ParseMove(moveText, want)
	assert.NoError(t, err, "engine played %s", moveText)

	assert.Equal(t, bridge.StatusReady, b.Status())
}

func TestPosPartialApplication(t *testing.T) {
	b, msgs := newTestBridge(t)

	// The second move belongs to white but black is to move; the first
	// move stays applied.
	require.NoError(t, b.SendCommand(`pos start moves="32-28 31-27"`))
	errLine := recv(t, msgs)
	assert.Contains(t, errLine, "illegal move")
	assert.Contains(t, errLine, "31-27")

	require.NoError(t, b.SendCommand("level depth=2"))
	require.NoError(t, b.SendCommand("go think"))
	lines := recvUntil(t, msgs, func(l string) bool { return strings.HasPrefix(l, "done") })
	done, err := hub.Parse(lines[len(lines)-1])
	require.NoError(t, err)
	moveText, ok := done.Get("move")
	require.True(t, ok)

	after, err := draughts.ParseMove("32-28", draughts.Start())
	require.NoError(t, err)
	blackToMove := draughts.Apply(draughts.Start(), after)
	_, err = draughts.ParseMove(moveText, blackToMove)
	assert.NoError(t, err, "engine played %s for black", moveText)
}

func TestPosRejectsBadPosition(t *testing.T) {
	b, msgs := newTestBridge(t)
	require.NoError(t, b.SendCommand("pos pos=XYZ"))
	assert.Equal(t, `error message="bad position"`, recv(t, msgs))
}

func TestCommandsDispatchInOrderExactlyOnce(t *testing.T) {
	b, msgs := newTestBridge(t)

	const n = 5
	for i := 0; i < n; i++ {
		require.NoError(t, b.SendCommand("ping"))
	}
	for i := 0; i < n; i++ {
		assert.Equal(t, "pong", recv(t, msgs), "reply %d", i)
	}
	assertSilent(t, msgs)
}

func TestStopInterruptsSearch(t *testing.T) {
	b, msgs := newTestBridge(t)

	require.NoError(t, b.SendCommand("level depth=30"))
	require.NoError(t, b.SendCommand("go think"))

	deadline := time.Now().Add(5 * time.Second)
	for b.Status() != bridge.StatusThinking {
		require.True(t, time.Now().Before(deadline), "engine never started thinking")
		time.Sleep(10 * time.Millisecond)
	}

	require.NoError(t, b.SendCommand("stop"))

	lines := recvUntil(t, msgs, func(l string) bool { return strings.HasPrefix(l, "done") })
	done, err := hub.Parse(lines[len(lines)-1])
	require.NoError(t, err)
	assert.True(t, done.Has("move"))
	assert.Equal(t, bridge.StatusReady, b.Status())

	// The stop applied to that search only; a shallow follow-up search
	// still completes normally.
	require.NoError(t, b.SendCommand("level depth=2"))
	require.NoError(t, b.SendCommand("go think"))
	lines = recvUntil(t, msgs, func(l string) bool { return strings.HasPrefix(l, "done") })
	assert.NotEmpty(t, lines)
}

func TestNewGameResets(t *testing.T) {
	b, msgs := newTestBridge(t)

	require.NoError(t, b.SendCommand(`pos start moves="32-28"`))
	require.NoError(t, b.SendCommand("new-game"))
	require.NoError(t, b.SendCommand("level depth=2"))
	require.NoError(t, b.SendCommand("go think"))

	lines := recvUntil(t, msgs, func(l string) bool { return strings.HasPrefix(l, "done") })
	done, err := hub.Parse(lines[len(lines)-1])
	require.NoError(t, err)
	moveText, ok := done.Get("move")
	require.True(t, ok)

	// White to move again after the reset.
	_, err = draughts.ParseMove(moveText, draughts.Start())
	assert.NoError(t, err, "engine played %s", moveText)
}

func TestQuitStopsWorker(t *testing.T) {
	b, _ := newTestBridge(t)
	require.NoError(t, b.SendCommand("quit"))

	deadline := time.Now().Add(5 * time.Second)
	for b.SendCommand("ping") == nil {
		require.True(t, time.Now().Before(deadline), "worker still accepting commands")
		time.Sleep(20 * time.Millisecond)
	}
	assert.ErrorIs(t, b.SendCommand("ping"), bridge.ErrNotInitialized)
}

func TestShutdownIdempotent(t *testing.T) {
	b, _ := newTestBridge(t)
	b.Shutdown()
	b.Shutdown()
	assert.Equal(t, bridge.StatusStopped, b.Status())
	assert.ErrorIs(t, b.SendCommand("ping"), bridge.ErrNotInitialized)
}

func TestRestartAfterShutdown(t *testing.T) {
	b, msgs := newTestBridge(t)
	b.Shutdown()
	require.Equal(t, bridge.StatusStopped, b.Status())

	require.NoError(t, b.Start())
	require.Equal(t, "wait", recv(t, msgs))
	require.NoError(t, b.SendCommand("ping"))
	assert.Equal(t, "pong", recv(t, msgs))
}

func TestSinkPanicDoesNotKillWorker(t *testing.T) {
	b := bridge.New(engine.New(engine.Config{}), zerolog.Nop())
	require.NoError(t, b.Init())

	b.SetMessageSink(func(string) { panic("bad sink") })
	require.NoError(t, b.Start())
	t.Cleanup(b.Shutdown)

	require.NoError(t, b.SendCommand("ping"))

	// Replace the sink and verify the worker is still dispatching. The
	// startup wait or the first pong may land on either sink depending
	// on when the worker got scheduled, so drain to the fresh pong.
	msgs := make(chan string, 16)
	b.SetMessageSink(func(line string) { msgs <- line })
	require.NoError(t, b.SendCommand("ping"))
	lines := recvUntil(t, msgs, func(l string) bool { return l == "pong" })
	assert.NotEmpty(t, lines)
}
