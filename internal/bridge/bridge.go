// Package bridge adapts the blocking draughts engine loop into an
// asynchronous, thread-safe command/response service. Callers enqueue HUB
// command lines; a single worker goroutine owns the engine session,
// dispatches commands in FIFO order and emits HUB responses through a
// caller-supplied message sink.
package bridge

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"dam/internal/engine"
)

const (
	dequeuePoll  = 100 * time.Millisecond
	readyPoll    = 100 * time.Millisecond
	startTimeout = 10 * time.Second
	queueBound   = 256
)

// Sink receives outbound HUB lines. At most one sink is active; replacing
// it discards the previous one without notification.
type Sink func(line string)

// Bridge is an explicit engine handle. Independent bridges are fully
// isolated; create one per session.
type Bridge struct {
	eng    engine.Engine
	params *Params
	queue  *Queue
	log    zerolog.Logger

	status atomic.Int32

	errMu   sync.Mutex
	lastErr string

	sinkMu sync.Mutex
	sink   Sink

	stop       atomic.Bool // worker stop flag
	searchStop atomic.Bool // cooperative search cancellation
	running    atomic.Bool
	wg         sync.WaitGroup
}

// New creates a stopped bridge around the given engine.
func New(eng engine.Engine, log zerolog.Logger) *Bridge {
	return &Bridge{
		eng:    eng,
		params: NewParams(),
		queue:  NewQueue(queueBound),
		log:    log.With().Str("component", "bridge").Logger(),
	}
}

// Status returns the current lifecycle state.
func (b *Bridge) Status() Status {
	return Status(b.status.Load())
}

func (b *Bridge) setStatus(s Status) {
	b.status.Store(int32(s))
}

// LastError returns the most recent failure message. It persists until
// overwritten by the next failure.
func (b *Bridge) LastError() string {
	b.errMu.Lock()
	defer b.errMu.Unlock()
	return b.lastErr
}

func (b *Bridge) setError(msg string) {
	b.errMu.Lock()
	b.lastErr = msg
	b.errMu.Unlock()
	b.log.Error().Msg(msg)
}

// Params exposes the tunables registry for host-side inspection.
func (b *Bridge) Params() *Params {
	return b.params
}

// Init prepares the engine tables and transitions Stopped -> Ready.
// Returns ErrAlreadyRunning unless the bridge is stopped.
func (b *Bridge) Init() error {
	if b.Status() != StatusStopped {
		return ErrAlreadyRunning
	}
	b.setStatus(StatusInitializing)

	if err := b.eng.InitTables(); err != nil {
		b.setError("failed to initialize engine: " + err.Error())
		b.setStatus(StatusError)
		return fmt.Errorf("%w: %v", ErrInitFailed, err)
	}

	b.setStatus(StatusReady)
	return nil
}

// Start launches the engine worker and blocks, polling status, until the
// worker reports Ready or the start timeout elapses. On timeout the
// worker is left running and the caller may retry with WaitReady.
func (b *Bridge) Start() error {
	st := b.Status()
	if st != StatusReady && st != StatusStopped {
		return ErrNotInitialized
	}
	if !b.running.CompareAndSwap(false, true) {
		// Worker already up.
		return nil
	}

	b.stop.Store(false)
	b.searchStop.Store(false)
	b.wg.Add(1)
	go b.run()

	if !b.WaitReady(startTimeout) {
		b.setError("engine failed to start within timeout")
		return ErrTimeout
	}
	return nil
}

// SendCommand enqueues one HUB line for the worker. Fire-and-forget: the
// response surfaces asynchronously through the message sink. Fails with
// ErrNotInitialized when the bridge is stopped or faulted and with
// ErrInvalidCommand on an empty command.
func (b *Bridge) SendCommand(line string) error {
	st := b.Status()
	if st == StatusStopped || st == StatusError {
		return ErrNotInitialized
	}
	if line == "" {
		return ErrInvalidCommand
	}
	// stop must act on the submission path: the worker is inside the
	// search it is meant to interrupt and will not dequeue until done.
	if strings.TrimSpace(line) == "stop" {
		if b.Status() == StatusThinking {
			b.searchStop.Store(true)
		}
		return nil
	}
	return b.queue.Enqueue(line)
}

// SetMessageSink installs the callback receiving outbound HUB lines.
func (b *Bridge) SetMessageSink(sink Sink) {
	b.sinkMu.Lock()
	b.sink = sink
	b.sinkMu.Unlock()
}

// sendMessage delivers one line to the sink. The sink lock is held only
// for the call; a panicking sink is contained so it cannot kill the
// worker loop.
func (b *Bridge) sendMessage(line string) {
	b.sinkMu.Lock()
	defer b.sinkMu.Unlock()
	if b.sink == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			b.log.Warn().Interface("panic", r).Msg("message sink panicked")
		}
	}()
	b.sink(line)
}

// IsReady reports whether the bridge accepts go commands.
func (b *Bridge) IsReady() bool {
	return b.Status() == StatusReady
}

// WaitReady polls until the bridge is Ready or the timeout elapses.
// Returns false immediately when the bridge faults.
func (b *Bridge) WaitReady(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		switch b.Status() {
		case StatusReady:
			return true
		case StatusError:
			return false
		}
		if time.Now().After(deadline) {
			return b.Status() == StatusReady
		}
		time.Sleep(readyPoll)
	}
}

// Shutdown stops the worker, discards undelivered commands and forces the
// status to Stopped regardless of prior state. Idempotent; a search in
// progress is asked to stop cooperatively and the call joins the worker.
func (b *Bridge) Shutdown() {
	b.stop.Store(true)
	b.searchStop.Store(true)
	b.wg.Wait()
	b.queue.Drain()
	b.setStatus(StatusStopped)
}

// run is the engine worker loop: the only goroutine that touches the
// session aggregate or calls into the engine.
func (b *Bridge) run() {
	defer b.wg.Done()
	defer b.running.Store(false)
	defer func() {
		if r := recover(); r != nil {
			b.setError(fmt.Sprintf("engine loop fault: %v", r))
			b.setStatus(StatusError)
		}
	}()

	b.setStatus(StatusReady)
	sess := newSession()
	b.sendMessage("wait")

	for !b.stop.Load() {
		line, ok := b.queue.Dequeue(dequeuePoll)
		if !ok {
			continue
		}
		b.processLine(sess, line)
	}
	b.setStatus(StatusStopped)
	b.log.Debug().Msg("engine worker exiting")
}
