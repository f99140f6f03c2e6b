package bridge

import "errors"

// Errors returned by the bridge control surface. Failures inside the
// dispatch loop are never surfaced here; they become HUB error lines on
// the message sink.
var (
	ErrAlreadyRunning = errors.New("engine already running")
	ErrNotInitialized = errors.New("engine not initialized")
	ErrInitFailed     = errors.New("engine initialization failed")
	ErrInvalidCommand = errors.New("invalid command")
	ErrTimeout        = errors.New("timed out waiting for engine")
	ErrQueueFull      = errors.New("command queue full")
)
