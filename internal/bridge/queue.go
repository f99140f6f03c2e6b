package bridge

import "time"

// Queue is the bounded FIFO between caller threads and the engine worker.
// Enqueue never blocks; the worker dequeues with a short poll so it can
// observe the stop flag even when no command arrives.
type Queue struct {
	ch chan string
}

// NewQueue creates a queue with the given capacity.
func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = 256
	}
	return &Queue{ch: make(chan string, capacity)}
}

// Enqueue appends a command in O(1). Returns ErrQueueFull when the bound
// is hit rather than blocking the caller.
func (q *Queue) Enqueue(cmd string) error {
	select {
	case q.ch <- cmd:
		return nil
	default:
		return ErrQueueFull
	}
}

// Dequeue waits up to poll for a command. The boolean is false when the
// interval elapsed with nothing queued.
func (q *Queue) Dequeue(poll time.Duration) (string, bool) {
	select {
	case cmd := <-q.ch:
		return cmd, true
	case <-time.After(poll):
		return "", false
	}
}

// Drain discards all pending commands.
func (q *Queue) Drain() {
	for {
		select {
		case <-q.ch:
		default:
			return
		}
	}
}

// Len returns the number of pending commands.
func (q *Queue) Len() int {
	return len(q.ch)
}
