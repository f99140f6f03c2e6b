// Package transport provides the duplex byte-channel between the bridge
// and a host: an in-memory pair for same-process embedding and an OS pipe
// pair for subprocess-style isolation. Reads are bounded waits that
// return ErrNoData rather than blocking the caller; complete lines are
// never split across deliveries.
package transport

import (
	"errors"
	"time"
)

// DefaultPoll is the bounded wait applied when the caller passes a
// non-positive timeout.
const DefaultPoll = 50 * time.Millisecond

var (
	// ErrNoData means no complete line arrived within the wait.
	ErrNoData = errors.New("no data yet")
	// ErrClosed means the peer closed the conduit and the buffer is
	// fully drained.
	ErrClosed = errors.New("transport closed")
)

// Conn is one endpoint of a duplex line conduit.
type Conn interface {
	// ReadLine waits up to the given duration for a complete line. The
	// returned line has its terminator stripped.
	ReadLine(wait time.Duration) (string, error)

	// WriteLine writes one line, appending the terminating newline if
	// the caller omitted it, and flushes before returning.
	WriteLine(line string) error

	Close() error
}
