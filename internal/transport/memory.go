package transport

import (
	"strings"
	"sync"
	"time"
)

const memoryDepth = 64

// memoryConn is one endpoint of an in-memory duplex pair.
type memoryConn struct {
	in  <-chan []byte
	out chan<- []byte

	mu     sync.Mutex
	framer Framer
	inDone bool

	closeOnce sync.Once
	closeCh   chan struct{}
}

// Pipe returns two connected in-memory endpoints. Writes on one side
// become reads on the other. Each side must be closed by its owner.
func Pipe() (Conn, Conn) {
	ab := make(chan []byte, memoryDepth)
	ba := make(chan []byte, memoryDepth)
	a := &memoryConn{in: ba, out: ab, closeCh: make(chan struct{})}
	b := &memoryConn{in: ab, out: ba, closeCh: make(chan struct{})}
	return a, b
}

func (c *memoryConn) ReadLine(wait time.Duration) (string, error) {
	if wait <= 0 {
		wait = DefaultPoll
	}
	deadline := time.NewTimer(wait)
	defer deadline.Stop()

	for {
		c.mu.Lock()
		line, ok := c.framer.Next()
		done := c.inDone
		c.mu.Unlock()
		if ok {
			return line, nil
		}
		if done {
			return "", ErrClosed
		}

		select {
		case chunk, open := <-c.in:
			c.mu.Lock()
			if !open {
				c.inDone = true
			} else {
				c.framer.Feed(chunk)
			}
			c.mu.Unlock()
		case <-deadline.C:
			return "", ErrNoData
		case <-c.closeCh:
			return "", ErrClosed
		}
	}
}

func (c *memoryConn) WriteLine(line string) error {
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	select {
	case <-c.closeCh:
		return ErrClosed
	default:
	}
	select {
	case c.out <- []byte(line):
		return nil
	case <-c.closeCh:
		return ErrClosed
	}
}

func (c *memoryConn) Close() error {
	c.closeOnce.Do(func() {
		close(c.closeCh)
		close(c.out)
	})
	return nil
}
