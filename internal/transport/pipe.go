package transport

import (
	"errors"
	"io"
	"os"
	"strings"
	"time"
)

// fileConn frames lines over a pair of file descriptors. Bounded reads
// use read deadlines, so it works on OS pipes and on stdio.
type fileConn struct {
	r      *os.File
	w      *os.File
	framer Framer
	buf    []byte
}

// NewFileConn wraps an existing read/write file pair, typically stdin and
// stdout.
func NewFileConn(r, w *os.File) Conn {
	return &fileConn{r: r, w: w, buf: make([]byte, 4096)}
}

// PipePair creates two endpoints joined by OS pipes, the host side first.
// This is the subprocess-isolation variant: each direction is a real
// kernel pipe.
func PipePair() (Conn, Conn, error) {
	hostR, bridgeW, err := os.Pipe()
	if err != nil {
		return nil, nil, err
	}
	bridgeR, hostW, err := os.Pipe()
	if err != nil {
		hostR.Close()
		bridgeW.Close()
		return nil, nil, err
	}
	host := &fileConn{r: hostR, w: hostW, buf: make([]byte, 4096)}
	bridge := &fileConn{r: bridgeR, w: bridgeW, buf: make([]byte, 4096)}
	return host, bridge, nil
}

func (c *fileConn) ReadLine(wait time.Duration) (string, error) {
	if line, ok := c.framer.Next(); ok {
		return line, nil
	}
	if wait <= 0 {
		wait = DefaultPoll
	}
	deadline := time.Now().Add(wait)

	for {
		if err := c.r.SetReadDeadline(deadline); err != nil {
			return "", err
		}
		n, err := c.r.Read(c.buf)
		if n > 0 {
			c.framer.Feed(c.buf[:n])
			if line, ok := c.framer.Next(); ok {
				return line, nil
			}
		}
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				return "", ErrNoData
			}
			if errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) {
				return "", ErrClosed
			}
			return "", err
		}
	}
}

func (c *fileConn) WriteLine(line string) error {
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	// os.File writes are unbuffered, so the line is flushed on return.
	_, err := c.w.WriteString(line)
	return err
}

func (c *fileConn) Close() error {
	rerr := c.r.Close()
	werr := c.w.Close()
	if rerr != nil {
		return rerr
	}
	return werr
}
