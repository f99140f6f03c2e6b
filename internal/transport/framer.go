package transport

import "bytes"

// Framer accumulates raw bytes into complete newline-terminated lines. It
// tolerates partial reads and multi-line bursts: bytes without a
// terminator stay buffered, and a single feed may yield several lines.
type Framer struct {
	buf   []byte
	lines []string
}

// Feed appends raw bytes and splits off any completed lines.
func (f *Framer) Feed(p []byte) {
	f.buf = append(f.buf, p...)
	for {
		i := bytes.IndexByte(f.buf, '\n')
		if i < 0 {
			return
		}
		line := f.buf[:i]
		if len(line) > 0 && line[len(line)-1] == '\r' {
			line = line[:len(line)-1]
		}
		f.lines = append(f.lines, string(line))
		f.buf = f.buf[i+1:]
	}
}

// Next pops the oldest complete line. The boolean is false when no
// complete line is buffered.
func (f *Framer) Next() (string, bool) {
	if len(f.lines) == 0 {
		return "", false
	}
	line := f.lines[0]
	f.lines = f.lines[1:]
	return line, true
}

// Pending returns the number of complete lines waiting.
func (f *Framer) Pending() int {
	return len(f.lines)
}
