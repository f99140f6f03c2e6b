package hub

import "strings"

// Scanner is a stateful left-to-right tokenizer over a single HUB line.
// The first token is the command; every following token is a name=value
// pair or a bare flag name.
type Scanner struct {
	line string
	pos  int
}

// NewScanner wraps a raw line. Trailing newline characters are stripped.
func NewScanner(line string) *Scanner {
	return &Scanner{line: strings.TrimRight(line, "\r\n")}
}

func (s *Scanner) skipSpace() {
	for s.pos < len(s.line) && (s.line[s.pos] == ' ' || s.line[s.pos] == '\t') {
		s.pos++
	}
}

// Eos reports whether the scanner has reached end of stream.
func (s *Scanner) Eos() bool {
	s.skipSpace()
	return s.pos >= len(s.line)
}

// Command consumes and returns the leading command token.
func (s *Scanner) Command() (string, error) {
	if s.Eos() {
		return "", ErrMissingCommand
	}
	start := s.pos
	for s.pos < len(s.line) && s.line[s.pos] != ' ' && s.line[s.pos] != '\t' {
		s.pos++
	}
	return s.line[start:s.pos], nil
}

// NextPair consumes the next pair. The boolean is false when the token
// was malformed and should be skipped; the scanner still advances so the
// caller can continue with the rest of the line.
func (s *Scanner) NextPair() (Pair, bool) {
	if s.Eos() {
		return Pair{}, false
	}

	// Name runs to '=' or whitespace.
	start := s.pos
	for s.pos < len(s.line) && s.line[s.pos] != '=' && s.line[s.pos] != ' ' && s.line[s.pos] != '\t' {
		s.pos++
	}
	name := s.line[start:s.pos]
	if name == "" {
		// Stray '=' with no name: consume the rest of the token.
		for s.pos < len(s.line) && s.line[s.pos] != ' ' && s.line[s.pos] != '\t' {
			s.pos++
		}
		return Pair{}, false
	}

	// Bare flag with no value.
	if s.pos >= len(s.line) || s.line[s.pos] != '=' {
		return Pair{Name: name}, true
	}
	s.pos++ // consume '='

	// Quoted value: runs to the closing quote, spaces included.
	if s.pos < len(s.line) && s.line[s.pos] == '"' {
		s.pos++
		start = s.pos
		for s.pos < len(s.line) && s.line[s.pos] != '"' {
			s.pos++
		}
		value := s.line[start:s.pos]
		if s.pos < len(s.line) {
			s.pos++ // closing quote
		}
		return Pair{Name: name, Value: value}, true
	}

	// Unquoted value runs to whitespace.
	start = s.pos
	for s.pos < len(s.line) && s.line[s.pos] != ' ' && s.line[s.pos] != '\t' {
		s.pos++
	}
	return Pair{Name: name, Value: s.line[start:s.pos]}, true
}
