// Package hub implements the HUB line protocol codec: a command token
// followed by name=value pairs, one message per newline-terminated line.
// Values containing whitespace are double-quoted. Pair order is preserved
// because some pairs are position-sensitive.
package hub

import (
	"errors"
	"strings"
)

// ErrMissingCommand is returned when a line carries no command token.
var ErrMissingCommand = errors.New("missing command")

// Pair is a single name=value attribute. Flag pairs ("go think") carry an
// empty value.
type Pair struct {
	Name  string
	Value string
}

// Message is a parsed or under-construction HUB line.
type Message struct {
	Command string
	pairs   []Pair
}

// NewMessage starts building an outbound message.
func NewMessage(command string) *Message {
	return &Message{Command: command}
}

// Add appends a pair, preserving insertion order. It returns the message
// for chaining.
func (m *Message) Add(name, value string) *Message {
	m.pairs = append(m.pairs, Pair{Name: name, Value: value})
	return m
}

// Pairs returns the pairs in insertion order.
func (m *Message) Pairs() []Pair {
	return m.pairs
}

// Get returns the value of the first pair with the given name.
func (m *Message) Get(name string) (string, bool) {
	for _, p := range m.pairs {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// Has reports whether a pair with the given name is present.
func (m *Message) Has(name string) bool {
	_, ok := m.Get(name)
	return ok
}

// String serializes the message to wire format. Values containing
// whitespace are quoted; empty values serialize as a bare flag name.
func (m *Message) String() string {
	var sb strings.Builder
	sb.WriteString(m.Command)
	for _, p := range m.pairs {
		sb.WriteByte(' ')
		sb.WriteString(p.Name)
		if p.Value == "" {
			continue
		}
		sb.WriteByte('=')
		if strings.ContainsAny(p.Value, " \t") {
			sb.WriteByte('"')
			sb.WriteString(p.Value)
			sb.WriteByte('"')
		} else {
			sb.WriteString(p.Value)
		}
	}
	return sb.String()
}

// Parse reads a full line into a Message. An empty line is a protocol
// error; malformed pairs are skipped rather than failing the line.
func Parse(line string) (*Message, error) {
	sc := NewScanner(line)
	cmd, err := sc.Command()
	if err != nil {
		return nil, err
	}
	m := NewMessage(cmd)
	for !sc.Eos() {
		p, ok := sc.NextPair()
		if !ok {
			continue
		}
		m.Add(p.Name, p.Value)
	}
	return m, nil
}
