package bridge

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"dam/internal/hub"
)

// Variants the engine advertises. Rules beyond normal are accepted as a
// parameter value and passed through to the engine.
var variants = []string{"normal", "killer", "bt", "frisian", "losing"}

// ParamValues is an immutable snapshot of the tunables.
type ParamValues struct {
	Variant    string
	Book       bool
	BookPly    int
	BookMargin int
	Threads    int
	TTSize     int
	BBSize     int
}

// Params holds the engine tunables behind a small lock of its own; both
// the worker (init, set-param) and caller threads (hub advertisement via
// HTTP status) read them.
type Params struct {
	mu sync.Mutex
	v  ParamValues
}

// NewParams returns the tunables at their defaults.
func NewParams() *Params {
	return &Params{v: ParamValues{
		Variant:    "normal",
		Book:       true,
		BookPly:    4,
		BookMargin: 4,
		Threads:    1,
		TTSize:     24,
		BBSize:     5,
	}}
}

// Snapshot returns a copy of the current values.
func (p *Params) Snapshot() ParamValues {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.v
}

// Set applies a named tunable. Invalid names or out-of-range values leave
// all state untouched.
func (p *Params) Set(name, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch name {
	case "variant":
		for _, v := range variants {
			if value == v {
				p.v.Variant = value
				return nil
			}
		}
		return fmt.Errorf("variant must be one of [%s]", strings.Join(variants, " "))
	case "book":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("book must be true or false")
		}
		p.v.Book = b
		return nil
	case "book-ply":
		return setInt(&p.v.BookPly, name, value, 0, 20)
	case "book-margin":
		return setInt(&p.v.BookMargin, name, value, 0, 100)
	case "threads":
		return setInt(&p.v.Threads, name, value, 1, 16)
	case "tt-size":
		return setInt(&p.v.TTSize, name, value, 16, 30)
	case "bb-size":
		return setInt(&p.v.BBSize, name, value, 0, 7)
	default:
		return fmt.Errorf("unknown parameter %q", name)
	}
}

func setInt(dst *int, name, value string, min, max int) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s must be an integer", name)
	}
	if n < min || n > max {
		return fmt.Errorf("%s must be between %d and %d", name, min, max)
	}
	*dst = n
	return nil
}

// Advertise builds the capability lines for the hub command, one param
// message per tunable, reflecting current values.
func (p *Params) Advertise() []*hub.Message {
	v := p.Snapshot()
	return []*hub.Message{
		hub.NewMessage("param").Add("name", "variant").Add("value", v.Variant).
			Add("type", "enum").Add("values", strings.Join(variants, " ")),
		hub.NewMessage("param").Add("name", "book").Add("value", strconv.FormatBool(v.Book)).
			Add("type", "bool"),
		intParam("book-ply", v.BookPly, 0, 20),
		intParam("book-margin", v.BookMargin, 0, 100),
		intParam("threads", v.Threads, 1, 16),
		intParam("tt-size", v.TTSize, 16, 30),
		intParam("bb-size", v.BBSize, 0, 7),
	}
}

func intParam(name string, value, min, max int) *hub.Message {
	return hub.NewMessage("param").Add("name", name).Add("value", strconv.Itoa(value)).
		Add("type", "int").Add("min", strconv.Itoa(min)).Add("max", strconv.Itoa(max))
}
