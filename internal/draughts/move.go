package draughts

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Move is a quiet move or a complete capture sequence. Caps lists the
// captured squares in jump order; it is empty for quiet moves.
type Move struct {
	From int
	To   int
	Caps []int
}

// IsCapture reports whether the move captures at least one piece.
func (m Move) IsCapture() bool {
	return len(m.Caps) > 0
}

// String formats the move in HUB notation: "32-28" for quiet moves,
// "28x19" for captures, with captured squares appended when present so
// ambiguous multi-captures stay distinguishable ("28x19x23x14").
func (m Move) String() string {
	if !m.IsCapture() {
		return fmt.Sprintf("%d-%d", m.From, m.To)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%dx%d", m.From, m.To)
	caps := append([]int(nil), m.Caps...)
	sort.Ints(caps)
	for _, c := range caps {
		fmt.Fprintf(&sb, "x%d", c)
	}
	return sb.String()
}

// Equal compares moves ignoring capture order.
func (m Move) Equal(o Move) bool {
	if m.From != o.From || m.To != o.To || len(m.Caps) != len(o.Caps) {
		return false
	}
	a := append([]int(nil), m.Caps...)
	b := append([]int(nil), o.Caps...)
	sort.Ints(a)
	sort.Ints(b)
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ParseMove parses HUB move text and resolves it against the legal moves
// of the given position. Accepted forms are "from-to", "fromxto" and
// "fromxto" followed by captured squares. An error is returned when the
// text is malformed or no legal move matches, so a successful parse is
// always a legal move.
func ParseMove(s string, p Position) (Move, error) {
	s = strings.TrimSpace(s)
	isCapture := strings.ContainsRune(s, 'x')
	sep := "-"
	if isCapture {
		sep = "x"
	}
	fields := strings.Split(s, sep)
	if len(fields) < 2 {
		return Move{}, fmt.Errorf("malformed move %q", s)
	}

	nums := make([]int, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 1 || n > NumSquares {
			return Move{}, fmt.Errorf("malformed move %q", s)
		}
		nums[i] = n
	}
	from, to := nums[0], nums[1]
	caps := nums[2:]

	for _, legal := range LegalMoves(p) {
		if legal.From != from || legal.To != to {
			continue
		}
		if isCapture != legal.IsCapture() {
			continue
		}
		if len(caps) > 0 && !legal.Equal(Move{From: from, To: to, Caps: caps}) {
			continue
		}
		return legal, nil
	}
	return Move{}, fmt.Errorf("illegal move %q", s)
}
