package service

import (
	"strings"
	"sync"
	"time"

	"dam/internal/bridge"
	"dam/internal/draughts"
	"dam/internal/hub"
	"dam/internal/storage"
)

const ringCapacity = 1024

// Message is one outbound HUB line captured from a session's sink,
// sequence-numbered so clients can poll incrementally.
type Message struct {
	Seq  uint64    `json:"seq"`
	Line string    `json:"line"`
	At   time.Time `json:"at"`
}

// messageRing buffers sink traffic for polling clients. Old messages are
// evicted once the capacity is hit; Seq numbers keep growing so a client
// can detect the gap.
type messageRing struct {
	mu   sync.Mutex
	msgs []Message
	next uint64
}

func (r *messageRing) append(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	r.msgs = append(r.msgs, Message{Seq: r.next, Line: line, At: time.Now().UTC()})
	if len(r.msgs) > ringCapacity {
		r.msgs = r.msgs[len(r.msgs)-ringCapacity:]
	}
}

// Since returns all buffered messages with Seq > seq.
func (r *messageRing) Since(seq uint64) []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := len(r.msgs)
	for i > 0 && r.msgs[i-1].Seq > seq {
		i--
	}
	out := make([]Message, len(r.msgs)-i)
	copy(out, r.msgs[i:])
	return out
}

// gameTracker is host-side bookkeeping for the archive: the last game
// state the host reported through pos commands.
type gameTracker struct {
	mu         sync.Mutex
	initialPos string
	moves      []string
	started    time.Time
}

func newGameTracker() *gameTracker {
	return &gameTracker{
		initialPos: draughts.Start().ToHub(),
		started:    time.Now().UTC(),
	}
}

// observe updates the tracker from an inbound command line. Lines the
// tracker does not understand are ignored; the bridge validates them.
func (t *gameTracker) observe(line string) {
	m, err := hub.Parse(line)
	if err != nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	switch m.Command {
	case "pos":
		t.initialPos = draughts.Start().ToHub()
		if v, ok := m.Get("pos"); ok {
			t.initialPos = v
		}
		t.moves = nil
		if v, ok := m.Get("moves"); ok {
			t.moves = strings.Fields(v)
		}
	case "new-game":
		t.initialPos = draughts.Start().ToHub()
		t.moves = nil
		t.started = time.Now().UTC()
	}
}

// snapshot returns the current game view for archiving. The boolean is
// false when nothing worth archiving was played.
func (t *gameTracker) snapshot() (storage.GameRecord, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.moves) == 0 {
		return storage.GameRecord{}, false
	}
	return storage.GameRecord{
		InitialPos:  t.initialPos,
		Moves:       strings.Join(t.moves, " "),
		MoveCount:   len(t.moves),
		StartedUTC:  t.started,
		FinishedUTC: time.Now().UTC(),
	}, true
}

// Session pairs one bridge handle with its message buffer.
type Session struct {
	ID        string
	Bridge    *bridge.Bridge
	CreatedAt time.Time

	ring    *messageRing
	tracker *gameTracker
}

// Messages returns buffered sink lines with Seq > seq.
func (s *Session) Messages(seq uint64) []Message {
	return s.ring.Since(seq)
}
