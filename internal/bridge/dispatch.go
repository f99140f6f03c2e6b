package bridge

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"dam/internal/draughts"
	"dam/internal/engine"
	"dam/internal/hub"
)

// session is the engine worker's mutable aggregate: the running game plus
// the active search limits. Touched only by the worker goroutine.
type session struct {
	game   *draughts.Game
	limits engine.SearchLimits
}

func newSession() *session {
	return &session{game: draughts.NewGame()}
}

func (b *Bridge) emit(m *hub.Message) {
	b.sendMessage(m.String())
}

func (b *Bridge) emitError(msg string) {
	b.emit(hub.NewMessage("error").Add("message", msg))
}

// processLine parses and dispatches one command. Every failure path ends
// in an error line on the sink; nothing escapes to kill the worker.
func (b *Bridge) processLine(s *session, line string) {
	defer func() {
		if r := recover(); r != nil {
			b.emitError(fmt.Sprintf("command processing error: %v", r))
		}
	}()

	sc := hub.NewScanner(line)
	cmd, err := sc.Command()
	if err != nil {
		b.emitError("missing command")
		return
	}
	b.log.Debug().Str("command", cmd).Msg("dispatch")

	switch cmd {
	case "hub":
		b.handleHub()
	case "init":
		b.handleInit()
	case "pos":
		b.handlePos(s, sc)
	case "level":
		b.handleLevel(s, sc)
	case "go":
		b.handleGo(s, sc)
	case "new-game":
		b.handleNewGame(s)
	case "ping":
		b.sendMessage("pong")
	case "set-param":
		b.handleSetParam(sc)
	case "stop":
		// Handled on the submission path; by the time the worker sees
		// one here, the search it targeted has already finished.
	case "quit":
		b.stop.Store(true)
	default:
		b.emitError("unknown command: " + cmd)
	}
}

// handleHub advertises identity and tunables, terminated by wait.
func (b *Bridge) handleHub() {
	id := b.eng.Ident()
	b.emit(hub.NewMessage("id").
		Add("name", id.Name).
		Add("version", id.Version).
		Add("author", id.Author).
		Add("country", id.Country))
	for _, m := range b.params.Advertise() {
		b.emit(m)
	}
	b.sendMessage("wait")
}

// handleInit reinitializes tables and optional subsystems. Book and
// bitbase load failures disable the subsystem and continue; only a table
// failure aborts the command.
func (b *Bridge) handleInit() {
	if err := b.eng.InitTables(); err != nil {
		b.emitError("init failed: " + err.Error())
		return
	}

	v := b.params.Snapshot()
	if v.Book {
		if err := b.eng.LoadBook(v.BookPly, v.BookMargin); err != nil {
			b.log.Warn().Err(err).Msg("opening book unavailable, disabling")
			b.params.Set("book", "false")
		}
	}
	if v.BBSize > 0 {
		if err := b.eng.LoadBitbases(v.BBSize); err != nil {
			b.log.Warn().Err(err).Msg("bitbases unavailable, disabling")
			b.params.Set("bb-size", "0")
		}
	}
	b.eng.ResizeTT(v.TTSize)

	b.sendMessage("ready")
}

// handlePos sets the base position and applies the move list in order.
// The first illegal or unparseable move stops application; moves already
// applied stay applied and the loop continues with the next command.
func (b *Bridge) handlePos(s *session, sc *hub.Scanner) {
	pos := draughts.Start()
	var moves string

	for !sc.Eos() {
		p, ok := sc.NextPair()
		if !ok {
			continue
		}
		switch p.Name {
		case "start":
			pos = draughts.Start()
		case "pos":
			parsed, err := draughts.FromHub(p.Value)
			if err != nil {
				b.emitError("bad position")
				return
			}
			pos = parsed
		case "moves":
			moves = p.Value
		}
	}

	s.game.Init(pos)

	for _, text := range strings.Fields(moves) {
		mv, err := draughts.ParseMove(text, s.game.Pos())
		if err != nil {
			b.emitError(err.Error())
			return
		}
		s.game.AddMove(mv)
	}
}

// handleLevel sets search limits: depth, nodes and move-time are direct
// overrides; moves+time+inc together select a time-control computation.
// Times are in seconds on the wire.
func (b *Bridge) handleLevel(s *session, sc *hub.Scanner) {
	var tcMoves int
	var tcTime, tcInc float64
	haveTC := false

	for !sc.Eos() {
		p, ok := sc.NextPair()
		if !ok {
			continue
		}
		switch p.Name {
		case "depth":
			if n, err := strconv.Atoi(p.Value); err == nil && n > 0 {
				s.limits.Depth = n
			}
		case "nodes":
			if n, err := strconv.ParseInt(p.Value, 10, 64); err == nil && n > 0 {
				s.limits.Nodes = n
			}
		case "move-time":
			if sec, err := strconv.ParseFloat(p.Value, 64); err == nil && sec > 0 {
				s.limits.MoveTime = time.Duration(sec * float64(time.Second))
			}
		case "moves":
			if n, err := strconv.Atoi(p.Value); err == nil {
				tcMoves = n
				haveTC = true
			}
		case "time":
			if sec, err := strconv.ParseFloat(p.Value, 64); err == nil {
				tcTime = sec
				haveTC = true
			}
		case "inc":
			if sec, err := strconv.ParseFloat(p.Value, 64); err == nil {
				tcInc = sec
				haveTC = true
			}
		}
	}

	if haveTC && tcTime > 0 {
		divisor := float64(tcMoves)
		if divisor <= 0 {
			divisor = 40 // sudden death: budget for a long game
		}
		per := tcTime/divisor + tcInc
		s.limits.MoveTime = time.Duration(per * float64(time.Second))
	}
}

// handleGo runs the search. The status is Thinking for the duration and
// Ready afterward regardless of outcome.
func (b *Bridge) handleGo(s *session, sc *hub.Scanner) {
	if b.Status() != StatusReady {
		b.emitError("engine not ready")
		return
	}
	b.setStatus(StatusThinking)
	defer b.setStatus(StatusReady)
	defer b.searchStop.Store(false) // a stop applies to one search only

	analyze := false
	ponder := false
	for !sc.Eos() {
		p, ok := sc.NextPair()
		if !ok {
			continue
		}
		switch p.Name {
		case "ponder":
			ponder = true
		case "analyze":
			analyze = true
		case "think":
			// Default mode.
		}
	}

	limits := s.limits
	limits.Ponder = ponder
	limits.Book = b.params.Snapshot().Book && !analyze
	limits.Stop = &b.searchStop

	res, err := b.eng.Search(context.Background(), s.game, limits)
	if err != nil {
		b.emitError("search error: " + err.Error())
		return
	}

	move, hasMove := res.Move, res.HasMove
	if !hasMove {
		move, hasMove = b.eng.QuickMove(s.game.Pos())
	}
	ponderMove, hasPonder := res.Ponder, res.HasPonder
	if hasMove && !hasPonder {
		if qm, ok := b.eng.QuickMove(draughts.Apply(s.game.Pos(), move)); ok {
			ponderMove, hasPonder = qm, true
		}
	}

	done := hub.NewMessage("done")
	if hasMove {
		done.Add("move", move.String())
	}
	if hasPonder {
		done.Add("ponder", ponderMove.String())
	}
	b.emit(done)
}

// handleNewGame clears the transposition table and resets the session.
func (b *Bridge) handleNewGame(s *session) {
	b.eng.ClearTT()
	s.game.Clear()
}

// handleSetParam applies a named tunable; failures become an error line
// and leave engine state unaffected.
func (b *Bridge) handleSetParam(sc *hub.Scanner) {
	var name, value string
	for !sc.Eos() {
		p, ok := sc.NextPair()
		if !ok {
			continue
		}
		switch p.Name {
		case "name":
			name = p.Value
		case "value":
			value = p.Value
		}
	}

	if name == "" {
		b.emitError("missing parameter name")
		return
	}
	if err := b.params.Set(name, value); err != nil {
		b.emitError("invalid parameter: " + err.Error())
	}
}
