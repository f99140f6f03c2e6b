package engine

import (
	"bufio"
	"context"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"dam/internal/draughts"
)

const (
	defaultDepth      = 6
	maxDepth          = 32
	scoreInf          = 1 << 20
	stopCheckInterval = 512
)

// Config points the engine at its optional on-disk assets.
type Config struct {
	BookPath    string
	BitbasePath string
}

// Dam is the built-in draughts engine: iterative-deepening alpha-beta
// with a zobrist-keyed transposition table and an optional opening book.
type Dam struct {
	cfg Config

	pieceKeys [draughts.NumSquares + 1][5]uint64
	sideKey   uint64
	tablesOK  bool

	tt    map[uint64]ttEntry
	ttMax int

	book    map[string]string
	bookPly int

	bitbases map[string]byte

	nodes    int64
	deadline time.Time
	aborted  bool
}

type ttEntry struct {
	depth int
	score int
	flag  byte
	best  draughts.Move
}

const (
	ttExact byte = iota
	ttLower
	ttUpper
)

// New creates an engine instance. Tables are not initialized until
// InitTables is called.
func New(cfg Config) *Dam {
	return &Dam{
		cfg:   cfg,
		ttMax: 1 << 20,
	}
}

// Ident implements Engine.
func (d *Dam) Ident() Identity {
	return Identity{
		Name:    "dam",
		Version: "1.0",
		Author:  "Dam Project",
		Country: "NL",
	}
}

// InitTables fills the zobrist tables and allocates the transposition
// table. Safe to call repeatedly.
func (d *Dam) InitTables() error {
	rng := rand.New(rand.NewSource(0x64616d31)) // fixed seed, keys stable across runs
	for sq := 1; sq <= draughts.NumSquares; sq++ {
		for pc := range d.pieceKeys[sq] {
			d.pieceKeys[sq][pc] = rng.Uint64()
		}
	}
	d.sideKey = rng.Uint64()
	if d.tt == nil {
		d.tt = make(map[uint64]ttEntry)
	}
	d.tablesOK = true
	return nil
}

// LoadBook reads the opening book: one "position move" pair per line,
// positions in HUB notation. Returns an error when the book file is
// missing or unreadable.
func (d *Dam) LoadBook(ply, margin int) error {
	if d.cfg.BookPath == "" {
		return fmt.Errorf("no book path configured")
	}
	f, err := os.Open(d.cfg.BookPath)
	if err != nil {
		return fmt.Errorf("open book: %w", err)
	}
	defer f.Close()

	book := make(map[string]string)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) != 2 {
			continue
		}
		book[fields[0]] = fields[1]
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read book: %w", err)
	}
	d.book = book
	d.bookPly = ply
	_ = margin // selection margin applies only to multi-entry books
	return nil
}

// LoadBitbases probes the endgame database file. Returns an error when
// the database is missing, in which case lookups stay disabled.
func (d *Dam) LoadBitbases(sizeLog2 int) error {
	if sizeLog2 <= 0 {
		d.bitbases = nil
		return nil
	}
	if d.cfg.BitbasePath == "" {
		return fmt.Errorf("no bitbase path configured")
	}
	f, err := os.Open(d.cfg.BitbasePath)
	if err != nil {
		return fmt.Errorf("open bitbase: %w", err)
	}
	defer f.Close()

	bb := make(map[string]byte)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) != 2 || len(fields[1]) != 1 {
			continue
		}
		bb[fields[0]] = fields[1][0]
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read bitbase: %w", err)
	}
	d.bitbases = bb
	return nil
}

// ClearTT implements Engine.
func (d *Dam) ClearTT() {
	d.tt = make(map[uint64]ttEntry)
}

// ResizeTT caps the transposition table at 2^sizeLog2 entries.
func (d *Dam) ResizeTT(sizeLog2 int) {
	if sizeLog2 < 10 {
		sizeLog2 = 10
	}
	if sizeLog2 > 26 {
		sizeLog2 = 26
	}
	d.ttMax = 1 << sizeLog2
	if len(d.tt) > d.ttMax {
		d.tt = make(map[uint64]ttEntry)
	}
}

func (d *Dam) hash(p draughts.Position) uint64 {
	var h uint64
	for sq := 1; sq <= draughts.NumSquares; sq++ {
		if pc := p.At(sq); pc != draughts.Empty {
			h ^= d.pieceKeys[sq][pc]
		}
	}
	if p.Turn() == draughts.Black {
		h ^= d.sideKey
	}
	return h
}

// Search implements Engine.
func (d *Dam) Search(ctx context.Context, g *draughts.Game, limits SearchLimits) (SearchResult, error) {
	if !d.tablesOK {
		return SearchResult{}, fmt.Errorf("engine tables not initialized")
	}

	pos := g.Pos()
	if limits.Book && d.book != nil && g.MoveCount() < d.bookPly {
		if text, ok := d.book[pos.ToHub()]; ok {
			if mv, err := draughts.ParseMove(text, pos); err == nil {
				res := SearchResult{Move: mv, HasMove: true, Depth: 0}
				d.fillPonder(ctx, &res, pos)
				return res, nil
			}
		}
	}

	moves := draughts.LegalMoves(pos)
	if len(moves) == 0 {
		return SearchResult{}, nil
	}

	maxD := limits.Depth
	if maxD <= 0 || maxD > maxDepth {
		maxD = defaultDepth
	}
	d.nodes = 0
	d.aborted = false
	d.deadline = time.Time{}
	if limits.MoveTime > 0 {
		d.deadline = time.Now().Add(limits.MoveTime)
	}

	res := SearchResult{Move: moves[0], HasMove: true, Depth: 1}
	for depth := 1; depth <= maxD; depth++ {
		best, score, done := d.searchRoot(ctx, pos, moves, depth, limits)
		if !done {
			break
		}
		res.Move = best
		res.Score = score
		res.Depth = depth
		if d.pastDeadline() {
			break
		}
	}
	res.Nodes = d.nodes
	d.fillPonder(ctx, &res, pos)
	return res, nil
}

// fillPonder derives an anticipated reply from the position after the
// chosen move.
func (d *Dam) fillPonder(ctx context.Context, res *SearchResult, pos draughts.Position) {
	if !res.HasMove {
		return
	}
	succ := draughts.Apply(pos, res.Move)
	replies := draughts.LegalMoves(succ)
	if len(replies) == 0 {
		return
	}
	best, _, done := d.searchRoot(ctx, succ, replies, 2, SearchLimits{})
	if !done {
		best = replies[0]
	}
	res.Ponder = best
	res.HasPonder = true
}

func (d *Dam) searchRoot(ctx context.Context, pos draughts.Position, moves []draughts.Move, depth int, limits SearchLimits) (draughts.Move, int, bool) {
	best := moves[0]
	alpha := -scoreInf
	for _, m := range moves {
		score := -d.negamax(ctx, draughts.Apply(pos, m), depth-1, -scoreInf, -alpha, limits)
		if d.aborted {
			return best, alpha, false
		}
		if score > alpha {
			alpha = score
			best = m
		}
	}
	return best, alpha, true
}

func (d *Dam) negamax(ctx context.Context, pos draughts.Position, depth, alpha, beta int, limits SearchLimits) int {
	d.nodes++
	if d.nodes%stopCheckInterval == 0 {
		if (limits.Stop != nil && limits.Stop.Load()) ||
			ctx.Err() != nil ||
			(limits.Nodes > 0 && d.nodes >= limits.Nodes) ||
			d.pastDeadline() {
			d.aborted = true
		}
	}
	if d.aborted {
		return 0
	}

	// Proven outcomes from the endgame database trump the search.
	if d.bitbases != nil {
		if v, ok := d.bitbases[pos.ToHub()]; ok {
			switch v {
			case 'W':
				return scoreInf / 2
			case 'L':
				return -scoreInf / 2
			case 'D':
				return 0
			}
		}
	}

	moves := draughts.LegalMoves(pos)
	if len(moves) == 0 {
		// Side to move has no moves and loses.
		return -scoreInf + 1
	}

	// Captures are forced and cheap to resolve, so extend them.
	if depth <= 0 && !moves[0].IsCapture() {
		return d.evaluate(pos)
	}

	key := d.hash(pos)
	if e, ok := d.tt[key]; ok && e.depth >= depth {
		switch e.flag {
		case ttExact:
			return e.score
		case ttLower:
			if e.score >= beta {
				return e.score
			}
		case ttUpper:
			if e.score <= alpha {
				return e.score
			}
		}
	}

	// Try the table move first.
	if e, ok := d.tt[key]; ok {
		for i := range moves {
			if moves[i].Equal(e.best) {
				moves[0], moves[i] = moves[i], moves[0]
				break
			}
		}
	}

	origAlpha := alpha
	best := moves[0]
	for _, m := range moves {
		score := -d.negamax(ctx, draughts.Apply(pos, m), depth-1, -beta, -alpha, limits)
		if d.aborted {
			return 0
		}
		if score > alpha {
			alpha = score
			best = m
		}
		if alpha >= beta {
			break
		}
	}

	if len(d.tt) < d.ttMax {
		flag := ttExact
		if alpha <= origAlpha {
			flag = ttUpper
		} else if alpha >= beta {
			flag = ttLower
		}
		d.tt[key] = ttEntry{depth: depth, score: alpha, flag: flag, best: best}
	}
	return alpha
}

func (d *Dam) pastDeadline() bool {
	return !d.deadline.IsZero() && time.Now().After(d.deadline)
}

func (d *Dam) evaluate(pos draughts.Position) int {
	score := 0
	for sq := 1; sq <= draughts.NumSquares; sq++ {
		row := (sq - 1) / 5
		switch pos.At(sq) {
		case draughts.WhiteMan:
			score += 100 + (9 - row)
		case draughts.WhiteKing:
			score += 330
		case draughts.BlackMan:
			score -= 100 + row
		case draughts.BlackKing:
			score -= 330
		}
	}
	if pos.Turn() == draughts.Black {
		score = -score
	}
	return score
}

// QuickMove implements Engine: a one-ply greedy pick, used when the full
// search yields nothing.
func (d *Dam) QuickMove(pos draughts.Position) (draughts.Move, bool) {
	moves := draughts.LegalMoves(pos)
	if len(moves) == 0 {
		return draughts.Move{}, false
	}
	best := moves[0]
	bestScore := -scoreInf
	for _, m := range moves {
		score := -d.evaluate(draughts.Apply(pos, m))
		if score > bestScore {
			bestScore = score
			best = m
		}
	}
	return best, true
}
