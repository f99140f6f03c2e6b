// Package engine defines the collaborator surface the bridge drives: table
// initialization, opening-book and bitbase loading, transposition-table
// management, and the search entry points. The default implementation is a
// compact iterative-deepening alpha-beta searcher for international
// draughts.
package engine

import (
	"context"
	"sync/atomic"
	"time"

	"dam/internal/draughts"
)

// Identity describes the engine for the HUB id line.
type Identity struct {
	Name    string
	Version string
	Author  string
	Country string
}

// SearchLimits bounds a single search call. Zero values mean unlimited
// for that dimension; the engine applies its own default depth when
// nothing is bounded.
type SearchLimits struct {
	Depth    int
	Nodes    int64
	MoveTime time.Duration
	Ponder   bool
	Book     bool

	// Stop is polled cooperatively during the search; when it reads
	// true the search returns with the best result so far.
	Stop *atomic.Bool
}

// SearchResult is the outcome of a search call. HasMove is false only in
// terminal positions with no legal moves.
type SearchResult struct {
	Move      draughts.Move
	Ponder    draughts.Move
	HasMove   bool
	HasPonder bool
	Score     int
	Depth     int
	Nodes     int64
}

// Engine is the wrapped engine the bridge serializes all access to. None
// of the methods are required to be safe for concurrent use; the bridge
// worker is the only caller.
type Engine interface {
	Ident() Identity

	// InitTables prepares move generation and hashing tables. Called on
	// bridge init and again on the HUB init command.
	InitTables() error

	// LoadBook loads the opening book. An error means the book is
	// unavailable; the caller decides whether to disable it.
	LoadBook(ply, margin int) error

	// LoadBitbases loads endgame databases sized by sizeLog2 pieces.
	LoadBitbases(sizeLog2 int) error

	ClearTT()
	ResizeTT(sizeLog2 int)

	// Search finds the best move for the game's current position.
	Search(ctx context.Context, g *draughts.Game, limits SearchLimits) (SearchResult, error)

	// QuickMove returns a fast heuristic move, used as a fallback when
	// the search produces none. The boolean is false in terminal
	// positions.
	QuickMove(pos draughts.Position) (draughts.Move, bool)
}
