// Package draughts implements the rules layer for international (10x10)
// draughts: positions on the 50 playable squares, move parsing and
// formatting in HUB notation, legal move generation with mandatory
// majority captures, and a game aggregate tracking move history.
package draughts

import (
	"fmt"
	"strings"
)

// Piece occupies a playable square.
type Piece byte

const (
	Empty Piece = iota
	WhiteMan
	BlackMan
	WhiteKing
	BlackKing
)

// Color identifies the side to move.
type Color int

const (
	White Color = iota
	Black
)

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

// Opponent returns the other side.
func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

// Squares are numbered 1..50 left-to-right, top-to-bottom, with Black at
// the top. White men start on 31-50 and advance toward square 1.
const NumSquares = 50

// Position is a full board state: piece placement plus side to move.
// Index 0 of the squares array is unused so that square numbers map
// directly to indices.
type Position struct {
	squares [NumSquares + 1]Piece
	turn    Color
}

// Start returns the standard initial position: twenty black men on 1-20,
// twenty white men on 31-50, white to move.
func Start() Position {
	var p Position
	for sq := 1; sq <= 20; sq++ {
		p.squares[sq] = BlackMan
	}
	for sq := 31; sq <= 50; sq++ {
		p.squares[sq] = WhiteMan
	}
	p.turn = White
	return p
}

// At returns the piece on a square (1-50).
func (p Position) At(sq int) Piece {
	return p.squares[sq]
}

// Turn returns the side to move.
func (p Position) Turn() Color {
	return p.turn
}

func (pc Piece) color() (Color, bool) {
	switch pc {
	case WhiteMan, WhiteKing:
		return White, true
	case BlackMan, BlackKing:
		return Black, true
	}
	return White, false
}

func (pc Piece) isKing() bool {
	return pc == WhiteKing || pc == BlackKing
}

// Board geometry. Square n sits on row (n-1)/5; rows alternate which
// columns are playable, so column = 2*((n-1)%5) + 1 on even rows and
// 2*((n-1)%5) on odd rows.
func rowCol(sq int) (int, int) {
	r := (sq - 1) / 5
	c := 2 * ((sq - 1) % 5)
	if r%2 == 0 {
		c++
	}
	return r, c
}

// squareAt maps board coordinates back to a square number, or 0 when the
// coordinates fall outside the board or on a light square.
func squareAt(r, c int) int {
	if r < 0 || r > 9 || c < 0 || c > 9 || (r+c)%2 == 0 {
		return 0
	}
	return r*5 + c/2 + 1
}

var pieceToHub = map[Piece]byte{
	Empty:     'e',
	WhiteMan:  'w',
	BlackMan:  'b',
	WhiteKing: 'W',
	BlackKing: 'B',
}

var hubToPiece = map[byte]Piece{
	'e': Empty,
	'w': WhiteMan,
	'b': BlackMan,
	'W': WhiteKing,
	'B': BlackKing,
}

// ToHub serializes the position in HUB notation: a side-to-move character
// followed by fifty piece characters, square 1 first.
func (p Position) ToHub() string {
	var sb strings.Builder
	sb.Grow(NumSquares + 1)
	if p.turn == White {
		sb.WriteByte('W')
	} else {
		sb.WriteByte('B')
	}
	for sq := 1; sq <= NumSquares; sq++ {
		sb.WriteByte(pieceToHub[p.squares[sq]])
	}
	return sb.String()
}

// FromHub parses a HUB position string.
func FromHub(s string) (Position, error) {
	var p Position
	if len(s) != NumSquares+1 {
		return p, fmt.Errorf("position must be %d characters, got %d", NumSquares+1, len(s))
	}
	switch s[0] {
	case 'W', 'w':
		p.turn = White
	case 'B', 'b':
		p.turn = Black
	default:
		return p, fmt.Errorf("invalid side to move %q", s[0])
	}
	for i := 1; i <= NumSquares; i++ {
		pc, ok := hubToPiece[s[i]]
		if !ok {
			return p, fmt.Errorf("invalid piece character %q at square %d", s[i], i)
		}
		p.squares[i] = pc
	}
	return p, nil
}

// ToASCII renders the board for diagnostics, one row per line.
func (p Position) ToASCII() string {
	var sb strings.Builder
	for r := 0; r < 10; r++ {
		for c := 0; c < 10; c++ {
			sq := squareAt(r, c)
			if sq == 0 {
				sb.WriteByte('.')
			} else {
				sb.WriteByte(pieceToHub[p.squares[sq]])
			}
			if c < 9 {
				sb.WriteByte(' ')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
