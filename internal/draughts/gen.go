package draughts

// Diagonal directions as row/column deltas.
var directions = [4][2]int{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}

// LegalMoves generates all legal moves for the side to move. Captures are
// mandatory and only maximal capture sequences are legal (majority rule).
func LegalMoves(p Position) []Move {
	captures := captureMoves(p)
	if len(captures) > 0 {
		return captures
	}
	return quietMoves(p)
}

// HasLegalMove reports whether the side to move has any move at all.
func HasLegalMove(p Position) bool {
	return len(LegalMoves(p)) > 0
}

func quietMoves(p Position) []Move {
	var moves []Move
	for sq := 1; sq <= NumSquares; sq++ {
		pc := p.squares[sq]
		col, ok := pc.color()
		if !ok || col != p.turn {
			continue
		}
		r, c := rowCol(sq)
		if pc.isKing() {
			for _, d := range directions {
				for step := 1; ; step++ {
					to := squareAt(r+d[0]*step, c+d[1]*step)
					if to == 0 || p.squares[to] != Empty {
						break
					}
					moves = append(moves, Move{From: sq, To: to})
				}
			}
			continue
		}
		// Men step one square diagonally forward only.
		dr := -1
		if col == Black {
			dr = 1
		}
		for _, dc := range [2]int{-1, 1} {
			to := squareAt(r+dr, c+dc)
			if to != 0 && p.squares[to] == Empty {
				moves = append(moves, Move{From: sq, To: to})
			}
		}
	}
	return moves
}

func captureMoves(p Position) []Move {
	var all []Move
	for sq := 1; sq <= NumSquares; sq++ {
		pc := p.squares[sq]
		col, ok := pc.color()
		if !ok || col != p.turn {
			continue
		}
		captured := make(map[int]bool)
		extendCaptures(p, pc, sq, sq, captured, nil, &all)
	}
	if len(all) == 0 {
		return nil
	}
	// Majority rule: keep only the longest capture sequences.
	best := 0
	for _, m := range all {
		if len(m.Caps) > best {
			best = len(m.Caps)
		}
	}
	kept := all[:0]
	for _, m := range all {
		if len(m.Caps) == best {
			kept = append(kept, m)
		}
	}
	return kept
}

// extendCaptures walks capture chains from the square cur for the piece pc
// that started on square from. Captured men stay on the board until the
// chain ends, so they block further jumps but cannot be jumped twice.
func extendCaptures(p Position, pc Piece, from, cur int, captured map[int]bool, caps []int, out *[]Move) {
	col, _ := pc.color()
	r, c := rowCol(cur)
	extended := false

	for _, d := range directions {
		if pc.isKing() {
			// Flying capture: any run of empty squares, exactly one
			// enemy piece, then one or more empty landing squares.
			// Pieces captured earlier in the chain stay on the board
			// and block the ray.
			victim := 0
			for step := 1; ; step++ {
				sq := squareAt(r+d[0]*step, c+d[1]*step)
				if sq == 0 {
					break
				}
				if p.squares[sq] == Empty {
					continue
				}
				vcol, vok := p.squares[sq].color()
				if !vok || vcol == col || captured[sq] {
					break
				}
				victim = sq
				break
			}
			if victim == 0 {
				continue
			}
			vr, vc := rowCol(victim)
			for land := 1; ; land++ {
				to := squareAt(vr+d[0]*land, vc+d[1]*land)
				if to == 0 || p.squares[to] != Empty {
					break
				}
				extended = true
				captured[victim] = true
				next := p
				next.squares[cur] = Empty
				next.squares[to] = pc
				extendCaptures(next, pc, from, to, captured, append(caps, victim), out)
				delete(captured, victim)
			}
		} else {
			victim := squareAt(r+d[0], c+d[1])
			if victim == 0 || captured[victim] {
				continue
			}
			vcol, vok := p.squares[victim].color()
			if !vok || vcol == col {
				continue
			}
			to := squareAt(r+d[0]*2, c+d[1]*2)
			if to == 0 || p.squares[to] != Empty {
				continue
			}
			extended = true
			captured[victim] = true
			next := p
			next.squares[cur] = Empty
			next.squares[to] = pc
			extendCaptures(next, pc, from, to, captured, append(caps, victim), out)
			delete(captured, victim)
		}
	}

	if !extended && len(caps) > 0 {
		m := Move{From: from, To: cur, Caps: make([]int, len(caps))}
		copy(m.Caps, caps)
		*out = append(*out, m)
	}
}

// Apply plays a move and returns the resulting position. The move must
// come from LegalMoves for the current position.
func Apply(p Position, m Move) Position {
	pc := p.squares[m.From]
	p.squares[m.From] = Empty
	for _, cap := range m.Caps {
		p.squares[cap] = Empty
	}
	p.squares[m.To] = pc

	// Promotion only when a man ends its move on the back row.
	r, _ := rowCol(m.To)
	if pc == WhiteMan && r == 0 {
		p.squares[m.To] = WhiteKing
	} else if pc == BlackMan && r == 9 {
		p.squares[m.To] = BlackKing
	}

	p.turn = p.turn.Opponent()
	return p
}
