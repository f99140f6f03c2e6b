package draughts

// Game is the running game aggregate: the initial position plus the moves
// played from it. It keeps every intermediate position so history can be
// inspected without replaying moves.
type Game struct {
	initial   Position
	positions []Position
	moves     []Move
}

// NewGame returns a game starting from the standard initial position.
func NewGame() *Game {
	g := &Game{}
	g.Init(Start())
	return g
}

// Init resets the game to the given base position, discarding history.
func (g *Game) Init(p Position) {
	g.initial = p
	g.positions = []Position{p}
	g.moves = nil
}

// Clear resets the game to the standard initial position.
func (g *Game) Clear() {
	g.Init(Start())
}

// Pos returns the current position.
func (g *Game) Pos() Position {
	return g.positions[len(g.positions)-1]
}

// Initial returns the base position the game started from.
func (g *Game) Initial() Position {
	return g.initial
}

// AddMove applies a move to the current position and appends it to the
// history. The move must be legal for the current position.
func (g *Game) AddMove(m Move) {
	g.positions = append(g.positions, Apply(g.Pos(), m))
	g.moves = append(g.moves, m)
}

// Moves returns the move history in play order.
func (g *Game) Moves() []Move {
	return append([]Move(nil), g.moves...)
}

// MoveCount returns the number of moves played.
func (g *Game) MoveCount() int {
	return len(g.moves)
}
