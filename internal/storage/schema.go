package storage

import "time"

// GameRecord represents a row in the games table: one finished (or
// abandoned) game from a bridge session.
type GameRecord struct {
	GameID      string    `db:"game_id"`
	SessionID   string    `db:"session_id"`
	Variant     string    `db:"variant"`
	InitialPos  string    `db:"initial_pos"`
	Moves       string    `db:"moves"` // space-separated HUB move list
	MoveCount   int       `db:"move_count"`
	StartedUTC  time.Time `db:"started_utc"`
	FinishedUTC time.Time `db:"finished_utc"`
}

// Schema defines the SQLite database structure.
const Schema = `
CREATE TABLE IF NOT EXISTS games (
	game_id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	variant TEXT NOT NULL,
	initial_pos TEXT NOT NULL,
	moves TEXT NOT NULL DEFAULT '',
	move_count INTEGER NOT NULL DEFAULT 0,
	started_utc DATETIME NOT NULL,
	finished_utc DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_games_session ON games(session_id);
CREATE INDEX IF NOT EXISTS idx_games_finished ON games(finished_utc);
`
