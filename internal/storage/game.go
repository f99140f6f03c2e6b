package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// RecordGame asynchronously archives a finished game.
func (s *Store) RecordGame(record GameRecord) {
	s.enqueueWrite(func(tx *sql.Tx) error {
		query := `INSERT OR REPLACE INTO games (
			game_id, session_id, variant, initial_pos, moves, move_count,
			started_utc, finished_utc
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

		_, err := tx.Exec(query,
			record.GameID, record.SessionID, record.Variant,
			record.InitialPos, record.Moves, record.MoveCount,
			record.StartedUTC, record.FinishedUTC,
		)
		return err
	})
}

// GetGame loads a single archived game.
func (s *Store) GetGame(gameID string) (*GameRecord, error) {
	row := s.db.QueryRow(`SELECT game_id, session_id, variant, initial_pos,
		moves, move_count, started_utc, finished_utc
		FROM games WHERE game_id = ?`, gameID)

	var r GameRecord
	err := row.Scan(&r.GameID, &r.SessionID, &r.Variant, &r.InitialPos,
		&r.Moves, &r.MoveCount, &r.StartedUTC, &r.FinishedUTC)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("game %s not found", gameID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load game: %w", err)
	}
	return &r, nil
}

// ListGames returns the most recently finished games, newest first.
func (s *Store) ListGames(limit int) ([]GameRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := s.db.Query(`SELECT game_id, session_id, variant, initial_pos,
		moves, move_count, started_utc, finished_utc
		FROM games ORDER BY finished_utc DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	defer rows.Close()

	var records []GameRecord
	for rows.Next() {
		var r GameRecord
		if err := rows.Scan(&r.GameID, &r.SessionID, &r.Variant, &r.InitialPos,
			&r.Moves, &r.MoveCount, &r.StartedUTC, &r.FinishedUTC); err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Flush waits until queued writes drain, for tests and shutdown paths.
// Best effort: a write handed to the writer just before Flush returns may
// still be inside its transaction.
func (s *Store) Flush() {
	deadline := time.Now().Add(2 * time.Second)
	for len(s.writeChan) > 0 && s.healthStatus.Load() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
}
