// Package matchlog records one row per completed match to a local SQLite
// database: an ambient "what matches have I played" history, analogous to
// a replay file index, consumed by the out-of-scope menu shell. It never
// participates in the lockstep contract; Record is called after a match
// ends, from the OnMatchEnd callback cmd/goldrush sets on the lobby
// coordinator. Grounded on Vitadek-OwnWorld/db.go's
// sql.Open-plus-CREATE-TABLE-IF-NOT-EXISTS shape, swapped onto
// modernc.org/sqlite (a cgo-free driver, see DESIGN.md) registered under
// the "sqlite" driver name.
package matchlog

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS matches (
	session_id TEXT PRIMARY KEY,
	seed INTEGER NOT NULL,
	map_size INTEGER NOT NULL,
	player_count INTEGER NOT NULL,
	final_turn INTEGER NOT NULL,
	checksum INTEGER NOT NULL,
	ended_at TEXT NOT NULL
);`

// Store is an open handle to the match history database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and
// ensures the matches table exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Summary is one completed match, handed to Record by cmd/goldrush's
// OnMatchEnd callback.
type Summary struct {
	SessionID   string
	Seed        int32
	MapSize     int
	PlayerCount int
	FinalTurn   uint32
	Checksum    uint32
}

// Record inserts one row for a completed match.
func (s *Store) Record(sm Summary) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO matches (session_id, seed, map_size, player_count, final_turn, checksum, ended_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sm.SessionID, sm.Seed, sm.MapSize, sm.PlayerCount, sm.FinalTurn, sm.Checksum, time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// Recent returns the n most recently ended matches, newest first.
func (s *Store) Recent(n int) ([]Summary, error) {
	rows, err := s.db.Query(
		`SELECT session_id, seed, map_size, player_count, final_turn, checksum
		 FROM matches ORDER BY ended_at DESC LIMIT ?`, n,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sm Summary
		if err := rows.Scan(&sm.SessionID, &sm.Seed, &sm.MapSize, &sm.PlayerCount, &sm.FinalTurn, &sm.Checksum); err != nil {
			return nil, err
		}
		out = append(out, sm)
	}
	return out, rows.Err()
}
