// Package sqlite provides a SQLite-backed EventStore using the pure-Go
// modernc.org/sqlite driver. Events are stored in their canonical serialized
// form, keyed by game id and sequence.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/mekforge/mekforge/internal/game/event"
	"github.com/mekforge/mekforge/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	game_id    TEXT    NOT NULL,
	seq        INTEGER NOT NULL,
	event_id   TEXT    NOT NULL,
	event_type TEXT    NOT NULL,
	payload    BLOB    NOT NULL,
	PRIMARY KEY (game_id, seq)
);
`

// Store is a SQLite-backed EventStore.
type Store struct {
	db *sql.DB
}

// Open opens (and initializes) a store at the given path. Use ":memory:"
// for an ephemeral database.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite: path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// AppendEvents implements storage.EventStore. The batch is appended in one
// transaction; the first event must continue the stored sequence exactly.
func (s *Store) AppendEvents(ctx context.Context, gameID string, events []event.Event) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin tx: %w", err)
	}
	defer tx.Rollback()

	var next uint64
	var latest sql.NullInt64
	err = tx.QueryRowContext(ctx,
		`SELECT MAX(seq) FROM events WHERE game_id = ?`, gameID,
	).Scan(&latest)
	if err != nil {
		return fmt.Errorf("sqlite: latest seq: %w", err)
	}
	if latest.Valid {
		next = uint64(latest.Int64) + 1
	}

	for i, evt := range events {
		if evt.GameID != gameID {
			return fmt.Errorf("sqlite: event %d belongs to game %s, not %s", i, evt.GameID, gameID)
		}
		if evt.Seq != next {
			return fmt.Errorf("%w: got seq %d, want %d", storage.ErrSequenceConflict, evt.Seq, next)
		}
		data, err := event.Marshal(evt)
		if err != nil {
			return fmt.Errorf("sqlite: encode event %d: %w", evt.Seq, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO events (game_id, seq, event_id, event_type, payload) VALUES (?, ?, ?, ?, ?)`,
			gameID, int64(evt.Seq), evt.ID, string(evt.Type), data,
		); err != nil {
			return fmt.Errorf("sqlite: append event %d: %w", evt.Seq, err)
		}
		next++
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

// ListEvents implements storage.EventStore.
func (s *Store) ListEvents(ctx context.Context, gameID string, from uint64) ([]event.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM events WHERE game_id = ? AND seq >= ? ORDER BY seq`,
		gameID, int64(from),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list events: %w", err)
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("sqlite: scan event: %w", err)
		}
		evt, err := event.Unmarshal(data)
		if err != nil {
			return nil, fmt.Errorf("sqlite: decode event: %w", err)
		}
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list events: %w", err)
	}
	if events == nil && from == 0 {
		var n int
		if err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM events WHERE game_id = ?`, gameID,
		).Scan(&n); err != nil {
			return nil, fmt.Errorf("sqlite: count events: %w", err)
		}
		if n == 0 {
			return nil, fmt.Errorf("%w: game %s", storage.ErrNotFound, gameID)
		}
	}
	return events, nil
}

// LatestSeq implements storage.EventStore.
func (s *Store) LatestSeq(ctx context.Context, gameID string) (uint64, bool, error) {
	var latest sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(seq) FROM events WHERE game_id = ?`, gameID,
	).Scan(&latest)
	if err != nil {
		return 0, false, fmt.Errorf("sqlite: latest seq: %w", err)
	}
	if !latest.Valid {
		return 0, false, nil
	}
	return uint64(latest.Int64), true, nil
}
