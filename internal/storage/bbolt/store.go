// Package bbolt provides a BoltDB-backed EventStore. Each game gets one
// bucket keyed by big-endian sequence, which keeps cursor scans in log order
// for free.
package bbolt

import (
	"context"
	"encoding/binary"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.etcd.io/bbolt"

	"github.com/mekforge/mekforge/internal/game/event"
	"github.com/mekforge/mekforge/internal/storage"
)

const gamesBucket = "games"

// Store provides a BoltDB-backed event store.
type Store struct {
	db *bbolt.DB
}

// Open opens a BoltDB-backed store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("bbolt: storage path is required")
	}
	db, err := bbolt.Open(filepath.Clean(path), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt: open storage db: %w", err)
	}
	store := &Store{db: db}
	if err := store.ensureBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying BoltDB database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// AppendEvents implements storage.EventStore.
func (s *Store) AppendEvents(ctx context.Context, gameID string, events []event.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		games := tx.Bucket([]byte(gamesBucket))
		if games == nil {
			return fmt.Errorf("bbolt: games bucket is missing")
		}
		game, err := games.CreateBucketIfNotExists([]byte(gameID))
		if err != nil {
			return fmt.Errorf("bbolt: create game bucket: %w", err)
		}

		var next uint64
		if k, _ := game.Cursor().Last(); k != nil {
			next = binary.BigEndian.Uint64(k) + 1
		}
		for i, evt := range events {
			if evt.GameID != gameID {
				return fmt.Errorf("bbolt: event %d belongs to game %s, not %s", i, evt.GameID, gameID)
			}
			if evt.Seq != next {
				return fmt.Errorf("%w: got seq %d, want %d", storage.ErrSequenceConflict, evt.Seq, next)
			}
			data, err := event.Marshal(evt)
			if err != nil {
				return fmt.Errorf("bbolt: encode event %d: %w", evt.Seq, err)
			}
			if err := game.Put(seqKey(evt.Seq), data); err != nil {
				return fmt.Errorf("bbolt: append event %d: %w", evt.Seq, err)
			}
			next++
		}
		return nil
	})
}

// ListEvents implements storage.EventStore.
func (s *Store) ListEvents(ctx context.Context, gameID string, from uint64) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var events []event.Event
	err := s.db.View(func(tx *bbolt.Tx) error {
		games := tx.Bucket([]byte(gamesBucket))
		if games == nil {
			return fmt.Errorf("bbolt: games bucket is missing")
		}
		game := games.Bucket([]byte(gameID))
		if game == nil {
			return fmt.Errorf("%w: game %s", storage.ErrNotFound, gameID)
		}
		c := game.Cursor()
		for k, v := c.Seek(seqKey(from)); k != nil; k, v = c.Next() {
			evt, err := event.Unmarshal(v)
			if err != nil {
				return fmt.Errorf("bbolt: decode event: %w", err)
			}
			events = append(events, evt)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// LatestSeq implements storage.EventStore.
func (s *Store) LatestSeq(ctx context.Context, gameID string) (uint64, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	var seq uint64
	var found bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		games := tx.Bucket([]byte(gamesBucket))
		if games == nil {
			return fmt.Errorf("bbolt: games bucket is missing")
		}
		game := games.Bucket([]byte(gameID))
		if game == nil {
			return nil
		}
		if k, _ := game.Cursor().Last(); k != nil {
			seq = binary.BigEndian.Uint64(k)
			found = true
		}
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	return seq, found, nil
}

func (s *Store) ensureBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(gamesBucket)); err != nil {
			return fmt.Errorf("bbolt: create games bucket: %w", err)
		}
		return nil
	})
}

func seqKey(seq uint64) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], seq)
	return k[:]
}
