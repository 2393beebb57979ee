// Package memory provides an in-memory EventStore for tests and ephemeral
// games.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/mekforge/mekforge/internal/game/event"
	"github.com/mekforge/mekforge/internal/storage"
)

// Store is an in-memory EventStore. Safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	logs map[string][]event.Event
}

// New creates an empty store.
func New() *Store {
	return &Store{logs: make(map[string][]event.Event)}
}

// AppendEvents implements storage.EventStore.
func (s *Store) AppendEvents(ctx context.Context, gameID string, events []event.Event) error {
	if len(events) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	log := s.logs[gameID]
	next := uint64(len(log))
	for i, evt := range events {
		if evt.GameID != gameID {
			return fmt.Errorf("memory: event %d belongs to game %s, not %s", i, evt.GameID, gameID)
		}
		if evt.Seq != next {
			return fmt.Errorf("%w: got seq %d, want %d", storage.ErrSequenceConflict, evt.Seq, next)
		}
		next++
	}
	s.logs[gameID] = append(log, events...)
	return nil
}

// ListEvents implements storage.EventStore.
func (s *Store) ListEvents(ctx context.Context, gameID string, from uint64) ([]event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	log, ok := s.logs[gameID]
	if !ok {
		return nil, fmt.Errorf("%w: game %s", storage.ErrNotFound, gameID)
	}
	if from >= uint64(len(log)) {
		return nil, nil
	}
	return append([]event.Event(nil), log[from:]...), nil
}

// LatestSeq implements storage.EventStore.
func (s *Store) LatestSeq(ctx context.Context, gameID string) (uint64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	log, ok := s.logs[gameID]
	if !ok || len(log) == 0 {
		return 0, false, nil
	}
	return log[len(log)-1].Seq, true, nil
}
