// Package storage defines the persistence boundary for event logs. The
// engine itself never touches storage; callers that want durable games
// append a session's events through an EventStore. Implementations live in
// subpackages (memory, sqlite, bbolt).
package storage

import (
	"context"
	"errors"

	"github.com/mekforge/mekforge/internal/game/event"
)

// ErrNotFound indicates the requested game has no stored events.
var ErrNotFound = errors.New("storage: not found")

// ErrSequenceConflict indicates an append that would break the gap-free
// per-game sequence.
var ErrSequenceConflict = errors.New("storage: sequence conflict")

// EventStore persists ordered event logs keyed by game.
type EventStore interface {
	// AppendEvents stores events for a game. The batch must continue the
	// stored sequence exactly; a gap or overlap fails the whole batch.
	AppendEvents(ctx context.Context, gameID string, events []event.Event) error

	// ListEvents returns the stored events for a game with sequence >= from,
	// in sequence order. A game with no stored events yields ErrNotFound.
	ListEvents(ctx context.Context, gameID string, from uint64) ([]event.Event, error)

	// LatestSeq returns the highest stored sequence for a game, and false
	// when the game has no events.
	LatestSeq(ctx context.Context, gameID string) (uint64, bool, error)
}
