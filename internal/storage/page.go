package storage

import (
	"context"
	"fmt"

	"github.com/mekforge/mekforge/internal/game/event"
	"github.com/mekforge/mekforge/internal/storage/cursor"
)

// Page reads one page of a game's stored log. An empty token starts at the
// beginning; the returned token is empty once the log is exhausted.
func Page(ctx context.Context, store EventStore, gameID, token string, limit int) ([]event.Event, string, error) {
	if limit <= 0 {
		limit = 100
	}
	var from uint64
	if token != "" {
		c, err := cursor.Decode(token, gameID)
		if err != nil {
			return nil, "", fmt.Errorf("storage: page token: %w", err)
		}
		from = c.Seq
	}
	events, err := store.ListEvents(ctx, gameID, from)
	if err != nil {
		return nil, "", err
	}
	if len(events) <= limit {
		return events, "", nil
	}
	events = events[:limit]
	next, err := cursor.Encode(cursor.New(gameID, events[len(events)-1].Seq+1))
	if err != nil {
		return nil, "", fmt.Errorf("storage: encode page token: %w", err)
	}
	return events, next, nil
}
