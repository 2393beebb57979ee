// Package eventlog provides the append-only in-memory event log for a single
// game. The log owns sequence assignment: events enter with the sequence the
// appender handed their factory, and the log refuses anything that would
// break the gap-free total order.
package eventlog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mekforge/mekforge/internal/game/event"
)

// ErrGameMismatch indicates an event for a different game was appended.
var ErrGameMismatch = errors.New("eventlog: event belongs to a different game")

// ErrSequenceGap indicates an append that would break the gap-free order.
var ErrSequenceGap = errors.New("eventlog: sequence out of order")

// Log is the strictly ordered event journal for one game.
type Log struct {
	gameID string
	events []event.Event
}

// New creates an empty log for the given game.
func New(gameID string) (*Log, error) {
	if strings.TrimSpace(gameID) == "" {
		return nil, fmt.Errorf("eventlog: game id is required")
	}
	return &Log{gameID: gameID}, nil
}

// GameID returns the game this log belongs to.
func (l *Log) GameID() string { return l.gameID }

// NextSeq returns the sequence number the next appended event must carry.
func (l *Log) NextSeq() uint64 { return uint64(len(l.events)) }

// Len returns the number of events in the log.
func (l *Log) Len() int { return len(l.events) }

// Append adds an event to the log. The event must belong to this game and
// carry exactly the next sequence number; anything else is a producer bug.
func (l *Log) Append(evt event.Event) error {
	if evt.GameID != l.gameID {
		return fmt.Errorf("%w: got %s, want %s", ErrGameMismatch, evt.GameID, l.gameID)
	}
	if evt.Seq != l.NextSeq() {
		return fmt.Errorf("%w: got seq %d, want %d", ErrSequenceGap, evt.Seq, l.NextSeq())
	}
	if !event.Registered(evt.Type) {
		return fmt.Errorf("eventlog: unregistered event type %q", evt.Type)
	}
	l.events = append(l.events, evt)
	return nil
}

// AppendAll appends events in order, stopping at the first failure.
func (l *Log) AppendAll(events []event.Event) error {
	for i, evt := range events {
		if err := l.Append(evt); err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
	}
	return nil
}

// Events returns a copy of the ordered event slice.
func (l *Log) Events() []event.Event {
	return append([]event.Event(nil), l.events...)
}
