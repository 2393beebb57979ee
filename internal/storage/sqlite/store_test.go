package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/mekforge/mekforge/internal/game/event"
	"github.com/mekforge/mekforge/internal/storage"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "events.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testEvents(t testing.TB, gameID string, start, n int) []event.Event {
	t.Helper()
	events := make([]event.Event, n)
	for i := 0; i < n; i++ {
		evt, err := event.New(event.Stamp{
			GameID:    gameID,
			Seq:       uint64(start + i),
			Timestamp: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
			Turn:      1,
			Phase:     event.PhaseInitiative,
		}, &event.TurnStartedPayload{Turn: start + i + 1})
		if err != nil {
			t.Fatalf("build event %d: %v", start+i, err)
		}
		events[i] = evt
	}
	return events
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected error for blank path")
	}
}

func TestAppendAndListRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	batch := testEvents(t, "game-1", 0, 3)
	if err := s.AppendEvents(ctx, "game-1", batch); err != nil {
		t.Fatalf("AppendEvents: %v", err)
	}

	got, err := s.ListEvents(ctx, "game-1", 0)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("events = %d, want 3", len(got))
	}
	for i := range got {
		want, err := event.Marshal(batch[i])
		if err != nil {
			t.Fatalf("marshal want: %v", err)
		}
		have, err := event.Marshal(got[i])
		if err != nil {
			t.Fatalf("marshal got: %v", err)
		}
		if string(have) != string(want) {
			t.Fatalf("event %d does not round-trip:\n got %s\nwant %s", i, have, want)
		}
	}

	tail, err := s.ListEvents(ctx, "game-1", 2)
	if err != nil {
		t.Fatalf("ListEvents from 2: %v", err)
	}
	if len(tail) != 1 || tail[0].Seq != 2 {
		t.Fatalf("tail = %v", tail)
	}
}

func TestListUnknownGame(t *testing.T) {
	s := openStore(t)
	if _, err := s.ListEvents(context.Background(), "nope", 0); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestAppendRejectsSequenceConflict(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	if err := s.AppendEvents(ctx, "game-1", testEvents(t, "game-1", 0, 2)); err != nil {
		t.Fatalf("AppendEvents: %v", err)
	}
	if err := s.AppendEvents(ctx, "game-1", testEvents(t, "game-1", 0, 2)); !errors.Is(err, storage.ErrSequenceConflict) {
		t.Fatalf("replay err = %v, want ErrSequenceConflict", err)
	}
	if err := s.AppendEvents(ctx, "game-1", testEvents(t, "game-1", 5, 1)); !errors.Is(err, storage.ErrSequenceConflict) {
		t.Fatalf("gap err = %v, want ErrSequenceConflict", err)
	}

	// the failed batches must roll back entirely
	got, err := s.ListEvents(ctx, "game-1", 0)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("events = %d, want 2", len(got))
	}
}

func TestLatestSeq(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	if _, ok, err := s.LatestSeq(ctx, "game-1"); err != nil || ok {
		t.Fatalf("empty store = %v, %v", ok, err)
	}
	if err := s.AppendEvents(ctx, "game-1", testEvents(t, "game-1", 0, 4)); err != nil {
		t.Fatalf("AppendEvents: %v", err)
	}
	seq, ok, err := s.LatestSeq(ctx, "game-1")
	if err != nil || !ok || seq != 3 {
		t.Fatalf("LatestSeq = %d, %v, %v", seq, ok, err)
	}
}

func TestGamesAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	if err := s.AppendEvents(ctx, "game-1", testEvents(t, "game-1", 0, 2)); err != nil {
		t.Fatalf("AppendEvents game-1: %v", err)
	}
	if err := s.AppendEvents(ctx, "game-2", testEvents(t, "game-2", 0, 1)); err != nil {
		t.Fatalf("AppendEvents game-2: %v", err)
	}
	got, err := s.ListEvents(ctx, "game-2", 0)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(got) != 1 || got[0].GameID != "game-2" {
		t.Fatalf("game-2 log = %v", got)
	}
}
