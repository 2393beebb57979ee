package engine

import (
	"errors"
	"reflect"
	"testing"

	"github.com/mekforge/mekforge/internal/game/board"
	"github.com/mekforge/mekforge/internal/game/event"
	"github.com/mekforge/mekforge/internal/game/state"
)

func TestRunToCompletion(t *testing.T) {
	cfg := Config{GameID: "game-1", Seed: 11, TurnLimit: 3}
	session, err := RunToCompletion(cfg, testRoster(), testDeployments(), nil, fixedClock, nil)
	if err != nil {
		t.Fatalf("RunToCompletion: %v", err)
	}
	if session.Final.Status != state.StatusEnded {
		t.Fatalf("status = %s, want ended", session.Final.Status)
	}
	if session.Final.Result == nil {
		t.Fatal("finished game must carry a result")
	}
	if len(session.Events) == 0 || session.Events[0].Type != event.TypeGameCreated {
		t.Fatalf("log starts with %v", eventTypes(session.Events[:1]))
	}
	last := session.Events[len(session.Events)-1]
	if last.Type != event.TypeGameEnded {
		t.Fatalf("log ends with %s, want game.ended", last.Type)
	}
}

func TestRunToCompletionIsDeterministic(t *testing.T) {
	cfg := Config{GameID: "game-1", Seed: 42, TurnLimit: 3}
	run := func() []byte {
		session, err := RunToCompletion(cfg, testRoster(), testDeployments(), nil, fixedClock, nil)
		if err != nil {
			t.Fatalf("RunToCompletion: %v", err)
		}
		raw, err := event.MarshalAll(session.Events)
		if err != nil {
			t.Fatalf("MarshalAll: %v", err)
		}
		return raw
	}
	if first, second := run(), run(); string(first) != string(second) {
		t.Fatal("same seed and clock must reproduce the game byte for byte")
	}
}

func TestReplayMatchesFinalState(t *testing.T) {
	cfg := Config{GameID: "game-1", Seed: 7, TurnLimit: 2}
	session, err := RunToCompletion(cfg, testRoster(), testDeployments(), nil, fixedClock, nil)
	if err != nil {
		t.Fatalf("RunToCompletion: %v", err)
	}
	replayed, err := Replay(session.Events)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if !reflect.DeepEqual(replayed.Clone(), session.Final) {
		t.Fatal("replayed state differs from the session's final state")
	}
}

func TestReplayRejectsTruncatedLog(t *testing.T) {
	cfg := Config{GameID: "game-1", Seed: 7, TurnLimit: 1}
	session, err := RunToCompletion(cfg, testRoster(), testDeployments(), nil, fixedClock, nil)
	if err != nil {
		t.Fatalf("RunToCompletion: %v", err)
	}
	if _, err := Replay(session.Events[1:]); !errors.Is(err, state.ErrSequenceGap) {
		t.Fatalf("Replay = %v, want sequence gap", err)
	}
}

func autoPilotState(t testing.TB, enemyAt board.Coord) state.GameState {
	t.Helper()
	sheets := testRoster()
	var st state.GameState
	if err := st.ApplyPayload(&event.GameCreatedPayload{
		Units: sheets,
		Deployments: []event.Deployment{
			{UnitID: "a", Position: board.Coord{Q: 0, R: 0}, Facing: 0},
			{UnitID: "b", Position: enemyAt, Facing: 3},
		},
	}); err != nil {
		t.Fatalf("build state: %v", err)
	}
	return st
}

func TestAutoPilotClosesWithNearestEnemy(t *testing.T) {
	st := autoPilotState(t, board.Coord{Q: 3, R: 0})
	action, ok := AutoPilot{}.Decide(st, event.PhaseMovement, "a")
	if !ok {
		t.Fatal("expected a movement decision")
	}
	if action.Kind != ActionMove || action.Mode != event.MoveWalk {
		t.Fatalf("action = %+v", action)
	}
	// walks until adjacent, two hexes toward the enemy
	if (action.Destination != board.Coord{Q: 2, R: 0}) {
		t.Fatalf("destination = %v, want {2 0}", action.Destination)
	}
}

func TestAutoPilotStandsUpWhenProne(t *testing.T) {
	st := autoPilotState(t, board.Coord{Q: 3, R: 0})
	u, _ := st.Unit("a")
	u.Prone = true

	action, ok := AutoPilot{}.Decide(st, event.PhaseMovement, "a")
	if !ok {
		t.Fatal("expected a movement decision")
	}
	if action.Mode != event.MoveWalk || action.Destination != u.Position {
		t.Fatalf("action = %+v", action)
	}
}

func TestAutoPilotFiresEverythingInRange(t *testing.T) {
	st := autoPilotState(t, board.Coord{Q: 2, R: 0})
	action, ok := AutoPilot{}.Decide(st, event.PhaseWeaponAttack, "a")
	if !ok {
		t.Fatal("expected a fire decision")
	}
	if action.Kind != ActionFire || action.TargetID != "b" {
		t.Fatalf("action = %+v", action)
	}
	if len(action.WeaponIDs) != 2 {
		t.Fatalf("weapons = %v", action.WeaponIDs)
	}
}

func TestAutoPilotHoldsFireOutOfRange(t *testing.T) {
	st := autoPilotState(t, board.Coord{Q: 30, R: 0})
	if _, ok := (AutoPilot{}).Decide(st, event.PhaseWeaponAttack, "a"); ok {
		t.Fatal("no weapon reaches thirty hexes")
	}
}

func TestAutoPilotKicksAdjacentEnemy(t *testing.T) {
	st := autoPilotState(t, board.Coord{Q: 1, R: 0})
	action, ok := AutoPilot{}.Decide(st, event.PhasePhysicalAttack, "a")
	if !ok {
		t.Fatal("expected a physical decision")
	}
	if action.Kind != ActionPhysical || action.Variant != event.AttackKick {
		t.Fatalf("action = %+v", action)
	}
}

func TestAutoPilotPassesWhenNotAdjacent(t *testing.T) {
	st := autoPilotState(t, board.Coord{Q: 2, R: 0})
	if _, ok := (AutoPilot{}).Decide(st, event.PhasePhysicalAttack, "a"); ok {
		t.Fatal("physical attacks need an adjacent target")
	}
}
