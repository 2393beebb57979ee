package event

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/mekforge/mekforge/internal/game/board"
	"github.com/mekforge/mekforge/internal/game/unit"
)

func mustEvent(t *testing.T, evt Event, err error) Event {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return evt
}

// One populated payload per registered event type; the length check keeps the
// list honest when a type is added.
func roundTripPayloads() []Payload {
	return []Payload{
		&GameCreatedPayload{
			Config: GameConfig{TurnLimit: 10, Seed: 7},
			Units: []unit.Sheet{{
				ID: "u1", Side: "alpha", Tonnage: 50,
				WalkMP: 4, Gunnery: 4, Piloting: 5, HeatSinks: 10,
				Armor:     map[unit.Location]int{unit.CenterTorso: 20},
				Structure: map[unit.Location]int{unit.CenterTorso: 16},
			}},
			Deployments: []Deployment{{UnitID: "u1", Position: board.Coord{Q: 1, R: -1}, Facing: 2}},
		},
		&GameStartedPayload{},
		&GameEndedPayload{Winner: "alpha", Reason: "elimination"},
		&TurnStartedPayload{Turn: 2},
		&TurnEndedPayload{Turn: 2},
		&PhaseChangedPayload{From: PhaseMovement, To: PhaseWeaponAttack},
		&InitiativeRolledPayload{Rolls: map[string]int{"alpha": 7, "beta": 9}, Winner: "beta"},
		&MovementDeclaredPayload{UnitID: "u1", Mode: MoveRun, Destination: board.Coord{Q: 3, R: 0}, Facing: 1},
		&UnitMovedPayload{UnitID: "u1", Mode: MoveJump, To: board.Coord{Q: 2, R: -1}, Facing: 4, Hexes: 3, Heat: 3},
		&AttackDeclaredPayload{AttackerID: "u1", TargetID: "u2", WeaponIDs: []string{"ml-ra", "ac5-rt"}},
		&PhysicalDeclaredPayload{AttackerID: "u1", TargetID: "u2", Kind: AttackKick},
		&AttackResolvedPayload{
			AttackerID: "u1", TargetID: "u2", Kind: AttackWeapon, WeaponID: "ml-ra",
			Base: 4, Modifiers: []Modifier{{Name: "range", Value: 2}},
			Target: 6, Roll: 8, Dice: [2]int{3, 5}, Hit: true, Damage: 5,
		},
		&DamageAppliedPayload{
			UnitID: "u2", Location: unit.LeftArm, Damage: 25,
			ArmorDamage: 12, StructureDamage: 8, StructRemaining: 0,
			Transferred: 5, TransferTo: unit.LeftTorso, Source: "weapon",
		},
		&CriticalResolvedPayload{
			UnitID: "u2", Location: unit.LeftTorso, Roll: 10,
			Slots: []DestroyedSlot{{Index: 1, Kind: unit.SlotAmmo, AmmoID: "ac5-bin"}},
		},
		&AmmoConsumedPayload{UnitID: "u1", BinID: "ac5-bin", Rounds: 1, Remaining: 9},
		&AmmoExplodedPayload{UnitID: "u2", Location: unit.LeftTorso, BinID: "ac5-bin", Rounds: 9, Damage: 45, CASEII: true},
		&LocationDestroyedPayload{UnitID: "u2", Location: unit.LeftTorso, Cascade: true},
		&UnitDestroyedPayload{UnitID: "u2", Reason: "center_torso"},
		&HeatUpdatedPayload{UnitID: "u1", Movement: 2, Weapons: 8, Dissipated: 10, Before: 4, After: 4},
		&ShutdownCheckedPayload{UnitID: "u1", Heat: 30, Automatic: true, Override: true, OverrideRoll: 9, Passed: true},
		&UnitShutdownPayload{UnitID: "u1", Forced: true},
		&UnitStartupPayload{UnitID: "u1", Target: 6, Roll: 8, Success: true},
		&PSRResolvedPayload{UnitID: "u2", Reason: "kicked", Base: 5, Modifier: 1, Target: 6, Roll: 4},
		&UnitFellPayload{UnitID: "u2", Damage: 5, FacingRoll: 3},
		&PilotWoundedPayload{UnitID: "u2", Wounds: 1, Total: 2, Reason: "fall", Unconscious: true},
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	payloads := roundTripPayloads()
	if len(payloads) != len(payloadPrototypes) {
		t.Fatalf("registry holds %d types, round trip covers %d", len(payloadPrototypes), len(payloads))
	}
	for _, p := range payloads {
		evt, newErr := New(testStamp(), p)
		want := mustEvent(t, evt, newErr)
		data, err := Marshal(want)
		if err != nil {
			t.Fatalf("marshal %s: %v", want.Type, err)
		}
		got, err := Unmarshal(data)
		if err != nil {
			t.Fatalf("unmarshal %s: %v", want.Type, err)
		}
		if !got.Timestamp.Equal(want.Timestamp) {
			t.Fatalf("%s timestamp = %v, want %v", want.Type, got.Timestamp, want.Timestamp)
		}
		got.Timestamp = want.Timestamp
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("%s round trip mismatch:\n got %+v\nwant %+v", want.Type, got, want)
		}
	}
}

func TestMarshalIsDeterministic(t *testing.T) {
	evt, newErr := NewHeatUpdated(testStamp(), HeatUpdatedPayload{
		UnitID: "u1", Movement: 2, Weapons: 8, Dissipated: 10, Before: 3, After: 3,
	})
	evt = mustEvent(t, evt, newErr)
	a, err := Marshal(evt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := Marshal(evt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(a) != string(b) {
		t.Fatalf("marshal is not stable:\n%s\n%s", a, b)
	}
	if strings.HasSuffix(string(a), "\n") {
		t.Fatal("marshal output ends with a newline")
	}
}

func TestMarshalRequiresPayload(t *testing.T) {
	evt, newErr := NewTurnEnded(testStamp(), TurnEndedPayload{Turn: 1})
	evt = mustEvent(t, evt, newErr)
	evt.Payload = nil
	if _, err := Marshal(evt); err == nil {
		t.Fatal("expected error for nil payload")
	}
}

func TestUnmarshalUnknownType(t *testing.T) {
	data := []byte(`{"game_id":"g","seq":0,"timestamp":"2026-01-02T15:04:05Z","type":"game.paused","turn":1,"phase":"end","payload":{}}`)
	_, err := Unmarshal(data)
	var derr *DecodeError
	if !errors.As(err, &derr) {
		t.Fatalf("error = %v, want *DecodeError", err)
	}
	if !strings.Contains(derr.Error(), "unknown event type") {
		t.Fatalf("error %q does not mention unknown event type", derr)
	}
}

func TestUnmarshalUnknownPayloadField(t *testing.T) {
	data := []byte(`{"game_id":"g","seq":0,"timestamp":"2026-01-02T15:04:05Z","type":"turn.ended","turn":1,"phase":"end","payload":{"turn":1,"speed":9}}`)
	var derr *DecodeError
	if _, err := Unmarshal(data); !errors.As(err, &derr) {
		t.Fatalf("error = %v, want *DecodeError", err)
	}
}

func TestUnmarshalUnknownEnvelopeField(t *testing.T) {
	data := []byte(`{"game_id":"g","seq":0,"timestamp":"2026-01-02T15:04:05Z","type":"turn.ended","turn":1,"phase":"end","priority":3,"payload":{"turn":1}}`)
	var derr *DecodeError
	if _, err := Unmarshal(data); !errors.As(err, &derr) {
		t.Fatalf("error = %v, want *DecodeError", err)
	}
}

func TestUnmarshalMissingPayload(t *testing.T) {
	data := []byte(`{"game_id":"g","seq":0,"timestamp":"2026-01-02T15:04:05Z","type":"turn.ended","turn":1,"phase":"end"}`)
	var derr *DecodeError
	_, err := Unmarshal(data)
	if !errors.As(err, &derr) {
		t.Fatalf("error = %v, want *DecodeError", err)
	}
	if !strings.Contains(derr.Error(), "missing payload") {
		t.Fatalf("error %q does not mention missing payload", derr)
	}
}

func TestMarshalAllRoundTrip(t *testing.T) {
	turnStarted, newErr := NewTurnStarted(testStamp(), TurnStartedPayload{Turn: 1})
	turnStarted = mustEvent(t, turnStarted, newErr)
	phaseChanged, newErr := NewPhaseChanged(testStamp(), PhaseChangedPayload{From: PhaseInitiative, To: PhaseMovement})
	phaseChanged = mustEvent(t, phaseChanged, newErr)
	events := []Event{turnStarted, phaseChanged}
	data, err := MarshalAll(events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := UnmarshalAll(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != len(events) {
		t.Fatalf("got %d events, want %d", len(got), len(events))
	}
	for i := range got {
		if got[i].Type != events[i].Type || got[i].ID != events[i].ID {
			t.Fatalf("event %d: got %s/%s, want %s/%s", i, got[i].Type, got[i].ID, events[i].Type, events[i].ID)
		}
	}
}

func TestUnmarshalAllRejectsBadElement(t *testing.T) {
	data := []byte(`[{"game_id":"g","seq":0,"timestamp":"2026-01-02T15:04:05Z","type":"nope","turn":1,"phase":"end","payload":{}}]`)
	if _, err := UnmarshalAll(data); err == nil {
		t.Fatal("expected error")
	}
}
