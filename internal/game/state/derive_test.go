package state

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/mekforge/mekforge/internal/game/board"
	"github.com/mekforge/mekforge/internal/game/event"
	"github.com/mekforge/mekforge/internal/game/unit"
)

func deriveSheet(id, side string) unit.Sheet {
	return unit.Sheet{
		ID:        id,
		Side:      side,
		Tonnage:   50,
		WalkMP:    4,
		Gunnery:   4,
		Piloting:  5,
		HeatSinks: 10,
		Armor: map[unit.Location]int{
			unit.Head: 9, unit.CenterTorso: 20,
			unit.LeftTorso: 14, unit.RightTorso: 14,
			unit.LeftArm: 12, unit.RightArm: 12,
			unit.LeftLeg: 16, unit.RightLeg: 16,
		},
		Structure: unit.DefaultStructure(50),
		Weapons: []unit.Weapon{
			{ID: "ml", Location: unit.RightArm, Damage: 5, Heat: 3, ShortRange: 3, MedRange: 6, LongRange: 9},
		},
		Ammo: []unit.AmmoBin{
			{ID: "ac-ammo", Location: unit.LeftTorso, AmmoType: "ac5", Rounds: 20, DamagePerRound: 5},
		},
		Slots: map[unit.Location][]unit.CritSlot{
			unit.RightArm: {
				{Kind: unit.SlotActuator, Actuator: unit.ActuatorShoulder},
				{Kind: unit.SlotWeapon, WeaponID: "ml"},
			},
			unit.LeftTorso: {
				{Kind: unit.SlotHeatSink},
				{Kind: unit.SlotAmmo, AmmoID: "ac-ammo"},
			},
		},
	}
}

type eventBuilder struct {
	t      rapid.TB
	gameID string
	seq    uint64
	events []event.Event
}

func (b *eventBuilder) add(p event.Payload) {
	b.t.Helper()
	evt, err := event.New(event.Stamp{
		GameID:    b.gameID,
		Seq:       b.seq,
		Timestamp: time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC),
		Turn:      1,
		Phase:     event.PhaseMovement,
	}, p)
	if err != nil {
		b.t.Fatalf("build event: %v", err)
	}
	b.seq++
	b.events = append(b.events, evt)
}

func createdLog(t rapid.TB) *eventBuilder {
	b := &eventBuilder{t: t, gameID: "g1"}
	b.add(&event.GameCreatedPayload{
		Config: event.GameConfig{Seed: 7, TurnLimit: 10},
		Units:  []unit.Sheet{deriveSheet("u1", "alpha"), deriveSheet("u2", "beta")},
		Deployments: []event.Deployment{
			{UnitID: "u1", Position: board.Coord{Q: 0, R: 0}, Facing: 0},
			{UnitID: "u2", Position: board.Coord{Q: 5, R: 0}, Facing: 3},
		},
	})
	return b
}

func TestDeriveGameCreated(t *testing.T) {
	b := createdLog(t)
	st, err := Derive(b.events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Status != StatusPending {
		t.Fatalf("status = %s, want pending", st.Status)
	}
	if st.Config.Seed != 7 || st.Config.TurnLimit != 10 {
		t.Fatalf("config = %+v", st.Config)
	}
	u, ok := st.Unit("u1")
	if !ok {
		t.Fatal("u1 missing")
	}
	if u.Armor[unit.CenterTorso] != 20 || u.Structure[unit.CenterTorso] != 16 {
		t.Fatalf("center torso = %d/%d", u.Armor[unit.CenterTorso], u.Structure[unit.CenterTorso])
	}
	if u.Ammo["ac-ammo"] != 20 {
		t.Fatalf("ammo = %d, want 20", u.Ammo["ac-ammo"])
	}
	if len(u.Slots[unit.RightArm]) != 2 {
		t.Fatalf("right arm slots = %d, want 2", len(u.Slots[unit.RightArm]))
	}
	u2, _ := st.Unit("u2")
	if u2.Position != (board.Coord{Q: 5, R: 0}) || u2.Facing != 3 {
		t.Fatalf("u2 deployed at %v facing %d", u2.Position, u2.Facing)
	}
}

func TestDeriveMovementAndFire(t *testing.T) {
	b := createdLog(t)
	b.add(&event.GameStartedPayload{})
	b.add(&event.TurnStartedPayload{Turn: 1})
	b.add(&event.UnitMovedPayload{
		UnitID: "u1", Mode: event.MoveRun,
		From: board.Coord{Q: 0, R: 0}, To: board.Coord{Q: 3, R: 0},
		Facing: 1, Hexes: 3, Heat: 2,
	})
	b.add(&event.AttackResolvedPayload{
		AttackerID: "u1", TargetID: "u2", Kind: event.AttackWeapon,
		WeaponID: "ml", Base: 4, Target: 8, Roll: 9, Dice: [2]int{4, 5},
		Hit: true, Damage: 5,
	})
	b.add(&event.DamageAppliedPayload{
		UnitID: "u2", Location: unit.CenterTorso,
		Damage: 5, ArmorDamage: 5, ArmorRemaining: 15, StructRemaining: 16,
		Source: "weapon",
	})
	st, err := Derive(b.events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	u1, _ := st.Unit("u1")
	if u1.Position != (board.Coord{Q: 3, R: 0}) || !u1.Moved || u1.MoveMode != event.MoveRun {
		t.Fatalf("u1 move state = %+v", u1)
	}
	if u1.MovementHeat != 2 || u1.WeaponHeat != 3 {
		t.Fatalf("heat pending = move %d weapons %d", u1.MovementHeat, u1.WeaponHeat)
	}
	if !u1.FiredLocations[unit.RightArm] {
		t.Fatal("firing arm not committed")
	}
	u2, _ := st.Unit("u2")
	if u2.Armor[unit.CenterTorso] != 15 || u2.Structure[unit.CenterTorso] != 16 {
		t.Fatalf("u2 center torso = %d/%d", u2.Armor[unit.CenterTorso], u2.Structure[unit.CenterTorso])
	}
}

func TestDeriveTurnStartResetsPerTurnState(t *testing.T) {
	b := createdLog(t)
	b.add(&event.GameStartedPayload{})
	b.add(&event.TurnStartedPayload{Turn: 1})
	b.add(&event.UnitMovedPayload{UnitID: "u1", Mode: event.MoveWalk, To: board.Coord{Q: 1, R: 0}, Hexes: 1, Heat: 1})
	b.add(&event.AttackDeclaredPayload{AttackerID: "u1", TargetID: "u2", WeaponIDs: []string{"ml"}})
	b.add(&event.TurnEndedPayload{Turn: 1})
	b.add(&event.TurnStartedPayload{Turn: 2})
	st, err := Derive(b.events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	u, _ := st.Unit("u1")
	if u.Moved || u.Attacked || u.MoveMode != "" || u.HexesMoved != 0 || u.MovementHeat != 0 {
		t.Fatalf("per-turn state not reset: %+v", u)
	}
	if st.Turn != 2 {
		t.Fatalf("turn = %d, want 2", st.Turn)
	}
}

func TestDeriveCriticalAndDestruction(t *testing.T) {
	b := createdLog(t)
	b.add(&event.CriticalResolvedPayload{
		UnitID: "u1", Location: unit.LeftTorso, Roll: 10,
		Slots: []event.DestroyedSlot{
			{Index: 0, Kind: unit.SlotHeatSink},
			{Index: 1, Kind: unit.SlotAmmo, AmmoID: "ac-ammo"},
		},
	})
	b.add(&event.LocationDestroyedPayload{UnitID: "u1", Location: unit.RightArm})
	b.add(&event.UnitDestroyedPayload{UnitID: "u2", Reason: "center_torso"})
	st, err := Derive(b.events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	u, _ := st.Unit("u1")
	if u.HeatSinkHits != 1 {
		t.Fatalf("heat sink hits = %d, want 1", u.HeatSinkHits)
	}
	if !u.DestroyedBins["ac-ammo"] {
		t.Fatal("ammo bin not destroyed")
	}
	if !u.DestroyedLocations[unit.RightArm] || !u.DestroyedWeapons["ml"] {
		t.Fatal("arm destruction did not cascade to mounted weapon")
	}
	if u.Armor[unit.RightArm] != 0 || u.Structure[unit.RightArm] != 0 {
		t.Fatal("destroyed location retains points")
	}
	u2, _ := st.Unit("u2")
	if !u2.Destroyed {
		t.Fatal("u2 not destroyed")
	}
	if sides := st.SidesAlive(); len(sides) != 1 || sides[0] != "alpha" {
		t.Fatalf("sides alive = %v, want [alpha]", sides)
	}
}

func TestDeriveHeatAndPilot(t *testing.T) {
	b := createdLog(t)
	b.add(&event.HeatUpdatedPayload{UnitID: "u1", Movement: 2, Weapons: 8, Dissipated: 10, Before: 5, After: 5})
	b.add(&event.UnitShutdownPayload{UnitID: "u1"})
	b.add(&event.PilotWoundedPayload{UnitID: "u1", Wounds: 1, Total: 1, Reason: "head_hit"})
	st, err := Derive(b.events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	u, _ := st.Unit("u1")
	if u.Heat != 5 || !u.Shutdown || u.PilotWounds != 1 {
		t.Fatalf("unit state = heat %d shutdown %v wounds %d", u.Heat, u.Shutdown, u.PilotWounds)
	}
	if u.Eligible() {
		t.Fatal("shutdown unit reported eligible")
	}

	b.add(&event.UnitStartupPayload{UnitID: "u1", Target: 4, Roll: 8, Success: true})
	st, err = Derive(b.events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	u, _ = st.Unit("u1")
	if u.Shutdown {
		t.Fatal("startup did not clear shutdown")
	}
	if !u.Eligible() {
		t.Fatal("restarted unit should be eligible")
	}
}

func TestDeriveFallClearsOnMove(t *testing.T) {
	b := createdLog(t)
	b.add(&event.UnitFellPayload{UnitID: "u1", Damage: 5, FacingRoll: 3})
	st, err := Derive(b.events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u, _ := st.Unit("u1"); !u.Prone {
		t.Fatal("fall did not set prone")
	}
	b.add(&event.UnitMovedPayload{UnitID: "u1", Mode: event.MoveWalk, To: board.Coord{Q: 1, R: 0}, Hexes: 1, Heat: 1})
	st, err = Derive(b.events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u, _ := st.Unit("u1"); u.Prone {
		t.Fatal("movement did not clear prone")
	}
}

func TestDeriveRejectsSequenceGap(t *testing.T) {
	b := createdLog(t)
	b.seq = 5
	b.add(&event.GameStartedPayload{})
	_, err := Derive(b.events)
	if !errors.Is(err, ErrSequenceGap) {
		t.Fatalf("error = %v, want ErrSequenceGap", err)
	}
}

func TestDeriveRejectsUnknownUnit(t *testing.T) {
	b := createdLog(t)
	b.add(&event.UnitShutdownPayload{UnitID: "ghost"})
	if _, err := Derive(b.events); !errors.Is(err, ErrUnknownUnit) {
		t.Fatalf("error = %v, want ErrUnknownUnit", err)
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	b := createdLog(t)
	st, err := Derive(b.events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before := st.Clone()
	b.add(&event.DamageAppliedPayload{
		UnitID: "u1", Location: unit.Head,
		Damage: 4, ArmorDamage: 4, ArmorRemaining: 5, StructRemaining: 3,
		Source: "weapon",
	})
	if _, err := Apply(st, b.events[len(b.events)-1]); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(st, before) {
		t.Fatal("Apply mutated its input state")
	}
}

// Folding a prefix and applying the next event must always match deriving the
// longer prefix directly.
func TestApplyMatchesDerive(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		b := createdLog(t)
		locs := []unit.Location{unit.CenterTorso, unit.LeftTorso, unit.RightArm, unit.LeftLeg}
		n := rapid.IntRange(1, 8).Draw(t, "events")
		for i := 0; i < n; i++ {
			loc := locs[rapid.IntRange(0, len(locs)-1).Draw(t, "loc")]
			dmg := rapid.IntRange(1, 5).Draw(t, "dmg")
			b.add(&event.DamageAppliedPayload{
				UnitID:          "u2",
				Location:        loc,
				Damage:          dmg,
				ArmorDamage:     dmg,
				ArmorRemaining:  rapid.IntRange(0, 14).Draw(t, "armor"),
				StructRemaining: rapid.IntRange(1, 16).Draw(t, "structure"),
				Source:          "weapon",
			})
		}
		cut := rapid.IntRange(1, len(b.events)-1).Draw(t, "cut")

		prefix, err := Derive(b.events[:cut])
		if err != nil {
			t.Fatalf("derive prefix: %v", err)
		}
		stepped, err := Apply(prefix, b.events[cut])
		if err != nil {
			t.Fatalf("apply: %v", err)
		}
		direct, err := Derive(b.events[:cut+1])
		if err != nil {
			t.Fatalf("derive: %v", err)
		}
		if !reflect.DeepEqual(stepped, direct) {
			t.Fatalf("incremental fold diverged from derivation:\n got %+v\nwant %+v", stepped, direct)
		}
	})
}
