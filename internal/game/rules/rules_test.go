package rules

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/mekforge/mekforge/internal/game/board"
	"github.com/mekforge/mekforge/internal/game/event"
	"github.com/mekforge/mekforge/internal/game/state"
	"github.com/mekforge/mekforge/internal/game/unit"
)

// battleSheet is the 50-ton fixture most rules tests fight with: a medium
// laser in each arm, an autocannon with torso ammunition, full actuators.
func battleSheet(id, side string) unit.Sheet {
	return unit.Sheet{
		ID:        id,
		Side:      side,
		Tonnage:   50,
		WalkMP:    4,
		JumpMP:    4,
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
			{ID: "ml-ra", Location: unit.RightArm, Damage: 5, Heat: 3, ShortRange: 3, MedRange: 6, LongRange: 9},
			{ID: "ac5-rt", Location: unit.RightTorso, Damage: 5, Heat: 1, ShortRange: 6, MedRange: 12, LongRange: 18, AmmoType: "ac5"},
		},
		Ammo: []unit.AmmoBin{
			{ID: "ac5-bin", Location: unit.LeftTorso, AmmoType: "ac5", Rounds: 10, DamagePerRound: 5},
		},
		Slots: map[unit.Location][]unit.CritSlot{
			unit.RightArm: {
				{Kind: unit.SlotActuator, Actuator: unit.ActuatorShoulder},
				{Kind: unit.SlotActuator, Actuator: unit.ActuatorUpperArm},
				{Kind: unit.SlotActuator, Actuator: unit.ActuatorLowerArm},
				{Kind: unit.SlotActuator, Actuator: unit.ActuatorHand},
				{Kind: unit.SlotWeapon, WeaponID: "ml-ra"},
			},
			unit.LeftArm: {
				{Kind: unit.SlotActuator, Actuator: unit.ActuatorShoulder},
				{Kind: unit.SlotActuator, Actuator: unit.ActuatorUpperArm},
				{Kind: unit.SlotActuator, Actuator: unit.ActuatorLowerArm},
				{Kind: unit.SlotActuator, Actuator: unit.ActuatorHand},
			},
			unit.RightTorso: {
				{Kind: unit.SlotWeapon, WeaponID: "ac5-rt"},
			},
			unit.LeftTorso: {
				{Kind: unit.SlotHeatSink},
				{Kind: unit.SlotAmmo, AmmoID: "ac5-bin"},
			},
			unit.LeftLeg: {
				{Kind: unit.SlotActuator, Actuator: unit.ActuatorHip},
				{Kind: unit.SlotActuator, Actuator: unit.ActuatorUpperLeg},
				{Kind: unit.SlotActuator, Actuator: unit.ActuatorLowerLeg},
				{Kind: unit.SlotActuator, Actuator: unit.ActuatorFoot},
			},
			unit.RightLeg: {
				{Kind: unit.SlotActuator, Actuator: unit.ActuatorHip},
				{Kind: unit.SlotActuator, Actuator: unit.ActuatorUpperLeg},
				{Kind: unit.SlotActuator, Actuator: unit.ActuatorLowerLeg},
				{Kind: unit.SlotActuator, Actuator: unit.ActuatorFoot},
			},
		},
	}
}

// newBattle folds a game.created payload into a fresh state with the given
// sheets, attacker "a" adjacent to target "b" by default.
func newBattle(t rapid.TB, sheets ...unit.Sheet) *state.GameState {
	t.Helper()
	if len(sheets) == 0 {
		sheets = []unit.Sheet{battleSheet("a", "alpha"), battleSheet("b", "beta")}
	}
	deployments := make([]event.Deployment, len(sheets))
	for i, s := range sheets {
		deployments[i] = event.Deployment{
			UnitID:   s.ID,
			Position: board.Coord{Q: i, R: 0},
			Facing:   0,
		}
	}
	st := &state.GameState{}
	if err := st.ApplyPayload(&event.GameCreatedPayload{
		Units:       sheets,
		Deployments: deployments,
	}); err != nil {
		t.Fatalf("build state: %v", err)
	}
	return st
}

func mustUnit(t rapid.TB, st *state.GameState, id string) *state.UnitState {
	t.Helper()
	u, ok := st.Unit(id)
	if !ok {
		t.Fatalf("unit %s missing", id)
	}
	return u
}

// destroySlot marks the named actuator slot destroyed, bypassing the crit
// pipeline.
func destroySlot(t testing.TB, u *state.UnitState, loc unit.Location, act unit.Actuator) {
	t.Helper()
	for i, s := range u.Slots[loc] {
		if s.Def.Kind == unit.SlotActuator && s.Def.Actuator == act {
			u.Slots[loc][i].Destroyed = true
			return
		}
	}
	t.Fatalf("no %s actuator slot at %s", act, loc)
}

// payloadTypes flattens emitted payloads to their event types for ordering
// assertions.
func payloadTypes(payloads []event.Payload) []event.Type {
	types := make([]event.Type, len(payloads))
	for i, p := range payloads {
		types[i] = p.EventType()
	}
	return types
}

func findPayload[T event.Payload](payloads []event.Payload) (T, bool) {
	for _, p := range payloads {
		if v, ok := p.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}
