package mekforge

import (
	"github.com/mekforge/mekforge/internal/game/board"
	"github.com/mekforge/mekforge/internal/game/event"
	"github.com/mekforge/mekforge/internal/game/unit"
)

// demoRoster builds the built-in duel: two 50-ton mediums, one per side,
// deployed six hexes apart.
func demoRoster() ([]unit.Sheet, []event.Deployment, error) {
	armor := map[unit.Location]int{
		unit.Head:        9,
		unit.CenterTorso: 20,
		unit.LeftTorso:   14,
		unit.RightTorso:  14,
		unit.LeftArm:     12,
		unit.RightArm:    12,
		unit.LeftLeg:     16,
		unit.RightLeg:    16,
	}

	build := func(id, name, side string) unit.Sheet {
		a := make(map[unit.Location]int, len(armor))
		for loc, pts := range armor {
			a[loc] = pts
		}
		return unit.Sheet{
			ID:        id,
			Name:      name,
			Side:      side,
			Tonnage:   50,
			WalkMP:    4,
			Gunnery:   4,
			Piloting:  5,
			HeatSinks: 12,
			Armor:     a,
			Structure: unit.DefaultStructure(50),
			Weapons: []unit.Weapon{
				{ID: "ml-ra", Name: "Medium Laser", Location: unit.RightArm, Damage: 5, Heat: 3, ShortRange: 3, MedRange: 6, LongRange: 9},
				{ID: "ml-la", Name: "Medium Laser", Location: unit.LeftArm, Damage: 5, Heat: 3, ShortRange: 3, MedRange: 6, LongRange: 9},
				{ID: "ac5-rt", Name: "Autocannon/5", Location: unit.RightTorso, Damage: 5, Heat: 1, ShortRange: 6, MedRange: 12, LongRange: 18, AmmoType: "ac5"},
			},
			Ammo: []unit.AmmoBin{
				{ID: "ac5-ammo", Location: unit.LeftTorso, AmmoType: "ac5", Rounds: 20, DamagePerRound: 5, CASE: true},
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
					{Kind: unit.SlotWeapon, WeaponID: "ml-la"},
				},
				unit.RightTorso: {
					{Kind: unit.SlotWeapon, WeaponID: "ac5-rt"},
					{Kind: unit.SlotHeatSink},
					{Kind: unit.SlotHeatSink},
				},
				unit.LeftTorso: {
					{Kind: unit.SlotAmmo, AmmoID: "ac5-ammo"},
					{Kind: unit.SlotHeatSink},
					{Kind: unit.SlotHeatSink},
				},
				unit.RightLeg: {
					{Kind: unit.SlotActuator, Actuator: unit.ActuatorHip},
					{Kind: unit.SlotActuator, Actuator: unit.ActuatorUpperLeg},
					{Kind: unit.SlotActuator, Actuator: unit.ActuatorLowerLeg},
					{Kind: unit.SlotActuator, Actuator: unit.ActuatorFoot},
				},
				unit.LeftLeg: {
					{Kind: unit.SlotActuator, Actuator: unit.ActuatorHip},
					{Kind: unit.SlotActuator, Actuator: unit.ActuatorUpperLeg},
					{Kind: unit.SlotActuator, Actuator: unit.ActuatorLowerLeg},
					{Kind: unit.SlotActuator, Actuator: unit.ActuatorFoot},
				},
			},
		}
	}

	roster := []unit.Sheet{
		build("alpha-1", "Centurion", "alpha"),
		build("beta-1", "Enforcer", "beta"),
	}
	deployments := []event.Deployment{
		{UnitID: "alpha-1", Position: board.Coord{Q: 0, R: 0}, Facing: 0},
		{UnitID: "beta-1", Position: board.Coord{Q: 6, R: 0}, Facing: 3},
	}
	return roster, deployments, nil
}
