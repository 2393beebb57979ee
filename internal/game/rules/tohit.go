package rules

import (
	"github.com/mekforge/mekforge/internal/game/event"
	"github.com/mekforge/mekforge/internal/game/state"
	"github.com/mekforge/mekforge/internal/game/unit"
)

// ToHit is a computed target number with its modifier breakdown. The
// breakdown is recorded on the attack.resolved event so a replay can audit
// every point of the number.
type ToHit struct {
	Base      int
	Modifiers []event.Modifier
}

// Target returns the final 2d6 target number.
func (t ToHit) Target() int {
	n := t.Base
	for _, m := range t.Modifiers {
		n += m.Value
	}
	return n
}

func (t *ToHit) add(name string, value int) {
	if value == 0 {
		return
	}
	t.Modifiers = append(t.Modifiers, event.Modifier{Name: name, Value: value})
}

// WeaponToHit computes the target number for one weapon against one target
// at the given range in hexes. ok is false when the target is beyond the
// weapon's long range.
func WeaponToHit(attacker, target *state.UnitState, w unit.Weapon, dist int) (ToHit, bool) {
	t := ToHit{Base: attacker.Sheet.Gunnery}

	switch {
	case dist <= w.ShortRange:
	case dist <= w.MedRange:
		t.add("medium_range", 2)
	case dist <= w.LongRange:
		t.add("long_range", 4)
	default:
		return ToHit{}, false
	}

	t.add("attacker_movement", AttackerMoveModifier(attacker.MoveMode))
	t.add("attacker_heat", HeatToHitModifier(attacker.Heat))
	t.add("arm_actuators", firingArmModifier(attacker, w.Location))
	addTargetModifiers(&t, target, dist)
	return t, true
}

func addTargetModifiers(t *ToHit, target *state.UnitState, dist int) {
	t.add("target_movement", TargetMovementModifier(target.HexesMoved))
	if target.MoveMode == event.MoveJump {
		t.add("target_jumped", 1)
	}
	if target.Shutdown || target.PilotUnconscious {
		t.add("target_immobile", -4)
	} else if target.Prone {
		if dist <= 1 {
			t.add("target_prone_adjacent", -2)
		} else {
			t.add("target_prone", 1)
		}
	}
}

// firingArmModifier returns the to-hit penalty for damaged actuators in the
// arm a weapon is mounted in. A destroyed shoulder dominates; otherwise each
// destroyed arm actuator adds one.
func firingArmModifier(u *state.UnitState, loc unit.Location) int {
	if loc != unit.LeftArm && loc != unit.RightArm {
		return 0
	}
	if u.ActuatorDestroyed(loc, unit.ActuatorShoulder) {
		return 4
	}
	n := 0
	if u.ActuatorDestroyed(loc, unit.ActuatorUpperArm) {
		n++
	}
	if u.ActuatorDestroyed(loc, unit.ActuatorLowerArm) {
		n++
	}
	return n
}

// AttackerMoveModifier is the to-hit penalty for the attacker's own movement
// this turn.
func AttackerMoveModifier(mode event.MoveMode) int {
	switch mode {
	case event.MoveWalk:
		return 1
	case event.MoveRun:
		return 2
	case event.MoveJump:
		return 3
	}
	return 0
}

// TargetMovementModifier is the to-hit penalty for the target's hexes moved
// this turn.
func TargetMovementModifier(hexes int) int {
	switch {
	case hexes >= 25:
		return 6
	case hexes >= 18:
		return 5
	case hexes >= 10:
		return 4
	case hexes >= 7:
		return 3
	case hexes >= 5:
		return 2
	case hexes >= 3:
		return 1
	}
	return 0
}

// HeatToHitModifier is the fire-control penalty from the attacker's heat.
func HeatToHitModifier(heat int) int {
	switch {
	case heat >= 24:
		return 4
	case heat >= 17:
		return 3
	case heat >= 13:
		return 2
	case heat >= 8:
		return 1
	}
	return 0
}

// HeatMPReduction is the walking MP lost to heat.
func HeatMPReduction(heat int) int {
	switch {
	case heat >= 25:
		return 5
	case heat >= 20:
		return 4
	case heat >= 15:
		return 3
	case heat >= 10:
		return 2
	case heat >= 5:
		return 1
	}
	return 0
}
