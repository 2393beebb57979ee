package rules

import (
	"github.com/mekforge/mekforge/internal/game/dice"
	"github.com/mekforge/mekforge/internal/game/event"
	"github.com/mekforge/mekforge/internal/game/state"
	"github.com/mekforge/mekforge/internal/game/unit"
)

// PSR reasons recorded on psr.resolved events.
const (
	PSRShutdown   = "shutdown"
	PSRKicked     = "kicked"
	PSRKickMissed = "kick_missed"
	PSRDFA        = "dfa"
	PSRDFAMissed  = "dfa_missed"
	PSRCharged    = "charged"
	PSRPushed     = "pushed"
)

// PSRModifier returns the piloting penalty from leg damage: two per lost
// hip, one per other lost leg actuator, five per missing leg.
func PSRModifier(u *state.UnitState) int {
	n := 0
	for _, loc := range []unit.Location{unit.LeftLeg, unit.RightLeg} {
		if u.DestroyedLocations[loc] {
			n += 5
			continue
		}
		if u.ActuatorDestroyed(loc, unit.ActuatorHip) {
			n += 2
		}
		for _, act := range []unit.Actuator{unit.ActuatorUpperLeg, unit.ActuatorLowerLeg, unit.ActuatorFoot} {
			if u.ActuatorDestroyed(loc, act) {
				n++
			}
		}
	}
	return n
}

// ResolvePSR rolls a piloting skill roll against the unit's piloting skill
// plus the situational modifier and leg damage. Failure drops the unit.
func (r *Resolver) ResolvePSR(unitID, reason string, modifier int) (bool, error) {
	u, err := r.unit(unitID)
	if err != nil {
		return false, err
	}
	return r.resolvePSR(unitID, reason, u.Sheet.Piloting, modifier+PSRModifier(u))
}

// ShutdownPSR is the roll a standing unit makes when it shuts down. The
// target number is a flat 3, independent of piloting skill.
func (r *Resolver) ShutdownPSR(unitID string) error {
	_, err := r.resolvePSR(unitID, PSRShutdown, 3, 0)
	return err
}

func (r *Resolver) resolvePSR(unitID, reason string, base, modifier int) (bool, error) {
	u, err := r.unit(unitID)
	if err != nil {
		return false, err
	}
	// A unit already on the ground has nothing left to fall from.
	if u.Destroyed || u.Prone {
		return true, nil
	}
	roll, _ := r.roll2d6()
	target := base + modifier
	passed := roll >= target
	if err := r.emit(&event.PSRResolvedPayload{
		UnitID:   unitID,
		Reason:   reason,
		Base:     base,
		Modifier: modifier,
		Target:   target,
		Roll:     roll,
		Passed:   passed,
	}); err != nil {
		return false, err
	}
	if passed {
		return true, nil
	}
	return false, r.fall(unitID)
}

// fall drops the unit: facing is rerolled, the airframe takes one tenth of
// its tonnage in 5-point groups, and the pilot takes a wound.
func (r *Resolver) fall(unitID string) error {
	u, err := r.unit(unitID)
	if err != nil {
		return err
	}
	damage := ceilDiv(u.Sheet.Tonnage, 10)
	if err := r.emit(&event.UnitFellPayload{
		UnitID:     unitID,
		Damage:     damage,
		FacingRoll: dice.D6(r.dice),
	}); err != nil {
		return err
	}
	if err := r.ApplyDamageGroups(unitID, damage, 5, fullTable, SourceFall); err != nil {
		return err
	}
	if u.Destroyed {
		return nil
	}
	return r.woundPilot(unitID, 1, SourceFall)
}

func ceilDiv(a, b int) int { return (a + b - 1) / b }
