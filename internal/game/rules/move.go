package rules

import (
	"github.com/mekforge/mekforge/internal/game/board"
	"github.com/mekforge/mekforge/internal/game/event"
	"github.com/mekforge/mekforge/internal/game/state"
	"github.com/mekforge/mekforge/internal/game/unit"
)

// MoveAllowance returns the unit's movement points after heat and leg damage.
// A destroyed leg caps walking at one point; otherwise each destroyed leg
// actuator costs one.
func MoveAllowance(u *state.UnitState) (walk, run, jump int) {
	walk = u.Sheet.WalkMP - HeatMPReduction(u.Heat)
	legGone := u.DestroyedLocations[unit.LeftLeg] || u.DestroyedLocations[unit.RightLeg]
	if legGone {
		if walk > 1 {
			walk = 1
		}
	} else {
		walk -= u.LegActuatorHits()
	}
	if walk < 0 {
		walk = 0
	}
	run = ceilDiv(walk*3, 2)
	if legGone {
		run = walk
	}
	jump = u.Sheet.JumpMP
	return walk, run, jump
}

// MovementHeat returns the heat generated by moving: one for walking, two
// for running, at least three for jumping and one per hex beyond three.
func MovementHeat(mode event.MoveMode, hexes int) int {
	switch mode {
	case event.MoveWalk:
		return 1
	case event.MoveRun:
		return 2
	case event.MoveJump:
		if hexes > 3 {
			return hexes
		}
		return 3
	}
	return 0
}

// CheckMove validates a movement declaration against the unit's allowance.
func CheckMove(u *state.UnitState, mode event.MoveMode, dest board.Coord, facing int) *Rejection {
	if rej := checkAttacker(u); rej != nil {
		return rej
	}
	if u.Moved {
		return reject(RejectAlreadyMoved, "unit %s already moved this turn", u.Sheet.ID)
	}
	if !board.ValidFacing(facing) {
		return reject(RejectBadFacing, "facing %d is not in 0..5", facing)
	}
	hexes := board.Distance(u.Position, dest)
	walk, run, jump := MoveAllowance(u)
	var allowance int
	switch mode {
	case event.MoveStandStill:
		allowance = 0
	case event.MoveWalk:
		allowance = walk
	case event.MoveRun:
		allowance = run
	case event.MoveJump:
		allowance = jump
	default:
		return reject(RejectTooFar, "unknown movement mode %q", mode)
	}
	if hexes > allowance {
		return reject(RejectTooFar, "unit %s cannot %s %d hexes (allowance %d)", u.Sheet.ID, mode, hexes, allowance)
	}
	// Standing back up takes real movement; a prone unit cannot just pivot.
	if u.Prone && mode == event.MoveStandStill {
		return reject(RejectProne, "unit %s is prone and must spend movement to stand", u.Sheet.ID)
	}
	if u.Prone && walk < 1 && mode != event.MoveJump {
		return reject(RejectProne, "unit %s cannot stand with no movement points", u.Sheet.ID)
	}
	return nil
}

// ResolveMove records a validated movement declaration and its outcome.
func (r *Resolver) ResolveMove(unitID string, mode event.MoveMode, dest board.Coord, facing int) error {
	u, err := r.unit(unitID)
	if err != nil {
		return err
	}
	if err := r.emit(&event.MovementDeclaredPayload{
		UnitID:      unitID,
		Mode:        mode,
		Destination: dest,
		Facing:      facing,
	}); err != nil {
		return err
	}
	hexes := board.Distance(u.Position, dest)
	return r.emit(&event.UnitMovedPayload{
		UnitID: unitID,
		Mode:   mode,
		From:   u.Position,
		To:     dest,
		Facing: facing,
		Hexes:  hexes,
		Heat:   MovementHeat(mode, hexes),
	})
}
