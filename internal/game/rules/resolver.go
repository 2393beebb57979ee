// Package rules implements the combat resolution rules: to-hit numbers, the
// damage and critical-hit cascade, ammo explosions, heat, shutdown, physical
// attacks, and piloting skill rolls.
//
// Rules never touch a log. A Resolver generates typed event payloads and
// advances a scratch state through the same fold handlers the deriver uses,
// so rule math and replay math cannot drift apart. Dice are drawn from the
// injected provider only; nothing here reads a global source of randomness.
package rules

import (
	"fmt"

	"github.com/mekforge/mekforge/internal/game/dice"
	"github.com/mekforge/mekforge/internal/game/event"
	"github.com/mekforge/mekforge/internal/game/state"
	"github.com/mekforge/mekforge/internal/game/unit"
)

// Rejection explains why an action is illegal. Code is stable and machine
// readable; Message is for humans. Rejections are ordinary values, never
// errors: an illegal action emits no event and leaves state unchanged.
type Rejection struct {
	Code    string
	Message string
}

// Rejection codes returned by legality checks.
const (
	RejectOutOfPhase       = "out_of_phase"
	RejectUnknownUnit      = "unknown_unit"
	RejectUnitDestroyed    = "unit_destroyed"
	RejectUnitShutdown     = "unit_shutdown"
	RejectPilotUnconscious = "pilot_unconscious"
	RejectProne            = "attacker_prone"
	RejectTargetDestroyed  = "target_destroyed"
	RejectTargetFriendly   = "target_friendly"
	RejectOutOfRange       = "out_of_range"
	RejectWeaponUnusable   = "weapon_unusable"
	RejectAlreadyMoved     = "already_moved"
	RejectAlreadyAttacked  = "already_attacked"
	RejectArmFired         = "arm_fired"
	RejectArmDestroyed     = "arm_destroyed"
	RejectShoulderGone     = "shoulder_destroyed"
	RejectHipGone          = "hip_destroyed"
	RejectLegsDestroyed    = "legs_destroyed"
	RejectNoMeleeWeapon    = "no_melee_weapon"
	RejectMoveRequired     = "move_required"
	RejectJumpRequired     = "jump_required"
	RejectNotAdjacent      = "not_adjacent"
	RejectTooFar           = "too_far"
	RejectBadFacing        = "bad_facing"
)

func reject(code, format string, args ...any) *Rejection {
	return &Rejection{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Resolver resolves one atomic rule application. It accumulates payloads in
// emission order while keeping a scratch state in sync, so that later steps
// of a cascade see the effects of earlier ones (a critical hit can destroy
// the ammo a later weapon in the same declaration would have fired).
type Resolver struct {
	st   *state.GameState
	dice dice.Provider
	out  []event.Payload
}

// NewResolver wraps a scratch state and a dice provider. The state is
// mutated as payloads are emitted; callers that need the original state
// untouched hand in a clone.
func NewResolver(st *state.GameState, d dice.Provider) *Resolver {
	return &Resolver{st: st, dice: d}
}

// Payloads returns the payloads emitted so far, in order.
func (r *Resolver) Payloads() []event.Payload { return r.out }

// State returns the scratch state the resolver is advancing.
func (r *Resolver) State() *state.GameState { return r.st }

func (r *Resolver) emit(p event.Payload) error {
	if err := r.st.ApplyPayload(p); err != nil {
		return fmt.Errorf("rules: apply %s: %w", p.EventType(), err)
	}
	r.out = append(r.out, p)
	return nil
}

func (r *Resolver) unit(id string) (*state.UnitState, error) {
	u, ok := r.st.Unit(id)
	if !ok {
		return nil, fmt.Errorf("rules: %w: %s", state.ErrUnknownUnit, id)
	}
	return u, nil
}

// locationTable is a 1d6 hit location lookup.
type locationTable [6]unit.Location

// Hit location tables. Weapon fire and melee use the full table, punches use
// the punch table, kicks only ever strike legs.
var (
	fullTable = locationTable{
		unit.LeftArm, unit.LeftTorso, unit.CenterTorso,
		unit.RightTorso, unit.RightArm, unit.CenterTorso,
	}
	punchTable = locationTable{
		unit.LeftArm, unit.LeftTorso, unit.CenterTorso,
		unit.RightTorso, unit.RightArm, unit.Head,
	}
	kickTable = locationTable{
		unit.RightLeg, unit.RightLeg, unit.RightLeg,
		unit.LeftLeg, unit.LeftLeg, unit.LeftLeg,
	}
)

func (r *Resolver) rollLocation(table locationTable) unit.Location {
	return table[dice.D6(r.dice)-1]
}

func (r *Resolver) roll2d6() (int, [2]int) {
	return dice.TwoD6(r.dice)
}
