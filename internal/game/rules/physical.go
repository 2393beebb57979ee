package rules

import (
	"fmt"

	"github.com/mekforge/mekforge/internal/game/board"
	"github.com/mekforge/mekforge/internal/game/event"
	"github.com/mekforge/mekforge/internal/game/state"
	"github.com/mekforge/mekforge/internal/game/unit"
)

// physicalProfile parameterizes the shared physical attack pipeline for one
// variant: its restrictions, to-hit offset, damage formula, hit location
// table, and post-resolution obligations.
type physicalProfile struct {
	offset    int
	table     locationTable
	groupSize int // 0 means one undivided group
	check     func(a, t *state.UnitState, dist int) *Rejection
	armMods   bool
	legMods   bool
	damage    func(a *state.UnitState) int
	onHit     func(r *Resolver, a, t *state.UnitState) error
	onMiss    func(r *Resolver, a, t *state.UnitState) error
}

func profileFor(kind event.AttackKind) (physicalProfile, error) {
	switch kind {
	case event.AttackPunch:
		return physicalProfile{
			table:   punchTable,
			check:   checkPunch,
			armMods: true,
			damage:  punchDamage,
		}, nil
	case event.AttackKick:
		return physicalProfile{
			offset:  -2,
			table:   kickTable,
			check:   checkKick,
			legMods: true,
			damage: func(a *state.UnitState) int {
				return effectiveWeight(a) / 5
			},
			onHit: func(r *Resolver, a, t *state.UnitState) error {
				_, err := r.ResolvePSR(t.Sheet.ID, PSRKicked, 0)
				return err
			},
			onMiss: func(r *Resolver, a, t *state.UnitState) error {
				_, err := r.ResolvePSR(a.Sheet.ID, PSRKickMissed, 0)
				return err
			},
		}, nil
	case event.AttackCharge:
		return physicalProfile{
			table:     fullTable,
			groupSize: 5,
			check:     checkCharge,
			damage: func(a *state.UnitState) int {
				return effectiveWeight(a) * a.HexesMoved / 10
			},
			onHit: func(r *Resolver, a, t *state.UnitState) error {
				// The attacker rams as hard as it hits.
				recoil := t.Sheet.Tonnage / 10
				if err := r.ApplyDamageGroups(a.Sheet.ID, recoil, 5, fullTable, SourceCharge); err != nil {
					return err
				}
				if _, err := r.ResolvePSR(t.Sheet.ID, PSRCharged, 2); err != nil {
					return err
				}
				_, err := r.ResolvePSR(a.Sheet.ID, PSRCharged, 0)
				return err
			},
		}, nil
	case event.AttackDFA:
		return physicalProfile{
			table:     punchTable,
			groupSize: 5,
			check:     checkDFA,
			damage: func(a *state.UnitState) int {
				return 3 * effectiveWeight(a) / 10
			},
			onHit: func(r *Resolver, a, t *state.UnitState) error {
				// Landing on someone still rattles the legs.
				landing := ceilDiv(effectiveWeight(a), 5)
				if err := r.ApplyDamageGroups(a.Sheet.ID, landing, 5, kickTable, SourceDFA); err != nil {
					return err
				}
				if _, err := r.ResolvePSR(t.Sheet.ID, PSRDFA, 2); err != nil {
					return err
				}
				_, err := r.ResolvePSR(a.Sheet.ID, PSRDFA, 0)
				return err
			},
			onMiss: func(r *Resolver, a, t *state.UnitState) error {
				_, err := r.ResolvePSR(a.Sheet.ID, PSRDFAMissed, 4)
				return err
			},
		}, nil
	case event.AttackPush:
		return physicalProfile{
			offset:  -1,
			check:   checkPush,
			armMods: true,
			damage:  func(*state.UnitState) int { return 0 },
			onHit: func(r *Resolver, a, t *state.UnitState) error {
				_, err := r.ResolvePSR(t.Sheet.ID, PSRPushed, 0)
				return err
			},
		}, nil
	case event.AttackMelee:
		return physicalProfile{
			offset:  -1,
			table:   fullTable,
			check:   checkMelee,
			armMods: true,
			damage:  meleeDamage,
		}, nil
	}
	return physicalProfile{}, fmt.Errorf("rules: unknown physical attack kind %q", kind)
}

// CheckPhysical validates a physical attack declaration without rolling any
// dice. It fails closed: any violated restriction yields a typed rejection
// and the declaration never reaches resolution.
func CheckPhysical(a, t *state.UnitState, kind event.AttackKind) *Rejection {
	if rej := checkAttacker(a); rej != nil {
		return rej
	}
	if rej := checkTarget(a, t); rej != nil {
		return rej
	}
	if a.Prone {
		return reject(RejectProne, "unit %s is prone", a.Sheet.ID)
	}
	if a.PhysicalDone {
		return reject(RejectAlreadyAttacked, "unit %s already made a physical attack this turn", a.Sheet.ID)
	}
	profile, err := profileFor(kind)
	if err != nil {
		return reject(RejectOutOfPhase, "unknown physical attack kind %q", kind)
	}
	dist := board.Distance(a.Position, t.Position)
	return profile.check(a, t, dist)
}

// ResolvePhysical resolves a declared physical attack through the shared
// pipeline: to-hit, 2d6 roll, damage and location on a hit, variant-specific
// consequences on a miss.
func (r *Resolver) ResolvePhysical(attackerID, targetID string, kind event.AttackKind) error {
	a, err := r.unit(attackerID)
	if err != nil {
		return err
	}
	t, err := r.unit(targetID)
	if err != nil {
		return err
	}
	profile, err := profileFor(kind)
	if err != nil {
		return err
	}
	if err := r.emit(&event.PhysicalDeclaredPayload{
		AttackerID: attackerID,
		TargetID:   targetID,
		Kind:       kind,
	}); err != nil {
		return err
	}

	th := ToHit{Base: a.Sheet.Piloting}
	if profile.offset != 0 {
		th.add(string(kind)+"_offset", profile.offset)
	}
	if profile.armMods {
		if arm, ok := physicalArm(a); ok {
			th.add("arm_actuators", punchArmModifier(a, arm))
		}
	}
	if profile.legMods {
		if leg, ok := kickLeg(a); ok {
			th.add("leg_actuators", kickLegModifier(a, leg))
		}
	}
	dist := board.Distance(a.Position, t.Position)
	addTargetModifiers(&th, t, dist)

	damage := profile.damage(a)
	if a.Sheet.Underwater {
		damage /= 2
	}

	roll, pair := r.roll2d6()
	hit := roll >= th.Target()
	pl := event.AttackResolvedPayload{
		AttackerID: attackerID,
		TargetID:   targetID,
		Kind:       kind,
		Base:       th.Base,
		Modifiers:  th.Modifiers,
		Target:     th.Target(),
		Roll:       roll,
		Dice:       pair,
		Hit:        hit,
	}
	if hit {
		pl.Damage = damage
	}
	if err := r.emit(&pl); err != nil {
		return err
	}

	if !hit {
		if profile.onMiss != nil {
			return profile.onMiss(r, a, t)
		}
		return nil
	}
	if damage > 0 {
		if profile.groupSize > 0 {
			err = r.ApplyDamageGroups(targetID, damage, profile.groupSize, profile.table, string(kind))
		} else {
			err = r.ApplyDamage(targetID, r.rollLocation(profile.table), damage, string(kind))
		}
		if err != nil {
			return err
		}
	}
	if profile.onHit != nil && !t.Destroyed && !a.Destroyed {
		return profile.onHit(r, a, t)
	}
	return nil
}

// effectiveWeight is the tonnage used by physical damage formulas. Triple
// Strength Myomer doubles it once the myomer is hot enough.
func effectiveWeight(u *state.UnitState) int {
	w := u.Sheet.Tonnage
	if u.Sheet.TripleStrengthMyomer && u.Heat >= 9 {
		return 2 * w
	}
	return w
}

func punchDamage(a *state.UnitState) int {
	dmg := ceilDiv(effectiveWeight(a), 10)
	if arm, ok := physicalArm(a); ok && a.ActuatorDestroyed(arm, unit.ActuatorLowerArm) {
		dmg = ceilDiv(dmg, 2)
	}
	return dmg
}

func meleeDamage(a *state.UnitState) int {
	w := effectiveWeight(a)
	switch a.Sheet.Melee {
	case unit.MeleeHatchet:
		return ceilDiv(w, 5)
	case unit.MeleeSword:
		return ceilDiv(w, 10) + 1
	case unit.MeleeMace:
		return ceilDiv(w, 4)
	}
	return 0
}

// physicalArm picks the arm used for punches, pushes, and melee swings: the
// first intact arm with a working shoulder that has not fired this turn.
func physicalArm(u *state.UnitState) (unit.Location, bool) {
	for _, arm := range []unit.Location{unit.RightArm, unit.LeftArm} {
		if u.DestroyedLocations[arm] || u.FiredLocations[arm] {
			continue
		}
		if u.ActuatorDestroyed(arm, unit.ActuatorShoulder) {
			continue
		}
		return arm, true
	}
	return "", false
}

// kickLeg picks the kicking leg: the first intact leg with a working hip.
func kickLeg(u *state.UnitState) (unit.Location, bool) {
	for _, leg := range []unit.Location{unit.RightLeg, unit.LeftLeg} {
		if u.DestroyedLocations[leg] || u.ActuatorDestroyed(leg, unit.ActuatorHip) {
			continue
		}
		return leg, true
	}
	return "", false
}

func punchArmModifier(u *state.UnitState, arm unit.Location) int {
	n := 0
	if u.ActuatorDestroyed(arm, unit.ActuatorUpperArm) {
		n += 2
	}
	if u.ActuatorDestroyed(arm, unit.ActuatorLowerArm) {
		n += 2
	}
	if u.ActuatorDestroyed(arm, unit.ActuatorHand) {
		n++
	}
	return n
}

func kickLegModifier(u *state.UnitState, leg unit.Location) int {
	n := 0
	for _, act := range []unit.Actuator{unit.ActuatorUpperLeg, unit.ActuatorLowerLeg, unit.ActuatorFoot} {
		if u.ActuatorDestroyed(leg, act) {
			n += 2
		}
	}
	return n
}

func checkPunch(a, t *state.UnitState, dist int) *Rejection {
	if dist != 1 {
		return reject(RejectNotAdjacent, "punch requires an adjacent target, got %d hexes", dist)
	}
	if _, ok := physicalArm(a); !ok {
		return reject(RejectArmFired, "unit %s has no arm able to punch", a.Sheet.ID)
	}
	return nil
}

func checkKick(a, t *state.UnitState, dist int) *Rejection {
	if dist != 1 {
		return reject(RejectNotAdjacent, "kick requires an adjacent target, got %d hexes", dist)
	}
	if _, ok := kickLeg(a); !ok {
		return reject(RejectHipGone, "unit %s has no leg able to kick", a.Sheet.ID)
	}
	return nil
}

func checkCharge(a, t *state.UnitState, dist int) *Rejection {
	if dist != 1 {
		return reject(RejectNotAdjacent, "charge requires an adjacent target, got %d hexes", dist)
	}
	if !a.Moved || a.HexesMoved < 1 || a.MoveMode == event.MoveJump {
		return reject(RejectMoveRequired, "charge requires ground movement this turn")
	}
	return nil
}

func checkDFA(a, t *state.UnitState, dist int) *Rejection {
	if dist != 1 {
		return reject(RejectNotAdjacent, "DFA requires an adjacent target, got %d hexes", dist)
	}
	if a.MoveMode != event.MoveJump {
		return reject(RejectJumpRequired, "DFA requires jumping this turn")
	}
	return nil
}

func checkPush(a, t *state.UnitState, dist int) *Rejection {
	if dist != 1 {
		return reject(RejectNotAdjacent, "push requires an adjacent target, got %d hexes", dist)
	}
	if _, ok := physicalArm(a); !ok {
		return reject(RejectArmFired, "unit %s has no arm able to push", a.Sheet.ID)
	}
	return nil
}

func checkMelee(a, t *state.UnitState, dist int) *Rejection {
	if dist != 1 {
		return reject(RejectNotAdjacent, "melee requires an adjacent target, got %d hexes", dist)
	}
	if a.Sheet.Melee == unit.MeleeNone {
		return reject(RejectNoMeleeWeapon, "unit %s carries no melee weapon", a.Sheet.ID)
	}
	if _, ok := physicalArm(a); !ok {
		return reject(RejectArmFired, "unit %s has no arm able to swing", a.Sheet.ID)
	}
	return nil
}
