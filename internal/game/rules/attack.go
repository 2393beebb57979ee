package rules

import (
	"fmt"

	"github.com/mekforge/mekforge/internal/game/board"
	"github.com/mekforge/mekforge/internal/game/event"
	"github.com/mekforge/mekforge/internal/game/state"
)

// ResolveWeaponAttack resolves a declared weapon attack, firing each weapon
// in declaration order. Resolution is strictly sequential: an ammo explosion
// triggered mid-declaration can leave a later weapon in the same declaration
// with nothing to shoot, and it simply does not fire.
func (r *Resolver) ResolveWeaponAttack(attackerID, targetID string, weaponIDs []string) error {
	if err := r.emit(&event.AttackDeclaredPayload{
		AttackerID: attackerID,
		TargetID:   targetID,
		WeaponIDs:  weaponIDs,
	}); err != nil {
		return err
	}
	for _, wid := range weaponIDs {
		a, err := r.unit(attackerID)
		if err != nil {
			return err
		}
		t, err := r.unit(targetID)
		if err != nil {
			return err
		}
		if a.Destroyed || t.Destroyed {
			return nil
		}
		if err := r.resolveWeaponFire(a, t, wid); err != nil {
			return err
		}
	}
	return nil
}

func (r *Resolver) resolveWeaponFire(a, t *state.UnitState, weaponID string) error {
	w, ok := a.Sheet.Weapon(weaponID)
	if !ok {
		return fmt.Errorf("rules: unit %s has no weapon %s", a.Sheet.ID, weaponID)
	}
	if !a.WeaponUsable(w) {
		return nil
	}
	if w.AmmoType != "" {
		if err := r.consumeAmmo(a, w.AmmoType); err != nil {
			return err
		}
	}

	dist := board.Distance(a.Position, t.Position)
	th, inRange := WeaponToHit(a, t, w, dist)
	if !inRange {
		return nil
	}
	roll, pair := r.roll2d6()
	hit := roll >= th.Target()
	pl := event.AttackResolvedPayload{
		AttackerID: a.Sheet.ID,
		TargetID:   t.Sheet.ID,
		Kind:       event.AttackWeapon,
		WeaponID:   weaponID,
		Base:       th.Base,
		Modifiers:  th.Modifiers,
		Target:     th.Target(),
		Roll:       roll,
		Dice:       pair,
		Hit:        hit,
	}
	if hit {
		pl.Damage = w.Damage
	}
	if err := r.emit(&pl); err != nil {
		return err
	}
	if !hit {
		return nil
	}
	return r.ApplyDamage(t.Sheet.ID, r.rollLocation(fullTable), w.Damage, SourceWeapon)
}

func (r *Resolver) consumeAmmo(u *state.UnitState, ammoType string) error {
	for _, bin := range u.Sheet.Ammo {
		if bin.AmmoType != ammoType || u.DestroyedBins[bin.ID] || u.DestroyedLocations[bin.Location] {
			continue
		}
		rounds := u.Ammo[bin.ID]
		if rounds == 0 {
			continue
		}
		return r.emit(&event.AmmoConsumedPayload{
			UnitID:    u.Sheet.ID,
			BinID:     bin.ID,
			Rounds:    1,
			Remaining: rounds - 1,
		})
	}
	return fmt.Errorf("rules: unit %s has no %s ammunition", u.Sheet.ID, ammoType)
}

// CheckWeaponAttack validates a weapon attack declaration without rolling.
// Phase legality is the controller's concern; this checks unit eligibility,
// weapon integrity, and range.
func CheckWeaponAttack(a, t *state.UnitState, weaponIDs []string) *Rejection {
	if rej := checkAttacker(a); rej != nil {
		return rej
	}
	if rej := checkTarget(a, t); rej != nil {
		return rej
	}
	if a.Attacked {
		return reject(RejectAlreadyAttacked, "unit %s already declared weapon fire this turn", a.Sheet.ID)
	}
	if len(weaponIDs) == 0 {
		return reject(RejectWeaponUnusable, "no weapons declared")
	}
	dist := board.Distance(a.Position, t.Position)
	for _, wid := range weaponIDs {
		w, ok := a.Sheet.Weapon(wid)
		if !ok {
			return reject(RejectWeaponUnusable, "unit %s has no weapon %s", a.Sheet.ID, wid)
		}
		if !a.WeaponUsable(w) {
			return reject(RejectWeaponUnusable, "weapon %s is destroyed or out of ammunition", wid)
		}
		if dist > w.LongRange {
			return reject(RejectOutOfRange, "weapon %s cannot reach %d hexes", wid, dist)
		}
	}
	return nil
}

func checkAttacker(a *state.UnitState) *Rejection {
	switch {
	case a.Destroyed:
		return reject(RejectUnitDestroyed, "unit %s is destroyed", a.Sheet.ID)
	case a.Shutdown:
		return reject(RejectUnitShutdown, "unit %s is shut down", a.Sheet.ID)
	case a.PilotUnconscious || a.PilotWounds >= 6:
		return reject(RejectPilotUnconscious, "unit %s has no conscious pilot", a.Sheet.ID)
	}
	return nil
}

func checkTarget(a, t *state.UnitState) *Rejection {
	if t.Destroyed {
		return reject(RejectTargetDestroyed, "target %s is destroyed", t.Sheet.ID)
	}
	if t.Sheet.Side == a.Sheet.Side {
		return reject(RejectTargetFriendly, "target %s is on the attacker's side", t.Sheet.ID)
	}
	return nil
}
