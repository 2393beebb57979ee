package rules

import (
	"github.com/mekforge/mekforge/internal/game/event"
	"github.com/mekforge/mekforge/internal/game/unit"
)

// Damage source identifiers recorded on damage.applied events.
const (
	SourceWeapon        = "weapon"
	SourcePunch         = "punch"
	SourceKick          = "kick"
	SourceCharge        = "charge"
	SourceDFA           = "dfa"
	SourceMelee         = "melee"
	SourceFall          = "fall"
	SourceAmmoExplosion = "ammo_explosion"
	SourceGauss         = "gauss_explosion"
)

type damageTask struct {
	loc    unit.Location
	amount int
}

// ApplyDamage allocates damage to a location: armor first, spill into
// structure, overflow transferred inward per the fixed transfer table. A
// location reaching zero structure is destroyed and cascades. The chain is
// driven by a work queue so every intermediate state is a folded event, not
// an in-place mutation.
func (r *Resolver) ApplyDamage(unitID string, loc unit.Location, amount int, source string) error {
	u, err := r.unit(unitID)
	if err != nil {
		return err
	}
	queue := []damageTask{{loc: loc, amount: amount}}
	for len(queue) > 0 {
		task := queue[0]
		queue = queue[1:]
		if u.Destroyed || task.amount <= 0 {
			continue
		}

		// Destroyed locations accept no allocation; redirect inward before
		// touching armor. Damage past the head or center torso dissipates.
		cur := task.loc
		for u.DestroyedLocations[cur] {
			next, ok := cur.Transfer()
			if !ok {
				cur = ""
				break
			}
			cur = next
		}
		if cur == "" {
			continue
		}

		armor := u.Armor[cur]
		structure := u.Structure[cur]
		armorDmg := min(armor, task.amount)
		structDmg := min(structure, task.amount-armorDmg)
		overflow := task.amount - armorDmg - structDmg

		pl := event.DamageAppliedPayload{
			UnitID:          unitID,
			Location:        cur,
			Damage:          task.amount,
			ArmorDamage:     armorDmg,
			StructureDamage: structDmg,
			ArmorRemaining:  armor - armorDmg,
			StructRemaining: structure - structDmg,
			Source:          source,
		}
		if overflow > 0 {
			if next, ok := cur.Transfer(); ok {
				pl.Transferred = overflow
				pl.TransferTo = next
				queue = append(queue, damageTask{loc: next, amount: overflow})
			}
		}
		if err := r.emit(&pl); err != nil {
			return err
		}

		if cur == unit.Head {
			if err := r.woundPilot(unitID, 1, "head_hit"); err != nil {
				return err
			}
		}
		if u.Destroyed {
			continue
		}

		switch {
		case structure-structDmg == 0 && structure > 0:
			if err := r.destroyLocation(unitID, cur, false); err != nil {
				return err
			}
		case structDmg > 0:
			if err := r.checkCriticals(unitID, cur); err != nil {
				return err
			}
		}
	}
	return nil
}

// ApplyDamageGroups splits damage into fixed-size groups and rolls a fresh
// hit location for each. Falls, charges, and DFAs allocate in 5-point groups.
func (r *Resolver) ApplyDamageGroups(unitID string, total, groupSize int, table locationTable, source string) error {
	for total > 0 {
		u, err := r.unit(unitID)
		if err != nil {
			return err
		}
		if u.Destroyed {
			return nil
		}
		group := min(groupSize, total)
		total -= group
		if err := r.ApplyDamage(unitID, r.rollLocation(table), group, source); err != nil {
			return err
		}
	}
	return nil
}

// destroyLocation marks a location destroyed and runs the destruction
// cascade: a side torso takes the attached arm with it, losing the center
// torso or head destroys the unit.
func (r *Resolver) destroyLocation(unitID string, loc unit.Location, cascade bool) error {
	u, err := r.unit(unitID)
	if err != nil {
		return err
	}
	if u.DestroyedLocations[loc] {
		return nil
	}
	if err := r.emit(&event.LocationDestroyedPayload{
		UnitID:   unitID,
		Location: loc,
		Cascade:  cascade,
	}); err != nil {
		return err
	}

	switch loc {
	case unit.CenterTorso:
		return r.destroyUnit(unitID, "center_torso")
	case unit.Head:
		return r.destroyUnit(unitID, "head")
	}
	if limb, ok := loc.DependentLimb(); ok && !u.DestroyedLocations[limb] {
		return r.destroyLocation(unitID, limb, true)
	}
	return nil
}

func (r *Resolver) destroyUnit(unitID, reason string) error {
	u, err := r.unit(unitID)
	if err != nil {
		return err
	}
	if u.Destroyed {
		return nil
	}
	return r.emit(&event.UnitDestroyedPayload{UnitID: unitID, Reason: reason})
}

// consciousnessTargets maps total pilot wounds to the 2d6 target the pilot
// must meet to stay conscious. Six wounds kill the pilot outright.
var consciousnessTargets = [6]int{3, 5, 7, 10, 11, 99}

// consciousnessTarget returns the 2d6 target for the given wound total.
func consciousnessTarget(totalWounds int) int {
	if totalWounds < 1 {
		return consciousnessTargets[0]
	}
	if totalWounds > 6 {
		totalWounds = 6
	}
	return consciousnessTargets[totalWounds-1]
}

// woundPilot inflicts pilot wounds and resolves the consciousness check.
// The sixth wound kills the pilot and destroys the unit.
func (r *Resolver) woundPilot(unitID string, wounds int, reason string) error {
	u, err := r.unit(unitID)
	if err != nil {
		return err
	}
	if u.Destroyed || wounds <= 0 {
		return nil
	}
	total := u.PilotWounds + wounds
	if total > 6 {
		total = 6
	}

	pl := event.PilotWoundedPayload{
		UnitID: unitID,
		Wounds: wounds,
		Total:  total,
		Reason: reason,
	}
	if total >= 6 {
		pl.Unconscious = true
		if err := r.emit(&pl); err != nil {
			return err
		}
		return r.destroyUnit(unitID, "pilot_killed")
	}
	if !u.PilotUnconscious {
		roll, _ := r.roll2d6()
		if roll < consciousnessTarget(total) {
			pl.Unconscious = true
		}
	}
	return r.emit(&pl)
}
