package rules

import (
	"github.com/mekforge/mekforge/internal/game/event"
	"github.com/mekforge/mekforge/internal/game/unit"
)

// critSlotCount maps a 2d6 critical check roll to the number of slots hit.
func critSlotCount(roll int) int {
	switch {
	case roll >= 12:
		return 3
	case roll >= 10:
		return 2
	case roll >= 8:
		return 1
	}
	return 0
}

// checkCriticals runs the 2d6 critical check for a location that took
// structure damage. Hit components are destroyed in slot order; destroyed
// ammo bins with rounds remaining explode, Gauss weapons discharge their
// capacitors.
func (r *Resolver) checkCriticals(unitID string, loc unit.Location) error {
	u, err := r.unit(unitID)
	if err != nil {
		return err
	}
	roll, _ := r.roll2d6()

	var hits []event.DestroyedSlot
	want := critSlotCount(roll)
	for i, slot := range u.Slots[loc] {
		if len(hits) == want {
			break
		}
		if slot.Destroyed {
			continue
		}
		hits = append(hits, event.DestroyedSlot{
			Index:    i,
			Kind:     slot.Def.Kind,
			Actuator: slot.Def.Actuator,
			WeaponID: slot.Def.WeaponID,
			AmmoID:   slot.Def.AmmoID,
		})
	}
	if err := r.emit(&event.CriticalResolvedPayload{
		UnitID:   unitID,
		Location: loc,
		Roll:     roll,
		Slots:    hits,
	}); err != nil {
		return err
	}

	for _, hit := range hits {
		if u.Destroyed {
			return nil
		}
		switch hit.Kind {
		case unit.SlotAmmo:
			bin, ok := u.Bin(hit.AmmoID)
			if !ok {
				continue
			}
			// An empty bin is destroyed quietly; only live rounds cook off.
			if rounds := u.Ammo[hit.AmmoID]; rounds > 0 {
				if err := r.explodeAmmo(unitID, bin, rounds); err != nil {
					return err
				}
			}
		case unit.SlotWeapon:
			if w, ok := u.Sheet.Weapon(hit.WeaponID); ok && w.Gauss {
				if err := r.explodeGauss(unitID, w); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// explodeAmmo resolves an ammunition cook-off: rounds times damage per round
// applied directly to the owning location's structure. CASE contains the
// blast in its location and spares the pilot; CASE II lets exactly one point
// out; with neither, overflow transfers normally and the pilot takes a wound.
func (r *Resolver) explodeAmmo(unitID string, bin unit.AmmoBin, rounds int) error {
	damage := rounds * bin.DamagePerRound
	if err := r.emit(&event.AmmoExplodedPayload{
		UnitID:   unitID,
		Location: bin.Location,
		BinID:    bin.ID,
		Rounds:   rounds,
		Damage:   damage,
		CASE:     bin.CASE,
		CASEII:   bin.CASEII,
	}); err != nil {
		return err
	}
	if err := r.internalExplosion(unitID, bin.Location, damage, bin.CASE, bin.CASEII, SourceAmmoExplosion); err != nil {
		return err
	}
	if !bin.CASE && !bin.CASEII {
		return r.woundPilot(unitID, 1, SourceAmmoExplosion)
	}
	return nil
}

// explodeGauss discharges a critically hit Gauss weapon's capacitors for a
// flat 20 damage regardless of remaining ammunition. CASE in the mounting
// location applies; the pilot is never wounded by a capacitor discharge.
func (r *Resolver) explodeGauss(unitID string, w unit.Weapon) error {
	u, err := r.unit(unitID)
	if err != nil {
		return err
	}
	hasCASE, hasCASEII := false, false
	for _, bin := range u.Sheet.Ammo {
		if bin.Location == w.Location {
			hasCASE = hasCASE || bin.CASE
			hasCASEII = hasCASEII || bin.CASEII
		}
	}
	const gaussDischarge = 20
	if err := r.emit(&event.AmmoExplodedPayload{
		UnitID:   unitID,
		Location: w.Location,
		WeaponID: w.ID,
		Damage:   gaussDischarge,
		CASE:     hasCASE,
		CASEII:   hasCASEII,
	}); err != nil {
		return err
	}
	return r.internalExplosion(unitID, w.Location, gaussDischarge, hasCASE, hasCASEII, SourceGauss)
}

// internalExplosion applies explosion damage to a location's structure,
// bypassing armor, then routes the overflow according to the CASE fit.
func (r *Resolver) internalExplosion(unitID string, loc unit.Location, amount int, hasCASE, hasCASEII bool, source string) error {
	u, err := r.unit(unitID)
	if err != nil {
		return err
	}
	for u.DestroyedLocations[loc] {
		next, ok := loc.Transfer()
		if !ok {
			return nil
		}
		loc = next
	}
	structure := u.Structure[loc]
	structDmg := min(structure, amount)
	overflow := amount - structDmg

	outward := overflow
	switch {
	case hasCASE:
		outward = 0
	case hasCASEII:
		outward = min(overflow, 1)
	}

	pl := event.DamageAppliedPayload{
		UnitID:          unitID,
		Location:        loc,
		Damage:          amount,
		StructureDamage: structDmg,
		ArmorRemaining:  u.Armor[loc],
		StructRemaining: structure - structDmg,
		Source:          source,
	}
	var transfer unit.Location
	if outward > 0 {
		if next, ok := loc.Transfer(); ok {
			pl.Transferred = outward
			pl.TransferTo = next
			transfer = next
		}
	}
	if err := r.emit(&pl); err != nil {
		return err
	}
	if structure-structDmg == 0 && structure > 0 {
		if err := r.destroyLocation(unitID, loc, false); err != nil {
			return err
		}
	}
	if u.Destroyed || transfer == "" {
		return nil
	}
	return r.internalExplosion(unitID, transfer, outward, false, false, source)
}
