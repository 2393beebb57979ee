package rules

import (
	"github.com/mekforge/mekforge/internal/game/event"
)

// heat thresholds for the shutdown and ammo checks
const (
	shutdownHeatFloor = 14
	forcedHeat        = 30
	ammoHeatFloor     = 19
)

// ShutdownTarget returns the 2d6 target to avoid shutdown at the given
// effective heat. Only meaningful at heat 14 and above.
func ShutdownTarget(heat int) int {
	return 4 + (heat-shutdownHeatFloor)/4*2
}

// AmmoExplosionTarget returns the 2d6 target to avoid a heat-driven ammo
// explosion, and automatic=true at heat 30 and above where no roll is taken.
func AmmoExplosionTarget(heat int) (target int, automatic bool) {
	switch {
	case heat >= forcedHeat:
		return 0, true
	case heat >= 28:
		return 8, false
	case heat >= 23:
		return 6, false
	default:
		return 4, false
	}
}

// ResolveHeatPhase settles one unit's heat for the turn: movement and weapon
// heat build up, heat sinks dissipate, then the shutdown check and the
// heat-driven ammo check run against the new level.
//
// attemptOverride lets the pilot substitute a consciousness check for an
// automatic shutdown at heat 30 and above; success keeps the unit running,
// failure shuts it down and knocks the pilot out.
func (r *Resolver) ResolveHeatPhase(unitID string, attemptOverride bool) error {
	u, err := r.unit(unitID)
	if err != nil {
		return err
	}
	if u.Destroyed {
		return nil
	}

	before := u.Heat
	movement := u.MovementHeat
	weapons := u.WeaponHeat
	dissipated := u.Dissipation()
	after := before + movement + weapons - dissipated
	if after < 0 {
		after = 0
	}
	if err := r.emit(&event.HeatUpdatedPayload{
		UnitID:     unitID,
		Movement:   movement,
		Weapons:    weapons,
		Dissipated: dissipated,
		Before:     before,
		After:      after,
	}); err != nil {
		return err
	}

	if !u.Shutdown {
		if err := r.checkShutdown(unitID, after, attemptOverride); err != nil {
			return err
		}
	}
	if u.Destroyed {
		return nil
	}
	return r.checkHeatAmmo(unitID, after)
}

func (r *Resolver) checkShutdown(unitID string, heat int, attemptOverride bool) error {
	u, err := r.unit(unitID)
	if err != nil {
		return err
	}
	// The threshold bonus raises the heat the reactor tolerates before the
	// formula is evaluated.
	effective := heat - u.Sheet.ShutdownThresholdBonus
	if effective < shutdownHeatFloor {
		return nil
	}

	pl := event.ShutdownCheckedPayload{UnitID: unitID, Heat: heat}
	if effective >= forcedHeat {
		pl.Automatic = true
		if attemptOverride && !u.PilotUnconscious {
			roll, _ := r.roll2d6()
			pl.Override = true
			pl.OverrideRoll = roll
			pl.Passed = roll >= consciousnessTarget(u.PilotWounds)
		}
		if err := r.emit(&pl); err != nil {
			return err
		}
		if pl.Passed {
			return nil
		}
		if err := r.shutdown(unitID, true); err != nil {
			return err
		}
		if pl.Override {
			return r.emit(&event.PilotWoundedPayload{
				UnitID:      unitID,
				Wounds:      0,
				Total:       u.PilotWounds,
				Reason:      "shutdown_override",
				Unconscious: true,
			})
		}
		return nil
	}

	pl.Target = ShutdownTarget(effective)
	roll, _ := r.roll2d6()
	pl.Roll = roll
	pl.Passed = roll >= pl.Target
	if err := r.emit(&pl); err != nil {
		return err
	}
	if pl.Passed {
		return nil
	}
	return r.shutdown(unitID, false)
}

func (r *Resolver) shutdown(unitID string, forced bool) error {
	u, err := r.unit(unitID)
	if err != nil {
		return err
	}
	if err := r.emit(&event.UnitShutdownPayload{UnitID: unitID, Forced: forced}); err != nil {
		return err
	}
	if u.Prone {
		return nil
	}
	return r.ShutdownPSR(unitID)
}

func (r *Resolver) checkHeatAmmo(unitID string, heat int) error {
	u, err := r.unit(unitID)
	if err != nil {
		return err
	}
	if heat < ammoHeatFloor {
		return nil
	}
	bins := u.NonEmptyBins()
	if len(bins) == 0 {
		return nil
	}
	target, automatic := AmmoExplosionTarget(heat)
	if !automatic {
		roll, _ := r.roll2d6()
		if roll >= target {
			return nil
		}
	}
	// A uniformly random surviving non-empty bin cooks off.
	pick := bins[r.dice.Roll(len(bins))-1]
	bin, ok := u.Bin(pick)
	if !ok {
		return nil
	}
	return r.explodeAmmo(unitID, bin, u.Ammo[pick])
}

// ResolveStartup attempts to restart a shut-down unit at the start of its
// turn. Heat below the shutdown range restarts automatically; otherwise the
// unit rolls against the same target-number formula as the shutdown check.
func (r *Resolver) ResolveStartup(unitID string) error {
	u, err := r.unit(unitID)
	if err != nil {
		return err
	}
	if !u.Shutdown || u.Destroyed {
		return nil
	}
	effective := u.Heat - u.Sheet.ShutdownThresholdBonus
	if effective < shutdownHeatFloor {
		return r.emit(&event.UnitStartupPayload{
			UnitID:    unitID,
			Automatic: true,
			Success:   true,
		})
	}
	target := ShutdownTarget(effective)
	roll, _ := r.roll2d6()
	return r.emit(&event.UnitStartupPayload{
		UnitID:  unitID,
		Target:  target,
		Roll:    roll,
		Success: roll >= target,
	})
}
