package state

import (
	"errors"
	"fmt"

	"github.com/mekforge/mekforge/internal/game/event"
	"github.com/mekforge/mekforge/internal/game/unit"
)

// ErrSequenceGap indicates events that are not a gap-free prefix of a log.
var ErrSequenceGap = errors.New("state: sequence out of order")

// ErrUnknownEvent indicates an event type the deriver has no handler for.
var ErrUnknownEvent = errors.New("state: unknown event type")

// ErrUnknownUnit indicates an event referencing a unit the log never created.
var ErrUnknownUnit = errors.New("state: unknown unit")

// Derive folds an ordered event slice into the resulting game state. The
// input must be a gap-free prefix of a log starting at sequence zero; any
// gap or unknown event type means the history is corrupted and derivation
// fails rather than producing a partial state.
func Derive(events []event.Event) (GameState, error) {
	var st GameState
	for i, evt := range events {
		next, err := Apply(st, evt)
		if err != nil {
			return GameState{}, fmt.Errorf("event %d (%s): %w", i, evt.Type, err)
		}
		st = next
	}
	return st, nil
}

// Apply folds a single event into a copy of the state. The input state is
// never mutated, so Apply(Derive(log[:n]), log[n]) always equals
// Derive(log[:n+1]).
func Apply(st GameState, evt event.Event) (GameState, error) {
	if evt.Seq != st.NextSeq {
		return GameState{}, fmt.Errorf("%w: got seq %d, want %d", ErrSequenceGap, evt.Seq, st.NextSeq)
	}
	next := st.Clone()
	if err := next.applyPayload(evt.Payload); err != nil {
		return GameState{}, err
	}
	next.NextSeq = evt.Seq + 1
	return next, nil
}

// ApplyPayload mutates the state in place with the effect of one payload,
// without sequence accounting. The rules package uses it to advance a scratch
// state while generating events, so that rule math and replay math are the
// same code.
func (g *GameState) ApplyPayload(p event.Payload) error {
	return g.applyPayload(p)
}

func (g *GameState) applyPayload(p event.Payload) error {
	switch pl := p.(type) {
	case *event.GameCreatedPayload:
		return g.applyGameCreated(pl)
	case *event.GameStartedPayload:
		g.Status = StatusActive
		return nil
	case *event.GameEndedPayload:
		g.Status = StatusEnded
		g.Result = &Result{Winner: pl.Winner, Reason: pl.Reason}
		return nil
	case *event.TurnStartedPayload:
		g.Turn = pl.Turn
		for _, u := range g.Units {
			u.Moved = false
			u.MoveMode = ""
			u.HexesMoved = 0
			u.MovementHeat = 0
			u.WeaponHeat = 0
			u.Attacked = false
			u.PhysicalDone = false
			u.FiredLocations = nil
		}
		return nil
	case *event.TurnEndedPayload:
		return nil
	case *event.PhaseChangedPayload:
		g.Phase = pl.To
		return nil
	case *event.InitiativeRolledPayload:
		g.InitiativeWinner = pl.Winner
		return nil
	case *event.MovementDeclaredPayload:
		_, err := g.unit(pl.UnitID)
		return err
	case *event.UnitMovedPayload:
		u, err := g.unit(pl.UnitID)
		if err != nil {
			return err
		}
		u.Position = pl.To
		u.Facing = pl.Facing
		// Any successful movement includes regaining footing.
		u.Prone = false
		u.Moved = true
		u.MoveMode = pl.Mode
		u.HexesMoved = pl.Hexes
		u.MovementHeat += pl.Heat
		return nil
	case *event.AttackDeclaredPayload:
		u, err := g.unit(pl.AttackerID)
		if err != nil {
			return err
		}
		u.Attacked = true
		return nil
	case *event.PhysicalDeclaredPayload:
		u, err := g.unit(pl.AttackerID)
		if err != nil {
			return err
		}
		u.PhysicalDone = true
		return nil
	case *event.AttackResolvedPayload:
		return g.applyAttackResolved(pl)
	case *event.DamageAppliedPayload:
		return g.applyDamageApplied(pl)
	case *event.CriticalResolvedPayload:
		return g.applyCriticalResolved(pl)
	case *event.AmmoConsumedPayload:
		u, err := g.unit(pl.UnitID)
		if err != nil {
			return err
		}
		u.Ammo[pl.BinID] = pl.Remaining
		return nil
	case *event.AmmoExplodedPayload:
		u, err := g.unit(pl.UnitID)
		if err != nil {
			return err
		}
		if pl.BinID != "" {
			u.Ammo[pl.BinID] = 0
			u.DestroyedBins[pl.BinID] = true
		}
		if pl.WeaponID != "" {
			u.DestroyedWeapons[pl.WeaponID] = true
		}
		return nil
	case *event.LocationDestroyedPayload:
		return g.applyLocationDestroyed(pl)
	case *event.UnitDestroyedPayload:
		u, err := g.unit(pl.UnitID)
		if err != nil {
			return err
		}
		u.Destroyed = true
		return nil
	case *event.HeatUpdatedPayload:
		u, err := g.unit(pl.UnitID)
		if err != nil {
			return err
		}
		u.Heat = pl.After
		return nil
	case *event.ShutdownCheckedPayload:
		_, err := g.unit(pl.UnitID)
		return err
	case *event.UnitShutdownPayload:
		u, err := g.unit(pl.UnitID)
		if err != nil {
			return err
		}
		u.Shutdown = true
		return nil
	case *event.UnitStartupPayload:
		u, err := g.unit(pl.UnitID)
		if err != nil {
			return err
		}
		if pl.Success {
			u.Shutdown = false
		}
		return nil
	case *event.PSRResolvedPayload:
		_, err := g.unit(pl.UnitID)
		return err
	case *event.UnitFellPayload:
		u, err := g.unit(pl.UnitID)
		if err != nil {
			return err
		}
		u.Prone = true
		return nil
	case *event.PilotWoundedPayload:
		u, err := g.unit(pl.UnitID)
		if err != nil {
			return err
		}
		u.PilotWounds = pl.Total
		if pl.Unconscious {
			u.PilotUnconscious = true
		}
		return nil
	case nil:
		return fmt.Errorf("%w: nil payload", ErrUnknownEvent)
	default:
		return fmt.Errorf("%w: %T", ErrUnknownEvent, p)
	}
}

func (g *GameState) unit(id string) (*UnitState, error) {
	u, ok := g.Units[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownUnit, id)
	}
	return u, nil
}

func (g *GameState) applyGameCreated(pl *event.GameCreatedPayload) error {
	if g.Status != "" {
		return fmt.Errorf("state: game already created")
	}
	g.Status = StatusPending
	g.Config = pl.Config
	g.Units = make(map[string]*UnitState, len(pl.Units))
	for _, sheet := range pl.Units {
		if _, dup := g.Units[sheet.ID]; dup {
			return fmt.Errorf("state: duplicate unit id %s", sheet.ID)
		}
		g.Units[sheet.ID] = newUnitState(sheet)
	}
	for _, dep := range pl.Deployments {
		u, err := g.unit(dep.UnitID)
		if err != nil {
			return err
		}
		u.Position = dep.Position
		u.Facing = dep.Facing
	}
	return nil
}

func newUnitState(sheet unit.Sheet) *UnitState {
	u := &UnitState{
		Sheet:              sheet,
		Armor:              make(map[unit.Location]int, len(unit.Locations)),
		Structure:          make(map[unit.Location]int, len(unit.Locations)),
		DestroyedLocations: make(map[unit.Location]bool),
		Ammo:               make(map[string]int, len(sheet.Ammo)),
		DestroyedBins:      make(map[string]bool),
		DestroyedWeapons:   make(map[string]bool),
	}
	for _, loc := range unit.Locations {
		u.Armor[loc] = sheet.Armor[loc]
		u.Structure[loc] = sheet.Structure[loc]
	}
	for _, bin := range sheet.Ammo {
		u.Ammo[bin.ID] = bin.Rounds
	}
	if len(sheet.Slots) > 0 {
		u.Slots = make(map[unit.Location][]SlotState, len(sheet.Slots))
		for loc, slots := range sheet.Slots {
			ss := make([]SlotState, len(slots))
			for i, def := range slots {
				ss[i] = SlotState{Def: def}
			}
			u.Slots[loc] = ss
		}
	}
	return u
}

func (g *GameState) applyAttackResolved(pl *event.AttackResolvedPayload) error {
	u, err := g.unit(pl.AttackerID)
	if err != nil {
		return err
	}
	if pl.Kind != event.AttackWeapon || pl.WeaponID == "" {
		return nil
	}
	// Weapon fire heats the attacker whether or not it hits. Firing also
	// commits the mounting arm, which blocks punching with it this turn.
	w, ok := u.Sheet.Weapon(pl.WeaponID)
	if !ok {
		return fmt.Errorf("state: unit %s has no weapon %s", pl.AttackerID, pl.WeaponID)
	}
	u.WeaponHeat += w.Heat
	if u.FiredLocations == nil {
		u.FiredLocations = make(map[unit.Location]bool)
	}
	u.FiredLocations[w.Location] = true
	return nil
}

func (g *GameState) applyDamageApplied(pl *event.DamageAppliedPayload) error {
	u, err := g.unit(pl.UnitID)
	if err != nil {
		return err
	}
	if !pl.Location.IsValid() {
		return fmt.Errorf("state: unknown damage location %q", pl.Location)
	}
	u.Armor[pl.Location] = pl.ArmorRemaining
	u.Structure[pl.Location] = pl.StructRemaining
	return nil
}

func (g *GameState) applyCriticalResolved(pl *event.CriticalResolvedPayload) error {
	u, err := g.unit(pl.UnitID)
	if err != nil {
		return err
	}
	slots := u.Slots[pl.Location]
	for _, hit := range pl.Slots {
		if hit.Index < 0 || hit.Index >= len(slots) {
			return fmt.Errorf("state: crit slot %d out of range at %s", hit.Index, pl.Location)
		}
		if slots[hit.Index].Destroyed {
			continue
		}
		slots[hit.Index].Destroyed = true
		switch hit.Kind {
		case unit.SlotWeapon:
			u.DestroyedWeapons[hit.WeaponID] = true
		case unit.SlotHeatSink:
			u.HeatSinkHits++
		case unit.SlotAmmo:
			// A hit on an empty bin just wrecks the bin; explosions arrive as
			// their own events.
			u.DestroyedBins[hit.AmmoID] = true
		}
	}
	return nil
}

func (g *GameState) applyLocationDestroyed(pl *event.LocationDestroyedPayload) error {
	u, err := g.unit(pl.UnitID)
	if err != nil {
		return err
	}
	if !pl.Location.IsValid() {
		return fmt.Errorf("state: unknown location %q", pl.Location)
	}
	u.DestroyedLocations[pl.Location] = true
	u.Armor[pl.Location] = 0
	u.Structure[pl.Location] = 0
	for i := range u.Slots[pl.Location] {
		slot := &u.Slots[pl.Location][i]
		if slot.Destroyed {
			continue
		}
		slot.Destroyed = true
		if slot.Def.Kind == unit.SlotHeatSink {
			u.HeatSinkHits++
		}
	}
	for _, w := range u.Sheet.Weapons {
		if w.Location == pl.Location {
			u.DestroyedWeapons[w.ID] = true
		}
	}
	for _, bin := range u.Sheet.Ammo {
		if bin.Location == pl.Location {
			u.DestroyedBins[bin.ID] = true
		}
	}
	return nil
}
