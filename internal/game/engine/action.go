package engine

import (
	"fmt"

	"github.com/mekforge/mekforge/internal/game/board"
	"github.com/mekforge/mekforge/internal/game/event"
	"github.com/mekforge/mekforge/internal/game/phase"
	"github.com/mekforge/mekforge/internal/game/rules"
	"github.com/mekforge/mekforge/internal/game/state"
)

// ActionKind identifies what a submitted action intends.
type ActionKind string

const (
	ActionMove     ActionKind = "move"
	ActionFire     ActionKind = "fire"
	ActionPhysical ActionKind = "physical"
	ActionConcede  ActionKind = "concede"
)

// Action is one intent submitted to the session. Which fields matter depends
// on Kind.
type Action struct {
	Kind   ActionKind
	UnitID string

	// Movement.
	Mode        event.MoveMode
	Destination board.Coord
	Facing      int

	// Attacks.
	TargetID  string
	WeaponIDs []string
	Variant   event.AttackKind

	// Concession.
	Side string
}

// Decision is the outcome of applying one action: either the events the
// action produced, or the rejection that stopped it before any event was
// appended. Rejections are values, not errors; callers branch on them.
type Decision struct {
	Events    []event.Event
	Rejection *rules.Rejection
}

// Rejected reports whether the action was refused.
func (d Decision) Rejected() bool { return d.Rejection != nil }

func rejected(rej *rules.Rejection) Decision { return Decision{Rejection: rej} }

// Apply validates an action against the current phase and unit eligibility,
// resolves it, and appends the resulting events. Illegal actions return a
// rejection with no event emitted and state unchanged; an error indicates a
// broken engine invariant, not an illegal action.
func (s *Session) Apply(a Action) (Decision, error) {
	if s.IsOver() {
		return Decision{}, ErrGameEnded
	}
	if s.st.Status != state.StatusActive {
		return Decision{}, fmt.Errorf("engine: game %s is not active", s.cfg.GameID)
	}

	switch a.Kind {
	case ActionConcede:
		events, err := s.Concede(a.Side)
		if err != nil {
			return Decision{}, err
		}
		return Decision{Events: events}, nil
	case ActionMove:
		return s.applyMove(a)
	case ActionFire:
		return s.applyFire(a)
	case ActionPhysical:
		return s.applyPhysical(a)
	}
	return Decision{}, fmt.Errorf("engine: unknown action kind %q", a.Kind)
}

func (s *Session) applyMove(a Action) (Decision, error) {
	if s.st.Phase != event.PhaseMovement {
		return rejected(outOfPhase(a.Kind, s.st.Phase)), nil
	}
	u, ok := s.st.Unit(a.UnitID)
	if !ok {
		return rejected(unknownUnit(a.UnitID)), nil
	}
	if rej := rules.CheckMove(u, a.Mode, a.Destination, a.Facing); rej != nil {
		return rejected(rej), nil
	}
	events, err := s.resolve(a.UnitID, func(r *rules.Resolver) error {
		return r.ResolveMove(a.UnitID, a.Mode, a.Destination, a.Facing)
	})
	if err != nil {
		return Decision{}, err
	}
	return Decision{Events: events}, nil
}

func (s *Session) applyFire(a Action) (Decision, error) {
	if s.st.Phase != event.PhaseWeaponAttack {
		return rejected(outOfPhase(a.Kind, s.st.Phase)), nil
	}
	attacker, ok := s.st.Unit(a.UnitID)
	if !ok {
		return rejected(unknownUnit(a.UnitID)), nil
	}
	target, ok := s.st.Unit(a.TargetID)
	if !ok {
		return rejected(unknownUnit(a.TargetID)), nil
	}
	if rej := rules.CheckWeaponAttack(attacker, target, a.WeaponIDs); rej != nil {
		return rejected(rej), nil
	}
	events, err := s.resolve(a.UnitID, func(r *rules.Resolver) error {
		return r.ResolveWeaponAttack(a.UnitID, a.TargetID, a.WeaponIDs)
	})
	if err != nil {
		return Decision{}, err
	}
	more, err := s.checkVictory()
	if err != nil {
		return Decision{}, err
	}
	return Decision{Events: append(events, more...)}, nil
}

func (s *Session) applyPhysical(a Action) (Decision, error) {
	if s.st.Phase != event.PhasePhysicalAttack {
		return rejected(outOfPhase(a.Kind, s.st.Phase)), nil
	}
	attacker, ok := s.st.Unit(a.UnitID)
	if !ok {
		return rejected(unknownUnit(a.UnitID)), nil
	}
	target, ok := s.st.Unit(a.TargetID)
	if !ok {
		return rejected(unknownUnit(a.TargetID)), nil
	}
	if rej := rules.CheckPhysical(attacker, target, a.Variant); rej != nil {
		return rejected(rej), nil
	}
	events, err := s.resolve(a.UnitID, func(r *rules.Resolver) error {
		return r.ResolvePhysical(a.UnitID, a.TargetID, a.Variant)
	})
	if err != nil {
		return Decision{}, err
	}
	more, err := s.checkVictory()
	if err != nil {
		return Decision{}, err
	}
	return Decision{Events: append(events, more...)}, nil
}

func outOfPhase(kind ActionKind, p event.Phase) *rules.Rejection {
	return &rules.Rejection{
		Code:    rules.RejectOutOfPhase,
		Message: fmt.Sprintf("action %s is not legal in the %s phase", kind, p),
	}
}

func unknownUnit(id string) *rules.Rejection {
	return &rules.Rejection{
		Code:    rules.RejectUnknownUnit,
		Message: fmt.Sprintf("no unit %s in this game", id),
	}
}

// Actions enumerates the legal actions for a unit in the current phase.
// Movement actions carry the mode with the unit's current position as a
// placeholder destination; callers choose the hex within the allowance.
func (s *Session) Actions(unitID string) []Action {
	if s.IsOver() || s.st.Status != state.StatusActive {
		return nil
	}
	u, ok := s.st.Unit(unitID)
	if !ok || !u.Eligible() {
		return nil
	}
	if !phase.Interactive(s.st.Phase) {
		return nil
	}

	var actions []Action
	switch s.st.Phase {
	case event.PhaseMovement:
		if u.Moved {
			return nil
		}
		walk, run, jump := rules.MoveAllowance(u)
		if !u.Prone {
			actions = append(actions, Action{Kind: ActionMove, UnitID: unitID, Mode: event.MoveStandStill, Destination: u.Position, Facing: u.Facing})
		}
		if walk > 0 {
			actions = append(actions, Action{Kind: ActionMove, UnitID: unitID, Mode: event.MoveWalk, Destination: u.Position, Facing: u.Facing})
		}
		if run > 0 && !u.Prone {
			actions = append(actions, Action{Kind: ActionMove, UnitID: unitID, Mode: event.MoveRun, Destination: u.Position, Facing: u.Facing})
		}
		if jump > 0 && !u.Prone {
			actions = append(actions, Action{Kind: ActionMove, UnitID: unitID, Mode: event.MoveJump, Destination: u.Position, Facing: u.Facing})
		}
	case event.PhaseWeaponAttack:
		for _, targetID := range s.order {
			t, ok := s.st.Unit(targetID)
			if !ok || t.Destroyed || t.Sheet.Side == u.Sheet.Side {
				continue
			}
			var usable []string
			for _, w := range u.Sheet.Weapons {
				if rules.CheckWeaponAttack(u, t, []string{w.ID}) == nil {
					usable = append(usable, w.ID)
				}
			}
			if len(usable) > 0 {
				actions = append(actions, Action{Kind: ActionFire, UnitID: unitID, TargetID: targetID, WeaponIDs: usable})
			}
		}
	case event.PhasePhysicalAttack:
		variants := []event.AttackKind{
			event.AttackPunch, event.AttackKick, event.AttackCharge,
			event.AttackDFA, event.AttackPush, event.AttackMelee,
		}
		for _, targetID := range s.order {
			t, ok := s.st.Unit(targetID)
			if !ok || t.Destroyed || t.Sheet.Side == u.Sheet.Side {
				continue
			}
			for _, v := range variants {
				if rules.CheckPhysical(u, t, v) == nil {
					actions = append(actions, Action{Kind: ActionPhysical, UnitID: unitID, TargetID: targetID, Variant: v})
				}
			}
		}
	}
	return actions
}
