package engine

import (
	"fmt"
	"time"

	"github.com/mekforge/mekforge/internal/game/board"
	"github.com/mekforge/mekforge/internal/game/dice"
	"github.com/mekforge/mekforge/internal/game/event"
	"github.com/mekforge/mekforge/internal/game/phase"
	"github.com/mekforge/mekforge/internal/game/rules"
	"github.com/mekforge/mekforge/internal/game/state"
	"github.com/mekforge/mekforge/internal/game/unit"
)

// DecisionMaker chooses actions for units during interactive phases. One
// maker drives one side.
type DecisionMaker interface {
	// Decide returns the action a unit takes in the given phase, or false
	// to pass.
	Decide(st state.GameState, ph event.Phase, unitID string) (Action, bool)
}

// GameSession is the complete record of a finished game.
type GameSession struct {
	Config Config
	Roster []unit.Sheet
	Events []event.Event
	Final  state.GameState
}

// RunToCompletion plays a whole game without exposing intermediate steps:
// phases advance and declared actions resolve, driven by the supplied
// decision makers, until a victory condition or the turn limit is met. Sides
// without a maker fall back to the built-in AutoPilot.
func RunToCompletion(cfg Config, roster []unit.Sheet, deployments []event.Deployment, d dice.Provider, clock func() time.Time, makers map[string]DecisionMaker) (*GameSession, error) {
	s, err := New(cfg, roster, deployments, d, clock)
	if err != nil {
		return nil, err
	}
	if _, err := s.Start(); err != nil {
		return nil, err
	}

	for !s.IsOver() {
		ph := s.st.Phase
		if phase.Interactive(ph) {
			for _, id := range s.actingOrder() {
				if s.IsOver() {
					break
				}
				u, ok := s.st.Unit(id)
				if !ok || !u.Eligible() {
					continue
				}
				maker := makers[u.Sheet.Side]
				if maker == nil {
					maker = AutoPilot{}
				}
				action, ok := maker.Decide(s.State(), ph, id)
				if !ok {
					continue
				}
				// A maker that proposes an illegal action forfeits the
				// unit's action for the phase; the rejection is dropped.
				if _, err := s.Apply(action); err != nil {
					return nil, err
				}
			}
		}
		if s.IsOver() {
			break
		}
		if _, err := s.EndPhase(); err != nil {
			return nil, err
		}
	}

	return &GameSession{
		Config: s.cfg,
		Roster: s.roster,
		Events: s.Events(),
		Final:  s.State(),
	}, nil
}

// actingOrder lists unit ids for the current phase: initiative losers act
// first, the winning side last, units in roster order within a side.
func (s *Session) actingOrder() []string {
	winner := s.st.InitiativeWinner
	var ids []string
	for _, side := range s.sides {
		if side == winner {
			continue
		}
		ids = append(ids, s.sideUnits(side)...)
	}
	if winner != "" {
		ids = append(ids, s.sideUnits(winner)...)
	}
	if len(ids) == 0 {
		return s.order
	}
	return ids
}

func (s *Session) sideUnits(side string) []string {
	var ids []string
	for i, id := range s.order {
		if s.roster[i].Side == side {
			ids = append(ids, id)
		}
	}
	return ids
}

// AutoPilot is the built-in decision maker: it closes with the nearest
// enemy, fires everything in range, and kicks or punches when adjacent.
type AutoPilot struct{}

// Decide implements DecisionMaker.
func (AutoPilot) Decide(st state.GameState, ph event.Phase, unitID string) (Action, bool) {
	u, ok := st.Unit(unitID)
	if !ok {
		return Action{}, false
	}
	enemy := nearestEnemy(st, u)

	switch ph {
	case event.PhaseMovement:
		if u.Prone {
			// Stand up in place.
			walk, _, _ := rules.MoveAllowance(u)
			if walk < 1 {
				return Action{}, false
			}
			return Action{Kind: ActionMove, UnitID: unitID, Mode: event.MoveWalk, Destination: u.Position, Facing: u.Facing}, true
		}
		if enemy == nil {
			return Action{Kind: ActionMove, UnitID: unitID, Mode: event.MoveStandStill, Destination: u.Position, Facing: u.Facing}, true
		}
		walk, _, _ := rules.MoveAllowance(u)
		dest := u.Position
		for i := 0; i < walk; i++ {
			if board.Distance(dest, enemy.Position) <= 1 {
				break
			}
			dest = board.StepToward(dest, enemy.Position)
		}
		mode := event.MoveWalk
		hexes := board.Distance(u.Position, dest)
		if hexes == 0 {
			mode = event.MoveStandStill
		}
		return Action{Kind: ActionMove, UnitID: unitID, Mode: mode, Destination: dest, Facing: u.Facing}, true
	case event.PhaseWeaponAttack:
		if enemy == nil {
			return Action{}, false
		}
		dist := board.Distance(u.Position, enemy.Position)
		var usable []string
		for _, w := range u.Sheet.Weapons {
			if u.WeaponUsable(w) && dist <= w.LongRange {
				usable = append(usable, w.ID)
			}
		}
		if len(usable) == 0 {
			return Action{}, false
		}
		return Action{Kind: ActionFire, UnitID: unitID, TargetID: enemy.Sheet.ID, WeaponIDs: usable}, true
	case event.PhasePhysicalAttack:
		if enemy == nil || board.Distance(u.Position, enemy.Position) != 1 {
			return Action{}, false
		}
		for _, v := range []event.AttackKind{event.AttackKick, event.AttackPunch} {
			if rules.CheckPhysical(u, enemy, v) == nil {
				return Action{Kind: ActionPhysical, UnitID: unitID, TargetID: enemy.Sheet.ID, Variant: v}, true
			}
		}
		return Action{}, false
	}
	return Action{}, false
}

// nearestEnemy returns the closest live enemy unit, breaking distance ties
// by unit id for determinism.
func nearestEnemy(st state.GameState, u *state.UnitState) *state.UnitState {
	var best *state.UnitState
	bestDist := 0
	var bestID string
	for id, other := range st.Units {
		if other.Destroyed || other.Sheet.Side == u.Sheet.Side {
			continue
		}
		d := board.Distance(u.Position, other.Position)
		if best == nil || d < bestDist || (d == bestDist && id < bestID) {
			best, bestDist, bestID = other, d, id
		}
	}
	return best
}

// Replay folds a serialized log back into a session snapshot, verifying the
// history is well formed.
func Replay(events []event.Event) (state.GameState, error) {
	st, err := state.Derive(events)
	if err != nil {
		return state.GameState{}, fmt.Errorf("engine: replay: %w", err)
	}
	return st, nil
}
