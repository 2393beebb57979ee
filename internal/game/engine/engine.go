// Package engine is the game facade: it owns the event log of a game,
// validates incoming actions against the current phase and unit eligibility,
// resolves legal actions through the rules, and appends the resulting events.
//
// A Session is single-threaded by contract. One action resolves at a time and
// always runs to completion once started; an illegal action is rejected as a
// value before any event is appended.
package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/mekforge/mekforge/internal/game/dice"
	"github.com/mekforge/mekforge/internal/game/event"
	"github.com/mekforge/mekforge/internal/game/eventlog"
	"github.com/mekforge/mekforge/internal/game/phase"
	"github.com/mekforge/mekforge/internal/game/rules"
	"github.com/mekforge/mekforge/internal/game/state"
	"github.com/mekforge/mekforge/internal/game/unit"
)

// ErrGameEnded indicates an operation on a game that already ended.
var ErrGameEnded = errors.New("engine: game has ended")

// Victory reasons recorded on game.ended events.
const (
	ReasonElimination       = "elimination"
	ReasonMutualDestruction = "mutual_destruction"
	ReasonTurnLimit         = "turn_limit"
	ReasonConcession        = "concession"
)

// Config holds per-game settings.
type Config struct {
	// GameID identifies the game. Generated when empty.
	GameID string
	// Seed seeds the default dice provider.
	Seed int64
	// TurnLimit ends the game in a draw after this many turns. Zero means
	// the game runs until a side is eliminated or concedes.
	TurnLimit int
}

// Session is one running game: the event log, the derived state, and the
// dice stream, advanced one action at a time.
type Session struct {
	cfg   Config
	log   *eventlog.Log
	st    state.GameState
	dice  dice.Provider
	clock func() time.Time

	roster []unit.Sheet
	order  []string // unit ids in roster order
	sides  []string // sides in roster order of first appearance
}

// New creates a game from its configuration and roster and records the
// game.created event at sequence zero. The dice provider defaults to a
// seeded provider over cfg.Seed; the clock defaults to the wall clock and is
// injectable so that tests and replays can produce identical logs.
func New(cfg Config, roster []unit.Sheet, deployments []event.Deployment, d dice.Provider, clock func() time.Time) (*Session, error) {
	if len(roster) < 2 {
		return nil, fmt.Errorf("engine: a game needs at least two units")
	}
	if cfg.GameID == "" {
		id, err := unit.NewID()
		if err != nil {
			return nil, fmt.Errorf("engine: generate game id: %w", err)
		}
		cfg.GameID = id
	}
	if d == nil {
		d = dice.NewSeeded(cfg.Seed)
	}
	if clock == nil {
		clock = time.Now
	}

	sheets := make([]unit.Sheet, len(roster))
	var order []string
	var sides []string
	seenSide := make(map[string]bool)
	for i, sheet := range roster {
		if len(sheet.Structure) == 0 {
			sheet.Structure = unit.DefaultStructure(sheet.Tonnage)
		}
		if err := sheet.Validate(); err != nil {
			return nil, fmt.Errorf("engine: roster: %w", err)
		}
		sheets[i] = sheet
		order = append(order, sheet.ID)
		if !seenSide[sheet.Side] {
			seenSide[sheet.Side] = true
			sides = append(sides, sheet.Side)
		}
	}
	if len(sides) < 2 {
		return nil, fmt.Errorf("engine: a game needs at least two sides")
	}

	log, err := eventlog.New(cfg.GameID)
	if err != nil {
		return nil, err
	}
	s := &Session{
		cfg:    cfg,
		log:    log,
		dice:   d,
		clock:  clock,
		roster: sheets,
		order:  order,
		sides:  sides,
	}
	if _, err := s.append("", &event.GameCreatedPayload{
		Config:      event.GameConfig{TurnLimit: cfg.TurnLimit, Seed: cfg.Seed},
		Units:       sheets,
		Deployments: deployments,
	}); err != nil {
		return nil, err
	}
	return s, nil
}

// Config returns the game configuration.
func (s *Session) Config() Config { return s.cfg }

// State returns a read-only snapshot of the derived state.
func (s *Session) State() state.GameState { return s.st.Clone() }

// Events returns the full ordered event log.
func (s *Session) Events() []event.Event { return s.log.Events() }

// IsOver reports whether the game has ended.
func (s *Session) IsOver() bool { return s.st.Status == state.StatusEnded }

// append stamps payloads into events, appends them to the log, and folds
// them into the derived state. The whole batch is one atomic step; an append
// or fold failure is an internal invariant violation.
func (s *Session) append(actorID string, payloads ...event.Payload) ([]event.Event, error) {
	events := make([]event.Event, 0, len(payloads))
	for _, p := range payloads {
		stamp := event.Stamp{
			GameID:    s.cfg.GameID,
			Seq:       s.log.NextSeq(),
			Timestamp: s.clock(),
			Turn:      s.st.Turn,
			Phase:     s.st.Phase,
			ActorID:   actorID,
		}
		if stamp.Phase == "" {
			stamp.Phase = phase.First()
		}
		if ts, ok := p.(*event.TurnStartedPayload); ok {
			stamp.Turn = ts.Turn
		}
		evt, err := event.New(stamp, p)
		if err != nil {
			return nil, err
		}
		if err := s.log.Append(evt); err != nil {
			return nil, err
		}
		next, err := state.Apply(s.st, evt)
		if err != nil {
			return nil, err
		}
		s.st = next
		events = append(events, evt)
	}
	return events, nil
}

// Start activates a pending game and opens the first turn.
func (s *Session) Start() ([]event.Event, error) {
	if s.st.Status != state.StatusPending {
		return nil, fmt.Errorf("engine: game %s is not pending", s.cfg.GameID)
	}
	events, err := s.append("", &event.GameStartedPayload{})
	if err != nil {
		return nil, err
	}
	more, err := s.beginTurn(1)
	if err != nil {
		return nil, err
	}
	return append(events, more...), nil
}

func (s *Session) beginTurn(turn int) ([]event.Event, error) {
	events, err := s.append("", &event.TurnStartedPayload{Turn: turn})
	if err != nil {
		return nil, err
	}
	more, err := s.append("", &event.PhaseChangedPayload{From: s.st.Phase, To: event.PhaseInitiative})
	if err != nil {
		return nil, err
	}
	events = append(events, more...)

	more, err = s.rollInitiative()
	if err != nil {
		return nil, err
	}
	events = append(events, more...)

	// Shut-down units attempt to restart at the start of their turn.
	for _, id := range s.order {
		u, ok := s.st.Unit(id)
		if !ok || !u.Shutdown || u.Destroyed {
			continue
		}
		more, err = s.resolve(id, func(r *rules.Resolver) error {
			return r.ResolveStartup(id)
		})
		if err != nil {
			return nil, err
		}
		events = append(events, more...)
	}

	more, err = s.append("", &event.PhaseChangedPayload{From: s.st.Phase, To: event.PhaseMovement})
	if err != nil {
		return nil, err
	}
	return append(events, more...), nil
}

func (s *Session) rollInitiative() ([]event.Event, error) {
	rolls := make(map[string]int, len(s.sides))
	var winner string
	for {
		best, tied := 0, false
		for _, side := range s.sides {
			total, _ := dice.TwoD6(s.dice)
			rolls[side] = total
			switch {
			case total > best:
				best, winner, tied = total, side, false
			case total == best:
				tied = true
			}
		}
		if !tied {
			break
		}
	}
	return s.append("", &event.InitiativeRolledPayload{Rolls: rolls, Winner: winner})
}

// resolve runs fn against a resolver over a scratch clone of the state, then
// appends the generated payloads. Nothing is appended if fn fails.
func (s *Session) resolve(actorID string, fn func(*rules.Resolver) error) ([]event.Event, error) {
	scratch := s.st.Clone()
	r := rules.NewResolver(&scratch, s.dice)
	if err := fn(r); err != nil {
		return nil, err
	}
	return s.append(actorID, r.Payloads()...)
}

// EndPhase advances past the current interactive phase. Non-interactive
// phases (heat, end) resolve automatically on the way: ending the physical
// attack phase settles heat for every unit, closes the turn, evaluates
// victory, and opens the next turn.
func (s *Session) EndPhase() ([]event.Event, error) {
	if s.IsOver() {
		return nil, ErrGameEnded
	}
	if s.st.Status != state.StatusActive {
		return nil, fmt.Errorf("engine: game %s is not active", s.cfg.GameID)
	}
	var events []event.Event
	for {
		next, ok := phase.Next(s.st.Phase)
		if !ok {
			more, err := s.endTurn()
			if err != nil {
				return nil, err
			}
			return append(events, more...), nil
		}
		more, err := s.append("", &event.PhaseChangedPayload{From: s.st.Phase, To: next})
		if err != nil {
			return nil, err
		}
		events = append(events, more...)

		if next == event.PhaseHeat {
			more, err = s.resolveHeatPhase()
			if err != nil {
				return nil, err
			}
			events = append(events, more...)
			more, err = s.checkVictory()
			if err != nil {
				return nil, err
			}
			events = append(events, more...)
			if s.IsOver() {
				return events, nil
			}
			continue
		}
		if phase.Interactive(next) {
			return events, nil
		}
	}
}

func (s *Session) resolveHeatPhase() ([]event.Event, error) {
	var events []event.Event
	for _, id := range s.order {
		u, ok := s.st.Unit(id)
		if !ok || u.Destroyed {
			continue
		}
		more, err := s.resolve(id, func(r *rules.Resolver) error {
			return r.ResolveHeatPhase(id, u.Sheet.ShutdownOverride)
		})
		if err != nil {
			return nil, err
		}
		events = append(events, more...)
	}
	return events, nil
}

func (s *Session) endTurn() ([]event.Event, error) {
	events, err := s.append("", &event.TurnEndedPayload{Turn: s.st.Turn})
	if err != nil {
		return nil, err
	}
	if s.cfg.TurnLimit > 0 && s.st.Turn >= s.cfg.TurnLimit {
		more, err := s.endGame("", ReasonTurnLimit)
		if err != nil {
			return nil, err
		}
		return append(events, more...), nil
	}
	more, err := s.beginTurn(s.st.Turn + 1)
	if err != nil {
		return nil, err
	}
	return append(events, more...), nil
}

// checkVictory ends the game when at most one side still fields a live unit.
func (s *Session) checkVictory() ([]event.Event, error) {
	if s.IsOver() {
		return nil, nil
	}
	alive := s.st.SidesAlive()
	switch len(alive) {
	case 0:
		return s.endGame("", ReasonMutualDestruction)
	case 1:
		return s.endGame(alive[0], ReasonElimination)
	}
	return nil, nil
}

func (s *Session) endGame(winner, reason string) ([]event.Event, error) {
	return s.append("", &event.GameEndedPayload{Winner: winner, Reason: reason})
}

// Concede ends the game in favor of the surviving opponents of the conceding
// side.
func (s *Session) Concede(side string) ([]event.Event, error) {
	if s.IsOver() {
		return nil, ErrGameEnded
	}
	winner := ""
	for _, other := range s.st.SidesAlive() {
		if other != side {
			winner = other
			break
		}
	}
	return s.endGame(winner, ReasonConcession)
}

// Result returns the terminal result, if the game has ended.
func (s *Session) Result() (state.Result, bool) {
	if s.st.Result == nil {
		return state.Result{}, false
	}
	return *s.st.Result, true
}
