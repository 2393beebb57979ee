package scenario

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mekforge/mekforge/internal/game/board"
	"github.com/mekforge/mekforge/internal/game/dice"
	"github.com/mekforge/mekforge/internal/game/engine"
	"github.com/mekforge/mekforge/internal/game/event"
	"github.com/mekforge/mekforge/internal/game/unit"
)

// AssertionMode controls how expectation steps react to a mismatch.
type AssertionMode int

const (
	// AssertionStrict fails the scenario on the first mismatch.
	AssertionStrict AssertionMode = iota
	// AssertionLogOnly logs mismatches and keeps going.
	AssertionLogOnly
)

// Config controls scenario execution.
type Config struct {
	Assertions AssertionMode
	Verbose    bool
	Logger     *log.Logger
}

// Runner executes Lua scenarios against an in-process game session.
type Runner struct {
	cfg    Config
	logger *log.Logger

	gameCfg     engine.Config
	roster      []unit.Sheet
	deployments []event.Deployment
	rolls       []int

	session       *engine.Session
	lastRejection string
}

// NewRunner prepares a scenario runner.
func NewRunner(cfg Config) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "", 0)
	}
	return &Runner{cfg: cfg, logger: logger}
}

// RunFile loads and executes a scenario file.
func RunFile(ctx context.Context, cfg Config, path string) error {
	scenario, err := LoadScenarioFromFile(path)
	if err != nil {
		return err
	}
	return NewRunner(cfg).RunScenario(ctx, scenario)
}

// RunScenario executes the scenario steps in order.
func (r *Runner) RunScenario(ctx context.Context, scenario *Scenario) error {
	if scenario == nil {
		return errors.New("scenario is required")
	}
	r.logf("scenario start: %s (%d steps)", scenario.Name, len(scenario.Steps))

	for index, step := range scenario.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		stepNumber := index + 1
		r.logf("step %d/%d: %s", stepNumber, len(scenario.Steps), step.Kind)
		stepStart := time.Now()
		if err := r.runStep(step); err != nil {
			return fmt.Errorf("step %d (%s): %w", stepNumber, step.Kind, err)
		}
		r.logf("step %d/%d done: %s (%s)", stepNumber, len(scenario.Steps), step.Kind, time.Since(stepStart))
	}
	r.logf("scenario done: %s", scenario.Name)
	return nil
}

func (r *Runner) runStep(step Step) error {
	switch step.Kind {
	case "seed":
		return r.stepSeed(step.Args)
	case "turn_limit":
		return r.stepTurnLimit(step.Args)
	case "unit":
		return r.stepUnit(step.Args)
	case "deploy":
		return r.stepDeploy(step.Args)
	case "rolls":
		return r.stepRolls(step.Args)
	case "move":
		return r.stepMove(step.Args)
	case "fire":
		return r.stepFire(step.Args)
	case "physical":
		return r.stepPhysical(step.Args)
	case "end_phase":
		return r.stepEndPhase()
	case "concede":
		return r.stepConcede(step.Args)
	case "run_to_completion":
		return r.stepRunToCompletion()
	case "expect_armor":
		return r.stepExpectArmor(step.Args)
	case "expect_structure":
		return r.stepExpectStructure(step.Args)
	case "expect_heat":
		return r.stepExpectHeat(step.Args)
	case "expect_prone":
		return r.stepExpectFlag(step.Args, "prone")
	case "expect_shutdown":
		return r.stepExpectFlag(step.Args, "shutdown")
	case "expect_destroyed":
		return r.stepExpectFlag(step.Args, "destroyed")
	case "expect_phase":
		return r.stepExpectPhase(step.Args)
	case "expect_winner":
		return r.stepExpectWinner(step.Args)
	case "expect_rejected":
		return r.stepExpectRejected(step.Args)
	default:
		return fmt.Errorf("unknown step kind %q", step.Kind)
	}
}

// ensureSession builds the game session from the setup steps seen so far.
// Setup steps after the first play step are rejected.
func (r *Runner) ensureSession() (*engine.Session, error) {
	if r.session != nil {
		return r.session, nil
	}
	var d dice.Provider
	if len(r.rolls) > 0 {
		d = dice.NewSequence(r.rolls...)
	}
	s, err := engine.New(r.gameCfg, r.roster, r.deployments, d, nil)
	if err != nil {
		return nil, err
	}
	if _, err := s.Start(); err != nil {
		return nil, err
	}
	r.session = s
	return s, nil
}

func (r *Runner) requireSetup(kind string) error {
	if r.session != nil {
		return fmt.Errorf("%s must come before the first play step", kind)
	}
	return nil
}

func (r *Runner) stepSeed(args map[string]any) error {
	if err := r.requireSetup("seed"); err != nil {
		return err
	}
	r.gameCfg.Seed = int64(intArg(args, "value", 0))
	return nil
}

func (r *Runner) stepTurnLimit(args map[string]any) error {
	if err := r.requireSetup("turn_limit"); err != nil {
		return err
	}
	r.gameCfg.TurnLimit = intArg(args, "value", 0)
	return nil
}

func (r *Runner) stepUnit(args map[string]any) error {
	if err := r.requireSetup("unit"); err != nil {
		return err
	}
	sheet, err := sheetFromArgs(args)
	if err != nil {
		return err
	}
	r.roster = append(r.roster, sheet)
	return nil
}

func (r *Runner) stepDeploy(args map[string]any) error {
	if err := r.requireSetup("deploy"); err != nil {
		return err
	}
	unitID := stringArg(args, "unit")
	if unitID == "" {
		return errors.New("deploy requires unit")
	}
	r.deployments = append(r.deployments, event.Deployment{
		UnitID:   unitID,
		Position: board.Coord{Q: intArg(args, "q", 0), R: intArg(args, "r", 0)},
		Facing:   intArg(args, "facing", 0),
	})
	return nil
}

func (r *Runner) stepRolls(args map[string]any) error {
	if err := r.requireSetup("rolls"); err != nil {
		return err
	}
	values, ok := args["values"].([]any)
	if !ok {
		return errors.New("rolls requires an array of die values")
	}
	r.rolls = r.rolls[:0]
	for _, v := range values {
		n, ok := v.(int)
		if !ok {
			return fmt.Errorf("roll value %v is not an integer", v)
		}
		r.rolls = append(r.rolls, n)
	}
	return nil
}

func (r *Runner) stepMove(args map[string]any) error {
	mode := event.MoveMode(stringArg(args, "mode"))
	if mode == "" {
		mode = event.MoveWalk
	}
	return r.apply(engine.Action{
		Kind:        engine.ActionMove,
		UnitID:      stringArg(args, "unit"),
		Mode:        mode,
		Destination: board.Coord{Q: intArg(args, "q", 0), R: intArg(args, "r", 0)},
		Facing:      intArg(args, "facing", 0),
	})
}

func (r *Runner) stepFire(args map[string]any) error {
	var weapons []string
	if raw, ok := args["weapons"].([]any); ok {
		for _, v := range raw {
			if id, ok := v.(string); ok {
				weapons = append(weapons, id)
			}
		}
	}
	return r.apply(engine.Action{
		Kind:      engine.ActionFire,
		UnitID:    stringArg(args, "attacker"),
		TargetID:  stringArg(args, "target"),
		WeaponIDs: weapons,
	})
}

func (r *Runner) stepPhysical(args map[string]any) error {
	return r.apply(engine.Action{
		Kind:     engine.ActionPhysical,
		UnitID:   stringArg(args, "attacker"),
		TargetID: stringArg(args, "target"),
		Variant:  event.AttackKind(stringArg(args, "kind")),
	})
}

func (r *Runner) stepConcede(args map[string]any) error {
	return r.apply(engine.Action{
		Kind: engine.ActionConcede,
		Side: stringArg(args, "side"),
	})
}

func (r *Runner) apply(action engine.Action) error {
	s, err := r.ensureSession()
	if err != nil {
		return err
	}
	decision, err := s.Apply(action)
	if err != nil {
		return err
	}
	r.lastRejection = ""
	if decision.Rejected() {
		r.lastRejection = decision.Rejection.Code
		r.logf("action rejected: %s (%s)", decision.Rejection.Code, decision.Rejection.Message)
	}
	return nil
}

func (r *Runner) stepEndPhase() error {
	s, err := r.ensureSession()
	if err != nil {
		return err
	}
	if s.IsOver() {
		return nil
	}
	_, err = s.EndPhase()
	return err
}

func (r *Runner) stepRunToCompletion() error {
	s, err := r.ensureSession()
	if err != nil {
		return err
	}
	for !s.IsOver() {
		if _, err := s.EndPhase(); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) stepExpectArmor(args map[string]any) error {
	return r.expectPoints(args, "armor")
}

func (r *Runner) stepExpectStructure(args map[string]any) error {
	return r.expectPoints(args, "structure")
}

func (r *Runner) expectPoints(args map[string]any, what string) error {
	s, err := r.ensureSession()
	if err != nil {
		return err
	}
	st := s.State()
	unitID := stringArg(args, "unit")
	u, ok := st.Unit(unitID)
	if !ok {
		return fmt.Errorf("unknown unit %q", unitID)
	}
	loc := unit.Location(stringArg(args, "location"))
	want := intArg(args, "value", -1)
	got := u.Armor[loc]
	if what == "structure" {
		got = u.Structure[loc]
	}
	if got != want {
		return r.check(false, "%s %s at %s = %d, want %d", unitID, what, loc, got, want)
	}
	return nil
}

func (r *Runner) stepExpectHeat(args map[string]any) error {
	s, err := r.ensureSession()
	if err != nil {
		return err
	}
	st := s.State()
	unitID := stringArg(args, "unit")
	u, ok := st.Unit(unitID)
	if !ok {
		return fmt.Errorf("unknown unit %q", unitID)
	}
	want := intArg(args, "value", -1)
	if u.Heat != want {
		return r.check(false, "%s heat = %d, want %d", unitID, u.Heat, want)
	}
	return nil
}

func (r *Runner) stepExpectFlag(args map[string]any, flag string) error {
	s, err := r.ensureSession()
	if err != nil {
		return err
	}
	st := s.State()
	unitID := stringArg(args, "unit")
	u, ok := st.Unit(unitID)
	if !ok {
		return fmt.Errorf("unknown unit %q", unitID)
	}
	var got bool
	switch flag {
	case "prone":
		got = u.Prone
	case "shutdown":
		got = u.Shutdown
	case "destroyed":
		got = u.Destroyed
	}
	if !got {
		return r.check(false, "%s is not %s", unitID, flag)
	}
	return nil
}

func (r *Runner) stepExpectPhase(args map[string]any) error {
	s, err := r.ensureSession()
	if err != nil {
		return err
	}
	want := event.Phase(stringArg(args, "phase"))
	got := s.State().Phase
	if got != want {
		return r.check(false, "phase = %s, want %s", got, want)
	}
	return nil
}

func (r *Runner) stepExpectWinner(args map[string]any) error {
	s, err := r.ensureSession()
	if err != nil {
		return err
	}
	want := stringArg(args, "side")
	result, over := s.Result()
	if !over {
		return r.check(false, "game is not over, expected winner %q", want)
	}
	if result.Winner != want {
		return r.check(false, "winner = %q, want %q", result.Winner, want)
	}
	return nil
}

func (r *Runner) stepExpectRejected(args map[string]any) error {
	want := stringArg(args, "code")
	if r.lastRejection == "" {
		return r.check(false, "last action was not rejected, expected %q", want)
	}
	if want != "" && r.lastRejection != want {
		return r.check(false, "rejection = %q, want %q", r.lastRejection, want)
	}
	return nil
}

// check reports an assertion mismatch according to the configured mode.
func (r *Runner) check(ok bool, format string, args ...any) error {
	if ok {
		return nil
	}
	msg := fmt.Sprintf(format, args...)
	if r.cfg.Assertions == AssertionLogOnly {
		r.logger.Print("assertion: " + msg)
		return nil
	}
	return errors.New(msg)
}

func (r *Runner) logf(format string, args ...any) {
	if !r.cfg.Verbose || r.logger == nil {
		return
	}
	r.logger.Printf(format, args...)
}

// sheetFromArgs converts a Lua unit table to a record sheet. The table uses
// the sheet's JSON field names, so conversion goes through the codec.
func sheetFromArgs(args map[string]any) (unit.Sheet, error) {
	data, err := json.Marshal(args)
	if err != nil {
		return unit.Sheet{}, fmt.Errorf("encode unit table: %w", err)
	}
	var sheet unit.Sheet
	if err := json.Unmarshal(data, &sheet); err != nil {
		return unit.Sheet{}, fmt.Errorf("decode unit table: %w", err)
	}
	if sheet.Structure == nil {
		sheet.Structure = unit.DefaultStructure(sheet.Tonnage)
	}
	return sheet, nil
}

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func intArg(args map[string]any, key string, fallback int) int {
	if v, ok := args[key].(int); ok {
		return v
	}
	return fallback
}
