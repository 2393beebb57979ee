package engine

import (
	"testing"

	"github.com/mekforge/mekforge/internal/game/board"
	"github.com/mekforge/mekforge/internal/game/dice"
	"github.com/mekforge/mekforge/internal/game/event"
	"github.com/mekforge/mekforge/internal/game/rules"
	"github.com/mekforge/mekforge/internal/game/unit"
)

// startedSession opens a game in the movement phase of turn one. The first
// four dice settle initiative (alpha 6, beta 10); extra values script
// whatever the test resolves afterwards.
func startedSession(t testing.TB, extra ...int) *Session {
	t.Helper()
	script := append([]int{3, 3, 5, 5}, extra...)
	s := newSession(t, Config{GameID: "game-1"}, dice.NewSequence(script...))
	if _, err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return s
}

func advanceTo(t testing.TB, s *Session, ph event.Phase) {
	t.Helper()
	for i := 0; s.State().Phase != ph; i++ {
		if i > 5 {
			t.Fatalf("phase %s never reached", ph)
		}
		if _, err := s.EndPhase(); err != nil {
			t.Fatalf("EndPhase: %v", err)
		}
	}
}

func TestApplyMoveAdvancesUnit(t *testing.T) {
	s := startedSession(t)
	before := len(s.Events())

	d, err := s.Apply(Action{
		Kind:        ActionMove,
		UnitID:      "a",
		Mode:        event.MoveWalk,
		Destination: board.Coord{Q: 0, R: 1},
		Facing:      0,
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if d.Rejected() {
		t.Fatalf("rejected: %+v", d.Rejection)
	}
	want := []event.Type{event.TypeMovementDeclared, event.TypeUnitMoved}
	got := eventTypes(d.Events)
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("events = %v", got)
	}
	if len(s.Events()) != before+2 {
		t.Fatalf("log grew by %d, want 2", len(s.Events())-before)
	}

	st := s.State()
	u, _ := st.Unit("a")
	if (u.Position != board.Coord{Q: 0, R: 1}) || !u.Moved {
		t.Fatalf("unit = %v moved %v", u.Position, u.Moved)
	}
}

func TestApplyRejectsOutOfPhase(t *testing.T) {
	s := startedSession(t)
	before := len(s.Events())

	d, err := s.Apply(Action{Kind: ActionFire, UnitID: "a", TargetID: "b", WeaponIDs: []string{"ml-ra"}})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !d.Rejected() || d.Rejection.Code != rules.RejectOutOfPhase {
		t.Fatalf("decision = %+v", d)
	}
	if len(d.Events) != 0 || len(s.Events()) != before {
		t.Fatal("a rejection must not append events")
	}
}

func TestApplyRejectsUnknownUnit(t *testing.T) {
	s := startedSession(t)
	d, err := s.Apply(Action{Kind: ActionMove, UnitID: "zz", Mode: event.MoveWalk})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !d.Rejected() || d.Rejection.Code != rules.RejectUnknownUnit {
		t.Fatalf("decision = %+v", d)
	}
}

func TestApplyRejectsIllegalMove(t *testing.T) {
	s := startedSession(t)
	before := len(s.Events())

	d, err := s.Apply(Action{
		Kind:        ActionMove,
		UnitID:      "a",
		Mode:        event.MoveWalk,
		Destination: board.Coord{Q: 0, R: 1},
		Facing:      6,
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !d.Rejected() || d.Rejection.Code != rules.RejectBadFacing {
		t.Fatalf("decision = %+v", d)
	}
	if len(s.Events()) != before {
		t.Fatal("a rejection must not append events")
	}
}

func TestApplyFireResolvesAttack(t *testing.T) {
	// attack roll 6 against target 4, location roll 3 lands center torso
	s := startedSession(t, 3, 3, 3)
	advanceTo(t, s, event.PhaseWeaponAttack)

	d, err := s.Apply(Action{Kind: ActionFire, UnitID: "a", TargetID: "b", WeaponIDs: []string{"ml-ra"}})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if d.Rejected() {
		t.Fatalf("rejected: %+v", d.Rejection)
	}
	want := []event.Type{event.TypeAttackDeclared, event.TypeAttackResolved, event.TypeDamageApplied}
	got := eventTypes(d.Events)
	if len(got) != len(want) {
		t.Fatalf("events = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d = %s, want %s", i, got[i], want[i])
		}
	}
	res, _ := findEvent[*event.AttackResolvedPayload](d.Events)
	if res.Target != 4 || res.Roll != 6 || !res.Hit || res.Damage != 5 {
		t.Fatalf("resolution = %+v", res)
	}

	st := s.State()
	b, _ := st.Unit("b")
	if b.Armor[unit.CenterTorso] != 15 {
		t.Fatalf("armor = %d, want 15", b.Armor[unit.CenterTorso])
	}
}

func TestApplyPhysicalPunch(t *testing.T) {
	// punch roll 10 against target 5, location roll 6 is the head, pilot
	// consciousness roll 12 passes
	s := startedSession(t, 5, 5, 6, 6, 6)
	advanceTo(t, s, event.PhasePhysicalAttack)

	d, err := s.Apply(Action{Kind: ActionPhysical, UnitID: "a", TargetID: "b", Variant: event.AttackPunch})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if d.Rejected() {
		t.Fatalf("rejected: %+v", d.Rejection)
	}
	res, _ := findEvent[*event.AttackResolvedPayload](d.Events)
	if res.Kind != event.AttackPunch || res.Target != 5 || !res.Hit || res.Damage != 5 {
		t.Fatalf("resolution = %+v", res)
	}
	wound, ok := findEvent[*event.PilotWoundedPayload](d.Events)
	if !ok {
		t.Fatal("head punch must wound the pilot")
	}
	if wound.Total != 1 || wound.Unconscious {
		t.Fatalf("wound = %+v", wound)
	}

	st := s.State()
	b, _ := st.Unit("b")
	if b.Armor[unit.Head] != 4 || b.PilotWounds != 1 {
		t.Fatalf("head armor = %d wounds = %d", b.Armor[unit.Head], b.PilotWounds)
	}
	a, _ := st.Unit("a")
	if !a.PhysicalDone {
		t.Fatal("punching spends the unit's physical attack")
	}
}

func TestApplyConcedeAction(t *testing.T) {
	s := startedSession(t)
	d, err := s.Apply(Action{Kind: ActionConcede, Side: "beta"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	ended, ok := findEvent[*event.GameEndedPayload](d.Events)
	if !ok || ended.Winner != "alpha" || ended.Reason != ReasonConcession {
		t.Fatalf("ended = %+v", ended)
	}
	if !s.IsOver() {
		t.Fatal("concession should end the game")
	}
}

func TestApplyUnknownKind(t *testing.T) {
	s := startedSession(t)
	if _, err := s.Apply(Action{Kind: "taunt", UnitID: "a"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestApplyAfterGameEnded(t *testing.T) {
	s := startedSession(t)
	if _, err := s.Concede("alpha"); err != nil {
		t.Fatalf("Concede: %v", err)
	}
	if _, err := s.Apply(Action{Kind: ActionMove, UnitID: "a"}); err != ErrGameEnded {
		t.Fatalf("Apply after end = %v, want ErrGameEnded", err)
	}
}

func TestActionsMovementPhase(t *testing.T) {
	s := startedSession(t)

	actions := s.Actions("a")
	wantModes := []event.MoveMode{event.MoveStandStill, event.MoveWalk, event.MoveRun, event.MoveJump}
	if len(actions) != len(wantModes) {
		t.Fatalf("actions = %+v", actions)
	}
	for i, mode := range wantModes {
		if actions[i].Kind != ActionMove || actions[i].Mode != mode {
			t.Fatalf("action %d = %+v, want mode %s", i, actions[i], mode)
		}
	}

	if _, err := s.Apply(Action{Kind: ActionMove, UnitID: "a", Mode: event.MoveStandStill, Destination: board.Coord{Q: 0, R: 0}, Facing: 0}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if actions := s.Actions("a"); actions != nil {
		t.Fatalf("moved unit still offers %+v", actions)
	}
	if actions := s.Actions("zz"); actions != nil {
		t.Fatal("unknown unit must offer nothing")
	}
}

func TestActionsWeaponPhase(t *testing.T) {
	s := startedSession(t)
	advanceTo(t, s, event.PhaseWeaponAttack)

	actions := s.Actions("a")
	if len(actions) != 1 {
		t.Fatalf("actions = %+v", actions)
	}
	fire := actions[0]
	if fire.Kind != ActionFire || fire.TargetID != "b" {
		t.Fatalf("action = %+v", fire)
	}
	if len(fire.WeaponIDs) != 2 || fire.WeaponIDs[0] != "ml-ra" || fire.WeaponIDs[1] != "ac5-rt" {
		t.Fatalf("weapons = %v", fire.WeaponIDs)
	}
}

func TestActionsPhysicalPhase(t *testing.T) {
	s := startedSession(t)
	advanceTo(t, s, event.PhasePhysicalAttack)

	// adjacent, unmoved, no melee weapon: punch, kick, and push remain
	actions := s.Actions("a")
	wantVariants := []event.AttackKind{event.AttackPunch, event.AttackKick, event.AttackPush}
	if len(actions) != len(wantVariants) {
		t.Fatalf("actions = %+v", actions)
	}
	for i, v := range wantVariants {
		if actions[i].Kind != ActionPhysical || actions[i].Variant != v || actions[i].TargetID != "b" {
			t.Fatalf("action %d = %+v, want %s", i, actions[i], v)
		}
	}
}

func TestActionsOutsideInteractivePhase(t *testing.T) {
	s := newSession(t, Config{GameID: "game-1"}, dice.NewSequence())
	if actions := s.Actions("a"); actions != nil {
		t.Fatal("pending game must offer nothing")
	}
}
