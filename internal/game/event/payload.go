package event

import (
	"github.com/mekforge/mekforge/internal/game/board"
	"github.com/mekforge/mekforge/internal/game/unit"
)

// GameConfig captures the per-game settings recorded at creation.
type GameConfig struct {
	// TurnLimit ends the game in a draw once exceeded. Zero means no limit.
	TurnLimit int `json:"turn_limit,omitempty"`
	// Seed is the dice provider seed the game was created with.
	Seed int64 `json:"seed"`
}

// Modifier is one named contribution to a to-hit target number.
type Modifier struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// Deployment places one unit on the board at game start.
type Deployment struct {
	UnitID   string      `json:"unit_id"`
	Position board.Coord `json:"position"`
	Facing   int         `json:"facing"`
}

// GameCreatedPayload captures the payload for game.created events.
type GameCreatedPayload struct {
	Config      GameConfig   `json:"config"`
	Units       []unit.Sheet `json:"units"`
	Deployments []Deployment `json:"deployments,omitempty"`
}

// GameStartedPayload captures the payload for game.started events.
type GameStartedPayload struct{}

// GameEndedPayload captures the payload for game.ended events.
type GameEndedPayload struct {
	// Winner is the winning side, empty on a draw.
	Winner string `json:"winner,omitempty"`
	// Reason is one of elimination, mutual_destruction, turn_limit, concession.
	Reason string `json:"reason"`
}

// TurnStartedPayload captures the payload for turn.started events.
type TurnStartedPayload struct {
	Turn int `json:"turn"`
}

// TurnEndedPayload captures the payload for turn.ended events.
type TurnEndedPayload struct {
	Turn int `json:"turn"`
}

// PhaseChangedPayload captures the payload for phase.changed events.
type PhaseChangedPayload struct {
	From Phase `json:"from"`
	To   Phase `json:"to"`
}

// InitiativeRolledPayload captures the payload for initiative.rolled events.
type InitiativeRolledPayload struct {
	// Rolls maps side to its 2d6 initiative total.
	Rolls  map[string]int `json:"rolls"`
	Winner string         `json:"winner"`
}

// MoveMode identifies a movement mode.
type MoveMode string

const (
	MoveStandStill MoveMode = "stand_still"
	MoveWalk       MoveMode = "walk"
	MoveRun        MoveMode = "run"
	MoveJump       MoveMode = "jump"
)

// MovementDeclaredPayload captures the payload for movement.declared events.
type MovementDeclaredPayload struct {
	UnitID      string      `json:"unit_id"`
	Mode        MoveMode    `json:"mode"`
	Destination board.Coord `json:"destination"`
	Facing      int         `json:"facing"`
}

// UnitMovedPayload captures the payload for unit.moved events.
type UnitMovedPayload struct {
	UnitID string      `json:"unit_id"`
	Mode   MoveMode    `json:"mode"`
	From   board.Coord `json:"from"`
	To     board.Coord `json:"to"`
	Facing int         `json:"facing"`
	Hexes  int         `json:"hexes"`
	// Heat is the movement heat accrued, applied during the heat phase.
	Heat int `json:"heat"`
}

// AttackDeclaredPayload captures the payload for attack.declared events.
type AttackDeclaredPayload struct {
	AttackerID string   `json:"attacker_id"`
	TargetID   string   `json:"target_id"`
	WeaponIDs  []string `json:"weapon_ids"`
}

// PhysicalDeclaredPayload captures the payload for physical.declared events.
type PhysicalDeclaredPayload struct {
	AttackerID string     `json:"attacker_id"`
	TargetID   string     `json:"target_id"`
	Kind       AttackKind `json:"kind"`
}

// AttackResolvedPayload captures the payload for attack.resolved events.
type AttackResolvedPayload struct {
	AttackerID string     `json:"attacker_id"`
	TargetID   string     `json:"target_id"`
	Kind       AttackKind `json:"kind"`
	// WeaponID is set for weapon fire and empty for physical attacks.
	WeaponID string `json:"weapon_id,omitempty"`
	// Base is the attacker's relevant skill before modifiers.
	Base      int        `json:"base"`
	Modifiers []Modifier `json:"modifiers,omitempty"`
	// Target is the final to-hit target number.
	Target int    `json:"target"`
	Roll   int    `json:"roll"`
	Dice   [2]int `json:"dice"`
	Hit    bool   `json:"hit"`
	// Damage is the total damage on a hit, before location allocation.
	Damage int `json:"damage,omitempty"`
}

// DamageAppliedPayload captures the payload for damage.applied events.
// One event is emitted per location touched; transfers emit follow-up events.
type DamageAppliedPayload struct {
	UnitID   string        `json:"unit_id"`
	Location unit.Location `json:"location"`
	// Damage is the amount allocated to this location.
	Damage          int `json:"damage"`
	ArmorDamage     int `json:"armor_damage"`
	StructureDamage int `json:"structure_damage"`
	ArmorRemaining  int `json:"armor_remaining"`
	StructRemaining int `json:"structure_remaining"`
	// Transferred is the overflow passed to the adjacent location, if any.
	Transferred int           `json:"transferred,omitempty"`
	TransferTo  unit.Location `json:"transfer_to,omitempty"`
	// Source identifies what inflicted the damage (weapon, punch, kick,
	// charge, dfa, melee, fall, ammo_explosion).
	Source string `json:"source"`
}

// DestroyedSlot identifies one critical slot destroyed by a critical hit.
type DestroyedSlot struct {
	Index    int           `json:"index"`
	Kind     unit.SlotKind `json:"kind"`
	Actuator unit.Actuator `json:"actuator,omitempty"`
	WeaponID string        `json:"weapon_id,omitempty"`
	AmmoID   string        `json:"ammo_id,omitempty"`
}

// CriticalResolvedPayload captures the payload for critical.resolved events.
type CriticalResolvedPayload struct {
	UnitID   string        `json:"unit_id"`
	Location unit.Location `json:"location"`
	Roll     int           `json:"roll"`
	// Slots lists the slots destroyed, in slot order. Empty when the check
	// rolled below the critical threshold.
	Slots []DestroyedSlot `json:"slots,omitempty"`
}

// AmmoConsumedPayload captures the payload for ammo.consumed events.
type AmmoConsumedPayload struct {
	UnitID    string `json:"unit_id"`
	BinID     string `json:"bin_id"`
	Rounds    int    `json:"rounds"`
	Remaining int    `json:"remaining"`
}

// AmmoExplodedPayload captures the payload for ammo.exploded events.
// Either BinID (ammunition) or WeaponID (gauss capacitor) is set. The
// structural damage itself arrives as follow-up damage.applied events.
type AmmoExplodedPayload struct {
	UnitID   string        `json:"unit_id"`
	Location unit.Location `json:"location"`
	BinID    string        `json:"bin_id,omitempty"`
	WeaponID string        `json:"weapon_id,omitempty"`
	Rounds   int           `json:"rounds,omitempty"`
	Damage   int           `json:"damage"`
	CASE     bool          `json:"case,omitempty"`
	CASEII   bool          `json:"case_ii,omitempty"`
}

// LocationDestroyedPayload captures the payload for location.destroyed events.
type LocationDestroyedPayload struct {
	UnitID   string        `json:"unit_id"`
	Location unit.Location `json:"location"`
	// Cascade is true when the destruction was caused by a parent location
	// being destroyed rather than by direct damage.
	Cascade bool `json:"cascade,omitempty"`
}

// UnitDestroyedPayload captures the payload for unit.destroyed events.
type UnitDestroyedPayload struct {
	UnitID string `json:"unit_id"`
	// Reason is one of center_torso, head, pilot_killed.
	Reason string `json:"reason"`
}

// HeatUpdatedPayload captures the payload for heat.updated events.
type HeatUpdatedPayload struct {
	UnitID     string `json:"unit_id"`
	Movement   int    `json:"movement"`
	Weapons    int    `json:"weapons"`
	Dissipated int    `json:"dissipated"`
	Before     int    `json:"before"`
	After      int    `json:"after"`
}

// ShutdownCheckedPayload captures the payload for shutdown.checked events.
type ShutdownCheckedPayload struct {
	UnitID string `json:"unit_id"`
	Heat   int    `json:"heat"`
	Target int    `json:"target"`
	// Automatic is true at heat 30 and above: shutdown with no roll.
	Automatic bool `json:"automatic,omitempty"`
	Roll      int  `json:"roll,omitempty"`
	Passed    bool `json:"passed"`
	// Override is true when the pilot substituted a consciousness check for
	// the failed shutdown roll.
	Override     bool `json:"override,omitempty"`
	OverrideRoll int  `json:"override_roll,omitempty"`
}

// UnitShutdownPayload captures the payload for unit.shutdown events.
type UnitShutdownPayload struct {
	UnitID string `json:"unit_id"`
	// Forced is true for automatic shutdowns at heat 30 and above.
	Forced bool `json:"forced,omitempty"`
}

// UnitStartupPayload captures the payload for unit.startup events.
type UnitStartupPayload struct {
	UnitID string `json:"unit_id"`
	Target int    `json:"target"`
	Roll   int    `json:"roll,omitempty"`
	// Automatic is true when heat has dropped below the shutdown range and
	// the unit restarts without a roll.
	Automatic bool `json:"automatic,omitempty"`
	Success   bool `json:"success"`
}

// PSRResolvedPayload captures the payload for psr.resolved events.
type PSRResolvedPayload struct {
	UnitID string `json:"unit_id"`
	// Reason identifies what forced the roll (shutdown, kicked, kick_missed,
	// dfa_missed, charged, pushed, heavy_damage).
	Reason   string `json:"reason"`
	Base     int    `json:"base"`
	Modifier int    `json:"modifier"`
	Target   int    `json:"target"`
	Roll     int    `json:"roll"`
	Passed   bool   `json:"passed"`
}

// UnitFellPayload captures the payload for unit.fell events.
type UnitFellPayload struct {
	UnitID string `json:"unit_id"`
	// Damage is the total fall damage, allocated in follow-up events.
	Damage     int `json:"damage"`
	FacingRoll int `json:"facing_roll"`
}

// PilotWoundedPayload captures the payload for pilot.wounded events.
type PilotWoundedPayload struct {
	UnitID string `json:"unit_id"`
	Wounds int    `json:"wounds"`
	Total  int    `json:"total"`
	// Reason identifies the source (ammo_explosion, fall, head_hit, shutdown_override).
	Reason string `json:"reason"`
	// Unconscious is true when the wound knocked the pilot out.
	Unconscious bool `json:"unconscious,omitempty"`
}

// EventType implementations tie each payload to its event kind.

func (GameCreatedPayload) EventType() Type       { return TypeGameCreated }
func (GameStartedPayload) EventType() Type       { return TypeGameStarted }
func (GameEndedPayload) EventType() Type         { return TypeGameEnded }
func (TurnStartedPayload) EventType() Type       { return TypeTurnStarted }
func (TurnEndedPayload) EventType() Type         { return TypeTurnEnded }
func (PhaseChangedPayload) EventType() Type      { return TypePhaseChanged }
func (InitiativeRolledPayload) EventType() Type  { return TypeInitiativeRolled }
func (MovementDeclaredPayload) EventType() Type  { return TypeMovementDeclared }
func (UnitMovedPayload) EventType() Type         { return TypeUnitMoved }
func (AttackDeclaredPayload) EventType() Type    { return TypeAttackDeclared }
func (PhysicalDeclaredPayload) EventType() Type  { return TypePhysicalDeclared }
func (AttackResolvedPayload) EventType() Type    { return TypeAttackResolved }
func (DamageAppliedPayload) EventType() Type     { return TypeDamageApplied }
func (CriticalResolvedPayload) EventType() Type  { return TypeCriticalResolved }
func (AmmoConsumedPayload) EventType() Type      { return TypeAmmoConsumed }
func (AmmoExplodedPayload) EventType() Type      { return TypeAmmoExploded }
func (LocationDestroyedPayload) EventType() Type { return TypeLocationDestroyed }
func (UnitDestroyedPayload) EventType() Type     { return TypeUnitDestroyed }
func (HeatUpdatedPayload) EventType() Type       { return TypeHeatUpdated }
func (ShutdownCheckedPayload) EventType() Type   { return TypeShutdownChecked }
func (UnitShutdownPayload) EventType() Type      { return TypeUnitShutdown }
func (UnitStartupPayload) EventType() Type       { return TypeUnitStartup }
func (PSRResolvedPayload) EventType() Type       { return TypePSRResolved }
func (UnitFellPayload) EventType() Type          { return TypeUnitFell }
func (PilotWoundedPayload) EventType() Type      { return TypePilotWounded }

// payloadPrototypes maps each event type to a constructor for its payload.
// The deriver and the codec both rely on this registry being closed: an event
// type missing here is a corrupted log, not a recoverable condition.
var payloadPrototypes = map[Type]func() Payload{
	TypeGameCreated:       func() Payload { return &GameCreatedPayload{} },
	TypeGameStarted:       func() Payload { return &GameStartedPayload{} },
	TypeGameEnded:         func() Payload { return &GameEndedPayload{} },
	TypeTurnStarted:       func() Payload { return &TurnStartedPayload{} },
	TypeTurnEnded:         func() Payload { return &TurnEndedPayload{} },
	TypePhaseChanged:      func() Payload { return &PhaseChangedPayload{} },
	TypeInitiativeRolled:  func() Payload { return &InitiativeRolledPayload{} },
	TypeMovementDeclared:  func() Payload { return &MovementDeclaredPayload{} },
	TypeUnitMoved:         func() Payload { return &UnitMovedPayload{} },
	TypeAttackDeclared:    func() Payload { return &AttackDeclaredPayload{} },
	TypePhysicalDeclared:  func() Payload { return &PhysicalDeclaredPayload{} },
	TypeAttackResolved:    func() Payload { return &AttackResolvedPayload{} },
	TypeDamageApplied:     func() Payload { return &DamageAppliedPayload{} },
	TypeCriticalResolved:  func() Payload { return &CriticalResolvedPayload{} },
	TypeAmmoConsumed:      func() Payload { return &AmmoConsumedPayload{} },
	TypeAmmoExploded:      func() Payload { return &AmmoExplodedPayload{} },
	TypeLocationDestroyed: func() Payload { return &LocationDestroyedPayload{} },
	TypeUnitDestroyed:     func() Payload { return &UnitDestroyedPayload{} },
	TypeHeatUpdated:       func() Payload { return &HeatUpdatedPayload{} },
	TypeShutdownChecked:   func() Payload { return &ShutdownCheckedPayload{} },
	TypeUnitShutdown:      func() Payload { return &UnitShutdownPayload{} },
	TypeUnitStartup:       func() Payload { return &UnitStartupPayload{} },
	TypePSRResolved:       func() Payload { return &PSRResolvedPayload{} },
	TypeUnitFell:          func() Payload { return &UnitFellPayload{} },
	TypePilotWounded:      func() Payload { return &PilotWoundedPayload{} },
}

// Registered reports whether the event type has a payload shape.
func Registered(t Type) bool {
	_, ok := payloadPrototypes[t]
	return ok
}
