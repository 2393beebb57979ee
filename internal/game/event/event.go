// Package event defines the immutable combat event journal: the envelope,
// one strictly typed payload per event kind, pure factories, and a lossless
// codec. The ordered event log is the single source of truth for a game;
// every piece of derived state is a fold over it.
package event

import (
	"strings"
	"time"
)

// Type identifies the kind of a game event.
type Type string

// Game lifecycle events.
const (
	// TypeGameCreated records the creation of a game with its configuration
	// and roster. Always the first event of a log, at sequence 0.
	TypeGameCreated Type = "game.created"
	// TypeGameStarted records the transition from pending to active.
	TypeGameStarted Type = "game.started"
	// TypeGameEnded records the terminal result of a game.
	TypeGameEnded Type = "game.ended"
)

// Turn and phase events.
const (
	// TypeTurnStarted records the start of a game turn.
	TypeTurnStarted Type = "turn.started"
	// TypeTurnEnded records the end of a game turn.
	TypeTurnEnded Type = "turn.ended"
	// TypePhaseChanged records a phase transition within a turn.
	TypePhaseChanged Type = "phase.changed"
	// TypeInitiativeRolled records the initiative contest for a turn.
	TypeInitiativeRolled Type = "initiative.rolled"
)

// Movement events.
const (
	// TypeMovementDeclared records a validated movement declaration.
	TypeMovementDeclared Type = "movement.declared"
	// TypeUnitMoved records the outcome of a movement declaration.
	TypeUnitMoved Type = "unit.moved"
)

// Attack events. attack.resolved covers both weapon fire and physical
// attacks; the payload's Kind field discriminates.
const (
	// TypeAttackDeclared records a weapon attack declaration.
	TypeAttackDeclared Type = "attack.declared"
	// TypePhysicalDeclared records a physical attack declaration.
	TypePhysicalDeclared Type = "physical.declared"
	// TypeAttackResolved records a to-hit resolution.
	TypeAttackResolved Type = "attack.resolved"
	// TypeDamageApplied records damage allocation to a single location.
	TypeDamageApplied Type = "damage.applied"
	// TypeCriticalResolved records a critical hit check and its slot results.
	TypeCriticalResolved Type = "critical.resolved"
	// TypeAmmoConsumed records ammunition expenditure.
	TypeAmmoConsumed Type = "ammo.consumed"
	// TypeAmmoExploded records an ammunition or gauss capacitor explosion.
	TypeAmmoExploded Type = "ammo.exploded"
	// TypeLocationDestroyed records a location reaching zero structure.
	TypeLocationDestroyed Type = "location.destroyed"
	// TypeUnitDestroyed records a unit's destruction.
	TypeUnitDestroyed Type = "unit.destroyed"
)

// Heat and shutdown events.
const (
	// TypeHeatUpdated records the heat phase bookkeeping for a unit.
	TypeHeatUpdated Type = "heat.updated"
	// TypeShutdownChecked records a shutdown avoidance check.
	TypeShutdownChecked Type = "shutdown.checked"
	// TypeUnitShutdown records a unit shutting down.
	TypeUnitShutdown Type = "unit.shutdown"
	// TypeUnitStartup records a startup attempt by a shut-down unit.
	TypeUnitStartup Type = "unit.startup"
)

// Piloting events.
const (
	// TypePSRResolved records a piloting skill roll.
	TypePSRResolved Type = "psr.resolved"
	// TypeUnitFell records a fall and its total damage.
	TypeUnitFell Type = "unit.fell"
	// TypePilotWounded records pilot damage.
	TypePilotWounded Type = "pilot.wounded"
)

// Phase identifies a phase of the turn order.
type Phase string

const (
	PhaseInitiative     Phase = "initiative"
	PhaseMovement       Phase = "movement"
	PhaseWeaponAttack   Phase = "weapon_attack"
	PhasePhysicalAttack Phase = "physical_attack"
	PhaseHeat           Phase = "heat"
	PhaseEnd            Phase = "end"
)

// IsValid reports whether the phase is part of the turn order.
func (p Phase) IsValid() bool {
	switch p {
	case PhaseInitiative, PhaseMovement, PhaseWeaponAttack, PhasePhysicalAttack, PhaseHeat, PhaseEnd:
		return true
	}
	return false
}

// AttackKind discriminates attack resolutions.
type AttackKind string

const (
	AttackWeapon AttackKind = "weapon"
	AttackPunch  AttackKind = "punch"
	AttackKick   AttackKind = "kick"
	AttackCharge AttackKind = "charge"
	AttackDFA    AttackKind = "dfa"
	AttackPush   AttackKind = "push"
	AttackMelee  AttackKind = "melee"
)

// Event is an immutable record in a game's event journal.
//
// Events are totally ordered by Seq within a game and are never mutated or
// deleted. The ID is content-addressed over the rest of the envelope, so two
// identical histories produce identical logs byte for byte.
type Event struct {
	// ID is the content-addressed identity (SHA-256 truncated to 128 bits).
	ID string
	// GameID is the game this event belongs to.
	GameID string
	// Seq is the event sequence number within the game, starting at 0.
	Seq uint64
	// Timestamp is when the event occurred.
	Timestamp time.Time
	// Type identifies the kind of event.
	Type Type
	// Turn is the game turn the event occurred in.
	Turn int
	// Phase is the phase the event occurred in.
	Phase Phase
	// ActorID is the unit that triggered the event, when one did.
	ActorID string
	// Payload holds the kind-specific data.
	Payload Payload
}

// Payload is implemented by every event payload struct.
type Payload interface {
	// EventType returns the event type the payload belongs to.
	EventType() Type
}

// IsValid reports whether the event type is usable.
func (t Type) IsValid() bool {
	return strings.TrimSpace(string(t)) != ""
}

// Domain returns the domain prefix of the event type (e.g., "game", "unit").
func (t Type) Domain() string {
	for i, c := range t {
		if c == '.' {
			return string(t[:i])
		}
	}
	return string(t)
}
