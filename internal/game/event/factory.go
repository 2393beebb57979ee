package event

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Stamp carries the envelope fields common to every factory.
//
// Sequence numbers are owned by the log appender; factories only stamp the
// value they are handed. Timestamps are injected rather than read from the
// wall clock so that resolving the same history twice can produce identical
// events.
type Stamp struct {
	GameID    string
	Seq       uint64
	Timestamp time.Time
	Turn      int
	Phase     Phase
	ActorID   string
}

// New constructs an event from a stamp and a typed payload.
//
// Factories are pure and total: they validate structure (required envelope
// fields, a registered payload), never game legality. The event ID is
// content-addressed over the envelope, so it is deterministic for a given
// stamp and payload.
func New(stamp Stamp, payload Payload) (Event, error) {
	if strings.TrimSpace(stamp.GameID) == "" {
		return Event{}, fmt.Errorf("event: game id is required")
	}
	if stamp.Timestamp.IsZero() {
		return Event{}, fmt.Errorf("event: timestamp is required")
	}
	if stamp.Turn < 0 {
		return Event{}, fmt.Errorf("event: turn must not be negative")
	}
	if !stamp.Phase.IsValid() {
		return Event{}, fmt.Errorf("event: unknown phase %q", stamp.Phase)
	}
	if payload == nil {
		return Event{}, fmt.Errorf("event: payload is required")
	}
	t := payload.EventType()
	if !Registered(t) {
		return Event{}, fmt.Errorf("event: unregistered payload type %q", t)
	}

	evt := Event{
		GameID:    stamp.GameID,
		Seq:       stamp.Seq,
		Timestamp: stamp.Timestamp.UTC().Truncate(time.Millisecond),
		Type:      t,
		Turn:      stamp.Turn,
		Phase:     stamp.Phase,
		ActorID:   stamp.ActorID,
		Payload:   payload,
	}

	id, err := hashEvent(evt)
	if err != nil {
		return Event{}, err
	}
	evt.ID = id
	return evt, nil
}

// hashEvent computes the content-addressed identity of an event: SHA-256 over
// the canonical encoding of the envelope without the ID, truncated to 128 bits.
func hashEvent(evt Event) (string, error) {
	evt.ID = ""
	data, err := Marshal(evt)
	if err != nil {
		return "", fmt.Errorf("event: hash encode: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:16]), nil
}

// Per-kind constructors. Each stamps the common envelope around one typed
// payload; none of them validates game legality.

// NewGameCreated constructs a game.created event.
func NewGameCreated(stamp Stamp, p GameCreatedPayload) (Event, error) { return New(stamp, &p) }

// NewGameStarted constructs a game.started event.
func NewGameStarted(stamp Stamp, p GameStartedPayload) (Event, error) { return New(stamp, &p) }

// NewGameEnded constructs a game.ended event.
func NewGameEnded(stamp Stamp, p GameEndedPayload) (Event, error) { return New(stamp, &p) }

// NewTurnStarted constructs a turn.started event.
func NewTurnStarted(stamp Stamp, p TurnStartedPayload) (Event, error) { return New(stamp, &p) }

// NewTurnEnded constructs a turn.ended event.
func NewTurnEnded(stamp Stamp, p TurnEndedPayload) (Event, error) { return New(stamp, &p) }

// NewPhaseChanged constructs a phase.changed event.
func NewPhaseChanged(stamp Stamp, p PhaseChangedPayload) (Event, error) { return New(stamp, &p) }

// NewInitiativeRolled constructs an initiative.rolled event.
func NewInitiativeRolled(stamp Stamp, p InitiativeRolledPayload) (Event, error) {
	return New(stamp, &p)
}

// NewMovementDeclared constructs a movement.declared event.
func NewMovementDeclared(stamp Stamp, p MovementDeclaredPayload) (Event, error) {
	return New(stamp, &p)
}

// NewUnitMoved constructs a unit.moved event.
func NewUnitMoved(stamp Stamp, p UnitMovedPayload) (Event, error) { return New(stamp, &p) }

// NewAttackDeclared constructs an attack.declared event.
func NewAttackDeclared(stamp Stamp, p AttackDeclaredPayload) (Event, error) { return New(stamp, &p) }

// NewPhysicalDeclared constructs a physical.declared event.
func NewPhysicalDeclared(stamp Stamp, p PhysicalDeclaredPayload) (Event, error) {
	return New(stamp, &p)
}

// NewAttackResolved constructs an attack.resolved event.
func NewAttackResolved(stamp Stamp, p AttackResolvedPayload) (Event, error) { return New(stamp, &p) }

// NewDamageApplied constructs a damage.applied event.
func NewDamageApplied(stamp Stamp, p DamageAppliedPayload) (Event, error) { return New(stamp, &p) }

// NewCriticalResolved constructs a critical.resolved event.
func NewCriticalResolved(stamp Stamp, p CriticalResolvedPayload) (Event, error) {
	return New(stamp, &p)
}

// NewAmmoConsumed constructs an ammo.consumed event.
func NewAmmoConsumed(stamp Stamp, p AmmoConsumedPayload) (Event, error) { return New(stamp, &p) }

// NewAmmoExploded constructs an ammo.exploded event.
func NewAmmoExploded(stamp Stamp, p AmmoExplodedPayload) (Event, error) { return New(stamp, &p) }

// NewLocationDestroyed constructs a location.destroyed event.
func NewLocationDestroyed(stamp Stamp, p LocationDestroyedPayload) (Event, error) {
	return New(stamp, &p)
}

// NewUnitDestroyed constructs a unit.destroyed event.
func NewUnitDestroyed(stamp Stamp, p UnitDestroyedPayload) (Event, error) { return New(stamp, &p) }

// NewHeatUpdated constructs a heat.updated event.
func NewHeatUpdated(stamp Stamp, p HeatUpdatedPayload) (Event, error) { return New(stamp, &p) }

// NewShutdownChecked constructs a shutdown.checked event.
func NewShutdownChecked(stamp Stamp, p ShutdownCheckedPayload) (Event, error) {
	return New(stamp, &p)
}

// NewUnitShutdown constructs a unit.shutdown event.
func NewUnitShutdown(stamp Stamp, p UnitShutdownPayload) (Event, error) { return New(stamp, &p) }

// NewUnitStartup constructs a unit.startup event.
func NewUnitStartup(stamp Stamp, p UnitStartupPayload) (Event, error) { return New(stamp, &p) }

// NewPSRResolved constructs a psr.resolved event.
func NewPSRResolved(stamp Stamp, p PSRResolvedPayload) (Event, error) { return New(stamp, &p) }

// NewUnitFell constructs a unit.fell event.
func NewUnitFell(stamp Stamp, p UnitFellPayload) (Event, error) { return New(stamp, &p) }

// NewPilotWounded constructs a pilot.wounded event.
func NewPilotWounded(stamp Stamp, p PilotWoundedPayload) (Event, error) { return New(stamp, &p) }
