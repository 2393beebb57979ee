// Package phase fixes the turn structure: the phase order within a turn and
// which action kinds are legal in which phase.
package phase

import (
	"github.com/mekforge/mekforge/internal/game/event"
)

// Order is the phase sequence of one game turn.
var Order = []event.Phase{
	event.PhaseInitiative,
	event.PhaseMovement,
	event.PhaseWeaponAttack,
	event.PhasePhysicalAttack,
	event.PhaseHeat,
	event.PhaseEnd,
}

// First returns the opening phase of a turn.
func First() event.Phase { return Order[0] }

// Next returns the phase after p, and false when p ends the turn.
func Next(p event.Phase) (event.Phase, bool) {
	for i, cur := range Order {
		if cur == p {
			if i+1 < len(Order) {
				return Order[i+1], true
			}
			return "", false
		}
	}
	return "", false
}

// Interactive reports whether the phase accepts player actions. Initiative,
// heat, and end are resolved entirely by the engine.
func Interactive(p event.Phase) bool {
	switch p {
	case event.PhaseMovement, event.PhaseWeaponAttack, event.PhasePhysicalAttack:
		return true
	}
	return false
}
