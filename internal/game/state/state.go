// Package state derives the current game state from the event log. State is
// a cache of a fold: it has no independent lifecycle, is never written
// directly, and can always be recomputed from the ordered events.
package state

import (
	"github.com/mekforge/mekforge/internal/game/board"
	"github.com/mekforge/mekforge/internal/game/event"
	"github.com/mekforge/mekforge/internal/game/unit"
)

// Status describes the lifecycle of a game.
type Status string

const (
	StatusPending Status = "pending"
	StatusActive  Status = "active"
	StatusEnded   Status = "ended"
)

// Result is the terminal outcome of a game.
type Result struct {
	// Winner is the winning side, empty on a draw.
	Winner string
	// Reason is one of elimination, mutual_destruction, turn_limit, concession.
	Reason string
}

// GameState is the state of a game derived by folding its event log.
type GameState struct {
	GameID           string
	Status           Status
	Config           event.GameConfig
	Turn             int
	Phase            event.Phase
	InitiativeWinner string
	Units            map[string]*UnitState
	Result           *Result

	// NextSeq is the sequence number the next event must carry. It makes the
	// fold self-checking: applying an out-of-order event is corrupted history.
	NextSeq uint64
}

// SlotState is one critical slot with its battle damage.
type SlotState struct {
	Def       unit.CritSlot
	Destroyed bool
}

// UnitState is the mutable battle state of one unit, derived from events.
type UnitState struct {
	Sheet unit.Sheet

	Position board.Coord
	Facing   int

	Heat      int
	Armor     map[unit.Location]int
	Structure map[unit.Location]int
	// DestroyedLocations holds locations at zero structure. A destroyed
	// location accepts no further damage allocation; damage transfers inward.
	DestroyedLocations map[unit.Location]bool
	// Ammo maps bin id to remaining rounds.
	Ammo map[string]int
	// DestroyedBins holds ammo bins destroyed by critical hits or explosions.
	DestroyedBins    map[string]bool
	DestroyedWeapons map[string]bool
	Slots            map[unit.Location][]SlotState
	HeatSinkHits     int

	PilotWounds      int
	PilotUnconscious bool

	Shutdown  bool
	Prone     bool
	Destroyed bool

	// Per-turn bookkeeping, reset when a turn starts.
	Moved          bool
	MoveMode       event.MoveMode
	HexesMoved     int
	MovementHeat   int
	WeaponHeat     int
	Attacked       bool
	PhysicalDone   bool
	FiredLocations map[unit.Location]bool
}

// Clone returns a deep copy of the state, safe to mutate independently.
func (g GameState) Clone() GameState {
	out := g
	if g.Units != nil {
		out.Units = make(map[string]*UnitState, len(g.Units))
		for id, u := range g.Units {
			cp := u.clone()
			out.Units[id] = &cp
		}
	}
	if g.Result != nil {
		r := *g.Result
		out.Result = &r
	}
	return out
}

func (u *UnitState) clone() UnitState {
	cp := *u
	cp.Armor = cloneMap(u.Armor)
	cp.Structure = cloneMap(u.Structure)
	cp.DestroyedLocations = cloneMap(u.DestroyedLocations)
	cp.Ammo = cloneMap(u.Ammo)
	cp.DestroyedBins = cloneMap(u.DestroyedBins)
	cp.DestroyedWeapons = cloneMap(u.DestroyedWeapons)
	cp.FiredLocations = cloneMap(u.FiredLocations)
	if u.Slots != nil {
		cp.Slots = make(map[unit.Location][]SlotState, len(u.Slots))
		for loc, slots := range u.Slots {
			cp.Slots[loc] = append([]SlotState(nil), slots...)
		}
	}
	return cp
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return nil
	}
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Unit returns the unit state for the given id.
func (g GameState) Unit(id string) (*UnitState, bool) {
	u, ok := g.Units[id]
	return u, ok
}

// SidesAlive returns the sides that still field at least one live unit.
func (g GameState) SidesAlive() []string {
	seen := make(map[string]bool)
	var sides []string
	for _, u := range g.Units {
		if u.Destroyed {
			continue
		}
		if !seen[u.Sheet.Side] {
			seen[u.Sheet.Side] = true
			sides = append(sides, u.Sheet.Side)
		}
	}
	return sides
}

// Eligible reports whether the unit can act: not destroyed, not shut down,
// pilot conscious.
func (u *UnitState) Eligible() bool {
	return !u.Destroyed && !u.Shutdown && !u.PilotUnconscious && u.PilotWounds < 6
}

// ArmActuatorHits counts destroyed actuator slots in the given arm.
func (u *UnitState) ArmActuatorHits(loc unit.Location) int {
	n := 0
	for _, s := range u.Slots[loc] {
		if s.Destroyed && s.Def.Kind == unit.SlotActuator {
			n++
		}
	}
	return n
}

// ActuatorDestroyed reports whether the named actuator in the location is out.
func (u *UnitState) ActuatorDestroyed(loc unit.Location, act unit.Actuator) bool {
	for _, s := range u.Slots[loc] {
		if s.Destroyed && s.Def.Kind == unit.SlotActuator && s.Def.Actuator == act {
			return true
		}
	}
	return false
}

// LegActuatorHits counts destroyed leg actuator slots across both legs.
func (u *UnitState) LegActuatorHits() int {
	return u.ArmActuatorHits(unit.LeftLeg) + u.ArmActuatorHits(unit.RightLeg)
}

// Dissipation returns heat dissipated per turn after heat sink damage.
func (u *UnitState) Dissipation() int {
	d := u.Sheet.HeatSinks - u.HeatSinkHits
	if d < 0 {
		return 0
	}
	return d
}

// NonEmptyBins returns ids of surviving ammo bins with rounds remaining,
// in the sheet's bin order.
func (u *UnitState) NonEmptyBins() []string {
	var ids []string
	for _, bin := range u.Sheet.Ammo {
		if u.DestroyedBins[bin.ID] || u.DestroyedLocations[bin.Location] {
			continue
		}
		if u.Ammo[bin.ID] > 0 {
			ids = append(ids, bin.ID)
		}
	}
	return ids
}

// Bin returns the sheet definition for an ammo bin.
func (u *UnitState) Bin(id string) (unit.AmmoBin, bool) {
	for _, bin := range u.Sheet.Ammo {
		if bin.ID == id {
			return bin, true
		}
	}
	return unit.AmmoBin{}, false
}

// WeaponUsable reports whether a weapon can fire: intact, mounted on an
// intact location, with ammunition if it needs any.
func (u *UnitState) WeaponUsable(w unit.Weapon) bool {
	if u.DestroyedWeapons[w.ID] || u.DestroyedLocations[w.Location] {
		return false
	}
	if w.AmmoType == "" {
		return true
	}
	for _, bin := range u.Sheet.Ammo {
		if bin.AmmoType != w.AmmoType || u.DestroyedBins[bin.ID] || u.DestroyedLocations[bin.Location] {
			continue
		}
		if u.Ammo[bin.ID] > 0 {
			return true
		}
	}
	return false
}
