// Package unit defines the static record sheets the combat engine fights with:
// locations, armor and structure maxima, weapons, ammunition bins, and
// critical slot layouts. Sheets are immutable inputs; all mutable battle state
// lives in the derived game state.
package unit

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"strings"
)

// Location identifies a section of a BattleMech.
type Location string

const (
	Head        Location = "head"
	CenterTorso Location = "center_torso"
	LeftTorso   Location = "left_torso"
	RightTorso  Location = "right_torso"
	LeftArm     Location = "left_arm"
	RightArm    Location = "right_arm"
	LeftLeg     Location = "left_leg"
	RightLeg    Location = "right_leg"
)

// Locations lists every location in a fixed order.
var Locations = []Location{
	Head, CenterTorso, LeftTorso, RightTorso,
	LeftArm, RightArm, LeftLeg, RightLeg,
}

// IsValid reports whether the location is one of the eight mech sections.
func (l Location) IsValid() bool {
	switch l {
	case Head, CenterTorso, LeftTorso, RightTorso, LeftArm, RightArm, LeftLeg, RightLeg:
		return true
	}
	return false
}

// Transfer returns the location damage transfers to when this location is
// destroyed, and false when damage stops here (head and center torso).
func (l Location) Transfer() (Location, bool) {
	switch l {
	case LeftArm, LeftLeg:
		return LeftTorso, true
	case RightArm, RightLeg:
		return RightTorso, true
	case LeftTorso, RightTorso:
		return CenterTorso, true
	}
	return "", false
}

// DependentLimb returns the limb destroyed alongside this location, if any.
// Destroying a side torso takes the attached arm with it.
func (l Location) DependentLimb() (Location, bool) {
	switch l {
	case LeftTorso:
		return LeftArm, true
	case RightTorso:
		return RightArm, true
	}
	return "", false
}

// SlotKind identifies the component occupying a critical slot.
type SlotKind string

const (
	SlotActuator SlotKind = "actuator"
	SlotWeapon   SlotKind = "weapon"
	SlotAmmo     SlotKind = "ammo"
	SlotHeatSink SlotKind = "heat_sink"
)

// Actuator names used in crit slots. Arm actuators modify punch and weapon
// to-hit numbers; leg actuators modify kicks and piloting rolls.
const (
	ActuatorShoulder Actuator = "shoulder"
	ActuatorUpperArm Actuator = "upper_arm"
	ActuatorLowerArm Actuator = "lower_arm"
	ActuatorHand     Actuator = "hand"
	ActuatorHip      Actuator = "hip"
	ActuatorUpperLeg Actuator = "upper_leg"
	ActuatorLowerLeg Actuator = "lower_leg"
	ActuatorFoot     Actuator = "foot"
)

// Actuator identifies a limb actuator type.
type Actuator string

// CritSlot is one entry in a location's critical slot table. Exactly one of
// the reference fields is set, matching Kind.
type CritSlot struct {
	Kind     SlotKind `json:"kind"`
	Actuator Actuator `json:"actuator,omitempty"`
	WeaponID string   `json:"weapon_id,omitempty"`
	AmmoID   string   `json:"ammo_id,omitempty"`
}

// MeleeWeapon identifies a hand-held melee weapon carried by a unit.
type MeleeWeapon string

const (
	MeleeNone    MeleeWeapon = ""
	MeleeHatchet MeleeWeapon = "hatchet"
	MeleeSword   MeleeWeapon = "sword"
	MeleeMace    MeleeWeapon = "mace"
)

// Weapon is a ranged weapon mounted on a unit.
type Weapon struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Location   Location `json:"location"`
	Damage     int      `json:"damage"`
	Heat       int      `json:"heat"`
	ShortRange int      `json:"short_range"`
	MedRange   int      `json:"med_range"`
	LongRange  int      `json:"long_range"`
	// AmmoType links the weapon to bins of the same type. Empty for energy
	// weapons, which never consume ammunition.
	AmmoType string `json:"ammo_type,omitempty"`
	// Gauss weapons discharge their capacitors for a flat 20 damage when
	// critically hit, regardless of remaining ammunition.
	Gauss bool `json:"gauss,omitempty"`
}

// AmmoBin is a store of ammunition in a single location.
type AmmoBin struct {
	ID             string   `json:"id"`
	Location       Location `json:"location"`
	AmmoType       string   `json:"ammo_type"`
	Rounds         int      `json:"rounds"`
	DamagePerRound int      `json:"damage_per_round"`
	CASE           bool     `json:"case,omitempty"`
	CASEII         bool     `json:"case_ii,omitempty"`
}

// Sheet is the immutable record sheet for one unit.
type Sheet struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Side    string `json:"side"`
	Tonnage int    `json:"tonnage"`

	WalkMP int `json:"walk_mp"`
	JumpMP int `json:"jump_mp,omitempty"`

	Gunnery  int `json:"gunnery"`
	Piloting int `json:"piloting"`

	// HeatSinks is the unit's heat dissipation per turn.
	HeatSinks int `json:"heat_sinks"`

	Armor     map[Location]int        `json:"armor"`
	Structure map[Location]int        `json:"structure"`
	Slots     map[Location][]CritSlot `json:"slots,omitempty"`

	Weapons []Weapon  `json:"weapons,omitempty"`
	Ammo    []AmmoBin `json:"ammo,omitempty"`

	Melee MeleeWeapon `json:"melee,omitempty"`

	// TripleStrengthMyomer doubles effective tonnage for physical damage once
	// heat reaches 9.
	TripleStrengthMyomer bool `json:"tsm,omitempty"`
	// ShutdownThresholdBonus raises the effective heat threshold used by the
	// shutdown check before the target-number formula is evaluated.
	ShutdownThresholdBonus int `json:"shutdown_threshold_bonus,omitempty"`
	// ShutdownOverride is a standing order to ride through automatic heat
	// shutdowns: the pilot substitutes a consciousness check, and a failed
	// check knocks them out.
	ShutdownOverride bool `json:"shutdown_override,omitempty"`
	// Underwater halves all physical attack damage dealt by this unit.
	Underwater bool `json:"underwater,omitempty"`
}

// Validate checks that the sheet is structurally usable by the engine.
func (s Sheet) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("unit id is required")
	}
	if strings.TrimSpace(s.Side) == "" {
		return fmt.Errorf("unit %s: side is required", s.ID)
	}
	if s.Tonnage <= 0 {
		return fmt.Errorf("unit %s: tonnage must be positive", s.ID)
	}
	for loc, pts := range s.Armor {
		if !loc.IsValid() {
			return fmt.Errorf("unit %s: unknown armor location %q", s.ID, loc)
		}
		if pts < 0 {
			return fmt.Errorf("unit %s: negative armor at %s", s.ID, loc)
		}
	}
	for _, loc := range Locations {
		if s.Structure[loc] <= 0 {
			return fmt.Errorf("unit %s: structure at %s must be positive", s.ID, loc)
		}
	}
	seen := make(map[string]struct{})
	for _, w := range s.Weapons {
		if strings.TrimSpace(w.ID) == "" {
			return fmt.Errorf("unit %s: weapon id is required", s.ID)
		}
		if _, dup := seen[w.ID]; dup {
			return fmt.Errorf("unit %s: duplicate weapon id %s", s.ID, w.ID)
		}
		seen[w.ID] = struct{}{}
		if !w.Location.IsValid() {
			return fmt.Errorf("unit %s: weapon %s has unknown location %q", s.ID, w.ID, w.Location)
		}
	}
	for _, bin := range s.Ammo {
		if strings.TrimSpace(bin.ID) == "" {
			return fmt.Errorf("unit %s: ammo bin id is required", s.ID)
		}
		if _, dup := seen[bin.ID]; dup {
			return fmt.Errorf("unit %s: duplicate ammo bin id %s", s.ID, bin.ID)
		}
		seen[bin.ID] = struct{}{}
		if !bin.Location.IsValid() {
			return fmt.Errorf("unit %s: ammo bin %s has unknown location %q", s.ID, bin.ID, bin.Location)
		}
		if bin.Rounds < 0 {
			return fmt.Errorf("unit %s: ammo bin %s has negative rounds", s.ID, bin.ID)
		}
	}
	return nil
}

// Weapon returns the weapon with the given id.
func (s Sheet) Weapon(id string) (Weapon, bool) {
	for _, w := range s.Weapons {
		if w.ID == id {
			return w, true
		}
	}
	return Weapon{}, false
}

// standard internal structure by tonnage, head through right leg
var structureTable = map[int][8]int{
	20:  {3, 6, 5, 5, 3, 3, 4, 4},
	25:  {3, 8, 6, 6, 4, 4, 6, 6},
	30:  {3, 10, 7, 7, 5, 5, 7, 7},
	35:  {3, 11, 8, 8, 6, 6, 8, 8},
	40:  {3, 12, 10, 10, 6, 6, 10, 10},
	45:  {3, 14, 11, 11, 7, 7, 11, 11},
	50:  {3, 16, 12, 12, 8, 8, 12, 12},
	55:  {3, 18, 13, 13, 9, 9, 13, 13},
	60:  {3, 20, 14, 14, 10, 10, 14, 14},
	65:  {3, 21, 15, 15, 10, 10, 15, 15},
	70:  {3, 22, 15, 15, 11, 11, 15, 15},
	75:  {3, 23, 16, 16, 12, 12, 16, 16},
	80:  {3, 25, 17, 17, 13, 13, 17, 17},
	85:  {3, 27, 18, 18, 14, 14, 18, 18},
	90:  {3, 29, 19, 19, 15, 15, 19, 19},
	95:  {3, 30, 20, 20, 16, 16, 20, 20},
	100: {3, 31, 21, 21, 17, 17, 21, 21},
}

// DefaultStructure returns the standard internal structure values for the
// given tonnage. Tonnages between table rows use the next row down.
func DefaultStructure(tonnage int) map[Location]int {
	best := 20
	for t := range structureTable {
		if t <= tonnage && t > best {
			best = t
		}
	}
	row := structureTable[best]
	order := []Location{Head, CenterTorso, LeftTorso, RightTorso, LeftArm, RightArm, LeftLeg, RightLeg}
	out := make(map[Location]int, len(order))
	for i, loc := range order {
		out[loc] = row[i]
	}
	return out
}

// NewID generates a URL-safe identifier using UUIDv4 bytes encoded as base32.
// The identifier is 26 characters long, lowercase, and contains no padding.
func NewID() (string, error) {
	var raw [16]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	// RFC 4122 variant and version bits for a v4 UUID.
	raw[6] = (raw[6] & 0x0f) | 0x40
	raw[8] = (raw[8] & 0x3f) | 0x80

	encoded := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw[:])
	return strings.ToLower(encoded), nil
}
