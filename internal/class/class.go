// Package class defines the four character archetypes and their combat
// profiles.
package class

import (
	"fmt"
	"strings"

	"github.com/duskhall/delve/internal/stats"
)

// Class represents a character archetype
type Class string

const (
	Warrior Class = "warrior"
	Mage    Class = "mage"
	Cleric  Class = "cleric"
	Rogue   Class = "rogue"
)

// AllClasses returns all valid classes
func AllClasses() []Class {
	return []Class{Warrior, Mage, Cleric, Rogue}
}

// IsValid returns true if the class is a valid class
func (c Class) IsValid() bool {
	switch c {
	case Warrior, Mage, Cleric, Rogue:
		return true
	default:
		return false
	}
}

// String returns the display name of the class
func (c Class) String() string {
	switch c {
	case Warrior:
		return "Warrior"
	case Mage:
		return "Mage"
	case Cleric:
		return "Cleric"
	case Rogue:
		return "Rogue"
	default:
		return "Unknown"
	}
}

// IsCaster reports whether the class has a special ability that
// consumes mana (magic bolt for mages, healing for clerics).
func (c Class) IsCaster() bool {
	return c == Mage || c == Cleric
}

// ParseClass parses a string into a Class, case-insensitive
func ParseClass(s string) (Class, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "warrior":
		return Warrior, nil
	case "mage":
		return Mage, nil
	case "cleric":
		return Cleric, nil
	case "rogue":
		return Rogue, nil
	default:
		return "", fmt.Errorf("unknown class: %s", s)
	}
}

// Definition contains the static definition for a class
type Definition struct {
	Name        Class
	Description string
	HitDie      int // e.g., 10 for d10

	// MeleeAbility governs weapon attack and damage modifiers.
	MeleeAbility string // "STR" or "DEX"

	// Base stat profile for freshly synced characters.
	Profile stats.AbilityScores

	// Starting resources before ability modifiers.
	StartingHP   int
	StartingMana int
	ManaPerLevel int

	// SpellCost is the mana consumed by the class special ability.
	// Zero for pure martial classes.
	SpellCost int

	// SpellDie is the damage/heal die of the special ability.
	SpellDie int
}

// Definitions contains all class definitions
var Definitions = map[Class]*Definition{
	Warrior: {
		Name:         "Warrior",
		Description:  "Master of arms and armor, front-line fighter",
		HitDie:       10,
		MeleeAbility: "STR",
		Profile: stats.AbilityScores{
			Strength: 15, Dexterity: 12, Constitution: 14,
			Intelligence: 8, Wisdom: 10, Charisma: 10,
		},
		StartingHP:   10,
		StartingMana: 0,
		ManaPerLevel: 0,
	},
	Mage: {
		Name:         "Mage",
		Description:  "Master of arcane magic, glass cannon",
		HitDie:       6,
		MeleeAbility: "STR",
		Profile: stats.AbilityScores{
			Strength: 8, Dexterity: 12, Constitution: 10,
			Intelligence: 15, Wisdom: 12, Charisma: 10,
		},
		StartingHP:   6,
		StartingMana: 20,
		ManaPerLevel: 5,
		SpellCost:    4,
		SpellDie:     10,
	},
	Cleric: {
		Name:         "Cleric",
		Description:  "Divine healer and support, armored caster",
		HitDie:       8,
		MeleeAbility: "STR",
		Profile: stats.AbilityScores{
			Strength: 12, Dexterity: 10, Constitution: 13,
			Intelligence: 8, Wisdom: 15, Charisma: 12,
		},
		StartingHP:   8,
		StartingMana: 15,
		ManaPerLevel: 4,
		SpellCost:    3,
		SpellDie:     8,
	},
	Rogue: {
		Name:         "Rogue",
		Description:  "Stealth, critical hits, high single-target damage",
		HitDie:       8,
		MeleeAbility: "DEX",
		Profile: stats.AbilityScores{
			Strength: 10, Dexterity: 15, Constitution: 12,
			Intelligence: 12, Wisdom: 13, Charisma: 8,
		},
		StartingHP:   8,
		StartingMana: 0,
		ManaPerLevel: 0,
	},
}

// GetDefinition returns the definition for a class
func GetDefinition(c Class) *Definition {
	return Definitions[c]
}

// MeleeModifier returns the governing ability modifier for the class's
// weapon attacks given a set of ability scores.
func (d *Definition) MeleeModifier(a stats.AbilityScores) int {
	if d.MeleeAbility == "DEX" {
		return a.DexterityMod()
	}
	return a.StrengthMod()
}
