// Package character defines the persistent character record owned by a
// wallet and mutated by expeditions.
package character

import (
	"fmt"

	"github.com/duskhall/delve/internal/class"
	"github.com/duskhall/delve/internal/leveling"
	"github.com/duskhall/delve/internal/stats"
)

// Identity is the token/contract/chain triple that uniquely names a
// character across wallets and re-syncs.
type Identity struct {
	TokenID  string `json:"tokenId"`
	Contract string `json:"contract"`
	Chain    string `json:"chain"`
}

// Key returns a stable string form usable as a map or database key.
func (id Identity) Key() string {
	return fmt.Sprintf("%s:%s:%s", id.Chain, id.Contract, id.TokenID)
}

// Character is the authoritative persistent record. It is never
// destroyed, only re-synced; combat entities are projections of it and
// are folded back into it when a room resolves.
type Character struct {
	Identity Identity    `json:"identity"`
	Wallet   string      `json:"wallet"`
	Name     string      `json:"name"`
	Class    class.Class `json:"class"`

	Level      int `json:"level"`
	Experience int `json:"experience"`

	Stats stats.StatBlock `json:"stats"`
}

// New creates a level 1 character of the given class with the class's
// base stat profile and derived combat numbers.
func New(id Identity, wallet, name string, c class.Class) (*Character, error) {
	def := class.GetDefinition(c)
	if def == nil {
		return nil, fmt.Errorf("unknown class: %s", c)
	}

	abilities := def.Profile
	hp := def.StartingHP + abilities.ConstitutionMod()
	if hp < 1 {
		hp = 1
	}
	mana := def.StartingMana

	ch := &Character{
		Identity: id,
		Wallet:   wallet,
		Name:     name,
		Class:    c,
		Level:    1,
		Stats: stats.StatBlock{
			Health:    hp,
			MaxHealth: hp,
			Mana:      mana,
			MaxMana:   mana,
			Abilities: abilities,
		},
	}
	ch.RecalcDerived()
	return ch, nil
}

// RecalcDerived refreshes the numbers computed from level and
// abilities: proficiency bonus, armor class, attack bonuses,
// perception.
func (c *Character) RecalcDerived() {
	def := class.GetDefinition(c.Class)
	if def == nil {
		return
	}

	c.Stats.ProficiencyBonus = 2 + (c.Level-1)/4
	c.Stats.ArmorClass = 10 + c.Stats.Abilities.DexterityMod()
	c.Stats.AttackBonus = def.MeleeModifier(c.Stats.Abilities) + c.Stats.ProficiencyBonus
	c.Stats.SpellAttackBonus = c.castingModifier() + c.Stats.ProficiencyBonus
	c.Stats.Perception = c.Stats.Abilities.WisdomMod()
	if c.Stats.PerceptionProficient {
		c.Stats.Perception += c.Stats.ProficiencyBonus
	}
}

func (c *Character) castingModifier() int {
	switch c.Class {
	case class.Mage:
		return c.Stats.Abilities.IntelligenceMod()
	case class.Cleric:
		return c.Stats.Abilities.WisdomMod()
	default:
		return 0
	}
}

// GainExperience adds XP and applies any level-ups it unlocks.
func (c *Character) GainExperience(xp int) []leveling.LevelUpInfo {
	if xp <= 0 {
		return nil
	}
	c.Experience += xp
	ups := leveling.Apply(c.Class, c.Level, c.Experience, &c.Stats)
	if len(ups) > 0 {
		c.Level = ups[len(ups)-1].NewLevel
		c.RecalcDerived()
	}
	return ups
}

// Clone returns a deep copy. Runs mutate copies and persist them once
// at the end; the stored record is only touched by the final batch.
func (c *Character) Clone() *Character {
	dup := *c
	return &dup
}
