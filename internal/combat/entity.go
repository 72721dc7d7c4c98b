// Package combat resolves one encounter (party vs. monsters) into a
// full turn log and final entity state. Everything it rolls comes from
// sources derived off the encounter seed, so an encounter replays
// identically from the same inputs.
package combat

import (
	"github.com/duskhall/delve/internal/character"
	"github.com/duskhall/delve/internal/class"
)

// Side identifies which team an entity fights for.
type Side string

const (
	SideParty    Side = "party"
	SideMonsters Side = "monsters"
)

// Entity is a lightweight projection of a character or monster into
// the uniform shape combat operates on. It is created at combat
// initialization and discarded when combat ends; the authoritative
// character record is updated from the entity's final state.
type Entity struct {
	ID   string
	Name string
	Side Side

	// Class is set for party members only; monsters act as pure melee.
	Class class.Class

	Dexterity int
	Strength  int

	HP    int
	MaxHP int
	AC    int

	Mana    int
	MaxMana int

	// Melee attack numbers: to-hit bonus and damage dice + flat bonus.
	AttackBonus int
	DamageDice  string
	DamageBonus int

	// Caster numbers; zero for martials and monsters.
	SpellAttackBonus int
	SpellCost        int
	SpellDie         int

	// XP awarded to the party when this entity is defeated.
	XP int
}

// IsDown reports whether the entity is at zero HP. Downed entities
// never act and never become valid targets.
func (e *Entity) IsDown() bool {
	return e.HP <= 0
}

// FromCharacter projects a character record into a combat entity.
func FromCharacter(c *character.Character) *Entity {
	def := class.GetDefinition(c.Class)

	damageDice := "1d6"
	if def != nil {
		switch def.HitDie {
		case 10:
			damageDice = "1d8" // martial weapons
		default:
			damageDice = "1d6"
		}
	}

	ent := &Entity{
		ID:        c.Identity.Key(),
		Name:      c.Name,
		Side:      SideParty,
		Class:     c.Class,
		Dexterity: c.Stats.Abilities.Dexterity,
		Strength:  c.Stats.Abilities.Strength,
		HP:        c.Stats.Health,
		MaxHP:     c.Stats.MaxHealth,
		AC:        c.Stats.ArmorClass,
		Mana:      c.Stats.Mana,
		MaxMana:   c.Stats.MaxMana,

		AttackBonus: c.Stats.AttackBonus,
		DamageDice:  damageDice,

		SpellAttackBonus: c.Stats.SpellAttackBonus,
	}

	if def != nil {
		ent.DamageBonus = def.MeleeModifier(c.Stats.Abilities)
		ent.SpellCost = def.SpellCost
		ent.SpellDie = def.SpellDie
	}

	return ent
}
