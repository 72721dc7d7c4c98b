// Package monster defines monster templates, level scaling, and seeded
// spawning for combat rooms.
package monster

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/duskhall/delve/internal/rng"
)

// Template is the static definition a monster instance is rolled from.
type Template struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Tier        int    `yaml:"tier"`
	HPDice      string `yaml:"hp_dice"`
	AC          int    `yaml:"ac"`
	Dexterity   int    `yaml:"dexterity"`
	Strength    int    `yaml:"strength"`
	AttackBonus int    `yaml:"attack_bonus"`
	DamageDice  string `yaml:"damage_dice"`
	DamageBonus int    `yaml:"damage_bonus"`
	XP          int    `yaml:"xp"`
	Boss        bool   `yaml:"boss"`
}

// Instance is one spawned monster with its HP rolled and its numbers
// scaled to the dungeon level.
type Instance struct {
	ID          string
	Name        string
	HP          int
	MaxHP       int
	AC          int
	Dexterity   int
	Strength    int
	AttackBonus int
	DamageDice  string
	DamageBonus int
	XP          int
}

// Library holds the templates available to a dungeon.
type Library struct {
	Templates []Template `yaml:"monsters"`
}

// DefaultLibrary returns the built-in template set, four tiers of
// ordinary monsters plus bosses.
func DefaultLibrary() *Library {
	return &Library{Templates: []Template{
		{ID: "giant_rat", Name: "Giant Rat", Tier: 1, HPDice: "2d6", AC: 10, Dexterity: 12, Strength: 6, AttackBonus: 2, DamageDice: "1d4", XP: 25},
		{ID: "goblin", Name: "Goblin", Tier: 1, HPDice: "2d6+2", AC: 12, Dexterity: 14, Strength: 8, AttackBonus: 3, DamageDice: "1d6", XP: 50},
		{ID: "skeleton", Name: "Skeleton", Tier: 1, HPDice: "2d8", AC: 13, Dexterity: 14, Strength: 10, AttackBonus: 3, DamageDice: "1d6", DamageBonus: 1, XP: 50},
		{ID: "orc", Name: "Orc", Tier: 2, HPDice: "3d8+3", AC: 13, Dexterity: 12, Strength: 16, AttackBonus: 4, DamageDice: "1d8", DamageBonus: 2, XP: 100},
		{ID: "giant_spider", Name: "Giant Spider", Tier: 2, HPDice: "3d10", AC: 14, Dexterity: 16, Strength: 14, AttackBonus: 4, DamageDice: "1d8", DamageBonus: 1, XP: 100},
		{ID: "ghoul", Name: "Ghoul", Tier: 2, HPDice: "4d8", AC: 12, Dexterity: 15, Strength: 13, AttackBonus: 4, DamageDice: "2d4", DamageBonus: 1, XP: 125},
		{ID: "troll", Name: "Troll", Tier: 3, HPDice: "6d10+12", AC: 15, Dexterity: 13, Strength: 18, AttackBonus: 6, DamageDice: "2d6", DamageBonus: 3, XP: 350},
		{ID: "dark_knight", Name: "Dark Knight", Tier: 3, HPDice: "6d8+12", AC: 17, Dexterity: 11, Strength: 17, AttackBonus: 6, DamageDice: "1d10", DamageBonus: 3, XP: 400},
		{ID: "wraith", Name: "Wraith", Tier: 4, HPDice: "8d8+16", AC: 14, Dexterity: 16, Strength: 6, AttackBonus: 7, DamageDice: "3d6", XP: 700},
		{ID: "stone_golem", Name: "Stone Golem", Tier: 4, HPDice: "10d10+30", AC: 18, Dexterity: 8, Strength: 20, AttackBonus: 8, DamageDice: "2d8", DamageBonus: 4, XP: 900},
		{ID: "goblin_king", Name: "Goblin King", Tier: 1, HPDice: "5d8+10", AC: 15, Dexterity: 14, Strength: 14, AttackBonus: 5, DamageDice: "1d8", DamageBonus: 2, XP: 300, Boss: true},
		{ID: "bone_tyrant", Name: "Bone Tyrant", Tier: 2, HPDice: "8d8+16", AC: 16, Dexterity: 12, Strength: 16, AttackBonus: 6, DamageDice: "2d6", DamageBonus: 2, XP: 600, Boss: true},
		{ID: "abyssal_maw", Name: "Abyssal Maw", Tier: 3, HPDice: "10d10+20", AC: 17, Dexterity: 13, Strength: 19, AttackBonus: 8, DamageDice: "2d8", DamageBonus: 4, XP: 1200, Boss: true},
		{ID: "hollow_sovereign", Name: "Hollow Sovereign", Tier: 4, HPDice: "12d12+36", AC: 19, Dexterity: 14, Strength: 21, AttackBonus: 10, DamageDice: "3d8", DamageBonus: 5, XP: 2500, Boss: true},
	}}
}

// LoadLibrary reads monster templates from a YAML file, falling back
// to the built-in set when the file is absent.
func LoadLibrary(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultLibrary(), nil
		}
		return nil, fmt.Errorf("read monster library: %w", err)
	}

	var lib Library
	if err := yaml.Unmarshal(data, &lib); err != nil {
		return nil, fmt.Errorf("parse monster library: %w", err)
	}
	if len(lib.Templates) == 0 {
		return DefaultLibrary(), nil
	}
	return &lib, nil
}

// TierForLevel maps a dungeon level to a monster tier.
func TierForLevel(level int) int {
	switch {
	case level <= 10:
		return 1
	case level <= 30:
		return 2
	case level <= 60:
		return 3
	default:
		return 4
	}
}

// ScaleHP scales a rolled HP total to the dungeon level.
// Formula: hp * (1 + level * 0.05)
func ScaleHP(hp, level int) int {
	if level <= 1 {
		return hp
	}
	return int(float64(hp) * (1.0 + float64(level)*0.05))
}

// ScaleXP scales a template's XP reward to the dungeon level.
// Formula: xp * (1 + level * 0.03)
func ScaleXP(xp, level int) int {
	if level <= 1 {
		return xp
	}
	return int(float64(xp) * (1.0 + float64(level)*0.03))
}

// templatesFor returns the templates eligible for a level.
func (l *Library) templatesFor(level int, boss bool) []Template {
	tier := TierForLevel(level)
	var out []Template
	for _, t := range l.Templates {
		if t.Boss == boss && t.Tier == tier {
			out = append(out, t)
		}
	}
	// Fall back to any tier rather than spawning nothing.
	if len(out) == 0 {
		for _, t := range l.Templates {
			if t.Boss == boss {
				out = append(out, t)
			}
		}
	}
	return out
}

// Spawn rolls one instance from a template, scaled to the level.
func Spawn(t Template, level int, r *rng.RNG) Instance {
	hp := r.RollNotation(t.HPDice)
	if hp < 1 {
		hp = 1
	}
	hp = ScaleHP(hp, level)

	return Instance{
		ID:          fmt.Sprintf("%s-%d", t.ID, r.Range(1000, 9999)),
		Name:        t.Name,
		HP:          hp,
		MaxHP:       hp,
		AC:          t.AC,
		Dexterity:   t.Dexterity,
		Strength:    t.Strength,
		AttackBonus: t.AttackBonus,
		DamageDice:  t.DamageDice,
		DamageBonus: t.DamageBonus,
		XP:          ScaleXP(t.XP, level),
	}
}

// SpawnForRoom spawns the monsters of an ordinary combat room: 0-3
// monsters of the level's tier, all rolled from the room source.
// A zero-length result means the room is empty.
func (l *Library) SpawnForRoom(level int, r *rng.RNG) []Instance {
	candidates := l.templatesFor(level, false)
	if len(candidates) == 0 {
		return nil
	}

	count := r.Range(0, 3)
	out := make([]Instance, 0, count)
	for i := 0; i < count; i++ {
		pick := candidates[r.Range(0, len(candidates)-1)]
		out = append(out, Spawn(pick, level, r.Derive("spawn", i)))
	}
	return out
}

// SpawnBoss spawns a boss (with retinue on true boss levels handled by
// the caller). Returns the zero Instance and false if the library has
// no boss templates.
func (l *Library) SpawnBoss(level int, r *rng.RNG) (Instance, bool) {
	candidates := l.templatesFor(level, true)
	if len(candidates) == 0 {
		return Instance{}, false
	}
	pick := candidates[r.Range(0, len(candidates)-1)]
	return Spawn(pick, level, r.DeriveNamed("boss")), true
}
