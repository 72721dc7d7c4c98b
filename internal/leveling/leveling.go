// Package leveling defines experience thresholds and level-up gains.
package leveling

import (
	"math"

	"github.com/duskhall/delve/internal/class"
	"github.com/duskhall/delve/internal/stats"
)

// Leveling constants
const (
	MaxCharacterLevel = 50
)

// XPForLevel returns the total XP required to reach a given level.
// Uses polynomial curve: 100 * level^1.5
func XPForLevel(level int) int {
	if level <= 1 {
		return 0
	}
	return int(100 * math.Pow(float64(level), 1.5))
}

// XPToNextLevel returns XP needed from current level to next level.
func XPToNextLevel(currentLevel int) int {
	if currentLevel >= MaxCharacterLevel {
		return 0
	}
	return XPForLevel(currentLevel+1) - XPForLevel(currentLevel)
}

// LevelForXP returns the level a character with the given total XP
// should hold.
func LevelForXP(totalXP int) int {
	level := 1
	for level < MaxCharacterLevel && totalXP >= XPForLevel(level+1) {
		level++
	}
	return level
}

// LevelUpInfo describes one gained level
type LevelUpInfo struct {
	NewLevel int
	HPGain   int
	ManaGain int
}

// Apply advances a character's level to match its total XP and grows
// the stat block accordingly. Per level: hit die average + CON
// modifier to max HP (minimum 1), class mana gain + casting modifier
// to max mana. Current HP/mana rise by the same amounts so a level-up
// never leaves a character worse off.
func Apply(c class.Class, level, totalXP int, block *stats.StatBlock) []LevelUpInfo {
	def := class.GetDefinition(c)
	if def == nil {
		return nil
	}

	var ups []LevelUpInfo
	target := LevelForXP(totalXP)
	for next := level + 1; next <= target; next++ {
		hpGain := def.HitDie/2 + 1 + block.Abilities.ConstitutionMod()
		if hpGain < 1 {
			hpGain = 1
		}
		manaGain := 0
		if def.ManaPerLevel > 0 {
			manaGain = def.ManaPerLevel
			if manaGain < 0 {
				manaGain = 0
			}
		}

		block.MaxHealth += hpGain
		block.Health += hpGain
		block.MaxMana += manaGain
		block.Mana += manaGain

		ups = append(ups, LevelUpInfo{NewLevel: next, HPGain: hpGain, ManaGain: manaGain})
	}
	return ups
}
