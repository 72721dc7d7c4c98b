package rng

import (
	"regexp"
	"strconv"
)

// D20 rolls a 20-sided die (1-20)
func (r *RNG) D20() int {
	return r.Range(1, 20)
}

// D12 rolls a 12-sided die (1-12)
func (r *RNG) D12() int {
	return r.Range(1, 12)
}

// D10 rolls a 10-sided die (1-10)
func (r *RNG) D10() int {
	return r.Range(1, 10)
}

// D8 rolls an 8-sided die (1-8)
func (r *RNG) D8() int {
	return r.Range(1, 8)
}

// D6 rolls a 6-sided die (1-6)
func (r *RNG) D6() int {
	return r.Range(1, 6)
}

// D4 rolls a 4-sided die (1-4)
func (r *RNG) D4() int {
	return r.Range(1, 4)
}

// Roll rolls n dice with the specified number of sides and returns the total
func (r *RNG) Roll(n, sides int) int {
	total := 0
	for i := 0; i < n; i++ {
		total += r.Range(1, sides)
	}
	return total
}

// RollWithBonus rolls n dice with the specified number of sides and adds a bonus
func (r *RNG) RollWithBonus(n, sides, bonus int) int {
	return r.Roll(n, sides) + bonus
}

// diceNotationRegex matches dice notation like "1d6", "2d4+1", "1d8-2"
var diceNotationRegex = regexp.MustCompile(`^(\d+)d(\d+)([+-]\d+)?$`)

// ParseNotation parses dice notation into count, sides, and flat bonus.
// Supports formats: "1d6", "2d4", "1d8+2", "2d6-1".
func ParseNotation(notation string) (count, sides, bonus int, ok bool) {
	matches := diceNotationRegex.FindStringSubmatch(notation)
	if matches == nil {
		return 0, 0, 0, false
	}

	count, _ = strconv.Atoi(matches[1])
	sides, _ = strconv.Atoi(matches[2])
	if matches[3] != "" {
		bonus, _ = strconv.Atoi(matches[3])
	}
	return count, sides, bonus, true
}

// RollNotation parses dice notation and returns the roll result.
// Returns 0 if the notation is invalid.
func (r *RNG) RollNotation(notation string) int {
	count, sides, bonus, ok := ParseNotation(notation)
	if !ok {
		return 0
	}
	return r.RollWithBonus(count, sides, bonus)
}
