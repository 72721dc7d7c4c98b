// Package stats holds ability scores and the mutable stat block shared
// by characters and combat entities.
package stats

// AbilityScores holds the six core D&D-style ability scores
type AbilityScores struct {
	Strength     int `yaml:"strength" json:"strength"`
	Dexterity    int `yaml:"dexterity" json:"dexterity"`
	Constitution int `yaml:"constitution" json:"constitution"`
	Intelligence int `yaml:"intelligence" json:"intelligence"`
	Wisdom       int `yaml:"wisdom" json:"wisdom"`
	Charisma     int `yaml:"charisma" json:"charisma"`
}

// Modifier calculates the D&D-style modifier using floor division
// Formula: floor((score - 10) / 2)
// Examples: 8=-1, 9=-1, 10=0, 11=0, 12=+1, 14=+2, 16=+3, 18=+4
func Modifier(score int) int {
	diff := score - 10
	if diff >= 0 {
		return diff / 2
	}
	// Floor division for negative numbers
	return (diff - 1) / 2
}

// NewDefaultScores returns ability scores with all values at 10
func NewDefaultScores() AbilityScores {
	return AbilityScores{
		Strength:     10,
		Dexterity:    10,
		Constitution: 10,
		Intelligence: 10,
		Wisdom:       10,
		Charisma:     10,
	}
}

// StrengthMod returns the strength modifier
func (a AbilityScores) StrengthMod() int {
	return Modifier(a.Strength)
}

// DexterityMod returns the dexterity modifier
func (a AbilityScores) DexterityMod() int {
	return Modifier(a.Dexterity)
}

// ConstitutionMod returns the constitution modifier
func (a AbilityScores) ConstitutionMod() int {
	return Modifier(a.Constitution)
}

// IntelligenceMod returns the intelligence modifier
func (a AbilityScores) IntelligenceMod() int {
	return Modifier(a.Intelligence)
}

// WisdomMod returns the wisdom modifier
func (a AbilityScores) WisdomMod() int {
	return Modifier(a.Wisdom)
}

// CharismaMod returns the charisma modifier
func (a AbilityScores) CharismaMod() int {
	return Modifier(a.Charisma)
}
