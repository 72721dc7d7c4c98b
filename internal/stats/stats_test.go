package stats

import "testing"

func TestModifier(t *testing.T) {
	// D&D formula: floor((score - 10) / 2)
	// Uses floor division so odd scores round down (toward negative infinity)
	tests := []struct {
		score    int
		expected int
	}{
		{1, -5},
		{6, -2},
		{7, -2},
		{8, -1},
		{9, -1},
		{10, 0},
		{11, 0},
		{12, 1},
		{14, 2},
		{16, 3},
		{18, 4},
		{20, 5},
	}

	for _, tt := range tests {
		result := Modifier(tt.score)
		if result != tt.expected {
			t.Errorf("Modifier(%d) = %d, expected %d", tt.score, result, tt.expected)
		}
	}
}

func TestApplyDamage(t *testing.T) {
	s := StatBlock{Health: 10, MaxHealth: 10}

	s.ApplyDamage(4)
	if s.Health != 6 {
		t.Errorf("Health = %d, expected 6", s.Health)
	}

	// Damage floors at zero
	s.ApplyDamage(100)
	if s.Health != 0 {
		t.Errorf("Health = %d, expected 0", s.Health)
	}

	// Negative damage is a no-op
	s.Health = 5
	s.ApplyDamage(-3)
	if s.Health != 5 {
		t.Errorf("Health = %d, expected 5 after negative damage", s.Health)
	}
}

func TestHealBounds(t *testing.T) {
	tests := []struct {
		name     string
		health   int
		max      int
		amount   int
		expected int
	}{
		{"normal heal", 5, 10, 3, 8},
		{"capped at max", 8, 10, 10, 10},
		{"downed target unaffected", 0, 10, 5, 0},
		{"zero amount", 5, 10, 0, 5},
		{"negative amount", 5, 10, -2, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := StatBlock{Health: tt.health, MaxHealth: tt.max}
			s.Heal(tt.amount)
			if s.Health != tt.expected {
				t.Errorf("Health = %d, expected %d", s.Health, tt.expected)
			}
		})
	}
}

func TestSpendMana(t *testing.T) {
	s := StatBlock{Mana: 10, MaxMana: 20}

	if !s.SpendMana(4) {
		t.Error("SpendMana(4) = false, expected true")
	}
	if s.Mana != 6 {
		t.Errorf("Mana = %d, expected 6", s.Mana)
	}

	// Insufficient mana leaves the pool untouched
	if s.SpendMana(7) {
		t.Error("SpendMana(7) = true, expected false")
	}
	if s.Mana != 6 {
		t.Errorf("Mana = %d, expected 6 after failed spend", s.Mana)
	}
}

func TestRestoreAll(t *testing.T) {
	s := StatBlock{Health: 1, MaxHealth: 30, Mana: 0, MaxMana: 12}
	s.RestoreAll()
	if s.Health != 30 || s.Mana != 12 {
		t.Errorf("RestoreAll: health=%d mana=%d, expected 30/12", s.Health, s.Mana)
	}
}

func TestClamp(t *testing.T) {
	s := StatBlock{Health: 50, MaxHealth: 30, Mana: -4, MaxMana: 12}
	s.Clamp()
	if s.Health != 30 {
		t.Errorf("Health = %d, expected 30", s.Health)
	}
	if s.Mana != 0 {
		t.Errorf("Mana = %d, expected 0", s.Mana)
	}
}
