package character

import (
	"testing"

	"github.com/duskhall/delve/internal/class"
	"github.com/duskhall/delve/internal/leveling"
)

func testIdentity(token string) Identity {
	return Identity{TokenID: token, Contract: "0xabc", Chain: "ethereum"}
}

func TestNewCharacter(t *testing.T) {
	tests := []struct {
		class    class.Class
		wantHP   int
		wantMana int
	}{
		{class.Warrior, 12, 0}, // 10 + CON 14 mod (+2)
		{class.Mage, 6, 20},    // 6 + CON 10 mod (0)
		{class.Cleric, 9, 15},  // 8 + CON 13 mod (+1)
		{class.Rogue, 9, 0},    // 8 + CON 12 mod (+1)
	}

	for _, tc := range tests {
		t.Run(string(tc.class), func(t *testing.T) {
			c, err := New(testIdentity("1"), "0xwallet", "Tester", tc.class)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if c.Stats.MaxHealth != tc.wantHP {
				t.Errorf("MaxHealth = %d, want %d", c.Stats.MaxHealth, tc.wantHP)
			}
			if c.Stats.MaxMana != tc.wantMana {
				t.Errorf("MaxMana = %d, want %d", c.Stats.MaxMana, tc.wantMana)
			}
			if c.Level != 1 {
				t.Errorf("Level = %d, want 1", c.Level)
			}
			if c.Stats.ProficiencyBonus != 2 {
				t.Errorf("ProficiencyBonus = %d, want 2", c.Stats.ProficiencyBonus)
			}
		})
	}
}

func TestNewCharacterUnknownClass(t *testing.T) {
	if _, err := New(testIdentity("1"), "0xwallet", "Tester", class.Class("bard")); err == nil {
		t.Error("expected error for unknown class")
	}
}

func TestIdentityKey(t *testing.T) {
	id := testIdentity("42")
	if got, want := id.Key(), "ethereum:0xabc:42"; got != want {
		t.Errorf("Key() = %q, want %q", got, want)
	}
}

func TestGainExperienceLevelsUp(t *testing.T) {
	c, err := New(testIdentity("7"), "0xwallet", "Vex", class.Rogue)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ups := c.GainExperience(leveling.XPForLevel(2))
	if len(ups) != 1 {
		t.Fatalf("got %d level-ups, want 1", len(ups))
	}
	if c.Level != 2 {
		t.Errorf("Level = %d, want 2", c.Level)
	}
	if c.Stats.MaxHealth <= 9 {
		t.Errorf("MaxHealth = %d, expected growth past 9", c.Stats.MaxHealth)
	}
}

func TestGainExperienceNonPositive(t *testing.T) {
	c, _ := New(testIdentity("8"), "0xwallet", "Vex", class.Rogue)
	if ups := c.GainExperience(0); ups != nil {
		t.Errorf("GainExperience(0) = %v, want nil", ups)
	}
	if c.Experience != 0 {
		t.Errorf("Experience = %d, want 0", c.Experience)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	c, _ := New(testIdentity("9"), "0xwallet", "Vex", class.Warrior)
	dup := c.Clone()
	dup.Stats.Health = 1
	if c.Stats.Health == 1 {
		t.Error("mutating clone affected original")
	}
}
