package stats

// StatBlock is the full mutable stat sheet of a character. Health and
// mana are always kept within [0, max] by the mutators below.
type StatBlock struct {
	Health    int `yaml:"health" json:"health"`
	MaxHealth int `yaml:"max_health" json:"maxHealth"`
	Mana      int `yaml:"mana" json:"mana"`
	MaxMana   int `yaml:"max_mana" json:"maxMana"`

	Abilities AbilityScores `yaml:"abilities" json:"abilities"`

	Perception       int `yaml:"perception" json:"perception"`
	ArmorClass       int `yaml:"armor_class" json:"armorClass"`
	ProficiencyBonus int `yaml:"proficiency_bonus" json:"proficiencyBonus"`
	AttackBonus      int `yaml:"attack_bonus" json:"attackBonus"`
	SpellAttackBonus int `yaml:"spell_attack_bonus" json:"spellAttackBonus"`

	// Skill proficiencies relevant to trap resolution.
	PerceptionProficient bool `yaml:"perception_proficient" json:"perceptionProficient"`
	DisarmProficient     bool `yaml:"disarm_proficient" json:"disarmProficient"`
}

// ApplyDamage reduces health by the given amount, flooring at zero.
func (s *StatBlock) ApplyDamage(amount int) {
	if amount < 0 {
		amount = 0
	}
	s.Health -= amount
	if s.Health < 0 {
		s.Health = 0
	}
}

// Heal raises health by the given amount, capped at max health.
// A downed target (0 health) is not revived by healing.
func (s *StatBlock) Heal(amount int) {
	if s.Health <= 0 || amount <= 0 {
		return
	}
	s.Health += amount
	if s.Health > s.MaxHealth {
		s.Health = s.MaxHealth
	}
}

// SpendMana deducts cost from mana and reports whether it was available.
func (s *StatBlock) SpendMana(cost int) bool {
	if cost > s.Mana {
		return false
	}
	s.Mana -= cost
	return true
}

// RestoreAll brings health and mana back to their maximums.
func (s *StatBlock) RestoreAll() {
	s.Health = s.MaxHealth
	s.Mana = s.MaxMana
}

// IsDown reports whether health has reached zero.
func (s *StatBlock) IsDown() bool {
	return s.Health <= 0
}

// Clamp forces health and mana into their valid ranges. Used after
// loading records from external stores that may hold stale values.
func (s *StatBlock) Clamp() {
	if s.Health < 0 {
		s.Health = 0
	}
	if s.Health > s.MaxHealth {
		s.Health = s.MaxHealth
	}
	if s.Mana < 0 {
		s.Mana = 0
	}
	if s.Mana > s.MaxMana {
		s.Mana = s.MaxMana
	}
}
