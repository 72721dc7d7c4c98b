package combat

// Action is one thing an entity can do on its turn.
type Action string

const (
	ActionMelee Action = "melee"
	ActionMagic Action = "magic"
	ActionHeal  Action = "heal"
)

// Strategy decides how party casters pick between their melee attack
// and their special ability. It is chosen once at combat
// initialization; the engine never branches on its concrete type
// per-turn beyond a single dispatch.
type Strategy interface {
	isStrategy()
}

// Probabilistic selects caster actions by comparing a seeded roll
// against per-class ratios. Martials always melee regardless.
type Probabilistic struct {
	// MageMagicRatio is the chance a mage casts a magic bolt.
	MageMagicRatio float64

	// ClericHealRatio is the chance a cleric heals an ally.
	ClericHealRatio float64
}

func (Probabilistic) isStrategy() {}

// Scripted replays a predetermined action list, one entry per party
// turn in order. While a script is in effect the ratio parameters are
// ignored entirely. Once the script is exhausted, actors fall back to
// melee.
type Scripted struct {
	Actions []Action
}

func (Scripted) isStrategy() {}

// Turn is one entry of the combat log: who acted, what they attempted,
// the roll components, and the outcome.
type Turn struct {
	Actor  string `json:"actor"`
	Target string `json:"target,omitempty"`
	Action Action `json:"action"`

	// Attack roll components; zero for auto-success actions.
	Roll        int  `json:"roll,omitempty"`
	AttackBonus int  `json:"attackBonus,omitempty"`
	TargetAC    int  `json:"targetAC,omitempty"`
	Hit         bool `json:"hit"`
	Critical    bool `json:"critical,omitempty"`

	Damage    int `json:"damage,omitempty"`
	Healing   int `json:"healing,omitempty"`
	ManaSpent int `json:"manaSpent,omitempty"`

	// Note carries soft-failure detail, e.g. insufficient mana.
	Note string `json:"note,omitempty"`
}
