// Package trap resolves trap encounters: a party-wide perception
// phase, then a disarm phase whose governing ability depends on the
// trap subtype. All rolls derive from the room seed, so a trap resolves
// identically on replay.
package trap

import (
	"errors"
	"fmt"

	"github.com/duskhall/delve/internal/character"
	"github.com/duskhall/delve/internal/loot"
	"github.com/duskhall/delve/internal/rng"
	"github.com/duskhall/delve/internal/stats"
)

// Kind is the trap subtype, which selects the disarm ability.
type Kind string

const (
	// KindMechanical disarms with dexterity, or with strength for a
	// seed-fixed fraction of traps.
	KindMechanical Kind = "mechanical"

	// KindMagical disarms with wisdom.
	KindMagical Kind = "magical"

	// KindFakeTreasure resolves to mechanical or magical before the
	// disarm ability is chosen.
	KindFakeTreasure Kind = "fake_treasure"

	// KindAmbush is not a trap at all; it must be routed to the combat
	// engine. Resolve rejects it.
	KindAmbush Kind = "ambush"
)

// Policy selects how party-wide checks aggregate.
type Policy int

const (
	// BestEffort passes the party if any single member succeeds.
	BestEffort Policy = iota

	// AllMustSucceed passes the party only if every member succeeds.
	AllMustSucceed
)

// ErrInvalidEncounter reports an encounter this engine cannot resolve,
// e.g. an ambush. This is a contract violation by the caller, not a
// runtime condition; it is never retried.
var ErrInvalidEncounter = errors.New("trap engine: invalid encounter kind")

// ErrEmptyParty reports a resolution request with nobody to roll.
var ErrEmptyParty = errors.New("trap engine: empty party")

// maxDCLevel is the dungeon level at which the difficulty class stops
// scaling.
const maxDCLevel = 99

// DC returns the trap difficulty class for a dungeon level: linear
// from 10 at level 1 to 25 at level 99, capped beyond.
func DC(level int) int {
	if level <= 1 {
		return 10
	}
	if level > maxDCLevel {
		level = maxDCLevel
	}
	return 10 + int(float64(level-1)*15.0/float64(maxDCLevel-1))
}

// Request describes one trap encounter.
type Request struct {
	Seed  string
	Level int
	Kind  Kind
	Party []*character.Character

	// Policy defaults to BestEffort.
	Policy Policy

	// StrengthDisarmChance is the fraction of mechanical traps that
	// take a strength check instead of dexterity. Decided once per
	// trap, deterministically, from the seed.
	StrengthDisarmChance float64
}

// Check is one member's roll against the trap DC.
type Check struct {
	CharacterID string `json:"characterId"`
	Roll        int    `json:"roll"`
	Modifier    int    `json:"modifier"`
	Total       int    `json:"total"`
	DC          int    `json:"dc"`
	Success     bool   `json:"success"`
}

// DamageEntry records trap damage dealt to one member.
type DamageEntry struct {
	CharacterID string `json:"characterId"`
	Amount      int    `json:"amount"`
}

// Result is the full record of one trap resolution. It is folded into
// the run's event stream, never persisted on its own.
type Result struct {
	DC               int           `json:"dc"`
	Kind             Kind          `json:"kind"`
	DisarmAbility    string        `json:"disarmAbility,omitempty"`
	PerceptionChecks []Check       `json:"perceptionChecks"`
	DisarmChecks     []Check       `json:"disarmChecks,omitempty"`
	Detected         bool          `json:"detected"`
	Disarmed         bool          `json:"disarmed"`
	Damage           []DamageEntry `json:"damage,omitempty"`
	TotalDamage      int           `json:"totalDamage"`
	XP               int           `json:"xp"`
	Rewards          []string      `json:"rewards,omitempty"`

	// PartyStats are the post-resolution stat snapshots.
	PartyStats []stats.StatBlock `json:"partyStats"`
}

// Resolve runs the two-phase check and applies damage to the party's
// in-memory stat blocks.
func Resolve(req Request) (*Result, error) {
	if req.Kind == KindAmbush {
		return nil, ErrInvalidEncounter
	}
	switch req.Kind {
	case KindMechanical, KindMagical, KindFakeTreasure:
	default:
		return nil, ErrInvalidEncounter
	}
	if len(req.Party) == 0 {
		return nil, ErrEmptyParty
	}

	root := rng.New(req.Seed)
	res := &Result{
		DC:   DC(req.Level),
		Kind: req.Kind,
	}

	// Phase 1: perception. Every member rolls d20 + WIS modifier +
	// proficiency if perception-proficient.
	for i, member := range req.Party {
		roll := root.Derive("perception", i).D20()
		mod := member.Stats.Abilities.WisdomMod()
		if member.Stats.PerceptionProficient {
			mod += member.Stats.ProficiencyBonus
		}
		check := Check{
			CharacterID: member.Identity.Key(),
			Roll:        roll,
			Modifier:    mod,
			Total:       roll + mod,
			DC:          res.DC,
			Success:     roll+mod >= res.DC,
		}
		res.PerceptionChecks = append(res.PerceptionChecks, check)
	}
	res.Detected = aggregate(res.PerceptionChecks, req.Policy)

	// Phase 2: disarm, only when detected.
	if res.Detected {
		ability := disarmAbility(req, root)
		res.DisarmAbility = ability
		for i, member := range req.Party {
			roll := root.Derive("disarm", i).D20()
			mod := abilityModifier(member, ability)
			if member.Stats.DisarmProficient {
				mod += member.Stats.ProficiencyBonus
			}
			check := Check{
				CharacterID: member.Identity.Key(),
				Roll:        roll,
				Modifier:    mod,
				Total:       roll + mod,
				DC:          res.DC,
				Success:     roll+mod >= res.DC,
			}
			res.DisarmChecks = append(res.DisarmChecks, check)
		}
		res.Disarmed = aggregate(res.DisarmChecks, req.Policy)
	}

	if res.Disarmed {
		res.Rewards = salvage(req.Level, root)
	} else {
		applyDamage(req, root, res)
	}

	res.XP = XPReward(res.DC, res.Detected, res.Disarmed)

	for _, member := range req.Party {
		res.PartyStats = append(res.PartyStats, member.Stats)
	}
	return res, nil
}

// aggregate folds per-member checks under the configured policy.
func aggregate(checks []Check, policy Policy) bool {
	if policy == AllMustSucceed {
		for _, c := range checks {
			if !c.Success {
				return false
			}
		}
		return true
	}
	for _, c := range checks {
		if c.Success {
			return true
		}
	}
	return false
}

// disarmAbility picks the governing ability for the disarm phase.
// Fake treasure first resolves into a concrete subtype; mechanical
// traps take a seed-fixed chance of being strength-based.
func disarmAbility(req Request, root *rng.RNG) string {
	kind := req.Kind
	if kind == KindFakeTreasure {
		if root.DeriveNamed("subtype").Random() < 0.5 {
			kind = KindMechanical
		} else {
			kind = KindMagical
		}
	}

	if kind == KindMagical {
		return "WIS"
	}

	// Mechanical: decided once per trap, deterministically.
	if root.DeriveNamed("disarm-stat").Random() < req.StrengthDisarmChance {
		return "STR"
	}
	return "DEX"
}

func abilityModifier(member *character.Character, ability string) int {
	switch ability {
	case "STR":
		return member.Stats.Abilities.StrengthMod()
	case "WIS":
		return member.Stats.Abilities.WisdomMod()
	default:
		return member.Stats.Abilities.DexterityMod()
	}
}

// applyDamage deals 2×DC, perturbed by an 80-120% multiplier drawn
// from a damage-only sub-seed decorrelated from the check rolls, to
// every member still standing. Floored at 1.
func applyDamage(req Request, root *rng.RNG, res *Result) {
	base := float64(2 * res.DC)
	mult := 0.8 + 0.4*root.DeriveNamed("damage").Random()
	amount := int(base * mult)
	if amount < 1 {
		amount = 1
	}

	for _, member := range req.Party {
		if member.Stats.IsDown() {
			continue
		}
		member.Stats.ApplyDamage(amount)
		res.Damage = append(res.Damage, DamageEntry{
			CharacterID: member.Identity.Key(),
			Amount:      amount,
		})
		res.TotalDamage += amount
	}
}

var salvageParts = []string{
	"Trigger Mechanism",
	"Tension Spring",
	"Pressure Plate",
	"Rune Fragment",
	"Glyph Dust",
}

// salvage names the components recovered from a dismantled trap: one
// or two parts of the level's loot tier, drawn from a salvage-only
// sub-seed.
func salvage(level int, root *rng.RNG) []string {
	r := root.DeriveNamed("salvage")
	tier := loot.TierName(loot.TierForLevel(level))

	count := r.Range(1, 2)
	out := make([]string, 0, count)
	for i := 0; i < count; i++ {
		part := salvageParts[r.Derive("part", i).Range(0, len(salvageParts)-1)]
		out = append(out, fmt.Sprintf("%s %s", tier, part))
	}
	return out
}

// XPReward tiers the award: full for a disarm, half for detect-only,
// minimal for neither.
func XPReward(dc int, detected, disarmed bool) int {
	full := dc * 5
	switch {
	case disarmed:
		return full
	case detected:
		return full / 2
	default:
		return 5
	}
}
