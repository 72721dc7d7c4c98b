package combat

import (
	"errors"
	"sort"

	"github.com/duskhall/delve/internal/rng"
)

// Status is the combat state machine: active until exactly one side
// has every entity at zero HP, then terminal.
type Status string

const (
	StatusActive  Status = "active"
	StatusVictory Status = "victory"
	StatusDefeat  Status = "defeat"
)

// DefaultMaxTurns caps a combat that oscillates forever, e.g. a healer
// outpacing a lone attacker. Hitting the cap resolves as defeat.
const DefaultMaxTurns = 1000

// ErrNoEntities is returned when an encounter has no combatants on one
// or both sides.
var ErrNoEntities = errors.New("combat requires entities on both sides")

// ErrDeadlineExceeded is returned by RunUntil when the wall clock
// passes the encounter's deadline while the combat is still active.
var ErrDeadlineExceeded = errors.New("combat deadline exceeded")

// Config describes one encounter.
type Config struct {
	Seed     string
	Entities []*Entity

	// Ambush grants the monster side one unassisted round before
	// normal order (the party's ambush check failed).
	Ambush bool

	// Surprise grants the party one round before normal order.
	Surprise bool

	// Strategy selects caster behavior; nil defaults to Probabilistic
	// with standard ratios.
	Strategy Strategy

	// MaxTurns overrides the oscillation cap; zero uses the default.
	MaxTurns int
}

// State is the mutable combat aggregate.
type State struct {
	Entities []*Entity
	Order    []string // initiative order, entity ids
	Turns    []Turn
	Status   Status

	Ambush       bool
	AmbushDone   bool
	Surprise     bool
	SurpriseDone bool

	seed     string
	root     *rng.RNG
	strategy Strategy
	maxTurns int

	cursor        int // index into Order for the next normal turn
	turnCount     int // total executed turns, feeds per-decision sub-seeds
	scriptIdx     int // consumed entries of a Scripted strategy
	freeRoundUsed map[string]bool
}

// NewState initializes an encounter: builds initiative order by
// descending dexterity with seeded coin-flips for ties, and evaluates
// the terminal conditions immediately so a party that arrives downed
// resolves to defeat without a single turn executing.
func NewState(cfg Config) (*State, error) {
	party, monsters := 0, 0
	for _, e := range cfg.Entities {
		switch e.Side {
		case SideParty:
			party++
		case SideMonsters:
			monsters++
		}
	}
	if party == 0 || monsters == 0 {
		return nil, ErrNoEntities
	}

	strategy := cfg.Strategy
	if strategy == nil {
		strategy = Probabilistic{MageMagicRatio: 0.7, ClericHealRatio: 0.4}
	}

	maxTurns := cfg.MaxTurns
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}

	s := &State{
		Entities: cfg.Entities,
		Status:   StatusActive,
		Ambush:   cfg.Ambush,
		Surprise: cfg.Surprise,
		seed:     cfg.Seed,
		root:     rng.New(cfg.Seed),
		strategy: strategy,
		maxTurns: maxTurns,
	}

	s.buildInitiative()
	s.updateStatus()
	return s, nil
}

// buildInitiative orders entities by descending dexterity. Each
// adjacent tied pair is broken by its own seeded coin-flip, never by
// insertion order.
func (s *State) buildInitiative() {
	order := make([]*Entity, len(s.Entities))
	copy(order, s.Entities)

	sort.SliceStable(order, func(i, j int) bool {
		return order[i].Dexterity > order[j].Dexterity
	})

	flips := 0
	for i := 0; i < len(order)-1; i++ {
		if order[i].Dexterity == order[i+1].Dexterity {
			coin := s.root.Derive("initiative", flips)
			if coin.Random() < 0.5 {
				order[i], order[i+1] = order[i+1], order[i]
			}
			flips++
		}
	}

	s.Order = make([]string, len(order))
	for i, e := range order {
		s.Order[i] = e.ID
	}
}

// updateStatus checks the terminal conditions after a state mutation.
// Victory iff every monster is down; defeat iff every party member is
// down. Never inferred mid-turn.
func (s *State) updateStatus() {
	if s.Status != StatusActive {
		return
	}

	partyAlive, monstersAlive := false, false
	for _, e := range s.Entities {
		if e.IsDown() {
			continue
		}
		switch e.Side {
		case SideParty:
			partyAlive = true
		case SideMonsters:
			monstersAlive = true
		}
	}

	switch {
	case !partyAlive:
		s.Status = StatusDefeat
	case !monstersAlive:
		s.Status = StatusVictory
	}
}

// entity returns the entity with the given id.
func (s *State) entity(id string) *Entity {
	for _, e := range s.Entities {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// living returns the entities on the given side that are still up,
// in initiative order for determinism.
func (s *State) living(side Side) []*Entity {
	var out []*Entity
	for _, id := range s.Order {
		e := s.entity(id)
		if e != nil && e.Side == side && !e.IsDown() {
			out = append(out, e)
		}
	}
	return out
}

// XPAward returns the summed XP of every defeated monster.
func (s *State) XPAward() int {
	total := 0
	for _, e := range s.Entities {
		if e.Side == SideMonsters && e.IsDown() {
			total += e.XP
		}
	}
	return total
}

// TurnCount returns how many turns have executed.
func (s *State) TurnCount() int {
	return s.turnCount
}
