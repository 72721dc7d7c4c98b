package combat

import (
	"time"

	"github.com/duskhall/delve/internal/class"
	"github.com/duskhall/delve/internal/rng"
)

// Run steps the encounter to completion. If the oscillation cap is hit
// while both sides still stand, the combat resolves as a defeat.
func (s *State) Run() Status {
	status, _ := s.RunUntil(time.Time{})
	return status
}

// RunUntil steps the encounter to completion like Run, but aborts with
// ErrDeadlineExceeded once the wall clock passes deadline. A zero
// deadline disables the check. The state is left as of the last
// completed turn.
func (s *State) RunUntil(deadline time.Time) (Status, error) {
	for s.Status == StatusActive {
		if !deadline.IsZero() && time.Now().After(deadline) {
			return s.Status, ErrDeadlineExceeded
		}
		if s.turnCount >= s.maxTurns {
			s.Status = StatusDefeat
			break
		}
		s.Step()
	}
	return s.Status, nil
}

// Step executes a single turn and reports whether the combat is still
// active. Downed entities never spend a turn. Free rounds granted by
// ambush or surprise are consumed before normal initiative order.
func (s *State) Step() bool {
	if s.Status != StatusActive {
		return false
	}

	actor := s.nextActor()
	if actor == nil {
		// No living actor found; terminal state was already set.
		return s.Status == StatusActive
	}

	s.act(actor)
	s.updateStatus()
	return s.Status == StatusActive
}

// nextActor picks who acts now: first any pending free-round entity,
// then the normal initiative order, skipping downed entities.
func (s *State) nextActor() *Entity {
	// Ambush: the monsters act once, unassisted, before normal order.
	if s.Ambush && !s.AmbushDone {
		if e := s.popFreeRound(SideMonsters); e != nil {
			return e
		}
		s.AmbushDone = true
	}

	// Surprise: the party acts once first.
	if s.Surprise && !s.SurpriseDone {
		if e := s.popFreeRound(SideParty); e != nil {
			return e
		}
		s.SurpriseDone = true
	}

	for range s.Order {
		id := s.Order[s.cursor]
		s.cursor = (s.cursor + 1) % len(s.Order)
		if e := s.entity(id); e != nil && !e.IsDown() {
			return e
		}
	}
	return nil
}

// popFreeRound returns the next living entity of the given side that
// has not yet used its free-round action this encounter.
func (s *State) popFreeRound(side Side) *Entity {
	used := s.freeRoundUsed
	if used == nil {
		used = make(map[string]bool)
		s.freeRoundUsed = used
	}
	for _, id := range s.Order {
		e := s.entity(id)
		if e == nil || e.Side != side || e.IsDown() || used[id] {
			continue
		}
		used[id] = true
		return e
	}
	return nil
}

// act selects and resolves one action for the actor.
func (s *State) act(actor *Entity) {
	action := s.selectAction(actor)

	switch action {
	case ActionMagic:
		s.resolveMagic(actor)
	case ActionHeal:
		s.resolveHeal(actor)
	default:
		s.resolveMelee(actor)
	}

	s.turnCount++
}

// selectAction applies the encounter's strategy. Monsters, warriors,
// and rogues always melee; mages and clerics consult either the
// scripted list or their seeded ratio roll.
func (s *State) selectAction(actor *Entity) Action {
	if actor.Side == SideMonsters || !actor.Class.IsCaster() {
		return ActionMelee
	}

	switch strat := s.strategy.(type) {
	case Scripted:
		if s.scriptIdx < len(strat.Actions) {
			a := strat.Actions[s.scriptIdx]
			s.scriptIdx++
			return a
		}
		return ActionMelee
	case Probabilistic:
		roll := s.root.Derive("action", s.turnCount).Random()
		switch actor.Class {
		case class.Mage:
			if roll < strat.MageMagicRatio {
				return ActionMagic
			}
		case class.Cleric:
			if roll < strat.ClericHealRatio {
				return ActionHeal
			}
		}
	}
	return ActionMelee
}

// pickTarget chooses a living enemy with a seeded roll of its own.
func (s *State) pickTarget(actor *Entity) *Entity {
	var enemySide Side
	if actor.Side == SideParty {
		enemySide = SideMonsters
	} else {
		enemySide = SideParty
	}

	enemies := s.living(enemySide)
	if len(enemies) == 0 {
		return nil
	}
	pick := s.root.Derive("target", s.turnCount).Range(0, len(enemies)-1)
	return enemies[pick]
}

// resolveMelee rolls d20 + attack bonus against the target's AC.
// A natural 20 always hits and doubles the rolled damage dice, not the
// flat modifiers.
func (s *State) resolveMelee(actor *Entity) {
	target := s.pickTarget(actor)
	if target == nil {
		return
	}

	roll := s.root.Derive("attack", s.turnCount).D20()
	crit := roll == 20
	hit := crit || roll+actor.AttackBonus >= target.AC

	turn := Turn{
		Actor:       actor.ID,
		Target:      target.ID,
		Action:      ActionMelee,
		Roll:        roll,
		AttackBonus: actor.AttackBonus,
		TargetAC:    target.AC,
		Hit:         hit,
		Critical:    crit,
	}

	if hit {
		damageRNG := s.root.Derive("damage", s.turnCount)
		count, sides, flat, ok := rng.ParseNotation(actor.DamageDice)
		if !ok {
			count, sides, flat = 1, 4, 0
		}
		if crit {
			count *= 2
		}
		damage := damageRNG.Roll(count, sides) + flat + actor.DamageBonus
		if damage < 1 {
			damage = 1
		}

		target.HP -= damage
		if target.HP < 0 {
			target.HP = 0
		}
		turn.Damage = damage
	}

	s.Turns = append(s.Turns, turn)
}

// resolveMagic auto-hits a seeded target for spell-die damage. Mana is
// consumed; insufficient mana is a soft no-op rather than an error.
func (s *State) resolveMagic(actor *Entity) {
	target := s.pickTarget(actor)
	if target == nil {
		return
	}

	turn := Turn{
		Actor:  actor.ID,
		Target: target.ID,
		Action: ActionMagic,
	}

	if actor.Mana < actor.SpellCost {
		turn.Note = "insufficient mana"
		s.Turns = append(s.Turns, turn)
		return
	}
	actor.Mana -= actor.SpellCost
	turn.ManaSpent = actor.SpellCost

	damage := s.root.Derive("damage", s.turnCount).Roll(1, actor.SpellDie) + actor.SpellAttackBonus
	if damage < 1 {
		damage = 1
	}

	target.HP -= damage
	if target.HP < 0 {
		target.HP = 0
	}
	turn.Hit = true
	turn.Damage = damage

	s.Turns = append(s.Turns, turn)
}

// resolveHeal restores HP to the most wounded living ally. Healing
// never exceeds max HP and never revives a downed ally; with no valid
// recipient the actor swings instead.
func (s *State) resolveHeal(actor *Entity) {
	target := s.healTarget(actor)
	if target == nil {
		s.resolveMelee(actor)
		return
	}

	turn := Turn{
		Actor:  actor.ID,
		Target: target.ID,
		Action: ActionHeal,
	}

	if actor.Mana < actor.SpellCost {
		turn.Note = "insufficient mana"
		s.Turns = append(s.Turns, turn)
		return
	}
	actor.Mana -= actor.SpellCost
	turn.ManaSpent = actor.SpellCost

	healing := s.root.Derive("heal", s.turnCount).Roll(1, actor.SpellDie) + actor.SpellAttackBonus
	if healing < 1 {
		healing = 1
	}
	if target.HP+healing > target.MaxHP {
		healing = target.MaxHP - target.HP
	}

	target.HP += healing
	turn.Hit = true
	turn.Healing = healing

	s.Turns = append(s.Turns, turn)
}

// healTarget returns the living ally with the lowest HP fraction that
// is actually missing HP, or nil if nobody qualifies.
func (s *State) healTarget(actor *Entity) *Entity {
	var best *Entity
	var bestFrac float64
	for _, ally := range s.living(actor.Side) {
		if ally.HP >= ally.MaxHP {
			continue
		}
		frac := float64(ally.HP) / float64(ally.MaxHP)
		if best == nil || frac < bestFrac {
			best = ally
			bestFrac = frac
		}
	}
	return best
}
