// Package run orchestrates full expeditions: it walks a party through
// a dungeon level by level, dispatches each room to the right engine,
// accumulates the event stream, and persists the outcome in one
// best-effort batch at the end.
package run

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/duskhall/delve/internal/character"
	"github.com/duskhall/delve/internal/checkpoint"
	"github.com/duskhall/delve/internal/combat"
	"github.com/duskhall/delve/internal/config"
	"github.com/duskhall/delve/internal/dungeon"
	"github.com/duskhall/delve/internal/event"
	"github.com/duskhall/delve/internal/logger"
	"github.com/duskhall/delve/internal/loot"
	"github.com/duskhall/delve/internal/monster"
	"github.com/duskhall/delve/internal/rng"
	"github.com/duskhall/delve/internal/store"
	"github.com/duskhall/delve/internal/trap"
)

// Status is the terminal outcome of a run.
type Status string

const (
	// StatusVictory means the party cleared every level.
	StatusVictory Status = "victory"

	// StatusDefeat means the run ended in a lost combat or party wipe.
	StatusDefeat Status = "defeat"

	// StatusError means the run could not resolve at all.
	StatusError Status = "error"
)

// Store is the persistence surface the orchestrator consumes.
// *store.Store satisfies it.
type Store interface {
	DungeonByID(ctx context.Context, id string) (*dungeon.Dungeon, error)
	CharacterByIdentity(ctx context.Context, id character.Identity) (*character.Character, error)
	UpdateCharacterStats(ctx context.Context, ch *character.Character) error
	AddInventory(ctx context.Context, id character.Identity, runID string, items []loot.Item) error
	InsertRunLog(ctx context.Context, log store.RunLog) error
}

// Checkpointer receives advisory progress snapshots. Save failures are
// logged and never affect the run.
type Checkpointer interface {
	Save(ctx context.Context, cp checkpoint.Checkpoint) error
}

// Request names the expedition to execute.
type Request struct {
	RunID     string
	DungeonID string

	// Seed drives room resolution. Empty falls back to the dungeon's
	// own seed, making the run a canonical replay of the dungeon.
	Seed string

	Party     []character.Identity
	StartTime time.Time
}

// Result is always produced, even on fatal failure.
type Result struct {
	RunID           string
	DungeonID       string
	Seed            string
	Status          Status
	LevelsCompleted int
	TotalXP         int
	Events          []event.Event
	Party           []*character.Character
	StartedAt       time.Time
	FinishedAt      time.Time
}

// Orchestrator executes expeditions. It mutates in-memory party
// copies only; the stored records are touched once, by the final
// persistence batch.
type Orchestrator struct {
	store       Store
	checkpoints Checkpointer
	loot        loot.Generator
	monsters    *monster.Library
	cfg         *config.SimConfig
	now         func() time.Time
}

// pendingLoot is one deferred inventory credit.
type pendingLoot struct {
	identity character.Identity
	items    []loot.Item
}

// New creates an orchestrator. checkpoints may be nil (snapshots are
// skipped); cfg nil falls back to defaults.
func New(st Store, checkpoints Checkpointer, cfg *config.SimConfig) *Orchestrator {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Orchestrator{
		store:       st,
		checkpoints: checkpoints,
		loot:        &loot.Seeded{},
		monsters:    monster.DefaultLibrary(),
		cfg:         cfg,
		now:         time.Now,
	}
}

// WithLootGenerator swaps the loot source.
func (o *Orchestrator) WithLootGenerator(g loot.Generator) *Orchestrator {
	o.loot = g
	return o
}

// WithMonsterLibrary swaps the monster templates.
func (o *Orchestrator) WithMonsterLibrary(l *monster.Library) *Orchestrator {
	o.monsters = l
	return o
}

// WithClock swaps the wall clock, for tests.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// Execute runs one expedition to completion. The returned result is
// never nil; a run that cannot resolve at all carries StatusError and
// a single error event.
func (o *Orchestrator) Execute(ctx context.Context, req Request) *Result {
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}

	res := &Result{
		RunID:     req.RunID,
		DungeonID: req.DungeonID,
		Seed:      req.Seed,
		Status:    StatusError,
		StartedAt: o.now(),
	}

	dun, party, err := o.load(ctx, req)
	if err != nil {
		return o.fail(res, err)
	}
	res.Party = party
	if res.Seed == "" {
		res.Seed = dun.Seed
	}

	levels := dun.Depth
	if limit := o.cfg.Run.LevelCap; limit > 0 && levels > limit {
		levels = limit
	}

	var pending []pendingLoot
	terminal := false

	for level := 1; level <= levels && !terminal; level++ {
		room, err := dun.RoomAt(level)
		if err != nil {
			logger.Warning("Room generation failed, skipping level",
				"run_id", res.RunID, "level", level, "error", err)
			o.emit(res, event.TypeError, level, room, err.Error())
			continue
		}
		seed := fmt.Sprintf("%s-level-%d", res.Seed, level)

		o.emit(res, event.TypeRoomEnter, level, room,
			fmt.Sprintf("The party descends to level %d.", level))

		var roomErr error
		terminal, roomErr = o.resolveRoom(res, room, seed, party, &pending)

		if roomErr != nil {
			logger.Warning("Room failed to resolve, skipping level",
				"run_id", res.RunID, "level", level, "error", roomErr)
			o.emit(res, event.TypeError, level, room, roomErr.Error())
			continue
		}

		if !terminal && partyWiped(party) {
			o.emit(res, event.TypePartyWipe, level, room, "The party has fallen.")
			terminal = true
		}

		if terminal {
			res.LevelsCompleted = level - 1
			break
		}

		res.LevelsCompleted = level
		o.emit(res, event.TypeRoomExplored, level, room,
			fmt.Sprintf("Level %d explored.", level))
		o.saveCheckpoint(ctx, res, party, level)
	}

	if terminal {
		res.Status = StatusDefeat
	} else {
		res.Status = StatusVictory
	}

	o.persist(ctx, res, party, pending)
	res.FinishedAt = o.now()
	return res
}

// load fetches the dungeon and fresh party copies.
func (o *Orchestrator) load(ctx context.Context, req Request) (*dungeon.Dungeon, []*character.Character, error) {
	if len(req.Party) == 0 {
		return nil, nil, errors.New("run requested with empty party")
	}

	var dun *dungeon.Dungeon
	err := o.callStore(ctx, "load dungeon", func(c context.Context) error {
		var err error
		dun, err = o.store.DungeonByID(c, req.DungeonID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	party := make([]*character.Character, 0, len(req.Party))
	for _, id := range req.Party {
		var ch *character.Character
		err := o.callStore(ctx, "load character "+id.Key(), func(c context.Context) error {
			var err error
			ch, err = o.store.CharacterByIdentity(c, id)
			return err
		})
		if err != nil {
			return nil, nil, err
		}
		party = append(party, ch.Clone())
	}
	return dun, party, nil
}

// resolveRoom dispatches one room under the configured wall-clock
// budgets. A room that overruns its budget reports an error so the
// caller can skip the level instead of stalling the run.
func (o *Orchestrator) resolveRoom(res *Result, room dungeon.Room, seed string, party []*character.Character, pending *[]pendingLoot) (bool, error) {
	start := time.Now()
	deadline := combatDeadline(start, o.cfg.Run.RoomTimeout, o.cfg.Combat.Timeout)

	var terminal bool
	var err error
	switch room.Type {
	case dungeon.RoomTypeCombat, dungeon.RoomTypeMidBoss, dungeon.RoomTypeBoss:
		terminal, err = o.resolveCombat(res, room, seed, party, false, deadline)
	case dungeon.RoomTypeTrap:
		if room.TrapKind == trap.KindAmbush {
			// Ambush traps are combat encounters in disguise.
			terminal, err = o.resolveCombat(res, room, seed, party, true, deadline)
		} else {
			terminal, err = o.resolveTrap(res, room, seed, party)
		}
	case dungeon.RoomTypeTreasure:
		*pending = append(*pending, o.resolveTreasure(res, room, seed, party)...)
	case dungeon.RoomTypeSafe:
		o.resolveSafe(res, room, party)
	default:
		err = fmt.Errorf("unknown room type %v at level %d", room.Type, room.Level)
	}
	if err != nil || terminal {
		return terminal, err
	}

	if budget := o.cfg.Run.RoomTimeout; budget > 0 && time.Since(start) > budget {
		return false, fmt.Errorf("room at level %d exceeded %s budget", room.Level, budget)
	}
	return false, nil
}

// combatDeadline picks the earlier of the room and combat budgets
// measured from start. Zero when neither budget is set.
func combatDeadline(start time.Time, roomBudget, combatBudget time.Duration) time.Time {
	var deadline time.Time
	if roomBudget > 0 {
		deadline = start.Add(roomBudget)
	}
	if combatBudget > 0 {
		if d := start.Add(combatBudget); deadline.IsZero() || d.Before(deadline) {
			deadline = d
		}
	}
	return deadline
}

// resolveCombat spawns the room's monsters and runs the encounter.
// Returns true when the run must end (combat defeat).
func (o *Orchestrator) resolveCombat(res *Result, room dungeon.Room, seed string, party []*character.Character, forcedAmbush bool, deadline time.Time) (bool, error) {
	root := rng.New(seed)

	var monsters []monster.Instance
	switch room.Type {
	case dungeon.RoomTypeBoss:
		if boss, ok := o.monsters.SpawnBoss(room.Level, root); ok {
			monsters = append(monsters, boss)
		}
		// Bosses bring a retinue of ordinary monsters.
		monsters = append(monsters, o.monsters.SpawnForRoom(room.Level, root.DeriveNamed("retinue"))...)
	case dungeon.RoomTypeMidBoss:
		if boss, ok := o.monsters.SpawnBoss(room.Level, root); ok {
			monsters = append(monsters, boss)
		}
	default:
		monsters = o.monsters.SpawnForRoom(room.Level, root.DeriveNamed("monsters"))
	}

	if len(monsters) == 0 {
		if forcedAmbush {
			o.emit(res, event.TypeCombatSkipped, room.Level, room,
				"The ambush never springs; the corridor is deserted.")
		} else {
			o.emit(res, event.TypeRoomEmpty, room.Level, room, "The room is silent and empty.")
		}
		return false, nil
	}

	entities := make([]*combat.Entity, 0, len(party)+len(monsters))
	for _, ch := range party {
		entities = append(entities, combat.FromCharacter(ch))
	}
	for _, m := range monsters {
		entities = append(entities, entityFromMonster(m))
	}

	ambush, surprise := o.awareness(root, room.Level, party)
	if forcedAmbush {
		ambush, surprise = true, false
	}

	state, err := combat.NewState(combat.Config{
		Seed:     seed,
		Entities: entities,
		Ambush:   ambush,
		Surprise: surprise,
		Strategy: combat.Probabilistic{
			MageMagicRatio:  o.cfg.Combat.MageMagicRatio,
			ClericHealRatio: o.cfg.Combat.ClericHealRatio,
		},
		MaxTurns: o.cfg.Combat.MaxTurns,
	})
	if err != nil {
		return false, fmt.Errorf("combat setup at level %d: %w", room.Level, err)
	}

	status, err := state.RunUntil(deadline)
	if err != nil {
		// The cut-off point is wall-clock dependent, so partial combat
		// state is discarded rather than folded back.
		return false, fmt.Errorf("combat at level %d: %w", room.Level, err)
	}
	foldBack(state, party)

	switch status {
	case combat.StatusVictory:
		xp := state.XPAward()
		awardXP(party, xp)
		res.TotalXP += xp
		ev := o.emit(res, event.TypeCombatVictory, room.Level, room,
			fmt.Sprintf("The party defeats %d foes for %d XP.", len(monsters), xp))
		ev.CombatTurns = state.TurnCount()
		return false, nil
	default:
		ev := o.emit(res, event.TypeCombatDefeat, room.Level, room,
			"The party is overwhelmed.")
		ev.CombatTurns = state.TurnCount()
		return true, nil
	}
}

// awareness decides surprise and ambush for a combat room: the party's
// best perception rolls once against the level's difficulty. A clear
// success gives the party the drop; a clear failure gives it to the
// monsters.
func (o *Orchestrator) awareness(root *rng.RNG, level int, party []*character.Character) (ambush, surprise bool) {
	best := 0
	for _, ch := range party {
		if ch.Stats.Health > 0 && ch.Stats.Perception > best {
			best = ch.Stats.Perception
		}
	}
	total := root.DeriveNamed("awareness").D20() + best
	dc := trap.DC(level)
	switch {
	case total >= dc+5:
		return false, true
	case total < dc-5:
		return true, false
	default:
		return false, false
	}
}

// resolveTrap dispatches to the trap engine and splits its XP.
func (o *Orchestrator) resolveTrap(res *Result, room dungeon.Room, seed string, party []*character.Character) (bool, error) {
	policy := trap.BestEffort
	if o.cfg.Trap.RequireAll {
		policy = trap.AllMustSucceed
	}

	result, err := trap.Resolve(trap.Request{
		Seed:                 seed,
		Level:                room.Level,
		Kind:                 room.TrapKind,
		Party:                party,
		Policy:               policy,
		StrengthDisarmChance: o.cfg.Trap.StrengthDisarmChance,
	})
	if err != nil {
		return false, fmt.Errorf("trap at level %d: %w", room.Level, err)
	}

	awardXP(party, result.XP)
	res.TotalXP += result.XP

	if result.Disarmed {
		o.emit(res, event.TypeTrapDisarmed, room.Level, room,
			fmt.Sprintf("A %s trap is disarmed for %d XP.", result.Kind, result.XP))
	} else {
		o.emit(res, event.TypeTrapTriggered, room.Level, room,
			fmt.Sprintf("A %s trap springs, dealing %d damage.", result.Kind, result.TotalDamage))
	}
	return false, nil
}

// resolveTreasure generates loot and queues the inventory credits.
// Items are dealt round-robin across the party.
func (o *Orchestrator) resolveTreasure(res *Result, room dungeon.Room, seed string, party []*character.Character) []pendingLoot {
	items := o.loot.Generate(seed, room.Level)
	if len(items) == 0 {
		o.emit(res, event.TypeRoomEmpty, room.Level, room, "The chest is empty.")
		return nil
	}

	byMember := make(map[string][]loot.Item)
	for i, item := range items {
		key := party[i%len(party)].Identity.Key()
		byMember[key] = append(byMember[key], item)
	}

	var out []pendingLoot
	for _, ch := range party {
		if got, ok := byMember[ch.Identity.Key()]; ok {
			out = append(out, pendingLoot{identity: ch.Identity, items: got})
		}
	}

	o.emit(res, event.TypeTreasureFound, room.Level, room,
		fmt.Sprintf("The party finds %d items of %s quality.",
			len(items), loot.TierName(loot.TierForLevel(room.Level))))
	return out
}

// resolveSafe fully restores every member, downed included.
func (o *Orchestrator) resolveSafe(res *Result, room dungeon.Room, party []*character.Character) {
	for _, ch := range party {
		ch.Stats.RestoreAll()
	}
	o.emit(res, event.TypeRest, room.Level, room,
		"The party rests and recovers fully.")
}

// saveCheckpoint writes the advisory progress snapshot. Failures are
// logged, never fatal; checkpoints are never read back by the engine.
func (o *Orchestrator) saveCheckpoint(ctx context.Context, res *Result, party []*character.Character, level int) {
	if o.checkpoints == nil {
		return
	}
	err := o.callStore(ctx, "save checkpoint", func(c context.Context) error {
		return o.checkpoints.Save(c, checkpoint.Checkpoint{
			RunID:     res.RunID,
			DungeonID: res.DungeonID,
			Level:     level,
			TotalXP:   res.TotalXP,
			Party:     party,
			UpdatedAt: o.now(),
		})
	})
	if err != nil {
		logger.Warning("Checkpoint write failed", "run_id", res.RunID, "level", level, "error", err)
	}
}

// persist runs the single batched write phase. Each write is
// best-effort; a failed member write never blocks its siblings.
func (o *Orchestrator) persist(ctx context.Context, res *Result, party []*character.Character, pending []pendingLoot) {
	for _, ch := range party {
		err := o.callStore(ctx, "persist character "+ch.Identity.Key(), func(c context.Context) error {
			return o.store.UpdateCharacterStats(c, ch)
		})
		if err != nil {
			logger.Error("Character write failed", "run_id", res.RunID,
				"identity", ch.Identity.Key(), "error", err)
		}
	}

	for _, p := range pending {
		err := o.callStore(ctx, "persist inventory "+p.identity.Key(), func(c context.Context) error {
			return o.store.AddInventory(c, p.identity, res.RunID, p.items)
		})
		if err != nil {
			logger.Error("Inventory write failed", "run_id", res.RunID,
				"identity", p.identity.Key(), "error", err)
		}
	}

	ids := make([]character.Identity, len(party))
	for i, ch := range party {
		ids[i] = ch.Identity
	}
	err := o.callStore(ctx, "persist run log", func(c context.Context) error {
		return o.store.InsertRunLog(c, store.RunLog{
			RunID:           res.RunID,
			DungeonID:       res.DungeonID,
			Seed:            res.Seed,
			Status:          string(res.Status),
			LevelsCompleted: res.LevelsCompleted,
			TotalXP:         res.TotalXP,
			Party:           ids,
			StartedAt:       res.StartedAt,
			FinishedAt:      o.now(),
		})
	})
	if err != nil {
		logger.Error("Run log write failed", "run_id", res.RunID, "error", err)
	}
}

// fail finalizes a run that could not resolve at all.
func (o *Orchestrator) fail(res *Result, err error) *Result {
	logger.Error("Run failed", "run_id", res.RunID, "error", err)
	res.Status = StatusError
	res.Events = append(res.Events, event.Event{
		RunID:       res.RunID,
		Type:        event.TypeError,
		Description: err.Error(),
		CreatedAt:   o.now(),
	})
	res.FinishedAt = o.now()
	return res
}

// emit appends an event and returns a pointer to it so callers can
// decorate it.
func (o *Orchestrator) emit(res *Result, t event.Type, level int, room dungeon.Room, desc string) *event.Event {
	res.Events = append(res.Events, event.Event{
		RunID:       res.RunID,
		Type:        t,
		Level:       level,
		RoomType:    room.Type.String(),
		Description: desc,
		CreatedAt:   o.now(),
	})
	return &res.Events[len(res.Events)-1]
}

// callStore wraps an external call with the configured timeout and an
// error naming the operation and its budget.
func (o *Orchestrator) callStore(ctx context.Context, op string, fn func(context.Context) error) error {
	budget := o.cfg.Run.PersistTimeout
	if budget <= 0 {
		budget = 5 * time.Second
	}
	cctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	if err := fn(cctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%s exceeded %s budget: %w", op, budget, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// foldBack copies combat HP/mana results into the party records.
func foldBack(state *combat.State, party []*character.Character) {
	byID := make(map[string]*character.Character, len(party))
	for _, ch := range party {
		byID[ch.Identity.Key()] = ch
	}
	for _, e := range state.Entities {
		if e.Side != combat.SideParty {
			continue
		}
		if ch, ok := byID[e.ID]; ok {
			ch.Stats.Health = e.HP
			ch.Stats.Mana = e.Mana
		}
	}
}

// awardXP splits a reward across the whole party: floor division, with
// the remainder handed out one point each to the earliest members.
func awardXP(party []*character.Character, total int) {
	if total <= 0 || len(party) == 0 {
		return
	}
	share := total / len(party)
	remainder := total % len(party)
	for i, ch := range party {
		xp := share
		if i < remainder {
			xp++
		}
		ch.GainExperience(xp)
	}
}

// partyWiped reports whether every member is at zero HP.
func partyWiped(party []*character.Character) bool {
	for _, ch := range party {
		if ch.Stats.Health > 0 {
			return false
		}
	}
	return true
}

func entityFromMonster(m monster.Instance) *combat.Entity {
	return &combat.Entity{
		ID:          m.ID,
		Name:        m.Name,
		Side:        combat.SideMonsters,
		Dexterity:   m.Dexterity,
		Strength:    m.Strength,
		HP:          m.HP,
		MaxHP:       m.MaxHP,
		AC:          m.AC,
		AttackBonus: m.AttackBonus,
		DamageDice:  m.DamageDice,
		DamageBonus: m.DamageBonus,
		XP:          m.XP,
	}
}
