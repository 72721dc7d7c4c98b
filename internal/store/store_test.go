package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/duskhall/delve/internal/character"
	"github.com/duskhall/delve/internal/class"
	"github.com/duskhall/delve/internal/dungeon"
	"github.com/duskhall/delve/internal/event"
	"github.com/duskhall/delve/internal/loot"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(DefaultConfig(filepath.Join(t.TempDir(), "test.db")))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testIdentity(token string) character.Identity {
	return character.Identity{TokenID: token, Contract: "0xabc", Chain: "ethereum"}
}

func TestSaveAndLoadCharacter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id := testIdentity("1")
	ch, err := character.New(id, "0xwallet", "Brakk", class.Warrior)
	if err != nil {
		t.Fatalf("character.New() error = %v", err)
	}

	if err := s.SaveCharacter(ctx, ch); err != nil {
		t.Fatalf("SaveCharacter() error = %v", err)
	}

	loaded, err := s.CharacterByIdentity(ctx, id)
	if err != nil {
		t.Fatalf("CharacterByIdentity() error = %v", err)
	}

	if loaded.Name != "Brakk" {
		t.Errorf("Name = %q, want %q", loaded.Name, "Brakk")
	}
	if loaded.Class != class.Warrior {
		t.Errorf("Class = %v, want %v", loaded.Class, class.Warrior)
	}
	if loaded.Stats.MaxHealth != ch.Stats.MaxHealth {
		t.Errorf("MaxHealth = %d, want %d", loaded.Stats.MaxHealth, ch.Stats.MaxHealth)
	}
	if loaded.Stats.ArmorClass != ch.Stats.ArmorClass {
		t.Errorf("derived ArmorClass = %d, want %d", loaded.Stats.ArmorClass, ch.Stats.ArmorClass)
	}
}

func TestSaveCharacterUpsertsExisting(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id := testIdentity("2")
	ch, _ := character.New(id, "0xwallet", "Lyra", class.Mage)
	if err := s.SaveCharacter(ctx, ch); err != nil {
		t.Fatalf("SaveCharacter() error = %v", err)
	}

	ch.Level = 5
	ch.Experience = 1200
	if err := s.SaveCharacter(ctx, ch); err != nil {
		t.Fatalf("SaveCharacter() second call error = %v", err)
	}

	loaded, err := s.CharacterByIdentity(ctx, id)
	if err != nil {
		t.Fatalf("CharacterByIdentity() error = %v", err)
	}
	if loaded.Level != 5 || loaded.Experience != 1200 {
		t.Errorf("got level %d xp %d, want 5/1200", loaded.Level, loaded.Experience)
	}
}

func TestUpdateCharacterStats(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id := testIdentity("3")
	ch, _ := character.New(id, "0xwallet", "Oren", class.Cleric)
	if err := s.SaveCharacter(ctx, ch); err != nil {
		t.Fatalf("SaveCharacter() error = %v", err)
	}

	ch.Stats.Health = 3
	ch.Experience = 400
	if err := s.UpdateCharacterStats(ctx, ch); err != nil {
		t.Fatalf("UpdateCharacterStats() error = %v", err)
	}

	loaded, _ := s.CharacterByIdentity(ctx, id)
	if loaded.Stats.Health != 3 {
		t.Errorf("Health = %d, want 3", loaded.Stats.Health)
	}
	if loaded.Experience != 400 {
		t.Errorf("Experience = %d, want 400", loaded.Experience)
	}
}

func TestUpdateCharacterStatsMissingRow(t *testing.T) {
	s := openTestStore(t)

	ch, _ := character.New(testIdentity("missing"), "0x", "Ghost", class.Rogue)
	err := s.UpdateCharacterStats(context.Background(), ch)
	if !errors.Is(err, ErrCharacterNotFound) {
		t.Errorf("error = %v, want ErrCharacterNotFound", err)
	}
}

func TestCharacterNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.CharacterByIdentity(context.Background(), testIdentity("nope"))
	if !errors.Is(err, ErrCharacterNotFound) {
		t.Errorf("error = %v, want ErrCharacterNotFound", err)
	}
}

func TestSaveAndLoadDungeon(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	d := dungeon.New("crypt-1", "The Sunken Crypt", "crypt-seed", 30)
	if err := s.SaveDungeon(ctx, d); err != nil {
		t.Fatalf("SaveDungeon() error = %v", err)
	}

	loaded, err := s.DungeonByID(ctx, "crypt-1")
	if err != nil {
		t.Fatalf("DungeonByID() error = %v", err)
	}
	if loaded.Seed != "crypt-seed" || loaded.Depth != 30 {
		t.Errorf("got seed %q depth %d, want crypt-seed/30", loaded.Seed, loaded.Depth)
	}

	// Layout must regenerate identically from the stored seed.
	want, err := d.RoomAt(17)
	if err != nil {
		t.Fatalf("RoomAt(17) error = %v", err)
	}
	got, err := loaded.RoomAt(17)
	if err != nil {
		t.Fatalf("RoomAt(17) error = %v", err)
	}
	if got != want {
		t.Errorf("RoomAt(17) = %+v, want %+v", got, want)
	}
}

func TestDungeonNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.DungeonByID(context.Background(), "absent")
	if !errors.Is(err, ErrDungeonNotFound) {
		t.Errorf("error = %v, want ErrDungeonNotFound", err)
	}
}

func TestInventoryRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id := testIdentity("4")
	items := []loot.Item{
		{ID: "itm-1", Name: "Copper Ring", Tier: 1, Value: 10},
		{ID: "itm-2", Name: "Runed Blade", Tier: 3, Value: 220},
	}
	if err := s.AddInventory(ctx, id, "run-1", items); err != nil {
		t.Fatalf("AddInventory() error = %v", err)
	}

	got, err := s.InventoryForIdentity(ctx, id)
	if err != nil {
		t.Fatalf("InventoryForIdentity() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d items, want 2", len(got))
	}
	if got[1].Name != "Runed Blade" || got[1].Tier != 3 {
		t.Errorf("second item = %+v, want Runed Blade tier 3", got[1])
	}
}

func TestRunLogRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	started := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	log := RunLog{
		RunID:           "run-abc",
		DungeonID:       "crypt-1",
		Seed:            "run-seed",
		Status:          "victory",
		LevelsCompleted: 12,
		TotalXP:         930,
		Party:           []character.Identity{testIdentity("1"), testIdentity("2")},
		StartedAt:       started,
		FinishedAt:      started.Add(90 * time.Second),
	}
	if err := s.InsertRunLog(ctx, log); err != nil {
		t.Fatalf("InsertRunLog() error = %v", err)
	}

	loaded, err := s.RunLogByID(ctx, "run-abc")
	if err != nil {
		t.Fatalf("RunLogByID() error = %v", err)
	}
	if loaded.Status != "victory" || loaded.LevelsCompleted != 12 {
		t.Errorf("got status %q levels %d, want victory/12", loaded.Status, loaded.LevelsCompleted)
	}
	if len(loaded.Party) != 2 || loaded.Party[0].TokenID != "1" {
		t.Errorf("party = %+v, want two identities", loaded.Party)
	}
}

func TestEventQueueLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	events := []event.Event{
		{RunID: "run-1", Seq: 0, Type: event.TypeRoomEnter, Level: 1, Description: "entered", CreatedAt: base, ScheduledFor: base},
		{RunID: "run-1", Seq: 1, Type: event.TypeCombatVictory, Level: 1, CombatTurns: 4, Description: "won", CreatedAt: base, ScheduledFor: base.Add(6 * time.Second)},
		{RunID: "run-1", Seq: 2, Type: event.TypeRest, Level: 2, Description: "rested", CreatedAt: base, ScheduledFor: base.Add(12 * time.Second)},
	}
	if err := s.InsertScheduledEvents(ctx, events); err != nil {
		t.Fatalf("InsertScheduledEvents() error = %v", err)
	}

	due, err := s.DueEvents(ctx, base.Add(7*time.Second))
	if err != nil {
		t.Fatalf("DueEvents() error = %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("got %d due events, want 2", len(due))
	}
	if due[0].Type != event.TypeRoomEnter || due[1].Type != event.TypeCombatVictory {
		t.Errorf("due order = %v, %v", due[0].Type, due[1].Type)
	}
	if due[1].CombatTurns != 4 {
		t.Errorf("CombatTurns = %d, want 4", due[1].CombatTurns)
	}

	ids := []int64{due[0].ID, due[1].ID}
	if err := s.MarkDelivered(ctx, ids); err != nil {
		t.Fatalf("MarkDelivered() error = %v", err)
	}

	due, err = s.DueEvents(ctx, base.Add(7*time.Second))
	if err != nil {
		t.Fatalf("DueEvents() after mark error = %v", err)
	}
	if len(due) != 0 {
		t.Errorf("got %d due events after delivery, want 0", len(due))
	}

	all, err := s.EventsForRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("EventsForRun() error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("got %d events for run, want 3", len(all))
	}
	if !all[0].Delivered || all[2].Delivered {
		t.Errorf("delivered flags = %v/%v/%v, want true/true/false",
			all[0].Delivered, all[1].Delivered, all[2].Delivered)
	}
}

func TestInsertScheduledEventsRedeliveryIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	events := []event.Event{
		{RunID: "run-redo", Seq: 0, Type: event.TypeRoomEnter, Level: 1, Description: "entered", CreatedAt: base, ScheduledFor: base},
		{RunID: "run-redo", Seq: 1, Type: event.TypeRoomExplored, Level: 1, Description: "explored", CreatedAt: base, ScheduledFor: base.Add(6 * time.Second)},
	}
	for i := 0; i < 2; i++ {
		if err := s.InsertScheduledEvents(ctx, events); err != nil {
			t.Fatalf("InsertScheduledEvents() attempt %d error = %v", i+1, err)
		}
	}

	all, err := s.EventsForRun(ctx, "run-redo")
	if err != nil {
		t.Fatalf("EventsForRun() error = %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d events after redelivery, want 2", len(all))
	}
	if all[0].Seq != 0 || all[1].Seq != 1 {
		t.Errorf("stream positions = %d/%d, want 0/1", all[0].Seq, all[1].Seq)
	}
}

func TestInsertRunLogRedeliveryUpserts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	started := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	log := RunLog{
		RunID:     "run-redo",
		DungeonID: "crypt-1",
		Seed:      "s",
		Status:    "error",
		Party:     []character.Identity{testIdentity("1")},
		StartedAt: started,
	}
	if err := s.InsertRunLog(ctx, log); err != nil {
		t.Fatalf("InsertRunLog() error = %v", err)
	}

	log.Status = "victory"
	log.LevelsCompleted = 7
	log.TotalXP = 410
	log.FinishedAt = started.Add(time.Minute)
	if err := s.InsertRunLog(ctx, log); err != nil {
		t.Fatalf("InsertRunLog() redelivery error = %v", err)
	}

	loaded, err := s.RunLogByID(ctx, "run-redo")
	if err != nil {
		t.Fatalf("RunLogByID() error = %v", err)
	}
	if loaded.Status != "victory" || loaded.LevelsCompleted != 7 || loaded.TotalXP != 410 {
		t.Errorf("got %q/%d/%d, want the redelivered summary victory/7/410",
			loaded.Status, loaded.LevelsCompleted, loaded.TotalXP)
	}
}

func TestAddInventoryRedeliveryDoesNotDuplicate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id := testIdentity("5")
	items := []loot.Item{
		{ID: "loot-3-0", Name: "Copper Ring", Tier: 1, Value: 10},
		{ID: "loot-3-1", Name: "Worn Dagger", Tier: 1, Value: 12},
	}
	for i := 0; i < 2; i++ {
		if err := s.AddInventory(ctx, id, "run-redo", items); err != nil {
			t.Fatalf("AddInventory() attempt %d error = %v", i+1, err)
		}
	}

	got, err := s.InventoryForIdentity(ctx, id)
	if err != nil {
		t.Fatalf("InventoryForIdentity() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d items after redelivery, want 2", len(got))
	}

	// The same item from a different run is a separate credit.
	if err := s.AddInventory(ctx, id, "run-other", items[:1]); err != nil {
		t.Fatalf("AddInventory() other run error = %v", err)
	}
	got, _ = s.InventoryForIdentity(ctx, id)
	if len(got) != 3 {
		t.Errorf("got %d items across runs, want 3", len(got))
	}
}

func TestQueryBuilderPostgresPlaceholders(t *testing.T) {
	qb := NewQueryBuilder(&PostgresDialect{})
	got := qb.Build("SELECT * FROM t WHERE a = ? AND b = ?")
	want := "SELECT * FROM t WHERE a = $1 AND b = $2"
	if got != want {
		t.Errorf("Build() = %q, want %q", got, want)
	}
}
