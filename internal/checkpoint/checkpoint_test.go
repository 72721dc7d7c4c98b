package checkpoint

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/duskhall/delve/internal/character"
	"github.com/duskhall/delve/internal/class"
)

// testClient returns a Redis client if integration testing is enabled.
// Set DELVE_TEST_REDIS to a reachable address to run these tests.
func testClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("DELVE_TEST_REDIS")
	if addr == "" {
		t.Skip("DELVE_TEST_REDIS not set, skipping Redis integration test")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("redis ping failed: %v", err)
	}
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func TestSaveLoadDelete(t *testing.T) {
	s := New(testClient(t), time.Minute)
	ctx := context.Background()

	ch, err := character.New(character.Identity{TokenID: "1", Contract: "0xabc", Chain: "ethereum"},
		"0xwallet", "Brakk", class.Warrior)
	if err != nil {
		t.Fatalf("character.New() error = %v", err)
	}

	cp := Checkpoint{
		RunID:     "run-cp-test",
		DungeonID: "crypt-1",
		Level:     7,
		TotalXP:   310,
		Party:     []*character.Character{ch},
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.Save(ctx, cp); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	t.Cleanup(func() { s.Delete(ctx, "run-cp-test") })

	loaded, err := s.Load(ctx, "run-cp-test")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Level != 7 || loaded.TotalXP != 310 {
		t.Errorf("got level %d xp %d, want 7/310", loaded.Level, loaded.TotalXP)
	}
	if len(loaded.Party) != 1 || loaded.Party[0].Name != "Brakk" {
		t.Errorf("party = %+v, want one member named Brakk", loaded.Party)
	}

	if err := s.Delete(ctx, "run-cp-test"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Load(ctx, "run-cp-test"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() after delete error = %v, want ErrNotFound", err)
	}
}

func TestLoadMissing(t *testing.T) {
	s := New(testClient(t), time.Minute)

	_, err := s.Load(context.Background(), "never-existed")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() error = %v, want ErrNotFound", err)
	}
}

func TestNewDefaultsTTL(t *testing.T) {
	s := New(nil, 0)
	if s.ttl != DefaultTTL {
		t.Errorf("ttl = %v, want %v", s.ttl, DefaultTTL)
	}
}
