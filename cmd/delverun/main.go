// Command delverun simulates a single expedition locally against a
// SQLite store and prints the event stream immediately, without queue,
// scheduler, or Redis. Useful for balancing and seed exploration.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/duskhall/delve/internal/character"
	"github.com/duskhall/delve/internal/class"
	"github.com/duskhall/delve/internal/config"
	"github.com/duskhall/delve/internal/dungeon"
	"github.com/duskhall/delve/internal/logger"
	"github.com/duskhall/delve/internal/run"
	"github.com/duskhall/delve/internal/store"
)

func main() {
	dbFile := flag.String("db", "data/delve.db", "Path to SQLite database file")
	dungeonID := flag.String("dungeon", "demo", "Dungeon id to run (created if absent)")
	dungeonSeed := flag.String("seed", "demo-seed", "Dungeon seed used when creating the dungeon")
	runSeed := flag.String("run-seed", "", "Run seed (default: the dungeon's own seed)")
	depth := flag.Int("depth", 20, "Dungeon depth used when creating the dungeon")
	partySpec := flag.String("party", "warrior,mage,cleric", "Comma-separated party classes")
	simConfigFile := flag.String("config", "", "Path to simulation config YAML file")
	flag.Parse()

	// Keep the console clean for the event printout; only errors log.
	logConfig, _ := logger.LoadConfig("")
	logConfig.Level = "ERROR"
	logger.Initialize(logConfig)

	simCfg := config.DefaultConfig()
	if *simConfigFile != "" {
		loaded, err := config.LoadConfig(*simConfigFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		simCfg = loaded
	}

	st, err := store.Open(store.DefaultConfig(*dbFile))
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	ctx := context.Background()

	if err := ensureDungeon(ctx, st, *dungeonID, *dungeonSeed, *depth); err != nil {
		log.Fatalf("Failed to prepare dungeon: %v", err)
	}

	party, err := ensureParty(ctx, st, *partySpec)
	if err != nil {
		log.Fatalf("Failed to prepare party: %v", err)
	}

	res := run.New(st, nil, simCfg).Execute(ctx, run.Request{
		DungeonID: *dungeonID,
		Seed:      *runSeed,
		Party:     party,
	})

	for _, ev := range res.Events {
		fmt.Printf("[L%02d] %-15s %s\n", ev.Level, ev.Type, ev.Description)
	}
	fmt.Printf("\nrun %s: %s after %d levels, %d XP\n",
		res.RunID, res.Status, res.LevelsCompleted, res.TotalXP)
	for _, ch := range res.Party {
		fmt.Printf("  %-10s %-8s lvl %-3d %4d/%d HP %4d/%d MP %6d XP\n",
			ch.Name, ch.Class, ch.Level,
			ch.Stats.Health, ch.Stats.MaxHealth,
			ch.Stats.Mana, ch.Stats.MaxMana, ch.Experience)
	}

	if res.Status == run.StatusError {
		os.Exit(1)
	}
}

// ensureDungeon creates the dungeon definition if it does not exist.
func ensureDungeon(ctx context.Context, st *store.Store, id, seed string, depth int) error {
	if _, err := st.DungeonByID(ctx, id); err == nil {
		return nil
	}
	return st.SaveDungeon(ctx, dungeon.New(id, id, seed, depth))
}

// ensureParty builds one character per requested class, reusing rows
// from previous invocations.
func ensureParty(ctx context.Context, st *store.Store, spec string) ([]character.Identity, error) {
	var ids []character.Identity
	for i, raw := range strings.Split(spec, ",") {
		c, err := class.ParseClass(raw)
		if err != nil {
			return nil, err
		}

		id := character.Identity{
			TokenID:  fmt.Sprintf("%d", i+1),
			Contract: "local",
			Chain:    "local",
		}
		if _, err := st.CharacterByIdentity(ctx, id); err == nil {
			ids = append(ids, id)
			continue
		}

		name := fmt.Sprintf("%s-%d", strings.ToLower(string(c)), i+1)
		ch, err := character.New(id, "local", name, c)
		if err != nil {
			return nil, err
		}
		if err := st.SaveCharacter(ctx, ch); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("party spec %q produced no members", spec)
	}
	return ids, nil
}
