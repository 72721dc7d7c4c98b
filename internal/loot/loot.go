// Package loot generates treasure-room rewards. The orchestrator
// treats generation as opaque; only the seeded default implementation
// lives here.
package loot

import (
	"fmt"

	"github.com/duskhall/delve/internal/rng"
)

// Item is one generated reward.
type Item struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Tier  int    `json:"tier"`
	Value int    `json:"value"`
}

// Generator produces the rewards of a treasure room.
type Generator interface {
	Generate(seed string, level int) []Item
}

// TierForLevel maps a dungeon level to a loot tier.
func TierForLevel(level int) int {
	switch {
	case level <= 10:
		return 1 // Common
	case level <= 30:
		return 2 // Uncommon
	case level <= 60:
		return 3 // Rare
	case level <= 90:
		return 4 // Epic
	default:
		return 5 // Legendary
	}
}

// TierName returns a human-readable name for a loot tier.
func TierName(tier int) string {
	switch tier {
	case 1:
		return "Common"
	case 2:
		return "Uncommon"
	case 3:
		return "Rare"
	case 4:
		return "Epic"
	case 5:
		return "Legendary"
	default:
		return "Unknown"
	}
}

var itemNames = map[int][]string{
	1: {"Worn Dagger", "Traveler's Cloak", "Minor Healing Draught", "Copper Ring"},
	2: {"Steel Shortsword", "Reinforced Buckler", "Silver Amulet", "Scroll of Embers"},
	3: {"Runed Longsword", "Enchanted Chainmail", "Moonstone Pendant", "Tome of Frost"},
	4: {"Shadowfang Blade", "Aegis of the Deep", "Crown of Whispers", "Stormcaller Staff"},
	5: {"Heart of the Abyss", "Sovereign's Edge", "Mantle of Eternity"},
}

// Seeded is the default generator: 1-3 items of the level's tier,
// every pick drawn from the treasure seed.
type Seeded struct{}

// Generate rolls the rewards for one treasure room.
func (Seeded) Generate(seed string, level int) []Item {
	r := rng.New(seed)
	tier := TierForLevel(level)
	names := itemNames[tier]

	count := r.Range(1, 3)
	items := make([]Item, 0, count)
	for i := 0; i < count; i++ {
		pick := r.Derive("item", i)
		name := names[pick.Range(0, len(names)-1)]
		items = append(items, Item{
			ID:    fmt.Sprintf("loot-%d-%d", level, i),
			Name:  name,
			Tier:  tier,
			Value: tier*10 + pick.Range(0, tier*15),
		})
	}
	return items
}
