package dungeon

import (
	"fmt"

	"github.com/duskhall/delve/internal/rng"
	"github.com/duskhall/delve/internal/trap"
)

// MaxDepth caps how many levels any dungeon can hold.
const MaxDepth = 100

// Room is one level's content. Its seed drives every roll made while
// resolving it, so a room replays identically for the same dungeon and
// seed.
type Room struct {
	Level    int       `json:"level"`
	Type     RoomType  `json:"type"`
	Seed     string    `json:"seed"`
	TrapKind trap.Kind `json:"trapKind,omitempty"`
}

// Dungeon is a named, seeded dungeon definition. Boss and mid-boss
// rooms are laid out up front; everything else is generated on demand.
type Dungeon struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Seed  string `json:"seed"`
	Depth int    `json:"depth"`

	precomputed map[int]Room
}

// New builds a dungeon and precomputes its boss layout. Depth is
// clamped to MaxDepth.
func New(id, name, seed string, depth int) *Dungeon {
	if depth > MaxDepth {
		depth = MaxDepth
	}
	if depth < 1 {
		depth = 1
	}

	d := &Dungeon{
		ID:          id,
		Name:        name,
		Seed:        seed,
		Depth:       depth,
		precomputed: make(map[int]Room),
	}

	for level := 1; level <= depth; level++ {
		switch {
		case level%10 == 0:
			d.precomputed[level] = Room{
				Level: level,
				Type:  RoomTypeBoss,
				Seed:  d.roomSeed(level),
			}
		case level%5 == 0:
			d.precomputed[level] = Room{
				Level: level,
				Type:  RoomTypeMidBoss,
				Seed:  d.roomSeed(level),
			}
		}
	}

	return d
}

// roomSeed names the sub-seed for one level's room.
func (d *Dungeon) roomSeed(level int) string {
	return fmt.Sprintf("%s-level-%d", d.Seed, level)
}

// RoomAt returns the room for a level, generating it if it is not part
// of the precomputed layout. Generation draws only from the room's
// own seed.
func (d *Dungeon) RoomAt(level int) (Room, error) {
	if level < 1 || level > d.Depth {
		return Room{}, fmt.Errorf("level %d out of range [1, %d]", level, d.Depth)
	}

	if room, ok := d.precomputed[level]; ok {
		return room, nil
	}

	return generateRoom(level, d.roomSeed(level)), nil
}

// generateRoom rolls an ordinary room's type and, for traps, its
// subtype from the room seed.
func generateRoom(level int, seed string) Room {
	r := rng.New(seed)
	room := Room{Level: level, Seed: seed}

	roll := r.Random()
	switch {
	case roll < 0.45:
		room.Type = RoomTypeCombat
	case roll < 0.65:
		room.Type = RoomTypeTrap
	case roll < 0.85:
		room.Type = RoomTypeTreasure
	default:
		room.Type = RoomTypeSafe
	}

	if room.Type == RoomTypeTrap {
		kindRoll := r.Random()
		switch {
		case kindRoll < 0.5:
			room.TrapKind = trap.KindMechanical
		case kindRoll < 0.75:
			room.TrapKind = trap.KindMagical
		case kindRoll < 0.9:
			room.TrapKind = trap.KindFakeTreasure
		default:
			// Ambush rooms look like traps but resolve as combat.
			room.TrapKind = trap.KindAmbush
		}
	}

	return room
}
