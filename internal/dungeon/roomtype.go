// Package dungeon models dungeons and their level-by-level rooms.
// Ordinary rooms are generated lazily from the dungeon seed; boss
// rooms are precomputed when the dungeon is built.
package dungeon

// RoomType is the closed set of room categories. The orchestrator
// matches on it exhaustively, so adding a type is a compile-time
// checked change.
type RoomType int

const (
	RoomTypeCombat   RoomType = iota // Ordinary monster encounter
	RoomTypeMidBoss                  // Mid-boss encounter (every 5th level)
	RoomTypeBoss                     // Boss encounter (every 10th level)
	RoomTypeTrap                     // Trap encounter
	RoomTypeTreasure                 // Treasure room
	RoomTypeSafe                     // Safe room: full HP/mana restore
)

// String returns the string representation of a RoomType
func (t RoomType) String() string {
	switch t {
	case RoomTypeCombat:
		return "combat"
	case RoomTypeMidBoss:
		return "mid_boss"
	case RoomTypeBoss:
		return "boss"
	case RoomTypeTrap:
		return "trap"
	case RoomTypeTreasure:
		return "treasure"
	case RoomTypeSafe:
		return "safe"
	default:
		return "unknown"
	}
}

// IsCombat returns true if the room resolves through the combat engine
func (t RoomType) IsCombat() bool {
	return t == RoomTypeCombat || t == RoomTypeMidBoss || t == RoomTypeBoss
}

// ParseRoomType converts a string to a RoomType
func ParseRoomType(s string) (RoomType, bool) {
	switch s {
	case "combat":
		return RoomTypeCombat, true
	case "mid_boss":
		return RoomTypeMidBoss, true
	case "boss":
		return RoomTypeBoss, true
	case "trap":
		return RoomTypeTrap, true
	case "treasure":
		return RoomTypeTreasure, true
	case "safe":
		return RoomTypeSafe, true
	default:
		return RoomTypeCombat, false
	}
}
