// Package event defines the expedition event stream and the machinery
// that reveals computed events to observers on a fixed cadence.
package event

import "time"

// Type identifies what happened in a room. The vocabulary is fixed;
// consumers switch on it exhaustively.
type Type string

const (
	TypeRoomEnter     Type = "room_enter"
	TypeRoomEmpty     Type = "room_empty"
	TypeCombatVictory Type = "combat_victory"
	TypeCombatDefeat  Type = "combat_defeat"
	TypeCombatSkipped Type = "combat_skipped"
	TypeTrapDisarmed  Type = "trap_disarmed"
	TypeTrapTriggered Type = "trap_triggered"
	TypeTreasureFound Type = "treasure_found"
	TypeRest          Type = "rest"
	TypeRoomExplored  Type = "room_explored"
	TypePartyWipe     Type = "party_wipe"
	TypeError         Type = "error"
)

// IsValid returns true if the type belongs to the fixed vocabulary.
func (t Type) IsValid() bool {
	switch t {
	case TypeRoomEnter, TypeRoomEmpty, TypeCombatVictory, TypeCombatDefeat,
		TypeCombatSkipped, TypeTrapDisarmed, TypeTrapTriggered,
		TypeTreasureFound, TypeRest, TypeRoomExplored, TypePartyWipe,
		TypeError:
		return true
	default:
		return false
	}
}

// Event is one computed game event. It is created when the simulation
// resolves a room, but only becomes visible once the deliverer flips
// Delivered after its scheduled timestamp has passed.
type Event struct {
	ID    int64  `json:"id,omitempty"`
	RunID string `json:"runId"`

	// Seq is the event's position in its run's stream. Runs replay
	// deterministically, so (RunID, Seq) identifies an event across
	// redeliveries of the same job.
	Seq int `json:"seq"`

	Type        Type      `json:"type"`
	Level       int       `json:"level"`
	RoomType    string    `json:"roomType,omitempty"`
	Description string    `json:"description"`
	CombatTurns int       `json:"combatTurns,omitempty"`
	CreatedAt   time.Time `json:"timestamp"`

	ScheduledFor time.Time `json:"scheduledFor"`
	Delivered    bool      `json:"delivered"`
}
