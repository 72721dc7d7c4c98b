package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/duskhall/delve/internal/event"
)

// InsertScheduledEvents persists a batch of scheduled events in one
// transaction. Rows are keyed by (run_id, seq), so a redelivered job
// that recomputes the same stream leaves the table unchanged.
// Implements event.Store.
func (s *Store) InsertScheduledEvents(ctx context.Context, events []event.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin event transaction: %w", err)
	}
	defer tx.Rollback()

	query := s.qb.Build(`INSERT INTO events
		(run_id, seq, type, level, room_type, description, combat_turns, created_at, scheduled_for, delivered)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (run_id, seq) DO NOTHING`)

	for _, ev := range events {
		if _, err := tx.ExecContext(ctx, query,
			ev.RunID, ev.Seq, string(ev.Type), ev.Level, ev.RoomType,
			ev.Description, ev.CombatTurns,
			ev.CreatedAt.UTC(), ev.ScheduledFor.UTC(), ev.Delivered,
		); err != nil {
			return fmt.Errorf("failed to insert event for run %s: %w", ev.RunID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit events: %w", err)
	}
	return nil
}

// DueEvents returns undelivered events scheduled at or before now, in
// schedule order. Implements event.Store.
func (s *Store) DueEvents(ctx context.Context, now time.Time) ([]event.Event, error) {
	query := s.qb.Build(`SELECT id, run_id, seq, type, level, room_type, description,
		combat_turns, created_at, scheduled_for, delivered
		FROM events
		WHERE delivered = FALSE AND scheduled_for <= ?
		ORDER BY scheduled_for, id`)

	rows, err := s.db.QueryContext(ctx, query, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query due events: %w", err)
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		var ev event.Event
		var evType string
		if err := rows.Scan(&ev.ID, &ev.RunID, &ev.Seq, &evType, &ev.Level, &ev.RoomType,
			&ev.Description, &ev.CombatTurns,
			&ev.CreatedAt, &ev.ScheduledFor, &ev.Delivered,
		); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		ev.Type = event.Type(evType)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// MarkDelivered flips the delivered flag for the given event ids.
// Implements event.Store.
func (s *Store) MarkDelivered(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	query := s.qb.Build(fmt.Sprintf(
		`UPDATE events SET delivered = TRUE WHERE id IN (%s)`,
		strings.Join(placeholders, ", ")))

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to mark events delivered: %w", err)
	}
	return nil
}

// EventsForRun returns every event of a run in schedule order,
// delivered or not.
func (s *Store) EventsForRun(ctx context.Context, runID string) ([]event.Event, error) {
	query := s.qb.Build(`SELECT id, run_id, seq, type, level, room_type, description,
		combat_turns, created_at, scheduled_for, delivered
		FROM events WHERE run_id = ?
		ORDER BY seq`)

	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run events: %w", err)
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		var ev event.Event
		var evType string
		if err := rows.Scan(&ev.ID, &ev.RunID, &ev.Seq, &evType, &ev.Level, &ev.RoomType,
			&ev.Description, &ev.CombatTurns,
			&ev.CreatedAt, &ev.ScheduledFor, &ev.Delivered,
		); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		ev.Type = event.Type(evType)
		events = append(events, ev)
	}
	return events, rows.Err()
}
