package event

import (
	"context"
	"fmt"
	"time"
)

// Store is the narrow persistence contract the scheduler and deliverer
// consume.
type Store interface {
	// InsertScheduledEvents persists a batch of events with their
	// delivery timestamps assigned.
	InsertScheduledEvents(ctx context.Context, events []Event) error

	// DueEvents returns undelivered events whose scheduled timestamp
	// is at or before now, in schedule order.
	DueEvents(ctx context.Context, now time.Time) ([]Event, error)

	// MarkDelivered flips the delivered flag for the given event ids.
	MarkDelivered(ctx context.Context, ids []int64) error
}

// Scheduler assigns delivery timestamps to fully-computed event lists.
// Computation is effectively instantaneous; the schedule spreads the
// reveal over wall-clock time so a run feels like it unfolds.
type Scheduler struct {
	store    Store
	interval time.Duration
	now      func() time.Time
}

// NewScheduler creates a scheduler writing through the given store.
// interval is the wall-clock gap between consecutive events; zero or
// negative falls back to 6 seconds.
func NewScheduler(store Store, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 6 * time.Second
	}
	return &Scheduler{
		store:    store,
		interval: interval,
		now:      time.Now,
	}
}

// Schedule assigns each event its stream position and a delivery
// timestamp starting at now and stepping by the configured interval,
// preserving list order, then persists the batch. Positions repeat
// across redeliveries, so the store can treat the batch as an upsert.
func (s *Scheduler) Schedule(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}

	start := s.now()
	for i := range events {
		events[i].Seq = i
		events[i].ScheduledFor = start.Add(time.Duration(i) * s.interval)
		events[i].Delivered = false
		if events[i].CreatedAt.IsZero() {
			events[i].CreatedAt = start
		}
	}

	if err := s.store.InsertScheduledEvents(ctx, events); err != nil {
		return fmt.Errorf("insert scheduled events: %w", err)
	}
	return nil
}
