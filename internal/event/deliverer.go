package event

import (
	"context"
	"time"

	"github.com/duskhall/delve/internal/logger"
)

// Sink receives events the moment they are delivered. Implementations
// must not block; slow consumers should buffer internally.
type Sink interface {
	Publish(Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

// Publish calls the wrapped function.
func (f SinkFunc) Publish(e Event) { f(e) }

// Deliverer polls the store for events whose scheduled timestamp has
// passed, marks them delivered exactly once, and fans them out to
// sinks. Delivery is a property of wall-clock time, not of any
// observer being connected.
type Deliverer struct {
	store Store
	poll  time.Duration
	sinks []Sink
	now   func() time.Time
}

// NewDeliverer creates a deliverer polling at the given interval.
// Zero or negative falls back to 2 seconds.
func NewDeliverer(store Store, poll time.Duration, sinks ...Sink) *Deliverer {
	if poll <= 0 {
		poll = 2 * time.Second
	}
	return &Deliverer{
		store: store,
		poll:  poll,
		sinks: sinks,
		now:   time.Now,
	}
}

// Run polls until the context is cancelled. Poll failures are logged
// and retried on the next tick; they never stop the loop.
func (d *Deliverer) Run(ctx context.Context) {
	ticker := time.NewTicker(d.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.DeliverDue(ctx); err != nil {
				logger.Error("event delivery poll failed", "error", err)
			}
		}
	}
}

// DeliverDue performs a single poll: fetch due undelivered events,
// mark them delivered, and publish them to every sink.
func (d *Deliverer) DeliverDue(ctx context.Context) error {
	due, err := d.store.DueEvents(ctx, d.now())
	if err != nil {
		return err
	}
	if len(due) == 0 {
		return nil
	}

	ids := make([]int64, len(due))
	for i, e := range due {
		ids[i] = e.ID
	}

	// Mark before publishing so a sink crash can't double-deliver.
	if err := d.store.MarkDelivered(ctx, ids); err != nil {
		return err
	}

	for _, e := range due {
		e.Delivered = true
		for _, sink := range d.sinks {
			sink.Publish(e)
		}
	}

	logger.Debug("delivered events", "count", len(due))
	return nil
}
