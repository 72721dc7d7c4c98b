package event

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeStore is an in-memory Store for scheduler/deliverer tests.
type fakeStore struct {
	events    []Event
	nextID    int64
	insertErr error
}

func (f *fakeStore) InsertScheduledEvents(ctx context.Context, events []Event) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	for _, e := range events {
		f.nextID++
		e.ID = f.nextID
		f.events = append(f.events, e)
	}
	return nil
}

func (f *fakeStore) DueEvents(ctx context.Context, now time.Time) ([]Event, error) {
	var due []Event
	for _, e := range f.events {
		if !e.Delivered && !e.ScheduledFor.After(now) {
			due = append(due, e)
		}
	}
	return due, nil
}

func (f *fakeStore) MarkDelivered(ctx context.Context, ids []int64) error {
	for _, id := range ids {
		for i := range f.events {
			if f.events[i].ID == id {
				f.events[i].Delivered = true
			}
		}
	}
	return nil
}

func TestScheduleAssignsInterval(t *testing.T) {
	store := &fakeStore{}
	s := NewScheduler(store, 6*time.Second)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	events := []Event{
		{RunID: "r1", Type: TypeRoomEnter, Level: 1},
		{RunID: "r1", Type: TypeCombatVictory, Level: 1},
		{RunID: "r1", Type: TypeRoomExplored, Level: 1},
	}
	if err := s.Schedule(context.Background(), events); err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	for i, e := range store.events {
		want := base.Add(time.Duration(i) * 6 * time.Second)
		if !e.ScheduledFor.Equal(want) {
			t.Errorf("event %d scheduled for %v, want %v", i, e.ScheduledFor, want)
		}
		if e.Seq != i {
			t.Errorf("event %d has stream position %d, want %d", i, e.Seq, i)
		}
		if e.Delivered {
			t.Errorf("event %d inserted as delivered", i)
		}
	}
}

func TestScheduleEmptyList(t *testing.T) {
	store := &fakeStore{}
	s := NewScheduler(store, time.Second)
	if err := s.Schedule(context.Background(), nil); err != nil {
		t.Fatalf("Schedule(nil): %v", err)
	}
	if len(store.events) != 0 {
		t.Errorf("stored %d events, want 0", len(store.events))
	}
}

func TestScheduleWrapsStoreError(t *testing.T) {
	wantErr := errors.New("db down")
	s := NewScheduler(&fakeStore{insertErr: wantErr}, time.Second)
	err := s.Schedule(context.Background(), []Event{{RunID: "r1", Type: TypeError}})
	if !errors.Is(err, wantErr) {
		t.Errorf("Schedule error = %v, want wrapped %v", err, wantErr)
	}
}

func TestDeliverDueMarksExactlyOnce(t *testing.T) {
	store := &fakeStore{}
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	s := NewScheduler(store, 10*time.Second)
	s.now = func() time.Time { return base }
	err := s.Schedule(context.Background(), []Event{
		{RunID: "r1", Type: TypeRoomEnter},
		{RunID: "r1", Type: TypeTrapTriggered},
		{RunID: "r1", Type: TypeRoomExplored},
	})
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	var published []Event
	d := NewDeliverer(store, time.Second, SinkFunc(func(e Event) {
		published = append(published, e)
	}))

	// First two events are due 15s in; the third is not.
	d.now = func() time.Time { return base.Add(15 * time.Second) }
	if err := d.DeliverDue(context.Background()); err != nil {
		t.Fatalf("DeliverDue: %v", err)
	}
	if len(published) != 2 {
		t.Fatalf("published %d events, want 2", len(published))
	}
	for _, e := range published {
		if !e.Delivered {
			t.Errorf("published event %d not flagged delivered", e.ID)
		}
	}

	// Second poll at the same instant finds nothing new.
	if err := d.DeliverDue(context.Background()); err != nil {
		t.Fatalf("DeliverDue (second): %v", err)
	}
	if len(published) != 2 {
		t.Errorf("published %d events after re-poll, want 2", len(published))
	}

	// The final event arrives once its timestamp passes.
	d.now = func() time.Time { return base.Add(25 * time.Second) }
	if err := d.DeliverDue(context.Background()); err != nil {
		t.Fatalf("DeliverDue (third): %v", err)
	}
	if len(published) != 3 {
		t.Errorf("published %d events, want 3", len(published))
	}
}

func TestTypeIsValid(t *testing.T) {
	valid := []Type{
		TypeRoomEnter, TypeRoomEmpty, TypeCombatVictory, TypeCombatDefeat,
		TypeCombatSkipped, TypeTrapDisarmed, TypeTrapTriggered,
		TypeTreasureFound, TypeRest, TypeRoomExplored, TypePartyWipe, TypeError,
	}
	for _, v := range valid {
		if !v.IsValid() {
			t.Errorf("Type(%q).IsValid() = false", v)
		}
	}
	if Type("level_up").IsValid() {
		t.Error(`Type("level_up").IsValid() = true`)
	}
}
