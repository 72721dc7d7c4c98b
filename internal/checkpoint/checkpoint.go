// Package checkpoint snapshots in-flight run progress to Redis so an
// operator can see where a run is. Checkpoints are advisory: runs are
// replayed from their seed, never resumed from a snapshot.
package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/duskhall/delve/internal/character"
)

// ErrNotFound is returned when no checkpoint exists for a run.
var ErrNotFound = errors.New("checkpoint not found")

// DefaultTTL is how long a checkpoint survives without being refreshed.
const DefaultTTL = 10 * time.Minute

// Checkpoint is one progress snapshot, written after each level.
type Checkpoint struct {
	RunID     string                 `json:"runId"`
	DungeonID string                 `json:"dungeonId"`
	Level     int                    `json:"level"`
	TotalXP   int                    `json:"totalXp"`
	Party     []*character.Character `json:"party"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

// Store writes checkpoints to Redis with a TTL.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// New creates a checkpoint store. A non-positive ttl falls back to
// DefaultTTL.
func New(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{rdb: rdb, ttl: ttl}
}

func key(runID string) string {
	return "checkpoint:" + runID
}

// Save writes the checkpoint, resetting its TTL.
func (s *Store) Save(ctx context.Context, cp Checkpoint) error {
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}
	if err := s.rdb.Set(ctx, key(cp.RunID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save checkpoint for run %s: %w", cp.RunID, err)
	}
	return nil
}

// Load reads the checkpoint for a run, or ErrNotFound if it expired
// or was never written.
func (s *Store) Load(ctx context.Context, runID string) (*Checkpoint, error) {
	data, err := s.rdb.Get(ctx, key(runID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint for run %s: %w", runID, err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint: %w", err)
	}
	return &cp, nil
}

// Delete removes the checkpoint once a run has fully resolved.
func (s *Store) Delete(ctx context.Context, runID string) error {
	if err := s.rdb.Del(ctx, key(runID)).Err(); err != nil {
		return fmt.Errorf("failed to delete checkpoint for run %s: %w", runID, err)
	}
	return nil
}
