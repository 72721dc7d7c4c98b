// Package queue is the Redis work queue feeding expedition jobs to the
// worker pool. Producers LPUSH serialized jobs; workers BRPOP them.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/duskhall/delve/internal/character"
)

// DefaultKey is the Redis list the queue lives on.
const DefaultKey = "delve:runs"

// ErrEmpty is returned by Dequeue when the blocking pop times out
// without a job.
var ErrEmpty = errors.New("queue empty")

// Job is one requested expedition.
type Job struct {
	RunID     string               `json:"runId"`
	DungeonID string               `json:"dungeonId"`
	Seed      string               `json:"seed"`
	Party     []character.Identity `json:"party"`
	StartTime time.Time            `json:"startTime"`
}

// Queue wraps the Redis list operations.
type Queue struct {
	rdb *redis.Client
	key string
}

// New creates a queue on the given Redis list. An empty key falls back
// to DefaultKey.
func New(rdb *redis.Client, key string) *Queue {
	if key == "" {
		key = DefaultKey
	}
	return &Queue{rdb: rdb, key: key}
}

// Enqueue pushes a job onto the queue. A job without a RunID is
// assigned a fresh UUID; the assigned job is returned.
func (q *Queue) Enqueue(ctx context.Context, job Job) (Job, error) {
	if job.RunID == "" {
		job.RunID = uuid.NewString()
	}
	if job.StartTime.IsZero() {
		job.StartTime = time.Now().UTC()
	}

	data, err := json.Marshal(job)
	if err != nil {
		return job, fmt.Errorf("failed to marshal job: %w", err)
	}
	if err := q.rdb.LPush(ctx, q.key, data).Err(); err != nil {
		return job, fmt.Errorf("failed to enqueue run %s: %w", job.RunID, err)
	}
	return job, nil
}

// Dequeue blocks up to timeout for the next job. Returns ErrEmpty on
// timeout so callers can loop without treating it as a failure.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	res, err := q.rdb.BRPop(ctx, timeout, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("failed to dequeue job: %w", err)
	}
	// BRPop returns [key, value].
	if len(res) != 2 {
		return nil, fmt.Errorf("unexpected BRPOP reply length %d", len(res))
	}

	var job Job
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	return &job, nil
}

// Len returns the number of queued jobs.
func (q *Queue) Len(ctx context.Context) (int64, error) {
	n, err := q.rdb.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read queue length: %w", err)
	}
	return n, nil
}
