// Package worker runs the expedition worker pool: N goroutines each
// pulling jobs off the queue, executing them, and scheduling the
// resulting event stream for delivery.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/duskhall/delve/internal/event"
	"github.com/duskhall/delve/internal/logger"
	"github.com/duskhall/delve/internal/queue"
	"github.com/duskhall/delve/internal/run"
)

// DefaultCount is the pool size when none is configured.
const DefaultCount = 4

// dequeueTimeout bounds each blocking pop so shutdown is prompt.
const dequeueTimeout = 5 * time.Second

// Executor runs one expedition. *run.Orchestrator satisfies it.
type Executor interface {
	Execute(ctx context.Context, req run.Request) *run.Result
}

// Pool drains the queue with a fixed number of workers. Each job gets
// fresh party copies and a fresh RNG inside the orchestrator, so
// concurrent runs never share mutable state.
type Pool struct {
	queue     *queue.Queue
	executor  Executor
	scheduler *event.Scheduler
	count     int

	wg sync.WaitGroup
}

// New creates a pool of count workers. A non-positive count falls back
// to DefaultCount.
func New(q *queue.Queue, ex Executor, sched *event.Scheduler, count int) *Pool {
	if count <= 0 {
		count = DefaultCount
	}
	return &Pool{queue: q, executor: ex, scheduler: sched, count: count}
}

// Start launches the workers. They run until ctx is cancelled.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.count; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			p.work(ctx, id)
		}(i)
	}
}

// Wait blocks until every worker has exited.
func (p *Pool) Wait() {
	p.wg.Wait()
}

func (p *Pool) work(ctx context.Context, id int) {
	logger.Info("Worker started", "worker", id)
	for {
		select {
		case <-ctx.Done():
			logger.Info("Worker stopping", "worker", id)
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx, dequeueTimeout)
		if errors.Is(err, queue.ErrEmpty) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("Worker stopping", "worker", id)
				return
			}
			logger.Error("Dequeue failed", "worker", id, "error", err)
			continue
		}

		p.handle(ctx, id, job)
	}
}

// handle executes one job and schedules its events. The orchestrator
// always returns a result, so there is always something to schedule.
func (p *Pool) handle(ctx context.Context, id int, job *queue.Job) {
	logger.Info("Run starting", "worker", id, "run_id", job.RunID, "dungeon", job.DungeonID)

	res := p.executor.Execute(ctx, run.Request{
		RunID:     job.RunID,
		DungeonID: job.DungeonID,
		Seed:      job.Seed,
		Party:     job.Party,
		StartTime: job.StartTime,
	})

	if err := p.scheduler.Schedule(ctx, res.Events); err != nil {
		logger.Error("Event scheduling failed", "worker", id, "run_id", res.RunID, "error", err)
	}

	logger.Info("Run finished", "worker", id, "run_id", res.RunID,
		"status", res.Status, "levels", res.LevelsCompleted, "xp", res.TotalXP)
}
