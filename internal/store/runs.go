package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/duskhall/delve/internal/character"
)

// RunLog is the persistent summary of one expedition.
type RunLog struct {
	RunID           string              `json:"runId"`
	DungeonID       string              `json:"dungeonId"`
	Seed            string              `json:"seed"`
	Status          string              `json:"status"`
	LevelsCompleted int                 `json:"levelsCompleted"`
	TotalXP         int                 `json:"totalXp"`
	Party           []character.Identity `json:"party"`
	StartedAt       time.Time           `json:"startedAt"`
	FinishedAt      time.Time           `json:"finishedAt"`
}

// InsertRunLog records a finished expedition. The row is keyed by
// run_id and upserted, so a redelivered job rewrites its own summary
// instead of failing on the unique constraint.
func (s *Store) InsertRunLog(ctx context.Context, log RunLog) error {
	party, err := json.Marshal(log.Party)
	if err != nil {
		return fmt.Errorf("failed to marshal run party: %w", err)
	}

	query := s.qb.Build(`INSERT INTO run_logs
		(run_id, dungeon_id, seed, status, levels_completed, total_xp, party, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (run_id) DO UPDATE SET
			dungeon_id = excluded.dungeon_id,
			seed = excluded.seed,
			status = excluded.status,
			levels_completed = excluded.levels_completed,
			total_xp = excluded.total_xp,
			party = excluded.party,
			started_at = excluded.started_at,
			finished_at = excluded.finished_at`)

	_, err = s.db.ExecContext(ctx, query,
		log.RunID, log.DungeonID, log.Seed, log.Status,
		log.LevelsCompleted, log.TotalXP, string(party),
		log.StartedAt.UTC(), log.FinishedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert run log %s: %w", log.RunID, err)
	}
	return nil
}

// RunLogByID loads the summary row for a run.
func (s *Store) RunLogByID(ctx context.Context, runID string) (*RunLog, error) {
	query := s.qb.Build(`SELECT run_id, dungeon_id, seed, status,
		levels_completed, total_xp, party, started_at, finished_at
		FROM run_logs WHERE run_id = ?`)

	var log RunLog
	var party string
	err := s.db.QueryRowContext(ctx, query, runID).Scan(
		&log.RunID, &log.DungeonID, &log.Seed, &log.Status,
		&log.LevelsCompleted, &log.TotalXP, &party,
		&log.StartedAt, &log.FinishedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run log %s not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run log %s: %w", runID, err)
	}

	if err := json.Unmarshal([]byte(party), &log.Party); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run party: %w", err)
	}
	return &log, nil
}
