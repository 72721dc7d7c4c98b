package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/duskhall/delve/internal/dungeon"
)

// ErrDungeonNotFound is returned when a dungeon lookup fails.
var ErrDungeonNotFound = errors.New("dungeon not found")

// DungeonByID loads a dungeon definition and rebuilds its room layout.
func (s *Store) DungeonByID(ctx context.Context, id string) (*dungeon.Dungeon, error) {
	query := s.qb.Build(`SELECT name, seed, depth FROM dungeons WHERE id = ?`)

	var name, seed string
	var depth int
	err := s.db.QueryRowContext(ctx, query, id).Scan(&name, &seed, &depth)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDungeonNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load dungeon %s: %w", id, err)
	}

	return dungeon.New(id, name, seed, depth), nil
}

// SaveDungeon inserts or replaces a dungeon definition. Rooms are not
// stored; they regenerate deterministically from the seed.
func (s *Store) SaveDungeon(ctx context.Context, d *dungeon.Dungeon) error {
	query := s.qb.Build(`INSERT INTO dungeons (id, name, seed, depth)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			seed = excluded.seed,
			depth = excluded.depth`)

	_, err := s.db.ExecContext(ctx, query, d.ID, d.Name, d.Seed, d.Depth)
	if err != nil {
		return fmt.Errorf("failed to save dungeon %s: %w", d.ID, err)
	}
	return nil
}
