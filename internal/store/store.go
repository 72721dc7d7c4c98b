// Package store provides SQL persistence for characters, dungeons,
// run logs, inventory, and the scheduled event queue. It supports both
// SQLite (embedded, default) and PostgreSQL behind a shared Dialect.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Config holds database connection configuration.
type Config struct {
	// Driver specifies which database to use: "sqlite" or "postgres"
	Driver string

	// SQLite configuration
	SQLitePath string

	// PostgreSQL configuration. PostgresDSN, when set, takes
	// precedence over the structured fields.
	PostgresDSN string
	Postgres    PostgresConfig
}

// PostgresConfig holds PostgreSQL-specific configuration.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultConfig returns a Config with sensible defaults for SQLite.
func DefaultConfig(sqlitePath string) Config {
	return Config{
		Driver:     "sqlite",
		SQLitePath: sqlitePath,
	}
}

// DefaultPostgresConfig returns PostgresConfig with recommended pool settings.
func DefaultPostgresConfig() PostgresConfig {
	return PostgresConfig{
		Host:            "localhost",
		Port:            5432,
		SSLMode:         "disable",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

// ConnString returns the lib/pq connection string for the config.
func (p PostgresConfig) ConnString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode)
}

// Store wraps the database connection and provides persistence operations.
type Store struct {
	db      *sql.DB
	dialect Dialect
	qb      *QueryBuilder
}

// Open opens a database per the config and runs migrations.
func Open(cfg Config) (*Store, error) {
	dialect := NewDialect(DialectType(cfg.Driver))

	var dsn string
	switch dialect.(type) {
	case *PostgresDialect:
		dsn = cfg.PostgresDSN
		if dsn == "" {
			dsn = cfg.Postgres.ConnString()
		}
	default:
		// Ensure directory exists
		dir := filepath.Dir(cfg.SQLitePath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = cfg.SQLitePath
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, ok := dialect.(*PostgresDialect); ok {
		if cfg.Postgres.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
		}
		if cfg.Postgres.MaxIdleConns > 0 {
			db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
		}
		if cfg.Postgres.ConnMaxLifetime > 0 {
			db.SetConnMaxLifetime(cfg.Postgres.ConnMaxLifetime)
		}
	}

	for _, stmt := range dialect.InitStatements() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run init statement: %w", err)
		}
	}

	s := &Store{db: db, dialect: dialect, qb: NewQueryBuilder(dialect)}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	for _, stmt := range s.dialect.CreateTableStatements() {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// schemaStatements returns the shared schema with the dialect's
// auto-increment primary key column definition substituted in.
func schemaStatements(idColumn string) []string {
	return []string{
		// Characters table, one row per token identity
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS characters (
			id %s,
			chain TEXT NOT NULL,
			contract TEXT NOT NULL,
			token_id TEXT NOT NULL,
			wallet TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL,
			class TEXT NOT NULL DEFAULT 'warrior',
			level INTEGER NOT NULL DEFAULT 1,
			experience INTEGER NOT NULL DEFAULT 0,
			health INTEGER NOT NULL DEFAULT 10,
			max_health INTEGER NOT NULL DEFAULT 10,
			mana INTEGER NOT NULL DEFAULT 0,
			max_mana INTEGER NOT NULL DEFAULT 0,
			strength INTEGER NOT NULL DEFAULT 10,
			dexterity INTEGER NOT NULL DEFAULT 10,
			constitution INTEGER NOT NULL DEFAULT 10,
			intelligence INTEGER NOT NULL DEFAULT 10,
			wisdom INTEGER NOT NULL DEFAULT 10,
			charisma INTEGER NOT NULL DEFAULT 10,
			perception_proficient BOOLEAN NOT NULL DEFAULT FALSE,
			disarm_proficient BOOLEAN NOT NULL DEFAULT FALSE,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (chain, contract, token_id)
		)`, idColumn),

		// Dungeon definitions
		`CREATE TABLE IF NOT EXISTS dungeons (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			seed TEXT NOT NULL,
			depth INTEGER NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		// One row per completed (or failed) expedition
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS run_logs (
			id %s,
			run_id TEXT UNIQUE NOT NULL,
			dungeon_id TEXT NOT NULL,
			seed TEXT NOT NULL,
			status TEXT NOT NULL,
			levels_completed INTEGER NOT NULL DEFAULT 0,
			total_xp INTEGER NOT NULL DEFAULT 0,
			party TEXT NOT NULL DEFAULT '[]',
			started_at TIMESTAMP,
			finished_at TIMESTAMP
		)`, idColumn),

		// Scheduled event queue, drained by the deliverer. The (run_id,
		// seq) key makes redelivered jobs overwrite-safe: a recomputed
		// run inserts the same stream positions, not duplicates.
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS events (
			id %s,
			run_id TEXT NOT NULL,
			seq INTEGER NOT NULL DEFAULT 0,
			type TEXT NOT NULL,
			level INTEGER NOT NULL DEFAULT 0,
			room_type TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			combat_turns INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP,
			scheduled_for TIMESTAMP,
			delivered BOOLEAN NOT NULL DEFAULT FALSE,
			UNIQUE (run_id, seq)
		)`, idColumn),

		`CREATE INDEX IF NOT EXISTS idx_events_due
			ON events (delivered, scheduled_for)`,

		// Loot credited to a character identity
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS inventory (
			id %s,
			chain TEXT NOT NULL,
			contract TEXT NOT NULL,
			token_id TEXT NOT NULL,
			item_id TEXT NOT NULL,
			name TEXT NOT NULL,
			tier INTEGER NOT NULL DEFAULT 1,
			value INTEGER NOT NULL DEFAULT 0,
			run_id TEXT NOT NULL DEFAULT '',
			acquired_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (run_id, chain, contract, token_id, item_id)
		)`, idColumn),
	}
}
