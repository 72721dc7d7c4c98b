// Package config holds tuning and deployment configuration for the
// expedition simulator.
package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// SimConfig holds gameplay tuning settings loaded from YAML.
type SimConfig struct {
	Combat    CombatConfig    `yaml:"combat"`
	Trap      TrapConfig      `yaml:"trap"`
	Run       RunConfig       `yaml:"run"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// CombatConfig tunes the combat engine.
type CombatConfig struct {
	// MageMagicRatio is the probability a mage casts instead of swinging.
	MageMagicRatio float64 `yaml:"mage_magic_ratio"`

	// ClericHealRatio is the probability a cleric heals instead of swinging.
	ClericHealRatio float64 `yaml:"cleric_heal_ratio"`

	// MaxTurns caps a single combat; hitting it counts as a defeat.
	MaxTurns int `yaml:"max_turns"`

	// Timeout bounds a single combat resolution.
	Timeout time.Duration `yaml:"timeout"`
}

// TrapConfig tunes the trap engine.
type TrapConfig struct {
	// RequireAll makes every member pass a check instead of any one.
	RequireAll bool `yaml:"require_all"`

	// StrengthDisarmChance is the chance a mechanical trap takes a
	// strength check to disarm instead of dexterity.
	StrengthDisarmChance float64 `yaml:"strength_disarm_chance"`
}

// RunConfig tunes the run orchestrator.
type RunConfig struct {
	// LevelCap bounds how deep a run may go regardless of dungeon depth.
	LevelCap int `yaml:"level_cap"`

	// RoomTimeout bounds a single room's resolution.
	RoomTimeout time.Duration `yaml:"room_timeout"`

	// PersistTimeout bounds the final batched persistence phase.
	PersistTimeout time.Duration `yaml:"persist_timeout"`

	// CheckpointTTL bounds how long an advisory checkpoint survives.
	CheckpointTTL time.Duration `yaml:"checkpoint_ttl"`
}

// SchedulerConfig tunes event scheduling and delivery.
type SchedulerConfig struct {
	// EventInterval is the wall-clock gap between revealed events.
	EventInterval time.Duration `yaml:"event_interval"`

	// PollInterval is how often the deliverer checks for due events.
	PollInterval time.Duration `yaml:"poll_interval"`
}

// DefaultConfig returns a SimConfig with balanced defaults.
func DefaultConfig() *SimConfig {
	return &SimConfig{
		Combat: CombatConfig{
			MageMagicRatio:  0.7,
			ClericHealRatio: 0.4,
			MaxTurns:        1000,
			Timeout:         30 * time.Second,
		},
		Trap: TrapConfig{
			RequireAll:           false,
			StrengthDisarmChance: 0.25,
		},
		Run: RunConfig{
			LevelCap:       100,
			RoomTimeout:    time.Minute,
			PersistTimeout: 30 * time.Second,
			CheckpointTTL:  time.Hour,
		},
		Scheduler: SchedulerConfig{
			EventInterval: 6 * time.Second,
			PollInterval:  2 * time.Second,
		},
	}
}

// LoadConfig loads simulation configuration from a YAML file.
// If the file doesn't exist, returns default config.
func LoadConfig(path string) (*SimConfig, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return config, err
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return DefaultConfig(), err
	}

	return config, nil
}

// Env holds deployment settings read from the environment.
type Env struct {
	// DatabaseDriver selects the store dialect: "sqlite" or "postgres".
	DatabaseDriver string `env:"DELVE_DB_DRIVER" envDefault:"sqlite"`

	// DatabaseDSN is the driver-specific connection string.
	DatabaseDSN string `env:"DELVE_DB_DSN" envDefault:"data/delve.db"`

	// RedisAddr is the host:port of the Redis used for the work queue
	// and the checkpoint store.
	RedisAddr string `env:"DELVE_REDIS_ADDR" envDefault:"localhost:6379"`

	// QueueKey is the Redis list the worker pool consumes.
	QueueKey string `env:"DELVE_QUEUE_KEY" envDefault:"delve:runs"`

	// Workers is the number of concurrent run workers.
	Workers int `env:"DELVE_WORKERS" envDefault:"4"`

	// FeedAddr is the listen address of the live event feed.
	// Empty disables the feed.
	FeedAddr string `env:"DELVE_FEED_ADDR" envDefault:""`
}

// LoadEnv parses deployment settings from process environment.
func LoadEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, err
	}
	return e, nil
}
