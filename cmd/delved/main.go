// Command delved is the expedition worker daemon: it drains the Redis
// run queue, simulates each expedition, and schedules the resulting
// event streams for timed delivery over the log and WebSocket feed.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/duskhall/delve/internal/checkpoint"
	"github.com/duskhall/delve/internal/config"
	"github.com/duskhall/delve/internal/event"
	"github.com/duskhall/delve/internal/feed"
	"github.com/duskhall/delve/internal/logger"
	"github.com/duskhall/delve/internal/monster"
	"github.com/duskhall/delve/internal/queue"
	"github.com/duskhall/delve/internal/run"
	"github.com/duskhall/delve/internal/store"
	"github.com/duskhall/delve/internal/worker"
)

func main() {
	simConfigFile := flag.String("config", "data/sim.yaml", "Path to simulation config YAML file")
	loggingConfig := flag.String("logging", "data/logging.yaml", "Path to logging config YAML file")
	monstersFile := flag.String("monsters", "data/monsters.yaml", "Path to monster templates YAML file")
	flag.Parse()

	// Initialize logger first (before any logging)
	logConfig, _ := logger.LoadConfig(*loggingConfig)
	logger.Initialize(logConfig)

	logger.Info("Starting Delve worker daemon")

	env, err := config.LoadEnv()
	if err != nil {
		log.Fatalf("Failed to load environment: %v", err)
	}

	simCfg, err := config.LoadConfig(*simConfigFile)
	if err != nil {
		logger.Warning("Simulation config not loaded, using defaults",
			"path", *simConfigFile, "error", err)
		simCfg = config.DefaultConfig()
	}

	st, err := openStore(env)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()
	logger.Info("Store opened", "driver", env.DatabaseDriver)

	rdb := redis.NewClient(&redis.Options{Addr: env.RedisAddr})
	defer rdb.Close()
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Failed to reach Redis at %s: %v", env.RedisAddr, err)
	}
	logger.Info("Redis connected", "addr", env.RedisAddr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lib, err := monster.LoadLibrary(*monstersFile)
	if err != nil {
		log.Fatalf("Failed to load monster library: %v", err)
	}

	orch := run.New(st, checkpoint.New(rdb, simCfg.Run.CheckpointTTL), simCfg).
		WithMonsterLibrary(lib)

	sinks := []event.Sink{
		event.SinkFunc(func(ev event.Event) {
			logger.Info("Event delivered", "run_id", ev.RunID,
				"type", string(ev.Type), "level", ev.Level, "description", ev.Description)
		}),
	}

	if env.FeedAddr != "" {
		hub := feed.NewHub()
		sinks = append(sinks, hub)
		go func() {
			if err := hub.Serve(ctx, env.FeedAddr); err != nil {
				logger.Error("Event feed failed", "error", err)
			}
		}()
	}

	deliverer := event.NewDeliverer(st, simCfg.Scheduler.PollInterval, sinks...)
	go deliverer.Run(ctx)

	pool := worker.New(
		queue.New(rdb, env.QueueKey),
		orch,
		event.NewScheduler(st, simCfg.Scheduler.EventInterval),
		env.Workers,
	)
	pool.Start(ctx)

	logger.Info("Worker pool running", "workers", env.Workers, "queue", env.QueueKey)
	logger.Info("Press Ctrl+C to shutdown")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down")
	cancel()
	pool.Wait()
	logger.Info("Daemon stopped")
}

func openStore(env config.Env) (*store.Store, error) {
	cfg := store.Config{Driver: env.DatabaseDriver}
	switch env.DatabaseDriver {
	case "postgres":
		cfg.PostgresDSN = env.DatabaseDSN
		cfg.Postgres = store.DefaultPostgresConfig()
	default:
		cfg.SQLitePath = env.DatabaseDSN
	}
	return store.Open(cfg)
}
