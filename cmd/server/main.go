package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/in-nis/smartschedule-back/internal/ai"
	"github.com/in-nis/smartschedule-back/internal/api"
	"github.com/in-nis/smartschedule-back/internal/auth"
	"github.com/in-nis/smartschedule-back/internal/config"
	"github.com/in-nis/smartschedule-back/internal/cron"
	"github.com/in-nis/smartschedule-back/internal/db"
	"github.com/in-nis/smartschedule-back/internal/planner"
	"github.com/in-nis/smartschedule-back/internal/workspace"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file found, using system env")
	}

	cfg := config.Load()
	ctx := context.Background()

	storage, err := db.Open(cfg.DBDriver, cfg.DBUrl)
	if err != nil {
		slog.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer storage.Close()

	store := openStore(ctx, cfg)

	scheduler, err := ai.FromConfig(ctx, cfg)
	if err != nil {
		slog.Error("failed to set up AI scheduler", "error", err)
		os.Exit(1)
	}

	orch := planner.New(store, scheduler, storage, planner.Options{
		Timeout:        cfg.GenerationTimeout,
		StaleBusyAfter: cfg.StaleBusyAfter,
		ClearOnFailure: cfg.ClearScheduleOnFailure,
	})

	r := api.SetupRouter(api.Deps{
		Auth:    auth.NewService(cfg, storage),
		Store:   store,
		Planner: orch,
		DB:      storage,
		History: storage,
	})

	// Start cron jobs
	jobs := cron.StartJobs(cfg, store, storage)
	defer jobs.Stop()

	slog.Info("Server running", "port", cfg.Port, "scheduler", scheduler.Name())
	if err := r.Run(":" + cfg.Port); err != nil {
		slog.Error("server stopped", "error", err)
	}
}

// openStore uses Redis when REDIS_ADDR is reachable and keeps workspaces in
// memory otherwise.
func openStore(ctx context.Context, cfg *config.Config) workspace.Store {
	if cfg.RedisAddr == "" {
		slog.Warn("REDIS_ADDR not set, keeping workspaces in memory")
		return workspace.NewMemory()
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Error("failed to connect to Redis, keeping workspaces in memory", "error", err)
		_ = rdb.Close()
		return workspace.NewMemory()
	}

	slog.Info("connected to Redis", "addr", cfg.RedisAddr)
	return workspace.NewRedis(rdb, cfg.WorkspaceIdleTTL)
}
