package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/in-nis/smartschedule-back/internal/config"
)

const jobBudget = time.Minute

type Sweeper interface {
	Sweep(ctx context.Context, idle time.Duration) (int, error)
}

type Pruner interface {
	PruneGenerations(ctx context.Context, olderThan time.Time) (int64, error)
}

// StartJobs schedules workspace cleanup and history retention. pruner may be
// nil.
func StartJobs(cfg *config.Config, sweeper Sweeper, pruner Pruner) *cron.Cron {
	c := cron.New()

	if _, err := c.AddFunc("@every 15m", func() {
		SweepWorkspaces(context.Background(), sweeper, cfg.WorkspaceIdleTTL)
	}); err != nil {
		slog.Error("failed to schedule workspace sweep", "error", err)
	}

	if pruner != nil && cfg.HistoryRetentionDays > 0 {
		retention := time.Duration(cfg.HistoryRetentionDays) * 24 * time.Hour
		if _, err := c.AddFunc("@daily", func() {
			PruneHistory(context.Background(), pruner, time.Now().Add(-retention))
		}); err != nil {
			slog.Error("failed to schedule history prune", "error", err)
		}
	}

	c.Start()
	return c
}

func SweepWorkspaces(ctx context.Context, s Sweeper, idle time.Duration) int {
	ctx, cancel := context.WithTimeout(ctx, jobBudget)
	defer cancel()

	n, err := s.Sweep(ctx, idle)
	if err != nil {
		slog.Error("workspace sweep failed", "error", err)
		return 0
	}
	if n > 0 {
		slog.Info("dropped idle workspaces", "count", n)
	}
	return n
}

func PruneHistory(ctx context.Context, p Pruner, olderThan time.Time) int64 {
	ctx, cancel := context.WithTimeout(ctx, jobBudget)
	defer cancel()

	n, err := p.PruneGenerations(ctx, olderThan)
	if err != nil {
		slog.Error("history prune failed", "error", err)
		return 0
	}
	slog.Info("pruned generation history", "count", n, "older_than", olderThan)
	return n
}
