package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/in-nis/smartschedule-back/internal/config"
	"github.com/in-nis/smartschedule-back/internal/workspace"
)

type fakePruner struct {
	cutoff time.Time
	n      int64
	err    error
}

func (f *fakePruner) PruneGenerations(_ context.Context, olderThan time.Time) (int64, error) {
	f.cutoff = olderThan
	return f.n, f.err
}

type failingSweeper struct{}

func (failingSweeper) Sweep(context.Context, time.Duration) (int, error) {
	return 0, errors.New("boom")
}

func TestSweepWorkspaces(t *testing.T) {
	m := workspace.NewMemory()
	_, _ = m.Get(context.Background(), "u")

	// nothing is older than an hour yet
	assert.Equal(t, 0, SweepWorkspaces(context.Background(), m, time.Hour))
	assert.Equal(t, 0, SweepWorkspaces(context.Background(), failingSweeper{}, time.Hour))
}

func TestPruneHistory(t *testing.T) {
	p := &fakePruner{n: 3}
	cutoff := time.Now().Add(-72 * time.Hour)
	assert.EqualValues(t, 3, PruneHistory(context.Background(), p, cutoff))
	assert.True(t, p.cutoff.Equal(cutoff))

	p.err = errors.New("db down")
	assert.EqualValues(t, 0, PruneHistory(context.Background(), p, cutoff))
}

func TestStartJobs(t *testing.T) {
	cfg := &config.Config{WorkspaceIdleTTL: time.Hour, HistoryRetentionDays: 30}

	c := StartJobs(cfg, workspace.NewMemory(), &fakePruner{})
	defer c.Stop()
	assert.Len(t, c.Entries(), 2)

	cfg.HistoryRetentionDays = 0
	c2 := StartJobs(cfg, workspace.NewMemory(), nil)
	defer c2.Stop()
	assert.Len(t, c2.Entries(), 1)
}
