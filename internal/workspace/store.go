// Package workspace holds the per-user planner state: course list,
// preferences, last generated schedule and the generate request status.
// Every mutation goes through Store.Update so changes to one workspace are
// applied one at a time.
package workspace

import (
	"context"
	"errors"
	"time"

	"github.com/in-nis/smartschedule-back/internal/models"
)

var (
	ErrCourseNotFound  = errors.New("course not found")
	ErrDuplicateCourse = errors.New("duplicate course id")
	ErrConflict        = errors.New("workspace was modified concurrently")
)

// UpdateFunc mutates w in place. Returning an error discards the change.
type UpdateFunc func(w *models.Workspace) error

type Store interface {
	// Get returns a copy of the workspace, creating a fresh one if needed.
	Get(ctx context.Context, id string) (models.Workspace, error)
	// Update applies fn atomically and returns the committed state.
	Update(ctx context.Context, id string, fn UpdateFunc) (models.Workspace, error)
	Delete(ctx context.Context, id string) error
	// Sweep drops workspaces not touched for idle and not generating.
	Sweep(ctx context.Context, idle time.Duration) (int, error)
}

func touch(w *models.Workspace) {
	w.UpdatedAt = time.Now().UTC()
}
