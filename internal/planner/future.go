package planner

import (
	"context"

	"github.com/in-nis/smartschedule-back/internal/models"
)

// Future is the pending outcome of one generate cycle.
type Future struct {
	done chan struct{}
	ws   models.Workspace
	err  error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) resolve(ws models.Workspace, err error) {
	f.ws, f.err = ws, err
	close(f.done)
}

// Done is closed once the workspace has been updated with the outcome.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the cycle finishes or ctx is done. Giving up on ctx does
// not stop the cycle.
func (f *Future) Wait(ctx context.Context) (models.Workspace, error) {
	select {
	case <-f.done:
		return f.ws, f.err
	case <-ctx.Done():
		return models.Workspace{}, ctx.Err()
	}
}
