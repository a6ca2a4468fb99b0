// Package planner runs the generate cycle of a workspace: validate the
// course list, call the scheduling service once, then record either the new
// schedule or the error notice. The busy flag is released on every path.
package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/in-nis/smartschedule-back/internal/ai"
	"github.com/in-nis/smartschedule-back/internal/models"
	"github.com/in-nis/smartschedule-back/internal/workspace"
)

const (
	msgTimedOut  = "The AI service did not answer in time. Please try again."
	finishBudget = 10 * time.Second

	finishAttempts = 3
)

var finishRetryDelay = 200 * time.Millisecond

// History archives successful generations. It may be nil.
type History interface {
	SaveGeneration(ctx context.Context, rec *models.GenerationRecord) error
}

type Options struct {
	// Timeout bounds the external call. Zero means no local timeout.
	Timeout time.Duration
	// StaleBusyAfter lets a new request take over a busy flag left behind by
	// a crashed process. Zero disables takeover.
	StaleBusyAfter time.Duration
	// ClearOnFailure drops the previous schedule when a regeneration fails.
	ClearOnFailure bool
}

type Orchestrator struct {
	store     workspace.Store
	scheduler ai.Scheduler
	history   History
	opts      Options
	now       func() time.Time
}

func New(store workspace.Store, scheduler ai.Scheduler, history History, opts Options) *Orchestrator {
	return &Orchestrator{
		store:     store,
		scheduler: scheduler,
		history:   history,
		opts:      opts,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Generate runs one full cycle and waits for it.
func (o *Orchestrator) Generate(ctx context.Context, id string) (models.Workspace, error) {
	fut, err := o.Start(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNoCourses) {
			ws, gerr := o.store.Get(ctx, id)
			if gerr != nil {
				return models.Workspace{}, gerr
			}
			return ws, err
		}
		return models.Workspace{}, err
	}
	return fut.Wait(ctx)
}

// Start validates the workspace and, when it has courses, marks it busy and
// launches the external call in the background. The call is detached from
// ctx cancellation so a dropped client does not abort it.
func (o *Orchestrator) Start(ctx context.Context, id string) (*Future, error) {
	var (
		rejected bool
		courses  []models.Course
		prefs    models.SchedulePreferences
	)

	_, err := o.store.Update(ctx, id, func(w *models.Workspace) error {
		if w.Busy && !o.stale(w) {
			return ErrGenerationInFlight
		}

		w.Phase = models.PhaseValidating
		if len(w.Courses) == 0 {
			w.SetError(MsgNoCourses)
			w.Phase = models.PhaseIdle
			rejected = true
			return nil
		}

		now := o.now()
		w.ClearError()
		w.Busy = true
		w.BusySince = &now
		w.Phase = models.PhasePending
		courses = models.CloneCourses(w.Courses)
		prefs = w.Preferences
		rejected = false
		return nil
	})
	if err != nil {
		return nil, err
	}
	if rejected {
		slog.Info("generation rejected: no courses", "workspace", id)
		return nil, ErrNoCourses
	}

	slog.Info("generation started", "workspace", id, "courses", len(courses), "provider", o.scheduler.Name())
	fut := newFuture()
	go o.run(context.WithoutCancel(ctx), id, courses, prefs, fut)
	return fut, nil
}

func (o *Orchestrator) stale(w *models.Workspace) bool {
	if o.opts.StaleBusyAfter <= 0 || w.BusySince == nil {
		return false
	}
	return o.now().Sub(*w.BusySince) > o.opts.StaleBusyAfter
}

func (o *Orchestrator) run(ctx context.Context, id string, courses []models.Course, prefs models.SchedulePreferences, fut *Future) {
	started := o.now()
	res, callErr := o.call(ctx, courses, prefs)

	ws, err := o.finish(id, res, callErr)
	if err == nil {
		err = callErr
	}

	if callErr != nil {
		slog.Warn("generation failed", "workspace", id, "error", callErr, "took", o.now().Sub(started))
	} else {
		slog.Info("generation succeeded", "workspace", id, "sessions", len(res.Sessions), "took", o.now().Sub(started))
		o.archive(ctx, id, courses, prefs, res)
	}
	fut.resolve(ws, err)
}

// call invokes the scheduling service exactly once and normalises every
// failure, including a panic inside the client, into a *ServiceError. The
// timeout is enforced here as well, so a client that ignores ctx cannot hold
// the busy flag.
func (o *Orchestrator) call(ctx context.Context, courses []models.Course, prefs models.SchedulePreferences) (*models.GenerationResult, error) {
	if o.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.Timeout)
		defer cancel()
	}

	type outcome struct {
		res *models.GenerationResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("scheduler panicked", "panic", r)
				done <- outcome{err: &ServiceError{Err: fmt.Errorf("scheduler panic: %v", r)}}
			}
		}()
		res, err := o.scheduler.GenerateSchedule(ctx, courses, prefs)
		done <- outcome{res: res, err: err}
	}()

	var res *models.GenerationResult
	var err error
	select {
	case out := <-done:
		res, err = out.res, out.err
	case <-ctx.Done():
		slog.Warn("scheduler did not return before its deadline, abandoning the call", "provider", o.scheduler.Name())
		err = ctx.Err()
	}

	switch {
	case err == nil && res == nil:
		return nil, &ServiceError{Message: ai.ErrInvalidResponse.Error(), Err: ai.ErrInvalidResponse}
	case err == nil:
		return res, nil
	case errors.Is(err, context.DeadlineExceeded):
		return nil, &ServiceError{Message: msgTimedOut, Err: err}
	default:
		var se *ServiceError
		if errors.As(err, &se) {
			return nil, se
		}
		return nil, &ServiceError{Message: UserMessage(err), Err: err}
	}
}

// finish records the outcome and clears the busy flag. A failed write is
// retried with a fresh budget; if every attempt fails the flag is left for
// stale takeover.
func (o *Orchestrator) finish(id string, res *models.GenerationResult, callErr error) (models.Workspace, error) {
	record := func(w *models.Workspace) error {
		w.Busy = false
		w.BusySince = nil

		if callErr != nil {
			w.SetError(UserMessage(callErr))
			w.Phase = models.PhaseFailed
			if o.opts.ClearOnFailure {
				w.Sessions = []models.ClassSession{}
				w.Summary = ""
			}
			return nil
		}

		w.Sessions = models.CloneSessions(res.Sessions)
		if w.Sessions == nil {
			w.Sessions = []models.ClassSession{}
		}
		w.Summary = res.Summary
		w.ClearError()
		w.Phase = models.PhaseSucceeded
		w.Generation++
		return nil
	}

	var err error
	for attempt := 1; attempt <= finishAttempts; attempt++ {
		var ws models.Workspace
		ws, err = o.update(id, record)
		if err == nil {
			return ws, nil
		}
		slog.Warn("failed to record generation outcome", "workspace", id, "attempt", attempt, "error", err)
		if attempt < finishAttempts {
			time.Sleep(time.Duration(attempt) * finishRetryDelay)
		}
	}
	slog.Error("giving up on recording generation outcome", "workspace", id, "error", err)
	return models.Workspace{}, fmt.Errorf("record generation outcome: %w", err)
}

func (o *Orchestrator) update(id string, fn workspace.UpdateFunc) (models.Workspace, error) {
	ctx, cancel := context.WithTimeout(context.Background(), finishBudget)
	defer cancel()
	return o.store.Update(ctx, id, fn)
}

func (o *Orchestrator) archive(ctx context.Context, id string, courses []models.Course, prefs models.SchedulePreferences, res *models.GenerationResult) {
	if o.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, finishBudget)
	defer cancel()

	rec := &models.GenerationRecord{
		Workspace:   id,
		Provider:    o.scheduler.Name(),
		Courses:     courses,
		Preferences: prefs,
		Sessions:    models.CloneSessions(res.Sessions),
		Summary:     res.Summary,
	}
	if err := o.history.SaveGeneration(ctx, rec); err != nil {
		slog.Error("failed to archive generation", "workspace", id, "error", err)
	}
}
