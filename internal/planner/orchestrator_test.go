package planner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/in-nis/smartschedule-back/internal/models"
	"github.com/in-nis/smartschedule-back/internal/workspace"
)

type fakeScheduler struct {
	mu      sync.Mutex
	calls   int
	courses []models.Course
	prefs   models.SchedulePreferences
	// busySeen records the busy flag observed while the call was running.
	busySeen bool

	store   workspace.Store
	release chan struct{}
	result  *models.GenerationResult
	err     error
	panicV  any
}

func (f *fakeScheduler) Name() string { return "fake" }

func (f *fakeScheduler) GenerateSchedule(ctx context.Context, courses []models.Course, prefs models.SchedulePreferences) (*models.GenerationResult, error) {
	f.mu.Lock()
	f.calls++
	f.courses = courses
	f.prefs = prefs
	f.mu.Unlock()

	if f.store != nil {
		ws, _ := f.store.Get(ctx, "u")
		f.mu.Lock()
		f.busySeen = ws.Busy
		f.mu.Unlock()
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.panicV != nil {
		panic(f.panicV)
	}
	return f.result, f.err
}

func (f *fakeScheduler) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeHistory struct {
	mu      sync.Mutex
	records []*models.GenerationRecord
	err     error
}

func (h *fakeHistory) SaveGeneration(_ context.Context, rec *models.GenerationRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, rec)
	return h.err
}

var (
	algebra  = models.Course{ID: "c1", Name: "Algebra"}
	prefs    = models.SchedulePreferences{StartTime: "08:00", EndTime: "15:00", LunchDuration: 45, IncludeBreaks: true}
	balanced = &models.GenerationResult{
		Sessions: []models.ClassSession{{CourseID: "c1", Day: "Mon", Start: "08:00", End: "09:00"}},
		Summary:  "Balanced plan",
	}
)

func setup(t *testing.T, sched *fakeScheduler, opts Options) (*Orchestrator, workspace.Store, *fakeHistory) {
	t.Helper()
	store := workspace.NewMemory()
	sched.store = store
	hist := &fakeHistory{}
	return New(store, sched, hist, opts), store, hist
}

func seed(t *testing.T, store workspace.Store, courses ...models.Course) {
	t.Helper()
	_, err := store.Update(context.Background(), "u", func(w *models.Workspace) error {
		w.Courses = courses
		w.Preferences = prefs
		return nil
	})
	require.NoError(t, err)
}

func TestGenerateRejectsEmptyCourseList(t *testing.T) {
	sched := &fakeScheduler{result: balanced}
	o, _, _ := setup(t, sched, Options{})

	ws, err := o.Generate(context.Background(), "u")

	assert.ErrorIs(t, err, ErrNoCourses)
	assert.Equal(t, 0, sched.Calls())
	assert.Equal(t, "Please add at least one course to generate a schedule.", ws.ErrorMessage())
	assert.Empty(t, ws.Sessions)
	assert.False(t, ws.Busy)
	assert.Equal(t, models.PhaseIdle, ws.Phase)
}

func TestGenerateSuccess(t *testing.T) {
	sched := &fakeScheduler{result: balanced}
	o, store, hist := setup(t, sched, Options{})
	seed(t, store, algebra)

	before, _ := store.Get(context.Background(), "u")
	require.False(t, before.Busy)

	ws, err := o.Generate(context.Background(), "u")
	require.NoError(t, err)

	assert.Equal(t, 1, sched.Calls())
	assert.Equal(t, []models.Course{algebra}, sched.courses)
	assert.Equal(t, prefs, sched.prefs)
	assert.True(t, sched.busySeen, "busy flag must be set while the call runs")

	assert.False(t, ws.Busy)
	assert.Nil(t, ws.Error)
	assert.Equal(t, balanced.Sessions, ws.Sessions)
	assert.Equal(t, "Balanced plan", ws.Summary)
	assert.Equal(t, models.PhaseSucceeded, ws.Phase)
	assert.Equal(t, 1, ws.Generation)

	require.Len(t, hist.records, 1)
	assert.Equal(t, "fake", hist.records[0].Provider)
	assert.Equal(t, "u", hist.records[0].Workspace)
}

func TestSuccessClearsPriorError(t *testing.T) {
	sched := &fakeScheduler{err: errors.New("network down")}
	o, store, _ := setup(t, sched, Options{})
	seed(t, store, algebra)

	ws, err := o.Generate(context.Background(), "u")
	require.Error(t, err)
	assert.Equal(t, "network down", ws.ErrorMessage())

	sched.err, sched.result = nil, balanced
	ws, err = o.Generate(context.Background(), "u")
	require.NoError(t, err)
	assert.Nil(t, ws.Error)
}

func TestFailureKeepsPreviousSchedule(t *testing.T) {
	sched := &fakeScheduler{result: balanced}
	o, store, hist := setup(t, sched, Options{})
	seed(t, store, algebra)

	_, err := o.Generate(context.Background(), "u")
	require.NoError(t, err)

	sched.result, sched.err = nil, errors.New("quota exceeded")
	ws, err := o.Generate(context.Background(), "u")

	var se *ServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "quota exceeded", ws.ErrorMessage())
	assert.Equal(t, balanced.Sessions, ws.Sessions)
	assert.Equal(t, "Balanced plan", ws.Summary)
	assert.False(t, ws.Busy)
	assert.Equal(t, models.PhaseFailed, ws.Phase)
	assert.Len(t, hist.records, 1)
}

func TestFailureCanClearPreviousSchedule(t *testing.T) {
	sched := &fakeScheduler{result: balanced}
	o, store, _ := setup(t, sched, Options{ClearOnFailure: true})
	seed(t, store, algebra)

	_, err := o.Generate(context.Background(), "u")
	require.NoError(t, err)

	sched.result, sched.err = nil, errors.New("boom")
	ws, err := o.Generate(context.Background(), "u")
	require.Error(t, err)
	assert.Empty(t, ws.Sessions)
	assert.Empty(t, ws.Summary)
}

type blankError struct{}

func (blankError) Error() string { return "  " }

func TestFailureWithoutMessageUsesGenericText(t *testing.T) {
	for name, sched := range map[string]*fakeScheduler{
		"blank error": {err: blankError{}},
		"nil result":  {},
		"panic":       {panicV: "kaboom"},
	} {
		t.Run(name, func(t *testing.T) {
			o, store, _ := setup(t, sched, Options{})
			seed(t, store, algebra)

			ws, err := o.Generate(context.Background(), "u")
			require.Error(t, err)
			assert.False(t, ws.Busy)
			if name == "nil result" {
				assert.Equal(t, "the AI service returned an invalid schedule", ws.ErrorMessage())
				return
			}
			assert.Equal(t, "Something went wrong while generating the schedule.", ws.ErrorMessage())
		})
	}
}

func TestTimeoutReleasesBusyFlag(t *testing.T) {
	sched := &fakeScheduler{release: make(chan struct{})}
	o, store, _ := setup(t, sched, Options{Timeout: 20 * time.Millisecond})
	seed(t, store, algebra)

	ws, err := o.Generate(context.Background(), "u")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, ws.Busy)
	assert.Equal(t, msgTimedOut, ws.ErrorMessage())
}

func TestSecondTriggerWhilePendingIsRejected(t *testing.T) {
	sched := &fakeScheduler{result: balanced, release: make(chan struct{})}
	o, store, _ := setup(t, sched, Options{})
	seed(t, store, algebra)

	fut, err := o.Start(context.Background(), "u")
	require.NoError(t, err)

	pending, err := store.Get(context.Background(), "u")
	require.NoError(t, err)
	assert.True(t, pending.Busy)
	assert.Equal(t, models.PhasePending, pending.Phase)

	_, err = o.Start(context.Background(), "u")
	assert.ErrorIs(t, err, ErrGenerationInFlight)

	close(sched.release)
	ws, err := fut.Wait(context.Background())
	require.NoError(t, err)
	assert.False(t, ws.Busy)
	assert.Equal(t, 1, sched.Calls())
}

func TestStaleBusyFlagCanBeTakenOver(t *testing.T) {
	sched := &fakeScheduler{result: balanced}
	o, store, _ := setup(t, sched, Options{StaleBusyAfter: time.Minute})
	seed(t, store, algebra)

	old := time.Now().UTC().Add(-time.Hour)
	_, err := store.Update(context.Background(), "u", func(w *models.Workspace) error {
		w.Busy = true
		w.BusySince = &old
		return nil
	})
	require.NoError(t, err)

	ws, err := o.Generate(context.Background(), "u")
	require.NoError(t, err)
	assert.False(t, ws.Busy)
	assert.Equal(t, 1, sched.Calls())
}

func TestEditsDuringPendingSurvive(t *testing.T) {
	sched := &fakeScheduler{result: balanced, release: make(chan struct{})}
	o, store, _ := setup(t, sched, Options{})
	seed(t, store, algebra)

	fut, err := o.Start(context.Background(), "u")
	require.NoError(t, err)

	_, err = store.Update(context.Background(), "u", workspace.AddCourses(models.Course{ID: "c2", Name: "Biology"}))
	require.NoError(t, err)

	close(sched.release)
	ws, err := fut.Wait(context.Background())
	require.NoError(t, err)
	assert.Len(t, ws.Courses, 2)
	assert.Equal(t, []models.Course{algebra}, sched.courses)
}

func TestGenerateIsIdempotentForSameInput(t *testing.T) {
	sched := &fakeScheduler{result: balanced}
	o, store, _ := setup(t, sched, Options{})
	seed(t, store, algebra)

	first, err := o.Generate(context.Background(), "u")
	require.NoError(t, err)
	second, err := o.Generate(context.Background(), "u")
	require.NoError(t, err)

	assert.Equal(t, first.Sessions, second.Sessions)
	assert.Equal(t, first.Summary, second.Summary)
	assert.Equal(t, 2, sched.Calls())
}

func TestWaitHonoursContextButCycleContinues(t *testing.T) {
	sched := &fakeScheduler{result: balanced, release: make(chan struct{})}
	o, store, _ := setup(t, sched, Options{})
	seed(t, store, algebra)

	ctx, cancel := context.WithCancel(context.Background())
	fut, err := o.Start(ctx, "u")
	require.NoError(t, err)
	cancel()

	_, err = fut.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	close(sched.release)
	<-fut.Done()
	ws, err := store.Get(context.Background(), "u")
	require.NoError(t, err)
	assert.Equal(t, "Balanced plan", ws.Summary)
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, MsgGenericFailed, UserMessage(nil))
	assert.Equal(t, MsgGenericFailed, UserMessage(&ServiceError{}))
	assert.Equal(t, "x", UserMessage(errors.New("x")))
}

// stubbornScheduler blocks until unblock is closed, whatever its context says.
type stubbornScheduler struct {
	unblock chan struct{}
}

func (s *stubbornScheduler) Name() string { return "stubborn" }

func (s *stubbornScheduler) GenerateSchedule(context.Context, []models.Course, models.SchedulePreferences) (*models.GenerationResult, error) {
	<-s.unblock
	return balanced, nil
}

func TestTimeoutHoldsForSchedulerIgnoringContext(t *testing.T) {
	store := workspace.NewMemory()
	sched := &stubbornScheduler{unblock: make(chan struct{})}
	defer close(sched.unblock)
	o := New(store, sched, nil, Options{Timeout: 50 * time.Millisecond})
	seed(t, store, algebra)

	fut, err := o.Start(context.Background(), "u")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	ws, err := fut.Wait(ctx)

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, ws.Busy)
	assert.Equal(t, msgTimedOut, ws.ErrorMessage())
	assert.Equal(t, models.PhaseFailed, ws.Phase)
}

// flakyStore fails the next failNext updates once armed.
type flakyStore struct {
	workspace.Store
	mu       sync.Mutex
	failNext int
}

func (s *flakyStore) arm(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = n
}

func (s *flakyStore) Update(ctx context.Context, id string, fn workspace.UpdateFunc) (models.Workspace, error) {
	s.mu.Lock()
	if s.failNext > 0 {
		s.failNext--
		s.mu.Unlock()
		return models.Workspace{}, errors.New("connection reset by peer")
	}
	s.mu.Unlock()
	return s.Store.Update(ctx, id, fn)
}

// armingScheduler makes the store fail right after the call was issued, so
// only the final write is affected.
type armingScheduler struct {
	store *flakyStore
	fails int
}

func (s *armingScheduler) Name() string { return "arming" }

func (s *armingScheduler) GenerateSchedule(context.Context, []models.Course, models.SchedulePreferences) (*models.GenerationResult, error) {
	s.store.arm(s.fails)
	return balanced, nil
}

func TestFinishRetriesFailedWrite(t *testing.T) {
	prev := finishRetryDelay
	finishRetryDelay = time.Millisecond
	defer func() { finishRetryDelay = prev }()

	store := &flakyStore{Store: workspace.NewMemory()}
	o := New(store, &armingScheduler{store: store, fails: finishAttempts - 1}, nil, Options{})
	seed(t, store, algebra)

	ws, err := o.Generate(context.Background(), "u")
	require.NoError(t, err)
	assert.False(t, ws.Busy)
	assert.Equal(t, "Balanced plan", ws.Summary)

	got, err := store.Get(context.Background(), "u")
	require.NoError(t, err)
	assert.False(t, got.Busy)
}

func TestFinishGivesUpAfterRepeatedFailures(t *testing.T) {
	prev := finishRetryDelay
	finishRetryDelay = time.Millisecond
	defer func() { finishRetryDelay = prev }()

	store := &flakyStore{Store: workspace.NewMemory()}
	o := New(store, &armingScheduler{store: store, fails: finishAttempts}, nil, Options{StaleBusyAfter: time.Minute})
	seed(t, store, algebra)

	_, err := o.Generate(context.Background(), "u")
	assert.ErrorContains(t, err, "record generation outcome")

	// the flag is left for stale takeover
	got, err := store.Get(context.Background(), "u")
	require.NoError(t, err)
	assert.True(t, got.Busy)
}
