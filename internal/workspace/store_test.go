package workspace

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/in-nis/smartschedule-back/internal/models"
)

func newRedisStore(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedis(client, time.Hour), mr
}

func stores(t *testing.T) map[string]Store {
	rs, _ := newRedisStore(t)
	return map[string]Store{
		"memory": NewMemory(),
		"redis":  rs,
	}
}

func TestStoreDefaults(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			w, err := s.Get(context.Background(), "u@x.io")
			require.NoError(t, err)

			assert.Equal(t, "u@x.io", w.ID)
			assert.Empty(t, w.Courses)
			assert.Equal(t, models.DefaultPreferences(), w.Preferences)
			assert.Nil(t, w.Error)
			assert.False(t, w.Busy)
			assert.Equal(t, models.PhaseIdle, w.Phase)
		})
	}
}

func TestStoreCourseCommands(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			w, err := s.Update(ctx, "u", AddCourses(
				models.Course{ID: "c1", Name: " Algebra "},
				models.Course{Name: "Biology"},
			))
			require.NoError(t, err)
			require.Len(t, w.Courses, 2)
			assert.Equal(t, "Algebra", w.Courses[0].Name)
			assert.NotEmpty(t, w.Courses[1].ID)

			w, err = s.Update(ctx, "u", UpdateCourse("c1", models.Course{Name: "Geometry", CreditHours: 4}))
			require.NoError(t, err)
			assert.Equal(t, models.Course{ID: "c1", Name: "Geometry", CreditHours: 4}, w.Courses[0])

			_, err = s.Update(ctx, "u", RemoveCourse("missing"))
			assert.ErrorIs(t, err, ErrCourseNotFound)

			w, err = s.Update(ctx, "u", RemoveCourse("c1"))
			require.NoError(t, err)
			require.Len(t, w.Courses, 1)
			assert.Equal(t, "Biology", w.Courses[0].Name)

			got, err := s.Get(ctx, "u")
			require.NoError(t, err)
			assert.Equal(t, w.Courses, got.Courses)
		})
	}
}

func TestStoreFailedUpdateDiscardsChanges(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := s.Update(ctx, "u", AddCourses(models.Course{ID: "c1", Name: "Algebra"}))
			require.NoError(t, err)

			boom := errors.New("boom")
			w, err := s.Update(ctx, "u", func(w *models.Workspace) error {
				w.Courses = nil
				w.SetError("should not stick")
				return boom
			})
			assert.ErrorIs(t, err, boom)
			require.Len(t, w.Courses, 1)
			w.Courses[0].Name = "mutated by caller"

			got, err := s.Get(ctx, "u")
			require.NoError(t, err)
			require.Len(t, got.Courses, 1)
			assert.Equal(t, "Algebra", got.Courses[0].Name)
			assert.Nil(t, got.Error)
		})
	}
}

func TestStoreRejectsDuplicateCourseIDs(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := s.Update(ctx, "u", AddCourses(models.Course{ID: "c1", Name: "Algebra"}))
			require.NoError(t, err)

			_, err = s.Update(ctx, "u", AddCourses(models.Course{ID: " c1 ", Name: "Again"}))
			assert.ErrorIs(t, err, ErrDuplicateCourse)
			_, err = s.Update(ctx, "u", AddCourses(
				models.Course{ID: "c2", Name: "Biology"},
				models.Course{ID: "c2", Name: "Chemistry"},
			))
			assert.ErrorIs(t, err, ErrDuplicateCourse)
			_, err = s.Update(ctx, "u", ReplaceCourses([]models.Course{
				{ID: "x", Name: "Art"},
				{ID: "x", Name: "Music"},
			}))
			assert.ErrorIs(t, err, ErrDuplicateCourse)

			got, err := s.Get(ctx, "u")
			require.NoError(t, err)
			require.Len(t, got.Courses, 1)
			assert.Equal(t, "c1", got.Courses[0].ID)

			// generated ids never collide
			w, err := s.Update(ctx, "u", ReplaceCourses([]models.Course{{Name: "Art"}, {Name: "Music"}}))
			require.NoError(t, err)
			require.Len(t, w.Courses, 2)
			assert.NotEqual(t, w.Courses[0].ID, w.Courses[1].ID)
		})
	}
}

func TestStoreConcurrentUpdatesAreSerialized(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			const n = 5

			var wg sync.WaitGroup
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := s.Update(ctx, "u", AddCourses(models.Course{Name: "X"}))
					assert.NoError(t, err)
				}()
			}
			wg.Wait()

			got, err := s.Get(ctx, "u")
			require.NoError(t, err)
			assert.Len(t, got.Courses, n)
		})
	}
}

func TestMemorySweep(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, _ = m.Update(ctx, "idle", SetPreferences(models.DefaultPreferences()))
	_, _ = m.Update(ctx, "busy", func(w *models.Workspace) error {
		w.Busy = true
		return nil
	})
	m.items["idle"].UpdatedAt = time.Now().Add(-2 * time.Hour)
	m.items["busy"].UpdatedAt = time.Now().Add(-2 * time.Hour)

	removed, err := m.Sweep(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.NotContains(t, m.items, "idle")
	assert.Contains(t, m.items, "busy")
}

func TestRedisKeyExpires(t *testing.T) {
	s, mr := newRedisStore(t)
	ctx := context.Background()

	_, err := s.Update(ctx, "u", AddCourses(models.Course{ID: "c1", Name: "Algebra"}))
	require.NoError(t, err)
	assert.True(t, mr.Exists(redisKey("u")))

	mr.FastForward(2 * time.Hour)
	assert.False(t, mr.Exists(redisKey("u")))

	w, err := s.Get(ctx, "u")
	require.NoError(t, err)
	assert.Empty(t, w.Courses)
}
