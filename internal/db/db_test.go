package db

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/in-nis/smartschedule-back/internal/models"
)

func openTest(t *testing.T) *Storage {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	s, err := Open("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open("oracle", "x")
	assert.ErrorContains(t, err, "unsupported DB_DRIVER")
}

func TestSaveOrUpdateUser(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	require.NoError(t, s.SaveOrUpdateUser(ctx, models.User{Email: "a@b.c", AccessToken: "t1"}))
	require.NoError(t, s.SaveOrUpdateUser(ctx, models.User{Email: "a@b.c", AccessToken: "t2"}))

	u, err := s.GetUserByEmail(ctx, "a@b.c")
	require.NoError(t, err)
	assert.Equal(t, "t2", u.AccessToken)

	var count int64
	require.NoError(t, s.DB.Model(&models.User{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
	assert.NoError(t, s.Ping())
}

func TestGenerationHistory(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	old := &models.GenerationRecord{
		Workspace: "a@b.c",
		Summary:   "old",
		CreatedAt: time.Now().Add(-48 * time.Hour),
	}
	fresh := &models.GenerationRecord{
		Workspace:   "a@b.c",
		Provider:    "mock",
		Courses:     []models.Course{{ID: "c1", Name: "Algebra", Extra: map[string]any{"room": "B2"}}},
		Preferences: models.DefaultPreferences(),
		Sessions:    []models.ClassSession{{CourseID: "c1", Day: "Mon", Start: "08:00", End: "09:00"}},
		Summary:     "fresh",
	}
	other := &models.GenerationRecord{Workspace: "x@y.z", Summary: "other"}
	for _, r := range []*models.GenerationRecord{old, fresh, other} {
		require.NoError(t, s.SaveGeneration(ctx, r))
	}

	list, err := s.ListGenerations(ctx, "a@b.c", 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "fresh", list[0].Summary)
	assert.Equal(t, fresh.Sessions, list[0].Sessions)
	assert.Equal(t, "B2", list[0].Courses[0].Extra["room"])
	assert.Equal(t, models.DefaultPreferences(), list[0].Preferences)

	removed, err := s.PruneGenerations(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	list, err = s.ListGenerations(ctx, "a@b.c", 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "fresh", list[0].Summary)
}
