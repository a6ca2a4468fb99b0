package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/in-nis/smartschedule-back/internal/models"
)

func TestGroupByDay(t *testing.T) {
	sessions := []models.ClassSession{
		{CourseID: "b", Day: "Tuesday", Start: "10:00", End: "11:00"},
		{CourseID: "a", Day: "Mon", Start: "09:00", End: "10:00"},
		{CourseID: "x", Day: "Someday", Start: "09:00", End: "10:00"},
		{CourseID: "c", Day: "mon", Start: "08:00", End: "09:00"},
		{CourseID: "d", Day: "Mon", Start: "08:00", End: "08:30"},
	}

	days := GroupByDay(sessions)
	require.Len(t, days, 3)

	assert.Equal(t, "Mon", days[0].Day)
	var ids []string
	for _, s := range days[0].Sessions {
		ids = append(ids, s.CourseID)
	}
	assert.Equal(t, []string{"c", "d", "a"}, ids, "ties keep service order")

	assert.Equal(t, "Tue", days[1].Day)
	assert.Equal(t, "Someday", days[2].Day)
}

func TestBuildWorkload(t *testing.T) {
	courses := []models.Course{{ID: "c1", Name: "Algebra"}, {ID: "c2", Name: "Biology"}}
	sessions := []models.ClassSession{
		{CourseID: "c1", Day: "Mon", Start: "08:00", End: "09:00"},
		{CourseID: "c1", Day: "Wed", Start: "08:00", End: "09:30"},
		{CourseID: "zz", CourseName: "Ghost", Day: "Mon", Start: "10:00", End: "10:45"},
		{CourseID: "c2", Day: "Tue", Start: "bad", End: "09:00"},
	}

	w := BuildWorkload(courses, sessions)

	assert.Equal(t, []CourseLoad{
		{CourseID: "c1", Name: "Algebra", Sessions: 2, Minutes: 150},
		{CourseID: "c2", Name: "Biology", Sessions: 1, Minutes: 0},
		{CourseID: "zz", Name: "Ghost", Sessions: 1, Minutes: 45},
	}, w.Courses)
	assert.Equal(t, []DayLoad{{Day: "Mon", Minutes: 105}, {Day: "Tue", Minutes: 0}, {Day: "Wed", Minutes: 90}}, w.Days)
	assert.Equal(t, 195, w.TotalMinutes)
}

func TestBuildWorkloadEmpty(t *testing.T) {
	w := BuildWorkload(nil, nil)
	assert.NotNil(t, w.Courses)
	assert.NotNil(t, w.Days)
	assert.Zero(t, w.TotalMinutes)
}
