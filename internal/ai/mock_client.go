package ai

import (
	"context"
	"fmt"

	"github.com/in-nis/smartschedule-back/internal/models"
)

var weekdays = []string{"Mon", "Tue", "Wed", "Thu", "Fri"}

const (
	mockSlotMinutes  = 60
	mockBreakMinutes = 10
	mockLunchAt      = 12 * 60
)

// Mock lays courses out round-robin over the week. It never fails and needs
// no network, which makes it the development default.
type Mock struct{}

func NewMock() *Mock { return &Mock{} }

func (m *Mock) Name() string { return "mock" }

func (m *Mock) GenerateSchedule(ctx context.Context, courses []models.Course, prefs models.SchedulePreferences) (*models.GenerationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dayStart, ok := models.ClockMinutes(prefs.StartTime)
	if !ok {
		dayStart = 8 * 60
	}
	dayEnd, ok := models.ClockMinutes(prefs.EndTime)
	if !ok || dayEnd <= dayStart {
		dayEnd = dayStart + 7*60
	}

	cursor := make([]int, len(weekdays))
	lunched := make([]bool, len(weekdays))
	for i := range cursor {
		cursor[i] = dayStart
	}

	sessions := make([]models.ClassSession, 0)
	day := 0
	dropped, full := 0, false
	for _, c := range courses {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n := c.SessionsPerWeek
		if n <= 0 {
			n = c.CreditHours
		}
		if n <= 0 {
			n = 2
		}
		// cursors only move forward, so once nothing fits nothing will
		if full {
			dropped += n
			continue
		}
		for k := 0; k < n; k++ {
			placed := false
			for tries := 0; tries < len(weekdays) && !placed; tries++ {
				d := (day + tries) % len(weekdays)
				start := cursor[d]
				if !lunched[d] && prefs.LunchDuration > 0 && start+mockSlotMinutes > mockLunchAt {
					start += prefs.LunchDuration
					lunched[d] = true
				}
				if start+mockSlotMinutes > dayEnd {
					continue
				}
				sessions = append(sessions, models.ClassSession{
					CourseID:   c.ID,
					CourseName: c.Name,
					Day:        weekdays[d],
					Start:      clock(start),
					End:        clock(start + mockSlotMinutes),
					Type:       "lecture",
				})
				cursor[d] = start + mockSlotMinutes
				if prefs.IncludeBreaks {
					cursor[d] += mockBreakMinutes
				}
				placed = true
				day = (d + 1) % len(weekdays)
			}
			if !placed {
				dropped += n - k
				full = true
				break
			}
		}
	}

	summary := fmt.Sprintf("Placed %d sessions for %d courses across the week.", len(sessions), len(courses))
	if dropped > 0 {
		summary += fmt.Sprintf(" %d sessions did not fit between %s and %s.", dropped, prefs.StartTime, prefs.EndTime)
	}
	return &models.GenerationResult{Sessions: sessions, Summary: summary}, nil
}

func clock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
