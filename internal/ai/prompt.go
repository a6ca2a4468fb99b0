package ai

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/in-nis/smartschedule-back/internal/models"
)

const systemPrompt = "You are an academic planner that builds balanced weekly class timetables. Reply ONLY with valid JSON."

func renderSchedulePrompt(courses []models.Course, prefs models.SchedulePreferences) (string, error) {
	coursesJSON, err := json.MarshalIndent(courses, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode courses: %w", err)
	}

	breaks := "Do not add short breaks between classes."
	if prefs.IncludeBreaks {
		breaks = "Leave a short break (10-15 minutes) between consecutive classes."
	}

	return fmt.Sprintf(`
Build a weekly class timetable (Monday to Friday) for the COURSES below.
Rules:
- Classes must start at or after %s and end at or before %s.
- Reserve one lunch break of %d minutes around midday every day.
- %s
- No two sessions may overlap.
- Use each course's sessionsPerWeek and creditHours when present; otherwise choose a sensible number of sessions.
- Spread heavy courses across the week instead of stacking them on one day.
- Times are 24h "HH:MM". Days are "Mon", "Tue", "Wed", "Thu", "Fri".

Answer with JSON only, in this shape:
{"sessions":[{"course":"<course id>","courseName":"<course name>","day":"Mon","start":"08:00","end":"09:00","type":"lecture"}],
 "summary":"<2-4 sentences explaining how the week is balanced>"}

COURSES:
%s
`, prefs.StartTime, prefs.EndTime, prefs.LunchDuration, breaks, coursesJSON), nil
}

// extractJSON finds the first complete JSON object in raw, looking inside a
// markdown code fence first.
func extractJSON(raw string) string {
	if start := strings.Index(raw, "```json"); start != -1 {
		raw = raw[start+len("```json"):]
		if end := strings.Index(raw, "```"); end != -1 {
			raw = raw[:end]
		}
	} else if start := strings.Index(raw, "```"); start != -1 {
		raw = raw[start+3:]
		if end := strings.Index(raw, "```"); end != -1 {
			raw = raw[:end]
		}
	}

	start := strings.Index(raw, "{")
	if start == -1 {
		return ""
	}

	var obj json.RawMessage
	if err := json.NewDecoder(strings.NewReader(raw[start:])).Decode(&obj); err != nil {
		slog.Warn("AI response contained a malformed or incomplete JSON object", "error", err)
		return ""
	}
	return string(obj)
}

// parseSchedule decodes a model reply and fills in course names the model
// left out.
func parseSchedule(raw string, courses []models.Course) (*models.GenerationResult, error) {
	clean := extractJSON(raw)
	if clean == "" {
		return nil, ErrInvalidResponse
	}

	var out models.GenerationResult
	if err := json.Unmarshal([]byte(clean), &out); err != nil {
		slog.Error("failed to decode AI schedule", "json", clean, "error", err)
		return nil, ErrInvalidResponse
	}
	if out.Sessions == nil {
		return nil, ErrInvalidResponse
	}

	names := make(map[string]string, len(courses))
	for _, c := range courses {
		names[c.ID] = c.Name
	}
	for i := range out.Sessions {
		s := &out.Sessions[i]
		if s.CourseName == "" {
			s.CourseName = names[s.CourseID]
		}
	}
	out.Summary = strings.TrimSpace(out.Summary)
	return &out, nil
}
