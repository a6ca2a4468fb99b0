package models

import "time"

const ClockLayout = "15:04"

// SchedulePreferences bounds the generated timetable. EndTime is expected to
// be later than StartTime but that is left to the AI service.
type SchedulePreferences struct {
	StartTime     string `json:"startTime" binding:"required,hhmm"`
	EndTime       string `json:"endTime" binding:"required,hhmm"`
	LunchDuration int    `json:"lunchDuration" binding:"gte=0"`
	IncludeBreaks bool   `json:"includeBreaks"`
}

func DefaultPreferences() SchedulePreferences {
	return SchedulePreferences{
		StartTime:     "08:00",
		EndTime:       "15:00",
		LunchDuration: 45,
		IncludeBreaks: true,
	}
}

// ValidClock reports whether s is a 24h "HH:MM" time of day.
func ValidClock(s string) bool {
	if len(s) != 5 {
		return false
	}
	_, err := time.Parse(ClockLayout, s)
	return err == nil
}

// ClockMinutes converts "HH:MM" to minutes since midnight.
func ClockMinutes(s string) (int, bool) {
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}
