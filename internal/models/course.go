package models

import "encoding/json"

// Course is a subject the user wants placed in the weekly timetable. Fields
// the API does not know about are kept in Extra and handed to the AI service
// untouched.
type Course struct {
	ID              string         `json:"id"`
	Name            string         `json:"name" binding:"required"`
	Code            string         `json:"code,omitempty"`
	Instructor      string         `json:"instructor,omitempty"`
	CreditHours     int            `json:"creditHours,omitempty" binding:"gte=0,lte=40"`
	SessionsPerWeek int            `json:"sessionsPerWeek,omitempty" binding:"gte=0,lte=40"`
	Color           string         `json:"color,omitempty"`
	Extra           map[string]any `json:"-"`
}

// MaxWeeklyLoad bounds CreditHours and SessionsPerWeek; keep in step with the
// binding tags.
const MaxWeeklyLoad = 40

var courseKeys = []string{"id", "name", "code", "instructor", "creditHours", "sessionsPerWeek", "color"}

type course Course

func (c Course) MarshalJSON() ([]byte, error) {
	return marshalFlat(course(c), c.Extra)
}

func (c *Course) UnmarshalJSON(data []byte) error {
	var known course
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	extra, err := unmarshalExtra(data, courseKeys...)
	if err != nil {
		return err
	}
	*c = Course(known)
	c.Extra = extra
	return nil
}

func (c Course) Clone() Course {
	c.Extra = cloneExtra(c.Extra)
	return c
}

func CloneCourses(in []Course) []Course {
	if in == nil {
		return nil
	}
	out := make([]Course, len(in))
	for i, c := range in {
		out[i] = c.Clone()
	}
	return out
}
