package models

import "encoding/json"

// ClassSession is one scheduled occurrence of a course as returned by the AI
// service. Start and End are "HH:MM".
type ClassSession struct {
	CourseID   string         `json:"course"`
	CourseName string         `json:"courseName,omitempty"`
	Day        string         `json:"day"`
	Start      string         `json:"start"`
	End        string         `json:"end"`
	Room       string         `json:"room,omitempty"`
	Type       string         `json:"type,omitempty"`
	Extra      map[string]any `json:"-"`
}

var sessionKeys = []string{"course", "courseName", "day", "start", "end", "room", "type"}

type classSession ClassSession

func (s ClassSession) MarshalJSON() ([]byte, error) {
	return marshalFlat(classSession(s), s.Extra)
}

func (s *ClassSession) UnmarshalJSON(data []byte) error {
	var known classSession
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	extra, err := unmarshalExtra(data, sessionKeys...)
	if err != nil {
		return err
	}
	*s = ClassSession(known)
	s.Extra = extra
	return nil
}

func CloneSessions(in []ClassSession) []ClassSession {
	if in == nil {
		return nil
	}
	out := make([]ClassSession, len(in))
	for i, s := range in {
		s.Extra = cloneExtra(s.Extra)
		out[i] = s
	}
	return out
}

// GenerationResult is what the AI service produces for one request.
type GenerationResult struct {
	Sessions []ClassSession `json:"sessions"`
	Summary  string         `json:"summary"`
}
