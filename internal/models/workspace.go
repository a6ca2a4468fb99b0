package models

import "time"

// Phase is the last state the generate cycle of a workspace reached.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseValidating Phase = "validating"
	PhasePending    Phase = "pending"
	PhaseSucceeded  Phase = "succeeded"
	PhaseFailed     Phase = "failed"
)

// Workspace is everything one user edits and sees: the course list, the
// preferences, the last good schedule and the generate request status.
type Workspace struct {
	ID          string              `json:"id"`
	Courses     []Course            `json:"courses"`
	Preferences SchedulePreferences `json:"preferences"`
	Sessions    []ClassSession      `json:"sessions"`
	Summary     string              `json:"summary"`
	Error       *string             `json:"error"`
	Busy        bool                `json:"busy"`
	BusySince   *time.Time          `json:"busySince,omitempty"`
	Phase       Phase               `json:"phase"`
	Generation  int                 `json:"generation"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

func NewWorkspace(id string) *Workspace {
	return &Workspace{
		ID:          id,
		Courses:     []Course{},
		Preferences: DefaultPreferences(),
		Sessions:    []ClassSession{},
		Phase:       PhaseIdle,
		UpdatedAt:   time.Now().UTC(),
	}
}

func (w *Workspace) Clone() Workspace {
	out := *w
	out.Courses = CloneCourses(w.Courses)
	out.Sessions = CloneSessions(w.Sessions)
	if w.Error != nil {
		msg := *w.Error
		out.Error = &msg
	}
	if w.BusySince != nil {
		since := *w.BusySince
		out.BusySince = &since
	}
	return out
}

func (w *Workspace) SetError(msg string) {
	w.Error = &msg
}

func (w *Workspace) ClearError() {
	w.Error = nil
}

// ErrorMessage returns the current error notice or "".
func (w *Workspace) ErrorMessage() string {
	if w.Error == nil {
		return ""
	}
	return *w.Error
}

func (w *Workspace) FindCourse(id string) (int, bool) {
	for i, c := range w.Courses {
		if c.ID == id {
			return i, true
		}
	}
	return -1, false
}
