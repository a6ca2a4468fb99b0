package planner

import (
	"errors"
	"strings"
)

const (
	MsgNoCourses     = "Please add at least one course to generate a schedule."
	MsgGenericFailed = "Something went wrong while generating the schedule."
)

var (
	ErrNoCourses          = errors.New(MsgNoCourses)
	ErrGenerationInFlight = errors.New("a schedule is already being generated")
)

// ServiceError wraps a failure of the external scheduling service. Message
// is what the user sees.
type ServiceError struct {
	Message string
	Err     error
}

func (e *ServiceError) Error() string { return e.Message }

func (e *ServiceError) Unwrap() error { return e.Err }

// UserMessage turns any failure into the notice shown to the user, falling
// back to a generic text when the failure carries no message.
func UserMessage(err error) string {
	if err == nil {
		return MsgGenericFailed
	}
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		return MsgGenericFailed
	}
	return msg
}
