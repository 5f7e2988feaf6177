package assistant

import (
	"errors"
	"fmt"
	"strings"

	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/calendar"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/dateutil"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/habit"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/mutation"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/scheduler"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/series"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/session"
)

// ErrorClass groups failures by how they are reported to the user.
type ErrorClass int

const (
	// ClassBackend is a calendar or model failure; the user may retry.
	ClassBackend ErrorClass = iota
	// ClassValidation is malformed input rejected before any backend call.
	ClassValidation
	// ClassConflict is a write held back by an overlapping event.
	ClassConflict
	// ClassStateLost means the referenced pending item no longer exists.
	ClassStateLost
	// ClassPrecondition is a request that cannot be served as asked.
	ClassPrecondition
)

func (c ErrorClass) String() string {
	switch c {
	case ClassValidation:
		return "validation"
	case ClassConflict:
		return "conflict"
	case ClassStateLost:
		return "state-lost"
	case ClassPrecondition:
		return "precondition"
	default:
		return "backend"
	}
}

const (
	textBackend   = "Something went wrong talking to the calendar, please try again."
	textStateLost = "That request has expired, please start over."
)

var validationErrors = []error{
	scheduler.ErrInvalidRange,
	scheduler.ErrInvalidWindow,
	scheduler.ErrInvalidDuration,
	mutation.ErrInvalidPatch,
	series.ErrInvalidRequest,
	habit.ErrInvalidSetup,
	calendar.ErrEmptySummary,
	calendar.ErrMissingTime,
	calendar.ErrEndBeforeStart,
	dateutil.ErrInvalidDateFormat,
	dateutil.ErrInvalidClockFormat,
	dateutil.ErrInvalidDateTimeFormat,
}

var preconditionErrors = []error{
	series.ErrDeadlinePassed,
	series.ErrNothingToCommit,
	habit.ErrNoRoom,
	scheduler.ErrNoLaterSlots,
	scheduler.ErrNoEarlierSlots,
	dateutil.ErrDateInPast,
}

// Classify maps err onto the class that decides how it is reported.
func Classify(err error) ErrorClass {
	var conflict *mutation.ConflictError
	if errors.As(err, &conflict) {
		return ClassConflict
	}
	if errors.Is(err, session.ErrStateLost) || errors.Is(err, calendar.ErrNotFound) {
		return ClassStateLost
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return ClassValidation
		}
	}
	for _, target := range preconditionErrors {
		if errors.Is(err, target) {
			return ClassPrecondition
		}
	}
	return ClassBackend
}

// UserMessage is the text shown for err. Backend details never reach the
// user.
func UserMessage(err error) string {
	switch Classify(err) {
	case ClassValidation:
		return fmt.Sprintf("I could not use that: %s. Please check the details and try again.", err)
	case ClassConflict:
		var conflict *mutation.ConflictError
		errors.As(err, &conflict)
		return fmt.Sprintf("That time is taken by %q (%s).", conflict.Blocking.Summary, conflict.Blocking.Describe())
	case ClassStateLost:
		return textStateLost
	case ClassPrecondition:
		return sentence(err.Error())
	default:
		return textBackend
	}
}

func sentence(s string) string {
	if s == "" {
		return s
	}
	s = strings.ToUpper(s[:1]) + s[1:]
	if !strings.HasSuffix(s, ".") {
		s += "."
	}
	return s
}
