package scheduler

import (
	"fmt"
	"strings"
	"time"

	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/dateutil"
)

// Window is a preferred hour-of-day range [StartHour, EndHour).
type Window struct {
	StartHour int
	EndHour   int
}

// Validate checks 0 <= StartHour < EndHour <= 24.
func (w Window) Validate() error {
	if w.StartHour < 0 || w.EndHour > 24 || w.StartHour >= w.EndHour {
		return fmt.Errorf("%w: %d-%d", ErrInvalidWindow, w.StartHour, w.EndHour)
	}
	return nil
}

// Window names used by conversational requests.
const (
	WindowMorning = "morning"
	WindowDay     = "day"
	WindowEvening = "evening"
	WindowNight   = "night"
	WindowFull    = "full"
	WindowAny     = "any"
)

var preferredWindows = map[string]Window{
	WindowMorning: {6, 12},
	WindowDay:     {12, 18},
	WindowEvening: {18, 22},
	WindowNight:   {21, 24},
}

// PreferredWindow maps a named part of the day onto slot search hours.
func PreferredWindow(name string) (Window, bool) {
	w, ok := preferredWindows[strings.ToLower(strings.TrimSpace(name))]
	return w, ok
}

// AgendaRange returns the [start, end) of a named agenda window on day.
// Unknown names cover the whole day.
func AgendaRange(day time.Time, name string) (time.Time, time.Time) {
	d := dateutil.TruncateToDay(day)
	switch strings.ToLower(strings.TrimSpace(name)) {
	case WindowMorning:
		return dateutil.At(d, 6, 0), dateutil.At(d, 12, 0)
	case WindowDay:
		return dateutil.At(d, 12, 0), dateutil.At(d, 18, 0)
	case WindowEvening:
		return dateutil.At(d, 18, 0), dateutil.At(d, 22, 0)
	case WindowNight:
		return dateutil.At(d, 22, 0), dateutil.At(d, 23, 59)
	default:
		return d, dateutil.At(d, 23, 59)
	}
}
