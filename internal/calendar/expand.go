package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// DefaultMaxOccurrences caps how many instances one recurring event yields.
const DefaultMaxOccurrences = 500

// InstanceID builds the id of one occurrence of a recurring event.
func InstanceID(baseID string, start time.Time) string {
	return baseID + "_" + start.UTC().Format("20060102T150405Z")
}

// BaseID strips the occurrence suffix from an instance id.
func BaseID(id string) string {
	if base, _, ok := strings.Cut(id, "_"); ok {
		return base
	}
	return id
}

// Expand returns the occurrences of ev that overlap [from, to). A
// non-recurring event yields itself when it overlaps the window.
// Occurrences keep the original duration and get instance ids.
func Expand(ev Event, from, to time.Time, max int) ([]Event, error) {
	if max <= 0 {
		max = DefaultMaxOccurrences
	}

	rule := rruleLine(ev.Recurrence)
	if rule == "" {
		if ev.Start.Before(to) && ev.End.After(from) {
			return []Event{ev}, nil
		}
		return nil, nil
	}

	r, err := rrule.StrToRRule(rule)
	if err != nil {
		return nil, fmt.Errorf("parsing recurrence %q: %w", rule, err)
	}
	r.DTStart(ev.Start)

	dur := ev.End.Sub(ev.Start)
	// An occurrence overlaps when start is in (from-dur, to).
	starts := r.Between(from.Add(-dur), to, false)
	if len(starts) > max {
		starts = starts[:max]
	}

	out := make([]Event, 0, len(starts))
	for _, s := range starts {
		occ := ev
		occ.ID = InstanceID(ev.ID, s)
		occ.Start = s.In(ev.Start.Location())
		occ.End = occ.Start.Add(dur)
		out = append(out, occ)
	}
	return out, nil
}

// rruleLine returns the first RRULE body in a recurrence list.
func rruleLine(lines []string) string {
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(strings.ToUpper(line), "RRULE:") {
			return line[len("RRULE:"):]
		}
	}
	return ""
}
