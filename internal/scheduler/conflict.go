package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/calendar"
)

const (
	conflictPadding = time.Minute
	conflictLimit   = 20
)

// BlockingEvent describes an existing event that overlaps a candidate.
type BlockingEvent struct {
	ID      string
	Summary string
	Start   time.Time
	End     time.Time
}

// Describe renders the blocking interval as "dd.mm HH:MM–HH:MM".
func (b BlockingEvent) Describe() string {
	return calendar.FormatSpan(b.Start, b.End)
}

// Detector checks candidate intervals against existing events. The check is
// advisory: the backend can change between detection and the write.
type Detector struct{}

// NewDetector creates a Detector.
func NewDetector() *Detector {
	return &Detector{}
}

// Detect returns the first non-cancelled event overlapping [start, end),
// skipping excludeID and its occurrences, or nil when the range is clear.
func (d *Detector) Detect(ctx context.Context, events EventLister, start, end time.Time, excludeID string) (*BlockingEvent, error) {
	list, err := events.List(ctx, start.Add(-conflictPadding), end.Add(conflictPadding), conflictLimit)
	if err != nil {
		return nil, fmt.Errorf("checking conflicts: %w", err)
	}

	candidate := Interval{Start: start, End: end}
	for _, ev := range list {
		if ev.IsCancelled() {
			continue
		}
		if excludeID != "" && (ev.ID == excludeID || calendar.BaseID(ev.ID) == calendar.BaseID(excludeID)) {
			continue
		}
		if candidate.Overlaps(Interval{Start: ev.Start, End: ev.End}) {
			return &BlockingEvent{
				ID:      ev.ID,
				Summary: ev.Summary,
				Start:   ev.Start,
				End:     ev.End,
			}, nil
		}
	}
	return nil, nil
}
