package scheduler

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/calendar"
)

// busyFetchLimit caps the number of events loaded for one search.
const busyFetchLimit = 250

// EventLister is the read side of a calendar backend.
type EventLister interface {
	List(ctx context.Context, from, to time.Time, limit int) ([]calendar.Event, error)
}

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two half-open intervals share any instant.
// Intervals that only touch at a boundary do not overlap.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && i.End.After(o.Start)
}

// Duration returns the interval length.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// IntervalIndex is a start-sorted list of busy intervals.
type IntervalIndex struct {
	busy []Interval
}

// NewIntervalIndex builds an index, dropping empty or inverted intervals.
func NewIntervalIndex(busy []Interval) *IntervalIndex {
	kept := make([]Interval, 0, len(busy))
	for _, iv := range busy {
		if iv.Start.Before(iv.End) {
			kept = append(kept, iv)
		}
	}
	sort.Slice(kept, func(a, b int) bool {
		return kept[a].Start.Before(kept[b].Start)
	})
	return &IntervalIndex{busy: kept}
}

// LoadIndex fetches busy intervals for [from, to) from the backend.
// Cancelled and all-day events do not block time.
func LoadIndex(ctx context.Context, events EventLister, from, to time.Time) (*IntervalIndex, error) {
	list, err := events.List(ctx, from, to, busyFetchLimit)
	if err != nil {
		return nil, fmt.Errorf("fetching busy intervals: %w", err)
	}
	busy := make([]Interval, 0, len(list))
	for _, ev := range list {
		if ev.IsCancelled() || ev.AllDay {
			continue
		}
		busy = append(busy, Interval{Start: ev.Start, End: ev.End})
	}
	return NewIntervalIndex(busy), nil
}

// Free reports whether iv overlaps no busy interval.
func (x *IntervalIndex) Free(iv Interval) bool {
	for _, b := range x.busy {
		if !b.Start.Before(iv.End) {
			break
		}
		if b.Overlaps(iv) {
			return false
		}
	}
	return true
}

// Busy returns a copy of the indexed intervals.
func (x *IntervalIndex) Busy() []Interval {
	return append([]Interval(nil), x.busy...)
}

// Len returns the number of busy intervals.
func (x *IntervalIndex) Len() int {
	return len(x.busy)
}
