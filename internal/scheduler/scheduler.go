// Package scheduler finds free time in a calendar and detects conflicts.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/calendar"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/dateutil"
)

// Validation errors.
var (
	ErrInvalidRange    = errors.New("search range start must be before its end")
	ErrInvalidWindow   = errors.New("preferred window must satisfy 0 <= start < end <= 24")
	ErrInvalidDuration = errors.New("duration must be positive")
)

// Pagination errors.
var (
	ErrNoLaterSlots   = errors.New("no later free slots in this range")
	ErrNoEarlierSlots = errors.New("no earlier free slots in this range")
)

// Request describes a free slot search.
type Request struct {
	Duration time.Duration
	From     time.Time
	To       time.Time
	Window   *Window // nil uses the finder default
}

// Validate checks the request invariants.
func (r Request) Validate() error {
	if r.Duration <= 0 {
		return ErrInvalidDuration
	}
	if !r.From.Before(r.To) {
		return ErrInvalidRange
	}
	if r.Window != nil {
		if err := r.Window.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Slot is a free interval of exactly the requested duration.
type Slot struct {
	Start time.Time
	End   time.Time
}

// String renders the slot as "dd.mm HH:MM–HH:MM".
func (s Slot) String() string {
	return calendar.FormatSpan(s.Start, s.End)
}

// Options configures a Finder.
type Options struct {
	Step           time.Duration
	DefaultWindow  Window
	PageBuffer     time.Duration
	MaxSuggestions int
	Location       *time.Location
}

// DefaultOptions returns the stock search settings.
func DefaultOptions() Options {
	return Options{
		Step:           30 * time.Minute,
		DefaultWindow:  Window{StartHour: 8, EndHour: 20},
		PageBuffer:     15 * time.Minute,
		MaxSuggestions: 3,
		Location:       time.UTC,
	}
}

// Finder searches for the soonest free slot per day.
type Finder struct {
	opts Options
}

// NewFinder creates a Finder, filling unset options with defaults.
func NewFinder(opts Options) *Finder {
	def := DefaultOptions()
	if opts.Step <= 0 {
		opts.Step = def.Step
	}
	if opts.DefaultWindow.Validate() != nil {
		opts.DefaultWindow = def.DefaultWindow
	}
	if opts.PageBuffer < 0 {
		opts.PageBuffer = def.PageBuffer
	}
	if opts.MaxSuggestions <= 0 {
		opts.MaxSuggestions = def.MaxSuggestions
	}
	if opts.Location == nil {
		opts.Location = def.Location
	}
	return &Finder{opts: opts}
}

// Location returns the time zone day boundaries are computed in.
func (f *Finder) Location() *time.Location {
	return f.opts.Location
}

// Find loads busy intervals for the request range and returns at most max
// slots, earliest first. A max of zero uses the configured default.
func (f *Finder) Find(ctx context.Context, events EventLister, req Request, max int) ([]Slot, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	idx, err := LoadIndex(ctx, events, req.From, req.To)
	if err != nil {
		return nil, err
	}
	return f.Scan(idx, req, max), nil
}

// Scan walks the range day by day. Within each day's window it tries
// candidate starts at the configured step and keeps the first free one, so
// each day contributes at most one slot.
func (f *Finder) Scan(idx *IntervalIndex, req Request, max int) []Slot {
	if req.Validate() != nil {
		return nil
	}
	if max <= 0 {
		max = f.opts.MaxSuggestions
	}
	window := f.opts.DefaultWindow
	if req.Window != nil {
		window = *req.Window
	}

	startBound := req.From.In(f.opts.Location)
	endBound := req.To.In(f.opts.Location)

	var slots []Slot
	cursor := startBound
	for cursor.Before(endBound) && len(slots) < max {
		dayStart := dateutil.At(cursor, window.StartHour, 0)
		dayEnd := dateutil.At(cursor, window.EndHour, 0)
		if dayStart.Before(startBound) {
			dayStart = startBound
		}
		if dayEnd.After(endBound) {
			dayEnd = endBound
		}

		candidate := laterOf(cursor, dayStart)
		for !candidate.Add(req.Duration).After(dayEnd) {
			iv := Interval{Start: candidate, End: candidate.Add(req.Duration)}
			if iv.End.After(endBound) {
				break
			}
			if idx.Free(iv) {
				slots = append(slots, Slot{Start: iv.Start, End: iv.End})
				break
			}
			candidate = candidate.Add(f.opts.Step)
		}

		nextDay := dateutil.At(cursor.AddDate(0, 0, 1), window.StartHour, 0)
		cursor = laterOf(nextDay, startBound)
	}
	return slots
}

func laterOf(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

// Page is one screen of slot results plus the cursor needed to move
// earlier or later within the original range.
type Page struct {
	Request   Request
	Slots     []Slot
	NextStart time.Time
	History   []time.Time
}

// FirstPage runs the initial search of a paginated result.
func (f *Finder) FirstPage(ctx context.Context, events EventLister, req Request) (*Page, error) {
	slots, err := f.Find(ctx, events, req, 0)
	if err != nil {
		return nil, err
	}
	page := &Page{
		Request:   req,
		Slots:     slots,
		NextStart: req.From,
		History:   []time.Time{req.From},
	}
	if len(slots) > 0 {
		page.NextStart = slots[len(slots)-1].End.Add(f.opts.PageBuffer)
	}
	return page, nil
}

// Later searches from just after the last shown slot to the end of the
// original range. When nothing is left it returns ErrNoLaterSlots along with
// a copy of page whose NextStart is moved to the range end.
func (f *Finder) Later(ctx context.Context, events EventLister, page *Page) (*Page, error) {
	from := page.NextStart
	if from.IsZero() {
		from = page.Request.From
	}
	to := page.Request.To
	if !from.Before(to) {
		return nil, ErrNoLaterSlots
	}

	req := page.Request
	req.From, req.To = from, to
	slots, err := f.Find(ctx, events, req, 0)
	if err != nil {
		return nil, fmt.Errorf("searching later slots: %w", err)
	}
	if len(slots) == 0 {
		exhausted := *page
		exhausted.NextStart = to
		return &exhausted, ErrNoLaterSlots
	}

	return &Page{
		Request:   page.Request,
		Slots:     slots,
		NextStart: slots[len(slots)-1].End.Add(f.opts.PageBuffer),
		History:   append(append([]time.Time(nil), page.history()...), from),
	}, nil
}

// Earlier searches the range that precedes the current page, recovering the
// previous page start from the history.
func (f *Finder) Earlier(ctx context.Context, events EventLister, page *Page) (*Page, error) {
	history := page.history()

	var from, to time.Time
	var nextHistory []time.Time
	if len(history) <= 1 {
		if len(page.Slots) == 0 {
			return nil, ErrNoEarlierSlots
		}
		from = page.Request.From
		to = page.Slots[0].Start.Add(-f.opts.PageBuffer)
		nextHistory = history
	} else {
		from = history[len(history)-2]
		to = history[len(history)-1].Add(-f.opts.PageBuffer)
		nextHistory = history[:len(history)-1]
	}
	if !from.Before(to) {
		return nil, ErrNoEarlierSlots
	}

	req := page.Request
	req.From, req.To = from, to
	slots, err := f.Find(ctx, events, req, 0)
	if err != nil {
		return nil, fmt.Errorf("searching earlier slots: %w", err)
	}
	if len(slots) == 0 {
		return nil, ErrNoEarlierSlots
	}

	return &Page{
		Request:   page.Request,
		Slots:     slots,
		NextStart: slots[len(slots)-1].End.Add(f.opts.PageBuffer),
		History:   append([]time.Time(nil), nextHistory...),
	}, nil
}

func (p *Page) history() []time.Time {
	if len(p.History) == 0 {
		return []time.Time{p.Request.From}
	}
	return p.History
}
