package session

import (
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/calendar"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/mutation"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/scheduler"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/series"
)

// MaxCandidates is the longest disambiguation list offered to the user.
const MaxCandidates = 5

// Pending is the single confirmation a user may owe. It is one of
// *CreateConflict, *UpdateConflict, *DeleteConfirm, *Disambiguation or
// *SeriesConfirm.
type Pending interface {
	pending()
}

// CreateConflict is a create held back by an overlapping event.
type CreateConflict struct {
	Draft    *calendar.Event
	Blocking scheduler.BlockingEvent
}

// UpdateConflict is an update held back by an overlapping event.
type UpdateConflict struct {
	Original *calendar.Event
	Patch    mutation.Patch
	Blocking scheduler.BlockingEvent
}

// DeleteConfirm waits for the user to confirm a delete.
type DeleteConfirm struct {
	EventID string
	Summary string
}

// Purpose says what a disambiguation choice will be used for.
type Purpose string

const (
	PurposeDelete Purpose = "delete"
	PurposeUpdate Purpose = "update"
	PurposeLookup Purpose = "lookup"
)

// Disambiguation is a numbered list of events matching a query.
type Disambiguation struct {
	Purpose    Purpose
	Candidates []EventRef
	// Patch is applied to the chosen event when Purpose is update.
	Patch mutation.Patch
}

// SeriesConfirm is a series preview waiting to be committed.
type SeriesConfirm struct {
	Preview *series.Preview
}

func (*CreateConflict) pending() {}
func (*UpdateConflict) pending() {}
func (*DeleteConfirm) pending()  {}
func (*Disambiguation) pending() {}
func (*SeriesConfirm) pending()  {}

// SetPending replaces whatever was pending. Disambiguation lists are
// capped at MaxCandidates.
func (s *State) SetPending(p Pending) {
	if d, ok := p.(*Disambiguation); ok && len(d.Candidates) > MaxCandidates {
		d.Candidates = d.Candidates[:MaxCandidates]
	}
	s.pending = p
}

// Pending returns the pending item, or nil.
func (s *State) Pending() Pending {
	return s.pending
}

// ClearPending drops any pending item and reports whether there was one.
func (s *State) ClearPending() bool {
	had := s.pending != nil
	s.pending = nil
	return had
}

// PopConflict removes and returns a pending create or update conflict.
func (s *State) PopConflict() (Pending, error) {
	switch p := s.pending.(type) {
	case *CreateConflict, *UpdateConflict:
		s.pending = nil
		return p, nil
	}
	return nil, ErrStateLost
}

// PopDelete removes and returns a pending delete confirmation.
func (s *State) PopDelete() (*DeleteConfirm, error) {
	d, ok := s.pending.(*DeleteConfirm)
	if !ok {
		return nil, ErrStateLost
	}
	s.pending = nil
	return d, nil
}

// PopChoice resolves a numbered choice against the pending list for
// purpose. The list is consumed, so repeating the same choice fails with
// ErrStateLost.
func (s *State) PopChoice(purpose Purpose, i int) (EventRef, *Disambiguation, error) {
	d, ok := s.pending.(*Disambiguation)
	if !ok || d.Purpose != purpose {
		return EventRef{}, nil, ErrStateLost
	}
	if i < 0 || i >= len(d.Candidates) {
		return EventRef{}, nil, ErrStateLost
	}
	s.pending = nil
	return d.Candidates[i], d, nil
}

// PopSeries removes and returns a pending series preview.
func (s *State) PopSeries() (*SeriesConfirm, error) {
	c, ok := s.pending.(*SeriesConfirm)
	if !ok {
		return nil, ErrStateLost
	}
	s.pending = nil
	return c, nil
}
