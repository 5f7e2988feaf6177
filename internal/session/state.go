// Package session holds the per-user conversation state that lets short
// follow-ups resolve against the last scheduling result.
package session

import (
	"errors"
	"strings"
	"time"

	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/calendar"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/scheduler"
)

// ErrStateLost is returned when a follow-up refers to pending state that
// no longer exists.
var ErrStateLost = errors.New("the referenced request is no longer available")

// EventRef points at the most recently shown or created event.
type EventRef struct {
	ID      string
	Summary string
	Start   time.Time
	End     time.Time
}

// RefOf builds a reference to ev.
func RefOf(ev *calendar.Event) EventRef {
	return EventRef{ID: ev.ID, Summary: ev.Summary, Start: ev.Start, End: ev.End}
}

// AgendaWindow is the last agenda the user looked at.
type AgendaWindow struct {
	Day    time.Time
	Window string
}

// EventQuery is the last event search.
type EventQuery struct {
	Keywords string
	Date     *time.Time
}

// SlotDraft is a free-slot search waiting for the user to name a duration.
type SlotDraft struct {
	From   time.Time
	To     time.Time
	Window *scheduler.Window
}

// SlotsContext is the last free-slot result. Remaining and AwaitingUse
// change together: AwaitingUse is true only while Remaining is non-empty.
type SlotsContext struct {
	Page        *scheduler.Page
	Remaining   []scheduler.Slot
	AwaitingUse bool
}

// State is the conversation state of one user. A user's turns are handled
// one at a time, so State is not safe for concurrent use.
type State struct {
	LastEvent  *EventRef
	LastAgenda *AgendaWindow
	LastQuery  *EventQuery
	SlotDraft  *SlotDraft

	lastSlots *SlotsContext
	pending   Pending
}

// SetSlots records a new free-slot page, replacing any previous one.
func (s *State) SetSlots(page *scheduler.Page) {
	if page == nil {
		s.lastSlots = nil
		return
	}
	remaining := append([]scheduler.Slot(nil), page.Slots...)
	s.lastSlots = &SlotsContext{
		Page:        page,
		Remaining:   remaining,
		AwaitingUse: len(remaining) > 0,
	}
}

// Slots returns the last free-slot context, or nil.
func (s *State) Slots() *SlotsContext {
	return s.lastSlots
}

// ConsumeSlot takes the first remaining slot of the last search.
func (s *State) ConsumeSlot() (scheduler.Slot, bool) {
	c := s.lastSlots
	if c == nil || len(c.Remaining) == 0 {
		return scheduler.Slot{}, false
	}
	slot := c.Remaining[0]
	c.Remaining = c.Remaining[1:]
	c.AwaitingUse = len(c.Remaining) > 0
	return slot, true
}

// AwaitingSlotUse reports whether a found slot is waiting to be used.
func (s *State) AwaitingSlotUse() bool {
	return s.lastSlots != nil && s.lastSlots.AwaitingUse
}

var slotPhrases = []string{
	"there",
	"that time",
	"this time",
	"same time",
	"that slot",
	"this slot",
	"first slot",
	"that window",
	"first option",
	"that option",
	"this option",
	"found time",
}

// ReferencesSlot reports whether text points back at a found slot,
// as in "put it there".
func ReferencesSlot(text string) bool {
	t := " " + normalize(text) + " "
	for _, p := range slotPhrases {
		if strings.Contains(t, " "+p+" ") {
			return true
		}
	}
	return false
}

// Reset clears everything.
func (s *State) Reset() {
	*s = State{}
}
