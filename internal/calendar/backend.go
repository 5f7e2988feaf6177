package calendar

import (
	"context"
	"errors"
	"time"
)

// Errors.
var (
	ErrNotFound       = errors.New("event not found")
	ErrEmptySummary   = errors.New("event summary cannot be empty")
	ErrMissingTime    = errors.New("event start and end are required")
	ErrEndBeforeStart = errors.New("event end must be after start")
)

// Backend is the calendar store of a single user. Every call may be a slow
// network round trip.
type Backend interface {
	// List returns events overlapping [from, to) ordered by start time.
	// Recurring events are returned as individual occurrences.
	List(ctx context.Context, from, to time.Time, limit int) ([]Event, error)

	// Search returns events in [from, to) whose text matches query.
	Search(ctx context.Context, query string, from, to time.Time, limit int) ([]Event, error)

	// Get returns an event by id, or ErrNotFound.
	Get(ctx context.Context, id string) (*Event, error)

	// Create stores a new event and returns it with backend-assigned fields.
	Create(ctx context.Context, ev *Event) (*Event, error)

	// Update replaces the stored event with ev.
	Update(ctx context.Context, id string, ev *Event) (*Event, error)

	// Delete removes an event.
	Delete(ctx context.Context, id string) error
}

// Provider resolves the calendar backend of a user.
type Provider interface {
	ForUser(ctx context.Context, userID int64) (Backend, error)
}

// StaticProvider serves the same backend to every user.
type StaticProvider struct {
	Backend Backend
}

// ForUser returns the shared backend.
func (p StaticProvider) ForUser(context.Context, int64) (Backend, error) {
	return p.Backend, nil
}
