package mutation

import (
	"context"
	"fmt"

	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/calendar"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/logx"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/scheduler"
)

// ConflictError reports that a write was held back because the resulting
// interval overlaps another event. It carries everything needed to repeat
// the same write once the user confirms it.
type ConflictError struct {
	Blocking scheduler.BlockingEvent

	// Draft is set for creates.
	Draft *calendar.Event

	// Original, Patch and Proposed are set for updates.
	Original *calendar.Event
	Patch    Patch
	Proposed *calendar.Event
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflicts with %q at %s", e.Blocking.Summary, e.Blocking.Describe())
}

// Options control a single write.
type Options struct {
	IgnoreConflicts bool
}

// Engine creates and updates events with a conflict check before each
// write.
type Engine struct {
	detector *scheduler.Detector
	log      logx.Logger
}

// NewEngine creates an Engine.
func NewEngine(log logx.Logger) *Engine {
	return &Engine{detector: scheduler.NewDetector(), log: log}
}

// Apply resolves p against original and writes the result. When the time
// changed and conflicts are not ignored, an overlapping event aborts the
// write with a *ConflictError.
func (e *Engine) Apply(ctx context.Context, backend calendar.Backend, original *calendar.Event, p Patch, opts Options) (*calendar.Event, error) {
	proposed, err := Resolve(original, p)
	if err != nil {
		return nil, err
	}

	moved := !proposed.Start.Equal(original.Start) || !proposed.End.Equal(original.End)
	if moved && !opts.IgnoreConflicts {
		blocking, err := e.detector.Detect(ctx, backend, proposed.Start, proposed.End, original.ID)
		if err != nil {
			return nil, err
		}
		if blocking != nil {
			e.log.Debug("update held back by conflict",
				logx.String("event", original.ID),
				logx.String("blocking", blocking.ID))
			return nil, &ConflictError{
				Blocking: *blocking,
				Original: original.Clone(),
				Patch:    p,
				Proposed: proposed,
			}
		}
	}

	updated, err := backend.Update(ctx, original.ID, proposed)
	if err != nil {
		return nil, fmt.Errorf("updating event %s: %w", original.ID, err)
	}
	return updated, nil
}

// Create writes a new event, checking for conflicts first unless told not to.
func (e *Engine) Create(ctx context.Context, backend calendar.Backend, draft *calendar.Event, opts Options) (*calendar.Event, error) {
	if err := draft.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}

	if !opts.IgnoreConflicts {
		blocking, err := e.detector.Detect(ctx, backend, draft.Start, draft.End, "")
		if err != nil {
			return nil, err
		}
		if blocking != nil {
			e.log.Debug("create held back by conflict",
				logx.String("summary", draft.Summary),
				logx.String("blocking", blocking.ID))
			return nil, &ConflictError{Blocking: *blocking, Draft: draft.Clone()}
		}
	}

	created, err := backend.Create(ctx, draft)
	if err != nil {
		return nil, fmt.Errorf("creating event: %w", err)
	}
	return created, nil
}
