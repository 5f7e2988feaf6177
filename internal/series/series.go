// Package series splits a deadline-bound goal into scheduled work blocks.
package series

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/calendar"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/logx"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/scheduler"
)

// Errors.
var (
	ErrDeadlinePassed  = errors.New("the deadline has already passed")
	ErrInvalidRequest  = errors.New("invalid series request")
	ErrNothingToCommit = errors.New("the plan has no blocks to create")
)

// Plan statuses.
const (
	StatusPlanned   = "planned"
	StatusCommitted = "committed"
	StatusPartial   = "partial"
)

const (
	minCandidates        = 6
	candidatesPerBlock   = 3
	deadlineMarkerLength = 30 * time.Minute
	deadlineReminderMins = 30
)

var seriesWindows = map[string]scheduler.Window{
	"morning": {StartHour: 8, EndHour: 12},
	"day":     {StartHour: 12, EndHour: 17},
	"evening": {StartHour: 17, EndHour: 22},
	"any":     {StartHour: 8, EndHour: 22},
}

// Window maps a named part of the day onto the hours work blocks may use.
// Unknown names fall back to "any".
func Window(name string) scheduler.Window {
	if w, ok := seriesWindows[strings.ToLower(strings.TrimSpace(name))]; ok {
		return w
	}
	return seriesWindows["any"]
}

// Request describes a goal to split into blocks.
type Request struct {
	Title         string
	Description   string
	Deadline      time.Time
	TotalMinutes  int
	BlockMinutes  int
	Window        *scheduler.Window
	AllowWeekends bool
}

// Validate checks the request fields that do not depend on the clock.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidRequest)
	}
	if r.TotalMinutes <= 0 {
		return fmt.Errorf("%w: total duration must be positive", ErrInvalidRequest)
	}
	if r.BlockMinutes <= 0 {
		return fmt.Errorf("%w: block duration must be positive", ErrInvalidRequest)
	}
	if r.Window != nil {
		if err := r.Window.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// BlocksNeeded returns ceil(TotalMinutes / BlockMinutes).
func (r Request) BlocksNeeded() int {
	if r.BlockMinutes <= 0 {
		return 0
	}
	return (r.TotalMinutes + r.BlockMinutes - 1) / r.BlockMinutes
}

// Block is one scheduled piece of work.
type Block struct {
	Index int
	Label string
	Start time.Time
	End   time.Time
}

// Preview is a plan that has not been written to the calendar yet.
type Preview struct {
	Request  Request
	Blocks   []Block
	Missing  int
	Warnings []string
}

// Result describes a committed plan.
type Result struct {
	PlanID       int64
	Created      []Block
	Links        []string
	DeadlineLink *string
}

// CommitError reports a commit that stopped at block FailedIndex. Every
// block that reached the calendar stays there and is listed in Created,
// including a failed block whose event exists but could not be recorded.
type CommitError struct {
	PlanID      int64
	Created     []Block
	Links       []string
	FailedIndex int
	Err         error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("series stopped at block %d with %d created: %v", e.FailedIndex+1, len(e.Created), e.Err)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}

// Repository records committed plans.
type Repository interface {
	CreatePlan(ctx context.Context, user int64, req Request) (int64, error)
	AddBlock(ctx context.Context, planID int64, block Block, eventID string) error
	SetPlanStatus(ctx context.Context, planID int64, status string) error
}

// Planner finds room for blocks and writes them to the calendar.
type Planner struct {
	finder *scheduler.Finder
	repo   Repository
	log    logx.Logger

	deadlineLead int
}

// NewPlanner creates a Planner. repo may be nil, in which case plans are
// not recorded.
func NewPlanner(finder *scheduler.Finder, repo Repository, log logx.Logger) *Planner {
	return &Planner{finder: finder, repo: repo, log: log, deadlineLead: deadlineReminderMins}
}

// SetDeadlineReminder sets how many minutes before the deadline marker the
// reminder fires. Negative values are ignored.
func (p *Planner) SetDeadlineReminder(minutes int) {
	if minutes >= 0 {
		p.deadlineLead = minutes
	}
}

// Plan searches [now, deadline] for enough blocks. Running short is not an
// error: the preview lists the missing count and a warning.
func (p *Planner) Plan(ctx context.Context, events scheduler.EventLister, req Request, now time.Time) (*Preview, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !req.Deadline.After(now) {
		return nil, ErrDeadlinePassed
	}

	needed := req.BlocksNeeded()
	window := Window("any")
	if req.Window != nil {
		window = *req.Window
	}

	slots, err := p.finder.Find(ctx, events, scheduler.Request{
		Duration: time.Duration(req.BlockMinutes) * time.Minute,
		From:     now,
		To:       req.Deadline,
		Window:   &window,
	}, max(needed*candidatesPerBlock, minCandidates))
	if err != nil {
		return nil, fmt.Errorf("searching blocks: %w", err)
	}

	preview := &Preview{Request: req}
	for _, s := range slots {
		if len(preview.Blocks) == needed {
			break
		}
		if s.End.After(req.Deadline) {
			continue
		}
		if !req.AllowWeekends && isWeekend(s.Start) {
			continue
		}
		n := len(preview.Blocks)
		preview.Blocks = append(preview.Blocks, Block{
			Index: n,
			Label: fmt.Sprintf("Block %d", n+1),
			Start: s.Start,
			End:   s.End,
		})
	}

	preview.Missing = needed - len(preview.Blocks)
	if preview.Missing > 0 {
		preview.Warnings = append(preview.Warnings, fmt.Sprintf(
			"found only %d of %d blocks; widen the time range or allow weekends",
			len(preview.Blocks), needed))
	}
	return preview, nil
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// Commit creates one event per block, in order, then a deadline marker.
// The first failed block stops the commit with a *CommitError; blocks
// already created are not removed. A failed deadline marker is logged and
// leaves DeadlineLink nil.
func (p *Planner) Commit(ctx context.Context, backend calendar.Backend, user int64, preview *Preview) (*Result, error) {
	if preview == nil || len(preview.Blocks) == 0 {
		return nil, ErrNothingToCommit
	}
	req := preview.Request
	log := p.log.With(logx.Int64("user", user), logx.String("series", req.Title))

	var planID int64
	if p.repo != nil {
		id, err := p.repo.CreatePlan(ctx, user, req)
		if err != nil {
			return nil, fmt.Errorf("recording plan: %w", err)
		}
		planID = id
	}

	res := &Result{PlanID: planID}
	stop := func(b Block, err error) (*Result, error) {
		log.Error("series commit stopped", logx.Int("block", b.Index+1), logx.Err(err))
		p.setStatus(ctx, log, planID, StatusPartial)
		return nil, &CommitError{
			PlanID:      planID,
			Created:     res.Created,
			Links:       res.Links,
			FailedIndex: b.Index,
			Err:         err,
		}
	}
	for _, b := range preview.Blocks {
		created, err := backend.Create(ctx, blockEvent(req, b, len(preview.Blocks)))
		if err != nil {
			return stop(b, err)
		}
		res.Created = append(res.Created, b)
		res.Links = append(res.Links, created.HTMLLink)

		if p.repo != nil {
			if err := p.repo.AddBlock(ctx, planID, b, created.ID); err != nil {
				return stop(b, fmt.Errorf("recording block: %w", err))
			}
		}
	}

	marker, err := backend.Create(ctx, deadlineEvent(req, p.deadlineLead))
	if err != nil {
		log.Warn("deadline marker not created", logx.Err(err))
	} else {
		link := marker.HTMLLink
		res.DeadlineLink = &link
	}

	p.setStatus(ctx, log, planID, StatusCommitted)
	return res, nil
}

func (p *Planner) setStatus(ctx context.Context, log logx.Logger, planID int64, status string) {
	if p.repo == nil {
		return
	}
	if err := p.repo.SetPlanStatus(ctx, planID, status); err != nil {
		log.Warn("updating plan status", logx.String("status", status), logx.Err(err))
	}
}

func blockEvent(req Request, b Block, total int) *calendar.Event {
	lines := []string{
		"Series: " + req.Title,
		fmt.Sprintf("Block %d of %d", b.Index+1, total),
		"Deadline: " + req.Deadline.In(b.Start.Location()).Format("02.01 15:04"),
	}
	if req.Description != "" {
		lines = append(lines, req.Description)
	}
	color, _ := calendar.ColorForCategory(calendar.CategoryStudy)
	return &calendar.Event{
		Summary:     fmt.Sprintf("[Series] %s: block %d", req.Title, b.Index+1),
		Description: strings.Join(lines, "\n"),
		Start:       b.Start,
		End:         b.End,
		ColorID:     color,
		Reminders:   calendar.DefaultReminders(),
	}
}

func deadlineEvent(req Request, lead int) *calendar.Event {
	lines := []string{
		"Series: " + req.Title,
		"Final deadline reminder.",
	}
	if req.Description != "" {
		lines = append(lines, req.Description)
	}
	return &calendar.Event{
		Summary:     "[Series] Deadline: " + req.Title,
		Description: strings.Join(lines, "\n"),
		Start:       req.Deadline,
		End:         req.Deadline.Add(deadlineMarkerLength),
		Reminders:   calendar.RemindersFromMinutes(&lead),
	}
}
