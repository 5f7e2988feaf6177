package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/intent"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/logx"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/series"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/session"
)

const (
	defaultSeriesMinutes = 240
	defaultBlockMinutes  = 90
	// A deadline given as a bare date falls at this hour.
	deadlineHour = 18
)

func (e *Engine) planSeries(ctx context.Context, t *turn, a intent.Analysis) (Reply, error) {
	s := a.Series
	if s == nil || strings.TrimSpace(s.Title) == "" {
		return say("What are you preparing for, and by when?"), nil
	}
	if s.Deadline == nil {
		return say(fmt.Sprintf("When is the deadline for %q?", s.Title)), nil
	}

	deadline := s.Deadline.In(t.now.Location())
	if deadline.Hour() == 0 && deadline.Minute() == 0 {
		deadline = deadline.Add(deadlineHour * time.Hour)
	}
	req := series.Request{
		Title:         strings.TrimSpace(s.Title),
		Deadline:      deadline,
		TotalMinutes:  defaultSeriesMinutes,
		BlockMinutes:  defaultBlockMinutes,
		AllowWeekends: s.AllowWeekends,
	}
	if s.TotalMinutes != nil {
		req.TotalMinutes = *s.TotalMinutes
	}
	if s.BlockMinutes != nil {
		req.BlockMinutes = *s.BlockMinutes
	}
	w := series.Window(s.Window)
	req.Window = &w

	preview, err := e.series.Plan(ctx, t.backend, req, t.now)
	if err != nil {
		return e.fail(t.log, "plan series", err)
	}
	t.log.Debug("series planned",
		logx.String("series", req.Title),
		logx.Int("blocks", len(preview.Blocks)),
		logx.Int("missing", preview.Missing))

	if len(preview.Blocks) == 0 {
		return say(fmt.Sprintf("I could not find any free %d-minute blocks before %s. Try a later deadline, shorter blocks or allow weekends.",
			req.BlockMinutes, deadline.Format("02.01 15:04"))), nil
	}

	t.state.SetPending(&session.SeriesConfirm{Preview: preview})
	return Reply{
		Text: seriesPreviewText(preview),
		Buttons: []Button{
			{Label: "Create blocks", Action: ActionSeriesConfirm},
			{Label: "Cancel", Action: ActionSeriesCancel},
		},
	}, nil
}

func seriesPreviewText(p *series.Preview) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Plan for %q, deadline %s:\n", p.Request.Title, p.Request.Deadline.Format("Mon 02.01 15:04"))
	for _, blk := range p.Blocks {
		fmt.Fprintf(&b, "- %s: %s\n", blk.Label, blk.Start.Format("Mon 02.01 15:04")+"-"+blk.End.Format("15:04"))
	}
	for _, w := range p.Warnings {
		b.WriteString("Note: " + sentence(w) + "\n")
	}
	b.WriteString("Create these blocks?")
	return b.String()
}

func (e *Engine) commitSeries(ctx context.Context, t *turn) (Reply, error) {
	c, err := t.state.PopSeries()
	if err != nil {
		return e.fail(t.log, "commit series", err)
	}

	total := len(c.Preview.Blocks)
	res, err := e.series.Commit(ctx, t.backend, t.user, c.Preview)
	var partial *series.CommitError
	if errors.As(err, &partial) {
		t.log.Error("series partially created",
			logx.Int("created", len(partial.Created)),
			logx.Int("total", total),
			logx.Err(partial.Err))
		return say(fmt.Sprintf("Created %d of %d blocks before the calendar failed. The created blocks were kept; plan the rest again later.",
			len(partial.Created), total)), nil
	}
	if err != nil {
		return e.fail(t.log, "commit series", err)
	}

	t.log.Info("series created", logx.Int64("plan", res.PlanID), logx.Int("blocks", len(res.Created)))
	msg := fmt.Sprintf("Created %d blocks for %q.", len(res.Created), c.Preview.Request.Title)
	if res.DeadlineLink != nil {
		msg += " The deadline is marked in your calendar."
	}
	return say(msg), nil
}

func (e *Engine) cancelSeries(t *turn) (Reply, error) {
	if _, err := t.state.PopSeries(); err != nil {
		return say("There is no plan waiting for confirmation."), nil
	}
	return say("Okay, the plan was discarded."), nil
}
