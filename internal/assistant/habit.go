package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/habit"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/intent"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/logx"
)

func (e *Engine) setupHabit(ctx context.Context, t *turn, a intent.Analysis) (Reply, error) {
	h := a.Habit
	switch {
	case h == nil || strings.TrimSpace(h.Name) == "":
		return say("Which habit would you like to build?"), nil
	case h.DurationMinutes == nil:
		return say(fmt.Sprintf("How long should each %s session be?", h.Name)), nil
	case h.SessionsPerWeek == nil:
		return say(fmt.Sprintf("How many times a week do you want to do %s?", h.Name)), nil
	}

	res, err := e.habits.Schedule(ctx, t.backend, t.user, habit.Setup{
		Name:            strings.TrimSpace(h.Name),
		DurationMinutes: *h.DurationMinutes,
		Window:          h.Window,
		SessionsPerWeek: *h.SessionsPerWeek,
		FixedTime:       h.FixedTime,
	}, t.now)
	if err != nil {
		return e.fail(t.log, "setup habit", err)
	}
	t.log.Info("habit scheduled",
		logx.String("habit", h.Name),
		logx.Bool("recurring", res.Recurring),
		logx.Int("events", len(res.Events)))

	var b strings.Builder
	fmt.Fprintf(&b, "%s is scheduled, %s:", h.Name, res.Cadence)
	for _, ev := range res.Events {
		b.WriteString("\n" + eventLine(ev))
	}
	return say(b.String()), nil
}
