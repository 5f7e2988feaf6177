package assistant

import (
	"context"

	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/analytics"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/intent"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/logx"
)

func (e *Engine) report(ctx context.Context, t *turn, _ intent.Analysis) (Reply, error) {
	opts := analytics.Options{
		Days:      e.defaults.ReportDays,
		Now:       t.now,
		Insighter: e.insighter,
	}
	snap, err := analytics.Build(ctx, t.backend, opts)
	if err != nil && opts.Insighter != nil && ctx.Err() == nil {
		// The numbers are still worth sending without the narrative.
		t.log.Warn("report insight failed", logx.Err(err))
		opts.Insighter = nil
		snap, err = analytics.Build(ctx, t.backend, opts)
	}
	if err != nil {
		return e.fail(t.log, "build report", err)
	}

	text := snap.Format()
	if snap.Insight != "" {
		text += "\n\n" + snap.Insight
	}
	return say(text), nil
}
