package ui

import (
	"context"
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/logx"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/session"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/telegram"
)

func (a *App) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot",
		Long: `Serve the assistant as a Telegram bot until interrupted. Every Telegram
user gets a calendar and a conversation of their own; idle conversations
are dropped on the [session] schedule.

The bot token comes from [telegram] token or TELEGRAM_BOT_TOKEN.

Example:
  calassist serve --debug`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *App) serve(ctx context.Context) error {
	sessions := session.NewStore(a.log)
	engine, err := a.engine(ctx, sessions)
	if err != nil {
		return err
	}

	sweeper, err := session.NewSweeper(sessions, a.config.Session.SweepSpec, a.config.IdleTTL())
	if err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", a.config.Session.SweepSpec, err)
	}

	bot, err := telegram.New(telegram.Options{
		Token:         a.config.Telegram.Token,
		PollTimeout:   a.config.PollTimeout(),
		RatePerSecond: a.config.Telegram.RatePerSecond,
	}, engine, a.log)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sweeper.Run(ctx)
	}()

	a.log.Info("serving assistant", logx.String("backend", a.config.Calendar.Backend))
	err = bot.Run(ctx)
	cancel()
	wg.Wait()
	a.log.Info("assistant stopped")
	return err
}
