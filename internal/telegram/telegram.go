// Package telegram serves the assistant as a Telegram bot.
package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/assistant"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/logx"
)

const (
	greeting = "Hi! I manage your Google Calendar. Tell me things like \"gym tomorrow at 18:00\", " +
		"\"what do I have on Friday?\", \"find an hour for reading this week\" or " +
		"\"prepare for the exam by March 20\". Say \"start over\" at any time to reset."
	textSlowDown = "One moment please, I am still on your previous message."

	maxMessageLength = 4096
	buttonsPerRow    = 2
	burst            = 3
)

// Handler answers user turns.
type Handler interface {
	HandleText(ctx context.Context, user int64, text string) (assistant.Reply, error)
	HandleAction(ctx context.Context, user int64, action string) (assistant.Reply, error)
}

// Options configures the bot.
type Options struct {
	Token       string
	PollTimeout time.Duration
	// RatePerSecond limits turns per user. Zero disables the limit.
	RatePerSecond float64
}

// Bot polls Telegram and forwards updates to a Handler.
type Bot struct {
	bot     *tele.Bot
	handler Handler
	log     logx.Logger

	limit rate.Limit
	mu    sync.Mutex
	users map[int64]*rate.Limiter
}

// New creates a Bot. It contacts Telegram to validate the token.
func New(opts Options, h Handler, log logx.Logger) (*Bot, error) {
	if strings.TrimSpace(opts.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	timeout := opts.PollTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	b, err := tele.NewBot(tele.Settings{
		Token:  opts.Token,
		Poller: &tele.LongPoller{Timeout: timeout},
		OnError: func(err error, c tele.Context) {
			log.Error("telegram update failed", logx.Err(err))
		},
	})
	if err != nil {
		return nil, err
	}
	return &Bot{
		bot:     b,
		handler: h,
		log:     log,
		limit:   limitOf(opts.RatePerSecond),
		users:   make(map[int64]*rate.Limiter),
	}, nil
}

func limitOf(rps float64) rate.Limit {
	if rps <= 0 {
		return rate.Inf
	}
	return rate.Limit(rps)
}

// Run polls until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	b.bot.Handle("/start", func(c tele.Context) error {
		return c.Send(greeting)
	})
	b.bot.Handle(tele.OnText, func(c tele.Context) error {
		if c.Sender() == nil {
			return nil
		}
		user := c.Sender().ID
		if !b.allow(user) {
			return c.Send(textSlowDown)
		}
		reply, err := b.handler.HandleText(ctx, user, c.Text())
		if err != nil {
			return err
		}
		return b.send(c, reply)
	})
	b.bot.Handle(tele.OnCallback, func(c tele.Context) error {
		cb := c.Callback()
		if cb == nil || c.Sender() == nil {
			return nil
		}
		if err := c.Respond(); err != nil {
			b.log.Debug("callback ack failed", logx.Err(err))
		}
		user := c.Sender().ID
		if !b.allow(user) {
			return c.Send(textSlowDown)
		}

		// A pressed keyboard is spent.
		if m := c.Message(); m != nil {
			if _, err := b.bot.EditReplyMarkup(m, nil); err != nil {
				b.log.Debug("removing keyboard failed", logx.Err(err))
			}
		}

		reply, err := b.handler.HandleAction(ctx, user, strings.TrimSpace(cb.Data))
		if err != nil {
			return err
		}
		return b.send(c, reply)
	})

	go func() {
		<-ctx.Done()
		b.bot.Stop()
	}()
	b.log.Info("polling started", logx.String("bot", b.bot.Me.Username))
	b.bot.Start()
	b.log.Info("polling stopped")
	return nil
}

func (b *Bot) allow(user int64) bool {
	b.mu.Lock()
	l, ok := b.users[user]
	if !ok {
		l = rate.NewLimiter(b.limit, burst)
		b.users[user] = l
	}
	b.mu.Unlock()
	return l.Allow()
}

func (b *Bot) send(c tele.Context, reply assistant.Reply) error {
	chunks := split(reply.Text, maxMessageLength)
	for i, chunk := range chunks {
		if i == len(chunks)-1 && len(reply.Buttons) > 0 {
			return c.Send(chunk, markup(reply.Buttons))
		}
		if err := c.Send(chunk); err != nil {
			return err
		}
	}
	return nil
}

// markup lays buttons out two per row.
func markup(buttons []assistant.Button) *tele.ReplyMarkup {
	rm := &tele.ReplyMarkup{}
	btns := make([]tele.Btn, len(buttons))
	for i, b := range buttons {
		btns[i] = tele.Btn{Text: b.Label, Data: b.Action}
	}
	rm.Inline(rm.Split(buttonsPerRow, btns)...)
	return rm
}

// split cuts text into pieces of at most n bytes, preferring line breaks.
func split(text string, n int) []string {
	if text == "" {
		return []string{" "}
	}
	var out []string
	for len(text) > n {
		cut := strings.LastIndex(text[:n], "\n")
		if cut <= 0 {
			cut = n
			// Do not split a multi-byte rune.
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
		}
		out = append(out, text[:cut])
		text = strings.TrimPrefix(text[cut:], "\n")
	}
	return append(out, text)
}
