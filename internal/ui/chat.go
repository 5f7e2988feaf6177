package ui

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/assistant"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/session"
)

// turnHandler is the part of the assistant the chat loop talks to.
type turnHandler interface {
	HandleText(ctx context.Context, user int64, text string) (assistant.Reply, error)
	HandleAction(ctx context.Context, user int64, action string) (assistant.Reply, error)
}

func (a *App) chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Talk to the assistant",
		Long: `Start an interactive conversation with the assistant.

Type requests in plain language. When a reply offers choices, type !1, !2
and so on to pick one. Type "quit" to leave.

Example:
  calassist chat
  > dentist on Friday at 15:00
  > find me two hours for reading this week
  > put reading there`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.chat(cmd.Context())
		},
	}
}

func (a *App) chat(ctx context.Context) error {
	engine, err := a.engine(ctx, session.NewStore(a.log))
	if err != nil {
		return err
	}
	if interactive() {
		fmt.Fprintln(a.out, formatMuted("Tell me what to plan. !n picks a choice, quit leaves."))
	}
	return a.converse(ctx, engine)
}

// converse reads turns from a.in until EOF or quit.
func (a *App) converse(ctx context.Context, h turnHandler) error {
	scanner := bufio.NewScanner(a.in)
	var last assistant.Reply
	for {
		if interactive() {
			fmt.Fprint(a.out, formatHeader("> "))
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit", "/quit":
			return nil
		}

		var (
			reply assistant.Reply
			err   error
		)
		if action, ok := pickButton(line, last.Buttons); ok {
			reply, err = h.HandleAction(ctx, a.user, action)
		} else {
			reply, err = h.HandleText(ctx, a.user, line)
		}
		if err != nil {
			return err
		}
		last = reply
		printReply(a.out, reply)
	}
}

// pickButton resolves "!n" against the buttons of the previous reply.
func pickButton(line string, buttons []assistant.Button) (string, bool) {
	rest, ok := strings.CutPrefix(line, "!")
	if !ok {
		return "", false
	}
	n, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil || n < 1 || n > len(buttons) {
		return "", false
	}
	return buttons[n-1].Action, true
}
