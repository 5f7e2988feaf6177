package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
)

var errNoChoices = errors.New("no response choices returned")

// completions talks to any OpenAI-compatible chat endpoint.
type completions struct {
	client openai.Client
	model  string
	name   string
}

func (c completions) chat(ctx context.Context, messages []Message) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: toOpenAIMessages(messages),
	})
	if err != nil {
		return "", fmt.Errorf("%s chat completion: %w", c.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", errNoChoices
	}
	return resp.Choices[0].Message.Content, nil
}

func (c completions) chatJSON(ctx context.Context, messages []Message, result any) error {
	reply, err := c.chat(ctx, messages)
	if err != nil {
		return err
	}
	return decodeJSON(reply, result)
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, len(messages))
	for i, msg := range messages {
		switch msg.Role {
		case "system":
			out[i] = openai.SystemMessage(msg.Content)
		case "assistant":
			out[i] = openai.AssistantMessage(msg.Content)
		default:
			out[i] = openai.UserMessage(msg.Content)
		}
	}
	return out
}
