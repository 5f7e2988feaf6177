package llm

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const defaultLMStudioBaseURL = "http://localhost:1234/v1"

// LMStudioClient talks to a local LM Studio server.
type LMStudioClient struct {
	completions
	baseURL string
}

// NewLMStudioClient creates an LM Studio client. LM Studio ignores the key;
// a placeholder is sent when none is configured.
func NewLMStudioClient(model, baseURL, apiKey string) (*LMStudioClient, error) {
	if strings.TrimSpace(model) == "" {
		return nil, errors.New("lm studio model is required")
	}
	if baseURL == "" {
		baseURL = defaultLMStudioBaseURL
	}
	for _, env := range []string{"LMSTUDIO_API_KEY", "OPENAI_API_KEY"} {
		if apiKey == "" {
			apiKey = os.Getenv(env)
		}
	}
	if apiKey == "" {
		apiKey = "lm-studio"
	}

	client := openai.NewClient(option.WithBaseURL(baseURL), option.WithAPIKey(apiKey))
	return &LMStudioClient{
		completions: completions{client: client, model: model, name: ProviderLMStudio},
		baseURL:     baseURL,
	}, nil
}

// Chat sends messages and returns the reply text.
func (c *LMStudioClient) Chat(ctx context.Context, messages []Message) (string, error) {
	return c.chat(ctx, messages)
}

// ChatJSON sends messages and decodes the JSON reply into result.
func (c *LMStudioClient) ChatJSON(ctx context.Context, messages []Message, result any) error {
	return c.chatJSON(ctx, messages, result)
}
