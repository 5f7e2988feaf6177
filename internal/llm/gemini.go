package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.0-flash"

// ErrMissingAPIKey is returned when the Gemini provider has no API key.
var ErrMissingAPIKey = errors.New("gemini API key is missing")

// GeminiClient implements the Client interface using the Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini client. An empty apiKey falls back to
// the GEMINI_API_KEY environment variable.
func NewGeminiClient(ctx context.Context, model, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &GeminiClient{client: client, model: model}, nil
}

// Chat sends messages to Gemini and returns the response text.
func (c *GeminiClient) Chat(ctx context.Context, messages []Message) (string, error) {
	return c.generate(ctx, messages, "")
}

// ChatJSON asks Gemini for a JSON response and decodes it into result.
func (c *GeminiClient) ChatJSON(ctx context.Context, messages []Message, result any) error {
	content, err := c.generate(ctx, messages, "application/json")
	if err != nil {
		return err
	}
	return decodeJSON(content, result)
}

func (c *GeminiClient) generate(ctx context.Context, messages []Message, mime string) (string, error) {
	system, contents := toGeminiContents(messages)

	cfg := &genai.GenerateContentConfig{ResponseMIMEType: mime}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from %s", c.model)
	}
	return text, nil
}

// toGeminiContents splits system messages out into a single instruction,
// since Gemini takes the system prompt separately from the turns.
func toGeminiContents(messages []Message) (string, []*genai.Content) {
	var system []string
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case "system":
			system = append(system, msg.Content)
		case "assistant":
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}
	return strings.Join(system, "\n\n"), contents
}
