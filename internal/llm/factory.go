package llm

import (
	"context"
	"fmt"
	"strings"
)

const (
	ProviderCopilot  = "copilot"
	ProviderOllama   = "ollama"
	ProviderLMStudio = "lmstudio"
	ProviderGemini   = "gemini"
)

// Settings selects and configures a provider.
type Settings struct {
	Provider string
	Model    string
	BaseURL  string
	APIKey   string
}

// NewClient creates an LLM client based on provider configuration.
func NewClient(ctx context.Context, s Settings) (Client, error) {
	switch strings.ToLower(strings.TrimSpace(s.Provider)) {
	case "", ProviderGemini:
		return NewGeminiClient(ctx, s.Model, s.APIKey)
	case ProviderCopilot:
		return NewCopilotClient(ctx, s.Model)
	case ProviderOllama:
		return NewOllamaClient(s.Model, s.BaseURL)
	case ProviderLMStudio, "lm-studio", "llmstudio":
		return NewLMStudioClient(s.Model, s.BaseURL, s.APIKey)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", s.Provider)
	}
}
