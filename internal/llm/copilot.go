package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	copilotTokenURL = "https://api.github.com/copilot_internal/v2/token"
	copilotBaseURL  = "https://api.githubcopilot.com"

	// DefaultCopilotModel is used when no model is configured.
	DefaultCopilotModel = "gpt-4o"
)

// CopilotClient classifies through GitHub Copilot's chat endpoint.
type CopilotClient struct {
	completions
}

// NewCopilotClient exchanges the local GitHub token for a Copilot session
// token and returns a client bound to it.
func NewCopilotClient(ctx context.Context, model string) (*CopilotClient, error) {
	if model == "" {
		model = DefaultCopilotModel
	}

	github, err := githubToken()
	if err != nil {
		return nil, err
	}
	httpClient := &http.Client{Timeout: 30 * time.Second}
	session, err := copilotSession(ctx, httpClient, github)
	if err != nil {
		return nil, fmt.Errorf("exchanging Copilot token: %w", err)
	}

	client := openai.NewClient(
		option.WithBaseURL(copilotBaseURL),
		option.WithAPIKey(session),
		option.WithHTTPClient(httpClient),
		option.WithHeader("Editor-Version", "calassist/1.0"),
		option.WithHeader("Copilot-Integration-Id", "vscode-chat"),
	)
	return &CopilotClient{completions{client: client, model: model, name: ProviderCopilot}}, nil
}

// Chat sends messages and returns the reply text.
func (c *CopilotClient) Chat(ctx context.Context, messages []Message) (string, error) {
	return c.chat(ctx, messages)
}

// ChatJSON sends messages and decodes the JSON reply into result.
func (c *CopilotClient) ChatJSON(ctx context.Context, messages []Message, result any) error {
	return c.chatJSON(ctx, messages, result)
}

func copilotSession(ctx context.Context, httpClient *http.Client, github string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, copilotTokenURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Token "+github)
	req.Header.Set("User-Agent", "calassist/1.0")

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decoding token: %w", err)
	}
	if payload.Token == "" {
		return "", fmt.Errorf("empty token in response")
	}
	return payload.Token, nil
}

// githubToken finds a GitHub OAuth token in GITHUB_TOKEN or in the files
// the Copilot editor plugins write.
func githubToken() (string, error) {
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		return token, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config directory: %w", err)
	}
	for _, name := range []string{"hosts.json", "apps.json"} {
		if token := tokenFromPluginFile(filepath.Join(dir, "github-copilot", name)); token != "" {
			return token, nil
		}
	}
	return "", fmt.Errorf("GitHub token not found: set GITHUB_TOKEN or sign in to Copilot in your editor")
}

func tokenFromPluginFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	var hosts map[string]struct {
		OAuthToken string `json:"oauth_token"`
	}
	if err := json.Unmarshal(data, &hosts); err != nil {
		return ""
	}
	for host, entry := range hosts {
		if strings.Contains(host, "github.com") && entry.OAuthToken != "" {
			return entry.OAuthToken
		}
	}
	return ""
}
