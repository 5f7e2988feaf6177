package llm

import (
	"context"
	"fmt"
	"strings"
)

const evaluatorSystemPrompt = `You are a minimalist productivity analyst. Output ONLY the exact format shown - no markdown, no extra text. Be extremely concise.`

const insightPromptTemplate = `Read this calendar usage report and output EXACTLY this format (no markdown, no code blocks):

THEME: [ 2-4 word theme ]

⚖️  BALANCE: One sentence on how time splits across categories.
🔥 LOAD: One sentence on the busiest day or long blocks without breaks.
➜  One specific scheduling change for next week.

Report:
%s

Rules:
- Keep each line under 80 characters
- Be specific with hours and days from the report
- If nothing stands out for a line, omit it
- Output plain text only`

// Evaluator turns an analytics summary into a short narrative.
type Evaluator struct {
	client Client
}

// NewEvaluator creates a new Evaluator with the given LLM client.
func NewEvaluator(client Client) *Evaluator {
	return &Evaluator{client: client}
}

// Insight sends a formatted usage summary to the model.
func (e *Evaluator) Insight(ctx context.Context, summary string) (string, error) {
	if strings.TrimSpace(summary) == "" {
		return "", nil
	}
	out, err := e.client.Chat(ctx, []Message{
		{Role: "system", Content: evaluatorSystemPrompt},
		{Role: "user", Content: fmt.Sprintf(insightPromptTemplate, summary)},
	})
	if err != nil {
		return "", fmt.Errorf("evaluating usage: %w", err)
	}
	return strings.TrimSpace(out), nil
}
