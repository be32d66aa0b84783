package eval

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Mockaj/duvo/internal/llm"
)

const judgeInstructions = `You are an expert evaluator of text summaries. ` +
	`Given raw source data and a summary produced from that data, ` +
	`evaluate the summary on these criteria:
- Accuracy: Does the summary faithfully represent the source data?
- Completeness: Are the key points from the source included?
- Conciseness: Is the summary free of unnecessary filler?
- Relevance: Does the summary focus on what matters most?

Respond with a single JSON object of the form {"score": <integer 0-100>, "reasoning": "<brief explanation>"} and nothing else.`

const sourceDelimiter = "\n\n---\n\n"

// Score is the judge's structured verdict.
type Score struct {
	Score     int    `json:"score"`
	Reasoning string `json:"reasoning"`
}

// Judge scores a summary against its source evidence using a secondary,
// independently configured model.
type Judge struct {
	registry *llm.Registry
	model    string
	timeout  time.Duration
}

// NewJudge creates a Judge. model selects the logical model route; empty
// means the registry default. timeout bounds each invocation (0 = none).
func NewJudge(registry *llm.Registry, model string, timeout time.Duration) *Judge {
	return &Judge{registry: registry, model: model, timeout: timeout}
}

// Evaluate invokes the judge model over the evidence bundle. Malformed output
// and out-of-range scores are failures; scores are never clamped.
func (j *Judge) Evaluate(ctx context.Context, sources []string, summary string) (Score, error) {
	provider, route, err := j.registry.Resolve(j.model)
	if err != nil {
		return Score{}, err
	}

	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	prompt := fmt.Sprintf("## Source Data\n%s\n\n## Summary\n%s",
		strings.Join(sources, sourceDelimiter), summary)

	resp, err := provider.Chat(ctx, llm.ChatRequest{
		Model:       route.Model,
		System:      judgeInstructions,
		Messages:    []llm.ChatMessage{{Role: llm.RoleUser, Content: prompt}},
		MaxTokens:   route.MaxTokens,
		Temperature: route.Temperature,
	})
	if err != nil {
		return Score{}, fmt.Errorf("judge model: %w", err)
	}

	var score Score
	if err := decodeStructured(resp.Message.Content, &score); err != nil {
		return Score{}, fmt.Errorf("judge output malformed: %w", err)
	}
	if score.Score < 0 || score.Score > 100 {
		return Score{}, fmt.Errorf("judge score %d out of range [0,100]", score.Score)
	}

	return score, nil
}
