package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Mockaj/duvo/internal/config"
	"github.com/Mockaj/duvo/internal/conversation"
	"github.com/Mockaj/duvo/internal/llm"
	"github.com/Mockaj/duvo/internal/tools"
)

const defaultSystemPrompt = "You are a helpful assistant with web search capabilities."

// ToolMetrics records tool invocation outcomes.
type ToolMetrics interface {
	RecordToolInvocation(tool, status string)
}

// Agent runs one chat turn against the primary model, executing tool calls
// until the model produces a final text answer.
type Agent struct {
	registry *llm.Registry
	tools    *tools.Registry
	cfg      config.AgentConfig
	logger   *zap.Logger
	metrics  ToolMetrics
}

// New creates an Agent.
func New(registry *llm.Registry, toolReg *tools.Registry, cfg config.AgentConfig, logger *zap.Logger, metrics ToolMetrics) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Agent{registry: registry, tools: toolReg, cfg: cfg, logger: logger, metrics: metrics}
}

// Turn is a single chat exchange request.
type Turn struct {
	SessionID string
	Prompt    string
	History   []conversation.Message
}

// Result carries the final answer and the full post-turn history.
// Messages always extends the input history; callers replace their stored
// copy with it wholesale.
type Result struct {
	Output   string
	Messages []conversation.Message
}

// Run executes the turn. Tool errors are fed back to the model as tool
// returns rather than failing the turn.
func (a *Agent) Run(ctx context.Context, turn Turn) (Result, error) {
	if strings.TrimSpace(turn.Prompt) == "" {
		return Result{}, fmt.Errorf("prompt is required")
	}

	provider, route, err := a.registry.Resolve("")
	if err != nil {
		return Result{}, err
	}

	system := a.cfg.SystemPrompt
	if strings.TrimSpace(system) == "" {
		system = defaultSystemPrompt
	}

	chatMsgs := toChatMessages(turn.History)
	chatMsgs = append(chatMsgs, llm.ChatMessage{Role: llm.RoleUser, Content: turn.Prompt})

	messages := append([]conversation.Message{}, turn.History...)
	messages = append(messages, &conversation.Request{
		Parts: []conversation.RequestPart{conversation.PromptPart{Text: turn.Prompt}},
	})

	var defs []llm.ToolDefinition
	if a.tools != nil {
		defs = a.tools.Definitions()
	}

	maxRounds := a.cfg.MaxToolRounds
	if maxRounds <= 0 {
		maxRounds = 1
	}

	for round := 0; round <= maxRounds; round++ {
		resp, err := provider.Chat(ctx, llm.ChatRequest{
			Model:       route.Model,
			System:      system,
			Messages:    chatMsgs,
			Tools:       defs,
			MaxTokens:   pickMaxTokens(a.cfg.MaxTokens, route.MaxTokens),
			Temperature: pickTemperature(a.cfg.Temperature, route.Temperature),
		})
		if err != nil {
			return Result{}, fmt.Errorf("chat model: %w", err)
		}

		var parts []conversation.ResponsePart
		if resp.Message.Content != "" {
			parts = append(parts, conversation.TextPart{Text: resp.Message.Content})
		}
		for _, tc := range resp.Message.ToolCalls {
			parts = append(parts, conversation.ToolCallPart{
				ID:        tc.ID,
				Name:      tc.Name,
				Arguments: tc.Arguments,
			})
		}
		messages = append(messages, &conversation.Response{Parts: parts})
		chatMsgs = append(chatMsgs, resp.Message)

		if len(resp.Message.ToolCalls) == 0 {
			return Result{Output: resp.Message.Content, Messages: messages}, nil
		}

		returns := make([]conversation.RequestPart, 0, len(resp.Message.ToolCalls))
		for _, tc := range resp.Message.ToolCalls {
			payload := a.invokeTool(ctx, turn.SessionID, tc)
			part := conversation.ToolReturnPart{
				ToolCallID: tc.ID,
				ToolName:   tc.Name,
				Content:    payload,
			}
			returns = append(returns, part)
			chatMsgs = append(chatMsgs, llm.ChatMessage{
				Role:       llm.RoleTool,
				Content:    part.ContentText(),
				ToolCallID: tc.ID,
				ToolName:   tc.Name,
			})
		}
		messages = append(messages, &conversation.Request{Parts: returns})
	}

	return Result{}, fmt.Errorf("no final answer after %d tool rounds", maxRounds)
}

func (a *Agent) invokeTool(ctx context.Context, sessionID string, tc llm.ToolCall) any {
	if a.tools == nil {
		a.metricToolResult(tc.Name, "error")
		return map[string]any{"error": "no tools available"}
	}

	payload, err := a.tools.Invoke(ctx, tc.Name, tc.Arguments)
	if err != nil {
		a.logger.Warn("tool invocation failed",
			zap.String("session_id", sessionID),
			zap.String("tool", tc.Name),
			zap.Error(err))
		a.metricToolResult(tc.Name, "error")
		return map[string]any{"error": err.Error()}
	}

	a.metricToolResult(tc.Name, "ok")
	return payload
}

func (a *Agent) metricToolResult(tool, status string) {
	if a.metrics != nil {
		a.metrics.RecordToolInvocation(tool, status)
	}
}

// toChatMessages flattens the typed history into provider chat messages.
func toChatMessages(history []conversation.Message) []llm.ChatMessage {
	out := make([]llm.ChatMessage, 0, len(history))
	for _, msg := range history {
		switch m := msg.(type) {
		case *conversation.Request:
			for _, part := range m.Parts {
				switch p := part.(type) {
				case conversation.PromptPart:
					out = append(out, llm.ChatMessage{Role: llm.RoleUser, Content: p.Text})
				case conversation.ToolReturnPart:
					out = append(out, llm.ChatMessage{
						Role:       llm.RoleTool,
						Content:    p.ContentText(),
						ToolCallID: p.ToolCallID,
						ToolName:   p.ToolName,
					})
				}
			}
		case *conversation.Response:
			cm := llm.ChatMessage{Role: llm.RoleAssistant}
			for _, part := range m.Parts {
				switch p := part.(type) {
				case conversation.TextPart:
					if cm.Content != "" {
						cm.Content += "\n"
					}
					cm.Content += p.Text
				case conversation.ToolCallPart:
					cm.ToolCalls = append(cm.ToolCalls, llm.ToolCall{
						ID:        p.ID,
						Name:      p.Name,
						Arguments: json.RawMessage(p.Arguments),
					})
				}
			}
			out = append(out, cm)
		}
	}
	return out
}

func pickTemperature(agentTemp, routeTemp float64) float64 {
	if agentTemp > 0 {
		return agentTemp
	}
	if routeTemp > 0 {
		return routeTemp
	}
	return 0.2
}

func pickMaxTokens(agentMax, routeMax int) int {
	if agentMax > 0 {
		return agentMax
	}
	if routeMax > 0 {
		return routeMax
	}
	return 0
}
