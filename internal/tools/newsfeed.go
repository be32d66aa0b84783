package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// NewsSearch shells out to an external news-search program (a Hacker News
// client in the default deployment). The configured argv is executed with the
// query appended as the final argument; stdout is the tool payload.
type NewsSearch struct {
	toolName string
	command  []string
	timeout  time.Duration
}

// NewNewsSearch builds a NewsSearch tool. toolName becomes the name the model
// sees, which is also what the evaluation allow-list matches against.
func NewNewsSearch(toolName string, command []string, timeout time.Duration) (*NewsSearch, error) {
	if strings.TrimSpace(toolName) == "" {
		return nil, errors.New("news tool name is required")
	}
	if len(command) == 0 {
		return nil, errors.New("news command is required")
	}
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &NewsSearch{toolName: toolName, command: command, timeout: timeout}, nil
}

func (n *NewsSearch) Name() string {
	return n.toolName
}

func (n *NewsSearch) Description() string {
	return "Search recent Hacker News stories and discussions for a topic. Returns raw story data."
}

func (n *NewsSearch) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {"type": "string", "description": "Topic to search news for"}
		},
		"required": ["query"]
	}`)
}

type newsSearchArgs struct {
	Query string `json:"query"`
}

func (n *NewsSearch) Invoke(ctx context.Context, args json.RawMessage) (any, error) {
	var a newsSearchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("%s args: %w", n.toolName, err)
	}
	if strings.TrimSpace(a.Query) == "" {
		return nil, fmt.Errorf("%s: query is required", n.toolName)
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	argv := append(append([]string{}, n.command[1:]...), a.Query)
	cmd := exec.CommandContext(ctx, n.command[0], argv...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("%s: %s", n.toolName, msg)
	}

	out := strings.TrimSpace(stdout.String())
	if out == "" {
		return "no stories found", nil
	}

	// Structured output passes through as-is so downstream consumers see the
	// original shape; anything else is returned as raw text.
	var structured any
	if err := json.Unmarshal([]byte(out), &structured); err == nil {
		switch structured.(type) {
		case map[string]any, []any:
			return structured, nil
		}
	}
	return out, nil
}
