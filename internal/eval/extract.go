package eval

import (
	"strings"

	"github.com/Mockaj/duvo/internal/conversation"
)

// Allowlist matches qualifying tool names case-insensitively. The set is
// explicit: a tool return only counts as evidence when its tool name is
// listed, so unrelated tools sharing a substring never qualify.
type Allowlist map[string]struct{}

// NewAllowlist builds an Allowlist from configured tool names.
func NewAllowlist(names []string) Allowlist {
	set := make(Allowlist, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		set[strings.ToLower(name)] = struct{}{}
	}
	return set
}

// Matches reports whether toolName is on the allow-list.
func (a Allowlist) Matches(toolName string) bool {
	_, ok := a[strings.ToLower(toolName)]
	return ok
}

// ToolData collects the canonical string contents of every qualifying tool
// return, in their original order across the whole history. An empty result
// is the normal "nothing to evaluate" signal, not an error.
func ToolData(history []conversation.Message, allowed Allowlist) []string {
	var data []string
	for _, msg := range history {
		req, ok := msg.(*conversation.Request)
		if !ok {
			continue
		}
		for _, part := range req.Parts {
			ret, ok := part.(conversation.ToolReturnPart)
			if !ok {
				continue
			}
			if allowed.Matches(ret.ToolName) {
				data = append(data, ret.ContentText())
			}
		}
	}
	return data
}

// Summary returns the most recent model-authored text, scanning the history
// backwards. Responses holding only tool calls are skipped so the scan keeps
// going until real text is found.
func Summary(history []conversation.Message) (string, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		resp, ok := history[i].(*conversation.Response)
		if !ok {
			continue
		}
		for _, part := range resp.Parts {
			if text, ok := part.(conversation.TextPart); ok {
				return text.Text, true
			}
		}
	}
	return "", false
}
