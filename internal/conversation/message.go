package conversation

import (
	"encoding/json"
	"fmt"
)

// Message is one entry in a session's ordered history: either a Request
// carrying user input and tool returns, or a Response authored by the model.
// Messages are produced by the agent run and read everywhere else.
type Message interface {
	isMessage()
}

// Request groups the parts sent to the model on one exchange.
type Request struct {
	Parts []RequestPart
}

// Response groups the parts the model produced on one exchange.
type Response struct {
	Parts []ResponsePart
}

func (*Request) isMessage()  {}
func (*Response) isMessage() {}

// RequestPart is either a user prompt or a tool return.
type RequestPart interface {
	isRequestPart()
}

// ResponsePart is either model text or a tool invocation.
type ResponsePart interface {
	isResponsePart()
}

// PromptPart carries user-authored text.
type PromptPart struct {
	Text string
}

// ToolReturnPart carries the output of one tool invocation. Content may be a
// string, a structured value, or an opaque object depending on the tool.
type ToolReturnPart struct {
	ToolCallID string
	ToolName   string
	Content    any
}

func (PromptPart) isRequestPart()     {}
func (ToolReturnPart) isRequestPart() {}

// TextPart carries model-authored free text.
type TextPart struct {
	Text string
}

// ToolCallPart records a tool invocation requested by the model.
type ToolCallPart struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

func (TextPart) isResponsePart()     {}
func (ToolCallPart) isResponsePart() {}

// ContentText returns the canonical string form of the tool return payload:
// strings pass through, everything else is rendered as compact JSON.
func (p ToolReturnPart) ContentText() string {
	switch v := p.Content.(type) {
	case string:
		return v
	case json.RawMessage:
		return string(v)
	case nil:
		return ""
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}
