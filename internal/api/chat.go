package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Mockaj/duvo/internal/agent"
	"github.com/Mockaj/duvo/internal/conversation"
)

// Runner executes one chat turn.
type Runner interface {
	Run(ctx context.Context, turn agent.Turn) (agent.Result, error)
}

// Trigger schedules post-turn evaluation without blocking the caller.
type Trigger interface {
	MaybeEvaluate(sessionID string, history []conversation.Message)
}

// ChatMetrics records chat turn outcomes.
type ChatMetrics interface {
	RecordChatTurn(status string, duration time.Duration)
}

// ChatRequest is the POST /api/chat payload.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// ChatResponse is the POST /api/chat reply.
type ChatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
}

// ChatHandler serves POST /api/chat: one agent turn, history update, and a
// fire-and-forget evaluation trigger. The response never waits on evaluation.
type ChatHandler struct {
	Runner  Runner
	History conversation.Store
	Trigger Trigger
	Logger  *zap.Logger
	Metrics ChatMetrics
}

func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.record("bad_request", start)
		http.Error(w, fmt.Sprintf("invalid request: %v", err), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		h.record("bad_request", start)
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		req.SessionID = uuid.NewString()
	}

	history := h.History.Get(req.SessionID)
	result, err := h.Runner.Run(r.Context(), agent.Turn{
		SessionID: req.SessionID,
		Prompt:    req.Message,
		History:   history,
	})
	if err != nil {
		h.logger().Error("chat turn failed",
			zap.String("session_id", req.SessionID),
			zap.Error(err))
		h.record("error", start)
		http.Error(w, "agent error", http.StatusBadGateway)
		return
	}

	h.History.Put(req.SessionID, result.Messages)
	if h.Trigger != nil {
		h.Trigger.MaybeEvaluate(req.SessionID, result.Messages)
	}

	h.record("ok", start)
	writeJSON(w, http.StatusOK, ChatResponse{
		Response:  result.Output,
		SessionID: req.SessionID,
	})
}

func (h *ChatHandler) record(status string, start time.Time) {
	if h.Metrics != nil {
		h.Metrics.RecordChatTurn(status, time.Since(start))
	}
}

func (h *ChatHandler) logger() *zap.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return zap.NewNop()
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
