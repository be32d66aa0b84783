package eval

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Mockaj/duvo/internal/conversation"
	"github.com/Mockaj/duvo/internal/llm"
	llmmock "github.com/Mockaj/duvo/internal/llm/mock"
)

func newTestScheduler(t *testing.T, dir string, chatFn func(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error)) *Scheduler {
	t.Helper()
	reg := llm.NewRegistry()
	reg.RegisterProvider("mock", &llmmock.Provider{ChatFn: chatFn})
	reg.RegisterModel("judge", llm.ModelRoute{Provider: "mock", Model: "judge-model"}, true)

	judge := NewJudge(reg, "judge", 0)
	ledger := NewLedger(dir)
	return NewScheduler(judge, ledger, NewAllowlist([]string{"search_hackernews"}), nil, nil)
}

func qualifyingHistory() []conversation.Message {
	return []conversation.Message{
		&conversation.Request{Parts: []conversation.RequestPart{
			conversation.PromptPart{Text: "summarize HN"},
		}},
		&conversation.Response{Parts: []conversation.ResponsePart{
			conversation.ToolCallPart{ID: "t1", Name: "search_hackernews"},
		}},
		&conversation.Request{Parts: []conversation.RequestPart{
			conversation.ToolReturnPart{ToolCallID: "t1", ToolName: "search_hackernews", Content: "Item A..."},
		}},
		&conversation.Response{Parts: []conversation.ResponsePart{
			conversation.TextPart{Text: "Top story is..."},
		}},
	}
}

func TestSchedulerSkipsWithoutEvidence(t *testing.T) {
	dir := t.TempDir()
	var calls atomic.Int32
	sched := newTestScheduler(t, dir, func(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
		calls.Add(1)
		return llm.ChatResponse{}, errors.New("should never be called")
	})

	history := []conversation.Message{
		&conversation.Request{Parts: []conversation.RequestPart{
			conversation.ToolReturnPart{ToolName: "web_search", Content: "plain results"},
		}},
		&conversation.Response{Parts: []conversation.ResponsePart{
			conversation.TextPart{Text: "an answer"},
		}},
	}

	sched.MaybeEvaluate("s2", history)
	sched.Wait()

	require.Zero(t, calls.Load())
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries, "no ledger file must be created")
}

func TestSchedulerSkipsWithoutSummary(t *testing.T) {
	dir := t.TempDir()
	var calls atomic.Int32
	sched := newTestScheduler(t, dir, func(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
		calls.Add(1)
		return llm.ChatResponse{}, errors.New("should never be called")
	})

	history := []conversation.Message{
		&conversation.Request{Parts: []conversation.RequestPart{
			conversation.ToolReturnPart{ToolName: "search_hackernews", Content: "Item A"},
		}},
		&conversation.Response{Parts: []conversation.ResponsePart{
			conversation.ToolCallPart{ID: "t1", Name: "search_hackernews"},
		}},
	}

	sched.MaybeEvaluate("s3", history)
	sched.Wait()

	require.Zero(t, calls.Load())
	_, err := os.Stat(filepath.Join(dir, "s3.json"))
	require.True(t, os.IsNotExist(err))
}

func TestSchedulerRunsOncePerTurnAndAppends(t *testing.T) {
	dir := t.TempDir()
	var calls atomic.Int32
	sched := newTestScheduler(t, dir, func(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
		calls.Add(1)
		return llm.ChatResponse{Message: llm.ChatMessage{
			Role:    llm.RoleAssistant,
			Content: `{"score": 82, "reasoning": "faithful to the source"}`,
		}}, nil
	})

	sched.MaybeEvaluate("s1", qualifyingHistory())
	sched.Wait()

	require.Equal(t, int32(1), calls.Load())

	latest, err := NewLedger(dir).Latest("s1")
	require.NoError(t, err)
	require.Equal(t, "s1", latest.SessionID)
	require.Equal(t, 82, latest.Score)
	require.Equal(t, "faithful to the source", latest.Reasoning)
}

func TestSchedulerJudgeFailureWritesNothing(t *testing.T) {
	dir := t.TempDir()
	sched := newTestScheduler(t, dir, func(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
		return llm.ChatResponse{}, errors.New("judge unavailable")
	})

	sched.MaybeEvaluate("s1", qualifyingHistory())
	sched.Wait()

	_, err := os.Stat(filepath.Join(dir, "s1.json"))
	require.True(t, os.IsNotExist(err), "no partial ledger entry on judge failure")
}

func TestSchedulerConcurrentSameSessionLosesNoUpdates(t *testing.T) {
	dir := t.TempDir()
	sched := newTestScheduler(t, dir, func(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
		return llm.ChatResponse{Message: llm.ChatMessage{
			Role:    llm.RoleAssistant,
			Content: `{"score": 50, "reasoning": "r"}`,
		}}, nil
	})

	const turns = 8
	for i := 0; i < turns; i++ {
		sched.MaybeEvaluate("s1", qualifyingHistory())
	}
	sched.Wait()

	data, err := os.ReadFile(filepath.Join(dir, "s1.json"))
	require.NoError(t, err)
	require.Equal(t, turns, countEntries(t, data))
}

func countEntries(t *testing.T, data []byte) int {
	t.Helper()
	var entries []Entry
	require.NoError(t, json.Unmarshal(data, &entries))
	return len(entries)
}
