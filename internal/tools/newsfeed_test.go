package tools

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewsSearchAppendsQueryAndReturnsStdout(t *testing.T) {
	n, err := NewNewsSearch("search_hackernews", []string{"echo", "stories about"}, time.Minute)
	require.NoError(t, err)

	out, err := n.Invoke(context.Background(), json.RawMessage(`{"query":"golang"}`))
	require.NoError(t, err)
	require.Equal(t, "stories about golang", out)
}

func TestNewsSearchPassesThroughStructuredOutput(t *testing.T) {
	n, err := NewNewsSearch("search_hackernews", []string{"echo"}, time.Minute)
	require.NoError(t, err)

	// echo prints the query back, so the query doubles as the subprocess output.
	args, err := json.Marshal(map[string]string{"query": `[{"title":"story","points":42}]`})
	require.NoError(t, err)

	out, err := n.Invoke(context.Background(), args)
	require.NoError(t, err)

	list, ok := out.([]any)
	require.True(t, ok, "structured output should decode as a list, got %T", out)
	require.Len(t, list, 1)
	first, ok := list[0].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "story", first["title"])
}

func TestNewsSearchRequiresQuery(t *testing.T) {
	n, err := NewNewsSearch("search_hackernews", []string{"echo"}, time.Minute)
	require.NoError(t, err)

	_, err = n.Invoke(context.Background(), json.RawMessage(`{"query":"  "}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "query is required")
}

func TestNewsSearchCommandFailure(t *testing.T) {
	n, err := NewNewsSearch("search_hackernews", []string{"false"}, time.Minute)
	require.NoError(t, err)

	_, err = n.Invoke(context.Background(), json.RawMessage(`{"query":"golang"}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "search_hackernews")
}

func TestNewsSearchValidation(t *testing.T) {
	_, err := NewNewsSearch("", []string{"echo"}, time.Minute)
	require.Error(t, err)

	_, err = NewNewsSearch("search_hackernews", nil, time.Minute)
	require.Error(t, err)
}
