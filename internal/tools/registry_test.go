package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

type staticTool struct {
	name   string
	result any
	err    error
}

func (s staticTool) Name() string                 { return s.name }
func (s staticTool) Description() string          { return "static tool " + s.name }
func (s staticTool) Parameters() json.RawMessage  { return json.RawMessage(`{"type":"object"}`) }
func (s staticTool) Invoke(ctx context.Context, args json.RawMessage) (any, error) {
	return s.result, s.err
}

func TestRegistryDefinitionsKeepRegistrationOrder(t *testing.T) {
	r := NewRegistry(
		staticTool{name: "web_search"},
		staticTool{name: "search_hackernews"},
		staticTool{name: "save_search_to_csv"},
	)

	defs := r.Definitions()
	require.Len(t, defs, 3)
	require.Equal(t, "web_search", defs[0].Name)
	require.Equal(t, "search_hackernews", defs[1].Name)
	require.Equal(t, "save_search_to_csv", defs[2].Name)
}

func TestRegistryRegisterReplacesByName(t *testing.T) {
	r := NewRegistry(staticTool{name: "web_search", result: "old"})
	r.Register(staticTool{name: "web_search", result: "new"})

	require.Equal(t, 1, r.Len())

	out, err := r.Invoke(context.Background(), "web_search", nil)
	require.NoError(t, err)
	require.Equal(t, "new", out)
}

func TestRegistryInvokeUnknownTool(t *testing.T) {
	r := NewRegistry()

	_, err := r.Invoke(context.Background(), "missing", nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown tool")
}

func TestRegistrySkipsNilTools(t *testing.T) {
	r := NewRegistry(nil, staticTool{name: "web_search"})
	require.Equal(t, 1, r.Len())
}
