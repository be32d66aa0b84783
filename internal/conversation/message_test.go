package conversation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToolReturnContentText(t *testing.T) {
	cases := []struct {
		name    string
		content any
		want    string
	}{
		{"string passes through", "plain text", "plain text"},
		{"map renders as JSON", map[string]any{"id": 1}, `{"id":1}`},
		{"slice renders as JSON", []any{"a", "b"}, `["a","b"]`},
		{"raw message passes through", json.RawMessage(`{"x":true}`), `{"x":true}`},
		{"nil is empty", nil, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			part := ToolReturnPart{ToolName: "search_hackernews", Content: tc.content}
			require.Equal(t, tc.want, part.ContentText())
		})
	}
}

func TestMemoryStoreUnknownSessionIsEmpty(t *testing.T) {
	store := NewMemoryStore()
	require.Empty(t, store.Get("fresh"))
}

func TestMemoryStorePutReplacesWholesale(t *testing.T) {
	store := NewMemoryStore()

	first := []Message{
		&Request{Parts: []RequestPart{PromptPart{Text: "hi"}}},
	}
	store.Put("s1", first)

	extended := []Message{
		&Request{Parts: []RequestPart{PromptPart{Text: "hi"}}},
		&Response{Parts: []ResponsePart{TextPart{Text: "hello"}}},
	}
	store.Put("s1", extended)

	require.Len(t, store.Get("s1"), 2)
	require.Empty(t, store.Get("s2"))
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	store.Put("s1", []Message{
		&Response{Parts: []ResponsePart{TextPart{Text: "a"}}},
	})

	got := store.Get("s1")
	got[0] = &Response{Parts: []ResponsePart{TextPart{Text: "mutated"}}}

	fresh := store.Get("s1")
	resp, ok := fresh[0].(*Response)
	require.True(t, ok)
	require.Equal(t, TextPart{Text: "a"}, resp.Parts[0])
}
