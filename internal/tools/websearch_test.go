package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWebSearchParsesInstantAnswer(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"Heading": "Go (programming language)",
			"AbstractText": "Go is a statically typed language.",
			"AbstractURL": "https://en.wikipedia.org/wiki/Go",
			"RelatedTopics": [
				{"Text": "Goroutines", "FirstURL": "https://example.com/goroutines"},
				{"Text": "", "FirstURL": "https://example.com/empty"}
			]
		}`))
	}))
	defer srv.Close()

	ws := NewWebSearch(srv.URL, time.Minute)
	out, err := ws.Invoke(context.Background(), json.RawMessage(`{"query":"golang"}`))
	require.NoError(t, err)
	require.Equal(t, "golang", gotQuery)

	results, ok := out.([]SearchResult)
	require.True(t, ok)
	require.Len(t, results, 2)
	require.Equal(t, "Go (programming language)", results[0].Title)
	require.Equal(t, "Go is a statically typed language.", results[0].Text)
	require.Equal(t, "Goroutines", results[1].Text)
}

func TestWebSearchNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"AbstractText": "", "RelatedTopics": []}`))
	}))
	defer srv.Close()

	ws := NewWebSearch(srv.URL, time.Minute)
	out, err := ws.Invoke(context.Background(), json.RawMessage(`{"query":"nothing here"}`))
	require.NoError(t, err)
	require.Equal(t, "no results found", out)
}

func TestWebSearchUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	ws := NewWebSearch(srv.URL, time.Minute)
	_, err := ws.Invoke(context.Background(), json.RawMessage(`{"query":"golang"}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 429")
}

func TestWebSearchRequiresQuery(t *testing.T) {
	ws := NewWebSearch("http://unused.invalid", time.Minute)

	_, err := ws.Invoke(context.Background(), json.RawMessage(`{"query":""}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "query is required")
}
