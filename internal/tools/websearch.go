package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// WebSearch queries the DuckDuckGo instant-answer API.
type WebSearch struct {
	client  *http.Client
	baseURL string
}

// NewWebSearch builds a WebSearch tool. baseURL overrides the API endpoint in tests.
func NewWebSearch(baseURL string, timeout time.Duration) *WebSearch {
	if baseURL == "" {
		baseURL = "https://api.duckduckgo.com"
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &WebSearch{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (w *WebSearch) Name() string {
	return "web_search"
}

func (w *WebSearch) Description() string {
	return "Search the web for current information. Returns a short abstract and related results."
}

func (w *WebSearch) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {"type": "string", "description": "The search query"}
		},
		"required": ["query"]
	}`)
}

type webSearchArgs struct {
	Query string `json:"query"`
}

// SearchResult is one entry returned to the model.
type SearchResult struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Text  string `json:"text"`
}

func (w *WebSearch) Invoke(ctx context.Context, args json.RawMessage) (any, error) {
	var a webSearchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("web_search args: %w", err)
	}
	if strings.TrimSpace(a.Query) == "" {
		return nil, fmt.Errorf("web_search: query is required")
	}

	q := url.Values{}
	q.Set("q", a.Query)
	q.Set("format", "json")
	q.Set("no_html", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.baseURL+"/?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("web_search: build request: %w", err)
	}

	res, err := w.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("web_search: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		b, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("web_search: status %d: %s", res.StatusCode, string(b))
	}

	var body struct {
		AbstractText  string `json:"AbstractText"`
		AbstractURL   string `json:"AbstractURL"`
		Heading       string `json:"Heading"`
		RelatedTopics []struct {
			Text     string `json:"Text"`
			FirstURL string `json:"FirstURL"`
		} `json:"RelatedTopics"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("web_search: decode response: %w", err)
	}

	results := make([]SearchResult, 0, len(body.RelatedTopics)+1)
	if body.AbstractText != "" {
		results = append(results, SearchResult{
			Title: body.Heading,
			URL:   body.AbstractURL,
			Text:  body.AbstractText,
		})
	}
	for _, rt := range body.RelatedTopics {
		if rt.Text == "" {
			continue
		}
		results = append(results, SearchResult{URL: rt.FirstURL, Text: rt.Text})
	}

	if len(results) == 0 {
		return "no results found", nil
	}
	return results, nil
}
