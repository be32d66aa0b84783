package tools

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// CSVExport writes search results to a CSV file under the data directory so
// the user can fetch them from the downloads endpoint.
type CSVExport struct {
	dataDir string
	now     func() time.Time
}

// NewCSVExport builds a CSVExport tool rooted at dataDir.
func NewCSVExport(dataDir string) *CSVExport {
	return &CSVExport{dataDir: dataDir, now: time.Now}
}

func (e *CSVExport) Name() string {
	return "save_search_to_csv"
}

func (e *CSVExport) Description() string {
	return "Save search results to a CSV file for the user to download. Returns the filename."
}

func (e *CSVExport) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"results": {
				"type": "array",
				"description": "Search results to save",
				"items": {
					"type": "object",
					"properties": {
						"date": {"type": "string"},
						"title": {"type": "string"},
						"description": {"type": "string"},
						"sources": {"type": "string"}
					},
					"required": ["date", "title", "description", "sources"]
				}
			}
		},
		"required": ["results"]
	}`)
}

// ExportRow is one CSV line.
type ExportRow struct {
	Date        string `json:"date"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Sources     string `json:"sources"`
}

type exportArgs struct {
	Results []ExportRow `json:"results"`
}

func (e *CSVExport) Invoke(ctx context.Context, args json.RawMessage) (any, error) {
	var a exportArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("save_search_to_csv args: %w", err)
	}
	if len(a.Results) == 0 {
		return nil, fmt.Errorf("save_search_to_csv: results are required")
	}

	if err := os.MkdirAll(e.dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("save_search_to_csv: %w", err)
	}

	filename := fmt.Sprintf("search_%s.csv", e.now().Format("2006-01-02_15-04-05"))
	path := filepath.Join(e.dataDir, filename)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("save_search_to_csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"date", "title", "description", "sources"}); err != nil {
		return nil, fmt.Errorf("save_search_to_csv: %w", err)
	}
	for _, row := range a.Results {
		if err := w.Write([]string{row.Date, row.Title, row.Description, row.Sources}); err != nil {
			return nil, fmt.Errorf("save_search_to_csv: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("save_search_to_csv: %w", err)
	}

	return filename, nil
}
