package tools

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCSVExportWritesFile(t *testing.T) {
	dir := t.TempDir()
	e := NewCSVExport(dir)
	e.now = func() time.Time {
		return time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	}

	args := json.RawMessage(`{"results":[
		{"date":"2026-03-10","title":"Go 1.25 released","description":"release notes","sources":"https://go.dev"},
		{"date":"2026-03-11","title":"HN thread","description":"discussion, with commas","sources":"https://news.ycombinator.com"}
	]}`)

	out, err := e.Invoke(context.Background(), args)
	require.NoError(t, err)
	require.Equal(t, "search_2026-03-14_09-26-53.csv", out)

	f, err := os.Open(filepath.Join(dir, "search_2026-03-14_09-26-53.csv"))
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, []string{"date", "title", "description", "sources"}, rows[0])
	require.Equal(t, []string{"2026-03-10", "Go 1.25 released", "release notes", "https://go.dev"}, rows[1])
	require.Equal(t, "discussion, with commas", rows[2][2])
}

func TestCSVExportRequiresResults(t *testing.T) {
	e := NewCSVExport(t.TempDir())

	_, err := e.Invoke(context.Background(), json.RawMessage(`{"results":[]}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "results are required")
}

func TestCSVExportCreatesDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	e := NewCSVExport(dir)

	args := json.RawMessage(`{"results":[{"date":"d","title":"t","description":"x","sources":"s"}]}`)
	out, err := e.Invoke(context.Background(), args)
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(dir, out.(string)))
	require.NoError(t, statErr)
}
