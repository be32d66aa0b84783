package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Mockaj/duvo/internal/eval"
)

func evalRequest(sessionID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/evaluations/"+sessionID, nil)
	req.SetPathValue("session_id", sessionID)
	return req
}

func TestEvaluationsHandlerReturnsLatestEntry(t *testing.T) {
	ledger := eval.NewLedger(t.TempDir())
	_, err := ledger.Append("s1", eval.Score{Score: 60, Reasoning: "first"})
	require.NoError(t, err)
	_, err = ledger.Append("s1", eval.Score{Score: 85, Reasoning: "second"})
	require.NoError(t, err)

	h := &EvaluationsHandler{Ledger: ledger}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, evalRequest("s1"))

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var entry eval.Entry
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &entry))
	require.Equal(t, "s1", entry.SessionID)
	require.Equal(t, 85, entry.Score)
	require.Equal(t, "second", entry.Reasoning)
	require.NotEmpty(t, entry.Timestamp)
}

func TestEvaluationsHandlerNotFound(t *testing.T) {
	h := &EvaluationsHandler{Ledger: eval.NewLedger(t.TempDir())}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, evalRequest("nope"))

	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Contains(t, rr.Body.String(), "no evaluation found")
}

func TestEvaluationsHandlerCorruptedLedger(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "s1.json"), []byte("{not json"), 0o644))

	h := &EvaluationsHandler{Ledger: eval.NewLedger(dir)}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, evalRequest("s1"))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.Contains(t, rr.Body.String(), "corrupted evaluation data")
}
