package eval

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

var (
	// ErrNotFound means no evaluation has ever been recorded for the session.
	ErrNotFound = errors.New("no evaluation found")
	// ErrCorrupted means the ledger file exists but holds invalid JSON.
	ErrCorrupted = errors.New("evaluation data corrupted")
)

// Entry is one immutable evaluation record.
type Entry struct {
	SessionID string `json:"session_id"`
	Score     int    `json:"score"`
	Reasoning string `json:"reasoning"`
	Timestamp string `json:"timestamp"`
}

// Ledger is the per-session append-only evaluation store. Each session maps
// to <dir>/<session_id>.json holding a JSON array of entries, never truncated
// or rewritten except by appending.
type Ledger struct {
	dir string
	now func() time.Time
}

// NewLedger creates a Ledger rooted at dir. The directory is created lazily
// on first append.
func NewLedger(dir string) *Ledger {
	return &Ledger{dir: dir, now: time.Now}
}

func (l *Ledger) path(sessionID string) string {
	return filepath.Join(l.dir, sessionID+".json")
}

// Append records a new entry for the session and returns it. The existing
// file is read first; a corrupt pre-existing file is replaced by a fresh list
// seeded with just the new entry rather than failing the write. The full list
// is written back atomically via temp-file rename.
func (l *Ledger) Append(sessionID string, score Score) (Entry, error) {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return Entry{}, fmt.Errorf("create evaluations dir: %w", err)
	}

	entry := Entry{
		SessionID: sessionID,
		Score:     score.Score,
		Reasoning: score.Reasoning,
		Timestamp: l.now().UTC().Format(time.RFC3339Nano),
	}

	var entries []Entry
	data, err := os.ReadFile(l.path(sessionID))
	switch {
	case err == nil:
		if jsonErr := json.Unmarshal(data, &entries); jsonErr != nil {
			entries = nil
		}
	case os.IsNotExist(err):
	default:
		return Entry{}, fmt.Errorf("read ledger: %w", err)
	}

	entries = append(entries, entry)

	out, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return Entry{}, fmt.Errorf("encode ledger: %w", err)
	}

	if err := l.writeAtomic(l.path(sessionID), out); err != nil {
		return Entry{}, fmt.Errorf("write ledger: %w", err)
	}

	return entry, nil
}

// Latest returns the most recent entry for the session. Missing files and
// empty arrays read as ErrNotFound; unparsable files as ErrCorrupted.
func (l *Ledger) Latest(sessionID string) (Entry, error) {
	data, err := os.ReadFile(l.path(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, fmt.Errorf("read ledger: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return Entry{}, fmt.Errorf("%w: %s", ErrCorrupted, sessionID)
	}
	if len(entries) == 0 {
		return Entry{}, ErrNotFound
	}

	return entries[len(entries)-1], nil
}

func (l *Ledger) writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
