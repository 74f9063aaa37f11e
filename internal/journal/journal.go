// Package journal keeps one compressed audit record per import attempt.
package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/google/uuid"

	"course-import/internal/importer"
	"course-import/internal/importerr"
)

const ext = ".json.br"

type Status string

const (
	StatusImported Status = "imported"
	StatusFailed   Status = "failed"
)

// Entry is the audit record of one import.
type Entry struct {
	ID         string           `json:"id"`
	Source     string           `json:"source"`
	DryRun     bool             `json:"dry_run,omitempty"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Status     Status           `json:"status"`
	Kind       string           `json:"kind,omitempty"`
	Stage      string           `json:"stage,omitempty"`
	Error      string           `json:"error,omitempty"`
	Notice     string           `json:"notice"`
	Result     *importer.Result `json:"result,omitempty"`
}

// NewEntry builds the record for a finished import. err is nil on success.
func NewEntry(source string, started, finished time.Time, res *importer.Result, err error) Entry {
	e := Entry{
		ID:         uuid.NewString(),
		Source:     source,
		StartedAt:  started.UTC(),
		FinishedAt: finished.UTC(),
		Result:     res,
	}
	if err == nil {
		e.Status = StatusImported
		if res != nil {
			e.Notice = res.Notice
		}
		return e
	}
	e.Status = StatusFailed
	e.Error = err.Error()
	e.Notice = importerr.Notice(err)
	if k := importerr.KindOf(err); k != 0 {
		e.Kind = k.String()
	}
	var se *importer.StageError
	if errors.As(err, &se) {
		e.Stage = se.Stage.String()
	}
	return e
}

// Write stores e as <dir>/<id>.json.br and returns the file path.
func Write(dir string, e Entry) (string, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("journal: create dir: %w", err)
	}
	p := filepath.Join(dir, e.ID+ext)
	f, err := os.OpenFile(p, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("journal: create %s: %w", p, err)
	}
	defer f.Close()

	bw := brotli.NewWriterLevel(f, brotli.DefaultCompression)
	enc := json.NewEncoder(bw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(e); err != nil {
		bw.Close()
		return "", fmt.Errorf("journal: encode: %w", err)
	}
	if err := bw.Close(); err != nil {
		return "", fmt.Errorf("journal: compress: %w", err)
	}
	return p, f.Close()
}

// Read decodes a record written by Write.
func Read(path string) (Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return Entry{}, fmt.Errorf("journal: %w", err)
	}
	defer f.Close()
	return decode(f)
}

func decode(r io.Reader) (Entry, error) {
	var e Entry
	if err := json.NewDecoder(brotli.NewReader(r)).Decode(&e); err != nil {
		return Entry{}, fmt.Errorf("journal: decode: %w", err)
	}
	return e, nil
}
