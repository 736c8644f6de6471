package reembed

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// Progress is the on-disk resume record. Counters accumulate across passes
// and runs; PassNumber is the last pass that started.
type Progress struct {
	TotalProcessed int       `json:"total_processed"`
	TotalSucceeded int       `json:"total_succeeded"`
	TotalFailed    int       `json:"total_failed"`
	PassNumber     int       `json:"pass_number"`
	StartedAt      time.Time `json:"started_at"`
	LastUpdated    time.Time `json:"last_updated"`
}

// apply folds one batch outcome into the counters. Skipped listings were
// not processed this pass and do not count.
func (p *Progress) apply(stats PassStats) {
	p.TotalProcessed += stats.Succeeded + stats.Failed + stats.Fatal
	p.TotalSucceeded += stats.Succeeded
	p.TotalFailed += stats.Failed + stats.Fatal
}

// ProgressStore persists Progress next to the run it describes. The store
// holds a file lock for its lifetime, so only one run writes at a time.
//
// The record is advisory. Correctness comes from the stored statuses in
// the collection; a lost or stale progress file only skews reporting.
type ProgressStore struct {
	path string
	lock *flock.Flock
}

// OpenProgressStore locks path for this run. A second concurrent open of
// the same path fails with ErrAlreadyRunning.
func OpenProgressStore(path string) (*ProgressStore, error) {
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("cannot acquire progress lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w (lock: %s)", ErrAlreadyRunning, lock.Path())
	}
	return &ProgressStore{path: path, lock: lock}, nil
}

// Load reads the stored progress. A missing or unreadable file starts
// fresh rather than failing the run.
func (s *ProgressStore) Load() *Progress {
	p, err := ReadProgressFile(s.path)
	if err != nil {
		slog.Warn("discarding unreadable progress file", "path", s.path, "error", err)
	}
	if p == nil {
		p = &Progress{StartedAt: time.Now().UTC()}
	}
	return p
}

// Save writes progress atomically: marshal to a temp file in the same
// directory, then rename over the target. A crash mid-save leaves the
// previous record intact.
func (s *ProgressStore) Save(p *Progress) error {
	p.LastUpdated = time.Now().UTC()

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode progress: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create progress temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write progress: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close progress temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace progress file: %w", err)
	}
	return nil
}

// Close releases the run lock.
func (s *ProgressStore) Close() error {
	return s.lock.Unlock()
}

// ReadProgressFile reads a progress record without taking the lock, for
// reporting alongside a live run. Returns (nil, nil) when no file exists.
func ReadProgressFile(path string) (*Progress, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read progress file: %w", err)
	}

	var p Progress
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse progress file: %w", err)
	}
	return &p, nil
}
