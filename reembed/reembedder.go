// Copyright 2025 Casalio
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package reembed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/casalio/revec/collection"
	"github.com/casalio/revec/core"
	"github.com/casalio/revec/embedding"
)

// Config holds configuration for the re-embedding run.
type Config struct {
	// PageSize is the number of candidates per snapshot page.
	PageSize int

	// BatchSize is the number of listings embedded per service call.
	// Batches never span snapshot pages.
	BatchSize int

	// ReportInterval is how often to report progress (number of listings).
	ReportInterval int

	// MaxRetries is the maximum number of attempts for transient
	// failures.
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff;
	// MaxRetryDelay caps it.
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration

	// SleepBetweenBatches paces embedding load within a pass;
	// SleepBetweenPasses spaces whole passes.
	SleepBetweenBatches time.Duration
	SleepBetweenPasses  time.Duration

	// MinPasses is how many passes run before a pass that shrinks
	// nothing is allowed to stop the job. Early passes often convert
	// missing-status listings into failed ones without shrinking the
	// candidate pool.
	MinPasses int

	// Dimensions is the expected vector dimensionality. Zero disables
	// the check.
	Dimensions int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		PageSize:            100,
		BatchSize:           8,
		ReportInterval:      100,
		MaxRetries:          3,
		RetryDelay:          DefaultRetryDelay,
		MaxRetryDelay:       DefaultMaxRetryDelay,
		SleepBetweenBatches: 2 * time.Second,
		SleepBetweenPasses:  10 * time.Second,
		MinPasses:           2,
	}
}

// Reembedder drives repeated passes over the re-embedding candidates until
// the collection converges: every listing embedded or marked permanently
// failed.
type Reembedder struct {
	repo      collection.ListingRepository
	config    *Config
	store     *ProgressStore
	out       io.Writer
	processor *BatchProcessor
	scanner   *CandidateScanner

	mu    sync.Mutex
	state State
}

// NewReembedder creates a re-embedding driver. store must hold the run
// lock; out receives human-readable progress (typically os.Stderr).
func NewReembedder(repo collection.ListingRepository, embedder embedding.Embedder, config *Config, store *ProgressStore, out io.Writer) *Reembedder {
	if config == nil {
		config = DefaultConfig()
	}

	r := &Reembedder{
		repo:    repo,
		config:  config,
		store:   store,
		out:     out,
		scanner: NewCandidateScanner(repo, config),
	}
	r.processor = NewBatchProcessor(repo, embedder, config)
	r.processor.stateFn = r.setState
	return r
}

// State returns where the pipeline currently is in its cycle.
func (r *Reembedder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Reembedder) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// Run sweeps the candidates in passes until one of the stop conditions
// holds: no candidates remain, a pass proves the remainder is permanently
// failed, or a pass past the MinPasses grace shrinks nothing.
//
// Run returns nil on convergence and the terminating error otherwise.
// Cancelling ctx stops at the next batch boundary; the batch in flight is
// still persisted.
func (r *Reembedder) Run(ctx context.Context) error {
	defer r.setState(StateIdle)

	progress := r.store.Load()
	if progress.TotalProcessed > 0 {
		fmt.Fprintf(r.out, "Resuming after pass %d: %d processed so far (%d succeeded, %d failed)\n",
			progress.PassNumber, progress.TotalProcessed, progress.TotalSucceeded, progress.TotalFailed)
	}

	pass := progress.PassNumber
	prev := -1
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		remaining, err := r.repo.CountCandidates(ctx)
		if err != nil {
			return fmt.Errorf("%w: counting candidates: %w", ErrScan, err)
		}

		if remaining == 0 {
			fmt.Fprintf(r.out, "No candidates remain; collection converged after %d passes\n", pass)
			return nil
		}
		if prev >= 0 && remaining >= prev && pass >= r.config.MinPasses {
			fmt.Fprintf(r.out, "Pass %d left %d candidates unshrunk; stopping\n", pass, remaining)
			return nil
		}

		pass++
		stats, err := r.runPass(ctx, pass, remaining, progress)
		switch {
		case errors.Is(err, ErrScan):
			// The snapshot is gone; the candidates are not. Start the
			// next pass with a fresh one.
			slog.Warn("pass abandoned after scan failure", "pass", pass, "error", err)
			prev = remaining
		case err != nil:
			return err
		default:
			if stats.Succeeded == 0 && stats.Failed == 0 && (stats.Fatal > 0 || stats.SkippedFatal > 0) {
				fmt.Fprintf(r.out, "Remaining %d candidates are permanent failures; stopping\n", remaining)
				return nil
			}
			prev = remaining
		}

		if err := sleepCtx(ctx, r.config.SleepBetweenPasses); err != nil {
			return err
		}
	}
}

// runPass sweeps one snapshot of the candidates. The snapshot is closed on
// every exit path, with cancellation not cutting the close short.
func (r *Reembedder) runPass(ctx context.Context, pass, remaining int, progress *Progress) (PassStats, error) {
	r.setState(StateScanning)

	progress.PassNumber = pass
	r.saveProgress(progress)

	fmt.Fprintf(r.out, "Pass %d: %d candidates (batch size: %d)\n", pass, remaining, r.config.BatchSize)

	cursor, err := r.scanner.Open(ctx)
	if err != nil {
		return PassStats{}, err
	}
	defer func() {
		if cerr := cursor.Close(context.WithoutCancel(ctx)); cerr != nil {
			slog.Warn("failed to close candidate snapshot", "pass", pass, "error", cerr)
		}
	}()

	tracker := NewProgressTracker(r.out, pass, remaining, r.config.ReportInterval)
	tracker.Start()

	var stats PassStats
	first := true
	for {
		r.setState(StateScanning)
		page, err := cursor.Next(ctx)
		if err != nil {
			return stats, err
		}
		if len(page) == 0 {
			break
		}

		for _, batch := range chunkListings(page, r.config.BatchSize) {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			if !first {
				if err := sleepCtx(ctx, r.config.SleepBetweenBatches); err != nil {
					return stats, err
				}
			}
			first = false

			batchStats, err := r.processor.Process(ctx, batch)
			stats.add(batchStats)
			if err != nil {
				return stats, err
			}

			progress.apply(batchStats)
			r.saveProgress(progress)
			tracker.Update(stats.Scanned)
		}
	}

	tracker.Finish()
	r.setState(StatePassComplete)

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.out, "Pass %d complete in %v: %d scanned, %d succeeded, %d failed, %d permanently failed, %d skipped\n",
		pass, elapsed.Round(time.Second), stats.Scanned, stats.Succeeded, stats.Failed, stats.Fatal, stats.SkippedFatal)

	return stats, nil
}

// saveProgress persists the resume record. The record is advisory, so
// failures are logged and the run continues.
func (r *Reembedder) saveProgress(progress *Progress) {
	if err := r.store.Save(progress); err != nil {
		slog.Warn("failed to save progress", "path", r.store.path, "error", err)
	}
}

// chunkListings splits a page into batches of at most size listings.
// Batches never span pages, so a short page yields a short final batch.
func chunkListings(page []*core.Listing, size int) [][]*core.Listing {
	if size <= 0 {
		return [][]*core.Listing{page}
	}
	var batches [][]*core.Listing
	for start := 0; start < len(page); start += size {
		batches = append(batches, page[start:min(start+size, len(page))])
	}
	return batches
}

// sleepCtx waits for d or until ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
