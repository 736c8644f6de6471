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
	"fmt"
	"log/slog"

	"github.com/casalio/revec/collection"
	"github.com/casalio/revec/core"
)

// CandidateScanner opens candidate snapshots with retries. Opening is the
// one scan step worth retrying in place; once a snapshot is open, failures
// mid-sweep abandon the pass instead, because the snapshot's consistency
// cannot be recovered.
type CandidateScanner struct {
	repo        collection.ListingRepository
	pageSize    int
	maxAttempts int
	backoff     *Backoff
}

// NewCandidateScanner creates a scanner using config's page size and retry
// schedule.
func NewCandidateScanner(repo collection.ListingRepository, config *Config) *CandidateScanner {
	if config == nil {
		config = DefaultConfig()
	}
	return &CandidateScanner{
		repo:        repo,
		pageSize:    config.PageSize,
		maxAttempts: config.MaxRetries,
		backoff:     NewBackoff(config.RetryDelay, config.MaxRetryDelay),
	}
}

// Open opens a snapshot over the current candidates, retrying with backoff.
// Exhausting the attempts returns an error wrapping ErrScan.
func (s *CandidateScanner) Open(ctx context.Context) (collection.Cursor, error) {
	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		cursor, err := s.repo.ScanCandidates(ctx, s.pageSize)
		if err == nil {
			if attempt > 1 {
				slog.Debug("snapshot opened after retry", "attempt", attempt)
			}
			return &scanCursor{inner: cursor}, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		slog.Warn("failed to open candidate snapshot",
			"attempt", attempt, "maxAttempts", s.maxAttempts, "error", err)

		if attempt == s.maxAttempts {
			break
		}
		delay, derr := s.backoff.Delay(attempt)
		if derr != nil {
			return nil, derr
		}
		if err := sleepCtx(ctx, delay); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: opening snapshot after %d attempts: %w", ErrScan, s.maxAttempts, lastErr)
}

// scanCursor wraps page fetch failures in ErrScan so the driver can tell a
// lost snapshot from everything else. Context cancellation passes through
// untouched.
type scanCursor struct {
	inner collection.Cursor
}

func (c *scanCursor) Next(ctx context.Context) ([]*core.Listing, error) {
	page, err := c.inner.Next(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %w", ErrScan, err)
	}
	return page, nil
}

func (c *scanCursor) Close(ctx context.Context) error {
	return c.inner.Close(ctx)
}
