package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/casalio/revec/collection"
	"github.com/casalio/revec/core"
	"github.com/casalio/revec/reembed"
)

// Summary is a point-in-time view of embedding coverage, derived entirely
// from live counts on the index.
type Summary struct {
	Index       string    `json:"index"`
	GeneratedAt time.Time `json:"generated_at"`

	Total         int `json:"total"`
	Succeeded     int `json:"succeeded"`
	Failed        int `json:"failed"`
	Fatal         int `json:"failed_permanently"`
	MissingStatus int `json:"missing_status"`

	WithVector    int `json:"with_vector"`
	MissingVector int `json:"missing_vector"`

	// Candidates is the number of listings the next re-embedding pass
	// would pick up.
	Candidates int `json:"candidates"`

	// Progress is the resume record of the last re-embedding run, when a
	// progress file exists. Advisory only.
	Progress *reembed.Progress `json:"progress,omitempty"`
}

// Collect gathers a Summary for index. The count queries run concurrently;
// the first failure cancels the rest. progressPath may be empty to skip
// the progress file, and an unreadable file degrades to a report without
// it rather than failing.
func Collect(ctx context.Context, stats collection.ListingStats, index, progressPath string) (*Summary, error) {
	s := &Summary{Index: index, GeneratedAt: time.Now().UTC()}

	g, ctx := errgroup.WithContext(ctx)
	fetch := func(dst *int, count func(context.Context) (int, error)) {
		g.Go(func() error {
			n, err := count(ctx)
			if err != nil {
				return err
			}
			*dst = n
			return nil
		})
	}

	fetch(&s.Total, stats.CountTotal)
	fetch(&s.Succeeded, func(ctx context.Context) (int, error) {
		return stats.CountByStatus(ctx, core.StatusSuccess)
	})
	fetch(&s.Failed, func(ctx context.Context) (int, error) {
		return stats.CountByStatus(ctx, core.StatusFailed)
	})
	fetch(&s.Fatal, func(ctx context.Context) (int, error) {
		return stats.CountByStatus(ctx, core.StatusFatal)
	})
	fetch(&s.MissingStatus, stats.CountMissingStatus)
	fetch(&s.WithVector, stats.CountWithVector)
	fetch(&s.MissingVector, stats.CountMissingVector)
	fetch(&s.Candidates, stats.CountCandidates)

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("collecting status counts: %w", err)
	}

	if progressPath != "" {
		progress, err := reembed.ReadProgressFile(progressPath)
		if err != nil {
			slog.Warn("skipping unreadable progress file", "path", progressPath, "error", err)
		} else {
			s.Progress = progress
		}
	}

	return s, nil
}

// SuccessRate is the fraction of processed listings that embedded
// successfully, per the progress counters. Returns 0 without a progress
// record.
func (s *Summary) SuccessRate() float64 {
	if s.Progress == nil || s.Progress.TotalProcessed == 0 {
		return 0
	}
	return float64(s.Progress.TotalSucceeded) / float64(s.Progress.TotalProcessed)
}

// WriteJSON writes the summary as indented JSON.
func (s *Summary) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// WriteText writes the human-readable report.
func (s *Summary) WriteText(w io.Writer) error {
	var err error
	p := func(format string, args ...any) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}

	rule := "======================================================================\n"
	p(rule)
	p("Embedding Status Report - %s\n", s.GeneratedAt.Format("2006-01-02 15:04:05"))
	p(rule)
	p("Index: %s\n\n", s.Index)

	p("Total documents: %d\n\n", s.Total)

	p("By embedding_status field:\n")
	p("  %-20s %8d (%5.1f%%)\n", "success:", s.Succeeded, pct(s.Succeeded, s.Total))
	p("  %-20s %8d (%5.1f%%)\n", "failed:", s.Failed, pct(s.Failed, s.Total))
	p("  %-20s %8d (%5.1f%%)\n", "failed_permanently:", s.Fatal, pct(s.Fatal, s.Total))
	if s.MissingStatus > 0 {
		p("  %-20s %8d (%5.1f%%)\n", "<missing>:", s.MissingStatus, pct(s.MissingStatus, s.Total))
	}
	p("\n")

	p("By listing_vector presence:\n")
	p("  %-20s %8d (%5.1f%%)\n", "has vector:", s.WithVector, pct(s.WithVector, s.Total))
	p("  %-20s %8d (%5.1f%%)\n", "missing vector:", s.MissingVector, pct(s.MissingVector, s.Total))
	p("\n")

	p("Documents needing re-embedding: %d (%.1f%%)\n", s.Candidates, pct(s.Candidates, s.Total))
	if s.Fatal > 0 {
		p("Documents permanently failed:   %d\n", s.Fatal)
	}

	if s.Progress != nil {
		p("\nRe-embedding progress:\n")
		p("  Started:      %s\n", s.Progress.StartedAt.Format(time.RFC3339))
		p("  Last updated: %s\n", s.Progress.LastUpdated.Format(time.RFC3339))
		p("  Passes:       %d\n", s.Progress.PassNumber)
		p("  Processed:    %d\n", s.Progress.TotalProcessed)
		p("  Succeeded:    %d\n", s.Progress.TotalSucceeded)
		p("  Failed:       %d\n", s.Progress.TotalFailed)
		if s.Progress.TotalProcessed > 0 {
			p("  Success rate: %.1f%%\n", s.SuccessRate()*100)
		}
	}

	p(rule)
	return err
}

func pct(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
