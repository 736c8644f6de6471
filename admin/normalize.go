package admin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/casalio/revec/collection"
	"github.com/casalio/revec/core"
)

// InvalidPhone is stored in place of phone values that carry no usable
// number, so downstream consumers can tell "checked and unusable" from
// "never checked".
const InvalidPhone = "N/A"

// NormalizePhone reduces a stored phone value to its digits. Values that
// come out empty, all zeros, or shorter than three digits normalize to
// InvalidPhone.
func NormalizePhone(raw string) string {
	var b strings.Builder
	allZero := true
	for _, r := range raw {
		if r < '0' || r > '9' {
			continue
		}
		if r != '0' {
			allZero = false
		}
		b.WriteRune(r)
	}

	digits := b.String()
	if len(digits) < 3 || allZero {
		return InvalidPhone
	}
	return digits
}

// NormalizeStats summarizes one normalization run.
type NormalizeStats struct {
	// Scanned counts listings with a stored phone value.
	Scanned int

	// Updated counts listings whose phone actually changed and was
	// accepted by the bulk write.
	Updated int

	// Rejected counts changed listings whose write was refused.
	Rejected int
}

// PhoneNormalizer sweeps every listing with a stored phone number and
// rewrites values that are not already in normalized form. Pages are
// scanned sequentially; the bulk writes for each page run on a worker
// pool so a slow write never stalls the scroll.
type PhoneNormalizer struct {
	repo     collection.PhoneRepository
	pageSize int
	workers  int
	out      io.Writer
}

// NewPhoneNormalizer creates a normalizer reading pages of pageSize and
// writing with workers concurrent bulk requests. out receives progress
// lines, typically os.Stderr.
func NewPhoneNormalizer(repo collection.PhoneRepository, pageSize, workers int, out io.Writer) *PhoneNormalizer {
	if pageSize < 1 {
		pageSize = 500
	}
	if workers < 1 {
		workers = 1
	}
	if out == nil {
		out = io.Discard
	}
	return &PhoneNormalizer{repo: repo, pageSize: pageSize, workers: workers, out: out}
}

// Run sweeps the collection once. Write failures are logged, counted and
// surfaced in the returned error after the sweep finishes; only scan
// failures abort it early. Cancelling ctx stops at the next page; writes
// already submitted still complete.
func (n *PhoneNormalizer) Run(ctx context.Context) (NormalizeStats, error) {
	var stats NormalizeStats

	cursor, err := n.repo.ScanPhones(ctx, n.pageSize)
	if err != nil {
		return stats, fmt.Errorf("opening phone scan: %w", err)
	}
	defer func() {
		if cerr := cursor.Close(context.WithoutCancel(ctx)); cerr != nil {
			slog.Warn("failed to clear phone scan context", "error", cerr)
		}
	}()

	pool, err := ants.NewPool(n.workers)
	if err != nil {
		return stats, fmt.Errorf("creating worker pool: %w", err)
	}
	defer pool.Release()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		writeErr error
		scanned  int
		queued   int
	)
	for {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return stats, err
		}

		page, err := cursor.Next(ctx)
		if err != nil {
			wg.Wait()
			return stats, fmt.Errorf("fetching phone page: %w", err)
		}
		if len(page) == 0 {
			break
		}

		updates := pageUpdates(page)
		scanned += len(page)
		mu.Lock()
		stats.Scanned += len(page)
		mu.Unlock()
		if len(updates) == 0 {
			continue
		}
		queued += len(updates)

		wg.Add(1)
		submit := func() {
			defer wg.Done()

			// Writes finish even when the run is being cancelled.
			err := n.repo.UpdatePhones(context.WithoutCancel(ctx), updates...)

			mu.Lock()
			defer mu.Unlock()
			var bulkErr *collection.BulkError
			switch {
			case err == nil:
				stats.Updated += len(updates)
			case errors.As(err, &bulkErr):
				stats.Updated += bulkErr.Accepted
				stats.Rejected += len(bulkErr.Items)
				for _, item := range bulkErr.Items {
					slog.Warn("phone update rejected", "id", item.Id, "reason", item.Reason)
				}
			default:
				stats.Rejected += len(updates)
				slog.Error("phone bulk update failed", "count", len(updates), "error", err)
				if writeErr == nil {
					writeErr = err
				}
			}
		}
		if err := pool.Submit(submit); err != nil {
			wg.Done()
			wg.Wait()
			return stats, fmt.Errorf("submitting phone updates: %w", err)
		}

		fmt.Fprintf(n.out, "Scanned %d listings, %d updates queued so far\n", scanned, queued)
	}

	wg.Wait()

	fmt.Fprintf(n.out, "Done: %d scanned, %d updated, %d rejected\n", stats.Scanned, stats.Updated, stats.Rejected)
	if writeErr != nil {
		return stats, fmt.Errorf("phone updates incomplete: %w", writeErr)
	}
	return stats, nil
}

// pageUpdates builds the bulk updates for one page, skipping listings
// whose stored value is already normalized.
func pageUpdates(page []*core.Listing) []collection.PhoneUpdate {
	var updates []collection.PhoneUpdate
	for _, l := range page {
		normalized := NormalizePhone(l.Phone)
		if normalized == l.Phone {
			continue
		}
		updates = append(updates, collection.PhoneUpdate{
			Id:    l.Id,
			Index: l.Index,
			Phone: normalized,
		})
	}
	return updates
}
