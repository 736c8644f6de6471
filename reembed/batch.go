package reembed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/casalio/revec/collection"
	"github.com/casalio/revec/core"
	"github.com/casalio/revec/embedding"
)

// PassStats aggregates outcomes across one pass or one batch.
type PassStats struct {
	// Scanned counts listings pulled from the snapshot.
	Scanned int

	// Succeeded, Failed and Fatal count classified embedding outcomes.
	Succeeded int
	Failed    int
	Fatal     int

	// SkippedFatal counts listings already marked permanently failed,
	// which are never re-embedded and never written.
	SkippedFatal int
}

func (s *PassStats) add(o PassStats) {
	s.Scanned += o.Scanned
	s.Succeeded += o.Succeeded
	s.Failed += o.Failed
	s.Fatal += o.Fatal
	s.SkippedFatal += o.SkippedFatal
}

// BatchProcessor embeds one batch of listings and writes the outcomes
// back in a single bulk request.
type BatchProcessor struct {
	repo     collection.ListingRepository
	embedder embedding.Embedder
	config   *Config
	backoff  *Backoff

	// stateFn, when set, observes the processor moving through the batch
	// states.
	stateFn func(State)
}

// NewBatchProcessor creates a processor using config's retry schedule and
// dimension check.
func NewBatchProcessor(repo collection.ListingRepository, embedder embedding.Embedder, config *Config) *BatchProcessor {
	if config == nil {
		config = DefaultConfig()
	}
	return &BatchProcessor{
		repo:     repo,
		embedder: embedder,
		config:   config,
		backoff:  NewBackoff(config.RetryDelay, config.MaxRetryDelay),
	}
}

// Process embeds batch and persists every classified outcome in one bulk
// write. Listings already marked permanently failed are skipped without a
// write. Cancelling ctx lets the batch in flight finish and be persisted;
// only the retry waits are cut short.
//
// The returned error is nil even when some listings failed: failure is a
// stored status, not a processing error. A non-nil error means outcomes
// could not be persisted.
func (bp *BatchProcessor) Process(ctx context.Context, batch []*core.Listing) (PassStats, error) {
	var stats PassStats
	stats.Scanned = len(batch)
	if len(batch) == 0 {
		return stats, nil
	}

	// Embedding calls and outcome writes run to completion even when ctx
	// is cancelled; the driver stops at the next batch boundary.
	opCtx := context.WithoutCancel(ctx)

	bp.setState(StateBatchReady)

	updates := make([]collection.EmbeddingUpdate, 0, len(batch))
	var pending []*core.Listing
	var texts []string
	for _, l := range batch {
		if l.Status.Terminal() {
			stats.SkippedFatal++
			continue
		}
		text := l.EmbedText()
		if text == "" {
			// Nothing to embed, and nothing ever will be.
			stats.Fatal++
			updates = append(updates, collection.EmbeddingUpdate{
				Id: l.Id, Index: l.Index, Status: core.StatusFatal,
			})
			continue
		}
		pending = append(pending, l)
		texts = append(texts, text)
	}

	if len(pending) > 0 {
		bp.setState(StateEmbedding)
		results, err := bp.embedWithRetry(ctx, opCtx, texts)

		bp.setState(StateClassifying)
		if err != nil {
			status := ClassifyError(err)
			slog.Warn("embedding batch failed",
				"count", len(pending), "status", string(status), "error", err)
			for _, l := range pending {
				stats.count(status)
				updates = append(updates, collection.EmbeddingUpdate{
					Id: l.Id, Index: l.Index, Status: status,
				})
			}
		} else {
			for i, l := range pending {
				status := ClassifyResult(results[i], bp.config.Dimensions)
				stats.count(status)
				u := collection.EmbeddingUpdate{Id: l.Id, Index: l.Index, Status: status}
				if status == core.StatusSuccess {
					u.Vector = results[i].Vector
				}
				updates = append(updates, u)
			}
		}
	}

	if len(updates) == 0 {
		return stats, nil
	}

	bp.setState(StatePersisting)
	bulkErr, err := bp.persist(opCtx, updates)
	if err != nil {
		return stats, err
	}
	if bulkErr != nil {
		stats.reconcile(updates, bulkErr)
	}
	return stats, nil
}

// count tallies one classified outcome.
func (s *PassStats) count(status core.EmbeddingStatus) {
	switch status {
	case core.StatusSuccess:
		s.Succeeded++
	case core.StatusFatal:
		s.Fatal++
	default:
		s.Failed++
	}
}

// reconcile moves listings whose outcome write was rejected back into the
// failed column: their status never landed, so they are still candidates.
func (s *PassStats) reconcile(updates []collection.EmbeddingUpdate, bulkErr *collection.BulkError) {
	intended := make(map[string]core.EmbeddingStatus, len(updates))
	for _, u := range updates {
		intended[u.Id] = u.Status
	}

	for _, item := range bulkErr.Items {
		switch intended[item.Id] {
		case core.StatusSuccess:
			s.Succeeded--
			s.Failed++
		case core.StatusFatal:
			s.Fatal--
			s.Failed++
		}
		slog.Warn("outcome write rejected",
			"id", item.Id, "status", item.Status, "reason", item.Reason)
	}
}

// embedWithRetry calls the embedder with the configured retry schedule.
// Only transient failures retry. Cancellation during a backoff wait
// returns the last failure so the batch still gets classified and written.
func (bp *BatchProcessor) embedWithRetry(ctx, opCtx context.Context, texts []string) ([]embedding.Result, error) {
	var lastErr error
	for attempt := 1; attempt <= bp.config.MaxRetries; attempt++ {
		results, err := bp.embedder.EmbedTexts(opCtx, texts)
		if err == nil {
			if len(results) != len(texts) {
				return nil, fmt.Errorf("%w: expected %d results, got %d",
					embedding.ErrResultCountMismatch, len(texts), len(results))
			}
			if attempt > 1 {
				slog.Debug("embedding succeeded after retry", "attempt", attempt)
			}
			return results, nil
		}
		lastErr = err

		if ClassifyError(err) != core.StatusFailed {
			return nil, err
		}
		slog.Debug("embedding attempt failed, will retry",
			"attempt", attempt, "maxAttempts", bp.config.MaxRetries, "error", err)

		if attempt == bp.config.MaxRetries {
			break
		}
		delay, derr := bp.backoff.Delay(attempt)
		if derr != nil {
			return nil, derr
		}
		if sleepCtx(ctx, delay) != nil {
			break
		}
	}
	return nil, lastErr
}

// persist writes updates, retrying the whole batch once on failure. A
// second failure wraps ErrPersistence, which stops the run. Item-level
// rejections are not retried; they come back for reconciliation.
func (bp *BatchProcessor) persist(ctx context.Context, updates []collection.EmbeddingUpdate) (*collection.BulkError, error) {
	err := bp.repo.UpdateEmbeddings(ctx, updates...)
	if err == nil {
		return nil, nil
	}

	var bulkErr *collection.BulkError
	if errors.As(err, &bulkErr) {
		return bulkErr, nil
	}

	slog.Warn("bulk write failed, retrying once", "count", len(updates), "error", err)
	err = bp.repo.UpdateEmbeddings(ctx, updates...)
	if err == nil {
		return nil, nil
	}
	if errors.As(err, &bulkErr) {
		return bulkErr, nil
	}
	return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
}

func (bp *BatchProcessor) setState(s State) {
	if bp.stateFn != nil {
		bp.stateFn(s)
	}
}
