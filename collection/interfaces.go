package collection

import (
	"context"

	"github.com/casalio/revec/core"
)

// Cursor pages through listings inside a consistent view of the collection.
// Implementations hold a server-side context (snapshot or scroll) that must
// be released with Close on every exit path.
type Cursor interface {
	// Next returns the next page of listings. An empty page means the
	// sweep is complete. Calling Next after Close returns
	// ErrSnapshotClosed.
	Next(ctx context.Context) ([]*core.Listing, error)

	// Close releases the server-side context. Safe to call more than once.
	Close(ctx context.Context) error
}

// ListingRepository is the collection surface the re-embedding pipeline
// depends on: candidate discovery inside a snapshot and bulk write-back of
// embedding outcomes.
type ListingRepository interface {
	// CountCandidates returns the number of listings currently eligible
	// for re-embedding (status failed, or vector missing).
	CountCandidates(ctx context.Context) (int, error)

	// ScanCandidates opens a snapshot over the current candidates and
	// returns a cursor paging through them. The snapshot freezes result
	// membership: listings updated mid-sweep are neither revisited nor
	// skipped.
	ScanCandidates(ctx context.Context, pageSize int) (Cursor, error)

	// UpdateEmbeddings applies embedding outcomes in one bulk write.
	// Item-level rejections are reported via *BulkError; accepted items
	// in the same call are still applied.
	UpdateEmbeddings(ctx context.Context, updates ...EmbeddingUpdate) error
}

// ListingStats exposes the read-only counts behind the status report.
type ListingStats interface {
	// CountTotal returns the number of documents in the index.
	CountTotal(ctx context.Context) (int, error)

	// CountByStatus returns the number of documents carrying status.
	CountByStatus(ctx context.Context, status core.EmbeddingStatus) (int, error)

	// CountMissingStatus returns the number of documents with no
	// embedding status at all.
	CountMissingStatus(ctx context.Context) (int, error)

	// CountWithVector returns the number of documents with a stored
	// vector; CountMissingVector its complement.
	CountWithVector(ctx context.Context) (int, error)
	CountMissingVector(ctx context.Context) (int, error)

	// CountCandidates mirrors ListingRepository.CountCandidates.
	CountCandidates(ctx context.Context) (int, error)
}

// PhoneRepository supports the phone normalization job.
type PhoneRepository interface {
	// ScanPhones sweeps every listing with a stored phone number.
	ScanPhones(ctx context.Context, pageSize int) (Cursor, error)

	// UpdatePhones rewrites stored phone values in one bulk write.
	UpdatePhones(ctx context.Context, updates ...PhoneUpdate) error
}

// AgentRepository stores aggregated agent contacts.
type AgentRepository interface {
	// EnsureIndex creates the agents index with its mapping if it does
	// not exist yet.
	EnsureIndex(ctx context.Context) error

	// BulkImport indexes agents keyed by phone number and returns how
	// many were accepted. Item-level rejections are reported via
	// *BulkError alongside the accepted count.
	BulkImport(ctx context.Context, agents []*core.Agent) (int, error)

	// Count returns the number of stored agents.
	Count(ctx context.Context) (int, error)
}
