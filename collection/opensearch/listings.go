package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/casalio/revec/collection"
	"github.com/casalio/revec/core"
)

const (
	// DefaultKeepAlive is how long the candidate snapshot stays alive
	// between page fetches.
	DefaultKeepAlive = 10 * time.Minute

	// scrollKeepAlive is the keep-alive for plain scroll sweeps.
	scrollKeepAlive = "5m"
)

// ListingOption configures a ListingRepository.
type ListingOption func(*ListingRepository)

// WithKeepAlive sets the snapshot keep-alive for candidate scans.
func WithKeepAlive(d time.Duration) ListingOption {
	return func(r *ListingRepository) {
		if d > 0 {
			r.keepAlive = d
		}
	}
}

// WithScanPattern sets the index pattern swept by phone scans. Defaults to
// the repository's index.
func WithScanPattern(pattern string) ListingOption {
	return func(r *ListingRepository) {
		if pattern != "" {
			r.pattern = pattern
		}
	}
}

// ListingRepository implements collection.ListingRepository,
// collection.ListingStats and collection.PhoneRepository against one
// listing index.
type ListingRepository struct {
	client    *Client
	index     string
	pattern   string
	keepAlive time.Duration
}

// NewListingRepository creates a repository over the named index.
func NewListingRepository(client *Client, index string, opts ...ListingOption) *ListingRepository {
	r := &ListingRepository{
		client:    client,
		index:     index,
		pattern:   index,
		keepAlive: DefaultKeepAlive,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CountCandidates returns the number of listings eligible for re-embedding.
func (r *ListingRepository) CountCandidates(ctx context.Context) (int, error) {
	return r.count(ctx, r.index, candidateQuery())
}

// CountTotal returns the number of documents in the index.
func (r *ListingRepository) CountTotal(ctx context.Context) (int, error) {
	return r.count(ctx, r.index, matchAllQuery())
}

// CountByStatus returns the number of documents carrying status.
func (r *ListingRepository) CountByStatus(ctx context.Context, status core.EmbeddingStatus) (int, error) {
	return r.count(ctx, r.index, termQuery(fieldStatus, string(status)))
}

// CountMissingStatus returns the number of documents with no embedding
// status field.
func (r *ListingRepository) CountMissingStatus(ctx context.Context) (int, error) {
	return r.count(ctx, r.index, missingFieldQuery(fieldStatus))
}

// CountWithVector returns the number of documents with a stored vector.
func (r *ListingRepository) CountWithVector(ctx context.Context) (int, error) {
	return r.count(ctx, r.index, existsQuery(fieldVector))
}

// CountMissingVector returns the number of documents without a stored
// vector.
func (r *ListingRepository) CountMissingVector(ctx context.Context) (int, error) {
	return r.count(ctx, r.index, missingFieldQuery(fieldVector))
}

func (r *ListingRepository) count(ctx context.Context, index string, query map[string]any) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	body := map[string]any{"query": query}
	if err := r.client.do(ctx, http.MethodPost, "/"+index+"/_count", body, &out); err != nil {
		return 0, fmt.Errorf("count on %s: %w", index, err)
	}
	return out.Count, nil
}

// ScanCandidates opens a point-in-time snapshot over the current candidates
// and returns a cursor paging through them in _shard_doc order.
func (r *ListingRepository) ScanCandidates(ctx context.Context, pageSize int) (collection.Cursor, error) {
	pitId, err := r.openPIT(ctx)
	if err != nil {
		return nil, err
	}
	return &candidateCursor{
		repo:     r,
		pitId:    pitId,
		pageSize: pageSize,
	}, nil
}

func (r *ListingRepository) openPIT(ctx context.Context) (string, error) {
	var out struct {
		PitId string `json:"pit_id"`
	}
	path := fmt.Sprintf("/%s/_search/point_in_time?keep_alive=%s", r.index, keepAliveString(r.keepAlive))
	if err := r.client.do(ctx, http.MethodPost, path, nil, &out); err != nil {
		return "", fmt.Errorf("open snapshot on %s: %w", r.index, err)
	}
	if out.PitId == "" {
		return "", fmt.Errorf("open snapshot on %s: response carried no pit id", r.index)
	}
	return out.PitId, nil
}

// UpdateEmbeddings applies embedding outcomes in one bulk write. Vectors
// are written only for successful outcomes.
func (r *ListingRepository) UpdateEmbeddings(ctx context.Context, updates ...collection.EmbeddingUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, u := range updates {
		doc := map[string]any{fieldStatus: u.Status}
		if u.Status == core.StatusSuccess && u.Vector != nil {
			doc[fieldVector] = u.Vector
		}
		if err := r.encodeBulkPair(enc, "update", u.Index, u.Id, map[string]any{"doc": doc}); err != nil {
			return err
		}
	}

	return r.bulk(ctx, &buf)
}

// ScanPhones sweeps every listing with a stored phone number across the
// configured index pattern, using the scroll API.
func (r *ListingRepository) ScanPhones(ctx context.Context, pageSize int) (collection.Cursor, error) {
	body := map[string]any{
		"size":    pageSize,
		"query":   existsQuery(fieldPhone),
		"_source": []string{fieldPhone},
	}
	path := fmt.Sprintf("/%s/_search?scroll=%s", r.pattern, scrollKeepAlive)

	var out searchResponse
	if err := r.client.do(ctx, http.MethodPost, path, body, &out); err != nil {
		return nil, fmt.Errorf("open phone scan on %s: %w", r.pattern, err)
	}
	if out.ScrollId == "" {
		return nil, fmt.Errorf("open phone scan on %s: response carried no scroll id", r.pattern)
	}

	return &scrollCursor{
		repo:     r,
		scrollId: out.ScrollId,
		pending:  out.Hits.Hits,
		primed:   true,
	}, nil
}

// UpdatePhones rewrites stored phone values in one bulk write.
func (r *ListingRepository) UpdatePhones(ctx context.Context, updates ...collection.PhoneUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, u := range updates {
		doc := map[string]any{fieldPhone: u.Phone}
		if err := r.encodeBulkPair(enc, "update", u.Index, u.Id, map[string]any{"doc": doc}); err != nil {
			return err
		}
	}

	return r.bulk(ctx, &buf)
}

// encodeBulkPair writes one action/body line pair of an ndjson bulk
// request. An empty index falls back to the repository's index.
func (r *ListingRepository) encodeBulkPair(enc *json.Encoder, action, index, id string, body any) error {
	if index == "" {
		index = r.index
	}
	header := map[string]any{action: map[string]any{"_index": index, "_id": id}}
	if err := enc.Encode(header); err != nil {
		return fmt.Errorf("failed to encode bulk action: %w", err)
	}
	if err := enc.Encode(body); err != nil {
		return fmt.Errorf("failed to encode bulk document: %w", err)
	}
	return nil
}

func (r *ListingRepository) bulk(ctx context.Context, body *bytes.Buffer) error {
	var out bulkResponse
	if err := r.client.doRaw(ctx, http.MethodPost, "/_bulk", "application/x-ndjson", body, &out); err != nil {
		return fmt.Errorf("bulk write: %w", err)
	}
	return out.itemErrors()
}

// candidateCursor pages through a point-in-time snapshot with search_after.
type candidateCursor struct {
	repo        *ListingRepository
	pitId       string
	pageSize    int
	searchAfter []any
	exhausted   bool
	closed      bool
}

func (c *candidateCursor) Next(ctx context.Context) ([]*core.Listing, error) {
	if c.closed {
		return nil, collection.ErrSnapshotClosed
	}
	if c.exhausted {
		return nil, nil
	}

	body := map[string]any{
		"size":  c.pageSize,
		"query": candidateQuery(),
		"sort":  []any{map[string]any{"_shard_doc": "asc"}},
		"pit": map[string]any{
			"id":         c.pitId,
			"keep_alive": keepAliveString(c.repo.keepAlive),
		},
		"_source": []string{fieldName, fieldDescription, fieldDriverTitle, fieldStatus},
	}
	if c.searchAfter != nil {
		body["search_after"] = c.searchAfter
	}

	var out searchResponse
	if err := c.repo.client.do(ctx, http.MethodPost, "/_search", body, &out); err != nil {
		return nil, fmt.Errorf("fetch candidate page: %w", err)
	}

	// The engine may rotate the pit id between pages.
	if out.PitId != "" {
		c.pitId = out.PitId
	}

	hits := out.Hits.Hits
	if len(hits) == 0 {
		c.exhausted = true
		return nil, nil
	}
	c.searchAfter = hits[len(hits)-1].Sort

	return hitsToListings(hits), nil
}

func (c *candidateCursor) Close(ctx context.Context) error {
	if c.closed {
		return nil
	}
	c.closed = true

	body := map[string]any{"pit_id": []string{c.pitId}}
	if err := c.repo.client.do(ctx, http.MethodDelete, "/_pit", body, nil); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	return nil
}

// scrollCursor pages through a scroll context.
type scrollCursor struct {
	repo      *ListingRepository
	scrollId  string
	pending   []searchHit
	primed    bool
	exhausted bool
	closed    bool
}

func (s *scrollCursor) Next(ctx context.Context) ([]*core.Listing, error) {
	if s.closed {
		return nil, collection.ErrSnapshotClosed
	}
	if s.primed {
		s.primed = false
		hits := s.pending
		s.pending = nil
		if len(hits) == 0 {
			s.exhausted = true
			return nil, nil
		}
		return hitsToListings(hits), nil
	}
	if s.exhausted {
		return nil, nil
	}

	body := map[string]any{"scroll": scrollKeepAlive, "scroll_id": s.scrollId}
	var out searchResponse
	if err := s.repo.client.do(ctx, http.MethodPost, "/_search/scroll", body, &out); err != nil {
		return nil, fmt.Errorf("fetch scroll page: %w", err)
	}
	if out.ScrollId != "" {
		s.scrollId = out.ScrollId
	}

	hits := out.Hits.Hits
	if len(hits) == 0 {
		s.exhausted = true
		return nil, nil
	}
	return hitsToListings(hits), nil
}

func (s *scrollCursor) Close(ctx context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true

	body := map[string]any{"scroll_id": []string{s.scrollId}}
	if err := s.repo.client.do(ctx, http.MethodDelete, "/_search/scroll", body, nil); err != nil {
		return fmt.Errorf("clear scroll context: %w", err)
	}
	return nil
}

// Wire types shared by the cursors.

type searchResponse struct {
	PitId    string `json:"pit_id"`
	ScrollId string `json:"_scroll_id"`
	Hits     struct {
		Hits []searchHit `json:"hits"`
	} `json:"hits"`
}

type searchHit struct {
	Index  string        `json:"_index"`
	Id     string        `json:"_id"`
	Source listingSource `json:"_source"`
	Sort   []any         `json:"sort"`
}

type listingSource struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	DriverTitle     string `json:"driver_title"`
	EmbeddingStatus string `json:"embedding_status"`
	DecryptedPhone  string `json:"decrypted_phone"`
}

func hitsToListings(hits []searchHit) []*core.Listing {
	listings := make([]*core.Listing, 0, len(hits))
	for _, h := range hits {
		listings = append(listings, &core.Listing{
			Id:          h.Id,
			Index:       h.Index,
			Name:        h.Source.Name,
			Description: h.Source.Description,
			DriverTitle: h.Source.DriverTitle,
			Status:      core.EmbeddingStatus(h.Source.EmbeddingStatus),
			Phone:       h.Source.DecryptedPhone,
		})
	}
	return listings
}

type bulkResponse struct {
	Errors bool                  `json:"errors"`
	Items  []map[string]bulkItem `json:"items"`
}

type bulkItem struct {
	Id     string          `json:"_id"`
	Status int             `json:"status"`
	Error  json.RawMessage `json:"error"`
}

// itemErrors converts per-item rejections into a *collection.BulkError.
// Returns nil when every item was accepted.
func (b *bulkResponse) itemErrors() error {
	if !b.Errors {
		return nil
	}

	be := &collection.BulkError{}
	for _, item := range b.Items {
		for _, it := range item {
			if len(it.Error) == 0 {
				be.Accepted++
				continue
			}
			be.Items = append(be.Items, collection.BulkItemError{
				Id:     it.Id,
				Status: it.Status,
				Reason: bulkItemReason(it.Error),
			})
		}
	}
	if len(be.Items) == 0 {
		return nil
	}
	return be
}

// bulkItemReason extracts the reason from a per-item error object, which
// comes as {"type": ..., "reason": ...} rather than the top-level error
// envelope.
func bulkItemReason(raw json.RawMessage) string {
	var detail struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(raw, &detail); err == nil && detail.Reason != "" {
		return detail.Reason
	}
	return string(raw)
}

func keepAliveString(d time.Duration) string {
	if d >= time.Minute && d%time.Minute == 0 {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	return fmt.Sprintf("%ds", int(d.Seconds()))
}
