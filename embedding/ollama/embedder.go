// Package ollama embeds text through an Ollama-compatible HTTP service.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/casalio/revec/embedding"
)

const (
	// DefaultBaseURL is the local Ollama endpoint.
	DefaultBaseURL = "http://localhost:11434"

	// DefaultModel is the embedding model the listing index was built
	// with.
	DefaultModel = "bge-m3:q4_K_M"

	// DefaultMaxInFlight caps concurrent embedding requests.
	DefaultMaxInFlight = 10

	// apiPathEmbed is the batch embedding endpoint.
	apiPathEmbed = "/api/embed"

	// maxErrorBody caps how much of an error response body is read into
	// error messages.
	maxErrorBody = 4096
)

// Option configures an Embedder.
type Option func(*Embedder)

// WithBaseURL sets the service endpoint.
func WithBaseURL(url string) Option {
	return func(e *Embedder) {
		if url != "" {
			e.baseURL = strings.TrimSuffix(url, "/")
		}
	}
}

// WithModel sets the embedding model.
func WithModel(model string) Option {
	return func(e *Embedder) {
		if model != "" {
			e.model = model
		}
	}
}

// WithMaxInFlight caps concurrent embedding requests.
func WithMaxInFlight(n int) Option {
	return func(e *Embedder) {
		if n > 0 {
			e.maxInFlight = int64(n)
		}
	}
}

// WithConnectTimeout bounds dialing the service.
func WithConnectTimeout(d time.Duration) Option {
	return func(e *Embedder) {
		if d > 0 {
			e.connectTimeout = d
		}
	}
}

// WithReadTimeout bounds whole requests. Embedding a full batch on CPU can
// take a while, so this is generous by default.
func WithReadTimeout(d time.Duration) Option {
	return func(e *Embedder) {
		if d > 0 {
			e.readTimeout = d
		}
	}
}

// WithHTTPClient replaces the HTTP client entirely, overriding the timeout
// options.
func WithHTTPClient(hc *http.Client) Option {
	return func(e *Embedder) {
		e.hc = hc
	}
}

// Embedder implements embedding.Embedder against the Ollama batch API.
type Embedder struct {
	baseURL        string
	model          string
	maxInFlight    int64
	connectTimeout time.Duration
	readTimeout    time.Duration
	hc             *http.Client
	sem            *semaphore.Weighted
	logger         *slog.Logger
}

// NewEmbedder creates an embedder for a local Ollama-compatible service.
func NewEmbedder(opts ...Option) *Embedder {
	e := &Embedder{
		baseURL:        DefaultBaseURL,
		model:          DefaultModel,
		maxInFlight:    DefaultMaxInFlight,
		connectTimeout: 60 * time.Second,
		readTimeout:    120 * time.Second,
		logger:         slog.Default().With("component", "ollama-embedder"),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.hc == nil {
		e.hc = &http.Client{
			Timeout: e.readTimeout,
			Transport: &http.Transport{
				DialContext:     (&net.Dialer{Timeout: e.connectTimeout}).DialContext,
				MaxConnsPerHost: int(e.maxInFlight),
			},
		}
	}
	e.sem = semaphore.NewWeighted(e.maxInFlight)
	return e
}

// Model returns the configured embedding model.
func (e *Embedder) Model() string {
	return e.model
}

// EmbedTexts embeds texts in one batch request.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([]embedding.Result, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	if err := e.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer e.sem.Release(1)

	e.logger.Debug("embedding batch", "count", len(texts), "model", e.model)

	body, err := json.Marshal(embedRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("failed to encode embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+apiPathEmbed, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, serviceError(resp)
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode embed response: %w", err)
	}

	if len(out.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d, got %d",
			embedding.ErrResultCountMismatch, len(texts), len(out.Embeddings))
	}

	results := make([]embedding.Result, len(texts))
	for i, vec := range out.Embeddings {
		if len(vec) == 0 {
			results[i] = embedding.Result{Err: embedding.ErrEmptyEmbedding}
			continue
		}
		results[i] = embedding.Result{Vector: vec}
	}
	return results, nil
}

// serviceError turns a non-200 response into *embedding.Error, extracting
// the message Ollama puts under the error key.
func serviceError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	message := resp.Status
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		message = body.Error
	} else if msg := strings.TrimSpace(string(raw)); msg != "" {
		message = msg
	}

	return &embedding.Error{StatusCode: resp.StatusCode, Message: message}
}

// embedRequest is the request body for the batch embedding endpoint.
type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// embedResponse is the response from the batch embedding endpoint.
type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}
