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


// Package gemini embeds text through the Google Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/generative-ai-go/genai"
	"golang.org/x/sync/semaphore"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/casalio/revec/embedding"
)

// DefaultModel is the Gemini embedding model.
const DefaultModel = "gemini-embedding-001"

// Embedder implements embedding.Embedder using Gemini batch embedding.
type Embedder struct {
	client *genai.Client
	model  string
	sem    *semaphore.Weighted
	logger *slog.Logger
}

// NewEmbedder creates a Gemini embedder. maxInFlight caps concurrent API
// calls; values below one fall back to one.
func NewEmbedder(ctx context.Context, apiKey, model string, maxInFlight int) (*Embedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if model == "" {
		model = DefaultModel
	}
	if maxInFlight < 1 {
		maxInFlight = 1
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Embedder{
		client: client,
		model:  model,
		sem:    semaphore.NewWeighted(int64(maxInFlight)),
		logger: slog.Default().With("component", "gemini-embedder"),
	}, nil
}

// Model returns the configured embedding model.
func (e *Embedder) Model() string {
	return e.model
}

// EmbedTexts embeds texts in one batch API call.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([]embedding.Result, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	if err := e.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer e.sem.Release(1)

	e.logger.Debug("embedding batch", "count", len(texts), "model", e.model)

	em := e.client.EmbeddingModel(e.model)
	batch := em.NewBatch()
	for _, text := range texts {
		batch.AddContent(genai.Text(text))
	}

	res, err := em.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, wrapAPIError(err)
	}

	if len(res.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d, got %d",
			embedding.ErrResultCountMismatch, len(texts), len(res.Embeddings))
	}

	results := make([]embedding.Result, len(texts))
	for i, emb := range res.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			results[i] = embedding.Result{Err: embedding.ErrEmptyEmbedding}
			continue
		}
		results[i] = embedding.Result{Vector: emb.Values}
	}
	return results, nil
}

// Close releases the underlying API client.
func (e *Embedder) Close() error {
	return e.client.Close()
}

// wrapAPIError maps Google API errors onto *embedding.Error so retry
// classification sees the HTTP status. Other errors pass through.
func wrapAPIError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return &embedding.Error{StatusCode: gerr.Code, Message: gerr.Message}
	}
	return fmt.Errorf("batch embed: %w", err)
}
