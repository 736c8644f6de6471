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


// Package revec wires the maintenance jobs for the real-estate search
// collection: resilient re-embedding, status reporting, phone
// normalization, and agent imports.
package revec

import (
	"context"
	"fmt"
	"io"

	"github.com/casalio/revec/collection"
	"github.com/casalio/revec/collection/opensearch"
	"github.com/casalio/revec/config"
	"github.com/casalio/revec/embedding"
	"github.com/casalio/revec/embedding/gemini"
	"github.com/casalio/revec/embedding/ollama"
	"github.com/casalio/revec/reembed"
)

// Revec bundles the search cluster client, the typed repositories over
// it, and the configured embedding provider.
type Revec struct {
	cfg      *config.Config
	client   *opensearch.Client
	listings *opensearch.ListingRepository
	agents   *opensearch.AgentRepository
	embedder embedding.Embedder
}

// Open builds the cluster client, repositories and embedding provider
// from cfg. No connection is established until the first call; Open only
// fails on invalid configuration.
func Open(ctx context.Context, cfg *config.Config) (*Revec, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}

	client, err := opensearch.NewClient(&opensearch.Config{
		BaseURL:            cfg.OpenSearchHost,
		Username:           cfg.OpenSearchUser,
		Password:           cfg.OpenSearchPass,
		InsecureSkipVerify: cfg.OpenSearchInsecure,
		MaxConnections:     cfg.MaxConnections,
		ConnectTimeout:     cfg.ConnectTimeout,
		ReadTimeout:        cfg.ReadTimeout,
		RequestsPerSecond:  cfg.OpenSearchRPS,
	})
	if err != nil {
		return nil, fmt.Errorf("creating search client: %w", err)
	}

	embedder, err := newEmbedder(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &Revec{
		cfg:    cfg,
		client: client,
		listings: opensearch.NewListingRepository(client, cfg.IndexName,
			opensearch.WithKeepAlive(cfg.PITKeepAlive),
			opensearch.WithScanPattern(cfg.IndexPattern),
		),
		agents:   opensearch.NewAgentRepository(client, cfg.AgentsIndex),
		embedder: embedder,
	}, nil
}

func newEmbedder(ctx context.Context, cfg *config.Config) (embedding.Embedder, error) {
	switch cfg.EmbeddingProvider {
	case config.ProviderOllama:
		return ollama.NewEmbedder(
			ollama.WithBaseURL(cfg.OllamaHost),
			ollama.WithModel(cfg.OllamaModel),
			ollama.WithMaxInFlight(cfg.MaxConnections),
			ollama.WithConnectTimeout(cfg.ConnectTimeout),
			ollama.WithReadTimeout(cfg.ReadTimeout),
		), nil
	case config.ProviderGemini:
		embedder, err := gemini.NewEmbedder(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.MaxConnections)
		if err != nil {
			return nil, fmt.Errorf("creating gemini embedder: %w", err)
		}
		return embedder, nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.EmbeddingProvider)
	}
}

// Client exposes the raw cluster client for index administration.
func (r *Revec) Client() *opensearch.Client {
	return r.client
}

// Listings is the candidate scan and write-back surface of the listing
// index.
func (r *Revec) Listings() collection.ListingRepository {
	return r.listings
}

// Stats is the read-only count surface behind the status report.
func (r *Revec) Stats() collection.ListingStats {
	return r.listings
}

// Phones is the phone normalization surface across the listing indexes.
func (r *Revec) Phones() collection.PhoneRepository {
	return r.listings
}

// Agents is the agent lookup index.
func (r *Revec) Agents() collection.AgentRepository {
	return r.agents
}

// Embedder is the configured embedding provider.
func (r *Revec) Embedder() embedding.Embedder {
	return r.embedder
}

// ReembedConfig maps the loaded configuration onto the pipeline's knobs.
func (r *Revec) ReembedConfig() *reembed.Config {
	c := reembed.DefaultConfig()
	c.PageSize = r.cfg.ScrollSize
	c.BatchSize = r.cfg.BatchSize
	c.MaxRetries = r.cfg.MaxRetries
	c.RetryDelay = r.cfg.InitialRetryDelay
	c.MaxRetryDelay = r.cfg.MaxRetryDelay
	c.SleepBetweenBatches = r.cfg.SleepBetweenBatches
	c.SleepBetweenPasses = r.cfg.SleepBetweenPasses
	c.MinPasses = r.cfg.MinPasses
	c.Dimensions = r.cfg.EmbeddingDimensions
	return c
}

// NewReembedder creates the re-embedding driver over this collection and
// embedder. store must hold the run lock; out receives progress output.
func (r *Revec) NewReembedder(store *reembed.ProgressStore, out io.Writer) *reembed.Reembedder {
	return reembed.NewReembedder(r.listings, r.embedder, r.ReembedConfig(), store, out)
}

// Close releases the embedding provider. The cluster client holds no
// resources beyond pooled connections.
func (r *Revec) Close() error {
	if closer, ok := r.embedder.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
