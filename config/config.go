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


// Package config loads runtime configuration for the revec jobs from the
// environment, with optional .env file support for local development.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// ErrMissingRequired indicates a required configuration value is absent.
var ErrMissingRequired = errors.New("missing required configuration")

// Embedding provider names accepted by EMBEDDING_PROVIDER.
const (
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"
)

// Config holds every tunable for the revec jobs. Defaults match the
// production deployment.
type Config struct {
	// Search cluster
	OpenSearchHost     string  `envconfig:"OPENSEARCH_HOST" default:"https://localhost:9200"`
	OpenSearchUser     string  `envconfig:"OPENSEARCH_USER" default:"admin"`
	OpenSearchPass     string  `envconfig:"OPENSEARCH_PASS" default:"admin"`
	OpenSearchInsecure bool    `envconfig:"OPENSEARCH_INSECURE" default:"true"`
	OpenSearchRPS      float64 `envconfig:"OPENSEARCH_RPS" default:"10"`
	IndexName          string  `envconfig:"INDEX_NAME" default:"real-estate-bge-v2"`
	IndexPattern       string  `envconfig:"INDEX_PATTERN" default:"real-estate-*"`
	AgentsIndex        string  `envconfig:"AGENTS_INDEX" default:"agents"`

	// Embedding service
	EmbeddingProvider   string        `envconfig:"EMBEDDING_PROVIDER" default:"ollama"`
	OllamaHost          string        `envconfig:"OLLAMA_HOST" default:"http://localhost:11434"`
	OllamaModel         string        `envconfig:"OLLAMA_MODEL" default:"bge-m3:q4_K_M"`
	GeminiAPIKey        string        `envconfig:"GEMINI_API_KEY"`
	GeminiModel         string        `envconfig:"GEMINI_MODEL" default:"gemini-embedding-001"`
	EmbeddingDimensions int           `envconfig:"EMBEDDING_DIMENSIONS" default:"1024"`
	MaxConnections      int           `envconfig:"MAX_CONNECTIONS" default:"10"`
	ConnectTimeout      time.Duration `envconfig:"CONNECT_TIMEOUT" default:"60s"`
	ReadTimeout         time.Duration `envconfig:"READ_TIMEOUT" default:"120s"`

	// Re-embedding job
	ScrollSize          int           `envconfig:"SCROLL_SIZE" default:"100"`
	BatchSize           int           `envconfig:"BATCH_SIZE" default:"8"`
	PITKeepAlive        time.Duration `envconfig:"PIT_KEEP_ALIVE" default:"10m"`
	SleepBetweenBatches time.Duration `envconfig:"SLEEP_BETWEEN_BATCHES" default:"2s"`
	SleepBetweenPasses  time.Duration `envconfig:"SLEEP_BETWEEN_PASSES" default:"10s"`
	MaxRetries          int           `envconfig:"MAX_RETRIES" default:"3"`
	InitialRetryDelay   time.Duration `envconfig:"INITIAL_RETRY_DELAY" default:"5s"`
	MaxRetryDelay       time.Duration `envconfig:"MAX_RETRY_DELAY" default:"60s"`
	MinPasses           int           `envconfig:"MIN_PASSES" default:"2"`
	ProgressFile        string        `envconfig:"PROGRESS_FILE" default:"re_embed_progress.json"`

	// Admin jobs
	NormalizePageSize int `envconfig:"NORMALIZE_PAGE_SIZE" default:"500"`
	NormalizeWorkers  int `envconfig:"NORMALIZE_WORKERS" default:"4"`
}

// Load reads configuration from the environment. The given .env files are
// loaded first without overriding variables that are already set; missing
// files are ignored. When no files are given, ./.env is tried.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// Absent .env files are fine; the environment is authoritative.
		_ = godotenv.Load(f)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks required values and ranges.
func (c *Config) Validate() error {
	if c.OpenSearchHost == "" {
		return fmt.Errorf("%w: OPENSEARCH_HOST", ErrMissingRequired)
	}
	if c.IndexName == "" {
		return fmt.Errorf("%w: INDEX_NAME", ErrMissingRequired)
	}
	if c.ProgressFile == "" {
		return fmt.Errorf("%w: PROGRESS_FILE", ErrMissingRequired)
	}

	switch c.EmbeddingProvider {
	case ProviderOllama:
		if c.OllamaHost == "" {
			return fmt.Errorf("%w: OLLAMA_HOST", ErrMissingRequired)
		}
		if c.OllamaModel == "" {
			return fmt.Errorf("%w: OLLAMA_MODEL", ErrMissingRequired)
		}
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("%w: GEMINI_API_KEY", ErrMissingRequired)
		}
	default:
		return fmt.Errorf("unknown embedding provider %q: must be one of %s, %s",
			c.EmbeddingProvider, ProviderOllama, ProviderGemini)
	}

	if c.ScrollSize <= 0 {
		return fmt.Errorf("SCROLL_SIZE must be positive, got %d", c.ScrollSize)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("BATCH_SIZE must be positive, got %d", c.BatchSize)
	}
	if c.MaxConnections <= 0 {
		return fmt.Errorf("MAX_CONNECTIONS must be positive, got %d", c.MaxConnections)
	}
	if c.MaxRetries <= 0 {
		return fmt.Errorf("MAX_RETRIES must be positive, got %d", c.MaxRetries)
	}
	if c.MinPasses <= 0 {
		return fmt.Errorf("MIN_PASSES must be positive, got %d", c.MinPasses)
	}
	if c.EmbeddingDimensions < 0 {
		return fmt.Errorf("EMBEDDING_DIMENSIONS cannot be negative, got %d", c.EmbeddingDimensions)
	}

	return nil
}
