// Package mock provides a deterministic embedding.Embedder test double.
package mock

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/casalio/revec/embedding"
)

// DefaultDimensions keeps test vectors small.
const DefaultDimensions = 8

// MockEmbedder is a test double for embedding.Embedder.
// It allows custom behavior injection via a function field and falls back
// to deterministic hash-derived vectors.
type MockEmbedder struct {
	// EmbedTextsFunc is called by EmbedTexts if set.
	// If nil, uses default deterministic behavior.
	EmbedTextsFunc func(ctx context.Context, texts []string) ([]embedding.Result, error)

	mu         sync.Mutex
	dimensions int
	callCount  int
}

// NewMockEmbedder creates a mock embedder with default deterministic
// behavior. Returns the concrete type so tests can inject behavior and
// assert call counts.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{dimensions: DefaultDimensions}
}

// WithDimensions sets the dimensionality of the generated vectors.
func (m *MockEmbedder) WithDimensions(dim int) *MockEmbedder {
	m.mu.Lock()
	defer m.mu.Unlock()
	if dim > 0 {
		m.dimensions = dim
	}
	return m
}

// EmbedTexts generates deterministic embeddings for each text.
func (m *MockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([]embedding.Result, error) {
	m.mu.Lock()
	m.callCount++
	dim := m.dimensions
	m.mu.Unlock()

	if m.EmbedTextsFunc != nil {
		return m.EmbedTextsFunc(ctx, texts)
	}

	results := make([]embedding.Result, len(texts))
	for i, text := range texts {
		results[i] = embedding.Result{Vector: deterministicVector(text, dim)}
	}
	return results, nil
}

// CallCount returns the number of times EmbedTexts was called.
func (m *MockEmbedder) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count and any injected behavior.
func (m *MockEmbedder) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.EmbedTextsFunc = nil
}

// deterministicVector creates an embedding vector from a text hash, so the
// same text always produces the same vector.
func deterministicVector(text string, dim int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vector := make([]float32, dim)
	for i := 0; i < dim; i++ {
		seed = seed*1664525 + 1013904223 // LCG constants
		vector[i] = float32(seed%1000) / 1000.0
	}
	return vector
}
