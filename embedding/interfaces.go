package embedding

import "context"

// Result is the outcome of embedding one input text. Exactly one of Vector
// and Err is meaningful.
type Result struct {
	// Vector is the embedding, in the model's output dimensionality.
	Vector []float32

	// Err is the per-text failure, when the service processed the batch
	// but could not embed this input.
	Err error
}

// Embedder generates vector embeddings for batches of text.
// Implementations must be safe for concurrent use.
type Embedder interface {
	// EmbedTexts embeds texts in one service call and returns one Result
	// per input, in input order. A non-nil error means the whole call
	// failed and no per-text outcome is available; callers classify it
	// via this package's error types.
	EmbedTexts(ctx context.Context, texts []string) ([]Result, error)
}
