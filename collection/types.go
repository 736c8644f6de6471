package collection

import "github.com/casalio/revec/core"

// EmbeddingUpdate is one outcome write: the new status and, for successes,
// the vector. An empty Index falls back to the repository's configured
// index.
type EmbeddingUpdate struct {
	Id     string
	Index  string
	Status core.EmbeddingStatus
	Vector []float32
}

// PhoneUpdate rewrites the stored phone number for one listing.
type PhoneUpdate struct {
	Id    string
	Index string
	Phone string
}
