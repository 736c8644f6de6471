package core

import "strings"

// EmbeddingStatus records the outcome of the most recent embedding attempt
// for a listing.
type EmbeddingStatus string

const (
	// StatusSuccess means a vector was produced and stored.
	StatusSuccess EmbeddingStatus = "success"
	// StatusFailed means the last attempt failed transiently; the listing
	// remains eligible for re-embedding.
	StatusFailed EmbeddingStatus = "failed"
	// StatusFatal means the listing can never be embedded (no text, or the
	// service rejected the input outright).
	StatusFatal EmbeddingStatus = "failed_permanently"
)

// Valid reports whether s is one of the known statuses.
func (s EmbeddingStatus) Valid() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusFatal:
		return true
	}
	return false
}

// Terminal reports whether s precludes any further embedding attempts.
func (s EmbeddingStatus) Terminal() bool {
	return s == StatusFatal
}

// Listing is a property document in the search collection. Only the fields
// the maintenance jobs read are carried; the stored document has many more.
type Listing struct {
	Id          string
	Index       string // index the document was read from
	Name        string
	Description string
	DriverTitle string // title chosen by the ingestion driver, preferred over Name
	Status      EmbeddingStatus
	Phone       string // stored contact phone, used by the normalization job
}

// EmbedText derives the text sent to the embedding service: the driver
// title (falling back to the listing name) joined with the description by a
// blank line, whitespace-trimmed. An empty result means the listing cannot
// be embedded.
func (l *Listing) EmbedText() string {
	title := l.DriverTitle
	if title == "" {
		title = l.Name
	}
	return strings.TrimSpace(title + "\n\n" + l.Description)
}

// Agent is a contact aggregated across listings, kept in its own index for
// lookup by phone number.
type Agent struct {
	Phone        string
	Type         string
	AgencyName   string
	ListingCount int
	AdCount      int
	LastUpdated  string // passed through from the export unparsed
}
