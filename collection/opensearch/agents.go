package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/casalio/revec/collection"
	"github.com/casalio/revec/core"
)

// agentsMapping is the lookup-table mapping for known agent phone numbers.
// The phone number doubles as the document id, so lookups at search time
// are single-term queries.
const agentsMapping = `{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0
  },
  "mappings": {
    "properties": {
      "phone": {"type": "keyword"},
      "type": {"type": "keyword"},
      "agency_name": {
        "type": "text",
        "fields": {
          "keyword": {"type": "keyword"}
        }
      },
      "source": {"type": "keyword"},
      "scraped_at": {"type": "date"},
      "listing_count": {"type": "integer"},
      "ad_count": {"type": "integer"},
      "confidence": {"type": "float"},
      "last_updated": {"type": "date"}
    }
  }
}`

// AgentRepository implements collection.AgentRepository against the agents
// index.
type AgentRepository struct {
	client *Client
	index  string
}

// NewAgentRepository creates a repository over the named agents index.
func NewAgentRepository(client *Client, index string) *AgentRepository {
	return &AgentRepository{client: client, index: index}
}

// EnsureIndex creates the agents index with its mapping if it does not
// exist yet.
func (r *AgentRepository) EnsureIndex(ctx context.Context) error {
	exists, err := r.client.IndexExists(ctx, r.index)
	if err != nil {
		return fmt.Errorf("check agents index: %w", err)
	}
	if exists {
		return nil
	}
	if err := r.client.CreateIndex(ctx, r.index, strings.NewReader(agentsMapping)); err != nil {
		return fmt.Errorf("create agents index: %w", err)
	}
	return nil
}

// BulkImport indexes agents in one bulk write, keyed by phone number.
// Returns the number of accepted documents; per-item rejections come back
// as a *collection.BulkError alongside the accepted count.
func (r *AgentRepository) BulkImport(ctx context.Context, agents []*core.Agent) (int, error) {
	if len(agents) == 0 {
		return 0, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, a := range agents {
		header := map[string]any{"index": map[string]any{"_index": r.index, "_id": a.Phone}}
		if err := enc.Encode(header); err != nil {
			return 0, fmt.Errorf("failed to encode bulk action: %w", err)
		}
		if err := enc.Encode(agentSource{
			Phone:        a.Phone,
			Type:         a.Type,
			AgencyName:   a.AgencyName,
			ListingCount: a.ListingCount,
			AdCount:      a.AdCount,
			LastUpdated:  a.LastUpdated,
		}); err != nil {
			return 0, fmt.Errorf("failed to encode agent document: %w", err)
		}
	}

	var out bulkResponse
	if err := r.client.doRaw(ctx, http.MethodPost, "/_bulk", "application/x-ndjson", &buf, &out); err != nil {
		return 0, fmt.Errorf("bulk import: %w", err)
	}
	if err := out.itemErrors(); err != nil {
		accepted := len(agents)
		var be *collection.BulkError
		if errors.As(err, &be) {
			accepted = len(agents) - len(be.Items)
		}
		return accepted, err
	}
	return len(agents), nil
}

// Count returns the number of agents in the index.
func (r *AgentRepository) Count(ctx context.Context) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	body := map[string]any{"query": matchAllQuery()}
	if err := r.client.do(ctx, http.MethodPost, "/"+r.index+"/_count", body, &out); err != nil {
		return 0, fmt.Errorf("count agents: %w", err)
	}
	return out.Count, nil
}

// agentSource is the document shape stored in the agents index.
type agentSource struct {
	Phone        string `json:"phone"`
	Type         string `json:"type,omitempty"`
	AgencyName   string `json:"agency_name,omitempty"`
	ListingCount int    `json:"listing_count"`
	AdCount      int    `json:"ad_count"`
	LastUpdated  string `json:"last_updated,omitempty"`
}
