package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/casalio/revec/collection"
	"github.com/casalio/revec/core"
)

// agentsExport is the shape of a search-engine export file: the raw
// response of a match-all search over the agents index.
type agentsExport struct {
	Hits struct {
		Hits []struct {
			Id     string `json:"_id"`
			Source struct {
				Phone        string `json:"phone"`
				Type         string `json:"type"`
				AgencyName   string `json:"agency_name"`
				ListingCount int    `json:"listing_count"`
				AdCount      int    `json:"ad_count"`
				LastUpdated  string `json:"last_updated"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// ReadAgentsExport parses an export file into agents plus the number of
// rows skipped for failing validation. Rows missing a source phone fall
// back to the document id, which is the phone by convention.
func ReadAgentsExport(path string) ([]*core.Agent, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("reading agents export: %w", err)
	}

	var export agentsExport
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, 0, fmt.Errorf("parsing agents export: %w", err)
	}

	agents := make([]*core.Agent, 0, len(export.Hits.Hits))
	skipped := 0
	for _, hit := range export.Hits.Hits {
		agent := &core.Agent{
			Phone:        hit.Source.Phone,
			Type:         hit.Source.Type,
			AgencyName:   hit.Source.AgencyName,
			ListingCount: hit.Source.ListingCount,
			AdCount:      hit.Source.AdCount,
			LastUpdated:  hit.Source.LastUpdated,
		}
		if agent.Phone == "" {
			agent.Phone = hit.Id
		}
		if err := core.ValidateAgent(agent); err != nil {
			slog.Warn("skipping invalid agent row", "id", hit.Id, "error", err)
			skipped++
			continue
		}
		agents = append(agents, agent)
	}
	return agents, skipped, nil
}

// ImportStats summarizes one agent import.
type ImportStats struct {
	Read     int // valid rows in the export file
	Skipped  int // rows dropped during validation
	Imported int // documents accepted by the bulk write
	Rejected int // documents refused by the bulk write
	Total    int // agents in the index after the import
}

// AgentImporter loads agent export files into the agents index.
type AgentImporter struct {
	repo collection.AgentRepository
}

// NewAgentImporter creates an importer writing through repo.
func NewAgentImporter(repo collection.AgentRepository) *AgentImporter {
	return &AgentImporter{repo: repo}
}

// ImportFile reads the export at path, ensures the agents index exists,
// and bulk-indexes the rows keyed by phone number. Per-document
// rejections are counted, not fatal; re-importing the same file is
// idempotent because the phone key makes every row an upsert.
func (i *AgentImporter) ImportFile(ctx context.Context, path string) (ImportStats, error) {
	var stats ImportStats

	agents, skipped, err := ReadAgentsExport(path)
	stats.Skipped = skipped
	if err != nil {
		return stats, err
	}
	stats.Read = len(agents)
	if len(agents) == 0 {
		return stats, fmt.Errorf("no importable agents in %s", path)
	}

	if err := i.repo.EnsureIndex(ctx); err != nil {
		return stats, fmt.Errorf("ensuring agents index: %w", err)
	}

	accepted, err := i.repo.BulkImport(ctx, agents)
	stats.Imported = accepted
	if err != nil {
		var bulkErr *collection.BulkError
		if !errors.As(err, &bulkErr) {
			return stats, fmt.Errorf("importing agents: %w", err)
		}
		stats.Rejected = len(bulkErr.Items)
		for _, item := range bulkErr.Items {
			slog.Warn("agent rejected", "id", item.Id, "reason", item.Reason)
		}
	}

	total, err := i.repo.Count(ctx)
	if err != nil {
		// The import itself succeeded; the final count is informational.
		slog.Warn("failed to count agents after import", "error", err)
		total = -1
	}
	stats.Total = total

	return stats, nil
}
