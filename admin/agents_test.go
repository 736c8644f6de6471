package admin

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casalio/revec/collection"
	"github.com/casalio/revec/core"
)

const sampleExport = `{
  "hits": {
    "hits": [
      {
        "_id": "0721234567",
        "_source": {
          "phone": "0721234567",
          "type": "agency",
          "agency_name": "Imobiliare Vest",
          "listing_count": 42,
          "ad_count": 120,
          "last_updated": "2025-10-01T00:00:00Z"
        }
      },
      {
        "_id": "0731111111",
        "_source": {
          "type": "agent",
          "ad_count": 3
        }
      },
      {
        "_id": "",
        "_source": {
          "type": "agent"
        }
      }
    ]
  }
}`

func writeExport(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agents_export.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadAgentsExport(t *testing.T) {
	agents, skipped, err := ReadAgentsExport(writeExport(t, sampleExport))
	require.NoError(t, err)

	// The phoneless row with an empty id fails validation.
	assert.Equal(t, 1, skipped)
	require.Len(t, agents, 2)

	assert.Equal(t, "0721234567", agents[0].Phone)
	assert.Equal(t, "Imobiliare Vest", agents[0].AgencyName)
	assert.Equal(t, 42, agents[0].ListingCount)

	// Source without a phone falls back to the document id.
	assert.Equal(t, "0731111111", agents[1].Phone)
	assert.Equal(t, "agent", agents[1].Type)
}

func TestReadAgentsExportMissingFile(t *testing.T) {
	_, _, err := ReadAgentsExport(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading agents export")
}

func TestReadAgentsExportMalformed(t *testing.T) {
	_, _, err := ReadAgentsExport(writeExport(t, "{not json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing agents export")
}

// fakeAgentRepo records repository calls for the importer tests.
type fakeAgentRepo struct {
	ensured  bool
	imported []*core.Agent
	count    int

	ensureErr error
	importErr error
	countErr  error
}

func (f *fakeAgentRepo) EnsureIndex(ctx context.Context) error {
	if f.ensureErr != nil {
		return f.ensureErr
	}
	f.ensured = true
	return nil
}

func (f *fakeAgentRepo) BulkImport(ctx context.Context, agents []*core.Agent) (int, error) {
	f.imported = agents
	if f.importErr != nil {
		var bulkErr *collection.BulkError
		if errors.As(f.importErr, &bulkErr) {
			return bulkErr.Accepted, f.importErr
		}
		return 0, f.importErr
	}
	return len(agents), nil
}

func (f *fakeAgentRepo) Count(ctx context.Context) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.count, nil
}

func TestImportFile(t *testing.T) {
	repo := &fakeAgentRepo{count: 2}
	stats, err := NewAgentImporter(repo).ImportFile(context.Background(), writeExport(t, sampleExport))
	require.NoError(t, err)

	assert.True(t, repo.ensured)
	assert.Equal(t, 2, stats.Read)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 2, stats.Imported)
	assert.Zero(t, stats.Rejected)
	assert.Equal(t, 2, stats.Total)
	require.Len(t, repo.imported, 2)
}

func TestImportFileEmptyExport(t *testing.T) {
	repo := &fakeAgentRepo{}
	_, err := NewAgentImporter(repo).ImportFile(context.Background(), writeExport(t, `{"hits":{"hits":[]}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no importable agents")
	assert.False(t, repo.ensured, "index must not be touched for an empty export")
}

func TestImportFileEnsureIndexFailure(t *testing.T) {
	repo := &fakeAgentRepo{ensureErr: errors.New("forbidden")}
	_, err := NewAgentImporter(repo).ImportFile(context.Background(), writeExport(t, sampleExport))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ensuring agents index")
}

func TestImportFilePartialRejections(t *testing.T) {
	repo := &fakeAgentRepo{
		count: 1,
		importErr: &collection.BulkError{
			Accepted: 1,
			Items:    []collection.BulkItemError{{Id: "0731111111", Status: 400, Reason: "mapper_parsing_exception"}},
		},
	}

	stats, err := NewAgentImporter(repo).ImportFile(context.Background(), writeExport(t, sampleExport))
	require.NoError(t, err, "item rejections are counted, not fatal")
	assert.Equal(t, 1, stats.Imported)
	assert.Equal(t, 1, stats.Rejected)
}

func TestImportFileBulkFailure(t *testing.T) {
	repo := &fakeAgentRepo{importErr: errors.New("bulk endpoint unavailable")}
	_, err := NewAgentImporter(repo).ImportFile(context.Background(), writeExport(t, sampleExport))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "importing agents")
}

func TestImportFileCountFailureIsNotFatal(t *testing.T) {
	repo := &fakeAgentRepo{countErr: errors.New("timeout")}
	stats, err := NewAgentImporter(repo).ImportFile(context.Background(), writeExport(t, sampleExport))
	require.NoError(t, err)
	assert.Equal(t, -1, stats.Total)
}
