package opensearch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casalio/revec/collection"
	"github.com/casalio/revec/core"
)

func testAgentRepo(t *testing.T, srv *httptest.Server) *AgentRepository {
	t.Helper()
	client, err := NewClient(&Config{BaseURL: srv.URL})
	require.NoError(t, err)
	return NewAgentRepository(client, "agents")
}

func TestEnsureIndexCreatesWhenMissing(t *testing.T) {
	var createBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/agents", r.URL.Path)
		switch r.Method {
		case http.MethodHead:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			raw, _ := io.ReadAll(r.Body)
			createBody = string(raw)
			io.WriteString(w, `{"acknowledged": true}`)
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	}))
	defer srv.Close()

	require.NoError(t, testAgentRepo(t, srv).EnsureIndex(context.Background()))

	require.NotEmpty(t, createBody)
	assert.Contains(t, createBody, `"phone": {"type": "keyword"}`)
	assert.Contains(t, createBody, `"last_updated": {"type": "date"}`)
	assert.Contains(t, createBody, `"number_of_shards": 1`)
}

func TestEnsureIndexSkipsWhenPresent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("unexpected method %s", r.Method)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, testAgentRepo(t, srv).EnsureIndex(context.Background()))
}

func TestBulkImport(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/_bulk", r.URL.Path)
		assert.Equal(t, "application/x-ndjson", r.Header.Get("Content-Type"))
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		io.WriteString(w, `{"errors": false, "items": []}`)
	}))
	defer srv.Close()

	accepted, err := testAgentRepo(t, srv).BulkImport(context.Background(), []*core.Agent{
		{Phone: "0722123456", Type: "agency", AgencyName: "Imobiliare Vest", ListingCount: 41, AdCount: 128, LastUpdated: "2025-11-02T10:00:00Z"},
		{Phone: "0733987654", ListingCount: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, accepted)

	lines := strings.Split(strings.TrimRight(gotBody, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.JSONEq(t, `{"index": {"_index": "agents", "_id": "0722123456"}}`, lines[0])
	assert.JSONEq(t, `{
		"phone": "0722123456",
		"type": "agency",
		"agency_name": "Imobiliare Vest",
		"listing_count": 41,
		"ad_count": 128,
		"last_updated": "2025-11-02T10:00:00Z"
	}`, lines[1])
	assert.JSONEq(t, `{"index": {"_index": "agents", "_id": "0733987654"}}`, lines[2])
	assert.JSONEq(t, `{"phone": "0733987654", "listing_count": 3, "ad_count": 0}`, lines[3])
}

func TestBulkImportEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for an empty import")
	}))
	defer srv.Close()

	accepted, err := testAgentRepo(t, srv).BulkImport(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, accepted)
}

func TestBulkImportRejections(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{
			"errors": true,
			"items": [
				{"index": {"_id": "0722123456", "status": 201}},
				{"index": {"_id": "0733987654", "status": 400,
				 "error": {"type": "mapper_parsing_exception", "reason": "bad date"}}}
			]
		}`)
	}))
	defer srv.Close()

	accepted, err := testAgentRepo(t, srv).BulkImport(context.Background(), []*core.Agent{
		{Phone: "0722123456"},
		{Phone: "0733987654"},
	})
	require.Error(t, err)
	assert.Equal(t, 1, accepted)

	var bulkErr *collection.BulkError
	require.True(t, errors.As(err, &bulkErr))
	require.Len(t, bulkErr.Items, 1)
	assert.Equal(t, "0733987654", bulkErr.Items[0].Id)
	assert.Equal(t, "bad date", bulkErr.Items[0].Reason)
}

func TestAgentCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/agents/_count", r.URL.Path)
		io.WriteString(w, `{"count": 812}`)
	}))
	defer srv.Close()

	count, err := testAgentRepo(t, srv).Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 812, count)
}
