package opensearch

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casalio/revec/collection"
)

func testClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	client, err := NewClient(&Config{
		BaseURL:  srv.URL,
		Username: "admin",
		Password: "secret",
	})
	require.NoError(t, err)
	return client
}

func TestNewClientDefaults(t *testing.T) {
	client, err := NewClient(nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, client.baseURL)
	assert.NotNil(t, client.limiter)
	assert.Equal(t, 120*time.Second, client.hc.Timeout)
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient(&Config{})
	require.Error(t, err)
}

func TestNewClientTrimsTrailingSlash(t *testing.T) {
	client, err := NewClient(&Config{BaseURL: "http://localhost:9200/"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9200", client.baseURL)
}

func TestClientInfo(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]any{
			"cluster_name": "casalio-dev",
			"version":      map[string]any{"number": "2.11.0"},
		})
	}))
	defer srv.Close()

	info, err := testClient(t, srv).Info(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "casalio-dev", info.ClusterName)
	assert.Equal(t, "2.11.0", info.Version.Number)
	assert.NotEmpty(t, gotAuth, "basic auth header should be set")
}

func TestClientErrorReason(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{
			name:   "structured reason",
			status: http.StatusBadRequest,
			body:   `{"error": {"type": "parsing_exception", "reason": "unknown field [foo]"}, "status": 400}`,
			want:   "unknown field [foo]",
		},
		{
			name:   "plain error string",
			status: http.StatusUnauthorized,
			body:   `{"error": "Unauthorized"}`,
			want:   "Unauthorized",
		},
		{
			name:   "raw body",
			status: http.StatusBadGateway,
			body:   "upstream unavailable",
			want:   "upstream unavailable",
		},
		{
			name:   "empty body falls back to status line",
			status: http.StatusServiceUnavailable,
			body:   "",
			want:   "503 Service Unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := testClient(t, srv).Info(context.Background())
			require.Error(t, err)

			var apiErr *collection.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.want, apiErr.Message)
		})
	}
}

func TestIndexExists(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		want    bool
		wantErr bool
	}{
		{name: "exists", status: http.StatusOK, want: true},
		{name: "missing", status: http.StatusNotFound, want: false},
		{name: "server error", status: http.StatusInternalServerError, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodHead, r.Method)
				assert.Equal(t, "/listings", r.URL.Path)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			got, err := testClient(t, srv).IndexExists(context.Background(), "listings")
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPutIndexTemplate(t *testing.T) {
	var gotMethod, gotPath, gotContentType, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		io.WriteString(w, `{"acknowledged": true}`)
	}))
	defer srv.Close()

	err := testClient(t, srv).PutIndexTemplate(context.Background(), "real-estate-template",
		strings.NewReader(`{"index_patterns": ["real-estate-*"]}`))
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/_index_template/real-estate-template", gotPath)
	assert.Equal(t, "application/json", gotContentType)
	assert.JSONEq(t, `{"index_patterns": ["real-estate-*"]}`, gotBody)
}

func TestClientThrottlesRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"cluster_name": "x", "version": {"number": "1"}}`)
	}))
	defer srv.Close()

	client, err := NewClient(&Config{BaseURL: srv.URL, RequestsPerSecond: 50})
	require.NoError(t, err)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := client.Info(context.Background())
		require.NoError(t, err)
	}

	// Burst 1 at 50 rps forces at least two 20ms waits.
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}
