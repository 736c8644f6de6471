package opensearch

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/casalio/revec/collection"
)

const (
	// DefaultBaseURL is the local development cluster endpoint.
	DefaultBaseURL = "https://localhost:9200"

	// maxErrorBody caps how much of an error response body is read into
	// error messages.
	maxErrorBody = 4096
)

// Config holds connection settings for an OpenSearch-compatible cluster.
type Config struct {
	// BaseURL is the cluster endpoint, e.g. https://localhost:9200.
	BaseURL string

	// Username and Password enable basic auth when Username is non-empty.
	Username string
	Password string

	// InsecureSkipVerify disables TLS certificate verification. The
	// production cluster runs on self-signed certificates.
	InsecureSkipVerify bool

	// MaxConnections caps the connection pool per host.
	MaxConnections int

	// ConnectTimeout bounds dialing; ReadTimeout bounds whole requests.
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration

	// RequestsPerSecond throttles outgoing requests. Zero disables
	// throttling.
	RequestsPerSecond float64
}

// DefaultConfig returns settings matching the production deployment.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:            DefaultBaseURL,
		InsecureSkipVerify: true,
		MaxConnections:     10,
		ConnectTimeout:     60 * time.Second,
		ReadTimeout:        120 * time.Second,
		RequestsPerSecond:  10,
	}
}

// Client is a minimal JSON client for the subset of the search API the
// maintenance jobs use. It is safe for concurrent use.
type Client struct {
	baseURL  string
	username string
	password string
	hc       *http.Client
	limiter  *rate.Limiter
}

// ClusterInfo is the identity block returned by the cluster root endpoint.
type ClusterInfo struct {
	ClusterName string `json:"cluster_name"`
	Version     struct {
		Number string `json:"number"`
	} `json:"version"`
}

// NewClient builds a client from cfg. A nil cfg uses DefaultConfig.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	transport := &http.Transport{
		MaxConnsPerHost:     cfg.MaxConnections,
		MaxIdleConnsPerHost: cfg.MaxConnections,
	}
	if cfg.ConnectTimeout > 0 {
		transport.DialContext = (&net.Dialer{Timeout: cfg.ConnectTimeout}).DialContext
	}
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Client{
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		username: cfg.Username,
		password: cfg.Password,
		hc: &http.Client{
			Transport: transport,
			Timeout:   cfg.ReadTimeout,
		},
		limiter: limiter,
	}, nil
}

// Info returns the cluster identity, confirming the endpoint is reachable.
func (c *Client) Info(ctx context.Context) (*ClusterInfo, error) {
	var info ClusterInfo
	if err := c.do(ctx, http.MethodGet, "/", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// PutIndexTemplate installs or replaces an index template.
func (c *Client) PutIndexTemplate(ctx context.Context, name string, body io.Reader) error {
	return c.doRaw(ctx, http.MethodPut, "/_index_template/"+name, "application/json", body, nil)
}

// CreateIndex creates an index with the given settings and mappings body.
func (c *Client) CreateIndex(ctx context.Context, name string, body io.Reader) error {
	return c.doRaw(ctx, http.MethodPut, "/"+name, "application/json", body, nil)
}

// IndexExists reports whether the named index exists.
func (c *Client) IndexExists(ctx context.Context, name string) (bool, error) {
	if err := c.wait(ctx); err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/"+name, nil)
	if err != nil {
		return false, fmt.Errorf("failed to build request: %w", err)
	}
	c.auth(req)

	resp, err := c.hc.Do(req)
	if err != nil {
		return false, fmt.Errorf("request HEAD /%s: %w", name, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusOK:
		return true, nil
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	default:
		return false, &collection.APIError{StatusCode: resp.StatusCode, Message: resp.Status}
	}
}

// do sends a JSON request and decodes a JSON response. body may be nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}
	return c.doRaw(ctx, method, path, "application/json", reader, out)
}

// doRaw sends a request with a caller-provided body and content type,
// honoring the rate limit, and decodes the response into out when non-nil.
func (c *Client) doRaw(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	if err := c.wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	c.auth(req)

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return apiError(resp)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func (c *Client) auth(req *http.Request) {
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}
}

// apiError turns an error response into *collection.APIError, digging the
// reason out of the body when the engine provides one.
func apiError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &collection.APIError{
		StatusCode: resp.StatusCode,
		Message:    errorReason(raw, resp.Status),
	}
}

func errorReason(raw []byte, fallback string) string {
	// Engine errors come as {"error": {"reason": ...}} or {"error": "..."}.
	var structured struct {
		Error struct {
			Reason string `json:"reason"`
			Type   string `json:"type"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &structured); err == nil && structured.Error.Reason != "" {
		return structured.Error.Reason
	}

	var plain struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &plain); err == nil && plain.Error != "" {
		return plain.Error
	}

	if msg := strings.TrimSpace(string(raw)); msg != "" {
		return msg
	}
	return fallback
}
