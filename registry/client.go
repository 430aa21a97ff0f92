package registry

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Client configuration defaults.
const (
	DefaultMaxIdleConns        = 50
	DefaultMaxIdleConnsPerHost = 20
	DefaultIdleConnTimeout     = 90 * time.Second
	DefaultRequestTimeout      = 15 * time.Second

	// abbreviatedAccept asks for the corgi document, which omits readmes and
	// other fields resolution never reads.
	abbreviatedAccept = "application/vnd.npm.install-v1+json; q=1.0, application/json; q=0.8"
)

// StatusError is returned when the registry answers with a non-200 status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.URL)
}

// Client fetches and validates packuments and tarballs from an npm registry.
type Client struct {
	baseURL   string
	client    *http.Client
	validator *Validator
	metrics   *Metrics

	// Cache for parsed packuments, keyed by package name
	packumentCache sync.Map
	inflight       singleflight.Group

	// Options
	validateResponses bool
	abbreviated       bool
	userAgent         string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithValidation enables or disables packument validation.
func WithValidation(enabled bool) ClientOption {
	return func(c *Client) {
		c.validateResponses = enabled
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// WithTimeout sets a custom HTTP request timeout.
// Zero or negative values fall back to the default timeout (15 seconds).
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.client.Timeout = timeout
		} else {
			c.client.Timeout = DefaultRequestTimeout
		}
	}
}

// WithMetrics records request counts and latencies.
func WithMetrics(m *Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithAbbreviatedMetadata requests the abbreviated packument format.
func WithAbbreviatedMetadata(enabled bool) ClientOption {
	return func(c *Client) {
		c.abbreviated = enabled
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a client for the given registry URL.
//
// By default, packuments are validated and the abbreviated format is requested.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	transport := &http.Transport{
		MaxIdleConns:        DefaultMaxIdleConns,
		MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
		IdleConnTimeout:     DefaultIdleConnTimeout,
		DisableCompression:  false,
	}

	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout:   DefaultRequestTimeout,
			Transport: transport,
		},
		validator:         NewValidator(),
		validateResponses: true,
		abbreviated:       true,
		userAgent:         "tinypm",
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BaseURL returns the registry base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// PackumentURL returns the URL of a package's packument.
func (c *Client) PackumentURL(name string) string {
	return c.baseURL + "/" + EscapeName(name)
}

// FetchPackument downloads the raw packument JSON without parsing or caching it.
func (c *Client) FetchPackument(ctx context.Context, name string) ([]byte, error) {
	accept := "application/json"
	if c.abbreviated {
		accept = abbreviatedAccept
	}
	start := time.Now()
	data, err := c.fetch(ctx, c.PackumentURL(name), accept)
	c.metrics.observe(kindPackument, start, err)
	return data, err
}

// GetPackument fetches, validates and parses a package's packument.
// Results are cached by package name; concurrent calls for the same name
// share one request.
func (c *Client) GetPackument(ctx context.Context, name string) (*Packument, error) {
	if cached, ok := c.packumentCache.Load(name); ok {
		c.metrics.cacheHit()
		return cached.(*Packument), nil
	}

	v, err, _ := c.inflight.Do(name, func() (any, error) {
		data, err := c.FetchPackument(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch packument for %s: %w", name, err)
		}
		p, err := c.DecodePackument(name, data)
		if err != nil {
			return nil, err
		}
		c.packumentCache.Store(name, p)
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Packument), nil
}

// DecodePackument parses and, when validation is enabled, validates raw
// packument JSON for the named package.
func (c *Client) DecodePackument(name string, data []byte) (*Packument, error) {
	p, err := ParsePackument(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse packument for %s: %w", name, err)
	}
	if c.validateResponses {
		if err := c.validator.ValidatePackumentStruct(p); err != nil {
			return nil, fmt.Errorf("packument validation failed for %s: %w", name, err)
		}
	}
	return p, nil
}

// GetTarball downloads a tarball by URL.
func (c *Client) GetTarball(ctx context.Context, url string) ([]byte, error) {
	start := time.Now()
	data, err := c.fetch(ctx, url, "application/octet-stream")
	c.metrics.observe(kindTarball, start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tarball %s: %w", url, err)
	}
	return data, nil
}

// ClearCache removes all cached packuments.
func (c *Client) ClearCache() {
	c.packumentCache.Range(func(key, _ any) bool {
		c.packumentCache.Delete(key)
		return true
	})
}

// fetch performs an HTTP GET and returns the response body.
func (c *Client) fetch(ctx context.Context, url, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", accept)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	return io.ReadAll(resp.Body)
}
