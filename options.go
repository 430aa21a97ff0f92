package tinypm

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/albertocavalcante/go-tinypm/registry"
)

const (
	// DefaultRegistry is the public npm registry.
	DefaultRegistry = "https://registry.npmjs.org"

	defaultMaxConcurrency = 5
)

// Option configures resolution behavior.
type Option func(*resolverConfig) error

// resolverConfig holds all resolution configuration.
type resolverConfig struct {
	registries     []string
	timeout        time.Duration
	httpClient     *http.Client
	cache          MetadataCache
	cacheDir       string
	concurrency    int
	maxSteps       int
	warnDeprecated bool
	onProgress     func(ProgressEvent)
	metrics        *registry.Metrics

	// logger is the structured logger for debug/info output.
	// If nil, logging is disabled (silent mode).
	logger *slog.Logger
}

// DefaultOptions returns options with the defaults used by the CLI.
func DefaultOptions() []Option {
	return []Option{
		WithDeprecatedWarnings(true),
		WithTimeout(15 * time.Second),
		WithConcurrency(defaultMaxConcurrency),
	}
}

// WithRegistries sets the registry URLs to use (in priority order).
// file:// URLs name a local directory of packument JSON files.
func WithRegistries(urls ...string) Option {
	return func(c *resolverConfig) error {
		c.registries = append(c.registries, urls...)
		return nil
	}
}

// WithTimeout sets the HTTP request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *resolverConfig) error {
		c.timeout = d
		return nil
	}
}

// WithHTTPClient sets a custom HTTP client for registry requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *resolverConfig) error {
		c.httpClient = client
		return nil
	}
}

// WithCache sets an external cache for raw packument documents.
func WithCache(cache MetadataCache) Option {
	return func(c *resolverConfig) error {
		c.cache = cache
		return nil
	}
}

// WithCacheDir caches packuments on disk under dir.
func WithCacheDir(dir string) Option {
	return func(c *resolverConfig) error {
		if dir == "" {
			return errors.New("cache dir must not be empty")
		}
		c.cacheDir = dir
		return nil
	}
}

// WithConcurrency bounds the number of concurrent metadata prefetches.
// Zero disables prefetching.
func WithConcurrency(n int) Option {
	return func(c *resolverConfig) error {
		c.concurrency = n
		return nil
	}
}

// WithMaxSteps stops the search with solve.ErrStepLimit after n candidates.
// Zero means unbounded.
func WithMaxSteps(n int) Option {
	return func(c *resolverConfig) error {
		c.maxSteps = n
		return nil
	}
}

// WithDeprecatedWarnings marks deprecated packages and reports them as warnings.
func WithDeprecatedWarnings(warn bool) Option {
	return func(c *resolverConfig) error {
		c.warnDeprecated = warn
		return nil
	}
}

// WithProgress sets a callback for resolution progress events.
// The callback runs on the resolving goroutine.
func WithProgress(fn func(ProgressEvent)) Option {
	return func(c *resolverConfig) error {
		c.onProgress = fn
		return nil
	}
}

// WithMetrics records registry request metrics.
func WithMetrics(m *registry.Metrics) Option {
	return func(c *resolverConfig) error {
		c.metrics = m
		return nil
	}
}

// WithLogger sets a structured logger for resolution diagnostics.
// If not set, logging is disabled (silent mode).
//
// Example:
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, nil)).With("component", "tinypm")
//	tinypm.Resolve(ctx, reqs, tinypm.WithLogger(logger))
func WithLogger(l *slog.Logger) Option {
	return func(c *resolverConfig) error {
		c.logger = l
		return nil
	}
}

// validate checks the configuration for logical consistency.
func (c *resolverConfig) validate() error {
	if c.timeout < 0 {
		return errors.New("timeout must be positive")
	}
	if c.concurrency < 0 {
		return errors.New("concurrency must not be negative")
	}
	if c.maxSteps < 0 {
		return errors.New("max steps must not be negative")
	}
	if c.cache != nil && c.cacheDir != "" {
		return errors.New("WithCache and WithCacheDir are mutually exclusive")
	}
	return nil
}

// log returns the configured logger, or a no-op logger if none was set.
func (c *resolverConfig) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.New(discardHandler{})
}

// discardHandler is a slog.Handler that discards all log records.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// newResolverConfig creates a new resolver configuration by applying
// the given options and validating the result.
func newResolverConfig(opts ...Option) (*resolverConfig, error) {
	c := &resolverConfig{concurrency: defaultMaxConcurrency}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if err := c.validate(); err != nil {
		return nil, err
	}

	return c, nil
}
