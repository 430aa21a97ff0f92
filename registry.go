package tinypm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/albertocavalcante/go-tinypm/registry"
)

// MetadataProvider supplies package metadata for resolution.
// Implementations must be safe for concurrent use.
type MetadataProvider interface {
	// GetPackument returns every published version of a package.
	GetPackument(ctx context.Context, name string) (*registry.Packument, error)

	// BaseURL identifies the registry, for display and lockfiles.
	BaseURL() string
}

// Registry creates a provider for the given URLs. With no URLs it uses
// DefaultRegistry; with several it tries them in order. URLs that cannot be
// opened are skipped; if none remain, the default registry is used.
func Registry(urls ...string) MetadataProvider {
	if len(urls) == 0 {
		return newRegistryClient(DefaultRegistry, registryClientOptions{})
	}
	p, err := newProvider(&resolverConfig{registries: urls})
	if err != nil {
		return newRegistryClient(DefaultRegistry, registryClientOptions{})
	}
	return p
}

// newProvider builds the provider described by cfg.
func newProvider(cfg *resolverConfig) (MetadataProvider, error) {
	urls := cfg.registries
	if len(urls) == 0 {
		urls = []string{DefaultRegistry}
	}

	cache := cfg.cache
	if cfg.cacheDir != "" {
		dc, err := NewDiskCache(cfg.cacheDir)
		if err != nil {
			return nil, err
		}
		cache = dc
	}

	opts := registryClientOptions{
		httpClient: cfg.httpClient,
		cache:      cache,
		timeout:    cfg.timeout,
		metrics:    cfg.metrics,
		logger:     cfg.log(),
	}
	if len(urls) == 1 {
		return createProvider(urls[0], opts)
	}
	return newRegistryChain(urls, opts)
}

type registryClientOptions struct {
	httpClient *http.Client
	cache      MetadataCache
	timeout    time.Duration
	metrics    *registry.Metrics
	logger     *slog.Logger
}

// registryClient is a MetadataProvider backed by an npm HTTP registry.
// When a MetadataCache is configured, raw packuments are read from and
// written to it; cache failures are logged and otherwise ignored.
type registryClient struct {
	client *registry.Client
	cache  MetadataCache
	logger *slog.Logger

	parsed   sync.Map // name -> *registry.Packument
	inflight singleflight.Group
}

func newRegistryClient(baseURL string, opts registryClientOptions) *registryClient {
	var clientOpts []registry.ClientOption
	if opts.httpClient != nil {
		hc := opts.httpClient
		if opts.timeout > 0 {
			cp := *hc
			cp.Timeout = opts.timeout
			hc = &cp
		}
		clientOpts = append(clientOpts, registry.WithHTTPClient(hc))
	} else if opts.timeout > 0 {
		clientOpts = append(clientOpts, registry.WithTimeout(opts.timeout))
	}
	if opts.metrics != nil {
		clientOpts = append(clientOpts, registry.WithMetrics(opts.metrics))
	}

	logger := opts.logger
	if logger == nil {
		logger = slog.New(discardHandler{})
	}
	return &registryClient{
		client: registry.NewClient(baseURL, clientOpts...),
		cache:  opts.cache,
		logger: logger,
	}
}

// BaseURL returns the registry base URL.
func (r *registryClient) BaseURL() string {
	return r.client.BaseURL()
}

// GetPackument returns the packument for name, consulting the cache first.
func (r *registryClient) GetPackument(ctx context.Context, name string) (*registry.Packument, error) {
	if r.cache == nil {
		p, err := r.client.GetPackument(ctx, name)
		if err != nil {
			return nil, asRegistryError(name, err)
		}
		return p, nil
	}

	if cached, ok := r.parsed.Load(name); ok {
		return cached.(*registry.Packument), nil
	}

	v, err, _ := r.inflight.Do(name, func() (any, error) {
		p, err := r.loadThroughCache(ctx, name)
		if err != nil {
			return nil, err
		}
		r.parsed.Store(name, p)
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*registry.Packument), nil
}

func (r *registryClient) loadThroughCache(ctx context.Context, name string) (*registry.Packument, error) {
	data, ok, err := r.cache.Get(ctx, name)
	if err != nil {
		r.logger.Warn("metadata cache read failed", "package", name, "error", err)
	}
	if ok {
		p, err := r.client.DecodePackument(name, data)
		if err == nil {
			r.logger.Debug("metadata cache hit", "package", name)
			return p, nil
		}
		r.logger.Warn("discarding corrupt cache entry", "package", name, "error", err)
	}

	data, err = r.client.FetchPackument(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("fetch packument for %s: %w", name, asRegistryError(name, err))
	}
	p, err := r.client.DecodePackument(name, data)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Put(ctx, name, data); err != nil {
		r.logger.Warn("metadata cache write failed", "package", name, "error", err)
	}
	return p, nil
}

// GetTarball downloads a tarball through the underlying client.
func (r *registryClient) GetTarball(ctx context.Context, url string) ([]byte, error) {
	return r.client.GetTarball(ctx, url)
}

// tarballFetcher is implemented by providers that can download tarballs.
type tarballFetcher interface {
	GetTarball(ctx context.Context, url string) ([]byte, error)
}

// createProvider opens one registry URL: file:// for a local directory,
// anything else as an npm HTTP registry.
func createProvider(url string, opts registryClientOptions) (MetadataProvider, error) {
	if isFileURL(url) {
		path, err := parseFileURL(url)
		if err != nil {
			return nil, err
		}
		return newLocalRegistryChecked(path)
	}
	if url == "" {
		return nil, errors.New("empty registry URL")
	}
	return newRegistryClient(url, opts), nil
}

var (
	_ MetadataProvider = (*registryClient)(nil)
	_ tarballFetcher   = (*registryClient)(nil)
)
