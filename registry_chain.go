package tinypm

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/albertocavalcante/go-tinypm/registry"
)

// registryChain implements multi-registry lookup with fallback behavior.
// It tries registries in order and remembers which registry provides each
// package, so every later lookup for that package goes to the same place.
//
// Supports both remote (https://) and local (file://) registries, enabling
// offline workflows with a pre-populated directory ahead of the public
// registry.
//
// The chain falls back to the next registry on any error, not only 404:
// a mirror that times out or answers 5xx should not hide a package the next
// registry can serve.
type registryChain struct {
	clients []MetadataProvider

	// packageRegistry tracks which registry provides each package.
	packageRegistry   map[string]int
	packageRegistryMu sync.RWMutex
}

// newRegistryChain creates a chain of registries from URLs.
//
// Returns an error if no URLs are provided or none of them can be opened.
// If some URLs are invalid but at least one is valid, the invalid URLs are
// skipped.
func newRegistryChain(urls []string, opts registryClientOptions) (*registryChain, error) {
	if len(urls) == 0 {
		return nil, errors.New("no registry URLs provided")
	}

	clients := make([]MetadataProvider, 0, len(urls))
	for _, url := range urls {
		client, err := createProvider(url, opts)
		if err != nil {
			if opts.logger != nil {
				opts.logger.Warn("skipping registry", "url", url, "error", err)
			}
			continue
		}
		clients = append(clients, client)
	}

	if len(clients) == 0 {
		return nil, fmt.Errorf("no valid registries could be created from %d URLs", len(urls))
	}

	return &registryChain{
		clients:         clients,
		packageRegistry: make(map[string]int),
	}, nil
}

// GetPackument fetches a packument using the registry chain.
func (rc *registryChain) GetPackument(ctx context.Context, name string) (*registry.Packument, error) {
	rc.packageRegistryMu.RLock()
	idx, found := rc.packageRegistry[name]
	rc.packageRegistryMu.RUnlock()

	if found {
		return rc.clients[idx].GetPackument(ctx, name)
	}

	var errs []error
	for i, client := range rc.clients {
		p, err := client.GetPackument(ctx, name)
		if err == nil {
			rc.packageRegistryMu.Lock()
			if _, exists := rc.packageRegistry[name]; !exists {
				rc.packageRegistry[name] = i
			}
			rc.packageRegistryMu.Unlock()
			return p, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		errs = append(errs, fmt.Errorf("%s: %w", client.BaseURL(), err))
	}

	if len(errs) == 1 {
		return nil, fmt.Errorf("package %s not found: %w", name, errs[0])
	}
	return nil, fmt.Errorf("package %s not found in any registry: %w", name, errors.Join(errs...))
}

// GetTarball downloads a tarball with the first registry able to fetch it.
func (rc *registryChain) GetTarball(ctx context.Context, url string) ([]byte, error) {
	var errs []error
	for _, client := range rc.clients {
		f, ok := client.(tarballFetcher)
		if !ok {
			continue
		}
		data, err := f.GetTarball(ctx, url)
		if err == nil {
			return data, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("no registry in the chain can download %s", url)
	}
	return nil, errors.Join(errs...)
}

// BaseURL returns the URL of the first registry in the chain.
func (rc *registryChain) BaseURL() string {
	if len(rc.clients) == 0 {
		return ""
	}
	return rc.clients[0].BaseURL()
}

// RegistryFor returns the registry URL that provided the given package.
// Returns empty string if the package hasn't been looked up yet.
func (rc *registryChain) RegistryFor(name string) string {
	rc.packageRegistryMu.RLock()
	defer rc.packageRegistryMu.RUnlock()

	if idx, found := rc.packageRegistry[name]; found {
		return rc.clients[idx].BaseURL()
	}
	return ""
}

// registryLocator is implemented by providers that serve packages from
// more than one registry.
type registryLocator interface {
	RegistryFor(name string) string
}

var (
	_ MetadataProvider = (*registryChain)(nil)
	_ tarballFetcher   = (*registryChain)(nil)
	_ registryLocator  = (*registryChain)(nil)
)
