// Package tinypm resolves npm-style dependency requirements into a single,
// mutually compatible set of exact package versions.
//
// # Overview
//
// The package provides three main components:
//
//   - Registry: fetches packuments from npm registries, local directories
//     or a chain of both, with optional memory or disk caching
//   - Resolver: runs a backtracking search (package solve) over the
//     version metadata and returns the first compatible selection
//   - Pin and Fetch: choose the newest version satisfying one range and
//     download its tarball
//
// # Quick Start
//
//	// Zero-config: uses the public npm registry
//	result, err := tinypm.Resolve(ctx, tinypm.Requirements{"express": "^4.18.0"})
//
//	// From a package.json
//	result, err := tinypm.ResolveFile(ctx, "package.json")
//
//	// With an offline mirror ahead of the public registry and a disk cache
//	result, err := tinypm.Resolve(ctx, reqs,
//	    tinypm.WithRegistries("file:///srv/npm-mirror", tinypm.DefaultRegistry),
//	    tinypm.WithCacheDir(os.ExpandEnv("$HOME/.cache/tinypm")),
//	)
//
// # Selection Semantics
//
// The result is the first solution found by a fixed search order: direct
// requirements by name, candidate versions ascending, and a chosen
// version's dependencies by name. It is neither the newest nor the
// smallest possible solution, but it is deterministic for fixed registry
// contents.
//
// # Thread Safety
//
// All public types in this package are safe for concurrent use.
package tinypm

import (
	"context"
	"fmt"
	"os"

	"github.com/albertocavalcante/go-tinypm/artifact"
	"github.com/albertocavalcante/go-tinypm/semver"
)

// Resolve resolves requirements with the registries named in opts, or the
// public npm registry when none are given.
func Resolve(ctx context.Context, reqs Requirements, opts ...Option) (*ResolutionList, error) {
	r, err := NewResolver(nil, opts...)
	if err != nil {
		return nil, err
	}
	return r.Resolve(ctx, reqs)
}

// ResolveFile resolves the dependencies of a package.json file.
func ResolveFile(ctx context.Context, packageJSONPath string, opts ...Option) (*ResolutionList, error) {
	data, err := os.ReadFile(packageJSONPath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", packageJSONPath, err)
	}
	pkg, err := ParsePackageJSON(data)
	if err != nil {
		return nil, err
	}
	return Resolve(ctx, pkg.Requirements(), opts...)
}

// Pin returns the newest published version of name satisfying rng, with
// its tarball location.
func Pin(ctx context.Context, name, rng string, opts ...Option) (*PinnedPackage, error) {
	r, err := NewResolver(nil, opts...)
	if err != nil {
		return nil, err
	}
	return r.Pin(ctx, name, rng)
}

// Fetch pins name@rng, downloads its tarball and verifies it against the
// published integrity.
func Fetch(ctx context.Context, name, rng string, opts ...Option) ([]byte, *PinnedPackage, error) {
	r, err := NewResolver(nil, opts...)
	if err != nil {
		return nil, nil, err
	}
	return r.Fetch(ctx, name, rng)
}

// Pin returns the newest version of name satisfying rng.
func (r *Resolver) Pin(ctx context.Context, name, rng string) (*PinnedPackage, error) {
	parsed, err := semver.ParseRange(rng)
	if err != nil {
		return nil, fmt.Errorf("pin %s: %w", name, err)
	}
	p, err := r.provider.GetPackument(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("pin %s: %w", name, err)
	}

	versions, _ := semver.ParseVersions(p.VersionStrings())
	best, ok := semver.MaxSatisfying(versions, parsed)
	if !ok {
		return nil, fmt.Errorf("pin %s@%s: %w", name, parsed, ErrVersionNotFound)
	}

	pinned := &PinnedPackage{Name: name, Version: best.String()}
	pkg := ResolvedPackage{Name: name, Version: pinned.Version, Registry: r.provider.BaseURL()}
	if locator, ok := r.provider.(registryLocator); ok {
		if reg := locator.RegistryFor(name); reg != "" {
			pkg.Registry = reg
		}
	}
	r.describe(&pkg, p)
	pinned.Registry = pkg.Registry
	pinned.Tarball = pkg.Tarball
	pinned.Integrity = pkg.Integrity
	if m, ok := p.Version(pinned.Version); ok {
		pinned.Shasum = m.Dist.Shasum
	}
	return pinned, nil
}

// Fetch pins name@rng and downloads the tarball.
func (r *Resolver) Fetch(ctx context.Context, name, rng string) ([]byte, *PinnedPackage, error) {
	pinned, err := r.Pin(ctx, name, rng)
	if err != nil {
		return nil, nil, err
	}
	if pinned.Tarball == "" {
		return nil, nil, fmt.Errorf("fetch %s: no tarball URL published", pinned.Key())
	}

	src, err := r.source(pinned.Tarball, pinned.Registry)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch %s: %w", pinned.Key(), err)
	}
	data, err := src.Fetch(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch %s: %w", pinned.Key(), err)
	}
	if err := artifact.Verify(data, pinned.Integrity, pinned.Shasum); err != nil {
		return nil, nil, fmt.Errorf("fetch %s: %w", pinned.Key(), err)
	}
	return data, pinned, nil
}

// source picks how a tarball URL is read: file:// URLs from disk, anything
// else through the provider's HTTP client when it has one. A file:// URL is
// only followed when the package came from a file:// registry.
func (r *Resolver) source(url, registryURL string) (artifact.Source, error) {
	if isFileURL(url) {
		if !isFileURL(registryURL) {
			return nil, fmt.Errorf("%w: %s (registry %s)", ErrLocalTarball, url, registryURL)
		}
		path, err := parseFileURL(url)
		if err != nil {
			return nil, err
		}
		return artifact.NewLocalSource(path), nil
	}
	getter, _ := r.provider.(tarballFetcher)
	if getter == nil {
		return artifact.NewRemoteSource(url, nil), nil
	}
	return artifact.NewRemoteSource(url, getter), nil
}
