package solve

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/albertocavalcante/go-tinypm/registry"
	"github.com/albertocavalcante/go-tinypm/semver"
)

// Provider supplies package metadata. Implementations must be safe for
// concurrent use.
type Provider interface {
	GetPackument(ctx context.Context, name string) (*registry.Packument, error)
}

// FetchFunc loads one package into the Loader's memo. Failures are
// memoized too, so a package that failed during a prefetch is not requested
// again.
type FetchFunc func(ctx context.Context, name string) error

// Prefetcher loads packages that are likely to be requested next by calling
// fetch, possibly concurrently. Prefetch is advisory; its errors are ignored.
type Prefetcher interface {
	Prefetch(ctx context.Context, names []string, fetch FetchFunc)
}

// Entry is one loaded manifest row.
type Entry struct {
	Package      PackageVersion
	Dependencies VersionDependency
}

type versionList struct {
	versions []semver.Version
	err      error
}

// Loader converts provider metadata into manifest entries. It memoizes the
// published version list of every package it has looked at, including
// failures, for the lifetime of the Loader.
type Loader struct {
	provider   Provider
	prefetcher Prefetcher
	logger     *slog.Logger

	mu       sync.Mutex
	versions map[string]versionList
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithPrefetcher sets a Prefetcher called with every dependency name of a
// package before its versions are converted.
func WithPrefetcher(p Prefetcher) LoaderOption {
	return func(l *Loader) { l.prefetcher = p }
}

// WithLoaderLogger sets the logger used for absorbed metadata problems.
func WithLoaderLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoader returns a Loader reading from provider.
func NewLoader(provider Provider, opts ...LoaderOption) *Loader {
	l := &Loader{
		provider: provider,
		logger:   slog.New(discardHandler{}),
		versions: make(map[string]versionList),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// KnownVersions returns the published versions of name in ascending order.
// Keys that are not valid versions are dropped.
func (l *Loader) KnownVersions(ctx context.Context, name string) ([]semver.Version, error) {
	l.mu.Lock()
	cached, ok := l.versions[name]
	l.mu.Unlock()
	if ok {
		return cached.versions, cached.err
	}

	p, err := l.packument(ctx, name)
	if err != nil {
		return nil, err
	}
	return l.remember(name, p), nil
}

// Load fetches name and converts every version for which skip returns false.
// A dependency whose range is malformed, or whose metadata is unavailable,
// gets an empty satisfying set; that version can then only be chosen if
// nothing else forces the dependency. Load returns an error only when name
// itself cannot be fetched or ctx is done.
func (l *Loader) Load(ctx context.Context, name string, skip func(PackageVersion) bool) ([]Entry, error) {
	l.mu.Lock()
	cached, ok := l.versions[name]
	l.mu.Unlock()
	if ok && cached.err != nil {
		return nil, cached.err
	}

	p, err := l.packument(ctx, name)
	if err != nil {
		return nil, err
	}
	l.remember(name, p)

	if l.prefetcher != nil {
		if pending := l.unknown(p.DependencyNames()); len(pending) > 0 {
			l.prefetcher.Prefetch(ctx, pending, l.fetch)
		}
	}

	var entries []Entry
	for _, key := range p.VersionStrings() {
		v, err := semver.ParseVersion(key)
		if err != nil {
			l.logger.Debug("ignoring invalid version", "package", name, "version", key)
			continue
		}
		pv := PackageVersion{Name: name, Version: v}
		if skip != nil && skip(pv) {
			continue
		}
		entries = append(entries, Entry{Package: pv, Dependencies: l.convert(ctx, pv, p.Dependencies(key))})
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (l *Loader) convert(ctx context.Context, pv PackageVersion, declared map[string]string) VersionDependency {
	deps := make(VersionDependency, len(declared))
	names := make([]string, 0, len(declared))
	for depName := range declared {
		names = append(names, depName)
	}
	sort.Strings(names)

	for _, depName := range names {
		r, err := semver.ParseRange(declared[depName])
		if err != nil {
			l.logger.Warn("malformed dependency range",
				"package", pv.String(), "dependency", depName, "range", declared[depName])
			deps[depName] = []semver.Version{}
			continue
		}
		known, err := l.KnownVersions(ctx, depName)
		if err != nil {
			l.logger.Warn("dependency metadata unavailable",
				"package", pv.String(), "dependency", depName, "error", err)
			deps[depName] = []semver.Version{}
			continue
		}
		deps[depName] = semver.Filter(known, r)
	}
	return deps
}

func (l *Loader) packument(ctx context.Context, name string) (*registry.Packument, error) {
	p, err := l.provider.GetPackument(ctx, name)
	if err == nil && p == nil {
		err = errors.New("provider returned no metadata")
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		merr := &MetadataError{Name: name, Err: err}
		l.mu.Lock()
		l.versions[name] = versionList{err: merr}
		l.mu.Unlock()
		return nil, merr
	}
	return p, nil
}

// fetch is the FetchFunc handed to the Prefetcher.
func (l *Loader) fetch(ctx context.Context, name string) error {
	l.mu.Lock()
	cached, ok := l.versions[name]
	l.mu.Unlock()
	if ok {
		return cached.err
	}

	p, err := l.packument(ctx, name)
	if err != nil {
		return err
	}
	l.remember(name, p)
	return nil
}

func (l *Loader) remember(name string, p *registry.Packument) []semver.Version {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cached, ok := l.versions[name]; ok && cached.err == nil {
		return cached.versions
	}
	versions, invalid := semver.ParseVersions(p.VersionStrings())
	if len(invalid) > 0 {
		l.logger.Debug("ignoring invalid versions", "package", name, "versions", invalid)
	}
	semver.Sort(versions)
	l.versions[name] = versionList{versions: versions}
	return versions
}

func (l *Loader) unknown(names []string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, name := range names {
		if _, ok := l.versions[name]; !ok {
			out = append(out, name)
		}
	}
	return out
}

// discardHandler drops every record.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }
