package solve

import (
	"context"
	"fmt"
	"sync"

	"github.com/albertocavalcante/go-tinypm/registry"
	"github.com/albertocavalcante/go-tinypm/semver"
)

// fixtureGraph maps package -> version -> dependency -> range.
type fixtureGraph map[string]map[string]map[string]string

// fakeProvider serves packuments built from a fixtureGraph and counts calls.
type fakeProvider struct {
	mu       sync.Mutex
	packages map[string]*registry.Packument
	calls    map[string]int
}

func newFakeProvider(graph fixtureGraph) *fakeProvider {
	p := &fakeProvider{
		packages: make(map[string]*registry.Packument),
		calls:    make(map[string]int),
	}
	for name, versions := range graph {
		doc := &registry.Packument{Name: name, Versions: make(map[string]*registry.VersionManifest)}
		for v, deps := range versions {
			doc.Versions[v] = &registry.VersionManifest{Name: name, Version: v, Dependencies: deps}
		}
		p.packages[name] = doc
	}
	return p
}

func (p *fakeProvider) GetPackument(ctx context.Context, name string) (*registry.Packument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls[name]++
	doc, ok := p.packages[name]
	if !ok {
		return nil, fmt.Errorf("package %s not found", name)
	}
	return doc, nil
}

func (p *fakeProvider) callCount(name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[name]
}

// recordingPrefetcher records every Prefetch call. With load set it also
// fetches each name through the Loader.
type recordingPrefetcher struct {
	load bool

	mu    sync.Mutex
	calls [][]string
}

func (r *recordingPrefetcher) Prefetch(ctx context.Context, names []string, fetch FetchFunc) {
	r.mu.Lock()
	r.calls = append(r.calls, append([]string(nil), names...))
	r.mu.Unlock()
	if !r.load {
		return
	}
	for _, name := range names {
		_ = fetch(ctx, name)
	}
}

func v(s string) semver.Version {
	return semver.MustParseVersion(s)
}

func vs(ss ...string) []semver.Version {
	out := make([]semver.Version, len(ss))
	for i, s := range ss {
		out[i] = v(s)
	}
	return out
}

func pv(name, version string) PackageVersion {
	return PackageVersion{Name: name, Version: v(version)}
}

func req(name, rng string) Requirement {
	return Requirement{Name: name, Range: semver.MustParseRange(rng)}
}

func versionStrings(versions []semver.Version) []string {
	out := make([]string, len(versions))
	for i, ver := range versions {
		out[i] = ver.String()
	}
	return out
}
