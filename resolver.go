package tinypm

import (
	"context"
	"fmt"

	"github.com/albertocavalcante/go-tinypm/registry"
	"github.com/albertocavalcante/go-tinypm/solve"
)

// Resolver resolves npm-style requirements against a MetadataProvider.
//
// Resolution runs a depth-first backtracking search (package solve):
//  1. Each direct requirement is loaded and narrowed to the versions its
//     range accepts.
//  2. Candidates are tried in ascending version order. A chosen version's
//     dependencies join the worklist, and every later choice must satisfy
//     the edges of everything chosen before it.
//  3. The first complete, mutually compatible selection is returned.
//
// While a package is being converted, the metadata of all its dependencies
// is fetched concurrently (up to 5 at a time by default) so the search
// rarely waits on the network one package at a time.
//
// A Resolver may be reused; every call to Resolve starts from empty
// per-run state while the provider's caches persist.
type Resolver struct {
	provider MetadataProvider
	cfg      *resolverConfig
}

// NewResolver creates a resolver reading from provider. A nil provider is
// built from the registry, cache and transport options in opts, falling
// back to DefaultRegistry.
func NewResolver(provider MetadataProvider, opts ...Option) (*Resolver, error) {
	cfg, err := newResolverConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if provider == nil {
		provider, err = newProvider(cfg)
		if err != nil {
			return nil, err
		}
	}
	return &Resolver{provider: provider, cfg: cfg}, nil
}

// Provider returns the provider the resolver reads from.
func (r *Resolver) Provider() MetadataProvider {
	return r.provider
}

// Resolve selects one version per package reachable from reqs.
//
// Errors:
//   - a malformed requirement range fails before any fetch
//   - a direct requirement whose metadata cannot be fetched returns a
//     *solve.RequirementError
//   - an unsatisfiable set returns an error matching solve.ErrNoSolution
func (r *Resolver) Resolve(ctx context.Context, reqs Requirements) (*ResolutionList, error) {
	parsed, err := reqs.toSolve()
	if err != nil {
		return nil, err
	}

	logger := r.cfg.log()
	loaderOpts := []solve.LoaderOption{solve.WithLoaderLogger(logger)}
	if r.cfg.concurrency > 0 {
		loaderOpts = append(loaderOpts, solve.WithPrefetcher(NewPrefetcher(r.provider, r.cfg.concurrency, logger)))
	}
	manifest := solve.NewManifest(solve.NewLoader(r.provider, loaderOpts...))

	searchOpts := solve.Options{Logger: logger, MaxSteps: r.cfg.maxSteps}
	if fn := r.cfg.onProgress; fn != nil {
		searchOpts.Progress = func(e solve.Event) { fn(progressFromSolve(e)) }
	}
	search := solve.NewSearch(manifest, searchOpts)

	solution, err := search.Solve(ctx, parsed)
	stats := search.Stats()
	logger.Debug("search finished",
		"requirements", len(parsed), "steps", stats.Steps,
		"backtracks", stats.Backtracks, "loaded", stats.Loaded)
	if err != nil {
		return nil, fmt.Errorf("resolve: %w", err)
	}

	list, err := r.buildResolutionList(ctx, solution, manifest, reqs)
	if err != nil {
		return nil, err
	}
	list.Summary.Steps = stats.Steps
	list.Summary.Backtracks = stats.Backtracks

	if r.cfg.warnDeprecated {
		markDeprecated(ctx, r.provider, list)
	}
	return list, nil
}

// buildResolutionList converts a solution into the public result, adding
// the reverse edges and the tarball location of each version.
func (r *Resolver) buildResolutionList(ctx context.Context, sol solve.Solution, manifest *solve.Manifest, reqs Requirements) (*ResolutionList, error) {
	list := &ResolutionList{Packages: make([]ResolvedPackage, 0, len(sol))}

	requiredBy := make(map[string][]string, len(sol))
	for _, pv := range sol {
		edges, err := manifest.Edges(pv)
		if err != nil {
			return nil, err
		}
		for _, dep := range edges.Names() {
			requiredBy[dep] = append(requiredBy[dep], pv.String())
		}
	}

	locator, _ := r.provider.(registryLocator)
	for _, pv := range sol {
		_, direct := reqs[pv.Name]
		pkg := ResolvedPackage{
			Name:     pv.Name,
			Version:  pv.Version.String(),
			Direct:   direct,
			Registry: r.provider.BaseURL(),
		}
		if direct {
			pkg.RequiredBy = append(pkg.RequiredBy, RootName)
		}
		pkg.RequiredBy = append(pkg.RequiredBy, requiredBy[pv.Name]...)
		if pkg.RequiredBy == nil {
			pkg.RequiredBy = []string{}
		}
		if locator != nil {
			if reg := locator.RegistryFor(pv.Name); reg != "" {
				pkg.Registry = reg
			}
		}

		// The packument was loaded during the search; this is a cache hit.
		p, err := r.provider.GetPackument(ctx, pv.Name)
		if err != nil {
			return nil, fmt.Errorf("metadata for selected package %s: %w", pv, err)
		}
		r.describe(&pkg, p)
		list.Packages = append(list.Packages, pkg)
	}

	list.Summary.TotalPackages = len(list.Packages)
	for _, pkg := range list.Packages {
		if pkg.Direct {
			list.Summary.DirectPackages++
		} else {
			list.Summary.TransitivePackages++
		}
	}
	return list, nil
}

// describe copies the version's declared dependencies and dist fields.
func (r *Resolver) describe(pkg *ResolvedPackage, p *registry.Packument) {
	m, ok := p.Version(pkg.Version)
	if !ok {
		return
	}
	if len(m.Dependencies) > 0 {
		pkg.Dependencies = make(map[string]string, len(m.Dependencies))
		for name, rng := range m.Dependencies {
			pkg.Dependencies[name] = rng
		}
	}
	pkg.Tarball = m.Dist.Tarball
	if pkg.Tarball == "" && !isFileURL(pkg.Registry) {
		pkg.Tarball = registry.DefaultTarballURL(pkg.Registry, pkg.Name, pkg.Version)
	}
	pkg.Integrity = m.Dist.Integrity
}
