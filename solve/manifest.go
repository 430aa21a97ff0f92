package solve

import (
	"context"
	"sync"

	"github.com/albertocavalcante/go-tinypm/semver"
)

// Manifest caches dependency edges per package version for one resolution.
// Entries are append-only: the first writer for a (name, version) pair wins
// and later writes are ignored. A Manifest is safe for concurrent use.
type Manifest struct {
	loader *Loader

	mu      sync.RWMutex
	entries map[string]map[string]Entry // name -> version string -> entry
	loaded  map[string]bool
}

// NewManifest returns an empty manifest that fills itself through loader.
func NewManifest(loader *Loader) *Manifest {
	return &Manifest{
		loader:  loader,
		entries: make(map[string]map[string]Entry),
		loaded:  make(map[string]bool),
	}
}

// Insert adds e unless an entry for the same package version exists.
// It reports whether e was stored.
func (m *Manifest) Insert(e Entry) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertLocked(e)
}

func (m *Manifest) insertLocked(e Entry) bool {
	byVersion, ok := m.entries[e.Package.Name]
	if !ok {
		byVersion = make(map[string]Entry)
		m.entries[e.Package.Name] = byVersion
	}
	key := e.Package.Version.String()
	if _, exists := byVersion[key]; exists {
		return false
	}
	byVersion[key] = e
	return true
}

// Contains reports whether pv has an entry.
func (m *Manifest) Contains(pv PackageVersion) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.entries[pv.Name][pv.Version.String()]
	return ok
}

// ContainsPackage reports whether name was loaded or has any entry.
func (m *Manifest) ContainsPackage(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loaded[name] || len(m.entries[name]) > 0
}

// EnsureLoaded loads every version of name unless the package is already
// present. Versions inserted by another caller in the meantime keep their
// existing entry.
func (m *Manifest) EnsureLoaded(ctx context.Context, name string) error {
	if m.ContainsPackage(name) {
		return nil
	}
	entries, err := m.loader.Load(ctx, name, m.Contains)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		m.insertLocked(e)
	}
	m.loaded[name] = true
	return nil
}

// Versions returns the loaded versions of name in ascending order.
func (m *Manifest) Versions(name string) []semver.Version {
	m.mu.RLock()
	byVersion := m.entries[name]
	versions := make([]semver.Version, 0, len(byVersion))
	for _, e := range byVersion {
		versions = append(versions, e.Package.Version)
	}
	m.mu.RUnlock()
	semver.Sort(versions)
	return versions
}

// Edges returns the dependency edges of pv. The caller must not modify the
// returned map. Asking for a version that was never loaded is a
// *PreconditionError.
func (m *Manifest) Edges(pv PackageVersion) (VersionDependency, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[pv.Name][pv.Version.String()]
	if !ok {
		return nil, &PreconditionError{Op: "edges of unloaded", Package: pv.String()}
	}
	return e.Dependencies, nil
}

// IsCompatible reports whether selected tolerates candidate: either selected
// declares no edge toward candidate's name, or the edge lists
// candidate's version. Only selected's edges are consulted.
func (m *Manifest) IsCompatible(selected, candidate PackageVersion) (bool, error) {
	deps, err := m.Edges(selected)
	if err != nil {
		return false, err
	}
	return deps.Allows(candidate), nil
}

// Len returns the number of loaded package versions.
func (m *Manifest) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, byVersion := range m.entries {
		n += len(byVersion)
	}
	return n
}
