package lockfile

import (
	"errors"
	"fmt"
	"maps"
	"sort"
)

// CurrentVersion is the lockfile format version this package writes.
const CurrentVersion = 1

// ErrUnsupportedVersion is returned when parsing a lockfile written in a
// format version this package does not understand.
var ErrUnsupportedVersion = errors.New("unsupported lockfile version")

// Lockfile is the parsed content of tinypm.lock.
type Lockfile struct {
	// Version is the lockfile format version.
	Version int `toml:"version"`

	// Requirements are the direct requirements that were resolved,
	// name to range expression.
	Requirements map[string]string `toml:"requirements"`

	// Packages holds one entry per selected package, ordered by name.
	Packages []Package `toml:"package"`
}

// Package is one locked package version.
type Package struct {
	Name      string `toml:"name"`
	Version   string `toml:"version"`
	Registry  string `toml:"registry,omitempty"`
	Tarball   string `toml:"tarball,omitempty"`
	Integrity string `toml:"integrity,omitempty"`

	// Dependencies are the ranges the version declares.
	Dependencies map[string]string `toml:"dependencies,omitempty"`

	// RequiredBy lists the selected packages depending on this one, as
	// "name@version", plus "<root>" for direct requirements.
	RequiredBy []string `toml:"required_by,omitempty"`

	Deprecated string `toml:"deprecated,omitempty"`
}

// Key returns "name@version".
func (p Package) Key() string {
	return p.Name + "@" + p.Version
}

// New creates an empty lockfile at the current version.
func New() *Lockfile {
	return &Lockfile{
		Version:      CurrentVersion,
		Requirements: make(map[string]string),
	}
}

// Get returns the locked package named name.
func (l *Lockfile) Get(name string) (*Package, bool) {
	i := sort.Search(len(l.Packages), func(i int) bool { return l.Packages[i].Name >= name })
	if i < len(l.Packages) && l.Packages[i].Name == name {
		return &l.Packages[i], true
	}
	return nil, false
}

// Keys returns "name@version" for every locked package, in name order.
func (l *Lockfile) Keys() []string {
	keys := make([]string, len(l.Packages))
	for i, p := range l.Packages {
		keys[i] = p.Key()
	}
	return keys
}

// Matches reports whether the lockfile was written for exactly reqs.
func (l *Lockfile) Matches(reqs map[string]string) bool {
	return maps.Equal(l.Requirements, reqs)
}

// validate checks the invariants Parse relies on: a known version and at
// most one entry per package name.
func (l *Lockfile) validate() error {
	if l.Version != CurrentVersion {
		return fmt.Errorf("%w: %d (want %d)", ErrUnsupportedVersion, l.Version, CurrentVersion)
	}
	seen := make(map[string]bool, len(l.Packages))
	for _, p := range l.Packages {
		if p.Name == "" || p.Version == "" {
			return fmt.Errorf("package entry %q: name and version are required", p.Key())
		}
		if seen[p.Name] {
			return fmt.Errorf("package %s is locked more than once", p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}

// sortPackages orders packages by name, the order Get searches in.
func (l *Lockfile) sortPackages() {
	sort.Slice(l.Packages, func(i, j int) bool { return l.Packages[i].Name < l.Packages[j].Name })
}
