package registry

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/albertocavalcante/go-tinypm/semver"
)

// Packument is the registry document describing every published version of
// a package. Only the fields needed for resolution and fetching are decoded.
type Packument struct {
	// Name is the package name, including the scope for scoped packages.
	Name string `json:"name"`

	// DistTags maps tag names ("latest", "next") to versions.
	DistTags map[string]string `json:"dist-tags,omitempty"`

	// Versions maps a version string to that version's manifest.
	Versions map[string]*VersionManifest `json:"versions"`

	// Modified is the last modification timestamp (abbreviated metadata only).
	Modified string `json:"modified,omitempty"`
}

// VersionManifest is the package.json of one published version, as stored
// in the packument.
type VersionManifest struct {
	// Name repeats the package name.
	Name string `json:"name,omitempty"`

	// Version repeats the version key.
	Version string `json:"version,omitempty"`

	// Dependencies maps dependency names to npm range expressions.
	// Nil or empty means the version has no dependencies.
	Dependencies map[string]string `json:"dependencies,omitempty"`

	// Deprecated holds the deprecation message, empty if not deprecated.
	Deprecated Deprecation `json:"deprecated,omitempty"`

	// Dist describes the published tarball.
	Dist Dist `json:"dist"`
}

// Dist locates and authenticates a version's tarball.
type Dist struct {
	// Tarball is the download URL.
	Tarball string `json:"tarball,omitempty"`

	// Shasum is the hex SHA-1 of the tarball (legacy).
	Shasum string `json:"shasum,omitempty"`

	// Integrity is the SRI hash, e.g. "sha512-...".
	Integrity string `json:"integrity,omitempty"`
}

// Deprecation is a deprecation message. Old packuments encode
// "not deprecated" as the boolean false, so both strings and booleans decode.
type Deprecation string

// UnmarshalJSON accepts a string or a boolean.
func (d *Deprecation) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*d = Deprecation(s)
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err != nil {
		return fmt.Errorf("deprecated: expected string or bool, got %s", data)
	}
	if b {
		*d = "deprecated"
	} else {
		*d = ""
	}
	return nil
}

// VersionStrings returns the version keys in ascending semver order.
// Keys that are not valid versions sort last, lexically.
func (p *Packument) VersionStrings() []string {
	keys := make([]string, 0, len(p.Versions))
	for k := range p.Versions {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		vi, errI := semver.ParseVersion(keys[i])
		vj, errJ := semver.ParseVersion(keys[j])
		switch {
		case errI == nil && errJ == nil:
			return vi.LessThan(vj)
		case errI == nil:
			return true
		case errJ == nil:
			return false
		}
		return keys[i] < keys[j]
	})
	return keys
}

// HasVersion returns true if the given version exists in the packument.
func (p *Packument) HasVersion(version string) bool {
	_, ok := p.Versions[version]
	return ok
}

// Version returns the manifest for one version.
func (p *Packument) Version(version string) (*VersionManifest, bool) {
	m, ok := p.Versions[version]
	if !ok || m == nil {
		return nil, false
	}
	return m, true
}

// Dependencies returns the declared dependencies of one version, or nil.
func (p *Packument) Dependencies(version string) map[string]string {
	if m, ok := p.Version(version); ok {
		return m.Dependencies
	}
	return nil
}

// Latest returns the "latest" dist-tag, or "" when the packument has none.
func (p *Packument) Latest() string {
	return p.DistTags["latest"]
}

// DependencyNames returns every dependency name declared by any version,
// sorted and de-duplicated.
func (p *Packument) DependencyNames() []string {
	seen := make(map[string]struct{})
	for _, m := range p.Versions {
		if m == nil {
			continue
		}
		for name := range m.Dependencies {
			seen[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsDeprecated returns true if the given version carries a deprecation message.
func (p *Packument) IsDeprecated(version string) bool {
	m, ok := p.Version(version)
	return ok && m.Deprecated != ""
}

// TarballURL returns the tarball URL recorded for a version.
func (p *Packument) TarballURL(version string) string {
	if m, ok := p.Version(version); ok {
		return m.Dist.Tarball
	}
	return ""
}
