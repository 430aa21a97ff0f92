package tinypm

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/albertocavalcante/go-tinypm/semver"
	"github.com/albertocavalcante/go-tinypm/solve"
)

// RootName is the RequiredBy entry recorded for direct requirements.
const RootName = "<root>"

// Requirements maps direct dependency names to npm range expressions,
// the shape of the "dependencies" object of a package.json.
type Requirements map[string]string

// Names returns the requirement names in ascending order.
func (r Requirements) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// toSolve parses every range. Requirements are ordered by name so the
// search order does not depend on map iteration.
func (r Requirements) toSolve() ([]solve.Requirement, error) {
	out := make([]solve.Requirement, 0, len(r))
	for _, name := range r.Names() {
		if name == "" {
			return nil, fmt.Errorf("requirement with empty package name")
		}
		rng, err := semver.ParseRange(r[name])
		if err != nil {
			return nil, fmt.Errorf("requirement %s: %w", name, err)
		}
		out = append(out, solve.Requirement{Name: name, Range: rng})
	}
	return out, nil
}

// ParseRequirement splits "name@range" into its parts. Scoped names keep
// their leading "@". A missing range means "*".
func ParseRequirement(s string) (name, rng string, err error) {
	s = strings.TrimSpace(s)
	at := strings.LastIndex(s, "@")
	if at <= 0 {
		name, rng = s, "*"
	} else {
		name, rng = s[:at], s[at+1:]
	}
	if name == "" || name == "@" {
		return "", "", fmt.Errorf("invalid requirement %q", s)
	}
	if rng == "" {
		rng = "*"
	}
	return name, rng, nil
}

// PackageJSON is the subset of package.json used as resolution input.
type PackageJSON struct {
	Name         string            `json:"name,omitempty"`
	Version      string            `json:"version,omitempty"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// ParsePackageJSON decodes package.json content.
func ParsePackageJSON(data []byte) (*PackageJSON, error) {
	var pkg PackageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("parse package.json: %w", err)
	}
	return &pkg, nil
}

// Requirements returns the dependencies as resolution input.
func (p *PackageJSON) Requirements() Requirements {
	reqs := make(Requirements, len(p.Dependencies))
	for name, rng := range p.Dependencies {
		reqs[name] = rng
	}
	return reqs
}

// ResolutionList contains the selected package set.
type ResolutionList struct {
	// Packages holds one entry per selected package, in selection order.
	Packages []ResolvedPackage `json:"packages"`

	// Summary provides aggregate statistics about the resolution.
	Summary ResolutionSummary `json:"summary"`

	// Warnings contains non-fatal issues encountered during resolution,
	// such as deprecated packages.
	Warnings []string `json:"warnings,omitempty"`
}

// ResolvedPackage is one selected package version.
type ResolvedPackage struct {
	// Name is the package name.
	Name string `json:"name"`

	// Version is the selected version.
	Version string `json:"version"`

	// Direct is true for packages named in the requirements.
	Direct bool `json:"direct,omitempty"`

	// RequiredBy lists "name@version" of every selected package that declares
	// a dependency on this one, plus RootName for direct requirements.
	RequiredBy []string `json:"required_by"`

	// Dependencies are the ranges this version declares.
	Dependencies map[string]string `json:"dependencies,omitempty"`

	// Registry is the registry the metadata came from.
	Registry string `json:"registry,omitempty"`

	// Tarball is the download URL of the version.
	Tarball string `json:"tarball,omitempty"`

	// Integrity is the SRI hash of the tarball, if published.
	Integrity string `json:"integrity,omitempty"`

	// Deprecated indicates the version carries a deprecation notice.
	Deprecated bool `json:"deprecated,omitempty"`

	// DeprecationMessage is the publisher's deprecation notice.
	DeprecationMessage string `json:"deprecation_message,omitempty"`
}

// Key returns "name@version".
func (p ResolvedPackage) Key() string {
	return p.Name + "@" + p.Version
}

// ResolutionSummary provides statistics about a resolution.
type ResolutionSummary struct {
	TotalPackages      int `json:"total_packages"`
	DirectPackages     int `json:"direct_packages"`
	TransitivePackages int `json:"transitive_packages"`
	DeprecatedPackages int `json:"deprecated_packages,omitempty"`

	// Steps is the number of candidate versions the search tried.
	Steps int `json:"steps"`
	// Backtracks is the number of times the search abandoned a package.
	Backtracks int `json:"backtracks"`
}

// Get returns the entry for name.
func (l *ResolutionList) Get(name string) (*ResolvedPackage, bool) {
	for i := range l.Packages {
		if l.Packages[i].Name == name {
			return &l.Packages[i], true
		}
	}
	return nil, false
}

// Keys returns "name@version" for every package in selection order.
func (l *ResolutionList) Keys() []string {
	keys := make([]string, len(l.Packages))
	for i, p := range l.Packages {
		keys[i] = p.Key()
	}
	return keys
}

// Sorted returns a copy of the packages ordered by name.
func (l *ResolutionList) Sorted() []ResolvedPackage {
	out := make([]ResolvedPackage, len(l.Packages))
	copy(out, l.Packages)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ProgressEvent reports resolution progress to a WithProgress callback.
type ProgressEvent struct {
	// Type is "select", "reject", "backtrack" or "unavailable".
	Type string

	// Package is the package name.
	Package string

	// Version is the candidate version, empty for backtrack and unavailable.
	Version string

	// Depth is the number of packages selected before the event.
	Depth int
}

func progressFromSolve(e solve.Event) ProgressEvent {
	pe := ProgressEvent{Type: e.Kind.String(), Package: e.Package.Name, Depth: e.Depth}
	if !e.Package.Version.IsZero() {
		pe.Version = e.Package.Version.String()
	}
	return pe
}

// PinnedPackage is a single package version chosen by Pin.
type PinnedPackage struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Registry  string `json:"registry,omitempty"`
	Tarball   string `json:"tarball"`
	Integrity string `json:"integrity,omitempty"`
	Shasum    string `json:"shasum,omitempty"`
}

// Key returns "name@version".
func (p *PinnedPackage) Key() string {
	return p.Name + "@" + p.Version
}
