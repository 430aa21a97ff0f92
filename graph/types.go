package graph

import (
	"fmt"
	"strings"

	tinypm "github.com/albertocavalcante/go-tinypm"
)

// PackageKey identifies one package version in the graph.
type PackageKey struct {
	Name    string
	Version string
}

// String returns "name@version", or just the name for the root.
func (k PackageKey) String() string {
	if k.Version == "" {
		return k.Name
	}
	return k.Name + "@" + k.Version
}

// ParsePackageKey parses "name@version". The leading "@" of a scoped name
// is not treated as a separator.
func ParsePackageKey(s string) PackageKey {
	if at := strings.LastIndex(s, "@"); at > 0 {
		return PackageKey{Name: s[:at], Version: s[at+1:]}
	}
	return PackageKey{Name: s}
}

// RootKey is the key of the synthetic node standing for the direct
// requirements.
var RootKey = PackageKey{Name: tinypm.RootName}

// Graph is a resolved dependency graph. It supports traversal in both
// directions and explains why packages were included.
type Graph struct {
	// Root is the synthetic root node's key.
	Root PackageKey

	// Packages contains every node, the root included.
	Packages map[PackageKey]*Node

	byName map[string]PackageKey
}

// Node is one package in the graph.
type Node struct {
	Key PackageKey

	// Dependencies are the selected packages this one depends on, by name.
	Dependencies []PackageKey

	// Dependents are the packages depending on this one, by name.
	Dependents []PackageKey

	// RequestedRanges maps each dependent to the range it declared for
	// this package.
	RequestedRanges map[PackageKey]string

	IsRoot     bool
	Deprecated bool
}

// DependencyChain is a path of dependencies from the root to a package.
type DependencyChain struct {
	// Path is the sequence of packages from root to target.
	Path []PackageKey

	// RequestedRange is the range the last hop declared for the target.
	RequestedRange string
}

// String returns a human-readable representation of the chain.
func (c DependencyChain) String() string {
	if len(c.Path) == 0 {
		return ""
	}
	parts := make([]string, len(c.Path))
	for i, k := range c.Path {
		parts[i] = k.String()
	}
	result := strings.Join(parts, " -> ")
	if c.RequestedRange != "" {
		result += fmt.Sprintf(" (requested %s)", c.RequestedRange)
	}
	return result
}

// Stats provides statistics about the graph.
type Stats struct {
	// TotalPackages excludes the root.
	TotalPackages int

	// DirectDependencies is the number of direct requirements.
	DirectDependencies int

	// TransitiveDependencies is the number of packages only reached
	// through other packages.
	TransitiveDependencies int

	// MaxDepth is the longest cycle-free path from the root.
	MaxDepth int

	DeprecatedPackages int
}
