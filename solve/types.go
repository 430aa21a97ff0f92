package solve

import (
	"slices"
	"sort"
	"strings"

	"github.com/albertocavalcante/go-tinypm/semver"
)

// PackageVersion identifies one concrete package version.
type PackageVersion struct {
	Name    string
	Version semver.Version
}

// String returns "name@version".
func (pv PackageVersion) String() string {
	return pv.Name + "@" + pv.Version.String()
}

// SameSlot reports whether pv and o occupy the same solution slot. A
// solution holds at most one version per name, so slots compare by name only.
func (pv PackageVersion) SameSlot(o PackageVersion) bool {
	return pv.Name == o.Name
}

// VersionDependency maps each dependency name declared by one package version
// to the versions of that dependency that satisfy the declared range.
// A name that is absent is unconstrained.
type VersionDependency map[string][]semver.Version

// Allows reports whether the edge toward pv.Name, if any, accepts pv.Version.
func (d VersionDependency) Allows(pv PackageVersion) bool {
	versions, ok := d[pv.Name]
	if !ok {
		return true
	}
	return semver.Contains(versions, pv.Version)
}

// Names returns the dependency names in ascending order.
func (d VersionDependency) Names() []string {
	names := make([]string, 0, len(d))
	for name := range d {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Unresolved converts the edges into worklist entries, ordered by name.
func (d VersionDependency) Unresolved() []UnresolvedDependency {
	out := make([]UnresolvedDependency, 0, len(d))
	for _, name := range d.Names() {
		out = append(out, UnresolvedDependency{Name: name, Versions: slices.Clone(d[name])})
	}
	return out
}

// UnresolvedDependency is an open requirement on one package: the versions
// still acceptable for it. Versions is a set; its order drives search order.
type UnresolvedDependency struct {
	Name     string
	Versions []semver.Version
}

// Merge unions o's candidates into u and sorts the result ascending.
// o must name the same package; Merge panics with a *PreconditionError otherwise.
func (u *UnresolvedDependency) Merge(o UnresolvedDependency) {
	if u.Name != o.Name {
		panic(&PreconditionError{Op: "merge " + o.Name + " into", Package: u.Name})
	}
	u.Versions = semver.Unique(append(slices.Clip(u.Versions), o.Versions...))
}

// String returns "name[v1 v2 ...]".
func (u UnresolvedDependency) String() string {
	parts := make([]string, len(u.Versions))
	for i, v := range u.Versions {
		parts[i] = v.String()
	}
	return u.Name + "[" + strings.Join(parts, " ") + "]"
}

// Requirement is a direct requirement: a package name and a version range.
// A nil Range accepts any version.
type Requirement struct {
	Name  string
	Range *semver.Range
}

// String returns "name@range".
func (r Requirement) String() string {
	if r.Range == nil {
		return r.Name + "@*"
	}
	return r.Name + "@" + r.Range.String()
}

// Solution is a complete assignment in selection order.
type Solution []PackageVersion

// Get returns the selected version for name.
func (s Solution) Get(name string) (PackageVersion, bool) {
	for _, pv := range s {
		if pv.Name == name {
			return pv, true
		}
	}
	return PackageVersion{}, false
}

// Names returns the selected package names in selection order.
func (s Solution) Names() []string {
	names := make([]string, len(s))
	for i, pv := range s {
		names[i] = pv.Name
	}
	return names
}

// Strings returns "name@version" for each selection, in selection order.
func (s Solution) Strings() []string {
	out := make([]string, len(s))
	for i, pv := range s {
		out[i] = pv.String()
	}
	return out
}
