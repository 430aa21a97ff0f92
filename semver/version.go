package semver

import (
	"slices"
	"strings"

	mmsemver "github.com/Masterminds/semver/v3"
)

// Version is an immutable semantic version. The zero value is not a valid
// version; use ParseVersion or MustParseVersion.
type Version struct {
	v *mmsemver.Version
}

// ParseVersion parses a registry version string.
//
// A leading "v" or "=" and surrounding whitespace are accepted, as npm's
// loose parser does. Anything else must be a strict SemVer 2.0 version.
func ParseVersion(s string) (Version, error) {
	clean := strings.TrimSpace(s)
	clean = strings.TrimLeft(clean, "=v")
	clean = strings.TrimSpace(clean)

	v, err := mmsemver.StrictNewVersion(clean)
	if err != nil {
		return Version{}, &VersionError{Version: s, Err: err}
	}
	return Version{v: v}, nil
}

// MustParseVersion is like ParseVersion but panics on error.
// Intended for tests and package-level fixtures.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// IsZero reports whether v is the zero Version.
func (v Version) IsZero() bool {
	return v.v == nil
}

// String returns the normalized version, e.g. "1.2.3-beta.1+build.5".
func (v Version) String() string {
	if v.v == nil {
		return ""
	}
	return v.v.String()
}

// Major returns the major component.
func (v Version) Major() uint64 { return v.v.Major() }

// Minor returns the minor component.
func (v Version) Minor() uint64 { return v.v.Minor() }

// Patch returns the patch component.
func (v Version) Patch() uint64 { return v.v.Patch() }

// Prerelease returns the pre-release identifiers, or "".
func (v Version) Prerelease() string { return v.v.Prerelease() }

// Compare returns -1, 0 or 1 when v is lower than, equal to or higher than o.
//
// Precedence follows SemVer. Versions that differ only in build metadata have
// equal precedence; they are ordered by their string form so that Compare is
// a total order consistent with Equal.
func (v Version) Compare(o Version) int {
	switch {
	case v.v == nil && o.v == nil:
		return 0
	case v.v == nil:
		return -1
	case o.v == nil:
		return 1
	}
	if c := v.v.Compare(o.v); c != 0 {
		return c
	}
	return strings.Compare(v.v.String(), o.v.String())
}

// Equal reports whether v and o are the same version, build metadata included.
func (v Version) Equal(o Version) bool {
	return v.Compare(o) == 0
}

// LessThan reports whether v sorts before o.
func (v Version) LessThan(o Version) bool {
	return v.Compare(o) < 0
}

// Compare is the function form of Version.Compare, for slices.SortFunc.
func Compare(a, b Version) int {
	return a.Compare(b)
}

// Sort sorts versions in ascending order.
func Sort(versions []Version) {
	slices.SortFunc(versions, Compare)
}

// Unique returns the distinct versions in ascending order.
// The input slice is not modified.
func Unique(versions []Version) []Version {
	out := slices.Clone(versions)
	Sort(out)
	return slices.CompactFunc(out, Version.Equal)
}

// Contains reports whether versions holds a version equal to v.
func Contains(versions []Version, v Version) bool {
	return slices.ContainsFunc(versions, v.Equal)
}

// ParseVersions parses every string, returning the valid versions in ascending
// order and the strings that failed to parse.
func ParseVersions(raw []string) (versions []Version, invalid []string) {
	versions = make([]Version, 0, len(raw))
	for _, s := range raw {
		v, err := ParseVersion(s)
		if err != nil {
			invalid = append(invalid, s)
			continue
		}
		versions = append(versions, v)
	}
	return Unique(versions), invalid
}
