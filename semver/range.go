package semver

import (
	"strings"

	mmsemver "github.com/Masterminds/semver/v3"
)

// Range is a predicate over versions parsed from an npm range expression.
type Range struct {
	raw         string
	any         bool
	constraints *mmsemver.Constraints
}

// comparatorSpacing lists the comparators npm accepts with trailing blanks.
// Longer operators come first so ">= " is not rewritten as "> =".
var comparatorSpacing = []string{">=", "<=", ">", "<", "=", "^", "~"}

// NormalizeRange trims a range and removes whitespace between a comparator
// and its version, e.g. ">= 1.2.0 <  2" becomes ">=1.2.0 <2".
func NormalizeRange(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	for _, op := range comparatorSpacing {
		s = strings.ReplaceAll(s, op+" ", op)
	}
	return s
}

// ParseRange parses an npm range expression.
//
// The empty string and "*" yield the "any" range.
func ParseRange(s string) (*Range, error) {
	norm := NormalizeRange(s)
	if norm == "" || norm == "*" || norm == "x" || norm == "X" {
		return &Range{raw: norm, any: true}, nil
	}

	c, err := mmsemver.NewConstraint(norm)
	if err != nil {
		return nil, &RangeError{Range: s, Err: err}
	}
	return &Range{raw: norm, constraints: c}, nil
}

// MustParseRange is like ParseRange but panics on error.
func MustParseRange(s string) *Range {
	r, err := ParseRange(s)
	if err != nil {
		panic(err)
	}
	return r
}

// Any returns the range that matches every version.
func Any() *Range {
	return &Range{any: true}
}

// IsAny reports whether r matches every version.
func (r *Range) IsAny() bool {
	return r.any
}

// String returns the normalized expression the range was parsed from.
func (r *Range) String() string {
	if r.any && r.raw == "" {
		return "*"
	}
	return r.raw
}

// Contains reports whether v satisfies r.
func (r *Range) Contains(v Version) bool {
	if v.v == nil {
		return false
	}
	if r.any {
		return true
	}
	return r.constraints.Check(v.v)
}

// Filter returns the versions satisfying r, in ascending order.
func Filter(versions []Version, r *Range) []Version {
	out := make([]Version, 0, len(versions))
	for _, v := range versions {
		if r.Contains(v) {
			out = append(out, v)
		}
	}
	return Unique(out)
}

// MaxSatisfying returns the greatest version in versions that satisfies r.
// Ties are broken by version order, not by position in the slice.
func MaxSatisfying(versions []Version, r *Range) (Version, bool) {
	var best Version
	found := false
	for _, v := range versions {
		if !r.Contains(v) {
			continue
		}
		if !found || v.Compare(best) > 0 {
			best = v
			found = true
		}
	}
	return best, found
}
