// Package semver implements npm-flavoured semantic versions and version ranges.
//
// Versions follow SemVer 2.0 precedence: X.Y.Z compared numerically, a
// pre-release sorts before its release, build metadata is ignored for
// ordering. Ranges accept the npm constraint grammar:
//
//	1.2.3           exact
//	>=1.2.0 <2.0.0  comparator sets (space or comma means AND)
//	^1.2.3 ~1.2     caret and tilde
//	1.x, 1.2.*      wildcards
//	1.2 - 1.4.5     hyphen ranges
//	^1 || ^2        alternatives
//
// The empty range and "*" match every version, pre-releases included. This
// is the range used for a package pulled in transitively with no direct
// constraint.
//
// Registry metadata is loosely formatted, so ParseRange first collapses the
// whitespace npm tolerates after comparators (">= 1.2.0" becomes ">=1.2.0").
package semver
