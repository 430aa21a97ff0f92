package semver

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidVersion indicates a string is not a semantic version.
	ErrInvalidVersion = errors.New("invalid version")

	// ErrMalformedRange indicates a range expression could not be parsed.
	ErrMalformedRange = errors.New("malformed range")
)

// VersionError reports a version string that failed to parse.
type VersionError struct {
	Version string
	Err     error
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("invalid version %q: %v", e.Version, e.Err)
}

// Unwrap exposes both ErrInvalidVersion and the underlying parser error.
func (e *VersionError) Unwrap() []error {
	return []error{ErrInvalidVersion, e.Err}
}

// RangeError reports a range expression that failed to parse.
type RangeError struct {
	Range string
	Err   error
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("malformed range %q: %v", e.Range, e.Err)
}

// Unwrap exposes both ErrMalformedRange and the underlying parser error.
func (e *RangeError) Unwrap() []error {
	return []error{ErrMalformedRange, e.Err}
}
