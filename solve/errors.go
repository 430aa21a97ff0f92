package solve

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMetadataUnavailable indicates the metadata provider could not supply a package.
	ErrMetadataUnavailable = errors.New("metadata unavailable")

	// ErrNoSolution indicates the search exhausted every branch.
	ErrNoSolution = errors.New("no solution")

	// ErrStepLimit indicates the search exceeded its configured step budget.
	ErrStepLimit = errors.New("search step limit exceeded")
)

// MetadataError reports a provider failure for one package.
type MetadataError struct {
	Name string
	Err  error
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("metadata for %s unavailable: %v", e.Name, e.Err)
}

// Unwrap exposes ErrMetadataUnavailable and the provider error.
func (e *MetadataError) Unwrap() []error {
	return []error{ErrMetadataUnavailable, e.Err}
}

// RequirementError reports a direct requirement that could not be seeded.
type RequirementError struct {
	Name string
	Err  error
}

func (e *RequirementError) Error() string {
	return fmt.Sprintf("direct requirement %s: %v", e.Name, e.Err)
}

func (e *RequirementError) Unwrap() error {
	return e.Err
}

// PreconditionError reports misuse of the manifest or worklist, such as
// reading edges for a package version that was never loaded. It signals a
// bug, never a property of the registry data.
type PreconditionError struct {
	Op      string
	Package string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("precondition violated: %s %s", e.Op, e.Package)
}

// NoSolutionError is returned when no assignment satisfies the requirements.
type NoSolutionError struct {
	// Requirements lists the direct requirements as "name@range".
	Requirements []string
	// Steps is the number of candidates tried.
	Steps int
}

func (e *NoSolutionError) Error() string {
	return fmt.Sprintf("no solution satisfies %s (tried %d candidates)",
		strings.Join(e.Requirements, ", "), e.Steps)
}

func (e *NoSolutionError) Unwrap() error {
	return ErrNoSolution
}
