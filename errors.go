package tinypm

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/albertocavalcante/go-tinypm/registry"
)

// Sentinel errors for common registry failures.
var (
	// ErrPackageNotFound indicates the requested package does not exist in any registry.
	ErrPackageNotFound = errors.New("package not found")

	// ErrVersionNotFound indicates no published version satisfies a range.
	ErrVersionNotFound = errors.New("no matching version")

	// ErrRateLimited indicates the registry is rate limiting requests.
	ErrRateLimited = errors.New("rate limited")

	// ErrUnauthorized indicates authentication is required or failed.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrLocalTarball indicates a package served by a remote registry
	// published a file:// tarball URL.
	ErrLocalTarball = errors.New("file:// tarball from a remote registry")
)

// RegistryError is returned when a registry answers with a non-success status.
// It unwraps to the matching sentinel, so callers can test
// errors.Is(err, ErrPackageNotFound).
type RegistryError struct {
	StatusCode int
	Package    string
	URL        string
}

func (e *RegistryError) Error() string {
	return fmt.Sprintf("registry returned status %d for package %s (%s)", e.StatusCode, e.Package, e.URL)
}

func (e *RegistryError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return ErrPackageNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	}
	return nil
}

// asRegistryError converts a registry.StatusError into a *RegistryError.
// Other errors are returned unchanged.
func asRegistryError(name string, err error) error {
	var se *registry.StatusError
	if errors.As(err, &se) {
		return &RegistryError{StatusCode: se.StatusCode, Package: name, URL: se.URL}
	}
	return err
}

func isNotFound(err error) bool {
	var regErr *RegistryError
	return errors.As(err, &regErr) && regErr.StatusCode == http.StatusNotFound
}
