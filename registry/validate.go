package registry

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// FieldError represents a validation failure for a specific field.
type FieldError struct {
	Field   string // Field path (e.g., `versions["1.0.0"].dist.integrity`)
	Message string // Human-readable error message
}

func (e *FieldError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidationErrors collects multiple validation errors.
type ValidationErrors struct {
	Errors []*FieldError
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "validation failed"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d validation errors:", len(e.Errors))
	for _, err := range e.Errors {
		fmt.Fprintf(&b, "\n  - %s", err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying errors for errors.Is/As compatibility.
func (e *ValidationErrors) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, err := range e.Errors {
		errs[i] = err
	}
	return errs
}

// Add appends a validation error.
func (e *ValidationErrors) Add(field, message string) {
	e.Errors = append(e.Errors, &FieldError{Field: field, Message: message})
}

// AddError appends an existing FieldError.
func (e *ValidationErrors) AddError(err *FieldError) {
	e.Errors = append(e.Errors, err)
}

// HasErrors returns true if any errors were collected.
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Errors) > 0
}

// ToError returns nil if no errors, otherwise returns self.
func (e *ValidationErrors) ToError() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

// Precompiled regex patterns for validation.
var (
	// npm package name: optional @scope/, then URL-safe lowercase characters.
	packageNamePattern = regexp.MustCompile(`^(?:@[a-z0-9][a-z0-9._~-]*/)?[a-z0-9._~-][a-z0-9._~-]*$`)

	// SRI integrity: algorithm-base64hash
	sriPattern = regexp.MustCompile(`^(sha1|sha256|sha384|sha512)-[A-Za-z0-9+/]+=*$`)

	// Legacy shasum: 40 hex characters
	shasumPattern = regexp.MustCompile(`^[a-f0-9]{40}$`)
)

// maxPackageNameLength is npm's limit on package name length.
const maxPackageNameLength = 214

// ValidatePackageName checks a package name against npm naming rules.
// Legacy packages may contain upper case letters, so case is not enforced.
func ValidatePackageName(name string) error {
	switch {
	case name == "":
		return &FieldError{Field: "name", Message: "required field is missing"}
	case len(name) > maxPackageNameLength:
		return &FieldError{Field: "name", Message: fmt.Sprintf("longer than %d characters", maxPackageNameLength)}
	case !packageNamePattern.MatchString(strings.ToLower(name)):
		return &FieldError{Field: "name", Message: fmt.Sprintf("%q is not a valid package name", name)}
	}
	return nil
}

// Validate checks that the Packument is usable for resolution.
// Returns nil if valid, or ValidationErrors containing all issues found.
func (p *Packument) Validate() error {
	var errs ValidationErrors

	if err := ValidatePackageName(p.Name); err != nil {
		var ferr *FieldError
		if errors.As(err, &ferr) {
			errs.AddError(ferr)
		}
	}

	if p.Versions == nil {
		errs.Add("versions", "required field is missing")
	}

	for _, key := range p.VersionStrings() {
		m := p.Versions[key]
		field := fmt.Sprintf("versions[%q]", key)
		if m == nil {
			errs.Add(field, "version manifest is null")
			continue
		}
		m.validate(field, key, &errs)
	}

	// Cross-field validation: dist-tags must point at published versions
	for tag, version := range p.DistTags {
		if !p.HasVersion(version) {
			errs.Add(fmt.Sprintf("dist-tags[%q]", tag), fmt.Sprintf("tagged version %s does not exist in versions", version))
		}
	}

	return errs.ToError()
}

// validate checks a single version manifest.
func (m *VersionManifest) validate(fieldPrefix, key string, errs *ValidationErrors) {
	if m.Version != "" && m.Version != key {
		errs.Add(fieldPrefix+".version", fmt.Sprintf("does not match version key %q", key))
	}

	for name := range m.Dependencies {
		if name == "" {
			errs.Add(fieldPrefix+".dependencies", "dependency name is empty")
		}
	}

	if m.Dist.Integrity != "" && !sriPattern.MatchString(m.Dist.Integrity) {
		errs.Add(fieldPrefix+".dist.integrity", "must be a valid SRI hash (e.g., 'sha512-...')")
	}
	if m.Dist.Shasum != "" && !shasumPattern.MatchString(m.Dist.Shasum) {
		errs.Add(fieldPrefix+".dist.shasum", "must be a 40-character hex SHA-1")
	}
}

// ValidatePackumentJSON validates raw JSON bytes as a Packument.
// This is a convenience function that unmarshals and validates in one step.
func ValidatePackumentJSON(data []byte) (*Packument, error) {
	p, err := ParsePackument(data)
	if err != nil {
		return nil, &FieldError{Message: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
