package registry

import (
	"encoding/json"
	"fmt"
)

// Validator validates registry JSON data.
// Validation is lenient about unknown fields: packuments carry many fields
// (readme, maintainers, time) that resolution never reads.
type Validator struct{}

// NewValidator creates a packument validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidatePackument validates JSON data as a packument.
func (v *Validator) ValidatePackument(data []byte) error {
	p, err := ParsePackument(data)
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return p.Validate()
}

// ValidatePackumentStruct validates a Packument struct.
func (v *Validator) ValidatePackumentStruct(p *Packument) error {
	return p.Validate()
}

// ParsePackument decodes a packument. A missing "versions" object decodes
// as an empty map so callers can range over it safely.
func ParsePackument(data []byte) (*Packument, error) {
	var p Packument
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	if p.Versions == nil {
		p.Versions = make(map[string]*VersionManifest)
	}
	return &p, nil
}
