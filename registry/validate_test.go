package registry

import (
	"errors"
	"strings"
	"testing"
)

func TestValidatePackageName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"express", false},
		{"api-easy", false},
		{"@jest/core", false},
		{"JSONStream", false},
		{"", true},
		{"has space", true},
		{"@scope/", true},
		{strings.Repeat("a", 215), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePackageName(tt.name)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePackageName(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
		})
	}
}

func TestPackument_Validate(t *testing.T) {
	valid := `{
		"name": "vows",
		"dist-tags": {"latest": "0.5.0"},
		"versions": {
			"0.5.0": {"version": "0.5.0", "dependencies": {"eyes": ">=0.1.6"},
			          "dist": {"shasum": "0123456789abcdef0123456789abcdef01234567", "integrity": "sha512-AAAA"}}
		}
	}`
	if _, err := ValidatePackumentJSON([]byte(valid)); err != nil {
		t.Errorf("valid packument rejected: %v", err)
	}

	invalid := `{
		"name": "",
		"dist-tags": {"latest": "1.0.0"},
		"versions": {
			"0.5.0": {"version": "0.5.1", "dist": {"shasum": "xyz", "integrity": "md5-abc"}},
			"0.6.0": null
		}
	}`
	_, err := ValidatePackumentJSON([]byte(invalid))
	var verrs *ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("error %v is not ValidationErrors", err)
	}

	wantFields := []string{
		"name",
		`versions["0.5.0"].version`,
		`versions["0.5.0"].dist.integrity`,
		`versions["0.5.0"].dist.shasum`,
		`versions["0.6.0"]`,
		`dist-tags["latest"]`,
	}
	got := make(map[string]bool)
	for _, fe := range verrs.Errors {
		got[fe.Field] = true
	}
	for _, f := range wantFields {
		if !got[f] {
			t.Errorf("missing validation error for %s (got %v)", f, verrs)
		}
	}
}

func TestValidator_ValidatePackument(t *testing.T) {
	v := NewValidator()
	if err := v.ValidatePackument([]byte(`not json`)); err == nil || !strings.Contains(err.Error(), "invalid JSON") {
		t.Errorf("ValidatePackument(not json) error = %v", err)
	}
	if err := v.ValidatePackument([]byte(expressPackument)); err != nil {
		t.Errorf("ValidatePackument(express) error = %v", err)
	}
}

func TestValidationErrors_Format(t *testing.T) {
	var errs ValidationErrors
	if errs.ToError() != nil {
		t.Error("empty ValidationErrors should convert to nil")
	}
	errs.Add("a", "first")
	if errs.Error() != "a: first" {
		t.Errorf("Error() = %q", errs.Error())
	}
	errs.Add("b", "second")
	if !strings.HasPrefix(errs.Error(), "2 validation errors:") {
		t.Errorf("Error() = %q", errs.Error())
	}
	if len(errs.Unwrap()) != 2 {
		t.Error("Unwrap() should expose every field error")
	}
}
