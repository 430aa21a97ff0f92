package registry

import (
	"encoding/json"
	"testing"
)

func TestPackument_VersionStrings(t *testing.T) {
	p := &Packument{Versions: map[string]*VersionManifest{
		"1.10.0":      {},
		"1.9.0":       {},
		"1.10.0-rc.1": {},
		"garbage":     {},
		"0.1.0":       {},
	}}
	got := p.VersionStrings()
	want := []string{"0.1.0", "1.9.0", "1.10.0-rc.1", "1.10.0", "garbage"}
	if len(got) != len(want) {
		t.Fatalf("VersionStrings() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("VersionStrings()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestPackument_Accessors(t *testing.T) {
	p, err := ParsePackument([]byte(expressPackument))
	if err != nil {
		t.Fatalf("ParsePackument() error = %v", err)
	}

	if p.Latest() != "2.5.0" {
		t.Errorf("Latest() = %q, want 2.5.0", p.Latest())
	}
	if !p.HasVersion("2.0.0") || p.HasVersion("3.0.0") {
		t.Error("HasVersion() mismatch")
	}
	if deps := p.Dependencies("2.0.0"); len(deps) != 0 {
		t.Errorf("Dependencies(2.0.0) = %v, want none", deps)
	}
	if deps := p.Dependencies("2.5.0"); deps["mime"] != ">= 0.0.1" {
		t.Errorf("Dependencies(2.5.0) = %v", deps)
	}
	if p.Dependencies("9.9.9") != nil {
		t.Error("Dependencies() of unknown version should be nil")
	}
	if got := p.TarballURL("2.0.0"); got != "https://r.example/express/-/express-2.0.0.tgz" {
		t.Errorf("TarballURL() = %q", got)
	}
	if got := p.DependencyNames(); len(got) != 1 || got[0] != "mime" {
		t.Errorf("DependencyNames() = %v, want [mime]", got)
	}
}

func TestParsePackument_MissingVersions(t *testing.T) {
	p, err := ParsePackument([]byte(`{"name": "empty"}`))
	if err != nil {
		t.Fatalf("ParsePackument() error = %v", err)
	}
	if p.Versions == nil {
		t.Error("Versions should be an empty map, not nil")
	}
}

func TestDeprecation_Unmarshal(t *testing.T) {
	tests := []struct {
		input   string
		want    Deprecation
		wantErr bool
	}{
		{`"use something else"`, "use something else", false},
		{`false`, "", false},
		{`true`, "deprecated", false},
		{`42`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var d Deprecation
			err := json.Unmarshal([]byte(tt.input), &d)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal(%s) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if d != tt.want {
				t.Errorf("Unmarshal(%s) = %q, want %q", tt.input, d, tt.want)
			}
		})
	}
}

func TestNames(t *testing.T) {
	tests := []struct {
		name      string
		escaped   string
		cacheFile string
		tarball   string
	}{
		{"dayjs", "dayjs", "dayjs", "dayjs-1.0.0.tgz"},
		{"@jest/core", "@jest%2fcore", "at_jest_core", "core-1.0.0.tgz"},
		{"api-easy", "api-easy", "api-easy", "api-easy-1.0.0.tgz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EscapeName(tt.name); got != tt.escaped {
				t.Errorf("EscapeName() = %q, want %q", got, tt.escaped)
			}
			if got := CacheFileName(tt.name); got != tt.cacheFile {
				t.Errorf("CacheFileName() = %q, want %q", got, tt.cacheFile)
			}
			if got := TarballName(tt.name, "1.0.0"); got != tt.tarball {
				t.Errorf("TarballName() = %q, want %q", got, tt.tarball)
			}
		})
	}

	if got := DefaultTarballURL("https://registry.yarnpkg.com/", "dayjs", "1.11.13"); got != "https://registry.yarnpkg.com/dayjs/-/dayjs-1.11.13.tgz" {
		t.Errorf("DefaultTarballURL() = %q", got)
	}
}
