package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(strings.TrimSpace(content)+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultYAMLParses(t *testing.T) {
	cfg, err := Parse([]byte(DefaultYAML))
	if err != nil {
		t.Fatalf("Parse(DefaultYAML) error = %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("DefaultYAML differs from Default() (-want +got):\n%s", diff)
	}
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil) error = %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("Parse(nil) mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	if _, err := Parse([]byte("registry: https://example.com\n")); err == nil {
		t.Error("Parse() accepted an unknown key")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
version: 1
registries:
  - file:///srv/mirror/
  - https://registry.npmjs.org
cache_dir: .cache/tinypm
concurrency: 8
timeout: 5s
max_steps: 1000
lockfile: locks/tinypm.lock
warn_deprecated: false
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := &Config{
		Version:        1,
		Registries:     []string{"file:///srv/mirror", "https://registry.npmjs.org"},
		CacheDir:       filepath.Join(dir, ".cache", "tinypm"),
		Concurrency:    8,
		Timeout:        5 * time.Second,
		MaxSteps:       1000,
		Lockfile:       filepath.Join(dir, "locks", "tinypm.lock"),
		WarnDeprecated: false,
		Path:           path,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
	if got := len(cfg.Options()); got != 6 {
		t.Errorf("Options() returned %d options, want 6", got)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "bad yaml", content: "registries: [\n"},
		{name: "future version", content: "version: 2"},
		{name: "negative concurrency", content: "concurrency: -1"},
		{name: "bad duration", content: "timeout: soon"},
		{name: "empty registry", content: "registries:\n  - ''"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.content)
			if _, err := Load(path); err == nil {
				t.Error("Load() succeeded, want error")
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), FileName)); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Load(missing) error = %v, want ErrNotExist", err)
	}
}

func TestFindWalksUp(t *testing.T) {
	root := t.TempDir()
	want := writeConfig(t, root, "concurrency: 2")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	got, ok := Find(nested)
	if !ok || got != want {
		t.Errorf("Find() = %q, %v; want %q", got, ok, want)
	}
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "concurrency: 2")
	t.Setenv(envRegistry, "file:///a, https://b.example.com")
	t.Setenv(envCacheDir, "/tmp/tinypm-cache")

	cfg, err := Discover(root)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if cfg.Concurrency != 2 {
		t.Errorf("Concurrency = %d, want 2", cfg.Concurrency)
	}
	if diff := cmp.Diff([]string{"file:///a", "https://b.example.com"}, cfg.Registries); diff != "" {
		t.Errorf("Registries mismatch (-want +got):\n%s", diff)
	}
	if cfg.CacheDir != "/tmp/tinypm-cache" {
		t.Errorf("CacheDir = %q", cfg.CacheDir)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "registries: [https://file.example.com]\ncache_dir: cache")
	t.Setenv(envRegistry, "https://env.example.com")
	t.Setenv(envCacheDir, "/tmp/env-cache")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff([]string{"https://env.example.com"}, cfg.Registries); diff != "" {
		t.Errorf("Registries mismatch (-want +got):\n%s", diff)
	}
	if cfg.CacheDir != "/tmp/env-cache" {
		t.Errorf("CacheDir = %q, want /tmp/env-cache", cfg.CacheDir)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.CacheDir = "/var/cache/tinypm"
	data, err := cfg.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(data), "timeout: 30s") {
		t.Errorf("Marshal() output:\n%s", data)
	}
	back, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if diff := cmp.Diff(cfg, back); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
