package tinypm

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/albertocavalcante/go-tinypm/artifact"
	"github.com/albertocavalcante/go-tinypm/semver"
)

func TestPin(t *testing.T) {
	reg := fixtureRegistry(t)

	tests := []struct {
		name    string
		pkg     string
		rng     string
		want    string
		wantErr error
	}{
		{name: "highest in range", pkg: "express", rng: ">= 2.0.0 <3", want: "2.5.0"},
		{name: "any", pkg: "express", rng: "*", want: "3.0.0"},
		{name: "exact", pkg: "vows", rng: "0.5.0", want: "0.5.0"},
		{name: "nothing satisfies", pkg: "express", rng: "^9", wantErr: ErrVersionNotFound},
		{name: "unknown package", pkg: "left-pad", rng: "*", wantErr: ErrPackageNotFound},
		{name: "malformed range", pkg: "express", rng: "not a range", wantErr: semver.ErrMalformedRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pinned, err := Pin(context.Background(), tt.pkg, tt.rng, WithRegistries(reg))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Pin() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Pin() error = %v", err)
			}
			if pinned.Version != tt.want {
				t.Errorf("Pin() version = %s, want %s", pinned.Version, tt.want)
			}
			wantTarball := "https://registry.npmjs.org/" + tt.pkg + "/-/" + tt.pkg + "-" + tt.want + ".tgz"
			if pinned.Tarball != wantTarball {
				t.Errorf("Pin() tarball = %s, want %s", pinned.Tarball, wantTarball)
			}
		})
	}
}

// buildPackage returns a gzipped tarball holding package/package.json.
func buildPackage(t *testing.T, manifest string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	if err := tw.WriteHeader(&tar.Header{
		Name:     "package/package.json",
		Mode:     0o644,
		Size:     int64(len(manifest)),
		Typeflag: tar.TypeReg,
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := tw.Write([]byte(manifest)); err != nil {
		t.Fatal(err)
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// tarballServer serves one package with one version and its tarball.
// If integrity is empty, the tarball's real SRI hash is published.
func tarballServer(t *testing.T, tgz []byte, integrity string) *httptest.Server {
	t.Helper()
	if integrity == "" {
		integrity = artifact.Integrity(tgz)
	}
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/tiny":
			doc := map[string]any{
				"name":      "tiny",
				"dist-tags": map[string]string{"latest": "1.0.0"},
				"versions": map[string]any{
					"1.0.0": map[string]any{
						"name":    "tiny",
						"version": "1.0.0",
						"dist": map[string]string{
							"tarball":   srv.URL + "/tiny/-/tiny-1.0.0.tgz",
							"integrity": integrity,
						},
					},
				},
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(doc)
		case "/tiny/-/tiny-1.0.0.tgz":
			_, _ = w.Write(tgz)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch(t *testing.T) {
	tgz := buildPackage(t, `{"name": "tiny", "version": "1.0.0", "dependencies": {"eyes": "0.1.x"}}`)
	srv := tarballServer(t, tgz, "")

	data, pinned, err := Fetch(context.Background(), "tiny", "^1", WithRegistries(srv.URL))
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if pinned.Key() != "tiny@1.0.0" {
		t.Errorf("Fetch() pinned = %s", pinned.Key())
	}
	if !bytes.Equal(data, tgz) {
		t.Errorf("Fetch() returned %d bytes, want %d", len(data), len(tgz))
	}

	deps, err := artifact.ReadDependencies(data)
	if err != nil {
		t.Fatalf("ReadDependencies() error = %v", err)
	}
	if diff := cmp.Diff(map[string]string{"eyes": "0.1.x"}, deps); diff != "" {
		t.Errorf("dependencies mismatch (-want +got):\n%s", diff)
	}
}

func TestFetchIntegrityMismatch(t *testing.T) {
	tgz := buildPackage(t, `{"name": "tiny", "version": "1.0.0"}`)
	other := buildPackage(t, `{"name": "tiny", "version": "1.0.1"}`)
	srv := tarballServer(t, tgz, artifact.Integrity(other))

	_, _, err := Fetch(context.Background(), "tiny", "*", WithRegistries(srv.URL))
	if !errors.Is(err, artifact.ErrIntegrityMismatch) {
		t.Errorf("Fetch() error = %v, want ErrIntegrityMismatch", err)
	}
}

// fileTarballPackument returns a packument for "tiny" whose tarball is a
// file:// URL, with no integrity published.
func fileTarballPackument(t *testing.T, path string) []byte {
	t.Helper()
	doc, err := json.Marshal(map[string]any{
		"name": "tiny",
		"versions": map[string]any{
			"1.0.0": map[string]any{
				"version": "1.0.0",
				"dist":    map[string]string{"tarball": pathToFileURL(path)},
			},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestFetchFileTarball(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, "local.txt")
	if err := os.WriteFile(local, []byte("local file"), 0o644); err != nil {
		t.Fatal(err)
	}
	doc := fileTarballPackument(t, local)

	t.Run("remote registry", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/tiny" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_, _ = w.Write(doc)
		}))
		t.Cleanup(srv.Close)

		data, _, err := Fetch(context.Background(), "tiny", "*", WithRegistries(srv.URL))
		if !errors.Is(err, ErrLocalTarball) {
			t.Errorf("Fetch() = %q, %v; want ErrLocalTarball", data, err)
		}
	})

	t.Run("local registry", func(t *testing.T) {
		regDir := t.TempDir()
		if err := os.WriteFile(filepath.Join(regDir, "tiny.json"), doc, 0o644); err != nil {
			t.Fatal(err)
		}

		data, pinned, err := Fetch(context.Background(), "tiny", "*", WithRegistries(pathToFileURL(regDir)))
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if string(data) != "local file" || pinned.Registry != pathToFileURL(regDir) {
			t.Errorf("Fetch() = %q, %+v", data, pinned)
		}
	})
}

func TestResolveFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "package.json")
	content := `{"name": "app", "version": "1.0.0", "dependencies": {"vows": "0.5.0"}}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	list, err := ResolveFile(context.Background(), path, WithRegistries(fixtureRegistry(t)))
	if err != nil {
		t.Fatalf("ResolveFile() error = %v", err)
	}
	if diff := cmp.Diff([]string{"vows@0.5.0", "eyes@0.1.6"}, list.Keys()); diff != "" {
		t.Errorf("ResolveFile() mismatch (-want +got):\n%s", diff)
	}

	if _, err := ResolveFile(context.Background(), filepath.Join(dir, "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ResolveFile(missing) error = %v, want ErrNotExist", err)
	}
}

func TestOptionsValidation(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{name: "negative timeout", opts: []Option{WithTimeout(-time.Second)}},
		{name: "negative concurrency", opts: []Option{WithConcurrency(-1)}},
		{name: "negative max steps", opts: []Option{WithMaxSteps(-1)}},
		{name: "empty cache dir", opts: []Option{WithCacheDir("")}},
		{name: "cache and cache dir", opts: []Option{WithCache(NewMemoryCache(0)), WithCacheDir(t.TempDir())}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Resolve(context.Background(), nil, tt.opts...); err == nil {
				t.Error("Resolve() accepted invalid options")
			}
		})
	}
}
