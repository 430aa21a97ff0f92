package tinypm

import (
	"context"
	"errors"
	"net/http"
	"runtime"
	"testing"

	"github.com/spf13/afero"
)

func TestParseFileURL(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix paths")
	}
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{url: "file:///tmp/registry", want: "/tmp/registry"},
		{url: "file:///tmp/registry/", want: "/tmp/registry"},
		{url: "https://registry.npmjs.org", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := parseFileURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseFileURL() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseFileURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLocalRegistryGetPackument(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "/reg/at_types_node.json", []byte(`{
		"name": "@types/node",
		"versions": {"20.1.0": {"name": "@types/node", "version": "20.1.0"}}
	}`), 0o644)
	_ = afero.WriteFile(fs, "/reg/broken.json", []byte(`{not json`), 0o644)
	_ = afero.WriteFile(fs, "/reg/liar.json", []byte(`{"name": "other", "versions": {}}`), 0o644)

	reg := newLocalRegistryFs(fs, "/reg")
	ctx := context.Background()

	p, err := reg.GetPackument(ctx, "@types/node")
	if err != nil {
		t.Fatalf("GetPackument() error = %v", err)
	}
	if !p.HasVersion("20.1.0") {
		t.Errorf("packument versions = %v", p.VersionStrings())
	}

	_, err = reg.GetPackument(ctx, "missing")
	var regErr *RegistryError
	if !errors.As(err, &regErr) || regErr.StatusCode != http.StatusNotFound {
		t.Errorf("GetPackument(missing) error = %v, want 404 RegistryError", err)
	}
	if !errors.Is(err, ErrPackageNotFound) {
		t.Errorf("GetPackument(missing) error = %v, want ErrPackageNotFound", err)
	}

	if _, err := reg.GetPackument(ctx, "broken"); err == nil {
		t.Error("GetPackument(broken) succeeded")
	}
	if _, err := reg.GetPackument(ctx, "liar"); err == nil {
		t.Error("GetPackument(liar) accepted a packument for another package")
	}
}

func TestLocalRegistryCachesParsed(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "/reg/a.json", []byte(`{"name": "a", "versions": {}}`), 0o644)
	reg := newLocalRegistryFs(fs, "/reg")

	first, err := reg.GetPackument(context.Background(), "a")
	if err != nil {
		t.Fatal(err)
	}
	_ = fs.Remove("/reg/a.json")
	second, err := reg.GetPackument(context.Background(), "a")
	if err != nil {
		t.Fatalf("second GetPackument() error = %v", err)
	}
	if first != second {
		t.Error("second GetPackument() returned a different packument")
	}
}

func TestLocalRegistryGetTarball(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "/reg/tarballs/a-1.0.0.tgz", []byte("tgz"), 0o644)
	reg := newLocalRegistryFs(fs, "/reg")

	data, err := reg.GetTarball(context.Background(), "file:///reg/tarballs/a-1.0.0.tgz")
	if err != nil {
		t.Fatalf("GetTarball() error = %v", err)
	}
	if string(data) != "tgz" {
		t.Errorf("GetTarball() = %q", data)
	}
	if _, err := reg.GetTarball(context.Background(), "https://example.com/a.tgz"); err == nil {
		t.Error("GetTarball() accepted a non-file URL")
	}
}

func TestNewLocalRegistryChecked(t *testing.T) {
	if _, err := newLocalRegistryChecked(t.TempDir()); err != nil {
		t.Errorf("newLocalRegistryChecked(existing) error = %v", err)
	}
	if _, err := newLocalRegistryChecked("/definitely/not/here"); err == nil {
		t.Error("newLocalRegistryChecked(missing) succeeded")
	}
}
