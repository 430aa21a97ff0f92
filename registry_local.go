package tinypm

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"github.com/albertocavalcante/go-tinypm/registry"
)

// localRegistry serves packuments from a directory. This enables offline
// workflows where metadata is pre-downloaded, and matches the layout the
// disk cache writes:
//
//	{root}/{cache file name}.json
//
// where the cache file name is registry.CacheFileName(name), e.g.
// "at_types_node.json" for "@types/node".
//
// Create with file:// URLs:
//
//	reg := Registry("file:///path/to/registry")
type localRegistry struct {
	fs       afero.Fs
	rootPath string
	cache    sync.Map // name -> *registry.Packument
}

// newLocalRegistry creates a registry reading from rootPath on the OS file system.
func newLocalRegistry(rootPath string) *localRegistry {
	return newLocalRegistryFs(afero.NewOsFs(), rootPath)
}

func newLocalRegistryFs(fsys afero.Fs, rootPath string) *localRegistry {
	return &localRegistry{
		fs:       fsys,
		rootPath: filepath.Clean(rootPath),
	}
}

// newLocalRegistryChecked is newLocalRegistry that fails if the directory
// does not exist.
func newLocalRegistryChecked(path string) (*localRegistry, error) {
	r := newLocalRegistry(path)
	if _, err := r.fs.Stat(r.rootPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("local registry path does not exist: %s", path)
		}
		return nil, fmt.Errorf("cannot access local registry path %s: %w", path, err)
	}
	return r, nil
}

// parseFileURL extracts the path from a file:// URL.
// Handles both Unix (file:///path) and Windows (file:///C:/path) formats.
func parseFileURL(url string) (string, error) {
	if !strings.HasPrefix(url, "file://") {
		return "", fmt.Errorf("not a file:// URL: %s", url)
	}

	path := strings.TrimPrefix(url, "file://")

	// file:///C:/path -> C:/path
	if len(path) >= 3 && path[0] == '/' && isWindowsDriveLetter(path[1]) && path[2] == ':' {
		path = path[1:]
	}

	return filepath.Clean(path), nil
}

// isWindowsDriveLetter returns true if c is a valid Windows drive letter (A-Z, a-z).
func isWindowsDriveLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

// isFileURL checks if a URL is a file:// URL.
func isFileURL(url string) bool {
	return strings.HasPrefix(url, "file://")
}

// BaseURL returns the file:// URL for this registry.
// The URL uses forward slashes regardless of OS, per RFC 8089.
func (r *localRegistry) BaseURL() string {
	urlPath := filepath.ToSlash(r.rootPath)
	if runtime.GOOS == "windows" && len(urlPath) >= 2 && isWindowsDriveLetter(urlPath[0]) && urlPath[1] == ':' {
		urlPath = "/" + urlPath
	}
	return "file://" + urlPath
}

// PackumentPath returns the file holding name's packument.
func (r *localRegistry) PackumentPath(name string) string {
	return filepath.Join(r.rootPath, registry.CacheFileName(name)+".json")
}

// GetPackument reads a packument from the directory.
func (r *localRegistry) GetPackument(ctx context.Context, name string) (*registry.Packument, error) {
	if cached, ok := r.cache.Load(name); ok {
		return cached.(*registry.Packument), nil
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	path := r.PackumentPath(name)
	data, err := afero.ReadFile(r.fs, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &RegistryError{
				StatusCode: http.StatusNotFound,
				Package:    name,
				URL:        pathToFileURL(path),
			}
		}
		return nil, fmt.Errorf("read local packument %s: %w", path, err)
	}

	p, err := registry.ParsePackument(data)
	if err != nil {
		return nil, fmt.Errorf("parse local packument %s: %w", path, err)
	}
	if p.Name != "" && p.Name != name {
		return nil, fmt.Errorf("local packument %s describes %q, want %q", path, p.Name, name)
	}

	r.cache.Store(name, p)
	return p, nil
}

// GetTarball reads a file:// tarball URL from the file system.
func (r *localRegistry) GetTarball(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := parseFileURL(url)
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(r.fs, path)
	if err != nil {
		return nil, fmt.Errorf("read local tarball %s: %w", path, err)
	}
	return data, nil
}

// pathToFileURL converts a native file path to a file:// URL.
func pathToFileURL(path string) string {
	urlPath := filepath.ToSlash(path)
	if len(urlPath) >= 2 && isWindowsDriveLetter(urlPath[0]) && urlPath[1] == ':' {
		urlPath = "/" + urlPath
	}
	return "file://" + urlPath
}

var (
	_ MetadataProvider = (*localRegistry)(nil)
	_ tarballFetcher   = (*localRegistry)(nil)
)
