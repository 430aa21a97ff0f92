package tinypm

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/afero"

	"github.com/albertocavalcante/go-tinypm/registry"
)

const lockRetryDelay = 10 * time.Millisecond

// DiskCache stores packuments as JSON files in a directory, one file per
// package, named by registry.CacheFileName. The layout is the one
// localRegistry reads, so a populated cache directory can be used as a
// file:// registry for offline resolution.
//
// Writers take an exclusive lock on {dir}/.lock and readers a shared one,
// so several processes can share a cache directory. Within one process,
// operations are serialized.
type DiskCache struct {
	fs   afero.Fs
	dir  string
	mu   sync.Mutex
	lock *flock.Flock
}

// NewDiskCache creates dir if needed and returns a cache rooted there.
func NewDiskCache(dir string) (*DiskCache, error) {
	osFs := afero.NewOsFs()
	if err := osFs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir %s: %w", dir, err)
	}
	return &DiskCache{
		fs:   osFs,
		dir:  filepath.Clean(dir),
		lock: flock.New(filepath.Join(dir, ".lock")),
	}, nil
}

// newDiskCacheFs returns an unlocked cache on an arbitrary file system.
func newDiskCacheFs(fsys afero.Fs, dir string) (*DiskCache, error) {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir %s: %w", dir, err)
	}
	return &DiskCache{fs: fsys, dir: filepath.Clean(dir)}, nil
}

// Dir returns the cache directory.
func (c *DiskCache) Dir() string {
	return c.dir
}

func (c *DiskCache) path(name string) string {
	return filepath.Join(c.dir, registry.CacheFileName(name)+".json")
}

// Get reads a cached packument.
func (c *DiskCache) Get(ctx context.Context, name string) ([]byte, bool, error) {
	unlock, err := c.acquire(ctx, false)
	if err != nil {
		return nil, false, err
	}
	defer unlock()

	data, err := afero.ReadFile(c.fs, c.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read cache entry for %s: %w", name, err)
	}
	return data, true, nil
}

// Put writes a packument. The file is written under a temporary name and
// renamed into place.
func (c *DiskCache) Put(ctx context.Context, name string, data []byte) error {
	unlock, err := c.acquire(ctx, true)
	if err != nil {
		return err
	}
	defer unlock()

	tmp, err := afero.TempFile(c.fs, c.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create cache entry for %s: %w", name, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = c.fs.Remove(tmpName)
		return fmt.Errorf("write cache entry for %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = c.fs.Remove(tmpName)
		return fmt.Errorf("write cache entry for %s: %w", name, err)
	}
	if err := c.fs.Rename(tmpName, c.path(name)); err != nil {
		_ = c.fs.Remove(tmpName)
		return fmt.Errorf("commit cache entry for %s: %w", name, err)
	}
	return nil
}

// Clear removes every cached packument and returns how many were removed.
func (c *DiskCache) Clear(ctx context.Context) (int, error) {
	unlock, err := c.acquire(ctx, true)
	if err != nil {
		return 0, err
	}
	defer unlock()

	entries, err := afero.ReadDir(c.fs, c.dir)
	if err != nil {
		return 0, fmt.Errorf("list cache dir %s: %w", c.dir, err)
	}
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		if err := c.fs.Remove(filepath.Join(c.dir, e.Name())); err != nil {
			return removed, fmt.Errorf("remove cache entry %s: %w", e.Name(), err)
		}
		removed++
	}
	return removed, nil
}

// acquire takes the directory lock, shared or exclusive, and returns its
// release function.
func (c *DiskCache) acquire(ctx context.Context, exclusive bool) (func(), error) {
	c.mu.Lock()
	if c.lock == nil {
		return c.mu.Unlock, nil
	}
	var locked bool
	var err error
	if exclusive {
		locked, err = c.lock.TryLockContext(ctx, lockRetryDelay)
	} else {
		locked, err = c.lock.TryRLockContext(ctx, lockRetryDelay)
	}
	if err != nil || !locked {
		c.mu.Unlock()
		if err == nil {
			err = errors.New("not acquired")
		}
		return nil, fmt.Errorf("lock cache dir %s: %w", c.dir, err)
	}
	return func() {
		_ = c.lock.Unlock()
		c.mu.Unlock()
	}, nil
}
