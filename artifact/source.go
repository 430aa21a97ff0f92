package artifact

import (
	"context"
	"fmt"

	"github.com/spf13/afero"

	"github.com/albertocavalcante/go-tinypm/registry"
)

// Source produces the bytes of a package tarball.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
	String() string
}

// LocalSource reads a tarball from a file system path.
type LocalSource struct {
	Fs   afero.Fs
	Path string
}

// NewLocalSource returns a LocalSource on the OS file system.
func NewLocalSource(path string) *LocalSource {
	return &LocalSource{Fs: afero.NewOsFs(), Path: path}
}

// Fetch reads the file.
func (s *LocalSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(s.Fs, s.Path)
	if err != nil {
		return nil, fmt.Errorf("read tarball %s: %w", s.Path, err)
	}
	return data, nil
}

func (s *LocalSource) String() string {
	return s.Path
}

// Getter downloads a URL. *registry.Client implements it.
type Getter interface {
	GetTarball(ctx context.Context, url string) ([]byte, error)
}

// RemoteSource downloads a tarball by URL.
type RemoteSource struct {
	URL    string
	Getter Getter
}

// NewRemoteSource returns a RemoteSource. A nil getter uses a default
// registry client.
func NewRemoteSource(url string, getter Getter) *RemoteSource {
	if getter == nil {
		getter = registry.NewClient("")
	}
	return &RemoteSource{URL: url, Getter: getter}
}

// Fetch downloads the tarball.
func (s *RemoteSource) Fetch(ctx context.Context) ([]byte, error) {
	return s.Getter.GetTarball(ctx, s.URL)
}

func (s *RemoteSource) String() string {
	return s.URL
}

var (
	_ Source = (*LocalSource)(nil)
	_ Source = (*RemoteSource)(nil)
	_ Getter = (*registry.Client)(nil)
)
