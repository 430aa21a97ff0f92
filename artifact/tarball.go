package artifact

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// ErrFileNotFound is returned when a tarball has no entry with the requested name.
var ErrFileNotFound = errors.New("file not found in tarball")

// maxEntrySize bounds the size of a single extracted entry.
const maxEntrySize = 16 << 20

// PackageManifest is the subset of an extracted package.json that matters
// for resolution.
type PackageManifest struct {
	Name         string            `json:"name"`
	Version      string            `json:"version"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// ReadFile returns the content of the entry called name in a gzipped
// tarball. Leading "./" is ignored on both sides.
func ReadFile(tgz []byte, name string) ([]byte, error) {
	want := cleanEntryName(name)
	var found []byte
	err := walk(tgz, func(hdr *tar.Header, r io.Reader) (bool, error) {
		if cleanEntryName(hdr.Name) != want {
			return false, nil
		}
		data, err := readEntry(hdr, r)
		found = data
		return true, err
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, name)
	}
	return found, nil
}

// ReadPackageJSON decodes the package.json of a published tarball.
// npm packs files under a single top-level directory, usually "package/",
// but older tarballs use the package name; any one-level-deep
// package.json is accepted, preferring "package/package.json".
func ReadPackageJSON(tgz []byte) (*PackageManifest, error) {
	data, err := ReadFile(tgz, "package/package.json")
	if errors.Is(err, ErrFileNotFound) {
		data, err = findTopLevelPackageJSON(tgz)
	}
	if err != nil {
		return nil, err
	}

	var m PackageManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse package.json: %w", err)
	}
	return &m, nil
}

// ReadDependencies returns the declared dependencies of a tarball's
// package.json. A package without dependencies yields an empty map.
func ReadDependencies(tgz []byte) (map[string]string, error) {
	m, err := ReadPackageJSON(tgz)
	if err != nil {
		return nil, err
	}
	if m.Dependencies == nil {
		return map[string]string{}, nil
	}
	return m.Dependencies, nil
}

func findTopLevelPackageJSON(tgz []byte) ([]byte, error) {
	var found []byte
	err := walk(tgz, func(hdr *tar.Header, r io.Reader) (bool, error) {
		name := cleanEntryName(hdr.Name)
		dir, file := path.Split(name)
		if file != "package.json" || strings.Count(dir, "/") != 1 {
			return false, nil
		}
		data, err := readEntry(hdr, r)
		found = data
		return true, err
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("%w: package.json", ErrFileNotFound)
	}
	return found, nil
}

// walk calls fn for every regular file until fn reports done.
func walk(tgz []byte, fn func(*tar.Header, io.Reader) (done bool, err error)) error {
	gz, err := gzip.NewReader(bytes.NewReader(tgz))
	if err != nil {
		return fmt.Errorf("open gzip stream: %w", err)
	}
	defer func() { _ = gz.Close() }()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar entry: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		done, err := fn(hdr, tr)
		if err != nil || done {
			return err
		}
	}
}

func readEntry(hdr *tar.Header, r io.Reader) ([]byte, error) {
	if hdr.Size > maxEntrySize {
		return nil, fmt.Errorf("entry %s is %d bytes, limit is %d", hdr.Name, hdr.Size, maxEntrySize)
	}
	data, err := io.ReadAll(io.LimitReader(r, maxEntrySize))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", hdr.Name, err)
	}
	return data, nil
}

func cleanEntryName(name string) string {
	return strings.TrimPrefix(path.Clean("/"+name), "/")
}
