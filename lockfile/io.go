package lockfile

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// FileName is the conventional lockfile name.
const FileName = "tinypm.lock"

// lockfilePermissions is the file permission mode for lockfiles.
const lockfilePermissions = 0o644

// ReadFile reads and parses a lockfile from the given path.
func ReadFile(path string) (*Lockfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lockfile: %w", err)
	}
	return Parse(data)
}

// Parse parses lockfile TOML data.
func Parse(data []byte) (*Lockfile, error) {
	var lf Lockfile
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&lf); err != nil {
		return nil, fmt.Errorf("failed to parse lockfile TOML: %w", err)
	}
	if err := lf.validate(); err != nil {
		return nil, err
	}

	if lf.Requirements == nil {
		lf.Requirements = make(map[string]string)
	}
	lf.sortPackages()
	return &lf, nil
}

// Marshal serializes the lockfile. Output is deterministic: packages are
// written in name order and go-toml sorts map keys.
func (l *Lockfile) Marshal() ([]byte, error) {
	l.sortPackages()

	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(false)
	if err := enc.Encode(l); err != nil {
		return nil, fmt.Errorf("failed to encode lockfile: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile writes the lockfile to path, replacing any existing file
// atomically.
func (l *Lockfile) WriteFile(path string) error {
	data, err := l.Marshal()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tinypm-lock-*")
	if err != nil {
		return fmt.Errorf("failed to write lockfile: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write lockfile: %w", err)
	}
	if err := tmp.Chmod(lockfilePermissions); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write lockfile: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write lockfile: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// WriteTo writes the lockfile to the given writer.
func (l *Lockfile) WriteTo(w io.Writer) (int64, error) {
	data, err := l.Marshal()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// Exists returns true if a lockfile exists at the given path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// DefaultPath returns the lockfile path for a project directory.
func DefaultPath(projectDir string) string {
	if projectDir == "" {
		return FileName
	}
	return filepath.Join(projectDir, FileName)
}
