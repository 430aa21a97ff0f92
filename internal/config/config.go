// Package config loads .tinypmrc.yaml, the per-project settings file of the
// tinypm command.
//
// The file is looked up in the working directory and its parents. Every
// setting can be overridden by a command-line flag; the registry list and
// cache directory can also come from TINYPM_REGISTRY and TINYPM_CACHE_DIR.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	tinypm "github.com/albertocavalcante/go-tinypm"
	"github.com/albertocavalcante/go-tinypm/lockfile"
)

// FileName is the name of the configuration file.
const FileName = ".tinypmrc.yaml"

const (
	envRegistry = "TINYPM_REGISTRY"
	envCacheDir = "TINYPM_CACHE_DIR"
)

// DefaultYAML is written by "tinypm init"-style bootstrapping and documents
// every key.
const DefaultYAML = `# tinypm configuration
version: 1

# Registries are tried in order. file:// URLs name local mirrors.
registries:
  - https://registry.npmjs.org

# Packuments are cached here between runs. Leave empty to disable.
# cache_dir: ~/.cache/tinypm

# Packuments fetched ahead of the search, at most this many at a time.
concurrency: 5

# Per-request timeout.
timeout: 30s

# Abort the search after this many candidate versions. 0 means no limit.
max_steps: 0

lockfile: tinypm.lock
warn_deprecated: true
`

// Config models .tinypmrc.yaml.
type Config struct {
	Version        int           `yaml:"version"`
	Registries     []string      `yaml:"registries,omitempty"`
	CacheDir       string        `yaml:"cache_dir,omitempty"`
	Concurrency    int           `yaml:"concurrency,omitempty"`
	Timeout        time.Duration `yaml:"timeout,omitempty"`
	MaxSteps       int           `yaml:"max_steps,omitempty"`
	Lockfile       string        `yaml:"lockfile,omitempty"`
	WarnDeprecated bool          `yaml:"warn_deprecated"`

	// Path is the file the configuration was loaded from, empty for defaults.
	Path string `yaml:"-"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	return &Config{
		Version:        1,
		Registries:     []string{tinypm.DefaultRegistry},
		Concurrency:    5,
		Timeout:        30 * time.Second,
		Lockfile:       lockfile.FileName,
		WarnDeprecated: true,
	}
}

// Find returns the nearest FileName in dir or its parents.
func Find(dir string) (string, bool) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// Discover loads the nearest configuration file above dir, or the defaults
// when there is none. Environment overrides are applied in both cases.
func Discover(dir string) (*Config, error) {
	if path, ok := Find(dir); ok {
		return Load(path)
	}
	cfg := Default()
	cfg.applyEnv(os.LookupEnv)
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Load reads one configuration file. Keys missing from the file keep their
// defaults; relative paths are resolved against the file's directory.
// TINYPM_REGISTRY and TINYPM_CACHE_DIR override the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.Path = path
	cfg.normalize(filepath.Dir(path))
	cfg.applyEnv(os.LookupEnv)
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes configuration YAML over the defaults. Unknown keys are
// rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Options converts the configuration into resolver options.
func (c *Config) Options() []tinypm.Option {
	opts := []tinypm.Option{
		tinypm.WithRegistries(c.Registries...),
		tinypm.WithConcurrency(c.Concurrency),
		tinypm.WithTimeout(c.Timeout),
		tinypm.WithMaxSteps(c.MaxSteps),
		tinypm.WithDeprecatedWarnings(c.WarnDeprecated),
	}
	if c.CacheDir != "" {
		opts = append(opts, tinypm.WithCacheDir(c.CacheDir))
	}
	return opts
}

// Marshal encodes the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if len(c.Registries) == 0 {
		c.Registries = []string{tinypm.DefaultRegistry}
	}
	if c.Lockfile == "" {
		c.Lockfile = lockfile.FileName
	}
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(envRegistry); ok && strings.TrimSpace(v) != "" {
		var regs []string
		for _, r := range strings.Split(v, ",") {
			if r = strings.TrimSpace(r); r != "" {
				regs = append(regs, r)
			}
		}
		c.Registries = regs
	}
	if v, ok := lookup(envCacheDir); ok {
		c.CacheDir = expandHome(strings.TrimSpace(v))
	}
}

func (c *Config) normalize(base string) {
	for i, r := range c.Registries {
		c.Registries[i] = strings.TrimRight(strings.TrimSpace(r), "/")
	}
	c.CacheDir = resolvePath(base, expandHome(c.CacheDir))
	c.Lockfile = resolvePath(base, c.Lockfile)
}

func (c *Config) validate() error {
	if c.Version != 1 {
		return fmt.Errorf("unsupported config version %d", c.Version)
	}
	for i, r := range c.Registries {
		if r == "" {
			return fmt.Errorf("registries[%d] is empty", i)
		}
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	if c.MaxSteps < 0 {
		return fmt.Errorf("max_steps must not be negative")
	}
	return nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}
