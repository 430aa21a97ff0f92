package main

import (
	"errors"
	"fmt"
	"os"

	tinypm "github.com/albertocavalcante/go-tinypm"
)

const defaultManifest = "package.json"

// readRequirements collects requirements from name@range arguments, or from
// the manifest when there are none. An empty manifest path falls back to
// ./package.json.
func readRequirements(args []string, manifest string) (tinypm.Requirements, error) {
	if len(args) > 0 {
		if manifest != "" {
			return nil, errors.New("requirements and --manifest are mutually exclusive")
		}
		reqs := make(tinypm.Requirements, len(args))
		for _, arg := range args {
			name, rng, err := tinypm.ParseRequirement(arg)
			if err != nil {
				return nil, err
			}
			if prev, dup := reqs[name]; dup && prev != rng {
				return nil, fmt.Errorf("%s is required twice (%s and %s)", name, prev, rng)
			}
			reqs[name] = rng
		}
		return reqs, nil
	}

	if manifest == "" {
		manifest = defaultManifest
	}
	data, err := os.ReadFile(manifest)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("no requirements given and %s not found", manifest)
		}
		return nil, err
	}
	pkg, err := tinypm.ParsePackageJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", manifest, err)
	}
	return pkg.Requirements(), nil
}
