package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	tinypm "github.com/albertocavalcante/go-tinypm"
	"github.com/albertocavalcante/go-tinypm/artifact"
	"github.com/albertocavalcante/go-tinypm/registry"
)

func newFetchCommand(a *app) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "fetch name@range",
		Short: "Download and verify the tarball of the newest matching version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, rng, err := tinypm.ParseRequirement(args[0])
			if err != nil {
				return err
			}
			r, err := a.resolver()
			if err != nil {
				return err
			}
			data, pinned, err := r.Fetch(cmd.Context(), name, rng)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}
			path := filepath.Join(outDir, registry.CacheFileName(pinned.Name)+"-"+pinned.Version+".tgz")
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s %s\n", a.styles.key(pinned.Name, pinned.Version), a.styles.dim.Render("-> "+path))

			deps, err := artifact.ReadDependencies(data)
			if err != nil {
				a.logger.Warn("read package.json from tarball", "path", path, "error", err)
				return nil
			}
			names := make([]string, 0, len(deps))
			for dep := range deps {
				names = append(names, dep)
			}
			sort.Strings(names)
			for _, dep := range names {
				fmt.Fprintf(w, "  %s %s\n", dep, a.styles.dim.Render(deps[dep]))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "directory to write the tarball to")
	return cmd
}
