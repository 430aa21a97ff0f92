package main

import (
	"io"

	"github.com/spf13/cobra"

	tinypm "github.com/albertocavalcante/go-tinypm"
	"github.com/albertocavalcante/go-tinypm/graph"
	"github.com/albertocavalcante/go-tinypm/lockfile"
)

func newWhyCommand(a *app) *cobra.Command {
	var (
		manifest string
		lockPath string
	)

	cmd := &cobra.Command{
		Use:   "why name [name@range ...]",
		Short: "Explain which packages pull in a dependency",
		Long: `Explain why a package is part of the resolution.

The resolution is read from the lockfile when one exists; otherwise the
requirements given after the name, or the manifest, are resolved first.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if lockPath == "" {
				lockPath = a.cfg.Lockfile
			}

			var (
				reqs tinypm.Requirements
				list *tinypm.ResolutionList
			)
			if len(args) == 1 && manifest == "" && lockfile.Exists(lockPath) {
				lf, err := lockfile.ReadFile(lockPath)
				if err != nil {
					return err
				}
				a.logger.Debug("explaining from lockfile", "path", lockPath)
				reqs, list = lf.Requirements, lf.Resolution()
			} else {
				var err error
				reqs, err = readRequirements(args[1:], manifest)
				if err != nil {
					return err
				}
				r, err := a.resolver()
				if err != nil {
					return err
				}
				if list, err = r.Resolve(cmd.Context(), reqs); err != nil {
					return err
				}
			}

			text, err := graph.Build(list, reqs).ToWhyText(args[0])
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), text)
			return err
		},
	}

	cmd.Flags().StringVarP(&manifest, "manifest", "m", "", "resolve this package.json instead of reading the lockfile")
	cmd.Flags().StringVar(&lockPath, "lockfile", "", "lockfile to read (default: the configured lockfile)")
	return cmd
}
