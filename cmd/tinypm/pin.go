package main

import (
	"fmt"

	"github.com/spf13/cobra"

	tinypm "github.com/albertocavalcante/go-tinypm"
)

func newPinCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pin name@range",
		Short: "Print the newest version satisfying a range",
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
			pinned, err := r.Pin(cmd.Context(), name, rng)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, a.styles.key(pinned.Name, pinned.Version))
			if pinned.Tarball != "" {
				fmt.Fprintln(w, a.styles.dim.Render("tarball:   ")+pinned.Tarball)
			}
			if pinned.Integrity != "" {
				fmt.Fprintln(w, a.styles.dim.Render("integrity: ")+pinned.Integrity)
			}
			return nil
		},
	}
}
