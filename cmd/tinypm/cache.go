package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	tinypm "github.com/albertocavalcante/go-tinypm"
)

func newCacheCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the packument cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "dir",
		Short: "Print the cache directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.CacheDir == "" {
				return errNoCacheDir
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.cfg.CacheDir)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every cached packument",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.CacheDir == "" {
				return errNoCacheDir
			}
			dc, err := tinypm.NewDiskCache(a.cfg.CacheDir)
			if err != nil {
				return err
			}
			n, err := dc.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.styles.ok.Render(fmt.Sprintf("removed %d cached packuments from %s", n, dc.Dir())))
			return nil
		},
	})
	return cmd
}

var errNoCacheDir = errors.New("no cache directory configured (set cache_dir or --cache-dir)")
