package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	tinypm "github.com/albertocavalcante/go-tinypm"
	"github.com/albertocavalcante/go-tinypm/graph"
	"github.com/albertocavalcante/go-tinypm/lockfile"
)

// outputFormat is the --format flag value.
type outputFormat string

const (
	formatList outputFormat = "list"
	formatText outputFormat = "text"
	formatJSON outputFormat = "json"
	formatDOT  outputFormat = "dot"
)

var _ pflag.Value = (*outputFormat)(nil)

func (f *outputFormat) String() string { return string(*f) }
func (f *outputFormat) Type() string   { return "format" }

func (f *outputFormat) Set(s string) error {
	switch v := outputFormat(strings.ToLower(s)); v {
	case formatList, formatText, formatJSON, formatDOT:
		*f = v
		return nil
	}
	return fmt.Errorf("must be one of list, text, json, dot")
}

// useConfigLockfile is the --lockfile value given without a path.
const useConfigLockfile = "\x00config"

type resolveFlags struct {
	manifest string
	lockfile string
	format   outputFormat
}

func newResolveCommand(a *app) *cobra.Command {
	flags := resolveFlags{format: formatList}

	cmd := &cobra.Command{
		Use:   "resolve [name@range ...]",
		Short: "Resolve requirements into one version per package",
		Long: `Resolve name@range requirements, or the dependencies of a package.json,
into a single compatible set of exact versions.

With --lockfile the result is also written to a lockfile, and changes
against the existing lockfile are reported.`,
		Example: `  tinypm resolve express@^4 debug
  tinypm resolve --manifest app/package.json --format dot | dot -Tsvg > deps.svg
  tinypm resolve --lockfile`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runResolve(cmd, args, &flags)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.manifest, "manifest", "m", "", "read requirements from this package.json")
	f.StringVar(&flags.lockfile, "lockfile", "", "write the resolution to this lockfile (no value: the configured lockfile)")
	f.Lookup("lockfile").NoOptDefVal = useConfigLockfile
	f.Var(&flags.format, "format", "output format: list, text, json or dot")
	return cmd
}

func (a *app) runResolve(cmd *cobra.Command, args []string, flags *resolveFlags) error {
	reqs, err := readRequirements(args, flags.manifest)
	if err != nil {
		return err
	}
	r, err := a.resolver()
	if err != nil {
		return err
	}
	list, err := r.Resolve(cmd.Context(), reqs)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := a.printResolution(out, flags.format, reqs, list); err != nil {
		return err
	}

	if flags.lockfile == "" {
		return nil
	}
	path := flags.lockfile
	if path == useConfigLockfile {
		path = a.cfg.Lockfile
	}
	return a.writeLockfile(cmd.ErrOrStderr(), path, reqs, list)
}

func (a *app) printResolution(w io.Writer, format outputFormat, reqs tinypm.Requirements, list *tinypm.ResolutionList) error {
	switch format {
	case formatJSON:
		data, err := json.MarshalIndent(list, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case formatDOT:
		_, err := io.WriteString(w, graph.Build(list, reqs).ToDOT())
		return err
	case formatText:
		_, err := io.WriteString(w, graph.Build(list, reqs).ToText())
		return err
	}

	st := a.styles
	for _, p := range list.Packages {
		line := st.key(p.Name, p.Version)
		if p.Direct {
			line += st.dim.Render(" (direct)")
		}
		fmt.Fprintln(w, line)
	}
	for _, warning := range list.Warnings {
		fmt.Fprintln(w, st.warn.Render("warning: "+warning))
	}
	s := list.Summary
	fmt.Fprintln(w, st.dim.Render(fmt.Sprintf("%d packages (%d direct, %d transitive) in %d steps, %d backtracks",
		s.TotalPackages, s.DirectPackages, s.TransitivePackages, s.Steps, s.Backtracks)))
	return nil
}

// writeLockfile reports how the new resolution differs from the lockfile
// at path, if any, and replaces it.
func (a *app) writeLockfile(w io.Writer, path string, reqs tinypm.Requirements, list *tinypm.ResolutionList) error {
	next := lockfile.FromResolution(reqs, list)
	st := a.styles

	if lockfile.Exists(path) {
		prev, err := lockfile.ReadFile(path)
		if err != nil {
			a.logger.Warn("replacing unreadable lockfile", "path", path, "error", err)
		} else {
			diff := lockfile.Compare(prev, next)
			if diff.IsEmpty() {
				fmt.Fprintln(w, st.dim.Render(path+" is up to date"))
				return nil
			}
			for _, k := range diff.Added {
				fmt.Fprintln(w, st.ok.Render("+ "+k))
			}
			for _, k := range diff.Removed {
				fmt.Fprintln(w, st.err.Render("- "+k))
			}
			for _, c := range diff.Changed {
				note := ""
				if c.IntegrityChanged {
					note = " (integrity changed)"
				}
				fmt.Fprintln(w, st.warn.Render(fmt.Sprintf("~ %s %s -> %s%s", c.Name, c.OldVersion, c.NewVersion, note)))
			}
		}
	}

	if err := next.WriteFile(path); err != nil {
		return err
	}
	fmt.Fprintln(w, st.ok.Render("wrote "+path))
	return nil
}
