package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	tinypm "github.com/albertocavalcante/go-tinypm"
	"github.com/albertocavalcante/go-tinypm/internal/config"
	"github.com/albertocavalcante/go-tinypm/registry"
)

// app carries the state shared by every subcommand once flags and the
// configuration file have been merged.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *registry.Metrics
	gather  prometheus.Gatherer
	styles  styles
}

type rootFlags struct {
	configPath  string
	registries  []string
	cacheDir    string
	concurrency int
	timeout     time.Duration
	maxSteps    int
	verbose     bool
	stats       bool
}

func newRootCommand() *cobra.Command {
	var (
		flags rootFlags
		a     = &app{}
	)

	cmd := &cobra.Command{
		Use:           "tinypm",
		Short:         "Resolve npm dependencies with a backtracking search",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd, &flags)
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if flags.stats {
				a.printStats(cmd.ErrOrStderr())
			}
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "configuration file (default: nearest "+config.FileName+")")
	pf.StringSliceVar(&flags.registries, "registry", nil, "registry URL, repeatable; tried in order")
	pf.StringVar(&flags.cacheDir, "cache-dir", "", "directory for cached packuments")
	pf.IntVar(&flags.concurrency, "concurrency", 0, "packuments fetched in parallel ahead of the search")
	pf.DurationVar(&flags.timeout, "timeout", 0, "per-request timeout")
	pf.IntVar(&flags.maxSteps, "max-steps", 0, "abort the search after this many candidate versions (0: no limit)")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "log registry and search activity")
	pf.BoolVar(&flags.stats, "stats", false, "print registry request statistics on exit")

	cmd.AddCommand(
		newResolveCommand(a),
		newPinCommand(a),
		newFetchCommand(a),
		newWhyCommand(a),
		newCacheCommand(a),
	)

	return cmd
}

func (a *app) init(cmd *cobra.Command, flags *rootFlags) error {
	a.styles = newStyles(cmd.OutOrStdout())

	var (
		cfg *config.Config
		err error
	)
	if flags.configPath != "" {
		cfg, err = config.Load(flags.configPath)
	} else {
		wd, wdErr := os.Getwd()
		if wdErr != nil {
			return wdErr
		}
		cfg, err = config.Discover(wd)
	}
	if err != nil {
		return err
	}

	pf := cmd.Flags()
	if pf.Changed("registry") {
		cfg.Registries = flags.registries
	}
	if pf.Changed("cache-dir") {
		cfg.CacheDir = flags.cacheDir
	}
	if pf.Changed("concurrency") {
		cfg.Concurrency = flags.concurrency
	}
	if pf.Changed("timeout") {
		cfg.Timeout = flags.timeout
	}
	if pf.Changed("max-steps") {
		cfg.MaxSteps = flags.maxSteps
	}
	a.cfg = cfg

	level := slog.LevelWarn
	if flags.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	if a.cfg.Path != "" {
		a.logger.Debug("loaded configuration", "path", a.cfg.Path)
	}

	reg := prometheus.NewRegistry()
	a.metrics = registry.NewMetrics(reg)
	a.gather = reg
	return nil
}

// options returns the resolver options for the merged configuration.
func (a *app) options() []tinypm.Option {
	return append(a.cfg.Options(),
		tinypm.WithLogger(a.logger),
		tinypm.WithMetrics(a.metrics),
	)
}

// resolver builds a Resolver sharing one provider across calls.
func (a *app) resolver() (*tinypm.Resolver, error) {
	return tinypm.NewResolver(nil, a.options()...)
}

func (a *app) printStats(w io.Writer) {
	families, err := a.gather.Gather()
	if err != nil {
		a.logger.Warn("gather metrics", "error", err)
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			line := mf.GetName()
			for _, l := range m.GetLabel() {
				line += fmt.Sprintf(" %s=%s", l.GetName(), l.GetValue())
			}
			switch {
			case m.GetCounter() != nil:
				line += fmt.Sprintf(" %g", m.GetCounter().GetValue())
			case m.GetHistogram() != nil:
				line += fmt.Sprintf(" count=%d sum=%.3fs", m.GetHistogram().GetSampleCount(), m.GetHistogram().GetSampleSum())
			}
			fmt.Fprintln(w, a.styles.dim.Render(line))
		}
	}
}
