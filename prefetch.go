package tinypm

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/albertocavalcante/go-tinypm/solve"
)

// Prefetcher fetches several packuments concurrently. Results go through the
// fetch function the search loader passes in, which memoizes successes and
// failures alike; without one the provider is called directly and only its
// own cache keeps the results. Failures are logged at debug level and
// otherwise ignored, since the search reports them when it actually needs
// the package.
type Prefetcher struct {
	provider MetadataProvider
	limit    int
	logger   *slog.Logger
}

// NewPrefetcher returns a Prefetcher running at most limit fetches at a time.
func NewPrefetcher(provider MetadataProvider, limit int, logger *slog.Logger) *Prefetcher {
	if limit <= 0 {
		limit = defaultMaxConcurrency
	}
	if logger == nil {
		logger = slog.New(discardHandler{})
	}
	return &Prefetcher{provider: provider, limit: limit, logger: logger}
}

// Prefetch fetches names and waits for all fetches to finish. A nil fetch
// reads straight from the provider.
func (p *Prefetcher) Prefetch(ctx context.Context, names []string, fetch solve.FetchFunc) {
	if fetch == nil {
		fetch = func(ctx context.Context, name string) error {
			_, err := p.provider.GetPackument(ctx, name)
			return err
		}
	}

	var g errgroup.Group
	g.SetLimit(p.limit)
	for _, name := range names {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := fetch(ctx, name); err != nil {
				p.logger.Debug("prefetch failed", "package", name, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

var _ solve.Prefetcher = (*Prefetcher)(nil)
