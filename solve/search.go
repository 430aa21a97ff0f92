package solve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/albertocavalcante/go-tinypm/semver"
)

// EventKind classifies a search progress event.
type EventKind int

const (
	// EventSelect fires when a candidate is appended to the selection.
	EventSelect EventKind = iota
	// EventReject fires when a candidate fails the compatibility check.
	EventReject
	// EventBacktrack fires when every candidate of a frame has failed.
	EventBacktrack
	// EventUnavailable fires when a package's metadata cannot be loaded.
	EventUnavailable
)

func (k EventKind) String() string {
	switch k {
	case EventSelect:
		return "select"
	case EventReject:
		return "reject"
	case EventBacktrack:
		return "backtrack"
	case EventUnavailable:
		return "unavailable"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event describes one step of the search.
type Event struct {
	Kind EventKind
	// Package is the candidate for select and reject events. For backtrack
	// and unavailable events only Package.Name is set.
	Package PackageVersion
	// Depth is the number of packages selected before this step.
	Depth int
}

// Stats summarizes a finished search.
type Stats struct {
	Steps      int // candidates tried
	Backtracks int // frames exhausted
	Revisits   int // re-checks of already selected packages
	Loaded     int // package versions in the manifest
}

// Options tunes a Search.
type Options struct {
	// Logger receives debug output. Nil discards it.
	Logger *slog.Logger
	// MaxSteps bounds the number of candidates tried. Zero means unbounded.
	MaxSteps int
	// Progress, if set, is called synchronously for every event.
	Progress func(Event)
}

// Search runs one backtracking resolution over a Manifest.
// A Search is not safe for concurrent use.
type Search struct {
	manifest *Manifest
	logger   *slog.Logger
	maxSteps int
	progress func(Event)

	root  VersionDependency
	stats Stats
}

// NewSearch returns a Search that reads edges from m.
func NewSearch(m *Manifest, opts Options) *Search {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(discardHandler{})
	}
	return &Search{
		manifest: m,
		logger:   logger,
		maxSteps: opts.MaxSteps,
		progress: opts.Progress,
	}
}

// Stats returns counters for the last Solve call.
func (s *Search) Stats() Stats {
	return s.stats
}

// frame is one level of the search: the package being decided, its
// remaining candidates, and the state to restore when trying each of them.
type frame struct {
	selected   Solution
	name       string
	candidates []semver.Version
	next       int
	rest       *Worklist
	revisit    bool
}

// Solve returns the first assignment found that picks one version per
// required package and per transitive dependency, such that every selected
// package's edges accept every other selected package.
//
// Candidates are tried in ascending version order; dependencies of a chosen
// package join the worklist in ascending name order.
func (s *Search) Solve(ctx context.Context, reqs []Requirement) (Solution, error) {
	s.stats = Stats{}
	defer func() { s.stats.Loaded = s.manifest.Len() }()

	worklist, err := s.seed(ctx, reqs)
	if err != nil {
		return nil, err
	}

	var (
		stack    []*frame
		selected Solution
		descend  = worklist
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if descend != nil {
			if descend.Len() == 0 {
				if selected == nil {
					selected = Solution{}
				}
				return selected, nil
			}
			f, err := s.push(ctx, selected, descend)
			if err != nil {
				return nil, err
			}
			stack = append(stack, f)
			descend = nil
		}

		if len(stack) == 0 {
			return nil, s.noSolution(reqs)
		}

		f := stack[len(stack)-1]
		if f.next >= len(f.candidates) {
			stack = stack[:len(stack)-1]
			s.stats.Backtracks++
			s.emit(Event{Kind: EventBacktrack, Package: PackageVersion{Name: f.name}, Depth: len(f.selected)})
			s.logger.Debug("backtrack", "package", f.name, "depth", len(f.selected))
			continue
		}

		candidate := PackageVersion{Name: f.name, Version: f.candidates[f.next]}
		f.next++
		s.stats.Steps++
		if s.maxSteps > 0 && s.stats.Steps > s.maxSteps {
			return nil, fmt.Errorf("%w after %d candidates", ErrStepLimit, s.maxSteps)
		}

		ok, err := s.compatible(f.selected, candidate)
		if err != nil {
			return nil, err
		}
		if !ok {
			s.emit(Event{Kind: EventReject, Package: candidate, Depth: len(f.selected)})
			continue
		}

		if f.revisit {
			selected = f.selected
			descend = f.rest.Clone()
			continue
		}

		edges, err := s.manifest.Edges(candidate)
		if err != nil {
			return nil, err
		}
		s.emit(Event{Kind: EventSelect, Package: candidate, Depth: len(f.selected)})
		s.logger.Debug("select", "package", candidate.String(), "depth", len(f.selected))

		selected = append(slices.Clip(f.selected), candidate)
		descend = f.rest.Clone()
		descend.AddAll(edges.Unresolved()...)
	}
}

// seed loads every direct requirement and builds the initial worklist. The
// requirements also become the root edge set consulted by compatible.
func (s *Search) seed(ctx context.Context, reqs []Requirement) (*Worklist, error) {
	s.root = make(VersionDependency, len(reqs))
	worklist := &Worklist{}
	for _, req := range reqs {
		if err := s.manifest.EnsureLoaded(ctx, req.Name); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, &RequirementError{Name: req.Name, Err: err}
		}
		r := req.Range
		if r == nil {
			r = semver.Any()
		}
		versions := semver.Filter(s.manifest.Versions(req.Name), r)
		s.root[req.Name] = semver.Unique(append(s.root[req.Name], versions...))
		worklist.AddAll(UnresolvedDependency{Name: req.Name, Versions: versions})
	}
	return worklist, nil
}

// push pops the head of worklist into a new frame. A head that names an
// already selected package becomes a revisit frame whose only candidate is
// the existing choice. A head whose metadata is unavailable becomes a frame
// with no candidates.
func (s *Search) push(ctx context.Context, selected Solution, worklist *Worklist) (*frame, error) {
	head, rest, _ := worklist.PopHead()
	f := &frame{selected: selected, name: head.Name, rest: rest}

	if existing, ok := selected.Get(head.Name); ok {
		s.stats.Revisits++
		f.revisit = true
		f.candidates = []semver.Version{existing.Version}
		return f, nil
	}

	if err := s.manifest.EnsureLoaded(ctx, head.Name); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if !errors.Is(err, ErrMetadataUnavailable) {
			return nil, err
		}
		s.logger.Warn("dependency unavailable", "package", head.Name, "error", err)
		s.emit(Event{Kind: EventUnavailable, Package: PackageVersion{Name: head.Name}, Depth: len(selected)})
		return f, nil
	}
	f.candidates = head.Versions
	return f, nil
}

// compatible checks candidate against the direct requirements and against
// every selected package other than candidate's own slot.
func (s *Search) compatible(selected Solution, candidate PackageVersion) (bool, error) {
	if !s.root.Allows(candidate) {
		return false, nil
	}
	for _, pv := range selected {
		if pv.SameSlot(candidate) {
			continue
		}
		ok, err := s.manifest.IsCompatible(pv, candidate)
		if err != nil {
			return false, err
		}
		if !ok {
			s.logger.Debug("incompatible", "candidate", candidate.String(), "rejected_by", pv.String())
			return false, nil
		}
	}
	return true, nil
}

func (s *Search) noSolution(reqs []Requirement) error {
	names := make([]string, len(reqs))
	for i, r := range reqs {
		names[i] = r.String()
	}
	return &NoSolutionError{Requirements: names, Steps: s.stats.Steps}
}

func (s *Search) emit(e Event) {
	if s.progress != nil {
		s.progress(e)
	}
}

// Resolve loads metadata from provider and solves reqs in one call.
func Resolve(ctx context.Context, provider Provider, reqs []Requirement, opts Options) (Solution, Stats, error) {
	loader := NewLoader(provider, WithLoaderLogger(opts.Logger))
	search := NewSearch(NewManifest(loader), opts)
	sol, err := search.Solve(ctx, reqs)
	return sol, search.Stats(), err
}
