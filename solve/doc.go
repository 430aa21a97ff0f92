// Package solve implements the backtracking dependency search.
//
// Resolution works on three pieces of per-run state:
//
//   - Manifest: a lazily populated cache of (package, version) -> dependency
//     edges, where each edge lists the versions of the dependency that
//     satisfy the declared range. Entries are written once and never change.
//   - Worklist: the ordered frontier of packages whose version has not been
//     chosen, at most one entry per package name.
//   - The selection: the partial solution, in selection order.
//
// # Algorithm
//
// The search pops the head of the worklist and tries its candidate versions
// in order. A candidate is compatible when every already selected package
// that declares an edge toward its name lists the candidate among the
// satisfying versions, and when it satisfies the direct requirement on its
// name, if any. A compatible candidate is appended to the selection and its
// own dependencies are merged into a private copy of the remaining worklist.
// The first complete selection wins; there is no search for a newest or
// smallest solution.
//
// When two selected packages depend on the same not-yet-chosen package the
// worklist unions their candidate sets. Every package that contributed to a
// union is itself selected, so the compatibility check at selection time
// rejects any version one of them does not accept.
//
// A worklist entry for a package that is already selected is a revisit: the
// existing choice is checked again against everything selected since, which
// validates edges declared by packages chosen after it. No second version is
// ever selected for a name.
//
// The search runs on an explicit stack of frames rather than Go recursion,
// so deep dependency chains cannot exhaust the goroutine stack.
//
// # Failures
//
// Metadata that cannot be fetched makes only the affected branch unusable.
// A direct requirement whose metadata cannot be fetched aborts the run, as
// does any PreconditionError. Exhausting every branch returns ErrNoSolution.
package solve
