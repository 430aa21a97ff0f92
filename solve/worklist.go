package solve

import "slices"

// Worklist is the ordered set of packages still awaiting a version choice.
// It holds at most one entry per name. The zero value is an empty worklist.
type Worklist struct {
	entries []UnresolvedDependency
}

// NewWorklist returns a worklist seeded with deps.
func NewWorklist(deps ...UnresolvedDependency) *Worklist {
	w := &Worklist{}
	w.AddAll(deps...)
	return w
}

// Len returns the number of entries.
func (w *Worklist) Len() int {
	return len(w.entries)
}

func (w *Worklist) indexOf(name string) int {
	for i := range w.entries {
		if w.entries[i].Name == name {
			return i
		}
	}
	return -1
}

// Get returns the entry for name.
func (w *Worklist) Get(name string) (UnresolvedDependency, bool) {
	if i := w.indexOf(name); i >= 0 {
		return w.entries[i], true
	}
	return UnresolvedDependency{}, false
}

// AddAll merges each dep into the entry with the same name, or appends it in
// input order when the name is new. Merged candidate sets are unioned and
// sorted ascending.
func (w *Worklist) AddAll(deps ...UnresolvedDependency) {
	for _, dep := range deps {
		if i := w.indexOf(dep.Name); i >= 0 {
			w.entries[i].Merge(dep)
			continue
		}
		w.entries = append(w.entries, UnresolvedDependency{
			Name:     dep.Name,
			Versions: slices.Clone(dep.Versions),
		})
	}
}

// PopHead returns the first entry and the worklist without it. w itself is
// not modified. ok is false when w is empty.
func (w *Worklist) PopHead() (head UnresolvedDependency, rest *Worklist, ok bool) {
	if len(w.entries) == 0 {
		return UnresolvedDependency{}, &Worklist{}, false
	}
	return w.entries[0], &Worklist{entries: slices.Clone(w.entries[1:])}, true
}

// Clone returns a deep copy that shares nothing with w.
func (w *Worklist) Clone() *Worklist {
	c := &Worklist{entries: make([]UnresolvedDependency, len(w.entries))}
	for i, e := range w.entries {
		c.entries[i] = UnresolvedDependency{Name: e.Name, Versions: slices.Clone(e.Versions)}
	}
	return c
}

// Names returns the entry names in order.
func (w *Worklist) Names() []string {
	names := make([]string, len(w.entries))
	for i, e := range w.entries {
		names[i] = e.Name
	}
	return names
}

// Entries returns a deep copy of the entries in order.
func (w *Worklist) Entries() []UnresolvedDependency {
	return w.Clone().entries
}
