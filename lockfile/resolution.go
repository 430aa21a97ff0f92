package lockfile

import (
	"maps"
	"slices"
	"sort"

	tinypm "github.com/albertocavalcante/go-tinypm"
)

// FromResolution creates a lockfile recording list as the resolution of reqs.
func FromResolution(reqs tinypm.Requirements, list *tinypm.ResolutionList) *Lockfile {
	lf := New()
	maps.Copy(lf.Requirements, reqs)
	if list == nil {
		return lf
	}

	for _, p := range list.Packages {
		lf.Packages = append(lf.Packages, Package{
			Name:         p.Name,
			Version:      p.Version,
			Registry:     p.Registry,
			Tarball:      p.Tarball,
			Integrity:    p.Integrity,
			Dependencies: maps.Clone(p.Dependencies),
			RequiredBy:   slices.Clone(p.RequiredBy),
			Deprecated:   p.DeprecationMessage,
		})
	}
	lf.sortPackages()
	return lf
}

// Resolution converts the lockfile back into a resolution list. Packages
// come back in name order, since selection order is not recorded; the
// summary counts are recomputed and search statistics are zero.
func (l *Lockfile) Resolution() *tinypm.ResolutionList {
	list := &tinypm.ResolutionList{}
	for _, p := range l.Packages {
		_, direct := l.Requirements[p.Name]
		rp := tinypm.ResolvedPackage{
			Name:               p.Name,
			Version:            p.Version,
			Direct:             direct,
			RequiredBy:         slices.Clone(p.RequiredBy),
			Dependencies:       maps.Clone(p.Dependencies),
			Registry:           p.Registry,
			Tarball:            p.Tarball,
			Integrity:          p.Integrity,
			Deprecated:         p.Deprecated != "",
			DeprecationMessage: p.Deprecated,
		}
		list.Packages = append(list.Packages, rp)

		list.Summary.TotalPackages++
		if direct {
			list.Summary.DirectPackages++
		} else {
			list.Summary.TransitivePackages++
		}
		if rp.Deprecated {
			list.Summary.DeprecatedPackages++
		}
	}
	return list
}

// Diff describes how two lockfiles differ.
type Diff struct {
	// Added contains packages locked only in the new lockfile, as name@version.
	Added []string

	// Removed contains packages locked only in the old lockfile, as name@version.
	Removed []string

	// Changed contains packages locked in both at different versions or
	// with different tarball integrity.
	Changed []PackageChange

	// RequirementsChanged is true when the lockfiles were written for
	// different requirements.
	RequirementsChanged bool
}

// PackageChange is a package whose locked entry differs.
type PackageChange struct {
	Name       string
	OldVersion string
	NewVersion string

	// IntegrityChanged is true when the version is the same but the
	// recorded integrity is not, which usually means a republished tarball.
	IntegrityChanged bool
}

// IsEmpty returns true if there are no differences.
func (d *Diff) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0 && !d.RequirementsChanged
}

// Compare compares two lockfiles and returns the differences.
// A nil lockfile is treated as empty.
func Compare(old, new *Lockfile) *Diff {
	if old == nil {
		old = New()
	}
	if new == nil {
		new = New()
	}

	diff := &Diff{RequirementsChanged: !old.Matches(new.Requirements)}

	oldPackages := make(map[string]Package, len(old.Packages))
	for _, p := range old.Packages {
		oldPackages[p.Name] = p
	}

	for _, np := range new.Packages {
		op, exists := oldPackages[np.Name]
		if !exists {
			diff.Added = append(diff.Added, np.Key())
			continue
		}
		delete(oldPackages, np.Name)

		switch {
		case op.Version != np.Version:
			diff.Changed = append(diff.Changed, PackageChange{Name: np.Name, OldVersion: op.Version, NewVersion: np.Version})
		case op.Integrity != "" && np.Integrity != "" && op.Integrity != np.Integrity:
			diff.Changed = append(diff.Changed, PackageChange{
				Name:             np.Name,
				OldVersion:       op.Version,
				NewVersion:       np.Version,
				IntegrityChanged: true,
			})
		}
	}

	for _, op := range oldPackages {
		diff.Removed = append(diff.Removed, op.Key())
	}

	// Sort for deterministic output
	sort.Strings(diff.Added)
	sort.Strings(diff.Removed)
	sort.Slice(diff.Changed, func(i, j int) bool {
		return diff.Changed[i].Name < diff.Changed[j].Name
	})

	return diff
}
