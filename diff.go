package tinypm

import (
	"sort"

	"github.com/albertocavalcante/go-tinypm/semver"
)

// PackageChange represents an added or removed package in a resolution diff.
type PackageChange struct {
	// Name is the package name.
	Name string `json:"name"`

	// Version is the package version.
	Version string `json:"version"`
}

// PackageUpgrade represents a version change for an existing package.
type PackageUpgrade struct {
	// Name is the package name.
	Name string `json:"name"`

	// OldVersion is the version in the old resolution.
	OldVersion string `json:"old_version"`

	// NewVersion is the version in the new resolution.
	NewVersion string `json:"new_version"`
}

// ResolutionDiff describes the differences between two resolutions.
//
// Example usage:
//
//	oldResult, _ := tinypm.Resolve(ctx, oldReqs)
//	newResult, _ := tinypm.Resolve(ctx, newReqs)
//	diff := tinypm.DiffResolutions(oldResult, newResult)
//
//	if !diff.IsEmpty() {
//	    fmt.Printf("%d added, %d removed, %d upgraded, %d downgraded\n",
//	        len(diff.Added), len(diff.Removed), len(diff.Upgraded), len(diff.Downgraded))
//	}
type ResolutionDiff struct {
	// Added contains packages present in new but not in old.
	Added []PackageChange `json:"added,omitempty"`

	// Removed contains packages present in old but not in new.
	Removed []PackageChange `json:"removed,omitempty"`

	// Upgraded contains packages where the new version is higher.
	Upgraded []PackageUpgrade `json:"upgraded,omitempty"`

	// Downgraded contains packages where the new version is lower.
	Downgraded []PackageUpgrade `json:"downgraded,omitempty"`
}

// IsEmpty returns true if there are no differences between the resolutions.
func (d *ResolutionDiff) IsEmpty() bool {
	return len(d.Added) == 0 &&
		len(d.Removed) == 0 &&
		len(d.Upgraded) == 0 &&
		len(d.Downgraded) == 0
}

// TotalChanges returns the total number of changes.
func (d *ResolutionDiff) TotalChanges() int {
	return len(d.Added) + len(d.Removed) + len(d.Upgraded) + len(d.Downgraded)
}

// DiffResolutions computes the difference between two resolutions.
// A nil list is treated as empty. Versions are compared by semver
// precedence; strings that are not valid versions compare lexically.
// Results are sorted by package name.
func DiffResolutions(old, new *ResolutionList) *ResolutionDiff {
	diff := &ResolutionDiff{}

	oldPackages := packageVersions(old)
	newPackages := packageVersions(new)

	for name, newVersion := range newPackages {
		oldVersion, existedBefore := oldPackages[name]
		if !existedBefore {
			diff.Added = append(diff.Added, PackageChange{Name: name, Version: newVersion})
			continue
		}
		if oldVersion == newVersion {
			continue
		}
		change := PackageUpgrade{Name: name, OldVersion: oldVersion, NewVersion: newVersion}
		switch cmp := compareVersionStrings(newVersion, oldVersion); {
		case cmp > 0:
			diff.Upgraded = append(diff.Upgraded, change)
		case cmp < 0:
			diff.Downgraded = append(diff.Downgraded, change)
		}
	}

	for name, oldVersion := range oldPackages {
		if _, existsNow := newPackages[name]; !existsNow {
			diff.Removed = append(diff.Removed, PackageChange{Name: name, Version: oldVersion})
		}
	}

	sortPackageChanges(diff.Added)
	sortPackageChanges(diff.Removed)
	sortPackageUpgrades(diff.Upgraded)
	sortPackageUpgrades(diff.Downgraded)

	return diff
}

func packageVersions(list *ResolutionList) map[string]string {
	out := make(map[string]string)
	if list == nil {
		return out
	}
	for _, p := range list.Packages {
		out[p.Name] = p.Version
	}
	return out
}

func compareVersionStrings(a, b string) int {
	va, errA := semver.ParseVersion(a)
	vb, errB := semver.ParseVersion(b)
	if errA == nil && errB == nil {
		return va.Compare(vb)
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func sortPackageChanges(changes []PackageChange) {
	sort.Slice(changes, func(i, j int) bool {
		return changes[i].Name < changes[j].Name
	})
}

func sortPackageUpgrades(upgrades []PackageUpgrade) {
	sort.Slice(upgrades, func(i, j int) bool {
		return upgrades[i].Name < upgrades[j].Name
	})
}
