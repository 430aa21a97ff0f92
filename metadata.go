package tinypm

import (
	"context"
	"fmt"
	"sync"
)

// markDeprecated fetches metadata for every resolved package and records
// deprecation notices. It is fail-open: a package whose metadata cannot be
// fetched is left unmarked and resolution continues.
//
// Packages are checked concurrently; results are applied in selection order
// so warnings are deterministic.
func markDeprecated(ctx context.Context, provider MetadataProvider, list *ResolutionList) {
	messages := make([]string, len(list.Packages))
	var wg sync.WaitGroup

	for i := range list.Packages {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			pkg := &list.Packages[idx]
			p, err := provider.GetPackument(ctx, pkg.Name)
			if err != nil {
				return
			}
			if m, ok := p.Version(pkg.Version); ok && m.Deprecated != "" {
				messages[idx] = string(m.Deprecated)
			}
		}(i)
	}
	wg.Wait()

	for i, msg := range messages {
		if msg == "" {
			continue
		}
		pkg := &list.Packages[i]
		pkg.Deprecated = true
		pkg.DeprecationMessage = msg
		list.Summary.DeprecatedPackages++
		list.Warnings = append(list.Warnings, fmt.Sprintf("%s is deprecated: %s", pkg.Key(), msg))
	}
}
