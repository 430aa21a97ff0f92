// Package graph provides dependency graph representation and query
// capabilities for a tinypm resolution.
//
// A resolution records, for each selected package, the selected packages
// that depend on it. This package turns those edges into a navigable graph
// rooted at a synthetic "<root>" node standing for the direct requirements,
// so users can:
//
//   - Visualize the complete dependency graph
//   - Explain why a package is part of the resolution
//   - Find dependency paths between packages
//   - Detect dependency cycles, which npm metadata permits
//
// # Building a Graph
//
//	list, _ := tinypm.Resolve(ctx, reqs)
//	g := graph.Build(list, reqs)
//
// # Querying the Graph
//
//	// Every chain from the root to a package
//	chains, _ := g.WhyIncluded("eyes")
//
//	// Shortest path between two packages
//	path := g.Path(g.Root, key)
//
// # Output Formats
//
//	jsonBytes, _ := g.ToJSON()
//	dotString := g.ToDOT()
//	textString := g.ToText()
package graph
