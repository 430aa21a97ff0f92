package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const separatorWidth = 60 // Width of separator lines in text output

// JSONGraph is the ToJSON document.
type JSONGraph struct {
	Root     string        `json:"root"`
	Packages []JSONPackage `json:"packages"`
	Cycles   [][]string    `json:"cycles,omitempty"`
}

// JSONPackage is one node of a JSONGraph.
type JSONPackage struct {
	Key          string   `json:"key"`
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Dependencies []string `json:"dependencies,omitempty"`
	Dependents   []string `json:"dependents,omitempty"`
	Deprecated   bool     `json:"deprecated,omitempty"`
}

// ToJSON outputs the graph as a flat JSON node list in name order.
func (g *Graph) ToJSON() ([]byte, error) {
	doc := JSONGraph{Root: g.Root.String(), Packages: make([]JSONPackage, 0, len(g.Packages))}
	for _, key := range g.sortedKeys() {
		if key == g.Root {
			continue
		}
		node := g.Packages[key]
		doc.Packages = append(doc.Packages, JSONPackage{
			Key:          key.String(),
			Name:         key.Name,
			Version:      key.Version,
			Dependencies: keyStrings(node.Dependencies),
			Dependents:   keyStrings(node.Dependents),
			Deprecated:   node.Deprecated,
		})
	}
	for _, cycle := range g.FindCycles() {
		doc.Cycles = append(doc.Cycles, keyStrings(cycle))
	}
	return json.MarshalIndent(doc, "", "  ")
}

func keyStrings(keys []PackageKey) []string {
	if len(keys) == 0 {
		return nil
	}
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.String()
	}
	return out
}

// ToDOT outputs the graph in Graphviz DOT format.
func (g *Graph) ToDOT() string {
	var buf bytes.Buffer

	buf.WriteString("digraph dependencies {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box];\n\n")

	keys := g.sortedKeys()
	for _, key := range keys {
		node := g.Packages[key]
		label := key.Name
		if key.Version != "" {
			label += "\\n" + key.Version
		}
		attrs := fmt.Sprintf(`label="%s"`, label) //nolint:gocritic // DOT format requires this quote style
		if node.IsRoot {
			attrs += ", style=bold"
		}
		if node.Deprecated {
			attrs += ", style=dashed"
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", key.String(), attrs)
	}

	buf.WriteString("\n")

	for _, key := range keys {
		for _, dep := range g.Packages[key].Dependencies {
			fmt.Fprintf(&buf, "  %q -> %q;\n", key.String(), dep.String())
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// ToText outputs a human-readable summary and dependency tree. A package
// already printed elsewhere in the tree is marked "(deduped)" and not
// expanded again; an edge back into the current branch is marked
// "(circular)".
func (g *Graph) ToText() string {
	var buf bytes.Buffer

	stats := g.Stats()
	fmt.Fprintf(&buf, "Total packages: %d\n", stats.TotalPackages)
	fmt.Fprintf(&buf, "Direct dependencies: %d\n", stats.DirectDependencies)
	fmt.Fprintf(&buf, "Transitive dependencies: %d\n", stats.TransitiveDependencies)
	fmt.Fprintf(&buf, "Max depth: %d\n", stats.MaxDepth)
	if stats.DeprecatedPackages > 0 {
		fmt.Fprintf(&buf, "Deprecated packages: %d\n", stats.DeprecatedPackages)
	}
	buf.WriteString("\n")

	printed := make(map[PackageKey]bool)
	onPath := make(map[PackageKey]bool)
	g.printTree(&buf, g.Root, "", true, printed, onPath)

	return buf.String()
}

func (g *Graph) printTree(buf *bytes.Buffer, key PackageKey, prefix string, isLast bool, printed, onPath map[PackageKey]bool) {
	connector := "├── "
	if isLast {
		connector = "└── "
	}
	if key == g.Root {
		buf.WriteString(key.String())
	} else {
		buf.WriteString(prefix + connector + key.String())
	}

	node := g.Packages[key]
	if node != nil && node.Deprecated {
		buf.WriteString(" (deprecated)")
	}

	switch {
	case onPath[key]:
		buf.WriteString(" (circular)\n")
		return
	case printed[key]:
		buf.WriteString(" (deduped)\n")
		return
	}
	buf.WriteString("\n")
	if node == nil {
		return
	}

	printed[key] = true
	onPath[key] = true
	defer delete(onPath, key)

	for i, dep := range node.Dependencies {
		childPrefix := prefix
		if key != g.Root {
			if isLast {
				childPrefix += "    "
			} else {
				childPrefix += "│   "
			}
		}
		g.printTree(buf, dep, childPrefix, i == len(node.Dependencies)-1, printed, onPath)
	}
}

// ToWhyText explains why a package is part of the resolution.
func (g *Graph) ToWhyText(name string) (string, error) {
	chains, err := g.WhyIncluded(name)
	if err != nil {
		return "", err
	}
	node := g.GetByName(name)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s\n", node.Key.String())
	buf.WriteString(strings.Repeat("=", separatorWidth) + "\n")

	if len(node.Dependents) > 0 {
		buf.WriteString("\nRequired by:\n")
		for _, dep := range node.Dependents {
			rng := node.RequestedRanges[dep]
			if rng == "" {
				rng = "*"
			}
			fmt.Fprintf(&buf, "  %s (%s)\n", dep.String(), rng)
		}
	}

	if len(chains) > 0 {
		buf.WriteString("\nDependency chains:\n")
		for i, chain := range chains {
			fmt.Fprintf(&buf, "  %d. %s\n", i+1, chain.String())
		}
	}
	return buf.String(), nil
}
