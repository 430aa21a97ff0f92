package graph

import (
	"sort"

	tinypm "github.com/albertocavalcante/go-tinypm"
)

// Build constructs a Graph from a resolution. The edges come from each
// package's RequiredBy list; reqs, which may be nil, supplies the ranges
// recorded on edges from the root.
func Build(list *tinypm.ResolutionList, reqs tinypm.Requirements) *Graph {
	g := &Graph{
		Root:     RootKey,
		Packages: make(map[PackageKey]*Node),
		byName:   make(map[string]PackageKey),
	}
	g.Packages[RootKey] = newNode(RootKey)
	g.Packages[RootKey].IsRoot = true
	if list == nil {
		return g
	}

	// First pass: create all nodes
	declared := make(map[PackageKey]map[string]string, len(list.Packages))
	for _, p := range list.Packages {
		key := PackageKey{Name: p.Name, Version: p.Version}
		node := newNode(key)
		node.Deprecated = p.Deprecated
		g.Packages[key] = node
		g.byName[p.Name] = key
		declared[key] = p.Dependencies
	}

	// Second pass: edges from RequiredBy
	for _, p := range list.Packages {
		key := PackageKey{Name: p.Name, Version: p.Version}
		node := g.Packages[key]
		for _, by := range p.RequiredBy {
			from := ParsePackageKey(by)
			parent, ok := g.Packages[from]
			if !ok {
				continue
			}
			parent.Dependencies = append(parent.Dependencies, key)
			node.Dependents = append(node.Dependents, from)
			if from == RootKey {
				node.RequestedRanges[from] = reqs[p.Name]
			} else {
				node.RequestedRanges[from] = declared[from][p.Name]
			}
		}
	}

	for _, node := range g.Packages {
		sortKeys(node.Dependencies)
		sortKeys(node.Dependents)
	}
	return g
}

func newNode(key PackageKey) *Node {
	return &Node{
		Key:             key,
		Dependencies:    make([]PackageKey, 0),
		Dependents:      make([]PackageKey, 0),
		RequestedRanges: make(map[PackageKey]string),
	}
}

// sortKeys orders keys by name; the root sorts first.
func sortKeys(keys []PackageKey) {
	sort.Slice(keys, func(i, j int) bool {
		if (keys[i] == RootKey) != (keys[j] == RootKey) {
			return keys[i] == RootKey
		}
		if keys[i].Name != keys[j].Name {
			return keys[i].Name < keys[j].Name
		}
		return keys[i].Version < keys[j].Version
	})
}

// sortedKeys returns every key in the graph, root first.
func (g *Graph) sortedKeys() []PackageKey {
	keys := make([]PackageKey, 0, len(g.Packages))
	for key := range g.Packages {
		keys = append(keys, key)
	}
	sortKeys(keys)
	return keys
}
