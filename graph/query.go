package graph

import (
	"fmt"
)

// Get returns the node for a package key, or nil if not found.
func (g *Graph) Get(key PackageKey) *Node {
	return g.Packages[key]
}

// GetByName returns the node for a package by name. Returns nil if not found.
func (g *Graph) GetByName(name string) *Node {
	if key, ok := g.byName[name]; ok {
		return g.Packages[key]
	}
	return nil
}

// Contains returns true if the graph contains the given package.
func (g *Graph) Contains(key PackageKey) bool {
	_, ok := g.Packages[key]
	return ok
}

// DirectDeps returns the direct dependencies of a package.
func (g *Graph) DirectDeps(key PackageKey) []PackageKey {
	if node := g.Packages[key]; node != nil {
		return node.Dependencies
	}
	return nil
}

// DirectDependents returns packages that directly depend on the given one.
func (g *Graph) DirectDependents(key PackageKey) []PackageKey {
	if node := g.Packages[key]; node != nil {
		return node.Dependents
	}
	return nil
}

// TransitiveDeps returns all transitive dependencies of a package.
// The result is in breadth-first order.
func (g *Graph) TransitiveDeps(key PackageKey) []PackageKey {
	return g.bfs(key, func(n *Node) []PackageKey { return n.Dependencies })
}

// TransitiveDependents returns all packages that transitively depend on
// the given one, closest first. The root is included when reachable.
func (g *Graph) TransitiveDependents(key PackageKey) []PackageKey {
	return g.bfs(key, func(n *Node) []PackageKey { return n.Dependents })
}

func (g *Graph) bfs(start PackageKey, next func(*Node) []PackageKey) []PackageKey {
	result := make([]PackageKey, 0)
	visited := map[PackageKey]bool{start: true}
	queue := []PackageKey{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		node := g.Packages[current]
		if node == nil {
			continue
		}
		for _, k := range next(node) {
			if !visited[k] {
				visited[k] = true
				result = append(result, k)
				queue = append(queue, k)
			}
		}
	}
	return result
}

// Path finds the shortest dependency path from one package to another.
// Returns nil if no path exists.
func (g *Graph) Path(from, to PackageKey) []PackageKey {
	if from == to {
		return []PackageKey{from}
	}

	type queueItem struct {
		key  PackageKey
		path []PackageKey
	}

	visited := map[PackageKey]bool{from: true}
	queue := []queueItem{{key: from, path: []PackageKey{from}}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		node := g.Packages[current.key]
		if node == nil {
			continue
		}
		for _, dep := range node.Dependencies {
			if visited[dep] {
				continue
			}
			visited[dep] = true
			newPath := make([]PackageKey, len(current.path)+1)
			copy(newPath, current.path)
			newPath[len(current.path)] = dep
			if dep == to {
				return newPath
			}
			queue = append(queue, queueItem{key: dep, path: newPath})
		}
	}
	return nil
}

// AllPaths finds all cycle-free dependency paths from one package to
// another. This can be expensive for large graphs with many paths.
func (g *Graph) AllPaths(from, to PackageKey) [][]PackageKey {
	var result [][]PackageKey
	g.findAllPaths(from, to, []PackageKey{from}, make(map[PackageKey]bool), &result)
	return result
}

func (g *Graph) findAllPaths(current, target PackageKey, path []PackageKey, visited map[PackageKey]bool, result *[][]PackageKey) {
	if current == target {
		pathCopy := make([]PackageKey, len(path))
		copy(pathCopy, path)
		*result = append(*result, pathCopy)
		return
	}

	visited[current] = true
	defer func() { visited[current] = false }()

	node := g.Packages[current]
	if node == nil {
		return
	}
	for _, dep := range node.Dependencies {
		if !visited[dep] {
			g.findAllPaths(dep, target, append(path, dep), visited, result)
		}
	}
}

// WhyIncluded returns every dependency chain from the root to the named
// package, each annotated with the range its last hop requested.
func (g *Graph) WhyIncluded(name string) ([]DependencyChain, error) {
	node := g.GetByName(name)
	if node == nil {
		return nil, fmt.Errorf("package %q not found in graph", name)
	}

	paths := g.AllPaths(g.Root, node.Key)
	chains := make([]DependencyChain, len(paths))
	for i, path := range paths {
		chains[i] = DependencyChain{Path: path}
		if len(path) >= 2 {
			chains[i].RequestedRange = node.RequestedRanges[path[len(path)-2]]
		}
	}
	return chains, nil
}

// Stats returns statistics about the graph.
func (g *Graph) Stats() Stats {
	stats := Stats{TotalPackages: len(g.Packages) - 1}

	if root := g.Packages[g.Root]; root != nil {
		stats.DirectDependencies = len(root.Dependencies)
	}
	stats.TransitiveDependencies = max(stats.TotalPackages-stats.DirectDependencies, 0)

	for _, node := range g.Packages {
		if node.Deprecated {
			stats.DeprecatedPackages++
		}
	}
	stats.MaxDepth = g.calculateMaxDepth()
	return stats
}

func (g *Graph) calculateMaxDepth() int {
	depths := make(map[PackageKey]int)
	onPath := make(map[PackageKey]bool)
	var maxDepth int

	var dfs func(key PackageKey, depth int)
	dfs = func(key PackageKey, depth int) {
		// A node already on the current path closes a cycle.
		if onPath[key] {
			return
		}
		if existingDepth, ok := depths[key]; ok && existingDepth >= depth {
			return
		}
		depths[key] = depth
		maxDepth = max(maxDepth, depth)

		node := g.Packages[key]
		if node == nil {
			return
		}
		onPath[key] = true
		for _, dep := range node.Dependencies {
			dfs(dep, depth+1)
		}
		delete(onPath, key)
	}

	dfs(g.Root, 0)
	return maxDepth
}

// Leaves returns the packages with no dependencies, in name order.
func (g *Graph) Leaves() []PackageKey {
	var leaves []PackageKey
	for _, key := range g.sortedKeys() {
		if key != g.Root && len(g.Packages[key].Dependencies) == 0 {
			leaves = append(leaves, key)
		}
	}
	return leaves
}

// HasCycles returns true if the graph contains cycles.
func (g *Graph) HasCycles() bool {
	return len(g.FindCycles()) > 0
}

// FindCycles returns the cycles found by a depth-first walk from every
// package in name order. Each cycle starts at the first package of the
// cycle that the walk entered.
func (g *Graph) FindCycles() [][]PackageKey {
	var cycles [][]PackageKey
	visited := make(map[PackageKey]bool)
	recStack := make(map[PackageKey]bool)
	path := make([]PackageKey, 0)

	var findCycles func(key PackageKey)
	findCycles = func(key PackageKey) {
		visited[key] = true
		recStack[key] = true
		path = append(path, key)

		if node := g.Packages[key]; node != nil {
			for _, dep := range node.Dependencies {
				if !visited[dep] {
					findCycles(dep)
					continue
				}
				if !recStack[dep] {
					continue
				}
				for i, k := range path {
					if k == dep {
						cycle := make([]PackageKey, len(path)-i)
						copy(cycle, path[i:])
						cycles = append(cycles, cycle)
						break
					}
				}
			}
		}

		path = path[:len(path)-1]
		recStack[key] = false
	}

	for _, key := range g.sortedKeys() {
		if !visited[key] {
			findCycles(key)
		}
	}
	return cycles
}
