// Package hierarchy orders nodes so that every node follows its dependencies.
// It orders concept schemes before closure and type declarations before
// code emission.
package hierarchy

import (
	"fmt"
	"sort"
	"strings"
)

// CycleError reports a dependency cycle. Path starts and ends with the same node.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("circular dependency detected: %s", strings.Join(e.Path, " -> "))
}

// Sort returns nodes ordered dependencies first. deps maps a node to the
// nodes it depends on. Ties are broken by input order. Dependencies missing
// from nodes are appended to the input in first-seen order. A cycle,
// including a node depending on itself, returns a *CycleError.
func Sort[K comparable](nodes []K, deps map[K][]K) ([]K, error) {
	order := make(map[K]int, len(nodes))
	all := make([]K, 0, len(nodes))

	register := func(node K) {
		if _, seen := order[node]; !seen {
			order[node] = len(all)
			all = append(all, node)
		}
	}
	for _, node := range nodes {
		register(node)
	}
	for _, node := range nodes {
		for _, dep := range deps[node] {
			register(dep)
		}
	}

	inDegree := make([]int, len(all))
	dependents := make([][]int, len(all))
	for i, node := range all {
		seen := make(map[int]bool)
		for _, dep := range deps[node] {
			j := order[dep]
			if seen[j] {
				continue
			}
			seen[j] = true
			inDegree[i]++
			dependents[j] = append(dependents[j], i)
		}
	}

	// ready holds input indexes with no unmet dependencies, kept sorted.
	var ready []int
	for i := range all {
		if inDegree[i] == 0 {
			ready = append(ready, i)
		}
	}

	sorted := make([]K, 0, len(all))
	for len(ready) > 0 {
		current := ready[0]
		ready = ready[1:]
		sorted = append(sorted, all[current])

		for _, dependent := range dependents[current] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				at := sort.SearchInts(ready, dependent)
				ready = append(ready, 0)
				copy(ready[at+1:], ready[at:])
				ready[at] = dependent
			}
		}
	}

	if len(sorted) != len(all) {
		return nil, findCycle(all, deps, inDegree)
	}

	return sorted, nil
}

// findCycle walks unresolved nodes until one repeats.
func findCycle[K comparable](all []K, deps map[K][]K, inDegree []int) *CycleError {
	unresolved := make(map[K]bool)
	var start K
	found := false
	for i, node := range all {
		if inDegree[i] > 0 {
			unresolved[node] = true
			if !found {
				start, found = node, true
			}
		}
	}

	position := make(map[K]int)
	var path []K
	current := start
	for {
		if at, seen := position[current]; seen {
			path = append(path[at:], current)
			break
		}
		position[current] = len(path)
		path = append(path, current)

		next, ok := firstUnresolved(deps[current], unresolved)
		if !ok {
			break
		}
		current = next
	}

	names := make([]string, len(path))
	for i, node := range path {
		names[i] = fmt.Sprint(node)
	}
	return &CycleError{Path: names}
}

func firstUnresolved[K comparable](candidates []K, unresolved map[K]bool) (K, bool) {
	for _, candidate := range candidates {
		if unresolved[candidate] {
			return candidate, true
		}
	}
	var zero K
	return zero, false
}
