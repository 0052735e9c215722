package solve

import "sort"

// topoSort orders digraph's keys so that every key appears after all of
// its dependencies, using Kahn's algorithm. Keys with no recorded
// dependency are treated as roots. Ties are broken lexicographically so
// the output is deterministic across runs on the same input.
func topoSort(digraph map[string]map[string]struct{}) []string {
	indegree := map[string]int{}
	for node := range digraph {
		if _, ok := indegree[node]; !ok {
			indegree[node] = 0
		}
		for dep := range digraph[node] {
			if _, ok := indegree[dep]; !ok {
				indegree[dep] = 0
			}
		}
	}
	// remaining counts, for each node, how many of its own dependencies
	// are not yet emitted (so a leaf dependency is emitted before its
	// dependents); dependents inverts the edges node->dep so emitting a
	// dep can decrement every node that depends on it.
	dependents := map[string][]string{}
	remaining := map[string]int{}
	for node := range indegree {
		remaining[node] = 0
	}
	for node, deps := range digraph {
		for dep := range deps {
			dependents[dep] = append(dependents[dep], node)
			remaining[node]++
		}
	}

	var ready []string
	for node, n := range remaining {
		if n == 0 {
			ready = append(ready, node)
		}
	}
	sort.Strings(ready)

	var out []string
	for len(ready) > 0 {
		sort.Strings(ready)
		node := ready[0]
		ready = ready[1:]
		out = append(out, node)
		for _, dependent := range dependents[node] {
			remaining[dependent]--
			if remaining[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}
	return out
}
