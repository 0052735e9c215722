package solve

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopoSortOrdersDependenciesFirst(t *testing.T) {
	digraph := map[string]map[string]struct{}{
		"a": {"b": {}},
		"b": {"c": {}},
		"c": {},
	}
	order := topoSort(digraph)
	pos := map[string]int{}
	for i, n := range order {
		pos[n] = i
	}
	assert.Less(t, pos["c"], pos["b"])
	assert.Less(t, pos["b"], pos["a"])
}

func TestTopoSortDeterministicOnTies(t *testing.T) {
	digraph := map[string]map[string]struct{}{
		"x": {},
		"y": {},
		"z": {},
	}
	assert.Equal(t, []string{"x", "y", "z"}, topoSort(digraph))
}
