package solve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidSimpleChain(t *testing.T) {
	idx := mustIndex(t, map[string]Record{
		"a-1.0-0.tar.bz2": {Name: "a", Version: "1.0", Build: "0", Depends: []string{"b"}},
		"b-1.0-0.tar.bz2": {Name: "b", Version: "1.0", Build: "0"},
	})
	filter := filterMap{}
	assert.True(t, idx.Valid("a-1.0-0.tar.bz2", filter))
}

func TestValidMissingDependencyIsInvalid(t *testing.T) {
	idx := mustIndex(t, map[string]Record{
		"a-1.0-0.tar.bz2": {Name: "a", Version: "1.0", Build: "0", Depends: []string{"missing-lib"}},
	})
	filter := filterMap{}
	assert.False(t, idx.Valid("a-1.0-0.tar.bz2", filter))
}

// TestValidHandlesCircularDependencies exercises the provisional-marking
// fixed point: two packages depending on each other must not cause
// unbounded recursion, and the cycle should resolve as valid once nothing
// external contradicts it.
func TestValidHandlesCircularDependencies(t *testing.T) {
	idx := mustIndex(t, map[string]Record{
		"package1-1.0-0.tar.bz2": {Name: "package1", Version: "1.0", Build: "0", Depends: []string{"package2"}},
		"package2-1.0-0.tar.bz2": {Name: "package2", Version: "1.0", Build: "0", Depends: []string{"package1"}},
	})
	filter := filterMap{}
	assert.True(t, idx.Valid("package1-1.0-0.tar.bz2", filter))
}

func TestValidSpecOptionalAlwaysValid(t *testing.T) {
	idx := mustIndex(t, map[string]Record{})
	ms := mustSpecs(t, idx, "notreal (optional)")[0]
	assert.True(t, idx.ValidSpec(ms, filterMap{}))
}

func TestValidSpecRequiresAtLeastOneValidMatch(t *testing.T) {
	idx := mustIndex(t, map[string]Record{
		"a-1.0-0.tar.bz2": {Name: "a", Version: "1.0", Build: "0"},
		"a-1.1-0.tar.bz2": {Name: "a", Version: "1.1", Build: "0", Depends: []string{"missing-lib"}},
	})
	all := mustSpecs(t, idx, "a")[0]
	assert.True(t, idx.ValidSpec(all, filterMap{}))

	onlyBroken := mustSpecs(t, idx, "a 1.1")[0]
	assert.False(t, idx.ValidSpec(onlyBroken, filterMap{}))
}

func TestTouchReachesTransitiveDependencies(t *testing.T) {
	idx := mustIndex(t, map[string]Record{
		"a-1.0-0.tar.bz2": {Name: "a", Version: "1.0", Build: "0", Depends: []string{"b"}},
		"b-1.0-0.tar.bz2": {Name: "b", Version: "1.0", Build: "0", Depends: []string{"c"}},
		"c-1.0-0.tar.bz2": {Name: "c", Version: "1.0", Build: "0"},
	})
	specs := mustSpecs(t, idx, "a")
	touched := idx.Touch(specs, nil)
	require.True(t, touched["a-1.0-0.tar.bz2"])
	require.True(t, touched["b-1.0-0.tar.bz2"])
	require.True(t, touched["c-1.0-0.tar.bz2"])
}

func TestTouchDoesNotDescendIntoInvalidCandidates(t *testing.T) {
	idx := mustIndex(t, map[string]Record{
		"a-1.0-0.tar.bz2": {Name: "a", Version: "1.0", Build: "0", Depends: []string{"missing-lib"}},
	})
	specs := mustSpecs(t, idx, "a")
	touched := idx.Touch(specs, nil)
	assert.False(t, touched["a-1.0-0.tar.bz2"])
}
