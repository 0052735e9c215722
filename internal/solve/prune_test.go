package solve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDistsReturnsOnlyReachableFKeys(t *testing.T) {
	idx := mustIndex(t, map[string]Record{
		"a-1.0-0.tar.bz2":       {Name: "a", Version: "1.0", Build: "0", Depends: []string{"b"}},
		"b-1.0-0.tar.bz2":       {Name: "b", Version: "1.0", Build: "0", Depends: []string{"c"}},
		"c-1.0-0.tar.bz2":       {Name: "c", Version: "1.0", Build: "0"},
		"unrelated-1.0-0.tar.bz2": {Name: "unrelated", Version: "1.0", Build: "0"},
	})
	specs := mustSpecs(t, idx, "a")
	dists, _, _, err := idx.GetDists(specs)
	require.NoError(t, err)

	assert.Contains(t, dists, "a-1.0-0.tar.bz2")
	assert.Contains(t, dists, "b-1.0-0.tar.bz2")
	assert.Contains(t, dists, "c-1.0-0.tar.bz2")
	assert.NotContains(t, dists, "unrelated-1.0-0.tar.bz2")
}

func TestGetDistsFailsVerificationForMissingDependency(t *testing.T) {
	idx := mustIndex(t, map[string]Record{
		"a-1.0-0.tar.bz2": {Name: "a", Version: "1.0", Build: "0", Depends: []string{"missing-lib"}},
	})
	specs := mustSpecs(t, idx, "a")
	_, _, _, err := idx.GetDists(specs)
	require.Error(t, err)
	var npf *NoPackagesFound
	require.ErrorAs(t, err, &npf)
}

// TestGetDistsPullsInFeatureTrackerThroughReachability pins the behavior
// that pruning is conservative: a feature-tracker package becomes reachable
// (and stays in the pruned universe) as soon as any touched candidate in a
// requested name's group could activate it, even if the user never asked
// for the feature directly. Narrowing down to a single, feature-minimal
// variant is the objective cascade's job, not the pruner's.
func TestGetDistsPullsInFeatureTrackerThroughReachability(t *testing.T) {
	idx := mustIndex(t, numpyMklFixture())
	specs := mustSpecs(t, idx, "numpy 1.7*", "python 2.7*")
	dists, _, _, err := idx.GetDists(specs)
	require.NoError(t, err)

	assert.Contains(t, dists, "numpy-1.7.1-py27_0.tar.bz2")
	assert.Contains(t, dists, "numpy-1.7.1-py27_p0.tar.bz2")
	assert.Contains(t, dists, "mkl-rt-11.0-p0.tar.bz2")
}

func TestGetDistsExcludesCandidatesFilteredByVersionSpec(t *testing.T) {
	idx := mustIndex(t, map[string]Record{
		"python-2.7.5-0.tar.bz2": {Name: "python", Version: "2.7.5", Build: "0"},
		"python-3.3.2-0.tar.bz2": {Name: "python", Version: "3.3.2", Build: "0"},
	})
	specs := mustSpecs(t, idx, "python 2.7*")
	dists, _, _, err := idx.GetDists(specs)
	require.NoError(t, err)
	assert.Contains(t, dists, "python-2.7.5-0.tar.bz2")
	assert.NotContains(t, dists, "python-3.3.2-0.tar.bz2")
}
