package solve

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIndexRejectsNilRecords(t *testing.T) {
	_, err := NewIndex(context.Background(), nil, defaultTestOptions())
	require.Error(t, err)
}

func TestNewIndexRejectsMissingName(t *testing.T) {
	_, err := NewIndex(context.Background(), map[string]Record{
		"bad-1.0-0.tar.bz2": {Version: "1.0", Build: "0"},
	}, defaultTestOptions())
	require.Error(t, err)
}

func TestIndexGroupsByName(t *testing.T) {
	idx := mustIndex(t, numpyMklFixture())
	group := idx.Groups("numpy")
	assert.Len(t, group, 2)
	assert.Contains(t, group, "numpy-1.7.1-py27_0.tar.bz2")
	assert.Contains(t, group, "numpy-1.7.1-py27_p0.tar.bz2")
}

func TestIndexSynthesizesVirtualFeatureFKeys(t *testing.T) {
	idx := mustIndex(t, map[string]Record{
		"foo-1.0-0.tar.bz2": {
			Name: "foo", Version: "1.0", Build: "0",
			WithFeaturesDepends: map[string][]string{
				"bar": {"bar-lib"},
			},
		},
	})
	group := idx.Groups("foo")
	assert.Contains(t, group, "foo-1.0-0.tar.bz2")
	assert.Contains(t, group, "foo-1.0-0.tar.bz2[bar]")
}

func TestIndexTrackers(t *testing.T) {
	idx := mustIndex(t, numpyMklFixture())
	assert.Equal(t, []string{"mkl-rt-11.0-p0.tar.bz2"}, idx.Trackers("mkl"))
	assert.Empty(t, idx.Trackers("nonexistent"))
}

func TestIndexInstalled(t *testing.T) {
	idx := mustIndex(t, map[string]Record{
		"numpy-1.7.1-py27_0.tar.bz2": {Name: "numpy", Version: "1.7.1", Build: "py27_0", Linked: true},
		"numpy-1.6.2-py27_0.tar.bz2": {Name: "numpy", Version: "1.6.2", Build: "py27_0"},
	})
	assert.True(t, idx.Installed("numpy-1.7.1-py27_0.tar.bz2"))
	assert.False(t, idx.Installed("numpy-1.6.2-py27_0.tar.bz2"))
	assert.Equal(t, []string{"numpy-1.7.1-py27_0.tar.bz2"}, idx.InstalledFKeys())
}

func TestIndexGroupOrderingPrefersNewerVersion(t *testing.T) {
	idx := mustIndex(t, map[string]Record{
		"numpy-1.6.2-py27_0.tar.bz2": {Name: "numpy", Version: "1.6.2", Build: "py27_0"},
		"numpy-1.7.1-py27_0.tar.bz2": {Name: "numpy", Version: "1.7.1", Build: "py27_0"},
	})
	group := idx.Groups("numpy")
	require.Len(t, group, 2)
	assert.Equal(t, "numpy-1.7.1-py27_0.tar.bz2", group[0])
}

func TestIndexChannelPriorityOrdering(t *testing.T) {
	records := map[string]Record{
		"numpy-1.6.2-py27_0.tar.bz2": {Name: "numpy", Version: "1.6.2", Build: "py27_0", Priority: 1},
		"numpy-1.7.1-py27_0.tar.bz2": {Name: "numpy", Version: "1.7.1", Build: "py27_0", Priority: 2},
	}

	// Without channel priority, the newer version wins regardless of
	// channel priority number.
	idx := mustIndexOpts(t, records, Options{Subdir: "linux-64", ChannelPriority: false})
	assert.Equal(t, "numpy-1.7.1-py27_0.tar.bz2", idx.Groups("numpy")[0])

	// With channel priority enabled, the lower-priority-number channel
	// wins even though it carries an older version.
	idx2 := mustIndexOpts(t, records, Options{Subdir: "linux-64", ChannelPriority: true})
	assert.Equal(t, "numpy-1.6.2-py27_0.tar.bz2", idx2.Groups("numpy")[0])
}

func TestIndexFindMatchesFeatureSpec(t *testing.T) {
	idx := mustIndex(t, numpyMklFixture())
	ms := mustSpecs(t, idx, "@mkl")[0]
	assert.Equal(t, []string{"mkl-rt-11.0-p0.tar.bz2"}, idx.FindMatches(ms))
}

func TestIndexMsDependsMergesFeatureActivation(t *testing.T) {
	idx := mustIndex(t, map[string]Record{
		"foo-1.0-0.tar.bz2": {
			Name: "foo", Version: "1.0", Build: "0",
			Depends:  []string{"base-lib 1.0", "shared-lib"},
			Features: "speedy",
			WithFeaturesDepends: map[string][]string{
				"fast": {"base-lib 2.0", "fast-lib"},
			},
		},
	})
	deps, err := idx.MsDepends("foo-1.0-0.tar.bz2[fast]")
	require.NoError(t, err)

	byName := map[string]*MatchSpec{}
	for _, d := range deps {
		byName[d.Name] = d
	}
	// the activation entry overrides base-lib's version by name...
	require.Contains(t, byName, "base-lib")
	assert.Equal(t, "base-lib 2.0", byName["base-lib"].Spec)
	// ...and adds the feature-only dependency...
	require.Contains(t, byName, "fast-lib")
	// ...while an unrelated base dependency survives untouched...
	require.Contains(t, byName, "shared-lib")
	// ...and the provided feature gets a synthetic tracker spec appended.
	require.Contains(t, byName, "@speedy")
}
