package solve

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func defaultTestOptions() Options {
	return Options{Subdir: "linux-64"}
}

func mustIndex(t *testing.T, records map[string]Record) *Index {
	t.Helper()
	idx, err := NewIndex(context.Background(), records, defaultTestOptions())
	require.NoError(t, err)
	return idx
}

func mustIndexOpts(t *testing.T, records map[string]Record, opts Options) *Index {
	t.Helper()
	if opts.Subdir == "" {
		opts.Subdir = "linux-64"
	}
	idx, err := NewIndex(context.Background(), records, opts)
	require.NoError(t, err)
	return idx
}

func mustSpecs(t *testing.T, idx *Index, raws ...string) []*MatchSpec {
	t.Helper()
	out := make([]*MatchSpec, 0, len(raws))
	for _, raw := range raws {
		ms, err := ParseMatchSpec(raw, idx.cache)
		require.NoError(t, err)
		out = append(out, ms)
	}
	return out
}

// numpyMklFixture builds a small index modeling the canonical
// numpy/mkl-feature scenario: a plain numpy build, an mkl-featured numpy
// build, and an mkl-rt package whose presence activates the mkl feature.
func numpyMklFixture() map[string]Record {
	return map[string]Record{
		"python-2.7.5-0.tar.bz2": {Name: "python", Version: "2.7.5", Build: "0"},
		"python-3.3.2-0.tar.bz2": {Name: "python", Version: "3.3.2", Build: "0"},
		"zlib-1.2.7-0.tar.bz2":   {Name: "zlib", Version: "1.2.7", Build: "0"},
		"numpy-1.7.1-py27_0.tar.bz2": {
			Name: "numpy", Version: "1.7.1", Build: "py27_0",
			Depends: []string{"python 2.7*", "zlib"},
		},
		"numpy-1.7.1-py27_p0.tar.bz2": {
			Name: "numpy", Version: "1.7.1", Build: "py27_p0",
			Depends:  []string{"python 2.7*", "zlib"},
			Features: "mkl",
		},
		"mkl-rt-11.0-p0.tar.bz2": {
			Name: "mkl-rt", Version: "11.0", Build: "p0",
			TrackFeatures: "mkl",
		},
	}
}
