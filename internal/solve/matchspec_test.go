package solve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMatchSpecStrictness(t *testing.T) {
	cache := newVersionCache()

	tests := []struct {
		name       string
		raw        string
		strictness int
	}{
		{"name only", "numpy", 1},
		{"name + version", "numpy 1.7*", 2},
		{"name + version + build", "numpy 1.7.1 py27_0", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms, err := ParseMatchSpec(tt.raw, cache)
			require.NoError(t, err)
			assert.Equal(t, tt.strictness, ms.Strictness)
			assert.Equal(t, "numpy", ms.Name)
		})
	}
}

func TestParseMatchSpecOptions(t *testing.T) {
	cache := newVersionCache()

	ms, err := ParseMatchSpec("numpy 1.7* (optional,target=numpy-1.6.2-py27_0.tar.bz2)", cache)
	require.NoError(t, err)
	assert.True(t, ms.Optional)
	assert.Equal(t, "numpy-1.6.2-py27_0.tar.bz2", ms.Target)
	assert.Equal(t, "numpy 1.7*", ms.Spec)
}

func TestParseMatchSpecRejectsTooManyTokens(t *testing.T) {
	cache := newVersionCache()
	_, err := ParseMatchSpec("numpy 1.7 py27_0 extra", cache)
	require.Error(t, err)
}

func TestParseMatchSpecRejectsUnknownOption(t *testing.T) {
	cache := newVersionCache()
	_, err := ParseMatchSpec("numpy (bogus)", cache)
	require.Error(t, err)
}

func TestMatchSpecMatch(t *testing.T) {
	cache := newVersionCache()

	tests := []struct {
		spec string
		want bool
	}{
		{"numpy 1.7*", true},
		{"numpy 1.7.1", true},
		{"numpy 1.7", false},
		{"numpy 1.5*", false},
		{"numpy >=1.5", true},
		{"numpy >=1.5,<2", true},
		{"numpy >=1.8,<1.9", false},
		{"numpy >1.5,<2,!=1.7.1", false},
		{"numpy >1.8,<2|==1.7", false},
		{"numpy >1.8,<2|>=1.7.1", true},
		{"numpy >=1.8|1.7*", true},
		{"numpy ==1.7", false},
		{"numpy ==1.7.1", true},
		{"numpy 1.6*|1.7*", true},
		{"numpy 1.6*|1.8*", false},
		{"numpy 1.6.2|1.7*", true},
		{"numpy 1.6.2|1.7.1", true},
		{"numpy 1.6.2|1.7.0", false},
		{"numpy 1.7.1 py27_0", true},
		{"numpy 1.7.1 py26_0", false},
	}
	rec := Record{Name: "numpy", Version: "1.7.1", Build: "py27_0", BuildNum: 0}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			ms, err := ParseMatchSpec(tt.spec, cache)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ms.Match(rec), tt.spec)
		})
	}
}

func TestMatchSpecMatchRequiresNameEquality(t *testing.T) {
	cache := newVersionCache()
	ms, err := ParseMatchSpec("numpy 1.7*", cache)
	require.NoError(t, err)
	assert.False(t, ms.Match(Record{Name: "scipy", Version: "1.7.1"}))
}

func TestMatchSpecToFilename(t *testing.T) {
	cache := newVersionCache()

	ms, err := ParseMatchSpec("numpy 1.7.1 py27_0", cache)
	require.NoError(t, err)
	fn, ok := ms.ToFilename()
	require.True(t, ok)
	assert.Equal(t, "numpy-1.7.1-py27_0.tar.bz2", fn)

	// Strictness < 3 never produces a filename.
	ms2, err := ParseMatchSpec("numpy 1.7*", cache)
	require.NoError(t, err)
	_, ok = ms2.ToFilename()
	assert.False(t, ok)

	// Optional strictness-3 specs do not produce a filename either.
	ms3, err := ParseMatchSpec("numpy 1.7.1 py27_0 (optional)", cache)
	require.NoError(t, err)
	_, ok = ms3.ToFilename()
	assert.False(t, ok)
}

// TestMatchSpecHashEqualityAsymmetry pins the deliberately asymmetric
// hash/equality pair: Key() (used by caches) only looks at the spec text,
// so optional and mandatory variants of the same spec text collide in the
// same cache bucket, while Equal additionally distinguishes them.
func TestMatchSpecHashEqualityAsymmetry(t *testing.T) {
	cache := newVersionCache()

	mandatory, err := ParseMatchSpec("numpy 1.7*", cache)
	require.NoError(t, err)
	optional, err := ParseMatchSpec("numpy 1.7* (optional)", cache)
	require.NoError(t, err)

	assert.Equal(t, mandatory.Key(), optional.Key())
	assert.False(t, mandatory.Equal(optional))
	assert.True(t, mandatory.Equal(mandatory))

	targeted, err := ParseMatchSpec("numpy 1.7* (target=numpy-1.6-py27_0.tar.bz2)", cache)
	require.NoError(t, err)
	assert.Equal(t, mandatory.Key(), targeted.Key())
	assert.False(t, mandatory.Equal(targeted))
}

func TestMatchSpecIsFeature(t *testing.T) {
	cache := newVersionCache()
	ms, err := ParseMatchSpec("@mkl", cache)
	require.NoError(t, err)
	assert.True(t, ms.IsFeature())
	assert.Equal(t, "mkl", ms.FeatureName())

	plain, err := ParseMatchSpec("numpy", cache)
	require.NoError(t, err)
	assert.False(t, plain.IsFeature())
}
