package solve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCacheCompare(t *testing.T) {
	cache := newVersionCache()
	assert.Equal(t, -1, cache.compare("1.6.2", "1.7.1"))
	assert.Equal(t, 1, cache.compare("1.7.1", "1.6.2"))
	assert.Equal(t, 0, cache.compare("1.7.1", "1.7.1"))
}

func TestVersionCacheComparesFallBackOnUnparseable(t *testing.T) {
	cache := newVersionCache()
	// Malformed index entries must not abort comparisons -- fall back to
	// lexical ordering instead of propagating a parse error.
	assert.Equal(t, 0, cache.compare("not-a-version!!!", "not-a-version!!!"))
	assert.Equal(t, -1, cache.compare("a-version!!", "b-version!!"))
}

func TestVersionCacheMemoizes(t *testing.T) {
	cache := newVersionCache()
	v1, err := cache.parse("1.7.1")
	require.NoError(t, err)
	v2, err := cache.parse("1.7.1")
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
	assert.Len(t, cache.parsed, 1)
}

func TestVersionSpecGlob(t *testing.T) {
	cache := newVersionCache()
	vs, err := newVersionSpec("1.7*", cache)
	require.NoError(t, err)
	assert.True(t, vs.Match("1.7.1"))
	assert.False(t, vs.Match("1.6.2"))
}

func TestVersionSpecAndOr(t *testing.T) {
	cache := newVersionCache()

	tests := []struct {
		spec string
		ver  string
		want bool
	}{
		{">=1.5,<2", "1.7.1", true},
		{">=1.8,<1.9", "1.7.1", false},
		{">1.5,<2,!=1.7.1", "1.7.1", false},
		{">1.8,<2|==1.7.1", "1.7.1", true},
		{">1.8,<2|>=1.7.1", "1.7.1", true},
		{">=1.8|1.7*", "1.7.1", true},
		{"1.6*|1.8*", "1.7.1", false},
	}
	for _, tt := range tests {
		vs, err := newVersionSpec(tt.spec, cache)
		require.NoError(t, err)
		assert.Equal(t, tt.want, vs.Match(tt.ver), tt.spec)
	}
}
