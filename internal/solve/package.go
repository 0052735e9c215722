package solve

import "github.com/ZanzyTHEbar/errbuilder-go"

// Package is a thin sortable facade over an index entry, used by
// newPackage/Index.Package to present a total order over one name group
// without exposing the raw Record. Comparing two Packages of different
// names is a programming error, not a runtime condition to recover from.
// Equality ignores Features/TrackFeatures/Channel: two artifacts are equal
// iff their name, version, build number and build string all agree.
type Package struct {
	FKey     string
	Name     string
	Version  string
	Build    string
	BuildNum int
	Channel  string

	cache *versionCache
}

// newPackage builds the sortable facade for fkey's Record.
func newPackage(fkey string, rec Record, cache *versionCache) Package {
	return Package{
		FKey:     fkey,
		Name:     rec.Name,
		Version:  rec.Version,
		Build:    rec.Build,
		BuildNum: rec.BuildNum,
		Channel:  rec.SChannel,
		cache:    cache,
	}
}

// Package returns the sortable facade for fkey, or (Package{}, false) if
// fkey is not in the index.
func (idx *Index) Package(fkey string) (Package, bool) {
	rec, ok := idx.recordFor(fkey)
	if !ok {
		return Package{}, false
	}
	return newPackage(fkey, rec, idx.cache), true
}

// Less orders by (version, build_number, build) ascending, so the most
// preferred candidate under a descending sort is Less-greatest. Comparing
// across names panics: there is no defined order between unrelated
// packages.
func (p Package) Less(other Package) bool {
	if p.Name != other.Name {
		panic(errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("cannot compare packages of different names: " + p.Name + " vs " + other.Name))
	}
	if vcmp := p.cache.compare(p.Version, other.Version); vcmp != 0 {
		return vcmp < 0
	}
	if p.BuildNum != other.BuildNum {
		return p.BuildNum < other.BuildNum
	}
	return p.Build < other.Build
}

// Equal ignores Features/TrackFeatures/Channel: two artifacts are equal
// iff name, version, build number and build string all agree.
func (p Package) Equal(other Package) bool {
	return p.Name == other.Name &&
		p.Version == other.Version &&
		p.BuildNum == other.BuildNum &&
		p.Build == other.Build
}

func (p Package) String() string {
	return p.FKey
}

// findMatchesEntry pairs a MatchSpec with its cached match result. Cache
// buckets are keyed by MatchSpec.Key() (spec text only) and scanned
// linearly with MatchSpec.Equal (spec text, optional, target), which
// mirrors a hash/eq pair where equal hashes do not imply equal keys.
type findMatchesEntry struct {
	ms    *MatchSpec
	fkeys []string
}

type findMatchesCache struct {
	buckets map[string][]findMatchesEntry
}

func newFindMatchesCache() *findMatchesCache {
	return &findMatchesCache{buckets: map[string][]findMatchesEntry{}}
}

func (c *findMatchesCache) get(ms *MatchSpec) ([]string, bool) {
	for _, e := range c.buckets[ms.Key()] {
		if e.ms.Equal(ms) {
			return e.fkeys, true
		}
	}
	return nil, false
}

func (c *findMatchesCache) put(ms *MatchSpec, fkeys []string) {
	c.buckets[ms.Key()] = append(c.buckets[ms.Key()], findMatchesEntry{ms: ms, fkeys: fkeys})
}
