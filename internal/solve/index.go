package solve

import (
	"context"
	"sort"
	"strings"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
)

// Options carries the immutable, per-invocation configuration a Resolve is
// built with. It is threaded in at construction rather than read from
// process-wide state, so two resolves with different channel settings can
// coexist in one process.
type Options struct {
	ChannelPriority      bool
	Subdir               string
	CanonicalChannelName func(channel string) string
}

func (o Options) canonicalize(channel string) string {
	if o.CanonicalChannelName == nil || channel == "" {
		return channel
	}
	return o.CanonicalChannelName(channel)
}

// Index is the normalized catalog a Resolve walks: records keyed by real
// fkey, name groups ordered by preference, a feature-tracker reverse
// index, and the set of fkeys considered already installed.
type Index struct {
	opts    Options
	records map[string]Record

	groups    map[string][]string
	trackers  map[string][]string
	installed map[string]struct{}

	cache        *versionCache
	findCache    *findMatchesCache
	dependsCache map[string][]*MatchSpec
}

// NewIndex builds an Index from a flat fkey -> Record map. It synthesizes
// a virtual fkey "base[fstr]" for every entry in a record's
// WithFeaturesDepends, so the walker can select a feature-activated
// variant without the caller ever constructing one by hand.
func NewIndex(ctx context.Context, records map[string]Record, opts Options) (*Index, error) {
	assert.NotEmpty(ctx, opts.Subdir, "subdir must be set")
	if records == nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("index records must not be nil")
	}

	idx := &Index{
		opts:         opts,
		records:      make(map[string]Record, len(records)),
		groups:       map[string][]string{},
		trackers:     map[string][]string{},
		installed:    map[string]struct{}{},
		cache:        newVersionCache(),
		findCache:    newFindMatchesCache(),
		dependsCache: map[string][]*MatchSpec{},
	}

	for fkey, rec := range records {
		rec.SChannel = opts.canonicalize(rec.Channel)
		if rec.SChannel == "" {
			rec.SChannel = rec.Channel
		}
		idx.records[fkey] = rec
	}

	for fkey, rec := range idx.records {
		if err := validateFKeyName(fkey, rec); err != nil {
			return nil, err
		}
		idx.groups[rec.Name] = append(idx.groups[rec.Name], fkey)
		if rec.Linked {
			idx.installed[fkey] = struct{}{}
		}
		vkeys := []string{fkey}
		for fstr := range rec.WithFeaturesDepends {
			vkey := fkey + "[" + fstr + "]"
			idx.groups[rec.Name] = append(idx.groups[rec.Name], vkey)
			vkeys = append(vkeys, vkey)
		}
		for _, feat := range strings.Fields(rec.TrackFeatures) {
			idx.trackers[feat] = append(idx.trackers[feat], vkeys...)
		}
	}

	for name, fkeys := range idx.groups {
		sortFKeysByPreference(idx, fkeys)
		idx.groups[name] = fkeys
		log.Ctx(ctx).Debug().Str("name", name).Int("candidates", len(fkeys)).Msg("indexed group")
	}

	return idx, nil
}

func validateFKeyName(fkey string, rec Record) error {
	if rec.Name == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("record " + fkey + " is missing a name")
	}
	return nil
}

// splitFKey separates a real fkey from its optional "[fstr]" virtual
// feature-activation suffix.
func splitFKey(fkey string) (base, fstr string, virtual bool) {
	if !strings.HasSuffix(fkey, "]") {
		return fkey, "", false
	}
	i := strings.LastIndexByte(fkey, '[')
	if i < 0 {
		return fkey, "", false
	}
	return fkey[:i], fkey[i+1 : len(fkey)-1], true
}

// recordFor returns the underlying Record for a real or virtual fkey.
func (idx *Index) recordFor(fkey string) (Record, bool) {
	base, _, _ := splitFKey(fkey)
	rec, ok := idx.records[base]
	return rec, ok
}

// sortFKeysByPreference orders a name group's fkeys most-preferred first,
// per version_key: (-priority, version, build_number) under channel
// priority, else (version, -priority, build_number).
func sortFKeysByPreference(idx *Index, fkeys []string) {
	sort.SliceStable(fkeys, func(i, j int) bool {
		return compareFKeyPreference(idx, fkeys[i], fkeys[j]) > 0
	})
}

func compareFKeyPreference(idx *Index, a, b string) int {
	recA, _ := idx.recordFor(a)
	recB, _ := idx.recordFor(b)
	pa, pb := recA.priorityOrDefault(), recB.priorityOrDefault()
	vcmp := idx.cache.compare(recA.Version, recB.Version)
	buildCmp := compareInt(recA.BuildNum, recB.BuildNum)

	priorityCmp := 0
	switch {
	case pa < pb:
		priorityCmp = 1
	case pa > pb:
		priorityCmp = -1
	}

	if idx.opts.ChannelPriority {
		if priorityCmp != 0 {
			return priorityCmp
		}
		if vcmp != 0 {
			return vcmp
		}
		return buildCmp
	}
	if vcmp != 0 {
		return vcmp
	}
	if priorityCmp != 0 {
		return priorityCmp
	}
	return buildCmp
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// FindMatches returns the fkeys in ms's name group (or, for an "@feat"
// spec, the feature's tracker list) that pass ms.MatchFast. Results are
// memoized per MatchSpec.
func (idx *Index) FindMatches(ms *MatchSpec) []string {
	if cached, ok := idx.findCache.get(ms); ok {
		return cached
	}
	var candidates []string
	if ms.IsFeature() {
		candidates = idx.trackers[ms.FeatureName()]
	} else {
		for _, fkey := range idx.groups[ms.Name] {
			rec, ok := idx.recordFor(fkey)
			if !ok {
				continue
			}
			if ms.MatchFast(rec.Version, rec.Build) {
				candidates = append(candidates, fkey)
			}
		}
	}
	idx.findCache.put(ms, candidates)
	return candidates
}

// MsDepends returns the dependency specs for an fkey: the base record's
// parsed depends, with a virtual fkey's with_features_depends merged in
// by name (the activated entry wins), plus a synthetic "@feat" spec for
// every feature tag the artifact provides.
func (idx *Index) MsDepends(fkey string) ([]*MatchSpec, error) {
	if cached, ok := idx.dependsCache[fkey]; ok {
		return cached, nil
	}

	base, fstr, virtual := splitFKey(fkey)
	rec, ok := idx.records[base]
	if !ok {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("unknown fkey: " + fkey)
	}

	var deps []*MatchSpec
	if virtual {
		// The activation's entries override the base depends by name;
		// anything the activation doesn't mention survives untouched.
		byName := map[string]*MatchSpec{}
		var order []string
		addSpec := func(raw string) error {
			ms, err := ParseMatchSpec(raw, idx.cache)
			if err != nil {
				return err
			}
			if _, seen := byName[ms.Name]; !seen {
				order = append(order, ms.Name)
			}
			byName[ms.Name] = ms
			return nil
		}
		for _, raw := range rec.Depends {
			if err := addSpec(raw); err != nil {
				return nil, err
			}
		}
		for _, raw := range rec.WithFeaturesDepends[fstr] {
			if err := addSpec(raw); err != nil {
				return nil, err
			}
		}
		deps = make([]*MatchSpec, 0, len(order)+len(strings.Fields(rec.Features)))
		for _, name := range order {
			deps = append(deps, byName[name])
		}
	} else {
		deps = make([]*MatchSpec, 0, len(rec.Depends)+len(strings.Fields(rec.Features)))
		for _, raw := range rec.Depends {
			ms, err := ParseMatchSpec(raw, idx.cache)
			if err != nil {
				return nil, err
			}
			deps = append(deps, ms)
		}
	}
	for _, feat := range strings.Fields(rec.Features) {
		deps = append(deps, MustMatchSpec("@"+feat, idx.cache))
	}

	idx.dependsCache[fkey] = deps
	return deps, nil
}

// subIndex builds a smaller Index over an already-processed fkey ->
// Record map (virtual "[fstr]" keys preserved as-is, never re-synthesized),
// sharing the parent's version cache but with fresh memoization. The
// solver driver runs its clause generation and objectives over such a
// sub-index so the formula only covers the pruned universe.
func (idx *Index) subIndex(dists map[string]Record) *Index {
	sub := &Index{
		opts:         idx.opts,
		records:      make(map[string]Record, len(dists)),
		groups:       map[string][]string{},
		trackers:     map[string][]string{},
		installed:    map[string]struct{}{},
		cache:        idx.cache,
		findCache:    newFindMatchesCache(),
		dependsCache: map[string][]*MatchSpec{},
	}
	for fkey, rec := range dists {
		base, _, _ := splitFKey(fkey)
		sub.records[base] = rec
		sub.groups[rec.Name] = append(sub.groups[rec.Name], fkey)
		for _, feat := range strings.Fields(rec.TrackFeatures) {
			sub.trackers[feat] = append(sub.trackers[feat], fkey)
		}
		if rec.Linked {
			sub.installed[fkey] = struct{}{}
		}
	}
	for name, fkeys := range sub.groups {
		sortFKeysByPreference(sub, fkeys)
		sub.groups[name] = fkeys
	}
	return sub
}

// withoutName rebuilds this index minus every candidate of the given
// package name (or, for an "@feat" name, minus the feature's tracker
// list), so a conflict report can be re-verified against a universe where
// the blamed group no longer hides the underlying contradiction.
func (idx *Index) withoutName(name string) *Index {
	dists := map[string]Record{}
	for _, group := range idx.groups {
		for _, fkey := range group {
			rec, ok := idx.recordFor(fkey)
			if !ok || rec.Name == name {
				continue
			}
			dists[fkey] = rec
		}
	}
	out := idx.subIndex(dists)
	if strings.HasPrefix(name, "@") {
		delete(out.trackers, strings.TrimPrefix(name, "@"))
	}
	return out
}

// Installed reports whether fkey belongs to the installed snapshot.
func (idx *Index) Installed(fkey string) bool {
	_, ok := idx.installed[fkey]
	return ok
}

// InstalledFKeys returns the fkeys of the installed snapshot, unordered.
func (idx *Index) InstalledFKeys() []string {
	out := make([]string, 0, len(idx.installed))
	for fkey := range idx.installed {
		out = append(out, fkey)
	}
	return out
}

// ParseSpec parses a raw match-spec string against this index's shared
// version cache, so callers outside the package (CLI entry points, most
// notably) never need access to the unexported cache type directly.
func (idx *Index) ParseSpec(raw string) (*MatchSpec, error) {
	return ParseMatchSpec(raw, idx.cache)
}

// Groups exposes the ordered candidate list for a name. The caller must
// not mutate the returned slice.
func (idx *Index) Groups(name string) []string {
	return idx.groups[name]
}

// Trackers exposes the fkeys carrying track_features=feat. The caller
// must not mutate the returned slice.
func (idx *Index) Trackers(feat string) []string {
	return idx.trackers[feat]
}
