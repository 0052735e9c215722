package solve

import "strings"

// GetDists prunes the index down to the fkeys reachable from specs,
// iterating a bounded fixed point: filter candidates that can no longer
// satisfy any requested spec or whose mandatory dependencies have no
// surviving candidate, then re-touch and re-check which track_features
// are still reachable, dropping any tracker whose feature stopped being
// reachable. It stops after 10 rounds or once a round makes no further
// progress.
//
// When pruning empties a mandatory name's group, the offending name is
// returned as unsatName along with a conservative candidate set (built
// with the filter ignored), so the caller can still run the SAT check
// and produce a minimal conflict report; the pruner's verdict is a
// heuristic, not ground truth.
func (idx *Index) GetDists(specs []*MatchSpec) (dists map[string]Record, newSpecs []*MatchSpec, unsatName string, err error) {
	specs, err = idx.VerifySpecs(specs, false, nil)
	if err != nil {
		return nil, nil, "", err
	}

	filter := filterMap{}
	snames := map[string]struct{}{}

	onames := map[string]struct{}{}
	for _, s := range specs {
		onames[s.Name] = struct{}{}
	}

	var filterErr error
	filterGroup := func(matches []*MatchSpec) bool {
		return idx.filterGroupOnce(matches, filter, snames, &filterErr)
	}

	slist := append([]*MatchSpec(nil), specs...)
	feats := map[string]struct{}{}
	for feat := range idx.trackers {
		feats[feat] = struct{}{}
	}

	var touched map[string]bool

	for iter := 0; iter < 10; iter++ {
		first := true
		for {
			changed := 0
			for _, s := range slist {
				if filterGroup([]*MatchSpec{s}) {
					changed++
				}
				if filterErr != nil {
					break
				}
			}
			if filterErr != nil {
				break
			}
			if changed == 0 {
				break
			}
			newSpecs = nil
			for name := range snames {
				if _, ok := onames[name]; !ok {
					newSpecs = append(newSpecs, &MatchSpec{Spec: name, Name: name, Strictness: 1})
				}
			}
			slist = append(append([]*MatchSpec(nil), specs...), newSpecs...)
			first = false
		}
		if bp, ok := filterErr.(*badPruneErr); ok {
			unsatName = bp.name
			newSpecs = nil
			filterErr = nil
			touched = idx.Touch(specs, filterMap{})
			break
		}
		if first && iter > 0 {
			break
		}
		touched = idx.Touch(specs, filter)

		nfeats := map[string]struct{}{}
		for fkey, val := range touched {
			if val {
				rec, ok := idx.recordFor(fkey)
				if !ok {
					continue
				}
				for _, feat := range trackFeaturesOf(rec) {
					nfeats[feat] = struct{}{}
				}
			}
		}
		if len(nfeats) >= len(feats) {
			break
		}
		pruned := false
		for feat := range feats {
			if _, keep := nfeats[feat]; keep {
				continue
			}
			delete(feats, feat)
			for _, fkey := range idx.trackers[feat] {
				if v, ok := filter[fkey]; !ok || v {
					filter[fkey] = false
					pruned = true
				}
			}
		}
		if !pruned {
			break
		}
	}

	dists = map[string]Record{}
	for fkey, val := range touched {
		if !val {
			continue
		}
		if rec, ok := idx.recordFor(fkey); ok {
			dists[fkey] = rec
		}
	}
	return dists, newSpecs, unsatName, nil
}

type badPruneErr struct{ name string }

func (e *badPruneErr) Error() string { return "pruning eliminated mandatory name: " + e.name }

func trackFeaturesOf(rec Record) []string {
	return strings.Fields(rec.TrackFeatures)
}

// filterGroupOnce runs one pruning pass over the name group that matches
// the given specs (all sharing one name): a candidate survives iff it
// still matches one of matches and every one of its mandatory
// dependencies still has a surviving candidate. It reports whether the
// group shrank (a group emptied to zero reports false), and additionally
// recurses into dependencies shared by every surviving member the first
// time a name is processed or whenever the group shrank.
func (idx *Index) filterGroupOnce(matches []*MatchSpec, filter filterMap, snames map[string]struct{}, errOut *error) bool {
	if *errOut != nil || len(matches) == 0 {
		return false
	}
	match1 := matches[0]
	isOpt := true
	for _, m := range matches {
		if !m.Optional {
			isOpt = false
			break
		}
	}
	name := match1.Name
	isFeat := match1.IsFeature()
	_, first := snames[name]
	first = !first

	var group []string
	if isFeat {
		group = idx.trackers[match1.FeatureName()]
	} else {
		group = idx.groups[name]
	}

	nold, nnew := 0, 0
	for _, fkey := range group {
		cur, known := filter[fkey]
		if known && !cur {
			continue
		}
		filter[fkey] = true
		nold++
		sat := isFeat || idx.matchAny(matches, fkey)
		if sat {
			deps, err := idx.MsDepends(fkey)
			if err != nil {
				sat = false
			} else {
				for _, ms := range deps {
					ok := false
					for _, f2 := range idx.FindMatches(ms) {
						if v, known2 := filter[f2]; !known2 || v {
							ok = true
							break
						}
					}
					if !ok {
						sat = false
						break
					}
				}
			}
		}
		filter[fkey] = sat
		if sat {
			nnew++
		}
	}

	reduced := nnew < nold
	if nnew == 0 {
		delete(snames, name)
		if !isOpt {
			*errOut = &badPruneErr{name: name}
		}
		return nnew != 0
	}
	if (!reduced && !first) || isOpt || isFeat {
		return reduced
	}

	if first {
		snames[name] = struct{}{}
	}
	cdeps := map[string][]*MatchSpec{}
	for _, fkey := range group {
		if !filter[fkey] {
			continue
		}
		deps, err := idx.MsDepends(fkey)
		if err != nil {
			continue
		}
		for _, m2 := range deps {
			if m2.IsFeature() || m2.Optional {
				continue
			}
			cdeps[m2.Name] = append(cdeps[m2.Name], m2)
		}
	}
	// A dependency only propagates when every surviving member carries
	// it: the raw entry count (one per member) is the sharedness test,
	// the deduped set is what actually recurses.
	for dname, deps := range cdeps {
		if len(deps) < nnew {
			delete(cdeps, dname)
		}
	}
	if len(cdeps) > 0 {
		changed := false
		for _, deps := range cdeps {
			if idx.filterGroupOnce(dedupeSpecs(deps), filter, snames, errOut) {
				changed = true
			}
			if *errOut != nil {
				break
			}
		}
		if changed {
			reduced = true
		}
	}
	return reduced
}

func (idx *Index) matchAny(mss []*MatchSpec, fkey string) bool {
	rec, ok := idx.recordFor(fkey)
	if !ok {
		return false
	}
	for _, ms := range mss {
		if ms.Name == rec.Name && ms.MatchFast(rec.Version, rec.Build) {
			return true
		}
	}
	return false
}

func dedupeSpecs(specs []*MatchSpec) []*MatchSpec {
	seen := map[string]struct{}{}
	out := make([]*MatchSpec, 0, len(specs))
	for _, s := range specs {
		if _, ok := seen[s.Spec]; ok {
			continue
		}
		seen[s.Spec] = struct{}{}
		out = append(out, s)
	}
	return out
}

