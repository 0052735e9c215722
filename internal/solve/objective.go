package solve

import "strings"

// PushMatchSpec builds (or returns the memoized) boolean proxy literal
// for ms: for a plain name-level spec it is the disjunction of the
// name-group; for a versioned spec it is the disjunction of the matching
// subset, aliased to the name-level proxy when every group member
// matches. Optional specs are represented by the negation of the
// disjunction over the group members that do NOT match, so an optional
// spec holds when the package is absent or a matching candidate is
// selected: it constrains the package only if the package is present.
func (idx *Index) PushMatchSpec(C *Clauses, ms *MatchSpec) int {
	name := "@s@" + ms.Spec
	if ms.Optional {
		name += "?"
	}
	if m := C.FromName(name); m != 0 {
		return m
	}

	var m int
	var libs []int
	if ms.IsFeature() {
		if !ms.Optional {
			for _, fkey := range idx.trackers[ms.FeatureName()] {
				if v := C.FromName(fkey); v != 0 {
					libs = append(libs, v)
				}
			}
		}
	} else {
		target := !ms.Optional
		tgroup := idx.groups[ms.Name]
		for _, fkey := range tgroup {
			rec, ok := idx.recordFor(fkey)
			if !ok {
				continue
			}
			if ms.MatchFast(rec.Version, rec.Build) == target {
				if v := C.FromName(fkey); v != 0 {
					libs = append(libs, v)
				}
			}
		}
		if ms.Spec != ms.Name && len(libs) == len(tgroup) {
			m = idx.PushMatchSpec(C, &MatchSpec{Spec: ms.Name, Name: ms.Name, Strictness: 1})
		}
	}
	if m == 0 {
		m = C.Any(libs)
	}
	if ms.Optional {
		m = C.Not(m)
	}
	C.NameVar(m, name)
	return m
}

// GenClauses builds the base formula: one selection variable per fkey, an
// at-most-one constraint per name group, a name-level proxy per group,
// and an implication from each fkey to every one of its mandatory
// dependencies' proxies.
func (idx *Index) GenClauses() *Clauses {
	C := NewClauses()
	for name, group := range idx.groups {
		vars := make([]int, 0, len(group))
		for _, fkey := range group {
			vars = append(vars, C.NewNamedVar(fkey))
		}
		C.AtMostOne(vars)
		idx.PushMatchSpec(C, &MatchSpec{Spec: name, Name: name, Strictness: 1})
	}
	for _, group := range idx.groups {
		for _, fkey := range group {
			fvar := C.FromName(fkey)
			deps, err := idx.MsDepends(fkey)
			if err != nil {
				continue
			}
			for _, ms := range deps {
				if ms.Optional {
					continue
				}
				proxy := idx.PushMatchSpec(C, ms)
				C.RequireClause([]int{-fvar, proxy})
			}
		}
	}
	return C
}

// GenerateSpecConstraints forces every requested spec's proxy true.
func (idx *Index) GenerateSpecConstraints(C *Clauses, specs []*MatchSpec) {
	for _, ms := range specs {
		C.Require(idx.PushMatchSpec(C, ms))
	}
}

// GenerateFeatureCount weighs every active feature tracker, so the
// objective prefers solutions that activate fewer features.
func (idx *Index) GenerateFeatureCount(C *Clauses) map[int]int {
	out := map[int]int{}
	for name := range idx.trackers {
		lit := idx.PushMatchSpec(C, MustMatchSpec("@"+name, idx.cache))
		out[lit] = 1
	}
	return out
}

// GenerateFeatureMetric penalizes, within each name group, the members
// that provide fewer features than the group's maximum, so a
// feature-complete build is preferred when all else is equal.
func (idx *Index) GenerateFeatureMetric(C *Clauses) (map[int]int, int) {
	eq := map[int]int{}
	total := 0
	for _, group := range idx.groups {
		if len(group) == 0 {
			continue
		}
		maxf := 0
		counts := make([]int, len(group))
		for i, fkey := range group {
			rec, _ := idx.recordFor(fkey)
			n := len(strings.Fields(rec.Features))
			counts[i] = n
			if n > maxf {
				maxf = n
			}
		}
		for i, fkey := range group {
			if counts[i] < maxf {
				if lit := C.FromName(fkey); lit != 0 {
					eq[lit] = maxf - counts[i]
				}
			}
		}
		total += maxf
	}
	return eq, total
}

// GenerateRemovalCount weighs the absence of each spec's name proxy:
// every optional package that drops out of the solution costs one, so
// minimizing this keeps as much of the environment in place as the hard
// constraints allow.
func (idx *Index) GenerateRemovalCount(C *Clauses, specs []*MatchSpec) map[int]int {
	out := map[int]int{}
	for _, ms := range specs {
		lit := idx.PushMatchSpec(C, &MatchSpec{Spec: ms.Name, Name: ms.Name, Strictness: 1})
		out[-lit] = 1
	}
	return out
}

// GeneratePackageCount weighs the presence of each name in missing, used
// to penalize pulling in packages beyond what was explicitly requested.
func (idx *Index) GeneratePackageCount(C *Clauses, missing []string) map[int]int {
	out := map[int]int{}
	for _, name := range missing {
		lit := idx.PushMatchSpec(C, &MatchSpec{Spec: name, Name: name, Strictness: 1})
		out[lit] = 1
	}
	return out
}

// GenerateVersionMetrics scores the members of each name group named by
// specs by how far they sit from the most-preferred candidate, in
// (version, build) steps.
// When a spec carries a target (the currently installed fkey), the group
// is reordered so upgrades from the target are cheaper than downgrades.
func (idx *Index) GenerateVersionMetrics(C *Clauses, specs []*MatchSpec, include0 bool) (map[int]int, map[int]int) {
	eqv := map[int]int{}
	eqb := map[int]int{}

	sdict := map[string][]*MatchSpec{}
	var order []string
	for _, s := range specs {
		if _, ok := sdict[s.Name]; !ok {
			order = append(order, s.Name)
		}
		sdict[s.Name] = append(sdict[s.Name], s)
	}

	for _, name := range order {
		mss := sdict[name]
		pkgs := append([]string(nil), idx.groups[name]...)

		var targets []string
		for _, ms := range mss {
			if ms.Target == "" {
				continue
			}
			if _, ok := idx.records[ms.Target]; ok {
				targets = append(targets, ms.Target)
			}
		}
		if len(targets) > 0 {
			best := targets[0]
			for _, t := range targets[1:] {
				if compareFKeyPreference(idx, t, best) > 0 {
					best = t
				}
			}
			inTargets := map[string]bool{}
			for _, t := range targets {
				inTargets[t] = true
			}
			var better, worse []string
			for _, p := range pkgs {
				switch {
				case compareFKeyPreference(idx, p, best) > 0:
					better = append(better, p)
				case !inTargets[p]:
					worse = append(worse, p)
				}
			}
			for i, j := 0, len(worse)-1; i < j; i, j = i+1, j-1 {
				worse[i], worse[j] = worse[j], worse[i]
			}
			pkgs = append(append(append([]string(nil), targets...), better...), worse...)
		}

		// Ranks follow the version-key components: a new (priority,
		// version) slot bumps the version rank and resets the build rank;
		// a new build_number within the same slot bumps the build rank.
		// Build strings that share a build_number share a rank, so e.g. a
		// featured and a plain build of the same version cost the same
		// here and are left for the feature metric to separate.
		var prevVersion string
		var prevPri, prevBuildNum int
		prevSet := false
		iv, ib := 0, 0
		for _, fkey := range pkgs {
			rec, ok := idx.recordFor(fkey)
			if !ok {
				continue
			}
			pri := rec.priorityOrDefault()
			switch {
			case !prevSet:
				iv, ib = 0, 0
			case pri != prevPri || idx.cache.compare(rec.Version, prevVersion) != 0:
				iv++
				ib = 0
			case rec.BuildNum != prevBuildNum:
				ib++
			}
			if lit := C.FromName(fkey); lit != 0 {
				if iv != 0 || include0 {
					eqv[lit] = iv
				}
				if ib != 0 || include0 {
					eqb[lit] = ib
				}
			}
			prevPri, prevVersion, prevBuildNum = pri, rec.Version, rec.BuildNum
			prevSet = true
		}
	}
	return eqv, eqb
}
