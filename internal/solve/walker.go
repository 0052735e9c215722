package solve

// filterMap is the (fkey -> still valid) memo threaded through Valid,
// Touch and the pruner. A missing entry means "not yet decided".
type filterMap map[string]bool

// Valid tests whether an fkey (or, via ValidSpec, a MatchSpec) is
// satisfiable, ignoring cycles: every one of its mandatory dependencies
// must have at least one candidate that is itself valid. Results are
// memoized into filter as they are discovered.
func (idx *Index) Valid(fkey string, filter filterMap) bool {
	if val, ok := filter[fkey]; ok {
		return val
	}
	filter[fkey] = true
	deps, err := idx.MsDepends(fkey)
	if err != nil {
		filter[fkey] = false
		return false
	}
	ok := true
	for _, ms := range deps {
		if !idx.ValidSpec(ms, filter) {
			ok = false
			break
		}
	}
	filter[fkey] = ok
	return ok
}

// ValidSpec tests whether a MatchSpec has at least one valid candidate.
// Optional specs are trivially valid: an absent optional dependency does
// not make its parent unsatisfiable.
func (idx *Index) ValidSpec(ms *MatchSpec, filter filterMap) bool {
	if ms.Optional {
		return true
	}
	for _, fkey := range idx.FindMatches(ms) {
		if idx.Valid(fkey, filter) {
			return true
		}
	}
	return false
}

// Touch determines the conservative set of fkeys reachable from specs
// without resolving cycles: every matching fkey is recorded with its
// Valid result, and only a valid one has its own dependencies queued in
// turn.
func (idx *Index) Touch(specs []*MatchSpec, filter filterMap) map[string]bool {
	if filter == nil {
		filter = filterMap{}
	}
	touched := map[string]bool{}
	queue := append([]*MatchSpec(nil), specs...)
	for len(queue) > 0 {
		spec := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		for _, fkey := range idx.FindMatches(spec) {
			if _, seen := touched[fkey]; seen {
				continue
			}
			val := idx.Valid(fkey, filter)
			touched[fkey] = val
			if val {
				deps, err := idx.MsDepends(fkey)
				if err == nil {
					queue = append(queue, deps...)
				}
			}
		}
	}
	return touched
}
