package solve

import (
	"sort"
	"strings"
)

// InvalidChains builds the set of dependency chains that explain why spec
// cannot be satisfied: each chain starts at spec's name and walks down
// through the dependency tree to the leaf predicate that has no valid
// candidate. An empty result means spec is satisfiable. filter is shared
// with Valid so the search doesn't repeat work already resolved.
func (idx *Index) InvalidChains(spec *MatchSpec, filter filterMap) []Chain {
	seenNames := map[string]struct{}{}
	raw := idx.chainsFor([]*MatchSpec{spec}, seenNames, filter)
	return collapseChains(raw)
}

// rawChain is a chain under construction, outermost name first.
type rawChain []string

func (c rawChain) key() string { return strings.Join(c, "\x00") }

// chainsFor recurses over one name's worth of failing specs (slist's
// entries all share a name). Each level contributes its own name to the
// front of every chain it returns; a feature level additionally records
// which tracker package the walk passed through.
func (idx *Index) chainsFor(slist []*MatchSpec, seenNames map[string]struct{}, filter filterMap) []rawChain {
	if len(slist) == 0 {
		return nil
	}
	sname := slist[0].Name
	for _, spec := range slist {
		if idx.ValidSpec(spec, filter) {
			return nil
		}
	}
	if _, already := seenNames[sname]; already {
		return nil
	}
	seenNames[sname] = struct{}{}

	groups := map[string][]string{}
	for _, spec := range slist {
		for _, fkey := range idx.FindMatches(spec) {
			rec, _ := idx.recordFor(fkey)
			groups[rec.Name] = append(groups[rec.Name], fkey)
		}
	}

	var subchains []rawChain
	seenChains := map[string]struct{}{}
	addChain := func(c rawChain) {
		if _, dup := seenChains[c.key()]; dup {
			return
		}
		seenChains[c.key()] = struct{}{}
		subchains = append(subchains, c)
	}
	for gname, fgroup := range groups {
		for _, fkey := range fgroup {
			filter[fkey] = true
		}
		deps := map[string][]*MatchSpec{}
		for _, fkey := range fgroup {
			msDeps, err := idx.MsDepends(fkey)
			if err != nil {
				continue
			}
			for _, m2 := range msDeps {
				deps[m2.Name] = append(deps[m2.Name], m2)
			}
		}
		for _, dspecs := range deps {
			res := idx.chainsFor(dedupeSpecs(dspecs), seenNames, filter)
			if strings.HasPrefix(sname, "@") {
				for i, r := range res {
					res[i] = append(rawChain{gname}, r...)
				}
			}
			for _, r := range res {
				addChain(r)
			}
		}
		for _, fkey := range fgroup {
			filter[fkey] = false
		}
	}

	label := sname
	if strings.HasPrefix(label, "@") {
		label = "[feature:" + strings.TrimPrefix(label, "@") + "]"
	}

	if len(subchains) > 0 {
		out := make([]rawChain, 0, len(subchains))
		for _, c := range subchains {
			out = append(out, append(rawChain{label}, c...))
		}
		return out
	}
	if strings.HasPrefix(label, "[") {
		return []rawChain{{label}}
	}
	out := make([]rawChain, 0, len(slist))
	for _, s := range slist {
		out = append(out, rawChain{s.Spec})
	}
	return out
}

// collapseChains groups raw chains by their leaf suffix, collapsing the
// middle of long chains the way a hint is meant to stay readable: short
// chains are kept verbatim, chains sharing a leaf but diverging in the
// middle are joined with commas, and very long ones are truncated with
// an ellipsis. Leafs that differ only in their version predicate are
// merged into one chain whose predicates are or-joined with "|".
func collapseChains(raw []rawChain) []Chain {
	byLeaf := map[string][]rawChain{}
	for _, c := range raw {
		if len(c) == 0 {
			continue
		}
		byLeaf[c[len(c)-1]] = append(byLeaf[c[len(c)-1]], c)
	}

	type merged struct {
		chain Chain
		vers  map[string]struct{}
	}
	byChain := map[string]*merged{}
	for leaf, set := range byLeaf {
		sort.Slice(set, func(i, j int) bool { return len(set[i]) < len(set[j]) })
		shortest := set[0]
		var chain Chain
		switch {
		case len(shortest) <= 2:
			chain = Chain(append([]string(nil), shortest...))
		case len(shortest) == 3:
			mids := map[string]struct{}{}
			for _, c := range set {
				if len(c) == 3 {
					mids[c[1]] = struct{}{}
				}
			}
			chain = Chain{shortest[0], joinedSorted(mids), leaf}
		default:
			mids := map[string]struct{}{}
			for _, c := range set {
				if len(c) > 1 {
					mids[c[1]] = struct{}{}
				}
			}
			chain = Chain{shortest[0], joinedSorted(mids), "...", leaf}
		}

		cname, cver, _ := strings.Cut(leaf, " ")
		chain[len(chain)-1] = cname
		key := strings.Join(chain, "\x00")
		entry := byChain[key]
		if entry == nil {
			entry = &merged{chain: chain, vers: map[string]struct{}{}}
			byChain[key] = entry
		}
		entry.vers[cver] = struct{}{}
	}

	out := make([]Chain, 0, len(byChain))
	for _, entry := range byChain {
		chain := entry.chain
		if _, bare := entry.vers[""]; !bare {
			chain[len(chain)-1] += " " + joinedPipe(entry.vers)
		}
		out = append(out, chain)
	}
	sort.Slice(out, func(i, j int) bool { return lessChain(out[i], out[j]) })
	return out
}

func lessChain(a, b Chain) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

func joinedSorted(set map[string]struct{}) string {
	items := make([]string, 0, len(set))
	for k := range set {
		items = append(items, k)
	}
	sort.Strings(items)
	return strings.Join(items, ",")
}

func joinedPipe(set map[string]struct{}) string {
	items := make([]string, 0, len(set))
	for k := range set {
		items = append(items, k)
	}
	sort.Strings(items)
	return strings.Join(items, "|")
}

// VerifySpecs checks that every mandatory spec has at least one
// satisfiable chain. It returns specs unchanged on success; on failure it
// returns NoPackagesFound (unsat=false) or Unsatisfiable (unsat=true,
// narrowed to chains whose leaf name appears in target when possible).
func (idx *Index) VerifySpecs(specs []*MatchSpec, unsat bool, target map[string]struct{}) ([]*MatchSpec, error) {
	filter := filterMap{}
	var badDeps []Chain
	for _, ms := range specs {
		if ms.Optional {
			continue
		}
		badDeps = append(badDeps, idx.InvalidChains(ms, filter)...)
	}
	if len(badDeps) == 0 {
		return specs, nil
	}
	if !unsat {
		return nil, newNoPackagesFound(badDeps)
	}
	if len(target) > 0 {
		var narrowed []Chain
		for _, c := range badDeps {
			name, _, _ := strings.Cut(c[len(c)-1], " ")
			if _, ok := target[name]; ok {
				narrowed = append(narrowed, c)
			}
		}
		if len(narrowed) > 0 {
			badDeps = narrowed
		}
	}
	return nil, newUnsatisfiable(badDeps)
}
