package solve

import (
	"context"
	"sort"
	"strings"

	"github.com/crillab/gophersat/solver"
	"github.com/rs/zerolog/log"
)

// Resolve wraps an *Index with the driver logic needed to turn a set of
// requested specs into a concrete, objective-optimal set of fkeys. A
// Resolve is built fresh per invocation over a frozen index snapshot;
// nothing here is safe to share across goroutines.
type Resolve struct {
	idx *Index
}

// NewResolve wraps idx in a driver.
func NewResolve(idx *Index) *Resolve {
	return &Resolve{idx: idx}
}

// Solve runs the full pipeline: verify, prune, clause generation over the
// pruned sub-index, the objective cascade, alternate-solution enumeration
// and cleanup. The first len0 specs are treated as the user's own request
// (their versions are ranked right after the optional-removal count,
// ahead of features and the rest of the environment); the remainder
// are environment-keeping specs added by the planner. len0 <= 0 means all
// of them are requested. It returns the primary solution's fkeys
// (sorted), and, when returnAll is set, any tied alternates.
func (r *Resolve) Solve(ctx context.Context, specs []*MatchSpec, len0 int, returnAll bool) ([]string, [][]string, error) {
	if len0 <= 0 || len0 > len(specs) {
		len0 = len(specs)
	}

	dists, newSpecs, unsatName, err := r.idx.GetDists(specs)
	if err != nil {
		return nil, nil, err
	}
	log.Ctx(ctx).Debug().
		Int("specs", len(specs)).
		Int("candidates", len(dists)).
		Str("unsat", unsatName).
		Msg("pruned candidate universe")
	if len(dists) == 0 && unsatName == "" {
		if returnAll {
			return []string{}, [][]string{}, nil
		}
		return []string{}, nil, nil
	}

	sub := r.idx.subIndex(dists)
	C := sub.GenClauses()
	specLits := make([]int, len(specs))
	for i, ms := range specs {
		specLits[i] = sub.PushMatchSpec(C, ms)
	}
	baseLen := len(C.clauses)
	for _, lit := range specLits {
		C.Require(lit)
	}

	ok, model, err := C.Sat()
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, sub.diagnoseUnsat(C, baseLen, specs, specLits, unsatName)
	}

	specr, speco, speca, specm := classifySpecs(sub, specs, newSpecs, len0)

	runCascade := func(name string, weights map[int]int) error {
		if len(weights) == 0 {
			return nil
		}
		sok, smodel, cost, serr := runStage(C, weights)
		if serr != nil {
			return serr
		}
		if !sok {
			return nil
		}
		model = smodel
		C.RequireSumLE(weights, cost)
		log.Ctx(ctx).Debug().Str("objective", name).Int("value", cost).Msg("cascade stage settled")
		return nil
	}

	// The cascade order decides who wins ties: keep optional packages,
	// then honor the requested versions and builds, then settle features,
	// then the rest of the environment, and finally drop anything nobody
	// asked for.
	eqvReq, eqbReq := sub.GenerateVersionMetrics(C, specr, false)
	stageErr := runCascade("removal count", sub.GenerateRemovalCount(C, speco))
	if stageErr == nil {
		stageErr = runCascade("requested versions", eqvReq)
	}
	if stageErr == nil {
		stageErr = runCascade("requested builds", eqbReq)
	}
	if stageErr == nil {
		stageErr = runCascade("feature count", sub.GenerateFeatureCount(C))
	}
	if stageErr == nil {
		featMetric, _ := sub.GenerateFeatureMetric(C)
		stageErr = runCascade("feature metric", featMetric)
	}
	if stageErr == nil {
		eqvAll, eqbAll := sub.GenerateVersionMetrics(C, speca, false)
		if stageErr = runCascade("remaining versions", eqvAll); stageErr == nil {
			stageErr = runCascade("remaining builds", eqbAll)
		}
	}
	if stageErr == nil {
		stageErr = runCascade("package count", sub.GeneratePackageCount(C, specm))
	}
	if stageErr != nil {
		return nil, nil, stageErr
	}

	psolutions := [][]string{selectedFKeys(C, model)}
	for len(psolutions) < 10 {
		current := psolutions[len(psolutions)-1]
		if len(current) == 0 {
			break
		}
		blocking := make([]int, 0, len(current))
		for _, fkey := range current {
			blocking = append(blocking, -C.FromName(fkey))
		}
		C.RequireClause(blocking)
		aok, next, aerr := C.Sat()
		if aerr != nil || !aok {
			break
		}
		psolutions = append(psolutions, selectedFKeys(C, next))
	}
	if len(psolutions) > 1 {
		logAlternateWarning(ctx, psolutions)
	}

	solutions := make([][]string, 0, len(psolutions))
	for _, psol := range psolutions {
		solutions = append(solutions, stripVirtual(psol))
	}
	if !returnAll {
		return solutions[0], nil, nil
	}
	return solutions[0], solutions[1:], nil
}

// classifySpecs splits the requested and pruner-added specs the way the
// cascade consumes them: specr are the user's own mandatory specs, speco
// are optional specs with at least one surviving candidate (reduced to a
// name-plus-target form), speca is everything that participates in the
// residual version metrics, and specm lists the surviving group names no
// spec mentions at all.
func classifySpecs(sub *Index, specs, newSpecs []*MatchSpec, len0 int) (specr, speco, speca []*MatchSpec, specm []string) {
	missing := map[string]struct{}{}
	for name := range sub.groups {
		missing[name] = struct{}{}
	}
	all := append(append([]*MatchSpec(nil), specs...), newSpecs...)
	for k, s := range all {
		delete(missing, s.Name)
		if !s.Optional {
			if k < len0 {
				specr = append(specr, s)
			} else {
				speca = append(speca, s)
			}
			continue
		}
		if len(sub.FindMatches(s)) > 0 {
			ns := &MatchSpec{Spec: s.Name, Name: s.Name, Strictness: 1, Optional: true, Target: s.Target}
			speco = append(speco, ns)
			speca = append(speca, ns)
		}
	}
	specm = make([]string, 0, len(missing))
	for name := range missing {
		specm = append(specm, name)
	}
	sort.Strings(specm)
	for _, name := range specm {
		speca = append(speca, &MatchSpec{Spec: name, Name: name, Strictness: 1})
	}
	return specr, speco, speca, specm
}

func runStage(C *Clauses, weights map[int]int) (bool, []bool, int, error) {
	lits := make([]int, 0, len(weights))
	costs := make([]int, 0, len(weights))
	for lit, w := range weights {
		lits = append(lits, lit)
		costs = append(costs, w)
	}
	return C.Minimize(lits, costs)
}

func modelValue(model []bool, lit int) bool {
	idx := lit
	neg := false
	if idx < 0 {
		idx = -idx
		neg = true
	}
	if idx-1 < 0 || idx-1 >= len(model) {
		return false
	}
	v := model[idx-1]
	if neg {
		return !v
	}
	return v
}

// selectedFKeys extracts the selected, named fkey variables from a model,
// skipping the internal proxies (names containing "@" or prefixed "!").
// Virtual "[fstr]" suffixes are kept; stripVirtual removes them at the
// very end so blocking clauses still distinguish the variants.
func selectedFKeys(C *Clauses, model []bool) []string {
	var out []string
	for v := 1; v <= C.nextVar; v++ {
		if !modelValue(model, v) {
			continue
		}
		name, ok := C.byVar[v]
		if !ok {
			continue
		}
		if strings.HasPrefix(name, "!") || strings.Contains(name, "@") {
			continue
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func stripVirtual(fkeys []string) []string {
	out := make([]string, 0, len(fkeys))
	for _, fkey := range fkeys {
		base, _, _ := splitFKey(fkey)
		out = append(out, base)
	}
	sort.Strings(out)
	return out
}

func logAlternateWarning(ctx context.Context, psolutions [][]string) {
	common := map[string]int{}
	for _, sol := range psolutions {
		for _, fkey := range sol {
			common[fkey]++
		}
	}
	var differing []string
	for fkey, n := range common {
		if n < len(psolutions) {
			differing = append(differing, fkey)
		}
	}
	sort.Strings(differing)
	log.Ctx(ctx).Warn().
		Int("solutions", len(psolutions)).
		Strs("differing", differing).
		Msg("multiple tied package resolutions found")
}

// diagnoseUnsat shrinks the requested specs to a minimal conflicting
// subset, re-verifies that subset against a universe with the
// pruner-blamed name removed (so the report shows the underlying
// contradiction rather than the emptied group), and returns the resulting
// Unsatisfiable error.
func (idx *Index) diagnoseUnsat(C *Clauses, baseLen int, specs []*MatchSpec, specLits []int, unsatName string) error {
	base := C.clauses[:baseLen]
	mysat := func(assumptions []int) (bool, error) {
		clauses := make([][]int, 0, len(base)+len(assumptions))
		clauses = append(clauses, base...)
		for _, lit := range assumptions {
			clauses = append(clauses, []int{lit})
		}
		problem := solver.ParseSliceNb(clauses, C.nextVar)
		return solver.New(problem).Solve() == solver.Sat, nil
	}

	core, err := minimalUnsatisfiableSubset(specLits, mysat)
	if err != nil {
		return err
	}
	inCore := map[int]struct{}{}
	for _, lit := range core {
		inCore[lit] = struct{}{}
	}
	var hint []*MatchSpec
	hnames := map[string]struct{}{}
	for i, ms := range specs {
		if _, ok := inCore[specLits[i]]; !ok {
			continue
		}
		hint = append(hint, ms)
		hnames[ms.Name] = struct{}{}
	}
	if unsatName != "" {
		hnames[unsatName] = struct{}{}
	}

	r2 := idx
	if unsatName != "" {
		r2 = idx.withoutName(unsatName)
	}
	if _, vErr := r2.VerifySpecs(hint, true, hnames); vErr != nil {
		return vErr
	}
	chains := make([]Chain, 0, len(hint))
	for _, h := range hint {
		chains = append(chains, Chain{h.String()})
	}
	return newUnsatisfiable(chains)
}

// Explicit implements the no-resolve fast path: given a single
// strictness-3 spec, return it plus its recorded dependencies' filenames;
// given several specs, return only their own filenames (ignoring
// dependencies). It returns (nil, false) when any spec (or, in the
// single-spec case, any dependency) lacks a pinned filename, or when the
// single spec's filename is not in the index; with several specs the
// filenames are not checked against the index.
func (idx *Index) Explicit(specs []*MatchSpec) ([]string, bool) {
	var res []string
	if len(specs) == 1 {
		ms := specs[0]
		fn, ok := ms.ToFilename()
		if !ok {
			return nil, false
		}
		if _, ok := idx.records[fn]; !ok {
			return nil, false
		}
		deps, err := idx.MsDepends(fn)
		if err != nil {
			return nil, false
		}
		for _, d := range deps {
			dfn, ok := d.ToFilename()
			if !ok {
				return nil, false
			}
			res = append(res, dfn)
		}
		res = append(res, fn)
	} else {
		for _, s := range specs {
			fn, ok := s.ToFilename()
			if !ok {
				return nil, false
			}
			res = append(res, fn)
		}
	}
	sort.Strings(res)
	return res, true
}

// SumMatches counts, across fn1's dependencies, how many are satisfied by
// fn2 — used by FindSubstitute to rank candidate replacements.
func (idx *Index) SumMatches(fn1, fn2 string) int {
	deps, err := idx.MsDepends(fn1)
	if err != nil {
		return 0
	}
	rec, ok := idx.recordFor(fn2)
	if !ok {
		return 0
	}
	n := 0
	for _, ms := range deps {
		if ms.Match(rec) {
			n++
		}
	}
	return n
}

// FindSubstitute looks for a same-name, same-version replacement for fn
// that does not carry any of the given features, preferring the candidate
// whose own dependencies are satisfied by the most installed packages.
func (idx *Index) FindSubstitute(installed map[string]struct{}, features map[string]struct{}, fn string) (string, bool) {
	rec, ok := idx.recordFor(fn)
	if !ok {
		return "", false
	}
	bestScore := -1
	best := ""
	for _, candidate := range idx.groups[rec.Name] {
		crec, ok := idx.recordFor(candidate)
		if !ok || idx.cache.compare(crec.Version, rec.Version) != 0 {
			continue
		}
		skip := false
		for _, feat := range strings.Fields(crec.Features) {
			if _, bad := features[feat]; bad {
				skip = true
				break
			}
		}
		if skip {
			continue
		}
		score := 0
		for other := range installed {
			score += idx.SumMatches(candidate, other)
		}
		if score > bestScore {
			bestScore = score
			best = candidate
		}
	}
	if best == "" {
		return "", false
	}
	return best, true
}

// DependencySort orders mustHave (a map from package name to fkey) so
// that every fkey appears after all of its dependencies, using a
// topological sort over the dependency graph. Unsortable leftovers
// (cyclic or unresolvable) are appended afterward rather than dropped.
func (idx *Index) DependencySort(mustHave map[string]string) []string {
	digraph := map[string]map[string]struct{}{}
	for name, fkey := range mustHave {
		deps, err := idx.MsDepends(fkey)
		depset := map[string]struct{}{}
		if err == nil {
			for _, d := range deps {
				depset[d.Name] = struct{}{}
			}
		}
		digraph[name] = depset
	}
	order := topoSort(digraph)

	remaining := map[string]string{}
	for k, v := range mustHave {
		remaining[k] = v
	}
	result := make([]string, 0, len(mustHave))
	for _, name := range order {
		if fkey, ok := remaining[name]; ok {
			result = append(result, fkey)
			delete(remaining, name)
		}
	}
	leftoverNames := make([]string, 0, len(remaining))
	for name := range remaining {
		leftoverNames = append(leftoverNames, name)
	}
	sort.Strings(leftoverNames)
	for _, name := range leftoverNames {
		result = append(result, remaining[name])
	}
	return result
}
