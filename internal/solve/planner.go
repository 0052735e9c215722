package solve

import (
	"context"
	"fmt"
)

// BadInstalled checks whether the currently installed snapshot is itself
// internally consistent. If it is not (or references fkeys missing from
// the index), it narrows the next solve to just the names reachable from
// newSpecs and reports which installed fkeys should simply be preserved
// untouched rather than fed through the solver.
func (idx *Index) BadInstalled(installed []string, newSpecs []*MatchSpec) (map[string]struct{}, []string) {
	if len(installed) == 0 {
		return nil, nil
	}

	var xtra []string
	dists := map[string]Record{}
	var specs []*MatchSpec
	for _, fkey := range installed {
		rec, ok := idx.records[fkey]
		if !ok {
			xtra = append(xtra, fkey)
			continue
		}
		dists[fkey] = rec
		specs = append(specs, &MatchSpec{
			Spec:       fmt.Sprintf("%s %s %s", rec.Name, rec.Version, rec.Build),
			Name:       rec.Name,
			Strictness: 3,
			Version:    rec.Version,
			Build:      rec.Build,
		})
	}

	sub := idx.subIndex(dists)
	C2 := sub.GenClauses()
	sub.GenerateSpecConstraints(C2, specs)
	ok, _, serr := C2.Sat()
	solved := serr == nil && ok

	var limit map[string]struct{}
	if !solved || len(xtra) > 0 {
		snames := map[string]struct{}{}
		var walk func(name string)
		walk = func(name string) {
			if _, seen := snames[name]; seen {
				return
			}
			snames[name] = struct{}{}
			for _, fkey := range idx.groups[name] {
				deps, derr := idx.MsDepends(fkey)
				if derr != nil {
					continue
				}
				for _, ms := range deps {
					walk(ms.Name)
				}
			}
		}
		for _, s := range newSpecs {
			walk(s.Name)
		}

		filtered := xtra[:0:0]
		for _, fkey := range xtra {
			if _, ok := snames[fkey]; !ok {
				filtered = append(filtered, fkey)
			}
		}
		xtra = filtered

		allIn := true
		for _, s := range specs {
			if _, ok := snames[s.Name]; !ok {
				allIn = false
				break
			}
		}
		if len(xtra) > 0 || (!solved && !allIn) {
			limit = map[string]struct{}{}
			for _, s := range specs {
				if _, ok := snames[s.Name]; ok {
					limit[s.Name] = struct{}{}
				}
			}
			xtra = nil
			for _, fkey := range installed {
				rec, ok := idx.recordFor(fkey)
				if !ok {
					xtra = append(xtra, fkey)
					continue
				}
				if _, ok := snames[rec.Name]; !ok {
					xtra = append(xtra, fkey)
				}
			}
		}
	}

	return limit, xtra
}

// RestoreBad appends any preserved fkey back into pkgs whose package name
// the solve did not already cover.
func (idx *Index) RestoreBad(pkgs []string, preserve []string) []string {
	if len(preserve) == 0 {
		return pkgs
	}
	have := map[string]struct{}{}
	for _, pkg := range pkgs {
		if rec, ok := idx.recordFor(pkg); ok {
			have[rec.Name] = struct{}{}
		}
	}
	out := append([]string(nil), pkgs...)
	for _, p := range preserve {
		rec, ok := idx.recordFor(p)
		if ok {
			if _, already := have[rec.Name]; already {
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

// InstallSpecs augments specs with a spec for every currently installed
// package not already named, so an install plan keeps the rest of the
// environment stable. With updateDeps, the existing fkey is recorded as
// the spec's target so the objective prefers minimal version change;
// without it, the existing (version, build) is pinned outright.
func (idx *Index) InstallSpecs(specs []*MatchSpec, installed []string, updateDeps bool) ([]*MatchSpec, []string) {
	snames := map[string]struct{}{}
	for _, s := range specs {
		snames[s.Name] = struct{}{}
	}
	limit, preserve := idx.BadInstalled(installed, specs)

	out := append([]*MatchSpec(nil), specs...)
	for _, pkg := range installed {
		rec, ok := idx.records[pkg]
		if !ok {
			continue
		}
		if _, requested := snames[rec.Name]; requested {
			continue
		}
		if limit != nil {
			if _, ok := limit[rec.Name]; !ok {
				continue
			}
		}
		if updateDeps {
			out = append(out, &MatchSpec{
				Spec:       rec.Name,
				Name:       rec.Name,
				Strictness: 1,
				Target:     pkg,
			})
		} else {
			out = append(out, &MatchSpec{
				Spec:       fmt.Sprintf("%s %s %s", rec.Name, rec.Version, rec.Build),
				Name:       rec.Name,
				Strictness: 3,
				Version:    rec.Version,
				Build:      rec.Build,
			})
		}
	}
	return out, preserve
}

// Install plans an install: it is InstallSpecs feeding Resolve.Solve,
// followed by RestoreBad to reattach any preserved, untouched fkeys. Only
// the caller's own specs count as "requested" for the objective cascade;
// the environment-keeping specs InstallSpecs appends are scored with the
// residual metrics.
func (r *Resolve) Install(ctx context.Context, specs []*MatchSpec, installed []string, updateDeps bool, returnAll bool) ([]string, [][]string, error) {
	len0 := len(specs)
	augmented, preserve := r.idx.InstallSpecs(specs, installed, updateDeps)
	pkgs, alternates, err := r.Solve(ctx, augmented, len0, returnAll)
	if err != nil {
		return nil, nil, err
	}
	return r.idx.RestoreBad(pkgs, preserve), alternates, nil
}

// RemoveSpecs turns a set of package names to remove into optional specs
// that can never match a real candidate (forcing their absence), plus an
// optional upgrade-preferring spec for every other installed package so
// the rest of the environment is otherwise left alone.
func (idx *Index) RemoveSpecs(names []string, installed []string) ([]*MatchSpec, []string) {
	snames := map[string]struct{}{}
	out := make([]*MatchSpec, 0, len(names))
	for _, name := range names {
		snames[name] = struct{}{}
		out = append(out, &MatchSpec{
			Spec:       name + " @ @",
			Name:       name,
			Strictness: 3,
			Version:    "@",
			Build:      "@",
			Optional:   true,
		})
	}

	limit, _ := idx.BadInstalled(installed, out)
	var preserve []string
	for _, pkg := range installed {
		rec, ok := idx.recordFor(pkg)
		if !ok {
			continue
		}
		if _, removing := snames[rec.Name]; removing {
			continue
		}
		if limit != nil {
			preserve = append(preserve, pkg)
			continue
		}
		if rec.Version != "" {
			vspec, err := newVersionSpec(">="+rec.Version, idx.cache)
			if err != nil {
				out = append(out, &MatchSpec{Spec: rec.Name, Name: rec.Name, Strictness: 1, Optional: true, Target: pkg})
				continue
			}
			out = append(out, &MatchSpec{
				Spec:       rec.Name + " >=" + rec.Version,
				Name:       rec.Name,
				Strictness: 2,
				VSpec:      vspec,
				Optional:   true,
				Target:     pkg,
			})
		} else {
			out = append(out, &MatchSpec{Spec: rec.Name, Name: rec.Name, Strictness: 1, Optional: true, Target: pkg})
		}
	}
	return out, preserve
}

// Remove plans a removal: RemoveSpecs feeding Resolve.Solve, followed by
// RestoreBad.
func (r *Resolve) Remove(ctx context.Context, names []string, installed []string) ([]string, error) {
	specs, preserve := r.idx.RemoveSpecs(names, installed)
	pkgs, _, err := r.Solve(ctx, specs, 0, false)
	if err != nil {
		return nil, err
	}
	return r.idx.RestoreBad(pkgs, preserve), nil
}
