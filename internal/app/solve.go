package app

import (
	"context"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"avular-packages/internal/solve"
)

// Solve loads a package index, parses the requested and already-installed
// specs against it, and runs the full resolve pipeline: load backing state
// through a port, then hand off to the pure-logic layer underneath.
func (s Service) Solve(ctx context.Context, req SolveRequest) (SolveResult, error) {
	records, err := s.SolveIndex.Load(req.IndexPath)
	if err != nil {
		return SolveResult{}, err
	}

	idx, err := solve.NewIndex(ctx, records, solve.Options{
		Subdir:          req.Subdir,
		ChannelPriority: req.ChannelPriority,
	})
	if err != nil {
		return SolveResult{}, err
	}

	specs, err := parseSolveSpecs(idx, req.Specs)
	if err != nil {
		return SolveResult{}, err
	}

	r := solve.NewResolve(idx)
	fkeys, alternates, err := r.Install(ctx, specs, req.Installed, req.UpdateDeps, req.ReturnAll)
	if err != nil {
		return SolveResult{}, err
	}
	return SolveResult{FKeys: fkeys, Alternates: alternates}, nil
}

func parseSolveSpecs(idx *solve.Index, raw []string) ([]*solve.MatchSpec, error) {
	specs := make([]*solve.MatchSpec, 0, len(raw))
	for _, s := range raw {
		ms, err := idx.ParseSpec(s)
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("invalid match spec: " + s).
				WithCause(err)
		}
		specs = append(specs, ms)
	}
	return specs, nil
}
