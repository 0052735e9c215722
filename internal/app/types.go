package app

// SolveRequest is the CLI-facing request to resolve a set of match specs
// against a package index, optionally against an already-installed set.
type SolveRequest struct {
	IndexPath       string
	Specs           []string
	Installed       []string
	UpdateDeps      bool
	ReturnAll       bool
	ChannelPriority bool
	Subdir          string
}

// SolveResult carries the solver's primary solution plus any tied
// alternates gathered by alternate-solution enumeration.
type SolveResult struct {
	FKeys      []string
	Alternates [][]string
}
