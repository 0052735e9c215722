package app

import (
	"avular-packages/internal/adapters"
	"avular-packages/internal/ports"
)

// Service holds the ports the match-spec solver needs to run as a CLI
// command: loading a package index from disk. It is built fresh per
// invocation, the same way the solver it wraps builds a fresh Resolve
// over a frozen index snapshot.
type Service struct {
	SolveIndex ports.SolveIndexPort
}

func NewService() Service {
	return Service{
		SolveIndex: adapters.NewSolveIndexFileAdapter(),
	}
}
