package ports

import "avular-packages/internal/solve"

// SolveIndexPort loads a package index (fkey -> Record) from whatever
// on-disk form the caller points it at, so the CLI layer never depends on
// a specific file format.
type SolveIndexPort interface {
	Load(path string) (map[string]solve.Record, error)
}
