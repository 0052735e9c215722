package adapters

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"avular-packages/internal/solve"
)

// SolveIndexFileAdapter loads a package index from a local JSON or YAML
// file, the file being a flat object mapping fkey to Record. Format is
// picked from the file extension. The index is read once per CLI
// invocation rather than cached, since a Resolve is built fresh per call
// anyway.
type SolveIndexFileAdapter struct{}

func NewSolveIndexFileAdapter() *SolveIndexFileAdapter {
	return &SolveIndexFileAdapter{}
}

func (a *SolveIndexFileAdapter) Load(path string) (map[string]solve.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("solve index file not found").
			WithCause(err)
	}

	records := map[string]solve.Record{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &records); err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("failed to parse solve index yaml").
				WithCause(err)
		}
	default:
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("failed to parse solve index json").
				WithCause(err)
		}
	}
	return records, nil
}
