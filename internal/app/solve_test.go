package app

import (
	"context"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"avular-packages/internal/solve"
)

type fakeSolveIndex struct {
	records map[string]solve.Record
}

func (f fakeSolveIndex) Load(string) (map[string]solve.Record, error) {
	return f.records, nil
}

func numpyMklRecords() map[string]solve.Record {
	return map[string]solve.Record{
		"python-2.7.5-0.tar.bz2": {Name: "python", Version: "2.7.5", Build: "0"},
		"zlib-1.2.7-0.tar.bz2":   {Name: "zlib", Version: "1.2.7", Build: "0"},
		"numpy-1.7.1-py27_0.tar.bz2": {
			Name: "numpy", Version: "1.7.1", Build: "py27_0",
			Depends: []string{"python 2.7*", "zlib"},
		},
	}
}

func TestSolveApp(t *testing.T) {
	service := NewService()
	service.SolveIndex = fakeSolveIndex{records: numpyMklRecords()}

	result, err := service.Solve(context.Background(), SolveRequest{
		IndexPath:  "unused",
		Specs:      []string{"numpy 1.7*", "python 2.7*"},
		UpdateDeps: true,
		Subdir:     "linux-64",
	})
	require.NoError(t, err)

	want := []string{
		"numpy-1.7.1-py27_0.tar.bz2",
		"python-2.7.5-0.tar.bz2",
		"zlib-1.2.7-0.tar.bz2",
	}
	got := append([]string(nil), result.FKeys...)
	sort.Strings(got)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected fkeys (-want +got):\n%s", diff)
	}
}

func TestSolveAppRejectsInvalidSpec(t *testing.T) {
	service := NewService()
	service.SolveIndex = fakeSolveIndex{records: numpyMklRecords()}

	_, err := service.Solve(context.Background(), SolveRequest{
		IndexPath: "unused",
		Specs:     []string{"numpy >=1 2 3 4"},
		Subdir:    "linux-64",
	})
	require.Error(t, err)
}
