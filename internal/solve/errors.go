package solve

import (
	"fmt"
	"strings"
)

// Chain is one dependency chain as built by InvalidChains: the requested
// name, zero or more intermediate names, and a leaf spec string that could
// not be satisfied.
type Chain []string

func (c Chain) String() string {
	return strings.Join(c, " -> ")
}

func dashList(items []string) string {
	var b strings.Builder
	for _, item := range items {
		b.WriteString("\n  - ")
		b.WriteString(item)
	}
	return b.String()
}

// NoPackagesFound reports that a requested package or dependency chain has
// no candidate at all in the index.
type NoPackagesFound struct {
	Chains []Chain
	Pkgs   map[string]struct{}
}

func newNoPackagesFound(chains []Chain) *NoPackagesFound {
	pkgs := map[string]struct{}{}
	for _, c := range chains {
		if len(c) == 0 {
			continue
		}
		pkgs[c[len(c)-1]] = struct{}{}
	}
	return &NoPackagesFound{Chains: chains, Pkgs: pkgs}
}

func (e *NoPackagesFound) Error() string {
	what := classifyChains(e.Chains)
	lines := make([]string, 0, len(e.Chains))
	for _, c := range e.Chains {
		lines = append(lines, c.String())
	}
	return fmt.Sprintf("%s missing: %s", what, dashList(lines))
}

func classifyChains(chains []Chain) string {
	allMulti, allSingle := true, true
	for _, c := range chains {
		if len(c) > 1 {
			allSingle = false
		} else {
			allMulti = false
		}
	}
	switch {
	case allMulti && len(chains) > 1:
		return "Dependencies"
	case allMulti:
		return "Dependency"
	case allSingle && len(chains) > 1:
		return "Packages"
	case allSingle:
		return "Package"
	default:
		return "Packages/dependencies"
	}
}

// Unsatisfiable reports that candidates exist but mutual constraints
// cannot be simultaneously satisfied.
type Unsatisfiable struct {
	Chains []Chain
}

func newUnsatisfiable(chains []Chain) *Unsatisfiable {
	return &Unsatisfiable{Chains: chains}
}

func (e *Unsatisfiable) Error() string {
	lines := make([]string, 0, len(e.Chains))
	for _, c := range e.Chains {
		lines = append(lines, c.String())
	}
	return fmt.Sprintf("the following specifications were found to be in conflict:%s", dashList(lines))
}
