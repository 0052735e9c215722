package solve

import (
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	pep440 "github.com/aquasecurity/go-pep440-version"
)

// versionCache memoizes parsed PEP 440 versions so the same version
// string is never re-parsed across matcher and pruner passes. One cache
// is shared between an Index and every sub-index derived from it.
type versionCache struct {
	parsed map[string]pep440.Version
}

func newVersionCache() *versionCache {
	return &versionCache{parsed: map[string]pep440.Version{}}
}

func (c *versionCache) parse(value string) (pep440.Version, error) {
	if v, ok := c.parsed[value]; ok {
		return v, nil
	}
	v, err := pep440.Parse(value)
	if err != nil {
		return pep440.Version{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("cannot parse version %q", value)).
			WithCause(err)
	}
	c.parsed[value] = v
	return v, nil
}

// compare returns -1, 0, or 1. Unparseable versions fall back to plain
// string ordering rather than aborting the whole resolve, so one
// malformed index entry cannot poison every group it appears in.
func (c *versionCache) compare(a, b string) int {
	va, erra := c.parse(a)
	vb, errb := c.parse(b)
	if erra != nil || errb != nil {
		switch {
		case a == b:
			return 0
		case a < b:
			return -1
		default:
			return 1
		}
	}
	return va.Compare(vb)
}

// versionPredicate is one primitive comparison in a VersionSpec's
// AND-group: an operator plus either a parsed version (for relational
// operators) or a literal prefix (for glob matches).
type versionPredicate struct {
	op     string
	value  string
	isGlob bool
	prefix string
}

// VersionSpec compiles a match-spec version predicate string into a
// disjunction of conjunctions ("1.7*", ">=1.0,<2.0", ">=1.0|<0.5") and
// matches concrete version strings against it. go-pep440-version's own
// Specifiers type parses PEP 440's native comma-AND operator syntax but
// has no notion of the pipe-OR combinator or bare glob suffix this
// predicate language needs, so the OR/AND/glob algebra is implemented
// here directly on top of pep440.Version.Compare.
type VersionSpec struct {
	raw      string
	orGroups [][]versionPredicate
	cache    *versionCache
}

func newVersionSpec(raw string, cache *versionCache) (*VersionSpec, error) {
	vs := &VersionSpec{raw: raw, cache: cache}
	for _, orPart := range strings.Split(raw, "|") {
		var group []versionPredicate
		for _, andPart := range strings.Split(orPart, ",") {
			pred, err := parsePredicate(strings.TrimSpace(andPart))
			if err != nil {
				return nil, err
			}
			group = append(group, pred)
		}
		vs.orGroups = append(vs.orGroups, group)
	}
	return vs, nil
}

func parsePredicate(token string) (versionPredicate, error) {
	if token == "" {
		return versionPredicate{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("empty version predicate")
	}
	for _, op := range []string{">=", "<=", "==", "!=", ">", "<"} {
		if strings.HasPrefix(token, op) {
			return versionPredicate{op: op, value: strings.TrimSpace(token[len(op):])}, nil
		}
	}
	if strings.HasSuffix(token, "*") {
		return versionPredicate{op: "glob", isGlob: true, prefix: strings.TrimSuffix(token, "*")}, nil
	}
	return versionPredicate{op: "==", value: token}, nil
}

// Match reports whether version satisfies the spec.
func (vs *VersionSpec) Match(version string) bool {
	for _, group := range vs.orGroups {
		if matchAll(vs.cache, group, version) {
			return true
		}
	}
	return false
}

func matchAll(cache *versionCache, group []versionPredicate, version string) bool {
	for _, pred := range group {
		if !matchOne(cache, pred, version) {
			return false
		}
	}
	return true
}

func matchOne(cache *versionCache, pred versionPredicate, version string) bool {
	if pred.isGlob {
		return strings.HasPrefix(version, pred.prefix)
	}
	cmp := cache.compare(version, pred.value)
	switch pred.op {
	case "==":
		return cmp == 0
	case "!=":
		return cmp != 0
	case ">=":
		return cmp >= 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	case "<":
		return cmp < 0
	default:
		return false
	}
}

func (vs *VersionSpec) String() string { return vs.raw }
