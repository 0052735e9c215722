package solve

import (
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

// MatchSpec is a parsed constraint: "name [version [build]] (opt1,opt2,...)".
// Strictness 1 matches on name alone, 2 adds a version predicate, 3 pins an
// exact (version, build) pair. Equality and hashing are deliberately
// asymmetric (see Equal/Key): optional/mandatory twins of the same spec
// text land in the same cache bucket but still compare unequal.
type MatchSpec struct {
	// Spec is the trimmed "name [version [build]]" portion, excluding the
	// "(opts)" suffix — this is also the cache/hash key.
	Spec string

	Name       string
	Strictness int
	VSpec      *VersionSpec
	Version    string // strictness 3 only
	Build      string // strictness 3 only

	Optional bool
	Target   string
}

// ParseMatchSpec parses a raw spec string of the form
// "name [version [build]] (opt1,opt2,...)".
func ParseMatchSpec(raw string, cache *versionCache) (*MatchSpec, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("empty match spec")
	}
	main, opts, hasOpts := splitOpts(raw)
	main = strings.TrimSpace(main)
	parts := strings.Fields(main)
	if len(parts) < 1 || len(parts) > 3 {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid match spec: " + raw)
	}

	ms := &MatchSpec{
		Spec:       main,
		Name:       parts[0],
		Strictness: len(parts),
	}

	switch ms.Strictness {
	case 2:
		vspec, err := newVersionSpec(parts[1], cache)
		if err != nil {
			return nil, err
		}
		ms.VSpec = vspec
	case 3:
		ms.Version = parts[1]
		ms.Build = parts[2]
	}

	if hasOpts {
		for _, opt := range strings.Split(opts, ",") {
			opt = strings.TrimSpace(opt)
			switch {
			case opt == "optional":
				ms.Optional = true
			case strings.HasPrefix(opt, "target="):
				ms.Target = strings.TrimSpace(strings.TrimPrefix(opt, "target="))
			case opt == "":
				// tolerate trailing commas
			default:
				return nil, errbuilder.New().
					WithCode(errbuilder.CodeInvalidArgument).
					WithMsg("invalid match spec option: " + opt)
			}
		}
	}
	return ms, nil
}

// MustMatchSpec parses a spec, panicking on error. Reserved for literal
// specs constructed internally (feature trackers, synthesized names) where
// a parse failure indicates a programming error, not bad user input.
func MustMatchSpec(raw string, cache *versionCache) *MatchSpec {
	ms, err := ParseMatchSpec(raw, cache)
	if err != nil {
		panic(err)
	}
	return ms
}

func splitOpts(raw string) (main string, opts string, hasOpts bool) {
	idx := strings.IndexByte(raw, '(')
	if idx < 0 {
		return raw, "", false
	}
	main = raw[:idx]
	rest := strings.TrimSpace(raw[idx+1:])
	if !strings.HasSuffix(rest, ")") {
		return raw, "", false
	}
	return main, strings.TrimSuffix(rest, ")"), true
}

// IsFeature reports whether this spec is a "@feat" feature-tracker spec.
func (ms *MatchSpec) IsFeature() bool {
	return strings.HasPrefix(ms.Name, "@")
}

// FeatureName returns the tracked feature name for an "@feat" spec.
func (ms *MatchSpec) FeatureName() string {
	return strings.TrimPrefix(ms.Name, "@")
}

// MatchFast tests the version/build pair alone, without checking the name.
func (ms *MatchSpec) MatchFast(version, build string) bool {
	switch ms.Strictness {
	case 1:
		return true
	case 2:
		return ms.VSpec.Match(version)
	default:
		return version == ms.Version && build == ms.Build
	}
}

// Match tests a full record, including its name.
func (ms *MatchSpec) Match(rec Record) bool {
	if rec.Name != ms.Name {
		return false
	}
	return ms.MatchFast(rec.Version, rec.Build)
}

// ToFilename returns the canonical "name-version-build.tar.bz2" filename
// this spec pins to, or ("", false) unless strictness is 3 and the spec
// is mandatory.
func (ms *MatchSpec) ToFilename() (string, bool) {
	if ms.Strictness != 3 || ms.Optional {
		return "", false
	}
	return ms.Name + "-" + ms.Version + "-" + ms.Build + ".tar.bz2", true
}

// Equal compares the full identity tuple (spec text, optional, target).
func (ms *MatchSpec) Equal(other *MatchSpec) bool {
	if ms == nil || other == nil {
		return ms == other
	}
	return ms.Spec == other.Spec && ms.Optional == other.Optional && ms.Target == other.Target
}

// Key returns the hash key used by caches: the spec text alone, so that
// optional/mandatory variants of the same spec text collide in the same
// bucket even though Equal would tell them apart.
func (ms *MatchSpec) Key() string {
	return ms.Spec
}

func (ms *MatchSpec) String() string {
	res := ms.Spec
	var args []string
	if ms.Optional {
		args = append(args, "optional")
	}
	if ms.Target != "" {
		args = append(args, "target="+ms.Target)
	}
	if len(args) > 0 {
		res = res + " (" + strings.Join(args, ",") + ")"
	}
	return res
}
