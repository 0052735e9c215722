package solve

// Record is one artifact's metadata entry in an index, keyed by fkey.
// It mirrors the fields a real metadata index carries for a single
// package build.
type Record struct {
	Name     string `json:"name" yaml:"name"`
	Version  string `json:"version" yaml:"version"`
	Build    string `json:"build" yaml:"build"`
	BuildNum int    `json:"build_number" yaml:"build_number"`

	Channel  string `json:"channel,omitempty" yaml:"channel,omitempty"`
	SChannel string `json:"schannel,omitempty" yaml:"schannel,omitempty"`
	Priority int    `json:"priority,omitempty" yaml:"priority,omitempty"`

	Depends []string `json:"depends,omitempty" yaml:"depends,omitempty"`

	// Features is the space-separated set of tags this artifact provides.
	Features string `json:"features,omitempty" yaml:"features,omitempty"`
	// TrackFeatures is the space-separated set of tags whose presence
	// activates featured variants of other packages.
	TrackFeatures string `json:"track_features,omitempty" yaml:"track_features,omitempty"`
	// WithFeaturesDepends maps a feature-activation string (the same
	// syntax used in the "[fstr]" fkey suffix) to the extra depends that
	// apply when that feature set is active.
	WithFeaturesDepends map[string][]string `json:"with_features_depends,omitempty" yaml:"with_features_depends,omitempty"`

	// Linked is true for artifacts that belong to the currently
	// installed environment snapshot handed to NewIndex.
	Linked bool `json:"-" yaml:"-"`
}

func (r Record) priorityOrDefault() int {
	if r.Priority == 0 {
		return 1
	}
	return r.Priority
}
