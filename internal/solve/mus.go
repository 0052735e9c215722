package solve

// minimalUnsatisfiableSubset reduces a set of assumption literals known
// to be unsatisfiable together with a fixed base formula to a minimal
// subset that still produces UNSAT, via the standard deletion-based
// search: try removing each assumption in turn, keeping the removal only
// if the remainder is still unsatisfiable. sat reports whether the base
// formula plus the given assumptions is satisfiable.
func minimalUnsatisfiableSubset(assumptions []int, sat func(assumptions []int) (bool, error)) ([]int, error) {
	keep := append([]int(nil), assumptions...)
	for i := 0; i < len(keep); {
		trial := make([]int, 0, len(keep)-1)
		trial = append(trial, keep[:i]...)
		trial = append(trial, keep[i+1:]...)

		ok, err := sat(trial)
		if err != nil {
			return nil, err
		}
		if ok {
			// Removing keep[i] makes it satisfiable again: it is
			// necessary to the conflict, keep it and move on.
			i++
			continue
		}
		// Still unsatisfiable without keep[i]: it wasn't needed.
		keep = trial
	}
	return keep, nil
}
