package solve

import (
	"github.com/crillab/gophersat/solver"
)

// Clauses is an incremental formula builder over gophersat's solver
// package: named proxy variables, Tseitin-encoded OR gates, at-most-one
// groups, pseudo-boolean sum bounds, and a Minimize that accepts an
// arbitrary cost vector. Each objective pass of the solver driver
// minimizes one cost vector and then pins the achieved value with a
// RequireSumLE bound, so the next pass optimizes within the incumbent.
//
// Literals are plain ints in DIMACS convention: a positive value selects
// a variable, its negation negates it. Variable 0 never exists.
type Clauses struct {
	nextVar int
	clauses [][]int
	bounds  []solver.PBConstr

	byName map[string]int
	byVar  map[int]string
}

// NewClauses returns an empty clause builder.
func NewClauses() *Clauses {
	return &Clauses{
		byName: map[string]int{},
		byVar:  map[int]string{},
	}
}

// NewVar allocates a fresh variable and returns its positive literal.
func (c *Clauses) NewVar() int {
	c.nextVar++
	return c.nextVar
}

// NVars reports how many variables have been allocated so far.
func (c *Clauses) NVars() int {
	return c.nextVar
}

// FromName returns the literal previously bound to name via NameVar, or 0
// if no variable has been named that way yet.
func (c *Clauses) FromName(name string) int {
	return c.byName[name]
}

// FromIndex is the identity lookup counterpart to FromName: it exists so
// callers that hold a raw literal can round-trip through the same
// interface as a name lookup.
func (c *Clauses) FromIndex(lit int) int {
	return lit
}

// Not negates a literal.
func (c *Clauses) Not(lit int) int {
	return -lit
}

// NameVar binds name to lit, so a later FromName(name) returns it. Naming
// the same variable under two names is allowed; naming two different
// variables under the same name overwrites the binding.
func (c *Clauses) NameVar(lit int, name string) {
	c.byName[name] = lit
	c.byVar[lit] = name
}

// Require adds a unit clause forcing lit true.
func (c *Clauses) Require(lit int) {
	c.clauses = append(c.clauses, []int{lit})
}

// RequireClause adds a disjunction of lits as a hard constraint, without
// allocating a Tseitin proxy for it.
func (c *Clauses) RequireClause(lits []int) {
	clause := append([]int(nil), lits...)
	c.clauses = append(c.clauses, clause)
}

// RequireSumLE adds the pseudo-boolean constraint
// sum(weight * [lit is true]) <= bound over the given weight map.
func (c *Clauses) RequireSumLE(weights map[int]int, bound int) {
	if len(weights) == 0 {
		return
	}
	lits := make([]int, 0, len(weights))
	ws := make([]int, 0, len(weights))
	for lit, w := range weights {
		lits = append(lits, lit)
		ws = append(ws, w)
	}
	c.bounds = append(c.bounds, solver.LtEq(lits, ws, bound))
}

// NewNamedVar allocates a fresh variable and immediately binds it to
// name, the way the clause generator names a package's selection variable
// after its own fkey.
func (c *Clauses) NewNamedVar(name string) int {
	v := c.NewVar()
	c.NameVar(v, name)
	return v
}

// AtMostOne adds pairwise negative clauses over lits so the solver can
// select at most one of them.
func (c *Clauses) AtMostOne(lits []int) {
	for i := 0; i < len(lits); i++ {
		for j := i + 1; j < len(lits); j++ {
			c.clauses = append(c.clauses, []int{-lits[i], -lits[j]})
		}
	}
}

// Any returns a literal m such that m holds iff at least one of lits
// holds (Tseitin-encoded OR gate). An empty lits forces m false.
func (c *Clauses) Any(lits []int) int {
	m := c.NewVar()
	if len(lits) == 0 {
		c.Require(-m)
		return m
	}
	clause := append([]int{-m}, lits...)
	c.clauses = append(c.clauses, clause)
	for _, lit := range lits {
		c.clauses = append(c.clauses, []int{-lit, m})
	}
	return m
}

// Or is the two-literal specialization of Any.
func (c *Clauses) Or(a, b int) int {
	return c.Any([]int{a, b})
}

func (c *Clauses) problem() *solver.Problem {
	if len(c.bounds) == 0 {
		return solver.ParseSliceNb(c.clauses, c.nextVar)
	}
	constrs := make([]solver.PBConstr, 0, len(c.clauses)+len(c.bounds))
	for _, clause := range c.clauses {
		constrs = append(constrs, solver.PropClause(clause...))
	}
	constrs = append(constrs, c.bounds...)
	return solver.ParsePBConstrs(constrs)
}

// Sat reports whether the accumulated constraints are satisfiable,
// without any preference objective, and if so returns the satisfying
// assignment (model[v-1] holds variable v; true means the variable is
// selected).
func (c *Clauses) Sat() (bool, []bool, error) {
	if c.nextVar == 0 {
		return true, nil, nil
	}
	s := solver.New(c.problem())
	if s.Solve() != solver.Sat {
		return false, nil, nil
	}
	return true, s.Model(), nil
}

// Minimize solves for a model minimizing the weighted sum of costLits
// (each entry may be negative, costing the literal's negation being
// selected instead). It returns satisfiability, the model, and the
// achieved cost.
func (c *Clauses) Minimize(costLits []int, costWeights []int) (bool, []bool, int, error) {
	if c.nextVar == 0 {
		return true, nil, 0, nil
	}
	if len(costLits) == 0 {
		ok, model, err := c.Sat()
		return ok, model, 0, err
	}
	problem := c.problem()
	lits := make([]solver.Lit, 0, len(costLits))
	for _, l := range costLits {
		lits = append(lits, solver.IntToLit(int32(l)))
	}
	problem.SetCostFunc(lits, costWeights)
	sat := solver.New(problem)
	cost := sat.Minimize()
	if cost < 0 {
		return false, nil, 0, nil
	}
	return true, sat.Model(), cost, nil
}
