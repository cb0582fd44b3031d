/*
Copyright SUSE LLC.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package solver

import (
	"sort"

	"github.com/crillab/gophersat/maxsat"

	"github.com/rancher-sandbox/pkgresolver/internal/universe"
)

// CheckResult is the outcome of a satisfiability check of a universe.
type CheckResult struct {
	Status string `json:"status" yaml:"status"` // SAT or UNSAT
	// BrokenOptional is the least number of optional dependencies any
	// consistent installation leaves broken.
	BrokenOptional int `json:"brokenOptional" yaml:"brokenOptional"`
	// Installed lists, for a SAT outcome, one consistent installation as
	// "name version" strings, sorted.
	Installed []string `json:"installed" yaml:"installed"`
}

func (c *CheckResult) IsSAT() bool {
	return c.Status == "SAT"
}

// Check encodes u and the constraints as a MAXSAT problem and solves it. It
// answers whether any solution exists at all, which the best-first search
// can only answer by exhausting the search space.
//
// The encoding never forbids an installation the search could reach, so an
// UNSAT outcome means the search has no solution either. Mandates only steer
// which solver fixes a dependency and add no clause. A rejected version is
// never chosen, but a current one stays installed unless something moves it,
// so only rejections of versions that are not current become clauses.
func Check(u universe.Universe, cons *Constraints) *CheckResult {
	constrs := []maxsat.Constr{}
	for p := range u.Packages() {
		constrs = append(constrs, buildConstraintExactlyOne(p)...)
	}
	for d := range u.Deps() {
		constrs = append(constrs, buildConstraintDep(d, cons))
	}
	if cons != nil {
		for _, v := range cons.Reject {
			if universe.SameVersion(v, v.Package().Current()) {
				continue
			}
			constrs = append(constrs, maxsat.HardClause(maxsat.Not(litName(v))))
		}
	}

	res := &CheckResult{Status: "SAT", Installed: []string{}}
	if len(constrs) == 0 {
		return res
	}

	problem := maxsat.New(constrs...)
	model, cost := problem.Solve()
	if model == nil {
		res.Status = "UNSAT"
		return res
	}
	res.BrokenOptional = cost
	for p := range u.Packages() {
		for v := range p.Versions() {
			if model[litName(v)] {
				res.Installed = append(res.Installed, litName(v))
			}
		}
	}
	sort.Strings(res.Installed)
	return res
}

func litName(v universe.Version) string {
	return universe.VersionString(v)
}

// buildConstraintExactlyOne states that one and only one version of p is
// installed. The absent version takes part like any other.
func buildConstraintExactlyOne(p universe.Package) (constr []maxsat.Constr) {
	// E.g: B having versions absent, 1.0.0, 2.0.0:
	//     absent + 1.0.0 + 2.0.0 >= 1  (at least 1)
	//     not(absent) + not(1.0.0) + not(2.0.0) >= 2  (at most 1)
	lits := []maxsat.Lit{}
	negated := []maxsat.Lit{}
	coeffs := []int{}
	for v := range p.Versions() {
		lits = append(lits, maxsat.Var(litName(v)))
		negated = append(negated, maxsat.Not(litName(v)))
		coeffs = append(coeffs, 1)
	}
	constr = append(constr, maxsat.HardPBConstr(lits, coeffs, 1))
	if len(lits) > 1 {
		constr = append(constr, maxsat.HardPBConstr(negated, coeffs, len(lits)-1))
	}
	return constr
}

// buildConstraintDep encodes "A depends on one of B1..Bn" as the clause
// not(A) or B1 or ... Bn. Optional dependencies become weighted clauses, each
// broken one costing 1.
func buildConstraintDep(d universe.Dep, cons *Constraints) maxsat.Constr {
	lits := []maxsat.Lit{maxsat.Not(litName(d.Source()))}
	for s := range d.Solvers() {
		lits = append(lits, maxsat.Var(litName(s)))
	}
	if d.IsSoft() && !cons.hardened(d) {
		return maxsat.WeightedClause(lits, 1)
	}
	return maxsat.HardClause(lits...)
}
