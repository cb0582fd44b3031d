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

package resolver

import (
	"cmp"
	"iter"

	"github.com/benbjohnson/immutable"

	"github.com/rancher-sandbox/pkgresolver/internal/universe"
)

// solverInfo is what a step knows about one way of solving a dependency.
type solverInfo struct {
	choice  Choice
	tier    Tier
	reasons ChoiceSet
	// valid is the condition the tier depends on; nil when it is intrinsic.
	valid    *Condition
	deferral *formula
}

// depSolvers holds the remaining solvers of an unresolved dependency and the
// choices that ruled the others out.
type depSolvers struct {
	dep        universe.Dep
	solvers    *immutable.SortedMap[choiceKey, solverInfo]
	structural ChoiceSet
}

func (ds depSolvers) each() iter.Seq[solverInfo] {
	return func(yield func(solverInfo) bool) {
		itr := ds.solvers.Iterator()
		for !itr.Done() {
			_, si, _ := itr.Next()
			if !yield(si) {
				return
			}
		}
	}
}

func newSolverMap() *immutable.SortedMap[choiceKey, solverInfo] {
	return immutable.NewSortedMap[choiceKey, solverInfo](keyComparer{})
}

type solvedEntry struct {
	choice Choice
	deps   []universe.Dep
}

type numKey struct {
	n   int
	dep int
}

type numComparer struct{}

func (numComparer) Compare(a, b numKey) int {
	if r := cmp.Compare(a.n, b.n); r != 0 {
		return r
	}
	return cmp.Compare(a.dep, b.dep)
}

// step is a node of the search graph: a partial solution together with
// everything known about how it can be completed. All the maps are
// persistent so a child shares them with its parent until it changes them.
type step struct {
	num       int
	parent    int
	children  []int
	lastChild bool
	cloneOf   int
	clones    []int
	// choice is the action that created the step; unset for a root.
	choice Choice

	actions     ChoiceSet
	actionScore int
	score       int
	tier        Tier
	tierValid   *Condition

	unresolved   *immutable.SortedMap[int, depSolvers]
	byNumSolvers *immutable.SortedMap[numKey, universe.Dep]
	solvedBy     *immutable.SortedMap[choiceKey, solvedEntry]
	forbidden    *immutable.SortedMap[int, Choice]

	closed        bool
	expanded      universe.Dep
	expandReasons ChoiceSet
	// promotion is the best promotion recorded for the subtree of the step.
	promotion *Promotion
}

func newRootStep(num int) *step {
	return &step{
		num:          num,
		parent:       -1,
		cloneOf:      -1,
		tier:         MinimumTier,
		unresolved:   immutable.NewSortedMap[int, depSolvers](intComparer{}),
		byNumSolvers: immutable.NewSortedMap[numKey, universe.Dep](numComparer{}),
		solvedBy:     immutable.NewSortedMap[choiceKey, solvedEntry](keyComparer{}),
		forbidden:    immutable.NewSortedMap[int, Choice](intComparer{}),
	}
}

// inherit copies the parent's state into s.
func (s *step) inherit(p *step) {
	s.actions = p.actions
	s.actionScore = p.actionScore
	s.score = p.score
	s.tier = p.tier
	s.tierValid = p.tierValid
	s.unresolved = p.unresolved
	s.byNumSolvers = p.byNumSolvers
	s.solvedBy = p.solvedBy
	s.forbidden = p.forbidden
}

func (s *step) deps() iter.Seq[depSolvers] {
	return func(yield func(depSolvers) bool) {
		itr := s.unresolved.Iterator()
		for !itr.Done() {
			_, ds, _ := itr.Next()
			if !yield(ds) {
				return
			}
		}
	}
}

// setDep stores ds and keeps the solver-count index in step.
func (s *step) setDep(ds depSolvers) {
	id := ds.dep.ID()
	if old, ok := s.unresolved.Get(id); ok {
		s.byNumSolvers = s.byNumSolvers.Delete(numKey{old.solvers.Len(), id})
	}
	s.unresolved = s.unresolved.Set(id, ds)
	s.byNumSolvers = s.byNumSolvers.Set(numKey{ds.solvers.Len(), id}, ds.dep)
}

func (s *step) dropDep(id int) {
	old, ok := s.unresolved.Get(id)
	if !ok {
		return
	}
	s.byNumSolvers = s.byNumSolvers.Delete(numKey{old.solvers.Len(), id})
	s.unresolved = s.unresolved.Delete(id)
}

func (s *step) addSolvedBy(c Choice, d universe.Dep) {
	k := c.key()
	e, ok := s.solvedBy.Get(k)
	if !ok {
		e = solvedEntry{choice: c}
	}
	deps := make([]universe.Dep, len(e.deps), len(e.deps)+1)
	copy(deps, e.deps)
	e.deps = append(deps, d)
	s.solvedBy = s.solvedBy.Set(k, e)
}

func (s *step) removeSolvedBy(k choiceKey, d universe.Dep) {
	e, ok := s.solvedBy.Get(k)
	if !ok {
		return
	}
	deps := make([]universe.Dep, 0, len(e.deps))
	for _, o := range e.deps {
		if o.ID() != d.ID() {
			deps = append(deps, o)
		}
	}
	if len(deps) == 0 {
		s.solvedBy = s.solvedBy.Delete(k)
		return
	}
	e.deps = deps
	s.solvedBy = s.solvedBy.Set(k, e)
}

// solverDomain exposes the solvers of a step as a Domain.
type solverDomain struct {
	m *immutable.SortedMap[choiceKey, solvedEntry]
}

func (d solverDomain) SubsumedBy(u Choice) iter.Seq[Choice] {
	return func(yield func(Choice) bool) {
		for _, e := range subsumedBy(d.m, u) {
			if !yield(e.choice) {
				return
			}
		}
	}
}

// installation is the world as a step sees it.
type installation struct {
	actions ChoiceSet
	initial universe.Installation
}

func (i installation) VersionOf(p universe.Package) universe.Version {
	if v, ok := i.actions.VersionOf(p); ok {
		return v
	}
	return i.initial.VersionOf(p)
}
