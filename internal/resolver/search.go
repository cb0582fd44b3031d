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
	"context"
	"strconv"

	"github.com/rancher-sandbox/pkgresolver/internal/universe"
)

// FindNextSolution searches for the next solution, spending at most maxSteps
// steps. ErrNoMoreTime means the budget ran out and a later call picks the
// search up where it stopped; ErrNoMoreSolutions means there is nothing left.
// A cancelled search returns an *InterruptedError and can be resumed too.
//
// visit, when not nil, is told about the packages whose versions were
// considered.
func (r *Resolver) FindNextSolution(ctx context.Context, maxSteps int, visit Visitor) (*Solution, error) {
	if err := r.enter(); err != nil {
		return nil, err
	}
	defer r.leave()

	if r.finished {
		return nil, ErrNoMoreSolutions
	}
	r.settle()
	if r.pending.Len() == 0 && len(r.parked) == 0 {
		r.seedRoot()
	}

	odometer := 0
	future := 0
	for maxSteps > 0 && r.pendingHasCandidate() && future <= r.horizon {
		if r.interrupted(ctx) {
			r.updateCounts()
			return nil, &InterruptedError{Steps: odometer}
		}
		r.updateCounts()

		n, _ := r.pending.pop()
		odometer++
		s := r.graph.step(n)
		if s.tier.AtLeast(DeferTier) {
			r.invariant("step %d popped at tier %s", n, s.tier)
			continue
		}
		if r.alreadySeen(s) {
			r.logger.Debugf("step %d is a clone of a closed step", n)
			continue
		}
		if r.irrelevant(s) {
			r.logger.Debugf("dropping irrelevant step %d (tier %s, score %d)", n, s.tier, s.score)
			continue
		}

		r.logger.Debugf("processing step %d: %s (tier %s, score %d)", n, s.actions, s.tier, s.score)
		r.closed[r.closedKey(s)] = n
		s.closed = true
		if s.unresolved.Len() == 0 {
			r.logger.Debugf("step %d is a solution", n)
			r.addStepPromotion(n, NewPromotion(r.effectiveChoices(s.actions).Generalize(), AlreadyGeneratedTier))
			r.future.insert(n)
		} else {
			r.generateSuccessors(s, visit)
		}

		r.settle()

		if r.futureHasCandidate() {
			future++
		} else {
			future = 0
		}
		maxSteps--
	}

	for r.futureHasCandidate() {
		n, _ := r.future.pop()
		s := r.graph.step(n)
		choices := r.effectiveChoices(s.actions)
		fp := choices.Generalize().fingerprint()
		if r.returned[fp] {
			continue
		}
		r.returned[fp] = true
		sol := &Solution{choices: choices, initial: r.initial, score: s.score, tier: s.tier}
		r.updateCounts()
		r.logger.Infof("found solution %s (score %d, tier %s)", sol, sol.score, sol.tier)
		return sol, nil
	}

	if r.pendingHasCandidate() {
		r.updateCounts()
		r.logger.Debugf("out of steps after %d steps", odometer)
		return nil, ErrNoMoreTime
	}

	r.finished = true
	r.updateCounts()
	r.logger.Debugf("search space exhausted after %d steps", odometer)
	return nil, ErrNoMoreSolutions
}

func (r *Resolver) pendingHasCandidate() bool {
	n, ok := r.pending.first()
	return ok && r.graph.step(n).tier.Less(DeferTier)
}

func (r *Resolver) futureHasCandidate() bool {
	n, ok := r.future.first()
	return ok && r.graph.step(n).tier.Less(DeferTier)
}

func (r *Resolver) closedKey(s *step) string {
	return strconv.Itoa(s.score) + "/" + strconv.Itoa(s.actionScore) + "/" + s.actions.fingerprint()
}

func (r *Resolver) alreadySeen(s *step) bool {
	canonical, ok := r.closed[r.closedKey(s)]
	if !ok {
		return false
	}
	r.graph.addClone(canonical, s.num)
	return true
}

func (r *Resolver) irrelevant(s *step) bool {
	return s.tier.AtLeast(AlreadyGeneratedTier) || s.score < r.minimum
}

// seedRoot starts a new search from the initial state.
func (r *Resolver) seedRoot() {
	r.closed = map[string]int{}
	root := r.graph.addRoot()
	for _, d := range r.initialBroken {
		r.addUnresolvedDep(root, d)
	}
	if p, ok := r.promotions.FindHighestPromotionFor(root.actions); ok && root.tier.Less(p.Tier) {
		r.setStepTier(root, p.Tier, p.Valid)
	}
	root.score = r.scores.total(0, root.unresolved.Len())
	r.logger.Debugf("root step %d: %d broken dependencies, score %d", root.num, root.unresolved.Len(), root.score)
	r.enqueue(root)
}

// enqueue places a new step according to its tier.
func (r *Resolver) enqueue(s *step) {
	switch {
	case s.tier.Less(DeferTier):
		r.pending.insert(s.num)
	case s.tier.Less(AlreadyGeneratedTier):
		r.parked[s.num] = true
	}
}

// setStepTier changes the tier of s, moving it between the queues as needed.
func (r *Resolver) setStepTier(s *step, t Tier, valid *Condition) {
	inPending := r.pending.remove(s.num)
	inFuture := r.future.remove(s.num)
	wasParked := r.parked[s.num]
	delete(r.parked, s.num)

	s.tier = t
	s.tierValid = valid
	r.watch(valid, s.num)

	switch {
	case inFuture:
		r.future.insert(s.num)
	case inPending || wasParked:
		r.enqueue(s)
		if wasParked && r.pending.contains(s.num) {
			r.finished = false
		}
	}
}

func (r *Resolver) watch(c *Condition, stepNum int) {
	if c == nil {
		return
	}
	for _, f := range c.terms {
		r.watchers[f.id] = append(r.watchers[f.id], stepNum)
	}
}

// generateSuccessors expands the unresolved dependency of s with the fewest
// solvers, creating one child per solver.
func (r *Resolver) generateSuccessors(s *step, visit Visitor) {
	itr := s.byNumSolvers.Iterator()
	if itr.Done() {
		r.invariant("step %d has no unresolved dependency to expand", s.num)
		return
	}
	_, d, _ := itr.Next()
	ds, ok := s.unresolved.Get(d.ID())
	if !ok {
		r.invariant("dependency %s indexed but not unresolved in step %d", universe.DepString(d), s.num)
		return
	}
	s.expanded = d
	s.expandReasons = ds.structural
	r.logger.Debugf("expanding %s in step %d (%d solvers)", universe.DepString(d), s.num, ds.solvers.Len())

	var solvers []solverInfo
	for si := range ds.each() {
		solvers = append(solvers, si)
		if visit != nil {
			visit(si.choice.Package())
		}
	}
	for i, si := range solvers {
		child := r.graph.addChild(s)
		child.lastChild = i == len(solvers)-1
		r.generateSuccessor(s, child, si.choice, si.tier, si.valid)
	}
}

// generateSuccessor turns child, a copy of parent, into parent plus c.
func (r *Resolver) generateSuccessor(parent, child *step, c Choice, t Tier, valid *Condition) {
	c = c.WithID(parent.actions.Len())
	child.choice = c
	child.tier = maxTier(parent.tier, t)
	if t.AtLeast(parent.tier) {
		child.tierValid = valid
	}
	r.watch(child.tierValid, child.num)

	child.actions = child.actions.InsertOrNarrow(c)
	child.actionScore += r.scores.actionDelta(c, child.actions, r.initial)
	r.graph.indexContents(child)

	r.dropDepsSolvedBy(child, c.Generalize())
	child.solvedBy = child.solvedBy.Delete(c.key())
	r.strikeStructurallyForbidden(child, c)
	r.addNewUnresolvedDeps(child, c)
	r.findNewIncipientPromotions(child, c)

	child.score = r.scores.total(child.actionScore, child.unresolved.Len())
	r.logger.Debugf("new step %d: %s (tier %s, score %d)", child.num, c, child.tier, child.score)
	r.enqueue(child)
}

// effectiveChoices drops from actions the breaks of soft dependencies whose
// source a later choice moved away. The result installs the same versions.
func (r *Resolver) effectiveChoices(actions ChoiceSet) ChoiceSet {
	out := actions
	inst := installation{actions: actions, initial: r.initial}
	for c := range actions.All() {
		if c.kind == BreakSoftDep && !universe.BrokenUnder(c.dep, inst) {
			out = out.Without(c)
		}
	}
	return out
}

func (r *Resolver) dropDepsSolvedBy(s *step, c Choice) {
	var entries []solvedEntry
	for _, e := range subsumedBy(s.solvedBy, c) {
		entries = append(entries, e)
	}
	for _, e := range entries {
		for _, d := range e.deps {
			s.dropDep(d.ID())
		}
		s.solvedBy = s.solvedBy.Delete(e.choice.key())
	}
	if c.kind != InstallVersion {
		return
	}
	// Soft dependencies have no source-side solvers; moving their source
	// away fixes them all the same.
	old := r.initial.VersionOf(c.ver.Package())
	if old.ID() == c.ver.ID() {
		return
	}
	for d := range old.Deps() {
		if d.IsSoft() {
			s.dropDep(d.ID())
		}
	}
}

func (r *Resolver) strikeStructurallyForbidden(s *step, c Choice) {
	if c.kind == BreakSoftDep {
		// A dependency left broken stays broken below this step.
		reasons := NewChoiceSet(c)
		for v := range c.dep.Solvers() {
			r.strikeChoice(s, Install(v), reasons)
			s.forbidden = s.forbidden.Set(v.ID(), c)
		}
		return
	}
	// The reason keeps the source context of c: an install from a
	// dependency's source also forbids the other solvers of that dependency,
	// and a plain install of the same version would not.
	reasons := NewChoiceSet(c)
	for v := range c.ver.Package().Versions() {
		if v.ID() != c.ver.ID() {
			r.strikeChoice(s, Install(v), reasons)
		}
	}
	if !c.fromDepSource {
		return
	}
	reasons = NewChoiceSet(c)
	for v := range c.dep.Solvers() {
		if v.ID() == c.ver.ID() {
			continue
		}
		r.strikeChoice(s, Install(v), reasons)
		s.forbidden = s.forbidden.Set(v.ID(), c)
	}
}

// strikeChoice removes every solver victim subsumes from s, recording
// reasons as the structural cause.
func (r *Resolver) strikeChoice(s *step, victim Choice, reasons ChoiceSet) {
	var entries []solvedEntry
	for _, e := range subsumedBy(s.solvedBy, victim) {
		entries = append(entries, e)
	}
	for _, e := range entries {
		k := e.choice.key()
		for _, d := range e.deps {
			r.graph.unbind(e.choice, s.num, solverMapping, d)
			s.removeSolvedBy(k, d)
			ds, ok := s.unresolved.Get(d.ID())
			if !ok {
				continue
			}
			if _, ok := ds.solvers.Get(k); !ok {
				r.invariant("solver %s of %s missing in step %d", e.choice, universe.DepString(d), s.num)
				continue
			}
			ds.solvers = ds.solvers.Delete(k)
			ds.structural = ds.structural.Union(reasons)
			s.setDep(ds)
			r.checkSolversTier(s, ds)
		}
	}
}

func (r *Resolver) addNewUnresolvedDeps(s *step, c Choice) {
	if c.kind != InstallVersion {
		return
	}
	inst := installation{actions: s.actions, initial: r.initial}
	check := func(d universe.Dep) {
		if !universe.BrokenUnder(d, inst) {
			return
		}
		if d.IsSoft() && s.actions.Contains(Break(d)) {
			return
		}
		r.addUnresolvedDep(s, d)
	}
	old := r.initial.VersionOf(c.ver.Package())
	for d := range old.RevDeps() {
		check(d)
	}
	for d := range c.ver.RevDeps() {
		check(d)
	}
	for d := range c.ver.Deps() {
		check(d)
	}
}

// addUnresolvedDep records every way of solving d in s.
func (r *Resolver) addUnresolvedDep(s *step, d universe.Dep) {
	if _, ok := s.unresolved.Get(d.ID()); ok {
		return
	}
	ds := depSolvers{
		dep:     d,
		solvers: newSolverMap(),
	}
	for v := range d.Solvers() {
		r.addSolver(s, &ds, InstallFor(v, d))
	}
	if d.IsSoft() {
		r.addSolver(s, &ds, Break(d))
	} else {
		src := d.Source()
		for v := range src.Package().Versions() {
			if v.ID() != src.ID() {
				r.addSolver(s, &ds, InstallFromDepSource(v, d))
			}
		}
	}
	s.setDep(ds)
	r.findPromotionsForDepSolvers(s, d)
	if ds, ok := s.unresolved.Get(d.ID()); ok {
		r.checkSolversTier(s, ds)
	}
}

func (r *Resolver) addSolver(s *step, ds *depSolvers, c Choice) {
	if c.kind == InstallVersion {
		if sel, ok := s.actions.InstallOf(c.ver.Package()); ok {
			if sel.ver.ID() == c.ver.ID() {
				r.invariant("%s solves %s but is already installed in step %d", universe.VersionString(sel.ver), universe.DepString(ds.dep), s.num)
				return
			}
			ds.structural = ds.structural.InsertOrNarrow(sel)
			return
		}
		if why, ok := s.forbidden.Get(c.ver.ID()); ok {
			ds.structural = ds.structural.InsertOrNarrow(why)
			return
		}
	}
	t, valid, f := r.solverTier(c)
	ds.solvers = ds.solvers.Set(c.key(), solverInfo{choice: c, tier: t, valid: valid, deferral: f})
	s.addSolvedBy(c, ds.dep)
	r.graph.bind(c, s.num, solverMapping, ds.dep)
}

// solverTier is the tier of c before anything is learned about it.
func (r *Resolver) solverTier(c Choice) (Tier, *Condition, *formula) {
	f := r.deferrals.formulaFor(c)
	if f.value {
		return DeferTier, conditionOf(f), f
	}
	if c.kind == InstallVersion {
		return r.versionTiers[c.ver.ID()], nil, f
	}
	return MinimumTier, nil, f
}
