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
	"sort"

	"github.com/rancher-sandbox/pkgresolver/internal/universe"
)

func (r *Resolver) currentSearchTier() Tier {
	if n, ok := r.pending.first(); ok {
		return r.graph.step(n).tier
	}
	return MinimumTier
}

func (r *Resolver) insertPromotion(p Promotion) {
	if r.promotions.Insert(p) {
		r.logger.Debugf("new promotion %s", p)
		r.promotionQueue = append(r.promotionQueue, p)
	}
}

// addStepPromotion learns p and records it for the subtree of step n.
func (r *Resolver) addStepPromotion(n int, p Promotion) {
	r.insertPromotion(p)
	r.graph.schedule(n, p)
}

// checkSolversTier raises s to the lowest tier among the solvers of ds and
// learns the corresponding promotion.
func (r *Resolver) checkSolversTier(s *step, ds depSolvers) {
	t := MaximumTier
	var reasons ChoiceSet
	var conds []*Condition
	for si := range ds.each() {
		if si.tier.Less(t) {
			t = si.tier
		}
		reasons = reasons.Union(si.reasons)
		conds = append(conds, si.valid)
	}
	reasons = reasons.Union(ds.structural)
	valid := conjoin(conds...)
	if r.currentSearchTier().Less(t) {
		r.addStepPromotion(s.num, Promotion{Choices: reasons, Tier: t, Valid: valid})
	}
	if s.tier.Less(t) {
		r.setStepTier(s, t, valid)
	}
}

// increaseSolverTier applies p to the solvers of s that solver subsumes.
// When only is not nil the change is limited to that dependency. Conflict
// promotions strike the solvers instead.
func (r *Resolver) increaseSolverTier(s *step, p Promotion, solver Choice, only universe.Dep) {
	reasons := p.Choices.Without(solver)
	if p.Tier.AtLeast(ConflictTier) {
		r.strikeChoice(s, solver, reasons)
		return
	}
	var entries []solvedEntry
	for _, e := range subsumedBy(s.solvedBy, solver) {
		entries = append(entries, e)
	}
	for _, e := range entries {
		k := e.choice.key()
		for _, d := range e.deps {
			if only != nil && d.ID() != only.ID() {
				continue
			}
			ds, ok := s.unresolved.Get(d.ID())
			if !ok {
				continue
			}
			si, ok := ds.solvers.Get(k)
			if !ok {
				r.invariant("solver %s of %s missing in step %d", e.choice, universe.DepString(d), s.num)
				continue
			}
			if !si.tier.Less(p.Tier) {
				continue
			}
			si.tier = p.Tier
			si.reasons = reasons
			si.valid = p.Valid
			ds.solvers = ds.solvers.Set(k, si)
			s.setDep(ds)
			r.checkSolversTier(s, ds)
		}
	}
}

func (r *Resolver) findPromotionsForSolver(s *step, solver Choice) {
	found := r.promotions.FindHighestIncipientPromotionsContaining(s.actions, solver, NewChoiceSet(solver))
	if len(found) > 1 {
		r.invariant("%d incipient promotions for the single solver %s", len(found), solver)
	}
	for _, ip := range found {
		r.increaseSolverTier(s, ip.Promotion, ip.Solver, nil)
	}
}

func (r *Resolver) findPromotionsForDepSolvers(s *step, d universe.Dep) {
	ds, ok := s.unresolved.Get(d.ID())
	if !ok {
		return
	}
	for si := range ds.each() {
		r.findPromotionsForSolver(s, si.choice)
	}
}

// findNewIncipientPromotions raises the solvers of s that would complete a
// promotion now that c was taken.
func (r *Resolver) findNewIncipientPromotions(s *step, c Choice) {
	found := r.promotions.FindHighestIncipientPromotionsContaining(s.actions, c, solverDomain{m: s.solvedBy})
	for _, ip := range found {
		r.increaseSolverTier(s, ip.Promotion, ip.Solver, nil)
	}
}

// settle runs graph propagation and pending promotions until neither has
// anything left to do.
func (r *Resolver) settle() {
	for {
		r.runScheduledPropagations()
		if len(r.promotionQueue) == 0 {
			return
		}
		r.processPendingPromotions()
	}
}

func (r *Resolver) processPendingPromotions() {
	for len(r.promotionQueue) > 0 {
		p := r.promotionQueue[0]
		r.promotionQueue = r.promotionQueue[1:]
		r.processPromotion(p)
	}
}

type promotionHits struct {
	actions map[int]bool
	solvers map[int]bool
}

// processPromotion applies p to the steps that already exist: steps that
// contain all of p are promoted, steps that lack exactly one choice of p
// which they hold as a solver get that solver promoted.
func (r *Resolver) processPromotion(p Promotion) {
	if !p.Holds() || p.Choices.Len() == 0 {
		return
	}
	var choices []Choice
	for c := range p.Choices.Sorted() {
		choices = append(choices, c)
	}
	hits := map[int]*promotionHits{}
	for i, c := range choices {
		for _, rb := range r.graph.related(c, nil) {
			h, ok := hits[rb.step]
			if !ok {
				h = &promotionHits{actions: map[int]bool{}, solvers: map[int]bool{}}
				hits[rb.step] = h
			}
			if rb.how == actionMapping {
				h.actions[i] = true
			} else {
				h.solvers[i] = true
			}
		}
	}
	nums := make([]int, 0, len(hits))
	for n := range hits {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	for _, n := range nums {
		h := hits[n]
		s := r.graph.step(n)
		switch {
		case len(h.actions) == len(choices):
			if p.Tier.Equal(AlreadyGeneratedTier) && r.future.contains(n) {
				continue
			}
			if s.tier.Less(p.Tier) {
				r.setStepTier(s, p.Tier, p.Valid)
			}
			r.graph.schedule(n, p)
		case len(h.actions)+1 == len(choices):
			for i, c := range choices {
				if !h.actions[i] && h.solvers[i] {
					r.increaseSolverTier(s, p, c, nil)
				}
			}
		}
	}
}

// runScheduledPropagations hands promotions up the search graph: once every
// child of an expanded step is known to be stuck in some tier, so is the
// step itself.
func (r *Resolver) runScheduledPropagations() {
	for {
		n, ok := r.graph.nextScheduled()
		if !ok {
			return
		}
		parent := r.graph.step(n)
		if parent.expanded == nil || len(parent.children) == 0 {
			continue
		}
		t := MaximumTier
		var choices ChoiceSet
		var conds []*Condition
		complete := true
		for _, cn := range parent.children {
			child := r.graph.step(cn)
			if child.cloneOf >= 0 || child.promotion == nil || !child.promotion.Holds() {
				complete = false
				break
			}
			choices = choices.Union(child.promotion.Choices.Without(child.choice))
			if child.promotion.Tier.Less(t) {
				t = child.promotion.Tier
			}
			conds = append(conds, child.promotion.Valid)
		}
		if !complete {
			continue
		}
		choices = choices.Union(parent.expandReasons)
		if !r.currentSearchTier().Less(t) {
			continue
		}
		if parent.promotion != nil && parent.promotion.Holds() && !parent.promotion.Tier.Less(t) {
			continue
		}
		p := Promotion{Choices: choices, Tier: t, Valid: conjoin(conds...)}
		r.logger.Debugf("propagating %s to step %d", p, n)
		r.addStepPromotion(n, p)
	}
}

// flushDeferrals brings the graph up to date with the user's constraints.
func (r *Resolver) flushDeferrals() {
	for _, f := range r.deferrals.flush() {
		if f.value {
			r.deferralApplied(f)
		} else {
			r.deferralRetracted(f)
		}
	}
	if n := r.promotions.Prune(); n > 0 {
		r.logger.Debugf("dropped %d retracted promotions", n)
	}
	r.settle()
}

func (r *Resolver) deferralApplied(f *formula) {
	c := f.choice
	p := Promotion{Tier: DeferTier, Valid: conditionOf(f)}
	r.logger.Debugf("deferring %s", c)
	for _, rb := range r.graph.related(c, c.dep) {
		s := r.graph.step(rb.step)
		if rb.how == solverMapping {
			r.increaseSolverTier(s, p, rb.choice, c.dep)
		} else if s.tier.Less(DeferTier) {
			r.setStepTier(s, DeferTier, p.Valid)
		}
	}
}

func (r *Resolver) deferralRetracted(f *formula) {
	c := f.choice
	r.logger.Debugf("no longer deferring %s", c)
	for _, rb := range r.graph.related(c, c.dep) {
		if rb.how == solverMapping {
			r.recomputeSolverTier(r.graph.step(rb.step), c.dep, rb.effect)
		}
	}
	nums := r.watchers[f.id]
	delete(r.watchers, f.id)
	sort.Ints(nums)
	for i, n := range nums {
		if i > 0 && nums[i-1] == n {
			continue
		}
		r.recomputeStepTier(r.graph.step(n))
	}
}

func (r *Resolver) resetSolver(s *step, ds depSolvers, k choiceKey) (depSolvers, solverInfo, bool) {
	si, ok := ds.solvers.Get(k)
	if !ok {
		return ds, si, false
	}
	si.tier, si.valid, si.deferral = r.solverTier(si.choice)
	si.reasons = ChoiceSet{}
	ds.solvers = ds.solvers.Set(k, si)
	s.setDep(ds)
	return ds, si, true
}

func (r *Resolver) recomputeSolverTier(s *step, d universe.Dep, k choiceKey) {
	ds, ok := s.unresolved.Get(d.ID())
	if !ok {
		return
	}
	_, si, ok := r.resetSolver(s, ds, k)
	if !ok {
		r.invariant("solver missing from %s in step %d", universe.DepString(d), s.num)
		return
	}
	r.findPromotionsForSolver(s, si.choice)
	r.recomputeStepTier(s)
}

// recomputeStepTier rebuilds the tier of s from what still holds: solver
// tiers whose condition failed go back to their intrinsic value first.
func (r *Resolver) recomputeStepTier(s *step) {
	var reset []Choice
	for ds := range s.deps() {
		for si := range ds.each() {
			if si.valid.Holds() {
				continue
			}
			ds, _, _ = r.resetSolver(s, ds, si.choice.key())
			reset = append(reset, si.choice)
		}
	}
	for _, c := range reset {
		r.findPromotionsForSolver(s, c)
	}

	t := MinimumTier
	var valid *Condition
	raise := func(nt Tier, c *Condition) {
		if t.Less(nt) {
			t, valid = nt, c
		}
	}
	for c := range s.actions.Sorted() {
		if c.kind == InstallVersion {
			raise(r.versionTiers[c.ver.ID()], nil)
		}
		if f := r.deferrals.lookup(c); f != nil && f.value {
			raise(DeferTier, conditionOf(f))
		}
	}
	var p Promotion
	var ok bool
	if r.future.contains(s.num) {
		p, ok = r.promotions.findHighestBelow(s.actions, AlreadyGeneratedTier)
	} else {
		p, ok = r.promotions.FindHighestPromotionFor(s.actions)
	}
	if ok {
		raise(p.Tier, p.Valid)
	}
	for ds := range s.deps() {
		m := MaximumTier
		var conds []*Condition
		for si := range ds.each() {
			if si.tier.Less(m) {
				m = si.tier
			}
			conds = append(conds, si.valid)
		}
		raise(m, conjoin(conds...))
	}
	if !t.Equal(s.tier) || valid != s.tierValid {
		r.setStepTier(s, t, valid)
	}
}
