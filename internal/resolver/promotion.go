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
	"fmt"
	"iter"
	"sort"
)

// Promotion says that every step whose actions imply Choices belongs at least
// to Tier. It only applies while Valid holds.
type Promotion struct {
	Choices ChoiceSet
	Tier    Tier
	Valid   *Condition
}

// NewPromotion builds an unconditional promotion.
func NewPromotion(choices ChoiceSet, tier Tier) Promotion {
	return Promotion{Choices: choices, Tier: tier}
}

// Holds reports whether the promotion still applies.
func (p Promotion) Holds() bool { return p.Valid.Holds() }

func (p Promotion) String() string {
	return fmt.Sprintf("(T%s: %s)", p.Tier, p.Choices)
}

// Domain is a collection of solvers a promotion can be matched against.
// ChoiceSet implements it.
type Domain interface {
	// SubsumedBy yields the solvers that u subsumes.
	SubsumedBy(u Choice) iter.Seq[Choice]
}

// IncipientPromotion is a promotion that one more choice, Solver, would
// complete.
type IncipientPromotion struct {
	Solver    Choice
	Promotion Promotion
}

type targetKey struct {
	kind   ChoiceKind
	target int
}

func (c Choice) targetKey() targetKey {
	k := c.key()
	return targetKey{kind: k.kind, target: k.target}
}

// PromotionSet stores promotions indexed by the versions and dependencies
// they mention.
type PromotionSet struct {
	entries   []*Promotion // nil once pruned
	index     map[targetKey][]int
	empty     []int
	live      int
	conflicts int
}

func NewPromotionSet() *PromotionSet {
	return &PromotionSet{index: map[targetKey][]int{}}
}

// Len is the number of promotions held.
func (ps *PromotionSet) Len() int { return ps.live }

// Conflicts is the number of promotions at or above ConflictTier.
func (ps *PromotionSet) Conflicts() int { return ps.conflicts }

// CountAtOrAbove is the number of promotions of tier t or higher.
func (ps *PromotionSet) CountAtOrAbove(t Tier) int {
	if t.Equal(ConflictTier) {
		return ps.conflicts
	}
	n := 0
	for p := range ps.All() {
		if p.Tier.AtLeast(t) {
			n++
		}
	}
	return n
}

// Insert adds p unless a more general promotion of at least the same tier is
// already known. It reports whether p was added.
func (ps *PromotionSet) Insert(p Promotion) bool {
	if have, ok := ps.find(p.Choices, nil, func(e *Promotion) bool {
		return e.Valid == nil || e.Valid == p.Valid
	}); ok && have.Tier.AtLeast(p.Tier) {
		return false
	}
	id := len(ps.entries)
	ps.entries = append(ps.entries, &p)
	if p.Choices.Len() == 0 {
		ps.empty = append(ps.empty, id)
	}
	seen := map[targetKey]bool{}
	for c := range p.Choices.Sorted() {
		k := c.targetKey()
		if !seen[k] {
			seen[k] = true
			ps.index[k] = append(ps.index[k], id)
		}
	}
	ps.live++
	if p.Tier.AtLeast(ConflictTier) {
		ps.conflicts++
	}
	return true
}

// candidates returns the IDs of promotions that may match, in insertion order.
func (ps *PromotionSet) candidates(actions ChoiceSet, c *Choice) []int {
	if c != nil {
		return ps.index[c.targetKey()]
	}
	var ids []int
	seen := map[int]bool{}
	add := func(list []int) {
		for _, id := range list {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	add(ps.empty)
	for a := range actions.Sorted() {
		add(ps.index[a.targetKey()])
	}
	sort.Ints(ids)
	return ids
}

func mentions(p *Promotion, c Choice) bool {
	for pc := range p.Choices.Sorted() {
		if pc.Subsumes(c) {
			return true
		}
	}
	return false
}

func (ps *PromotionSet) find(actions ChoiceSet, c *Choice, accept func(*Promotion) bool) (Promotion, bool) {
	var best *Promotion
	for _, id := range ps.candidates(actions, c) {
		e := ps.entries[id]
		if e == nil || !e.Holds() || (accept != nil && !accept(e)) {
			continue
		}
		if c != nil && !mentions(e, *c) {
			continue
		}
		if !actions.ImpliesAll(e.Choices) {
			continue
		}
		if best == nil || best.Tier.Less(e.Tier) {
			best = e
		}
	}
	if best == nil {
		return Promotion{}, false
	}
	return *best, true
}

// FindHighestPromotionFor returns the highest-tier promotion whose choices
// are all implied by actions.
func (ps *PromotionSet) FindHighestPromotionFor(actions ChoiceSet) (Promotion, bool) {
	return ps.find(actions, nil, nil)
}

func (ps *PromotionSet) findHighestBelow(actions ChoiceSet, limit Tier) (Promotion, bool) {
	return ps.find(actions, nil, func(e *Promotion) bool { return e.Tier.Less(limit) })
}

// FindHighestPromotionContaining is FindHighestPromotionFor restricted to
// promotions that mention c.
func (ps *PromotionSet) FindHighestPromotionContaining(actions ChoiceSet, c Choice) (Promotion, bool) {
	return ps.find(actions, &c, nil)
}

// FindHighestIncipientPromotionsContaining looks for promotions that mention
// c and that actions implies except for exactly one choice. For each solver
// of domain that the missing choice subsumes it reports the highest such
// promotion. Results are ordered by solver.
func (ps *PromotionSet) FindHighestIncipientPromotionsContaining(actions ChoiceSet, c Choice, domain Domain) []IncipientPromotion {
	best := map[choiceKey]IncipientPromotion{}
	for _, id := range ps.candidates(actions, &c) {
		e := ps.entries[id]
		if e == nil || !e.Holds() || !mentions(e, c) {
			continue
		}
		var missing []Choice
		for pc := range e.Choices.Sorted() {
			if !actions.Implies(pc) {
				missing = append(missing, pc)
				if len(missing) > 1 {
					break
				}
			}
		}
		if len(missing) != 1 {
			continue
		}
		for s := range domain.SubsumedBy(missing[0]) {
			k := s.key()
			if have, ok := best[k]; !ok || have.Promotion.Tier.Less(e.Tier) {
				best[k] = IncipientPromotion{Solver: s, Promotion: *e}
			}
		}
	}
	out := make([]IncipientPromotion, 0, len(best))
	for _, ip := range best {
		out = append(out, ip)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Solver.key().compare(out[j].Solver.key()) < 0 })
	return out
}

// Prune drops promotions whose condition no longer holds and returns how many
// were dropped.
func (ps *PromotionSet) Prune() int {
	n := 0
	for i, e := range ps.entries {
		if e != nil && !e.Holds() {
			ps.drop(i)
			n++
		}
	}
	return n
}

// DropTier removes the promotions of tier t.
func (ps *PromotionSet) DropTier(t Tier) int {
	n := 0
	for i, e := range ps.entries {
		if e != nil && e.Tier.Equal(t) {
			ps.drop(i)
			n++
		}
	}
	return n
}

func (ps *PromotionSet) drop(id int) {
	e := ps.entries[id]
	ps.entries[id] = nil
	ps.live--
	if e.Tier.AtLeast(ConflictTier) {
		ps.conflicts--
	}
}

// All yields the live promotions in insertion order.
func (ps *PromotionSet) All() iter.Seq[Promotion] {
	return func(yield func(Promotion) bool) {
		for _, e := range ps.entries {
			if e != nil && !yield(*e) {
				return
			}
		}
	}
}

func (ps *PromotionSet) Clear() {
	*ps = *NewPromotionSet()
}
