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

type mapping uint8

const (
	actionMapping mapping = iota
	solverMapping
)

type binding struct {
	step   int
	how    mapping
	effect choiceKey
	dep    int
}

type relatedBinding struct {
	binding
	choice Choice
}

// searchGraph owns the steps and indexes which steps use which choice as an
// action or as a solver.
type searchGraph struct {
	steps     []*step
	index     map[targetKey]map[binding]Choice
	scheduled map[int]bool
}

func newSearchGraph() *searchGraph {
	return &searchGraph{
		index:     map[targetKey]map[binding]Choice{},
		scheduled: map[int]bool{},
	}
}

func (g *searchGraph) step(n int) *step { return g.steps[n] }

func (g *searchGraph) addRoot() *step {
	s := newRootStep(len(g.steps))
	g.steps = append(g.steps, s)
	return s
}

func (g *searchGraph) addChild(parent *step) *step {
	s := &step{num: len(g.steps), parent: parent.num, cloneOf: -1}
	s.inherit(parent)
	g.steps = append(g.steps, s)
	parent.children = append(parent.children, s.num)
	return s
}

func (g *searchGraph) bind(c Choice, stepNum int, how mapping, d universe.Dep) {
	tk := c.targetKey()
	m, ok := g.index[tk]
	if !ok {
		m = map[binding]Choice{}
		g.index[tk] = m
	}
	m[binding{step: stepNum, how: how, effect: c.key(), dep: depID(d)}] = c
}

func (g *searchGraph) unbind(c Choice, stepNum int, how mapping, d universe.Dep) {
	if m, ok := g.index[c.targetKey()]; ok {
		delete(m, binding{step: stepNum, how: how, effect: c.key(), dep: depID(d)})
	}
}

// indexContents binds every action and solver of s.
func (g *searchGraph) indexContents(s *step) {
	for c := range s.actions.Sorted() {
		g.bind(c, s.num, actionMapping, c.dep)
	}
	for ds := range s.deps() {
		for si := range ds.each() {
			g.bind(si.choice, s.num, solverMapping, ds.dep)
		}
	}
}

// related returns the bindings c subsumes, limited to dependency d when it is
// not nil, ordered by step.
func (g *searchGraph) related(c Choice, d universe.Dep) []relatedBinding {
	var out []relatedBinding
	for b, bc := range g.index[c.targetKey()] {
		if d != nil && b.dep != d.ID() {
			continue
		}
		if c.Subsumes(bc) {
			out = append(out, relatedBinding{binding: b, choice: bc})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.step != b.step {
			return a.step < b.step
		}
		if a.how != b.how {
			return a.how < b.how
		}
		if r := a.effect.compare(b.effect); r != 0 {
			return r < 0
		}
		return a.dep < b.dep
	})
	return out
}

// schedule records p for the subtree of step n and, when it improves on what
// was known, asks for the parent to be revisited.
func (g *searchGraph) schedule(n int, p Promotion) {
	s := g.steps[n]
	if s.promotion != nil && s.promotion.Holds() && !s.promotion.Tier.Less(p.Tier) {
		return
	}
	s.promotion = &p
	if s.parent >= 0 {
		g.scheduled[s.parent] = true
	}
}

// nextScheduled pops the deepest scheduled step so children are settled
// before their parents.
func (g *searchGraph) nextScheduled() (int, bool) {
	best := -1
	for n := range g.scheduled {
		if n > best {
			best = n
		}
	}
	if best < 0 {
		return 0, false
	}
	delete(g.scheduled, best)
	return best, true
}

func (g *searchGraph) addClone(canonical, clone int) {
	g.steps[clone].cloneOf = canonical
	g.steps[canonical].clones = append(g.steps[canonical].clones, clone)
}

func (g *searchGraph) clear() {
	*g = *newSearchGraph()
}
