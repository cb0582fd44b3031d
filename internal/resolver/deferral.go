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
)

// The user's constraints feed a small graph of boolean formulas, one per
// solver choice, that says whether the choice is deferred. Inputs are changed
// with set; flush re-evaluates what the change touched and reports which
// formulas flipped.

type input struct {
	value     bool
	listeners []*formula
}

// flagPair holds the two inputs of a version (rejected, mandated) or of a
// soft dependency (hardened, approved broken).
type flagPair struct {
	forbid  *input
	approve *input
}

type formula struct {
	id     int
	choice Choice
	// forbid and approve are the choice's own inputs; alternatives are the
	// approval inputs of choices that compete with it.
	forbid       *input
	approve      *input
	alternatives []*input
	value        bool
	dirty        bool
}

func (f *formula) eval() bool {
	if f.forbid.value {
		return true
	}
	if f.approve.value {
		return false
	}
	for _, a := range f.alternatives {
		if a.value {
			return true
		}
	}
	return false
}

type deferrals struct {
	versions map[int]*flagPair
	deps     map[int]*flagPair
	memo     map[deferralKey]*formula
	dirty    []*formula
	nextID   int
}

func newDeferrals() *deferrals {
	return &deferrals{
		versions: map[int]*flagPair{},
		deps:     map[int]*flagPair{},
		memo:     map[deferralKey]*formula{},
	}
}

func pairIn(m map[int]*flagPair, id int) *flagPair {
	p, ok := m[id]
	if !ok {
		p = &flagPair{forbid: &input{}, approve: &input{}}
		m[id] = p
	}
	return p
}

func (d *deferrals) version(id int) *flagPair { return pairIn(d.versions, id) }
func (d *deferrals) dep(id int) *flagPair     { return pairIn(d.deps, id) }

// lookup returns the formula of c if one was built.
func (d *deferrals) lookup(c Choice) *formula {
	return d.memo[c.deferralKey()]
}

// formulaFor returns the deferral formula of c, which must carry a dependency.
//
// Installing v for d is deferred when v is rejected, or when v is not
// mandated and a competing solver of d is mandated or, for a soft d, when
// leaving d broken is approved. Breaking d is deferred when d is hardened, or
// when it is not approved broken and one of its solvers is mandated.
func (d *deferrals) formulaFor(c Choice) *formula {
	k := c.deferralKey()
	if f, ok := d.memo[k]; ok {
		return f
	}
	f := &formula{id: d.nextID, choice: c}
	d.nextID++
	dep := c.dep
	switch c.kind {
	case InstallVersion:
		self := d.version(c.ver.ID())
		f.forbid, f.approve = self.forbid, self.approve
		if !c.fromDepSource {
			for s := range dep.Solvers() {
				if s.ID() != c.ver.ID() {
					f.alternatives = append(f.alternatives, d.version(s.ID()).approve)
				}
			}
		}
		if dep.IsSoft() {
			f.alternatives = append(f.alternatives, d.dep(dep.ID()).approve)
		}
	case BreakSoftDep:
		self := d.dep(dep.ID())
		f.forbid, f.approve = self.forbid, self.approve
		for s := range dep.Solvers() {
			f.alternatives = append(f.alternatives, d.version(s.ID()).approve)
		}
	}
	for _, in := range f.inputs() {
		in.listeners = append(in.listeners, f)
	}
	f.value = f.eval()
	d.memo[k] = f
	return f
}

func (f *formula) inputs() []*input {
	return append([]*input{f.forbid, f.approve}, f.alternatives...)
}

// set changes an input and marks the formulas reading it. It reports whether
// the value changed.
func (d *deferrals) set(in *input, value bool) bool {
	if in.value == value {
		return false
	}
	in.value = value
	for _, f := range in.listeners {
		if !f.dirty {
			f.dirty = true
			d.dirty = append(d.dirty, f)
		}
	}
	return true
}

// flush re-evaluates dirty formulas and returns those whose value changed,
// ordered by creation.
func (d *deferrals) flush() []*formula {
	var flipped []*formula
	for _, f := range d.dirty {
		f.dirty = false
		if v := f.eval(); v != f.value {
			f.value = v
			flipped = append(flipped, f)
		}
	}
	d.dirty = d.dirty[:0]
	sort.Slice(flipped, func(i, j int) bool { return flipped[i].id < flipped[j].id })
	return flipped
}

// Condition is a conjunction of deferral formulas. A tier or a promotion
// carrying a condition only stands while the condition holds. A nil
// Condition always holds.
type Condition struct {
	terms []*formula
}

func conditionOf(f *formula) *Condition {
	return &Condition{terms: []*formula{f}}
}

// Holds reports whether every term is still true.
func (c *Condition) Holds() bool {
	if c == nil {
		return true
	}
	for _, f := range c.terms {
		if !f.value {
			return false
		}
	}
	return true
}

func conjoin(cs ...*Condition) *Condition {
	var out *Condition
	seen := map[int]bool{}
	for _, c := range cs {
		if c == nil {
			continue
		}
		for _, f := range c.terms {
			if seen[f.id] {
				continue
			}
			seen[f.id] = true
			if out == nil {
				out = &Condition{}
			}
			out.terms = append(out.terms, f)
		}
	}
	return out
}
