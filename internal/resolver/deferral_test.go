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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rancher-sandbox/pkgresolver/internal/dummy"
)

func TestDeferralFormulas(t *testing.T) {
	is := assert.New(t)
	w := dummy.New()
	a := w.AddPackage("a", "1")
	b := w.AddPackage("b", "0", "1", "2")
	soft := w.AddDep(a.Version("1"), true, b.Version("1"), b.Version("2"))
	b1, b2 := b.Version("1"), b.Version("2")

	d := newDeferrals()
	inst1 := d.formulaFor(InstallFor(b1, soft))
	inst2 := d.formulaFor(InstallFor(b2, soft))
	brk := d.formulaFor(Break(soft))
	is.Same(inst1, d.formulaFor(InstallFor(b1, soft)), "formulas are memoized")
	is.Same(inst1, d.lookup(InstallFor(b1, soft).WithID(3)))

	// Mandating b1 defers its competitors, the break included.
	is.True(d.set(d.version(b1.ID()).approve, true))
	is.False(d.set(d.version(b1.ID()).approve, true))
	flipped := d.flush()
	is.Equal([]*formula{inst2, brk}, flipped)
	is.False(inst1.value)

	// Approving the break defers every install that is not mandated.
	d.set(d.version(b1.ID()).approve, false)
	d.set(d.dep(soft.ID()).approve, true)
	flipped = d.flush()
	is.Equal([]*formula{inst1, brk}, flipped)
	is.True(inst1.value)
	is.True(inst2.value)
	is.False(brk.value)

	// Hardening overrides the approval of the break itself.
	d.set(d.dep(soft.ID()).forbid, true)
	d.flush()
	is.True(brk.value)

	c := conjoin(conditionOf(inst1), nil, conditionOf(brk), conditionOf(inst1))
	is.Len(c.terms, 2)
	is.True(c.Holds())
	d.set(d.dep(soft.ID()).forbid, false)
	d.flush()
	is.False(c.Holds())
	is.True((*Condition)(nil).Holds())
	is.Nil(conjoin(nil, nil))
}
