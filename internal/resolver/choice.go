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
	"fmt"

	"github.com/rancher-sandbox/pkgresolver/internal/universe"
)

// ChoiceKind tells what a Choice does.
type ChoiceKind uint8

const (
	// InstallVersion installs a version.
	InstallVersion ChoiceKind = iota
	// BreakSoftDep leaves a soft dependency broken.
	BreakSoftDep
)

func (k ChoiceKind) String() string {
	if k == BreakSoftDep {
		return "break"
	}
	return "install"
}

// Choice is one decision the resolver can make. An install choice may carry
// the dependency it was made to solve; when it is marked as coming from the
// dependency's source it is a different version of the package doing the
// requiring, and it only means something together with that dependency.
//
// The id records the position of the choice in the action set of a step. It
// does not take part in comparisons.
type Choice struct {
	kind          ChoiceKind
	ver           universe.Version
	dep           universe.Dep
	fromDepSource bool
	id            int
}

// Install installs v without naming a dependency.
func Install(v universe.Version) Choice {
	return Choice{kind: InstallVersion, ver: v, id: -1}
}

// InstallFor installs v to solve d.
func InstallFor(v universe.Version, d universe.Dep) Choice {
	return Choice{kind: InstallVersion, ver: v, dep: d, id: -1}
}

// InstallFromDepSource installs v, a version of d's source package, to move
// away from d's source.
func InstallFromDepSource(v universe.Version, d universe.Dep) Choice {
	return Choice{kind: InstallVersion, ver: v, dep: d, fromDepSource: true, id: -1}
}

// Break leaves the soft dependency d broken.
func Break(d universe.Dep) Choice {
	return Choice{kind: BreakSoftDep, dep: d, id: -1}
}

func (c Choice) Kind() ChoiceKind { return c.kind }

// Version is the installed version; nil for a break.
func (c Choice) Version() universe.Version { return c.ver }

// Dep is the dependency the choice was made for, if any.
func (c Choice) Dep() universe.Dep { return c.dep }

func (c Choice) HasDep() bool        { return c.dep != nil }
func (c Choice) FromDepSource() bool { return c.fromDepSource }
func (c Choice) ID() int             { return c.id }

// WithID returns a copy of c carrying id.
func (c Choice) WithID(id int) Choice {
	c.id = id
	return c
}

// WithDep returns a copy of c made for d.
func (c Choice) WithDep(d universe.Dep) Choice {
	c.dep = d
	return c
}

// Package is the package the choice touches: the installed version's package
// or the broken dependency's source package.
func (c Choice) Package() universe.Package {
	if c.kind == InstallVersion {
		return c.ver.Package()
	}
	return c.dep.Source().Package()
}

// Subsumes reports whether c is at least as general as o, so that any state
// containing c also satisfies o.
func (c Choice) Subsumes(o Choice) bool {
	if c.kind != o.kind {
		return false
	}
	if c.kind == BreakSoftDep {
		return universe.SameDep(c.dep, o.dep)
	}
	if !universe.SameVersion(c.ver, o.ver) {
		return false
	}
	if !c.fromDepSource {
		return true
	}
	return o.fromDepSource && universe.SameDep(c.dep, o.dep)
}

// Generalize drops the dependency context of an install choice.
func (c Choice) Generalize() Choice {
	if c.kind == InstallVersion {
		c.dep = nil
		c.fromDepSource = false
	}
	return c
}

// SameEffect reports whether c and o change the world in the same way.
func (c Choice) SameEffect(o Choice) bool {
	return c.key() == o.key()
}

// Compare orders choices by identity, dependency included.
func (c Choice) Compare(o Choice) int {
	if r := c.key().compare(o.key()); r != 0 {
		return r
	}
	return cmp.Compare(depID(c.dep), depID(o.dep))
}

func (c Choice) String() string {
	switch {
	case c.kind == BreakSoftDep:
		return fmt.Sprintf("Break %s", universe.DepString(c.dep))
	case c.fromDepSource:
		return fmt.Sprintf("Install(%s <source: %s>)", universe.VersionString(c.ver), universe.DepString(c.dep))
	case c.dep != nil:
		return fmt.Sprintf("Install(%s <%s>)", universe.VersionString(c.ver), universe.DepString(c.dep))
	}
	return fmt.Sprintf("Install(%s)", universe.VersionString(c.ver))
}

func depID(d universe.Dep) int {
	if d == nil {
		return -1
	}
	return d.ID()
}

// choiceKey identifies a choice by effect. Install keys sort by version, the
// plain install first and the source-bound ones after it, so every key a
// plain install subsumes is in one contiguous run.
type choiceKey struct {
	kind    ChoiceKind
	target  int
	fromSrc bool
	dep     int
}

func (c Choice) key() choiceKey {
	if c.kind == BreakSoftDep {
		return choiceKey{kind: BreakSoftDep, target: c.dep.ID(), dep: -1}
	}
	k := choiceKey{kind: InstallVersion, target: c.ver.ID(), dep: -1}
	if c.fromDepSource {
		k.fromSrc = true
		k.dep = c.dep.ID()
	}
	return k
}

func (k choiceKey) compare(o choiceKey) int {
	if r := cmp.Compare(k.kind, o.kind); r != 0 {
		return r
	}
	if r := cmp.Compare(k.target, o.target); r != 0 {
		return r
	}
	if k.fromSrc != o.fromSrc {
		if !k.fromSrc {
			return -1
		}
		return 1
	}
	return cmp.Compare(k.dep, o.dep)
}

type keyComparer struct{}

func (keyComparer) Compare(a, b choiceKey) int { return a.compare(b) }

// deferralKey is like choiceKey but keeps the dependency of plain installs:
// whether installing a version is deferred depends on what it is for.
type deferralKey struct {
	choiceKey
	forDep int
}

func (c Choice) deferralKey() deferralKey {
	return deferralKey{choiceKey: c.key(), forDep: depID(c.dep)}
}
