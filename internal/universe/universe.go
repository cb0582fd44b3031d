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

package universe

import (
	"fmt"
	"iter"
	"strings"
)

// Universe is a closed world of packages and dependencies.
type Universe interface {
	// Packages yields every package, ordered by ID.
	Packages() iter.Seq[Package]
	// Deps yields every dependency, ordered by ID.
	Deps() iter.Seq[Dep]
	PackageCount() int
	VersionCount() int
}

// Package is a named thing with a fixed, ordered list of versions. Exactly one
// version of a package is installed in any Installation; a "not installed"
// state is modelled as a version too.
type Package interface {
	ID() int
	Name() string
	Versions() iter.Seq[Version]
	Current() Version
}

// Version is one installable variant of a package.
type Version interface {
	ID() int
	Name() string
	Package() Package
	// Deps yields the dependencies whose source is this version.
	Deps() iter.Seq[Dep]
	// RevDeps yields dependencies that target this version. For two versions
	// v1 and v2 of the same package and a dependency targeting only one of
	// them, the dependency is listed by v1 or by v2.
	RevDeps() iter.Seq[Dep]
}

// Dep states that when Source is installed one of its solvers must be
// installed too. A soft dependency may be left broken at a cost.
type Dep interface {
	ID() int
	Source() Version
	Solvers() iter.Seq[Version]
	IsSoft() bool
	SolvedBy(v Version) bool
}

// Installation maps every package to its installed version.
type Installation interface {
	VersionOf(p Package) Version
}

// BrokenUnder reports whether d is broken in inst: its source is installed and
// none of its solvers is.
func BrokenUnder(d Dep, inst Installation) bool {
	src := d.Source()
	if inst.VersionOf(src.Package()).ID() != src.ID() {
		return false
	}
	for s := range d.Solvers() {
		if inst.VersionOf(s.Package()).ID() == s.ID() {
			return false
		}
	}
	return true
}

// SameVersion compares versions by identity. Nil only equals nil.
func SameVersion(a, b Version) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.ID() == b.ID()
}

// SameDep compares dependencies by identity. Nil only equals nil.
func SameDep(a, b Dep) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.ID() == b.ID()
}

// VersionString renders "pkg version".
func VersionString(v Version) string {
	if v == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s %s", v.Package().Name(), v.Name())
}

// DepString renders a dependency as "src -> {a | b}", marking soft ones.
func DepString(d Dep) string {
	if d == nil {
		return "<nil>"
	}
	var sb strings.Builder
	sb.WriteString(VersionString(d.Source()))
	if d.IsSoft() {
		sb.WriteString(" -S> {")
	} else {
		sb.WriteString(" -> {")
	}
	first := true
	for s := range d.Solvers() {
		if !first {
			sb.WriteString(" | ")
		}
		first = false
		sb.WriteString(VersionString(s))
	}
	sb.WriteString("}")
	return sb.String()
}
