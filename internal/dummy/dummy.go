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

// Package dummy provides an in-memory universe for tests and examples.
// Packages are declared with their versions (the first one is current) and
// dependencies are declared between versions.
package dummy

import (
	"fmt"
	"iter"
	"slices"

	"github.com/rancher-sandbox/pkgresolver/internal/universe"
)

// World is a mutable universe under construction. It implements
// universe.Universe directly; declare everything before searching it.
type World struct {
	pkgs []*Package
	vers []*Version
	deps []*Dep
}

type Package struct {
	id       int
	name     string
	versions []*Version
	current  *Version
}

type Version struct {
	id      int
	name    string
	pkg     *Package
	deps    []*Dep
	revdeps []*Dep
}

type Dep struct {
	id      int
	source  *Version
	solvers []*Version
	soft    bool
}

func New() *World {
	return &World{}
}

// AddPackage declares a package with the named versions. The first version is
// the current one.
func (w *World) AddPackage(name string, versions ...string) *Package {
	if len(versions) == 0 {
		panic(fmt.Sprintf("package %s needs at least one version", name))
	}
	p := &Package{id: len(w.pkgs), name: name}
	for _, vn := range versions {
		v := &Version{id: len(w.vers), name: vn, pkg: p}
		w.vers = append(w.vers, v)
		p.versions = append(p.versions, v)
	}
	p.current = p.versions[0]
	w.pkgs = append(w.pkgs, p)
	return p
}

// AddDep declares that src requires one of solvers.
func (w *World) AddDep(src universe.Version, soft bool, solvers ...universe.Version) *Dep {
	d := &Dep{id: len(w.deps), source: w.own(src), soft: soft}
	for _, s := range solvers {
		sv := w.own(s)
		d.solvers = append(d.solvers, sv)
		sv.revdeps = append(sv.revdeps, d)
	}
	d.source.deps = append(d.source.deps, d)
	w.deps = append(w.deps, d)
	return d
}

// AddConflict declares that src cannot be installed together with any of the
// target versions: it requires one of the other versions of their packages.
func (w *World) AddConflict(src universe.Version, targets ...universe.Version) []*Dep {
	byPkg := map[*Package][]*Version{}
	var order []*Package
	for _, t := range targets {
		tv := w.own(t)
		if _, ok := byPkg[tv.pkg]; !ok {
			order = append(order, tv.pkg)
		}
		byPkg[tv.pkg] = append(byPkg[tv.pkg], tv)
	}
	var deps []*Dep
	for _, p := range order {
		var solvers []universe.Version
		for _, v := range p.versions {
			if !slices.Contains(byPkg[p], v) {
				solvers = append(solvers, v)
			}
		}
		deps = append(deps, w.AddDep(src, false, solvers...))
	}
	return deps
}

// Build returns w as a universe. It exists so that test setup reads as a
// declaration followed by use.
func (w *World) Build() universe.Universe {
	return w
}

// Package looks a package up by name.
func (w *World) Package(name string) *Package {
	for _, p := range w.pkgs {
		if p.name == name {
			return p
		}
	}
	panic(fmt.Sprintf("no package %s", name))
}

func (w *World) own(v universe.Version) *Version {
	dv, ok := v.(*Version)
	if !ok || dv.id >= len(w.vers) || w.vers[dv.id] != dv {
		panic(fmt.Sprintf("version %v does not belong to this world", v))
	}
	return dv
}

func (w *World) Packages() iter.Seq[universe.Package] {
	return func(yield func(universe.Package) bool) {
		for _, p := range w.pkgs {
			if !yield(p) {
				return
			}
		}
	}
}

func (w *World) Deps() iter.Seq[universe.Dep] {
	return func(yield func(universe.Dep) bool) {
		for _, d := range w.deps {
			if !yield(d) {
				return
			}
		}
	}
}

func (w *World) PackageCount() int { return len(w.pkgs) }
func (w *World) VersionCount() int { return len(w.vers) }

func (p *Package) ID() int                   { return p.id }
func (p *Package) Name() string              { return p.name }
func (p *Package) Current() universe.Version { return p.current }

func (p *Package) Versions() iter.Seq[universe.Version] {
	return func(yield func(universe.Version) bool) {
		for _, v := range p.versions {
			if !yield(v) {
				return
			}
		}
	}
}

// Version looks a version of p up by name.
func (p *Package) Version(name string) universe.Version {
	for _, v := range p.versions {
		if v.name == name {
			return v
		}
	}
	panic(fmt.Sprintf("package %s has no version %s", p.name, name))
}

// SetCurrent changes which version of p is installed now.
func (p *Package) SetCurrent(name string) {
	p.current = p.Version(name).(*Version)
}

func (v *Version) ID() int                   { return v.id }
func (v *Version) Name() string              { return v.name }
func (v *Version) Package() universe.Package { return v.pkg }
func (v *Version) String() string            { return v.pkg.name + " " + v.name }

func (v *Version) Deps() iter.Seq[universe.Dep] {
	return depSeq(v.deps)
}

func (v *Version) RevDeps() iter.Seq[universe.Dep] {
	return depSeq(v.revdeps)
}

func (d *Dep) ID() int                  { return d.id }
func (d *Dep) Source() universe.Version { return d.source }
func (d *Dep) IsSoft() bool             { return d.soft }
func (d *Dep) String() string           { return universe.DepString(d) }

func (d *Dep) Solvers() iter.Seq[universe.Version] {
	return func(yield func(universe.Version) bool) {
		for _, s := range d.solvers {
			if !yield(s) {
				return
			}
		}
	}
}

func (d *Dep) SolvedBy(v universe.Version) bool {
	for _, s := range d.solvers {
		if s.id == v.ID() {
			return true
		}
	}
	return false
}

func depSeq(deps []*Dep) iter.Seq[universe.Dep] {
	return func(yield func(universe.Dep) bool) {
		for _, d := range deps {
			if !yield(d) {
				return
			}
		}
	}
}
