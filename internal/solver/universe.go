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

package solver

import (
	"fmt"
	"iter"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"

	pkg "github.com/rancher-sandbox/pkgresolver/internal/package"
	"github.com/rancher-sandbox/pkgresolver/internal/universe"
)

const (
	// AbsentVersion names the version standing for "not installed".
	AbsentVersion = "absent"
	// RequestPackage is the synthetic package holding the requested changes
	// as dependencies. It has a single, installed version.
	RequestPackage = "@request"
)

type relKind int

const (
	relDepends relKind = iota
	relOptional
	relConflicts
	relRequest
)

// Universe is the resolver view of a PkgDB. Every base package becomes a
// package whose first version is AbsentVersion, followed by the database
// entries in ascending semver order. Relations that nothing satisfies are
// kept as dependencies without solvers and reported as inconsistencies.
type Universe struct {
	pkgs   []*basePkg
	vers   []*pkgVersion
	deps   []*relDep
	byName map[string]*basePkg

	Inconsistencies []string
}

type basePkg struct {
	id       int
	name     string
	bfp      string
	versions []*pkgVersion
	current  *pkgVersion
}

type pkgVersion struct {
	id      int
	name    string
	base    *basePkg
	pkg     *pkg.Pkg // nil for absent and request versions
	deps    []*relDep
	revdeps []*relDep
}

type relDep struct {
	id      int
	kind    relKind
	source  *pkgVersion
	solvers []*pkgVersion
	rel     *pkg.PkgRel
}

// NewUniverse builds the resolver view of db.
func NewUniverse(db *PkgDB) *Universe {
	u := &Universe{byName: map[string]*basePkg{}}
	byBase := map[string]*basePkg{}

	for _, bfp := range db.BaseFingerPrints() {
		pkgs := db.GetOrderedPackagesByBaseFingerPrint(bfp)
		b := u.addBase(displayName(pkgs[0].Name, pkgs[0].Namespace), bfp)
		byBase[bfp] = b
		b.current = u.addVersion(b, AbsentVersion, nil)
		var installed []*pkgVersion
		for _, p := range pkgs {
			v := u.addVersion(b, p.Version, p)
			if p.CurrentState == pkg.Present {
				installed = append(installed, v)
			}
		}
		if len(installed) > 0 {
			b.current = installed[len(installed)-1]
		}
		if len(installed) > 1 {
			u.inconsistent("Package %s has %d versions installed, considering %s the current one",
				b.name, len(installed), b.current.name)
		}
	}

	for _, b := range u.pkgs {
		for _, v := range b.versions {
			if v.pkg == nil {
				continue
			}
			u.addRelations(byBase, v, relDepends, v.pkg.DependsRel)
			u.addRelations(byBase, v, relOptional, v.pkg.DependsOptionalRel)
			u.addRelations(byBase, v, relConflicts, v.pkg.ConflictsRel)
		}
	}

	u.addRequests()
	return u
}

func displayName(name, ns string) string {
	if ns == "" {
		return name
	}
	return ns + "/" + name
}

func (u *Universe) inconsistent(format string, args ...interface{}) {
	u.Inconsistencies = append(u.Inconsistencies, fmt.Sprintf(format, args...))
}

func (u *Universe) addBase(name, bfp string) *basePkg {
	b := &basePkg{id: len(u.pkgs), name: name, bfp: bfp}
	u.pkgs = append(u.pkgs, b)
	u.byName[name] = b
	return b
}

func (u *Universe) addVersion(b *basePkg, name string, p *pkg.Pkg) *pkgVersion {
	v := &pkgVersion{id: len(u.vers), name: name, base: b, pkg: p}
	if p != nil {
		p.ID = v.id
	}
	u.vers = append(u.vers, v)
	b.versions = append(b.versions, v)
	return v
}

func (u *Universe) addDep(kind relKind, src *pkgVersion, rel *pkg.PkgRel, solvers []*pkgVersion) *relDep {
	d := &relDep{id: len(u.deps), kind: kind, source: src, rel: rel, solvers: solvers}
	for _, s := range solvers {
		s.revdeps = append(s.revdeps, d)
	}
	src.deps = append(src.deps, d)
	u.deps = append(u.deps, d)
	return d
}

func (u *Universe) addRelations(byBase map[string]*basePkg, v *pkgVersion, kind relKind, rels []*pkg.PkgRel) {
	for _, rel := range rels {
		target, known := byBase[rel.BaseFingerPrint()]
		if known && target == v.base {
			u.inconsistent("Package %s relates to its own package %s, ignoring", v.pkg.GetFingerPrint(), rel)
			continue
		}
		c, err := rel.Constraint()
		if err != nil {
			u.inconsistent("Package %s: %s", v.pkg.GetFingerPrint(), err)
			continue
		}
		var matching, others []*pkgVersion
		if known {
			for _, tv := range target.versions {
				if tv.pkg != nil && satisfies(c, tv.name) {
					matching = append(matching, tv)
				} else {
					others = append(others, tv)
				}
			}
		}
		switch kind {
		case relConflicts:
			if len(matching) == 0 {
				continue
			}
			u.addDep(kind, v, rel, others)
		default:
			if len(matching) == 0 {
				u.inconsistent("Package %s depends on %s, semver %s, but nothing satisfies it",
					v.pkg.GetFingerPrint(), rel.BaseFingerPrint(), rel.SemverRange)
			}
			u.addDep(kind, v, rel, matching)
		}
	}
}

// addRequests creates the request package when any package has a desired
// state: present asks for that version, absent for any other version of its
// package.
func (u *Universe) addRequests() {
	var present, absent []*pkgVersion
	for _, v := range u.vers {
		if v.pkg == nil {
			continue
		}
		switch v.pkg.DesiredState {
		case pkg.Present:
			present = append(present, v)
		case pkg.Absent:
			absent = append(absent, v)
		}
	}
	if len(present)+len(absent) == 0 {
		return
	}
	b := u.addBase(RequestPackage, RequestPackage)
	req := u.addVersion(b, "1", nil)
	b.current = req
	for _, v := range present {
		u.addDep(relRequest, req, nil, []*pkgVersion{v})
	}
	for _, v := range absent {
		var others []*pkgVersion
		for _, o := range v.base.versions {
			if o != v {
				others = append(others, o)
			}
		}
		u.addDep(relRequest, req, nil, others)
	}
}

// LookupPackage finds a package by its display name ("name" or "ns/name").
func (u *Universe) LookupPackage(name string) (universe.Package, bool) {
	b, ok := u.byName[name]
	if !ok {
		return nil, false
	}
	return b, true
}

// LookupVersion resolves a "name=version" reference. The version may be
// AbsentVersion.
func (u *Universe) LookupVersion(ref string) (universe.Version, error) {
	name, ver, ok := strings.Cut(ref, "=")
	if !ok {
		return nil, errors.Errorf("version reference %q is not of the form name=version", ref)
	}
	b, found := u.byName[name]
	if !found {
		return nil, errors.Errorf("unknown package %q", name)
	}
	for _, v := range b.versions {
		if v.name == ver {
			return v, nil
		}
	}
	return nil, errors.Errorf("package %s has no version %q", name, ver)
}

// LookupDep resolves a "name=version>target" reference to the dependency of
// that version on the target package.
func (u *Universe) LookupDep(ref string) (universe.Dep, error) {
	src, target, ok := strings.Cut(ref, ">")
	if !ok {
		return nil, errors.Errorf("dependency reference %q is not of the form name=version>target", ref)
	}
	v, err := u.LookupVersion(src)
	if err != nil {
		return nil, err
	}
	for _, d := range v.(*pkgVersion).deps {
		if d.rel != nil && displayName(d.rel.Name, d.rel.Namespace) == target {
			return d, nil
		}
	}
	return nil, errors.Errorf("%s has no relation on %s", src, target)
}

// PkgOf returns the database entry behind v, or nil for absent and request
// versions.
func (u *Universe) PkgOf(v universe.Version) *pkg.Pkg {
	return u.vers[v.ID()].pkg
}

// IsRequest reports whether d is one of the requested changes.
func (u *Universe) IsRequest(d universe.Dep) bool {
	return u.deps[d.ID()].kind == relRequest
}

func (u *Universe) Packages() iter.Seq[universe.Package] {
	return func(yield func(universe.Package) bool) {
		for _, b := range u.pkgs {
			if !yield(b) {
				return
			}
		}
	}
}

func (u *Universe) Deps() iter.Seq[universe.Dep] {
	return func(yield func(universe.Dep) bool) {
		for _, d := range u.deps {
			if !yield(d) {
				return
			}
		}
	}
}

func (u *Universe) PackageCount() int { return len(u.pkgs) }
func (u *Universe) VersionCount() int { return len(u.vers) }

func (b *basePkg) ID() int                   { return b.id }
func (b *basePkg) Name() string              { return b.name }
func (b *basePkg) Current() universe.Version { return b.current }

func (b *basePkg) Versions() iter.Seq[universe.Version] {
	return func(yield func(universe.Version) bool) {
		for _, v := range b.versions {
			if !yield(v) {
				return
			}
		}
	}
}

func (v *pkgVersion) ID() int                   { return v.id }
func (v *pkgVersion) Name() string              { return v.name }
func (v *pkgVersion) Package() universe.Package { return v.base }
func (v *pkgVersion) Deps() iter.Seq[universe.Dep] {
	return relSeq(v.deps)
}
func (v *pkgVersion) RevDeps() iter.Seq[universe.Dep] {
	return relSeq(v.revdeps)
}

func (d *relDep) ID() int                  { return d.id }
func (d *relDep) Source() universe.Version { return d.source }
func (d *relDep) IsSoft() bool             { return d.kind == relOptional }
func (d *relDep) String() string           { return universe.DepString(d) }

func (d *relDep) Solvers() iter.Seq[universe.Version] {
	return func(yield func(universe.Version) bool) {
		for _, s := range d.solvers {
			if !yield(s) {
				return
			}
		}
	}
}

func (d *relDep) SolvedBy(v universe.Version) bool {
	for _, s := range d.solvers {
		if s.id == v.ID() {
			return true
		}
	}
	return false
}

func satisfies(c *semver.Constraints, version string) bool {
	v, err := semver.NewVersion(version)
	if err != nil {
		return false
	}
	return c.Check(v)
}

func relSeq(deps []*relDep) iter.Seq[universe.Dep] {
	return func(yield func(universe.Dep) bool) {
		for _, d := range deps {
			if !yield(d) {
				return
			}
		}
	}
}
