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
	"sort"

	"github.com/Masterminds/log-go"
	"github.com/Masterminds/semver/v3"

	pkg "github.com/rancher-sandbox/pkgresolver/internal/package"
)

// PkgDB implements a database of packages keyed by fingerprint. Packages that
// share a base fingerprint (name and namespace) and only differ in the version
// are also indexed together.
//
// If a package is already present in the database, when adding, it gets
// merged with the existent entry in a way to complete unknown info of that
// package. Adding can therefore happen in any order: e.g. first the installed
// packages, then the repositories, and at last the requested changes.
type PkgDB struct {
	mapFingerprintToPkg map[string]*pkg.Pkg
	// map: BaseFingerprint -> Semver version -> Fingerprint
	mapBaseFingerprintToVersions map[string]map[string]string
}

func NewPkgDB() *PkgDB {
	return &PkgDB{
		mapFingerprintToPkg:          make(map[string]*pkg.Pkg),
		mapBaseFingerprintToVersions: make(map[string]map[string]string),
	}
}

func (pkgdb *PkgDB) GetPackageByFingerprint(fp string) *pkg.Pkg {
	p, ok := pkgdb.mapFingerprintToPkg[fp]
	if !ok {
		return nil
	}
	return p
}

func (pkgdb *PkgDB) GetMapOfVersionsByBaseFingerPrint(basefp string) map[string]string {
	mapOfVersions, ok := pkgdb.mapBaseFingerprintToVersions[basefp]
	if !ok {
		return map[string]string{}
	}
	return mapOfVersions
}

// GetOrderedPackagesByBaseFingerPrint returns the packages of a base in
// ascending semver order.
func (pkgdb *PkgDB) GetOrderedPackagesByBaseFingerPrint(basefp string) []*pkg.Pkg {
	pkgs := []*pkg.Pkg{}
	for _, fp := range pkgdb.GetMapOfVersionsByBaseFingerPrint(basefp) {
		pkgs = append(pkgs, pkgdb.mapFingerprintToPkg[fp])
	}
	sort.Slice(pkgs, func(i, j int) bool {
		return compareVersions(pkgs[i].Version, pkgs[j].Version) < 0
	})
	return pkgs
}

// BaseFingerPrints returns every base fingerprint in the database, sorted.
func (pkgdb *PkgDB) BaseFingerPrints() []string {
	bfps := make([]string, 0, len(pkgdb.mapBaseFingerprintToVersions))
	for bfp := range pkgdb.mapBaseFingerprintToVersions {
		bfps = append(bfps, bfp)
	}
	sort.Strings(bfps)
	return bfps
}

func (pkgdb *PkgDB) Len() int {
	return len(pkgdb.mapFingerprintToPkg)
}

func (pkgdb *PkgDB) DebugPrintDB(logger log.Logger) {
	logger.Debugf("Printing DB")
	for _, bfp := range pkgdb.BaseFingerPrints() {
		for _, p := range pkgdb.GetOrderedPackagesByBaseFingerPrint(bfp) {
			logger.Debug(p.String())
		}
	}
}

// MergePkgs gives you a resulting package that is a copy of the old package,
// where only unknown info is filled from the new one.
func MergePkgs(old pkg.Pkg, new pkg.Pkg) (result *pkg.Pkg) {
	result = &old

	// Merge CurrentState and DesiredState
	// E.g:
	// PACKAGE                     CurrentState   DesiredState
	// old (coming from installed) present        unknown
	// new (coming from changes)   unknown        absent
	// result                      present        absent
	if old.CurrentState == pkg.Unknown {
		result.CurrentState = new.CurrentState
	}
	if old.DesiredState == pkg.Unknown {
		result.DesiredState = new.DesiredState
	}
	result.Pinned = old.Pinned || new.Pinned

	// Merge relation slices
	if len(old.DependsRel) == 0 {
		result.DependsRel = new.DependsRel
	}
	if len(old.DependsOptionalRel) == 0 {
		result.DependsOptionalRel = new.DependsOptionalRel
	}
	if len(old.ConflictsRel) == 0 {
		result.ConflictsRel = new.ConflictsRel
	}
	if old.Repository == "" {
		result.Repository = new.Repository
	}

	return result
}

// Add adds a package to the database. If a package was already present in
// the database, it makes sure to update it, in a way that only unknown info
// to that package is added.
func (pkgdb *PkgDB) Add(p *pkg.Pkg) {
	fp := p.GetFingerPrint()
	pInDB, ok := pkgdb.mapFingerprintToPkg[fp]
	if ok {
		// package already in DB, merge
		pkgdb.mapFingerprintToPkg[fp] = MergePkgs(*pInDB, *p)
	} else {
		// package not there, add it
		pkgdb.mapFingerprintToPkg[fp] = p
	}

	// build map of same versions
	bfp := p.GetBaseFingerPrint()
	_, ok = pkgdb.mapBaseFingerprintToVersions[bfp]
	if !ok { // if pkg first of all packages that differ only in version
		pkgdb.mapBaseFingerprintToVersions[bfp] = make(map[string]string)
	}
	_, ok = pkgdb.mapBaseFingerprintToVersions[bfp][p.Version]
	if !ok {
		// add pkg to map of pkgs that differ only in version:
		pkgdb.mapBaseFingerprintToVersions[bfp][p.Version] = fp
	}
}

// compareVersions orders semver strings, falling back to plain string order
// for anything that does not parse.
func compareVersions(a, b string) int {
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	if errA != nil || errB != nil {
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	}
	return va.Compare(vb)
}
