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
	"iter"
	"strings"

	"github.com/rancher-sandbox/pkgresolver/internal/universe"
)

// Solution is a complete set of choices under which no dependency is broken,
// save the soft ones it explicitly leaves broken.
type Solution struct {
	choices ChoiceSet
	initial *universe.InitialState
	score   int
	tier    Tier
}

// Choices returns the actions of the solution.
func (s *Solution) Choices() ChoiceSet { return s.choices }

func (s *Solution) Score() int { return s.score }
func (s *Solution) Tier() Tier { return s.tier }

// VersionOf implements universe.Installation: the chosen version when the
// solution changes p, the initial one otherwise.
func (s *Solution) VersionOf(p universe.Package) universe.Version {
	if v, ok := s.choices.VersionOf(p); ok {
		return v
	}
	return s.initial.VersionOf(p)
}

// Installs yields the versions the solution installs in the order they were
// chosen.
func (s *Solution) Installs() iter.Seq[universe.Version] {
	return func(yield func(universe.Version) bool) {
		for c := range s.choices.All() {
			if c.kind == InstallVersion && !yield(c.ver) {
				return
			}
		}
	}
}

// Changes yields the packages the solution changes with their new version.
func (s *Solution) Changes() iter.Seq2[universe.Package, universe.Version] {
	return func(yield func(universe.Package, universe.Version) bool) {
		for v := range s.Installs() {
			if !yield(v.Package(), v) {
				return
			}
		}
	}
}

// BrokenSoftDeps yields the soft dependencies the solution leaves broken.
func (s *Solution) BrokenSoftDeps() iter.Seq[universe.Dep] {
	return func(yield func(universe.Dep) bool) {
		for c := range s.choices.All() {
			if c.kind == BreakSoftDep && !yield(c.dep) {
				return
			}
		}
	}
}

func (s *Solution) String() string {
	var parts []string
	for c := range s.choices.All() {
		if c.kind == InstallVersion {
			parts = append(parts, universe.VersionString(c.ver))
		} else {
			parts = append(parts, "break "+universe.DepString(c.dep))
		}
	}
	return "<" + strings.Join(parts, ", ") + ">"
}
