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
	"iter"
	"sort"
)

// InitialState is the installation a search starts from: the current version
// of every package, except where an override hypothesises another one.
type InitialState struct {
	overrides []Version // indexed by package ID, nil means current
	count     int
}

// NewInitialState builds an initial state over u from the given overrides.
// Overrides that name the current version are dropped.
func NewInitialState(u Universe, overrides map[Package]Version) *InitialState {
	s := &InitialState{overrides: make([]Version, u.PackageCount())}
	for p, v := range overrides {
		if v == nil || v.ID() == p.Current().ID() {
			continue
		}
		s.overrides[p.ID()] = v
		s.count++
	}
	return s
}

// VersionOf implements Installation.
func (s *InitialState) VersionOf(p Package) Version {
	if id := p.ID(); id < len(s.overrides) && s.overrides[id] != nil {
		return s.overrides[id]
	}
	return p.Current()
}

// Len is the number of overridden packages.
func (s *InitialState) Len() int {
	return s.count
}

// Overrides yields the hypothesised installations ordered by package ID.
func (s *InitialState) Overrides() iter.Seq2[Package, Version] {
	return func(yield func(Package, Version) bool) {
		for _, v := range s.overrides {
			if v == nil {
				continue
			}
			if !yield(v.Package(), v) {
				return
			}
		}
	}
}

// BrokenDeps returns the dependencies of u broken in inst, ordered by ID.
func BrokenDeps(u Universe, inst Installation) []Dep {
	var broken []Dep
	for d := range u.Deps() {
		if BrokenUnder(d, inst) {
			broken = append(broken, d)
		}
	}
	sort.Slice(broken, func(i, j int) bool { return broken[i].ID() < broken[j].ID() })
	return broken
}
