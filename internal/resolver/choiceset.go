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
	"iter"
	"sort"
	"strconv"
	"strings"

	"github.com/benbjohnson/immutable"

	"github.com/rancher-sandbox/pkgresolver/internal/universe"
)

type intComparer struct{}

func (intComparer) Compare(a, b int) int { return cmp.Compare(a, b) }

// ChoiceSet is a persistent set of choices in which no element subsumes
// another. Updates return a new set and leave the receiver untouched, so
// steps share structure with their parents.
//
// The zero value is an empty set.
type ChoiceSet struct {
	m *immutable.SortedMap[choiceKey, Choice]
	// byPkg maps a package ID to the last install choice added for it.
	byPkg *immutable.SortedMap[int, Choice]
}

// NewChoiceSet builds a set by narrowing in each of cs.
func NewChoiceSet(cs ...Choice) ChoiceSet {
	var s ChoiceSet
	for _, c := range cs {
		s = s.InsertOrNarrow(c)
	}
	return s
}

func (s ChoiceSet) init() ChoiceSet {
	if s.m == nil {
		s.m = immutable.NewSortedMap[choiceKey, Choice](keyComparer{})
		s.byPkg = immutable.NewSortedMap[int, Choice](intComparer{})
	}
	return s
}

func (s ChoiceSet) Len() int {
	if s.m == nil {
		return 0
	}
	return s.m.Len()
}

// subsumedBy yields the entries of m whose key is subsumed by u.
func subsumedBy[V any](m *immutable.SortedMap[choiceKey, V], u Choice) iter.Seq2[choiceKey, V] {
	return func(yield func(choiceKey, V) bool) {
		if m == nil {
			return
		}
		k := u.key()
		if u.kind == BreakSoftDep || k.fromSrc {
			if v, ok := m.Get(k); ok {
				yield(k, v)
			}
			return
		}
		itr := m.Iterator()
		itr.Seek(k)
		for !itr.Done() {
			ik, v, _ := itr.Next()
			if ik.kind != k.kind || ik.target != k.target {
				return
			}
			if !yield(ik, v) {
				return
			}
		}
	}
}

// SubsumedBy yields the elements that u subsumes.
func (s ChoiceSet) SubsumedBy(u Choice) iter.Seq[Choice] {
	return func(yield func(Choice) bool) {
		for _, c := range subsumedBy(s.m, u) {
			if !yield(c) {
				return
			}
		}
	}
}

// Contains reports whether some element subsumes c.
func (s ChoiceSet) Contains(c Choice) bool {
	if s.m == nil {
		return false
	}
	if c.kind == BreakSoftDep {
		_, ok := s.m.Get(c.key())
		return ok
	}
	if _, ok := s.m.Get(Install(c.ver).key()); ok {
		return true
	}
	if c.fromDepSource {
		_, ok := s.m.Get(c.key())
		return ok
	}
	return false
}

// ContainsAll reports whether every element of o is subsumed by some element
// of s.
func (s ChoiceSet) ContainsAll(o ChoiceSet) bool {
	for c := range o.Sorted() {
		if !s.Contains(c) {
			return false
		}
	}
	return true
}

// Implies reports whether some element of s is subsumed by c, that is,
// whether a state holding s already realises c.
func (s ChoiceSet) Implies(c Choice) bool {
	for range subsumedBy(s.m, c) {
		return true
	}
	return false
}

// ImpliesAll reports whether s implies every element of o.
func (s ChoiceSet) ImpliesAll(o ChoiceSet) bool {
	if o.Len() > s.Len() {
		return false
	}
	for c := range o.Sorted() {
		if !s.Implies(c) {
			return false
		}
	}
	return true
}

// InsertOrNarrow adds c unless an element already subsumes it. Elements that
// c subsumes are replaced by c.
func (s ChoiceSet) InsertOrNarrow(c Choice) ChoiceSet {
	if s.Contains(c) {
		return s
	}
	s = s.init()
	for k := range subsumedBy(s.m, c) {
		s = s.remove(k)
	}
	s.m = s.m.Set(c.key(), c)
	if c.kind == InstallVersion {
		s.byPkg = s.byPkg.Set(c.ver.Package().ID(), c)
	}
	return s
}

func (s ChoiceSet) remove(k choiceKey) ChoiceSet {
	old, ok := s.m.Get(k)
	if !ok {
		return s
	}
	s.m = s.m.Delete(k)
	if old.kind != InstallVersion {
		return s
	}
	pkg := old.ver.Package().ID()
	if cur, ok := s.byPkg.Get(pkg); ok && cur.key() == k {
		s.byPkg = s.byPkg.Delete(pkg)
		for c := range s.Sorted() {
			if c.kind == InstallVersion && c.ver.Package().ID() == pkg {
				s.byPkg = s.byPkg.Set(pkg, c)
			}
		}
	}
	return s
}

// Without removes every element that overlaps c: those c subsumes and those
// subsuming c.
func (s ChoiceSet) Without(c Choice) ChoiceSet {
	if s.m == nil {
		return s
	}
	var keys []choiceKey
	for k := range subsumedBy(s.m, c) {
		keys = append(keys, k)
	}
	if c.kind == InstallVersion {
		keys = append(keys, Install(c.ver).key())
		if c.fromDepSource {
			keys = append(keys, c.key())
		}
	}
	for _, k := range keys {
		s = s.remove(k)
	}
	return s
}

// Union narrows every element of o into s.
func (s ChoiceSet) Union(o ChoiceSet) ChoiceSet {
	if s.Len() == 0 {
		return o
	}
	for c := range o.Sorted() {
		s = s.InsertOrNarrow(c)
	}
	return s
}

// Generalize strips the dependency context of every install choice.
func (s ChoiceSet) Generalize() ChoiceSet {
	var out ChoiceSet
	for c := range s.Sorted() {
		out = out.InsertOrNarrow(c.Generalize())
	}
	return out
}

// VersionOf returns the version s installs for p, if any.
func (s ChoiceSet) VersionOf(p universe.Package) (universe.Version, bool) {
	c, ok := s.InstallOf(p)
	if !ok {
		return nil, false
	}
	return c.ver, true
}

// InstallOf returns the install choice of s for p, with its dependency
// context, if any.
func (s ChoiceSet) InstallOf(p universe.Package) (Choice, bool) {
	if s.byPkg == nil {
		return Choice{}, false
	}
	return s.byPkg.Get(p.ID())
}

// Sorted yields the elements ordered by effect.
func (s ChoiceSet) Sorted() iter.Seq[Choice] {
	return func(yield func(Choice) bool) {
		if s.m == nil {
			return
		}
		itr := s.m.Iterator()
		for !itr.Done() {
			_, c, _ := itr.Next()
			if !yield(c) {
				return
			}
		}
	}
}

// All yields the elements in the order they were chosen.
func (s ChoiceSet) All() iter.Seq[Choice] {
	return func(yield func(Choice) bool) {
		cs := make([]Choice, 0, s.Len())
		for c := range s.Sorted() {
			cs = append(cs, c)
		}
		sort.SliceStable(cs, func(i, j int) bool { return cs[i].id < cs[j].id })
		for _, c := range cs {
			if !yield(c) {
				return
			}
		}
	}
}

// Compare orders sets by size, then element by element.
func (s ChoiceSet) Compare(o ChoiceSet) int {
	if r := cmp.Compare(s.Len(), o.Len()); r != 0 {
		return r
	}
	next, stop := iter.Pull(o.Sorted())
	defer stop()
	for a := range s.Sorted() {
		b, _ := next()
		if r := a.Compare(b); r != 0 {
			return r
		}
	}
	return 0
}

// fingerprint identifies the set's contents, dependencies included.
func (s ChoiceSet) fingerprint() string {
	var sb strings.Builder
	for c := range s.Sorted() {
		k := c.key()
		sb.WriteString(strconv.Itoa(int(k.kind)))
		sb.WriteByte(':')
		sb.WriteString(strconv.Itoa(k.target))
		if k.fromSrc {
			sb.WriteByte('s')
		}
		sb.WriteByte(':')
		sb.WriteString(strconv.Itoa(depID(c.dep)))
		sb.WriteByte(';')
	}
	return sb.String()
}

func (s ChoiceSet) String() string {
	parts := make([]string, 0, s.Len())
	for c := range s.All() {
		parts = append(parts, c.String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
