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

package universe_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rancher-sandbox/pkgresolver/internal/dummy"
	"github.com/rancher-sandbox/pkgresolver/internal/universe"
)

func TestBrokenUnder(t *testing.T) {
	w := dummy.New()
	a := w.AddPackage("a", "1", "2")
	b := w.AddPackage("b", "1", "2")
	d := w.AddDep(a.Version("1"), false, b.Version("2"))
	u := w.Build()

	init := universe.NewInitialState(u, nil)
	assert.True(t, universe.BrokenUnder(d, init), "b 2 is not installed")

	fixed := universe.NewInitialState(u, map[universe.Package]universe.Version{b: b.Version("2")})
	assert.False(t, universe.BrokenUnder(d, fixed))
	assert.Equal(t, 1, fixed.Len())

	moved := universe.NewInitialState(u, map[universe.Package]universe.Version{a: a.Version("2")})
	assert.False(t, universe.BrokenUnder(d, moved), "the source is not installed")
}

func TestInitialStateDropsCurrent(t *testing.T) {
	w := dummy.New()
	a := w.AddPackage("a", "1", "2")
	u := w.Build()

	s := universe.NewInitialState(u, map[universe.Package]universe.Version{a: a.Version("1")})
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, "1", s.VersionOf(a).Name())

	count := 0
	for range s.Overrides() {
		count++
	}
	assert.Zero(t, count)
}

func TestBrokenDeps(t *testing.T) {
	w := dummy.New()
	a := w.AddPackage("a", "1")
	b := w.AddPackage("b", "0", "1")
	c := w.AddPackage("c", "0", "1")
	w.AddDep(a.Version("1"), false, b.Version("1"))
	w.AddDep(a.Version("1"), true, c.Version("1"))
	w.AddDep(b.Version("1"), false, c.Version("1"))
	u := w.Build()

	broken := universe.BrokenDeps(u, universe.NewInitialState(u, nil))
	require.Len(t, broken, 2)
	assert.True(t, broken[1].IsSoft())
	assert.Equal(t, "a 1 -S> {c 1}", universe.DepString(broken[1]))
}
