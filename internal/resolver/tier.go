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
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Tier ranks partial solutions: the search only moves to a higher tier once
// every lower one is exhausted. Tiers are tuples of integers ordered
// lexicographically, where missing trailing levels count as zero.
//
// A Tier is immutable once built.
type Tier struct {
	levels []int
}

// The reserved tiers sit above anything a user or a score can produce. They
// store the largest integers in the first level.
var (
	// MinimumTier is below every other tier and is the default for a version.
	MinimumTier = Tier{levels: []int{math.MinInt}}
	// DeferTier parks steps that depend on a user constraint; they are kept
	// and come back if the constraint is withdrawn.
	DeferTier = Tier{levels: []int{math.MaxInt - 2}}
	// AlreadyGeneratedTier marks steps whose solution was already produced.
	AlreadyGeneratedTier = Tier{levels: []int{math.MaxInt - 1}}
	// ConflictTier marks steps that cannot lead to a solution.
	ConflictTier = Tier{levels: []int{math.MaxInt}}
	// MaximumTier is above every tier, conflicts included.
	MaximumTier = Tier{levels: []int{math.MaxInt, math.MaxInt}}
)

// NewTier builds a tier from its levels, most significant first.
func NewTier(levels ...int) Tier {
	return Tier{levels: append([]int(nil), levels...)}
}

func (t Tier) level(i int) int {
	if i < len(t.levels) {
		return t.levels[i]
	}
	return 0
}

// Levels returns a copy of the tier's levels.
func (t Tier) Levels() []int {
	return append([]int(nil), t.levels...)
}

// Compare returns -1, 0 or 1 as t is below, equal to or above o.
func (t Tier) Compare(o Tier) int {
	n := max(len(t.levels), len(o.levels))
	for i := 0; i < n; i++ {
		a, b := t.level(i), o.level(i)
		if a < b {
			return -1
		}
		if a > b {
			return 1
		}
	}
	return 0
}

func (t Tier) Less(o Tier) bool    { return t.Compare(o) < 0 }
func (t Tier) AtLeast(o Tier) bool { return t.Compare(o) >= 0 }
func (t Tier) Equal(o Tier) bool   { return t.Compare(o) == 0 }

// IsDeferred reports whether t parks a step without discarding it.
func (t Tier) IsDeferred() bool {
	return t.AtLeast(DeferTier) && t.Less(AlreadyGeneratedTier)
}

// IsReserved reports whether t is one of the tiers reserved for the resolver.
func (t Tier) IsReserved() bool {
	return t.AtLeast(DeferTier)
}

func maxTier(a, b Tier) Tier {
	if a.Less(b) {
		return b
	}
	return a
}

func (t Tier) String() string {
	switch {
	case t.Equal(MinimumTier):
		return "minimum"
	case t.Equal(MaximumTier):
		return "maximum"
	case t.Equal(ConflictTier):
		return "conflict"
	case t.Equal(AlreadyGeneratedTier):
		return "already-generated"
	case t.Equal(DeferTier):
		return "defer"
	}
	parts := make([]string, len(t.levels))
	for i, l := range t.levels {
		parts[i] = strconv.Itoa(l)
	}
	if len(parts) == 0 {
		parts = []string{"0"}
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// ParseTier reads a tier written as comma separated levels ("10", "10,2",
// "(10, 2)") or as one of the reserved names.
func ParseTier(s string) (Tier, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "minimum":
		return MinimumTier, nil
	case "maximum":
		return MaximumTier, nil
	case "conflict":
		return ConflictTier, nil
	case "already-generated":
		return AlreadyGeneratedTier, nil
	case "defer":
		return DeferTier, nil
	}
	s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	if s == "" {
		return Tier{}, errors.New("empty tier")
	}
	var levels []int
	for _, f := range strings.Split(s, ",") {
		l, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return Tier{}, errors.Wrapf(err, "invalid tier level %q", f)
		}
		levels = append(levels, l)
	}
	return Tier{levels: levels}, nil
}
