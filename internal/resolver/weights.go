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
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/rancher-sandbox/pkgresolver/internal/universe"
)

// Weights are the score parameters of a search.
type Weights struct {
	// StepScore is added for every action taken.
	StepScore int
	// BrokenScore is added for every dependency still broken.
	BrokenScore int
	// UnfixedSoftScore is added for every soft dependency left broken.
	UnfixedSoftScore int
	// FullSolutionScore is added once no dependency is broken.
	FullSolutionScore int
}

type jointScore struct {
	choices ChoiceSet
	score   int
}

type scores struct {
	Weights
	versions []int
	// joint is indexed by the install key of every member version.
	joint map[choiceKey][]*jointScore
	all   []*jointScore
}

func newScores(w Weights, versionCount int) *scores {
	return &scores{
		Weights:  w,
		versions: make([]int, versionCount),
		joint:    map[choiceKey][]*jointScore{},
	}
}

func (s *scores) addJoint(vs []universe.Version, score int) {
	js := &jointScore{score: score}
	for _, v := range vs {
		js.choices = js.choices.InsertOrNarrow(Install(v))
	}
	for c := range js.choices.Sorted() {
		s.joint[c.key()] = append(s.joint[c.key()], js)
	}
	s.all = append(s.all, js)
}

// actionDelta is what taking c adds to the action score of a step whose
// actions, c included, are actions.
func (s *scores) actionDelta(c Choice, actions ChoiceSet, initial universe.Installation) int {
	delta := s.StepScore
	switch c.kind {
	case BreakSoftDep:
		delta += s.UnfixedSoftScore
	case InstallVersion:
		old := initial.VersionOf(c.ver.Package())
		delta += s.versions[c.ver.ID()] - s.versions[old.ID()]
		for _, js := range s.joint[Install(c.ver).key()] {
			if actions.ImpliesAll(js.choices) {
				delta += js.score
			}
		}
	}
	return delta
}

func (s *scores) total(actionScore, unresolved int) int {
	score := actionScore + unresolved*s.BrokenScore
	if unresolved == 0 {
		score += s.FullSolutionScore
	}
	return score
}

// dump writes the non-zero scores in a readable form. The listing is built
// in memory and written with a single call.
func (s *scores) dump(w io.Writer, u universe.Universe) error {
	var sb strings.Builder
	sb.WriteString("{\n")
	for p := range u.Packages() {
		var line strings.Builder
		for v := range p.Versions() {
			if sc := s.versions[v.ID()]; sc != 0 {
				fmt.Fprintf(&line, " %s %d", v.Name(), sc)
			}
		}
		if line.Len() == 0 {
			continue
		}
		fmt.Fprintf(&sb, "  SCORE %s <%s >\n", p.Name(), line.String())
	}
	joint := append([]*jointScore(nil), s.all...)
	sort.SliceStable(joint, func(i, j int) bool { return joint[i].choices.Compare(joint[j].choices) < 0 })
	for _, js := range joint {
		sb.WriteString("  SCORE {")
		for c := range js.choices.Sorted() {
			fmt.Fprintf(&sb, " %s %s", c.ver.Package().Name(), c.ver.Name())
		}
		fmt.Fprintf(&sb, " } %d\n", js.score)
	}
	sb.WriteString("}\n")
	_, err := io.WriteString(w, sb.String())
	return err
}
