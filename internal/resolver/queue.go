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

	"github.com/benbjohnson/immutable"
)

// goodness orders steps best first: lower tier, then higher score, then
// smaller and lexicographically earlier action sets, then creation order.
type goodness struct {
	g *searchGraph
}

func (o goodness) Compare(a, b int) int {
	if a == b {
		return 0
	}
	sa, sb := o.g.step(a), o.g.step(b)
	if r := sa.tier.Compare(sb.tier); r != 0 {
		return r
	}
	if r := cmp.Compare(sb.score, sa.score); r != 0 {
		return r
	}
	if r := sa.actions.Compare(sb.actions); r != 0 {
		return r
	}
	return cmp.Compare(a, b)
}

// stepQueue is an ordered set of step numbers. A step's tier and score must
// not change while it is queued.
type stepQueue struct {
	cmp goodness
	m   *immutable.SortedMap[int, struct{}]
}

func newStepQueue(g *searchGraph) *stepQueue {
	q := &stepQueue{cmp: goodness{g: g}}
	q.clear()
	return q
}

func (q *stepQueue) clear() {
	q.m = immutable.NewSortedMap[int, struct{}](q.cmp)
}

func (q *stepQueue) Len() int { return q.m.Len() }

func (q *stepQueue) insert(n int) { q.m = q.m.Set(n, struct{}{}) }

func (q *stepQueue) contains(n int) bool {
	_, ok := q.m.Get(n)
	return ok
}

// remove reports whether n was queued.
func (q *stepQueue) remove(n int) bool {
	if !q.contains(n) {
		return false
	}
	q.m = q.m.Delete(n)
	return true
}

func (q *stepQueue) first() (int, bool) {
	itr := q.m.Iterator()
	if itr.Done() {
		return 0, false
	}
	n, _, _ := itr.Next()
	return n, true
}

func (q *stepQueue) pop() (int, bool) {
	n, ok := q.first()
	if ok {
		q.m = q.m.Delete(n)
	}
	return n, ok
}

func (q *stepQueue) all() iter.Seq[int] {
	return func(yield func(int) bool) {
		itr := q.m.Iterator()
		for !itr.Done() {
			n, _, _ := itr.Next()
			if !yield(n) {
				return
			}
		}
	}
}
