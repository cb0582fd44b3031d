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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTierOrder(t *testing.T) {
	is := assert.New(t)

	is.True(NewTier(1).Less(NewTier(2)))
	is.True(NewTier(1).Less(NewTier(1, 1)))
	is.True(NewTier(1, 0).Equal(NewTier(1)))
	is.True(NewTier(-1).Less(Tier{}))
	is.True(NewTier(3, 2).Compare(NewTier(3, 1)) > 0)

	ordered := []Tier{MinimumTier, NewTier(-5), NewTier(0), NewTier(0, 7), NewTier(1000000), DeferTier, AlreadyGeneratedTier, ConflictTier, MaximumTier}
	for i := range ordered {
		for j := range ordered {
			is.Equal(i < j, ordered[i].Less(ordered[j]), "%s < %s", ordered[i], ordered[j])
		}
	}

	is.True(DeferTier.IsDeferred())
	is.False(AlreadyGeneratedTier.IsDeferred())
	is.True(ConflictTier.IsReserved())
	is.False(NewTier(1 << 40).IsReserved())
	is.Equal(NewTier(3), maxTier(NewTier(3), NewTier(2)))
}

func TestParseTier(t *testing.T) {
	for _, tcase := range []struct {
		in   string
		want Tier
		str  string
		err  bool
	}{
		{in: "10", want: NewTier(10), str: "(10)"},
		{in: "10,2", want: NewTier(10, 2), str: "(10, 2)"},
		{in: "(10, 2)", want: NewTier(10, 2), str: "(10, 2)"},
		{in: "conflict", want: ConflictTier, str: "conflict"},
		{in: "defer", want: DeferTier, str: "defer"},
		{in: "already-generated", want: AlreadyGeneratedTier, str: "already-generated"},
		{in: "minimum", want: MinimumTier, str: "minimum"},
		{in: "", err: true},
		{in: "1,x", err: true},
	} {
		t.Run(tcase.in, func(t *testing.T) {
			is := assert.New(t)
			got, err := ParseTier(tcase.in)
			if tcase.err {
				is.Error(err)
				return
			}
			is.NoError(err)
			is.True(tcase.want.Equal(got))
			is.Equal(tcase.str, got.String())
		})
	}
}
