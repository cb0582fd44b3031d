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

package eyecandy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRemoveEmojis(t *testing.T) {
	for _, tcase := range []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain progress line",
			input:    "open: 3; closed: 10",
			expected: "open: 3; closed: 10",
		},
		{
			name:     "utf-8 package name",
			input:    "caf\u00e9 1.0.0",
			expected: "caf\u00e9 1.0.0",
		},
		{
			name:     "emoji only",
			input:    ":mag::hourglass:",
			expected: "",
		},
		{
			name:     "progress line",
			input:    ":mag: open: 3",
			expected: " open: 3",
		},
		{
			name:     "tier with colons is kept",
			input:    ":x: tier (10, 1): :not an emoji:",
			expected: " tier (10, 1): :not an emoji:",
		},
		{
			name:     "reference with colons",
			input:    "cache=1.0.0:-1000",
			expected: "cache=1.0.0:-1000",
		},
		{
			name:     "empty code",
			input:    ":: absent",
			expected: ":: absent",
		},
		{
			name:     "code between double colons",
			input:    "::stop_sign::",
			expected: "::",
		},
	} {
		t.Run(tcase.name, func(t *testing.T) {
			assert.Equal(t, tcase.expected, removeEmojiFromString(tcase.input))
		})
	}
}

func TestStatusLine(t *testing.T) {
	is := assert.New(t)
	is.Equal(" Status: SAT", StatusLine(true, "SAT"))
	is.Equal(" Status: WEIRD", StatusLine(true, "WEIRD"))
	is.NotEqual(StatusLine(true, "UNSAT"), StatusLine(false, "UNSAT"))
	is.Contains(StatusLine(false, "UNSAT"), "Status: UNSAT")
}
