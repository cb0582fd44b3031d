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

	"github.com/pkg/errors"
)

var (
	// ErrNoMoreSolutions is returned once the search space is exhausted.
	ErrNoMoreSolutions = errors.New("no more solutions")
	// ErrNoMoreTime is returned when the step budget ran out while candidates
	// were still pending. Calling again continues the search.
	ErrNoMoreTime = errors.New("ran out of steps before finding a solution")
	// ErrDoubleRun is returned when a search is started while another one is
	// running on the same resolver.
	ErrDoubleRun = errors.New("the resolver is already running")
)

// InterruptedError is returned when a search was cancelled. The resolver state
// is kept and the search can be resumed.
type InterruptedError struct {
	Steps int
}

func (e *InterruptedError) Error() string {
	return fmt.Sprintf("search interrupted after %d steps", e.Steps)
}
