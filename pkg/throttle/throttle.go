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

// Package throttle limits how often a periodic update fires.
package throttle

import (
	"sync"
	"time"
)

// DefaultInterval is the progress update period of the command line.
const DefaultInterval = 700 * time.Millisecond

// Throttle tells whether enough time passed since the last update. The first
// call always fires. It is safe for concurrent use.
type Throttle struct {
	mu       sync.Mutex
	interval time.Duration
	now      func() time.Time
	last     time.Time
	fired    bool
}

// New returns a throttle firing at most once per interval.
func New(interval time.Duration) *Throttle {
	return NewWithClock(interval, time.Now)
}

// NewWithClock is New with an injected clock, for tests.
func NewWithClock(interval time.Duration, now func() time.Time) *Throttle {
	return &Throttle{interval: interval, now: now}
}

// UpdateRequired reports whether an update is due.
func (t *Throttle) UpdateRequired() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.fired || t.now().Sub(t.last) >= t.interval
}

// UpdateDone records that an update happened now.
func (t *Throttle) UpdateDone() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = t.now()
	t.fired = true
}

// Reset makes the next UpdateRequired fire.
func (t *Throttle) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fired = false
}
