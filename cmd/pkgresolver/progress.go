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

package main

import (
	"fmt"
	"io"
	"time"

	"github.com/rancher-sandbox/pkgresolver/internal/metrics"
	"github.com/rancher-sandbox/pkgresolver/pkg/eyecandy"
	"github.com/rancher-sandbox/pkgresolver/pkg/throttle"
)

type progress struct {
	out      io.Writer
	noEmojis bool
	throttle *throttle.Throttle
}

func newProgress(out io.Writer, noEmojis bool) *progress {
	return &progress{
		out:      out,
		noEmojis: noEmojis,
		throttle: throttle.New(throttle.DefaultInterval),
	}
}

// run prints the counts of src until done is closed.
func (p *progress) run(src metrics.CountsSource, done <-chan struct{}) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		if p.throttle.UpdateRequired() {
			p.print(src)
			p.throttle.UpdateDone()
		}
		select {
		case <-done:
			fmt.Fprint(p.out, "\r\033[K")
			return
		case <-ticker.C:
		}
	}
}

func (p *progress) print(src metrics.CountsSource) {
	c := src.Counts()
	fmt.Fprint(p.out, "\r\033[K"+eyecandy.ESPrintf(p.noEmojis,
		":mag: open: %d; closed: %d; defer: %d; conflict: %d; tier %s",
		c.Open, c.Closed, c.Deferred, c.Conflicts, c.CurrentTier))
}
