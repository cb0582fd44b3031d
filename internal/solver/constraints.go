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

package solver

import (
	"context"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/rancher-sandbox/pkgresolver/internal/resolver"
	"github.com/rancher-sandbox/pkgresolver/internal/universe"
)

// ConstraintSpec holds user constraints as text references, as they come
// from the command line. Versions are "name=version", dependencies
// "name=version>target", scores "name=version:score" and tiers
// "name=version:tier".
type ConstraintSpec struct {
	Reject       []string
	Mandate      []string
	Harden       []string
	ApproveBreak []string
	Scores       []string
	Tiers        []string
}

type VersionScore struct {
	Version universe.Version
	Score   int
}

type VersionTier struct {
	Version universe.Version
	Tier    resolver.Tier
}

// Constraints steer a search without changing the world.
type Constraints struct {
	Reject       []universe.Version
	Mandate      []universe.Version
	Harden       []universe.Dep
	ApproveBreak []universe.Dep
	Scores       []VersionScore
	Tiers        []VersionTier
}

// ParseConstraints resolves spec against u.
func ParseConstraints(u *Universe, spec ConstraintSpec) (*Constraints, error) {
	c := &Constraints{}
	for _, ref := range spec.Reject {
		v, err := u.LookupVersion(ref)
		if err != nil {
			return nil, errors.Wrap(err, "reject")
		}
		c.Reject = append(c.Reject, v)
	}
	for _, ref := range spec.Mandate {
		v, err := u.LookupVersion(ref)
		if err != nil {
			return nil, errors.Wrap(err, "mandate")
		}
		c.Mandate = append(c.Mandate, v)
	}
	for _, ref := range spec.Harden {
		d, err := u.LookupDep(ref)
		if err != nil {
			return nil, errors.Wrap(err, "harden")
		}
		c.Harden = append(c.Harden, d)
	}
	for _, ref := range spec.ApproveBreak {
		d, err := u.LookupDep(ref)
		if err != nil {
			return nil, errors.Wrap(err, "approve-break")
		}
		c.ApproveBreak = append(c.ApproveBreak, d)
	}
	for _, ref := range spec.Scores {
		v, value, err := splitValue(u, ref)
		if err != nil {
			return nil, errors.Wrap(err, "score")
		}
		score, err := strconv.Atoi(value)
		if err != nil {
			return nil, errors.Wrapf(err, "score of %s", ref)
		}
		c.Scores = append(c.Scores, VersionScore{Version: v, Score: score})
	}
	for _, ref := range spec.Tiers {
		v, value, err := splitValue(u, ref)
		if err != nil {
			return nil, errors.Wrap(err, "tier")
		}
		t, err := resolver.ParseTier(value)
		if err != nil {
			return nil, errors.Wrapf(err, "tier of %s", ref)
		}
		c.Tiers = append(c.Tiers, VersionTier{Version: v, Tier: t})
	}
	return c, nil
}

// splitValue splits "name=version:value". Tiers hold commas but no colons, so
// the last colon is the separator.
func splitValue(u *Universe, ref string) (universe.Version, string, error) {
	i := strings.LastIndex(ref, ":")
	if i < 0 {
		return nil, "", errors.Errorf("%q is not of the form name=version:value", ref)
	}
	v, err := u.LookupVersion(ref[:i])
	if err != nil {
		return nil, "", err
	}
	return v, ref[i+1:], nil
}

func (c *Constraints) hardened(d universe.Dep) bool {
	if c == nil {
		return false
	}
	for _, h := range c.Harden {
		if universe.SameDep(h, d) {
			return true
		}
	}
	return false
}

// apply installs the constraints on r.
func (c *Constraints) apply(r *resolver.Resolver) error {
	if c == nil {
		return nil
	}
	for _, v := range c.Reject {
		r.RejectVersion(v)
	}
	for _, v := range c.Mandate {
		r.MandateVersion(v)
	}
	for _, d := range c.Harden {
		if err := r.HardenDep(d); err != nil {
			return err
		}
	}
	for _, d := range c.ApproveBreak {
		r.ApproveBreak(d)
	}
	for _, s := range c.Scores {
		r.AddVersionScore(s.Version, s.Score)
	}
	for _, t := range c.Tiers {
		r.SetVersionTier(t.Version, t.Tier)
	}
	return nil
}

// withPins returns a copy of c that also holds every pinned package of u at
// its pinned version: the version is mandated and the others are rejected.
func (c *Constraints) withPins(u *Universe) *Constraints {
	out := &Constraints{}
	if c != nil {
		*out = *c
		out.Mandate = append([]universe.Version(nil), c.Mandate...)
		out.Reject = append([]universe.Version(nil), c.Reject...)
	}
	for _, v := range u.vers {
		if v.pkg == nil || !v.pkg.Pinned {
			continue
		}
		out.Mandate = append(out.Mandate, v)
		for o := range v.Package().Versions() {
			if o.ID() != v.ID() {
				out.Reject = append(out.Reject, o)
			}
		}
	}
	return out
}

// interrupted tells whether err ended a search early without exhausting it.
func interrupted(err error) bool {
	var ie *resolver.InterruptedError
	return errors.As(err, &ie) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
