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

package pkg

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"
)

type tristate int

const (
	Unknown tristate = iota
	Present
	Absent
)

func (t tristate) String() string {
	switch t {
	case Present:
		return "present"
	case Absent:
		return "absent"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name, so world files and results read
// "present" rather than 1.
func (t tristate) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *tristate) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "", "unknown":
		*t = Unknown
	case "present", "installed":
		*t = Present
	case "absent", "removed":
		*t = Absent
	default:
		return errors.Errorf("unknown package state %q", text)
	}
	return nil
}

// Pkg is one version of a package in the world. Packages sharing name and
// namespace only differ in the version, and at most one of them is installed
// at a time: e.g. prometheus-1.2.0 and prometheus-1.3.0 are different
// packages of the same base.
type Pkg struct {
	ID                 int       `json:"-" yaml:"-"` // position in the resolver universe
	Name               string    `json:"name" yaml:"name"`
	Version            string    `json:"version" yaml:"version"` // sem ver (without a range)
	Namespace          string    `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	DependsRel         []*PkgRel `json:"depends,omitempty" yaml:"depends,omitempty"`
	DependsOptionalRel []*PkgRel `json:"dependsOptional,omitempty" yaml:"dependsOptional,omitempty"`
	ConflictsRel       []*PkgRel `json:"conflicts,omitempty" yaml:"conflicts,omitempty"`
	CurrentState       tristate  `json:"currentState,omitempty" yaml:"currentState,omitempty"`
	DesiredState       tristate  `json:"desiredState,omitempty" yaml:"desiredState,omitempty"`
	// Pinned packages must stay at this version in every solution.
	Pinned     bool   `json:"pinned,omitempty" yaml:"pinned,omitempty"`
	Repository string `json:"repository,omitempty" yaml:"repository,omitempty"`
}

// PkgRel points at the versions of a base package matching a semver range.
type PkgRel struct {
	Name        string `json:"name" yaml:"name"`
	Namespace   string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	SemverRange string `json:"version,omitempty" yaml:"version,omitempty"` // e.g: 1.0.0, ~1.0.0; empty matches all
}

func NewPkg(name, version, namespace string,
	currentState, desiredState tristate, repo string) *Pkg {

	p := &Pkg{
		ID:                 -1,
		Name:               name,
		Version:            version,
		Namespace:          namespace,
		DependsRel:         []*PkgRel{},
		DependsOptionalRel: []*PkgRel{},
		ConflictsRel:       []*PkgRel{},
		CurrentState:       currentState,
		DesiredState:       desiredState,
		Repository:         repo,
	}

	return p
}

// NewPkgMock creates a new package with the given relations.
// Useful for testing.
func NewPkgMock(name, version, namespace string,
	depends, dependsOptional []*PkgRel,
	currentState, desiredState tristate) *Pkg {

	p := NewPkg(name, version, namespace, currentState, desiredState, "ourrepo")

	if depends != nil {
		p.DependsRel = depends
	}
	if dependsOptional != nil {
		p.DependsOptionalRel = dependsOptional
	}

	return p
}

// Validate checks that p can be placed in a world.
func (p *Pkg) Validate() error {
	if p.Name == "" {
		return errors.New("package without a name")
	}
	if _, err := semver.NewVersion(p.Version); err != nil {
		return errors.Wrapf(err, "package %s has an invalid version %q", p.Name, p.Version)
	}
	for _, rels := range [][]*PkgRel{p.DependsRel, p.DependsOptionalRel, p.ConflictsRel} {
		for _, rel := range rels {
			if _, err := rel.Constraint(); err != nil {
				return errors.Wrapf(err, "package %s", p.GetFingerPrint())
			}
		}
	}
	return nil
}

// JSON serializes package p into JSON, returning a []byte
func (p *Pkg) JSON() ([]byte, error) {
	buffer := &bytes.Buffer{}
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	err := encoder.Encode(p)
	return buffer.Bytes(), err
}

// GetFingerPrint returns a unique id of the package.
func (p *Pkg) GetFingerPrint() string {
	return CreateFingerPrint(p.Name, p.Version, p.Namespace)
}

func CreateFingerPrint(name, version, ns string) string {
	return fmt.Sprintf("%s-%s-%s", name, version, ns)
}

// GetBaseFingerPrint returns a unique id of the package minus version.
// This helps when filtering packages to find those that are similar and differ
// only in the version.
func (p *Pkg) GetBaseFingerPrint() string {
	return CreateBaseFingerPrint(p.Name, p.Namespace)
}

// CreateBaseFingerPrint returns a base fingerprint (name-ns)
func CreateBaseFingerPrint(name, ns string) string {
	return fmt.Sprintf("%s-%s", name, ns)
}

// Encode encodes the package to string.
func (p *Pkg) Encode() (string, error) {

	encodedPackage, err := p.JSON()
	if err != nil {
		return "", err
	}

	return string(encodedPackage), nil
}

func (p *Pkg) String() string {
	return fmt.Sprintf("%s current:%s desired:%s", p.GetFingerPrint(), p.CurrentState, p.DesiredState)
}

// BaseFingerPrint returns the base fingerprint of the package the relation
// points at.
func (r *PkgRel) BaseFingerPrint() string {
	return CreateBaseFingerPrint(r.Name, r.Namespace)
}

// Constraint parses the semver range of the relation.
func (r *PkgRel) Constraint() (*semver.Constraints, error) {
	rng := r.SemverRange
	if rng == "" {
		rng = "*"
	}
	c, err := semver.NewConstraint(rng)
	if err != nil {
		return nil, errors.Wrapf(err, "relation on %s has an invalid range %q", r.Name, r.SemverRange)
	}
	return c, nil
}

func (r *PkgRel) String() string {
	if r.SemverRange == "" {
		return r.BaseFingerPrint()
	}
	return fmt.Sprintf("%s %s", r.BaseFingerPrint(), r.SemverRange)
}
