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
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/log-go"
	"github.com/gosuri/uitable"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/rancher-sandbox/pkgresolver/internal/metrics"
	pkg "github.com/rancher-sandbox/pkgresolver/internal/package"
	"github.com/rancher-sandbox/pkgresolver/internal/resolver"
	"github.com/rancher-sandbox/pkgresolver/internal/universe"
)

// Solver drives a resolver over a package database and collects the
// outcome.
type Solver struct {
	PkgDB        *PkgDB       // DB containing packages
	PkgResultSet PkgResultSet // outcome of solving

	logger   log.Logger
	universe *Universe
	resolver *resolver.Resolver
}

// PkgResultSet contains the status outcome of solving, and the different sets of
// packages of every solution found.
// It will be marshalled into Yaml and Json.
type PkgResultSet struct {
	Status          string       `json:"status" yaml:"status"`
	Solutions       []*PkgResult `json:"solutions" yaml:"solutions"`
	Inconsistencies []string     `json:"inconsistencies" yaml:"inconsistencies"`
}

// PkgResult is one solution, as changes to the installed packages. An
// upgrade shows as the old version removed and the new one installed.
type PkgResult struct {
	Score            int        `json:"score" yaml:"score"`
	Tier             string     `json:"tier" yaml:"tier"`
	PresentUnchanged []*pkg.Pkg `json:"presentUnchanged" yaml:"presentUnchanged"`
	ToInstall        []*pkg.Pkg `json:"toInstall" yaml:"toInstall"`
	ToRemove         []*pkg.Pkg `json:"toRemove" yaml:"toRemove"`
	BrokenOptional   []string   `json:"brokenOptional,omitempty" yaml:"brokenOptional,omitempty"`
}

type OutputMode int

const (
	JSON OutputMode = iota
	YAML
	Table
)

// VersionScores are added to versions depending on how installing them
// changes their package.
type VersionScores struct {
	Keep      int // the current version
	Remove    int // absent, for an installed package
	Install   int // any version, for a package not installed
	Upgrade   int // a newer version
	Downgrade int // an older version
}

// Options parameterize Solve.
type Options struct {
	Resolver    resolver.Config
	Scores      VersionScores
	Constraints *Constraints
	// MaxSteps bounds the steps spent looking for each solution.
	MaxSteps int
	// Solutions is how many solutions to look for; at least one.
	Solutions int
	Visit     resolver.Visitor
	// OnStart, when set, is called with the resolver before searching. It may
	// keep it to watch counts or cancel from another goroutine.
	OnStart func(*resolver.Resolver)
}

// New creates a new Solver, initializing its database.
func New(logger log.Logger) (s *Solver) {
	if logger == nil {
		logger = log.Current
	}
	s = &Solver{
		PkgDB:  NewPkgDB(),
		logger: logger,
	}
	s.PkgResultSet.Inconsistencies = []string{}
	s.PkgResultSet.Solutions = []*PkgResult{}
	return s
}

// BuildWorldMock fills the database with pkgs.
// Useful for testing.
func (s *Solver) BuildWorldMock(pkgs []*pkg.Pkg) {
	for _, p := range pkgs {
		s.PkgDB.Add(p)
	}
	s.universe = nil
}

// BuildWorld fills the database with the packages of w.
func (s *Solver) BuildWorld(w *World) {
	s.BuildWorldMock(w.Packages)
}

// Universe returns the resolver view of the database, building it on first
// use after the database changed.
func (s *Solver) Universe() *Universe {
	if s.universe == nil {
		s.universe = NewUniverse(s.PkgDB)
	}
	return s.universe
}

// Resolver returns the resolver of the last Solve, or nil.
func (s *Solver) Resolver() *resolver.Resolver {
	return s.resolver
}

// Check reports whether the world admits any solution under cons.
func (s *Solver) Check(cons *Constraints) *CheckResult {
	u := s.Universe()
	s.PkgResultSet.Inconsistencies = append([]string{}, u.Inconsistencies...)
	res := Check(u, cons.withPins(u))
	s.logger.Debugf("consistency check: %s, %d optional dependencies broken at least", res.Status, res.BrokenOptional)
	return res
}

// Solve searches for up to opts.Solutions solutions and fills PkgResultSet.
// An interrupted search keeps the solutions found and returns the
// interruption error.
func (s *Solver) Solve(ctx context.Context, opts Options) error {
	start := time.Now()
	u := s.Universe()
	s.PkgResultSet = PkgResultSet{
		Solutions:       []*PkgResult{},
		Inconsistencies: append([]string{}, u.Inconsistencies...),
	}
	cons := opts.Constraints.withPins(u)

	if chk := Check(u, cons); !chk.IsSAT() {
		s.logger.Infof("no installation satisfies every hard dependency")
		s.PkgResultSet.Status = "UNSAT"
		metrics.ObserveSearch(s.PkgResultSet.Status, 0, time.Since(start))
		return nil
	}

	cfg := opts.Resolver
	if cfg.Logger == nil {
		cfg.Logger = s.logger
	}
	r := resolver.New(u, cfg)
	s.resolver = r
	applyVersionScores(r, u, opts.Scores)
	if err := cons.apply(r); err != nil {
		return err
	}
	if opts.OnStart != nil {
		opts.OnStart(r)
	}

	wanted := opts.Solutions
	if wanted < 1 {
		wanted = 1
	}
	var searchErr error
	for len(s.PkgResultSet.Solutions) < wanted {
		sol, err := r.FindNextSolution(ctx, opts.MaxSteps, opts.Visit)
		if err != nil {
			searchErr = err
			break
		}
		s.logger.Debugf("solution %d: %s", len(s.PkgResultSet.Solutions)+1, sol)
		s.PkgResultSet.Solutions = append(s.PkgResultSet.Solutions, s.pkgResult(r, sol))
	}

	switch {
	case len(s.PkgResultSet.Solutions) > 0:
		s.PkgResultSet.Status = "SAT"
	case errors.Is(searchErr, resolver.ErrNoMoreTime):
		s.PkgResultSet.Status = "TIMEOUT"
	case interrupted(searchErr):
		s.PkgResultSet.Status = "INTERRUPTED"
	default:
		s.PkgResultSet.Status = "UNSAT"
	}
	metrics.ObserveSearch(s.PkgResultSet.Status, len(s.PkgResultSet.Solutions), time.Since(start))

	if interrupted(searchErr) {
		return searchErr
	}
	if searchErr != nil && !errors.Is(searchErr, resolver.ErrNoMoreSolutions) && !errors.Is(searchErr, resolver.ErrNoMoreTime) {
		return errors.Wrap(searchErr, "search failed")
	}
	return nil
}

func (s *Solver) IsSAT() bool {
	return s.PkgResultSet.Status == "SAT"
}

// applyVersionScores scores every version by the kind of change installing it
// means for its package.
func applyVersionScores(r *resolver.Resolver, u *Universe, sc VersionScores) {
	for p := range u.Packages() {
		cur := p.Current()
		for v := range p.Versions() {
			var score int
			switch {
			case universe.SameVersion(v, cur):
				score = sc.Keep
			case u.PkgOf(v) == nil:
				score = sc.Remove
			case u.PkgOf(cur) == nil:
				score = sc.Install
			case compareVersions(v.Name(), cur.Name()) > 0:
				score = sc.Upgrade
			default:
				score = sc.Downgrade
			}
			if score != 0 {
				r.SetVersionScore(v, score)
			}
		}
	}
}

// pkgResult obtains back the sets of packages from a solution.
func (s *Solver) pkgResult(r *resolver.Resolver, sol *resolver.Solution) *PkgResult {
	u := s.Universe()
	res := &PkgResult{
		Score:            sol.Score(),
		Tier:             sol.Tier().String(),
		PresentUnchanged: []*pkg.Pkg{},
		ToInstall:        []*pkg.Pkg{},
		ToRemove:         []*pkg.Pkg{},
	}
	for p := range u.Packages() {
		before := r.InitialState().VersionOf(p)
		after := sol.VersionOf(p)
		if universe.SameVersion(before, after) {
			if bp := u.PkgOf(before); bp != nil {
				res.PresentUnchanged = append(res.PresentUnchanged, bp)
			}
			continue
		}
		if bp := u.PkgOf(before); bp != nil {
			res.ToRemove = append(res.ToRemove, bp)
		}
		if ap := u.PkgOf(after); ap != nil {
			res.ToInstall = append(res.ToInstall, ap)
		}
	}
	for d := range sol.BrokenSoftDeps() {
		res.BrokenOptional = append(res.BrokenOptional, universe.DepString(d))
	}
	return res
}

func (s *Solver) FormatOutput(t OutputMode) (string, error) {
	var sb strings.Builder
	switch t {
	case Table:
		sb.WriteString(fmt.Sprintf("Status: %s\n", s.PkgResultSet.Status))
		for i, res := range s.PkgResultSet.Solutions {
			sb.WriteString(fmt.Sprintf("\nSolution %d (score %d, tier %s):\n", i+1, res.Score, res.Tier))
			table := uitable.New()
			table.AddRow("ACTION", "PACKAGE", "VERSION")
			for _, p := range res.ToInstall {
				table.AddRow("install", displayName(p.Name, p.Namespace), p.Version)
			}
			for _, p := range res.ToRemove {
				table.AddRow("remove", displayName(p.Name, p.Namespace), p.Version)
			}
			for _, p := range res.PresentUnchanged {
				table.AddRow("keep", displayName(p.Name, p.Namespace), p.Version)
			}
			sb.WriteString(table.String())
			sb.WriteString("\n")
			for _, d := range res.BrokenOptional {
				sb.WriteString(fmt.Sprintf("Leaves broken: %s\n", d))
			}
		}
		if len(s.PkgResultSet.Inconsistencies) > 0 {
			sb.WriteString("\nInconsistencies:\n")
			for _, incos := range s.PkgResultSet.Inconsistencies {
				sb.WriteString(fmt.Sprintf("\t%s\n", incos))
			}
		}
	case YAML:
		o, err := yaml.Marshal(s.PkgResultSet)
		if err != nil {
			return "", errors.Wrap(err, "failed encoding result")
		}
		sb.Write(o)
	case JSON:
		o, err := json.Marshal(s.PkgResultSet)
		if err != nil {
			return "", errors.Wrap(err, "failed encoding result")
		}
		sb.Write(o)
		sb.WriteString("\n")
	default:
		return "", errors.Errorf("unknown output mode %d", t)
	}
	return sb.String(), nil
}

// ParseOutputMode reads "json", "yaml" or "table".
func ParseOutputMode(s string) (OutputMode, error) {
	switch strings.ToLower(s) {
	case "json":
		return JSON, nil
	case "yaml":
		return YAML, nil
	case "table", "":
		return Table, nil
	}
	return Table, errors.Errorf("invalid format type %q, allowed values: table, json, yaml", s)
}

func (o OutputMode) String() string {
	switch o {
	case JSON:
		return "json"
	case YAML:
		return "yaml"
	}
	return "table"
}
