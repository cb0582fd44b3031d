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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkg "github.com/rancher-sandbox/pkgresolver/internal/package"
	"github.com/rancher-sandbox/pkgresolver/internal/resolver"
)

func testOptions() Options {
	return Options{
		Resolver: resolver.Config{
			Weights: resolver.Weights{
				StepScore:         -10,
				BrokenScore:       -100,
				UnfixedSoftScore:  -200,
				FullSolutionScore: 50,
			},
			Infinity:      1000000,
			FutureHorizon: 50,
			Strict:        true,
		},
		Scores:    VersionScores{Remove: -300, Install: -20, Downgrade: -40},
		MaxSteps:  5000,
		Solutions: 1,
	}
}

func rel(name, ns, rng string) []*pkg.PkgRel {
	return []*pkg.PkgRel{{Name: name, Namespace: ns, SemverRange: rng}}
}

func fingerprints(pkgs []*pkg.Pkg) []string {
	fps := []string{}
	for _, p := range pkgs {
		fps = append(fps, p.GetFingerPrint())
	}
	return fps
}

func TestSolver(t *testing.T) {

	for _, tcase := range []struct {
		name             string
		pkgs             []*pkg.Pkg
		resultStatus     string
		toInstall        []string
		toRemove         []string
		presentUnchanged []string
		inconsistencies  int
	}{
		{
			name:         "empty world",
			pkgs:         []*pkg.Pkg{},
			resultStatus: "SAT",
		},
		{
			name: "solve for the example in main",
			pkgs: []*pkg.Pkg{
				pkg.NewPkgMock("notinstalledbar", "1.0.0", "notinstalledtargetns", nil, nil, pkg.Unknown, pkg.Unknown),
				pkg.NewPkgMock("notinstalledbar", "2.0.0", "notinstalledtargetns", nil, nil, pkg.Unknown, pkg.Unknown),
				pkg.NewPkgMock("myawesomedep", "0.1.100", "myawesomedeptargetns", nil, nil, pkg.Unknown, pkg.Unknown),
				// toModify:
				pkg.NewPkgMock("wantedbaz", "1.0.0", "wantedbazns",
					rel("myawesomedep", "myawesomedeptargetns", "~0.1.0"),
					nil, pkg.Unknown, pkg.Present),
				// installed:
				pkg.NewPkgMock("installedfoo", "1.0.0", "installedns", nil, nil, pkg.Present, pkg.Unknown),
			},
			resultStatus:     "SAT",
			toInstall:        []string{"myawesomedep-0.1.100-myawesomedeptargetns", "wantedbaz-1.0.0-wantedbazns"},
			presentUnchanged: []string{"installedfoo-1.0.0-installedns"},
		},
		{
			name: "install a pkg and dep, finding minor version",
			pkgs: []*pkg.Pkg{
				// dependency that doesn't match semver range:
				pkg.NewPkgMock("myawesomedep", "2.1.100", "myawesomedeptargetns", nil, nil, pkg.Unknown, pkg.Unknown),
				// dependency we want pulled:
				pkg.NewPkgMock("myawesomedep", "0.1.100", "myawesomedeptargetns", nil, nil, pkg.Unknown, pkg.Unknown),
				pkg.NewPkgMock("wantedbaz", "1.0.0", "wantedbazns",
					rel("myawesomedep", "myawesomedeptargetns", "~0.1.0"),
					nil, pkg.Unknown, pkg.Present),
			},
			resultStatus: "SAT",
			toInstall:    []string{"myawesomedep-0.1.100-myawesomedeptargetns", "wantedbaz-1.0.0-wantedbazns"},
		},
		{
			name: "install a pkg and dep, finding major version",
			pkgs: []*pkg.Pkg{
				// dependencies that don't match semver range:
				pkg.NewPkgMock("myawesomedep", "2.0.0", "myawesomedeptargetns", nil, nil, pkg.Unknown, pkg.Unknown),
				pkg.NewPkgMock("myawesomedep", "0.1.100", "myawesomedeptargetns", nil, nil, pkg.Unknown, pkg.Unknown),
				// dependency we want pulled:
				pkg.NewPkgMock("myawesomedep", "1.9.0", "myawesomedeptargetns", nil, nil, pkg.Unknown, pkg.Unknown),
				pkg.NewPkgMock("wantedbaz", "1.0.0", "wantedbazns",
					rel("myawesomedep", "myawesomedeptargetns", "^1.2.0"),
					nil, pkg.Unknown, pkg.Present),
			},
			resultStatus: "SAT",
			toInstall:    []string{"myawesomedep-1.9.0-myawesomedeptargetns", "wantedbaz-1.0.0-wantedbazns"},
		},
		{
			name: "install a pkg and dep, finding no matching version",
			pkgs: []*pkg.Pkg{
				// no dependency satisfies the constraint:
				pkg.NewPkgMock("myawesomedep", "3.0.0", "myawesomedeptargetns", nil, nil, pkg.Unknown, pkg.Unknown),
				pkg.NewPkgMock("wantedbaz", "1.0.0", "wantedbazns",
					rel("myawesomedep", "myawesomedeptargetns", "^1.0.0"),
					nil, pkg.Unknown, pkg.Present),
			},
			resultStatus:    "UNSAT",
			inconsistencies: 1,
		},
		{
			name: "install a pkg and dep, dependency not in db",
			pkgs: []*pkg.Pkg{
				pkg.NewPkgMock("wantedbaz", "1.0.0", "wantedbazns",
					rel("myawesomedep", "myawesomedeptargetns", "^1.0.0"),
					nil, pkg.Unknown, pkg.Present),
			},
			resultStatus:    "UNSAT",
			inconsistencies: 1,
		},
		{
			name: "unsatisfiable, remove a dependency",
			pkgs: []*pkg.Pkg{
				// installed, to be removed:
				pkg.NewPkgMock("myawesomedep", "0.1.100", "myawesomedeptargetns", nil, nil, pkg.Present, pkg.Absent),
				// depends on pkg that is going to be removed:
				pkg.NewPkgMock("wantedbaz", "1.0.0", "wantedbazns",
					rel("myawesomedep", "myawesomedeptargetns", "~0.1.0"),
					nil, pkg.Unknown, pkg.Present),
			},
			resultStatus: "UNSAT",
		},
		{
			name: "install several looped deps",
			pkgs: []*pkg.Pkg{
				// package 1, depends on 2:
				pkg.NewPkgMock("wantedfoo", "1.0.0", "targetns",
					rel("wantedbar", "targetns", "^1.0.0"),
					nil, pkg.Absent, pkg.Present),
				// package 2, depends on 3:
				pkg.NewPkgMock("wantedbar", "1.0.0", "targetns",
					rel("wantedbaz", "targetns", "^1.0.0"),
					nil, pkg.Absent, pkg.Unknown),
				// package 3, depends on 1:
				pkg.NewPkgMock("wantedbaz", "1.0.0", "targetns",
					rel("wantedfoo", "targetns", "^1.0.0"),
					nil, pkg.Absent, pkg.Unknown),
			},
			resultStatus: "SAT",
			toInstall:    []string{"wantedbar-1.0.0-targetns", "wantedbaz-1.0.0-targetns", "wantedfoo-1.0.0-targetns"},
		},
		{
			name: "remove package",
			pkgs: []*pkg.Pkg{
				pkg.NewPkgMock("wantedbaz", "1.0.0", "wantedbazns", nil, nil, pkg.Present, pkg.Absent),
			},
			resultStatus: "SAT",
			toRemove:     []string{"wantedbaz-1.0.0-wantedbazns"},
		},
		{
			name: "update package",
			pkgs: []*pkg.Pkg{
				// installed:
				pkg.NewPkgMock("toupdatebar", "1.0.0", "toupdatebarns", nil, nil, pkg.Present, pkg.Unknown),
				pkg.NewPkgMock("installedfoo", "1.0.0", "installedns", nil, nil, pkg.Present, pkg.Unknown),
				// package to update:
				pkg.NewPkgMock("toupdatebar", "1.3.0", "toupdatebarns", nil, nil, pkg.Unknown, pkg.Present),
			},
			resultStatus:     "SAT",
			toInstall:        []string{"toupdatebar-1.3.0-toupdatebarns"},
			toRemove:         []string{"toupdatebar-1.0.0-toupdatebarns"},
			presentUnchanged: []string{"installedfoo-1.0.0-installedns"},
		},
	} {
		t.Run(tcase.name, func(t *testing.T) {
			is := assert.New(t)
			s := New(nil)
			s.BuildWorldMock(tcase.pkgs)
			require.NoError(t, s.Solve(context.Background(), testOptions()))

			is.Equal(tcase.resultStatus, s.PkgResultSet.Status)
			is.Len(s.PkgResultSet.Inconsistencies, tcase.inconsistencies)
			if tcase.resultStatus != "SAT" {
				is.Empty(s.PkgResultSet.Solutions)
				return
			}
			require.Len(t, s.PkgResultSet.Solutions, 1)
			res := s.PkgResultSet.Solutions[0]
			is.Equal(orEmpty(tcase.toInstall), fingerprints(res.ToInstall))
			is.Equal(orEmpty(tcase.toRemove), fingerprints(res.ToRemove))
			is.Equal(orEmpty(tcase.presentUnchanged), fingerprints(res.PresentUnchanged))
			is.Zero(s.Resolver().InvariantViolations())
		})
	}
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func optionalWorld() []*pkg.Pkg {
	return []*pkg.Pkg{
		pkg.NewPkgMock("a", "1.0.0", "", nil, rel("b", "", "^1.0.0"), pkg.Unknown, pkg.Present),
		pkg.NewPkgMock("b", "1.0.0", "", nil, nil, pkg.Unknown, pkg.Unknown),
	}
}

func TestSeveralSolutions(t *testing.T) {
	is := assert.New(t)
	s := New(nil)
	s.BuildWorldMock(optionalWorld())

	opts := testOptions()
	opts.Solutions = 3
	require.NoError(t, s.Solve(context.Background(), opts))

	is.Equal("SAT", s.PkgResultSet.Status)
	require.Len(t, s.PkgResultSet.Solutions, 2)
	first, second := s.PkgResultSet.Solutions[0], s.PkgResultSet.Solutions[1]
	is.Equal([]string{"a-1.0.0-", "b-1.0.0-"}, fingerprints(first.ToInstall))
	is.Empty(first.BrokenOptional)
	is.Equal([]string{"a-1.0.0-"}, fingerprints(second.ToInstall))
	is.Equal([]string{"a 1.0.0 -S> {b 1.0.0}"}, second.BrokenOptional)
	is.Greater(first.Score, second.Score)
	is.True(s.Resolver().Exhausted())
}

func TestConstraints(t *testing.T) {
	for _, tcase := range []struct {
		name       string
		spec       ConstraintSpec
		wantErr    string
		status     string
		toInstall  []string
		brokenDeps int
	}{
		{
			name:      "no constraints",
			status:    "SAT",
			toInstall: []string{"a-1.0.0-", "b-1.0.0-"},
		},
		{
			name:       "reject the optional dependency",
			spec:       ConstraintSpec{Reject: []string{"b=1.0.0"}},
			status:     "SAT",
			toInstall:  []string{"a-1.0.0-"},
			brokenDeps: 1,
		},
		{
			name:   "harden it and reject it",
			spec:   ConstraintSpec{Reject: []string{"b=1.0.0"}, Harden: []string{"a=1.0.0>b"}},
			status: "UNSAT",
		},
		{
			name:       "approve breaking it",
			spec:       ConstraintSpec{ApproveBreak: []string{"a=1.0.0>b"}},
			status:     "SAT",
			toInstall:  []string{"a-1.0.0-"},
			brokenDeps: 1,
		},
		{
			name:       "score against it",
			spec:       ConstraintSpec{Scores: []string{"b=1.0.0:-1000"}},
			status:     "SAT",
			toInstall:  []string{"a-1.0.0-"},
			brokenDeps: 1,
		},
		{
			name:    "unknown package",
			spec:    ConstraintSpec{Mandate: []string{"nosuch=1.0.0"}},
			wantErr: `unknown package "nosuch"`,
		},
		{
			name:    "malformed dependency",
			spec:    ConstraintSpec{Harden: []string{"a=1.0.0"}},
			wantErr: "not of the form",
		},
		{
			name:    "bad tier",
			spec:    ConstraintSpec{Tiers: []string{"b=1.0.0:high"}},
			wantErr: "invalid tier level",
		},
	} {
		t.Run(tcase.name, func(t *testing.T) {
			is := assert.New(t)
			s := New(nil)
			s.BuildWorldMock(optionalWorld())

			cons, err := ParseConstraints(s.Universe(), tcase.spec)
			if tcase.wantErr != "" {
				if is.Error(err) {
					is.Contains(err.Error(), tcase.wantErr)
				}
				return
			}
			require.NoError(t, err)

			opts := testOptions()
			opts.Constraints = cons
			require.NoError(t, s.Solve(context.Background(), opts))
			is.Equal(tcase.status, s.PkgResultSet.Status)
			if tcase.status != "SAT" {
				return
			}
			res := s.PkgResultSet.Solutions[0]
			is.Equal(tcase.toInstall, fingerprints(res.ToInstall))
			is.Len(res.BrokenOptional, tcase.brokenDeps)
		})
	}
}

func TestPinnedPackage(t *testing.T) {
	is := assert.New(t)
	pinned := pkg.NewPkgMock("b", "1.0.0", "", nil, nil, pkg.Present, pkg.Unknown)
	pinned.Pinned = true
	s := New(nil)
	s.BuildWorldMock([]*pkg.Pkg{
		pinned,
		pkg.NewPkgMock("b", "2.0.0", "", nil, nil, pkg.Unknown, pkg.Unknown),
		pkg.NewPkgMock("a", "1.0.0", "", rel("b", "", "^2.0.0"), nil, pkg.Unknown, pkg.Present),
	})

	require.NoError(t, s.Solve(context.Background(), testOptions()))
	is.Equal("UNSAT", s.PkgResultSet.Status)
	is.False(s.Check(nil).IsSAT())
}

func TestCheck(t *testing.T) {
	is := assert.New(t)
	s := New(nil)
	s.BuildWorldMock([]*pkg.Pkg{
		pkg.NewPkgMock("a", "1.0.0", "", nil, rel("b", "", "^2.0.0"), pkg.Unknown, pkg.Present),
		pkg.NewPkgMock("b", "1.0.0", "", nil, nil, pkg.Unknown, pkg.Unknown),
	})

	res := s.Check(nil)
	is.True(res.IsSAT())
	is.Equal(1, res.BrokenOptional)
	is.Contains(res.Installed, "a 1.0.0")
	is.Contains(res.Installed, "@request 1")
	is.Len(s.PkgResultSet.Inconsistencies, 1)

	require.NoError(t, s.Solve(context.Background(), testOptions()))
	is.Equal("SAT", s.PkgResultSet.Status)
	is.Equal([]string{"a 1.0.0 -S> {}"}, s.PkgResultSet.Solutions[0].BrokenOptional)
}

func TestCancelledSolve(t *testing.T) {
	is := assert.New(t)
	s := New(nil)
	s.BuildWorldMock(optionalWorld())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.Solve(ctx, testOptions())

	var ie *resolver.InterruptedError
	is.ErrorAs(err, &ie)
	is.Equal("INTERRUPTED", s.PkgResultSet.Status)
}

func TestFormatOutput(t *testing.T) {
	is := assert.New(t)
	s := New(nil)
	s.BuildWorldMock([]*pkg.Pkg{
		pkg.NewPkgMock("bar", "1.0.0", "targetns", nil, nil, pkg.Present, pkg.Unknown),
		pkg.NewPkgMock("baz", "1.0.0", "targetns", nil, nil, pkg.Absent, pkg.Present),
		pkg.NewPkgMock("foo", "1.0.0", "targetns", nil, nil, pkg.Present, pkg.Absent),
	})
	require.NoError(t, s.Solve(context.Background(), testOptions()))
	is.Equal("SAT", s.PkgResultSet.Status)

	out, err := s.FormatOutput(YAML)
	require.NoError(t, err)
	is.True(strings.HasPrefix(out, "status: SAT\n"))
	is.Contains(out, "currentState: present")

	out, err = s.FormatOutput(JSON)
	require.NoError(t, err)
	is.Contains(out, `"status":"SAT"`)
	is.Contains(out, `"toRemove":[{"name":"foo","version":"1.0.0","namespace":"targetns"`)

	out, err = s.FormatOutput(Table)
	require.NoError(t, err)
	is.Contains(out, "Status: SAT")
	is.Contains(out, "Solution 1")
	for _, line := range []string{"install", "targetns/baz", "remove", "targetns/foo", "keep", "targetns/bar"} {
		is.Contains(out, line)
	}

	_, err = s.FormatOutput(OutputMode(42))
	is.Error(err)
}

func TestParseOutputMode(t *testing.T) {
	is := assert.New(t)
	for in, want := range map[string]OutputMode{"json": JSON, "YAML": YAML, "table": Table, "": Table} {
		got, err := ParseOutputMode(in)
		is.NoError(err)
		is.Equal(want, got)
	}
	_, err := ParseOutputMode("xml")
	is.Error(err)
}

func TestCheckAgreesWithSearch(t *testing.T) {
	for _, tcase := range []struct {
		name      string
		pkgs      []*pkg.Pkg
		spec      ConstraintSpec
		status    string
		unchanged []string
	}{
		{
			name: "mandated version that cannot be installed",
			pkgs: []*pkg.Pkg{
				pkg.NewPkgMock("a", "1.0.0", "", rel("nosuch", "", "*"), nil, pkg.Unknown, pkg.Unknown),
			},
			spec:      ConstraintSpec{Mandate: []string{"a=1.0.0"}},
			status:    "SAT",
			unchanged: []string{},
		},
		{
			name: "rejected current version stays",
			pkgs: []*pkg.Pkg{
				pkg.NewPkgMock("b", "1.0.0", "", nil, nil, pkg.Present, pkg.Unknown),
			},
			spec:      ConstraintSpec{Reject: []string{"b=1.0.0"}},
			status:    "SAT",
			unchanged: []string{"b-1.0.0-"},
		},
		{
			name: "rejected version that is requested",
			pkgs: []*pkg.Pkg{
				pkg.NewPkgMock("b", "1.0.0", "", nil, nil, pkg.Unknown, pkg.Present),
			},
			spec:   ConstraintSpec{Reject: []string{"b=1.0.0"}},
			status: "UNSAT",
		},
	} {
		t.Run(tcase.name, func(t *testing.T) {
			is := assert.New(t)
			s := New(nil)
			s.BuildWorldMock(tcase.pkgs)
			cons, err := ParseConstraints(s.Universe(), tcase.spec)
			require.NoError(t, err)

			is.Equal(tcase.status, s.Check(cons).Status)

			opts := testOptions()
			opts.Constraints = cons
			require.NoError(t, s.Solve(context.Background(), opts))
			is.Equal(tcase.status, s.PkgResultSet.Status)
			if tcase.status != "SAT" {
				return
			}
			res := s.PkgResultSet.Solutions[0]
			is.Empty(res.ToInstall)
			is.Empty(res.ToRemove)
			is.Equal(tcase.unchanged, fingerprints(res.PresentUnchanged))
		})
	}
}
