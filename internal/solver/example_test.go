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
	"bytes"
	"context"
	"fmt"

	"github.com/Masterminds/log-go"
	logcli "github.com/Masterminds/log-go/impl/cli"

	pkg "github.com/rancher-sandbox/pkgresolver/internal/package"
	"github.com/rancher-sandbox/pkgresolver/internal/resolver"
)

func ExampleSolver() {

	// Create a slice of mock packages:
	pkgs := []*pkg.Pkg{
		pkg.NewPkgMock("notinstalledbar", "1.0.0", "notinstalledtargetns", nil, nil, pkg.Unknown, pkg.Unknown),
		pkg.NewPkgMock("notinstalledbar", "2.0.0", "notinstalledtargetns", nil, nil, pkg.Unknown, pkg.Unknown),
		pkg.NewPkgMock("myawesomedep", "0.1.100", "myawesomedeptargetns", nil, nil, pkg.Unknown, pkg.Unknown),
		// package to modify (install, in this case, see pkg.DesiredState set to Present):
		pkg.NewPkgMock("wantedbaz", "1.0.0", "wantedbazns",
			// dependency relations of wantedbaz:
			[]*pkg.PkgRel{{
				Name:        "myawesomedep",
				Namespace:   "myawesomedeptargetns",
				SemverRange: "~0.1.0",
			}},
			nil, pkg.Unknown, pkg.Present),
		// packages already installed:
		pkg.NewPkgMock("installedfoo", "1.0.0", "installedns", nil, nil, pkg.Present, pkg.Unknown),
	}

	// create our own Logger that satisfies impl/cli.Logger, but with a buffer for tests
	buf := new(bytes.Buffer)
	logger := logcli.NewStandard()
	logger.InfoOut = buf
	logger.WarnOut = buf
	logger.ErrorOut = buf
	logger.DebugOut = buf
	log.Current = logger

	s := New(logger)

	// Fill the DB with our mock packages:
	s.BuildWorldMock(pkgs)
	s.PkgDB.DebugPrintDB(logger)

	// Call the solver
	err := s.Solve(context.Background(), Options{
		Resolver: resolver.Config{
			Weights:       resolver.Weights{StepScore: -10, BrokenScore: -100, UnfixedSoftScore: -200, FullSolutionScore: 50},
			Infinity:      1000000,
			FutureHorizon: 50,
		},
		Scores:   VersionScores{Remove: -300, Install: -20},
		MaxSteps: 5000,
	})
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println("Status:", s.PkgResultSet.Status)
	for _, res := range s.PkgResultSet.Solutions {
		for _, p := range res.ToInstall {
			fmt.Println("install", p.GetFingerPrint())
		}
		for _, p := range res.PresentUnchanged {
			fmt.Println("keep", p.GetFingerPrint())
		}
	}

	// Output:
	// Status: SAT
	// install myawesomedep-0.1.100-myawesomedeptargetns
	// install wantedbaz-1.0.0-wantedbazns
	// keep installedfoo-1.0.0-installedns
}
