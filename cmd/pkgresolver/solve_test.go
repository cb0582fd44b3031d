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
	"testing"
)

func TestSolveCmd(t *testing.T) {
	tests := []cmdTestCase{
		{
			name:     "solve, table output",
			cmd:      "solve testdata/install.yaml --nocolor --noemoji",
			contains: []string{"Status: SAT", "Solution 1", "app", "cache", "2.1.0"},
			excludes: []string{"Solution 2", "Leaves broken"},
		},
		{
			name:     "solve, several solutions as json",
			cmd:      "solve testdata/install.yaml --solutions 2 -o json",
			contains: []string{`"status":"SAT"`, `"brokenOptional":["app 1.0.0 -S> {cache 1.0.0}"]`},
		},
		{
			name:     "solve, yaml output",
			cmd:      "solve testdata/install.yaml --output yaml",
			contains: []string{"status: SAT", "toInstall:", "toRemove:", "currentState: present"},
		},
		{
			name:     "solve, configuration makes breaking cheaper",
			cmd:      "--config testdata/resolver.yaml solve testdata/install.yaml --nocolor --noemoji",
			contains: []string{"Status: SAT", "Leaves broken: app 1.0.0 -S> {cache 1.0.0}"},
		},
		{
			name:     "solve, config from the environment",
			cmd:      "solve testdata/install.yaml --nocolor --noemoji",
			envvars:  map[string]string{"PKGRESOLVER_CONFIG": "testdata/resolver.yaml"},
			contains: []string{"Leaves broken: app 1.0.0 -S> {cache 1.0.0}"},
		},
		{
			name:     "solve, score the optional dependency down",
			cmd:      "solve testdata/install.yaml --nocolor --noemoji --score cache=1.0.0:-1000",
			contains: []string{"Leaves broken: app 1.0.0 -S> {cache 1.0.0}"},
		},
		{
			name:     "solve, approve breaking the optional dependency",
			cmd:      "solve testdata/install.yaml --nocolor --noemoji --approve-break app=1.0.0>cache",
			contains: []string{"Leaves broken: app 1.0.0 -S> {cache 1.0.0}"},
		},
		{
			name:     "solve, defer a version to a tier",
			cmd:      `solve testdata/install.yaml --nocolor --noemoji --tier "cache=1.0.0:10,1"`,
			contains: []string{"Leaves broken: app 1.0.0 -S> {cache 1.0.0}"},
		},
		{
			name:      "solve, rejecting the only matching version",
			cmd:       "solve testdata/install.yaml --nocolor --noemoji --reject db=2.1.0",
			contains:  []string{"Status: UNSAT"},
			wantError: true,
		},
		{
			name:     "solve, debug output",
			cmd:      "solve testdata/install.yaml --debug --noemoji",
			contains: []string{"version scores: {", "SCORE app <", "search finished in"},
		},
		{
			name:     "solve, with metrics",
			cmd:      "solve testdata/install.yaml --metrics",
			contains: []string{"pkgresolver_resolver_closed_steps", "pkgresolver_search_duration_seconds"},
		},
		{
			name:      "solve, unknown version reference",
			cmd:       "solve testdata/install.yaml --mandate db=9.9.9",
			wantError: true,
		},
		{
			name:      "solve, world with unknown fields",
			cmd:       "solve testdata/broken.yaml",
			wantError: true,
		},
		{
			name:      "solve, missing world",
			cmd:       "solve testdata/nope.yaml",
			wantError: true,
		},
		{
			name:      "solve, no world",
			cmd:       "solve",
			wantError: true,
		},
		{
			name:      "solve, bad output format",
			cmd:       "solve testdata/install.yaml -o xml",
			wantError: true,
		},
	}
	runTestCmd(t, tests)
}

func TestCheckCmd(t *testing.T) {
	tests := []cmdTestCase{
		{
			name:     "check, satisfiable",
			cmd:      "check testdata/install.yaml --nocolor --noemoji",
			contains: []string{"Status: SAT", "Optional dependencies left broken at least: 0"},
		},
		{
			name:      "check, rejecting the only matching version",
			cmd:       "check testdata/install.yaml -o yaml --reject db=2.1.0",
			contains:  []string{"status: UNSAT"},
			wantError: true,
		},
		{
			name:     "check, hardened optional dependency as json",
			cmd:      "check testdata/install.yaml -o json --harden app=1.0.0>cache",
			contains: []string{`"status":"SAT"`, `"brokenOptional":0`, `"app 1.0.0"`, `"cache 1.0.0"`},
		},
	}
	runTestCmd(t, tests)
}

func TestVersionCmd(t *testing.T) {
	tests := []cmdTestCase{
		{
			name:     "version, short",
			cmd:      "version --short",
			contains: []string{"v0.1"},
		},
		{
			name:     "version, template",
			cmd:      "version --template 'v={{.Version}}'",
			contains: []string{"v=v0.1"},
		},
		{
			name:     "version, full",
			cmd:      "version",
			contains: []string{"version.BuildInfo{"},
		},
		{
			name:      "version, arguments",
			cmd:       "version now",
			wantError: true,
		},
	}
	runTestCmd(t, tests)
}
