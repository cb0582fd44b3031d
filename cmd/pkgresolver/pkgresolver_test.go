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
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/mattn/go-shellwords"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"

	"github.com/rancher-sandbox/pkgresolver/pkg/cli"
	"github.com/rancher-sandbox/pkgresolver/pkg/resolverpath"
)

// cmdTestCase describes a test case run against the root command.
type cmdTestCase struct {
	name      string
	cmd       string
	envvars   map[string]string
	wantError bool
	contains  []string
	excludes  []string
}

func runTestCmd(t *testing.T, tests []cmdTestCase) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer resetEnv()()
			os.Setenv(resolverpath.ConfigHomeEnvVar, t.TempDir())

			for k, v := range tt.envvars {
				os.Setenv(k, v)
			}
			t.Logf("running cmd: %s", tt.cmd)
			_, out, err := executeCommandStdinC(tt.cmd)
			if (err != nil) != tt.wantError {
				t.Errorf("expected error %t, got '%v'", tt.wantError, err)
			}
			is := assert.New(t)
			for _, s := range tt.contains {
				is.Contains(out, s)
			}
			for _, s := range tt.excludes {
				is.NotContains(out, s)
			}
		})
	}
}

func executeCommandStdinC(cmd string) (*cobra.Command, string, error) {

	args, err := shellwords.Parse(cmd)

	if err != nil {
		return nil, "", err
	}

	settings = cli.New()
	buf := new(bytes.Buffer)
	root, err := newRootCmd(buf, args)
	if err != nil {
		return nil, "", err
	}

	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)

	oldStdin := os.Stdin

	c, err := root.ExecuteC()
	result := buf.String()
	os.Stdin = oldStdin

	return c, result, err
}

func resetEnv() func() {
	origEnv := os.Environ()
	for e := range cli.New().EnvVars() {
		os.Unsetenv(e)
	}
	return func() {
		os.Clearenv()
		for _, pair := range origEnv {
			kv := strings.SplitN(pair, "=", 2)
			os.Setenv(kv[0], kv[1])
		}
		settings = cli.New()
	}
}
