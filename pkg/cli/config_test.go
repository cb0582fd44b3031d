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

package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadResolverConfig(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	for _, tcase := range []struct {
		name    string
		path    string
		wantErr string
		check   func(is *assert.Assertions, cfg *ResolverConfig)
	}{
		{
			name: "defaults",
			check: func(is *assert.Assertions, cfg *ResolverConfig) {
				is.Equal(DefaultResolverConfig(), cfg)
			},
		},
		{
			name: "yaml overrides",
			path: write("partial.yaml", "stepScore: -70\nmaxSteps: 100\nupgradeScore: 5\n"),
			check: func(is *assert.Assertions, cfg *ResolverConfig) {
				is.Equal(-70, cfg.StepScore)
				is.Equal(100, cfg.MaxSteps)
				is.Equal(5, cfg.UpgradeScore)
				is.Equal(-100, cfg.BrokenScore)
			},
		},
		{
			name: "json",
			path: write("config.json", `{"infinity": 0, "futureHorizon": 3}`),
			check: func(is *assert.Assertions, cfg *ResolverConfig) {
				is.Equal(0, cfg.Infinity)
				is.Equal(3, cfg.FutureHorizon)
			},
		},
		{
			name:    "unknown field",
			path:    write("unknown.yaml", "stepscore: 1\nbogus: 2\n"),
			wantErr: "failed decoding config",
		},
		{
			name:    "bad budget",
			path:    write("budget.yaml", "maxSteps: 0\n"),
			wantErr: "maxSteps must be positive",
		},
		{
			name:    "missing file",
			path:    filepath.Join(dir, "nope.yaml"),
			wantErr: "failed reading config",
		},
	} {
		t.Run(tcase.name, func(t *testing.T) {
			is := assert.New(t)
			cfg, err := LoadResolverConfig(tcase.path)
			if tcase.wantErr != "" {
				if is.Error(err) {
					is.Contains(err.Error(), tcase.wantErr)
				}
				return
			}
			require.NoError(t, err)
			tcase.check(is, cfg)
		})
	}
}

func TestSolverOptions(t *testing.T) {
	is := assert.New(t)
	opts := DefaultResolverConfig().SolverOptions()

	is.Equal(-10, opts.Resolver.StepScore)
	is.Equal(-100, opts.Resolver.BrokenScore)
	is.Equal(-200, opts.Resolver.UnfixedSoftScore)
	is.Equal(50, opts.Resolver.FullSolutionScore)
	is.Equal(1000000, opts.Resolver.Infinity)
	is.Equal(50, opts.Resolver.FutureHorizon)
	is.Equal(5000, opts.MaxSteps)
	is.Equal(-300, opts.Scores.Remove)
	is.Equal(1, opts.Solutions)
}
