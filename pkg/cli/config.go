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

	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"

	"github.com/rancher-sandbox/pkgresolver/internal/resolver"
	"github.com/rancher-sandbox/pkgresolver/internal/solver"
)

// ResolverConfig holds the scoring and budget parameters of a search, as
// read from a configuration file.
type ResolverConfig struct {
	StepScore         int `json:"stepScore"`
	BrokenScore       int `json:"brokenScore"`
	UnfixedSoftScore  int `json:"unfixedSoftScore"`
	FullSolutionScore int `json:"fullSolutionScore"`
	Infinity          int `json:"infinity"`
	FutureHorizon     int `json:"futureHorizon"`
	MaxSteps          int `json:"maxSteps"`

	KeepScore      int `json:"keepScore"`
	RemoveScore    int `json:"removeScore"`
	InstallScore   int `json:"installScore"`
	UpgradeScore   int `json:"upgradeScore"`
	DowngradeScore int `json:"downgradeScore"`
}

// DefaultResolverConfig returns the parameters used when no configuration
// file overrides them.
func DefaultResolverConfig() *ResolverConfig {
	return &ResolverConfig{
		StepScore:         -10,
		BrokenScore:       -100,
		UnfixedSoftScore:  -200,
		FullSolutionScore: 50,
		Infinity:          1000000,
		FutureHorizon:     50,
		MaxSteps:          5000,
		RemoveScore:       -300,
		InstallScore:      -20,
		DowngradeScore:    -40,
	}
}

// LoadResolverConfig reads a YAML or JSON configuration file over the
// defaults. An empty path yields the defaults.
func LoadResolverConfig(path string) (*ResolverConfig, error) {
	cfg := DefaultResolverConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed reading config %s", path)
	}
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "failed decoding config %s", path)
	}
	if cfg.MaxSteps <= 0 {
		return nil, errors.Errorf("config %s: maxSteps must be positive, got %d", path, cfg.MaxSteps)
	}
	if cfg.Infinity < 0 {
		return nil, errors.Errorf("config %s: infinity must not be negative, got %d", path, cfg.Infinity)
	}
	return cfg, nil
}

// SolverOptions turns the configuration into options for a solve.
func (c *ResolverConfig) SolverOptions() solver.Options {
	return solver.Options{
		Resolver: resolver.Config{
			Weights: resolver.Weights{
				StepScore:         c.StepScore,
				BrokenScore:       c.BrokenScore,
				UnfixedSoftScore:  c.UnfixedSoftScore,
				FullSolutionScore: c.FullSolutionScore,
			},
			Infinity:      c.Infinity,
			FutureHorizon: c.FutureHorizon,
		},
		Scores: solver.VersionScores{
			Keep:      c.KeepScore,
			Remove:    c.RemoveScore,
			Install:   c.InstallScore,
			Upgrade:   c.UpgradeScore,
			Downgrade: c.DowngradeScore,
		},
		MaxSteps:  c.MaxSteps,
		Solutions: 1,
	}
}
