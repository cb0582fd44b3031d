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
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/Masterminds/log-go"
	logio "github.com/Masterminds/log-go/io"
	units "github.com/docker/go-units"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rancher-sandbox/pkgresolver/internal/metrics"
	"github.com/rancher-sandbox/pkgresolver/internal/resolver"
	"github.com/rancher-sandbox/pkgresolver/internal/solver"
	"github.com/rancher-sandbox/pkgresolver/pkg/cli"
	"github.com/rancher-sandbox/pkgresolver/pkg/eyecandy"
)

const solveDesc = `
This command searches for solutions to the requests of a world file.

Solutions are produced best first. The score of a solution adds a cost per
change and per optional dependency left broken, and a bonus for versions
scored up by the configuration or by --score. Use --solutions to see more
than the best one.

Versions are referred to as name=version (namespace/name=version for
packages in a namespace, name=absent for not installed), and optional
dependencies as name=version>target.

Interrupting the search (Ctrl+C) prints the solutions found so far.
`

type solveOptions struct {
	spec      solver.ConstraintSpec
	maxSteps  int
	solutions int
	outfmt    solver.OutputMode
	progress  bool
	metrics   bool
}

func newSolveCmd(logger log.Logger) *cobra.Command {
	o := &solveOptions{}

	cmd := &cobra.Command{
		Use:   "solve [WORLD]",
		Short: "find the best solutions for a world",
		Long:  solveDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			return o.run(ctx, args[0], logger)
		},
	}
	f := cmd.Flags()
	addConstraintFlags(f, &o.spec)
	addSearchConstraintFlags(f, &o.spec)
	f.IntVar(&o.maxSteps, "max-steps", 0, "steps to spend on each solution (default from the configuration)")
	f.IntVar(&o.solutions, "solutions", 1, "number of solutions to look for")
	f.BoolVar(&o.progress, "progress", false, "show search progress on a terminal")
	f.BoolVar(&o.metrics, "metrics", false, "print search metrics after the results")
	bindOutputFlag(cmd, &o.outfmt)
	return cmd
}

func (o *solveOptions) run(ctx context.Context, path string, logger log.Logger) error {
	// Get an io.Writer compliant logger instance at the info level.
	wInfo := logio.NewWriter(logger, log.InfoLevel)

	cfg, err := cli.LoadResolverConfig(settings.ConfigFile())
	if err != nil {
		return err
	}
	s, err := loadSolver(path, logger)
	if err != nil {
		return err
	}
	cons, err := solver.ParseConstraints(s.Universe(), o.spec)
	if err != nil {
		return err
	}

	opts := cfg.SolverOptions()
	opts.Constraints = cons
	opts.Solutions = o.solutions
	if o.maxSteps > 0 {
		opts.MaxSteps = o.maxSteps
	}
	done := make(chan struct{})
	defer close(done)
	showProgress := o.progress && term.IsTerminal(int(os.Stderr.Fd()))
	opts.OnStart = func(r *resolver.Resolver) {
		if settings.Debug {
			var buf bytes.Buffer
			if err := r.DumpScores(&buf); err == nil {
				logger.Debugf("version scores: %s", buf.String())
			}
		}
		if showProgress {
			go newProgress(os.Stderr, settings.NoEmojis).run(r, done)
		}
	}

	start := time.Now()
	solveErr := s.Solve(ctx, opts)
	logger.Debugf("search finished in %s with status %s", units.HumanDuration(time.Since(start)), s.PkgResultSet.Status)
	if solveErr != nil && s.PkgResultSet.Status != "INTERRUPTED" {
		return solveErr
	}

	if err := printResult(wInfo, s, o.outfmt); err != nil {
		return err
	}
	if o.metrics {
		if err := printMetrics(wInfo, s.Resolver()); err != nil {
			return err
		}
	}
	if !s.IsSAT() {
		return errors.Errorf("no solution found (%s)", s.PkgResultSet.Status)
	}
	return nil
}

func loadSolver(path string, logger log.Logger) (*solver.Solver, error) {
	w, err := solver.LoadWorld(path)
	if err != nil {
		return nil, err
	}
	s := solver.New(logger)
	s.BuildWorld(w)
	for _, incons := range s.Universe().Inconsistencies {
		logger.Warn(incons)
	}
	return s, nil
}

func printResult(w io.Writer, s *solver.Solver, outfmt solver.OutputMode) error {
	if outfmt == solver.Table {
		status := s.PkgResultSet.Status
		line := eyecandy.StatusLine(settings.NoEmojis, status)
		if status == "SAT" {
			line = green(line)
		} else {
			line = red(line)
		}
		fmt.Fprintln(w, line)
	}
	out, err := s.FormatOutput(outfmt)
	if err != nil {
		return err
	}
	if outfmt == solver.Table {
		// the status line above replaces the plain one
		out = strings.TrimPrefix(out, fmt.Sprintf("Status: %s\n", s.PkgResultSet.Status))
	}
	_, err = fmt.Fprint(w, out)
	return err
}

func printMetrics(w io.Writer, r *resolver.Resolver) error {
	gatherers := prometheus.Gatherers{metrics.Registry}
	if r != nil {
		reg := prometheus.NewRegistry()
		if err := reg.Register(metrics.NewResolverCollector(r)); err != nil {
			return err
		}
		gatherers = append(gatherers, reg)
	}
	return metrics.Write(w, gatherers)
}
