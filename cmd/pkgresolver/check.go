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
	"encoding/json"
	"fmt"
	"io"

	"github.com/Masterminds/log-go"
	logio "github.com/Masterminds/log-go/io"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/rancher-sandbox/pkgresolver/internal/solver"
	"github.com/rancher-sandbox/pkgresolver/pkg/eyecandy"
)

const checkDesc = `
This command checks whether any installation satisfies every hard
dependency and request of a world, without searching for the best one.

On success it reports the least number of optional dependencies that any
such installation leaves broken.
`

type checkOptions struct {
	spec   solver.ConstraintSpec
	outfmt solver.OutputMode
}

func newCheckCmd(logger log.Logger) *cobra.Command {
	o := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "check [WORLD]",
		Short: "check that a world can be solved",
		Long:  checkDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return o.run(args[0], logger)
		},
	}
	addConstraintFlags(cmd.Flags(), &o.spec)
	bindOutputFlag(cmd, &o.outfmt)
	return cmd
}

func (o *checkOptions) run(path string, logger log.Logger) error {
	wInfo := logio.NewWriter(logger, log.InfoLevel)

	s, err := loadSolver(path, logger)
	if err != nil {
		return err
	}
	cons, err := solver.ParseConstraints(s.Universe(), o.spec)
	if err != nil {
		return err
	}
	res := s.Check(cons)
	if err := printCheck(wInfo, res, o.outfmt); err != nil {
		return err
	}
	if !res.IsSAT() {
		return errors.New("the world cannot be solved")
	}
	return nil
}

func printCheck(w io.Writer, res *solver.CheckResult, outfmt solver.OutputMode) error {
	switch outfmt {
	case solver.JSON:
		o, err := json.Marshal(res)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(o))
		return err
	case solver.YAML:
		o, err := yaml.Marshal(res)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(w, string(o))
		return err
	}
	line := eyecandy.StatusLine(settings.NoEmojis, res.Status)
	if res.IsSAT() {
		fmt.Fprintln(w, green(line))
		fmt.Fprintf(w, "Optional dependencies left broken at least: %d\n", res.BrokenOptional)
	} else {
		fmt.Fprintln(w, red(line))
	}
	return nil
}
