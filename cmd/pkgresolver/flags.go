/*
Copyright The Helm Authors, SUSE LLC.

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
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/rancher-sandbox/pkgresolver/internal/solver"
)

const outputFlag = "output"

var outputFormats = []string{"table", "json", "yaml"}

// bindOutputFlag will add the output flag to the given command and bind the
// value to the given format pointer
func bindOutputFlag(cmd *cobra.Command, varRef *solver.OutputMode) {
	cmd.Flags().VarP(newOutputValue(solver.Table, varRef), outputFlag, "o",
		fmt.Sprintf("prints the output in the specified format. Allowed values: %s", strings.Join(outputFormats, ", ")))

	err := cmd.RegisterFlagCompletionFunc(outputFlag, func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		var formatNames []string
		for _, format := range outputFormats {
			if strings.HasPrefix(format, toComplete) {
				formatNames = append(formatNames, format)
			}
		}
		return formatNames, cobra.ShellCompDirectiveNoFileComp
	})

	if err != nil {
		log.Fatal(err)
	}
}

type outputValue solver.OutputMode

func newOutputValue(defaultValue solver.OutputMode, p *solver.OutputMode) *outputValue {
	*p = defaultValue
	return (*outputValue)(p)
}

func (o *outputValue) String() string {
	return solver.OutputMode(*o).String()
}

func (o *outputValue) Type() string {
	return "format"
}

func (o *outputValue) Set(s string) error {
	outfmt, err := solver.ParseOutputMode(s)
	if err != nil {
		return err
	}
	*o = outputValue(outfmt)
	return nil
}

// addConstraintFlags binds the user constraint flags. Tiers and scores
// are not split on commas, as tiers hold them.
func addConstraintFlags(f *pflag.FlagSet, spec *solver.ConstraintSpec) {
	f.StringArrayVar(&spec.Reject, "reject", nil, "never choose to install `name=version`")
	f.StringArrayVar(&spec.Mandate, "mandate", nil, "prefer `name=version` for every dependency it solves")
	f.StringArrayVar(&spec.Harden, "harden", nil, "turn the optional dependency `name=version>target` into a hard one")
	f.StringArrayVar(&spec.ApproveBreak, "approve-break", nil, "prefer leaving the optional dependency `name=version>target` broken")
}

func addSearchConstraintFlags(f *pflag.FlagSet, spec *solver.ConstraintSpec) {
	f.StringArrayVar(&spec.Scores, "score", nil, "add to the score of a version, as `name=version:score`")
	f.StringArrayVar(&spec.Tiers, "tier", nil, "search a version at a tier, as `name=version:tier`")
}
