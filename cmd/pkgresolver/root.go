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
	"io"

	"github.com/Masterminds/log-go"
	logcli "github.com/Masterminds/log-go/impl/cli"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var globalUsage = `Resolve the broken dependencies of a world of packages.

A world file lists every known package version together with its
dependencies, optional dependencies and conflicts on semver ranges of other
packages. Packages are marked as currently installed, and as requested to be
installed or removed; pkgresolver searches for the best sets of changes that
fulfil the requests without breaking any dependency.

Environment variables:

| Name                   | Description                                |
|------------------------|--------------------------------------------|
| $PKGRESOLVER_DEBUG     | enable verbose output                      |
| $PKGRESOLVER_NOCOLORS  | disable colorized output                   |
| $PKGRESOLVER_NOEMOJIS  | disable emojis in output                   |
| $PKGRESOLVER_CONFIG    | path to the resolver configuration file    |
`

func newRootCmd(out io.Writer, args []string) (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:          "pkgresolver",
		Short:        "A best-first package dependency resolver",
		Long:         globalUsage,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	settings.AddFlags(flags)

	flags.ParseErrorsWhitelist.UnknownFlags = true
	err := flags.Parse(args)
	if err != nil && !errors.Is(err, pflag.ErrHelp) {
		return nil, errors.Wrapf(err, "failed while parsing flags for %s", args)
	}

	if settings.NoColors {
		color.NoColor = true // disable colorized output
	}

	logger := newLogger(out)
	log.Current = logger

	cmd.AddCommand(
		newSolveCmd(logger),
		newCheckCmd(logger),
		newVersionCmd(logger),
	)

	return cmd, nil
}

func newLogger(out io.Writer) *logcli.Logger {
	logger := logcli.NewStandard()
	logger.InfoOut = out
	logger.WarnOut = out
	logger.ErrorOut = out
	logger.DebugOut = out
	if settings.Debug {
		logger.Level = log.DebugLevel
	}
	return logger
}
