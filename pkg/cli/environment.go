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

/*
Package cli describes the operating environment for the pkgresolver CLI.

pkgresolver's environment encapsulates all of the service dependencies
pkgresolver has. These dependencies are expressed as interfaces so that
alternate implementations (mocks, etc.) can be easily generated.
*/
package cli

import (
	"os"
	"strconv"

	"github.com/spf13/pflag"

	"github.com/rancher-sandbox/pkgresolver/pkg/resolverpath"
)

// EnvSettings describes all of the environment settings.
type EnvSettings struct {
	// Debug indicates whether or not pkgresolver is running in Debug mode.
	Debug bool
	// NoColors disables colorized output.
	NoColors bool
	// NoEmojis disables emojis in the output.
	NoEmojis bool
	// Config is the path to the resolver configuration file.
	Config string
}

func New() *EnvSettings {
	env := &EnvSettings{
		Config: os.Getenv("PKGRESOLVER_CONFIG"),
	}
	env.Debug, _ = strconv.ParseBool(os.Getenv("PKGRESOLVER_DEBUG"))
	env.NoColors, _ = strconv.ParseBool(os.Getenv("PKGRESOLVER_NOCOLORS"))
	env.NoEmojis, _ = strconv.ParseBool(os.Getenv("PKGRESOLVER_NOEMOJIS"))
	return env
}

// AddFlags binds flags to the given flagset.
func (s *EnvSettings) AddFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&s.Debug, "debug", s.Debug, "enable verbose output")
	fs.BoolVar(&s.NoColors, "nocolor", s.NoColors, "disable colorized output")
	fs.BoolVar(&s.NoEmojis, "noemoji", s.NoEmojis, "disable emojis in output")
	fs.StringVar(&s.Config, "config", s.Config, "path to the resolver configuration file")
}

// EnvVars returns the environment variables pkgresolver reads, with their
// current values.
func (s *EnvSettings) EnvVars() map[string]string {
	return map[string]string{
		"PKGRESOLVER_DEBUG":    strconv.FormatBool(s.Debug),
		"PKGRESOLVER_NOCOLORS": strconv.FormatBool(s.NoColors),
		"PKGRESOLVER_NOEMOJIS": strconv.FormatBool(s.NoEmojis),
		"PKGRESOLVER_CONFIG":   s.Config,
	}
}

// ConfigFile returns the configuration file to load: the one set explicitly,
// else the default one when it exists, else "".
func (s *EnvSettings) ConfigFile() string {
	if s.Config != "" {
		return s.Config
	}
	if _, err := os.Stat(resolverpath.ConfigFile()); err == nil {
		return resolverpath.ConfigFile()
	}
	return ""
}
