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

// Package resolverpath calculates filesystem paths to pkgresolver's
// configuration, following the XDG base directory layout.
package resolverpath

import (
	"os"
	"path/filepath"
)

// ConfigHomeEnvVar overrides the base configuration directory.
const ConfigHomeEnvVar = "XDG_CONFIG_HOME"

const appName = "pkgresolver"

// lazypath is an application name whose paths are resolved on each call,
// so that changes to the environment are picked up at runtime.
type lazypath string

func (l lazypath) configPath(elem ...string) string {
	base := os.Getenv(ConfigHomeEnvVar)
	if base == "" {
		var err error
		if base, err = os.UserConfigDir(); err != nil {
			base = filepath.Join(os.TempDir(), ".config")
		}
	}
	return filepath.Join(append([]string{base, string(l)}, elem...)...)
}

var lp = lazypath(appName)

// ConfigPath returns the path where pkgresolver stores configuration.
func ConfigPath(elem ...string) string { return lp.configPath(elem...) }

// ConfigFile returns the default resolver configuration file.
func ConfigFile() string { return ConfigPath("config.yaml") }
