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

package resolverpath

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigPath(t *testing.T) {
	os.Setenv(ConfigHomeEnvVar, "/config")
	defer os.Unsetenv(ConfigHomeEnvVar)

	isEq := func(t *testing.T, got, expected string) {
		t.Helper()
		if expected != got {
			t.Errorf("Expected %q, got %q", expected, got)
		}
	}

	isEq(t, ConfigPath(), "/config/pkgresolver")
	isEq(t, ConfigFile(), "/config/pkgresolver/config.yaml")

	// test to see if lazy-loading environment variables at runtime works
	os.Setenv(ConfigHomeEnvVar, "/config2")

	isEq(t, ConfigPath("a", "b"), filepath.Join("/config2", "pkgresolver", "a", "b"))
}

func TestConfigPathFallback(t *testing.T) {
	os.Unsetenv(ConfigHomeEnvVar)
	base, err := os.UserConfigDir()
	if err != nil {
		t.Skip("no user configuration directory")
	}
	if got, expected := ConfigPath(), filepath.Join(base, appName); got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}
}
