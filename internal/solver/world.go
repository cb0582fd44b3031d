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

package solver

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"

	pkg "github.com/rancher-sandbox/pkgresolver/internal/package"
)

// World is the content of a world file: every known package version, with
// its current and desired state.
type World struct {
	Packages []*pkg.Pkg `json:"packages"`
}

// ReadWorld decodes a YAML or JSON world and validates its packages.
func ReadWorld(r io.Reader) (*World, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed reading world")
	}
	w := &World{}
	if err := yaml.UnmarshalStrict(data, w); err != nil {
		return nil, errors.Wrap(err, "failed decoding world")
	}
	for i, p := range w.Packages {
		if p == nil {
			return nil, errors.Errorf("world entry %d is empty", i)
		}
		p.ID = -1
		if err := p.Validate(); err != nil {
			return nil, errors.Wrapf(err, "world entry %d", i)
		}
	}
	return w, nil
}

// LoadWorld reads the world file at path.
func LoadWorld(path string) (*World, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed opening world %s", path)
	}
	defer f.Close()
	w, err := ReadWorld(f)
	if err != nil {
		return nil, errors.Wrapf(err, "in %s", path)
	}
	return w, nil
}
