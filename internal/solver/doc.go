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
Package solver resolves changes to a world of packages.

A package is an object comprised of a unique key (name, version, namespace)
and its relations to other packages: hard dependencies, optional
dependencies and conflicts, each on a semver range of another package. Every
package also carries a current state (installed or not) and a desired state
(requested to be installed or removed).

To resolve a world, we:

 1. Build a database of all packages in the world (PkgDB). Adding packages
    can happen in any order: db.Add() merges new information into a package
    already present.

 2. Build a Universe over the database: packages that only differ in the
    version become versions of one package, alongside an "absent" version
    standing for not installed. Desired states become dependencies of a
    synthetic request package that is always installed.

 3. Check with the gophersat MAXSAT solver that some installation satisfies
    every hard dependency, and bail out early when none does.

 4. Search the Universe with the best-first resolver, and collect every
    solution as the packages to install, to remove, and to keep.
*/
package solver
