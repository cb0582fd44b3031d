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
Package universe describes the world a dependency resolver searches: packages,
their versions, and the dependencies between versions.

Everything here is an interface so that the resolver can run unchanged against
an in-memory test world or a world built from a package database. Identity is
by ID: two values denoting the same version must report the same ID.
*/
package universe
