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

// Package resolver is a best-first dependency resolver over a universe of
// packages. It searches the space of partial solutions ordered by tier and
// score, learns "promotions" from dead ends so whole subtrees are skipped,
// and lets callers steer it by rejecting or mandating versions between
// searches.
//
// A Resolver is not safe for concurrent use, except for Counts and Cancel,
// which may be called from another goroutine while FindNextSolution runs.
package resolver
