// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

/*
Package syncer merges a remote template tree into a local workspace.

Each call to Synchronize runs four phases with no overlap:

	fetch ──▶ staging tree ──▶ apply policy table ──▶ remove staging

The policy table decides per sub-path what happens:

	ForceOverwrite        copy every file (minus excludes), replacing local ones
	SelectiveSubset       copy only the named files, replacing local ones
	ProtectedCreate       copy the named files only when they are missing locally
	ReplaceDirectory      delete the local directory, then copy the whole tree
	EnsureEmptyDirectory  create the directory once, never populate it

Entries run strictly in table order. A sub-path missing from the template is
recorded as skipped and is not an error. The first filesystem failure stops
the run with a SyncError carrying the entries finished so far.
*/
package syncer
