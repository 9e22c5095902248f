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
Package operation orchestrates an install as an ordered list of steps.

	+-----------+     +-----------+     +-----------+     +-----------+
	|   sync    | --> | scaffold  | --> |  fetch    | --> |  convert  |
	| per tool  |     | if absent |     | AGENTS.md |     | optional  |
	+-----------+     +-----------+     +-----------+     +-----------+

🎯 Purpose:
- Turns a tool selection into steps (Plan)
- Runs them strictly in order and stops at the first failure (OperationRunner)
- Reports every touched path through an Observer

🔄 Steps:
1. sync: fetches the tool's template sub-tree and applies its policy table (package syncer)
2. scaffold: writes a tool's config file only when it is missing
3. fetch: copies AGENTS.md from the template root, always overwriting
4. convert: rewrites canonical command documents for other tools (package text)

⚡ Conversion failures are collected per document and target; a failed write
never stops the remaining ones.

🔍 Example:

	reg, _ := registry.Default()
	err := operation.Install(ctx, operation.Options{
		Fetcher: fetcher,
		Source:  remote.Locator{Repo: "github.com/org/templates", Ref: "main"},
		Files:   status.NewManager("."),
	}, reg, []string{"cursor", "claude"})
*/
package operation
