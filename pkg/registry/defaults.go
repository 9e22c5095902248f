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

package registry

import (
	"github.com/walteh/aiwf/pkg/policy"
)

// WorkflowRoot is where the shared workflow documents live in both the
// template repository and the workspace
const WorkflowRoot = "docs/ai"

const openCodeConfig = `{
  "$schema": "https://opencode.ai/config.json",
  "instructions": [
    "AGENTS.md",
    "docs/ai/project/CODE_CONVENTIONS.md",
    "docs/ai/project/PROJECT_STRUCTURE.md"
  ]
}
`

// WorkflowTable is the policy table of the shared workflow documents
func WorkflowTable() policy.Table {
	var table policy.Table
	for _, dir := range []string{"planning", "testing", "requirements"} {
		table = append(table,
			policy.Entry{Path: dir, Policy: policy.Force("archive/**")},
			policy.Entry{Path: dir + "/archive", Policy: policy.EnsureDir()},
		)
	}
	return append(table,
		policy.Entry{Path: "project", Policy: policy.Protected("CODE_CONVENTIONS.md", "PROJECT_STRUCTURE.md")},
		policy.Entry{Path: "project/template-convention", Policy: policy.Replace()},
	)
}

// DefaultTools returns the stock tool catalog
func DefaultTools() []Tool {
	return []Tool{
		{
			ID:          "workflow",
			Name:        "AI workflow docs",
			Description: "planning, testing and requirements templates plus project conventions",
			Source:      WorkflowRoot,
			Destination: WorkflowRoot,
			Table:       WorkflowTable(),
			Required:    true,
		},
		{
			ID:          "cursor",
			Name:        "Cursor",
			Description: "Cursor commands",
			Source:      ".",
			Destination: ".",
			Table: policy.Table{
				{Path: ".cursor/commands", Policy: policy.Replace()},
			},
		},
		{
			ID:          "copilot",
			Name:        "GitHub Copilot",
			Description: "Copilot prompt files",
			Source:      ".",
			Destination: ".",
			Table: policy.Table{
				{Path: ".github/prompts", Policy: policy.Replace()},
			},
		},
		{
			ID:          "claude",
			Name:        "Claude Code",
			Description: "Claude commands, skills and settings",
			Source:      ".",
			Destination: ".",
			Table: policy.Table{
				{Path: ".claude/commands", Policy: policy.Replace()},
				{Path: ".claude/skills", Policy: policy.Replace()},
				{Path: ".claude", Policy: policy.Selective("settings.json")},
				{Path: ".", Policy: policy.Protected("CLAUDE.md")},
			},
		},
		{
			ID:          "opencode",
			Name:        "OpenCode",
			Description: "OpenCode commands and opencode.json",
			Source:      ".",
			Destination: ".",
			Table: policy.Table{
				{Path: ".opencode/command", Policy: policy.Replace()},
			},
			Scaffold: &Scaffold{Path: "opencode.json", Content: []byte(openCodeConfig)},
		},
	}
}

// Default builds the registry of the stock catalog
func Default() (*Registry, error) {
	return New(DefaultTools()...)
}
