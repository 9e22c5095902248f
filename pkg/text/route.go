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

package text

import (
	"path"
	"strings"
)

// 🎯 Target is a tool specific output format for converted documents
type Target struct {
	ID        string // tool id, e.g. "cursor"
	Dir       string // slash separated directory relative to the workspace root
	Extension string // replaces the ".md" suffix of the source name
}

// Route is the destination of one document for one target
type Route struct {
	Target Target
	Path   string // slash separated, relative to the workspace root
}

// Variant is the converted text of one document for one target
type Variant struct {
	Route
	Content string
}

// DefaultTargets returns the Cursor command and Copilot prompt formats
func DefaultTargets() []Target {
	return []Target{
		{ID: "cursor", Dir: ".cursor/commands", Extension: ".md"},
		{ID: "copilot", Dir: ".github/prompts", Extension: ".prompt.md"},
	}
}

// RouteTargets maps a source file name to its destination for every target,
// in target order. The ".md" suffix (if any) is replaced by the target extension.
func RouteTargets(filename string, targets []Target) []Route {
	base := strings.TrimSuffix(path.Base(filename), ".md")
	routes := make([]Route, 0, len(targets))
	for _, t := range targets {
		ext := t.Extension
		if ext == "" {
			ext = ".md"
		}
		routes = append(routes, Route{Target: t, Path: path.Join(t.Dir, base+ext)})
	}
	return routes
}
