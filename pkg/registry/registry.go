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

// Package registry holds the catalog of installable tools and the policy
// tables that describe how each one is synchronized.
package registry

import (
	"fmt"
	"strings"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/aiwf/pkg/policy"
)

// 📝 Scaffold is a file written once when a tool is installed and never touched again
type Scaffold struct {
	Path    string // slash separated, relative to the workspace root
	Content []byte
}

// 🧰 Tool describes one installable target and how its assets are synchronized
type Tool struct {
	ID          string
	Name        string
	Description string

	// Source is the sub-path inside the template repository
	Source string

	// Destination is the sub-path inside the workspace
	Destination string

	Table    policy.Table
	Scaffold *Scaffold

	// Required tools are installed regardless of the selection
	Required bool
}

// Claims returns the workspace paths owned by the tool
func (t Tool) Claims() []policy.Claim {
	var claims []policy.Claim
	for _, e := range t.Table {
		for _, c := range e.Claims() {
			claims = append(claims, c.Rebase(t.Destination))
		}
	}
	if t.Scaffold != nil {
		claims = append(claims, policy.Claim{Path: policy.Clean(t.Scaffold.Path)})
	}
	return claims
}

func (t Tool) validate() error {
	if t.ID == "" {
		return errors.New("id is required")
	}
	if strings.ContainsAny(t.ID, " ,") {
		return errors.Errorf("id %q must not contain spaces or commas", t.ID)
	}
	if err := t.Table.Validate(); err != nil {
		return errors.Errorf("invalid policy table: %w", err)
	}
	if t.Scaffold != nil {
		p := t.Scaffold.Path
		if p == "" || strings.HasPrefix(p, "/") || policy.Clean(p) != p || strings.HasPrefix(p, "../") {
			return errors.Errorf("invalid scaffold path %q", p)
		}
	}
	return nil
}

// UnknownToolError is returned when a tool id is not in the registry
type UnknownToolError struct {
	ID    string
	Known []string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q (available: %s)", e.ID, strings.Join(e.Known, ", "))
}

// 📒 Registry is an immutable, validated list of tools
type Registry struct {
	tools []Tool
	index map[string]int
}

// New validates tools and builds a registry. Tool ids must be unique, every
// table must be valid, and no two tools may claim the same workspace path.
func New(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: tools, index: make(map[string]int, len(tools))}

	for i, t := range tools {
		if err := t.validate(); err != nil {
			return nil, errors.Errorf("tool %d (%s): %w", i, t.ID, err)
		}
		if _, ok := r.index[t.ID]; ok {
			return nil, errors.Errorf("tool %q is registered twice", t.ID)
		}
		r.index[t.ID] = i
	}

	for i := range tools {
		for j := i + 1; j < len(tools); j++ {
			if err := overlap(tools[i], tools[j]); err != nil {
				return nil, err
			}
		}
	}

	return r, nil
}

func overlap(a, b Tool) error {
	for _, ca := range a.Claims() {
		for _, cb := range b.Claims() {
			if ca.Overlaps(cb) {
				return errors.Errorf("tools %q and %q both claim %s", a.ID, b.ID, overlapPath(ca, cb))
			}
		}
	}
	return nil
}

func overlapPath(a, b policy.Claim) string {
	if len(a.Path) >= len(b.Path) {
		return a.Path
	}
	return b.Path
}

// Lookup returns the tool with the given id
func (r *Registry) Lookup(id string) (Tool, error) {
	i, ok := r.index[id]
	if !ok {
		return Tool{}, &UnknownToolError{ID: id, Known: r.IDs()}
	}
	return r.tools[i], nil
}

// All returns every tool in declaration order
func (r *Registry) All() []Tool {
	out := make([]Tool, len(r.tools))
	copy(out, r.tools)
	return out
}

// IDs returns every tool id in declaration order
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.tools))
	for _, t := range r.tools {
		ids = append(ids, t.ID)
	}
	return ids
}

// Selectable returns the tools a user can choose, in declaration order
func (r *Registry) Selectable() []Tool {
	return r.filter(false)
}

// Required returns the tools that are always installed, in declaration order
func (r *Registry) Required() []Tool {
	return r.filter(true)
}

func (r *Registry) filter(required bool) []Tool {
	var out []Tool
	for _, t := range r.tools {
		if t.Required == required {
			out = append(out, t)
		}
	}
	return out
}

// Resolve looks up ids and returns the matching selectable tools in
// declaration order, without duplicates
func (r *Registry) Resolve(ids []string) ([]Tool, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		t, err := r.Lookup(id)
		if err != nil {
			return nil, err
		}
		if t.Required {
			continue
		}
		want[id] = true
	}

	var out []Tool
	for _, t := range r.tools {
		if want[t.ID] {
			out = append(out, t)
		}
	}
	return out, nil
}
