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

package operation

import (
	"context"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/aiwf/pkg/registry"
	"github.com/walteh/aiwf/pkg/text"
)

// 🗺️ Plan builds the install steps for the selected tool ids: sync every
// required tool, sync every selected tool, write scaffolds, fetch the base
// instructions file, then convert canonical documents when enabled for the
// targets of the tools being installed.
func Plan(opts Options, reg *registry.Registry, selection []string) ([]Operation, error) {
	if err := opts.validate(); err != nil {
		return nil, errors.Errorf("invalid options: %w", err)
	}

	selected, err := reg.Resolve(selection)
	if err != nil {
		return nil, err
	}
	tools := append(reg.Required(), selected...)

	var ops []Operation
	for _, tool := range tools {
		ops = append(ops, NewSyncOperation(opts, tool))
	}
	for _, tool := range tools {
		if tool.Scaffold != nil {
			ops = append(ops, NewScaffoldOperation(opts, tool))
		}
	}
	ops = append(ops, NewFetchFileOperation(opts, AgentsFile))
	if opts.Convert.Enabled {
		opts.Convert.Targets = activeTargets(opts.Convert.Targets, reg, tools)
		if len(opts.Convert.Targets) > 0 {
			ops = append(ops, NewConvertOperation(opts))
		}
	}
	return ops, nil
}

// activeTargets drops the targets of registered tools that are not being
// installed. Targets with an id unknown to the registry are kept.
func activeTargets(targets []text.Target, reg *registry.Registry, tools []registry.Tool) []text.Target {
	installing := map[string]bool{}
	for _, tool := range tools {
		installing[tool.ID] = true
	}
	known := map[string]bool{}
	for _, id := range reg.IDs() {
		known[id] = true
	}

	out := make([]text.Target, 0, len(targets))
	for _, t := range targets {
		if known[t.ID] && !installing[t.ID] {
			continue
		}
		out = append(out, t)
	}
	return out
}

// 🚀 Install plans and runs an install. The first failure stops the run.
func Install(ctx context.Context, opts Options, reg *registry.Registry, selection []string) error {
	ops, err := Plan(opts, reg, selection)
	if err != nil {
		return err
	}
	return NewRunner(zerolog.Ctx(ctx)).WithReporter(opts.Reporter).Run(ctx, ops...)
}
