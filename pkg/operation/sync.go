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

	"github.com/walteh/aiwf/pkg/policy"
	"github.com/walteh/aiwf/pkg/registry"
	"github.com/walteh/aiwf/pkg/status"
	"github.com/walteh/aiwf/pkg/syncer"
)

// 🔄 NewSyncOperation creates an operation synchronizing one tool's assets
func NewSyncOperation(opts Options, tool registry.Tool) Operation {
	return &syncOperation{
		BaseOperation: NewBaseOperation(opts),
		tool:          tool,
	}
}

type syncOperation struct {
	BaseOperation
	tool registry.Tool
}

func (op *syncOperation) Name() string {
	return "sync " + op.tool.ID
}

// 🏃 Execute fetches the tool's source tree and applies its policy table
func (op *syncOperation) Execute(ctx context.Context) error {
	logger := op.logger(ctx, op.Name())

	engine := syncer.New(op.Fetcher,
		syncer.WithStagingRoot(op.StagingRoot),
		syncer.WithObserver(func(entry status.Entry) {
			entry.Path = policy.Join(op.tool.Destination, entry.Path)
			op.observe(entry)
		}),
	)

	loc := op.Source.Sub(op.tool.Source)
	report, err := engine.Synchronize(ctx, loc, op.Files.Abs(op.tool.Destination), op.tool.Table)
	if err != nil {
		return err
	}

	logger.Debug().
		Int("created", report.Count(status.Created)).
		Int("overwritten", report.Count(status.Overwritten)).
		Int("preserved", report.Count(status.Preserved)).
		Int("skipped", report.Count(status.SkippedAbsent)).
		Msg("tool synchronized")
	return nil
}
