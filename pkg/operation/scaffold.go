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
	"os"
	"path/filepath"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/aiwf/pkg/registry"
	"github.com/walteh/aiwf/pkg/remote"
	"github.com/walteh/aiwf/pkg/status"
)

// 📝 NewScaffoldOperation creates an operation writing a tool's scaffold file
// only when it does not exist yet
func NewScaffoldOperation(opts Options, tool registry.Tool) Operation {
	return &scaffoldOperation{
		BaseOperation: NewBaseOperation(opts),
		tool:          tool,
	}
}

type scaffoldOperation struct {
	BaseOperation
	tool registry.Tool
}

func (op *scaffoldOperation) Name() string {
	return "scaffold " + op.tool.ID
}

func (op *scaffoldOperation) Execute(ctx context.Context) error {
	sc := op.tool.Scaffold
	if sc == nil {
		return nil
	}

	exists, err := op.Files.FileExists(ctx, sc.Path)
	if err != nil {
		return errors.Errorf("checking %s: %w", sc.Path, err)
	}
	if exists {
		op.observe(status.Entry{Path: sc.Path, Outcome: status.Preserved, Policy: "scaffold"})
		return nil
	}

	if err := op.Files.WriteFile(ctx, sc.Path, sc.Content); err != nil {
		return errors.Errorf("writing %s: %w", sc.Path, err)
	}
	op.observe(status.Entry{Path: sc.Path, Outcome: status.Created, Policy: "scaffold"})
	return nil
}

// 📥 NewFetchFileOperation creates an operation fetching a single file from
// below the source path to the same path in the workspace. The
// workspace copy is always overwritten.
func NewFetchFileOperation(opts Options, path string) Operation {
	return &fetchFileOperation{
		BaseOperation: NewBaseOperation(opts),
		path:          path,
	}
}

type fetchFileOperation struct {
	BaseOperation
	path string
}

func (op *fetchFileOperation) Name() string {
	return "fetch " + op.path
}

func (op *fetchFileOperation) Execute(ctx context.Context) error {
	staging, err := os.MkdirTemp(op.StagingRoot, "aiwf-file-*")
	if err != nil {
		return errors.Errorf("creating staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	loc := op.Source.Sub(op.path)
	tmp := filepath.Join(staging, filepath.Base(op.path))
	if err := op.Fetcher.FetchFile(ctx, loc, tmp); err != nil {
		return remote.AsFetchError(loc, err)
	}

	existed, err := op.Files.FileExists(ctx, op.path)
	if err != nil {
		return errors.Errorf("checking %s: %w", op.path, err)
	}
	if err := op.Files.CopyFile(ctx, tmp, op.path); err != nil {
		return errors.Errorf("writing %s: %w", op.path, err)
	}

	outcome := status.Created
	if existed {
		outcome = status.Overwritten
	}
	op.observe(status.Entry{Path: op.path, Outcome: outcome, Policy: "fetch"})
	return nil
}
