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

	"github.com/walteh/aiwf/pkg/remote"
	"github.com/walteh/aiwf/pkg/status"
	"github.com/walteh/aiwf/pkg/syncer"
	"github.com/walteh/aiwf/pkg/text"
)

// AgentsFile is the shared base instructions file fetched on every install
const AgentsFile = "AGENTS.md"

// 🎯 Operation is one step of an install
type Operation interface {
	// Name describes the step in logs and errors
	Name() string

	// Execute runs the step
	Execute(ctx context.Context) error
}

// 🔄 ConvertOptions configures the canonical document fan-out
type ConvertOptions struct {
	// Enabled turns the convert step on during install
	Enabled bool

	// Source is the workspace directory holding canonical documents
	Source string

	// Pattern selects documents inside Source (doublestar syntax)
	Pattern string

	// Targets receive one variant per document
	Targets []text.Target

	// DryRun computes variants without writing them
	DryRun bool
}

// DefaultConvertOptions returns the Claude commands to Cursor and Copilot
// conversion. It is disabled during install unless turned on.
func DefaultConvertOptions() ConvertOptions {
	return ConvertOptions{
		Source:  ".claude/commands",
		Pattern: "*.md",
		Targets: text.DefaultTargets(),
	}
}

// 🔧 Options contains the shared configuration of every operation
type Options struct {
	// Fetcher retrieves template trees and single files
	Fetcher remote.Fetcher

	// Source is the template repository and ref; tools pick their own sub-path
	Source remote.Locator

	// Files manages the workspace root
	Files *status.Manager

	// Observer receives every destination entry, with workspace relative paths
	Observer syncer.Observer

	// Reporter is told when each install step starts and ends
	Reporter Reporter

	// StagingRoot is where staging directories are created (default: os temp dir)
	StagingRoot string

	Convert ConvertOptions
}

func (o Options) validate() error {
	if o.Fetcher == nil {
		return errors.New("fetcher is required")
	}
	if o.Files == nil {
		return errors.New("file manager is required")
	}
	return nil
}

func (o Options) observe(entry status.Entry) {
	if o.Observer != nil {
		o.Observer(entry)
	}
}

// 📦 BaseOperation holds the options shared by every operation
type BaseOperation struct {
	Options
}

// NewBaseOperation creates a base operation
func NewBaseOperation(opts Options) BaseOperation {
	return BaseOperation{Options: opts}
}

func (b BaseOperation) logger(ctx context.Context, name string) *zerolog.Logger {
	l := zerolog.Ctx(ctx).With().Str("operation", name).Logger()
	return &l
}
