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

package opts

import (
	"context"
	"path/filepath"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/aiwf/pkg/config"
	"github.com/walteh/aiwf/pkg/log"
	"github.com/walteh/aiwf/pkg/operation"
	"github.com/walteh/aiwf/pkg/registry"
	"github.com/walteh/aiwf/pkg/remote"
	"github.com/walteh/aiwf/pkg/status"
)

// RootOpts contains shared options used by all commands. It is filled in
// before any subcommand runs.
type RootOpts struct {
	Config     *config.Config
	Registry   *registry.Registry
	Console    *log.Logger
	UserLogger *log.UserLogger

	// Dir is the absolute workspace root
	Dir string

	// OpenFetcher builds the template transport, replaced in tests
	OpenFetcher func(ctx context.Context, opts remote.Options, repo string) (remote.Fetcher, error)
}

// Workspace returns the absolute directory templates are installed into
func (o *RootOpts) Workspace() string {
	if filepath.IsAbs(o.Config.Destination) {
		return o.Config.Destination
	}
	return filepath.Join(o.Dir, o.Config.Destination)
}

// Files returns a file manager rooted at the workspace
func (o *RootOpts) Files() *status.Manager {
	return status.NewManager(o.Workspace())
}

// ConvertOptions maps the convert section of the config
func (o *RootOpts) ConvertOptions() operation.ConvertOptions {
	c := o.Config.Convert
	return operation.ConvertOptions{
		Enabled: c.Enabled,
		Source:  c.Source,
		Pattern: c.Pattern,
		Targets: c.TextTargets(),
	}
}

// Fetcher opens the transport for the configured template repository
func (o *RootOpts) Fetcher(ctx context.Context) (remote.Fetcher, error) {
	open := o.OpenFetcher
	if open == nil {
		open = remote.Open
	}
	f, err := open(ctx, o.Config.RemoteOptions(), o.Config.Source.Repo)
	if err != nil {
		return nil, errors.Errorf("opening template source: %w", err)
	}
	return f, nil
}
