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

package main

import (
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/aiwf/cmd/aiwf/commands"
	"github.com/walteh/aiwf/cmd/aiwf/opts"
	"github.com/walteh/aiwf/pkg/config"
	"github.com/walteh/aiwf/pkg/log"
	"github.com/walteh/aiwf/pkg/registry"
)

// rootFlags are shared by every command
type rootFlags struct {
	configFile string
	debug      bool
	dir        string
	repo       string
	ref        string
}

// addRootFlags adds shared flags to the root command
func (f *rootFlags) addRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&f.configFile, "config", "c", "", "config file path (default: .aiwf.hcl, .aiwf.yaml, .aiwf.yml or .aiwf.json in --dir)")
	cmd.PersistentFlags().BoolVarP(&f.debug, "debug", "d", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&f.dir, "dir", ".", "workspace root")
	cmd.PersistentFlags().StringVar(&f.repo, "repo", "", "template repository, overrides the config file")
	cmd.PersistentFlags().StringVar(&f.ref, "ref", "", "template branch or tag, overrides the config file")
}

// newRootCmd builds the command tree. o is filled before any subcommand runs.
func newRootCmd(o *opts.RootOpts) *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "aiwf",
		Short: "Install AI agent workflow templates into a project",
		Long: `aiwf installs a shared AI workflow (planning, requirements and testing docs)
plus the command files of your AI tools (Cursor, GitHub Copilot, Claude Code,
OpenCode) from a template repository, keeping project specific documents intact.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return flags.setup(cmd, o)
		},
	}

	flags.addRootFlags(cmd)

	cmd.AddCommand(
		commands.NewInitCmd(o),
		commands.NewConvertCmd(o),
		commands.NewToolsCmd(o),
		newVersionCmd(),
	)

	return cmd
}

// setup configures logging and loads everything commands share
func (f *rootFlags) setup(cmd *cobra.Command, o *opts.RootOpts) error {
	level := zerolog.WarnLevel
	if f.debug {
		level = zerolog.DebugLevel
	}
	zlog := zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).Level(level).With().Timestamp().Logger()
	ctx := zlog.WithContext(cmd.Context())

	o.UserLogger = log.NewUserLogger(ctx, cmd.ErrOrStderr())
	o.Console = log.NewWithZerolog(cmd.OutOrStdout(), zlog)
	cmd.SetContext(log.NewContext(ctx, o.Console))

	dir, err := filepath.Abs(f.dir)
	if err != nil {
		return errors.Errorf("resolving workspace: %w", err)
	}
	o.Dir = dir

	cfg, err := config.Find(ctx, dir, f.configFile)
	if err != nil {
		return errors.Errorf("loading config: %w", err)
	}
	if f.repo != "" {
		cfg.Source.Repo = f.repo
	}
	if f.ref != "" {
		cfg.Source.Ref = f.ref
	}
	o.Config = cfg

	zlog.Debug().
		Str("config", cfg.Location()).
		Str("source", cfg.Locator().String()).
		Str("ref_type", cfg.RefType()).
		Str("workspace", o.Workspace()).
		Msg("configuration loaded")

	reg, err := registry.Default()
	if err != nil {
		return errors.Errorf("building tool registry: %w", err)
	}
	o.Registry = reg

	return nil
}
