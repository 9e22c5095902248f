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

package commands

import (
	"strings"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/aiwf/cmd/aiwf/opts"
	"github.com/walteh/aiwf/pkg/operation"
	"github.com/walteh/aiwf/pkg/prompt"
)

const selectTitle = "Which AI tools do you want to set up?"

// NewInitCmd creates the init command
func NewInitCmd(o *opts.RootOpts) *cobra.Command {
	var tools []string
	var convert bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Install the AI workflow templates into the workspace",
		Long: `Init installs the shared docs/ai workflow tree and the command files
of every selected AI tool. It will:
1. Ask which tools to set up (or use --tools / the config file)
2. Sync the workflow tree, keeping project specific documents
3. Sync each selected tool
4. Write one time scaffolds and fetch AGENTS.md`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			selector, err := selectorFor(cmd, o, tools)
			if err != nil {
				return err
			}

			var options []prompt.Option
			for _, t := range o.Registry.Selectable() {
				options = append(options, prompt.Option{ID: t.ID, Label: t.Name, Description: t.Description})
			}

			selection, err := selector.Select(ctx, options)
			if err != nil {
				return errors.Errorf("selecting tools: %w", err)
			}

			fetcher, err := o.Fetcher(ctx)
			if err != nil {
				return err
			}

			convertOpts := o.ConvertOptions()
			if convert {
				convertOpts.Enabled = true
			}

			o.Console.Header("installing workflow templates")
			o.Console.Source(o.Config.Source.Repo, o.Config.Source.Ref)
			o.UserLogger.LogStateChange("Setting up " + strings.Join(selection, ", "))

			err = operation.Install(ctx, operation.Options{
				Fetcher:  fetcher,
				Source:   o.Config.Locator(),
				Files:    o.Files(),
				Observer: o.Console.Observer(ctx),
				Reporter: o.Console,
				Convert:  convertOpts,
			}, o.Registry, selection)
			if err != nil {
				return errors.Errorf("installing: %w", err)
			}

			o.Console.LogNewline()
			o.Console.Successf("workflow ready (%s)", o.Console.Summary())
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&tools, "tools", "t", nil, "tools to install without prompting (comma separated, or 'all')")
	cmd.Flags().BoolVar(&convert, "convert", false, "convert .claude/commands after installing")

	return cmd
}

// selectorFor prefers the flag, then the config file, then asks
func selectorFor(cmd *cobra.Command, o *opts.RootOpts, tools []string) (prompt.Selector, error) {
	if len(tools) == 0 {
		tools = o.Config.Tools
	}
	if len(tools) == 1 && strings.EqualFold(tools[0], "all") {
		var all prompt.Static
		for _, t := range o.Registry.Selectable() {
			all = append(all, t.ID)
		}
		return all, nil
	}
	if len(tools) > 0 {
		return prompt.Static(tools), nil
	}
	if cmd.Flags().Changed("tools") {
		return nil, &prompt.InvalidSelectionError{Reason: "nothing selected"}
	}
	return prompt.Auto(selectTitle), nil
}
