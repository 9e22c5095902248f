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
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/aiwf/cmd/aiwf/opts"
	"github.com/walteh/aiwf/pkg/log"
	"github.com/walteh/aiwf/pkg/operation"
	"github.com/walteh/aiwf/pkg/text"
)

// NewConvertCmd creates the convert command
func NewConvertCmd(o *opts.RootOpts) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert canonical commands into every tool's flavor",
		Long: `Convert reads the canonical command documents (.claude/commands/*.md by
default), rewrites tool specific syntax into plain instructions and writes
one variant per target, e.g. .cursor/commands/<name>.md and
.github/prompts/<name>.prompt.md. Existing variants are overwritten.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			console := log.FromContext(ctx)

			copts := o.ConvertOptions()
			copts.DryRun = dryRun

			console.Header("converting " + copts.Source)

			observer := console.Observer(ctx)
			if dryRun {
				observer = nil
			}

			report, err := operation.Convert(ctx, o.Files(), copts, observer)
			if report == nil {
				return errors.Errorf("converting: %w", err)
			}

			for _, w := range report.Warnings {
				console.Warning(w)
			}

			if dryRun {
				out := cmd.OutOrStdout()
				for _, v := range report.Variants {
					if !text.Changed(v.Diff) {
						fmt.Fprintf(out, "%s %s (unchanged)\n", color.New(color.Faint).Sprint("•"), v.Path)
						continue
					}
					fmt.Fprintf(out, "%s %s (%s)\n", color.New(color.FgMagenta).Sprint("◆"), v.Path, v.Outcome)
					fmt.Fprint(out, text.FormatDiff(v.Diff))
				}
			}

			if err != nil {
				return errors.Errorf("converting: %w", err)
			}

			console.Successf("processed %d documents into %d files", report.Documents, len(report.Variants))
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the changes without writing")

	return cmd
}
