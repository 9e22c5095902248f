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
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/walteh/aiwf/cmd/aiwf/opts"
)

// NewToolsCmd creates the tools command
func NewToolsCmd(o *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tools init can install",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tDESTINATION\tDESCRIPTION")
			for _, t := range o.Registry.All() {
				id := t.ID
				if t.Required {
					id += " (always)"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", id, t.Name, t.Destination, t.Description)
			}
			return w.Flush()
		},
	}

	return cmd
}
