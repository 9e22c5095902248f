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

package status

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// 🎨 Display configuration
const (
	fileIndent   = 4  // spaces to indent file entries
	nameWidth    = 45 // Base width for path
	policyWidth  = 24 // Width for policy name
	outcomeWidth = 12 // Width for outcome text
)

// 🎯 FormatLine formats an entry as an aligned console line
func FormatLine(entry Entry) string {
	var prefix string
	switch entry.Outcome {
	case Created:
		prefix = color.GreenString("✓")
	case Overwritten:
		prefix = color.BlueString("⟳")
	case Preserved:
		prefix = color.CyanString("•")
	default:
		prefix = color.HiBlackString("-")
	}

	namePart := fmt.Sprintf("%-*s", nameWidth, entry.Path)
	policyPart := fmt.Sprintf("%-*s", policyWidth, entry.Policy)
	outcomePart := fmt.Sprintf("%-*s", outcomeWidth, entry.Outcome)

	return fmt.Sprintf("%s%s %s %s %s",
		strings.Repeat(" ", fileIndent),
		prefix,
		namePart,
		policyPart,
		outcomePart,
	)
}
