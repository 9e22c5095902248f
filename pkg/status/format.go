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
)

// FileFormatter defines how entries and summaries should be formatted
type FileFormatter interface {
	// FormatEntry formats one destination entry
	FormatEntry(entry Entry) string

	// FormatSummary formats the totals of a set of entries
	FormatSummary(entries []Entry) string

	// FormatError formats an error message
	FormatError(err error) string
}

// DefaultFileFormatter provides a default implementation of FileFormatter
type DefaultFileFormatter struct{}

// NewDefaultFileFormatter creates a new DefaultFileFormatter
func NewDefaultFileFormatter() *DefaultFileFormatter {
	return &DefaultFileFormatter{}
}

// FormatEntry formats an entry with emojis
func (f *DefaultFileFormatter) FormatEntry(entry Entry) string {
	switch entry.Outcome {
	case Created:
		return fmt.Sprintf("✨ Created %s", entry.Path)
	case Overwritten:
		return fmt.Sprintf("📝 Overwritten %s", entry.Path)
	case Preserved:
		return fmt.Sprintf("🔒 Preserved %s", entry.Path)
	case SkippedAbsent:
		return fmt.Sprintf("⏭️  Skipped %s (not in template)", entry.Path)
	default:
		return fmt.Sprintf("❔ Unknown %s", entry.Path)
	}
}

// FormatSummary counts entries per outcome, omitting zero counts
func (f *DefaultFileFormatter) FormatSummary(entries []Entry) string {
	counts := Count(entries)
	parts := make([]string, 0, 4)
	for _, o := range []Outcome{Created, Overwritten, Preserved, SkippedAbsent} {
		if counts[o] > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", counts[o], o))
		}
	}
	if len(parts) == 0 {
		return "no changes"
	}
	return strings.Join(parts, ", ")
}

// FormatError formats an error message with emoji
func (f *DefaultFileFormatter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("❌ Error: %v", err)
}

// Count returns the number of entries per outcome
func Count(entries []Entry) map[Outcome]int {
	counts := make(map[Outcome]int, 4)
	for _, e := range entries {
		counts[e.Outcome]++
	}
	return counts
}
