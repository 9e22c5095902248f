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

package text

import (
	"fmt"
	"strings"
)

type sectionRule struct {
	name    string
	heading string
	level   int
}

// StripSection removes every markdown section titled heading (for example
// "## Parallel Execution Strategy"). A section runs from its heading line to
// the line before the next heading of the same or a higher level, or to the
// end of the text when no such heading follows. Headings inside fenced code
// blocks are ignored. It panics if heading is not an ATX heading.
func StripSection(name, heading string) Rule {
	heading = strings.TrimSpace(heading)
	level := headingLevel(heading)
	if level == 0 {
		panic(fmt.Sprintf("strip section %s: %q is not a markdown heading", name, heading))
	}
	return &sectionRule{name: name, heading: heading, level: level}
}

func (r *sectionRule) Name() string { return r.name }

// headingLevel returns the ATX level of line, 0 when it is not a heading
func headingLevel(line string) int {
	n := 0
	for n < len(line) && line[n] == '#' {
		n++
	}
	if n == 0 || n > 6 {
		return 0
	}
	if n < len(line) && line[n] != ' ' && line[n] != '\t' {
		return 0
	}
	return n
}

func (r *sectionRule) matches(line string) bool {
	line = strings.TrimRight(line, " \t\r")
	if !strings.HasPrefix(line, r.heading) {
		return false
	}
	rest := line[len(r.heading):]
	return rest == "" || rest[0] == ' ' || rest[0] == '\t'
}

func (r *sectionRule) Apply(content string) Application {
	lines := strings.SplitAfter(content, "\n")

	var b strings.Builder
	count := 0
	stripping := false
	fenced := false

	for _, line := range lines {
		trimmed := strings.TrimRight(line, "\r\n")
		isFence := strings.HasPrefix(strings.TrimLeft(trimmed, " "), "```")

		if !fenced {
			if stripping {
				if lvl := headingLevel(trimmed); lvl > 0 && lvl <= r.level {
					stripping = false
				}
			}
			if !stripping && r.matches(trimmed) {
				stripping = true
				count++
			}
		}
		if isFence {
			fenced = !fenced
		}

		if !stripping {
			b.WriteString(line)
		}
	}

	if count == 0 {
		return Application{Content: content}
	}
	return Application{Content: b.String(), Count: count}
}
