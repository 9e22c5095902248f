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
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DiffLine is one line of a line based diff
type DiffLine struct {
	Op   rune // '+', '-' or ' '
	Text string
}

// Diff compares two texts line by line. Every distinct line is encoded as a
// single rune so the character diff of go-diff works on whole lines.
func Diff(before, after string) []DiffLine {
	index := map[string]rune{}
	encode := func(s string) []rune {
		var out []rune
		for _, line := range strings.SplitAfter(s, "\n") {
			if line == "" {
				continue
			}
			r, ok := index[line]
			if !ok {
				r = lineRune(len(index))
				index[line] = r
			}
			out = append(out, r)
		}
		return out
	}
	decode := map[rune]string{}
	a, b := encode(before), encode(after)
	for line, r := range index {
		decode[r] = line
	}

	dmp := diffmatchpatch.New()
	var out []DiffLine
	for _, d := range dmp.DiffMainRunes(a, b, false) {
		op := ' '
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			op = '+'
		case diffmatchpatch.DiffDelete:
			op = '-'
		}
		for _, r := range d.Text {
			out = append(out, DiffLine{Op: op, Text: strings.TrimSuffix(decode[r], "\n")})
		}
	}
	return out
}

// lineRune maps a line number to a valid rune outside the surrogate range
func lineRune(i int) rune {
	r := rune(i + 1)
	if r >= 0xD800 {
		r += 0x800
	}
	return r
}

// Changed reports whether a diff has any insertions or deletions
func Changed(lines []DiffLine) bool {
	for _, l := range lines {
		if l.Op != ' ' {
			return true
		}
	}
	return false
}

// FormatDiff renders only changed lines, prefixed with their op
func FormatDiff(lines []DiffLine) string {
	var b strings.Builder
	for _, l := range lines {
		if l.Op == ' ' {
			continue
		}
		b.WriteRune(l.Op)
		b.WriteString(" ")
		b.WriteString(l.Text)
		b.WriteString("\n")
	}
	return b.String()
}
