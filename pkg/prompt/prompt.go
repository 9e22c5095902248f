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

// Package prompt asks the user which tools to install, with an interactive
// menu on terminals and a numbered list everywhere else.
package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"atomicgo.dev/keyboard/keys"
	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"
	"gitlab.com/tozd/go/errors"
)

// Option is one selectable entry
type Option struct {
	ID          string
	Label       string
	Description string
}

func (o Option) display() string {
	if o.Description == "" {
		return o.Label
	}
	return o.Label + " - " + o.Description
}

// 🎛️ Selector asks for a non empty subset of options and returns their ids
// in option order
type Selector interface {
	Select(ctx context.Context, options []Option) ([]string, error)
}

// InvalidSelectionError is returned for selections that cannot be parsed
type InvalidSelectionError struct {
	Input  string
	Reason string
}

func (e *InvalidSelectionError) Error() string {
	return fmt.Sprintf("invalid selection %q: %s", e.Input, e.Reason)
}

// ParseSelection parses a comma or space separated list of 1 based option
// numbers, or "all". Duplicates are ignored; the result keeps option order.
func ParseSelection(input string, n int) ([]int, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, &InvalidSelectionError{Input: input, Reason: "nothing selected"}
	}
	if strings.EqualFold(trimmed, "all") {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out, nil
	}

	chosen := make([]bool, n)
	fields := strings.FieldsFunc(trimmed, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
	for _, f := range fields {
		num, err := strconv.Atoi(f)
		if err != nil {
			return nil, &InvalidSelectionError{Input: input, Reason: fmt.Sprintf("%q is not a number", f)}
		}
		if num < 1 || num > n {
			return nil, &InvalidSelectionError{Input: input, Reason: fmt.Sprintf("%d is out of range 1-%d", num, n)}
		}
		chosen[num-1] = true
	}

	var out []int
	for i, ok := range chosen {
		if ok {
			out = append(out, i)
		}
	}
	return out, nil
}

// 📝 Text is a Selector printing a numbered list and reading one line of input
type Text struct {
	in    *bufio.Reader
	out   io.Writer
	title string
}

var _ Selector = (*Text)(nil)

// NewText creates a text selector
func NewText(in io.Reader, out io.Writer, title string) *Text {
	return &Text{in: bufio.NewReader(in), out: out, title: title}
}

func (t *Text) Select(ctx context.Context, options []Option) ([]string, error) {
	if len(options) == 0 {
		return nil, errors.New("no options to select from")
	}

	fmt.Fprintln(t.out, t.title)
	for i, o := range options {
		fmt.Fprintf(t.out, "  %d) %s\n", i+1, o.display())
	}
	fmt.Fprint(t.out, "Enter numbers separated by commas (or 'all'): ")

	line, err := t.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Errorf("reading selection: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	idx, err := ParseSelection(line, len(options))
	if err != nil {
		return nil, err
	}
	return ids(options, idx), nil
}

// 🖱️ Interactive is a Selector rendering a pterm multiselect menu
type Interactive struct {
	title string
}

var _ Selector = (*Interactive)(nil)

// NewInteractive creates an interactive selector
func NewInteractive(title string) *Interactive {
	return &Interactive{title: title}
}

func (s *Interactive) Select(ctx context.Context, options []Option) ([]string, error) {
	labels := make([]string, len(options))
	for i, o := range options {
		labels[i] = o.display()
	}

	chosen, err := pterm.DefaultInteractiveMultiselect.
		WithOptions(labels).
		WithDefaultText(s.title + " (space to toggle, enter to confirm)").
		WithFilter(false).
		WithKeySelect(keys.Space).
		WithKeyConfirm(keys.Enter).
		Show()
	if err != nil {
		return nil, errors.Errorf("showing selection menu: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	picked := map[string]bool{}
	for _, c := range chosen {
		picked[c] = true
	}
	var idx []int
	for i, l := range labels {
		if picked[l] {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return nil, &InvalidSelectionError{Reason: "nothing selected"}
	}
	return ids(options, idx), nil
}

// 📌 Static is a Selector returning a fixed list, for non interactive runs
type Static []string

func (s Static) Select(ctx context.Context, options []Option) ([]string, error) {
	if len(s) == 0 {
		return nil, &InvalidSelectionError{Reason: "nothing selected"}
	}
	return append([]string(nil), s...), nil
}

// IsTerminal reports whether f is attached to a terminal
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Auto returns an interactive selector when stdin and stdout are terminals
// and a text selector otherwise
func Auto(title string) Selector {
	if IsTerminal(os.Stdin) && IsTerminal(os.Stdout) {
		return NewInteractive(title)
	}
	return NewText(os.Stdin, os.Stdout, title)
}

func ids(options []Option, idx []int) []string {
	out := make([]string, 0, len(idx))
	for _, i := range idx {
		out = append(out, options[i].ID)
	}
	return out
}
