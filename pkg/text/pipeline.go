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
	"gitlab.com/tozd/go/errors"
)

// 📄 Document is a canonical source text keyed by file name
type Document struct {
	Name    string
	Content string
}

// Result contains the outcome of running a pipeline over a text
type Result struct {
	// Content is the text after every rule ran
	Content string

	// Counts holds the number of rewrites per rule name, omitting rules that did not match
	Counts map[string]int

	// Warnings collects the warnings of every rule in order
	Warnings []string
}

// Total returns the number of rewrites across all rules
func (r Result) Total() int {
	n := 0
	for _, c := range r.Counts {
		n += c
	}
	return n
}

// 🔗 Pipeline is an ordered list of rules applied as a single fold. Each rule
// sees the output of the rules before it and runs exactly once.
type Pipeline struct {
	rules []Rule
}

// NewPipeline creates a pipeline running rules in the given order
func NewPipeline(rules ...Rule) *Pipeline {
	return &Pipeline{rules: rules}
}

// Rules returns the rules in application order
func (p *Pipeline) Rules() []Rule {
	out := make([]Rule, len(p.rules))
	copy(out, p.rules)
	return out
}

// Validate checks that every rule has a unique, non empty name
func (p *Pipeline) Validate() error {
	seen := make(map[string]int, len(p.rules))
	for i, r := range p.rules {
		if r == nil {
			return errors.Errorf("rule %d: is nil", i)
		}
		if r.Name() == "" {
			return errors.Errorf("rule %d: name is required", i)
		}
		if j, ok := seen[r.Name()]; ok {
			return errors.Errorf("rule %d: name %q already used by rule %d", i, r.Name(), j)
		}
		seen[r.Name()] = i
	}
	return nil
}

// Transform threads content through every rule once, in order
func (p *Pipeline) Transform(content string) Result {
	res := Result{Content: content, Counts: map[string]int{}}
	for _, r := range p.rules {
		app := r.Apply(res.Content)
		res.Content = app.Content
		if app.Count > 0 {
			res.Counts[r.Name()] += app.Count
		}
		res.Warnings = append(res.Warnings, app.Warnings...)
	}
	return res
}

// 🎯 FanOut transforms doc once and produces one variant per target. Inputs
// must be canonical documents; feeding a variant back in is not supported.
func (p *Pipeline) FanOut(doc Document, targets []Target) ([]Variant, Result) {
	res := p.Transform(doc.Content)
	routes := RouteTargets(doc.Name, targets)
	variants := make([]Variant, 0, len(routes))
	for _, route := range routes {
		variants = append(variants, Variant{Route: route, Content: res.Content})
	}
	return variants, res
}
