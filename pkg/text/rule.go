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
	"regexp"
	"strings"
)

// Application is the outcome of running one rule over a text
type Application struct {
	// Content is the text after the rule ran
	Content string

	// Count is the number of matches the rule rewrote
	Count int

	// Warnings are problems the rule noticed but did not fix
	Warnings []string
}

// Rule is a pure text to text rewrite. A rule that does not match returns the
// input unchanged with a zero count.
type Rule interface {
	// Name identifies the rule in results and logs
	Name() string

	// Apply rewrites content
	Apply(content string) Application
}

// Escape quotes every regular expression metacharacter in s. Captured or
// configured text must go through Escape before it is embedded in a pattern.
func Escape(s string) string {
	return regexp.QuoteMeta(s)
}

type literalRule struct {
	name     string
	old, new string
}

// Literal replaces every occurrence of old with new
func Literal(name, old, new string) Rule {
	return &literalRule{name: name, old: old, new: new}
}

func (r *literalRule) Name() string { return r.name }

func (r *literalRule) Apply(content string) Application {
	if r.old == "" {
		return Application{Content: content}
	}
	n := strings.Count(content, r.old)
	if n == 0 {
		return Application{Content: content}
	}
	return Application{Content: strings.ReplaceAll(content, r.old, r.new), Count: n}
}

type regexpRule struct {
	name     string
	re       *regexp.Regexp
	template string
}

// Regexp replaces every match of pattern with template, where $1 or ${name}
// expand to the captured groups. It panics if pattern does not compile.
func Regexp(name, pattern, template string) Rule {
	return &regexpRule{name: name, re: regexp.MustCompile(pattern), template: template}
}

func (r *regexpRule) Name() string { return r.name }

func (r *regexpRule) Apply(content string) Application {
	matches := r.re.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return Application{Content: content}
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(content[last:m[0]])
		b.Write(r.re.ExpandString(nil, r.template, content, m))
		last = m[1]
	}
	b.WriteString(content[last:])
	return Application{Content: b.String(), Count: len(matches)}
}

type funcRule struct {
	name string
	re   *regexp.Regexp
	fn   func(groups []string) string
}

// Func replaces every match of pattern with the result of fn, which receives
// the full match followed by the captured groups. The returned text is
// inserted literally. It panics if pattern does not compile.
func Func(name, pattern string, fn func(groups []string) string) Rule {
	return &funcRule{name: name, re: regexp.MustCompile(pattern), fn: fn}
}

func (r *funcRule) Name() string { return r.name }

func (r *funcRule) Apply(content string) Application {
	out, n := replaceFunc(r.re, content, r.fn)
	return Application{Content: out, Count: n}
}

func replaceFunc(re *regexp.Regexp, content string, fn func(groups []string) string) (string, int) {
	matches := re.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return content, 0
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(content[last:m[0]])
		b.WriteString(fn(groups(content, m)))
		last = m[1]
	}
	b.WriteString(content[last:])
	return b.String(), len(matches)
}

func groups(content string, m []int) []string {
	out := make([]string, len(m)/2)
	for i := range out {
		if m[2*i] >= 0 {
			out[i] = content[m[2*i]:m[2*i+1]]
		}
	}
	return out
}

type scopedRule struct {
	name   string
	re     *regexp.Regexp
	group  int
	inner  *Pipeline
	render func(groups []string, transformed string) string
}

// Scoped runs inner over one captured group of every match of pattern and
// replaces the whole match with render(groups, transformed). It lets a set of
// rules apply only inside a block such as a "**Tools:**" list.
func Scoped(name, pattern string, group int, inner *Pipeline, render func(groups []string, transformed string) string) Rule {
	re := regexp.MustCompile(pattern)
	if group < 1 || group > re.NumSubexp() {
		panic(fmt.Sprintf("scoped rule %s: group %d out of range", name, group))
	}
	return &scopedRule{name: name, re: re, group: group, inner: inner, render: render}
}

func (r *scopedRule) Name() string { return r.name }

func (r *scopedRule) Apply(content string) Application {
	var warnings []string
	out, n := replaceFunc(r.re, content, func(g []string) string {
		res := r.inner.Transform(g[r.group])
		warnings = append(warnings, res.Warnings...)
		return r.render(g, res.Content)
	})
	return Application{Content: out, Count: n, Warnings: warnings}
}

// Resolver maps an identifier found in a document to a workspace path. ok is
// false when the path is known not to exist.
type Resolver func(id string) (path string, ok bool)

type resolveRule struct {
	name     string
	re       *regexp.Regexp
	resolver Resolver
	render   func(groups []string, path string) string
}

// Resolve rewrites every match of pattern using the path resolver returns for
// the first captured group. Unresolvable identifiers are still rewritten and
// reported as warnings so dead links surface instead of passing silently.
func Resolve(name, pattern string, resolver Resolver, render func(groups []string, path string) string) Rule {
	re := regexp.MustCompile(pattern)
	if re.NumSubexp() < 1 {
		panic(fmt.Sprintf("resolve rule %s: pattern needs a capture group", name))
	}
	return &resolveRule{name: name, re: re, resolver: resolver, render: render}
}

func (r *resolveRule) Name() string { return r.name }

func (r *resolveRule) Apply(content string) Application {
	var warnings []string
	out, n := replaceFunc(r.re, content, func(g []string) string {
		p, ok := r.resolver(g[1])
		if !ok {
			warnings = append(warnings, fmt.Sprintf("%s: %q resolves to %s which does not exist", r.name, g[1], p))
		}
		return r.render(g, p)
	})
	return Application{Content: out, Count: n, Warnings: warnings}
}
