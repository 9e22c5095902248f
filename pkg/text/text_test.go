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

package text_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/aiwf/pkg/testutils"
	"github.com/walteh/aiwf/pkg/text"
)

func TestStripSection(t *testing.T) {
	rule := text.StripSection("parallel", "## Parallel Execution Strategy")

	tests := []struct {
		name  string
		input string
		want  string
		count int
	}{
		{
			name:  "section_at_end_of_file",
			input: "# Cmd\n\nIntro\n\n## Parallel Execution Strategy\n\nRun A and B.\n- step\n",
			want:  "# Cmd\n\nIntro\n\n",
			count: 1,
		},
		{
			name:  "section_at_end_without_newline",
			input: "# Cmd\n\n## Parallel Execution Strategy\n- step",
			want:  "# Cmd\n\n",
			count: 1,
		},
		{
			name:  "stops_at_same_level_heading",
			input: "## A\n\n## Parallel Execution Strategy\nx\n### Sub\ny\n## Next\nz",
			want:  "## A\n\n## Next\nz",
			count: 1,
		},
		{
			name:  "stops_at_higher_level_heading",
			input: "## Parallel Execution Strategy\nx\n# Top\n",
			want:  "# Top\n",
			count: 1,
		},
		{
			name:  "ignores_headings_in_fences",
			input: "## Parallel Execution Strategy\n```\n## not a heading\n```\nafter\n# Top\n",
			want:  "# Top\n",
			count: 1,
		},
		{
			name:  "removes_every_occurrence",
			input: "## Parallel Execution Strategy\na\n## Keep\nb\n## Parallel Execution Strategy\nc\n",
			want:  "## Keep\nb\n",
			count: 2,
		},
		{
			name:  "longer_heading_is_not_a_match",
			input: "## Parallel Execution Strategyish\nkeep\n",
			want:  "## Parallel Execution Strategyish\nkeep\n",
		},
		{
			name:  "no_section",
			input: "# Title\nbody\n",
			want:  "# Title\nbody\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := rule.Apply(tt.input)
			assert.Equal(t, tt.want, app.Content)
			assert.Equal(t, tt.count, app.Count)
		})
	}
}

func TestStripSectionRejectsNonHeading(t *testing.T) {
	assert.Panics(t, func() { text.StripSection("bad", "Parallel Execution Strategy") })
	assert.Panics(t, func() { text.StripSection("bad", "####### too deep") })
}

func TestSpecificBeforeGeneric(t *testing.T) {
	p := text.NewPipeline(
		text.Regexp("specific", "use skill `code-check`", "follow guide A"),
		text.Func("generic", "use skill `([^`]+)`", func(g []string) string {
			return "follow guide " + g[1]
		}),
	)

	res := p.Transform("use skill `code-check`")
	assert.Equal(t, "follow guide A", res.Content)
	assert.Equal(t, map[string]int{"specific": 1}, res.Counts)

	res = p.Transform("use skill `lint`")
	assert.Equal(t, "follow guide lint", res.Content)
	assert.Equal(t, map[string]int{"generic": 1}, res.Counts)
}

func TestPipelineSinglePass(t *testing.T) {
	// a fixed point loop would keep growing the text
	p := text.NewPipeline(text.Literal("grow", "a", "aa"))
	res := p.Transform("a")
	assert.Equal(t, "aa", res.Content)
	assert.Equal(t, 1, res.Total())
}

func TestPipelineValidate(t *testing.T) {
	tests := []struct {
		name    string
		rules   []text.Rule
		wantErr string
	}{
		{name: "ok", rules: []text.Rule{text.Literal("a", "x", "y"), text.Literal("b", "y", "z")}},
		{name: "duplicate", rules: []text.Rule{text.Literal("a", "x", "y"), text.Literal("a", "y", "z")}, wantErr: `name "a" already used by rule 0`},
		{name: "unnamed", rules: []text.Rule{text.Literal("", "x", "y")}, wantErr: "name is required"},
		{name: "nil", rules: []text.Rule{nil}, wantErr: "is nil"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := text.NewPipeline(tt.rules...).Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEscape(t *testing.T) {
	assert.Equal(t, `a\.b\*c`, text.Escape("a.b*c"))

	re := regexp.MustCompile(text.Escape("a+b"))
	assert.True(t, re.MatchString("a+b"))
	assert.False(t, re.MatchString("aab"))
}

func TestFuncInsertsLiterally(t *testing.T) {
	rule := text.Func("dollar", `(x)`, func([]string) string { return "$1" })
	assert.Equal(t, "$1", rule.Apply("x").Content)
}

func TestScoped(t *testing.T) {
	inner := text.NewPipeline(
		text.Literal("upper", "a", "A"),
		text.Resolve("ref", `ref\(([a-z]+)\)`, func(id string) (string, bool) { return id + ".md", id == "ok" },
			func(_ []string, p string) string { return p }),
	)
	rule := text.Scoped("block", `<<([\s\S]*?)>>`, 1, inner, func(_ []string, transformed string) string {
		return "[" + transformed + "]"
	})

	app := rule.Apply("a <<a ref(ok) ref(gone)>> a")
	assert.Equal(t, "a [A ok.md gone.md] a", app.Content)
	assert.Equal(t, 1, app.Count)
	require.Len(t, app.Warnings, 1)
	assert.Contains(t, app.Warnings[0], `"gone"`)

	assert.Panics(t, func() {
		text.Scoped("bad", `(a)`, 2, inner, func(_ []string, s string) string { return s })
	})
}

func TestCanonical(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "explore_task",
			input: "**Tool:** Task(description='scan', subagent_type='Explore', thoroughness='medium')",
			want:  "**Automated analysis:**\n- Systematically analyze the codebase to discover patterns",
		},
		{
			name:  "generic_task",
			input: "**Tool:** Task(prompt='do it')",
			want:  "**Automated process:**\n- Use workspace search and analysis to accomplish this task",
		},
		{
			name:  "tools_block",
			input: "**Tools:**\n- Read(file_path=\"a.md\")\n- Bash(command=\"make test\")\n- AskUserQuestion(questions=[...])\n\nNext",
			want:  "**Actions:**\n- Read `a.md`\n- Run `make test`\n- Ask user for input\n\nNext",
		},
		{
			name:  "tools_block_before_bold",
			input: "**Tools:**\n- Write(file_path=\"b.go\", content=\"x\")\n- Glob(pattern=\"**/*.go\")\n**Fallback:** retry",
			want:  "**Actions:**\n- Create `b.go`\n- Search for `**/*.go`\n**Alternative approach:** retry",
		},
		{
			name:  "tools_blocks_adjacent",
			input: "**Tools:**\n- Read(file_path=\"a.md\")\n**Tools:**\n- Glob(pattern=\"*.go\")\n\nend\n",
			want:  "**Actions:**\n- Read `a.md`\n**Actions:**\n- Search for `*.go`\n\nend\n",
		},
		{
			name:  "tools_block_at_end",
			input: "**Tools:**\n- Bash(command=\"make\")",
			want:  "**Actions:**\n- Run `make`",
		},
		{
			name:  "inline_calls",
			input: "Use AskUserQuestion to confirm, then Read(file_path=\"docs/x.md\") and Bash(command=\"go test\").",
			want:  "Ask user to confirm, then read `docs/x.md` and run command: `go test`.",
		},
		{
			name:  "inline_edit_and_write",
			input: "Edit(file_path=\"a.go\", old=\"x\") or Write(file_path=\"b.go\")",
			want:  "edit `a.go` or create file `b.go`",
		},
		{
			name:  "ask_user_variants",
			input: "Gather using AskUserQuestion:\nAskUserQuestion with options\nAskUserQuestion(questions=[...])",
			want:  "Gather by asking user:\nask user with options\nask user for clarification",
		},
		{
			name:  "explore_agent_label",
			input: "Discover (Explore Agent) patterns",
			want:  "Discover  patterns",
		},
		{
			name:  "named_skill_for",
			input: "Use `quality-code-check` skill for validation.",
			want:  "Follow step by step in `.claude/skills/quality/code-check/SKILL.md` for validation.",
		},
		{
			name:  "named_skill_colon",
			input: "Use `figma-design-extraction` skill to:",
			want:  "Follow step by step in `.claude/skills/design/figma-extraction/SKILL.md`:",
		},
		{
			name:  "named_skill_to_list",
			input: "Use `quality-code-check` skill to:\n- x\n",
			want:  "Follow step by step in `.claude/skills/quality/code-check/SKILL.md` to:\n- x\n",
		},
		{
			name:  "named_skill_mention",
			input: "See the `quality-code-check` skill.",
			want:  "See the guidelines in `.claude/skills/quality/code-check/SKILL.md`.",
		},
		{
			name:  "labelled_skill",
			input: "- `theme-factory`: pick colors",
			want:  "- Theme selection (`.claude/skills/design/theme-factory/SKILL.md`): pick colors",
		},
		{
			name:  "design_skills",
			input: "Use design skills to guide layout",
			want:  "Follow design guidelines in `.claude/skills/design/` to guide layout",
		},
		{
			name:  "generic_skill",
			input: "Use `api-design` skill to build",
			want:  "Follow step by step in `.claude/skills/api/design/SKILL.md` to build",
		},
		{
			name:  "thoroughness",
			input: "explore(thoroughness='quick')",
			want:  "explore()",
		},
		{
			name:  "parallel_section_at_end",
			input: "# Review\n\n## Steps\n1. go\n\n## Parallel Execution Strategy\n\nRun in parallel.\n",
			want:  "# Review\n\n## Steps\n1. go\n\n",
		},
	}

	p := text.Canonical(nil)
	require.NoError(t, p.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := p.Transform(tt.input)
			assert.Equal(t, tt.want, res.Content)
			assert.Empty(t, res.Warnings)
		})
	}
}

func TestCanonicalIsDeterministic(t *testing.T) {
	input := "**Tools:**\n- Read(file_path=\"a.md\")\n\nUse `quality-code-check` skill to check.\n"
	a := text.Canonical(nil).Transform(input)
	b := text.Canonical(nil).Transform(input)
	assert.Equal(t, a, b)
}

func TestCanonicalDeadSkillLinks(t *testing.T) {
	root := t.TempDir()
	testutils.WriteTree(t, root, map[string]string{
		".claude/skills/api/design/SKILL.md": "# API design",
	})

	p := text.Canonical(text.DirResolver(root))
	res := p.Transform("Use `api-design` skill to build.\nUse `frontend-figma-tokens` skill for tokens.\nUse `quality-code-check` skill for checks.")

	assert.Equal(t, "Follow step by step in `.claude/skills/api/design/SKILL.md` to build.\n"+
		"Follow step by step in `.claude/skills/frontend/figma/tokens/SKILL.md` for tokens.\n"+
		"Follow step by step in `.claude/skills/quality/code-check/SKILL.md` for checks.", res.Content)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, `skill: "frontend-figma-tokens" resolves to .claude/skills/frontend/figma/tokens/SKILL.md which does not exist`, res.Warnings[0])
}

func TestSkillPath(t *testing.T) {
	assert.Equal(t, ".claude/skills/quality/code/check/SKILL.md", text.SkillPath("quality-code-check"))
	assert.Equal(t, ".claude/skills/single/SKILL.md", text.SkillPath("single"))
}

func TestRouteTargets(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     []string
	}{
		{name: "markdown", filename: "review.md", want: []string{".cursor/commands/review.md", ".github/prompts/review.prompt.md"}},
		{name: "no_extension", filename: "notes", want: []string{".cursor/commands/notes.md", ".github/prompts/notes.prompt.md"}},
		{name: "nested_name", filename: "sub/plan.md", want: []string{".cursor/commands/plan.md", ".github/prompts/plan.prompt.md"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			routes := text.RouteTargets(tt.filename, text.DefaultTargets())
			var got []string
			for _, r := range routes {
				got = append(got, r.Path)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFanOut(t *testing.T) {
	p := text.NewPipeline(text.Literal("greet", "hello", "hi"))
	variants, res := p.FanOut(text.Document{Name: "cmd.md", Content: "hello world"}, text.DefaultTargets())

	require.Len(t, variants, 2)
	assert.Equal(t, "cursor", variants[0].Target.ID)
	assert.Equal(t, ".github/prompts/cmd.prompt.md", variants[1].Path)
	for _, v := range variants {
		assert.Equal(t, "hi world", v.Content)
	}
	assert.Equal(t, 1, res.Counts["greet"])
}

func TestDiff(t *testing.T) {
	lines := text.Diff("a\nb\n", "a\nc\n")
	assert.True(t, text.Changed(lines))
	assert.Equal(t, "- b\n+ c\n", text.FormatDiff(lines))

	same := text.Diff("a\nb\n", "a\nb\n")
	assert.False(t, text.Changed(same))
	assert.Empty(t, text.FormatDiff(same))
}
