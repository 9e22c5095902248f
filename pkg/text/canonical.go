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
	"os"
	"path"
	"path/filepath"
	"strings"
)

// SkillsDir is the workspace directory holding skill documents
const SkillsDir = ".claude/skills"

// 🧩 Skill is a named skill with a known document location
type Skill struct {
	ID    string // as written in documents, e.g. "quality-code-check"
	Path  string // slash separated, relative to the workspace root
	Label string // optional heading used for "`id`:" references
	Colon bool   // "Use `id` skill to:" drops the "to" before a step list
}

// NamedSkills returns the skills whose location does not follow the
// dash-to-directory convention of SkillPath, or that carry a label
func NamedSkills() []Skill {
	return []Skill{
		{ID: "quality-code-check", Path: ".claude/skills/quality/code-check/SKILL.md"},
		{ID: "figma-design-extraction", Path: ".claude/skills/design/figma-extraction/SKILL.md", Colon: true},
		{ID: "theme-factory", Path: ".claude/skills/design/theme-factory/SKILL.md", Label: "Theme selection"},
		{ID: "design-fundamentals", Path: ".claude/skills/design/fundamentals/SKILL.md", Label: "Design fundamentals"},
		{ID: "design-responsive", Path: ".claude/skills/design/responsive/SKILL.md", Label: "Responsive design"},
	}
}

// SkillPath maps a skill id to its conventional document path by turning
// every dash into a directory separator ("a-b-c" → ".claude/skills/a/b/c/SKILL.md")
func SkillPath(id string) string {
	return path.Join(SkillsDir, strings.ReplaceAll(id, "-", "/"), "SKILL.md")
}

// Unchecked resolves every skill id by convention without looking at the disk
func Unchecked(id string) (string, bool) {
	return SkillPath(id), true
}

// DirResolver resolves skill ids by convention and reports whether the
// resulting document exists under root
func DirResolver(root string) Resolver {
	return func(id string) (string, bool) {
		p := SkillPath(id)
		info, err := os.Stat(filepath.Join(root, filepath.FromSlash(p)))
		return p, err == nil && !info.IsDir()
	}
}

// toolsBlock returns the rules applied inside "**Tools:**" lists
func toolsBlock() *Pipeline {
	return NewPipeline(
		Literal("tools-ask-user", "- AskUserQuestion(questions=[...])", "- Ask user for input"),
		Regexp("tools-read", `- Read\(file_path="([^"]+)"\)`, "- Read `${1}`"),
		Regexp("tools-write", `- Write\(file_path="([^"]+)"(.*?)\)`, "- Create `${1}`"),
		Regexp("tools-edit", `- Edit\(file_path="([^"]+)"(.*?)\)`, "- Edit `${1}`"),
		Regexp("tools-glob", `- Glob\(pattern="([^"]+)"\)`, "- Search for `${1}`"),
		Regexp("tools-bash", `- Bash\(command="([^"]+)"\)`, "- Run `${1}`"),
	)
}

func skillRules(s Skill) []Rule {
	id := Escape(s.ID)
	ref := "`" + s.Path + "`"
	var rules []Rule
	if s.Colon {
		rules = append(rules, Func("skill-"+s.ID+"-steps-colon", "Use `"+id+"` skill to:", func([]string) string {
			return "Follow step by step in " + ref + ":"
		}))
	}
	rules = append(rules,
		Func("skill-"+s.ID+"-steps", "Use `"+id+"` skill (for|to)", func(g []string) string {
			return "Follow step by step in " + ref + " " + g[1]
		}),
		Literal("skill-"+s.ID+"-guidelines", "`"+s.ID+"` skill", "guidelines in "+ref),
	)
	if s.Label != "" {
		rules = append(rules, Literal("skill-"+s.ID+"-label", "`"+s.ID+"`:", s.Label+" ("+ref+"):"))
	}
	return rules
}

// 📜 Canonical returns the stock rules that rewrite Claude command documents
// into tool neutral instructions. Rules run most specific first: the explore
// agent before generic tasks, tool lists before the bare call syntax they
// contain, and named skills before the generic skill fallback, which
// resolves ids through resolver.
func Canonical(resolver Resolver) *Pipeline {
	if resolver == nil {
		resolver = Unchecked
	}

	rules := []Rule{
		Regexp("task-explore", `\*\*Tool:\*\* Task\(([^)]*?)subagent_type='Explore'([^)]*?)\)`,
			"**Automated analysis:**\n- Systematically analyze the codebase to discover patterns"),
		Regexp("task", `\*\*Tool:\*\* Task\([\s\S]*?\)`,
			"**Automated process:**\n- Use workspace search and analysis to accomplish this task"),
		// the list runs until a blank line or a line opening with "**",
		// which stays in place so the next block can match it
		Scoped("tools-block", `\*\*Tools:\*\*\n([^\n]*(?:\n(?:[^*\n]|\*[^*\n])[^\n]*)*)`, 1, toolsBlock(),
			func(_ []string, transformed string) string {
				return "**Actions:**\n" + transformed
			}),

		Literal("ask-user-questions", "AskUserQuestion(questions=[...])", "ask user for clarification"),
		Literal("ask-user-using", "using AskUserQuestion:", "by asking user:"),
		Literal("ask-user-with", "AskUserQuestion with", "ask user with"),
		Literal("ask-user-use", "Use AskUserQuestion", "Ask user"),

		Regexp("read", `Read\(file_path="([^"]+)"\)`, "read `${1}`"),
		Regexp("read-list", "- Read\\(`([^`]+)`\\)", "- Read `${1}`"),
		Regexp("write", `Write\(file_path="([^"]+)"(.*?)\)`, "create file `${1}`"),
		Regexp("edit", `Edit\(file_path="([^"]+)"(.*?)\)`, "edit `${1}`"),
		Regexp("glob", `Glob\(pattern="([^"]+)"\)`, "search for files matching `${1}`"),
		Regexp("bash", `Bash\(command="([^"]+)"\)`, "run command: `${1}`"),
		Literal("explore-agent", "(Explore Agent)", ""),
	}

	for _, s := range NamedSkills() {
		rules = append(rules, skillRules(s)...)
	}

	rules = append(rules,
		Literal("design-skills", "Use design skills to guide", "Follow design guidelines in `"+SkillsDir+"/design/` to guide"),
		Resolve("skill", "Use `([^`]+)` skill (to|for)", resolver, func(g []string, p string) string {
			return "Follow step by step in `" + p + "` " + g[2]
		}),

		StripSection("parallel-execution", "## Parallel Execution Strategy"),
		Regexp("thoroughness", `thoroughness='(medium|quick)'`, ""),
		Literal("fallback-label", "**Fallback:**", "**Alternative approach:**"),
	)

	return NewPipeline(rules...)
}
