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

package syncer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/aiwf/pkg/policy"
	"github.com/walteh/aiwf/pkg/remote"
	"github.com/walteh/aiwf/pkg/remote/local"
	"github.com/walteh/aiwf/pkg/status"
	"github.com/walteh/aiwf/pkg/testutils"
)

var workflowTable = policy.Table{
	{Path: "planning", Policy: policy.Force("archive/**")},
	{Path: "planning/archive", Policy: policy.EnsureDir()},
	{Path: "project", Policy: policy.Protected("CODE_CONVENTIONS.md", "PROJECT_STRUCTURE.md")},
	{Path: "project/template-convention", Policy: policy.Replace()},
	{Path: "requirements", Policy: policy.Force()},
}

type fixture struct {
	template string
	dest     string
	staging  string
	engine   *Engine
	loc      remote.Locator
}

func newFixture(t *testing.T, template map[string]string) *fixture {
	t.Helper()
	f := &fixture{
		template: t.TempDir(),
		dest:     t.TempDir(),
		staging:  t.TempDir(),
	}
	testutils.WriteTree(t, f.template, template)
	f.engine = New(local.New(), WithStagingRoot(f.staging))
	f.loc = remote.Locator{Repo: f.template, Path: "docs/ai"}
	return f
}

func (f *fixture) assertStagingRemoved(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(f.staging)
	require.NoError(t, err)
	assert.Empty(t, entries, "staging directory must not survive synchronize")
}

func outcomes(entries []status.Entry) map[string]status.Outcome {
	out := make(map[string]status.Outcome, len(entries))
	for _, e := range entries {
		out[e.Path] = e.Outcome
	}
	return out
}

func TestSynchronizeFreshDestination(t *testing.T) {
	ctx := testutils.Context(t)
	f := newFixture(t, map[string]string{
		"docs/ai/planning/README.md":                        "plan",
		"docs/ai/planning/feature-template.md":              "feature",
		"docs/ai/planning/archive/old.md":                   "never copied",
		"docs/ai/project/CODE_CONVENTIONS.md":               "default conventions",
		"docs/ai/project/PROJECT_STRUCTURE.md":              "default structure",
		"docs/ai/project/template-convention/common.md":     "common",
		"docs/ai/project/template-convention/react/tips.md": "react",
	})

	var observed []status.Entry
	f.engine = New(local.New(), WithStagingRoot(f.staging), WithObserver(func(e status.Entry) {
		observed = append(observed, e)
	}))

	report, err := f.engine.Synchronize(ctx, f.loc, f.dest, workflowTable)
	require.NoError(t, err)
	f.assertStagingRemoved(t)

	assert.Equal(t, map[string]status.Outcome{
		"planning/README.md":           status.Created,
		"planning/feature-template.md": status.Created,
		"planning/archive":             status.Created,
		"project/CODE_CONVENTIONS.md":  status.Created,
		"project/PROJECT_STRUCTURE.md": status.Created,
		"project/template-convention":  status.Created,
		"requirements":                 status.SkippedAbsent,
	}, outcomes(report.Entries))
	assert.Equal(t, report.Entries, observed)
	assert.Equal(t, 6, report.Count(status.Created))
	assert.Equal(t, 1, report.Count(status.SkippedAbsent))

	assert.Equal(t, map[string]string{
		"planning/README.md":                        "plan",
		"planning/feature-template.md":              "feature",
		"planning/archive/":                         "",
		"project/CODE_CONVENTIONS.md":               "default conventions",
		"project/PROJECT_STRUCTURE.md":              "default structure",
		"project/template-convention/common.md":     "common",
		"project/template-convention/react/tips.md": "react",
	}, testutils.ReadTree(t, f.dest))
}

func TestSynchronizeProtectedCreate(t *testing.T) {
	ctx := testutils.Context(t)
	table := policy.Table{{Path: "project", Policy: policy.Protected("CODE_CONVENTIONS.md")}}

	t.Run("absent_locally_is_created", func(t *testing.T) {
		f := newFixture(t, map[string]string{"docs/ai/project/CODE_CONVENTIONS.md": "default"})

		report, err := f.engine.Synchronize(ctx, f.loc, f.dest, table)
		require.NoError(t, err)

		assert.Equal(t, []status.Entry{{Path: "project/CODE_CONVENTIONS.md", Outcome: status.Created, Policy: "protected-create"}}, report.Entries)
		content, err := os.ReadFile(filepath.Join(f.dest, "project", "CODE_CONVENTIONS.md"))
		require.NoError(t, err)
		assert.Equal(t, "default", string(content))
	})

	t.Run("local_edit_is_preserved", func(t *testing.T) {
		f := newFixture(t, map[string]string{"docs/ai/project/CODE_CONVENTIONS.md": "new default"})
		testutils.WriteTree(t, f.dest, map[string]string{"project/CODE_CONVENTIONS.md": "X"})

		report, err := f.engine.Synchronize(ctx, f.loc, f.dest, table)
		require.NoError(t, err)

		assert.Equal(t, status.Preserved, report.Entries[0].Outcome)
		content, err := os.ReadFile(filepath.Join(f.dest, "project", "CODE_CONVENTIONS.md"))
		require.NoError(t, err)
		assert.Equal(t, "X", string(content))
	})

	t.Run("idempotent_across_changing_templates", func(t *testing.T) {
		f := newFixture(t, map[string]string{"docs/ai/project/CODE_CONVENTIONS.md": "v1"})

		_, err := f.engine.Synchronize(ctx, f.loc, f.dest, table)
		require.NoError(t, err)

		testutils.WriteTree(t, f.template, map[string]string{"docs/ai/project/CODE_CONVENTIONS.md": "v2"})
		for i := 0; i < 2; i++ {
			report, err := f.engine.Synchronize(ctx, f.loc, f.dest, table)
			require.NoError(t, err)
			assert.Equal(t, status.Preserved, report.Entries[0].Outcome)
		}

		content, err := os.ReadFile(filepath.Join(f.dest, "project", "CODE_CONVENTIONS.md"))
		require.NoError(t, err)
		assert.Equal(t, "v1", string(content))
	})

	t.Run("missing_in_template_is_skipped", func(t *testing.T) {
		f := newFixture(t, map[string]string{"docs/ai/project/OTHER.md": "x"})

		report, err := f.engine.Synchronize(ctx, f.loc, f.dest, table)
		require.NoError(t, err)
		assert.Equal(t, status.SkippedAbsent, report.Entries[0].Outcome)
		assert.Empty(t, testutils.ReadTree(t, f.dest))
	})
}

func TestSynchronizeForceOverwrite(t *testing.T) {
	ctx := testutils.Context(t)
	f := newFixture(t, map[string]string{
		"docs/ai/planning/README.md":      "latest",
		"docs/ai/planning/archive/old.md": "template archive",
	})
	testutils.WriteTree(t, f.dest, map[string]string{
		"planning/README.md":          "local edit",
		"planning/local-only.md":      "mine",
		"planning/archive/feature.md": "archived work",
	})

	report, err := f.engine.Synchronize(ctx, f.loc, f.dest, workflowTable[:2])
	require.NoError(t, err)

	assert.Equal(t, map[string]status.Outcome{
		"planning/README.md": status.Overwritten,
		"planning/archive":   status.Preserved,
	}, outcomes(report.Entries))

	assert.Equal(t, map[string]string{
		"planning/README.md":          "latest",
		"planning/local-only.md":      "mine",
		"planning/archive/feature.md": "archived work",
	}, testutils.ReadTree(t, f.dest))
}

func TestSynchronizeSelectiveSubset(t *testing.T) {
	ctx := testutils.Context(t)
	f := newFixture(t, map[string]string{
		".claude/settings.json":       `{"v":2}`,
		".claude/settings.local.json": `{"secret":true}`,
	})
	f.loc = remote.Locator{Repo: f.template}
	testutils.WriteTree(t, f.dest, map[string]string{".claude/settings.json": `{"v":1}`})

	table := policy.Table{{Path: ".claude", Policy: policy.Selective("settings.json", "missing.json")}}
	report, err := f.engine.Synchronize(ctx, f.loc, f.dest, table)
	require.NoError(t, err)

	assert.Equal(t, []status.Entry{
		{Path: ".claude/settings.json", Outcome: status.Overwritten, Policy: "selective-subset"},
		{Path: ".claude/missing.json", Outcome: status.SkippedAbsent, Policy: "selective-subset"},
	}, report.Entries)
	assert.Equal(t, map[string]string{".claude/settings.json": `{"v":2}`}, testutils.ReadTree(t, f.dest))
}

func TestSynchronizeReplaceDirectory(t *testing.T) {
	ctx := testutils.Context(t)
	f := newFixture(t, map[string]string{
		".cursor/commands/plan.md":    "plan v2",
		".cursor/commands/execute.md": "execute v2",
	})
	f.loc = remote.Locator{Repo: f.template}
	testutils.WriteTree(t, f.dest, map[string]string{
		".cursor/commands/plan.md":  "plan v1",
		".cursor/commands/stale.md": "removed upstream",
		".cursor/rules/keep.md":     "outside the replaced path",
	})

	table := policy.Table{{Path: ".cursor/commands", Policy: policy.Replace()}}
	report, err := f.engine.Synchronize(ctx, f.loc, f.dest, table)
	require.NoError(t, err)

	assert.Equal(t, []status.Entry{{Path: ".cursor/commands", Outcome: status.Overwritten, Policy: "replace-directory"}}, report.Entries)
	assert.Equal(t, map[string]string{
		".cursor/commands/plan.md":    "plan v2",
		".cursor/commands/execute.md": "execute v2",
		".cursor/rules/keep.md":       "outside the replaced path",
	}, testutils.ReadTree(t, f.dest))
}

func TestSynchronizeParentBeforeChild(t *testing.T) {
	ctx := testutils.Context(t)
	f := newFixture(t, map[string]string{
		".claude/commands/plan.md": "plan",
		"CLAUDE.md":                "default memory",
	})
	f.loc = remote.Locator{Repo: f.template}
	testutils.WriteTree(t, f.dest, map[string]string{"CLAUDE.md": "my memory"})

	table := policy.Table{
		{Path: ".claude/commands", Policy: policy.Replace()},
		{Path: ".", Policy: policy.Protected("CLAUDE.md")},
	}
	report, err := f.engine.Synchronize(ctx, f.loc, f.dest, table)
	require.NoError(t, err)

	assert.Equal(t, map[string]status.Outcome{
		".claude/commands": status.Created,
		"CLAUDE.md":        status.Preserved,
	}, outcomes(report.Entries))
}

func TestSynchronizeErrors(t *testing.T) {
	ctx := testutils.Context(t)

	t.Run("invalid_table_fails_before_fetch", func(t *testing.T) {
		f := newFixture(t, nil)
		_, err := f.engine.Synchronize(ctx, f.loc, f.dest, policy.Table{{Path: "../escape", Policy: policy.Replace()}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid policy table")
		f.assertStagingRemoved(t)
	})

	t.Run("fetch_failure", func(t *testing.T) {
		f := newFixture(t, nil)
		loc := remote.Locator{Repo: filepath.Join(f.template, "missing")}

		_, err := f.engine.Synchronize(ctx, loc, f.dest, workflowTable)
		require.Error(t, err)

		var fe *remote.FetchError
		require.True(t, errors.As(err, &fe), "fetch failures surface as FetchError")
		assert.Equal(t, loc.String(), fe.Source)
		f.assertStagingRemoved(t)
	})

	t.Run("write_failure_carries_partial_entries", func(t *testing.T) {
		f := newFixture(t, map[string]string{
			"docs/ai/planning/README.md":          "plan",
			"docs/ai/project/CODE_CONVENTIONS.md": "conventions",
		})
		// a regular file where a directory is expected
		testutils.WriteTree(t, f.dest, map[string]string{"project": "not a directory"})

		table := policy.Table{
			{Path: "planning", Policy: policy.Force()},
			{Path: "project", Policy: policy.Protected("CODE_CONVENTIONS.md")},
		}
		_, err := f.engine.Synchronize(ctx, f.loc, f.dest, table)
		require.Error(t, err)

		var se *SyncError
		require.True(t, errors.As(err, &se), "write failures surface as SyncError")
		assert.Equal(t, "project", se.Path)
		assert.Equal(t, []status.Entry{{Path: "planning/README.md", Outcome: status.Created, Policy: "force-overwrite"}}, se.Entries)
		f.assertStagingRemoved(t)

		content, err := os.ReadFile(filepath.Join(f.dest, "planning", "README.md"))
		require.NoError(t, err, "completed entries are not rolled back")
		assert.Equal(t, "plan", string(content))
	})
}
