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

package remote_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/aiwf/pkg/remote"
	"github.com/walteh/aiwf/pkg/testutils"
)

type stubFetcher struct {
	name  string
	err   error
	calls int
}

func (s *stubFetcher) Name() string { return s.name }

func (s *stubFetcher) Fetch(ctx context.Context, loc remote.Locator, dest string) error {
	s.calls++
	if s.err != nil {
		return s.err
	}
	return os.MkdirAll(dest, 0755)
}

func (s *stubFetcher) FetchFile(ctx context.Context, loc remote.Locator, localPath string) error {
	s.calls++
	if s.err != nil {
		return s.err
	}
	return os.WriteFile(localPath, []byte(s.name), 0644)
}

func TestLocator(t *testing.T) {
	tests := []struct {
		name      string
		loc       remote.Locator
		wantPath  string
		wantStr   string
		subPath   string
		wantSubOf string
	}{
		{
			name:      "empty_path_is_root",
			loc:       remote.Locator{Repo: "github.com/org/repo", Ref: "main"},
			wantPath:  ".",
			wantStr:   "github.com/org/repo@main",
			subPath:   "AGENTS.md",
			wantSubOf: "AGENTS.md",
		},
		{
			name:      "sub_tree",
			loc:       remote.Locator{Repo: "github.com/org/repo", Ref: "v1.2.0", Path: "/docs/ai/"},
			wantPath:  "docs/ai",
			wantStr:   "github.com/org/repo@v1.2.0//docs/ai",
			subPath:   "planning",
			wantSubOf: "docs/ai/planning",
		},
		{
			name:      "no_ref",
			loc:       remote.Locator{Repo: "/tmp/template", Path: "."},
			wantPath:  ".",
			wantStr:   "/tmp/template",
			subPath:   ".claude",
			wantSubOf: ".claude",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantPath, tt.loc.CleanPath())
			assert.Equal(t, tt.wantStr, tt.loc.String())
			assert.Equal(t, tt.wantSubOf, tt.loc.Sub(tt.subPath).Path)
		})
	}
}

func TestFallback(t *testing.T) {
	ctx := testutils.Context(t)
	loc := remote.Locator{Repo: "github.com/org/repo", Ref: "main"}

	t.Run("first_success_wins", func(t *testing.T) {
		first := &stubFetcher{name: "first"}
		second := &stubFetcher{name: "second"}
		dest := filepath.Join(t.TempDir(), "out.md")

		require.NoError(t, remote.Fallback{first, second}.FetchFile(ctx, loc, dest))
		assert.Equal(t, 1, first.calls)
		assert.Equal(t, 0, second.calls)

		content, err := os.ReadFile(dest)
		require.NoError(t, err)
		assert.Equal(t, "first", string(content))
	})

	t.Run("falls_back_on_error", func(t *testing.T) {
		first := &stubFetcher{name: "first", err: errors.New("offline")}
		second := &stubFetcher{name: "second"}

		require.NoError(t, remote.Fallback{first, second}.Fetch(ctx, loc, filepath.Join(t.TempDir(), "tree")))
		assert.Equal(t, 1, first.calls)
		assert.Equal(t, 1, second.calls)
	})

	t.Run("all_fail_is_fetch_error", func(t *testing.T) {
		first := &stubFetcher{name: "first", err: errors.New("offline")}
		second := &stubFetcher{name: "second", err: errors.New("not found")}

		err := remote.Fallback{first, second}.Fetch(ctx, loc, t.TempDir())
		require.Error(t, err)

		var fe *remote.FetchError
		require.True(t, errors.As(err, &fe), "error should be a FetchError")
		assert.Equal(t, "github.com/org/repo@main", fe.Source)
		assert.Contains(t, err.Error(), "first: offline")
		assert.Contains(t, err.Error(), "second: not found")
	})

	t.Run("empty_chain", func(t *testing.T) {
		err := remote.Fallback{}.Fetch(ctx, loc, t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no transport available")
	})

	assert.Equal(t, "a|b", remote.Fallback{&stubFetcher{name: "a"}, &stubFetcher{name: "b"}}.Name())
}

func TestAsFetchError(t *testing.T) {
	loc := remote.Locator{Repo: "r"}
	assert.NoError(t, remote.AsFetchError(loc, nil))

	wrapped := remote.AsFetchError(loc, errors.New("boom"))
	var fe *remote.FetchError
	require.True(t, errors.As(wrapped, &fe))
	assert.Equal(t, "fetching r: boom", wrapped.Error())

	assert.Same(t, wrapped, remote.AsFetchError(loc, wrapped), "existing fetch errors are not wrapped twice")
}

func TestOpen(t *testing.T) {
	ctx := testutils.Context(t)

	remote.Register("test-low", 1, func(ctx context.Context, opts remote.Options, repo string) (remote.Fetcher, bool, error) {
		return &stubFetcher{name: "test-low"}, strings.HasPrefix(repo, "test://"), nil
	})
	remote.Register("test-high", 2, func(ctx context.Context, opts remote.Options, repo string) (remote.Fetcher, bool, error) {
		return &stubFetcher{name: "test-high"}, strings.HasPrefix(repo, "test://both"), nil
	})

	single, err := remote.Open(ctx, remote.Options{}, "test://one")
	require.NoError(t, err)
	assert.Equal(t, "test-low", single.Name())

	chain, err := remote.Open(ctx, remote.Options{}, "test://both")
	require.NoError(t, err)
	assert.Equal(t, "test-low|test-high", chain.Name())

	_, err = remote.Open(ctx, remote.Options{}, "nope://x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no transport supports repository")
}

func TestCopyTree(t *testing.T) {
	root := t.TempDir()
	testutils.WriteTree(t, root, map[string]string{
		"docs/ai/planning/README.md": "plan",
		"docs/ai/project/A.md":       "a",
		".git/HEAD":                  "ref: refs/heads/main",
		"AGENTS.md":                  "agents",
	})

	t.Run("directory", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "tree")
		testutils.WriteTree(t, dest, map[string]string{"stale.md": "old"})

		require.NoError(t, remote.CopyTree(root, "docs/ai", dest))
		assert.Equal(t, map[string]string{
			"planning/README.md": "plan",
			"project/A.md":       "a",
		}, testutils.ReadTree(t, dest))
	})

	t.Run("root_skips_git", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "tree")
		require.NoError(t, remote.CopyTree(root, ".", dest))

		tree := testutils.ReadTree(t, dest)
		assert.NotContains(t, tree, ".git/HEAD")
		assert.Equal(t, "agents", tree["AGENTS.md"])
	})

	t.Run("single_file", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "AGENTS.md")
		require.NoError(t, remote.CopyTree(root, "AGENTS.md", dest))

		content, err := os.ReadFile(dest)
		require.NoError(t, err)
		assert.Equal(t, "agents", string(content))
	})

	t.Run("missing", func(t *testing.T) {
		err := remote.CopyTree(root, "nope", filepath.Join(t.TempDir(), "x"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, remote.ErrNotFound))
	})
}

func TestExtractTarball(t *testing.T) {
	archive := testutils.Tarball(t, "repo-abc123", map[string]string{
		"docs/ai/planning/README.md": "plan",
		"docs/ai/planning/archive/":  "",
		"docs/ai/project/A.md":       "a",
		"AGENTS.md":                  "agents",
	})

	tests := []struct {
		name        string
		sub         string
		want        map[string]string
		wantFile    string
		errContains string
	}{
		{
			name: "sub_tree",
			sub:  "docs/ai",
			want: map[string]string{
				"planning/README.md": "plan",
				"planning/archive/":  "",
				"project/A.md":       "a",
			},
		},
		{
			name:     "single_file",
			sub:      "AGENTS.md",
			wantFile: "agents",
		},
		{
			name:        "missing_path",
			sub:         "nope",
			errContains: "path not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dest := filepath.Join(t.TempDir(), "out")
			err := remote.ExtractTarball(bytes.NewReader(archive), tt.sub, dest)
			if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)

			if tt.wantFile != "" {
				content, err := os.ReadFile(dest)
				require.NoError(t, err)
				assert.Equal(t, tt.wantFile, string(content))
				return
			}
			assert.Equal(t, tt.want, testutils.ReadTree(t, dest))
		})
	}

	t.Run("not_gzip", func(t *testing.T) {
		err := remote.ExtractTarball(strings.NewReader("404: Not Found"), ".", t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expected gzip file")
	})
}
