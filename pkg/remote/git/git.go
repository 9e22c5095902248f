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

// Package git fetches template trees with a shallow clone of the git command.
package git

import (
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/aiwf/pkg/remote"
)

func init() {
	remote.Register("git", 20, func(ctx context.Context, opts remote.Options, repo string) (remote.Fetcher, bool, error) {
		if _, ok := CloneURL(repo); !ok {
			return nil, false, nil
		}
		if _, err := exec.LookPath("git"); err != nil {
			return nil, false, nil
		}
		return New(opts.Token), true, nil
	})
}

// 🌱 Fetcher shells out to git for hosts without an archive API
type Fetcher struct {
	token string
}

var _ remote.Fetcher = (*Fetcher)(nil)

// New creates a git fetcher. A non empty token is offered as an https credential.
func New(token string) *Fetcher {
	return &Fetcher{token: token}
}

// CloneURL converts repo to something git can clone
func CloneURL(repo string) (string, bool) {
	switch {
	case strings.HasPrefix(repo, "https://"), strings.HasPrefix(repo, "http://"),
		strings.HasPrefix(repo, "ssh://"), strings.HasPrefix(repo, "git@"), strings.HasPrefix(repo, "file://"):
		return repo, true
	case strings.HasPrefix(repo, "github.com/"), strings.HasPrefix(repo, "gitlab.com/"), strings.HasPrefix(repo, "bitbucket.org/"):
		return "https://" + strings.TrimSuffix(repo, ".git") + ".git", true
	}
	return "", false
}

func (f *Fetcher) Name() string {
	return "git"
}

// Fetch shallow clones loc.Ref into a scratch directory and copies loc.Path to dest
func (f *Fetcher) Fetch(ctx context.Context, loc remote.Locator, dest string) error {
	return f.withCheckout(ctx, loc, func(dir string) error {
		return remote.CopyTree(dir, loc.CleanPath(), dest)
	})
}

// FetchFile shallow clones loc.Ref and copies the single file at loc.Path
func (f *Fetcher) FetchFile(ctx context.Context, loc remote.Locator, localPath string) error {
	return f.withCheckout(ctx, loc, func(dir string) error {
		return remote.CopyTree(dir, loc.CleanPath(), localPath)
	})
}

func (f *Fetcher) withCheckout(ctx context.Context, loc remote.Locator, fn func(dir string) error) error {
	url, ok := CloneURL(loc.Repo)
	if !ok {
		return errors.Errorf("unsupported git repository: %q", loc.Repo)
	}

	dir, err := os.MkdirTemp("", "aiwf-git-*")
	if err != nil {
		return errors.Errorf("creating clone directory: %w", err)
	}
	defer os.RemoveAll(dir)

	args := []string{"clone", "--depth", "1", "--quiet"}
	if loc.Ref != "" {
		args = append(args, "--branch", loc.Ref)
	}
	args = append(args, url, dir)

	cmd := exec.CommandContext(ctx, "git", args...)
	f.configureAuth(cmd, url)

	zerolog.Ctx(ctx).Debug().Str("url", url).Str("ref", loc.Ref).Msg("cloning repository")

	if err := run(cmd); err != nil {
		return errors.Errorf("git clone failed: %w", err)
	}

	return fn(dir)
}

// configureAuth passes the token through the environment and a credential
// helper so it never appears in the process arguments.
func (f *Fetcher) configureAuth(cmd *exec.Cmd, url string) {
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	if f.token == "" || !strings.HasPrefix(url, "https://") {
		return
	}
	cmd.Env = append(cmd.Env, "AIWF_GIT_TOKEN="+f.token)
	cmd.Args = insertGitFlags(cmd.Args,
		"-c", `credential.helper=!f() { echo "username=x-access-token"; echo "password=$AIWF_GIT_TOKEN"; }; f`,
	)
}

// insertGitFlags inserts flags right after the git binary, before the subcommand
func insertGitFlags(args []string, flags ...string) []string {
	if len(args) == 0 {
		return flags
	}
	result := make([]string, 0, len(args)+len(flags))
	result = append(result, args[0])
	result = append(result, flags...)
	result = append(result, args[1:]...)
	return result
}

func run(cmd *exec.Cmd) error {
	output, err := cmd.CombinedOutput()
	if err != nil {
		return errors.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
