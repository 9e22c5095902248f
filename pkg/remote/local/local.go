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

// Package local serves templates from a directory on the local disk.
package local

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/aiwf/pkg/remote"
)

func init() {
	remote.Register("local", 0, func(ctx context.Context, opts remote.Options, repo string) (remote.Fetcher, bool, error) {
		if !Supports(repo) {
			return nil, false, nil
		}
		return New(), true, nil
	})
}

// 📁 Fetcher copies template trees out of a local directory
type Fetcher struct{}

var _ remote.Fetcher = (*Fetcher)(nil)

// New creates a new local fetcher
func New() *Fetcher {
	return &Fetcher{}
}

// Supports reports whether repo names a local directory
func Supports(repo string) bool {
	switch {
	case strings.HasPrefix(repo, "file://"):
		return true
	case repo == "." || repo == "..":
		return true
	case strings.HasPrefix(repo, "./"), strings.HasPrefix(repo, "../"), strings.HasPrefix(repo, "~/"):
		return true
	case filepath.IsAbs(repo):
		return true
	}
	return false
}

// Root resolves repo to an absolute directory
func Root(repo string) (string, error) {
	dir := strings.TrimPrefix(repo, "file://")
	if strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Errorf("resolving home directory: %w", err)
		}
		dir = filepath.Join(home, dir[2:])
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.Errorf("resolving %s: %w", repo, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", errors.Errorf("opening template directory: %w", err)
	}
	if !info.IsDir() {
		return "", errors.Errorf("template %s is not a directory", abs)
	}
	return abs, nil
}

func (f *Fetcher) Name() string {
	return "local"
}

// Fetch copies the sub-tree at loc into dest. The ref is ignored.
func (f *Fetcher) Fetch(ctx context.Context, loc remote.Locator, dest string) error {
	root, err := Root(loc.Repo)
	if err != nil {
		return err
	}

	zerolog.Ctx(ctx).Debug().Str("root", root).Str("path", loc.CleanPath()).Str("dest", dest).Msg("copying local template")

	if err := remote.CopyTree(root, loc.CleanPath(), dest); err != nil {
		return errors.Errorf("copying %s: %w", loc.CleanPath(), err)
	}
	return nil
}

// FetchFile copies the single file at loc to localPath
func (f *Fetcher) FetchFile(ctx context.Context, loc remote.Locator, localPath string) error {
	root, err := Root(loc.Repo)
	if err != nil {
		return err
	}

	src := filepath.Join(root, filepath.FromSlash(loc.CleanPath()))
	info, err := os.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Errorf("%w: %s", remote.ErrNotFound, loc.CleanPath())
		}
		return errors.Errorf("checking source file: %w", err)
	}
	if info.IsDir() {
		return errors.Errorf("%s is a directory", loc.CleanPath())
	}

	return remote.CopyTree(root, loc.CleanPath(), localPath)
}
