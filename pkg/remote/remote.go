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

package remote

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 📍 Locator identifies a sub-tree (or single file) of a template repository
type Locator struct {
	Repo string // github.com/org/name, a git url, file:///abs/dir or a local directory
	Ref  string // branch, tag or commit, defaults to main
	Path string // slash separated path inside the repository, "." for the root
}

// String returns a human readable form like github.com/org/name@main//docs/ai
func (l Locator) String() string {
	s := l.Repo
	if l.Ref != "" {
		s += "@" + l.Ref
	}
	if p := l.CleanPath(); p != "." {
		s += "//" + p
	}
	return s
}

// CleanPath returns the normalized sub-path, "." for the repository root
func (l Locator) CleanPath() string {
	p := strings.Trim(strings.ReplaceAll(l.Path, "\\", "/"), "/")
	if p == "" {
		return "."
	}
	return path.Clean(p)
}

// Sub returns a locator for a path below this one
func (l Locator) Sub(p string) Locator {
	l.Path = path.Join(l.CleanPath(), p)
	return l
}

// 📥 Fetcher materializes remote content on the local disk
type Fetcher interface {
	// Name returns the transport name (e.g. "github")
	Name() string
	// Fetch copies the tree at loc into dest. An existing dest is replaced.
	Fetch(ctx context.Context, loc Locator, dest string) error
	// FetchFile copies the single file at loc to localPath, replacing it.
	FetchFile(ctx context.Context, loc Locator, localPath string) error
}

// ❌ FetchError reports that a remote source could not be materialized locally
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// AsFetchError wraps err in a FetchError for loc unless it already is one
func AsFetchError(loc Locator, err error) error {
	if err == nil {
		return nil
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return err
	}
	return &FetchError{Source: loc.String(), Err: err}
}

// 🔁 Fallback tries each fetcher in order until one succeeds
type Fallback []Fetcher

var _ Fetcher = Fallback(nil)

func (f Fallback) Name() string {
	names := make([]string, 0, len(f))
	for _, fetcher := range f {
		names = append(names, fetcher.Name())
	}
	return strings.Join(names, "|")
}

func (f Fallback) Fetch(ctx context.Context, loc Locator, dest string) error {
	return f.try(ctx, loc, func(fetcher Fetcher) error {
		return fetcher.Fetch(ctx, loc, dest)
	})
}

func (f Fallback) FetchFile(ctx context.Context, loc Locator, localPath string) error {
	return f.try(ctx, loc, func(fetcher Fetcher) error {
		return fetcher.FetchFile(ctx, loc, localPath)
	})
}

func (f Fallback) try(ctx context.Context, loc Locator, fn func(Fetcher) error) error {
	if len(f) == 0 {
		return &FetchError{Source: loc.String(), Err: errors.New("no transport available")}
	}

	logger := zerolog.Ctx(ctx)
	errs := make([]error, 0, len(f))
	for i, fetcher := range f {
		err := fn(fetcher)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return &FetchError{Source: loc.String(), Err: ctx.Err()}
		}
		errs = append(errs, errors.Errorf("%s: %w", fetcher.Name(), err))
		if i < len(f)-1 {
			logger.Warn().Err(err).Str("transport", fetcher.Name()).Str("next", f[i+1].Name()).Msg("transport failed, falling back")
		}
	}
	return &FetchError{Source: loc.String(), Err: errors.Join(errs...)}
}

// 🏭 Options configures the transports built by Open
type Options struct {
	Token   string // GitHub token, empty for anonymous access
	RawBase string // base URL for raw single file downloads
	APIBase string // GitHub API base URL, empty for api.github.com
}

// Factory builds a transport, reporting false when it cannot serve repo
type Factory func(ctx context.Context, opts Options, repo string) (Fetcher, bool, error)

type registration struct {
	name     string
	priority int
	factory  Factory
}

var registry = map[string]registration{}

// Register makes a transport available to Open. Lower priority is tried first.
func Register(name string, priority int, factory Factory) {
	registry[name] = registration{name: name, priority: priority, factory: factory}
}

// Open returns a fetcher for repo built from every registered transport that
// supports it. More than one transport yields a Fallback in priority order.
func Open(ctx context.Context, opts Options, repo string) (Fetcher, error) {
	regs := make([]registration, 0, len(registry))
	for _, r := range registry {
		regs = append(regs, r)
	}
	sort.Slice(regs, func(i, j int) bool {
		if regs[i].priority == regs[j].priority {
			return regs[i].name < regs[j].name
		}
		return regs[i].priority < regs[j].priority
	})

	chain := Fallback{}
	for _, r := range regs {
		fetcher, ok, err := r.factory(ctx, opts, repo)
		if err != nil {
			return nil, errors.Errorf("creating %s transport: %w", r.name, err)
		}
		if ok {
			chain = append(chain, fetcher)
		}
	}

	switch len(chain) {
	case 0:
		names := make([]string, 0, len(regs))
		for _, r := range regs {
			names = append(names, r.name)
		}
		return nil, errors.Errorf("no transport supports repository %q, options: %s", repo, strings.Join(names, ", "))
	case 1:
		return chain[0], nil
	default:
		return chain, nil
	}
}
