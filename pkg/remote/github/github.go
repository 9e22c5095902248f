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

// Package github fetches template trees from GitHub repository archives.
package github

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v60/github"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/oauth2"

	"github.com/walteh/aiwf/pkg/remote"
)

// DefaultRawBase serves single files without going through the API
const DefaultRawBase = "https://raw.githubusercontent.com"

func init() {
	remote.Register("github", 10, func(ctx context.Context, opts remote.Options, repo string) (remote.Fetcher, bool, error) {
		if !Supports(repo) {
			return nil, false, nil
		}
		f, err := New(ctx, opts)
		if err != nil {
			return nil, false, err
		}
		return f, true, nil
	})
}

// RepositoriesClient is the subset of the GitHub repositories API we need
type RepositoriesClient interface {
	GetArchiveLink(ctx context.Context, owner, repo string, archiveformat github.ArchiveFormat, opts *github.RepositoryContentGetOptions, maxRedirects int) (*url.URL, *github.Response, error)
	DownloadContents(ctx context.Context, owner, repo, filepath string, opts *github.RepositoryContentGetOptions) (io.ReadCloser, *github.Response, error)
}

var _ RepositoriesClient = (*github.RepositoriesService)(nil)

// 🐙 Fetcher downloads repository tarballs and raw files from GitHub
type Fetcher struct {
	repos   RepositoriesClient
	http    *http.Client
	rawBase string
}

var _ remote.Fetcher = (*Fetcher)(nil)

// 🏭 New creates a fetcher, authenticating when opts carries a token
func New(ctx context.Context, opts remote.Options) (*Fetcher, error) {
	httpClient := http.DefaultClient
	if opts.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token})
		httpClient = oauth2.NewClient(ctx, ts)
	}

	client := github.NewClient(httpClient)
	if opts.APIBase != "" {
		base, err := url.Parse(strings.TrimSuffix(opts.APIBase, "/") + "/")
		if err != nil {
			return nil, errors.Errorf("parsing api base url: %w", err)
		}
		client.BaseURL = base
	}

	rawBase := opts.RawBase
	if rawBase == "" {
		rawBase = DefaultRawBase
	}

	return NewWithClient(client.Repositories, httpClient, rawBase), nil
}

// NewWithClient creates a fetcher on top of an existing API client
func NewWithClient(repos RepositoriesClient, httpClient *http.Client, rawBase string) *Fetcher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Fetcher{
		repos:   repos,
		http:    httpClient,
		rawBase: strings.TrimSuffix(rawBase, "/"),
	}
}

// 🔍 ParseRepo splits a GitHub repository reference into owner and name.
// Accepted forms: github.com/org/name, https://github.com/org/name(.git), org/name
func ParseRepo(repo string) (owner, name string, err error) {
	s := strings.TrimSpace(repo)
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "github.com/")
	s = strings.TrimSuffix(strings.TrimSuffix(s, "/"), ".git")

	parts := strings.Split(s, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" || strings.Contains(parts[0], ".") || strings.Contains(parts[0], ":") {
		return "", "", errors.Errorf("invalid GitHub repository: %q", repo)
	}
	return parts[0], parts[1], nil
}

// Supports reports whether repo looks like a GitHub repository
func Supports(repo string) bool {
	_, _, err := ParseRepo(repo)
	return err == nil
}

func (f *Fetcher) Name() string {
	return "github"
}

func ref(loc remote.Locator) string {
	if loc.Ref == "" {
		return "main"
	}
	return loc.Ref
}

// 📦 Fetch downloads the repository tarball at loc.Ref and extracts loc.Path into dest
func (f *Fetcher) Fetch(ctx context.Context, loc remote.Locator, dest string) error {
	owner, name, err := ParseRepo(loc.Repo)
	if err != nil {
		return err
	}

	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("owner", owner).Str("repo", name).Str("ref", ref(loc)).Str("path", loc.CleanPath()).Msg("fetching archive")

	link, resp, err := f.repos.GetArchiveLink(ctx, owner, name, github.Tarball, &github.RepositoryContentGetOptions{Ref: ref(loc)}, 1)
	if err != nil {
		return f.apiError(ctx, "getting archive link", loc, resp, err)
	}

	body, err := f.download(ctx, link.String(), loc)
	if err != nil {
		return errors.Errorf("downloading archive: %w", err)
	}
	defer body.Close()

	if err := remote.ExtractTarball(body, loc.CleanPath(), dest); err != nil {
		return errors.Errorf("extracting archive: %w", err)
	}

	logger.Debug().Str("dest", dest).Msg("archive extracted")
	return nil
}

// 📄 FetchFile downloads one file. The raw content host is tried first and the
// contents API is used when it is unavailable.
func (f *Fetcher) FetchFile(ctx context.Context, loc remote.Locator, localPath string) error {
	owner, name, err := ParseRepo(loc.Repo)
	if err != nil {
		return err
	}

	logger := zerolog.Ctx(ctx)
	rawURL := fmt.Sprintf("%s/%s/%s/%s/%s", f.rawBase, owner, name, ref(loc), loc.CleanPath())

	body, rawErr := f.download(ctx, rawURL, loc)
	if rawErr != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn().Err(rawErr).Str("url", rawURL).Msg("raw download failed, falling back to contents api")

		var resp *github.Response
		body, resp, err = f.repos.DownloadContents(ctx, owner, name, loc.CleanPath(), &github.RepositoryContentGetOptions{Ref: ref(loc)})
		if err != nil {
			return errors.Join(
				errors.Errorf("raw download: %w", rawErr),
				f.apiError(ctx, "downloading contents", loc, resp, err),
			)
		}
	}
	defer body.Close()

	if err := remote.WriteFile(localPath, body, 0644); err != nil {
		return errors.Errorf("writing %s: %w", localPath, err)
	}

	logger.Debug().Str("path", loc.CleanPath()).Str("dest", localPath).Msg("file downloaded")
	return nil
}

func (f *Fetcher) download(ctx context.Context, u string, loc remote.Locator) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Errorf("creating request: %w", err)
	}

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, errors.Errorf("requesting %s: %w", u, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, errors.Errorf("%w: invalid tag or reference '%s'", remote.ErrNotFound, ref(loc))
	case resp.StatusCode != http.StatusOK:
		resp.Body.Close()
		return nil, errors.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return resp.Body, nil
}

func (f *Fetcher) apiError(ctx context.Context, action string, loc remote.Locator, resp *github.Response, err error) error {
	if ctx.Err() != nil {
		return errors.Errorf("context error: %w", ctx.Err())
	}
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return errors.Errorf("%s: rate limit exceeded: %w", action, err)
	}
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return errors.Errorf("%s: %w: invalid tag or reference '%s'", action, remote.ErrNotFound, ref(loc))
	}
	return errors.Errorf("%s: %w", action, err)
}
