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
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/aiwf/pkg/policy"
	"github.com/walteh/aiwf/pkg/remote"
	"github.com/walteh/aiwf/pkg/status"
)

// 📋 Report lists every destination entry produced by one synchronization
type Report struct {
	Source      remote.Locator
	Destination string
	Entries     []status.Entry
}

// Count returns how many entries ended with outcome
func (r *Report) Count(outcome status.Outcome) int {
	return status.Count(r.Entries)[outcome]
}

// ❌ SyncError reports a filesystem failure while applying a policy table.
// Entries holds the results completed before the failure; nothing is rolled back.
type SyncError struct {
	Path    string
	Entries []status.Entry
	Err     error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("syncing %s: %v", e.Path, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// Observer is called for every entry as soon as it is produced
type Observer func(entry status.Entry)

// ⚙️ Engine applies policy tables from a fetched staging tree to a destination
type Engine struct {
	fetcher     remote.Fetcher
	stagingRoot string
	observer    Observer
}

// Option configures an Engine
type Option func(*Engine)

// WithStagingRoot places staging directories below dir instead of the system temp dir
func WithStagingRoot(dir string) Option {
	return func(e *Engine) {
		e.stagingRoot = dir
	}
}

// WithObserver registers a callback for each produced entry
func WithObserver(fn Observer) Option {
	return func(e *Engine) {
		e.observer = fn
	}
}

// 🏭 New creates an engine that fetches through fetcher
func New(fetcher remote.Fetcher, opts ...Option) *Engine {
	e := &Engine{fetcher: fetcher}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// 🔄 Synchronize fetches loc into a fresh staging directory and applies every
// table entry, in declaration order, to destRoot. The staging directory is
// removed before returning on every path.
func (e *Engine) Synchronize(ctx context.Context, loc remote.Locator, destRoot string, table policy.Table) (*Report, error) {
	if err := table.Validate(); err != nil {
		return nil, errors.Errorf("invalid policy table: %w", err)
	}

	logger := zerolog.Ctx(ctx).With().Str("source", loc.String()).Str("destination", destRoot).Logger()

	staging, err := os.MkdirTemp(e.stagingRoot, "aiwf-staging-*")
	if err != nil {
		return nil, errors.Errorf("creating staging directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(staging); err != nil {
			logger.Warn().Err(err).Str("staging", staging).Msg("removing staging directory")
		}
	}()

	tree := filepath.Join(staging, "tree")
	logger.Debug().Str("staging", staging).Msg("fetching source into staging")
	if err := e.fetcher.Fetch(ctx, loc, tree); err != nil {
		return nil, remote.AsFetchError(loc, err)
	}

	a := &applier{
		tree:     tree,
		dest:     status.NewManager(destRoot),
		observer: e.observer,
		logger:   logger,
	}

	for _, entry := range table {
		if err := a.apply(ctx, entry); err != nil {
			return nil, &SyncError{Path: entry.Path, Entries: a.entries, Err: err}
		}
	}

	logger.Debug().Int("entries", len(a.entries)).Msg("synchronization complete")

	return &Report{
		Source:      loc,
		Destination: destRoot,
		Entries:     a.entries,
	}, nil
}

type applier struct {
	tree     string
	dest     *status.Manager
	observer Observer
	logger   zerolog.Logger
	entries  []status.Entry
}

func (a *applier) record(p string, outcome status.Outcome, kind policy.Kind) {
	entry := status.Entry{Path: p, Outcome: outcome, Policy: kind.String()}
	a.entries = append(a.entries, entry)
	a.logger.Debug().Str("path", p).Str("outcome", outcome.String()).Str("policy", entry.Policy).Msg("entry applied")
	if a.observer != nil {
		a.observer(entry)
	}
}

func (a *applier) staged(p string) (fs.FileInfo, bool, error) {
	info, err := os.Stat(filepath.Join(a.tree, filepath.FromSlash(p)))
	if err == nil {
		return info, true, nil
	}
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	return nil, false, errors.Errorf("checking staging path: %w", err)
}

func (a *applier) apply(ctx context.Context, entry policy.Entry) error {
	kind := entry.Policy.Kind

	// an empty directory is never read from staging
	if kind == policy.EnsureEmptyDirectory {
		return a.ensureDir(ctx, entry)
	}

	info, ok, err := a.staged(entry.Path)
	if err != nil {
		return err
	}
	if !ok {
		a.record(entry.Path, status.SkippedAbsent, kind)
		return nil
	}

	switch kind {
	case policy.ForceOverwrite:
		return a.forceOverwrite(ctx, entry, info)
	case policy.SelectiveSubset:
		return a.files(ctx, entry, false)
	case policy.ProtectedCreate:
		return a.files(ctx, entry, true)
	case policy.ReplaceDirectory:
		return a.replaceDirectory(ctx, entry)
	default:
		return errors.Errorf("unknown policy kind %d", kind)
	}
}

// copyOne copies a staged file and records Created or Overwritten
func (a *applier) copyOne(ctx context.Context, p string, kind policy.Kind) error {
	existed, err := a.dest.FileExists(ctx, p)
	if err != nil {
		return err
	}
	if err := a.dest.CopyFile(ctx, filepath.Join(a.tree, filepath.FromSlash(p)), p); err != nil {
		return errors.Errorf("copying %s: %w", p, err)
	}
	if existed {
		a.record(p, status.Overwritten, kind)
	} else {
		a.record(p, status.Created, kind)
	}
	return nil
}

func (a *applier) forceOverwrite(ctx context.Context, entry policy.Entry, info fs.FileInfo) error {
	if !info.IsDir() {
		return a.copyOne(ctx, entry.Path, entry.Policy.Kind)
	}

	root := filepath.Join(a.tree, filepath.FromSlash(entry.Path))
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return errors.Errorf("getting relative path: %w", err)
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		if entry.Policy.Excluded(rel) {
			a.logger.Trace().Str("path", rel).Msg("excluded from force overwrite")
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		return a.copyOne(ctx, policy.Join(entry.Path, rel), entry.Policy.Kind)
	})
}

// files handles the kinds that name individual files inside the sub-path
func (a *applier) files(ctx context.Context, entry policy.Entry, protect bool) error {
	for _, name := range entry.Policy.Files {
		p := policy.Join(entry.Path, name)

		info, ok, err := a.staged(p)
		if err != nil {
			return err
		}
		if !ok || info.IsDir() {
			a.record(p, status.SkippedAbsent, entry.Policy.Kind)
			continue
		}

		if protect {
			exists, err := a.dest.FileExists(ctx, p)
			if err != nil {
				return err
			}
			if exists {
				a.record(p, status.Preserved, entry.Policy.Kind)
				continue
			}
		}

		if err := a.copyOne(ctx, p, entry.Policy.Kind); err != nil {
			return err
		}
	}
	return nil
}

func (a *applier) replaceDirectory(ctx context.Context, entry policy.Entry) error {
	existed, err := a.dest.FileExists(ctx, entry.Path)
	if err != nil {
		return err
	}

	if err := a.dest.RemoveDir(ctx, entry.Path); err != nil {
		return err
	}
	if err := remote.CopyTree(a.tree, entry.Path, a.dest.Abs(entry.Path)); err != nil {
		return errors.Errorf("copying %s: %w", entry.Path, err)
	}

	if existed {
		a.record(entry.Path, status.Overwritten, entry.Policy.Kind)
	} else {
		a.record(entry.Path, status.Created, entry.Policy.Kind)
	}
	return nil
}

func (a *applier) ensureDir(ctx context.Context, entry policy.Entry) error {
	exists, err := a.dest.FileExists(ctx, entry.Path)
	if err != nil {
		return err
	}
	if exists {
		a.record(entry.Path, status.Preserved, entry.Policy.Kind)
		return nil
	}
	if err := a.dest.CreateDir(ctx, entry.Path); err != nil {
		return err
	}
	a.record(entry.Path, status.Created, entry.Policy.Kind)
	return nil
}
