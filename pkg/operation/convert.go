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

package operation

import (
	"context"
	"io/fs"
	"os"
	"path"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/aiwf/pkg/status"
	"github.com/walteh/aiwf/pkg/syncer"
	"github.com/walteh/aiwf/pkg/text"
)

// ErrNoCanonicalDocuments is returned when the canonical document directory is missing
var ErrNoCanonicalDocuments = errors.Base("canonical document directory does not exist")

// ConvertedVariant is one written (or, in a dry run, computed) variant
type ConvertedVariant struct {
	text.Route
	Source  string          // canonical document, relative to the workspace root
	Outcome status.Outcome  // Created or Overwritten
	Diff    []text.DiffLine // against the previous content of the destination
}

// ConvertReport summarizes a conversion run
type ConvertReport struct {
	Documents int
	Variants  []ConvertedVariant
	Warnings  []string
}

// 🔀 Convert transforms every canonical document below opts.Source once and
// writes one variant per target. Destinations are always overwritten. A failed
// document or target does not stop the others; every failure is returned
// joined at the end.
func Convert(ctx context.Context, files *status.Manager, opts ConvertOptions, observer syncer.Observer) (*ConvertReport, error) {
	logger := zerolog.Ctx(ctx)

	dir := files.Abs(opts.Source)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, errors.Errorf("%w: %s", ErrNoCanonicalDocuments, opts.Source)
	}

	pattern := opts.Pattern
	if pattern == "" {
		pattern = "*.md"
	}
	names, err := doublestar.Glob(os.DirFS(dir), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, errors.Errorf("matching %q in %s: %w", pattern, opts.Source, err)
	}
	sort.Strings(names)

	pipeline := text.Canonical(text.DirResolver(files.Root()))
	report := &ConvertReport{}
	var errs []error

	for _, name := range names {
		src := path.Join(opts.Source, name)
		logger.Debug().Str("document", src).Msg("converting document")

		content, err := files.ReadFile(ctx, src)
		if err != nil {
			errs = append(errs, errors.Errorf("processing %s: %w", src, err))
			continue
		}
		report.Documents++

		variants, res := pipeline.FanOut(text.Document{Name: name, Content: string(content)}, opts.Targets)
		for _, w := range res.Warnings {
			logger.Warn().Str("document", src).Msg(w)
			report.Warnings = append(report.Warnings, src+": "+w)
		}

		for _, v := range variants {
			cv, err := writeVariant(ctx, files, v, opts.DryRun)
			if err != nil {
				errs = append(errs, errors.Errorf("processing %s for %s: %w", src, v.Target.ID, err))
				continue
			}
			cv.Source = src
			report.Variants = append(report.Variants, cv)
			if !opts.DryRun && observer != nil {
				observer(status.Entry{Path: v.Path, Outcome: cv.Outcome, Policy: "convert"})
			}
		}
	}

	if len(errs) > 0 {
		return report, errors.Join(errs...)
	}
	return report, nil
}

func writeVariant(ctx context.Context, files *status.Manager, v text.Variant, dryRun bool) (ConvertedVariant, error) {
	cv := ConvertedVariant{Route: v.Route, Outcome: status.Created}

	previous, err := files.ReadFile(ctx, v.Path)
	switch {
	case err == nil:
		cv.Outcome = status.Overwritten
	case errors.Is(err, fs.ErrNotExist):
	default:
		return cv, err
	}
	cv.Diff = text.Diff(string(previous), v.Content)

	if dryRun {
		return cv, nil
	}
	if err := files.WriteFile(ctx, v.Path, []byte(v.Content)); err != nil {
		return cv, err
	}
	return cv, nil
}

// 🔀 NewConvertOperation creates the install step running Convert. It is
// skipped with a warning when the canonical directory is missing.
func NewConvertOperation(opts Options) Operation {
	return &convertOperation{
		BaseOperation: NewBaseOperation(opts),
	}
}

type convertOperation struct {
	BaseOperation
}

func (op *convertOperation) Name() string {
	return "convert " + op.Convert.Source
}

func (op *convertOperation) Execute(ctx context.Context) error {
	logger := op.logger(ctx, op.Name())

	report, err := Convert(ctx, op.Files, op.Convert, op.Observer)
	if errors.Is(err, ErrNoCanonicalDocuments) {
		logger.Warn().Str("source", op.Convert.Source).Msg("no canonical documents found, skipping conversion")
		return nil
	}
	if err != nil {
		return err
	}

	logger.Debug().Int("documents", report.Documents).Int("variants", len(report.Variants)).Msg("conversion complete")
	return nil
}
