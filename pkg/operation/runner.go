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
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 📣 Reporter is told when each operation starts and ends
type Reporter interface {
	StartOperation(ctx context.Context, name string)
	EndOperation(ctx context.Context, name string, err error)
}

// 🏃 OperationRunner executes operations one after another
type OperationRunner struct {
	logger   *zerolog.Logger
	reporter Reporter
}

// 🏗️ NewRunner creates a new runner
func NewRunner(logger *zerolog.Logger) *OperationRunner {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &OperationRunner{
		logger: logger,
	}
}

// WithReporter sets the reporter, nil disables reporting
func (r *OperationRunner) WithReporter(reporter Reporter) *OperationRunner {
	r.reporter = reporter
	return r
}

// 🏃 Run executes ops in order and stops at the first failure. Each step
// sees the workspace as left by the steps before it.
func (r *OperationRunner) Run(ctx context.Context, ops ...Operation) error {
	for i, op := range ops {
		if err := ctx.Err(); err != nil {
			return errors.Errorf("operation cancelled before %s: %w", op.Name(), err)
		}

		start := time.Now()
		r.logger.Debug().Int("step", i+1).Int("steps", len(ops)).Str("operation", op.Name()).Msg("running operation")

		if r.reporter != nil {
			r.reporter.StartOperation(ctx, op.Name())
		}
		err := op.Execute(ctx)
		if r.reporter != nil {
			r.reporter.EndOperation(ctx, op.Name(), err)
		}
		if err != nil {
			return errors.Errorf("executing %s: %w", op.Name(), err)
		}

		r.logger.Debug().Str("operation", op.Name()).Dur("took", time.Since(start)).Msg("operation complete")
	}
	return nil
}
