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
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/walteh/patchrc/pkg/log"
	"github.com/walteh/patchrc/pkg/status"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

type OperationRunner struct {
	logger   *zerolog.Logger
	async    bool
	limit    int
	progress status.StatusReporter
}

func NewRunner(logger *zerolog.Logger, async bool) *OperationRunner {
	return &OperationRunner{
		logger: logger,
		async:  async,
		limit:  8,
	}
}

// WithProgress reports how many operations have finished to p
func (r *OperationRunner) WithProgress(p status.StatusReporter) *OperationRunner {
	r.progress = p
	return r
}

// Run executes ops in order, or concurrently across distinct keys when async.
// The first error stops the run.
func (r *OperationRunner) Run(ctx context.Context, ops ...Operation) error {
	if r.progress != nil {
		r.progress.StartOperation(ctx, len(ops))
	}

	var err error
	if r.async {
		err = r.runAsync(ctx, ops)
	} else {
		err = r.runSync(ctx, ops)
	}

	if err == nil && r.progress != nil {
		r.progress.FinishOperation(ctx)
	}
	return err
}

func (r *OperationRunner) done(ctx context.Context, processed int) {
	if r.progress != nil {
		r.progress.UpdateProgress(ctx, processed)
	}
}

func (r *OperationRunner) runSync(ctx context.Context, ops []Operation) error {
	for i, op := range ops {
		if err := ctx.Err(); err != nil {
			return errors.Errorf("operation cancelled: %w", err)
		}
		r.logger.Debug().Str("key", op.Key()).Msg("running operation")
		if err := op.Execute(ctx); err != nil {
			return err
		}
		r.done(ctx, i+1)
	}
	return nil
}

func (r *OperationRunner) runAsync(ctx context.Context, ops []Operation) error {
	// operations on the same key stay sequential within one goroutine
	var keys []string
	groups := map[string][]Operation{}
	for _, op := range ops {
		k := op.Key()
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], op)
	}

	console := log.FromContext(ctx)
	var processed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.limit)
	for _, k := range keys {
		group := groups[k]
		g.Go(func() error {
			buffered, flush := console.Buffered()
			defer flush()
			octx := log.NewContext(gctx, buffered)

			for _, op := range group {
				if err := gctx.Err(); err != nil {
					return errors.Errorf("operation cancelled: %w", err)
				}
				r.logger.Debug().Str("key", op.Key()).Msg("running operation")
				if err := op.Execute(octx); err != nil {
					return err
				}
				r.done(octx, int(processed.Add(1)))
			}
			return nil
		})
	}

	return g.Wait()
}
