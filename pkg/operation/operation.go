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
	"path/filepath"

	"github.com/walteh/patchrc/pkg/config"
	"github.com/walteh/patchrc/pkg/patch"
	"github.com/walteh/patchrc/pkg/status"
	"github.com/walteh/patchrc/pkg/text"
	"gitlab.com/tozd/go/errors"
)

// Operation is a unit of work the Runner executes
type Operation interface {
	// Key identifies the resource the operation touches; operations sharing a
	// key never run concurrently
	Key() string

	// Execute performs the operation
	Execute(ctx context.Context) error
}

// Options describes what to patch
type Options struct {
	// Config supplies targets and rules; when nil, Rules and Files are used
	Config *config.Config

	// Rules are applied to every entry of Files when Config is nil
	Rules []text.ReplacementRule

	// Files are the targets for Rules
	Files []string

	// Manager performs file I/O and records outcomes; defaults to the working directory
	Manager *status.Manager

	Strict  bool
	DryRun  bool
	Diff    bool
	Message string
}

// PatchOperation applies one rule set to one file
type PatchOperation struct {
	path    string
	patcher *patch.Patcher
	result  *patch.Result
}

var _ Operation = (*PatchOperation)(nil)

// NewPatchOperation creates an operation for path
func NewPatchOperation(path string, patcher *patch.Patcher) *PatchOperation {
	return &PatchOperation{path: path, patcher: patcher}
}

func (o *PatchOperation) Key() string {
	if abs, err := filepath.Abs(o.path); err == nil {
		return abs
	}
	return filepath.Clean(o.path)
}

func (o *PatchOperation) Execute(ctx context.Context) error {
	result, err := o.patcher.ApplyPatch(ctx, o.path)
	o.result = result
	if err != nil {
		return errors.Errorf("patching %s: %w", o.path, err)
	}
	return nil
}

// Path returns the target path
func (o *PatchOperation) Path() string {
	return o.path
}

// Result returns the outcome of Execute, nil before it ran
func (o *PatchOperation) Result() *patch.Result {
	return o.result
}

// Plan builds one PatchOperation per target file, in config order
func Plan(ctx context.Context, opts Options) ([]*PatchOperation, error) {
	if opts.Manager == nil {
		opts.Manager = status.New(".")
	}

	newPatcher := func(rules []text.ReplacementRule, strict bool) (*patch.Patcher, error) {
		return patch.New(patch.Options{
			Rules:    rules,
			Files:    opts.Manager,
			Reporter: opts.Manager,
			Strict:   strict,
			DryRun:   opts.DryRun,
			Diff:     opts.Diff,
			Message:  opts.Message,
		})
	}

	var ops []*PatchOperation

	if opts.Config == nil {
		if len(opts.Files) == 0 {
			return nil, errors.Errorf("no target files given")
		}
		p, err := newPatcher(opts.Rules, opts.Strict)
		if err != nil {
			return nil, errors.Errorf("creating patcher: %w", err)
		}
		for _, f := range opts.Files {
			ops = append(ops, NewPatchOperation(f, p))
		}
		return ops, nil
	}

	for i, t := range opts.Config.Targets {
		rules, err := opts.Config.TextRules(t)
		if err != nil {
			return nil, errors.Errorf("target %d: %w", i, err)
		}
		p, err := newPatcher(rules, opts.Strict || opts.Config.Strict)
		if err != nil {
			return nil, errors.Errorf("target %d: creating patcher: %w", i, err)
		}
		files, err := Expand(opts.Config.Dir(), t.Files)
		if err != nil {
			return nil, errors.Errorf("target %d: %w", i, err)
		}
		for _, f := range files {
			ops = append(ops, NewPatchOperation(f, p))
		}
	}

	return ops, nil
}
