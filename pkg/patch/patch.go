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

package patch

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/walteh/patchrc/pkg/log"
	"github.com/walteh/patchrc/pkg/status"
	"github.com/walteh/patchrc/pkg/text"
	"gitlab.com/tozd/go/errors"
)

var (
	// ErrNotText is returned when the target does not decode as UTF-8
	ErrNotText = errors.Base("content is not valid UTF-8 text")

	// ErrRuleDrift is returned in strict mode when a rule does not match exactly once
	ErrRuleDrift = errors.Base("rules did not match exactly once")
)

// State is the lifecycle of a target file within one run
type State int

const (
	Unpatched State = iota
	Patched
)

func (s State) String() string {
	if s == Patched {
		return "patched"
	}
	return "unpatched"
}

// Options configures a Patcher
type Options struct {
	// Rules are applied in order; required
	Rules []text.ReplacementRule

	// Files reads and writes targets; defaults to the working directory
	Files status.FileManager

	// Reporter records per-file outcomes; optional
	Reporter status.StatusReporter

	// Replacer applies the rules; defaults to text.SpanReplacer
	Replacer text.TextReplacer

	// Strict fails the run when any rule matches zero or several times
	Strict bool

	// DryRun computes the result without writing
	DryRun bool

	// Diff renders a line diff into the result
	Diff bool

	// Message is printed after a successful run; defaults to "Successfully patched <path>"
	Message string
}

// Result describes a single ApplyPatch run
type Result struct {
	Path           string
	State          State
	Status         status.FileStatus
	Rules          []text.RuleResult
	Replacements   int
	Size           int
	BeforeChecksum string
	AfterChecksum  string
	Diff           string
}

// Drifted returns the rules that did not match exactly once
func (r *Result) Drifted() []text.RuleResult {
	var drifted []text.RuleResult
	for _, rr := range r.Rules {
		if rr.Matches != 1 {
			drifted = append(drifted, rr)
		}
	}
	return drifted
}

// Patcher rewrites method bodies inside a file
type Patcher struct {
	opts  Options
	modes map[string]text.Mode
}

// New creates a Patcher
func New(opts Options) (*Patcher, error) {
	if opts.Replacer == nil {
		opts.Replacer = text.NewSpanReplacer()
	}
	if opts.Files == nil {
		opts.Files = status.New(".")
	}
	if len(opts.Rules) == 0 {
		return nil, errors.Errorf("at least one rule is required")
	}
	if err := opts.Replacer.ValidateRules(opts.Rules); err != nil {
		return nil, errors.Errorf("validating rules: %w", err)
	}

	modes := make(map[string]text.Mode, len(opts.Rules))
	for _, r := range opts.Rules {
		modes[r.Name] = r.EffectiveMode()
	}

	return &Patcher{opts: opts, modes: modes}, nil
}

// ApplyPatch reads path, applies every rule in order and writes the result back
func (p *Patcher) ApplyPatch(ctx context.Context, path string) (*Result, error) {
	zlog := zerolog.Ctx(ctx).With().Str("file", path).Logger()
	console := log.FromContext(ctx)

	result, err := p.apply(ctx, path, console)
	if err != nil {
		zlog.Debug().Err(err).Msg("patch failed")
		p.track(ctx, path, status.FileInfo{Status: status.StatusFailed, Error: err})
		return result, err
	}

	p.track(ctx, path, status.FileInfo{
		Status:       result.Status,
		Size:         int64(result.Size),
		Checksum:     result.AfterChecksum,
		Replacements: result.Replacements,
	})

	switch {
	case p.opts.DryRun:
		console.Infof("Dry run: %s left untouched", path)
	case p.opts.Message != "":
		console.Success(p.opts.Message)
	default:
		console.Successf("Successfully patched %s", path)
	}

	zlog.Debug().
		Str("state", result.State.String()).
		Str("status", result.Status.String()).
		Int("replacements", result.Replacements).
		Msg("patch complete")

	return result, nil
}

func (p *Patcher) apply(ctx context.Context, path string, console *log.Logger) (*Result, error) {
	result := &Result{Path: path, State: Unpatched, Status: status.StatusUnknown}

	content, err := p.opts.Files.ReadFile(ctx, path)
	if err != nil {
		return result, errors.Errorf("loading %s: %w", path, err)
	}
	if !utf8.Valid(content) {
		return result, errors.Errorf("%w: %s", ErrNotText, path)
	}
	result.BeforeChecksum = status.Checksum(content)

	console.StartFileOperation(ctx, log.FileOperation{Path: path, Rules: len(p.opts.Rules), DryRun: p.opts.DryRun})
	defer console.EndFileOperation(ctx)

	replaced, err := p.opts.Replacer.ReplaceText(ctx, bytes.NewReader(content), p.opts.Rules)
	if err != nil {
		return result, errors.Errorf("applying rules to %s: %w", path, err)
	}

	result.Rules = replaced.Rules
	result.Replacements = replaced.ReplacementCount
	result.AfterChecksum = status.Checksum(replaced.ModifiedContent)
	result.Size = len(replaced.ModifiedContent)

	for _, rr := range replaced.Rules {
		console.LogRuleOperation(ctx, log.RuleOperation{
			Name:     rr.Name,
			Mode:     string(p.modes[rr.Name]),
			Matches:  rr.Matches,
			Replaced: rr.Replaced,
		})
	}

	if drifted := result.Drifted(); len(drifted) > 0 {
		if p.opts.Strict {
			return result, errors.Errorf("%w in %s: %s", ErrRuleDrift, path, describe(drifted))
		}
		for _, rr := range drifted {
			if rr.Matches == 0 {
				console.Warningf("rule %s found nothing to replace in %s", rr.Name, path)
			} else {
				console.Warningf("rule %s matched %d times in %s, only the first was replaced", rr.Name, rr.Matches, path)
			}
		}
	}

	if p.opts.Diff {
		result.Diff = Render(string(content), string(replaced.ModifiedContent))
	}

	if p.opts.DryRun {
		result.Status = status.StatusUnchanged
		if replaced.WasModified {
			result.Status = status.StatusPreview
		}
		return result, nil
	}

	if replaced.WasModified {
		if err := p.opts.Files.WriteFileAtomic(ctx, path, replaced.ModifiedContent); err != nil {
			return result, errors.Errorf("saving %s: %w", path, err)
		}
		result.Status = status.StatusModified
	} else {
		result.Status = status.StatusUnchanged
	}
	result.State = Patched

	return result, nil
}

func (p *Patcher) track(ctx context.Context, path string, info status.FileInfo) {
	if p.opts.Reporter == nil {
		return
	}
	p.opts.Reporter.TrackFile(ctx, path, info)
}

// describe renders drifted rules as "name=count" pairs
func describe(rules []text.RuleResult) string {
	parts := make([]string, 0, len(rules))
	for _, rr := range rules {
		parts = append(parts, fmt.Sprintf("%s=%d", rr.Name, rr.Matches))
	}
	return strings.Join(parts, ", ")
}
