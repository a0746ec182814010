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

package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/patchrc/cmd/patchrc/opts"
	"github.com/walteh/patchrc/pkg/config"
	"github.com/walteh/patchrc/pkg/log"
	"github.com/walteh/patchrc/pkg/operation"
	"github.com/walteh/patchrc/pkg/rules"
	"github.com/walteh/patchrc/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// ApplyOptions are the flags shared by the root and apply commands
type ApplyOptions struct {
	Config  string
	Strict  bool
	Pattern bool
	DryRun  bool
	Diff    bool
	Async   bool
}

// AddApplyFlags binds a to the flags of cmd
func AddApplyFlags(cmd *cobra.Command, a *ApplyOptions) {
	cmd.Flags().StringVarP(&a.Config, "config", "c", "", "rule-set file (.yaml, .json or .hcl)")
	cmd.Flags().BoolVar(&a.Strict, "strict", false, "fail unless every rule matches exactly once")
	cmd.Flags().BoolVar(&a.Pattern, "pattern", false, "match the built-in methods up to their closing return instead of by braces")
	cmd.Flags().BoolVar(&a.DryRun, "dry-run", false, "show what would change without writing")
	cmd.Flags().BoolVar(&a.Diff, "diff", false, "print a line diff of every change")
	cmd.Flags().BoolVar(&a.Async, "async", false, "patch files concurrently")
}

// NewApplyCmd creates a new apply command
func NewApplyCmd(o *opts.RootOpts) *cobra.Command {
	a := &ApplyOptions{}

	cmd := &cobra.Command{
		Use:   "apply [FILE]",
		Short: "Rewrite method bodies in place",
		Long: `Apply rewrites method bodies in place.
Without --config it replaces updateBus and deleteBus in FILE,
or in server/services/databaseService.js when FILE is omitted.
With --config it applies every target of the rule-set file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return Apply(cmd.Context(), o, *a, args)
		},
	}

	AddApplyFlags(cmd, a)

	return cmd
}

// Apply plans and runs one patch operation per target file
func Apply(ctx context.Context, o *opts.RootOpts, a ApplyOptions, args []string) error {
	ctx = zerolog.Ctx(ctx).With().Str("command", "apply").Logger().WithContext(ctx)

	ops, mgr, async, err := plan(ctx, o, a, args)
	if err != nil {
		return err
	}

	runner := operation.NewRunner(zerolog.Ctx(ctx), async).WithProgress(mgr)
	err = runner.Run(ctx, generic(ops)...)

	if a.Diff {
		printDiffs(log.FromContext(ctx), ops)
	}

	return err
}

// plan builds the operations for a, using the built-in rules when no config is given
func plan(ctx context.Context, o *opts.RootOpts, a ApplyOptions, args []string) ([]*operation.PatchOperation, *status.Manager, bool, error) {
	mgr := status.New(o.Dir)

	popts := operation.Options{
		Manager: mgr,
		Strict:  a.Strict,
		DryRun:  a.DryRun,
		Diff:    a.Diff,
	}
	async := a.Async

	if a.Config != "" {
		if len(args) > 0 {
			return nil, nil, false, errors.Errorf("FILE cannot be combined with --config")
		}
		cfg, err := config.Load(ctx, a.Config)
		if err != nil {
			return nil, nil, false, errors.Errorf("loading config: %w", err)
		}
		zerolog.Ctx(ctx).Debug().Str("config", cfg.String()).Msg("loaded config")
		popts.Config = cfg
		async = async || cfg.Async
	} else {
		popts.Rules = rules.Bus()
		if a.Pattern {
			popts.Rules = rules.BusPattern()
		}
		popts.Files = []string{rules.DefaultTarget}
		if len(args) > 0 {
			popts.Files = args
		}
		popts.Message = rules.ConfirmationMessage
	}

	ops, err := operation.Plan(ctx, popts)
	if err != nil {
		return nil, nil, false, errors.Errorf("planning: %w", err)
	}

	return ops, mgr, async, nil
}

func generic(ops []*operation.PatchOperation) []operation.Operation {
	out := make([]operation.Operation, 0, len(ops))
	for _, op := range ops {
		out = append(out, op)
	}
	return out
}

// printDiffs prints the diff of every operation that produced one
func printDiffs(console *log.Logger, ops []*operation.PatchOperation) {
	for _, op := range ops {
		res := op.Result()
		if res == nil || res.Diff == "" {
			continue
		}

		console.Header(op.Path())
		for _, line := range strings.Split(strings.TrimRight(res.Diff, "\n"), "\n") {
			switch {
			case strings.HasPrefix(line, "+ "):
				line = pterm.FgGreen.Sprint(line)
			case strings.HasPrefix(line, "- "):
				line = pterm.FgRed.Sprint(line)
			default:
				line = pterm.FgGray.Sprint(line)
			}
			fmt.Fprintln(console, line)
		}
	}
}
