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
	"strconv"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/patchrc/cmd/patchrc/opts"
	"github.com/walteh/patchrc/pkg/log"
	"github.com/walteh/patchrc/pkg/operation"
	"github.com/walteh/patchrc/pkg/patch"
	"gitlab.com/tozd/go/errors"
)

// NewCheckCmd creates a new check command
func NewCheckCmd(o *opts.RootOpts) *cobra.Command {
	a := &ApplyOptions{}

	cmd := &cobra.Command{
		Use:   "check [FILE]",
		Short: "Report how often each rule matches",
		Long: `Check runs every rule without writing and prints one row per rule.
It fails unless every rule matches exactly once.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return Check(cmd.Context(), o, *a, args)
		},
	}

	cmd.Flags().StringVarP(&a.Config, "config", "c", "", "rule-set file (.yaml, .json or .hcl)")
	cmd.Flags().BoolVar(&a.Pattern, "pattern", false, "match the built-in methods up to their closing return instead of by braces")

	return cmd
}

// Check dry-runs the rules and renders the match counts as a table
func Check(ctx context.Context, o *opts.RootOpts, a ApplyOptions, args []string) error {
	ctx = zerolog.Ctx(ctx).With().Str("command", "check").Logger().WithContext(ctx)

	a.DryRun = true
	a.Strict = false
	a.Diff = false

	ops, _, _, err := plan(ctx, o, a, args)
	if err != nil {
		return err
	}

	if err := operation.NewRunner(zerolog.Ctx(ctx), false).Run(ctx, generic(ops)...); err != nil {
		return err
	}

	data := pterm.TableData{{"File", "Rule", "Matches", "Status"}}
	total, drifted := 0, 0
	for _, op := range ops {
		res := op.Result()
		if res == nil {
			continue
		}
		for _, rr := range res.Rules {
			total++
			if rr.Matches != 1 {
				drifted++
			}
			status := log.RuleOperation{Name: rr.Name, Matches: rr.Matches, Replaced: rr.Replaced}.Status()
			data = append(data, []string{op.Path(), rr.Name, strconv.Itoa(rr.Matches), status})
		}
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return errors.Errorf("rendering table: %w", err)
	}

	console := log.FromContext(ctx)
	fmt.Fprintln(console, table)

	if drifted > 0 {
		return errors.Errorf("%w: %d of %d rules", patch.ErrRuleDrift, drifted, total)
	}

	console.Successf("All %d rules match exactly once", total)
	return nil
}
