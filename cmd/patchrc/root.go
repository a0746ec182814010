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

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/patchrc/cmd/patchrc/commands"
	"github.com/walteh/patchrc/cmd/patchrc/opts"
	"github.com/walteh/patchrc/pkg/log"
	"gitlab.com/tozd/go/errors"
)

// newRootCmd creates the patchrc command tree
func newRootCmd(o *opts.RootOpts) *cobra.Command {
	apply := &commands.ApplyOptions{}

	rootCmd := &cobra.Command{
		Use:   "patchrc",
		Short: "Rewrite method bodies inside source files",
		Long: `patchrc replaces named method bodies inside source files with fixed text.

Run without arguments it rewrites updateBus and deleteBus in
server/services/databaseService.js, relative to the working directory.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(cmd, o)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.Apply(cmd.Context(), o, *apply, nil)
		},
	}

	addRootFlags(rootCmd, o)
	commands.AddApplyFlags(rootCmd, apply)

	rootCmd.AddCommand(
		commands.NewApplyCmd(o),
		commands.NewCheckCmd(o),
		newVersionCmd(),
	)

	return rootCmd
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command, o *opts.RootOpts) {
	cmd.PersistentFlags().BoolVarP(&o.Debug, "debug", "d", false, "enable debug logging")
}

// setupLogging configures zerolog and the console logger based on flags
func setupLogging(cmd *cobra.Command, o *opts.RootOpts) {
	level := zerolog.InfoLevel
	if o.Debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &zlog

	// console lines are mirrored to zerolog only when debugging
	mirror := zerolog.Disabled
	if o.Debug {
		mirror = zerolog.DebugLevel
	}

	ctx := zlog.WithContext(cmd.Context())
	// stdout carries results only; progress and warnings go to stderr
	console := log.New(cmd.OutOrStdout(), mirror).WithDetail(cmd.ErrOrStderr())
	ctx = log.NewContext(ctx, console)
	cmd.SetContext(ctx)
}

func newVersionCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := GetVersionInfo()
			if !asJSON {
				fmt.Fprint(cmd.OutOrStdout(), FormatVersion(info))
				return nil
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(info); err != nil {
				return errors.Errorf("encoding version info: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print version info as JSON")

	return cmd
}
