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
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/walteh/packlate/cmd/packlate/commands"
	"github.com/walteh/packlate/cmd/packlate/opts"
)

func main() {
	rootOpts := &opts.RootOpts{}

	rootCmd := &cobra.Command{
		Use:   "packlate",
		Short: "Translate localization files inside resource pack archives",
		Long: `packlate scans a directory of .zip/.jar archives for localization and
documentation-book files, translates their text through a remote service in
bounded batches, and writes structure-preserving copies to an output tree.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogging()
			built, err := newRootOpts(cmd.Context())
			if err != nil {
				return err
			}
			*rootOpts = *built
			return nil
		},
	}

	addRootFlags(rootCmd)
	rootCmd.AddCommand(
		commands.NewTranslateCmd(rootOpts),
		commands.NewStatusCmd(rootOpts),
		commands.NewCleanCmd(rootOpts),
	)

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	ctx := logger.WithContext(context.Background())

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Error().Err(err).Msg("run failed")
		os.Exit(1)
	}
}
