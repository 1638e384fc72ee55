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
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/packlate/cmd/packlate/opts"
	"github.com/walteh/packlate/pkg/pipeline"
)

// NewStatusCmd creates a new status command
func NewStatusCmd(opts *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check which records still need translation",
		Long: `Status scans the input archives and reports how many records are
already covered by the cache, without making any remote calls.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ctx = zerolog.Ctx(ctx).With().Str("command", "status").Logger().WithContext(ctx)

			hits, pending, err := pipeline.CheckStatus(ctx, pipeline.Options{
				Config:   opts.Config,
				Cache:    opts.Cache,
				Reporter: opts.Reporter,
			})
			if err != nil {
				return errors.Errorf("checking status: %w", err)
			}

			logger := zerolog.Ctx(ctx)
			if pending == 0 {
				logger.Info().Int("cached", hits).Msg("everything is translated")
			} else {
				logger.Info().Int("cached", hits).Int("pending", pending).Msg("records need translation")
			}

			return nil
		},
	}

	return cmd
}
