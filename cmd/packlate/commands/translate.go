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
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/packlate/cmd/packlate/opts"
	"github.com/walteh/packlate/pkg/pipeline"
	"github.com/walteh/packlate/pkg/translate"
)

// NewTranslateCmd creates a new translate command
func NewTranslateCmd(opts *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Translate all archives into the output tree",
		Long: `Translate runs the full pipeline:
1. Scan every archive in the input directory
2. Serve already-translated records from the cache
3. Send the remaining text to the remote service in bounded batches
4. Reconstruct each file and write the output tree`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ctx = zerolog.Ctx(ctx).With().Str("command", "translate").Logger().WithContext(ctx)

			svcArgs := opts.Config.Service
			svc, err := translate.NewGeminiService(translate.GeminiOptions{
				Model:     svcArgs.Model,
				BaseURL:   svcArgs.BaseURL,
				APIKey:    svcArgs.APIKey,
				APIKeyEnv: svcArgs.APIKeyEnv,
				Timeout:   time.Duration(svcArgs.TimeoutSeconds) * time.Second,
			})
			if err != nil {
				return errors.Errorf("creating service: %w", err)
			}

			summary, err := pipeline.Run(ctx, pipeline.Options{
				Config:   opts.Config,
				Service:  svc,
				Cache:    opts.Cache,
				Reporter: opts.Reporter,
			})
			if summary != nil {
				opts.Reporter.PrintSummary(*summary)
			}
			if err != nil {
				return errors.Errorf("running pipeline: %w", err)
			}

			return nil
		},
	}

	return cmd
}
