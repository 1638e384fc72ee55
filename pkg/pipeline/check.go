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

package pipeline

import (
	"context"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/packlate/pkg/archive"
)

// 🔍 CheckStatus scans the input archives and reports how many records the
// cache already covers versus how many would need a remote call. It is a
// local operation: the remote service is never contacted.
func CheckStatus(ctx context.Context, opts Options) (hits int, pending int, err error) {
	logger := zerolog.Ctx(ctx)
	cfg := opts.Config

	archives, err := archive.Discover(cfg.InputDir)
	if err != nil {
		return 0, 0, errors.Errorf("discovering archives: %w", err)
	}
	if len(archives) == 0 {
		return 0, 0, errors.Errorf("no archives found in %s", cfg.InputDir)
	}

	pool := &archive.Pool{
		Workers: cfg.ScanWorkers,
		Scanner: &archive.Scanner{SourceLang: cfg.SourceLang, BookRoot: cfg.BookRoot},
	}

	for res := range pool.Scan(ctx, archives) {
		if res.Err != nil {
			opts.Reporter.Warn(res.Err.Error())
			continue
		}
		for _, rec := range res.Records {
			if _, ok := opts.Cache.Lookup(ctx, identityFor(cfg, rec)); ok {
				hits++
			} else {
				pending++
			}
		}
	}

	logger.Debug().Int("hits", hits).Int("pending", pending).Msg("status check complete")
	return hits, pending, nil
}
