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

package archive

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// 📬 Result is one archive's scan outcome, delivered to the coordinator
// over a one-way channel. Err is set when the archive itself could not be
// opened; that archive simply contributes zero records.
type Result struct {
	ArchivePath string
	Records     []Record
	Warnings    []string
	Err         error
}

// 👷 Pool scans archives with a bounded set of workers, one task per
// archive. Workers share no mutable state; everything flows back through
// the result channel, which is closed once all tasks are done.
type Pool struct {
	Workers int
	Scanner *Scanner
}

// 🚀 Scan dispatches one scan task per archive and returns the result
// channel. Cancelling ctx stops workers from picking up further tasks.
func (p *Pool) Scan(ctx context.Context, archives []string) <-chan Result {
	workers := p.Workers
	if workers <= 0 {
		workers = 1
	}

	tasks := make(chan string)
	results := make(chan Result, len(archives))

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for archivePath := range tasks {
				records, warnings, err := p.Scanner.Scan(gctx, archivePath)
				select {
				case results <- Result{ArchivePath: archivePath, Records: records, Warnings: warnings, Err: err}:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	go func() {
		defer close(tasks)
		for _, a := range archives {
			select {
			case tasks <- a:
			case <-gctx.Done():
				return
			}
		}
	}()

	go func() {
		// Scan errors travel inside Results; Wait only observes cancellation
		_ = g.Wait()
		close(results)
	}()

	return results
}
