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

package translate

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// 🚦 Dispatcher partitions a flat text list into bounded batches, issues
// them concurrently, and bisects any batch whose response comes back
// malformed. Every input position always ends up resolved: either with
// transformed text or with its original as a recorded fallback.
type Dispatcher struct {
	Service            Service
	SystemInstructions string
	BatchSize          int           // max units per remote call
	MaxSplitDepth      int           // bound on bisection recursion
	Concurrency        int           // max in-flight remote calls
	Delay              time.Duration // optional pause before each call
}

// 📊 Resolution is the outcome of one Resolve run. Values is positionally
// aligned with the input texts.
type Resolution struct {
	Values     []string
	Translated int
	Fallback   int
	Warnings   []string
}

// 🎯 Resolve transforms texts, preserving positions. A fatal service error
// (auth, quota) aborts: no new batches are issued once it is observed, and
// the error is returned after in-flight calls drain.
func (d *Dispatcher) Resolve(ctx context.Context, texts []string) (*Resolution, error) {
	res := &Resolution{Values: make([]string, len(texts))}
	if len(texts) == 0 {
		return res, nil
	}

	batchSize := d.BatchSize
	if batchSize <= 0 {
		batchSize = 50
	}
	concurrency := d.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		start, end := start, end
		g.Go(func() error {
			return d.resolveBatch(gctx, texts, start, end, 0, res, &mu)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, errors.Errorf("dispatching batches: %w", err)
	}
	return res, nil
}

// resolveBatch handles texts[start:end] at the given bisection depth
func (d *Dispatcher) resolveBatch(ctx context.Context, texts []string, start, end, depth int, res *Resolution, mu *sync.Mutex) error {
	logger := zerolog.Ctx(ctx)

	// A fatal error in another batch cancels the group; stop issuing calls
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if d.Delay > 0 {
		t := time.NewTimer(d.Delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}

	payload := make(map[string]string, end-start)
	for i := start; i < end; i++ {
		payload[strconv.Itoa(i-start)] = texts[i]
	}

	out, err := d.Service.Transform(ctx, Request{
		SystemInstructions: d.SystemInstructions,
		Payload:            payload,
	})

	switch {
	case err == nil:
		mu.Lock()
		defer mu.Unlock()
		for i := start; i < end; i++ {
			v, ok := out[strconv.Itoa(i-start)]
			if ok && strings.TrimSpace(v) != "" {
				res.Values[i] = v
				res.Translated++
				continue
			}
			// Missing correlation keys fail independently, per unit; they
			// never escalate into a batch retry.
			res.Values[i] = texts[i]
			res.Fallback++
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("units %d-%d: no result for index %d, keeping original", start, end-1, i-start))
		}
		return nil

	case errors.Is(err, ErrMalformedResponse):
		if end-start > 1 && depth < d.MaxSplitDepth {
			logger.Debug().Int("from", start).Int("to", end).Int("depth", depth).Msg("malformed response, bisecting batch")
			mid := start + (end-start)/2
			if err := d.resolveBatch(ctx, texts, start, mid, depth+1, res, mu); err != nil {
				return err
			}
			return d.resolveBatch(ctx, texts, mid, end, depth+1, res, mu)
		}
		d.fallBack(texts, start, end, res, mu,
			fmt.Sprintf("units %d-%d: malformed response at max split depth, keeping originals", start, end-1))
		return nil

	case IsFatal(err):
		return err

	default:
		// Soft rate limits, transient connection errors, generic failures
		d.fallBack(texts, start, end, res, mu,
			fmt.Sprintf("units %d-%d: %v, keeping originals", start, end-1, err))
		return nil
	}
}

// fallBack resolves texts[start:end] to their originals with one warning
func (d *Dispatcher) fallBack(texts []string, start, end int, res *Resolution, mu *sync.Mutex, warning string) {
	mu.Lock()
	defer mu.Unlock()
	for i := start; i < end; i++ {
		res.Values[i] = texts[i]
		res.Fallback++
	}
	res.Warnings = append(res.Warnings, warning)
}
