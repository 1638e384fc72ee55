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

// Package pipeline coordinates the run: scan archives, check the cache,
// dispatch extracted text, reconstruct files and write the output tree.
// One record's failure never corrupts or blocks another's processing.
package pipeline

import (
	"context"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/packlate/pkg/archive"
	"github.com/walteh/packlate/pkg/cache"
	"github.com/walteh/packlate/pkg/config"
	"github.com/walteh/packlate/pkg/record"
	"github.com/walteh/packlate/pkg/status"
	"github.com/walteh/packlate/pkg/translate"
)

// 🔧 Options wires the pipeline's collaborators together
type Options struct {
	Config   *config.Config
	Service  translate.Service
	Cache    *cache.Store
	Reporter *status.Reporter
}

// pendingRecord is a cache miss awaiting remote resolution. Its units
// occupy positions [offset, offset+len(units)) of the run's flat text list.
type pendingRecord struct {
	rec    archive.Record
	codec  record.Codec
	units  []record.Unit
	offset int
}

// 🏃 Run executes the full pipeline and returns the run summary. The
// returned error is fatal: an aborted remote service, an unusable input
// directory, or zero archives where at least one was expected.
func Run(ctx context.Context, opts Options) (*status.Summary, error) {
	logger := zerolog.Ctx(ctx)
	cfg := opts.Config
	summary := &status.Summary{}

	warn := func(msg string) {
		summary.Warnings++
		opts.Reporter.Warn(msg)
	}

	// 1. Discover input archives
	archives, err := archive.Discover(cfg.InputDir)
	if err != nil {
		return summary, errors.Errorf("discovering archives: %w", err)
	}
	if len(archives) == 0 {
		return summary, errors.Errorf("no archives found in %s", cfg.InputDir)
	}

	// 2. Scan them in parallel, one task per archive
	pool := &archive.Pool{
		Workers: cfg.ScanWorkers,
		Scanner: &archive.Scanner{SourceLang: cfg.SourceLang, BookRoot: cfg.BookRoot},
	}

	var records []archive.Record
	for res := range pool.Scan(ctx, archives) {
		if res.Err != nil {
			warn(res.Err.Error())
			continue
		}
		summary.ArchivesScanned++
		for _, w := range res.Warnings {
			warn(w)
		}
		records = append(records, res.Records...)
	}
	summary.RecordsFound = len(records)
	logger.Info().Int("archives", summary.ArchivesScanned).Int("records", len(records)).Msg("scan complete")

	// 3. Cache check, then text extraction for the misses
	var outputs []ReconstructedFile
	var pendings []pendingRecord
	var texts []string

	for _, rec := range records {
		id := identityFor(cfg, rec)

		if content, ok := opts.Cache.Lookup(ctx, id); ok {
			summary.CacheHits++
			summary.RecordsProcessed++
			opts.Reporter.CacheHit(rec.EntryPath)
			outputs = append(outputs, ReconstructedFile{
				OutputPath: outputPath(cfg, rec),
				Content:    content,
			})
			continue
		}

		codec, err := record.CodecFor(rec.Kind)
		if err != nil {
			warn(rec.EntryPath + ": " + err.Error())
			continue
		}
		units, err := codec.Extract(rec.Content)
		if err != nil {
			// Local-parse failure: skip this record, keep going
			warn(rec.EntryPath + ": " + err.Error())
			continue
		}

		pendings = append(pendings, pendingRecord{rec: rec, codec: codec, units: units, offset: len(texts)})
		for _, u := range units {
			texts = append(texts, u.Text)
		}
	}

	// 4. One adaptive dispatch over the whole run's text
	dispatcher := &translate.Dispatcher{
		Service:            opts.Service,
		SystemInstructions: translate.SystemInstructions(cfg.SourceLang, cfg.TargetLang),
		BatchSize:          cfg.BatchSize,
		MaxSplitDepth:      cfg.MaxSplitDepth,
		Concurrency:        cfg.TranslateConcurrency,
		Delay:              cfg.RequestDelay(),
	}

	resolution, err := dispatcher.Resolve(ctx, texts)
	if err != nil {
		// Fatal service error: abort with no cache writes for in-flight
		// records. Files from previously completed runs stay untouched.
		return summary, errors.Errorf("resolving text: %w", err)
	}
	summary.UnitsTranslated = resolution.Translated
	summary.UnitsFallback = resolution.Fallback
	for _, w := range resolution.Warnings {
		warn(w)
	}

	// 5. Reconstruct each pending record and cache the full result
	for _, p := range pendings {
		resolved := make([]record.Unit, len(p.units))
		for i, u := range p.units {
			resolved[i] = record.Unit{Text: resolution.Values[p.offset+i], Loc: u.Loc}
		}

		content, err := p.codec.Apply(p.rec.Content, resolved)
		if err != nil {
			warn(p.rec.EntryPath + ": reconstructing: " + err.Error())
			continue
		}

		// Every unit of this record is resolved by now, so the entry is
		// complete; partial results never reach the cache.
		if err := opts.Cache.Put(ctx, identityFor(cfg, p.rec), content); err != nil {
			warn(p.rec.EntryPath + ": caching: " + err.Error())
		}

		summary.RecordsProcessed++
		outputs = append(outputs, ReconstructedFile{
			OutputPath: outputPath(cfg, p.rec),
			Content:    content,
		})
	}

	// 6. Write the output tree under bounded concurrency
	written, writeWarnings := writeAll(ctx, cfg, outputs, opts.Reporter)
	summary.FilesWritten = written
	summary.Warnings += writeWarnings

	// 7. Pack descriptor, once per run
	if err := writeDescriptor(cfg); err != nil {
		warn("writing pack descriptor: " + err.Error())
	}

	return summary, nil
}

// identityFor builds the cache identity of a record. The archive component
// is the file's base name so a relocated input directory keeps its cache.
func identityFor(cfg *config.Config, rec archive.Record) cache.Identity {
	return cache.Identity{
		Archive:       baseName(rec.SourceArchive),
		EntryPath:     rec.EntryPath,
		TargetLang:    cfg.TargetLang,
		PromptVersion: cfg.PromptVersion,
	}
}
