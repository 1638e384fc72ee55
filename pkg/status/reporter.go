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

// Package status gives user-friendly feedback about pipeline progress,
// separate from the structured zerolog stream.
package status

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
)

// 📊 Summary is the user-visible outcome of one run
type Summary struct {
	ArchivesScanned  int
	RecordsFound     int
	RecordsProcessed int
	CacheHits        int
	UnitsTranslated  int
	UnitsFallback    int
	FilesWritten     int
	Warnings         int
}

// 📢 Reporter prints per-file progress and the run summary. Quiet mode
// drops the console output but keeps debug logging.
type Reporter struct {
	log   zerolog.Logger
	quiet bool
}

// 🎯 NewReporter creates a reporter bound to the context logger
func NewReporter(ctx context.Context, quiet bool) *Reporter {
	return &Reporter{
		log:   *zerolog.Ctx(ctx),
		quiet: quiet,
	}
}

// ✨ FileWritten reports one reconstructed file landing on disk
func (r *Reporter) FileWritten(path string) {
	r.log.Debug().Str("path", path).Msg("file written")
	if r.quiet {
		return
	}
	pterm.Success.WithPrefix(pterm.Prefix{Text: "✨"}).Println("Wrote " + path)
}

// ♻️ CacheHit reports a record served entirely from the cache
func (r *Reporter) CacheHit(entry string) {
	r.log.Debug().Str("entry", entry).Msg("cache hit")
	if r.quiet {
		return
	}
	pterm.Info.WithPrefix(pterm.Prefix{Text: "♻️"}).Println("Cached " + entry)
}

// ⚠️ Warn reports a non-fatal problem
func (r *Reporter) Warn(msg string) {
	r.log.Warn().Msg(msg)
	if r.quiet {
		return
	}
	pterm.Warning.Println(msg)
}

// 🧾 PrintSummary prints the end-of-run totals
func (r *Reporter) PrintSummary(s Summary) {
	r.log.Info().
		Int("archives", s.ArchivesScanned).
		Int("records", s.RecordsProcessed).
		Int("cache_hits", s.CacheHits).
		Int("translated", s.UnitsTranslated).
		Int("fallback", s.UnitsFallback).
		Int("written", s.FilesWritten).
		Int("warnings", s.Warnings).
		Msg("run complete")

	if r.quiet {
		return
	}

	header := color.New(color.Bold, color.FgCyan)
	header.Println("── packlate run summary ──")
	fmt.Printf("  archives scanned:  %d\n", s.ArchivesScanned)
	fmt.Printf("  records found:     %d\n", s.RecordsFound)
	fmt.Printf("  records processed: %d\n", s.RecordsProcessed)
	fmt.Printf("  cache hits:        %d\n", s.CacheHits)
	fmt.Printf("  units translated:  %d\n", s.UnitsTranslated)
	fmt.Printf("  units fallen back: %d\n", s.UnitsFallback)
	fmt.Printf("  files written:     %d\n", s.FilesWritten)
	if s.Warnings > 0 {
		color.New(color.FgYellow).Printf("  warnings:          %d\n", s.Warnings)
	}
}
