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
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/walteh/packlate/pkg/archive"
	"github.com/walteh/packlate/pkg/config"
	"github.com/walteh/packlate/pkg/record"
	"github.com/walteh/packlate/pkg/status"
)

// 📄 ReconstructedFile is one finished output, written once and discarded
type ReconstructedFile struct {
	OutputPath string
	Content    []byte
}

// outputPath maps a record's entry path into the output tree, rewriting
// the source language segment or filename to the target language. Original
// path casing is preserved.
func outputPath(cfg *config.Config, rec archive.Record) string {
	parts := strings.Split(rec.EntryPath, "/")

	switch rec.Kind {
	case record.KindTree:
		// assets/<ns>/<bookRoot>/<bookId>/<lang>/<rel...>
		parts[4] = cfg.TargetLang
	default:
		// assets/<ns>/lang/<lang>.<ext>
		ext := path.Ext(parts[len(parts)-1])
		parts[len(parts)-1] = cfg.TargetLang + ext
	}

	return filepath.Join(append([]string{cfg.OutputDir}, parts...)...)
}

func baseName(p string) string {
	return filepath.Base(p)
}

// 💾 writeAll writes every reconstructed file under a bounded concurrency
// limit. Individual write failures are warnings; they never abort the run.
func writeAll(ctx context.Context, cfg *config.Config, files []ReconstructedFile, rep *status.Reporter) (int, int) {
	var mu sync.Mutex
	written := 0
	warnings := 0

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(cfg.WriteConcurrency)

	for _, f := range files {
		f := f
		g.Go(func() error {
			if err := writeFile(f.OutputPath, f.Content); err != nil {
				mu.Lock()
				warnings++
				mu.Unlock()
				rep.Warn(fmt.Sprintf("writing %s: %v", f.OutputPath, err))
				return nil
			}
			mu.Lock()
			written++
			mu.Unlock()
			rep.FileWritten(f.OutputPath)
			return nil
		})
	}

	// Workers only ever return nil; Wait is for draining
	_ = g.Wait()
	return written, warnings
}

func writeFile(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, content, 0o644)
}

// 🏷️ writeDescriptor writes the pack-level descriptor at the output root
func writeDescriptor(cfg *config.Config) error {
	content := fmt.Sprintf(`{
  "pack": {
    "pack_format": 15,
    "description": "%s localization of %s"
  }
}
`, cfg.TargetLang, baseName(cfg.InputDir))

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(cfg.OutputDir, "pack.mcmeta"), []byte(content), 0o644)
}
