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
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/packlate/pkg/archive"
	"github.com/walteh/packlate/pkg/cache"
	"github.com/walteh/packlate/pkg/config"
	"github.com/walteh/packlate/pkg/record"
	"github.com/walteh/packlate/pkg/status"
	"github.com/walteh/packlate/pkg/translate"
)

// countingService transforms every value with a marker and counts calls
type countingService struct {
	calls atomic.Int64
	fail  error // when set, every call fails with this error
}

func (s *countingService) Transform(ctx context.Context, req translate.Request) (map[string]string, error) {
	s.calls.Add(1)
	if s.fail != nil {
		return nil, s.fail
	}
	out := make(map[string]string, len(req.Payload))
	for k, v := range req.Payload {
		out[k] = "[T] " + v
	}
	return out, nil
}

// identityService returns every value unchanged
type identityService struct{}

func (identityService) Transform(ctx context.Context, req translate.Request) (map[string]string, error) {
	out := make(map[string]string, len(req.Payload))
	for k, v := range req.Payload {
		out[k] = v
	}
	return out, nil
}

func writeArchive(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, content := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()
	cfg := &config.Config{
		InputDir:   filepath.Join(base, "in"),
		OutputDir:  filepath.Join(base, "out"),
		TargetLang: "ja_jp",
		CacheDir:   filepath.Join(base, "cache"),
	}
	require.NoError(t, os.MkdirAll(cfg.InputDir, 0o755))
	require.NoError(t, cfg.Validate())
	return cfg
}

func runOpts(cfg *config.Config, svc translate.Service) Options {
	return Options{
		Config:   cfg,
		Service:  svc,
		Cache:    cache.NewStore(cfg.CacheDir),
		Reporter: status.NewReporter(context.Background(), true),
	}
}

func seedArchive(t *testing.T, cfg *config.Config) string {
	t.Helper()
	p := filepath.Join(cfg.InputDir, "examplemod.jar")
	writeArchive(t, p, map[string]string{
		"assets/examplemod/lang/en_us.json":                        `{"item.sword": "Sword", "item.count": 3}`,
		"assets/examplemod/lang/en_us.local":                       "# header\ngreeting=Hello %s!\n",
		"assets/examplemod/patchouli_books/guide/en_us/intro.json": `{"name": "Intro", "icon": "minecraft:book"}`,
	})
	return p
}

func TestRun_EndToEnd(t *testing.T) {
	cfg := testConfig(t)
	seedArchive(t, cfg)

	svc := &countingService{}
	summary, err := Run(context.Background(), runOpts(cfg, svc))
	require.NoError(t, err)

	assert.Equal(t, 1, summary.ArchivesScanned)
	assert.Equal(t, 3, summary.RecordsFound)
	assert.Equal(t, 3, summary.RecordsProcessed)
	assert.Equal(t, 0, summary.CacheHits)
	assert.Equal(t, 3, summary.UnitsTranslated)
	assert.Equal(t, 0, summary.UnitsFallback)
	assert.Equal(t, 3, summary.FilesWritten)

	flat, err := os.ReadFile(filepath.Join(cfg.OutputDir, "assets/examplemod/lang/ja_jp.json"))
	require.NoError(t, err)
	assert.Contains(t, string(flat), `"[T] Sword"`)
	assert.Contains(t, string(flat), `"item.count": 3`)

	line, err := os.ReadFile(filepath.Join(cfg.OutputDir, "assets/examplemod/lang/ja_jp.local"))
	require.NoError(t, err)
	assert.Equal(t, "# header\ngreeting=[T] Hello %s!\n", string(line))

	book, err := os.ReadFile(filepath.Join(cfg.OutputDir, "assets/examplemod/patchouli_books/guide/ja_jp/intro.json"))
	require.NoError(t, err)
	assert.Contains(t, string(book), `"[T] Intro"`)
	assert.Contains(t, string(book), `"minecraft:book"`)

	// Pack descriptor written at the output root
	_, err = os.Stat(filepath.Join(cfg.OutputDir, "pack.mcmeta"))
	require.NoError(t, err)
}

func TestRun_IdentityTransformPreservesLineFormat(t *testing.T) {
	cfg := testConfig(t)
	writeArchive(t, filepath.Join(cfg.InputDir, "mod.zip"), map[string]string{
		"assets/mod/lang/en_us.local": "greeting=Hello %s!\n# note\n\nfarewell=Bye\n",
	})

	_, err := Run(context.Background(), runOpts(cfg, identityService{}))
	require.NoError(t, err)

	out, err := os.ReadFile(filepath.Join(cfg.OutputDir, "assets/mod/lang/ja_jp.local"))
	require.NoError(t, err)
	assert.Equal(t, "greeting=Hello %s!\n# note\n\nfarewell=Bye\n", string(out))
}

func TestRun_CacheIdempotence(t *testing.T) {
	cfg := testConfig(t)
	seedArchive(t, cfg)

	svc := &countingService{}
	first, err := Run(context.Background(), runOpts(cfg, svc))
	require.NoError(t, err)
	require.Positive(t, svc.calls.Load())
	firstFlat, err := os.ReadFile(filepath.Join(cfg.OutputDir, "assets/examplemod/lang/ja_jp.json"))
	require.NoError(t, err)

	callsAfterFirst := svc.calls.Load()
	second, err := Run(context.Background(), runOpts(cfg, svc))
	require.NoError(t, err)

	assert.Equal(t, callsAfterFirst, svc.calls.Load(), "second run makes zero remote calls")
	assert.Equal(t, first.RecordsProcessed, second.CacheHits, "every record served from cache")

	secondFlat, err := os.ReadFile(filepath.Join(cfg.OutputDir, "assets/examplemod/lang/ja_jp.json"))
	require.NoError(t, err)
	assert.Equal(t, string(firstFlat), string(secondFlat), "byte-identical output")
}

func TestRun_PromptVersionBumpInvalidatesCache(t *testing.T) {
	cfg := testConfig(t)
	seedArchive(t, cfg)

	svc := &countingService{}
	_, err := Run(context.Background(), runOpts(cfg, svc))
	require.NoError(t, err)
	callsAfterFirst := svc.calls.Load()

	cfg.PromptVersion = "v2"
	second, err := Run(context.Background(), runOpts(cfg, svc))
	require.NoError(t, err)

	assert.Greater(t, svc.calls.Load(), callsAfterFirst, "bumped version forces re-dispatch")
	assert.Zero(t, second.CacheHits)
}

func TestRun_FatalAbort(t *testing.T) {
	cfg := testConfig(t)
	seedArchive(t, cfg)

	svc := &countingService{fail: errors.Errorf("%w: bad key", translate.ErrUnauthorized)}
	_, err := Run(context.Background(), runOpts(cfg, svc))
	require.Error(t, err)
	assert.True(t, errors.Is(err, translate.ErrUnauthorized))

	// Nothing cached, nothing written for in-flight records
	entries, _ := filepath.Glob(filepath.Join(cfg.CacheDir, "*.out"))
	assert.Empty(t, entries)
	_, statErr := os.Stat(filepath.Join(cfg.OutputDir, "assets"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_NoArchivesIsError(t *testing.T) {
	cfg := testConfig(t)

	_, err := Run(context.Background(), runOpts(cfg, identityService{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no archives found")
}

func TestRun_BadRecordSkippedOthersSurvive(t *testing.T) {
	cfg := testConfig(t)
	writeArchive(t, filepath.Join(cfg.InputDir, "mod.zip"), map[string]string{
		"assets/mod/lang/en_us.json":   `{"broken": `,
		"assets/other/lang/en_us.json": `{"key": "Value"}`,
	})

	summary, err := Run(context.Background(), runOpts(cfg, &countingService{}))
	require.NoError(t, err)

	assert.Equal(t, 2, summary.RecordsFound)
	assert.Equal(t, 1, summary.RecordsProcessed)
	assert.Positive(t, summary.Warnings)

	out, err := os.ReadFile(filepath.Join(cfg.OutputDir, "assets/other/lang/ja_jp.json"))
	require.NoError(t, err)
	assert.Contains(t, string(out), `"[T] Value"`)
}

func TestOutputPath(t *testing.T) {
	cfg := &config.Config{OutputDir: "/out", TargetLang: "ja_jp"}

	tests := []struct {
		name string
		rec  archive.Record
		want string
	}{
		{
			name: "flat_json",
			rec:  archive.Record{EntryPath: "assets/mod/lang/en_us.json", Kind: record.KindFlatMap},
			want: "/out/assets/mod/lang/ja_jp.json",
		},
		{
			name: "flat_local",
			rec:  archive.Record{EntryPath: "assets/mod/lang/en_us.local", Kind: record.KindLineFormat},
			want: "/out/assets/mod/lang/ja_jp.local",
		},
		{
			name: "tree",
			rec:  archive.Record{EntryPath: "assets/mod/patchouli_books/guide/en_us/entries/tour.json", Kind: record.KindTree},
			want: "/out/assets/mod/patchouli_books/guide/ja_jp/entries/tour.json",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := outputPath(cfg, tt.rec)
			assert.Equal(t, filepath.FromSlash(tt.want), got)
		})
	}
}
