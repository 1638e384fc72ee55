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

// Package archive discovers input archives and scans their entries for
// text-bearing localization and documentation files.
package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/packlate/pkg/record"
)

// 📦 Record is one text-bearing entry found inside an archive. Immutable
// once reported; the coordinator owns it from then on.
type Record struct {
	SourceArchive string      // path of the archive the entry came from
	EntryPath     string      // entry path inside the archive, as stored
	Kind          record.Kind // which codec handles the content
	Namespace     string      // assets/<namespace>/...
	BookPath      string      // Tree only: <bookId>/<relativePath>
	Content       []byte      // raw entry bytes
}

// 🔍 Scanner matches archive entries against the recognized path shapes
// and extracts their raw content. It never writes anything.
type Scanner struct {
	SourceLang string // language-code segment to recognize, e.g. en_us
	BookRoot   string // documentation book root segment, e.g. patchouli_books
}

// patterns returns the recognized entry-path shapes, all lowercase
func (s *Scanner) patterns() (flatJSON, flatLocal, tree string) {
	lang := strings.ToLower(s.SourceLang)
	root := strings.ToLower(s.BookRoot)
	flatJSON = fmt.Sprintf("assets/*/lang/%s.json", lang)
	flatLocal = fmt.Sprintf("assets/*/lang/%s.local", lang)
	tree = fmt.Sprintf("assets/*/%s/*/%s/**/*.json", root, lang)
	return
}

// 🗄️ Scan opens one archive and returns every recognized record plus
// non-fatal per-entry warnings. An unreadable archive is an error; the
// caller treats it as zero records for that archive.
func (s *Scanner) Scan(ctx context.Context, archivePath string) ([]Record, []string, error) {
	logger := zerolog.Ctx(ctx)

	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, nil, errors.Errorf("opening archive %s: %w", archivePath, err)
	}
	defer zr.Close()

	flatJSON, flatLocal, tree := s.patterns()

	var records []Record
	var warnings []string
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}

		// Entry matching is case-insensitive
		entry := path.Clean(strings.ReplaceAll(f.Name, "\\", "/"))
		lower := strings.ToLower(entry)

		var kind record.Kind
		switch {
		case match(flatJSON, lower):
			kind = record.KindFlatMap
		case match(flatLocal, lower):
			kind = record.KindLineFormat
		case match(tree, lower):
			kind = record.KindTree
		default:
			continue
		}

		content, err := readEntry(f)
		if err != nil {
			w := fmt.Sprintf("%s: reading entry %s: %v", archivePath, entry, err)
			warnings = append(warnings, w)
			logger.Warn().Str("archive", archivePath).Str("entry", entry).Err(err).Msg("skipping unreadable entry")
			continue
		}

		rec := Record{
			SourceArchive: archivePath,
			EntryPath:     entry,
			Kind:          kind,
			Namespace:     strings.Split(entry, "/")[1],
			Content:       content,
		}
		if kind == record.KindTree {
			// assets/<ns>/<bookRoot>/<bookId>/<lang>/<rel> -> <bookId>/<rel>
			parts := strings.Split(entry, "/")
			rec.BookPath = parts[3] + "/" + strings.Join(parts[5:], "/")
		}
		records = append(records, rec)
	}

	logger.Debug().Str("archive", archivePath).Int("records", len(records)).Msg("scanned archive")
	return records, warnings, nil
}

func match(pattern, entry string) bool {
	ok, err := doublestar.Match(pattern, entry)
	return err == nil && ok
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// 🔎 Discover returns every .zip and .jar under root, sorted
func Discover(root string) ([]string, error) {
	matches, err := doublestar.FilepathGlob(filepath.Join(root, "**", "*.{zip,jar}"))
	if err != nil {
		return nil, errors.Errorf("globbing archives under %s: %w", root, err)
	}
	sort.Strings(matches)
	return matches, nil
}
