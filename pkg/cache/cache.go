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

// Package cache is a content-addressed store of fully reconstructed
// outputs, keyed by record identity. A hit skips extraction and remote
// dispatch for that record entirely.
package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"context"
)

// 🆔 Identity is the tuple that determines cache-entry uniqueness.
// PromptVersion is the deliberate cache-busting lever: bump it when the
// transformation instructions change.
type Identity struct {
	Archive       string
	EntryPath     string
	TargetLang    string
	PromptVersion string
}

// 🔑 Digest returns a deterministic hex digest of the identity tuple.
// Fields are length-prefixed so no two distinct tuples can collide by
// concatenation.
func (id Identity) Digest() string {
	h := sha256.New()
	for _, field := range []string{id.Archive, id.EntryPath, id.TargetLang, id.PromptVersion} {
		var n [8]byte
		binary.BigEndian.PutUint64(n[:], uint64(len(field)))
		h.Write(n[:])
		h.Write([]byte(field))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// 💾 Store keeps one file per digest in a flat directory
type Store struct {
	dir string
}

// 🏭 NewStore creates a store rooted at dir
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// entryPath returns the file path for an identity
func (s *Store) entryPath(id Identity) string {
	return filepath.Join(s.dir, id.Digest()+".out")
}

// 🔍 Lookup returns the stored content for id. Any I/O failure behaves as
// a miss and forces recomputation.
func (s *Store) Lookup(ctx context.Context, id Identity) ([]byte, bool) {
	content, err := os.ReadFile(s.entryPath(id))
	if err != nil {
		if !os.IsNotExist(err) {
			zerolog.Ctx(ctx).Warn().Err(err).Str("entry", id.EntryPath).Msg("cache read failed, treating as miss")
		}
		return nil, false
	}
	return content, true
}

// 📥 Put stores content for id. An entry is written exactly once per
// resolved record; the temp-file rename keeps concurrent readers from ever
// seeing a partial entry.
func (s *Store) Put(ctx context.Context, id Identity, content []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return errors.Errorf("creating cache dir: %w", err)
	}

	path := s.entryPath(id)
	tmp, err := os.CreateTemp(s.dir, "put-*")
	if err != nil {
		return errors.Errorf("creating temp entry: %w", err)
	}
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Errorf("writing temp entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Errorf("closing temp entry: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return errors.Errorf("publishing entry: %w", err)
	}

	return nil
}

// 🧹 Clean removes every entry and returns how many were deleted
func (s *Store) Clean(ctx context.Context) (int, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*.out"))
	if err != nil {
		return 0, errors.Errorf("listing cache entries: %w", err)
	}

	removed := 0
	for _, m := range matches {
		if err := os.Remove(m); err != nil {
			return removed, errors.Errorf("removing %s: %w", m, err)
		}
		removed++
	}
	return removed, nil
}
