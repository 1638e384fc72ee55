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

// Package record extracts translatable text units from localization and
// documentation files and applies resolved text back onto copies of the
// original structure, leaving everything else untouched.
package record

import (
	"fmt"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// 🗂️ Kind identifies the shape of a text-bearing file
type Kind int

const (
	KindUnknown Kind = iota
	KindFlatMap      // flat JSON map of key -> string
	KindLineFormat   // line-oriented key=value format
	KindTree         // nested documentation-book JSON
)

// String returns a string representation of Kind
func (k Kind) String() string {
	switch k {
	case KindFlatMap:
		return "flatmap"
	case KindLineFormat:
		return "lineformat"
	case KindTree:
		return "tree"
	default:
		return "unknown"
	}
}

// 🧭 Step is one element of a tree locator path
type Step struct {
	Key     string
	Index   int
	IsIndex bool
}

// String returns a string representation of Step
func (s Step) String() string {
	if s.IsIndex {
		return fmt.Sprintf("[%d]", s.Index)
	}
	return s.Key
}

// 📍 Locator addresses one text value inside its owning record.
// Exactly one addressing scheme is populated, matching the record kind:
// Key for flat maps, Line (1-based) for the line format, Path for trees.
type Locator struct {
	Key  string
	Line int
	Path []Step
}

// String returns a string representation of Locator
func (l Locator) String() string {
	if l.Key != "" {
		return l.Key
	}
	if l.Line > 0 {
		return fmt.Sprintf("line %d", l.Line)
	}
	parts := make([]string, len(l.Path))
	for i, s := range l.Path {
		parts[i] = s.String()
	}
	return strings.Join(parts, ".")
}

// ✂️ Unit is one extracted text value plus the locator to put it back
type Unit struct {
	Text string
	Loc  Locator
}

// 🔁 Codec extracts text units from file content and applies resolved
// units back onto a fresh copy of the same content
type Codec interface {
	// Extract returns the translatable units of content, in document order.
	// Empty and whitespace-only values are never extracted.
	Extract(content []byte) ([]Unit, error)

	// Apply re-parses content, sets each resolved unit's text at its
	// locator and serializes the result. The input bytes are never mutated.
	Apply(content []byte, resolved []Unit) ([]byte, error)
}

// 🎯 CodecFor returns the codec for a record kind
func CodecFor(k Kind) (Codec, error) {
	switch k {
	case KindFlatMap:
		return FlatMapCodec{}, nil
	case KindLineFormat:
		return LineFormatCodec{}, nil
	case KindTree:
		return TreeCodec{}, nil
	default:
		return nil, errors.Errorf("no codec for record kind %q", k)
	}
}
