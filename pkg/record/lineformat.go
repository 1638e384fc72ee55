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

package record

import (
	"strings"

	"gitlab.com/tozd/go/errors"
)

// 📜 LineFormatCodec handles line-oriented key=value localization files
// (lang/<code>.local). Blank lines, comments and unrecognized lines are
// kept verbatim at their original positions; only values of key=value
// lines are ever rewritten. Output line endings are normalized to \n.
type LineFormatCodec struct{}

// lineClass is the classification of one line
type lineClass int

const (
	lineBlank lineClass = iota
	lineComment
	lineKeyValue
	linePassthrough
)

// splitLines accepts both \n and \r\n line endings
func splitLines(content []byte) []string {
	s := strings.ReplaceAll(string(content), "\r\n", "\n")
	return strings.Split(s, "\n")
}

// classify determines what a line is. For key=value lines it returns the
// byte offset of the separating '=' as well.
func classify(line string) (lineClass, int) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return lineBlank, -1
	}
	if strings.HasPrefix(trimmed, "#") {
		return lineComment, -1
	}
	sep := findSeparator(line)
	if sep <= 0 {
		return linePassthrough, -1
	}
	if strings.TrimSpace(line[:sep]) == "" {
		return linePassthrough, -1
	}
	return lineKeyValue, sep
}

// findSeparator returns the offset of the first unescaped '=' in line,
// or -1. An '=' at offset 0 never counts as a separator.
func findSeparator(line string) int {
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '\\':
			i++ // skip escaped character
		case '=':
			return i
		}
	}
	return -1
}

// Extract implements Codec.Extract
func (LineFormatCodec) Extract(content []byte) ([]Unit, error) {
	var units []Unit
	for i, line := range splitLines(content) {
		class, sep := classify(line)
		if class != lineKeyValue {
			continue
		}
		value := line[sep+1:]
		if strings.TrimSpace(value) == "" {
			continue
		}
		units = append(units, Unit{Text: value, Loc: Locator{Line: i + 1}})
	}
	return units, nil
}

// Apply implements Codec.Apply
func (LineFormatCodec) Apply(content []byte, resolved []Unit) ([]byte, error) {
	lines := splitLines(content)

	for _, u := range resolved {
		idx := u.Loc.Line - 1
		if idx < 0 || idx >= len(lines) {
			return nil, errors.Errorf("line %d out of range (%d lines)", u.Loc.Line, len(lines))
		}
		class, sep := classify(lines[idx])
		if class != lineKeyValue {
			return nil, errors.Errorf("line %d is not a key=value line", u.Loc.Line)
		}
		lines[idx] = lines[idx][:sep+1] + u.Text
	}

	return []byte(strings.Join(lines, "\n")), nil
}
