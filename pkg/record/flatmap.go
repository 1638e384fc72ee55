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

// 🗺️ FlatMapCodec handles flat JSON localization maps (lang/<code>.json).
// Keys keep their original order; values that are not strings, or are
// empty after trimming, pass through unchanged.
type FlatMapCodec struct{}

// Extract implements Codec.Extract
func (FlatMapCodec) Extract(content []byte) ([]Unit, error) {
	root, err := DecodeNode(content)
	if err != nil {
		return nil, errors.Errorf("parsing flat map: %w", err)
	}
	if root.Kind != NodeObject {
		return nil, errors.Errorf("flat map root is not an object")
	}

	var units []Unit
	for _, m := range root.Members {
		if m.Value.Kind != NodeString {
			continue
		}
		if strings.TrimSpace(m.Value.Str) == "" {
			continue
		}
		units = append(units, Unit{Text: m.Value.Str, Loc: Locator{Key: m.Key}})
	}
	return units, nil
}

// Apply implements Codec.Apply
func (FlatMapCodec) Apply(content []byte, resolved []Unit) ([]byte, error) {
	root, err := DecodeNode(content)
	if err != nil {
		return nil, errors.Errorf("parsing flat map: %w", err)
	}
	if root.Kind != NodeObject {
		return nil, errors.Errorf("flat map root is not an object")
	}

	byKey := make(map[string]int, len(root.Members))
	for i, m := range root.Members {
		// First occurrence wins for duplicate keys
		if _, seen := byKey[m.Key]; !seen {
			byKey[m.Key] = i
		}
	}

	for _, u := range resolved {
		i, ok := byKey[u.Loc.Key]
		if !ok {
			return nil, errors.Errorf("flat map key %q not found", u.Loc.Key)
		}
		if root.Members[i].Value.Kind != NodeString {
			return nil, errors.Errorf("flat map key %q is not a string", u.Loc.Key)
		}
		root.Members[i].Value.Str = u.Text
	}

	return root.Encode(), nil
}
