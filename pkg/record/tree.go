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

// 📖 treeTextFields is the allow-list of field names whose string values
// carry reader-facing text in documentation-book files. Strings under any
// other key are structural (ids, icons, entry links) and must not be touched.
var treeTextFields = map[string]bool{
	"name":         true,
	"title":        true,
	"subtitle":     true,
	"text":         true,
	"description":  true,
	"landing_text": true,
}

// 🌴 TreeCodec handles nested documentation-book JSON. Traversal descends
// into objects and arrays; string values are extracted only when their
// containing key is allow-listed.
type TreeCodec struct{}

// Extract implements Codec.Extract
func (TreeCodec) Extract(content []byte) ([]Unit, error) {
	root, err := DecodeNode(content)
	if err != nil {
		return nil, errors.Errorf("parsing tree: %w", err)
	}

	var units []Unit
	walkTree(root, nil, &units)
	return units, nil
}

func walkTree(n *Node, path []Step, units *[]Unit) {
	switch n.Kind {
	case NodeObject:
		for _, m := range n.Members {
			step := Step{Key: m.Key}
			if m.Value.Kind == NodeString {
				if treeTextFields[m.Key] && strings.TrimSpace(m.Value.Str) != "" {
					loc := make([]Step, len(path), len(path)+1)
					copy(loc, path)
					*units = append(*units, Unit{
						Text: m.Value.Str,
						Loc:  Locator{Path: append(loc, step)},
					})
				}
				continue
			}
			walkTree(m.Value, append(path, step), units)
		}
	case NodeArray:
		for i, e := range n.Elems {
			walkTree(e, append(path, Step{Index: i, IsIndex: true}), units)
		}
	}
}

// Apply implements Codec.Apply
func (TreeCodec) Apply(content []byte, resolved []Unit) ([]byte, error) {
	root, err := DecodeNode(content)
	if err != nil {
		return nil, errors.Errorf("parsing tree: %w", err)
	}

	for _, u := range resolved {
		target, err := navigate(root, u.Loc.Path)
		if err != nil {
			return nil, errors.Errorf("applying %s: %w", u.Loc, err)
		}
		if target.Kind != NodeString {
			return nil, errors.Errorf("applying %s: not a string value", u.Loc)
		}
		target.Str = u.Text
	}

	return root.Encode(), nil
}

// navigate follows a locator path to an existing node; it never creates
// structure
func navigate(n *Node, path []Step) (*Node, error) {
	cur := n
	for _, step := range path {
		if step.IsIndex {
			if cur.Kind != NodeArray || step.Index < 0 || step.Index >= len(cur.Elems) {
				return nil, errors.Errorf("index %d not found", step.Index)
			}
			cur = cur.Elems[step.Index]
			continue
		}
		if cur.Kind != NodeObject {
			return nil, errors.Errorf("key %q not found", step.Key)
		}
		var next *Node
		for i := range cur.Members {
			if cur.Members[i].Key == step.Key {
				next = cur.Members[i].Value
				break
			}
		}
		if next == nil {
			return nil, errors.Errorf("key %q not found", step.Key)
		}
		cur = next
	}
	return cur, nil
}
