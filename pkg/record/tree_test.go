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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bookPage = `{
  "name": "Getting Started",
  "icon": "minecraft:book",
  "category": "basics",
  "pages": [
    {
      "type": "text",
      "title": "Welcome",
      "text": "This guide explains the basics."
    },
    {
      "type": "crafting",
      "recipe": "examplemod:widget",
      "text": "Craft a widget like so."
    }
  ],
  "extra": {
    "description": "A starter entry.",
    "sortnum": 1
  }
}`

func TestTreeCodec_Extract(t *testing.T) {
	units, err := TreeCodec{}.Extract([]byte(bookPage))
	require.NoError(t, err)

	texts := make([]string, len(units))
	locs := make([]string, len(units))
	for i, u := range units {
		texts[i] = u.Text
		locs[i] = u.Loc.String()
	}

	assert.Equal(t, []string{
		"Getting Started",
		"Welcome",
		"This guide explains the basics.",
		"Craft a widget like so.",
		"A starter entry.",
	}, texts)

	assert.Equal(t, []string{
		"name",
		"pages.[0].title",
		"pages.[0].text",
		"pages.[1].text",
		"extra.description",
	}, locs)
}

func TestTreeCodec_Extract_AllowListOnly(t *testing.T) {
	// Strings outside the allow-list are never extracted regardless of type
	content := `{"icon": "minecraft:book", "recipe": "mod:thing", "id": "entry"}`
	units, err := TreeCodec{}.Extract([]byte(content))
	require.NoError(t, err)
	assert.Empty(t, units)
}

func TestTreeCodec_Apply(t *testing.T) {
	codec := TreeCodec{}
	units, err := codec.Extract([]byte(bookPage))
	require.NoError(t, err)

	for i := range units {
		units[i].Text = "[T] " + units[i].Text
	}

	out, err := codec.Apply([]byte(bookPage), units)
	require.NoError(t, err)
	s := string(out)

	assert.Contains(t, s, `"[T] Getting Started"`)
	assert.Contains(t, s, `"[T] Welcome"`)
	assert.Contains(t, s, `"[T] A starter entry."`)

	// Structural fields untouched
	assert.Contains(t, s, `"minecraft:book"`)
	assert.Contains(t, s, `"examplemod:widget"`)
	assert.Contains(t, s, `"sortnum": 1`)

	// Member order preserved: name before icon, icon before pages
	assert.Less(t, strings.Index(s, "name"), strings.Index(s, "icon"))
	assert.Less(t, strings.Index(s, "icon"), strings.Index(s, "pages"))
}

func TestTreeCodec_Apply_BadPath(t *testing.T) {
	_, err := TreeCodec{}.Apply([]byte(`{"name": "x"}`), []Unit{
		{Text: "y", Loc: Locator{Path: []Step{{Key: "pages"}, {Index: 0, IsIndex: true}}}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestTreeCodec_RoundTripIdentity(t *testing.T) {
	codec := TreeCodec{}
	units, err := codec.Extract([]byte(bookPage))
	require.NoError(t, err)

	once, err := codec.Apply([]byte(bookPage), units)
	require.NoError(t, err)

	// A second identity pass over its own output is a fixed point
	units2, err := codec.Extract(once)
	require.NoError(t, err)
	twice, err := codec.Apply(once, units2)
	require.NoError(t, err)

	assert.Equal(t, string(once), string(twice))
}
