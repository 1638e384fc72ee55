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

package translate

import "fmt"

// 🏷️ DefaultPromptVersion is mixed into every cache identity. Bump it when
// the instruction text below changes in a way that should invalidate
// previously cached results; incidental wording tweaks should not.
const DefaultPromptVersion = "v1"

// 🧾 SystemInstructions builds the fixed instruction text for one run.
// The payload keys are opaque correlation indices; the model must return a
// JSON object with exactly the same keys.
func SystemInstructions(sourceLang, targetLang string) string {
	return fmt.Sprintf(`You are translating in-game text for a game resource pack from %s to %s.

You will receive a JSON object whose keys are opaque numeric indices and whose values are source strings.
Reply with a single JSON object containing exactly the same keys, each value being the translation of the corresponding input.

Rules:
- Preserve all format placeholders exactly: %%s, %%d, %%1$s and similar.
- Preserve formatting codes (sequences starting with the section sign) exactly.
- Preserve inline markup such as $(...) directives and <tags> exactly, translating only the human-readable words.
- Do not translate proper nouns, item ids or anything that looks like an identifier.
- Do not add commentary. Reply with the JSON object only.`, sourceLang, targetLang)
}
