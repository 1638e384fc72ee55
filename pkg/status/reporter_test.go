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

package status

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func newTestReporter(t *testing.T, quiet bool) (*Reporter, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	ctx := logger.WithContext(context.Background())
	return NewReporter(ctx, quiet), &buf
}

func TestReporter_LogsStructuredEvents(t *testing.T) {
	r, buf := newTestReporter(t, true)

	r.FileWritten("assets/demo/lang/de_de.json")
	r.CacheHit("assets/demo/lang/en_us.json")
	r.Warn("entry unreadable")

	out := buf.String()
	assert.Contains(t, out, "file written")
	assert.Contains(t, out, "cache hit")
	assert.Contains(t, out, "entry unreadable")
}

func TestReporter_QuietStillLogsSummary(t *testing.T) {
	r, buf := newTestReporter(t, true)

	r.PrintSummary(Summary{
		ArchivesScanned: 2,
		FilesWritten:    5,
		Warnings:        1,
	})

	out := buf.String()
	assert.Contains(t, out, "run complete")
	assert.Contains(t, out, `"written":5`)
	assert.Contains(t, out, `"warnings":1`)
}
