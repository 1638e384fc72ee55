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

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

// candidateBody wraps text in a minimal generateContent response envelope
func candidateBody(t *testing.T, text string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]string{{"text": text}}}},
		},
	})
	require.NoError(t, err)
	return body
}

func newTestService(t *testing.T, handler http.HandlerFunc) *GeminiService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := NewGeminiService(GeminiOptions{
		BaseURL: srv.URL,
		APIKey:  "test-key",
	})
	require.NoError(t, err)
	return svc
}

func TestGeminiService_Transform(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		assert.Contains(t, r.URL.Path, "gemini-2.5-flash:generateContent")

		var req gmRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotNil(t, req.SystemInstruction)
		assert.Equal(t, "application/json", req.GenerationConfig.ResponseMIMEType)

		var payload map[string]string
		require.NoError(t, json.Unmarshal([]byte(req.Contents[0].Parts[0].Text), &payload))
		out := make(map[string]string, len(payload))
		for k, v := range payload {
			out[k] = v + "!"
		}
		res, err := json.Marshal(out)
		require.NoError(t, err)
		w.Write(candidateBody(t, string(res)))
	})

	out, err := svc.Transform(context.Background(), Request{
		SystemInstructions: SystemInstructions("en_us", "ja_jp"),
		Payload:            map[string]string{"0": "Hello", "1": "World"},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"0": "Hello!", "1": "World!"}, out)
}

func TestGeminiService_Transform_ErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		sentinel error
		fatal    bool
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, sentinel: ErrUnauthorized, fatal: true},
		{name: "forbidden", status: http.StatusForbidden, sentinel: ErrUnauthorized, fatal: true},
		{name: "quota", status: http.StatusTooManyRequests, sentinel: ErrQuotaExhausted, fatal: true},
		{name: "overloaded", status: http.StatusServiceUnavailable, sentinel: ErrOverloaded},
		{name: "server_error", status: http.StatusInternalServerError, sentinel: ErrOverloaded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, tt.body, tt.status)
			})

			_, err := svc.Transform(context.Background(), Request{Payload: map[string]string{"0": "x"}})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.sentinel), "want %v, got %v", tt.sentinel, err)
			assert.Equal(t, tt.fatal, IsFatal(err))
		})
	}
}

func TestGeminiService_Transform_TruncatedBodyIsMalformed(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		// Parseable envelope, truncated inner JSON — the silent-truncation
		// quirk of oversized responses
		w.Write(candidateBody(t, `{"0": "Hel`))
	})

	_, err := svc.Transform(context.Background(), Request{Payload: map[string]string{"0": "x"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedResponse))
	assert.False(t, IsFatal(err))
}

func TestGeminiService_Transform_EmptyCandidatesIsMalformed(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates": []}`))
	})

	_, err := svc.Transform(context.Background(), Request{Payload: map[string]string{"0": "x"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedResponse))
}

func TestNewGeminiService_RequiresKey(t *testing.T) {
	t.Setenv("PACKLATE_TEST_NO_KEY", "")
	_, err := NewGeminiService(GeminiOptions{APIKeyEnv: "PACKLATE_TEST_NO_KEY"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing api key")
}
