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
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🔧 GeminiOptions configures the Gemini-backed Service
type GeminiOptions struct {
	Model     string        // default gemini-2.5-flash
	BaseURL   string        // default https://generativelanguage.googleapis.com
	APIKey    string        // inline key; falls back to APIKeyEnv
	APIKeyEnv string        // default GOOGLE_API_KEY
	Timeout   time.Duration // per-call timeout, default 60s
}

func (o *GeminiOptions) defaults() {
	if o.Model == "" {
		o.Model = "gemini-2.5-flash"
	}
	if o.BaseURL == "" {
		o.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if o.APIKeyEnv == "" {
		o.APIKeyEnv = "GOOGLE_API_KEY"
	}
	if o.Timeout <= 0 {
		o.Timeout = 60 * time.Second
	}
}

// 🤖 GeminiService implements Service against the Gemini generateContent API
type GeminiService struct {
	hc     *http.Client
	url    string
	apiKey string
}

// 🏭 NewGeminiService creates a Gemini-backed transformation service
func NewGeminiService(opts GeminiOptions) (*GeminiService, error) {
	opts.defaults()

	key := opts.APIKey
	if key == "" {
		key = os.Getenv(opts.APIKeyEnv)
	}
	if key == "" {
		return nil, errors.Errorf("missing api key (set %s)", opts.APIKeyEnv)
	}

	url := strings.TrimRight(opts.BaseURL, "/") + "/v1beta/models/" + opts.Model + ":generateContent"

	return &GeminiService{
		hc:     &http.Client{Timeout: opts.Timeout},
		url:    url,
		apiKey: key,
	}, nil
}

// Wire types, minimal fields only.
type gmPart struct {
	Text string `json:"text"`
}
type gmContent struct {
	Role  string   `json:"role,omitempty"`
	Parts []gmPart `json:"parts"`
}
type gmGenerationConfig struct {
	ResponseMIMEType string `json:"response_mime_type,omitempty"`
}
type gmRequest struct {
	SystemInstruction *gmContent         `json:"system_instruction,omitempty"`
	Contents          []gmContent        `json:"contents"`
	GenerationConfig  gmGenerationConfig `json:"generationConfig"`
}
type gmResponse struct {
	Candidates []struct {
		Content struct {
			Parts []gmPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Transform implements Service.Transform
func (s *GeminiService) Transform(ctx context.Context, req Request) (map[string]string, error) {
	logger := zerolog.Ctx(ctx)

	payload, err := json.Marshal(req.Payload)
	if err != nil {
		return nil, errors.Errorf("encoding payload: %w", err)
	}

	body, err := json.Marshal(gmRequest{
		SystemInstruction: &gmContent{Parts: []gmPart{{Text: req.SystemInstructions}}},
		Contents:          []gmContent{{Role: "user", Parts: []gmPart{{Text: string(payload)}}}},
		GenerationConfig:  gmGenerationConfig{ResponseMIMEType: "application/json"},
	})
	if err != nil {
		return nil, errors.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", s.apiKey)

	resp, err := s.hc.Do(httpReq)
	if err != nil {
		// Connection errors and client timeouts are transient
		return nil, errors.Errorf("%w: %v", ErrOverloaded, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Errorf("%w: reading response: %v", ErrOverloaded, err)
	}

	if resp.StatusCode != http.StatusOK {
		logger.Debug().Int("status", resp.StatusCode).Int("payload", len(req.Payload)).Msg("service call failed")
		return nil, classifyStatus(resp.StatusCode, raw)
	}

	var parsed gmResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, errors.Errorf("%w: decoding envelope: %v", ErrMalformedResponse, err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return nil, errors.Errorf("%w: no candidates", ErrMalformedResponse)
	}

	var text strings.Builder
	for _, p := range parsed.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}

	// Oversized replies come back truncated, which surfaces here as
	// unparseable JSON. The dispatcher reacts by bisecting the batch.
	var out map[string]string
	if err := json.Unmarshal([]byte(text.String()), &out); err != nil {
		return nil, errors.Errorf("%w: decoding result map: %v", ErrMalformedResponse, err)
	}

	return out, nil
}

// classifyStatus maps HTTP status codes onto the error taxonomy
func classifyStatus(status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > 256 {
		msg = msg[:256]
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return errors.Errorf("%w: status %d: %s", ErrUnauthorized, status, msg)
	case status == http.StatusTooManyRequests:
		return errors.Errorf("%w: status %d: %s", ErrQuotaExhausted, status, msg)
	case status == http.StatusRequestTimeout || status >= 500:
		return errors.Errorf("%w: status %d: %s", ErrOverloaded, status, msg)
	default:
		return errors.Errorf("service error: status %d: %s", status, msg)
	}
}
