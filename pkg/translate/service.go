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

// Package translate talks to the remote text-transformation service and
// resolves extracted text in bounded, correlation-indexed batches.
package translate

import (
	"context"

	"gitlab.com/tozd/go/errors"
)

// 📨 Request is one remote transformation call: correlation-index keys
// mapped to source text, plus the system instructions for the model
type Request struct {
	SystemInstructions string
	Payload            map[string]string
}

// 🌐 Service is the remote text-transformation call. A well-formed result
// maps the request's correlation keys to transformed text; failures are
// classified with the sentinel errors below.
type Service interface {
	Transform(ctx context.Context, req Request) (map[string]string, error)
}

var (
	// 🚫 ErrUnauthorized means the service rejected our credentials. Fatal.
	ErrUnauthorized = errors.New("service authorization failed")

	// 🧯 ErrQuotaExhausted means the hard quota or rate limit is spent. Fatal.
	ErrQuotaExhausted = errors.New("service quota exhausted")

	// 🌀 ErrOverloaded covers soft rate limiting and transient upstream
	// failures. Recoverable: affected units fall back to original text.
	ErrOverloaded = errors.New("service temporarily unavailable")

	// 🧩 ErrMalformedResponse means the response body could not be parsed
	// as the expected structure. Triggers batch bisection.
	ErrMalformedResponse = errors.New("malformed service response")
)

// ☠️ IsFatal reports whether err must abort the whole run
func IsFatal(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrQuotaExhausted)
}
