// Copyright 2025 Tom Barlow
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

// Package httpclient builds the *http.Client used to talk to the Straker
// Verify API.
//
// Clients created by New carry:
//   - TLS 1.2 minimum (TLS 1.3 preferred)
//   - Connection pooling
//   - A User-Agent header on every request
//   - An X-Request-ID header (a fresh UUID unless the caller set one)
//   - One structured log record per exchange, with sensitive query
//     parameters redacted from the URL
//
// Retries are not handled here. The operation transport retries idempotent
// requests itself so it can honour Retry-After and classify failures.
//
//	cfg := httpclient.DefaultConfig()
//	cfg.Logger = logger
//	client, err := httpclient.New(cfg)
package httpclient
