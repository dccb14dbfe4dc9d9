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

// Package transport defines the request/response contract between the Verify
// API client and the wire, and the HTTP implementation of it.
package transport

import (
	"context"
)

// Transport sends a single API request.
type Transport interface {
	// Execute sends a request and returns a response.
	// The context controls cancellation and deadlines.
	// Returns TransportError on failure.
	Execute(ctx context.Context, req *Request) (*Response, error)

	// Name returns the transport identifier.
	Name() string

	// SetRateLimiter configures rate limiting for this transport.
	SetRateLimiter(limiter RateLimiter)
}

// Request is a transport-agnostic API request.
type Request struct {
	// Method is the HTTP method (GET, POST, PUT, DELETE, PATCH, HEAD, OPTIONS)
	Method string

	// URL is the full request URL
	URL string

	// Headers are request headers
	Headers map[string]string

	// Body is the request body. Multipart bodies carry their own
	// Content-Type header.
	Body []byte

	// Metadata carries per-request hints such as the operation name used
	// for span naming.
	Metadata map[string]interface{}
}

// Response is the raw API response.
type Response struct {
	StatusCode int
	Headers    map[string][]string
	Body       []byte

	// Metadata contains the request ID and retry count
	Metadata map[string]interface{}
}

const (
	// MetadataRequestID is the X-Request-ID echoed by the service or sent by us
	MetadataRequestID = "request_id"

	// MetadataRetryCount is the number of retries performed for this request
	MetadataRetryCount = "retry_count"

	// MetadataOperation names the API operation on a Request
	MetadataOperation = "operation"

	// MetadataRetryAfter holds the raw Retry-After header of an error response
	MetadataRetryAfter = "retry_after"
)

// RateLimiter throttles outgoing requests.
type RateLimiter interface {
	// Wait blocks until a request is allowed under the rate limit.
	// Returns an error if the context is cancelled before the request can proceed.
	Wait(ctx context.Context) error
}
