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

package transport

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RetryConfig controls how failed requests are retried.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts including the first (default: 3)
	MaxAttempts int

	// InitialBackoff is the delay before the first retry (default: 500ms)
	InitialBackoff time.Duration

	// MaxBackoff caps every delay, including Retry-After (default: 30s)
	MaxBackoff time.Duration

	// BackoffFactor is the exponential backoff multiplier (default: 2.0)
	BackoffFactor float64

	// RetryableStatus lists the HTTP status codes worth retrying.
	// Default: [408, 429, 500, 502, 503, 504]
	RetryableStatus []int

	// RetryNonIdempotent allows retrying POST, PUT, PATCH and DELETE.
	// Project creation uploads files, so this stays off by default.
	RetryNonIdempotent bool
}

// DefaultRetryConfig returns the retry policy used for Verify API calls.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:     3,
		InitialBackoff:  500 * time.Millisecond,
		MaxBackoff:      30 * time.Second,
		BackoffFactor:   2.0,
		RetryableStatus: []int{408, 429, 500, 502, 503, 504},
	}
}

// Validate checks the configuration for consistency.
func (c *RetryConfig) Validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1, got %d", c.MaxAttempts)
	}
	if c.InitialBackoff < 0 {
		return fmt.Errorf("initial_backoff must be non-negative, got %v", c.InitialBackoff)
	}
	if c.MaxBackoff < c.InitialBackoff {
		return fmt.Errorf("max_backoff (%v) must be >= initial_backoff (%v)", c.MaxBackoff, c.InitialBackoff)
	}
	if c.BackoffFactor < 1.0 {
		return fmt.Errorf("backoff_factor must be >= 1.0, got %f", c.BackoffFactor)
	}
	return nil
}

// IsRetryableStatus reports whether statusCode is in RetryableStatus.
func (c *RetryConfig) IsRetryableStatus(statusCode int) bool {
	for _, code := range c.RetryableStatus {
		if code == statusCode {
			return true
		}
	}
	return false
}

// AllowsMethod reports whether requests with the given method may be retried.
func (c *RetryConfig) AllowsMethod(method string) bool {
	if c.RetryNonIdempotent {
		return true
	}
	switch strings.ToUpper(method) {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}

// ExecuteFunc performs one attempt.
type ExecuteFunc func(ctx context.Context) (*Response, error)

// Execute runs fn until it succeeds, returns a non-retryable error or the
// attempts are exhausted. The backoff sleep is interrupted by ctx.
func Execute(ctx context.Context, config *RetryConfig, fn ExecuteFunc) (*Response, error) {
	if config == nil {
		config = DefaultRetryConfig()
	}

	var lastErr error
	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		resp, err := fn(ctx)
		if err == nil {
			if resp.Metadata == nil {
				resp.Metadata = make(map[string]interface{})
			}
			resp.Metadata[MetadataRetryCount] = attempt - 1
			return resp, nil
		}
		lastErr = err

		retry, retryAfter := shouldRetry(err, config)
		if !retry || attempt == config.MaxAttempts {
			break
		}

		delay := backoff(config, attempt, retryAfter)
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, &TransportError{
				Type:    ErrorTypeCancelled,
				Message: "request cancelled during retry backoff",
				Cause:   ctx.Err(),
			}
		}
	}

	return nil, lastErr
}

func shouldRetry(err error, config *RetryConfig) (bool, time.Duration) {
	var terr *TransportError
	if !errors.As(err, &terr) || !terr.Retryable {
		return false, 0
	}

	if terr.StatusCode == 0 {
		return true, 0
	}
	if !config.IsRetryableStatus(terr.StatusCode) {
		return false, 0
	}
	if terr.StatusCode == http.StatusTooManyRequests || terr.StatusCode == http.StatusServiceUnavailable {
		return true, parseRetryAfter(terr.Metadata)
	}
	return true, 0
}

// backoff grows exponentially from InitialBackoff, honours a larger
// Retry-After, caps at MaxBackoff and adds up to 100ms of jitter.
func backoff(config *RetryConfig, attempt int, retryAfter time.Duration) time.Duration {
	delay := time.Duration(float64(config.InitialBackoff) * math.Pow(config.BackoffFactor, float64(attempt-1)))
	if retryAfter > delay {
		delay = retryAfter
	}
	if delay > config.MaxBackoff {
		delay = config.MaxBackoff
	}
	return delay + time.Duration(rand.Int63n(101))*time.Millisecond
}

func parseRetryAfter(metadata map[string]interface{}) time.Duration {
	raw, ok := metadata[MetadataRetryAfter].(string)
	if !ok || raw == "" {
		return 0
	}

	if seconds, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Duration(seconds) * time.Second
	}

	when, err := http.ParseTime(raw)
	if err != nil {
		return 0
	}
	if d := time.Until(when); d > 0 {
		return d
	}
	return 0
}
