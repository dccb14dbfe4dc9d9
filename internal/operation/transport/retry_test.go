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
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultRetryConfig().Validate())
	assert.Error(t, (&RetryConfig{MaxAttempts: 0}).Validate())
	assert.Error(t, (&RetryConfig{MaxAttempts: 1, InitialBackoff: time.Second, MaxBackoff: time.Millisecond, BackoffFactor: 2}).Validate())
	assert.Error(t, (&RetryConfig{MaxAttempts: 1, BackoffFactor: 0.5}).Validate())
}

func TestRetryConfig_AllowsMethod(t *testing.T) {
	cfg := DefaultRetryConfig()
	assert.True(t, cfg.AllowsMethod(http.MethodGet))
	assert.True(t, cfg.AllowsMethod("head"))
	assert.False(t, cfg.AllowsMethod(http.MethodPost))

	cfg.RetryNonIdempotent = true
	assert.True(t, cfg.AllowsMethod(http.MethodPost))
}

func TestExecute_StopsOnNonRetryable(t *testing.T) {
	calls := 0
	_, err := Execute(context.Background(), fastRetry(), func(ctx context.Context) (*Response, error) {
		calls++
		return nil, &TransportError{Type: ErrorTypeClient, StatusCode: 404}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestExecute_ExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := Execute(context.Background(), fastRetry(), func(ctx context.Context) (*Response, error) {
		calls++
		return nil, &TransportError{Type: ErrorTypeServer, StatusCode: 500, Retryable: true}
	})

	var terr *TransportError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, 500, terr.StatusCode)
	assert.Equal(t, 3, calls)
}

func TestExecute_PlainErrorsNotRetried(t *testing.T) {
	calls := 0
	_, err := Execute(context.Background(), fastRetry(), func(ctx context.Context) (*Response, error) {
		calls++
		return nil, errors.New("boom")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestExecute_CancelledDuringBackoff(t *testing.T) {
	cfg := fastRetry()
	cfg.InitialBackoff = time.Second
	cfg.MaxBackoff = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	_, err := Execute(ctx, cfg, func(ctx context.Context) (*Response, error) {
		cancel()
		return nil, &TransportError{Type: ErrorTypeConnection, Retryable: true}
	})

	var terr *TransportError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, ErrorTypeCancelled, terr.Type)
}

func TestBackoff(t *testing.T) {
	cfg := &RetryConfig{InitialBackoff: 100 * time.Millisecond, MaxBackoff: time.Second, BackoffFactor: 2}

	d := backoff(cfg, 1, 0)
	assert.GreaterOrEqual(t, d, 100*time.Millisecond)
	assert.LessOrEqual(t, d, 200*time.Millisecond)

	d = backoff(cfg, 10, 0)
	assert.LessOrEqual(t, d, time.Second+100*time.Millisecond)

	d = backoff(cfg, 1, 500*time.Millisecond)
	assert.GreaterOrEqual(t, d, 500*time.Millisecond)
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 2*time.Second, parseRetryAfter(map[string]interface{}{MetadataRetryAfter: "2"}))
	assert.Equal(t, time.Duration(0), parseRetryAfter(map[string]interface{}{MetadataRetryAfter: "soon"}))
	assert.Equal(t, time.Duration(0), parseRetryAfter(nil))

	future := time.Now().Add(time.Hour).UTC().Format(http.TimeFormat)
	assert.Greater(t, parseRetryAfter(map[string]interface{}{MetadataRetryAfter: future}), 30*time.Minute)
}
