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

package node

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	verr "github.com/tombee/strakerverify/pkg/errors"
)

func TestItemError(t *testing.T) {
	err := ItemError(2, "No binary data found in property %q.", "data")
	assert.Equal(t, `No binary data found in property "data".`, err.Error())
	require.NotNil(t, err.ItemIndex)
	assert.Equal(t, 2, *err.ItemIndex)
	assert.Nil(t, NewOperationError("x").ItemIndex)
}

func TestOperationError_Suggestion(t *testing.T) {
	err := &OperationError{Message: "bad", Cause: &verr.ValidationError{Suggestion: "set it"}}
	assert.Equal(t, "set it", err.Suggestion())
	assert.Equal(t, "", NewOperationError("x").Suggestion())
}

func TestAPIError_Suggestion(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{http.StatusUnauthorized, "credentials test"},
		{http.StatusForbidden, "subscription"},
		{http.StatusNotFound, "environment"},
		{http.StatusBadGateway, "Retry later"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			assert.Contains(t, (&APIError{StatusCode: tt.status}).Suggestion(), tt.want)
		})
	}
	assert.Empty(t, (&APIError{StatusCode: http.StatusBadRequest}).Suggestion())
}

func TestErrorClassification(t *testing.T) {
	assert.Equal(t, "operation", verr.Classify(NewOperationError("x")))
	assert.Equal(t, "api", verr.Classify(fmt.Errorf("wrap: %w", &APIError{Message: "x"})))

	assert.False(t, NewOperationError("x").IsRetryable())
	assert.True(t, (&APIError{StatusCode: http.StatusTooManyRequests}).IsRetryable())
	assert.True(t, (&APIError{StatusCode: http.StatusBadGateway}).IsRetryable())
	assert.False(t, (&APIError{StatusCode: http.StatusNotFound}).IsRetryable())
}

func TestErrorMessage(t *testing.T) {
	apiErr := &APIError{Message: "Invalid API key or unauthorized access."}
	assert.Equal(t, apiErr.Message, ErrorMessage(fmt.Errorf("wrapped: %w", apiErr)))
	assert.Equal(t, "plain", ErrorMessage(errors.New("plain")))
}
