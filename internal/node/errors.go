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

	verr "github.com/tombee/strakerverify/pkg/errors"
)

// OperationError is a failure inside the node itself: bad parameters,
// missing binaries or a response that cannot be reshaped.
type OperationError struct {
	Message   string
	ItemIndex *int
	Cause     error
}

// NewOperationError creates an OperationError not tied to an item.
func NewOperationError(format string, args ...interface{}) *OperationError {
	return &OperationError{Message: fmt.Sprintf(format, args...)}
}

// ItemError creates an OperationError for input item i.
func ItemError(i int, format string, args ...interface{}) *OperationError {
	return &OperationError{Message: fmt.Sprintf(format, args...), ItemIndex: &i}
}

func (e *OperationError) Error() string {
	return e.Message
}

func (e *OperationError) Unwrap() error {
	return e.Cause
}

// IsUserVisible reports that the message is meant for users.
func (e *OperationError) IsUserVisible() bool { return true }

// UserMessage returns the message.
func (e *OperationError) UserMessage() string { return e.Message }

// ErrorType classifies the error for JSON output.
func (e *OperationError) ErrorType() string { return "operation" }

// IsRetryable is always false; the same parameters fail the same way.
func (e *OperationError) IsRetryable() bool { return false }

// Suggestion returns a hint when the error points at a parameter.
func (e *OperationError) Suggestion() string {
	var ve *verr.ValidationError
	if errors.As(e.Cause, &ve) {
		return ve.Suggestion
	}
	return ""
}

// APIError is a failed remote call.
type APIError struct {
	Message    string
	StatusCode int
	Detail     string
	ItemIndex  *int
	Cause      error
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Cause
}

// IsUserVisible reports that the message is meant for users.
func (e *APIError) IsUserVisible() bool { return true }

// UserMessage returns the message.
func (e *APIError) UserMessage() string { return e.Message }

// ErrorType classifies the error for JSON output.
func (e *APIError) ErrorType() string { return "api" }

// IsRetryable reports throttling and server failures.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Suggestion returns a hint derived from the status code.
func (e *APIError) Suggestion() string {
	switch {
	case e.StatusCode == http.StatusUnauthorized:
		return "Check the API key with 'strakerverify credentials test'"
	case e.StatusCode == http.StatusForbidden:
		return "Check that your Straker Verify subscription includes this feature"
	case e.StatusCode == http.StatusNotFound:
		return "Verify the ID and the selected environment"
	case e.StatusCode >= 500:
		return "Retry later"
	}
	return ""
}

// ErrorMessage returns the message to put in a {json: {error}} item.
func ErrorMessage(err error) string {
	var uv verr.UserVisibleError
	if errors.As(err, &uv) && uv.IsUserVisible() {
		return uv.UserMessage()
	}
	return err.Error()
}
