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

package operation

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tombee/strakerverify/internal/operation/transport"
)

// ErrorType categorizes operation failures.
type ErrorType string

const (
	// ErrorTypeAuth means the API key was missing, invalid or lacked permission.
	ErrorTypeAuth ErrorType = "auth_error"

	// ErrorTypeNotFound means the project, file, key or workflow does not exist.
	ErrorTypeNotFound ErrorType = "not_found"

	// ErrorTypeValidation means the API rejected the inputs (400, 422).
	ErrorTypeValidation ErrorType = "validation_error"

	// ErrorTypeRateLimit means the API throttled the request.
	ErrorTypeRateLimit ErrorType = "rate_limited"

	// ErrorTypeServer means the API failed with a 5xx.
	ErrorTypeServer ErrorType = "server_error"

	// ErrorTypeTimeout means the request or poll timed out.
	ErrorTypeTimeout ErrorType = "timeout"

	// ErrorTypeConnection means the API could not be reached.
	ErrorTypeConnection ErrorType = "connection_error"

	// ErrorTypeCancelled means the caller's context ended the operation.
	ErrorTypeCancelled ErrorType = "cancelled"

	// ErrorTypePathInjection means a path parameter tried to escape its segment.
	ErrorTypePathInjection ErrorType = "path_injection"

	// ErrorTypeNotImplemented means the operation name is unknown.
	ErrorTypeNotImplemented ErrorType = "not_implemented"
)

// Error is a classified operation failure.
type Error struct {
	Type ErrorType

	Message string

	StatusCode int

	SuggestText string

	RequestID string

	Cause error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("OperationError: %s", e.Message)

	if e.Type != "" {
		msg = fmt.Sprintf("%s (type: %s)", msg, e.Type)
	}
	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s [HTTP %d]", msg, e.StatusCode)
	}
	if e.RequestID != "" {
		msg = fmt.Sprintf("%s (request-id: %s)", msg, e.RequestID)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}

	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable reports whether repeating the operation could succeed.
func (e *Error) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeRateLimit, ErrorTypeServer, ErrorTypeTimeout, ErrorTypeConnection:
		return true
	default:
		return false
	}
}

// UserMessage returns the message without the type and status decoration.
func (e *Error) UserMessage() string {
	return e.Message
}

// Suggestion returns a hint for fixing the failure, if any.
func (e *Error) Suggestion() string {
	return e.SuggestText
}

// ClassifyHTTPError maps an HTTP status code to an ErrorType.
func ClassifyHTTPError(statusCode int) ErrorType {
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return ErrorTypeAuth
	case statusCode == http.StatusNotFound:
		return ErrorTypeNotFound
	case statusCode == http.StatusTooManyRequests:
		return ErrorTypeRateLimit
	case statusCode == http.StatusRequestTimeout:
		return ErrorTypeTimeout
	case statusCode >= 500:
		return ErrorTypeServer
	default:
		return ErrorTypeValidation
	}
}

// ErrorFromHTTPStatus builds an Error for a non-2xx response.
func ErrorFromHTTPStatus(statusCode int, message, requestID string) *Error {
	errType := ClassifyHTTPError(statusCode)
	if message == "" {
		message = fmt.Sprintf("%d %s", statusCode, http.StatusText(statusCode))
	}

	err := &Error{
		Type:       errType,
		StatusCode: statusCode,
		Message:    message,
		RequestID:  requestID,
	}

	switch errType {
	case ErrorTypeAuth:
		err.SuggestText = "Check the Straker Verify API key and its permissions"
	case ErrorTypeNotFound:
		err.SuggestText = "Verify the ID exists in the selected environment"
	case ErrorTypeValidation:
		err.SuggestText = "Check the operation parameters"
	case ErrorTypeRateLimit:
		err.SuggestText = "Wait before retrying or lower rate_limit.requests_per_second"
	case ErrorTypeServer:
		err.SuggestText = "Retry later or contact Straker support"
	}

	return err
}

// FromTransportError converts a transport failure into an Error. The
// message argument overrides the transport message when non-empty.
func FromTransportError(err error, message string) *Error {
	var terr *transport.TransportError
	if !errors.As(err, &terr) {
		if message == "" {
			message = err.Error()
		}
		return &Error{Type: ErrorTypeConnection, Message: message, Cause: err}
	}

	if terr.StatusCode > 0 {
		opErr := ErrorFromHTTPStatus(terr.StatusCode, message, terr.RequestID)
		opErr.Cause = err
		return opErr
	}

	if message == "" {
		message = terr.Message
	}
	opErr := &Error{Message: message, RequestID: terr.RequestID, Cause: err}
	switch terr.Type {
	case transport.ErrorTypeTimeout:
		opErr.Type = ErrorTypeTimeout
		opErr.SuggestText = "Increase timeout or check service responsiveness"
	case transport.ErrorTypeCancelled:
		opErr.Type = ErrorTypeCancelled
	case transport.ErrorTypeInvalidReq:
		opErr.Type = ErrorTypeValidation
	default:
		opErr.Type = ErrorTypeConnection
		opErr.SuggestText = "Check network connectivity and the configured base URL"
	}
	return opErr
}

// NewPathInjectionError reports a path parameter containing traversal
// sequences or separators.
func NewPathInjectionError(param string) *Error {
	return &Error{
		Type:        ErrorTypePathInjection,
		Message:     fmt.Sprintf("path parameter %q contains invalid characters", param),
		SuggestText: "Remove path traversal sequences (../, %2e%2e) from IDs",
	}
}

// NewNotImplementedError reports an unknown operation name.
func NewNotImplementedError(connector, op string) *Error {
	return &Error{
		Type:    ErrorTypeNotImplemented,
		Message: fmt.Sprintf("operation %q not supported by %s", op, connector),
	}
}
