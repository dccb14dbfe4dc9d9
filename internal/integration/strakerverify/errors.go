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

package strakerverify

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/tombee/strakerverify/internal/operation"
	"github.com/tombee/strakerverify/internal/operation/transport"
)

// Error is a failed Verify API call.
type Error struct {
	// StatusCode is zero when no response was received
	StatusCode int

	// Detail is the "detail" field of the error body, if any
	Detail string

	// Message is what users see: Detail, else a default for 401, 403, 404
	// and 429, else the operation fallback. The transport message is used
	// only when no response was received.
	Message string

	// Type classifies the failure
	Type operation.ErrorType

	RequestID string

	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ParseError converts a transport failure into an *Error. fallback is used
// for responses without a detail whose status has no default message.
func ParseError(err error, fallback string) error {
	if err == nil {
		return nil
	}

	var verr *Error
	if errors.As(err, &verr) {
		return verr
	}

	var opErr *operation.Error
	if errors.As(err, &opErr) {
		msg := opErr.Message
		if msg == "" {
			msg = fallback
		}
		return &Error{Message: msg, Type: opErr.Type, Cause: err}
	}

	result := &Error{Message: fallback, Type: operation.ErrorTypeConnection, Cause: err}

	var terr *transport.TransportError
	if errors.As(err, &terr) {
		result.StatusCode = terr.StatusCode
		result.RequestID = terr.RequestID
		result.Detail = DetailFromBody(terr.Body)
		result.Type = operation.FromTransportError(terr, "").Type

		switch {
		case result.Detail != "":
			result.Message = result.Detail
		case terr.StatusCode > 0:
			result.Message = getDefaultMessage(terr.StatusCode, fallback)
		case terr.Message != "":
			result.Message = terr.Message
		}
		return result
	}

	if msg := err.Error(); msg != "" {
		result.Message = msg
	}
	return result
}

// DetailFromBody extracts the FastAPI style "detail" from an error body.
// Validation errors carry a list of {loc, msg} objects; their messages are
// joined with "; ".
func DetailFromBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(payload.Detail, &text); err == nil {
		return text
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, item := range items {
			if item.Msg != "" {
				msgs = append(msgs, item.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}

	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload.Detail, &obj); err == nil {
		return obj.Message
	}

	return ""
}

// getDefaultMessage returns the fallback for a status without a detail.
func getDefaultMessage(statusCode int, fallback string) string {
	switch statusCode {
	case 401:
		return "Unauthorized - check your Straker Verify API key"
	case 403:
		return "Forbidden - your subscription does not allow this operation"
	case 404:
		return "Not found - the requested resource does not exist"
	case 429:
		return "Rate limit exceeded - try again later"
	default:
		if fallback != "" {
			return fallback
		}
		return "Straker Verify API request failed"
	}
}
