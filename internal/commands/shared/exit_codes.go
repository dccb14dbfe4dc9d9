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

package shared

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tombee/strakerverify/internal/node"
	pkgerrors "github.com/tombee/strakerverify/pkg/errors"
)

// Exit codes for the CLI
const (
	ExitSuccess         = 0
	ExitExecutionFailed = 1
	ExitInvalidInput    = 2
	ExitCredentialError = 3
	ExitAPIError        = 4
)

// ExitError is an error that carries a process exit code.
type ExitError struct {
	Code    int
	Message string
	Cause   error
}

func (e *ExitError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Cause
}

// NewExecutionError wraps a failure that has no more specific class.
func NewExecutionError(msg string, cause error) *ExitError {
	return &ExitError{Code: ExitExecutionFailed, Message: msg, Cause: cause}
}

// NewInvalidInputError reports bad flags, parameters or input files.
func NewInvalidInputError(msg string, cause error) *ExitError {
	return &ExitError{Code: ExitInvalidInput, Message: msg, Cause: cause}
}

// NewCredentialError reports a missing or unusable API key.
func NewCredentialError(msg string, cause error) *ExitError {
	return &ExitError{Code: ExitCredentialError, Message: msg, Cause: cause}
}

// NewAPIError reports a failed Straker Verify call.
func NewAPIError(msg string, cause error) *ExitError {
	return &ExitError{Code: ExitAPIError, Message: msg, Cause: cause}
}

// exitCodeNames are the error codes used in --json error responses.
var exitCodeNames = map[int]string{
	ExitExecutionFailed: "execution_failed",
	ExitInvalidInput:    "invalid_input",
	ExitCredentialError: "credential_error",
	ExitAPIError:        "api_error",
}

// HandleExitError prints err and exits with its code. With --json the error
// is written to stdout as a JSON envelope instead.
func HandleExitError(err error) {
	if err == nil {
		return
	}
	if GetJSON() {
		os.Exit(reportJSONError(os.Stdout, err))
	}
	os.Exit(reportError(os.Stderr, err))
}

// reportJSONError writes err as a failed JSON envelope and returns the exit code.
func reportJSONError(w io.Writer, err error) int {
	code := exitCode(err)

	jerr := JSONError{
		Code:       exitCodeNames[code],
		Type:       pkgerrors.Classify(err),
		Message:    err.Error(),
		Suggestion: userVisibleSuggestion(err),
	}
	var apiErr *node.APIError
	var opErr *node.OperationError
	switch {
	case errors.As(err, &apiErr):
		jerr.ItemIndex = apiErr.ItemIndex
	case errors.As(err, &opErr):
		jerr.ItemIndex = opErr.ItemIndex
	}

	_ = WriteJSONError(w, "strakerverify", []JSONError{jerr})
	return code
}

func exitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitExecutionFailed
}

// reportError writes err and its suggestion to w and returns the exit code.
func reportError(w io.Writer, err error) int {
	code := exitCode(err)

	if msg := err.Error(); msg != "" {
		fmt.Fprintln(w, RenderError("Error: "+msg))
	}
	if suggestion := userVisibleSuggestion(err); suggestion != "" {
		fmt.Fprintf(w, "\nSuggestion: %s\n", suggestion)
	}
	return code
}

// userVisibleSuggestion walks the chain to the first UserVisibleError.
func userVisibleSuggestion(err error) string {
	for err != nil {
		if userErr, ok := err.(pkgerrors.UserVisibleError); ok {
			if userErr.IsUserVisible() {
				return userErr.Suggestion()
			}
			return ""
		}
		err = errors.Unwrap(err)
	}
	return ""
}
