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

package errors

import stderrors "errors"

// UserVisibleError is an error the CLI prints as-is, followed by a
// suggestion when one is available. node.APIError, node.OperationError and
// CredentialError implement it.
type UserVisibleError interface {
	error

	// IsUserVisible is false for errors whose text is only useful in logs.
	IsUserVisible() bool

	// UserMessage is the message without wrapping context.
	UserMessage() string

	// Suggestion tells the user what to try next. Empty means none.
	Suggestion() string
}

// ErrorClassifier is implemented by errors that carry a stable category,
// reported as "type" in JSON error output.
type ErrorClassifier interface {
	error

	// ErrorType is a short category such as "validation", "credential" or "api".
	ErrorType() string

	// IsRetryable reports whether repeating the same call may succeed.
	IsRetryable() bool
}

// Classify returns the category of the first ErrorClassifier in err's
// chain, or "" when there is none.
func Classify(err error) string {
	var ec ErrorClassifier
	if stderrors.As(err, &ec) {
		return ec.ErrorType()
	}
	return ""
}
