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

package errors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	verrors "github.com/tombee/strakerverify/pkg/errors"
)

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *verrors.ValidationError
		want string
	}{
		{
			name: "with field",
			err:  &verrors.ValidationError{Field: "languages", Message: "at least one language is required"},
			want: "validation failed on languages: at least one language is required",
		},
		{
			name: "without field",
			err:  &verrors.ValidationError{Message: "input is empty"},
			want: "validation failed: input is empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
			assert.Equal(t, "validation", tt.err.ErrorType())
			assert.False(t, tt.err.IsRetryable())
		})
	}
}

func TestClassify(t *testing.T) {
	cred := &verrors.CredentialError{Name: "strakerVerifyApi", Reason: "missing"}
	assert.Equal(t, "credential", verrors.Classify(fmt.Errorf("resolve: %w", cred)))
	assert.Equal(t, "validation", verrors.Classify(&verrors.ValidationError{Message: "bad"}))
	assert.Empty(t, verrors.Classify(errors.New("plain")))
	assert.Empty(t, verrors.Classify(&verrors.ConfigError{Reason: "unreadable"}))
}

func TestConfigError(t *testing.T) {
	cause := errors.New("yaml: line 3")

	err := &verrors.ConfigError{Key: "timeout", Reason: "must be positive", Cause: cause}
	assert.Equal(t, "config error at timeout: must be positive", err.Error())
	assert.Same(t, cause, err.Unwrap())

	assert.Equal(t, "config error: unreadable", (&verrors.ConfigError{Reason: "unreadable"}).Error())
}

func TestCredentialError(t *testing.T) {
	cause := errors.New("keychain locked")
	err := &verrors.CredentialError{
		Name:   "strakerVerifyApi",
		Reason: "no API key found",
		Hint:   "run 'strakerverify credentials set'",
		Cause:  cause,
	}

	assert.Equal(t, "credential strakerVerifyApi: no API key found", err.Error())
	assert.True(t, errors.Is(err, cause))

	var uv verrors.UserVisibleError = err
	assert.True(t, uv.IsUserVisible())
	assert.Equal(t, err.Error(), uv.UserMessage())
	assert.Equal(t, "run 'strakerverify credentials set'", uv.Suggestion())

	var ec verrors.ErrorClassifier = err
	assert.Equal(t, "credential", ec.ErrorType())
	assert.False(t, ec.IsRetryable())
}
