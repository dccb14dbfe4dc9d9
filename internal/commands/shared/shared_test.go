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
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/strakerverify/internal/node"
	pkgerrors "github.com/tombee/strakerverify/pkg/errors"
)

func TestExitError(t *testing.T) {
	cause := errors.New("boom")
	err := NewAPIError("request failed", cause)

	assert.Equal(t, ExitAPIError, err.Code)
	assert.Equal(t, "request failed: boom", err.Error())
	assert.ErrorIs(t, err, cause)

	assert.Equal(t, "bad", (&ExitError{Code: ExitInvalidInput, Message: "bad"}).Error())
}

func TestReportError(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantOut  []string
	}{
		{
			name:     "plain error",
			err:      errors.New("something broke"),
			wantCode: ExitExecutionFailed,
			wantOut:  []string{"Error: something broke"},
		},
		{
			name: "credential error with suggestion",
			err: NewCredentialError("no usable credentials", &pkgerrors.CredentialError{
				Name:   "strakerVerifyApi",
				Reason: "no API key configured",
				Hint:   "run 'strakerverify credentials set'",
			}),
			wantCode: ExitCredentialError,
			wantOut:  []string{"no usable credentials", "Suggestion: run 'strakerverify credentials set'"},
		},
		{
			name:     "api error suggestion through wrapping",
			err:      fmt.Errorf("wrapped: %w", NewAPIError("call failed", &node.APIError{Message: "Unauthorized", StatusCode: 401})),
			wantCode: ExitAPIError,
			wantOut:  []string{"Suggestion: Check the API key"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			code := reportError(&buf, tt.err)
			assert.Equal(t, tt.wantCode, code)
			for _, want := range tt.wantOut {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

func TestReportJSONError(t *testing.T) {
	idx := 1
	var buf bytes.Buffer
	code := reportJSONError(&buf, NewAPIError("call failed", &node.APIError{Message: "Not found", StatusCode: 404, ItemIndex: &idx}))
	assert.Equal(t, ExitAPIError, code)

	var resp struct {
		Success bool        `json:"success"`
		Errors  []JSONError `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "api_error", resp.Errors[0].Code)
	assert.Equal(t, "api", resp.Errors[0].Type)
	assert.Contains(t, resp.Errors[0].Message, "Not found")
	require.NotNil(t, resp.Errors[0].ItemIndex)
	assert.Equal(t, 1, *resp.Errors[0].ItemIndex)

	buf.Reset()
	assert.Equal(t, ExitExecutionFailed, reportJSONError(&buf, errors.New("boom")))
	assert.Contains(t, buf.String(), "execution_failed")
}

func TestWriteJSONError(t *testing.T) {
	var buf bytes.Buffer
	idx := 2
	err := WriteJSONError(&buf, "run", []JSONError{{Code: "api_error", Message: "Not found", ItemIndex: &idx}})
	assert.NoError(t, err)
	assert.JSONEq(t, `{
		"@version": "1.0",
		"command": "run",
		"success": false,
		"errors": [{"code": "api_error", "message": "Not found", "item_index": 2}]
	}`, buf.String())
}

func TestIsNonInteractive(t *testing.T) {
	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "CIRCLECI", "JENKINS_HOME", "STRAKER_VERIFY_NON_INTERACTIVE"} {
		t.Setenv(v, "")
	}

	t.Setenv("STRAKER_VERIFY_NON_INTERACTIVE", "true")
	assert.True(t, IsNonInteractive())

	t.Setenv("STRAKER_VERIFY_NON_INTERACTIVE", "")
	t.Setenv("JENKINS_HOME", "/var/jenkins")
	assert.True(t, IsNonInteractive())
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "5s", formatElapsed(5200*1e6))
	assert.Equal(t, "2m", formatElapsed(120*1e9))
	assert.Equal(t, "1m 30s", formatElapsed(90*1e9))
}
