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

package jq

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fileItem struct {
	FileName string `json:"fileName"`
	Size     int64  `json:"size"`
}

func TestExecutor_Execute(t *testing.T) {
	items := []map[string]interface{}{
		{"json": map[string]interface{}{"uuid": "a", "name": "German"}},
		{"json": map[string]interface{}{"uuid": "b", "name": "French"}},
	}

	tests := []struct {
		name       string
		expression string
		data       interface{}
		want       interface{}
		wantErr    string
	}{
		{name: "empty expression returns data", expression: "", data: "as-is", want: "as-is"},
		{name: "map over items", expression: "map(.json.uuid)", data: items, want: []interface{}{"a", "b"}},
		{name: "multiple results become a slice", expression: ".[].json.name", data: items, want: []interface{}{"German", "French"}},
		{name: "no results", expression: "empty", data: items, want: nil},
		{name: "structs are normalized", expression: ".size", data: fileItem{FileName: "a.txt", Size: 12}, want: float64(12)},
		{name: "parse error", expression: ".[", data: items, wantErr: "invalid jq expression"},
		{name: "runtime error", expression: ".json.uuid", data: items, wantErr: "expected an object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewExecutor(0, 0).Execute(context.Background(), tt.expression, tt.data)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExecutor_InputTooLarge(t *testing.T) {
	_, err := NewExecutor(time.Second, 10).Execute(context.Background(), ".", map[string]string{"content": "much more than ten bytes"})
	assert.ErrorContains(t, err, "exceeds maximum")
}

func TestExecutor_Validate(t *testing.T) {
	e := NewExecutor(0, 0)
	assert.NoError(t, e.Validate(""))
	assert.NoError(t, e.Validate(".[] | select(.json.status == \"COMPLETED\")"))
	assert.Error(t, e.Validate("map("))
}
