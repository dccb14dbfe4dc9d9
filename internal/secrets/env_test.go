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

package secrets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvBackend_Get(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		env     map[string]string
		want    string
		wantErr bool
	}{
		{
			name: "api key alias",
			key:  "strakerVerifyApi/apiKey",
			env:  map[string]string{APIKeyEnv: "sv-alias"},
			want: "sv-alias",
		},
		{
			name: "alias wins over prefixed form",
			key:  "strakerVerifyApi/apiKey",
			env: map[string]string{
				APIKeyEnv: "sv-alias",
				"STRAKER_VERIFY_SECRET_STRAKERVERIFYAPI_APIKEY": "sv-prefixed",
			},
			want: "sv-alias",
		},
		{
			name: "prefixed form",
			key:  "webhook-secret",
			env:  map[string]string{"STRAKER_VERIFY_SECRET_WEBHOOK_SECRET": "shh"},
			want: "shh",
		},
		{
			name:    "not set",
			key:     "strakerVerifyApi/apiKey",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(APIKeyEnv, "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			got, err := NewEnvBackend().Get(context.Background(), tt.key)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrSecretNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEnvBackend_ReadOnly(t *testing.T) {
	b := NewEnvBackend()
	ctx := context.Background()

	assert.ErrorIs(t, b.Set(ctx, "k", "v"), ErrReadOnlyBackend)
	assert.ErrorIs(t, b.Delete(ctx, "k"), ErrReadOnlyBackend)
	assert.True(t, b.ReadOnly())
	assert.True(t, b.Available())
	assert.Equal(t, "env", b.Name())
	assert.Equal(t, EnvBackendPriority, b.Priority())
}

func TestAPIKeyName(t *testing.T) {
	assert.Equal(t, "strakerVerifyApi/apiKey", APIKeyName("strakerVerifyApi"))
}
