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
	"fmt"
	"os"
	"strings"
)

const (
	// EnvBackendPriority is the highest priority so the environment can
	// override stored keys.
	EnvBackendPriority = 100

	envSecretPrefix = "STRAKER_VERIFY_SECRET_"

	// APIKeyEnv holds the Verify API key.
	APIKeyEnv = "STRAKER_VERIFY_API_KEY"
)

// EnvBackend reads secrets from environment variables.
type EnvBackend struct{}

// NewEnvBackend creates an EnvBackend.
func NewEnvBackend() *EnvBackend {
	return &EnvBackend{}
}

func (e *EnvBackend) Name() string {
	return "env"
}

// Get checks the well-known alias for API keys, then the
// STRAKER_VERIFY_SECRET_* form.
func (e *EnvBackend) Get(ctx context.Context, key string) (string, error) {
	if alias := e.alias(key); alias != "" {
		if value := os.Getenv(alias); value != "" {
			return value, nil
		}
	}

	if value := os.Getenv(e.normalizeKey(key)); value != "" {
		return value, nil
	}

	return "", fmt.Errorf("%w: environment variable not set", ErrSecretNotFound)
}

func (e *EnvBackend) Set(ctx context.Context, key string, value string) error {
	return ErrReadOnlyBackend
}

func (e *EnvBackend) Delete(ctx context.Context, key string) error {
	return ErrReadOnlyBackend
}

func (e *EnvBackend) Available() bool {
	return true
}

func (e *EnvBackend) Priority() int {
	return EnvBackendPriority
}

func (e *EnvBackend) ReadOnly() bool {
	return true
}

func (e *EnvBackend) normalizeKey(key string) string {
	r := strings.NewReplacer("/", "_", "-", "_", ".", "_")
	return envSecretPrefix + strings.ToUpper(r.Replace(key))
}

func (e *EnvBackend) alias(key string) string {
	if strings.HasSuffix(key, "/apiKey") {
		return APIKeyEnv
	}
	return ""
}
