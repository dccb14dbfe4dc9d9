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
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/tombee/strakerverify/internal/secrets"
)

func TestLoadRuntime(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("base_url: https://verify.test\nenvironment: sandbox\ntimeout: 5s\n"), 0o600))

	SetConfigPathForTest(path)
	t.Cleanup(func() { SetConfigPathForTest("") })
	t.Setenv(secrets.APIKeyEnv, "sv-env")
	t.Setenv("STRAKER_VERIFY_BASE_URL", "")
	t.Setenv("STRAKER_VERIFY_ENVIRONMENT", "")
	t.Setenv("STRAKER_VERIFY_TIMEOUT", "")
	t.Setenv("STRAKER_VERIFY_TRACE_EXPORTER", "")
	t.Cleanup(ShutdownTracing)
	t.Cleanup(SetResolverForTest(secrets.NewResolver(secrets.NewEnvBackend())))

	rt, err := LoadRuntime()
	require.NoError(t, err)

	settings := rt.NodeSettings()
	assert.Equal(t, rt.Config.Timeout, settings.Timeout)
	assert.Contains(t, settings.UserAgent, "strakerverify-cli/")

	creds, err := rt.Credentials(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "https://verify.test", creds.BaseURL)
	assert.Equal(t, "sandbox", creds.Environment)
	assert.Equal(t, "sv-env", creds.APIKey)

	creds, err = rt.Credentials(context.Background(), "sv-flag")
	require.NoError(t, err)
	assert.Equal(t, "sv-flag", creds.APIKey)

	n, err := rt.NewNode()
	require.NoError(t, err)
	assert.Equal(t, "strakerVerify", n.Description().Name)
}

func TestLoadRuntime_MissingConfig(t *testing.T) {
	SetConfigPathForTest(filepath.Join(t.TempDir(), "missing.yaml"))
	t.Cleanup(func() { SetConfigPathForTest("") })

	_, err := LoadRuntime()
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, ExitInvalidInput, exitErr.Code)
}

func TestFlushTelemetry_MetricsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.prom")
	globals.MetricsFile = path
	t.Cleanup(func() { globals.MetricsFile = "" })

	var buf bytes.Buffer
	FlushTelemetry(&buf)
	assert.Empty(t, buf.String())
	_, err := os.Stat(path)
	assert.NoError(t, err)

	globals.MetricsFile = filepath.Join(t.TempDir(), "missing", "dir", "metrics.prom")
	FlushTelemetry(&buf)
	assert.Contains(t, buf.String(), "failed to write metrics")
}

func TestLoadRuntime_ConsoleTracing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tracing:\n  exporter: console\n"), 0o600))

	SetConfigPathForTest(path)
	t.Cleanup(func() { SetConfigPathForTest("") })
	t.Setenv("STRAKER_VERIFY_TRACE_EXPORTER", "")
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	_, err := LoadRuntime()
	require.NoError(t, err)
	require.True(t, tracerProvider.Enabled())

	ShutdownTracing()
	assert.Nil(t, tracerProvider)
	ShutdownTracing()
}
