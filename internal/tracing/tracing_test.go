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

package tracing

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func restoreGlobal(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
}

func TestSetup_None(t *testing.T) {
	p, err := Setup(context.Background(), Config{})
	require.NoError(t, err)
	assert.False(t, p.Enabled())
	assert.NoError(t, p.ForceFlush(context.Background()))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestSetup_UnknownExporter(t *testing.T) {
	_, err := Setup(context.Background(), Config{Exporter: "jaeger"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown trace exporter")
}

func TestSetup_ConsoleWritesSpans(t *testing.T) {
	restoreGlobal(t)

	var buf bytes.Buffer
	p, err := Setup(context.Background(), Config{
		Exporter:       ExporterConsole,
		Writer:         &buf,
		ServiceVersion: "1.2.3",
	})
	require.NoError(t, err)
	require.True(t, p.Enabled())

	_, span := otel.Tracer("test").Start(context.Background(), "verify.getProjects")
	span.End()

	require.NoError(t, p.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "verify.getProjects")
	assert.Contains(t, buf.String(), ServiceName)
}

func TestSetup_ExtraProcessor(t *testing.T) {
	restoreGlobal(t)

	recorder := tracetest.NewSpanRecorder()
	p, err := Setup(context.Background(), Config{}, sdktrace.WithSpanProcessor(recorder))
	require.NoError(t, err)
	require.True(t, p.Enabled())

	_, span := otel.Tracer("test").Start(context.Background(), "GET")
	span.End()
	require.NoError(t, p.ForceFlush(context.Background()))

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "GET", ended[0].Name())
}

func TestValidExporter(t *testing.T) {
	for _, name := range []string{"", "none", "console", "OTLP"} {
		assert.True(t, ValidExporter(name), name)
	}
	assert.False(t, ValidExporter("zipkin"))
}
