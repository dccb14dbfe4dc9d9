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
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/tombee/strakerverify/internal/config"
	"github.com/tombee/strakerverify/internal/integration"
	"github.com/tombee/strakerverify/internal/log"
	"github.com/tombee/strakerverify/internal/node"
	sv "github.com/tombee/strakerverify/internal/node/strakerverify"
	"github.com/tombee/strakerverify/internal/operation"
	opapi "github.com/tombee/strakerverify/internal/operation/api"
	"github.com/tombee/strakerverify/internal/operation/transport"
	"github.com/tombee/strakerverify/internal/secrets"
	"github.com/tombee/strakerverify/internal/tracing"
)

// newResolver builds the secret resolver commands use.
var newResolver = secrets.Default

// SetResolverForTest replaces the secret resolver and returns a restore func.
func SetResolverForTest(r *secrets.Resolver) func() {
	prev := newResolver
	newResolver = func() *secrets.Resolver { return r }
	return func() { newResolver = prev }
}

var (
	tracerMu       sync.Mutex
	tracerProvider *tracing.Provider
)

// Runtime is what a command needs to talk to Straker Verify.
type Runtime struct {
	Config  *config.Config
	Logger  *slog.Logger
	Secrets *secrets.Resolver
}

// LoadRuntime loads the config named by --config and builds the logger.
// --verbose raises the level to debug.
func LoadRuntime() (*Runtime, error) {
	cfg, err := config.Load(GetConfigPath())
	if err != nil {
		return nil, NewInvalidInputError("failed to load configuration", err)
	}

	logCfg := cfg.LoggerConfig()
	if GetVerbose() && log.ParseLevel(logCfg.Level) > slog.LevelDebug {
		logCfg.Level = "debug"
	}

	logger := log.New(logCfg)
	if err := startTracing(cfg, logger); err != nil {
		return nil, NewInvalidInputError("failed to start tracing", err)
	}

	return &Runtime{
		Config:  cfg,
		Logger:  logger,
		Secrets: newResolver(),
	}, nil
}

// startTracing installs the span exporter the first time a runtime loads.
func startTracing(cfg *config.Config, logger *slog.Logger) error {
	tracerMu.Lock()
	defer tracerMu.Unlock()
	if tracerProvider != nil {
		return nil
	}

	v, _, _ := GetVersion()
	p, err := tracing.Setup(context.Background(), cfg.TracerConfig(v))
	if err != nil {
		return err
	}
	if p.Enabled() {
		logger.Debug("tracing enabled", slog.String("exporter", cfg.Tracing.Exporter))
	}
	tracerProvider = p
	return nil
}

// FlushTelemetry flushes spans and, when --metrics-file is set, writes the
// metrics file. Failures are reported to w as warnings.
func FlushTelemetry(w io.Writer) {
	ShutdownTracing()
	if path := GetMetricsFile(); path != "" {
		if err := operation.WriteMetrics(path); err != nil {
			fmt.Fprintln(w, RenderWarn(fmt.Sprintf("failed to write metrics to %s: %v", path, err)))
		}
	}
}

// ShutdownTracing flushes spans recorded during the command. It is safe to
// call when tracing never started.
func ShutdownTracing() {
	tracerMu.Lock()
	p := tracerProvider
	tracerProvider = nil
	tracerMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = p.Shutdown(ctx)
}

// NodeSettings returns the node settings derived from the config.
func (r *Runtime) NodeSettings() node.Settings {
	v, _, _ := GetVersion()
	return node.Settings{
		Timeout:   r.Config.Timeout,
		Retry:     r.Config.TransportRetry(),
		RateLimit: r.Config.RateLimit.RequestsPerSecond,
		Burst:     r.Config.RateLimit.Burst,
		UserAgent: fmt.Sprintf("strakerverify-cli/%s", v),
		Logger:    r.Logger,
	}
}

// NewNode creates the Straker Verify node with the runtime's settings.
func (r *Runtime) NewNode() (node.Type, error) {
	return node.Get(sv.NodeName, r.NodeSettings())
}

// Credentials resolves the API credentials. apiKey, when set, overrides
// every other source.
func (r *Runtime) Credentials(ctx context.Context, apiKey string) (*node.Credentials, error) {
	explicit := node.Credentials{
		BaseURL:     r.Config.BaseURL,
		Environment: r.Config.Environment,
		APIKey:      r.Config.APIKey,
	}
	if apiKey != "" {
		explicit.APIKey = apiKey
	}

	creds, err := sv.ResolveCredentials(ctx, explicit, r.Secrets)
	if err != nil {
		return nil, NewCredentialError("no usable credentials", err)
	}
	if r.Logger != nil {
		r.Logger.Debug("resolved credentials",
			slog.String("base_url", creds.BaseURL),
			slog.String("environment", creds.Environment),
			slog.String("api_key", log.SanitizeAPIKey(creds.APIKey)),
		)
	}
	return creds, nil
}

// Connectors builds the integration registry for creds, with the
// transport configured from the runtime's settings.
func (r *Runtime) Connectors(creds *node.Credentials) (*operation.Registry, error) {
	settings := r.NodeSettings()
	tr, err := transport.NewHTTPTransport(&transport.HTTPTransportConfig{
		BaseURL:     creds.BaseURL,
		Timeout:     settings.Timeout,
		UserAgent:   settings.UserAgent,
		RetryConfig: settings.Retry,
		Logger:      log.WithComponent(r.Logger, "http"),
	})
	if err != nil {
		return nil, NewInvalidInputError("invalid transport configuration", err)
	}
	if limiter := transport.NewRateLimiter(settings.RateLimit, settings.Burst); limiter != nil {
		tr.SetRateLimiter(limiter)
	}

	registry, err := integration.NewRegistry(&opapi.ProviderConfig{
		Transport: tr,
		BaseURL:   creds.BaseURL,
		Token:     creds.APIKey,
	})
	if err != nil {
		return nil, NewExecutionError("failed to create API client", err)
	}
	return registry, nil
}
