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

// Package diagnostics implements the doctor command.
package diagnostics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tombee/strakerverify/internal/commands/shared"
	"github.com/tombee/strakerverify/internal/config"
	"github.com/tombee/strakerverify/internal/log"
	"github.com/tombee/strakerverify/internal/node"
	sv "github.com/tombee/strakerverify/internal/node/strakerverify"
	"github.com/tombee/strakerverify/internal/secrets"
)

// DoctorResult contains the overall health check results
type DoctorResult struct {
	shared.JSONResponse
	ConfigPath      string       `json:"config_path"`
	ConfigExists    bool         `json:"config_exists"`
	ConfigValid     bool         `json:"config_valid"`
	ConfigError     string       `json:"config_error,omitempty"`
	BaseURL         string       `json:"base_url,omitempty"`
	Environment     string       `json:"environment,omitempty"`
	Credential      CredentialOK `json:"credential"`
	API             APIHealth    `json:"api"`
	Recommendations []string     `json:"recommendations"`
	OverallHealthy  bool         `json:"overall_healthy"`
}

// CredentialOK reports where the API key was found.
type CredentialOK struct {
	Found  bool   `json:"found"`
	Source string `json:"source,omitempty"`
	Error  string `json:"error,omitempty"`
}

// APIHealth is the result of the credential test request.
type APIHealth struct {
	Checked       bool   `json:"checked"`
	Reachable     bool   `json:"reachable"`
	Authenticated bool   `json:"authenticated"`
	LatencyMs     int64  `json:"latency_ms,omitempty"`
	Error         string `json:"error,omitempty"`
}

// NewDoctorCommand creates the doctor command
func NewDoctorCommand() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, credentials and API access",
		Long: `Perform a health check of the strakerverify setup.

This command checks:
  - Config file exists and is valid
  - An API key is available
  - The API accepts the key

Provides actionable recommendations for fixing any issues found.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			result := diagnose(ctx, shared.GetConfigPath(), secrets.Default())
			if shared.GetJSON() {
				if err := shared.WriteJSON(cmd.OutOrStdout(), result); err != nil {
					return err
				}
			} else {
				writeText(cmd.OutOrStdout(), result)
			}
			if !result.OverallHealthy {
				return &shared.ExitError{Code: shared.ExitExecutionFailed, Message: "health check found issues"}
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 60*time.Second, "Overall time limit for the checks")

	return cmd
}

func diagnose(ctx context.Context, explicitPath string, resolver *secrets.Resolver) DoctorResult {
	result := DoctorResult{
		JSONResponse:    shared.JSONResponse{Version: "1.0", Command: "doctor"},
		Recommendations: []string{},
		OverallHealthy:  true,
	}
	fail := func(rec string) {
		result.OverallHealthy = false
		if rec != "" {
			result.Recommendations = append(result.Recommendations, rec)
		}
	}

	// Step 1: config file
	result.ConfigPath = explicitPath
	if result.ConfigPath == "" {
		if p, err := config.ConfigPath(); err == nil {
			result.ConfigPath = p
		}
	}
	if _, err := os.Stat(result.ConfigPath); err == nil {
		result.ConfigExists = true
	} else if !errors.Is(err, os.ErrNotExist) {
		result.ConfigError = fmt.Sprintf("Failed to check config file: %v", err)
	}

	cfg, err := config.Load(explicitPath)
	if err != nil {
		result.ConfigError = err.Error()
		fail("Fix the configuration errors shown by 'strakerverify config validate'.")
		result.Success = false
		return result
	}
	result.ConfigValid = true
	result.BaseURL = cfg.BaseURL
	result.Environment = cfg.Environment

	rt := &shared.Runtime{Config: cfg, Logger: log.Discard(), Secrets: resolver}

	// Step 2: credentials
	creds, err := rt.Credentials(ctx, "")
	if err != nil {
		result.Credential.Error = userMessage(err)
		fail("Run 'strakerverify credentials set' or set " + secrets.APIKeyEnv + ".")
		result.API.Error = "skipped: no credentials"
		return result
	}
	result.Credential.Found = true
	result.Credential.Source = "config"
	if cfg.APIKey == "" {
		result.Credential.Source, _ = resolver.Source(ctx, secrets.APIKeyName(sv.CredentialName))
	}

	// Step 3: API access
	result.API = checkAPI(ctx, rt, creds)
	switch {
	case !result.API.Reachable:
		fail(fmt.Sprintf("Check that %s is reachable from this machine.", cfg.BaseURL))
	case !result.API.Authenticated:
		fail("The API rejected the key. Store a new one with 'strakerverify credentials set'.")
	}

	result.Success = result.OverallHealthy
	return result
}

func checkAPI(ctx context.Context, rt *shared.Runtime, creds *node.Credentials) APIHealth {
	health := APIHealth{Checked: true}

	n, err := rt.NewNode()
	if err != nil {
		health.Error = err.Error()
		return health
	}
	tester, ok := n.(interface {
		TestCredentials(context.Context, *node.Credentials) error
	})
	if !ok {
		health.Error = "node does not support credential tests"
		return health
	}

	start := time.Now()
	err = tester.TestCredentials(ctx, creds)
	health.LatencyMs = time.Since(start).Milliseconds()
	if err == nil {
		health.Reachable = true
		health.Authenticated = true
		return health
	}

	health.Error = err.Error()
	var apiErr *node.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode > 0 {
		health.Reachable = true
	}
	return health
}

// userMessage returns the outermost message without the cause chain.
func userMessage(err error) string {
	var exitErr *shared.ExitError
	if errors.As(err, &exitErr) && exitErr.Cause != nil {
		return exitErr.Cause.Error()
	}
	return err.Error()
}

func writeText(out io.Writer, result DoctorResult) {
	fmt.Fprintln(out, shared.RenderHeader("Straker Verify Health Check"))
	fmt.Fprintln(out, strings.Repeat("=", 50))
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Configuration:")
	fmt.Fprintf(out, "  Path: %s\n", result.ConfigPath)
	if result.ConfigExists {
		fmt.Fprintln(out, "  Status: Found")
	} else {
		fmt.Fprintln(out, "  Status: Not found (using defaults)")
	}
	if result.ConfigValid {
		fmt.Fprintln(out, "  Valid: Yes")
		fmt.Fprintf(out, "  Base URL: %s\n", result.BaseURL)
		fmt.Fprintf(out, "  Environment: %s\n", result.Environment)
	} else {
		fmt.Fprintln(out, "  Valid: No")
		if result.ConfigError != "" {
			fmt.Fprintf(out, "  Error: %s\n", result.ConfigError)
		}
	}
	fmt.Fprintln(out)

	if result.ConfigValid {
		fmt.Fprintln(out, "Credentials:")
		fmt.Fprintf(out, "  API key: %s\n", checkMark(result.Credential.Found))
		if result.Credential.Source != "" {
			fmt.Fprintf(out, "  Source: %s\n", result.Credential.Source)
		}
		if result.Credential.Error != "" {
			fmt.Fprintf(out, "  Error: %s\n", result.Credential.Error)
		}
		fmt.Fprintln(out)

		fmt.Fprintln(out, "API:")
		fmt.Fprintf(out, "  Reachable: %s\n", checkMark(result.API.Reachable))
		fmt.Fprintf(out, "  Authenticated: %s\n", checkMark(result.API.Authenticated))
		if result.API.LatencyMs > 0 {
			fmt.Fprintf(out, "  Latency: %dms\n", result.API.LatencyMs)
		}
		if result.API.Error != "" {
			fmt.Fprintf(out, "  Error: %s\n", result.API.Error)
		}
		fmt.Fprintln(out)
	}

	if len(result.Recommendations) > 0 {
		fmt.Fprintln(out, "Recommendations:")
		for _, rec := range result.Recommendations {
			fmt.Fprintf(out, "  - %s\n", rec)
		}
		fmt.Fprintln(out)
	}

	if result.OverallHealthy {
		fmt.Fprintln(out, "Overall Status: "+shared.RenderOK("Healthy"))
	} else {
		fmt.Fprintln(out, "Overall Status: "+shared.RenderWarn("Issues Found"))
	}
}

func checkMark(ok bool) string {
	if ok {
		return "yes"
	}
	return "no"
}
