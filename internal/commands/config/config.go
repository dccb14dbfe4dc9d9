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

// Package config implements the config command.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tombee/strakerverify/internal/commands/shared"
	"github.com/tombee/strakerverify/internal/config"
)

// NewConfigCommand creates the config command with subcommands.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and validate configuration",
		Long: `View and validate strakerverify configuration.

Subcommands:
  show      - Display the effective configuration
  path      - Show config file location
  validate  - Check the configuration file`,
	}

	show := newConfigShowCommand()
	cmd.AddCommand(show)
	cmd.AddCommand(newConfigPathCommand())
	cmd.AddCommand(NewValidateCommand())

	// no subcommand means show
	cmd.RunE = show.RunE

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display the effective configuration",
		Long: `Display the configuration after the file, defaults and environment
overrides are applied. The API key is masked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(shared.GetConfigPath())
			if err != nil {
				return shared.NewInvalidInputError("failed to load config", err)
			}
			return show(cmd.OutOrStdout(), configPath(), cfg)
		},
	}
}

func newConfigPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath()
			if path == "" {
				return shared.NewExecutionError("failed to determine config path", nil)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

// configPath is --config, else the default location.
func configPath() string {
	if p := shared.GetConfigPath(); p != "" {
		return p
	}
	p, err := config.ConfigPath()
	if err != nil {
		return ""
	}
	return p
}

func show(out io.Writer, path string, cfg *config.Config) error {
	masked := *cfg
	masked.APIKey = maskAPIKey(cfg.APIKey)

	if shared.GetJSON() {
		// yaml first so durations and field names match the file
		data, err := yaml.Marshal(&masked)
		if err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		var fields map[string]interface{}
		if err := yaml.Unmarshal(data, &fields); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		return shared.WriteJSON(out, fields)
	}

	fmt.Fprintf(out, "Configuration: %s\n", path)
	fmt.Fprintln(out, strings.Repeat("=", 50))
	fmt.Fprintln(out)

	encoder := yaml.NewEncoder(out)
	encoder.SetIndent(2)
	if err := encoder.Encode(&masked); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return encoder.Close()
}

func maskAPIKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}

// ValidationResult represents the result of config validation.
type ValidationResult struct {
	shared.JSONResponse
	Path     string   `json:"path"`
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// NewValidateCommand creates the 'config validate' subcommand.
func NewValidateCommand() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		Long: `Validate the configuration file and environment overrides.

Checks performed:
  - YAML syntax and structure
  - base_url is an http(s) URL
  - environment is production or sandbox
  - timeout, retry and log settings are in range

Warnings are reported for settings that work but are discouraged. With
--strict, warnings are treated as errors.`,
		Example: `  strakerverify config validate
  strakerverify config validate --strict --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return validate(cmd.OutOrStdout(), configPath(), strict)
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Treat warnings as errors")

	return cmd
}

func validate(out io.Writer, path string, strict bool) error {
	result := ValidationResult{
		JSONResponse: shared.JSONResponse{Version: "1.0", Command: "config validate"},
		Path:         path,
		Valid:        true,
	}

	explicit := shared.GetConfigPath()
	if explicit == "" {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			result.Warnings = append(result.Warnings, "no configuration file; using defaults")
		}
	}

	cfg, err := config.Load(explicit)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, flatten(err))
	} else {
		result.Warnings = append(result.Warnings, warnings(cfg)...)
	}

	if strict && len(result.Warnings) > 0 {
		result.Valid = false
	}
	result.Success = result.Valid

	if shared.GetJSON() {
		if err := shared.WriteJSON(out, result); err != nil {
			return err
		}
	} else {
		for _, e := range result.Errors {
			fmt.Fprintln(out, shared.RenderError("error: "+e))
		}
		for _, w := range result.Warnings {
			fmt.Fprintln(out, shared.RenderWarn("warning: "+w))
		}
		if result.Valid {
			fmt.Fprintln(out, shared.RenderOK("Configuration is valid"))
		}
	}

	if !result.Valid {
		return &shared.ExitError{Code: shared.ExitInvalidInput, Message: "configuration is invalid"}
	}
	return nil
}

func warnings(cfg *config.Config) []string {
	var out []string
	if cfg.APIKey != "" {
		out = append(out, "api_key is stored in plain text; use 'strakerverify credentials set' instead")
	}
	if strings.HasPrefix(cfg.BaseURL, "http://") {
		out = append(out, "base_url uses plain http")
	}
	if cfg.Retry.MaxAttempts == 1 {
		out = append(out, "retry.max_attempts is 1; failed requests are never retried")
	}
	return out
}

// flatten joins an error chain into one line.
func flatten(err error) string {
	return strings.ReplaceAll(err.Error(), "\n", " ")
}
