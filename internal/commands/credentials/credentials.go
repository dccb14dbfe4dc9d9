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

// Package credentials manages the strakerVerifyApi API key.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tombee/strakerverify/internal/commands/shared"
	"github.com/tombee/strakerverify/internal/node"
	sv "github.com/tombee/strakerverify/internal/node/strakerverify"
	"github.com/tombee/strakerverify/internal/secrets"
)

// NewCommand creates the credentials command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage the Straker Verify API key",
		Long: `Manage the API key used for the strakerVerifyApi credential.

The key is resolved in this order:
  1. --api-key on commands that accept it
  2. api_key in the config file
  3. STRAKER_VERIFY_API_KEY
  4. System keychain (macOS Keychain, Linux Secret Service, Windows Credential Manager)

Commands:
  set       Store the API key in the keychain
  show      Show where the API key comes from
  test      Check the API key against the API
  delete    Remove the API key from the keychain`,
	}

	cmd.AddCommand(newSetCommand())
	cmd.AddCommand(newShowCommand())
	cmd.AddCommand(newTestCommand())
	cmd.AddCommand(newDeleteCommand())

	return cmd
}

func keyName() string {
	return secrets.APIKeyName(sv.CredentialName)
}

func newSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set",
		Short: "Store the API key in the keychain",
		Long: `Store the API key in the system keychain.

The key can be provided via:
  - Interactive prompt (hidden input, default)
  - Standard input: echo "$KEY" | strakerverify credentials set`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := shared.LoadRuntime()
			if err != nil {
				return err
			}
			return runSet(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), rt.Secrets)
		},
	}
}

func runSet(ctx context.Context, in io.Reader, out io.Writer, resolver *secrets.Resolver) error {
	value, err := readKey(in, out)
	if err != nil {
		return shared.NewInvalidInputError("failed to read API key", err)
	}
	if value == "" {
		return shared.NewInvalidInputError("API key cannot be empty", nil)
	}

	if err := resolver.Set(ctx, keyName(), value); err != nil {
		if errors.Is(err, secrets.ErrBackendUnavailable) {
			return shared.NewCredentialError("keychain unavailable",
				fmt.Errorf("%w\n\nSet %s instead", err, secrets.APIKeyEnv))
		}
		return shared.NewCredentialError("failed to store API key", err)
	}

	if shared.GetJSON() {
		return shared.WriteJSON(out, response{
			JSONResponse: shared.JSONResponse{Version: "1.0", Command: "credentials set", Success: true},
			Credential:   sv.CredentialName,
		})
	}
	fmt.Fprintln(out, shared.RenderOK("API key stored in keychain"))
	return nil
}

// readKey reads a piped key, or prompts with hidden input on a terminal.
func readKey(in io.Reader, out io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(out, "Enter API key (hidden): ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

type response struct {
	shared.JSONResponse
	Credential string `json:"credential"`
	Source     string `json:"source,omitempty"`
	Key        string `json:"key,omitempty"`
	Valid      *bool  `json:"valid,omitempty"`
}

func newShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show where the API key comes from",
		Long: `Show which backend provides the API key and a masked copy of it.
The key itself is never printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := shared.LoadRuntime()
			if err != nil {
				return err
			}
			return runShow(cmd.Context(), cmd.OutOrStdout(), rt)
		},
	}
}

func runShow(ctx context.Context, out io.Writer, rt *shared.Runtime) error {
	source, key := "config", rt.Config.APIKey
	if key == "" {
		var ok bool
		if source, ok = rt.Secrets.Source(ctx, keyName()); !ok {
			return shared.NewCredentialError("no API key configured",
				fmt.Errorf("run 'strakerverify credentials set' or set %s", secrets.APIKeyEnv))
		}
		var err error
		if key, err = rt.Secrets.Get(ctx, keyName()); err != nil {
			return shared.NewCredentialError("failed to read API key", err)
		}
	}

	masked := mask(key)
	if shared.GetJSON() {
		return shared.WriteJSON(out, response{
			JSONResponse: shared.JSONResponse{Version: "1.0", Command: "credentials show", Success: true},
			Credential:   sv.CredentialName,
			Source:       source,
			Key:          masked,
		})
	}
	fmt.Fprintf(out, "%s %s\n", shared.RenderLabel("Credential:"), sv.CredentialName)
	fmt.Fprintf(out, "%s %s\n", shared.RenderLabel("Source:"), source)
	fmt.Fprintf(out, "%s %s\n", shared.RenderLabel("API key:"), masked)
	return nil
}

func mask(value string) string {
	if len(value) <= 8 {
		return "****"
	}
	return value[:4] + "..." + value[len(value)-4:]
}

type credentialTester interface {
	TestCredentials(ctx context.Context, creds *node.Credentials) error
}

func newTestCommand() *cobra.Command {
	var apiKey string
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Check the API key against the API",
		Long: `Test calls GET /languages with the resolved credentials. It exits
with code 3 when no key is configured and 4 when the API rejects it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := shared.LoadRuntime()
			if err != nil {
				return err
			}
			return runTest(cmd.Context(), cmd.OutOrStdout(), rt, apiKey)
		},
	}
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key to test instead of the stored one")
	return cmd
}

func runTest(ctx context.Context, out io.Writer, rt *shared.Runtime, apiKey string) error {
	creds, err := rt.Credentials(ctx, apiKey)
	if err != nil {
		return err
	}
	n, err := rt.NewNode()
	if err != nil {
		return shared.NewExecutionError("failed to create node", err)
	}
	tester, ok := n.(credentialTester)
	if !ok {
		return shared.NewExecutionError("node does not support credential tests", nil)
	}

	valid := true
	if err := tester.TestCredentials(ctx, creds); err != nil {
		return shared.NewAPIError("credential test failed", err)
	}

	if shared.GetJSON() {
		return shared.WriteJSON(out, response{
			JSONResponse: shared.JSONResponse{Version: "1.0", Command: "credentials test", Success: true},
			Credential:   sv.CredentialName,
			Valid:        &valid,
		})
	}
	fmt.Fprintln(out, shared.RenderOK(fmt.Sprintf("Credentials accepted by %s (%s)", creds.BaseURL, creds.Environment)))
	return nil
}

func newDeleteCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove the API key from the keychain",
		Long: `Remove the stored API key. Requires confirmation unless --force is
used or the session is non-interactive.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := shared.LoadRuntime()
			if err != nil {
				return err
			}
			if !force && !shared.IsNonInteractive() && !confirm(cmd.InOrStdin(), cmd.OutOrStdout()) {
				fmt.Fprintln(cmd.OutOrStdout(), "Deletion canceled")
				return nil
			}
			return runDelete(cmd.Context(), cmd.OutOrStdout(), rt.Secrets)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Skip confirmation prompt")
	return cmd
}

func confirm(in io.Reader, out io.Writer) bool {
	fmt.Fprint(out, "Delete the stored Straker Verify API key? [y/N]: ")
	var answer string
	_, _ = fmt.Fscanln(in, &answer)
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func runDelete(ctx context.Context, out io.Writer, resolver *secrets.Resolver) error {
	if err := resolver.Delete(ctx, keyName()); err != nil {
		if errors.Is(err, secrets.ErrSecretNotFound) {
			return shared.NewCredentialError("no stored API key", err)
		}
		return shared.NewCredentialError("failed to delete API key", err)
	}

	if shared.GetJSON() {
		return shared.WriteJSON(out, response{
			JSONResponse: shared.JSONResponse{Version: "1.0", Command: "credentials delete", Success: true},
			Credential:   sv.CredentialName,
		})
	}
	fmt.Fprintln(out, shared.RenderOK("API key deleted"))
	return nil
}
