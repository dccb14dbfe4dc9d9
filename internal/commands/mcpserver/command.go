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

// Package mcpserver serves the Verify API operations to MCP clients.
package mcpserver

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tombee/strakerverify/internal/commands/shared"
	sv "github.com/tombee/strakerverify/internal/integration/strakerverify"
	"github.com/tombee/strakerverify/internal/log"
	"github.com/tombee/strakerverify/internal/mcp"
)

// NewCommand creates the mcp-server command.
func NewCommand() *cobra.Command {
	var apiKey string

	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Serve the Verify operations as MCP tools over stdio",
		Long: `Start an MCP (Model Context Protocol) server on stdin/stdout.

Every operation listed by 'strakerverify api --list' becomes a tool named
verify_<resource>_<operation>, with the same inputs as the api command.
Calls use the configured credentials, and the "environment" input defaults
to the configured environment. Logs go to stderr.

Configuration example for an MCP client:
  {
    "mcpServers": {
      "straker-verify": {
        "command": "strakerverify",
        "args": ["mcp-server"]
      }
    }
  }`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := shared.LoadRuntime()
			if err != nil {
				return err
			}
			return serve(ctx, rt, apiKey, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key to use instead of the stored one")
	return cmd
}

// newServer resolves credentials and builds the MCP server on top of the
// integration registry.
func newServer(ctx context.Context, rt *shared.Runtime, apiKey string) (*mcp.Server, error) {
	creds, err := rt.Credentials(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	registry, err := rt.Connectors(creds)
	if err != nil {
		return nil, err
	}

	version, _, _ := shared.GetVersion()
	srv, err := mcp.NewServer(mcp.Config{
		Version:     version,
		Catalogue:   &sv.Integration{},
		Executor:    registry,
		Environment: creds.Environment,
		Logger:      log.WithComponent(rt.Logger, "mcp"),
	})
	if err != nil {
		return nil, shared.NewExecutionError("failed to create MCP server", err)
	}
	return srv, nil
}

func serve(ctx context.Context, rt *shared.Runtime, apiKey string, in io.Reader, out io.Writer) error {
	srv, err := newServer(ctx, rt, apiKey)
	if err != nil {
		return err
	}
	if err := srv.Serve(ctx, in, out); err != nil {
		return shared.NewExecutionError("MCP server failed", err)
	}
	return nil
}
