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

package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tombee/strakerverify/internal/commands/shared"
)

// SetVersion sets the version information (called from main)
func SetVersion(v, c, b string) {
	shared.SetVersion(v, c, b)
}

// Command group IDs shown in the root help.
const (
	GroupNode        = "node"
	GroupSetup       = "setup"
	GroupDiagnostics = "diagnostics"
)

func addGroups(cmd *cobra.Command) {
	cmd.AddGroup(
		&cobra.Group{ID: GroupNode, Title: "Node Commands:"},
		&cobra.Group{ID: GroupSetup, Title: "Setup Commands:"},
		&cobra.Group{ID: GroupDiagnostics, Title: "Diagnostics:"},
	)
}

// NewRootCommand creates the root Cobra command for strakerverify
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "strakerverify",
		Short: "strakerverify - Straker Verify translation from the command line",
		Long: `strakerverify runs the Straker Verify workflow node outside a workflow host.
It creates translation projects from local files, confirms them, downloads the
translated files and exposes the rest of the Straker Verify API.

Run 'strakerverify credentials set' to store your API key.
Run 'strakerverify describe' to see every resource, operation and parameter.`,
		SilenceUsage:  true, // Don't show usage on errors
		SilenceErrors: true, // We handle errors ourselves for proper exit codes
	}

	addGroups(cmd)

	g := shared.Globals()
	cmd.PersistentFlags().BoolVarP(&g.Verbose, "verbose", "v", false, "Enable verbose output")
	cmd.PersistentFlags().BoolVarP(&g.Quiet, "quiet", "q", false, "Suppress non-error output")
	cmd.PersistentFlags().BoolVar(&g.JSON, "json", false, "Output in JSON format")
	cmd.PersistentFlags().StringVar(&g.ConfigPath, "config", "", "Path to config file (default: ~/.config/strakerverify/config.yaml)")
	cmd.PersistentFlags().StringVar(&g.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this file on exit")

	return cmd
}

// GetVersion returns version information
func GetVersion() (string, string, string) {
	return shared.GetVersion()
}

// Shutdown flushes telemetry before the process exits.
func Shutdown() {
	shared.FlushTelemetry(os.Stderr)
}

// HandleExitError handles exit errors with proper exit codes
func HandleExitError(err error) {
	shared.HandleExitError(err)
}
