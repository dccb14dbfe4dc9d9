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

// Command strakerverify runs the Straker Verify node and API client from the
// command line.
package main

import (
	"github.com/spf13/cobra"

	"github.com/tombee/strakerverify/internal/cli"
	"github.com/tombee/strakerverify/internal/commands/api"
	"github.com/tombee/strakerverify/internal/commands/completion"
	"github.com/tombee/strakerverify/internal/commands/config"
	"github.com/tombee/strakerverify/internal/commands/credentials"
	"github.com/tombee/strakerverify/internal/commands/describe"
	"github.com/tombee/strakerverify/internal/commands/diagnostics"
	"github.com/tombee/strakerverify/internal/commands/mcpserver"
	"github.com/tombee/strakerverify/internal/commands/options"
	"github.com/tombee/strakerverify/internal/commands/run"
	versioncmd "github.com/tombee/strakerverify/internal/commands/version"
)

// Version information (injected via ldflags at build time)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	cli.SetVersion(version, commit, buildDate)

	rootCmd := cli.NewRootCommand()

	addGroup(rootCmd, cli.GroupNode,
		run.NewCommand(),
		options.NewCommand(),
		describe.NewCommand(),
		api.NewCommand(),
		mcpserver.NewCommand(),
	)
	addGroup(rootCmd, cli.GroupSetup,
		credentials.NewCommand(),
		config.NewConfigCommand(),
		completion.NewCommand(),
	)
	addGroup(rootCmd, cli.GroupDiagnostics,
		diagnostics.NewDoctorCommand(),
		versioncmd.NewVersionCommand(),
	)

	rootCmd.SetHelpCommand(cli.NewHelpCommand(rootCmd))

	err := rootCmd.Execute()
	cli.Shutdown()
	if err != nil {
		cli.HandleExitError(err)
	}
}

func addGroup(root *cobra.Command, group string, cmds ...*cobra.Command) {
	for _, c := range cmds {
		c.GroupID = group
		root.AddCommand(c)
	}
}
