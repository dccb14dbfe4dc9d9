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

/*
Package cli provides the root command and global flags of the strakerverify
CLI. Individual commands live in the internal/commands subpackages.

# Command Tree

	strakerverify
	├── run           Execute the node against input items
	├── options       Run a load-options method
	├── describe      Print the node description
	├── api           Call one API client operation
	├── credentials   Manage and test the API key
	├── config        Show and validate configuration
	├── doctor        Check configuration, credentials and API access
	├── completion    Generate shell completion scripts
	├── version       Show version
	└── help          Show help

# Usage

From main.go:

	cli.SetVersion(version, commit, date)
	rootCmd := cli.NewRootCommand()
	// ... add commands ...
	if err := rootCmd.Execute(); err != nil {
	    cli.HandleExitError(err)
	}

# Global Flags

	--verbose, -v    Enable verbose output
	--quiet, -q      Suppress non-error output
	--json           Output in JSON format
	--config         Path to config file

# Exit Codes

  - 0: Success
  - 1: Execution failed
  - 2: Invalid input or configuration
  - 3: Credential error
  - 4: Straker Verify API error
*/
package cli
