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

package completion

import (
	"fmt"

	"github.com/spf13/cobra"
)

// shells maps each supported shell to its script generator.
var shells = map[string]func(root *cobra.Command, cmd *cobra.Command, descriptions bool) error{
	"bash": func(root, cmd *cobra.Command, d bool) error {
		return root.GenBashCompletionV2(cmd.OutOrStdout(), d)
	},
	"zsh": func(root, cmd *cobra.Command, d bool) error {
		if d {
			return root.GenZshCompletion(cmd.OutOrStdout())
		}
		return root.GenZshCompletionNoDesc(cmd.OutOrStdout())
	},
	"fish": func(root, cmd *cobra.Command, d bool) error {
		return root.GenFishCompletion(cmd.OutOrStdout(), d)
	},
	"powershell": func(root, cmd *cobra.Command, d bool) error {
		if d {
			return root.GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
		}
		return root.GenPowerShellCompletion(cmd.OutOrStdout())
	},
}

// NewCommand creates the completion command.
func NewCommand() *cobra.Command {
	var noDescriptions bool

	cmd := &cobra.Command{
		Use:   "completion <bash|zsh|fish|powershell>",
		Short: "Generate shell completion scripts",
		Long: `Print a completion script for the given shell.

Completions cover commands and flags as well as the node's resources and
operations, so 'strakerverify run --resource project --operation <TAB>'
offers only project operations.

Bash:
  source <(strakerverify completion bash)

Zsh:
  strakerverify completion zsh > "${fpath[1]}/_strakerverify"

Fish:
  strakerverify completion fish > ~/.config/fish/completions/strakerverify.fish

PowerShell:
  strakerverify completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, ok := shells[args[0]]
			if !ok {
				return fmt.Errorf("unsupported shell %q", args[0])
			}
			return gen(cmd.Root(), cmd, !noDescriptions)
		},
	}

	cmd.Flags().BoolVar(&noDescriptions, "no-descriptions", false, "Omit completion descriptions")
	return cmd
}
