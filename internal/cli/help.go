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
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tombee/strakerverify/internal/commands/shared"
)

const docsBaseURL = "https://api-verify.straker.ai/docs"

// HelpResponse is the --json form of 'strakerverify help'.
type HelpResponse struct {
	shared.JSONResponse
	Commands    []CommandInfo `json:"commands,omitempty"`
	Target      *CommandInfo  `json:"target,omitempty"`
	GlobalFlags []FlagInfo    `json:"global_flags,omitempty"`
	DocsURL     string        `json:"docs_url"`
}

// CommandInfo describes one command. Path omits the binary name, so
// nested commands read "credentials set".
type CommandInfo struct {
	Path    string     `json:"path"`
	Short   string     `json:"short"`
	Long    string     `json:"long,omitempty"`
	Usage   string     `json:"usage"`
	Example string     `json:"example,omitempty"`
	Group   string     `json:"group,omitempty"`
	Aliases []string   `json:"aliases,omitempty"`
	Flags   []FlagInfo `json:"flags,omitempty"`
}

// FlagInfo describes one flag.
type FlagInfo struct {
	Name      string `json:"name"`
	Shorthand string `json:"shorthand,omitempty"`
	Usage     string `json:"usage"`
	Default   string `json:"default,omitempty"`
	Required  bool   `json:"required"`
}

// NewHelpCommand replaces cobra's help command with one that also answers
// in JSON.
func NewHelpCommand(rootCmd *cobra.Command) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "help [command]",
		Short: "Help about any command",
		Long: `Show help for strakerverify or one of its commands.

With --json the whole command tree, or the named command, is printed as JSON
including flags, defaults and which flags are required.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			target := rootCmd
			if len(args) > 0 {
				found, rest, err := rootCmd.Find(args)
				if err != nil || len(rest) > 0 {
					return fmt.Errorf("command %q not found", strings.Join(args, " "))
				}
				target = found
			}

			if !shared.GetJSON() && !jsonOutput {
				return target.Help()
			}

			resp := HelpResponse{
				JSONResponse: shared.JSONResponse{Version: "1.0", Command: "help", Success: true},
				GlobalFlags:  flagInfos(rootCmd.PersistentFlags()),
				DocsURL:      docsBaseURL,
			}
			if target == rootCmd {
				resp.Commands = listCommands(rootCmd, "")
			} else {
				info := describeCommand(target, groupOf(target))
				resp.JSONResponse.Command = "help " + info.Path
				resp.Target = &info
			}
			return shared.WriteJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	return cmd
}

// listCommands walks the visible command tree depth first.
func listCommands(parent *cobra.Command, group string) []CommandInfo {
	var out []CommandInfo
	for _, c := range parent.Commands() {
		if c.Hidden || c.Name() == "help" {
			continue
		}
		g := c.GroupID
		if g == "" {
			g = group
		}
		out = append(out, describeCommand(c, g))
		out = append(out, listCommands(c, g)...)
	}
	return out
}

func describeCommand(c *cobra.Command, group string) CommandInfo {
	return CommandInfo{
		Path:    commandPath(c),
		Short:   c.Short,
		Long:    c.Long,
		Usage:   c.UseLine(),
		Example: c.Example,
		Group:   group,
		Aliases: c.Aliases,
		Flags:   flagInfos(c.LocalNonPersistentFlags()),
	}
}

// groupOf returns the group of c or of its nearest grouped ancestor.
func groupOf(c *cobra.Command) string {
	for ; c != nil; c = c.Parent() {
		if c.GroupID != "" {
			return c.GroupID
		}
	}
	return ""
}

func commandPath(c *cobra.Command) string {
	path := c.CommandPath()
	if root := c.Root(); root != c {
		path = strings.TrimPrefix(path, root.Name()+" ")
	}
	return path
}

func flagInfos(fs *pflag.FlagSet) []FlagInfo {
	var out []FlagInfo
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Hidden || f.Name == "help" {
			return
		}
		info := FlagInfo{
			Name:      f.Name,
			Shorthand: f.Shorthand,
			Usage:     f.Usage,
			Default:   f.DefValue,
		}
		if req := f.Annotations[cobra.BashCompOneRequiredFlag]; len(req) > 0 && req[0] == "true" {
			info.Required = true
		}
		out = append(out, info)
	})
	return out
}
