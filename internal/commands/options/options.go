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

// Package options runs the node's load-options methods from the CLI.
package options

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tombee/strakerverify/internal/commands/completion"
	"github.com/tombee/strakerverify/internal/commands/shared"
	"github.com/tombee/strakerverify/internal/node"
)

// methods maps CLI names to load-options methods.
var methods = map[string]string{
	"languages": "getLanguages",
	"workflows": "getWorkflows",
}

// NewCommand creates the options command.
func NewCommand() *cobra.Command {
	var apiKey string

	cmd := &cobra.Command{
		Use:   "options <languages|workflows>",
		Short: "List the choices offered for languages or workflows",
		Long: `Options runs a load-options method of the node and prints the
name/value pairs a workflow editor would offer for the field.

  languages   values for the "languages" parameter of project create
  workflows   values for the "workflow" parameter of project create`,
		Example: `  strakerverify options languages
  strakerverify options workflows --json`,
		Args:              cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs:         []string{"languages", "workflows"},
		ValidArgsFunction: completion.CompleteOptionsMethods,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := shared.LoadRuntime()
			if err != nil {
				return err
			}
			return run(cmd.Context(), cmd.OutOrStdout(), rt, args[0], apiKey)
		},
	}
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key to use instead of the stored one")

	return cmd
}

// Response is the --json output.
type Response struct {
	shared.JSONResponse
	Method  string        `json:"method"`
	Options []node.Option `json:"options"`
}

func run(ctx context.Context, out io.Writer, rt *shared.Runtime, name, apiKey string) error {
	method, ok := methods[name]
	if !ok {
		return shared.NewInvalidInputError(fmt.Sprintf("unknown option list %q (expected languages or workflows)", name), nil)
	}

	creds, err := rt.Credentials(ctx, apiKey)
	if err != nil {
		return err
	}
	n, err := rt.NewNode()
	if err != nil {
		return shared.NewExecutionError("failed to create node", err)
	}

	opts, err := n.LoadOptions(ctx, method, creds)
	if err != nil {
		return shared.NewAPIError(fmt.Sprintf("failed to load %s", name), err)
	}

	if shared.GetJSON() {
		if opts == nil {
			opts = []node.Option{}
		}
		return shared.WriteJSON(out, Response{
			JSONResponse: shared.JSONResponse{Version: "1.0", Command: "options", Success: true},
			Method:       method,
			Options:      opts,
		})
	}

	if len(opts) == 0 {
		fmt.Fprintf(out, "No %s available\n", name)
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", shared.RenderHeader("NAME"), shared.RenderHeader("VALUE"))
	for _, o := range opts {
		fmt.Fprintf(w, "%s\t%s\n", o.Name, o.Value)
	}
	return w.Flush()
}
