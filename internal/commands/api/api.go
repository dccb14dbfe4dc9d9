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

// Package api exposes the Straker Verify API client operations directly,
// bypassing the node's item handling.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tombee/strakerverify/internal/commands/shared"
	"github.com/tombee/strakerverify/internal/integration"
	sv "github.com/tombee/strakerverify/internal/integration/strakerverify"
	"github.com/tombee/strakerverify/internal/operation"
	opapi "github.com/tombee/strakerverify/internal/operation/api"
)

const connectorName = "strakerverify"

type options struct {
	inputs []string
	list   bool
	schema bool
	apiKey string
}

// NewCommand creates the api command.
func NewCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "api [operation]",
		Short: "Call one Straker Verify API operation",
		Long: `Api calls a single API client operation and prints the decoded
response. Unlike run, it takes snake_case inputs and returns the raw API
shape without item wrapping.

Use --list to see the operations and --schema to see an operation's inputs.
The "environment" input defaults to the configured environment. A repeated
--input key becomes a list, so project.create takes one --input files=<path>
per file.`,
		Example: `  strakerverify api --list
  strakerverify api project.get --input project_id=<uuid>
  strakerverify api project.create --input title=Docs --input workflow_id=<uuid> \
    --input languages=<uuid> --input files=guide.docx --input files=faq.md
  strakerverify api file.get --input file_id=<uuid> --json
  strakerverify api project.getSegments --schema
  strakerverify api user.getBalance --json`,
		Args: cobra.MaximumNArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return operationNames(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.list {
				return writeList(cmd.OutOrStdout())
			}
			if len(args) == 0 {
				return shared.NewInvalidInputError("an operation is required (see --list)", nil)
			}
			if opts.schema {
				return writeSchema(cmd.OutOrStdout(), args[0])
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			rt, err := shared.LoadRuntime()
			if err != nil {
				return err
			}
			return call(ctx, cmd.OutOrStdout(), rt, args[0], opts)
		},
	}

	cmd.Flags().StringArrayVar(&opts.inputs, "input", nil, "Operation input in key=value format")
	cmd.Flags().BoolVar(&opts.list, "list", false, "List available operations")
	cmd.Flags().BoolVar(&opts.schema, "schema", false, "Show the inputs of the operation")
	cmd.Flags().StringVar(&opts.apiKey, "api-key", "", "API key to use instead of the stored one")

	return cmd
}

// catalogue describes the operations. The catalogue methods do not touch
// the client's transport, so a zero client serves without credentials.
var catalogue integration.OperationLister = &sv.Integration{}

func operationNames() []string {
	var names []string
	for _, op := range catalogue.Operations() {
		names = append(names, op.Name)
	}
	sort.Strings(names)
	return names
}

func writeList(out io.Writer) error {
	ops := catalogue.Operations()
	sort.Slice(ops, func(i, j int) bool { return ops[i].Name < ops[j].Name })

	if shared.GetJSON() {
		return shared.WriteJSON(out, struct {
			shared.JSONResponse
			Operations []opapi.OperationInfo `json:"operations"`
		}{
			JSONResponse: shared.JSONResponse{Version: "1.0", Command: "api", Success: true},
			Operations:   ops,
		})
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", shared.RenderHeader("OPERATION"), shared.RenderHeader("DESCRIPTION"))
	for _, op := range ops {
		fmt.Fprintf(w, "%s\t%s\n", op.Name, op.Description)
	}
	return w.Flush()
}

func writeSchema(out io.Writer, op string) error {
	schema := catalogue.OperationSchema(op)
	if schema == nil {
		info, ok := findOperation(op)
		if !ok {
			return shared.NewInvalidInputError(fmt.Sprintf("unknown operation %q", op),
				fmt.Errorf("available: %s", strings.Join(operationNames(), ", ")))
		}
		schema = &opapi.OperationSchema{Description: info.Description}
	}

	if shared.GetJSON() {
		return shared.WriteJSON(out, struct {
			shared.JSONResponse
			Operation string                 `json:"operation"`
			Schema    *opapi.OperationSchema `json:"schema"`
		}{
			JSONResponse: shared.JSONResponse{Version: "1.0", Command: "api", Success: true},
			Operation:    op,
			Schema:       schema,
		})
	}

	fmt.Fprintf(out, "%s\n\n", schema.Description)
	if len(schema.Parameters) == 0 {
		fmt.Fprintln(out, "No inputs.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\n", shared.RenderHeader("INPUT"), shared.RenderHeader("TYPE"), shared.RenderHeader("DESCRIPTION"))
	for _, p := range schema.Parameters {
		name := p.Name
		if p.Required {
			name += " *"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", name, p.Type, p.Description)
	}
	return w.Flush()
}

func findOperation(name string) (opapi.OperationInfo, bool) {
	for _, op := range catalogue.Operations() {
		if op.Name == name {
			return op, true
		}
	}
	return opapi.OperationInfo{}, false
}

func parseInputs(raw []string) (map[string]interface{}, error) {
	inputs := make(map[string]interface{}, len(raw))
	for _, arg := range raw {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid input format %q (expected key=value)", arg)
		}
		key = strings.TrimSpace(key)
		switch prev := inputs[key].(type) {
		case nil:
			inputs[key] = value
		case []interface{}:
			inputs[key] = append(prev, value)
		default:
			inputs[key] = []interface{}{prev, value}
		}
	}
	return inputs, nil
}

func call(ctx context.Context, out io.Writer, rt *shared.Runtime, op string, opts *options) error {
	inputs, err := parseInputs(opts.inputs)
	if err != nil {
		return shared.NewInvalidInputError("invalid inputs", err)
	}

	creds, err := rt.Credentials(ctx, opts.apiKey)
	if err != nil {
		return err
	}
	if _, ok := inputs["environment"]; !ok {
		inputs["environment"] = creds.Environment
	}

	registry, err := rt.Connectors(creds)
	if err != nil {
		return err
	}

	result, err := registry.Execute(ctx, connectorName+"."+op, inputs)
	if err != nil {
		return classify(op, err)
	}

	if shared.GetJSON() {
		return shared.WriteJSON(out, struct {
			shared.JSONResponse
			Operation string      `json:"operation"`
			Response  interface{} `json:"response"`
		}{
			JSONResponse: shared.JSONResponse{Version: "1.0", Command: "api", Success: true},
			Operation:    op,
			Response:     result.Response,
		})
	}
	return shared.WriteJSON(out, result.Response)
}

func classify(op string, err error) error {
	var clientErr *sv.Error
	var opErr *operation.Error
	switch {
	case errors.As(err, &clientErr) && clientErr.StatusCode > 0:
		return shared.NewAPIError(fmt.Sprintf("%s failed (HTTP %d)", op, clientErr.StatusCode), err)
	case errors.As(err, &opErr) && (opErr.Type == operation.ErrorTypeValidation || opErr.Type == operation.ErrorTypeNotImplemented):
		return shared.NewInvalidInputError(fmt.Sprintf("%s: %s", op, opErr.Message), err)
	case errors.Is(err, context.Canceled):
		return shared.NewExecutionError("cancelled", err)
	}
	return shared.NewAPIError(fmt.Sprintf("%s failed", op), err)
}
