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

package run

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/tombee/strakerverify/internal/commands/completion"
	"github.com/tombee/strakerverify/internal/commands/shared"
	"github.com/tombee/strakerverify/internal/jq"
	"github.com/tombee/strakerverify/internal/log"
	"github.com/tombee/strakerverify/internal/node"
	pkgerrors "github.com/tombee/strakerverify/pkg/errors"
)

type options struct {
	resource       string
	operation      string
	params         []string
	paramsFile     string
	input          string
	files          []string
	outputDir      string
	filter         string
	continueOnFail bool
}

// NewCommand creates the run command
func NewCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the Straker Verify node",
		Long: `Run executes one resource/operation of the Straker Verify node against a
list of input items and prints the output items as JSON.

Parameters:
  --param key=value     Repeatable. JSON values (numbers, arrays, objects) are
                        decoded; anything else is a string. Expressions such as
                        '={{ $json.body.job_uuid }}' are evaluated per item.
  --params-file <yaml>  Parameters as a YAML mapping. --param wins.

Input items:
  --input <json>        JSON array of items ('-' for stdin). An element is either
                        {"json": {...}, "binary": {"data": {"path": "a.docx"}}}
                        or a plain object used as the item JSON.
  --file <path>         Repeatable. One item per file, attached as binary "data"
                        (or the binaryProperty parameter).

Binary output is written to --output-dir when set.`,
		Example: `  strakerverify run --resource language --operation getAll
  strakerverify run --operation create --param title=Docs \
    --param 'languages=["<language-uuid>"]' --param workflow=<workflow-uuid> \
    --param callbackUri=https://example.com/hook --file guide.docx
  strakerverify run --operation downloadFiles --param projectId=<id> --output-dir out/
  strakerverify run --resource project --operation getAll --filter '.[].json.uuid'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			rt, err := shared.LoadRuntime()
			if err != nil {
				return err
			}
			return execute(ctx, cmd.OutOrStdout(), rt, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.resource, "resource", "r", "", "Resource (default: project)")
	cmd.Flags().StringVarP(&opts.operation, "operation", "o", "", "Operation to run")
	cmd.Flags().StringArrayVarP(&opts.params, "param", "p", nil, "Node parameter in key=value format")
	cmd.Flags().StringVar(&opts.paramsFile, "params-file", "", "YAML file with node parameters")
	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "JSON file with input items (use '-' for stdin)")
	cmd.Flags().StringArrayVarP(&opts.files, "file", "f", nil, "File to attach as an input item")
	cmd.Flags().StringVar(&opts.outputDir, "output-dir", "", "Directory to write output binaries to")
	cmd.Flags().StringVar(&opts.filter, "filter", "", "jq expression applied to the output items")
	cmd.Flags().BoolVar(&opts.continueOnFail, "continue-on-fail", false, "Emit failed items as {error} instead of stopping")

	_ = cmd.RegisterFlagCompletionFunc("resource", completion.CompleteResources)
	_ = cmd.RegisterFlagCompletionFunc("operation", completion.CompleteOperations)

	return cmd
}

// Response is the --json envelope of run.
type Response struct {
	shared.JSONResponse
	Resource  string      `json:"resource"`
	Operation string      `json:"operation"`
	Items     interface{} `json:"items"`
}

func execute(ctx context.Context, out io.Writer, rt *shared.Runtime, opts *options) error {
	params, err := buildParams(opts)
	if err != nil {
		return shared.NewInvalidInputError("invalid parameters", err)
	}

	items, err := loadItems(opts, params)
	if err != nil {
		return shared.NewInvalidInputError("invalid input items", err)
	}

	var filter *jq.Executor
	if opts.filter != "" {
		filter = jq.NewExecutor(0, 0)
		if err := filter.Validate(opts.filter); err != nil {
			return shared.NewInvalidInputError("invalid --filter", err)
		}
	}

	n, err := rt.NewNode()
	if err != nil {
		return shared.NewExecutionError("failed to create node", err)
	}
	creds, err := rt.Credentials(ctx, "")
	if err != nil {
		return err
	}

	ec := &node.ExecuteContext{
		Items:          items,
		Params:         node.NewParameters(params, items),
		Credentials:    creds,
		Logger:         rt.Logger,
		ContinueOnFail: opts.continueOnFail,
	}

	spinner := shared.NewSpinner()
	if !shared.GetJSON() && params["operation"] == "confirm" {
		spinner.Start("Waiting for project confirmation")
	}
	start := time.Now()
	outputs, err := n.Execute(ctx, ec)
	spinner.Stop()
	if err != nil {
		return classify(err)
	}

	var produced []node.Item
	if len(outputs) > 0 {
		produced = outputs[0]
	}
	rt.Logger.Debug("run finished",
		slog.Int("items", len(produced)),
		slog.Int64(log.DurationKey, time.Since(start).Milliseconds()),
	)

	views, err := writeOutputs(produced, opts.outputDir)
	if err != nil {
		return shared.NewExecutionError("failed to write output files", err)
	}

	var result interface{} = views
	if filter != nil {
		if result, err = filter.Execute(ctx, opts.filter, views); err != nil {
			return shared.NewExecutionError("filter failed", err)
		}
	}

	if shared.GetJSON() {
		resource, _ := ec.Params.Raw("resource")
		operation, _ := ec.Params.Raw("operation")
		return shared.WriteJSON(out, Response{
			JSONResponse: shared.JSONResponse{Version: "1.0", Command: "run", Success: true},
			Resource:     fmt.Sprint(resource),
			Operation:    fmt.Sprint(operation),
			Items:        result,
		})
	}
	return shared.WriteJSON(out, result)
}

// classify maps node failures to exit codes.
func classify(err error) error {
	var apiErr *node.APIError
	var credErr *pkgerrors.CredentialError
	var opErr *node.OperationError
	switch {
	case errors.As(err, &apiErr):
		msg := "Straker Verify request failed"
		if apiErr.StatusCode > 0 {
			msg = fmt.Sprintf("%s (HTTP %d)", msg, apiErr.StatusCode)
		}
		return shared.NewAPIError(msg, err)
	case errors.As(err, &credErr):
		return shared.NewCredentialError("no usable credentials", err)
	case errors.As(err, &opErr):
		return &shared.ExitError{Code: shared.ExitExecutionFailed, Message: opErr.Message, Cause: opErr.Cause}
	case errors.Is(err, context.Canceled):
		return shared.NewExecutionError("cancelled", err)
	}
	return shared.NewExecutionError("node execution failed", err)
}
