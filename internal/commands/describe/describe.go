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

// Package describe prints the node and credential descriptions.
package describe

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tombee/strakerverify/internal/commands/completion"
	"github.com/tombee/strakerverify/internal/commands/shared"
	"github.com/tombee/strakerverify/internal/node"
	sv "github.com/tombee/strakerverify/internal/node/strakerverify"
)

// NewCommand creates the describe command.
func NewCommand() *cobra.Command {
	var resource, operation string

	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Show the node's resources, operations and parameters",
		Long: `Describe prints the Straker Verify node description.

Without flags it lists every resource and its operations. With --resource
and --operation it lists the parameters shown for that operation. --json
prints the full node and credential descriptions.`,
		Example: `  strakerverify describe
  strakerverify describe -r project -o create
  strakerverify describe --json > strakerVerify.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.OutOrStdout(), resource, operation)
		},
	}

	cmd.Flags().StringVarP(&resource, "resource", "r", "", "Resource to describe")
	cmd.Flags().StringVarP(&operation, "operation", "o", "", "Operation to list parameters for")
	_ = cmd.RegisterFlagCompletionFunc("resource", completion.CompleteResources)
	_ = cmd.RegisterFlagCompletionFunc("operation", completion.CompleteOperations)

	return cmd
}

// Response is the --json output.
type Response struct {
	shared.JSONResponse
	Node        *node.Description    `json:"node,omitempty"`
	Credentials []*sv.CredentialType `json:"credentials,omitempty"`
	Parameters  []node.Property      `json:"parameters,omitempty"`
}

func run(out io.Writer, resource, operation string) error {
	d := sv.NodeDescription()

	if operation != "" && resource == "" {
		resource = "project"
	}
	if resource != "" && len(d.Operations(resource)) == 0 {
		return shared.NewInvalidInputError(fmt.Sprintf("unknown resource %q", resource), nil)
	}

	if operation == "" {
		if shared.GetJSON() {
			return shared.WriteJSON(out, Response{
				JSONResponse: shared.JSONResponse{Version: "1.0", Command: "describe", Success: true},
				Node:         d,
				Credentials:  []*sv.CredentialType{sv.CredentialDescription()},
			})
		}
		return writeOperations(out, d, resource)
	}

	if !contains(d.Operations(resource), operation) {
		return shared.NewInvalidInputError(
			fmt.Sprintf("unknown operation %q for resource %q", operation, resource),
			fmt.Errorf("available: %s", strings.Join(d.Operations(resource), ", ")))
	}

	params := parameters(d, resource, operation)
	if shared.GetJSON() {
		return shared.WriteJSON(out, Response{
			JSONResponse: shared.JSONResponse{Version: "1.0", Command: "describe", Success: true},
			Parameters:   params,
		})
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
		shared.RenderHeader("PARAMETER"), shared.RenderHeader("TYPE"),
		shared.RenderHeader("DEFAULT"), shared.RenderHeader("DESCRIPTION"))
	for _, p := range params {
		name := p.Name
		if p.Required {
			name += " *"
		}
		def := ""
		if p.Default != nil {
			def = fmt.Sprint(p.Default)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, p.Type, def, p.Description)
	}
	return w.Flush()
}

// parameters returns the visible properties for an operation, without the
// resource and operation selectors.
func parameters(d *node.Description, resource, operation string) []node.Property {
	var out []node.Property
	for _, p := range d.Visible(map[string]string{"resource": resource, "operation": operation}) {
		if p.Name == "resource" || p.Name == "operation" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func writeOperations(out io.Writer, d *node.Description, only string) error {
	fmt.Fprintf(out, "%s (%s v%d)\n\n", d.DisplayName, d.Name, d.Version)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\n", shared.RenderHeader("RESOURCE"), shared.RenderHeader("OPERATION"), shared.RenderHeader("ACTION"))
	for _, resource := range d.Resources() {
		if only != "" && resource != only {
			continue
		}
		p, ok := d.Property("operation", map[string]string{"resource": resource})
		if !ok {
			continue
		}
		for _, o := range p.Options {
			fmt.Fprintf(w, "%s\t%v\t%s\n", resource, o.Value, o.Action)
		}
	}
	return w.Flush()
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
