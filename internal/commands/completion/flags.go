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

// Package completion provides shell completion for the strakerverify CLI.
//
// Completion functions fail silently: a panic or error yields an empty
// list so the shell never shows a stack trace.
package completion

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tombee/strakerverify/internal/node"
	sv "github.com/tombee/strakerverify/internal/node/strakerverify"
)

// SafeCompletionWrapper wraps a completion function with panic recovery.
func SafeCompletionWrapper(fn func() ([]string, cobra.ShellCompDirective)) (results []string, directive cobra.ShellCompDirective) {
	results = []string{}
	directive = cobra.ShellCompDirectiveNoFileComp

	defer func() {
		if r := recover(); r != nil {
			results = []string{}
			directive = cobra.ShellCompDirectiveNoFileComp
		}
	}()

	results, directive = fn()
	if results == nil {
		return []string{}, cobra.ShellCompDirectiveNoFileComp
	}
	return results, directive
}

// CompleteResources provides completion for --resource.
func CompleteResources(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return SafeCompletionWrapper(func() ([]string, cobra.ShellCompDirective) {
		p, ok := sv.NodeDescription().Property("resource", nil)
		if !ok {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return describeOptions(p.Options), cobra.ShellCompDirectiveNoFileComp
	})
}

// CompleteOperations provides completion for --operation, narrowed by
// --resource when it is set.
func CompleteOperations(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return SafeCompletionWrapper(func() ([]string, cobra.ShellCompDirective) {
		resource := "project"
		if cmd != nil {
			if r, err := cmd.Flags().GetString("resource"); err == nil && r != "" {
				resource = r
			}
		}
		p, ok := sv.NodeDescription().Property("operation", map[string]string{"resource": resource})
		if !ok {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return describeOptions(p.Options), cobra.ShellCompDirectiveNoFileComp
	})
}

// CompleteOptionsMethods provides completion for the options command.
func CompleteOptionsMethods(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return SafeCompletionWrapper(func() ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return []string{
			"languages\tLanguages available for projects",
			"workflows\tWorkflows available to the account",
		}, cobra.ShellCompDirectiveNoFileComp
	})
}

func describeOptions(opts []node.PropertyOption) []string {
	out := make([]string, 0, len(opts))
	for _, o := range opts {
		desc := o.Action
		if desc == "" {
			desc = o.Name
		}
		out = append(out, fmt.Sprintf("%v\t%s", o.Value, desc))
	}
	return out
}
