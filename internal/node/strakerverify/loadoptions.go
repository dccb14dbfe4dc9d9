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

package strakerverify

import (
	"context"

	"github.com/tombee/strakerverify/internal/node"
)

// LoadOptions implements node.Type. Methods: getLanguages, getWorkflows.
func (n *Node) LoadOptions(ctx context.Context, method string, creds *node.Credentials) ([]node.Option, error) {
	client, err := n.client(creds)
	if err != nil {
		return nil, err
	}

	env := creds.Environment
	switch method {
	case "getLanguages":
		languages, err := client.ListProjectLanguages(ctx, env)
		if err != nil {
			return nil, toAPIError(err, nil)
		}
		opts := make([]node.Option, 0, len(languages))
		for _, l := range languages {
			opts = append(opts, node.Option{Name: l.Name, Value: l.UUID})
		}
		return opts, nil

	case "getWorkflows":
		workflows, err := client.ListProjectWorkflows(ctx, env)
		if err != nil {
			return nil, toAPIError(err, nil)
		}
		opts := make([]node.Option, 0, len(workflows))
		for _, w := range workflows {
			opts = append(opts, node.Option{Name: w.Name, Value: w.UUID})
		}
		return opts, nil
	}

	return nil, node.NewOperationError("Unknown load options method %q.", method)
}
