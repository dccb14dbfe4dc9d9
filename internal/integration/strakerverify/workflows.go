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
)

// ListWorkflows returns GET /workflow as decoded JSON.
func (c *Integration) ListWorkflows(ctx context.Context) (interface{}, error) {
	out, _, err := c.getJSON(ctx, "workflow.getAll", "/workflow", nil, nil, "Failed to fetch workflows.")
	return out, err
}

// GetWorkflow returns GET /workflow/{id}, unwrapped from {data} or
// {workflow}.
func (c *Integration) GetWorkflow(ctx context.Context, id string) (interface{}, error) {
	out, _, err := c.getJSON(ctx, "workflow.getOne", "/workflow/{id}", map[string]string{"id": id}, nil, "Failed to fetch workflow.")
	if err != nil {
		return nil, err
	}
	return NormalizeObject(out), nil
}

// ListProjectWorkflows returns the workflows a new project in env may use.
// A null response yields an empty list.
func (c *Integration) ListProjectWorkflows(ctx context.Context, env string) ([]Workflow, error) {
	out, _, err := c.getJSON(ctx, "workflow.getProjectWorkflows", "/project/workflows", nil, envQuery(env), "Failed to fetch workflows.")
	if err != nil {
		return nil, err
	}

	workflows := []Workflow{}
	if err := decodeList(out, &workflows); err != nil {
		return nil, &Error{Message: "Failed to fetch workflows.", Cause: err}
	}
	return workflows, nil
}

// HasWorkflow reports whether id is one of the project workflows in env.
func (c *Integration) HasWorkflow(ctx context.Context, env, id string) (bool, error) {
	workflows, err := c.ListProjectWorkflows(ctx, env)
	if err != nil {
		return false, err
	}
	for _, w := range workflows {
		if w.UUID == id {
			return true, nil
		}
	}
	return false, nil
}
