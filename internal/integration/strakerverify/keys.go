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
	"encoding/json"
)

// CreateKey posts POST /key.
func (c *Integration) CreateKey(ctx context.Context, req CreateKeyRequest) (interface{}, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &Error{Message: "Failed to create API key.", Cause: err}
	}

	resp, err := c.do(ctx, "key.create", "POST", "/key", nil, nil, nil, body, "Failed to create API key.")
	if err != nil {
		return nil, err
	}

	var out interface{}
	if err := c.ParseJSONResponse(resp, &out); err != nil {
		return nil, &Error{StatusCode: resp.StatusCode, Message: "Failed to create API key.", Cause: err}
	}
	return out, nil
}

// GetKey returns GET /key/{id}.
func (c *Integration) GetKey(ctx context.Context, id string) (interface{}, error) {
	out, _, err := c.getJSON(ctx, "key.get", "/key/{id}", map[string]string{"id": id}, nil, "Failed to fetch API key.")
	if err != nil {
		return nil, err
	}
	return NormalizeObject(out), nil
}

// ListKeys returns GET /key.
func (c *Integration) ListKeys(ctx context.Context) (interface{}, error) {
	out, _, err := c.getJSON(ctx, "key.getAll", "/key", nil, nil, "Failed to fetch API keys.")
	return out, err
}
