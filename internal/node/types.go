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

package node

import (
	"context"
	"log/slog"
)

// Credentials are the resolved values of a credential type.
type Credentials struct {
	// BaseURL is the API root
	BaseURL string

	// Environment is the value of the environment query tag
	Environment string

	// APIKey is sent as a bearer token
	APIKey string
}

// ExecuteContext is everything a node sees during one run.
type ExecuteContext struct {
	Items       []Item
	Params      *Parameters
	Credentials *Credentials
	Logger      *slog.Logger

	// ContinueOnFail turns per-item failures into {json: {error}} items
	ContinueOnFail bool
}

// Option is one entry returned by a load-options method.
type Option struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Type is implemented by every node.
type Type interface {
	// Description returns the node's UI and capability metadata.
	Description() *Description

	// Execute runs the node and returns output items per output.
	Execute(ctx context.Context, ec *ExecuteContext) ([][]Item, error)

	// LoadOptions runs a named dynamic-options method.
	LoadOptions(ctx context.Context, method string, creds *Credentials) ([]Option, error)
}
