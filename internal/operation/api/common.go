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

// Package api provides the building blocks shared by REST integration
// clients: provider configuration, operation catalogue types and
// BaseProvider.
package api

import (
	"github.com/tombee/strakerverify/internal/operation/transport"
)

// ProviderConfig configures a REST integration client.
type ProviderConfig struct {
	// Transport sends the requests
	Transport transport.Transport

	// BaseURL is the API root without a trailing slash
	BaseURL string

	// Token is sent as "Authorization: Bearer <token>"
	Token string
}

// OperationInfo describes one operation a provider exposes.
type OperationInfo struct {
	// Name is the operation identifier, e.g. "project.create"
	Name string

	Description string

	// Category groups operations by resource
	Category string

	Tags []string
}

// OperationSchema describes the inputs and outputs of an operation.
type OperationSchema struct {
	Description string

	Parameters []ParameterInfo

	ResponseFields []ResponseFieldInfo
}

// ParameterInfo describes one operation input.
type ParameterInfo struct {
	Name string

	// Type is one of string, integer, boolean, array, object, binary
	Type string

	Description string

	Required bool

	Default interface{}
}

// ResponseFieldInfo describes one field of an operation response.
type ResponseFieldInfo struct {
	Name string

	Type string

	Description string
}
