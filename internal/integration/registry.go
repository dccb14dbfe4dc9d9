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

// Package integration lists the built-in API clients that can be driven by
// operation name.
package integration

import (
	"fmt"

	"github.com/tombee/strakerverify/internal/integration/strakerverify"
	"github.com/tombee/strakerverify/internal/operation"
	"github.com/tombee/strakerverify/internal/operation/api"
)

// BuiltinRegistry holds all built-in API integration factories.
var BuiltinRegistry = map[string]func(config *api.ProviderConfig) (operation.Connector, error){
	"strakerverify": strakerverify.NewStrakerVerifyIntegration,
}

// NewRegistry returns an operation registry with every built-in
// integration configured from config. Each factory gets its own copy.
func NewRegistry(config *api.ProviderConfig) (*operation.Registry, error) {
	if config == nil {
		return nil, fmt.Errorf("integration registry requires configuration")
	}

	registry := operation.NewRegistry()
	for name, factory := range BuiltinRegistry {
		cfg := *config
		conn, err := factory(&cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create integration %q: %w", name, err)
		}
		registry.Register(name, conn)
	}
	return registry, nil
}

// OperationLister is implemented by integrations that can describe their
// operations.
type OperationLister interface {
	Operations() []api.OperationInfo
	OperationSchema(op string) *api.OperationSchema
}
