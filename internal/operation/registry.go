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

package operation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry holds configured connectors by name.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Connector
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Connector)}
}

// Get retrieves a connector by name.
func (r *Registry) Get(name string) (Connector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.providers[name]
	if !exists {
		return nil, &Error{
			Type:        ErrorTypeValidation,
			Message:     fmt.Sprintf("connector %q not found", name),
			SuggestText: fmt.Sprintf("Available connectors: %s", strings.Join(r.names(), ", ")),
		}
	}

	return provider, nil
}

// Execute runs an operation. The reference has the form
// "connector.operation"; the operation part may itself contain dots.
func (r *Registry) Execute(ctx context.Context, reference string, inputs map[string]interface{}) (*Result, error) {
	providerName, operationName, err := parseReference(reference)
	if err != nil {
		return nil, err
	}

	provider, err := r.Get(providerName)
	if err != nil {
		return nil, err
	}

	return provider.Execute(ctx, operationName, inputs)
}

// List returns the registered connector names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.names()
}

func (r *Registry) names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Register adds a connector, replacing any previous one with the same name.
func (r *Registry) Register(name string, provider Connector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = provider
}

// parseReference splits a reference at its first dot.
func parseReference(reference string) (string, string, error) {
	providerName, operationName, found := strings.Cut(reference, ".")
	if !found {
		return "", "", &Error{
			Type:    ErrorTypeValidation,
			Message: fmt.Sprintf("invalid operation reference %q: must be in format 'connector.operation'", reference),
		}
	}

	if providerName == "" || operationName == "" {
		return "", "", &Error{
			Type:    ErrorTypeValidation,
			Message: fmt.Sprintf("invalid operation reference %q: connector and operation names cannot be empty", reference),
		}
	}

	return providerName, operationName, nil
}
