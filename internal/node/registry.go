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
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/tombee/strakerverify/internal/operation/transport"
)

// Settings carry host-level options into node factories.
type Settings struct {
	// Timeout bounds each HTTP request
	Timeout time.Duration

	// Retry overrides the transport retry policy
	Retry *transport.RetryConfig

	// RateLimit is requests per second; zero disables limiting
	RateLimit float64
	Burst     int

	UserAgent string
	Logger    *slog.Logger

	// Transport replaces the HTTP transport entirely
	Transport transport.Transport
}

// Factory constructs a node type.
type Factory func(Settings) (Type, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register adds a node type under name. It panics on duplicates.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("node %q registered twice", name))
	}
	registry[name] = factory
}

// Get constructs the node registered under name.
func Get(name string, settings Settings) (Type, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown node %q (available: %v)", name, Names())
	}
	return factory(settings)
}

// Names returns the registered node names, sorted.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
