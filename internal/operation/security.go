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
	"strings"
)

var traversalPatterns = []string{
	"../",
	"..\\",
	"%2e%2e/",
	"%2e%2e\\",
	"%2e%2e%2f",
	"%2e%2e%5c",
	"..%2f",
	"..%5c",
}

// ValidatePathParameter rejects IDs that would escape their path segment.
func ValidatePathParameter(name, value string) error {
	if value == ".." || value == "." {
		return NewPathInjectionError(name)
	}

	lowerValue := strings.ToLower(value)
	for _, pattern := range traversalPatterns {
		if strings.Contains(lowerValue, pattern) {
			return NewPathInjectionError(name)
		}
	}

	if strings.Contains(value, "\x00") || strings.Contains(lowerValue, "%00") {
		return NewPathInjectionError(name)
	}

	return nil
}
