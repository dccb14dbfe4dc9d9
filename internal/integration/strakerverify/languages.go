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

// ListLanguages returns GET /languages as decoded JSON.
func (c *Integration) ListLanguages(ctx context.Context) (interface{}, error) {
	out, _, err := c.getJSON(ctx, "language.getAll", "/languages", nil, nil, "Failed to fetch languages.")
	return out, err
}

// ListProjectLanguages returns the languages that can be targeted by a new
// project in env.
func (c *Integration) ListProjectLanguages(ctx context.Context, env string) ([]Language, error) {
	out, _, err := c.getJSON(ctx, "language.getProjectLanguages", "/project/languages", nil, envQuery(env), "Failed to fetch languages.")
	if err != nil {
		return nil, err
	}

	languages := []Language{}
	if err := decodeList(out, &languages); err != nil {
		return nil, &Error{Message: "Failed to fetch languages.", Cause: err}
	}
	return languages, nil
}

// decodeList re-decodes a normalized list into a typed slice. A null or
// non-list response leaves target empty.
func decodeList(v interface{}, target interface{}) error {
	list, ok := NormalizeList(v)
	if !ok {
		return nil
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, target)
}
