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

// NormalizeList returns the elements of a list response. The API answers
// with a bare array, a {"data": [...]} wrapper or, for workflows, a
// {"workflows": [...]} wrapper. ok is false when no array is found.
func NormalizeList(v interface{}) (list []interface{}, ok bool) {
	switch t := v.(type) {
	case []interface{}:
		return t, true
	case map[string]interface{}:
		for _, key := range []string{"data", "workflows", "items", "results"} {
			if inner, exists := t[key]; exists && inner != nil {
				if arr, isArr := inner.([]interface{}); isArr {
					return arr, true
				}
			}
		}
	}
	return nil, false
}

// NormalizeObject unwraps {"data": {...}} and {"workflow": {...}} style
// single-object responses. Other values are returned as they are.
func NormalizeObject(v interface{}) interface{} {
	m, ok := v.(map[string]interface{})
	if !ok {
		return v
	}
	if len(m) == 1 {
		for _, key := range []string{"data", "workflow"} {
			if inner, isObj := m[key].(map[string]interface{}); isObj {
				return inner
			}
		}
	}
	return m
}

// ProjectStatus reads data.status (or a top-level status) from a project
// response.
func ProjectStatus(project map[string]interface{}) string {
	if data, ok := project["data"].(map[string]interface{}); ok {
		if status, ok := data["status"].(string); ok {
			return status
		}
	}
	status, _ := project["status"].(string)
	return status
}
