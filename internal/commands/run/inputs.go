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

package run

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tombee/strakerverify/internal/node"
)

// buildParams merges --params-file, --param and the resource/operation flags,
// in increasing precedence.
func buildParams(opts *options) (map[string]interface{}, error) {
	params := make(map[string]interface{})

	if opts.paramsFile != "" {
		data, err := os.ReadFile(opts.paramsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read params file: %w", err)
		}
		if err := yaml.Unmarshal(data, &params); err != nil {
			return nil, fmt.Errorf("failed to parse params file %s: %w", opts.paramsFile, err)
		}
		if params == nil {
			params = make(map[string]interface{})
		}
	}

	for _, arg := range opts.params {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid parameter format %q (expected key=value)", arg)
		}
		params[strings.TrimSpace(key)] = parseParamValue(value)
	}

	if opts.resource != "" {
		params["resource"] = opts.resource
	}
	if opts.operation != "" {
		params["operation"] = opts.operation
	}
	return params, nil
}

// parseParamValue decodes JSON arrays, objects, booleans and integers.
// Expressions and everything else stay strings.
func parseParamValue(v string) interface{} {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" || strings.HasPrefix(trimmed, "=") {
		return v
	}

	switch trimmed[0] {
	case '[', '{':
		var decoded interface{}
		if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
			return decoded
		}
		return v
	}

	switch trimmed {
	case "true":
		return true
	case "false":
		return false
	}

	if n, err := strconv.Atoi(trimmed); err == nil && strconv.Itoa(n) == trimmed {
		return n
	}
	return v
}

// inputItem is the file form of an item.
type inputItem struct {
	JSON   map[string]interface{} `json:"json"`
	Binary map[string]inputBinary `json:"binary"`
}

// inputBinary references a file by path or carries base64 data.
type inputBinary struct {
	Path     string `json:"path"`
	Data     string `json:"data"`
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
}

// loadItems reads --input and appends one item per --file. With neither,
// the node runs on a single empty item.
func loadItems(opts *options, params map[string]interface{}) ([]node.Item, error) {
	var items []node.Item

	if opts.input != "" {
		data, baseDir, err := readInput(opts.input)
		if err != nil {
			return nil, err
		}
		parsed, err := parseItems(data, baseDir)
		if err != nil {
			return nil, err
		}
		items = append(items, parsed...)
	}

	property := "data"
	if p, ok := params["binaryProperty"].(string); ok && p != "" && !node.IsExpression(p) {
		property = p
	}
	for _, path := range opts.files {
		b, err := loadBinary(inputBinary{Path: path}, "")
		if err != nil {
			return nil, err
		}
		items = append(items, node.NewItem(map[string]interface{}{"fileName": b.FileName}).WithBinary(property, b))
	}

	if len(items) == 0 {
		items = []node.Item{node.NewItem(nil)}
	}
	return items, nil
}

func readInput(path string) ([]byte, string, error) {
	if path == "-" {
		stat, _ := os.Stdin.Stat()
		if stat != nil && (stat.Mode()&os.ModeCharDevice) != 0 {
			return nil, "", fmt.Errorf("--input - requires input on stdin (pipe or redirect)")
		}
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read from stdin: %w", err)
		}
		return data, "", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read input file: %w", err)
	}
	return data, filepath.Dir(path), nil
}

// parseItems accepts an array of items or a single item. An element with
// only "json" and "binary" keys is in item form; any other object is the
// item JSON itself.
func parseItems(data []byte, baseDir string) ([]node.Item, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		var single json.RawMessage
		if err := json.Unmarshal(data, &single); err != nil {
			return nil, fmt.Errorf("failed to parse JSON input: %w", err)
		}
		raw = []json.RawMessage{single}
	}

	items := make([]node.Item, 0, len(raw))
	for i, elem := range raw {
		var obj map[string]interface{}
		if err := json.Unmarshal(elem, &obj); err != nil {
			return nil, fmt.Errorf("input item %d is not an object", i)
		}

		if !isItemForm(obj) {
			items = append(items, node.NewItem(obj))
			continue
		}

		var in inputItem
		if err := json.Unmarshal(elem, &in); err != nil {
			return nil, fmt.Errorf("input item %d: %w", i, err)
		}
		item := node.NewItem(in.JSON)
		for prop, ref := range in.Binary {
			b, err := loadBinary(ref, baseDir)
			if err != nil {
				return nil, fmt.Errorf("input item %d binary %q: %w", i, prop, err)
			}
			item = item.WithBinary(prop, b)
		}
		items = append(items, item)
	}
	return items, nil
}

func isItemForm(obj map[string]interface{}) bool {
	if len(obj) == 0 {
		return false
	}
	for k := range obj {
		if k != "json" && k != "binary" {
			return false
		}
	}
	return true
}

func loadBinary(ref inputBinary, baseDir string) (*node.BinaryData, error) {
	fileName := ref.FileName

	var data []byte
	switch {
	case ref.Path != "":
		path := ref.Path
		if baseDir != "" && !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if fileName == "" {
			fileName = filepath.Base(path)
		}
	case ref.Data != "":
		var err error
		if data, err = base64.StdEncoding.DecodeString(ref.Data); err != nil {
			return nil, fmt.Errorf("data is not valid base64: %w", err)
		}
	default:
		return nil, fmt.Errorf("binary needs a path or data")
	}

	return node.NewBinaryData(data, fileName, ref.MimeType), nil
}
