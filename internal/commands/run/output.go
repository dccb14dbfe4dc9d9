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
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/tombee/strakerverify/internal/node"
)

// itemView is how an output item is printed.
type itemView struct {
	JSON       map[string]interface{} `json:"json"`
	Binary     map[string]binaryView  `json:"binary,omitempty"`
	PairedItem *int                   `json:"pairedItem,omitempty"`
}

type binaryView struct {
	FileName      string `json:"fileName,omitempty"`
	MimeType      string `json:"mimeType"`
	FileExtension string `json:"fileExtension,omitempty"`
	FileSize      int64  `json:"fileSize"`

	// Path is set when the data was written to --output-dir
	Path string `json:"path,omitempty"`
}

// writeOutputs converts items for printing and, when dir is set, writes
// every binary into it. Clashing names get the item index as a prefix.
func writeOutputs(items []node.Item, dir string) ([]itemView, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	used := make(map[string]bool)
	views := make([]itemView, 0, len(items))
	for i, item := range items {
		view := itemView{JSON: item.JSON, PairedItem: item.PairedItem}
		if view.JSON == nil {
			view.JSON = map[string]interface{}{}
		}

		props := make([]string, 0, len(item.Binary))
		for prop := range item.Binary {
			props = append(props, prop)
		}
		sort.Strings(props)

		for _, prop := range props {
			b := item.Binary[prop]
			if b == nil {
				continue
			}
			bv := binaryView{
				FileName:      b.FileName,
				MimeType:      b.MimeType,
				FileExtension: b.FileExtension,
				FileSize:      b.FileSize,
			}

			if dir != "" {
				name := uniqueName(used, outputName(b.FileName, prop, i), i)
				path := filepath.Join(dir, name)
				if err := os.WriteFile(path, b.Data, 0o644); err != nil {
					return nil, fmt.Errorf("failed to write %s: %w", path, err)
				}
				bv.Path = path
			}

			if view.Binary == nil {
				view.Binary = make(map[string]binaryView)
			}
			view.Binary[prop] = bv
		}
		views = append(views, view)
	}
	return views, nil
}

// outputName keeps only the base name so API-supplied names cannot escape
// the output directory.
func outputName(fileName, prop string, i int) string {
	name := filepath.Base(filepath.Clean("/" + fileName))
	if name == "/" || name == "." || name == "" {
		name = fmt.Sprintf("%s-%d", prop, i)
	}
	return name
}

// uniqueName prefixes a clashing name with the item index, then with a
// counter, until it is unused, and marks the result as used.
func uniqueName(used map[string]bool, name string, i int) string {
	candidate := name
	for n := 1; used[candidate]; n++ {
		if n == 1 {
			candidate = fmt.Sprintf("%d-%s", i, name)
		} else {
			candidate = fmt.Sprintf("%d-%d-%s", i, n, name)
		}
	}
	used[candidate] = true
	return candidate
}
