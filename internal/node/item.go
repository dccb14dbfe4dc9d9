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
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// Item is the unit of data passed between workflow steps.
type Item struct {
	JSON   map[string]interface{} `json:"json"`
	Binary map[string]*BinaryData `json:"binary,omitempty"`

	// PairedItem is the index of the input item this item derives from
	PairedItem *int `json:"pairedItem,omitempty"`
}

// BinaryData is a named binary attachment on an Item.
type BinaryData struct {
	Data          []byte `json:"-"`
	FileName      string `json:"fileName,omitempty"`
	MimeType      string `json:"mimeType"`
	FileExtension string `json:"fileExtension,omitempty"`
	FileSize      int64  `json:"fileSize"`
}

// DefaultMimeType is used when neither the caller nor the file name says
// what the data is.
const DefaultMimeType = "application/octet-stream"

// NewBinaryData wraps data. An empty mimeType is guessed from the file
// extension, then from the content.
func NewBinaryData(data []byte, fileName, mimeType string) *BinaryData {
	ext := strings.TrimPrefix(filepath.Ext(fileName), ".")

	if mimeType == "" && ext != "" {
		mimeType = mime.TypeByExtension("." + ext)
	}
	if mimeType == "" && len(data) > 0 {
		if sniffed := http.DetectContentType(data); sniffed != DefaultMimeType {
			mimeType = sniffed
		}
	}
	if mimeType == "" {
		mimeType = DefaultMimeType
	}

	return &BinaryData{
		Data:          data,
		FileName:      fileName,
		MimeType:      mimeType,
		FileExtension: ext,
		FileSize:      int64(len(data)),
	}
}

// NewItem returns an item with the given JSON and no binaries.
func NewItem(json map[string]interface{}) Item {
	if json == nil {
		json = map[string]interface{}{}
	}
	return Item{JSON: json}
}

// Paired returns a copy of the item linked to input index i.
func (it Item) Paired(i int) Item {
	it.PairedItem = &i
	return it
}

// WithBinary returns a copy of the item with data attached under property.
func (it Item) WithBinary(property string, data *BinaryData) Item {
	binary := make(map[string]*BinaryData, len(it.Binary)+1)
	for k, v := range it.Binary {
		binary[k] = v
	}
	binary[property] = data
	it.Binary = binary
	return it
}

// BinaryProperty returns the attachment stored under property, if any.
func (it Item) BinaryProperty(property string) (*BinaryData, bool) {
	if it.Binary == nil {
		return nil, false
	}
	b, ok := it.Binary[property]
	return b, ok && b != nil
}
