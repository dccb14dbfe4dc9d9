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
	"mime"
	"net/http"
	"strings"
)

// GetFile downloads GET /file/{id} as raw bytes. The file name comes from
// Content-Disposition and defaults to the id.
func (c *Integration) GetFile(ctx context.Context, id string) (*File, error) {
	resp, err := c.do(ctx, "file.get", "GET", "/file/{id}", map[string]string{"id": id}, nil,
		map[string]string{"Accept": "*/*"}, nil, "Failed to fetch file.")
	if err != nil {
		return nil, err
	}

	header := http.Header(resp.Headers)
	file := &File{
		ID:       id,
		FileName: id,
		MimeType: "application/octet-stream",
		Data:     resp.Body,
	}

	if ct := header.Get("Content-Type"); ct != "" {
		if mediaType, _, err := mime.ParseMediaType(ct); err == nil {
			file.MimeType = mediaType
		}
	}
	if cd := header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if name := strings.TrimSpace(params["filename"]); name != "" {
				file.FileName = name
			}
		}
	}

	return file, nil
}
