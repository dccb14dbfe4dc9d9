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
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tombee/strakerverify/internal/operation"
)

// createProjectInput builds a CreateProjectRequest from connector inputs.
//
// languages is a list of ids or a comma separated string. files is a list
// whose entries are paths or objects with either "path" or
// "content_base64" (plus optional "file_name" and "mime_type"); a string
// is read as comma separated paths.
func (c *Integration) createProjectInput(inputs map[string]interface{}) (CreateProjectRequest, error) {
	if err := c.ValidateRequired(inputs, []string{"title", "workflow_id", "languages", "files"}); err != nil {
		return CreateProjectRequest{}, err
	}

	req := CreateProjectRequest{
		Title:       stringInput(inputs, "title"),
		WorkflowID:  stringInput(inputs, "workflow_id"),
		CallbackURI: stringInput(inputs, "callback_uri"),
		ClientNotes: stringInput(inputs, "client_notes"),
		Languages:   listInput(inputs["languages"]),
	}
	if len(req.Languages) == 0 {
		return req, invalidInput("languages must name at least one language")
	}

	files, err := uploadFilesInput(inputs["files"])
	if err != nil {
		return req, err
	}
	if len(files) == 0 {
		return req, invalidInput("files must contain at least one file")
	}
	req.Files = files
	return req, nil
}

// listInput flattens a string, []string or []interface{} into trimmed,
// non-empty strings. Strings are split on commas.
func listInput(v interface{}) []string {
	var out []string
	add := func(s string) {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}

	switch val := v.(type) {
	case nil:
	case string:
		add(val)
	case []string:
		for _, s := range val {
			add(s)
		}
	case []interface{}:
		for _, item := range val {
			if item != nil {
				add(fmt.Sprint(item))
			}
		}
	default:
		add(fmt.Sprint(val))
	}
	return out
}

func uploadFilesInput(v interface{}) ([]UploadFile, error) {
	var entries []interface{}
	switch val := v.(type) {
	case []interface{}:
		entries = val
	case map[string]interface{}:
		entries = []interface{}{val}
	default:
		for _, path := range listInput(val) {
			entries = append(entries, path)
		}
	}

	files := make([]UploadFile, 0, len(entries))
	for i, entry := range entries {
		var (
			file UploadFile
			err  error
		)
		switch e := entry.(type) {
		case string:
			file, err = readUploadFile(e, "")
		case map[string]interface{}:
			file, err = uploadFileFromObject(e)
		default:
			err = fmt.Errorf("unsupported value of type %T", entry)
		}
		if err != nil {
			return nil, invalidInput(fmt.Sprintf("files[%d]: %s", i, err))
		}
		files = append(files, file)
	}
	return files, nil
}

func uploadFileFromObject(obj map[string]interface{}) (UploadFile, error) {
	mimeType := stringInput(obj, "mime_type")

	if path := stringInput(obj, "path"); path != "" {
		file, err := readUploadFile(path, mimeType)
		if err != nil {
			return file, err
		}
		if name := stringInput(obj, "file_name"); name != "" {
			file.FileName = name
		}
		return file, nil
	}

	encoded := stringInput(obj, "content_base64")
	if encoded == "" {
		return UploadFile{}, fmt.Errorf("needs path or content_base64")
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return UploadFile{}, fmt.Errorf("invalid content_base64: %w", err)
	}

	name := stringInput(obj, "file_name")
	if mimeType == "" && name != "" {
		mimeType = mime.TypeByExtension(filepath.Ext(name))
	}
	return UploadFile{FileName: name, MimeType: mimeType, Data: data}, nil
}

func readUploadFile(path, mimeType string) (UploadFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return UploadFile{}, err
	}
	name := filepath.Base(path)
	if mimeType == "" {
		mimeType = mime.TypeByExtension(filepath.Ext(name))
	}
	return UploadFile{FileName: name, MimeType: mimeType, Data: data}, nil
}

// intInput reads a positive integer input, returning def when it is absent.
func intInput(inputs map[string]interface{}, key string, def int) (int, error) {
	v, ok := inputs[key]
	if !ok || v == nil || v == "" {
		return def, nil
	}

	var n int
	switch val := v.(type) {
	case int:
		n = val
	case float64:
		n = int(val)
	default:
		parsed, err := strconv.Atoi(strings.TrimSpace(fmt.Sprint(val)))
		if err != nil {
			return 0, invalidInput(fmt.Sprintf("%s must be an integer", key))
		}
		n = parsed
	}
	if n < 1 {
		return 0, invalidInput(fmt.Sprintf("%s must be at least 1", key))
	}
	return n, nil
}

func invalidInput(msg string) error {
	return &operation.Error{Type: operation.ErrorTypeValidation, Message: msg}
}

// fileResult is the connector form of a downloaded file.
func fileResult(f *File) map[string]interface{} {
	return map[string]interface{}{
		"file_id":        f.ID,
		"file_name":      f.FileName,
		"mime_type":      f.MimeType,
		"size":           len(f.Data),
		"content_base64": base64.StdEncoding.EncodeToString(f.Data),
	}
}
