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
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/tombee/strakerverify/internal/operation"
)

// CreateProject uploads files and creates a project in env.
func (c *Integration) CreateProject(ctx context.Context, env string, req CreateProjectRequest) (interface{}, error) {
	body, contentType, err := encodeProjectForm(req)
	if err != nil {
		return nil, &Error{Message: "Failed to create project.", Cause: err}
	}

	query := envQuery(env)
	query.Set("app_source", AppSource)

	c.logger.Debug("creating project",
		"title", req.Title,
		"workflow_id", req.WorkflowID,
		"languages", len(req.Languages),
		"files", len(req.Files),
	)

	resp, err := c.do(ctx, "project.create", "POST", "/project", nil, query,
		map[string]string{"Content-Type": contentType}, body, "Failed to create project.")
	if err != nil {
		return nil, err
	}

	var out interface{}
	if err := c.ParseJSONResponse(resp, &out); err != nil {
		return nil, &Error{StatusCode: resp.StatusCode, Message: "Failed to create project.", Cause: err}
	}
	if out == nil {
		out = map[string]interface{}{}
	}
	return out, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// encodeProjectForm writes the multipart body of POST /project. Every
// language and file is a repeated field.
func encodeProjectForm(req CreateProjectRequest) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := []struct{ name, value string }{
		{"title", req.Title},
		{"workflow_id", req.WorkflowID},
		{"callback_uri", req.CallbackURI},
		{"client_notes", req.ClientNotes},
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", f.name, err)
		}
	}

	for _, lang := range req.Languages {
		if err := w.WriteField("languages", lang); err != nil {
			return nil, "", fmt.Errorf("failed to write languages: %w", err)
		}
	}

	for i, file := range req.Files {
		fileName := file.FileName
		if fileName == "" {
			fileName = fmt.Sprintf("file%d", i)
		}
		mimeType := file.MimeType
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename="%s"`, quoteEscaper.Replace(fileName)))
		h.Set("Content-Type", mimeType)

		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create file part %s: %w", fileName, err)
		}
		if _, err := part.Write(file.Data); err != nil {
			return nil, "", fmt.Errorf("failed to write file %s: %w", fileName, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize form: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// GetProject returns GET /project/{id}: {"data": {...}, "token_cost": n}.
func (c *Integration) GetProject(ctx context.Context, id string) (map[string]interface{}, error) {
	out, _, err := c.getJSON(ctx, "project.get", "/project/{id}", map[string]string{"id": id}, nil, "Failed to fetch project.")
	if err != nil {
		return nil, err
	}
	m, ok := out.(map[string]interface{})
	if !ok {
		return nil, &Error{Message: "Unexpected project response.", Type: operation.ErrorTypeValidation}
	}
	return m, nil
}

// ListProjects returns GET /project as decoded JSON.
func (c *Integration) ListProjects(ctx context.Context) (interface{}, error) {
	out, _, err := c.getJSON(ctx, "project.getAll", "/project", nil, nil, "Failed to fetch projects.")
	return out, err
}

// ConfirmProject posts POST /project/{id}/confirm.
func (c *Integration) ConfirmProject(ctx context.Context, id string) (interface{}, error) {
	resp, err := c.do(ctx, "project.confirm", "POST", "/project/{id}/confirm", map[string]string{"id": id}, nil, nil, nil, "Failed to confirm project.")
	if err != nil {
		return nil, err
	}

	var out interface{}
	if err := c.ParseJSONResponse(resp, &out); err != nil {
		return nil, &Error{StatusCode: resp.StatusCode, Message: "Failed to confirm project.", Cause: err}
	}
	return out, nil
}

// GetSegments returns the segments of one file in one target language.
func (c *Integration) GetSegments(ctx context.Context, projectID, fileID, languageID string) (interface{}, error) {
	params := map[string]string{"id": projectID, "file_id": fileID, "language_id": languageID}
	out, _, err := c.getJSON(ctx, "project.getSegments", "/project/{id}/segments/{file_id}/{language_id}", params, nil, "Failed to fetch segments.")
	return out, err
}

// ProjectFiles returns GET /project/{id}/files in env as decoded JSON. Each
// entry carries the file bytes in content_base64.
func (c *Integration) ProjectFiles(ctx context.Context, id, env string) (interface{}, error) {
	out, _, err := c.getJSON(ctx, "project.files", "/project/{id}/files", map[string]string{"id": id}, envQuery(env), "Failed to download project files.")
	return out, err
}
