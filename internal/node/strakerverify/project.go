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
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sv "github.com/tombee/strakerverify/internal/integration/strakerverify"
	"github.com/tombee/strakerverify/internal/log"
	"github.com/tombee/strakerverify/internal/node"
)

// createProject uploads one file per input item. Parameters come from
// item 0; the call is made once per run.
func createProject(ctx context.Context, r *run) ([]node.Item, error) {
	items := r.ec.Items
	if len(items) == 0 {
		return nil, nil
	}

	p := r.params
	title, err := p.String("title", 0)
	if err != nil {
		return nil, err
	}
	languages, err := p.StringSlice("languages", 0)
	if err != nil {
		return nil, err
	}
	workflow, err := p.String("workflow", 0, "")
	if err != nil {
		return nil, err
	}
	if workflow == "" {
		if workflow, err = p.String("workflowId", 0, ""); err != nil {
			return nil, err
		}
	}
	callbackURI, err := p.String("callbackUri", 0, "")
	if err != nil {
		return nil, err
	}
	if callbackURI == "" {
		if callbackURI, err = p.String("callbackUrl", 0, ""); err != nil {
			return nil, err
		}
	}
	clientNotes, err := p.String("clientNotes", 0, "")
	if err != nil {
		return nil, err
	}
	binaryProperty, err := p.String("binaryProperty", 0, "data")
	if err != nil {
		return nil, err
	}

	valid, err := r.client.HasWorkflow(ctx, r.env, workflow)
	if err != nil {
		return nil, toAPIError(err, at(0))
	}
	if !valid {
		return nil, node.ItemError(0, "Invalid workflow ID %q. Please select a valid workflow from the dropdown.", workflow)
	}

	files := make([]sv.UploadFile, 0, len(items))
	for i, item := range items {
		b, ok := item.BinaryProperty(binaryProperty)
		if !ok {
			return nil, node.ItemError(i, "Binary data property %q missing on item %d.", binaryProperty, i)
		}
		name := b.FileName
		if name == "" {
			name = fmt.Sprintf("file%d", i)
		}
		mimeType := b.MimeType
		if mimeType == "" {
			mimeType = node.DefaultMimeType
		}
		files = append(files, sv.UploadFile{FileName: name, MimeType: mimeType, Data: b.Data})
	}

	r.logger.Info("creating project",
		slog.String("title", title),
		slog.Int("files", len(files)),
		slog.Int("languages", len(languages)),
	)

	resp, err := r.client.CreateProject(ctx, r.env, sv.CreateProjectRequest{
		Title:       title,
		WorkflowID:  workflow,
		CallbackURI: callbackURI,
		ClientNotes: clientNotes,
		Languages:   languages,
		Files:       files,
	})
	if err != nil {
		return nil, toAPIError(err, nil)
	}

	return []node.Item{node.NewItem(toJSON(resp)).Paired(0)}, nil
}

// confirmProject confirms and polls until the project leaves PENDING_PAYMENT.
func confirmProject(ctx context.Context, r *run, i int) ([]node.Item, error) {
	id, err := r.params.RequiredString("projectId", i)
	if err != nil {
		return nil, err
	}
	maxRetries, err := r.params.Int("maxRetries", i, sv.DefaultPollAttempts)
	if err != nil {
		return nil, err
	}
	waitSeconds, err := r.params.Int("waitSeconds", i, int(sv.DefaultPollInterval/time.Second))
	if err != nil {
		return nil, err
	}
	if maxRetries < 1 {
		return nil, node.ItemError(i, "Parameter %q must be at least 1.", "maxRetries")
	}
	if waitSeconds < 1 {
		return nil, node.ItemError(i, "Parameter %q must be at least 1.", "waitSeconds")
	}

	r.logger.Info("confirming project", slog.String(log.ProjectIDKey, id), slog.Int("max_retries", maxRetries))

	project, err := r.client.ConfirmAndWait(ctx, id, maxRetries, time.Duration(waitSeconds)*r.node.pollUnit)
	if err != nil {
		return nil, toAPIError(err, at(i))
	}
	return []node.Item{node.NewItem(project)}, nil
}

// downloadFiles emits one item per translated file with the decoded bytes
// attached under binaryProperty.
func downloadFiles(ctx context.Context, r *run, i int) ([]node.Item, error) {
	id, err := r.params.RequiredString("projectId", i)
	if err != nil {
		return nil, err
	}
	binaryProperty, err := r.params.String("binaryProperty", i, "data")
	if err != nil {
		return nil, err
	}

	resp, err := r.client.ProjectFiles(ctx, id, r.env)
	if err != nil {
		return nil, toAPIError(err, at(i))
	}

	files, ok := sv.NormalizeList(resp)
	if !ok || len(files) == 0 {
		return nil, node.ItemError(i, "No files returned for the specified project.")
	}

	out := make([]node.Item, 0, len(files))
	for _, f := range files {
		file, _ := f.(map[string]interface{})
		encoded, ok := file["content_base64"].(string)
		if !ok {
			return nil, node.ItemError(i, "File payload is missing %q.", "content_base64")
		}

		data, err := decodeBase64(encoded)
		if err != nil {
			return nil, &node.OperationError{
				Message:   fmt.Sprintf("File payload %q is not valid base64.", "content_base64"),
				ItemIndex: at(i),
				Cause:     err,
			}
		}

		name, _ := file["filename"].(string)
		if name == "" {
			name = "file"
		}

		rest := make(map[string]interface{}, len(file))
		for k, v := range file {
			if k == "content_base64" || k == "filename" {
				continue
			}
			rest[k] = v
		}

		out = append(out, node.NewItem(rest).WithBinary(binaryProperty, node.NewBinaryData(data, name, "")))
	}

	r.logger.Debug("downloaded project files", slog.String(log.ProjectIDKey, id), slog.Int("files", len(out)))
	return out, nil
}

// decodeBase64 accepts padded and unpadded input and ignores whitespace.
func decodeBase64(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, s)
	if data, err := base64.StdEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}

func getProject(ctx context.Context, r *run, i int) ([]node.Item, error) {
	id, err := r.params.RequiredString("projectId", i)
	if err != nil {
		return nil, err
	}
	project, err := r.client.GetProject(ctx, id)
	if err != nil {
		return nil, toAPIError(err, at(i))
	}
	return []node.Item{node.NewItem(project)}, nil
}

func listProjects(ctx context.Context, r *run, i int) ([]node.Item, error) {
	resp, err := r.client.ListProjects(ctx)
	if err != nil {
		return nil, toAPIError(err, at(i))
	}
	return fanOut(resp), nil
}

func getSegments(ctx context.Context, r *run, i int) ([]node.Item, error) {
	id, err := r.params.RequiredString("projectId", i)
	if err != nil {
		return nil, err
	}
	fileID, err := r.params.RequiredString("fileId", i)
	if err != nil {
		return nil, err
	}
	languageID, err := r.params.RequiredString("languageId", i)
	if err != nil {
		return nil, err
	}

	resp, err := r.client.GetSegments(ctx, id, fileID, languageID)
	if err != nil {
		return nil, toAPIError(err, at(i))
	}
	return fanOut(resp), nil
}
