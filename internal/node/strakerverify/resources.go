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

	sv "github.com/tombee/strakerverify/internal/integration/strakerverify"
	"github.com/tombee/strakerverify/internal/node"
)

func listLanguages(ctx context.Context, r *run, i int) ([]node.Item, error) {
	resp, err := r.client.ListLanguages(ctx)
	if err != nil {
		return nil, toAPIError(err, at(i))
	}
	return fanOut(resp), nil
}

func listWorkflows(ctx context.Context, r *run, i int) ([]node.Item, error) {
	resp, err := r.client.ListWorkflows(ctx)
	if err != nil {
		return nil, toAPIError(err, at(i))
	}
	return fanOut(resp), nil
}

func getWorkflow(ctx context.Context, r *run, i int) ([]node.Item, error) {
	id, err := r.params.RequiredString("workflowId", i)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.GetWorkflow(ctx, id)
	if err != nil {
		return nil, toAPIError(err, at(i))
	}
	return []node.Item{node.NewItem(toJSON(resp))}, nil
}

func createKey(ctx context.Context, r *run, i int) ([]node.Item, error) {
	fields, err := r.params.Map("additionalFields", i)
	if err != nil {
		return nil, err
	}

	req := sv.CreateKeyRequest{}
	if v, ok := fields["description"].(string); ok {
		req.Description = v
	}
	if v, ok := fields["expiryDate"].(string); ok {
		req.ExpiryDate = v
	}

	resp, err := r.client.CreateKey(ctx, req)
	if err != nil {
		return nil, toAPIError(err, at(i))
	}
	return []node.Item{node.NewItem(toJSON(resp))}, nil
}

func getKey(ctx context.Context, r *run, i int) ([]node.Item, error) {
	id, err := r.params.RequiredString("keyId", i)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.GetKey(ctx, id)
	if err != nil {
		return nil, toAPIError(err, at(i))
	}
	return []node.Item{node.NewItem(toJSON(resp))}, nil
}

func listKeys(ctx context.Context, r *run, i int) ([]node.Item, error) {
	resp, err := r.client.ListKeys(ctx)
	if err != nil {
		return nil, toAPIError(err, at(i))
	}
	return fanOut(resp), nil
}

func getBalance(ctx context.Context, r *run, i int) ([]node.Item, error) {
	resp, err := r.client.Balance(ctx)
	if err != nil {
		return nil, toAPIError(err, at(i))
	}
	return []node.Item{node.NewItem(toJSON(resp))}, nil
}

// getFile downloads a raw file into binaryProperty.
func getFile(ctx context.Context, r *run, i int) ([]node.Item, error) {
	id, err := r.params.RequiredString("fileId", i)
	if err != nil {
		return nil, err
	}
	binaryProperty, err := r.params.String("binaryProperty", i, "data")
	if err != nil {
		return nil, err
	}

	file, err := r.client.GetFile(ctx, id)
	if err != nil {
		return nil, toAPIError(err, at(i))
	}

	item := node.NewItem(map[string]interface{}{
		"fileId":   file.ID,
		"fileName": file.FileName,
		"mimeType": file.MimeType,
		"size":     len(file.Data),
	})
	return []node.Item{item.WithBinary(binaryProperty, node.NewBinaryData(file.Data, file.FileName, file.MimeType))}, nil
}
