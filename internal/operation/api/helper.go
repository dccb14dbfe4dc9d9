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

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/tombee/strakerverify/internal/operation"
	"github.com/tombee/strakerverify/internal/operation/transport"
)

// BaseProvider carries the transport, base URL and token of a REST client.
type BaseProvider struct {
	name      string
	transport transport.Transport
	baseURL   string
	token     string
}

// NewBaseProvider creates a BaseProvider from config.
func NewBaseProvider(name string, config *ProviderConfig) *BaseProvider {
	return &BaseProvider{
		name:      name,
		transport: config.Transport,
		baseURL:   strings.TrimRight(config.BaseURL, "/"),
		token:     config.Token,
	}
}

// Name returns the provider identifier.
func (c *BaseProvider) Name() string {
	return c.name
}

// BaseURL returns the API root.
func (c *BaseProvider) BaseURL() string {
	return c.baseURL
}

// BuildURL substitutes {placeholders} in pathTemplate with the escaped
// values from params, appends query and prefixes the base URL. Values that
// contain traversal sequences are rejected.
func (c *BaseProvider) BuildURL(pathTemplate string, params map[string]string, query url.Values) (string, error) {
	path := pathTemplate

	for key, value := range params {
		placeholder := "{" + key + "}"
		if !strings.Contains(path, placeholder) {
			continue
		}
		if value == "" {
			return "", fmt.Errorf("missing required parameter: %s", key)
		}
		if err := operation.ValidatePathParameter(key, value); err != nil {
			return "", err
		}
		path = strings.ReplaceAll(path, placeholder, url.PathEscape(value))
	}

	if start := strings.Index(path, "{"); start >= 0 {
		if end := strings.Index(path[start:], "}"); end > 0 {
			return "", fmt.Errorf("missing required parameter: %s", path[start+1:start+end])
		}
	}

	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}
	return fullURL, nil
}

// ExecuteRequest sends an authenticated request. operationName tags the
// request for tracing.
func (c *BaseProvider) ExecuteRequest(ctx context.Context, operationName, method, url string, headers map[string]string, body []byte) (*transport.Response, error) {
	if headers == nil {
		headers = make(map[string]string)
	}
	if c.token != "" {
		headers["Authorization"] = "Bearer " + c.token
	}

	req := &transport.Request{
		Method:   method,
		URL:      url,
		Headers:  headers,
		Body:     body,
		Metadata: map[string]interface{}{transport.MetadataOperation: operationName},
	}

	return c.transport.Execute(ctx, req)
}

// ParseJSONResponse decodes the response body into target. An empty body
// leaves target untouched.
func (c *BaseProvider) ParseJSONResponse(resp *transport.Response, target interface{}) error {
	if len(resp.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, target); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", c.name, err)
	}
	return nil
}

// ToResult wraps a decoded response in an operation.Result.
func (c *BaseProvider) ToResult(resp *transport.Response, response interface{}) *operation.Result {
	return &operation.Result{
		Response:    response,
		RawResponse: resp.Body,
		StatusCode:  resp.StatusCode,
		Headers:     resp.Headers,
		Metadata:    resp.Metadata,
	}
}

// ValidateRequired returns an error naming the first missing input.
func (c *BaseProvider) ValidateRequired(inputs map[string]interface{}, required []string) error {
	for _, param := range required {
		v, ok := inputs[param]
		if !ok || v == nil {
			return missingParameter(param)
		}
		if s, isString := v.(string); isString && s == "" {
			return missingParameter(param)
		}
	}
	return nil
}

func missingParameter(name string) error {
	return &operation.Error{
		Type:    operation.ErrorTypeValidation,
		Message: fmt.Sprintf("missing required parameter: %s", name),
	}
}
