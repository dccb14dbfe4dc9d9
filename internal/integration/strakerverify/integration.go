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

// Package strakerverify is a typed client for the Straker Verify REST API.
// It is also registered as an operation.Connector so its operations can be
// run by name.
package strakerverify

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/tombee/strakerverify/internal/operation"
	"github.com/tombee/strakerverify/internal/operation/api"
	"github.com/tombee/strakerverify/internal/operation/transport"
)

// Integration talks to one Verify account.
type Integration struct {
	*api.BaseProvider
	logger *slog.Logger
}

// NewStrakerVerifyIntegration is the registry factory.
func NewStrakerVerifyIntegration(config *api.ProviderConfig) (operation.Connector, error) {
	return New(config, nil)
}

// New creates a client. A nil logger discards client-side logs.
func New(config *api.ProviderConfig, logger *slog.Logger) (*Integration, error) {
	if config == nil {
		return nil, fmt.Errorf("straker verify integration requires configuration")
	}
	if config.Transport == nil {
		return nil, fmt.Errorf("straker verify integration requires a transport")
	}
	if config.Token == "" {
		return nil, fmt.Errorf("straker verify integration requires an API key")
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Integration{
		BaseProvider: api.NewBaseProvider("strakerverify", config),
		logger:       logger,
	}, nil
}

// envQuery returns the environment query, defaulting to production.
func envQuery(env string) url.Values {
	if env == "" {
		env = EnvironmentProduction
	}
	return url.Values{"environment": {env}}
}

// do sends one request, records metrics and maps failures to *Error.
func (c *Integration) do(ctx context.Context, op, method, path string, params map[string]string, query url.Values, headers map[string]string, body []byte, fallback string) (*transport.Response, error) {
	fullURL, err := c.BuildURL(path, params, query)
	if err != nil {
		return nil, ParseError(err, fallback)
	}

	start := time.Now()
	resp, err := c.ExecuteRequest(ctx, op, method, fullURL, headers, body)
	duration := time.Since(start)

	if err != nil {
		verr := ParseError(err, fallback).(*Error)
		operation.RecordRequest(op, verr.StatusCode, duration)
		operation.RecordError(op, verr.Type)
		c.logger.Debug("verify request failed",
			"operation", op,
			"status", verr.StatusCode,
			"request_id", verr.RequestID,
			"error", verr.Message,
		)
		return nil, verr
	}

	operation.RecordRequest(op, resp.StatusCode, duration)
	return resp, nil
}

// getJSON performs a GET and decodes the body into a generic value.
func (c *Integration) getJSON(ctx context.Context, op, path string, params map[string]string, query url.Values, fallback string) (interface{}, *transport.Response, error) {
	resp, err := c.do(ctx, op, "GET", path, params, query, nil, nil, fallback)
	if err != nil {
		return nil, nil, err
	}

	var out interface{}
	if err := c.ParseJSONResponse(resp, &out); err != nil {
		return nil, nil, &Error{StatusCode: resp.StatusCode, Message: err.Error(), Type: operation.ErrorTypeValidation, Cause: err}
	}
	return out, resp, nil
}

// TestCredentials calls GET /languages to check the API key.
func (c *Integration) TestCredentials(ctx context.Context) error {
	_, err := c.do(ctx, "credentials.test", "GET", "/languages", nil, nil, nil, nil, "Failed to authenticate with Straker Verify.")
	return err
}

// Execute runs a named operation with the given inputs.
func (c *Integration) Execute(ctx context.Context, op string, inputs map[string]interface{}) (*operation.Result, error) {
	switch op {
	// Languages
	case "language.getAll":
		return c.executeRead(ctx, func() (interface{}, error) { return c.ListLanguages(ctx) })
	case "language.getProjectLanguages":
		return c.executeRead(ctx, func() (interface{}, error) {
			return c.ListProjectLanguages(ctx, stringInput(inputs, "environment"))
		})

	// Workflows
	case "workflow.getAll":
		return c.executeRead(ctx, func() (interface{}, error) { return c.ListWorkflows(ctx) })
	case "workflow.getOne":
		if err := c.ValidateRequired(inputs, []string{"workflow_id"}); err != nil {
			return nil, err
		}
		return c.executeRead(ctx, func() (interface{}, error) {
			return c.GetWorkflow(ctx, stringInput(inputs, "workflow_id"))
		})
	case "workflow.getProjectWorkflows":
		return c.executeRead(ctx, func() (interface{}, error) {
			return c.ListProjectWorkflows(ctx, stringInput(inputs, "environment"))
		})

	// Projects
	case "project.create":
		req, err := c.createProjectInput(inputs)
		if err != nil {
			return nil, err
		}
		return c.executeRead(ctx, func() (interface{}, error) {
			return c.CreateProject(ctx, stringInput(inputs, "environment"), req)
		})
	case "project.confirmAndWait":
		if err := c.ValidateRequired(inputs, []string{"project_id"}); err != nil {
			return nil, err
		}
		attempts, err := intInput(inputs, "max_attempts", DefaultPollAttempts)
		if err != nil {
			return nil, err
		}
		waitSeconds, err := intInput(inputs, "wait_seconds", int(DefaultPollInterval/time.Second))
		if err != nil {
			return nil, err
		}
		return c.executeRead(ctx, func() (interface{}, error) {
			return c.ConfirmAndWait(ctx, stringInput(inputs, "project_id"), attempts, time.Duration(waitSeconds)*time.Second)
		})
	case "project.get":
		if err := c.ValidateRequired(inputs, []string{"project_id"}); err != nil {
			return nil, err
		}
		return c.executeRead(ctx, func() (interface{}, error) {
			return c.GetProject(ctx, stringInput(inputs, "project_id"))
		})
	case "project.getAll":
		return c.executeRead(ctx, func() (interface{}, error) { return c.ListProjects(ctx) })
	case "project.confirm":
		if err := c.ValidateRequired(inputs, []string{"project_id"}); err != nil {
			return nil, err
		}
		return c.executeRead(ctx, func() (interface{}, error) {
			return c.ConfirmProject(ctx, stringInput(inputs, "project_id"))
		})
	case "project.getSegments":
		if err := c.ValidateRequired(inputs, []string{"project_id", "file_id", "language_id"}); err != nil {
			return nil, err
		}
		return c.executeRead(ctx, func() (interface{}, error) {
			return c.GetSegments(ctx, stringInput(inputs, "project_id"), stringInput(inputs, "file_id"), stringInput(inputs, "language_id"))
		})
	case "project.files":
		if err := c.ValidateRequired(inputs, []string{"project_id"}); err != nil {
			return nil, err
		}
		return c.executeRead(ctx, func() (interface{}, error) {
			return c.ProjectFiles(ctx, stringInput(inputs, "project_id"), stringInput(inputs, "environment"))
		})

	// Keys
	case "key.create":
		return c.executeRead(ctx, func() (interface{}, error) {
			return c.CreateKey(ctx, CreateKeyRequest{
				Description: stringInput(inputs, "description"),
				ExpiryDate:  stringInput(inputs, "expiry_date"),
			})
		})
	case "key.get":
		if err := c.ValidateRequired(inputs, []string{"key_id"}); err != nil {
			return nil, err
		}
		return c.executeRead(ctx, func() (interface{}, error) { return c.GetKey(ctx, stringInput(inputs, "key_id")) })
	case "key.getAll":
		return c.executeRead(ctx, func() (interface{}, error) { return c.ListKeys(ctx) })

	// Users
	case "user.getBalance":
		return c.executeRead(ctx, func() (interface{}, error) { return c.Balance(ctx) })

	// Files
	case "file.get":
		if err := c.ValidateRequired(inputs, []string{"file_id"}); err != nil {
			return nil, err
		}
		return c.executeRead(ctx, func() (interface{}, error) {
			file, err := c.GetFile(ctx, stringInput(inputs, "file_id"))
			if err != nil {
				return nil, err
			}
			return fileResult(file), nil
		})

	default:
		return nil, operation.NewNotImplementedError(c.Name(), op)
	}
}

func (c *Integration) executeRead(ctx context.Context, fn func() (interface{}, error)) (*operation.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := fn()
	if err != nil {
		return nil, err
	}
	return &operation.Result{Response: out, StatusCode: 200}, nil
}

// Operations returns the list of available operations.
func (c *Integration) Operations() []api.OperationInfo {
	return []api.OperationInfo{
		// Languages
		{Name: "language.getAll", Description: "List all languages", Category: "languages", Tags: []string{"read"}},
		{Name: "language.getProjectLanguages", Description: "List languages available for new projects", Category: "languages", Tags: []string{"read"}},

		// Workflows
		{Name: "workflow.getAll", Description: "List workflows", Category: "workflows", Tags: []string{"read"}},
		{Name: "workflow.getOne", Description: "Get a workflow", Category: "workflows", Tags: []string{"read"}},
		{Name: "workflow.getProjectWorkflows", Description: "List workflows available for new projects", Category: "workflows", Tags: []string{"read"}},

		// Projects
		{Name: "project.create", Description: "Upload files and create a project", Category: "projects", Tags: []string{"write"}},
		{Name: "project.confirmAndWait", Description: "Confirm a project and wait until it leaves pending payment", Category: "projects", Tags: []string{"write"}},
		{Name: "project.get", Description: "Get project details", Category: "projects", Tags: []string{"read"}},
		{Name: "project.getAll", Description: "List projects", Category: "projects", Tags: []string{"read"}},
		{Name: "project.confirm", Description: "Confirm a project for processing", Category: "projects", Tags: []string{"write"}},
		{Name: "project.getSegments", Description: "Get translated segments of a project file", Category: "projects", Tags: []string{"read"}},
		{Name: "project.files", Description: "Get translated project files as base64", Category: "projects", Tags: []string{"read"}},

		// Keys
		{Name: "key.create", Description: "Create an API key", Category: "keys", Tags: []string{"write"}},
		{Name: "key.get", Description: "Get an API key", Category: "keys", Tags: []string{"read"}},
		{Name: "key.getAll", Description: "List API keys", Category: "keys", Tags: []string{"read"}},

		// Users
		{Name: "user.getBalance", Description: "Get the token balance", Category: "users", Tags: []string{"read"}},

		// Files
		{Name: "file.get", Description: "Download a file as base64", Category: "files", Tags: []string{"read"}},
	}
}

// OperationSchema returns the schema for an operation.
func (c *Integration) OperationSchema(op string) *api.OperationSchema {
	schema, ok := operationSchemas[op]
	if !ok {
		return nil
	}
	return &schema
}

var operationSchemas = map[string]api.OperationSchema{
	"workflow.getOne": {
		Description: "Get a workflow",
		Parameters:  []api.ParameterInfo{{Name: "workflow_id", Type: "string", Required: true}},
	},
	"project.create": {
		Description: "Upload files and create a project",
		Parameters: []api.ParameterInfo{
			{Name: "title", Type: "string", Required: true},
			{Name: "workflow_id", Type: "string", Required: true},
			{Name: "languages", Type: "array", Required: true, Description: "Target language ids, comma separated or repeated"},
			{Name: "files", Type: "binary", Required: true, Description: "File paths, or objects with path or content_base64 and file_name"},
			{Name: "callback_uri", Type: "string"},
			{Name: "client_notes", Type: "string"},
			{Name: "environment", Type: "string", Default: EnvironmentProduction},
		},
		ResponseFields: []api.ResponseFieldInfo{{Name: "project_id", Type: "string"}, {Name: "message", Type: "string"}},
	},
	"project.confirmAndWait": {
		Description: "Confirm a project and wait until it leaves pending payment",
		Parameters: []api.ParameterInfo{
			{Name: "project_id", Type: "string", Required: true},
			{Name: "max_attempts", Type: "integer", Default: DefaultPollAttempts},
			{Name: "wait_seconds", Type: "integer", Default: int(DefaultPollInterval / time.Second)},
		},
	},
	"file.get": {
		Description: "Download a file as base64",
		Parameters:  []api.ParameterInfo{{Name: "file_id", Type: "string", Required: true}},
		ResponseFields: []api.ResponseFieldInfo{
			{Name: "file_id", Type: "string"},
			{Name: "file_name", Type: "string"},
			{Name: "mime_type", Type: "string"},
			{Name: "size", Type: "integer"},
			{Name: "content_base64", Type: "string"},
		},
	},
	"project.get": {
		Description:    "Get project details",
		Parameters:     []api.ParameterInfo{{Name: "project_id", Type: "string", Required: true}},
		ResponseFields: []api.ResponseFieldInfo{{Name: "data", Type: "object"}, {Name: "token_cost", Type: "number"}},
	},
	"project.confirm": {
		Description: "Confirm a project for processing",
		Parameters:  []api.ParameterInfo{{Name: "project_id", Type: "string", Required: true}},
	},
	"project.getSegments": {
		Description: "Get translated segments of a project file",
		Parameters: []api.ParameterInfo{
			{Name: "project_id", Type: "string", Required: true},
			{Name: "file_id", Type: "string", Required: true},
			{Name: "language_id", Type: "string", Required: true},
		},
	},
	"project.files": {
		Description: "Get translated project files as base64",
		Parameters: []api.ParameterInfo{
			{Name: "project_id", Type: "string", Required: true},
			{Name: "environment", Type: "string", Default: EnvironmentProduction},
		},
	},
	"key.create": {
		Description: "Create an API key",
		Parameters: []api.ParameterInfo{
			{Name: "description", Type: "string"},
			{Name: "expiry_date", Type: "string", Description: "RFC 3339 timestamp"},
		},
	},
	"key.get": {
		Description: "Get an API key",
		Parameters:  []api.ParameterInfo{{Name: "key_id", Type: "string", Required: true}},
	},
}

func stringInput(inputs map[string]interface{}, key string) string {
	v, ok := inputs[key]
	if !ok || v == nil {
		return ""
	}
	if s, isString := v.(string); isString {
		return s
	}
	return fmt.Sprint(v)
}
