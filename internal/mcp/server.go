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

// Package mcp exposes the Straker Verify API client operations as MCP tools,
// so an assistant can drive Verify the way a workflow drives the node.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tombee/strakerverify/internal/integration"
	"github.com/tombee/strakerverify/internal/operation"
	"github.com/tombee/strakerverify/internal/operation/api"
)

// ToolPrefix starts every tool name.
const ToolPrefix = "verify_"

// Executor runs "<integration>.<operation>" references.
type Executor interface {
	Execute(ctx context.Context, reference string, inputs map[string]interface{}) (*operation.Result, error)
}

// Config configures the MCP server.
type Config struct {
	// Name is the server name (default: "strakerverify")
	Name string

	// Version is reported to clients (default: "dev")
	Version string

	// Integration is the registry name the operations belong to
	Integration string

	// Catalogue lists the operations to expose
	Catalogue integration.OperationLister

	// Executor runs the tool calls
	Executor Executor

	// Environment fills the "environment" input when a call omits it
	Environment string

	Logger *slog.Logger
}

// Server is an MCP server with one tool per catalogue operation.
type Server struct {
	mcpServer *server.MCPServer
	name      string
	version   string
	logger    *slog.Logger

	// tools maps tool names to operation names
	tools map[string]string
}

// NewServer registers a tool for every operation in the catalogue.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Catalogue == nil {
		return nil, fmt.Errorf("mcp server requires an operation catalogue")
	}
	if cfg.Executor == nil {
		return nil, fmt.Errorf("mcp server requires an executor")
	}
	if cfg.Name == "" {
		cfg.Name = "strakerverify"
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	if cfg.Integration == "" {
		cfg.Integration = "strakerverify"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	s := &Server{
		mcpServer: server.NewMCPServer(cfg.Name, cfg.Version, server.WithToolCapabilities(false)),
		name:      cfg.Name,
		version:   cfg.Version,
		logger:    cfg.Logger,
		tools:     make(map[string]string),
	}

	ops := cfg.Catalogue.Operations()
	sort.Slice(ops, func(i, j int) bool { return ops[i].Name < ops[j].Name })
	for _, op := range ops {
		name := ToolName(op.Name)
		if prev, dup := s.tools[name]; dup {
			return nil, fmt.Errorf("operations %q and %q map to the same tool %q", prev, op.Name, name)
		}
		s.tools[name] = op.Name

		tool := buildTool(name, op, cfg.Catalogue.OperationSchema(op.Name))
		s.mcpServer.AddTool(tool, s.handler(cfg.Executor, cfg.Integration+"."+op.Name, cfg.Environment))
	}

	return s, nil
}

// ToolName turns "project.getSegments" into "verify_project_getSegments".
func ToolName(op string) string {
	return ToolPrefix + strings.ReplaceAll(op, ".", "_")
}

// Tools returns the registered tool names, sorted.
func (s *Server) Tools() []string {
	names := make([]string, 0, len(s.tools))
	for name := range s.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Serve speaks MCP over in/out until the client disconnects or ctx ends.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.Info("starting MCP server", slog.String("version", s.version), slog.Int("tools", len(s.tools)))

	err := server.NewStdioServer(s.mcpServer).Listen(ctx, in, out)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
		return fmt.Errorf("MCP server error: %w", err)
	}
	s.logger.Info("MCP server stopped")
	return nil
}

// HandleMessage processes one JSON-RPC message without a transport.
func (s *Server) HandleMessage(ctx context.Context, msg json.RawMessage) mcp.JSONRPCMessage {
	return s.mcpServer.HandleMessage(ctx, msg)
}

func buildTool(name string, op api.OperationInfo, schema *api.OperationSchema) mcp.Tool {
	description := op.Description
	if schema != nil && schema.Description != "" {
		description = schema.Description
	}

	tool := mcp.Tool{
		Name:        name,
		Description: description,
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
	if schema == nil {
		return tool
	}

	for _, p := range schema.Parameters {
		tool.InputSchema.Properties[p.Name] = propertySchema(p)
		if p.Required {
			tool.InputSchema.Required = append(tool.InputSchema.Required, p.Name)
		}
	}
	return tool
}

// propertySchema maps a parameter to JSON Schema. Binary parameters take
// a list of paths or {path|content_base64, file_name, mime_type} objects.
func propertySchema(p api.ParameterInfo) map[string]interface{} {
	prop := map[string]interface{}{}
	switch p.Type {
	case "array":
		prop["type"] = "array"
		prop["items"] = map[string]interface{}{"type": "string"}
	case "binary":
		prop["type"] = "array"
		prop["items"] = map[string]interface{}{
			"anyOf": []interface{}{
				map[string]interface{}{"type": "string", "description": "Local file path"},
				map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"path":           map[string]interface{}{"type": "string"},
						"content_base64": map[string]interface{}{"type": "string"},
						"file_name":      map[string]interface{}{"type": "string"},
						"mime_type":      map[string]interface{}{"type": "string"},
					},
				},
			},
		}
	case "":
		prop["type"] = "string"
	default:
		prop["type"] = p.Type
	}

	if p.Description != "" {
		prop["description"] = p.Description
	}
	if p.Default != nil {
		prop["default"] = p.Default
	}
	return prop
}

func (s *Server) handler(exec Executor, reference, environment string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		inputs := make(map[string]interface{})
		for k, v := range request.GetArguments() {
			inputs[k] = v
		}
		if _, ok := inputs["environment"]; !ok && environment != "" {
			inputs["environment"] = environment
		}

		s.logger.Debug("tool call", "reference", reference, "inputs", len(inputs))

		result, err := exec.Execute(ctx, reference, inputs)
		if err != nil {
			s.logger.Warn("tool call failed", "reference", reference, "error", err)
			return mcp.NewToolResultError(err.Error()), nil
		}

		if result == nil || result.Response == nil {
			return mcp.NewToolResultText("{}"), nil
		}
		data, err := json.MarshalIndent(result.Response, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to encode response: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}
