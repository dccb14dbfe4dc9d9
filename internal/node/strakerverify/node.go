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

// Package strakerverify is the Straker Verify node: it maps
// resource/operation parameters onto the Verify API and reshapes responses
// into items.
package strakerverify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sv "github.com/tombee/strakerverify/internal/integration/strakerverify"
	"github.com/tombee/strakerverify/internal/log"
	"github.com/tombee/strakerverify/internal/node"
	"github.com/tombee/strakerverify/internal/operation/api"
	"github.com/tombee/strakerverify/internal/operation/transport"
)

func init() {
	node.Register(NodeName, New)
}

// Node implements node.Type.
type Node struct {
	settings    node.Settings
	description *node.Description

	// pollUnit scales waitSeconds
	pollUnit time.Duration
}

// New creates the node.
func New(settings node.Settings) (node.Type, error) {
	return newNode(settings), nil
}

func newNode(settings node.Settings) *Node {
	if settings.Logger == nil {
		settings.Logger = log.Discard()
	}
	return &Node{
		settings:    settings,
		description: NodeDescription(),
		pollUnit:    time.Second,
	}
}

// Description implements node.Type.
func (n *Node) Description() *node.Description {
	return n.description
}

// client builds an API client for creds.
func (n *Node) client(creds *node.Credentials) (*sv.Integration, error) {
	if creds == nil || creds.APIKey == "" {
		return nil, node.NewOperationError("Credentials %q are required.", CredentialName)
	}

	baseURL := creds.BaseURL
	if baseURL == "" {
		baseURL = sv.DefaultBaseURL
	}

	tr := n.settings.Transport
	if tr == nil {
		timeout := n.settings.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpTransport, err := transport.NewHTTPTransport(&transport.HTTPTransportConfig{
			BaseURL:     baseURL,
			Timeout:     timeout,
			UserAgent:   n.settings.UserAgent,
			RetryConfig: n.settings.Retry,
			Logger:      log.WithComponent(n.settings.Logger, "http"),
		})
		if err != nil {
			return nil, fmt.Errorf("creating transport: %w", err)
		}
		if limiter := transport.NewRateLimiter(n.settings.RateLimit, n.settings.Burst); limiter != nil {
			httpTransport.SetRateLimiter(limiter)
		}
		tr = httpTransport
	}

	return sv.New(&api.ProviderConfig{
		Transport: tr,
		BaseURL:   baseURL,
		Token:     creds.APIKey,
	}, log.WithComponent(n.settings.Logger, "client"))
}

// itemHandler runs one operation for input item i.
type itemHandler func(ctx context.Context, r *run, i int) ([]node.Item, error)

// run is the state of one Execute call.
type run struct {
	client *sv.Integration
	ec     *node.ExecuteContext
	params *node.Parameters
	env    string
	logger *slog.Logger
	node   *Node
}

var handlers = map[string]itemHandler{
	"project.confirm":       confirmProject,
	"project.downloadFiles": downloadFiles,
	"project.get":           getProject,
	"project.getAll":        listProjects,
	"project.getSegments":   getSegments,
	"language.getAll":       listLanguages,
	"workflow.getAll":       listWorkflows,
	"workflow.getOne":       getWorkflow,
	"key.create":            createKey,
	"key.get":               getKey,
	"key.getAll":            listKeys,
	"user.getBalance":       getBalance,
	"file.get":              getFile,
}

// operationAliases maps older operation names onto current ones.
var operationAliases = map[string]string{
	"language.list": "language.getAll",
	"workflow.list": "workflow.getAll",
}

// Execute implements node.Type. Resource and operation are read from item 0.
func (n *Node) Execute(ctx context.Context, ec *node.ExecuteContext) ([][]node.Item, error) {
	if ec.Params == nil {
		ec.Params = node.NewParameters(nil, ec.Items)
	}
	ec.Params.ApplyDefaults(n.description.Properties)

	resource, err := ec.Params.String("resource", 0, "project")
	if err != nil {
		return nil, err
	}
	op, err := ec.Params.String("operation", 0)
	if err != nil {
		return nil, err
	}

	key := resource + "." + op
	if alias, ok := operationAliases[key]; ok {
		key = alias
	}

	logger := ec.Logger
	if logger == nil {
		logger = n.settings.Logger
	}
	logger = log.WithNodeContext(logger, NodeName, resource, op)

	handler, perItem := handlers[key]
	if !perItem && key != "project.create" {
		return nil, node.NewOperationError("The operation %q is not supported for resource %q.", op, resource)
	}

	client, err := n.client(ec.Credentials)
	if err != nil {
		return nil, err
	}

	r := &run{
		client: client,
		ec:     ec,
		params: ec.Params,
		env:    ec.Credentials.Environment,
		logger: logger,
		node:   n,
	}
	if r.env == "" {
		r.env = sv.EnvironmentProduction
	}

	start := time.Now()
	var out []node.Item
	if key == "project.create" {
		out, err = createProject(ctx, r)
		if err != nil {
			if !ec.ContinueOnFail {
				return nil, err
			}
			out = []node.Item{errorItem(err, 0)}
		}
	} else {
		out, err = r.eachItem(ctx, handler)
		if err != nil {
			return nil, err
		}
	}

	logger.Debug("node executed",
		slog.Int("input_items", len(ec.Items)),
		slog.Int("output_items", len(out)),
		slog.Int64(log.DurationKey, time.Since(start).Milliseconds()),
	)
	return [][]node.Item{out}, nil
}

// eachItem runs h for every input item, pairing outputs with their input.
func (r *run) eachItem(ctx context.Context, h itemHandler) ([]node.Item, error) {
	var out []node.Item
	mw := log.NewItemMiddleware(r.logger)
	for i := range r.ec.Items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var items []node.Item
		err := mw.Handler(ctx, i, func() (int, error) {
			var err error
			items, err = h(ctx, r, i)
			return len(items), err
		})
		if err != nil {
			if r.ec.ContinueOnFail {
				out = append(out, errorItem(err, i))
				continue
			}
			return nil, err
		}
		for _, it := range items {
			out = append(out, it.Paired(i))
		}
	}
	return out, nil
}

func errorItem(err error, i int) node.Item {
	return node.NewItem(map[string]interface{}{"error": node.ErrorMessage(err)}).Paired(i)
}

// toAPIError converts client failures into node errors. Errors that are
// already node errors pass through.
func toAPIError(err error, itemIndex *int) error {
	if err == nil {
		return nil
	}

	var opErr *node.OperationError
	var apiErr *node.APIError
	if errors.As(err, &opErr) || errors.As(err, &apiErr) {
		return err
	}

	var verr *sv.Error
	if errors.As(err, &verr) {
		return &node.APIError{
			Message:    verr.Message,
			StatusCode: verr.StatusCode,
			Detail:     verr.Detail,
			ItemIndex:  itemIndex,
			Cause:      err,
		}
	}
	return &node.APIError{Message: err.Error(), ItemIndex: itemIndex, Cause: err}
}

func at(i int) *int { return &i }

// toJSON turns a response into item JSON. Non-object values are kept under
// "data".
func toJSON(v interface{}) map[string]interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return t
	case nil:
		return map[string]interface{}{}
	default:
		return map[string]interface{}{"data": t}
	}
}

// fanOut emits one item per list element, or one item for an object.
func fanOut(v interface{}) []node.Item {
	list, ok := sv.NormalizeList(v)
	if !ok {
		return []node.Item{node.NewItem(toJSON(v))}
	}
	items := make([]node.Item, 0, len(list))
	for _, e := range list {
		items = append(items, node.NewItem(toJSON(e)))
	}
	return items
}
