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
	"github.com/tombee/strakerverify/internal/node"
)

const (
	// NodeName is the registry name of the node.
	NodeName = "strakerVerify"

	// DefaultProjectIDExpression reads the job id a Verify callback posts.
	DefaultProjectIDExpression = "={{ $json.body.job_uuid }}"
)

func show(resource string, operations ...string) *node.DisplayOptions {
	s := map[string][]string{"resource": {resource}}
	if len(operations) > 0 {
		s["operation"] = operations
	}
	return &node.DisplayOptions{Show: s}
}

func intPtr(v int) *int { return &v }

// NodeDescription returns the node's UI metadata.
func NodeDescription() *node.Description {
	props := []node.Property{
		{
			DisplayName:      "Resource",
			Name:             "resource",
			Type:             node.PropertyOptions,
			NoDataExpression: true,
			Default:          "project",
			Options: []node.PropertyOption{
				{Name: "File", Value: "file"},
				{Name: "Key", Value: "key"},
				{Name: "Language", Value: "language"},
				{Name: "Project", Value: "project"},
				{Name: "User", Value: "user"},
				{Name: "Workflow", Value: "workflow"},
			},
		},
	}
	props = append(props, operationProperties()...)
	props = append(props, projectProperties()...)
	props = append(props, workflowProperties()...)
	props = append(props, keyProperties()...)
	props = append(props, fileProperties()...)

	return &node.Description{
		Name:         NodeName,
		DisplayName:  "Straker Verify",
		Description:  "Interact with Straker Verify API",
		Icon:         "file:strakerverify.svg",
		Group:        []string{"transform"},
		Version:      1,
		Subtitle:     `={{$parameter["resource"] + ": " + $parameter["operation"]}}`,
		Defaults:     map[string]interface{}{"name": "Straker Verify"},
		Inputs:       []string{"main"},
		Outputs:      []string{"main"},
		UsableAsTool: true,
		Credentials:  []node.CredentialRef{{Name: CredentialName, Required: true}},
		Properties:   props,
	}
}

func operation(resource string, def string, opts ...node.PropertyOption) node.Property {
	return node.Property{
		DisplayName:      "Operation",
		Name:             "operation",
		Type:             node.PropertyOptions,
		NoDataExpression: true,
		DisplayOptions:   show(resource),
		Options:          opts,
		Default:          def,
	}
}

func operationProperties() []node.Property {
	return []node.Property{
		operation("project", "create",
			node.PropertyOption{Name: "Confirm", Value: "confirm", Action: "Confirm a project", Description: "Confirm a project that is pending payment and wait for it to start"},
			node.PropertyOption{Name: "Create", Value: "create", Action: "Create a project with file upload", Description: `Create a new project with file upload. Use "Confirm" to approve payment afterwards.`},
			node.PropertyOption{Name: "Download Files", Value: "downloadFiles", Action: "Download translated files", Description: "Download translated files for a project"},
			node.PropertyOption{Name: "Get", Value: "get", Action: "Get a project", Description: "Get a specific project"},
			node.PropertyOption{Name: "Get Many", Value: "getAll", Action: "Get many projects", Description: "Get many projects"},
			node.PropertyOption{Name: "Get Segments", Value: "getSegments", Action: "Get project segments", Description: "Retrieve segments of a specific project"},
		),
		operation("language", "getAll",
			node.PropertyOption{Name: "Get Many", Value: "getAll", Action: "List available languages", Description: "List all available languages"},
		),
		operation("workflow", "getAll",
			node.PropertyOption{Name: "Get Many", Value: "getAll", Action: "Get many workflows", Description: "Get a list of many workflows"},
			node.PropertyOption{Name: "Get One", Value: "getOne", Action: "Get one workflow", Description: "Get a single workflow by ID"},
		),
		operation("key", "getAll",
			node.PropertyOption{Name: "Create", Value: "create", Action: "Create an API key", Description: "Create a new API key"},
			node.PropertyOption{Name: "Get", Value: "get", Action: "Get an API key", Description: "Get a specific API key"},
			node.PropertyOption{Name: "Get Many", Value: "getAll", Action: "Get many API keys", Description: "Get many API keys"},
		),
		operation("user", "getBalance",
			node.PropertyOption{Name: "Get Balance", Value: "getBalance", Action: "Get user balance", Description: "Get the token balance of the account"},
		),
		operation("file", "get",
			node.PropertyOption{Name: "Get", Value: "get", Action: "Get file", Description: "Get a file"},
		),
	}
}

func projectProperties() []node.Property {
	return []node.Property{
		{DisplayName: "Title", Name: "title", Type: node.PropertyString, Required: true, Default: "",
			DisplayOptions: show("project", "create"),
			Description:    "The title of the project (max 255 characters)"},
		{DisplayName: "Binary Property", Name: "binaryProperty", Type: node.PropertyString, Required: true, Default: "data", Placeholder: "data",
			DisplayOptions: show("project", "create"),
			Description:    "Name of the binary property that holds the file data from the previous node"},
		{DisplayName: "Language Names or IDs", Name: "languages", Type: node.PropertyMulti, Required: true, NoDataExpression: true,
			DisplayOptions: show("project", "create"), LoadOptionsMethod: "getLanguages", Default: []interface{}{},
			Description: "Choose from the list, or specify IDs using an expression"},
		{DisplayName: "Workflow Name or ID", Name: "workflow", Type: node.PropertyOptions, Required: true, NoDataExpression: true,
			DisplayOptions: show("project", "create"), LoadOptionsMethod: "getWorkflows", Default: "",
			Description: "Choose from the list, or specify an ID using an expression"},
		{DisplayName: "Callback URI", Name: "callbackUri", Type: node.PropertyString, Required: true, Default: "",
			DisplayOptions: show("project", "create"),
			Description:    `Get this value from the "Webhook" node`},
		{DisplayName: "Client Notes", Name: "clientNotes", Type: node.PropertyString, Default: "",
			DisplayOptions: show("project", "create"),
			Description:    "Optional notes for the client (max 255 characters)"},

		{DisplayName: "Project ID", Name: "projectId", Type: node.PropertyString, Required: true, Default: DefaultProjectIDExpression,
			DisplayOptions: show("project", "downloadFiles"),
			Description:    "The ID of the project to download files from"},
		{DisplayName: "Binary Property", Name: "binaryProperty", Type: node.PropertyString, Required: true, Default: "data",
			DisplayOptions: show("project", "downloadFiles"),
			Description:    "Name of the binary property to store the downloaded file data"},

		{DisplayName: "Project ID", Name: "projectId", Type: node.PropertyString, Required: true, Default: "",
			DisplayOptions: show("project", "get", "confirm", "getSegments"),
			Description:    "The ID of the project"},
		{DisplayName: "File ID", Name: "fileId", Type: node.PropertyString, Required: true, Default: "",
			DisplayOptions: show("project", "getSegments"),
			Description:    "The ID of the file to get segments from"},
		{DisplayName: "Language ID", Name: "languageId", Type: node.PropertyString, Required: true, Default: "",
			DisplayOptions: show("project", "getSegments"),
			Description:    "The ID of the language for the segments"},
		{DisplayName: "Max Retries", Name: "maxRetries", Type: node.PropertyNumber, Default: 6, MinValue: intPtr(1),
			DisplayOptions: show("project", "confirm"),
			Description:    "Number of times to poll project status before giving up"},
		{DisplayName: "Wait Between Retries (Seconds)", Name: "waitSeconds", Type: node.PropertyNumber, Default: 10, MinValue: intPtr(1),
			DisplayOptions: show("project", "confirm"),
			Description:    "Seconds to wait between status checks"},
	}
}

func workflowProperties() []node.Property {
	return []node.Property{
		{DisplayName: "Workflow ID", Name: "workflowId", Type: node.PropertyString, Required: true, Default: "",
			DisplayOptions: show("workflow", "getOne")},
	}
}

func keyProperties() []node.Property {
	return []node.Property{
		{DisplayName: "Key ID", Name: "keyId", Type: node.PropertyString, Required: true, Default: "",
			DisplayOptions: show("key", "get"),
			Description:    "The ID of the API key"},
		{DisplayName: "Additional Fields", Name: "additionalFields", Type: node.PropertyCollection, Placeholder: "Add Field",
			Default:        map[string]interface{}{},
			DisplayOptions: show("key", "create"),
			Options: []node.PropertyOption{
				{Name: "description", Type: node.PropertyString, Default: "", Description: "Description of the API key"},
				{Name: "expiryDate", Type: node.PropertyDateTime, Default: "", Description: "Expiry date of the API key"},
			}},
	}
}

func fileProperties() []node.Property {
	return []node.Property{
		{DisplayName: "File ID", Name: "fileId", Type: node.PropertyString, Required: true, Default: "",
			DisplayOptions: show("file", "get"),
			Description:    "The ID of the file to get"},
		{DisplayName: "Binary Property", Name: "binaryProperty", Type: node.PropertyString, Default: "data",
			DisplayOptions: show("file", "get"),
			Description:    "Name of the binary property to store the file in"},
	}
}
