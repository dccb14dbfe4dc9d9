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
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/strakerverify/internal/node"
	"github.com/tombee/strakerverify/internal/operation/transport"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// newTestNode returns a node wired to an httptest server.
func newTestNode(t *testing.T, handler http.HandlerFunc) (*Node, *node.Credentials) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sv-test", r.Header.Get("Authorization"))
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	n := newNode(node.Settings{
		Timeout: 5 * time.Second,
		Retry: &transport.RetryConfig{
			MaxAttempts:    1,
			InitialBackoff: time.Millisecond,
			MaxBackoff:     time.Millisecond,
			BackoffFactor:  2,
		},
	})
	n.pollUnit = time.Millisecond

	return n, &node.Credentials{BaseURL: server.URL, Environment: "sandbox", APIKey: "sv-test"}
}

func execute(t *testing.T, n *Node, creds *node.Credentials, params map[string]interface{}, items []node.Item, continueOnFail bool) ([]node.Item, error) {
	t.Helper()
	out, err := n.Execute(context.Background(), &node.ExecuteContext{
		Items:          items,
		Params:         node.NewParameters(params, items),
		Credentials:    creds,
		ContinueOnFail: continueOnFail,
	})
	if err != nil {
		return nil, err
	}
	require.Len(t, out, 1)
	return out[0], nil
}

func oneItem() []node.Item {
	return []node.Item{node.NewItem(nil)}
}

func TestDescription(t *testing.T) {
	d := NodeDescription()

	assert.Equal(t, "strakerVerify", d.Name)
	assert.Equal(t, "Straker Verify", d.DisplayName)
	assert.Equal(t, []string{"transform"}, d.Group)
	assert.True(t, d.UsableAsTool)
	require.Len(t, d.Credentials, 1)
	assert.Equal(t, CredentialName, d.Credentials[0].Name)
	assert.True(t, d.Credentials[0].Required)

	assert.ElementsMatch(t, []string{"file", "key", "language", "project", "user", "workflow"}, d.Resources())
	assert.ElementsMatch(t, []string{"create", "confirm", "get", "getAll", "getSegments", "downloadFiles"}, d.Operations("project"))
	assert.Equal(t, []string{"getAll"}, d.Operations("language"))
	assert.Equal(t, []string{"getAll", "getOne"}, d.Operations("workflow"))
	assert.Equal(t, []string{"create", "get", "getAll"}, d.Operations("key"))
	assert.Equal(t, []string{"getBalance"}, d.Operations("user"))
	assert.Equal(t, []string{"get"}, d.Operations("file"))

	for _, resource := range d.Resources() {
		for _, op := range d.Operations(resource) {
			key := resource + "." + op
			_, ok := handlers[key]
			assert.True(t, ok || key == "project.create", "no handler for %s", key)
		}
	}

	p, ok := d.Property("projectId", map[string]string{"resource": "project", "operation": "downloadFiles"})
	require.True(t, ok)
	assert.Equal(t, DefaultProjectIDExpression, p.Default)
}

func TestRegistered(t *testing.T) {
	n, err := node.Get(NodeName, node.Settings{})
	require.NoError(t, err)
	assert.Equal(t, NodeName, n.Description().Name)
}

func TestExecute_UnknownOperation(t *testing.T) {
	n, creds := newTestNode(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := execute(t, n, creds, map[string]interface{}{"resource": "project", "operation": "delete"}, oneItem(), false)
	var opErr *node.OperationError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, `The operation "delete" is not supported for resource "project".`, opErr.Message)
}

func TestExecute_MissingCredentials(t *testing.T) {
	n := newNode(node.Settings{})
	_, err := n.Execute(context.Background(), &node.ExecuteContext{
		Items:  oneItem(),
		Params: node.NewParameters(map[string]interface{}{"resource": "user", "operation": "getBalance"}, nil),
	})
	assert.ErrorContains(t, err, CredentialName)
}

func TestCreateProject(t *testing.T) {
	var creates int32
	n, creds := newTestNode(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/project/workflows":
			assert.Equal(t, "sandbox", r.URL.Query().Get("environment"))
			writeJSON(w, 200, []map[string]string{{"uuid": "wf-1", "name": "Standard"}})
		case r.Method == http.MethodPost && r.URL.Path == "/project":
			atomic.AddInt32(&creates, 1)
			assert.NoError(t, r.ParseMultipartForm(1<<20))
			assert.Equal(t, "Docs", r.FormValue("title"))
			assert.Equal(t, "wf-1", r.FormValue("workflow_id"))
			assert.Equal(t, "https://hooks.test/cb", r.FormValue("callback_uri"))
			assert.Equal(t, []string{"de", "fr"}, r.MultipartForm.Value["languages"])

			files := r.MultipartForm.File["files"]
			if !assert.Len(t, files, 2) {
				return
			}
			assert.Equal(t, "a.txt", files[0].Filename)
			assert.Equal(t, "file1", files[1].Filename)
			assert.Equal(t, "application/octet-stream", files[1].Header.Get("Content-Type"))
			writeJSON(w, 201, map[string]string{"project_id": "p-1"})
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	})

	items := []node.Item{
		node.NewItem(nil).WithBinary("data", node.NewBinaryData([]byte("one"), "a.txt", "")),
		node.NewItem(nil).WithBinary("data", &node.BinaryData{Data: []byte{1, 2}}),
	}
	out, err := execute(t, n, creds, map[string]interface{}{
		"resource":    "project",
		"operation":   "create",
		"title":       "Docs",
		"languages":   []interface{}{"de", "fr"},
		"workflow":    "wf-1",
		"callbackUri": "https://hooks.test/cb",
	}, items, false)
	require.NoError(t, err)

	require.Len(t, out, 1)
	assert.Equal(t, "p-1", out[0].JSON["project_id"])
	require.NotNil(t, out[0].PairedItem)
	assert.Equal(t, 0, *out[0].PairedItem)
	assert.Equal(t, int32(1), atomic.LoadInt32(&creates))
}

func TestCreateProject_Failures(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/project/workflows" {
			writeJSON(w, 200, map[string]interface{}{"data": []map[string]string{{"uuid": "wf-1"}}})
			return
		}
		t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
	}
	base := map[string]interface{}{
		"resource":    "project",
		"operation":   "create",
		"title":       "Docs",
		"languages":   "de",
		"callbackUri": "https://hooks.test/cb",
	}
	with := func(extra map[string]interface{}) map[string]interface{} {
		out := map[string]interface{}{}
		for k, v := range base {
			out[k] = v
		}
		for k, v := range extra {
			out[k] = v
		}
		return out
	}

	t.Run("invalid workflow", func(t *testing.T) {
		n, creds := newTestNode(t, handler)
		_, err := execute(t, n, creds, with(map[string]interface{}{"workflow": "nope"}), oneItem(), false)
		assert.EqualError(t, err, `Invalid workflow ID "nope". Please select a valid workflow from the dropdown.`)
	})

	t.Run("missing binary", func(t *testing.T) {
		n, creds := newTestNode(t, handler)
		items := []node.Item{
			node.NewItem(nil).WithBinary("doc", node.NewBinaryData([]byte("x"), "x.txt", "")),
			node.NewItem(nil),
		}
		_, err := execute(t, n, creds, with(map[string]interface{}{"workflow": "wf-1", "binaryProperty": "doc"}), items, false)
		var opErr *node.OperationError
		require.True(t, errors.As(err, &opErr))
		assert.Equal(t, `Binary data property "doc" missing on item 1.`, opErr.Message)
		assert.Equal(t, 1, *opErr.ItemIndex)
	})

	t.Run("continue on fail", func(t *testing.T) {
		n, creds := newTestNode(t, handler)
		out, err := execute(t, n, creds, with(map[string]interface{}{"workflow": "nope"}), oneItem(), true)
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Contains(t, out[0].JSON["error"], "Invalid workflow ID")
	})

	t.Run("no input", func(t *testing.T) {
		n, creds := newTestNode(t, handler)
		out, err := execute(t, n, creds, with(map[string]interface{}{"workflow": "wf-1"}), nil, false)
		require.NoError(t, err)
		assert.Empty(t, out)
	})
}

func TestDownloadFiles(t *testing.T) {
	n, creds := newTestNode(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/project/job-1/files":
			assert.Equal(t, "sandbox", r.URL.Query().Get("environment"))
			writeJSON(w, 200, map[string]interface{}{"data": []map[string]interface{}{
				{"filename": "de.txt", "content_base64": base64.StdEncoding.EncodeToString([]byte("Hallo")), "language": "de"},
				{"content_base64": "SGk", "language": "fr"},
			}})
		case "/project/empty/files":
			writeJSON(w, 200, []interface{}{})
		case "/project/broken/files":
			writeJSON(w, 200, []map[string]interface{}{{"filename": "x"}})
		default:
			writeJSON(w, 404, map[string]string{"detail": "Project not found"})
		}
	})

	items := []node.Item{node.NewItem(map[string]interface{}{"body": map[string]interface{}{"job_uuid": "job-1"}})}
	out, err := execute(t, n, creds, map[string]interface{}{"resource": "project", "operation": "downloadFiles"}, items, false)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, map[string]interface{}{"language": "de"}, out[0].JSON)
	b, ok := out[0].BinaryProperty("data")
	require.True(t, ok)
	assert.Equal(t, "Hallo", string(b.Data))
	assert.Equal(t, "de.txt", b.FileName)

	b, ok = out[1].BinaryProperty("data")
	require.True(t, ok)
	assert.Equal(t, "Hi", string(b.Data))
	assert.Equal(t, "file", b.FileName)
	assert.Equal(t, 0, *out[1].PairedItem)

	tests := []struct {
		projectID string
		want      string
	}{
		{"empty", "No files returned for the specified project."},
		{"broken", `File payload is missing "content_base64".`},
		{"missing", "Project not found"},
	}
	for _, tt := range tests {
		t.Run(tt.projectID, func(t *testing.T) {
			_, err := execute(t, n, creds, map[string]interface{}{
				"resource": "project", "operation": "downloadFiles", "projectId": tt.projectID, "binaryProperty": "out",
			}, oneItem(), false)
			assert.EqualError(t, err, tt.want)
		})
	}
}

func TestDownloadFiles_ContinueOnFail(t *testing.T) {
	n, creds := newTestNode(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/project/good/files" {
			writeJSON(w, 200, []map[string]interface{}{{"filename": "a", "content_base64": "YQ=="}})
			return
		}
		writeJSON(w, 403, map[string]string{"detail": "Subscription required"})
	})

	items := []node.Item{
		node.NewItem(map[string]interface{}{"body": map[string]interface{}{"job_uuid": "bad"}}),
		node.NewItem(map[string]interface{}{"body": map[string]interface{}{"job_uuid": "good"}}),
	}
	out, err := execute(t, n, creds, map[string]interface{}{"resource": "project", "operation": "downloadFiles"}, items, true)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Subscription required", out[0].JSON["error"])
	assert.Equal(t, 0, *out[0].PairedItem)
	assert.Equal(t, 1, *out[1].PairedItem)
}

func TestConfirmProject(t *testing.T) {
	var gets int32
	n, creds := newTestNode(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/project/p-1/confirm":
			writeJSON(w, 200, map[string]string{"message": "confirmed"})
		case r.URL.Path == "/project/p-1":
			status := "PENDING_PAYMENT"
			if atomic.AddInt32(&gets, 1) >= 2 {
				status = "IN_PROGRESS"
			}
			writeJSON(w, 200, map[string]interface{}{"data": map[string]string{"status": status}})
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	})

	out, err := execute(t, n, creds, map[string]interface{}{
		"resource": "project", "operation": "confirm", "projectId": "p-1", "waitSeconds": 1,
	}, oneItem(), false)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "IN_PROGRESS", out[0].JSON["data"].(map[string]interface{})["status"])
	assert.Equal(t, int32(2), atomic.LoadInt32(&gets))

	_, err = execute(t, n, creds, map[string]interface{}{
		"resource": "project", "operation": "confirm", "projectId": "p-1", "maxRetries": 0,
	}, oneItem(), false)
	assert.EqualError(t, err, `Parameter "maxRetries" must be at least 1.`)
}

func TestConfirmProject_StillPending(t *testing.T) {
	n, creds := newTestNode(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			writeJSON(w, 200, map[string]string{})
			return
		}
		writeJSON(w, 200, map[string]interface{}{"data": map[string]string{"status": "PENDING_PAYMENT"}})
	})

	_, err := execute(t, n, creds, map[string]interface{}{
		"resource": "project", "operation": "confirm", "projectId": "p-9", "maxRetries": 2,
	}, oneItem(), false)
	assert.EqualError(t, err, "Project p-9 is still pending payment after 2 checks.")
}

func TestReadOperations(t *testing.T) {
	n, creds := newTestNode(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/languages":
			writeJSON(w, 200, []map[string]string{{"uuid": "l1", "name": "German"}, {"uuid": "l2", "name": "French"}})
		case "/workflow":
			writeJSON(w, 200, map[string]interface{}{"workflows": []map[string]string{{"uuid": "w1"}}})
		case "/workflow/w1":
			writeJSON(w, 200, map[string]interface{}{"data": map[string]string{"uuid": "w1", "name": "Standard"}})
		case "/project":
			writeJSON(w, 200, map[string]interface{}{"data": []map[string]string{{"uuid": "p1"}, {"uuid": "p2"}, {"uuid": "p3"}}})
		case "/project/p1":
			writeJSON(w, 200, map[string]interface{}{"data": map[string]string{"uuid": "p1"}, "token_cost": 10})
		case "/project/p1/segments/f1/l1":
			writeJSON(w, 200, []map[string]string{{"source": "Hello", "target": "Hallo"}})
		case "/key":
			writeJSON(w, 200, []map[string]string{{"uuid": "k1"}})
		case "/key/k1":
			writeJSON(w, 200, map[string]string{"uuid": "k1"})
		case "/user/balance":
			writeJSON(w, 200, map[string]int{"balance": 250})
		default:
			t.Errorf("unexpected %s", r.URL.Path)
		}
	})

	tests := []struct {
		name   string
		params map[string]interface{}
		count  int
		check  func(t *testing.T, out []node.Item)
	}{
		{name: "language list alias", params: map[string]interface{}{"resource": "language", "operation": "list"}, count: 2,
			check: func(t *testing.T, out []node.Item) { assert.Equal(t, "German", out[0].JSON["name"]) }},
		{name: "workflow getAll", params: map[string]interface{}{"resource": "workflow"}, count: 1},
		{name: "workflow getOne", params: map[string]interface{}{"resource": "workflow", "operation": "getOne", "workflowId": "w1"}, count: 1,
			check: func(t *testing.T, out []node.Item) { assert.Equal(t, "Standard", out[0].JSON["name"]) }},
		{name: "project getAll", params: map[string]interface{}{"resource": "project", "operation": "getAll"}, count: 3},
		{name: "project get", params: map[string]interface{}{"resource": "project", "operation": "get", "projectId": "p1"}, count: 1,
			check: func(t *testing.T, out []node.Item) { assert.Equal(t, float64(10), out[0].JSON["token_cost"]) }},
		{name: "segments", params: map[string]interface{}{"resource": "project", "operation": "getSegments", "projectId": "p1", "fileId": "f1", "languageId": "l1"}, count: 1},
		{name: "keys", params: map[string]interface{}{"resource": "key"}, count: 1},
		{name: "key", params: map[string]interface{}{"resource": "key", "operation": "get", "keyId": "k1"}, count: 1},
		{name: "balance", params: map[string]interface{}{"resource": "user"}, count: 1,
			check: func(t *testing.T, out []node.Item) { assert.Equal(t, float64(250), out[0].JSON["balance"]) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, n, creds, tt.params, oneItem(), false)
			require.NoError(t, err)
			require.Len(t, out, tt.count)
			if tt.check != nil {
				tt.check(t, out)
			}
		})
	}
}

func TestRequiredParameterMissing(t *testing.T) {
	n, creds := newTestNode(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := execute(t, n, creds, map[string]interface{}{"resource": "project", "operation": "get"}, oneItem(), false)
	assert.EqualError(t, err, `Parameter "projectId" must not be empty.`)
}

func TestCreateKey(t *testing.T) {
	n, creds := newTestNode(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"description":"ci"}`, string(body))
		writeJSON(w, 201, map[string]string{"uuid": "k2"})
	})

	out, err := execute(t, n, creds, map[string]interface{}{
		"resource": "key", "operation": "create",
		"additionalFields": map[string]interface{}{"description": "ci"},
	}, oneItem(), false)
	require.NoError(t, err)
	assert.Equal(t, "k2", out[0].JSON["uuid"])
}

func TestGetFile(t *testing.T) {
	n, creds := newTestNode(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/file/f1", r.URL.Path)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="de.txt"`)
		_, _ = io.WriteString(w, "Hallo")
	})

	out, err := execute(t, n, creds, map[string]interface{}{"resource": "file", "operation": "get", "fileId": "f1", "binaryProperty": "doc"}, oneItem(), false)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, map[string]interface{}{"fileId": "f1", "fileName": "de.txt", "mimeType": "text/plain", "size": 5}, out[0].JSON)

	b, ok := out[0].BinaryProperty("doc")
	require.True(t, ok)
	assert.Equal(t, "Hallo", string(b.Data))
	assert.Equal(t, "text/plain", b.MimeType)
}

func TestAPIErrorMapping(t *testing.T) {
	n, creds := newTestNode(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 401, map[string]string{})
	})

	_, err := execute(t, n, creds, map[string]interface{}{"resource": "user"}, oneItem(), false)
	var apiErr *node.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 401, apiErr.StatusCode)
	assert.Equal(t, 0, *apiErr.ItemIndex)
	assert.Contains(t, apiErr.Suggestion(), "credentials test")
}
