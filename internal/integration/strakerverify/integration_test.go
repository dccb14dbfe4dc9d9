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
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/strakerverify/internal/operation"
	"github.com/tombee/strakerverify/internal/operation/api"
	"github.com/tombee/strakerverify/internal/operation/transport"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Integration, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	tr, err := transport.NewHTTPTransport(&transport.HTTPTransportConfig{
		BaseURL: server.URL,
		Timeout: 5 * time.Second,
		RetryConfig: &transport.RetryConfig{
			MaxAttempts:     2,
			InitialBackoff:  time.Millisecond,
			MaxBackoff:      2 * time.Millisecond,
			BackoffFactor:   2,
			RetryableStatus: []int{500, 502, 503},
		},
	})
	require.NoError(t, err)

	client, err := New(&api.ProviderConfig{Transport: tr, BaseURL: server.URL, Token: "test-key"}, nil)
	require.NoError(t, err)
	return client, server
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)

	_, err = New(&api.ProviderConfig{Token: "k"}, nil)
	assert.ErrorContains(t, err, "transport")

	_, err = New(&api.ProviderConfig{Transport: &stubTransport{}}, nil)
	assert.ErrorContains(t, err, "API key")

	c, err := New(&api.ProviderConfig{Transport: &stubTransport{}, Token: "k"}, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.BaseURL())
}

func TestListProjectLanguages(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/project/languages", r.URL.Path)
		assert.Equal(t, "sandbox", r.URL.Query().Get("environment"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		writeJSON(w, 200, []map[string]string{
			{"uuid": "l1", "code": "fr", "name": "French"},
			{"uuid": "l2", "code": "de", "name": "German"},
		})
	})

	langs, err := client.ListProjectLanguages(context.Background(), "sandbox")
	require.NoError(t, err)
	require.Len(t, langs, 2)
	assert.Equal(t, "l1", langs[0].UUID)
	assert.Equal(t, "German", langs[1].Name)
}

func TestListProjectWorkflows_Shapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{"bare array", `[{"uuid":"w1","name":"A","active":"true"}]`, []string{"w1"}},
		{"data wrapper", `{"data":[{"uuid":"w2","name":"B","active":true}]}`, []string{"w2"}},
		{"workflows wrapper", `{"workflows":[{"uuid":"w3","name":"C"}]}`, []string{"w3"}},
		{"null", `null`, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "production", r.URL.Query().Get("environment"))
				_, _ = io.WriteString(w, tt.body)
			})

			workflows, err := client.ListProjectWorkflows(context.Background(), "")
			require.NoError(t, err)
			ids := []string{}
			for _, wf := range workflows {
				ids = append(ids, wf.UUID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestHasWorkflow(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"uuid":"w1","name":"Standard"}]`)
	})

	ok, err := client.HasWorkflow(context.Background(), "production", "w1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.HasWorkflow(context.Background(), "production", "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCreateProject_Multipart(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/project", r.URL.Path)
		assert.Equal(t, "n8n", r.URL.Query().Get("app_source"))
		assert.Equal(t, "sandbox", r.URL.Query().Get("environment"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Website", r.FormValue("title"))
		assert.Equal(t, "w1", r.FormValue("workflow_id"))
		assert.Equal(t, "https://hooks.test/cb", r.FormValue("callback_uri"))
		assert.Equal(t, "", r.FormValue("client_notes"))
		assert.Equal(t, []string{"l1", "l2"}, r.MultipartForm.Value["languages"])

		files := r.MultipartForm.File["files"]
		require.Len(t, files, 2)
		assert.Equal(t, "home.html", files[0].Filename)
		assert.Equal(t, "text/html", files[0].Header.Get("Content-Type"))
		assert.Equal(t, "file1", files[1].Filename)
		assert.Equal(t, "application/octet-stream", files[1].Header.Get("Content-Type"))

		f, err := files[0].Open()
		require.NoError(t, err)
		content, _ := io.ReadAll(f)
		assert.Equal(t, "<p>hi</p>", string(content))

		writeJSON(w, 201, map[string]string{"project_id": "p1", "message": "Project created"})
	})

	out, err := client.CreateProject(context.Background(), "sandbox", CreateProjectRequest{
		Title:       "Website",
		WorkflowID:  "w1",
		CallbackURI: "https://hooks.test/cb",
		Languages:   []string{"l1", "l2"},
		Files: []UploadFile{
			{FileName: "home.html", MimeType: "text/html", Data: []byte("<p>hi</p>")},
			{Data: []byte{0x1, 0x2}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "p1", out.(map[string]interface{})["project_id"])
}

func TestCreateProject_NotRetried(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(w, 503, map[string]string{"detail": "busy"})
	})

	_, err := client.CreateProject(context.Background(), "", CreateProjectRequest{Title: "t"})
	require.Error(t, err)
	assert.Equal(t, "busy", err.Error())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestErrors_PreferDetail(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"string detail", 403, `{"detail":"Your subscription does not include Verify."}`, "Your subscription does not include Verify."},
		{"validation list", 422, `{"detail":[{"loc":["body","title"],"msg":"field required"},{"msg":"too long"}]}`, "field required; too long"},
		{"no detail 403", 403, `{}`, "Forbidden - your subscription does not allow this operation"},
		{"no detail 400", 400, `oops`, "Failed to fetch languages."},
		{"plain text 500", 500, `upstream exploded`, "Failed to fetch languages."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := client.ListProjectLanguages(context.Background(), "")
			var verr *Error
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.want, verr.Message)
			assert.Equal(t, tt.status, verr.StatusCode)

			var terr *transport.TransportError
			assert.True(t, errors.As(err, &terr))
		})
	}
}

func TestGetProject_PathTraversalRejected(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("request must not be sent")
	})

	_, err := client.GetProject(context.Background(), "../user/balance")
	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, operation.ErrorTypePathInjection, verr.Type)
}

func TestGetSegmentsAndFiles(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/project/p1/segments/f1/l1":
			writeJSON(w, 200, map[string]interface{}{"segments": []string{"a"}})
		case "/project/p1/files":
			assert.Equal(t, "production", r.URL.Query().Get("environment"))
			writeJSON(w, 200, map[string]interface{}{"data": []map[string]string{{"filename": "a.txt", "content_base64": "aGk="}}})
		default:
			http.NotFound(w, r)
		}
	})

	seg, err := client.GetSegments(context.Background(), "p1", "f1", "l1")
	require.NoError(t, err)
	assert.Contains(t, seg.(map[string]interface{}), "segments")

	files, err := client.ProjectFiles(context.Background(), "p1", "")
	require.NoError(t, err)
	list, ok := NormalizeList(files)
	require.True(t, ok)
	assert.Len(t, list, 1)
}

func TestKeysAndBalance(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/key":
			body, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"description":"ci","expiry_date":"2026-12-31T00:00:00Z"}`, string(body))
			writeJSON(w, 201, map[string]string{"uuid": "k1"})
		case r.URL.Path == "/key/k1":
			writeJSON(w, 200, map[string]interface{}{"data": map[string]string{"uuid": "k1"}})
		case r.URL.Path == "/key":
			writeJSON(w, 200, []map[string]string{{"uuid": "k1"}, {"uuid": "k2"}})
		case r.URL.Path == "/user/balance":
			writeJSON(w, 200, map[string]int{"balance": 1200})
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	created, err := client.CreateKey(ctx, CreateKeyRequest{Description: "ci", ExpiryDate: "2026-12-31T00:00:00Z"})
	require.NoError(t, err)
	assert.Equal(t, "k1", created.(map[string]interface{})["uuid"])

	key, err := client.GetKey(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "k1", key.(map[string]interface{})["uuid"])

	keys, err := client.ListKeys(ctx)
	require.NoError(t, err)
	assert.Len(t, keys, 2)

	balance, err := client.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, float64(1200), balance.(map[string]interface{})["balance"])
}

func TestGetFile(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/file/f1", r.URL.Path)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="notes.txt"`)
		_, _ = io.WriteString(w, "bonjour")
	})

	file, err := client.GetFile(context.Background(), "f1")
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", file.FileName)
	assert.Equal(t, "text/plain", file.MimeType)
	assert.Equal(t, "bonjour", string(file.Data))
}

func TestGetFile_Defaults(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "")
		_, _ = w.Write([]byte{0xff})
	})

	file, err := client.GetFile(context.Background(), "f2")
	require.NoError(t, err)
	assert.Equal(t, "f2", file.FileName)
	assert.Equal(t, []byte{0xff}, file.Data)
}

func TestTestCredentials(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			w.WriteHeader(401)
			return
		}
		assert.Equal(t, "/languages", r.URL.Path)
		_, _ = io.WriteString(w, `[]`)
	})
	assert.NoError(t, client.TestCredentials(context.Background()))
}

func TestExecute_Dispatch(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/workflow/w1":
			writeJSON(w, 200, map[string]interface{}{"workflow": map[string]string{"uuid": "w1"}})
		case "/languages":
			writeJSON(w, 200, []string{})
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	result, err := client.Execute(ctx, "workflow.getOne", map[string]interface{}{"workflow_id": "w1"})
	require.NoError(t, err)
	assert.Equal(t, "w1", result.Response.(map[string]interface{})["uuid"])

	_, err = client.Execute(ctx, "workflow.getOne", map[string]interface{}{})
	assert.ErrorContains(t, err, "workflow_id")

	_, err = client.Execute(ctx, "language.getAll", nil)
	assert.NoError(t, err)

	_, err = client.Execute(ctx, "evaluationJob.create", nil)
	var opErr *operation.Error
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, operation.ErrorTypeNotImplemented, opErr.Type)
}

func TestOperations(t *testing.T) {
	client, err := New(&api.ProviderConfig{Transport: &stubTransport{}, Token: "k"}, nil)
	require.NoError(t, err)

	names := map[string]bool{}
	for _, op := range client.Operations() {
		names[op.Name] = true
		assert.True(t, strings.Contains(op.Name, "."), op.Name)
	}
	for _, want := range []string{"project.create", "project.confirm", "project.confirmAndWait", "project.getSegments", "key.create", "user.getBalance", "workflow.getOne", "file.get"} {
		assert.True(t, names[want], want)
	}

	assert.NotNil(t, client.OperationSchema("project.getSegments"))
	assert.Nil(t, client.OperationSchema("nope"))

	create := client.OperationSchema("project.create")
	require.NotNil(t, create)
	types := map[string]string{}
	for _, p := range create.Parameters {
		types[p.Name] = p.Type
	}
	assert.Equal(t, "binary", types["files"])
	assert.Equal(t, "array", types["languages"])
}

func TestExecute_ProjectCreate(t *testing.T) {
	dir := t.TempDir()
	guide := filepath.Join(dir, "guide.html")
	require.NoError(t, os.WriteFile(guide, []byte("<p>guide</p>"), 0o600))

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/project", r.URL.Path)
		assert.Equal(t, "sandbox", r.URL.Query().Get("environment"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Docs", r.FormValue("title"))
		assert.Equal(t, "w1", r.FormValue("workflow_id"))
		assert.Equal(t, []string{"l-de", "l-fr"}, r.MultipartForm.Value["languages"])

		files := r.MultipartForm.File["files"]
		require.Len(t, files, 2)
		assert.Equal(t, "guide.html", files[0].Filename)
		assert.Contains(t, files[0].Header.Get("Content-Type"), "text/html")
		assert.Equal(t, "faq.txt", files[1].Filename)

		f, err := files[1].Open()
		require.NoError(t, err)
		content, _ := io.ReadAll(f)
		assert.Equal(t, "hello", string(content))

		writeJSON(w, 201, map[string]string{"project_id": "p9", "message": "Project created"})
	})

	result, err := client.Execute(context.Background(), "project.create", map[string]interface{}{
		"title":       "Docs",
		"workflow_id": "w1",
		"languages":   "l-de, l-fr",
		"environment": "sandbox",
		"files": []interface{}{
			guide,
			map[string]interface{}{"file_name": "faq.txt", "content_base64": base64.StdEncoding.EncodeToString([]byte("hello"))},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "p9", result.Response.(map[string]interface{})["project_id"])
}

func TestExecute_ProjectCreateInvalidInputs(t *testing.T) {
	stub := &stubTransport{}
	client, err := New(&api.ProviderConfig{Transport: stub, Token: "k"}, nil)
	require.NoError(t, err)

	base := func() map[string]interface{} {
		return map[string]interface{}{"title": "Docs", "workflow_id": "w1", "languages": "l-de", "files": []interface{}{}}
	}

	tests := []struct {
		name   string
		mutate func(map[string]interface{})
		want   string
	}{
		{"missing title", func(in map[string]interface{}) { delete(in, "title") }, "title"},
		{"empty languages", func(in map[string]interface{}) { in["languages"] = " , " }, "languages"},
		{"no files", func(in map[string]interface{}) {}, "at least one file"},
		{"unreadable path", func(in map[string]interface{}) { in["files"] = "/does/not/exist.txt" }, "files[0]"},
		{"bad base64", func(in map[string]interface{}) {
			in["files"] = map[string]interface{}{"content_base64": "%%%"}
		}, "content_base64"},
		{"no content", func(in map[string]interface{}) {
			in["files"] = []interface{}{map[string]interface{}{"file_name": "a.txt"}}
		}, "needs path or content_base64"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inputs := base()
			tt.mutate(inputs)

			_, err := client.Execute(context.Background(), "project.create", inputs)
			var opErr *operation.Error
			require.True(t, errors.As(err, &opErr), "%v", err)
			assert.Equal(t, operation.ErrorTypeValidation, opErr.Type)
			assert.Contains(t, opErr.Message, tt.want)
		})
	}
	assert.Zero(t, stub.calls)
}

func TestExecute_FileGet(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/file/f1", r.URL.Path)
		w.Header().Set("Content-Type", "text/plain")
		w.Header().Set("Content-Disposition", `attachment; filename="notes.txt"`)
		_, _ = io.WriteString(w, "bonjour")
	})

	result, err := client.Execute(context.Background(), "file.get", map[string]interface{}{"file_id": "f1"})
	require.NoError(t, err)

	out := result.Response.(map[string]interface{})
	assert.Equal(t, "f1", out["file_id"])
	assert.Equal(t, "notes.txt", out["file_name"])
	assert.Equal(t, "text/plain", out["mime_type"])
	assert.Equal(t, 7, out["size"])
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("bonjour")), out["content_base64"])

	_, err = client.Execute(context.Background(), "file.get", map[string]interface{}{})
	assert.ErrorContains(t, err, "file_id")
}

func TestExecute_ConfirmAndWait(t *testing.T) {
	var checks int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/project/p1/confirm":
			writeJSON(w, 200, map[string]string{"message": "confirmed"})
		case r.URL.Path == "/project/p1":
			status := "PENDING_PAYMENT"
			if atomic.AddInt32(&checks, 1) > 1 {
				status = "IN_PROGRESS"
			}
			writeJSON(w, 200, map[string]interface{}{"data": map[string]string{"uuid": "p1", "status": status}})
		default:
			http.NotFound(w, r)
		}
	})

	_, err := client.Execute(context.Background(), "project.confirmAndWait", map[string]interface{}{
		"project_id": "p1", "max_attempts": "0",
	})
	assert.ErrorContains(t, err, "max_attempts must be at least 1")

	result, err := client.Execute(context.Background(), "project.confirmAndWait", map[string]interface{}{
		"project_id": "p1", "max_attempts": 3, "wait_seconds": 1,
	})
	require.NoError(t, err)
	project := result.Response.(map[string]interface{})
	assert.Equal(t, "IN_PROGRESS", ProjectStatus(project))
	assert.Equal(t, int32(2), atomic.LoadInt32(&checks))
}

type stubTransport struct {
	responses []*transport.Response
	calls     int
}

func (s *stubTransport) Execute(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	if s.calls >= len(s.responses) {
		return nil, &transport.TransportError{Type: transport.ErrorTypeServer, StatusCode: 500, Message: "no stub"}
	}
	resp := s.responses[s.calls]
	s.calls++
	return resp, nil
}

func (s *stubTransport) Name() string                                 { return "stub" }
func (s *stubTransport) SetRateLimiter(limiter transport.RateLimiter) {}
