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

package run

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/strakerverify/internal/commands/shared"
	"github.com/tombee/strakerverify/internal/config"
	"github.com/tombee/strakerverify/internal/log"
	"github.com/tombee/strakerverify/internal/secrets"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestRuntime(t *testing.T, handler http.HandlerFunc) *shared.Runtime {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.BaseURL = server.URL
	cfg.Environment = "sandbox"
	cfg.APIKey = "sv-test"
	cfg.Timeout = 5 * time.Second
	cfg.Retry.MaxAttempts = 1
	cfg.Retry.InitialBackoff = time.Millisecond
	cfg.Retry.MaxBackoff = time.Millisecond

	return &shared.Runtime{
		Config:  cfg,
		Logger:  log.Discard(),
		Secrets: secrets.NewResolver(),
	}
}

func TestExecute_LanguagesWithFilter(t *testing.T) {
	rt := newTestRuntime(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/languages", r.URL.Path)
		assert.Equal(t, "Bearer sv-test", r.Header.Get("Authorization"))
		writeJSON(w, 200, []map[string]string{{"uuid": "l1", "name": "German"}, {"uuid": "l2", "name": "French"}})
	})

	var out bytes.Buffer
	err := execute(context.Background(), &out, rt, &options{
		resource:  "language",
		operation: "getAll",
		filter:    "[.[].json.name]",
	})
	require.NoError(t, err)
	assert.JSONEq(t, `["German","French"]`, out.String())
}

func TestExecute_JSONEnvelope(t *testing.T) {
	rt := newTestRuntime(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]int{"balance": 250})
	})
	shared.SetJSONForTest(true)
	t.Cleanup(func() { shared.SetJSONForTest(false) })

	var out bytes.Buffer
	require.NoError(t, execute(context.Background(), &out, rt, &options{resource: "user", operation: "getBalance"}))

	var resp struct {
		Success   bool   `json:"success"`
		Command   string `json:"command"`
		Resource  string `json:"resource"`
		Operation string `json:"operation"`
		Items     []struct {
			JSON map[string]interface{} `json:"json"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "run", resp.Command)
	assert.Equal(t, "user", resp.Resource)
	assert.Equal(t, "getBalance", resp.Operation)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, float64(250), resp.Items[0].JSON["balance"])
}

func TestExecute_DownloadFilesToDir(t *testing.T) {
	rt := newTestRuntime(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/project/job-1/files", r.URL.Path)
		writeJSON(w, 200, []map[string]string{
			{"filename": "guide.txt", "content_base64": base64.StdEncoding.EncodeToString([]byte("Hallo")), "language": "de"},
			{"filename": "guide.txt", "content_base64": base64.StdEncoding.EncodeToString([]byte("Salut")), "language": "fr"},
		})
	})

	dir := t.TempDir()
	input := filepath.Join(dir, "webhook.json")
	require.NoError(t, os.WriteFile(input, []byte(`{"body": {"job_uuid": "job-1"}}`), 0o600))
	outDir := filepath.Join(dir, "out")

	var out bytes.Buffer
	require.NoError(t, execute(context.Background(), &out, rt, &options{
		operation: "downloadFiles",
		input:     input,
		outputDir: outDir,
	}))

	de, err := os.ReadFile(filepath.Join(outDir, "guide.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Hallo", string(de))
	fr, err := os.ReadFile(filepath.Join(outDir, "1-guide.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Salut", string(fr))

	var views []itemView
	require.NoError(t, json.Unmarshal(out.Bytes(), &views))
	require.Len(t, views, 2)
	assert.Equal(t, "fr", views[1].JSON["language"])
	assert.Equal(t, filepath.Join(outDir, "1-guide.txt"), views[1].Binary["data"].Path)
}

func TestExecute_CreateWithFiles(t *testing.T) {
	rt := newTestRuntime(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/project/workflows":
			writeJSON(w, 200, []map[string]string{{"uuid": "wf-1"}})
		case r.Method == http.MethodPost && r.URL.Path == "/project":
			if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
				return
			}
			assert.Equal(t, "Docs", r.FormValue("title"))
			assert.Equal(t, []string{"de"}, r.MultipartForm.Value["languages"])
			files := r.MultipartForm.File["files"]
			if assert.Len(t, files, 2) {
				assert.Equal(t, "a.txt", files[0].Filename)
				assert.Equal(t, "b.txt", files[1].Filename)
			}
			writeJSON(w, 201, map[string]string{"project_id": "p-1"})
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	})

	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(a, []byte("one"), 0o600))
	require.NoError(t, os.WriteFile(b, []byte("two"), 0o600))

	var out bytes.Buffer
	require.NoError(t, execute(context.Background(), &out, rt, &options{
		operation: "create",
		params: []string{
			"title=Docs",
			`languages=["de"]`,
			"workflow=wf-1",
			"callbackUri=https://hooks.test/cb",
		},
		files: []string{a, b},
	}))
	assert.JSONEq(t, `[{"json":{"project_id":"p-1"},"pairedItem":0}]`, out.String())
}

func TestExecute_ExitCodes(t *testing.T) {
	rt := newTestRuntime(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 401, map[string]string{"detail": "Invalid token"})
	})

	err := execute(context.Background(), &bytes.Buffer{}, rt, &options{resource: "language"})
	var exitErr *shared.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, shared.ExitAPIError, exitErr.Code)
	assert.Contains(t, exitErr.Message, "HTTP 401")

	err = execute(context.Background(), &bytes.Buffer{}, rt, &options{params: []string{"broken"}})
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, shared.ExitInvalidInput, exitErr.Code)

	err = execute(context.Background(), &bytes.Buffer{}, rt, &options{resource: "language", filter: ".[] |"})
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, shared.ExitInvalidInput, exitErr.Code)

	err = execute(context.Background(), &bytes.Buffer{}, rt, &options{resource: "project", operation: "archive"})
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, shared.ExitExecutionFailed, exitErr.Code)

	t.Setenv(secrets.APIKeyEnv, "")
	rt.Config.APIKey = ""
	rt.Secrets = secrets.NewResolver(secrets.NewEnvBackend())
	err = execute(context.Background(), &bytes.Buffer{}, rt, &options{resource: "language"})
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, shared.ExitCredentialError, exitErr.Code)
}

func TestNewCommand_Flags(t *testing.T) {
	cmd := NewCommand()
	for _, name := range []string{"resource", "operation", "param", "params-file", "input", "file", "output-dir", "filter", "continue-on-fail"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
	assert.Equal(t, "o", cmd.Flags().Lookup("operation").Shorthand)
}
