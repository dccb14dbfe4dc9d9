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

package version

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/strakerverify/internal/commands/shared"
)

func execute(t *testing.T) string {
	t.Helper()
	shared.SetVersion("1.0.0", "test123", "2026-10-19")
	t.Cleanup(func() { shared.SetVersion("dev", "unknown", "unknown") })

	cmd := NewVersionCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())
	return buf.String()
}

func TestVersionOutput(t *testing.T) {
	out := execute(t)
	assert.Contains(t, out, "strakerverify version 1.0.0")
	assert.Contains(t, out, "test123")
	assert.Contains(t, out, "strakerVerify v1")
}

func TestVersionJSONOutput(t *testing.T) {
	shared.SetJSONForTest(true)
	t.Cleanup(func() { shared.SetJSONForTest(false) })

	var info VersionInfo
	require.NoError(t, json.Unmarshal([]byte(execute(t)), &info))
	assert.True(t, info.Success)
	assert.Equal(t, "1.0.0", info.Version)
	assert.Equal(t, "2026-10-19", info.BuildDate)
	assert.Equal(t, 1, info.NodeVersion)
	assert.NotEmpty(t, info.GoVersion)
}
