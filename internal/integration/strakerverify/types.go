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
	"encoding/json"
	"strconv"
	"strings"
)

// DefaultBaseURL is the production API root.
const DefaultBaseURL = "https://api-verify.straker.ai"

// Environments accepted by the environment query parameter.
const (
	EnvironmentProduction = "production"
	EnvironmentSandbox    = "sandbox"
)

// AppSource identifies this client on project creation.
const AppSource = "n8n"

// StatusPendingPayment is the project status the confirm poll waits out.
const StatusPendingPayment = "PENDING_PAYMENT"

// Language is a language the account can translate into.
type Language struct {
	UUID          string `json:"uuid"`
	Code          string `json:"code"`
	SiteShortcode string `json:"site_shortcode,omitempty"`
	Name          string `json:"name"`
}

// Workflow is a Verify translation workflow.
type Workflow struct {
	UUID        string   `json:"uuid"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Active      FlexBool `json:"active"`
	Version     string   `json:"version,omitempty"`
	CreatedAt   string   `json:"created_at,omitempty"`
}

// FlexBool decodes booleans the API sometimes sends as strings.
type FlexBool bool

// UnmarshalJSON accepts true, "true", "1" and friends.
func (b *FlexBool) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*b = false
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		raw = s
	}

	v, err := strconv.ParseBool(strings.ToLower(raw))
	if err != nil {
		*b = false
		return nil
	}
	*b = FlexBool(v)
	return nil
}

// UploadFile is one file attached to a new project.
type UploadFile struct {
	FileName string
	MimeType string
	Data     []byte
}

// CreateProjectRequest holds the multipart fields of POST /project.
type CreateProjectRequest struct {
	Title       string
	WorkflowID  string
	CallbackURI string
	ClientNotes string
	Languages   []string
	Files       []UploadFile
}

// CreateKeyRequest is the body of POST /key.
type CreateKeyRequest struct {
	Description string `json:"description,omitempty"`
	ExpiryDate  string `json:"expiry_date,omitempty"`
}

// File is a raw file fetched from /file/{id}.
type File struct {
	ID       string
	FileName string
	MimeType string
	Data     []byte
}
