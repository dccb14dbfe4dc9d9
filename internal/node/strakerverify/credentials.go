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
	"errors"
	"fmt"
	"strings"

	sv "github.com/tombee/strakerverify/internal/integration/strakerverify"
	"github.com/tombee/strakerverify/internal/node"
	"github.com/tombee/strakerverify/internal/secrets"
	verrors "github.com/tombee/strakerverify/pkg/errors"
)

// CredentialName is the credential type the node requires.
const CredentialName = "strakerVerifyApi"

// CredentialType describes a credential form.
type CredentialType struct {
	Name             string          `json:"name"`
	DisplayName      string          `json:"displayName"`
	DocumentationURL string          `json:"documentationUrl"`
	Properties       []node.Property `json:"properties"`
}

// CredentialDescription returns the strakerVerifyApi credential form. The
// "environment" field holds the base URL; the query-string environment tag
// is a separate field.
func CredentialDescription() *CredentialType {
	return &CredentialType{
		Name:             CredentialName,
		DisplayName:      "Straker Verify API",
		DocumentationURL: sv.DefaultBaseURL + "/docs",
		Properties: []node.Property{
			{DisplayName: "Base URL", Name: "environment", Type: node.PropertyString, Default: sv.DefaultBaseURL,
				Description: "Enter the base URL of the Straker Verify API."},
			{DisplayName: "API Key", Name: "apiKey", Type: node.PropertyString, Default: "", Required: true},
			{DisplayName: "Environment", Name: "verifyEnvironment", Type: node.PropertyOptions, Default: sv.EnvironmentProduction,
				Options: []node.PropertyOption{
					{Name: "Production", Value: sv.EnvironmentProduction},
					{Name: "Sandbox", Value: sv.EnvironmentSandbox},
				}},
		},
	}
}

// ResolveCredentials fills the gaps in explicit. The API key comes from
// explicit, then the resolver (STRAKER_VERIFY_API_KEY, then the keychain).
// A nil resolver skips the lookup.
func ResolveCredentials(ctx context.Context, explicit node.Credentials, resolver *secrets.Resolver) (*node.Credentials, error) {
	creds := explicit
	creds.BaseURL = strings.TrimRight(strings.TrimSpace(creds.BaseURL), "/")
	if creds.BaseURL == "" {
		creds.BaseURL = sv.DefaultBaseURL
	}

	creds.Environment = strings.ToLower(strings.TrimSpace(creds.Environment))
	if creds.Environment == "" {
		creds.Environment = sv.EnvironmentProduction
	}
	if creds.Environment != sv.EnvironmentProduction && creds.Environment != sv.EnvironmentSandbox {
		return nil, &verrors.CredentialError{
			Name:   CredentialName,
			Reason: fmt.Sprintf("unknown environment %q", creds.Environment),
			Hint:   "use production or sandbox",
		}
	}

	if creds.APIKey == "" && resolver != nil {
		key, err := resolver.Get(ctx, secrets.APIKeyName(CredentialName))
		switch {
		case err == nil:
			creds.APIKey = key
		case errors.Is(err, secrets.ErrSecretNotFound):
		default:
			return nil, &verrors.CredentialError{
				Name:   CredentialName,
				Reason: "failed to read API key",
				Hint:   "set " + secrets.APIKeyEnv + " to bypass the keychain",
				Cause:  err,
			}
		}
	}

	if creds.APIKey == "" {
		return nil, &verrors.CredentialError{
			Name:   CredentialName,
			Reason: "no API key configured",
			Hint:   "run 'strakerverify credentials set' or set " + secrets.APIKeyEnv,
		}
	}

	return &creds, nil
}

// TestCredentials checks creds with GET /languages.
func (n *Node) TestCredentials(ctx context.Context, creds *node.Credentials) error {
	client, err := n.client(creds)
	if err != nil {
		return err
	}
	if err := client.TestCredentials(ctx); err != nil {
		return toAPIError(err, nil)
	}
	return nil
}
