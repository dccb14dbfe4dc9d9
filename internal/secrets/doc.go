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

/*
Package secrets stores and resolves the API keys used by the Straker Verify
node outside of a workflow host.

Secrets are resolved through a priority-ordered chain of backends:

	env      - STRAKER_VERIFY_API_KEY and STRAKER_VERIFY_SECRET_* variables (read-only)
	keychain - OS keychain via go-keyring (macOS Keychain, Linux Secret Service)

Keys are slash separated, credential type first:

	strakerVerifyApi/apiKey → STRAKER_VERIFY_API_KEY
	strakerVerifyApi/other  → STRAKER_VERIFY_SECRET_STRAKERVERIFYAPI_OTHER

Usage:

	resolver := secrets.NewResolver(secrets.NewEnvBackend(), secrets.NewKeychainBackend())
	key, err := resolver.Get(ctx, secrets.APIKeyName("strakerVerifyApi"))

Errors:

  - ErrSecretNotFound: the key is in no backend
  - ErrBackendUnavailable: no backend can be used
  - ErrReadOnlyBackend: writes to the env backend
*/
package secrets
