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

// Package operation holds the pieces shared by every remote operation the
// Verify client performs: the Connector contract and its Result, the
// classified Error type and the Prometheus metrics recorded per request.
//
// Transport concerns (HTTP, retry, rate limiting) live in the transport
// subpackage. The api subpackage provides BaseProvider, which integration
// clients embed to build URLs and send authenticated requests.
package operation
