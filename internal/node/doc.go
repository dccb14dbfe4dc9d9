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

// Package node is the host-side model a workflow node runs against.
//
// A run hands a node a list of Items, each carrying a JSON payload and named
// binary attachments, together with the node's Parameters and resolved
// Credentials. The node returns output items grouped by output (a single
// "main" output for every node in this repository).
//
// Parameters may hold expressions of the form ={{ <expr> }}. They are
// evaluated per item with expr-lang against the item JSON, so a parameter
// such as ={{ $json.body.job_uuid }} picks a value out of the incoming data.
package node
