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

package shared

// GlobalOptions holds the persistent flags bound on the root command.
type GlobalOptions struct {
	Verbose    bool
	Quiet      bool
	JSON       bool
	ConfigPath string

	// MetricsFile receives the Prometheus metrics on exit when set.
	MetricsFile string
}

// BuildInfo is injected by main from ldflags.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

var (
	globals GlobalOptions
	build   = BuildInfo{Version: "dev", Commit: "unknown", Date: "unknown"}
)

// Globals returns the options the root command binds its persistent flags to.
func Globals() *GlobalOptions {
	return &globals
}

// SetVersion records the build information reported by 'version'.
func SetVersion(v, c, b string) {
	build = BuildInfo{Version: v, Commit: c, Date: b}
}

// GetVersion returns version, commit and build date.
func GetVersion() (string, string, string) {
	return build.Version, build.Commit, build.Date
}

func GetVerbose() bool       { return globals.Verbose }
func GetQuiet() bool         { return globals.Quiet }
func GetJSON() bool          { return globals.JSON }
func GetConfigPath() string  { return globals.ConfigPath }
func GetMetricsFile() string { return globals.MetricsFile }

// SetConfigPathForTest overrides --config.
func SetConfigPathForTest(path string) { globals.ConfigPath = path }

// SetJSONForTest overrides --json.
func SetJSONForTest(v bool) { globals.JSON = v }
