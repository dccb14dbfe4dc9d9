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

package node

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	verr "github.com/tombee/strakerverify/pkg/errors"
)

var (
	templatePattern = regexp.MustCompile(`\{\{(.*?)\}\}`)
	dollarVars      = strings.NewReplacer("$json", "json", "$itemIndex", "itemIndex", "$binary", "binary")
)

// Evaluator resolves ={{ }} parameter expressions. Compiled programs are
// cached by source.
type Evaluator struct {
	cache map[string]*vm.Program
	mu    sync.RWMutex
}

// NewEvaluator creates an Evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{cache: make(map[string]*vm.Program)}
}

// IsExpression reports whether a parameter value must be evaluated.
func IsExpression(v interface{}) bool {
	s, ok := v.(string)
	return ok && strings.HasPrefix(s, "=")
}

// Resolve evaluates an "=" prefixed parameter value against item i. A value
// that is exactly one {{ }} block keeps the type of the result; anything
// else is rendered as a string.
func (e *Evaluator) Resolve(raw string, item Item, i int) (interface{}, error) {
	body := strings.TrimPrefix(raw, "=")

	env := map[string]interface{}{
		"json":      item.JSON,
		"itemIndex": i,
		"binary":    binaryEnv(item),
	}

	trimmed := strings.TrimSpace(body)
	if m := templatePattern.FindStringSubmatch(trimmed); m != nil && m[0] == trimmed {
		return e.eval(m[1], env)
	}

	var evalErr error
	out := templatePattern.ReplaceAllStringFunc(body, func(block string) string {
		if evalErr != nil {
			return ""
		}
		src := templatePattern.FindStringSubmatch(block)[1]
		v, err := e.eval(src, env)
		if err != nil {
			evalErr = err
			return ""
		}
		if v == nil {
			return ""
		}
		return fmt.Sprint(v)
	})
	if evalErr != nil {
		return nil, evalErr
	}
	return out, nil
}

func (e *Evaluator) eval(src string, env map[string]interface{}) (interface{}, error) {
	src = dollarVars.Replace(strings.TrimSpace(src))

	program, err := e.compile(src)
	if err != nil {
		return nil, &verr.ValidationError{
			Field:      "expression",
			Message:    fmt.Sprintf("failed to compile expression %q: %s", src, err.Error()),
			Suggestion: "check expression syntax, e.g. {{ $json.body.job_uuid }}",
		}
	}

	result, err := expr.Run(program, env)
	if err != nil {
		return nil, &verr.ValidationError{
			Field:      "expression",
			Message:    fmt.Sprintf("expression %q failed: %s", src, err.Error()),
			Suggestion: "verify that the referenced fields exist on the input item",
		}
	}
	return result, nil
}

func (e *Evaluator) compile(src string) (*vm.Program, error) {
	e.mu.RLock()
	if prog, ok := e.cache[src]; ok {
		e.mu.RUnlock()
		return prog, nil
	}
	e.mu.RUnlock()

	prog, err := expr.Compile(src, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.cache[src] = prog
	e.mu.Unlock()
	return prog, nil
}

// CacheSize returns the number of cached programs.
func (e *Evaluator) CacheSize() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.cache)
}

func binaryEnv(item Item) map[string]interface{} {
	env := make(map[string]interface{}, len(item.Binary))
	for name, b := range item.Binary {
		if b == nil {
			continue
		}
		env[name] = map[string]interface{}{
			"fileName":      b.FileName,
			"mimeType":      b.MimeType,
			"fileExtension": b.FileExtension,
			"fileSize":      b.FileSize,
		}
	}
	return env
}
