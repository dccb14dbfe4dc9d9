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
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	verr "github.com/tombee/strakerverify/pkg/errors"
)

// Parameters are a node's configured parameter values, resolved per item.
type Parameters struct {
	values map[string]interface{}
	items  []Item
	eval   *Evaluator
}

// NewParameters wraps raw values. items are the run's input items, used as
// expression context.
func NewParameters(values map[string]interface{}, items []Item) *Parameters {
	copied := make(map[string]interface{}, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return &Parameters{values: copied, items: items, eval: NewEvaluator()}
}

// Set stores a raw value.
func (p *Parameters) Set(name string, value interface{}) {
	p.values[name] = value
}

// Raw returns the unevaluated value.
func (p *Parameters) Raw(name string) (interface{}, bool) {
	v, ok := p.values[name]
	return v, ok
}

// ApplyDefaults fills unset parameters from the visible properties of a
// description, in declaration order. Visibility is judged on the raw values
// set so far, so a resource default selects its operation default.
func (p *Parameters) ApplyDefaults(props []Property) {
	current := make(map[string]string, len(p.values))
	for k, v := range p.values {
		if s, ok := v.(string); ok {
			current[k] = s
		}
	}

	for _, prop := range props {
		if _, set := p.values[prop.Name]; set || prop.Default == nil {
			continue
		}
		if !prop.DisplayOptions.Matches(current) {
			continue
		}
		p.values[prop.Name] = prop.Default
		if s, ok := prop.Default.(string); ok {
			current[prop.Name] = s
		}
	}
}

// Value returns the parameter for item i with expressions resolved.
func (p *Parameters) Value(name string, i int) (interface{}, bool, error) {
	raw, ok := p.values[name]
	if !ok {
		return nil, false, nil
	}
	return p.resolve(raw, i)
}

func (p *Parameters) resolve(raw interface{}, i int) (interface{}, bool, error) {
	switch v := raw.(type) {
	case string:
		if !IsExpression(v) {
			return v, true, nil
		}
		var item Item
		if i >= 0 && i < len(p.items) {
			item = p.items[i]
		}
		resolved, err := p.eval.Resolve(v, item, i)
		if err != nil {
			return nil, true, err
		}
		return resolved, true, nil
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, inner := range v {
			resolved, _, err := p.resolve(inner, i)
			if err != nil {
				return nil, true, err
			}
			out[k] = resolved
		}
		return out, true, nil
	case []interface{}:
		out := make([]interface{}, len(v))
		for idx, inner := range v {
			resolved, _, err := p.resolve(inner, i)
			if err != nil {
				return nil, true, err
			}
			out[idx] = resolved
		}
		return out, true, nil
	default:
		return raw, true, nil
	}
}

// lookup resolves name for item i. A missing parameter falls back to def;
// with no default it is an error.
func (p *Parameters) lookup(name string, i int, hasDefault bool) (interface{}, bool, error) {
	v, ok, err := p.Value(name, i)
	if err != nil {
		return nil, false, &OperationError{
			Message:   fmt.Sprintf("Could not resolve parameter %q: %s", name, verrMessage(err)),
			ItemIndex: &i,
			Cause:     err,
		}
	}
	if !ok && !hasDefault {
		return nil, false, &OperationError{
			Message:   fmt.Sprintf("Missing required parameter %q.", name),
			ItemIndex: &i,
			Cause:     &verr.ValidationError{Field: name, Message: "parameter is required", Suggestion: fmt.Sprintf("set %s with --param %s=<value>", name, name)},
		}
	}
	return v, ok, nil
}

// String returns a string parameter.
func (p *Parameters) String(name string, i int, def ...string) (string, error) {
	v, ok, err := p.lookup(name, i, len(def) > 0)
	if err != nil {
		return "", err
	}
	if !ok || v == nil {
		if len(def) > 0 {
			return def[0], nil
		}
		return "", nil
	}
	switch t := v.(type) {
	case string:
		return t, nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	default:
		return fmt.Sprint(t), nil
	}
}

// RequiredString returns a string parameter that must not be empty.
func (p *Parameters) RequiredString(name string, i int) (string, error) {
	s, err := p.String(name, i)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(s) == "" {
		return "", &OperationError{
			Message:   fmt.Sprintf("Parameter %q must not be empty.", name),
			ItemIndex: &i,
			Cause:     &verr.ValidationError{Field: name, Message: "must not be empty"},
		}
	}
	return s, nil
}

// StringSlice returns a list parameter. A single string is split on commas;
// a JSON array string is decoded.
func (p *Parameters) StringSlice(name string, i int) ([]string, error) {
	v, ok, err := p.lookup(name, i, true)
	if err != nil {
		return nil, err
	}
	if !ok || v == nil {
		return []string{}, nil
	}

	switch t := v.(type) {
	case []string:
		return t, nil
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if e == nil {
				continue
			}
			out = append(out, fmt.Sprint(e))
		}
		return out, nil
	case string:
		t = strings.TrimSpace(t)
		if t == "" {
			return []string{}, nil
		}
		if strings.HasPrefix(t, "[") {
			var out []string
			if err := json.Unmarshal([]byte(t), &out); err == nil {
				return out, nil
			}
		}
		parts := strings.Split(t, ",")
		out := make([]string, 0, len(parts))
		for _, part := range parts {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, nil
	default:
		return []string{fmt.Sprint(t)}, nil
	}
}

// Int returns an integer parameter.
func (p *Parameters) Int(name string, i int, def ...int) (int, error) {
	v, ok, err := p.lookup(name, i, len(def) > 0)
	if err != nil {
		return 0, err
	}
	if !ok || v == nil {
		if len(def) > 0 {
			return def[0], nil
		}
		return 0, nil
	}

	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case float64:
		return int(t), nil
	case string:
		n, convErr := strconv.Atoi(strings.TrimSpace(t))
		if convErr != nil {
			return 0, &OperationError{
				Message:   fmt.Sprintf("Parameter %q must be a number, got %q.", name, t),
				ItemIndex: &i,
				Cause:     convErr,
			}
		}
		return n, nil
	default:
		return 0, &OperationError{Message: fmt.Sprintf("Parameter %q must be a number.", name), ItemIndex: &i}
	}
}

// Bool returns a boolean parameter.
func (p *Parameters) Bool(name string, i int, def ...bool) (bool, error) {
	v, ok, err := p.lookup(name, i, len(def) > 0)
	if err != nil {
		return false, err
	}
	if !ok || v == nil {
		if len(def) > 0 {
			return def[0], nil
		}
		return false, nil
	}

	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		b, convErr := strconv.ParseBool(strings.TrimSpace(t))
		if convErr != nil {
			return false, &OperationError{Message: fmt.Sprintf("Parameter %q must be true or false.", name), ItemIndex: &i, Cause: convErr}
		}
		return b, nil
	default:
		return false, &OperationError{Message: fmt.Sprintf("Parameter %q must be true or false.", name), ItemIndex: &i}
	}
}

// Map returns a collection parameter. Missing collections are empty.
func (p *Parameters) Map(name string, i int) (map[string]interface{}, error) {
	v, ok, err := p.lookup(name, i, true)
	if err != nil {
		return nil, err
	}
	if !ok || v == nil {
		return map[string]interface{}{}, nil
	}

	switch t := v.(type) {
	case map[string]interface{}:
		return t, nil
	case string:
		if strings.TrimSpace(t) == "" {
			return map[string]interface{}{}, nil
		}
		var out map[string]interface{}
		if err := json.Unmarshal([]byte(t), &out); err != nil {
			return nil, &OperationError{Message: fmt.Sprintf("Parameter %q must be a JSON object.", name), ItemIndex: &i, Cause: err}
		}
		return out, nil
	default:
		return nil, &OperationError{Message: fmt.Sprintf("Parameter %q must be an object.", name), ItemIndex: &i}
	}
}

func verrMessage(err error) string {
	if ve, ok := err.(*verr.ValidationError); ok {
		return ve.Message
	}
	return err.Error()
}
