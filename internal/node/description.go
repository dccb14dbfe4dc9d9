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

// PropertyType is the UI widget of a parameter.
type PropertyType string

const (
	PropertyString     PropertyType = "string"
	PropertyNumber     PropertyType = "number"
	PropertyBoolean    PropertyType = "boolean"
	PropertyOptions    PropertyType = "options"
	PropertyMulti      PropertyType = "multiOptions"
	PropertyCollection PropertyType = "collection"
	PropertyDateTime   PropertyType = "dateTime"
	PropertyNotice     PropertyType = "notice"
)

// Description is the static metadata a host renders a node from.
type Description struct {
	Name         string                 `json:"name"`
	DisplayName  string                 `json:"displayName"`
	Description  string                 `json:"description"`
	Icon         string                 `json:"icon,omitempty"`
	Group        []string               `json:"group"`
	Version      int                    `json:"version"`
	Subtitle     string                 `json:"subtitle,omitempty"`
	Defaults     map[string]interface{} `json:"defaults,omitempty"`
	Inputs       []string               `json:"inputs"`
	Outputs      []string               `json:"outputs"`
	UsableAsTool bool                   `json:"usableAsTool,omitempty"`
	Credentials  []CredentialRef        `json:"credentials,omitempty"`
	Properties   []Property             `json:"properties"`
}

// CredentialRef names a credential type the node requires.
type CredentialRef struct {
	Name     string `json:"name"`
	Required bool   `json:"required"`
}

// Property is one node parameter.
type Property struct {
	DisplayName       string           `json:"displayName"`
	Name              string           `json:"name"`
	Type              PropertyType     `json:"type"`
	Default           interface{}      `json:"default,omitempty"`
	Required          bool             `json:"required,omitempty"`
	Description       string           `json:"description,omitempty"`
	Placeholder       string           `json:"placeholder,omitempty"`
	NoDataExpression  bool             `json:"noDataExpression,omitempty"`
	Options           []PropertyOption `json:"options,omitempty"`
	LoadOptionsMethod string           `json:"loadOptionsMethod,omitempty"`
	MinValue          *int             `json:"minValue,omitempty"`
	DisplayOptions    *DisplayOptions  `json:"displayOptions,omitempty"`
}

// PropertyOption is one choice of an options property, or a field of a
// collection.
type PropertyOption struct {
	Name        string       `json:"name"`
	Value       interface{}  `json:"value,omitempty"`
	Action      string       `json:"action,omitempty"`
	Description string       `json:"description,omitempty"`
	Type        PropertyType `json:"type,omitempty"`
	Default     interface{}  `json:"default,omitempty"`
}

// DisplayOptions restrict when a property is shown.
type DisplayOptions struct {
	Show map[string][]string `json:"show,omitempty"`
}

// Matches reports whether every Show condition holds for the given values.
// A nil DisplayOptions always matches.
func (d *DisplayOptions) Matches(values map[string]string) bool {
	if d == nil {
		return true
	}
	for name, allowed := range d.Show {
		v, ok := values[name]
		if !ok {
			return false
		}
		found := false
		for _, a := range allowed {
			if a == v {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Property returns the first property with the given name whose display
// options match values. values may be nil to ignore visibility.
func (d *Description) Property(name string, values map[string]string) (*Property, bool) {
	for i := range d.Properties {
		p := &d.Properties[i]
		if p.Name != name {
			continue
		}
		if values == nil || p.DisplayOptions.Matches(values) {
			return p, true
		}
	}
	return nil, false
}

// Visible returns the properties shown for the given values.
func (d *Description) Visible(values map[string]string) []Property {
	var out []Property
	for _, p := range d.Properties {
		if p.DisplayOptions.Matches(values) {
			out = append(out, p)
		}
	}
	return out
}

// Resources lists the values of the top-level resource selector.
func (d *Description) Resources() []string {
	p, ok := d.Property("resource", nil)
	if !ok {
		return nil
	}
	return optionValues(p.Options)
}

// Operations lists the operations offered for resource.
func (d *Description) Operations(resource string) []string {
	p, ok := d.Property("operation", map[string]string{"resource": resource})
	if !ok {
		return nil
	}
	return optionValues(p.Options)
}

func optionValues(opts []PropertyOption) []string {
	out := make([]string, 0, len(opts))
	for _, o := range opts {
		if s, ok := o.Value.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
