package gateway

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"google.golang.org/genai"
)

// Schema is a JSON schema used twice: as the response schema sent to the
// model and as the validator applied to whatever comes back.
type Schema struct {
	name     string
	raw      string
	compiled *jsonschema.Schema
	root     *schemaNode
}

// schemaNode is the subset of JSON schema the generation API understands.
type schemaNode struct {
	Type        string                 `json:"type"`
	Description string                 `json:"description,omitempty"`
	Properties  map[string]*schemaNode `json:"properties,omitempty"`
	Items       *schemaNode            `json:"items,omitempty"`
	Required    []string               `json:"required,omitempty"`
	Enum        []string               `json:"enum,omitempty"`
	MinItems    *int64                 `json:"minItems,omitempty"`
	MaxItems    *int64                 `json:"maxItems,omitempty"`
}

// NewSchema compiles raw under the given name.
func NewSchema(name, raw string) (*Schema, error) {
	url := "mem://" + name + ".json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, strings.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("add schema resource %s: %w", name, err)
	}
	compiled, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}

	var root schemaNode
	if err := json.Unmarshal([]byte(raw), &root); err != nil {
		return nil, fmt.Errorf("parse schema %s: %w", name, err)
	}
	return &Schema{name: name, raw: raw, compiled: compiled, root: &root}, nil
}

// MustSchema is like NewSchema but panics on error. For package-level schemas.
func MustSchema(name, raw string) *Schema {
	s, err := NewSchema(name, raw)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the schema's name.
func (s *Schema) Name() string { return s.name }

// Parse decodes text as JSON and validates it against the schema.
func (s *Schema) Parse(text string) (any, error) {
	var payload any
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &payload); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if err := s.compiled.Validate(payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// GenAI converts the schema into the generation API's schema type.
func (s *Schema) GenAI() *genai.Schema {
	return s.root.genai()
}

func (n *schemaNode) genai() *genai.Schema {
	if n == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        genai.Type(strings.ToUpper(n.Type)),
		Description: n.Description,
		Required:    n.Required,
		Enum:        n.Enum,
		Items:       n.Items.genai(),
		MinItems:    n.MinItems,
		MaxItems:    n.MaxItems,
	}
	if len(n.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(n.Properties))
		for k, v := range n.Properties {
			out.Properties[k] = v.genai()
		}
	}
	return out
}
