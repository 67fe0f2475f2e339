package tool

import (
	"fmt"
	"math"
)

// Type represents JSON Schema types.
type Type string

const (
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeInteger Type = "integer"
	TypeBoolean Type = "boolean"
	TypeArray   Type = "array"
	TypeObject  Type = "object"
)

// Schema represents a JSON Schema for tool parameters.
type Schema struct {
	Type        Type               `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
}

// Declaration declares a tool's function signature for the LLM.
type Declaration struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Parameters  *Schema `json:"parameters,omitempty"`
}

// Validate checks decoded call arguments against the schema: required
// fields present, value kinds matching, enum membership. It runs before
// any handler so malformed calls never cause side effects.
func (s *Schema) Validate(args map[string]any) error {
	if s == nil {
		return nil
	}
	if s.Type != TypeObject {
		return fmt.Errorf("parameter schema root must be an object, got %q", s.Type)
	}

	for _, name := range s.Required {
		if _, ok := args[name]; !ok {
			return fmt.Errorf("missing required field %q", name)
		}
	}

	for name, value := range args {
		prop, ok := s.Properties[name]
		if !ok {
			return fmt.Errorf("unknown field %q", name)
		}
		if err := prop.validateValue(name, value); err != nil {
			return err
		}
	}
	return nil
}

func (s *Schema) validateValue(name string, value any) error {
	if value == nil {
		return fmt.Errorf("field %q is null", name)
	}

	// An absent type leaves the value unconstrained. Schemas imported
	// from MCP servers may use constructs richer than this subset.
	if s.Type == "" {
		return nil
	}

	switch s.Type {
	case TypeString:
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("field %q must be a string", name)
		}
		if len(s.Enum) > 0 && !contains(s.Enum, str) {
			return fmt.Errorf("field %q must be one of %v", name, s.Enum)
		}
	case TypeNumber:
		if !isNumeric(value) {
			return fmt.Errorf("field %q must be a number", name)
		}
	case TypeInteger:
		f, ok := asFloat(value)
		if !ok || f != math.Trunc(f) {
			return fmt.Errorf("field %q must be an integer", name)
		}
	case TypeBoolean:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("field %q must be a boolean", name)
		}
	case TypeArray:
		items, ok := value.([]any)
		if !ok {
			return fmt.Errorf("field %q must be an array", name)
		}
		if s.Items != nil {
			for i, item := range items {
				if err := s.Items.validateValue(fmt.Sprintf("%s[%d]", name, i), item); err != nil {
					return err
				}
			}
		}
	case TypeObject:
		obj, ok := value.(map[string]any)
		if !ok {
			return fmt.Errorf("field %q must be an object", name)
		}
		if len(s.Properties) > 0 {
			if err := s.Validate(obj); err != nil {
				return fmt.Errorf("field %q: %w", name, err)
			}
		}
	default:
		return fmt.Errorf("field %q has unsupported schema type %q", name, s.Type)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func isNumeric(value any) bool {
	_, ok := asFloat(value)
	return ok
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
