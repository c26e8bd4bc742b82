package tools

import (
	"bytes"
	"fmt"
	"math"

	json "github.com/goccy/go-json"
)

// FieldType is the JSON type an argument must have.
type FieldType string

const (
	TypeString      FieldType = "string"
	TypeInteger     FieldType = "integer"
	TypeBoolean     FieldType = "boolean"
	TypeStringArray FieldType = "array"
)

// Field declares one tool argument. Min and Max apply to integers when
// Bounded is set; Default is used when an optional argument is absent.
type Field struct {
	Default     any
	Name        string
	Description string
	Type        FieldType
	Min         int
	Max         int
	Bounded     bool
	Required    bool
}

// Schema is the declared argument list of one tool. Arguments that are not
// declared are ignored.
type Schema struct {
	Fields []Field
}

var jsonNull = []byte("null")

// Validate checks raw against the schema and returns the normalized arguments
// with defaults applied. An empty or null payload is treated as {}.
func (s Schema) Validate(raw json.RawMessage) (map[string]any, []FieldError) {
	obj := map[string]json.RawMessage{}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && !bytes.Equal(trimmed, jsonNull) {
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return nil, []FieldError{{Field: "arguments", Msg: "must be a JSON object"}}
		}
	}

	values := make(map[string]any, len(s.Fields))
	var errs []FieldError
	for _, f := range s.Fields {
		v, ok := obj[f.Name]
		if !ok {
			if f.Required {
				errs = append(errs, FieldError{Field: f.Name, Msg: "required"})
			} else if f.Default != nil {
				values[f.Name] = f.Default
			}
			continue
		}
		if bytes.Equal(bytes.TrimSpace(v), jsonNull) {
			errs = append(errs, FieldError{Field: f.Name, Msg: "must not be null"})
			continue
		}

		value, msg := f.decode(v)
		if msg != "" {
			errs = append(errs, FieldError{Field: f.Name, Msg: msg})
			continue
		}
		values[f.Name] = value
	}
	return values, errs
}

func (f Field) decode(v json.RawMessage) (any, string) {
	switch f.Type {
	case TypeString:
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return nil, "must be a string"
		}
		if f.Required && s == "" {
			return nil, "must not be empty"
		}
		return s, ""
	case TypeInteger:
		var n float64
		if err := json.Unmarshal(v, &n); err != nil || n != math.Trunc(n) {
			return nil, "must be an integer"
		}
		if f.Bounded && n < float64(f.Min) {
			return nil, fmt.Sprintf("must be >= %d", f.Min)
		}
		if f.Bounded && n > float64(f.Max) {
			return nil, fmt.Sprintf("must be <= %d", f.Max)
		}
		return int(n), ""
	case TypeBoolean:
		var b bool
		if err := json.Unmarshal(v, &b); err != nil {
			return nil, "must be a boolean"
		}
		return b, ""
	case TypeStringArray:
		var items []string
		if err := json.Unmarshal(v, &items); err != nil {
			return nil, "must be an array of strings"
		}
		if f.Required && len(items) == 0 {
			return nil, "must contain at least one item"
		}
		return items, ""
	default:
		return nil, fmt.Sprintf("unsupported type %q", f.Type)
	}
}

// Bind validates raw and decodes the normalized arguments into dst.
func (s Schema) Bind(tool string, raw json.RawMessage, dst any) error {
	values, errs := s.Validate(raw)
	if len(errs) > 0 {
		return &ValidationError{Tool: tool, Fields: errs}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to encode arguments: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to decode arguments: %w", err)
	}
	return nil
}

// JSONSchema renders the schema as a JSON Schema object for tools/list.
func (s Schema) JSONSchema() map[string]any {
	props := make(map[string]any, len(s.Fields))
	required := []string{}
	for _, f := range s.Fields {
		p := map[string]any{
			"type":        string(f.Type),
			"description": f.Description,
		}
		if f.Type == TypeStringArray {
			p["items"] = map[string]any{"type": "string"}
		}
		if f.Bounded {
			p["minimum"] = f.Min
			p["maximum"] = f.Max
		}
		if f.Default != nil {
			p["default"] = f.Default
		}
		props[f.Name] = p
		if f.Required {
			required = append(required, f.Name)
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}
