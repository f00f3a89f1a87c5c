package binding

import (
	"encoding/json"
	"fmt"
)

// Schema describes the expected shape of a JSON request body. Only declared
// fields are checked; unknown fields pass through untouched.
type Schema struct {
	Fields []Field
}

// Field declares one body field. A field that is present as JSON null is
// treated as absent.
type Field struct {
	Name     string
	Type     Type
	Required bool
}

// Validate checks obj field-by-field against the schema. Declared fields are
// normalized to their bound representation (int64, float64, string, bool,
// map, slice); unknown fields pass through as decoded. The returned map is a
// copy; obj itself is not modified.
func (s *Schema) Validate(obj map[string]any) (map[string]any, []FieldError) {
	var errs []FieldError
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		out[k] = v
	}

	for _, f := range s.Fields {
		v, ok := obj[f.Name]
		if !ok || v == nil {
			if f.Required {
				errs = append(errs, FieldError{Field: f.Name, Reason: "field is required"})
			}
			delete(out, f.Name)
			continue
		}
		nv, reason := normalizeJSON(v, f.Type)
		if reason != "" {
			errs = append(errs, FieldError{Field: f.Name, Reason: reason})
			continue
		}
		out[f.Name] = nv
	}
	return out, errs
}

// normalizeJSON converts a value decoded in json.Number mode to the bound
// representation for t, or reports why it cannot.
func normalizeJSON(v any, t Type) (any, string) {
	switch t {
	case TypeString, "":
		if s, ok := v.(string); ok {
			return s, ""
		}
		return nil, "must be a string"
	case TypeInt:
		if n, ok := v.(json.Number); ok {
			if i, err := n.Int64(); err == nil {
				return i, ""
			}
		}
		return nil, "must be an integer"
	case TypeFloat:
		if n, ok := v.(json.Number); ok {
			if f, err := n.Float64(); err == nil {
				return f, ""
			}
		}
		return nil, "must be a number"
	case TypeBool:
		if b, ok := v.(bool); ok {
			return b, ""
		}
		return nil, "must be a boolean"
	case TypeObject:
		if m, ok := v.(map[string]any); ok {
			return m, ""
		}
		return nil, "must be an object"
	case TypeArray:
		if a, ok := v.([]any); ok {
			return a, ""
		}
		return nil, "must be an array"
	default:
		return nil, fmt.Sprintf("unsupported field type %q", t)
	}
}
