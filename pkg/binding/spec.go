package binding

import "fmt"

// Source identifies where a parameter's raw value is read from.
type Source string

const (
	SourcePath   Source = "path"
	SourceQuery  Source = "query"
	SourceHeader Source = "header"
	SourceBody   Source = "body"
)

// Type is the declared type a raw value is coerced to before it reaches the
// handler.
type Type string

const (
	TypeString Type = "string"
	TypeInt    Type = "integer"
	TypeFloat  Type = "float"
	TypeBool   Type = "boolean"
	TypeObject Type = "object"
	TypeArray  Type = "array"
)

// ParamSpec declares one handler input: its name, the source it is read
// from, the type it is coerced to, and optional default and constraints.
// Specs are built once at registration time and never change afterwards.
type ParamSpec struct {
	Name     string
	Source   Source
	Type     Type
	Required bool

	// Default is bound when an optional parameter is absent. It must already
	// carry the declared type; the constructors normalize and fail fast on a
	// mismatch.
	Default any

	// Min and Max bound numeric values, inclusive.
	Min *float64
	Max *float64

	// Enum restricts a string value to a fixed set.
	Enum []string

	// Schema describes the expected body shape. Body specs only; nil accepts
	// any JSON document.
	Schema *Schema
}

// SpecOption adjusts a ParamSpec at construction time.
type SpecOption func(*ParamSpec)

// WithDefault declares a fallback value for an absent parameter and marks
// the parameter optional. The value must match the declared type; a mismatch
// panics at registration time rather than surfacing per-request.
func WithDefault(v any) SpecOption {
	return func(s *ParamSpec) {
		s.Default = v
		s.Required = false
	}
}

// Optional marks a parameter as allowed to be absent, with no default.
func Optional() SpecOption {
	return func(s *ParamSpec) { s.Required = false }
}

// WithMin bounds a numeric parameter from below, inclusive.
func WithMin(v float64) SpecOption {
	return func(s *ParamSpec) { s.Min = &v }
}

// WithMax bounds a numeric parameter from above, inclusive.
func WithMax(v float64) SpecOption {
	return func(s *ParamSpec) { s.Max = &v }
}

// WithEnum restricts a string parameter to the given values.
func WithEnum(values ...string) SpecOption {
	return func(s *ParamSpec) { s.Enum = values }
}

// Path declares a typed path parameter. The route table coerces the matched
// segment during resolution; binding re-checks any constraints the spec
// carries on top of the bare type.
func Path(name string, t Type, opts ...SpecOption) ParamSpec {
	return build(ParamSpec{Name: name, Source: SourcePath, Type: t, Required: true}, opts)
}

// Query declares a query-string parameter. An absent required parameter
// fails binding; an absent optional parameter binds its default, if any.
func Query(name string, t Type, opts ...SpecOption) ParamSpec {
	return build(ParamSpec{Name: name, Source: SourceQuery, Type: t, Required: true}, opts)
}

// Header declares a header parameter, passed through as a string. Header
// lookup is case-insensitive.
func Header(name string, opts ...SpecOption) ParamSpec {
	return build(ParamSpec{Name: name, Source: SourceHeader, Type: TypeString, Required: false}, opts)
}

// Body declares the request-body parameter. At most one body spec may appear
// per route; schema may be nil to accept any JSON document.
func Body(name string, schema *Schema, opts ...SpecOption) ParamSpec {
	return build(ParamSpec{Name: name, Source: SourceBody, Type: TypeObject, Required: true, Schema: schema}, opts)
}

func build(s ParamSpec, opts []SpecOption) ParamSpec {
	for _, opt := range opts {
		opt(&s)
	}
	if s.Default != nil {
		s.Default = normalizeDefault(s.Name, s.Type, s.Default)
	}
	return s
}

// normalizeDefault converts a declared default to the canonical bound
// representation (int64 for integers, float64 for floats) and panics when
// the value cannot carry the declared type.
func normalizeDefault(name string, t Type, v any) any {
	switch t {
	case TypeInt:
		switch n := v.(type) {
		case int:
			return int64(n)
		case int32:
			return int64(n)
		case int64:
			return n
		}
	case TypeFloat:
		switch n := v.(type) {
		case int:
			return float64(n)
		case float32:
			return float64(n)
		case float64:
			return n
		}
	case TypeString, "":
		if s, ok := v.(string); ok {
			return s
		}
	case TypeBool:
		if b, ok := v.(bool); ok {
			return b
		}
	default:
		return v
	}
	panic(fmt.Sprintf("binding: default for %q does not match declared type %q", name, t))
}
