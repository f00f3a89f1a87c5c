package binding

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strings"
)

// Request carries the parsed pieces of one request that binding reads from.
// PathParams hold values already coerced by route matching; Headers use
// lower-cased keys, matching the wire-level header representation.
type Request struct {
	PathParams map[string]any
	Query      url.Values
	Headers    map[string]string
	Body       []byte
}

// Args is the validated argument mapping produced by a successful bind.
// Values carry their bound types: int64 for integers, float64 for floats,
// string, bool, and map[string]any / []any for body documents.
type Args map[string]any

// Has reports whether a value was bound under name.
func (a Args) Has(name string) bool {
	_, ok := a[name]
	return ok
}

// String returns the string bound under name, or "" when absent.
func (a Args) String(name string) string {
	v, _ := a[name].(string)
	return v
}

// Int returns the integer bound under name, or 0 when absent.
func (a Args) Int(name string) int64 {
	v, _ := a[name].(int64)
	return v
}

// Float returns the float bound under name, or 0 when absent.
func (a Args) Float(name string) float64 {
	v, _ := a[name].(float64)
	return v
}

// Bool returns the boolean bound under name, or false when absent.
func (a Args) Bool(name string) bool {
	v, _ := a[name].(bool)
	return v
}

// Map returns the JSON object bound under name, or nil when absent.
func (a Args) Map(name string) map[string]any {
	v, _ := a[name].(map[string]any)
	return v
}

// Bind walks specs in order and produces the validated argument mapping.
// Failures are collected across all specs rather than stopping at the first;
// a non-nil Errors means the handler stage must not run.
func Bind(specs []ParamSpec, req Request) (Args, *Errors) {
	args := make(Args, len(specs))
	errs := &Errors{}

	for i := range specs {
		spec := &specs[i]
		switch spec.Source {
		case SourcePath:
			bindPath(spec, req, args, errs)
		case SourceQuery:
			bindQuery(spec, req, args, errs)
		case SourceHeader:
			bindHeader(spec, req, args, errs)
		case SourceBody:
			bindBody(spec, req, args, errs)
		}
	}

	if len(errs.Fields) > 0 {
		return nil, errs
	}
	return args, nil
}

func bindPath(spec *ParamSpec, req Request, args Args, errs *Errors) {
	v, ok := req.PathParams[spec.Name]
	if !ok {
		errs.Add(spec.Name, reasonMissing)
		return
	}
	if reason := checkConstraints(spec, v); reason != "" {
		errs.Add(spec.Name, reason)
		return
	}
	args[spec.Name] = v
}

func bindQuery(spec *ParamSpec, req Request, args Args, errs *Errors) {
	if req.Query == nil || !req.Query.Has(spec.Name) {
		applyAbsent(spec, args, errs)
		return
	}
	v, err := Coerce(req.Query.Get(spec.Name), spec.Type)
	if err != nil {
		errs.Add(spec.Name, err.Error())
		return
	}
	if reason := checkConstraints(spec, v); reason != "" {
		errs.Add(spec.Name, reason)
		return
	}
	args[spec.Name] = v
}

func bindHeader(spec *ParamSpec, req Request, args Args, errs *Errors) {
	raw, ok := req.Headers[strings.ToLower(spec.Name)]
	if !ok {
		applyAbsent(spec, args, errs)
		return
	}
	v, err := Coerce(raw, spec.Type)
	if err != nil {
		errs.Add(spec.Name, err.Error())
		return
	}
	args[spec.Name] = v
}

func bindBody(spec *ParamSpec, req Request, args Args, errs *Errors) {
	if len(bytes.TrimSpace(req.Body)) == 0 {
		if spec.Required {
			errs.Add(spec.Name, "request body is required")
		} else if spec.Default != nil {
			args[spec.Name] = spec.Default
		}
		return
	}

	dec := json.NewDecoder(bytes.NewReader(req.Body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		errs.Add(spec.Name, "request body is not valid JSON")
		return
	}

	if spec.Schema == nil {
		args[spec.Name] = doc
		return
	}

	obj, ok := doc.(map[string]any)
	if !ok {
		errs.Add(spec.Name, "request body must be a JSON object")
		return
	}
	validated, fieldErrs := spec.Schema.Validate(obj)
	if len(fieldErrs) > 0 {
		errs.Fields = append(errs.Fields, fieldErrs...)
		return
	}
	args[spec.Name] = validated
}

func applyAbsent(spec *ParamSpec, args Args, errs *Errors) {
	if spec.Default != nil {
		args[spec.Name] = spec.Default
		return
	}
	if spec.Required {
		errs.Add(spec.Name, reasonMissing)
	}
}
