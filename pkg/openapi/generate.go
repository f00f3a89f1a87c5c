package openapi

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rhuss/hopper/pkg/binding"
	"github.com/rhuss/hopper/pkg/router"
)

// typeMapping translates declared binding types into OpenAPI schema types.
var typeMapping = map[binding.Type]string{
	binding.TypeString: "string",
	binding.TypeInt:    "integer",
	binding.TypeFloat:  "number",
	binding.TypeBool:   "boolean",
	binding.TypeObject: "object",
	binding.TypeArray:  "array",
}

// Generate builds the OpenAPI document for the given routes. Routes marked
// bypass-validation (static assets, the documentation endpoints themselves)
// are left out.
func Generate(info Info, routes []*router.Route) *Document {
	doc := &Document{
		OpenAPI: "3.0.0",
		Info:    info,
		Paths:   make(map[string]PathItem),
	}

	for _, route := range routes {
		if route.BypassValidation {
			continue
		}

		path := openapiPath(route.Segments)
		item, ok := doc.Paths[path]
		if !ok {
			item = make(PathItem)
			doc.Paths[path] = item
		}
		item[strings.ToLower(route.Method)] = operation(route)
	}

	return doc
}

// openapiPath renders parsed segments back into an OpenAPI path template:
// the type tags disappear, captures keep their braces.
func openapiPath(segments []router.Segment) string {
	if len(segments) == 0 {
		return "/"
	}
	var sb strings.Builder
	for _, seg := range segments {
		sb.WriteByte('/')
		if seg.IsCapture() {
			sb.WriteString("{" + seg.Name + "}")
		} else {
			sb.WriteString(seg.Literal)
		}
	}
	return sb.String()
}

func operation(route *router.Route) *Operation {
	op := &Operation{
		Summary:   route.Summary,
		Responses: responses(route),
	}
	if op.Summary == "" {
		op.Summary = fmt.Sprintf("Handler for %s %s", route.Method, route.Pattern)
	}

	op.Parameters = parameters(route)

	if body := bodySpec(route); body != nil {
		op.RequestBody = &RequestBody{
			Required: body.Required,
			Content: map[string]MediaType{
				"application/json": {Schema: bodySchema(body)},
			},
		}
	}

	return op
}

// parameters documents the path captures first, then the declared query
// and header specs in declaration order.
func parameters(route *router.Route) []Parameter {
	var params []Parameter

	specByName := make(map[string]binding.ParamSpec)
	for _, spec := range route.Params {
		if spec.Source == binding.SourcePath {
			specByName[spec.Name] = spec
		}
	}

	for _, seg := range route.Segments {
		if !seg.IsCapture() {
			continue
		}
		schema := &SchemaObject{Type: typeMapping[seg.Type]}
		if spec, ok := specByName[seg.Name]; ok {
			decorate(schema, spec)
		}
		params = append(params, Parameter{
			Name:     seg.Name,
			In:       "path",
			Required: true,
			Schema:   schema,
		})
	}

	for _, spec := range route.Params {
		switch spec.Source {
		case binding.SourceQuery, binding.SourceHeader:
			in := "query"
			if spec.Source == binding.SourceHeader {
				in = "header"
			}
			schema := &SchemaObject{Type: typeMapping[spec.Type]}
			decorate(schema, spec)
			params = append(params, Parameter{
				Name:     spec.Name,
				In:       in,
				Required: spec.Required,
				Schema:   schema,
			})
		}
	}

	return params
}

// decorate copies the spec's constraints onto the schema.
func decorate(schema *SchemaObject, spec binding.ParamSpec) {
	schema.Enum = spec.Enum
	schema.Minimum = spec.Min
	schema.Maximum = spec.Max
	schema.Default = spec.Default
}

func bodySpec(route *router.Route) *binding.ParamSpec {
	for i := range route.Params {
		if route.Params[i].Source == binding.SourceBody {
			return &route.Params[i]
		}
	}
	return nil
}

// bodySchema turns a declared body schema into an inline schema object. A
// body spec without a schema documents a free-form JSON object.
func bodySchema(spec *binding.ParamSpec) *SchemaObject {
	obj := &SchemaObject{Type: "object"}
	if spec.Schema == nil {
		return obj
	}

	obj.Properties = make(map[string]*SchemaObject, len(spec.Schema.Fields))
	for _, f := range spec.Schema.Fields {
		obj.Properties[f.Name] = &SchemaObject{Type: typeMapping[f.Type]}
		if f.Required {
			obj.Required = append(obj.Required, f.Name)
		}
	}
	sort.Strings(obj.Required)
	return obj
}

// responses renders the declared responses, falling back to a generic 200.
func responses(route *router.Route) map[string]ResponseObject {
	out := make(map[string]ResponseObject)

	for status, spec := range route.Responses {
		obj := ResponseObject{Description: spec.Description}
		if obj.Description == "" {
			obj.Description = "Response with status " + strconv.Itoa(status)
		}
		if spec.Schema != nil {
			obj.Content = map[string]MediaType{
				"application/json": {Schema: schemaObject(spec.Schema)},
			}
		}
		out[strconv.Itoa(status)] = obj
	}

	if len(out) == 0 {
		out["200"] = ResponseObject{
			Description: "Successful response",
			Content: map[string]MediaType{
				"application/json": {Schema: &SchemaObject{}},
			},
		}
	}
	return out
}

func schemaObject(s *binding.Schema) *SchemaObject {
	obj := &SchemaObject{Type: "object", Properties: make(map[string]*SchemaObject, len(s.Fields))}
	for _, f := range s.Fields {
		obj.Properties[f.Name] = &SchemaObject{Type: typeMapping[f.Type]}
		if f.Required {
			obj.Required = append(obj.Required, f.Name)
		}
	}
	sort.Strings(obj.Required)
	return obj
}
