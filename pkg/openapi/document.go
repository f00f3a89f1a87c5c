package openapi

// Document is the root OpenAPI 3.0 object.
type Document struct {
	OpenAPI string              `json:"openapi"`
	Info    Info                `json:"info"`
	Paths   map[string]PathItem `json:"paths"`
}

// Info describes the documented API.
type Info struct {
	Title       string `json:"title"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
}

// PathItem maps lower-case HTTP methods to operations.
type PathItem map[string]*Operation

// Operation documents one (method, path) pair.
type Operation struct {
	Summary     string                    `json:"summary,omitempty"`
	Parameters  []Parameter               `json:"parameters,omitempty"`
	RequestBody *RequestBody              `json:"requestBody,omitempty"`
	Responses   map[string]ResponseObject `json:"responses"`
}

// Parameter documents one path, query, or header input.
type Parameter struct {
	Name     string        `json:"name"`
	In       string        `json:"in"`
	Required bool          `json:"required"`
	Schema   *SchemaObject `json:"schema,omitempty"`
}

// RequestBody documents the JSON request body.
type RequestBody struct {
	Required bool                 `json:"required"`
	Content  map[string]MediaType `json:"content"`
}

// MediaType wraps a schema under a content type.
type MediaType struct {
	Schema *SchemaObject `json:"schema"`
}

// ResponseObject documents one response status.
type ResponseObject struct {
	Description string               `json:"description"`
	Content     map[string]MediaType `json:"content,omitempty"`
}

// SchemaObject is an inline JSON schema.
type SchemaObject struct {
	Type       string                   `json:"type,omitempty"`
	Properties map[string]*SchemaObject `json:"properties,omitempty"`
	Required   []string                 `json:"required,omitempty"`
	Enum       []string                 `json:"enum,omitempty"`
	Minimum    *float64                 `json:"minimum,omitempty"`
	Maximum    *float64                 `json:"maximum,omitempty"`
	Default    any                      `json:"default,omitempty"`
}
