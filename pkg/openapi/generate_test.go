package openapi

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/rhuss/hopper/pkg/binding"
	"github.com/rhuss/hopper/pkg/router"
)

func noopHandler(c *router.Context) (*router.Response, error) {
	return router.NoContent(), nil
}

func buildTable() *router.Table {
	table := router.NewTable()

	userSchema := &binding.Schema{Fields: []binding.Field{
		{Name: "name", Type: binding.TypeString, Required: true},
		{Name: "age", Type: binding.TypeInt},
	}}

	table.Register("GET", "/users", noopHandler,
		router.WithSummary("List users"),
		router.WithParams(
			binding.Query("limit", binding.TypeInt, binding.WithDefault(20), binding.WithMin(1), binding.WithMax(100)),
		),
	)
	table.Register("POST", "/users", noopHandler,
		router.WithParams(binding.Body("user", userSchema)),
		router.WithResponse(201, "User created", userSchema),
	)
	table.Register("GET", "/users/{id:int}", noopHandler)
	table.Register("GET", "/swagger.json", noopHandler, router.WithBypassValidation())

	return table
}

func TestGenerate(t *testing.T) {
	doc := Generate(Info{Title: "Test API", Version: "1.0.0"}, buildTable().Routes())

	if doc.OpenAPI != "3.0.0" {
		t.Errorf("openapi = %q, want 3.0.0", doc.OpenAPI)
	}
	if doc.Info.Title != "Test API" {
		t.Errorf("title = %q, want Test API", doc.Info.Title)
	}

	// Bypass-validation routes stay out of the document.
	if _, ok := doc.Paths["/swagger.json"]; ok {
		t.Error("bypass route /swagger.json should not be documented")
	}

	users, ok := doc.Paths["/users"]
	if !ok {
		t.Fatal("missing path /users")
	}
	if users["get"] == nil || users["post"] == nil {
		t.Fatalf("path /users methods = %v, want get and post", users)
	}
	if users["get"].Summary != "List users" {
		t.Errorf("summary = %q, want the declared summary", users["get"].Summary)
	}

	// The typed capture is documented without its type tag.
	byID, ok := doc.Paths["/users/{id}"]
	if !ok {
		t.Fatalf("missing path /users/{id}; have %v", pathsOf(doc))
	}
	op := byID["get"]
	if len(op.Parameters) != 1 {
		t.Fatalf("parameters = %+v, want exactly the path capture", op.Parameters)
	}
	p := op.Parameters[0]
	if p.Name != "id" || p.In != "path" || !p.Required || p.Schema.Type != "integer" {
		t.Errorf("path parameter = %+v, want required integer id in path", p)
	}
}

func TestGenerateQueryParameter(t *testing.T) {
	doc := Generate(Info{Title: "t", Version: "1"}, buildTable().Routes())

	op := doc.Paths["/users"]["get"]
	var limit *Parameter
	for i := range op.Parameters {
		if op.Parameters[i].Name == "limit" {
			limit = &op.Parameters[i]
		}
	}
	if limit == nil {
		t.Fatalf("parameters = %+v, want limit", op.Parameters)
	}
	if limit.In != "query" || limit.Required {
		t.Errorf("limit = %+v, want optional query parameter", limit)
	}
	if limit.Schema.Type != "integer" {
		t.Errorf("limit type = %q, want integer", limit.Schema.Type)
	}
	if limit.Schema.Minimum == nil || *limit.Schema.Minimum != 1 {
		t.Errorf("limit minimum = %v, want 1", limit.Schema.Minimum)
	}
	if limit.Schema.Default != int64(20) {
		t.Errorf("limit default = %v (%T), want 20", limit.Schema.Default, limit.Schema.Default)
	}
}

func TestGenerateRequestBody(t *testing.T) {
	doc := Generate(Info{Title: "t", Version: "1"}, buildTable().Routes())

	op := doc.Paths["/users"]["post"]
	if op.RequestBody == nil {
		t.Fatal("missing requestBody on POST /users")
	}
	schema := op.RequestBody.Content["application/json"].Schema
	if schema == nil || schema.Type != "object" {
		t.Fatalf("body schema = %+v, want object", schema)
	}
	if schema.Properties["name"].Type != "string" || schema.Properties["age"].Type != "integer" {
		t.Errorf("properties = %+v, want declared field types", schema.Properties)
	}
	if len(schema.Required) != 1 || schema.Required[0] != "name" {
		t.Errorf("required = %v, want [name]", schema.Required)
	}

	resp, ok := op.Responses["201"]
	if !ok {
		t.Fatalf("responses = %v, want 201", op.Responses)
	}
	if resp.Description != "User created" {
		t.Errorf("201 description = %q, want the declared description", resp.Description)
	}
}

func TestGenerateDefaultResponse(t *testing.T) {
	doc := Generate(Info{Title: "t", Version: "1"}, buildTable().Routes())

	op := doc.Paths["/users/{id}"]["get"]
	resp, ok := op.Responses["200"]
	if !ok {
		t.Fatalf("responses = %v, want a default 200", op.Responses)
	}
	if resp.Description != "Successful response" {
		t.Errorf("description = %q, want the generic default", resp.Description)
	}
}

func TestDocumentHandler(t *testing.T) {
	doc := Generate(Info{Title: "Test API", Version: "1.0.0"}, buildTable().Routes())

	h, err := DocumentHandler(doc)
	if err != nil {
		t.Fatalf("DocumentHandler failed: %v", err)
	}

	resp, err := h(nil)
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if resp.Status != 200 || resp.ContentType != "application/json" {
		t.Errorf("response = %d %q, want 200 application/json", resp.Status, resp.ContentType)
	}

	var decoded Document
	if err := json.Unmarshal(resp.Body, &decoded); err != nil {
		t.Fatalf("served document is not valid JSON: %v", err)
	}
	if decoded.Info.Title != "Test API" {
		t.Errorf("served title = %q, want Test API", decoded.Info.Title)
	}
}

func TestUIHandler(t *testing.T) {
	resp, err := UIHandler()(nil)
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if resp.Status != 200 {
		t.Errorf("status = %d, want 200", resp.Status)
	}
	if !strings.Contains(string(resp.Body), "swagger-ui") {
		t.Error("page body missing the Swagger UI mount point")
	}
	if !strings.Contains(string(resp.Body), "/swagger.json") {
		t.Error("page body missing the document URL")
	}
}

func pathsOf(doc *Document) []string {
	var out []string
	for p := range doc.Paths {
		out = append(out, p)
	}
	return out
}
