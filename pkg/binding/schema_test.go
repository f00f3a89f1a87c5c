package binding

import (
	"encoding/json"
	"testing"
)

func userSchema() *Schema {
	return &Schema{Fields: []Field{
		{Name: "name", Type: TypeString, Required: true},
		{Name: "email", Type: TypeString, Required: true},
		{Name: "age", Type: TypeInt},
	}}
}

func TestBindBody(t *testing.T) {
	specs := []ParamSpec{Body("user", userSchema())}

	tests := []struct {
		name      string
		body      string
		wantErr   bool
		wantField string
	}{
		{
			name: "valid body accepted",
			body: `{"name":"ada","email":"ada@example.com","age":36}`,
		},
		{
			name:      "missing required field named",
			body:      `{"name":"ada"}`,
			wantErr:   true,
			wantField: "email",
		},
		{
			name:      "null required field named",
			body:      `{"name":"ada","email":null}`,
			wantErr:   true,
			wantField: "email",
		},
		{
			name:      "wrong field type named",
			body:      `{"name":"ada","email":"ada@example.com","age":"old"}`,
			wantErr:   true,
			wantField: "age",
		},
		{
			name:      "empty body rejected",
			body:      "",
			wantErr:   true,
			wantField: "user",
		},
		{
			name:      "malformed JSON rejected",
			body:      `{"name":`,
			wantErr:   true,
			wantField: "user",
		},
		{
			name:      "non-object body rejected",
			body:      `[1,2,3]`,
			wantErr:   true,
			wantField: "user",
		},
		{
			name: "unknown fields pass through",
			body: `{"name":"ada","email":"ada@example.com","nickname":"countess"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, errs := Bind(specs, Request{Body: []byte(tt.body)})
			if tt.wantErr {
				if errs == nil {
					t.Fatalf("Bind() succeeded, want error for field %q", tt.wantField)
				}
				if errField(errs, tt.wantField) == nil {
					t.Errorf("Bind() errors = %v, want error for field %q", errs.Fields, tt.wantField)
				}
				return
			}
			if errs != nil {
				t.Fatalf("Bind() failed: %v", errs)
			}
			if args.Map("user") == nil {
				t.Fatal("args.Map(user) = nil, want validated document")
			}
		})
	}
}

func TestBindBodyNormalizesDeclaredFields(t *testing.T) {
	specs := []ParamSpec{Body("user", userSchema())}

	args, errs := Bind(specs, Request{Body: []byte(`{"name":"ada","email":"a@b.c","age":36,"extra":1}`)})
	if errs != nil {
		t.Fatalf("Bind() failed: %v", errs)
	}
	doc := args.Map("user")

	if got, ok := doc["age"].(int64); !ok || got != 36 {
		t.Errorf("doc[age] = %v (%T), want int64 36", doc["age"], doc["age"])
	}
	if _, ok := doc["extra"]; !ok {
		t.Error("unknown field extra dropped, want passthrough")
	}
}

func TestBindBodyWithoutSchema(t *testing.T) {
	specs := []ParamSpec{Body("payload", nil)}

	args, errs := Bind(specs, Request{Body: []byte(`{"anything":"goes"}`)})
	if errs != nil {
		t.Fatalf("Bind() failed: %v", errs)
	}
	if !args.Has("payload") {
		t.Fatal("args missing payload")
	}

	// Schemaless bodies accept any JSON document, not only objects.
	args, errs = Bind(specs, Request{Body: []byte(`[1,2]`)})
	if errs != nil {
		t.Fatalf("Bind() failed on array body: %v", errs)
	}
	if !args.Has("payload") {
		t.Fatal("args missing array payload")
	}
}

func TestBindBodyCollectsMultipleFieldErrors(t *testing.T) {
	specs := []ParamSpec{Body("user", userSchema())}

	_, errs := Bind(specs, Request{Body: []byte(`{"age":"old"}`)})
	if errs == nil {
		t.Fatal("Bind() succeeded, want three field failures")
	}
	for _, field := range []string{"name", "email", "age"} {
		if errField(errs, field) == nil {
			t.Errorf("errors = %v, want entry for %q", errs.Fields, field)
		}
	}
}

func TestSchemaValidateDoesNotModifyInput(t *testing.T) {
	schema := &Schema{Fields: []Field{{Name: "n", Type: TypeInt}}}
	in := map[string]any{"n": json.Number("7"), "keep": "me"}

	out, errs := schema.Validate(in)
	if len(errs) != 0 {
		t.Fatalf("Validate() failed: %v", errs)
	}
	if _, ok := in["n"].(int64); ok {
		t.Error("Validate() modified its input map")
	}
	if got, ok := out["n"].(int64); !ok || got != 7 {
		t.Errorf("out[n] = %v (%T), want int64 7", out["n"], out["n"])
	}
}
