package binding

import (
	"fmt"
	"strings"
)

// FieldError names one failing parameter and why it failed. The reason
// strings are client-facing and kept short and stable.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Errors collects every field failure of one bind pass. It implements error
// so a failed bind travels through ordinary error returns; the dispatcher
// serializes it into the validation envelope.
type Errors struct {
	Fields []FieldError
}

// Add appends one field failure.
func (e *Errors) Add(field, reason string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: reason})
}

// Error implements the error interface.
func (e *Errors) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Field, f.Reason)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
