package binding

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	reasonMissing    = "required parameter is missing"
	reasonNotInteger = "not a valid integer"
	reasonNotNumber  = "not a valid number"
	reasonNotBoolean = "not a valid boolean"
)

// Coerce converts a raw textual value to the given type. The route table
// shares it to decide whether a typed capture segment matches at all, so a
// coercion failure there falls through to the next candidate route instead
// of becoming a validation error.
func Coerce(raw string, t Type) (any, error) {
	switch t {
	case TypeString, "":
		return raw, nil
	case TypeInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, errors.New(reasonNotInteger)
		}
		return n, nil
	case TypeFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, errors.New(reasonNotNumber)
		}
		return f, nil
	case TypeBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, errors.New(reasonNotBoolean)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("cannot coerce to type %q", t)
	}
}

// checkConstraints applies Min/Max/Enum to an already-coerced value and
// returns a client-facing reason, or "" when the value passes.
func checkConstraints(s *ParamSpec, v any) string {
	switch n := v.(type) {
	case int64:
		return checkRange(s, float64(n))
	case float64:
		return checkRange(s, n)
	case string:
		if len(s.Enum) > 0 && !contains(s.Enum, n) {
			return "must be one of: " + strings.Join(s.Enum, ", ")
		}
	}
	return ""
}

func checkRange(s *ParamSpec, v float64) string {
	if s.Min != nil && v < *s.Min {
		return fmt.Sprintf("must be at least %g", *s.Min)
	}
	if s.Max != nil && v > *s.Max {
		return fmt.Sprintf("must be at most %g", *s.Max)
	}
	return ""
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
