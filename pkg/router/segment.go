package router

import (
	"fmt"
	"strings"

	"github.com/rhuss/hopper/pkg/binding"
)

// Segment is one element of a parsed route pattern: either a literal to
// match exactly or a typed capture.
type Segment struct {
	// Literal is the exact text to match; empty for captures.
	Literal string
	// Name and Type describe a capture segment ("{id:int}" → "id",
	// integer).
	Name string
	Type binding.Type
}

// IsCapture reports whether the segment captures a path value.
func (s Segment) IsCapture() bool { return s.Name != "" }

// captureTypes maps the pattern type tags onto binding types.
var captureTypes = map[string]binding.Type{
	"":       binding.TypeString,
	"str":    binding.TypeString,
	"string": binding.TypeString,
	"int":    binding.TypeInt,
	"float":  binding.TypeFloat,
}

// ParsePattern splits a route pattern into segments. Patterns are absolute
// ("/users/{id:int}"), captures use {name} or {name:type} with type one of
// str, int, float, and capture names must be unique within one pattern.
func ParsePattern(pattern string) ([]Segment, error) {
	if !strings.HasPrefix(pattern, "/") {
		return nil, fmt.Errorf("pattern %q must start with /", pattern)
	}

	parts := splitPath(pattern)
	segments := make([]Segment, 0, len(parts))
	seen := make(map[string]bool)

	for _, part := range parts {
		if !strings.HasPrefix(part, "{") {
			if strings.ContainsAny(part, "{}") {
				return nil, fmt.Errorf("pattern %q: malformed segment %q", pattern, part)
			}
			segments = append(segments, Segment{Literal: part})
			continue
		}
		if !strings.HasSuffix(part, "}") {
			return nil, fmt.Errorf("pattern %q: malformed capture %q", pattern, part)
		}

		name, tag, _ := strings.Cut(part[1:len(part)-1], ":")
		if name == "" || strings.ContainsAny(name, "{}:/") {
			return nil, fmt.Errorf("pattern %q: malformed capture %q", pattern, part)
		}
		if seen[name] {
			return nil, fmt.Errorf("pattern %q: duplicate capture name %q", pattern, name)
		}
		seen[name] = true

		typ, ok := captureTypes[tag]
		if !ok {
			return nil, fmt.Errorf("pattern %q: unknown capture type %q", pattern, tag)
		}
		segments = append(segments, Segment{Name: name, Type: typ})
	}
	return segments, nil
}

// splitPath breaks a decoded path into its segments, tolerating one
// trailing slash. The root path has zero segments.
func splitPath(path string) []string {
	trimmed := strings.TrimPrefix(path, "/")
	trimmed = strings.TrimSuffix(trimmed, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// matchSegments matches decoded path parts against a parsed pattern,
// coercing captures. A coercion failure is a non-match, not an error, so
// the resolver can fall through to a later candidate.
func matchSegments(segments []Segment, parts []string) (map[string]any, bool) {
	if len(segments) != len(parts) {
		return nil, false
	}
	var params map[string]any
	for i, seg := range segments {
		part := parts[i]
		if !seg.IsCapture() {
			if seg.Literal != part {
				return nil, false
			}
			continue
		}
		if part == "" {
			return nil, false
		}
		v, err := binding.Coerce(part, seg.Type)
		if err != nil {
			return nil, false
		}
		if params == nil {
			params = make(map[string]any, len(segments))
		}
		params[seg.Name] = v
	}
	return params, true
}
