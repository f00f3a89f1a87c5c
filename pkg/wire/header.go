package wire

import "strings"

// Header holds header fields keyed by lower-cased name. Duplicate fields on
// the way in are joined with ", " in receipt order.
type Header map[string]string

// Get returns the value for name, looked up case-insensitively.
func (h Header) Get(name string) string {
	return h[strings.ToLower(name)]
}

// Has reports whether name is present.
func (h Header) Has(name string) bool {
	_, ok := h[strings.ToLower(name)]
	return ok
}

// Set stores value under name, replacing any previous value.
func (h Header) Set(name, value string) {
	h[strings.ToLower(name)] = value
}

// add joins repeated fields instead of replacing them.
func (h Header) add(name, value string) {
	key := strings.ToLower(name)
	if prev, ok := h[key]; ok {
		h[key] = prev + ", " + value
		return
	}
	h[key] = value
}

// Clone returns a copy of h. A nil header clones to nil.
func (h Header) Clone() Header {
	if h == nil {
		return nil
	}
	out := make(Header, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

// containsToken reports whether the comma-separated header value contains
// token, compared case-insensitively. Used for Connection header fields,
// which may carry several tokens ("keep-alive, Upgrade").
func containsToken(value, token string) bool {
	for _, part := range strings.Split(value, ",") {
		if strings.EqualFold(strings.TrimSpace(part), token) {
			return true
		}
	}
	return false
}
