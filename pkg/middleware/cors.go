package middleware

import (
	"net/http"
	"strings"

	"github.com/rhuss/hopper/pkg/router"
)

// CORSConfig controls the cross-origin headers the server attaches.
// The zero value falls back to a permissive default matching what simple
// browser clients need: any origin, the standard methods, Content-Type.
type CORSConfig struct {
	AllowOrigin  string
	AllowMethods []string
	AllowHeaders []string
}

func (c CORSConfig) withDefaults() CORSConfig {
	if c.AllowOrigin == "" {
		c.AllowOrigin = "*"
	}
	if len(c.AllowMethods) == 0 {
		c.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	if len(c.AllowHeaders) == 0 {
		c.AllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
	return c
}

// Decorate attaches the cross-origin headers to a response. The dispatcher
// uses it directly for responses that never pass through the chain (route
// resolution and validation errors).
func (c CORSConfig) Decorate(resp *router.Response) {
	c = c.withDefaults()
	resp.SetHeader("Access-Control-Allow-Origin", c.AllowOrigin)
	resp.SetHeader("Access-Control-Allow-Methods", strings.Join(c.AllowMethods, ", "))
	resp.SetHeader("Access-Control-Allow-Headers", strings.Join(c.AllowHeaders, ", "))
}

// Preflight builds the 204 response answering an OPTIONS preflight. The
// dispatcher calls this before route resolution, so preflights succeed for
// every path.
func (c CORSConfig) Preflight() *router.Response {
	resp := &router.Response{Status: http.StatusNoContent}
	c.Decorate(resp)
	return resp
}

// CORS returns middleware that attaches the cross-origin headers to every
// response passing through it.
func CORS(cfg CORSConfig) router.Middleware {
	cfg = cfg.withDefaults()
	return func(next router.Handler) router.Handler {
		return func(c *router.Context) (*router.Response, error) {
			resp, err := next(c)
			if resp != nil {
				cfg.Decorate(resp)
			}
			return resp, err
		}
	}
}
