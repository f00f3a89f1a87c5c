package middleware

import (
	"fmt"
	"net/http"

	"github.com/rhuss/hopper/pkg/observability"
	"github.com/rhuss/hopper/pkg/router"
)

// Recovery returns middleware that catches panics in inner stages and
// converts them to server error responses. The server continues to accept
// new requests after a panic is recovered.
func Recovery() router.Middleware {
	return func(next router.Handler) router.Handler {
		return func(c *router.Context) (resp *router.Response, err error) {
			defer func() {
				if r := recover(); r != nil {
					observability.PanicsRecoveredTotal.Inc()
					resp = router.Error(http.StatusInternalServerError,
						router.NewServerError(fmt.Sprintf("internal server error: %v", r)))
					err = nil
				}
			}()
			return next(c)
		}
	}
}
