package auth

import (
	"log/slog"
	"net/http"

	"github.com/rhuss/hopper/pkg/observability"
	"github.com/rhuss/hopper/pkg/router"
)

// Middleware creates router middleware from an AuthChain and optional
// RateLimiter. It checks the bypass list, runs authentication, injects the
// identity into the request context, and optionally enforces rate limits.
func Middleware(chain *AuthChain, limiter RateLimiter, bypassPaths []string) router.Middleware {
	bypass := make(map[string]bool, len(bypassPaths))
	for _, p := range bypassPaths {
		bypass[p] = true
	}

	return func(next router.Handler) router.Handler {
		return func(c *router.Context) (*router.Response, error) {
			if bypass[c.Request.Path] {
				return next(c)
			}

			result := chain.Authenticate(c.Context(), c.Request)

			if result.Decision == No {
				slog.Warn("authentication failed",
					"path", c.Request.Path,
					"connection_id", c.ConnectionID,
					"error", result.Err,
				)
				return router.Error(http.StatusUnauthorized,
					router.NewUnauthorizedError("authentication required")), nil
			}

			if result.Decision != Yes || result.Identity == nil {
				return router.Error(http.StatusUnauthorized,
					router.NewUnauthorizedError("authentication required")), nil
			}

			if result.Identity.Subject == "" {
				slog.Error("authenticator returned identity with empty subject")
				return router.Error(http.StatusInternalServerError,
					router.NewServerError("internal authentication error")), nil
			}

			slog.Debug("authentication succeeded",
				"subject", result.Identity.Subject,
				"path", c.Request.Path,
			)

			if limiter != nil {
				if err := limiter.Allow(c.Context(), result.Identity); err != nil {
					slog.Warn("rate limit exceeded",
						"subject", result.Identity.Subject,
						"tier", result.Identity.ServiceTier,
					)
					observability.RateLimitRejectedTotal.WithLabelValues(result.Identity.ServiceTier).Inc()
					return router.Error(http.StatusTooManyRequests,
						router.NewTooManyRequestsError("rate limit exceeded")), nil
				}
			}

			c.WithContext(SetIdentity(c.Context(), result.Identity))
			return next(c)
		}
	}
}

// DefaultBypassPaths lists paths that skip authentication.
var DefaultBypassPaths = []string{"/healthz", "/metrics", "/swagger.json", "/docs"}
