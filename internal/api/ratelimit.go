package api

import (
	"net"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/findshroom/findshroom-server/internal/errors"
	"github.com/findshroom/findshroom-server/internal/ratelimit"
)

// rateLimitByIP returns a huma middleware that limits requests per client IP.
// Returns 429 Too Many Requests when the limit is exceeded. A nil limiter
// lets every request through.
func (s *Server) rateLimitByIP(limiter *ratelimit.KeyedRateLimiter) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if limiter == nil {
			next(ctx)
			return
		}

		key := clientIP(ctx.RemoteAddr())
		if !limiter.Allow(key) {
			s.logger.Warn("Rate limit exceeded",
				"ip", key,
				"path", ctx.URL().Path,
			)
			_ = huma.WriteErr(s.api, ctx, http.StatusTooManyRequests,
				"Too many requests. Please try again later.",
				domainerrors.RateLimited("Too many requests. Please try again later."),
			)
			return
		}

		next(ctx)
	}
}

// clientIP strips the port from a remote address. middleware.RealIP has
// already replaced it with the forwarded client address where present.
func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
