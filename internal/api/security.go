package api

import (
	"fmt"
	"net/http"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"github.com/unrolled/secure"

	"github.com/zapponejosh/wellness-api/internal/config"
)

// SecureMiddleware sets the standard security headers. Host and TLS checks
// are skipped in development.
func SecureMiddleware(cfg *config.Config) Middleware {
	sm := secure.New(secure.Options{
		IsDevelopment:         cfg.IsDevelopment(),
		ContentTypeNosniff:    true,
		FrameDeny:             true,
		BrowserXssFilter:      true,
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		ReferrerPolicy:        "no-referrer",
	})
	return sm.Handler
}

// RateLimitMiddleware limits requests per client IP. rate uses the limiter
// format ("20-M" is twenty per minute); an empty rate disables limiting.
func RateLimitMiddleware(rate string) (Middleware, error) {
	if rate == "" {
		return func(next http.Handler) http.Handler { return next }, nil
	}

	r, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("parse rate limit %q: %w", rate, err)
	}

	instance := limiter.New(memory.NewStore(), r)
	mw := stdlib.NewMiddleware(instance,
		stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			WriteError(w, http.StatusTooManyRequests, "Too many requests", CodeRateLimited)
		}),
	)
	return mw.Handler, nil
}
