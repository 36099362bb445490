package api

import (
	"log/slog"
	"net/http"
	"time"

	chimid "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/zapponejosh/wellness-api/internal/auth"
	"github.com/zapponejosh/wellness-api/internal/config"
	"github.com/zapponejosh/wellness-api/internal/logger"
)

// Middleware is a function that wraps an HTTP handler.
type Middleware func(http.Handler) http.Handler

// DefaultUserID is the user every request acts as in development when no
// JWT secret is configured.
const DefaultUserID = "default"

// RequestIDMiddleware tags each request with an ID. A well-formed incoming
// X-Request-ID is kept; anything else is replaced with a new UUID.
func RequestIDMiddleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if _, err := uuid.Parse(requestID); err != nil {
				requestID = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", requestID)
			ctx := logger.WithRequestID(r.Context(), requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LoggingMiddleware logs HTTP requests with structured logging.
func LoggingMiddleware(log *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimid.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			log.Info("http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr),
				slog.Int("status", status),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", logger.RequestID(r.Context())),
			)
		})
	}
}

// CORSMiddleware adds CORS headers to responses.
func CORSMiddleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
			w.Header().Set("Access-Control-Max-Age", "3600")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RecoveryMiddleware recovers from panics and returns a 500 error unless
// the handler had already started its response.
func RecoveryMiddleware(log *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimid.NewWrapResponseWriter(w, r.ProtoMajor)
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					log.Error("panic recovered",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("request_id", logger.RequestID(r.Context())),
						slog.Bool("headers_sent", ww.Status() != 0),
					)
					// A response already under way cannot be replaced.
					if ww.Status() == 0 {
						WriteInternalError(ww, "Internal server error")
					}
				}
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// AuthMiddleware requires a valid bearer token and stores its subject as
// the request's user ID.
//
// With no verifier (no JWT_SECRET), development requests run as
// DefaultUserID and every other environment rejects the request.
func AuthMiddleware(v *auth.Verifier, cfg *config.Config, log *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if v == nil {
				if !cfg.IsDevelopment() {
					WriteUnauthorized(w, "Authentication is not configured")
					return
				}
				ctx := logger.WithUserID(r.Context(), DefaultUserID)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			token, err := auth.BearerToken(r.Header.Get("Authorization"))
			if err != nil {
				WriteUnauthorized(w, "Missing bearer token")
				return
			}

			userID, err := v.Verify(token)
			if err != nil {
				log.Warn("invalid token",
					slog.String("remote_addr", r.RemoteAddr),
					slog.String("path", r.URL.Path),
					slog.Any("error", err),
				)
				WriteUnauthorized(w, "Invalid token")
				return
			}

			ctx := logger.WithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID returns the authenticated user for the request.
// It is empty outside AuthMiddleware.
func UserID(r *http.Request) string {
	return logger.UserID(r.Context())
}
