package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/foodtuck/storefront/pkg/errors"
)

type contextKeyType string

const sessionIDKey contextKeyType = "session_id"

// maxSessionIDLen matches the width of the session_id columns.
const maxSessionIDLen = 128

// Claims represents the token claims the storefront cares about.
type Claims struct {
	SessionID string `json:"session_id"`
	Email     string `json:"email,omitempty"`
}

// TokenValidator validates a bearer token and returns its claims.
type TokenValidator func(token string) (*Claims, error)

// Auth validates bearer tokens and stores the session ID from the claims in
// the request context.
func Auth(validate TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeAuthError(w, "missing authorization header")
				return
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
				writeAuthError(w, "invalid authorization header format")
				return
			}

			claims, err := validate(token)
			if err != nil || claims.SessionID == "" || len(claims.SessionID) > maxSessionIDLen {
				writeAuthError(w, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, withSession(r, claims.SessionID))
		})
	}
}

// SessionHeader reads the session ID from the named request header. It is the
// anonymous-browsing alternative to Auth for deployments without a token issuer.
func SessionHeader(name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(name))
			if id == "" {
				writeAuthError(w, "missing "+name+" header")
				return
			}
			if len(id) > maxSessionIDLen {
				writeAuthError(w, "invalid "+name+" header")
				return
			}
			next.ServeHTTP(w, withSession(r, id))
		})
	}
}

// withSession attaches the session to the request context and the active span.
func withSession(r *http.Request, id string) *http.Request {
	ctx := r.Context()
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("storefront.session_id", id))
	return r.WithContext(WithSessionID(ctx, id))
}

// WithSessionID returns a context carrying the shopper's session ID.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

// SessionIDFromContext extracts the session ID from the request context.
func SessionIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(sessionIDKey).(string); ok {
		return id
	}
	return ""
}

func writeAuthError(w http.ResponseWriter, message string) {
	writeAppError(w, apperrors.Unauthorized(message))
}

// writeAppError renders err in the API error envelope. Middleware runs
// outside the handlers, so it cannot use httputil.WriteError.
func writeAppError(w http.ResponseWriter, err *apperrors.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    err.Code,
			"message": err.Message,
		},
	})
}
