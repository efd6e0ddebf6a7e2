package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/clientbook/service/internal/response"
)

// Principal identifies an authenticated caller.
type Principal struct {
	Username string
	Admin    bool
}

// Authenticator verifies caller credentials. Implemented by the auth service.
type Authenticator interface {
	// VerifyPassword checks a username/password pair against stored credentials.
	VerifyPassword(ctx context.Context, username, password string) (Principal, error)
	// VerifyToken validates a bearer token and extracts its principal.
	VerifyToken(ctx context.Context, token string) (Principal, error)
}

// contextKey is an unexported type for context keys in this package.
type contextKey string

const principalKey contextKey = "principal"

// PrincipalFromContext returns the authenticated principal, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

// ContextWithPrincipal injects a principal into ctx. Exposed for handler tests.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// RequireAuth returns middleware that authenticates the caller via a Bearer
// JWT or HTTP Basic credentials and injects the principal into the request
// context. Missing or invalid credentials get a 401.
func RequireAuth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.Unauthorized(w, "authorization header required")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 {
				response.Unauthorized(w, "invalid authorization header format")
				return
			}

			var (
				principal Principal
				err       error
			)
			switch parts[0] {
			case "Bearer":
				principal, err = auth.VerifyToken(r.Context(), parts[1])
			case "Basic":
				username, password, ok := r.BasicAuth()
				if !ok {
					response.Unauthorized(w, "invalid basic auth encoding")
					return
				}
				principal, err = auth.VerifyPassword(r.Context(), username, password)
			default:
				response.Unauthorized(w, "unsupported authorization scheme")
				return
			}
			if err != nil {
				response.Unauthorized(w, "invalid credentials")
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
		})
	}
}

// RequireAdmin rejects authenticated callers without the ADMIN role.
// Must run after RequireAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		if !ok {
			response.Unauthorized(w, "unauthorized")
			return
		}
		if !p.Admin {
			response.Forbidden(w, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
