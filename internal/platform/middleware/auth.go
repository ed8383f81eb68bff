package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"campusbourses/internal/jwttoken"
	"campusbourses/pkg/domain"
)

// JWTValidator defines the interface for validating JWT tokens.
type JWTValidator interface {
	ValidateToken(tokenString string) (*jwttoken.Claims, error)
}

// RevocationChecker reports whether a token ID has been revoked (logout).
// A nil checker disables revocation checks.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type contextKeyPrincipal struct{}
type contextKeyTokenID struct{}

var (
	ContextKeyPrincipal = contextKeyPrincipal{}
	ContextKeyTokenID   = contextKeyTokenID{}
)

// GetPrincipal retrieves the authenticated principal from the context.
func GetPrincipal(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(ContextKeyPrincipal).(domain.Principal)
	return p, ok
}

// GetTokenID retrieves the JWT ID of the presented token, for logout.
func GetTokenID(ctx context.Context) string {
	id, ok := ctx.Value(ContextKeyTokenID).(string)
	if !ok {
		return ""
	}
	return id
}

// WithPrincipal returns a context carrying the given principal. Handler tests
// use this to simulate what RequireAuth establishes.
func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, ContextKeyPrincipal, p)
}

// RequireAuth validates the bearer token, rejects revoked tokens, and places
// the resulting principal in the request context.
func RequireAuth(validator JWTValidator, revocations RevocationChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := GetRequestID(ctx)

			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			if revocations != nil && claims.ID != "" {
				revoked, err := revocations.IsRevoked(ctx, claims.ID)
				if err != nil {
					logger.ErrorContext(ctx, "revocation check failed",
						"error", err,
						"request_id", requestID,
					)
					// Fail closed: an unverifiable token is not accepted.
					writeUnauthorized(w, "Invalid or expired token")
					return
				}
				if revoked {
					writeUnauthorized(w, "Token has been revoked")
					return
				}
			}

			principal, err := claims.Principal()
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - malformed claims",
					"error", err,
					"request_id", requestID,
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx = context.WithValue(ctx, ContextKeyPrincipal, principal)
			ctx = context.WithValue(ctx, ContextKeyTokenID, claims.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
