package auth

import (
	"context"
	"net/http"
	"strings"

	"restomanage/internal/httputil"
)

type contextKey string

const claimsKey contextKey = "auth_claims"

// Role names as stored on users and carried in token claims.
const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleCashier  = "cashier"
	RoleCustomer = "customer"
)

// ClaimsFromContext returns the claims stored by Authenticate, or nil
// for an unauthenticated request.
func ClaimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(claimsKey).(*Claims)
	return claims
}

// Authenticate parses an optional Bearer token and stores its claims in the
// request context. A missing header passes through unauthenticated; a present
// but invalid token is rejected immediately.
func (tm *TokenManager) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		if tokenString == header {
			httputil.RespondWithError(w, http.StatusUnauthorized, "Invalid authorization header")
			return
		}

		claims, err := tm.Validate(tokenString)
		if err != nil {
			httputil.RespondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole rejects requests before any handler work: 401 when the request
// carries no authenticated user, 403 when the role is not in the allowed set.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				httputil.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			if !allowed[claims.Role] {
				httputil.RespondWithError(w, http.StatusForbidden, "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
