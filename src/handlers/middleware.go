package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/coolchillgy/pay/src/logger"
	"github.com/coolchillgy/pay/src/security"
	"github.com/coolchillgy/pay/src/utils"
)

// Define a custom type for context keys to avoid collisions.
// This type is unexported, making it unique to this package.
type contextKey string

const claimsContextKey contextKey = "authClaims"

// AuthMiddleware validates the bearer token and stores its claims in the
// request context.
func (h *AuthHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			logger.L.Debug("AuthMiddleware: Authorization header missing", "path", r.URL.Path)
			utils.SendJSONError(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		tokenString := ""
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		} else {
			tokenString = authHeader
		}

		if tokenString == "" {
			logger.L.Debug("AuthMiddleware: Token string empty", "path", r.URL.Path)
			utils.SendJSONError(w, "Malformed token", http.StatusUnauthorized)
			return
		}

		claims, err := h.authService.ValidateToken(tokenString)
		if err != nil {
			logger.L.Warn("AuthMiddleware: Token validation failed", "path", r.URL.Path, "error", err)
			utils.SendJSONError(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), claimsContextKey, claims)
		next(w, r.WithContext(ctx))
	}
}

// RequireAdmin rejects requests whose token does not carry the admin role.
// Must run inside AuthMiddleware.
func (h *AuthHandler) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := GetClaimsFromContext(r.Context())
		if !ok || claims.Role != security.RoleAdmin {
			utils.SendJSONError(w, "Admin access required", http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

// GetClaimsFromContext retrieves the authenticated claims from the context.
func GetClaimsFromContext(ctx context.Context) (*security.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*security.Claims)
	return claims, ok
}
