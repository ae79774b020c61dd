package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

type contextKey string

const principalContextKey contextKey = "principal"

// HTTPMiddleware resolves the bearer token (if any) into a Principal and
// stores it in the request context. For state-mutating methods it also
// requires a valid anti-forgery token bound to that principal before the
// request reaches any authorization or business check.
func HTTPMiddleware(next http.Handler, jwtSecret string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := Anonymous

		if tokenString, err := extractTokenFromHeader(r); err == nil {
			p, err := ParseToken(tokenString, jwtSecret)
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			principal = p
		}

		if isMutating(r) && !isPublicRoute(r) {
			if principal.IsAnonymous() {
				http.Error(w, "authentication required", http.StatusUnauthorized)
				return
			}
			csrf := r.Header.Get("X-CSRF-Token")
			if csrf == "" {
				http.Error(w, "anti-forgery token required", http.StatusForbidden)
				return
			}
			if err := ValidateCSRFToken(csrf, principal.UserID, jwtSecret); err != nil {
				http.Error(w, "invalid anti-forgery token", http.StatusForbidden)
				return
			}
		}

		ctx := context.WithValue(r.Context(), principalContextKey, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// PrincipalFromContext returns the Principal stored by HTTPMiddleware,
// or Anonymous when none was resolved.
func PrincipalFromContext(ctx context.Context) Principal {
	if p, ok := ctx.Value(principalContextKey).(Principal); ok {
		return p
	}
	return Anonymous
}

func extractTokenFromHeader(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", fmt.Errorf("authorization header required")
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == "" || tokenString == authHeader {
		return "", fmt.Errorf("invalid authorization format")
	}

	return tokenString, nil
}

// isPublicRoute exempts the endpoints a caller hits before having a
// session (registration and login).
func isPublicRoute(r *http.Request) bool {
	publicRoutes := map[string]bool{
		"/v1/auth/register": true,
		"/v1/auth/login":    true,
	}
	return publicRoutes[r.URL.Path]
}

func isMutating(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
