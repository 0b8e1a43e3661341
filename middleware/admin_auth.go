package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/duwit-online/engageloop-sub001/utils"
)

// AdminAuthMiddleware verifies that the request carries a valid admin token
// and puts the admin id into the request context.
func AdminAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			utils.WriteError(w, http.StatusUnauthorized, "Unauthorized: No token provided")
			return
		}
		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		_, claims, err := utils.ValidateAccessToken(tokenString)
		if err != nil {
			utils.WriteError(w, http.StatusUnauthorized, "Unauthorized: Invalid token")
			return
		}

		role, ok := claims["role"].(string)
		if !ok || role != "admin" {
			utils.WriteError(w, http.StatusForbidden, "Forbidden: Admin access required")
			return
		}

		var adminID int64
		if rawID, ok := claims["id"]; ok {
			switch v := rawID.(type) {
			case float64:
				adminID = int64(v)
			case int64:
				adminID = v
			case int:
				adminID = int64(v)
			}
		}
		if adminID == 0 {
			utils.WriteError(w, http.StatusUnauthorized, "Unauthorized: Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), utils.AdminIDKey, adminID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
