package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/duwit-online/engageloop-sub001/utils"
)

// AuthMiddleware validates the bearer token and puts the user id and role
// into the request context.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authz := r.Header.Get("Authorization")
		if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
			utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		tokenStr := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
		_, claims, err := utils.ValidateAccessToken(tokenStr)
		if err != nil {
			if strings.Contains(err.Error(), "expired") {
				utils.WriteError(w, http.StatusUnauthorized, "Session expired, please log in again")
				return
			}
			utils.WriteError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		var userID uint
		if rawID, ok := claims["id"]; ok {
			switch v := rawID.(type) {
			case float64:
				userID = uint(v)
			case int64:
				userID = uint(v)
			case int:
				userID = uint(v)
			}
		}
		if userID == 0 {
			utils.WriteError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		role, _ := claims["role"].(string)
		// Admin tokens are not valid on user endpoints.
		if role == "admin" {
			utils.WriteError(w, http.StatusForbidden, "Access denied")
			return
		}

		ctx := context.WithValue(r.Context(), utils.UserIDKey, userID)
		ctx = context.WithValue(ctx, utils.UserRoleKey, role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
