package auth

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/duwit-online/engageloop-sub001/database"
	"github.com/duwit-online/engageloop-sub001/models"
	"github.com/duwit-online/engageloop-sub001/utils"
)

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// LogoutHandler revokes the caller's refresh token and denylists the access
// token's jti until its natural expiry.
func LogoutHandler(w http.ResponseWriter, r *http.Request) {
	var req LogoutRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	if req.RefreshToken != "" {
		database.DB.Model(&models.RefreshToken{}).
			Where("id = ?", req.RefreshToken).
			Update("revoked", true)
	}

	authz := r.Header.Get("Authorization")
	if strings.HasPrefix(authz, "Bearer ") {
		tokenStr := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
		if _, claims, err := utils.ValidateAccessToken(tokenStr); err == nil {
			jti, _ := claims["jti"].(string)
			ttl := time.Minute
			if exp, ok := claims["exp"].(float64); ok {
				if until := time.Until(time.Unix(int64(exp), 0)); until > 0 {
					ttl = until
				}
			}
			_ = utils.RevokeToken(r.Context(), jti, ttl)
		}
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Logged out"})
}
