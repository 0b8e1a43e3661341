package auth

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/duwit-online/engageloop-sub001/database"
	"github.com/duwit-online/engageloop-sub001/utils"
)

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RefreshHandler exchanges a valid refresh token for a new access token and a
// rotated refresh token.
func RefreshHandler(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.RefreshToken == "" {
		utils.WriteError(w, http.StatusBadRequest, "refresh_token is required")
		return
	}

	rt, err := utils.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	// Rotate: the old token is revoked before the replacement is issued so a
	// replayed token can never mint two sessions.
	rt.Revoked = true
	if err := database.DB.Save(rt).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Server error")
		return
	}
	newRefresh, err := utils.GenerateRefreshToken(rt.UserID)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Server error")
		return
	}

	accessToken, err := utils.GenerateAccessToken(rt.UserID, "user")
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Server error")
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data: map[string]interface{}{
			"access_token":  accessToken,
			"access_expire": time.Now().Add(15 * time.Minute).UTC().Format(time.RFC3339),
			"refresh_token": newRefresh,
		},
	})
}
