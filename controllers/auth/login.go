package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/duwit-online/engageloop-sub001/database"
	"github.com/duwit-online/engageloop-sub001/middleware"
	"github.com/duwit-online/engageloop-sub001/models"
	"github.com/duwit-online/engageloop-sub001/trust"
	"github.com/duwit-online/engageloop-sub001/utils"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,emailok"`
	Password string `json:"password" validate:"required,pwdmin"`
}

func LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	db := database.DB

	var user models.User
	if err := db.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.WriteError(w, http.StatusUnauthorized, "Email or password is incorrect")
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "Server error")
		return
	}

	// Only Active accounts may log in.
	if strings.ToLower(user.Status) != "active" {
		utils.WriteError(w, http.StatusForbidden, "Your account is not active, please contact support")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "Email or password is incorrect")
		return
	}

	accessToken, err := utils.GenerateAccessToken(user.ID, "user")
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Login failed")
		return
	}
	refreshToken, err := utils.GenerateRefreshToken(user.ID)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Could not store refresh token")
		return
	}

	score, err := trust.NewLedger(db).Ensure(user.ID)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Server error")
		return
	}
	tier := trust.ResolveTier(score.TrustScore)

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Login successful",
		Data: map[string]interface{}{
			"access_token":  accessToken,
			"access_expire": time.Now().Add(15 * time.Minute).UTC().Format(time.RFC3339),
			"refresh_token": refreshToken,
			"user": map[string]interface{}{
				"name":            user.Name,
				"email":           user.Email,
				"capsule_balance": user.CapsuleBalance,
				"trust_score":     score.TrustScore,
				"trust_tier":      tier.Name,
			},
		},
	})
}
