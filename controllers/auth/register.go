package auth

import (
	"errors"
	"log"
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

type RegisterRequest struct {
	Name                 string `json:"name" validate:"required,nameok"`
	Email                string `json:"email" validate:"required,emailok"`
	Password             string `json:"password" validate:"required,pwdmin"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

func RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	db := database.DB

	// Ensure unique email
	var existing models.User
	if err := db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		utils.WriteJSON(w, http.StatusConflict, utils.APIResponse{Success: false, Message: "Email is already registered"})
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("[register] DB error checking email: %v", err)
		utils.WriteError(w, http.StatusInternalServerError, "Server error")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Server error")
		return
	}

	newUser := models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashed),
		Status:   "Active",
	}
	if err := db.Create(&newUser).Error; err != nil {
		log.Printf("[register] DB Create user error: %v", err)
		utils.WriteError(w, http.StatusInternalServerError, "Registration failed, please try again")
		return
	}

	// Every account starts with a trust ledger row at the default score.
	ledger := trust.NewLedger(db)
	score, err := ledger.Ensure(newUser.ID)
	if err != nil {
		log.Printf("[register] trust ledger init for user %d: %v", newUser.ID, err)
		utils.WriteError(w, http.StatusInternalServerError, "Server error")
		return
	}

	accessToken, err := utils.GenerateAccessToken(newUser.ID, "user")
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Could not issue token")
		return
	}
	refreshToken, err := utils.GenerateRefreshToken(newUser.ID)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Could not store refresh token")
		return
	}

	tier := trust.ResolveTier(score.TrustScore)
	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{
		Success: true,
		Message: "Registration successful, welcome!",
		Data: map[string]interface{}{
			"access_token":  accessToken,
			"access_expire": time.Now().Add(15 * time.Minute).UTC().Format(time.RFC3339),
			"refresh_token": refreshToken,
			"user": map[string]interface{}{
				"name":            newUser.Name,
				"email":           newUser.Email,
				"capsule_balance": newUser.CapsuleBalance,
				"trust_score":     score.TrustScore,
				"trust_tier":      tier.Name,
			},
		},
	})
}
