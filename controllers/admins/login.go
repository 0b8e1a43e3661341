package admins

import (
	"encoding/json"
	"net/http"

	"github.com/duwit-online/engageloop-sub001/database"
	"github.com/duwit-online/engageloop-sub001/models"
	"github.com/duwit-online/engageloop-sub001/utils"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	var admin models.Admin
	if err := database.DB.Where("username = ? AND is_active = ?", req.Username, true).First(&admin).Error; err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "Username or password is incorrect")
		return
	}
	if !admin.ValidatePassword(req.Password) {
		utils.WriteError(w, http.StatusUnauthorized, "Username or password is incorrect")
		return
	}

	token, err := utils.GenerateAdminToken(admin.ID)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Could not issue token")
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Login successful",
		Data: map[string]interface{}{
			"token": token,
			"admin": admin,
		},
	})
}
