package admins

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/duwit-online/engageloop-sub001/database"
	"github.com/duwit-online/engageloop-sub001/trust"
	"github.com/duwit-online/engageloop-sub001/utils"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

func trustUserID(r *http.Request) (uint, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["user_id"])
	if err != nil || id <= 0 {
		return 0, false
	}
	return uint(id), true
}

// GET /api/admin/trust/{user_id}
func GetTrustHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := trustUserID(r)
	if !ok {
		utils.WriteError(w, http.StatusBadRequest, "Invalid user id")
		return
	}
	score, err := trust.NewLedger(database.DB).Get(uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteError(w, http.StatusNotFound, "User has no trust ledger row")
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "Server error")
		return
	}
	tier := trust.ResolveTier(score.TrustScore)
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: map[string]interface{}{
		"ledger": score,
		"tier":   tier.Name,
	}})
}

// POST /api/admin/trust/{user_id}/adjust
//
// Delta is applied atomically in storage and clamped to [0,100] there; two
// concurrent adjustments can never push the score out of range.
func AdjustTrustHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := trustUserID(r)
	if !ok {
		utils.WriteError(w, http.StatusBadRequest, "Invalid user id")
		return
	}
	var req struct {
		Delta int `json:"delta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Delta == 0 {
		utils.WriteError(w, http.StatusBadRequest, "delta must be a non-zero integer")
		return
	}

	ledger := trust.NewLedger(database.DB)
	if _, err := ledger.Ensure(uid); err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if err := ledger.AdjustScore(uid, req.Delta); err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Server error")
		return
	}
	score, err := ledger.Get(uid)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Server error")
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Trust score adjusted", Data: map[string]interface{}{
		"trust_score": score.TrustScore,
		"tier":        trust.ResolveTier(score.TrustScore).Name,
	}})
}

// POST /api/admin/trust/{user_id}/cooldown
//
// Seconds > 0 starts a cooldown, seconds == 0 clears it.
func SetCooldownHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := trustUserID(r)
	if !ok {
		utils.WriteError(w, http.StatusBadRequest, "Invalid user id")
		return
	}
	var req struct {
		Seconds int `json:"seconds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Seconds < 0 {
		utils.WriteError(w, http.StatusBadRequest, "seconds must be a non-negative integer")
		return
	}

	ledger := trust.NewLedger(database.DB)
	if _, err := ledger.Ensure(uid); err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Server error")
		return
	}
	var until *time.Time
	if req.Seconds > 0 {
		t := time.Now().Add(time.Duration(req.Seconds) * time.Second)
		until = &t
	}
	if err := ledger.SetCooldown(uid, until); err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Server error")
		return
	}

	msg := "Cooldown cleared"
	data := map[string]interface{}{}
	if until != nil {
		msg = "Cooldown set"
		data["cooldown_until"] = until.UTC().Format(time.RFC3339)
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: msg, Data: data})
}
