package users

import (
	"net/http"
	"time"

	"github.com/duwit-online/engageloop-sub001/database"
	"github.com/duwit-online/engageloop-sub001/trust"
	"github.com/duwit-online/engageloop-sub001/utils"
)

// GET /api/users/trust
func TrustProfileHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	score, err := trust.NewLedger(database.DB).Ensure(uid)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Server error")
		return
	}
	tier := trust.ResolveTier(score.TrustScore)

	data := map[string]interface{}{
		"trust_score":            score.TrustScore,
		"tier":                   tier.Name,
		"pending_delay_seconds":  int(tier.PendingDelay.Seconds()),
		"timer_multiplier":       tier.TimerMultiplier,
		"total_tasks_completed":  score.TotalTasksCompleted,
		"total_tasks_rejected":   score.TotalTasksRejected,
		"total_capsules_earned":  score.TotalCapsulesEarned,
		"total_capsules_slashed": score.TotalCapsulesSlashed,
	}
	if score.LastTaskAt != nil {
		data["last_task_at"] = score.LastTaskAt.UTC().Format(time.RFC3339)
	}
	if score.CooldownUntil != nil {
		data["cooldown_until"] = score.CooldownUntil.UTC().Format(time.RFC3339)
		data["in_cooldown"] = score.InCooldown(time.Now())
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: data})
}
