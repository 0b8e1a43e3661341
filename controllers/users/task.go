package users

import (
	"net/http"

	"github.com/duwit-online/engageloop-sub001/database"
	"github.com/duwit-online/engageloop-sub001/models"
	"github.com/duwit-online/engageloop-sub001/tasks"
	"github.com/duwit-online/engageloop-sub001/trust"
	"github.com/duwit-online/engageloop-sub001/utils"
)

// GET /api/users/tasks
//
// Lists active engagement tasks with the dwell requirement already resolved
// for the caller's trust tier, so the client can run the timer without
// knowing the tier math.
func TaskListHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	db := database.DB

	score, err := trust.NewLedger(db).Ensure(uid)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Server error")
		return
	}
	tier := trust.ResolveTier(score.TrustScore)

	var list []models.EngagementTask
	if err := db.Where("status = ?", "Active").Order("id ASC").Find(&list).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "DB error")
		return
	}

	// Tasks the caller already has an open or paid claim on.
	var existing []models.TaskSubmission
	db.Where("user_id = ? AND status NOT IN ?", uid,
		[]models.SubmissionStatus{models.SubmissionRejected, models.SubmissionReversed}).
		Find(&existing)
	taken := map[uint]bool{}
	for _, s := range existing {
		taken[s.TaskID] = true
	}

	resp := make([]map[string]interface{}, 0, len(list))
	for _, t := range list {
		rule, known := tasks.RuleFor(tasks.TaskType(t.TaskType))
		if !known {
			continue
		}
		resp = append(resp, map[string]interface{}{
			"id":               t.ID,
			"title":            t.Title,
			"platform":         t.Platform,
			"task_type":        t.TaskType,
			"target_url":       t.TargetURL,
			"content_question": t.ContentQuestion,
			"capsules":         t.Capsules,
			"required_dwell":   rule.RequiredDwell(tier),
			"requires_comment": rule.RequiresComment,
			"taken":            taken[t.ID],
		})
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: map[string]interface{}{
		"tier":  tier.Name,
		"tasks": resp,
	}})
}
