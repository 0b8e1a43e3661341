package admins

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/duwit-online/engageloop-sub001/database"
	"github.com/duwit-online/engageloop-sub001/models"
	"github.com/duwit-online/engageloop-sub001/tasks"
	"github.com/duwit-online/engageloop-sub001/utils"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

// GET /api/admin/submissions
//
// Review queue, newest first, filterable by status. Screenshot URLs are
// presigned on the way out so the dashboard can render evidence directly.
func SubmissionQueueHandler(w http.ResponseWriter, r *http.Request) {
	status := strings.TrimSpace(r.URL.Query().Get("status"))
	if status == "" {
		status = string(models.SubmissionPending)
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = 20
	}
	offset := (page - 1) * limit

	db := database.DB

	var totalRows int64
	if err := db.Model(&models.TaskSubmission{}).Where("status = ?", status).Count(&totalRows).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Database error")
		return
	}

	var subs []models.TaskSubmission
	if err := db.Where("status = ?", status).Order("id DESC").Limit(limit).Offset(offset).Find(&subs).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Database error")
		return
	}

	items := make([]map[string]interface{}, 0, len(subs))
	for _, s := range subs {
		item := map[string]interface{}{
			"id":                s.ID,
			"task_id":           s.TaskID,
			"user_id":           s.UserID,
			"platform":          s.Platform,
			"task_type":         s.TaskType,
			"platform_username": s.PlatformUsername,
			"content_question":  s.ContentQuestion,
			"content_answer":    s.ContentAnswer,
			"comment_text":      s.CommentText,
			"timer_seconds":     s.TimerSeconds,
			"capsules_earned":   s.CapsulesEarned,
			"status":            s.Status,
			"created_at":        s.CreatedAt.Format(time.RFC3339),
		}
		if s.VerificationResult != nil {
			item["verification_result"] = json.RawMessage(*s.VerificationResult)
		}
		if url, err := utils.EvidenceURL(r.Context(), s.ScreenshotURL, 15*time.Minute); err == nil {
			item["screenshot_url"] = url
		} else {
			item["screenshot_url"] = s.ScreenshotURL
		}
		items = append(items, item)
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data: map[string]interface{}{
			"data": items,
			"pagination": map[string]interface{}{
				"page":        page,
				"limit":       limit,
				"total_rows":  totalRows,
				"total_pages": int(math.Ceil(float64(totalRows) / float64(limit))),
			},
		},
	})
}

func submissionID(r *http.Request) (uint, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		return 0, false
	}
	return uint(id), true
}

func writeLifecycleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		utils.WriteError(w, http.StatusNotFound, "Submission not found")
	case errors.Is(err, tasks.ErrRejectionReasonRequired):
		utils.WriteError(w, http.StatusBadRequest, "A rejection reason is required")
	case errors.Is(err, tasks.ErrInvalidTransition):
		utils.WriteError(w, http.StatusConflict, "Submission is not in a state that allows this action")
	case errors.Is(err, tasks.ErrTransitionConflict):
		utils.WriteError(w, http.StatusConflict, "Submission was updated by someone else, reload and retry")
	default:
		utils.WriteError(w, http.StatusInternalServerError, "A system error occurred, please try again")
	}
}

// POST /api/admin/submissions/{id}/verify
func VerifySubmissionHandler(w http.ResponseWriter, r *http.Request) {
	adminID, _ := utils.GetAdminID(r)
	id, ok := submissionID(r)
	if !ok {
		utils.WriteError(w, http.StatusBadRequest, "Invalid submission id")
		return
	}
	sub, err := tasks.NewLifecycle(database.DB).Verify(id, adminID)
	if err != nil {
		writeLifecycleError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Submission verified", Data: sub})
}

// POST /api/admin/submissions/{id}/reject
func RejectSubmissionHandler(w http.ResponseWriter, r *http.Request) {
	adminID, _ := utils.GetAdminID(r)
	id, ok := submissionID(r)
	if !ok {
		utils.WriteError(w, http.StatusBadRequest, "Invalid submission id")
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	sub, err := tasks.NewLifecycle(database.DB).Reject(id, adminID, req.Reason)
	if err != nil {
		writeLifecycleError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Submission rejected", Data: sub})
}

// POST /api/admin/submissions/{id}/flag
func FlagSubmissionHandler(w http.ResponseWriter, r *http.Request) {
	adminID, _ := utils.GetAdminID(r)
	id, ok := submissionID(r)
	if !ok {
		utils.WriteError(w, http.StatusBadRequest, "Invalid submission id")
		return
	}
	sub, err := tasks.NewLifecycle(database.DB).Flag(id, adminID)
	if err != nil {
		writeLifecycleError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Submission flagged for review", Data: sub})
}

// POST /api/admin/submissions/{id}/reverse
func ReverseSubmissionHandler(w http.ResponseWriter, r *http.Request) {
	adminID, _ := utils.GetAdminID(r)
	id, ok := submissionID(r)
	if !ok {
		utils.WriteError(w, http.StatusBadRequest, "Invalid submission id")
		return
	}
	sub, err := tasks.NewLifecycle(database.DB).Reverse(id, adminID)
	if err != nil {
		writeLifecycleError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Submission reversed", Data: sub})
}
