package users

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/duwit-online/engageloop-sub001/database"
	"github.com/duwit-online/engageloop-sub001/models"
	"github.com/duwit-online/engageloop-sub001/tasks"
	"github.com/duwit-online/engageloop-sub001/trust"
	"github.com/duwit-online/engageloop-sub001/utils"

	"gorm.io/gorm"
)

const maxScreenshotBytes = 8 << 20

// POST /api/users/submissions
//
// Multipart form: task_id, platform_username, content_answer, comment_text,
// timer_seconds, confirmed, screenshot (file). The row is created in pending
// with the task's capsule reward frozen onto it.
func SubmissionCreateHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := r.ParseMultipartForm(maxScreenshotBytes); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	taskID, _ := strconv.Atoi(r.FormValue("task_id"))
	if taskID <= 0 {
		utils.WriteError(w, http.StatusBadRequest, "task_id is required")
		return
	}
	timerSeconds, _ := strconv.Atoi(r.FormValue("timer_seconds"))
	confirmed := r.FormValue("confirmed") == "true" || r.FormValue("confirmed") == "1"

	db := database.DB

	var task models.EngagementTask
	if err := db.Where("status = ?", "Active").First(&task, taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteError(w, http.StatusNotFound, "Task not found")
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "Server error")
		return
	}

	ledger := trust.NewLedger(db)
	score, err := ledger.Ensure(uid)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if score.InCooldown(time.Now()) {
		utils.WriteJSON(w, http.StatusTooManyRequests, utils.APIResponse{
			Success: false,
			Message: "Your account is in cooldown",
			Data:    map[string]interface{}{"cooldown_until": score.CooldownUntil.UTC().Format(time.RFC3339)},
		})
		return
	}
	tier := trust.ResolveTier(score.TrustScore)

	file, header, fileErr := r.FormFile("screenshot")
	if fileErr == nil {
		defer file.Close()
	}

	input := tasks.SubmissionInput{
		TaskType:         tasks.TaskType(task.TaskType),
		Platform:         task.Platform,
		PlatformUsername: strings.TrimSpace(r.FormValue("platform_username")),
		ContentAnswer:    strings.TrimSpace(r.FormValue("content_answer")),
		CommentText:      strings.TrimSpace(r.FormValue("comment_text")),
		HasScreenshot:    fileErr == nil,
		TimerSeconds:     timerSeconds,
		Confirmed:        confirmed,
	}
	if err := tasks.ValidateSubmission(input, tier); err != nil {
		var verr *tasks.ValidationError
		if errors.As(err, &verr) {
			utils.WriteJSON(w, http.StatusUnprocessableEntity, utils.APIResponse{
				Success: false,
				Message: "Submission rejected: " + verr.Reason,
				Data:    map[string]interface{}{"field": verr.Field},
			})
			return
		}
		utils.WriteError(w, http.StatusUnprocessableEntity, "Submission rejected")
		return
	}

	// One live claim per task per user; rejected/reversed rows free the slot.
	var dup models.TaskSubmission
	err = db.Where("user_id = ? AND task_id = ? AND status NOT IN ?", uid, task.ID,
		[]models.SubmissionStatus{models.SubmissionRejected, models.SubmissionReversed}).
		First(&dup).Error
	if err == nil {
		utils.WriteError(w, http.StatusConflict, "You have already submitted this task")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.WriteError(w, http.StatusInternalServerError, "Server error")
		return
	}

	// External username check, skipped for plain website visits.
	var verification *string
	if task.Platform != tasks.PlatformWebsite {
		result, err := utils.VerifyPlatformUsername(r.Context(), task.Platform, input.PlatformUsername)
		if err != nil {
			var verr *utils.VerifierError
			if errors.As(err, &verr) {
				utils.WriteError(w, http.StatusBadGateway, "Username verification failed: "+verr.Message)
				return
			}
			utils.WriteError(w, http.StatusBadGateway, "Username verification unavailable")
			return
		}
		if !result.IsValid {
			utils.WriteError(w, http.StatusUnprocessableEntity, "Username was not found on "+task.Platform)
			return
		}
		if result.ProfileData != nil {
			if raw, err := json.Marshal(result.ProfileData); err == nil {
				s := string(raw)
				verification = &s
			}
		}
	}

	key := utils.NewEvidenceKey(uid, header.Filename)
	if err := utils.UploadEvidence(r.Context(), key, file); err != nil {
		log.Printf("[submission] evidence upload for user %d: %v", uid, err)
		utils.WriteError(w, http.StatusInternalServerError, "Could not store screenshot")
		return
	}

	var comment *string
	if input.CommentText != "" {
		comment = &input.CommentText
	}
	userID := uid
	sub := models.TaskSubmission{
		TaskID:             task.ID,
		UserID:             &userID,
		Platform:           task.Platform,
		TaskType:           task.TaskType,
		PlatformUsername:   input.PlatformUsername,
		ContentQuestion:    task.ContentQuestion,
		ContentAnswer:      input.ContentAnswer,
		CommentText:        comment,
		ScreenshotURL:      key,
		TimerSeconds:       timerSeconds,
		CapsulesEarned:     task.Capsules,
		VerificationResult: verification,
		Status:             models.SubmissionPending,
	}
	if err := db.Create(&sub).Error; err != nil {
		log.Printf("[submission] DB Create for user %d task %d: %v", uid, task.ID, err)
		utils.WriteError(w, http.StatusInternalServerError, "Could not save submission")
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{
		Success: true,
		Message: "Submission received and awaiting review",
		Data: map[string]interface{}{
			"id":              sub.ID,
			"status":          sub.Status,
			"capsules_earned": sub.CapsulesEarned,
		},
	})
}

// GET /api/users/submissions
func SubmissionListHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	status := strings.TrimSpace(r.URL.Query().Get("status"))

	query := database.DB.Where("user_id = ?", uid)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var subs []models.TaskSubmission
	if err := query.Order("id DESC").Limit(100).Find(&subs).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Database error")
		return
	}

	items := make([]map[string]interface{}, 0, len(subs))
	for _, s := range subs {
		item := map[string]interface{}{
			"id":              s.ID,
			"task_id":         s.TaskID,
			"platform":        s.Platform,
			"task_type":       s.TaskType,
			"status":          s.Status,
			"capsules_earned": s.CapsulesEarned,
			"created_at":      s.CreatedAt.Format(time.RFC3339),
		}
		if s.RejectionReason != nil {
			item["rejection_reason"] = *s.RejectionReason
		}
		if s.VerifiedAt != nil {
			item["verified_at"] = s.VerifiedAt.Format(time.RFC3339)
		}
		if s.ReleasedAt != nil {
			item["released_at"] = s.ReleasedAt.Format(time.RFC3339)
		}
		items = append(items, item)
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: items})
}
