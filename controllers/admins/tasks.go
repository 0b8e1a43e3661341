package admins

import (
	"encoding/json"
	"net/http"

	"github.com/duwit-online/engageloop-sub001/database"
	"github.com/duwit-online/engageloop-sub001/models"
	"github.com/duwit-online/engageloop-sub001/tasks"
	"github.com/duwit-online/engageloop-sub001/utils"

	"github.com/gorilla/mux"
)

// GET /api/admin/tasks
func TaskListHandler(w http.ResponseWriter, r *http.Request) {
	db := database.DB

	var list []models.EngagementTask
	if err := db.Order("id ASC").Find(&list).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "A system error occurred, please try again")
		return
	}

	// Submission counts per task, grouped in one query.
	type taskCount struct {
		TaskID uint
		Cnt    int64
	}
	countMap := make(map[uint]int64, len(list))
	if len(list) > 0 {
		ids := make([]uint, 0, len(list))
		for _, t := range list {
			ids = append(ids, t.ID)
		}
		var counts []taskCount
		if err := db.
			Table("task_submissions").
			Select("task_id, COUNT(*) as cnt").
			Where("task_id IN ?", ids).
			Group("task_id").
			Scan(&counts).Error; err != nil {
			utils.WriteError(w, http.StatusInternalServerError, "A system error occurred, please try again")
			return
		}
		for _, c := range counts {
			countMap[c.TaskID] = c.Cnt
		}
	}

	type TaskWithStats struct {
		models.EngagementTask
		TotalSubmissions int64 `json:"total_submissions"`
	}
	items := make([]TaskWithStats, 0, len(list))
	for _, t := range list {
		items = append(items, TaskWithStats{EngagementTask: t, TotalSubmissions: countMap[t.ID]})
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: items})
}

type TaskRequest struct {
	Title           string `json:"title"`
	Platform        string `json:"platform"`
	TaskType        string `json:"task_type"`
	TargetURL       string `json:"target_url"`
	ContentQuestion string `json:"content_question"`
	Capsules        int64  `json:"capsules"`
	Status          string `json:"status"`
}

func (req *TaskRequest) validate() string {
	if req.Title == "" || req.Platform == "" || req.TargetURL == "" {
		return "title, platform and target_url are required"
	}
	if !tasks.KnownTaskType(tasks.TaskType(req.TaskType)) {
		return "task_type must be one of like, comment, follow, stream"
	}
	if req.Capsules <= 0 {
		return "capsules must be positive"
	}
	return ""
}

// POST /api/admin/tasks
func CreateTaskHandler(w http.ResponseWriter, r *http.Request) {
	var req TaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		utils.WriteError(w, http.StatusBadRequest, msg)
		return
	}
	if req.Status == "" {
		req.Status = "Active"
	}

	task := models.EngagementTask{
		Title:           req.Title,
		Platform:        req.Platform,
		TaskType:        req.TaskType,
		TargetURL:       req.TargetURL,
		ContentQuestion: req.ContentQuestion,
		Capsules:        req.Capsules,
		Status:          req.Status,
	}
	if err := database.DB.Create(&task).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "A system error occurred, please try again")
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{Success: true, Message: "Task created", Data: task})
}

// PUT /api/admin/tasks/{id}
//
// Edits never touch in-flight submissions: capsules_earned was frozen onto
// each row at creation time.
func UpdateTaskHandler(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["id"]

	var req TaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		utils.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	db := database.DB
	var task models.EngagementTask
	if err := db.First(&task, taskID).Error; err != nil {
		utils.WriteError(w, http.StatusNotFound, "Task not found")
		return
	}

	task.Title = req.Title
	task.Platform = req.Platform
	task.TaskType = req.TaskType
	task.TargetURL = req.TargetURL
	task.ContentQuestion = req.ContentQuestion
	task.Capsules = req.Capsules
	if req.Status != "" {
		task.Status = req.Status
	}
	if err := db.Save(&task).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "A system error occurred, please try again")
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Task updated", Data: task})
}

// DELETE /api/admin/tasks/{id}
//
// Tasks with submissions are retired instead of deleted so history keeps its
// foreign keys.
func DeleteTaskHandler(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["id"]

	db := database.DB
	var task models.EngagementTask
	if err := db.First(&task, taskID).Error; err != nil {
		utils.WriteError(w, http.StatusNotFound, "Task not found")
		return
	}

	var subCount int64
	if err := db.Model(&models.TaskSubmission{}).Where("task_id = ?", task.ID).Count(&subCount).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "A system error occurred, please try again")
		return
	}
	if subCount > 0 {
		if err := db.Model(&task).Update("status", "Inactive").Error; err != nil {
			utils.WriteError(w, http.StatusInternalServerError, "A system error occurred, please try again")
			return
		}
		utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Task has submissions and was retired instead", Data: task})
		return
	}

	if err := db.Delete(&task).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "A system error occurred, please try again")
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Task deleted"})
}
