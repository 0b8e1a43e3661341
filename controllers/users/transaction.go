package users

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/duwit-online/engageloop-sub001/database"
	"github.com/duwit-online/engageloop-sub001/models"
	"github.com/duwit-online/engageloop-sub001/utils"
)

// GET /api/users/transactions
//
// Paginated capsule transaction history. The flow query param filters on
// credit or slash rows.
func GetCapsuleTransactions(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	flow := strings.TrimSpace(r.URL.Query().Get("flow"))

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = 10
	}

	db := database.DB

	countQuery := db.Model(&models.CapsuleTransaction{}).Where("user_id = ?", uid)
	if flow == "credit" || flow == "slash" {
		countQuery = countQuery.Where("flow = ?", flow)
	}
	var totalRows int64
	if err := countQuery.Count(&totalRows).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Database error")
		return
	}

	totalPages := int(math.Ceil(float64(totalRows) / float64(limit)))
	offset := (page - 1) * limit

	var txs []models.CapsuleTransaction
	query := db.Where("user_id = ?", uid)
	if flow == "credit" || flow == "slash" {
		query = query.Where("flow = ?", flow)
	}
	if err := query.Order("id DESC").Limit(limit).Offset(offset).Find(&txs).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Database error")
		return
	}

	type transactionDTO struct {
		ID           uint    `json:"id"`
		SubmissionID *uint   `json:"submission_id,omitempty"`
		Amount       int64   `json:"amount"`
		Flow         string  `json:"flow"`
		ReferenceID  string  `json:"reference_id"`
		Message      *string `json:"message,omitempty"`
		CreatedAt    string  `json:"created_at"`
	}
	items := make([]transactionDTO, 0, len(txs))
	for _, t := range txs {
		items = append(items, transactionDTO{
			ID:           t.ID,
			SubmissionID: t.SubmissionID,
			Amount:       t.Amount,
			Flow:         t.Flow,
			ReferenceID:  t.ReferenceID,
			Message:      t.Message,
			CreatedAt:    t.CreatedAt.Format(time.RFC3339),
		})
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
				"total_pages": totalPages,
			},
		},
	})
}
